package actorutil

import (
	"github.com/asynkron/protoactor-go/actor"
)

type ActorState interface {
	Name() string
	Receive(actor.Context)
}

type namedState struct {
	name    string
	receive actor.ReceiveFunc
}

func (s namedState) Name() string {
	return s.name
}

func (s namedState) Receive(ctx actor.Context) {
	s.receive(ctx)
}

func NewActorState(name string, receive actor.ReceiveFunc) ActorState {
	return namedState{name: name, receive: receive}
}

// ActorWithStates wraps a behavior and remembers the name of the active state.
type ActorWithStates struct {
	Behavior actor.Behavior
	name     string
}

func NewActorWithStates() ActorWithStates {
	return ActorWithStates{Behavior: actor.NewBehavior()}
}

func (s *ActorWithStates) Become(state ActorState) {
	s.name = state.Name()
	s.Behavior.Become(state.Receive)
}

func (s *ActorWithStates) StateName() string {
	return s.name
}

func (s *ActorWithStates) Receive(ctx actor.Context) {
	s.Behavior.Receive(ctx)
}
