package actor

import (
	"errors"
	"fmt"
	"time"

	"github.com/berfenger/solarpoll/internal/core/domain"
	. "github.com/berfenger/solarpoll/internal/util/actorutil"

	"github.com/asynkron/protoactor-go/actor"
	"go.uber.org/zap"
)

const (
	STATE_DEFAULT      = "default"
	STATE_UNRESPONSIVE = "unresponsive"
)

type AcquisitionActorProvider func() *AcquisitionActor

// MasterActor supervises the acquisition actor and routes external requests
// to it. Health is answered from the last report of the acquisition actor,
// which counts as unresponsive once that report is older than staleAfter.
type MasterActor struct {
	ActorWithStates
	stash *Stash

	acquisitionActor    *actor.PID
	acquisitionProvider AcquisitionActorProvider
	lastReport          acquisitionReport
	staleAfter          time.Duration
	now                 func() time.Time
	logger              *zap.Logger
}

func NewMasterActor(acquisitionProvider AcquisitionActorProvider, staleAfter time.Duration, logger *zap.Logger) *MasterActor {
	act := &MasterActor{
		ActorWithStates:     NewActorWithStates(),
		stash:               &Stash{},
		acquisitionProvider: acquisitionProvider,
		staleAfter:          staleAfter,
		now:                 time.Now,
		logger:              ActorLogger(domain.ACTOR_ID_MASTER, logger),
	}
	act.Become(NewActorState(STATE_STARTING, act.StartingReceive))
	return act
}

func (state *MasterActor) StartingReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.logger.Debug("master@starting started")

		pid, err := state.startAcquisitionActor(ctx)
		if err != nil {
			panic(err)
		}
		state.acquisitionActor = pid
		state.lastReport = acquisitionReport{
			health: domain.ActorHealthResponse{Id: domain.ACTOR_ID_ACQUISITION, Healthy: true, State: STATE_STARTING},
			at:     state.now(),
		}

		state.Become(NewActorState(STATE_DEFAULT, state.DefaultReceive))
		state.stash.UnstashAll(ctx)
	default:
		state.logger.Debug("master@starting stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *MasterActor) DefaultReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case acquisitionReport:
		if !msg.health.Healthy && state.lastReport.health.Healthy {
			state.logger.Warn("master@default acquisition unhealthy", zap.String("state", msg.health.State))
		}
		state.lastReport = msg
	case domain.ActorHealthRequest:
		state.logger.Debug("master@default ActorHealthRequest")
		ForRequest(msg).Respond(ctx, state.health())
	case domain.SetInverterModeRequest:
		state.logger.Debug("master@default SetInverterModeRequest", zap.Stringer("mode", msg.Mode))
		msg.ReplyToRef = replyRef(ctx, msg)
		ctx.Send(state.acquisitionActor, msg)
	case domain.AcquisitionStatusRequest:
		msg.ReplyToRef = replyRef(ctx, msg)
		ctx.Send(state.acquisitionActor, msg)
	case *actor.Terminated:
		if msg.Who.Equal(state.acquisitionActor) {
			state.logger.Error("master@default acquisition terminated")
			panic(errors.New("acquisition terminated"))
		}
	}
}

func (state *MasterActor) health() domain.ActorHealthResponse {
	last := state.lastReport
	// a halted acquisition stops reporting, its last report stays valid
	if last.health.Healthy && state.staleAfter > 0 && state.now().Sub(last.at) > state.staleAfter {
		state.logger.Warn("master@default acquisition report is stale", zap.Time("last", last.at))
		return domain.ActorHealthResponse{Id: domain.ACTOR_ID_MASTER, Healthy: false, State: STATE_UNRESPONSIVE}
	}
	return domain.ActorHealthResponse{
		Id:      domain.ACTOR_ID_MASTER,
		Healthy: last.health.Healthy,
		State:   last.health.State,
	}
}

func (state *MasterActor) startAcquisitionActor(ctx actor.Context) (*actor.PID, error) {
	props := actor.PropsFromProducer(func() actor.Actor {
		return state.acquisitionProvider()
	})
	return ctx.SpawnNamed(props, domain.ACTOR_ID_ACQUISITION)
}

// NewMasterProps restarts a panicking acquisition actor once per 10 seconds.
// A second failure in that window stops it, which takes the master down too.
func NewMasterProps(acquisitionProvider AcquisitionActorProvider, staleAfter time.Duration, logger *zap.Logger) *actor.Props {
	decider := func(reason interface{}) actor.Directive {
		logger.Error("acquisition actor failed, restarting", zap.Any("reason", reason))
		return actor.RestartDirective
	}
	supervisor := actor.NewOneForOneStrategy(1, 10*time.Second, decider)

	return actor.PropsFromProducer(func() actor.Actor {
		return NewMasterActor(acquisitionProvider, staleAfter, logger)
	}, actor.WithSupervisor(supervisor))
}

// replyRef keeps an explicit ReplyTo, or answers the original sender.
func replyRef(ctx actor.Context, req domain.ActorRequest) *domain.ActorRef {
	if req.ReplyTo() != nil {
		return req.ReplyTo()
	}
	if ctx.Sender() == nil {
		return nil
	}
	return (*domain.ActorRef)(ctx.Sender())
}
