package domain

import (
	"time"

	"github.com/asynkron/protoactor-go/actor"
)

const (
	ACTOR_ID_MASTER      = "master"
	ACTOR_ID_ACQUISITION = "acquisition"
)

type ActorRef actor.PID

type ActorRequestMixIn struct {
	ReplyToRef *ActorRef
}

type ActorRequest interface {
	ReplyTo() *ActorRef
}

func (r ActorRequestMixIn) ReplyTo() *ActorRef {
	return r.ReplyToRef
}

type ActorResponseMixIn struct {
	ResponseError error
}

func (r ActorResponseMixIn) GetResponseError() error {
	return r.ResponseError
}

func (r ActorResponseMixIn) HasResponseError() bool {
	return r.ResponseError != nil
}

type ActorResponse interface {
	GetResponseError() error
	HasResponseError() bool
}

type ActorHealthRequest struct {
	ActorRequestMixIn
}

type ActorHealthResponse struct {
	ActorResponseMixIn
	Id      string
	Healthy bool
	State   string
}

type SetInverterModeRequest struct {
	ActorRequestMixIn
	Mode InverterMode
}

type SetInverterModeResponse struct {
	ActorResponseMixIn
}

type AcquisitionStatusRequest struct {
	ActorRequestMixIn
}

type AcquisitionStatusResponse struct {
	ActorResponseMixIn
	Failures       uint
	FailureCeiling uint
	State          string
	Halted         bool
	LastPoll       time.Time
	LastCycle      CycleReport
}
