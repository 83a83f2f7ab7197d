package actor

import (
	"fmt"
	"time"

	"github.com/berfenger/solarpoll/internal/core/domain"
	"github.com/berfenger/solarpoll/internal/core/service"
	. "github.com/berfenger/solarpoll/internal/util/actorutil"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/scheduler"
	"go.uber.org/zap"
)

const (
	STATE_STARTING = "starting"
	STATE_RUNNING  = "running"
	STATE_HALTED   = "halted"
)

// AcquisitionProvider builds a fresh pipeline. It is called again when the
// actor is restarted by its supervisor.
type AcquisitionProvider func() *service.Acquisition

// AcquisitionActor owns the acquisition pipeline and drives its Tick from a
// timer. Every pipeline call happens inside Receive.
type AcquisitionActor struct {
	ActorWithStates
	stash      *Stash
	scheduler  *scheduler.TimerScheduler
	cancelTick scheduler.CancelFunc

	provider     AcquisitionProvider
	acquisition  *service.Acquisition
	tickInterval time.Duration
	now          func() time.Time

	logger *zap.Logger
}

// acquisitionTick is bound to the incarnation that scheduled it.
type acquisitionTick struct {
	owner *AcquisitionActor
}

// acquisitionReport is sent to the parent on start and after every tick.
type acquisitionReport struct {
	health domain.ActorHealthResponse
	at     time.Time
}

func NewAcquisitionActor(tickInterval time.Duration, provider AcquisitionProvider, logger *zap.Logger) *AcquisitionActor {
	act := &AcquisitionActor{
		ActorWithStates: NewActorWithStates(),
		stash:           &Stash{},
		provider:        provider,
		tickInterval:    tickInterval,
		now:             time.Now,
		logger:          ActorLogger(domain.ACTOR_ID_ACQUISITION, logger),
	}
	act.Become(NewActorState(STATE_STARTING, act.StartingReceive))
	return act
}

func (state *AcquisitionActor) StartingReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.logger.Debug("acquisition@starting started")

		state.acquisition = state.provider()
		state.scheduler = scheduler.NewTimerScheduler(ctx)

		// first poll right away
		ctx.Send(ctx.Self(), acquisitionTick{owner: state})

		state.Become(NewActorState(STATE_RUNNING, state.RunningReceive))
		state.report(ctx)
		state.stash.UnstashAll(ctx)
	case *actor.Restarting:
		state.logger.Warn("acquisition@starting restarting")
	default:
		state.logger.Debug("acquisition@starting stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *AcquisitionActor) RunningReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case acquisitionTick:
		if msg.owner != state {
			state.logger.Debug("acquisition@running dropping tick of a previous incarnation")
			return
		}
		outcome := state.acquisition.Tick(state.now())
		if outcome == service.TickRestart || outcome == service.TickHalted {
			state.logger.Error("acquisition@running halted", zap.Stringer("outcome", outcome),
				zap.Uint("failures", state.acquisition.Failures()))
			state.Become(NewActorState(STATE_HALTED, state.HaltedReceive))
			state.report(ctx)
			return
		}
		state.report(ctx)
		state.cancelTick = state.scheduler.RequestOnce(state.tickInterval, ctx.Self(), acquisitionTick{owner: state})
	case domain.ActorHealthRequest:
		state.logger.Debug("acquisition@running ActorHealthRequest")
		ForRequest(msg).Respond(ctx, state.health())
	case domain.SetInverterModeRequest:
		state.logger.Debug("acquisition@running SetInverterModeRequest", zap.Stringer("mode", msg.Mode))
		err := state.acquisition.ApplyMode(msg.Mode)
		ForRequest(msg).Respond(ctx, domain.SetInverterModeResponse{
			ActorResponseMixIn: domain.ActorResponseMixIn{ResponseError: err},
		})
	case domain.AcquisitionStatusRequest:
		ForRequest(msg).Respond(ctx, state.status())
	case *actor.Restarting:
		// the next incarnation starts its own tick chain
		state.logger.Warn("acquisition@running restarting")
		state.stopTicking()
	case *actor.Stopping:
		state.logger.Debug("acquisition@running stopping")
		state.stopTicking()
	}
}

func (state *AcquisitionActor) HaltedReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.ActorHealthRequest:
		ForRequest(msg).Respond(ctx, state.health())
	case domain.SetInverterModeRequest:
		state.logger.Warn("acquisition@halted ignoring mode command", zap.Stringer("mode", msg.Mode))
		ForRequest(msg).Respond(ctx, domain.SetInverterModeResponse{
			ActorResponseMixIn: domain.ActorResponseMixIn{ResponseError: service.ErrAcquisitionHalted},
		})
	case domain.AcquisitionStatusRequest:
		ForRequest(msg).Respond(ctx, state.status())
	}
}

func (state *AcquisitionActor) stopTicking() {
	if state.cancelTick != nil {
		state.cancelTick()
		state.cancelTick = nil
	}
}

func (state *AcquisitionActor) health() domain.ActorHealthResponse {
	if state.StateName() == STATE_HALTED {
		return domain.ActorHealthResponse{Id: domain.ACTOR_ID_ACQUISITION, Healthy: false, State: STATE_HALTED}
	}
	return domain.ActorHealthResponse{
		Id:      domain.ACTOR_ID_ACQUISITION,
		Healthy: true,
		State:   string(state.acquisition.State()),
	}
}

func (state *AcquisitionActor) report(ctx actor.Context) {
	if ctx.Parent() == nil {
		return
	}
	ctx.Send(ctx.Parent(), acquisitionReport{health: state.health(), at: state.now()})
}

func (state *AcquisitionActor) status() domain.AcquisitionStatusResponse {
	acq := state.acquisition
	return domain.AcquisitionStatusResponse{
		Failures:       acq.Failures(),
		FailureCeiling: acq.FailureCeiling(),
		State:          string(acq.State()),
		Halted:         acq.Halted(),
		LastPoll:       acq.LastPoll(),
		LastCycle:      acq.LastCycle(),
	}
}
