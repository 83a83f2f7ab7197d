package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/berfenger/solarpoll/internal/core/domain"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testServer(t *testing.T, healthy bool) (*Server, *actor.ActorSystem) {
	as := actor.NewActorSystem()
	pid := as.Root.Spawn(actor.PropsFromFunc(func(ctx actor.Context) {
		switch ctx.Message().(type) {
		case domain.ActorHealthRequest:
			ctx.Respond(domain.ActorHealthResponse{Id: domain.ACTOR_ID_MASTER, Healthy: healthy})
		case domain.AcquisitionStatusRequest:
			ctx.Respond(domain.AcquisitionStatusResponse{
				Failures:       3,
				FailureCeiling: 40,
				State:          "degraded",
				LastCycle:      domain.CycleReport{Registers: 37, ReadFailures: 1, Flushed: 36, Duration: 1500 * time.Millisecond},
			})
		}
	}))

	registry := prometheus.NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "solarpoll_test_total", Help: "test"})
	registry.MustRegister(counter)
	counter.Inc()

	return &Server{
		rootContext: as.Root,
		masterActor: pid,
		gatherer:    registry,
		timeout:     2 * time.Second,
	}, as
}

func get(handler http.Handler, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHealthCheckRoute(t *testing.T) {

	assert := assert.New(t)

	s, as := testServer(t, true)
	defer as.Shutdown()

	rec := get(s.RegisterRoutes(), "/healthcheck")
	assert.Equal(http.StatusOK, rec.Code)
	assert.Equal("health_check: OK", rec.Body.String())

	s, as2 := testServer(t, false)
	defer as2.Shutdown()

	rec = get(s.RegisterRoutes(), "/healthcheck")
	assert.Equal(http.StatusServiceUnavailable, rec.Code)
	assert.Equal("health_check: FAIL", rec.Body.String())
}

func TestStatusRoute(t *testing.T) {

	assert := assert.New(t)

	s, as := testServer(t, true)
	defer as.Shutdown()

	rec := get(s.RegisterRoutes(), "/status")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp statusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.EqualValues(3, resp.Failures)
	assert.EqualValues(40, resp.FailureCeiling)
	assert.Equal("degraded", resp.State)
	assert.False(resp.Halted)
	assert.Nil(resp.LastPoll)
	assert.Equal(36, resp.LastCycle.Flushed)
	assert.Equal(1.5, resp.LastCycle.DurationSeconds)
}

func TestMetricsRoute(t *testing.T) {

	s, as := testServer(t, true)
	defer as.Shutdown()

	rec := get(s.RegisterRoutes(), "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "solarpoll_test_total 1")
}
