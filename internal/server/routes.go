package server

import (
	"net/http"
	"time"

	"github.com/berfenger/solarpoll/internal/core/domain"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type cycleReport struct {
	Registers       int     `json:"registers"`
	ReadFailures    int     `json:"read_failures"`
	Flushed         int     `json:"flushed"`
	PublishFailures int     `json:"publish_failures"`
	DurationSeconds float64 `json:"duration_seconds"`
}

type statusResponse struct {
	Failures       uint        `json:"failures"`
	FailureCeiling uint        `json:"failure_ceiling"`
	State          string      `json:"state"`
	Halted         bool        `json:"halted"`
	LastPoll       *time.Time  `json:"last_poll,omitempty"`
	LastCycle      cycleReport `json:"last_cycle"`
}

func (s *Server) RegisterRoutes() http.Handler {
	e := echo.New()
	e.HideBanner = true
	if s.httpLog {
		e.Use(middleware.Logger())
	}
	e.Use(middleware.Recover())

	e.GET("/healthcheck", s.HealthCheckHandler)
	e.GET("/status", s.StatusHandler)
	if s.gatherer != nil {
		e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))
	}

	return e
}

func (s *Server) HealthCheckHandler(c echo.Context) error {
	res, err := s.rootContext.RequestFuture(s.masterActor, domain.ActorHealthRequest{}, s.timeout).Result()
	if err != nil {
		return c.String(http.StatusServiceUnavailable, "health_check: FAIL")
	}
	if response, ok := res.(domain.ActorHealthResponse); ok && response.Healthy {
		return c.String(http.StatusOK, "health_check: OK")
	}
	return c.String(http.StatusServiceUnavailable, "health_check: FAIL")
}

func (s *Server) StatusHandler(c echo.Context) error {
	res, err := s.rootContext.RequestFuture(s.masterActor, domain.AcquisitionStatusRequest{}, s.timeout).Result()
	if err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
	}
	status, ok := res.(domain.AcquisitionStatusResponse)
	if !ok {
		return echo.NewHTTPError(http.StatusInternalServerError, "unexpected status response")
	}

	resp := statusResponse{
		Failures:       status.Failures,
		FailureCeiling: status.FailureCeiling,
		State:          status.State,
		Halted:         status.Halted,
		LastCycle: cycleReport{
			Registers:       status.LastCycle.Registers,
			ReadFailures:    status.LastCycle.ReadFailures,
			Flushed:         status.LastCycle.Flushed,
			PublishFailures: status.LastCycle.PublishFailures,
			DurationSeconds: status.LastCycle.Duration.Seconds(),
		},
	}
	if !status.LastPoll.IsZero() {
		resp.LastPoll = &status.LastPoll
	}
	return c.JSON(http.StatusOK, resp)
}
