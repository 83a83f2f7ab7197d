package sink

import (
	"context"
	"fmt"
	"time"

	"github.com/berfenger/solarpoll/internal/config"
	"github.com/berfenger/solarpoll/internal/core/domain"
	"github.com/berfenger/solarpoll/internal/core/port"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
)

const SINK_HTTP = "http"

// HTTPLineProtocolSink writes measurements through the InfluxDB v2 write API.
type HTTPLineProtocolSink struct {
	deviceId string
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	timeout  time.Duration
}

var _ port.TelemetrySink = (*HTTPLineProtocolSink)(nil)

func NewHTTPLineProtocolSink(deviceId string, cfg config.InfluxConfig) *HTTPLineProtocolSink {
	timeout := time.Duration(cfg.TimeoutMillis) * time.Millisecond
	seconds := uint(timeout / time.Second)
	if seconds == 0 {
		seconds = 1
	}
	opts := influxdb2.DefaultOptions().
		SetPrecision(time.Second).
		SetHTTPRequestTimeout(seconds)
	client := influxdb2.NewClientWithOptions(cfg.URL, cfg.Token, opts)
	return &HTTPLineProtocolSink{
		deviceId: deviceId,
		client:   client,
		writeAPI: client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
		timeout:  timeout,
	}
}

func (s *HTTPLineProtocolSink) Name() string {
	return SINK_HTTP
}

func (s *HTTPLineProtocolSink) Publish(m domain.Measurement) error {
	ctx := context.Background()
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	if err := s.writeAPI.WritePoint(ctx, LinePoint(s.deviceId, m, time.Time{})); err != nil {
		return fmt.Errorf("influx write: %w", err)
	}
	return nil
}

func (s *HTTPLineProtocolSink) Close() {
	s.client.Close()
}
