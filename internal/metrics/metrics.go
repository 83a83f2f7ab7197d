package metrics

import (
	"time"

	"github.com/berfenger/solarpoll/internal/core/domain"
	"github.com/berfenger/solarpoll/internal/core/port"
	"github.com/berfenger/solarpoll/pkg/growatt_modbus"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const NAMESPACE = "solarpoll"

const (
	RESULT_OK    = "ok"
	RESULT_ERROR = "error"
)

// Collector exports the acquisition pipeline as Prometheus metrics.
type Collector struct {
	registry       *prometheus.Registry
	readFailures   *prometheus.CounterVec
	registerValue  *prometheus.GaugeVec
	publishes      *prometheus.CounterVec
	failures       prometheus.Gauge
	cycles         prometheus.Counter
	cycleDuration  prometheus.Histogram
	modbusDuration *prometheus.HistogramVec
}

var _ port.AcquisitionObserver = (*Collector)(nil)

func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		readFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: NAMESPACE,
			Name:      "register_read_failures_total",
			Help:      "Failed register reads.",
		}, []string{"register"}),
		registerValue: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: NAMESPACE,
			Name:      "register_value",
			Help:      "Last decoded and filtered register value.",
		}, []string{"register"}),
		publishes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: NAMESPACE,
			Name:      "sink_publishes_total",
			Help:      "Measurements handed to a telemetry sink.",
		}, []string{"sink", "result"}),
		failures: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: NAMESPACE,
			Name:      "failure_counter",
			Help:      "Current value of the failure watchdog counter.",
		}),
		cycles: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: NAMESPACE,
			Name:      "poll_cycles_total",
			Help:      "Completed poll cycles.",
		}),
		cycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: NAMESPACE,
			Name:      "poll_cycle_duration_seconds",
			Help:      "Duration of a full register table poll.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		}),
		modbusDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: NAMESPACE,
			Name:      "modbus_request_duration_seconds",
			Help:      "Modbus request round trip time.",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"op"}),
	}
	c.registry.MustRegister(
		c.readFailures,
		c.registerValue,
		c.publishes,
		c.failures,
		c.cycles,
		c.cycleDuration,
		c.modbusDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// ModbusInstrument times every request made by the Modbus client.
func (c *Collector) ModbusInstrument() growatt_modbus.ModbusInstrument {
	return growatt_modbus.ModbusInstrument{
		RecordTime: func(fnName string, d time.Duration) {
			c.modbusDuration.WithLabelValues(fnName).Observe(d.Seconds())
		},
	}
}

func (c *Collector) ReadFailed(reg domain.RegisterDefinition, _ error) {
	c.readFailures.WithLabelValues(reg.Name).Inc()
}

func (c *Collector) Sampled(reg domain.RegisterDefinition, value float32) {
	c.registerValue.WithLabelValues(reg.Name).Set(float64(value))
}

func (c *Collector) Published(sink string, _ domain.Measurement, err error) {
	result := RESULT_OK
	if err != nil {
		result = RESULT_ERROR
	}
	c.publishes.WithLabelValues(sink, result).Inc()
}

func (c *Collector) FailuresChanged(count uint) {
	c.failures.Set(float64(count))
}

func (c *Collector) CycleCompleted(report domain.CycleReport) {
	c.cycles.Inc()
	c.cycleDuration.Observe(report.Duration.Seconds())
}
