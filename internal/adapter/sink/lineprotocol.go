package sink

import (
	"strconv"
	"strings"
	"time"

	"github.com/berfenger/solarpoll/internal/core/domain"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

const LINE_PROTOCOL_SENSOR_TAG = "sensor"

// LinePoint builds the point for a measurement. A zero ts leaves the
// timestamp to the receiving server.
func LinePoint(deviceId string, m domain.Measurement, ts time.Time) *write.Point {
	return write.NewPoint(
		m.Name,
		map[string]string{LINE_PROTOCOL_SENSOR_TAG: deviceId},
		map[string]interface{}{"value": widen(m.Value)},
		ts,
	)
}

// FormatLine renders `<name>,sensor=<device_id> value=<decimal>`.
func FormatLine(deviceId string, m domain.Measurement) string {
	return strings.TrimSuffix(write.PointToLineProtocol(LinePoint(deviceId, m, time.Time{}), time.Second), "\n")
}

// widen keeps the shortest float32 decimal, so 123.4 stays 123.4 as float64
func widen(value float32) float64 {
	f, err := strconv.ParseFloat(strconv.FormatFloat(float64(value), 'f', -1, 32), 64)
	if err != nil {
		return float64(value)
	}
	return f
}
