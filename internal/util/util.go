package util

import (
	"github.com/berfenger/solarpoll/internal/config"

	"go.uber.org/zap"
)

func LoadTestConfig() config.Config {
	return config.Config{
		LogLevel: zap.DebugLevel,
		DeviceId: "growatt_test",
		Modbus: config.ModbusConfig{
			URL:           "tcp://127.0.0.1:1502",
			UnitId:        1,
			TimeoutMillis: 200,
		},
		Poll: config.PollConfig{
			IntervalMillis: 1000,
			TickMillis:     50,
			Samples:        1,
		},
		Watchdog: config.WatchdogConfig{
			FailureCeiling: 40,
		},
		Sanity: config.SanityConfig{
			DischargeClampWatts: 6000,
		},
		Network: config.NetworkConfig{
			ReconnectDelayMillis: 10,
		},
		MQTT: config.MQTTConfig{
			Host:             "localhost",
			Port:             1883,
			BaseTopic:        "solarpoll",
			ModeTopic:        "mode",
			HADiscoveryTopic: "homeassistant",
			TimeoutMillis:    500,
		},
		Port: 8080,
	}
}
