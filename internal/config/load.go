package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const ENV_PREFIX = "solarpoll"

func setConfigDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "warn")
	v.SetDefault("device_id", "growatt")
	v.SetDefault("port", 8080)
	v.SetDefault("http_log", false)
	v.SetDefault("modbus.url", "rtu:///dev/ttyUSB0")
	v.SetDefault("modbus.speed", 9600)
	v.SetDefault("modbus.data_bits", 8)
	v.SetDefault("modbus.parity", "none")
	v.SetDefault("modbus.stop_bits", 1)
	v.SetDefault("modbus.unit_id", 1)
	v.SetDefault("modbus.timeout_millis", 1000)
	v.SetDefault("modbus.settle_millis", 50)
	v.SetDefault("poll.interval_millis", 5000)
	v.SetDefault("poll.tick_millis", 200)
	v.SetDefault("poll.samples", 1)
	v.SetDefault("watchdog.failure_ceiling", 40)
	v.SetDefault("sanity.discharge_clamp_watts", 6000)
	v.SetDefault("network.interface", "")
	v.SetDefault("network.reconnect_command", []string{})
	v.SetDefault("network.reconnect_delay_millis", 1000)
	v.SetDefault("registers.file", "")
	v.SetDefault("udp.enable", false)
	v.SetDefault("udp.host", "")
	v.SetDefault("udp.port", 8089)
	v.SetDefault("udp.settle_millis", 10)
	v.SetDefault("influx.enable", false)
	v.SetDefault("influx.url", "")
	v.SetDefault("influx.org", "")
	v.SetDefault("influx.bucket", "")
	v.SetDefault("influx.token", "")
	v.SetDefault("influx.timeout_millis", 5000)
	v.SetDefault("mqtt.enable", false)
	v.SetDefault("mqtt.host", "")
	v.SetDefault("mqtt.port", 1883)
	v.SetDefault("mqtt.username", "")
	v.SetDefault("mqtt.password", "")
	v.SetDefault("mqtt.base_topic", "solarpoll")
	v.SetDefault("mqtt.mode_topic", "mode")
	v.SetDefault("mqtt.ha_discovery_enable", false)
	v.SetDefault("mqtt.ha_discovery_topic", "homeassistant")
	v.SetDefault("mqtt.timeout_millis", 3000)
}

// Load reads defaults, SOLARPOLL_* env vars and, if given, a yaml config file.
func Load(cfgFile string) (*Config, error) {

	v := viper.New()
	setConfigDefaults(v)

	v.SetEnvPrefix(ENV_PREFIX)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// PORT is an alias, SOLARPOLL_PORT wins
	if err := v.BindEnv("port", "SOLARPOLL_PORT", "PORT"); err != nil {
		return nil, err
	}

	if cfgFile == "" {
		cfgFile = os.Getenv("CONFIG_FILE")
	}
	if cfgFile != "" {
		if _, err := os.Stat(cfgFile); err != nil {
			return nil, fmt.Errorf("config file: %w", err)
		}
		slog.Info("Using config", "file", cfgFile)
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	cfg.LogLevel = ParseLogLevel(v.GetString("log_level"))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func ParseLogLevel(level string) zapcore.Level {
	switch strings.ToLower(level) {
	case "trace":
		return zap.DebugLevel
	case "debug":
		return zap.DebugLevel
	case "info":
		return zap.InfoLevel
	case "error":
		return zap.ErrorLevel
	case "warn":
		return zap.WarnLevel
	case "fatal":
		return zap.FatalLevel
	default:
		return zap.InfoLevel
	}
}

// Validate checks bounds and normalizes mqtt topics in place.
func (cfg *Config) Validate() error {
	if cfg.DeviceId == "" {
		return errors.New("config param device_id cannot be empty")
	}
	if cfg.Modbus.URL == "" {
		return errors.New("config param modbus.url cannot be empty")
	}
	if cfg.Modbus.UnitId == 0 || cfg.Modbus.UnitId > 247 {
		return errors.New("config param modbus.unit_id should be in 1..247")
	}
	if cfg.Poll.IntervalMillis < 1000 {
		return errors.New("config param poll.interval_millis should be >= 1000")
	}
	if cfg.Poll.TickMillis == 0 || cfg.Poll.TickMillis > cfg.Poll.IntervalMillis {
		return errors.New("config param poll.tick_millis should be > 0 and <= poll.interval_millis")
	}
	if cfg.Poll.Samples < 1 {
		return errors.New("config param poll.samples should be >= 1")
	}
	if cfg.Watchdog.FailureCeiling == 0 {
		return errors.New("config param watchdog.failure_ceiling should be > 0")
	}
	if cfg.Sanity.DischargeClampWatts <= 0 {
		return errors.New("config param sanity.discharge_clamp_watts should be > 0")
	}
	if cfg.UDP.Enable && (cfg.UDP.Host == "" || cfg.UDP.Port == 0) {
		return errors.New("config params udp.host and udp.port are required when udp is enabled")
	}
	if cfg.Influx.Enable && (cfg.Influx.URL == "" || cfg.Influx.Bucket == "") {
		return errors.New("config params influx.url and influx.bucket are required when influx is enabled")
	}
	if cfg.MQTT.Enable {
		if cfg.MQTT.Host == "" {
			return errors.New("config param mqtt.host is required when mqtt is enabled")
		}

		// check and fix base topic
		baseTopic, err := CheckMQTTTopic(cfg.MQTT.BaseTopic)
		if err != nil {
			return errors.New("invalid base topic. can only contain letters, numbers and underscores")
		}
		cfg.MQTT.BaseTopic = baseTopic

		modeTopic, err := CheckMQTTTopic(cfg.MQTT.ModeTopic)
		if err != nil {
			return errors.New("invalid mode topic. can only contain letters, numbers and underscores")
		}
		cfg.MQTT.ModeTopic = modeTopic

		// check and fix homeassistant discovery topic
		hadBaseTopic, err := CheckMQTTTopic(cfg.MQTT.HADiscoveryTopic)
		if err != nil {
			return errors.New("invalid homeassistant discovery topic. can only contain letters, numbers and underscores")
		}
		cfg.MQTT.HADiscoveryTopic = hadBaseTopic
	}
	return nil
}
