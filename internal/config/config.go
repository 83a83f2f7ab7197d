package config

import (
	"errors"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap/zapcore"
)

type Config struct {
	LogLevel  zapcore.Level   `mapstructure:"-"`
	DeviceId  string          `mapstructure:"device_id"`
	Modbus    ModbusConfig    `mapstructure:"modbus"`
	Poll      PollConfig      `mapstructure:"poll"`
	Watchdog  WatchdogConfig  `mapstructure:"watchdog"`
	Sanity    SanityConfig    `mapstructure:"sanity"`
	Network   NetworkConfig   `mapstructure:"network"`
	Registers RegistersConfig `mapstructure:"registers"`
	UDP       UDPConfig       `mapstructure:"udp"`
	Influx    InfluxConfig    `mapstructure:"influx"`
	MQTT      MQTTConfig      `mapstructure:"mqtt"`
	Port      uint            `mapstructure:"port"`
	HttpLog   bool            `mapstructure:"http_log"`
}

type ModbusConfig struct {
	URL           string `mapstructure:"url"`
	Speed         uint   `mapstructure:"speed"`
	DataBits      uint   `mapstructure:"data_bits"`
	Parity        string `mapstructure:"parity"`
	StopBits      uint   `mapstructure:"stop_bits"`
	UnitId        uint   `mapstructure:"unit_id"`
	TimeoutMillis uint32 `mapstructure:"timeout_millis"`
	SettleMillis  uint32 `mapstructure:"settle_millis"`
}

type PollConfig struct {
	IntervalMillis uint32 `mapstructure:"interval_millis"`
	TickMillis     uint32 `mapstructure:"tick_millis"`
	Samples        uint   `mapstructure:"samples"`
}

type WatchdogConfig struct {
	FailureCeiling uint `mapstructure:"failure_ceiling"`
}

type SanityConfig struct {
	DischargeClampWatts float32 `mapstructure:"discharge_clamp_watts"`
}

type NetworkConfig struct {
	Interface            string   `mapstructure:"interface"`
	ReconnectCommand     []string `mapstructure:"reconnect_command"`
	ReconnectDelayMillis uint32   `mapstructure:"reconnect_delay_millis"`
}

type RegistersConfig struct {
	File string `mapstructure:"file"`
}

type UDPConfig struct {
	Enable       bool   `mapstructure:"enable"`
	Host         string `mapstructure:"host"`
	Port         uint   `mapstructure:"port"`
	SettleMillis uint32 `mapstructure:"settle_millis"`
}

type InfluxConfig struct {
	Enable        bool   `mapstructure:"enable"`
	URL           string `mapstructure:"url"`
	Org           string `mapstructure:"org"`
	Bucket        string `mapstructure:"bucket"`
	Token         string `mapstructure:"token"`
	TimeoutMillis uint32 `mapstructure:"timeout_millis"`
}

type MQTTConfig struct {
	Enable            bool   `mapstructure:"enable"`
	Host              string `mapstructure:"host"`
	Port              int    `mapstructure:"port"`
	Username          string `mapstructure:"username"`
	Password          string `mapstructure:"password"`
	BaseTopic         string `mapstructure:"base_topic"`
	ModeTopic         string `mapstructure:"mode_topic"`
	HADiscoveryEnable bool   `mapstructure:"ha_discovery_enable"`
	HADiscoveryTopic  string `mapstructure:"ha_discovery_topic"`
	TimeoutMillis     uint32 `mapstructure:"timeout_millis"`
}

func (c MQTTConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMillis) * time.Millisecond
}

func (c PollConfig) Interval() time.Duration {
	return time.Duration(c.IntervalMillis) * time.Millisecond
}

func (c PollConfig) Tick() time.Duration {
	return time.Duration(c.TickMillis) * time.Millisecond
}

func (c NetworkConfig) ReconnectDelay() time.Duration {
	return time.Duration(c.ReconnectDelayMillis) * time.Millisecond
}

// HealthStaleAfter is the longest gap between two ticks of a pipeline with the
// given number of registers: one tick interval plus a cycle in which every read
// and every publish runs into its timeout.
func (c Config) HealthStaleAfter(registers int) time.Duration {
	millis := func(m uint32) time.Duration { return time.Duration(m) * time.Millisecond }

	var publish time.Duration
	if c.UDP.Enable {
		publish += millis(c.UDP.SettleMillis)
	}
	if c.Influx.Enable {
		publish += millis(c.Influx.TimeoutMillis)
	}
	if c.MQTT.Enable {
		// connect and publish
		publish += 2 * c.MQTT.Timeout()
	}
	perRegister := millis(c.Modbus.TimeoutMillis) + publish

	return c.Poll.Tick() + c.Network.ReconnectDelay() + millis(c.Modbus.SettleMillis) +
		time.Duration(registers)*perRegister
}

var mqttTopicRegexp = regexp.MustCompile("^[a-z0-9_]+$")

func CheckMQTTTopic(baseTopic string) (string, error) {
	// check and fix base topic
	lowerBaseTopic := strings.ToLower(baseTopic)
	matches := mqttTopicRegexp.FindAllStringSubmatch(lowerBaseTopic, 1)
	if len(matches) <= 0 {
		return "", errors.New("invalid topic. can only contain letters, numbers and underscores")
	}
	return lowerBaseTopic, nil
}

// Redacted returns a copy safe to log.
func (c Config) Redacted() Config {
	if c.MQTT.Username != "" {
		c.MQTT.Username = "*redacted*"
	}
	if c.MQTT.Password != "" {
		c.MQTT.Password = "*redacted*"
	}
	if c.Influx.Token != "" {
		c.Influx.Token = "*redacted*"
	}
	return c
}
