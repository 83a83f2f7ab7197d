package mqtt

import (
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"time"

	"github.com/berfenger/solarpoll/internal/config"
	"github.com/berfenger/solarpoll/internal/core/domain"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

const (
	MQTT_PAYLOAD_ONLINE  = "online"
	MQTT_PAYLOAD_OFFLINE = "offline"
)

func OptsFromConfig(cfg *config.Config) *mqtt.ClientOptions {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s:%d", cfg.MQTT.Host, cfg.MQTT.Port))
	opts.SetClientID(fmt.Sprintf("solarpoll_%s_%d", cfg.DeviceId, rand.Intn(1000)))
	if cfg.MQTT.Username != "" && cfg.MQTT.Password != "" {
		opts.SetUsername(cfg.MQTT.Username)
		opts.SetPassword(cfg.MQTT.Password)
	}
	opts.WillEnabled = true
	opts.WillPayload = []byte(MQTT_PAYLOAD_OFFLINE)
	opts.WillRetained = true
	opts.WillTopic = bridgeStateTopic(cfg.MQTT.BaseTopic)
	opts.WillQos = 0

	// the sink reconnects lazily on the next publish
	opts.SetAutoReconnect(false)
	opts.SetConnectTimeout(cfg.MQTT.Timeout())

	return opts
}

func CreateMQTTClient(cfg *config.Config, opts *mqtt.ClientOptions, onConnectHandler func(client mqtt.Client),
	onConnectionLostHandler func(mqtt.Client, error)) *MQTTClient {
	if onConnectHandler != nil {
		opts.OnConnect = onConnectHandler
	}
	if onConnectionLostHandler != nil {
		opts.OnConnectionLost = onConnectionLostHandler
	}
	return &MQTTClient{
		client: mqtt.NewClient(opts),
		cfg:    cfg.MQTT,
	}
}

type MQTTClient struct {
	client mqtt.Client
	cfg    config.MQTTConfig
}

func (c *MQTTClient) baseTopic() string {
	return c.cfg.BaseTopic
}

func (c *MQTTClient) BridgeStateTopic() string {
	return bridgeStateTopic(c.baseTopic())
}

func (c *MQTTClient) RegisterStateTopic(registerName string) string {
	return registerStateTopic(c.baseTopic(), registerName)
}

func (c *MQTTClient) ModeCommandTopic() string {
	return modeCommandTopic(c.baseTopic(), c.cfg.ModeTopic)
}

func (c *MQTTClient) HADiscoveryTopic() string {
	return c.cfg.HADiscoveryTopic
}

// ParseModeCommand decodes a message received on the mode command topic.
func (c *MQTTClient) ParseModeCommand(msg mqtt.Message) (domain.InverterMode, error) {
	if msg.Topic() != c.ModeCommandTopic() {
		return domain.InverterMode{}, errors.New("invalid command")
	}
	return domain.ParseInverterMode(string(msg.Payload()))
}

func (c *MQTTClient) IsConnected() bool {
	return c.client.IsConnectionOpen()
}

func (c *MQTTClient) Publish(topic string, payload any, qos byte, retain bool, continuation func(error), timeout time.Duration) {
	token := c.client.Publish(topic, qos, retain, payload)
	go func() {
		continuation(waitToken(token, timeout, "publish"))
	}()
}

func (c *MQTTClient) PublishWait(topic string, payload any, qos byte, retain bool, timeout time.Duration) error {
	return waitToken(c.client.Publish(topic, qos, retain, payload), timeout, "publish")
}

func (c *MQTTClient) Subscribe(topic string, qos byte, handler mqtt.MessageHandler, continuation func(error), timeout time.Duration) {
	token := c.client.Subscribe(topic, qos, handler)
	go func() {
		continuation(waitToken(token, timeout, "subscribe"))
	}()
}

func (c *MQTTClient) SubscribeToModeCommandTopic(handler mqtt.MessageHandler, continuation func(error), timeout time.Duration) {
	c.Subscribe(c.ModeCommandTopic(), 1, handler, continuation, timeout)
}

func (c *MQTTClient) ConnectWait(timeout time.Duration) error {
	return waitToken(c.client.Connect(), timeout, "connect")
}

func (c *MQTTClient) Disconnect(timeout time.Duration) {
	c.client.Disconnect(uint(timeout.Milliseconds()))
}

func waitToken(token mqtt.Token, timeout time.Duration, op string) error {
	if !token.WaitTimeout(timeout) {
		return fmt.Errorf("MQTT %s timed out", op)
	}
	return token.Error()
}

// FormatValue renders a register value as the decimal state payload.
func FormatValue(value float32) string {
	return strconv.FormatFloat(float64(value), 'f', -1, 32)
}

func bridgeStateTopic(baseTopic string) string {
	return fmt.Sprintf("%s/bridge/state", baseTopic)
}

func registerStateTopic(baseTopic string, registerName string) string {
	return fmt.Sprintf("%s/%s", baseTopic, registerName)
}

func modeCommandTopic(baseTopic string, modeTopic string) string {
	return fmt.Sprintf("%s/%s", baseTopic, modeTopic)
}
