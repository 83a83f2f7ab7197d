package sink

import (
	"encoding/json"
	"fmt"

	"github.com/berfenger/solarpoll/internal/config"
	"github.com/berfenger/solarpoll/internal/core/domain"
	"github.com/berfenger/solarpoll/internal/core/port"
	"github.com/berfenger/solarpoll/internal/mqtt"

	paho "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"
)

const SINK_MQTT = "mqtt"

// MQTTSink publishes retained register states and listens for inverter mode
// commands. Mode commands are handed to onMode from paho's goroutines.
type MQTTSink struct {
	client *mqtt.MQTTClient
	cfg    config.MQTTConfig
	device domain.Device
	table  domain.RegisterTable
	onMode func(domain.InverterMode)
	logger *zap.Logger
}

var _ port.TelemetrySink = (*MQTTSink)(nil)

func NewMQTTSink(cfg *config.Config, device domain.Device, table domain.RegisterTable,
	onMode func(domain.InverterMode), logger *zap.Logger) *MQTTSink {
	s := &MQTTSink{
		cfg:    cfg.MQTT,
		device: device,
		table:  table,
		onMode: onMode,
		logger: logger,
	}
	s.client = mqtt.CreateMQTTClient(cfg, mqtt.OptsFromConfig(cfg), s.onConnect, s.onConnectionLost)
	return s
}

func (s *MQTTSink) Name() string {
	return SINK_MQTT
}

func (s *MQTTSink) Publish(m domain.Measurement) error {
	if !s.client.IsConnected() {
		if err := s.client.ConnectWait(s.cfg.Timeout()); err != nil {
			return fmt.Errorf("mqtt connect: %w", err)
		}
	}
	topic := s.client.RegisterStateTopic(m.Name)
	if err := s.client.PublishWait(topic, mqtt.FormatValue(m.Value), 1, true, s.cfg.Timeout()); err != nil {
		return fmt.Errorf("mqtt publish %s: %w", topic, err)
	}
	return nil
}

func (s *MQTTSink) Close() {
	if s.client.IsConnected() {
		s.client.Disconnect(s.cfg.Timeout())
	}
}

func (s *MQTTSink) onConnect(_ paho.Client) {
	s.logger.Info("mqtt connected")
	s.client.Publish(s.client.BridgeStateTopic(), mqtt.MQTT_PAYLOAD_ONLINE, 0, true, func(err error) {
		if err != nil {
			s.logger.Error("error publishing bridge state", zap.Error(err))
		}
	}, s.cfg.Timeout())
	s.client.SubscribeToModeCommandTopic(s.handleModeMessage, func(err error) {
		if err != nil {
			s.logger.Error("error subscribing to mode command topic", zap.Error(err))
			return
		}
		s.logger.Debug("subscribed to mode command topic", zap.String("topic", s.client.ModeCommandTopic()))
	}, s.cfg.Timeout())
	if s.cfg.HADiscoveryEnable {
		s.publishHADiscovery()
	}
}

func (s *MQTTSink) onConnectionLost(_ paho.Client, err error) {
	s.logger.Warn("mqtt connection lost", zap.Error(err))
}

func (s *MQTTSink) handleModeMessage(_ paho.Client, msg paho.Message) {
	mode, err := s.client.ParseModeCommand(msg)
	if err != nil {
		s.logger.Warn("ignoring mode command",
			zap.String("topic", msg.Topic()),
			zap.ByteString("payload", msg.Payload()),
			zap.Error(err))
		return
	}
	s.logger.Info("mode command received", zap.Stringer("mode", mode))
	if s.onMode != nil {
		s.onMode(mode)
	}
}

func (s *MQTTSink) publishHADiscovery() {
	for _, msg := range mqtt.HADiscoveryMessages(s.client, s.device, s.table) {
		payload, err := json.Marshal(msg.Config)
		if err != nil {
			s.logger.Error("error encoding discovery message", zap.String("topic", msg.Topic), zap.Error(err))
			continue
		}
		topic := msg.Topic
		s.client.Publish(topic, payload, 0, true, func(err error) {
			if err != nil {
				s.logger.Error("error publishing discovery message", zap.String("topic", topic), zap.Error(err))
			}
		}, s.cfg.Timeout())
	}
}
