package mqtt

import (
	"fmt"
	"strings"

	"github.com/berfenger/solarpoll/internal/core/domain"
)

type HADiscoveryConfig struct {
	Device            HADiscoveryDevice `json:"device"`
	StateTopic        string            `json:"state_topic"`
	StateClass        string            `json:"state_class,omitempty"`
	DeviceClass       string            `json:"device_class,omitempty"`
	UnitOfMeasurement string            `json:"unit_of_measurement,omitempty"`
	AvTopic           string            `json:"availability_topic,omitempty"`
	EntityCategory    string            `json:"entity_category,omitempty"`
	Name              string            `json:"name"`
	UniqueId          string            `json:"unique_id"`
	Platform          string            `json:"platform"`
	PayloadOn         string            `json:"payload_on,omitempty"`
	PayloadOff        string            `json:"payload_off,omitempty"`
	Icon              string            `json:"icon,omitempty"`
}

type HADiscoveryDevice struct {
	Id           []string `json:"identifiers"`
	Manufacturer string   `json:"manufacturer,omitempty"`
	Version      string   `json:"sw_version,omitempty"`
	Model        string   `json:"model,omitempty"`
	Name         string   `json:"name,omitempty"`
}

type HADiscoveryMessage struct {
	Topic  string
	Config HADiscoveryConfig
}

func HADiscoverySensorTopic(discoveryTopic string, sensor domain.GenericSensor) string {
	return fmt.Sprintf("%s/sensor/%s/%s/config", discoveryTopic, sensor.Device.Id, strings.ToLower(sensor.Id))
}

func HADiscoveryBridgeTopic(discoveryTopic string, dev domain.Device) string {
	return fmt.Sprintf("%s/binary_sensor/%s/bridge_state/config", discoveryTopic, dev.Id)
}

// RegisterSensor describes a register as a Home Assistant sensor.
func RegisterSensor(dev domain.Device, reg domain.RegisterDefinition) domain.GenericSensor {
	deviceClass, stateClass := sensorClasses(reg.Unit)
	return domain.GenericSensor{
		Device:            dev,
		Id:                reg.Name,
		Name:              strings.ReplaceAll(reg.Name, "_", " "),
		UniqueId:          fmt.Sprintf("%s_%s", dev.Id, strings.ToLower(reg.Name)),
		UnitOfMeasurement: reg.Unit,
		DeviceClass:       deviceClass,
		StateClass:        stateClass,
	}
}

func GenericSensorToHADiscoveryMessage(client *MQTTClient, sensor domain.GenericSensor) HADiscoveryConfig {
	return HADiscoveryConfig{
		Device:            device(sensor.Device),
		StateTopic:        client.RegisterStateTopic(sensor.Id),
		StateClass:        sensor.StateClass,
		DeviceClass:       sensor.DeviceClass,
		UnitOfMeasurement: sensor.UnitOfMeasurement,
		AvTopic:           client.BridgeStateTopic(),
		Name:              sensor.Name,
		UniqueId:          sensor.UniqueId,
		Icon:              sensor.Icon,
		Platform:          "mqtt",
	}
}

func BridgeStateHADiscoveryMessage(client *MQTTClient, dev domain.Device) HADiscoveryConfig {
	return HADiscoveryConfig{
		Device:         device(dev),
		StateTopic:     client.BridgeStateTopic(),
		DeviceClass:    "connectivity",
		EntityCategory: "diagnostic",
		Name:           "Bridge state",
		UniqueId:       fmt.Sprintf("%s_bridge_state", dev.Id),
		Platform:       "mqtt",
		PayloadOn:      MQTT_PAYLOAD_ONLINE,
		PayloadOff:     MQTT_PAYLOAD_OFFLINE,
	}
}

// HADiscoveryMessages builds the bridge state entity plus one sensor per register.
func HADiscoveryMessages(client *MQTTClient, dev domain.Device, table domain.RegisterTable) []HADiscoveryMessage {
	discoveryTopic := client.HADiscoveryTopic()
	msgs := make([]HADiscoveryMessage, 0, len(table)+1)
	msgs = append(msgs, HADiscoveryMessage{
		Topic:  HADiscoveryBridgeTopic(discoveryTopic, dev),
		Config: BridgeStateHADiscoveryMessage(client, dev),
	})
	for _, reg := range table {
		sensor := RegisterSensor(dev, reg)
		msgs = append(msgs, HADiscoveryMessage{
			Topic:  HADiscoverySensorTopic(discoveryTopic, sensor),
			Config: GenericSensorToHADiscoveryMessage(client, sensor),
		})
	}
	return msgs
}

func sensorClasses(unit string) (deviceClass string, stateClass string) {
	switch unit {
	case "V":
		return "voltage", "measurement"
	case "A":
		return "current", "measurement"
	case "W":
		return "power", "measurement"
	case "VA":
		return "apparent_power", "measurement"
	case "Hz":
		return "frequency", "measurement"
	case "°C":
		return "temperature", "measurement"
	case "kWh":
		return "energy", "total_increasing"
	case "":
		return "", ""
	}
	return "", "measurement"
}

func device(d domain.Device) HADiscoveryDevice {
	return HADiscoveryDevice{
		Id:           []string{d.Id},
		Manufacturer: d.Manufacturer,
		Version:      d.Version,
		Model:        d.Model,
		Name:         d.Name,
	}
}
