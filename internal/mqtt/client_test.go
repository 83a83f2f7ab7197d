package mqtt

import (
	"encoding/json"
	"testing"

	"github.com/berfenger/solarpoll/internal/core/domain"
	"github.com/berfenger/solarpoll/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testMessage struct {
	topic   string
	payload []byte
}

func (m testMessage) Duplicate() bool   { return false }
func (m testMessage) Qos() byte         { return 1 }
func (m testMessage) Retained() bool    { return false }
func (m testMessage) Topic() string     { return m.topic }
func (m testMessage) MessageID() uint16 { return 1 }
func (m testMessage) Payload() []byte   { return m.payload }
func (m testMessage) Ack()              {}

func testClient() *MQTTClient {
	cfg := util.LoadTestConfig()
	return CreateMQTTClient(&cfg, OptsFromConfig(&cfg), nil, nil)
}

func TestTopics(t *testing.T) {

	assert := assert.New(t)

	client := testClient()
	assert.Equal("solarpoll/bridge/state", client.BridgeStateTopic())
	assert.Equal("solarpoll/PV_Voltage", client.RegisterStateTopic("PV_Voltage"))
	assert.Equal("solarpoll/mode", client.ModeCommandTopic())
	assert.False(client.IsConnected())
}

func TestModeCommandParse(t *testing.T) {

	assert := assert.New(t)

	client := testClient()
	mode, err := client.ParseModeCommand(testMessage{topic: "solarpoll/mode", payload: []byte("2")})
	require.NoError(t, err)
	assert.EqualValues(0x0100, mode.RegisterValue())

	_, err = client.ParseModeCommand(testMessage{topic: "solarpoll/mode", payload: []byte("7")})
	assert.Error(err)

	_, err = client.ParseModeCommand(testMessage{topic: "solarpoll/PV_Voltage", payload: []byte("1")})
	assert.Error(err)
}

func TestFormatValue(t *testing.T) {

	assert := assert.New(t)

	assert.Equal("123.4", FormatValue(123.4))
	assert.Equal("0", FormatValue(0))
	assert.Equal("-150", FormatValue(-150))
	assert.Equal("52.37", FormatValue(52.37))
}

func TestHADiscoveryMessages(t *testing.T) {

	assert := assert.New(t)

	client := testClient()
	dev := domain.Device{Id: "growatt_test", Name: "Growatt", Model: "growatt_spf", Manufacturer: "Growatt"}
	table := domain.RegisterTable{
		{Name: "PV_Energy_Today", Address: 48, Encoding: domain.EncodingUint32WordPair, Multiplier: 0.1, Unit: "kWh"},
		{Name: "System_Status", Address: 0, Encoding: domain.EncodingUint16, Multiplier: 1},
	}

	msgs := HADiscoveryMessages(client, dev, table)
	require.Len(t, msgs, 3)

	assert.Equal("homeassistant/binary_sensor/growatt_test/bridge_state/config", msgs[0].Topic)
	assert.Equal(MQTT_PAYLOAD_ONLINE, msgs[0].Config.PayloadOn)

	energy := msgs[1]
	assert.Equal("homeassistant/sensor/growatt_test/pv_energy_today/config", energy.Topic)
	assert.Equal("solarpoll/PV_Energy_Today", energy.Config.StateTopic)
	assert.Equal("energy", energy.Config.DeviceClass)
	assert.Equal("total_increasing", energy.Config.StateClass)
	assert.Equal("growatt_test_pv_energy_today", energy.Config.UniqueId)
	assert.Equal("PV Energy Today", energy.Config.Name)

	raw, err := json.Marshal(msgs[2].Config)
	require.NoError(t, err)
	assert.NotContains(string(raw), "device_class")
	assert.Contains(string(raw), `"availability_topic":"solarpoll/bridge/state"`)
}
