package actor

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/berfenger/solarpoll/internal/core/domain"
	"github.com/berfenger/solarpoll/internal/core/port"
	"github.com/berfenger/solarpoll/internal/core/service"
	"github.com/berfenger/solarpoll/internal/util"
	"github.com/berfenger/solarpoll/internal/util/actorutil"
	"github.com/berfenger/solarpoll/pkg/growatt_modbus"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type countingRestarter struct {
	calls atomic.Int32
}

func (r *countingRestarter) Restart(reason string) {
	r.calls.Add(1)
}

func testLogger(t *testing.T) *zap.Logger {
	cfg := util.LoadTestConfig()
	logCfg := zap.NewDevelopmentConfig()
	logCfg.Level = zap.NewAtomicLevelAt(cfg.LogLevel)
	return zap.Must(logCfg.Build())
}

// slowReader delays every read and panics on the next write once armed.
type slowReader struct {
	*growatt_modbus.TestInverterModbusReader
	delay      time.Duration
	reads      atomic.Int32
	panicWrite atomic.Bool
}

func (r *slowReader) ReadInputRegisters(address uint16, quantity uint16) ([]uint16, error) {
	r.reads.Add(1)
	time.Sleep(r.delay)
	return r.TestInverterModbusReader.ReadInputRegisters(address, quantity)
}

func (r *slowReader) WriteRegister(address uint16, value uint16) error {
	if r.panicWrite.CompareAndSwap(true, false) {
		panic("bus fault")
	}
	return r.TestInverterModbusReader.WriteRegister(address, value)
}

type tickCounter struct {
	ticks atomic.Int32
}

func (c *tickCounter) Service() {
	c.ticks.Add(1)
}

type masterFixture struct {
	reader     port.RegisterReader
	table      domain.RegisterTable
	ceiling    uint
	restarter  *countingRestarter
	staleAfter time.Duration
	ticks      *tickCounter
	builds     atomic.Int32
}

func newMasterFixture(reader port.RegisterReader) *masterFixture {
	return &masterFixture{
		reader: reader,
		table: domain.RegisterTable{
			{Name: "PV_Voltage", Address: 1, Encoding: domain.EncodingUint16, Multiplier: 0.1},
			{Name: "PV_Power", Address: 3, Encoding: domain.EncodingUint32WordPair, Multiplier: 0.1},
		},
		ceiling:    40,
		restarter:  &countingRestarter{},
		staleAfter: 5 * time.Second,
		ticks:      &tickCounter{},
	}
}

func (f *masterFixture) spawn(t *testing.T) (*actor.ActorSystem, *actor.PID) {
	logger := testLogger(t)
	as := actorutil.NewActorSystemWithZapLogger(logger)

	provider := func() *AcquisitionActor {
		return NewAcquisitionActor(20*time.Millisecond, func() *service.Acquisition {
			f.builds.Add(1)
			return service.NewAcquisition(service.AcquisitionConfig{
				PollInterval:   time.Second,
				FailureCeiling: f.ceiling,
				Samples:        1,
			}, service.AcquisitionDeps{
				Table:     f.table,
				Reader:    f.reader,
				Services:  []port.Serviceable{f.ticks},
				Restarter: f.restarter,
				Logger:    logger,
			})
		}, logger)
	}

	pid, err := as.Root.SpawnNamed(NewMasterProps(provider, f.staleAfter, logger), domain.ACTOR_ID_MASTER)
	require.NoError(t, err)
	return as, pid
}

func spawnMaster(t *testing.T, reader *growatt_modbus.TestInverterModbusReader, ceiling uint, restarter *countingRestarter) (*actor.ActorSystem, *actor.PID) {
	f := newMasterFixture(reader)
	f.ceiling = ceiling
	f.restarter = restarter
	return f.spawn(t)
}

func registers(n int) domain.RegisterTable {
	table := make(domain.RegisterTable, n)
	for i := range table {
		table[i] = domain.RegisterDefinition{Name: fmt.Sprintf("Reg_%d", i), Address: uint16(i + 1), Encoding: domain.EncodingUint16, Multiplier: 1}
	}
	return table
}

func health(t *testing.T, as *actor.ActorSystem, pid *actor.PID) domain.ActorHealthResponse {
	res, err := as.Root.RequestFuture(pid, domain.ActorHealthRequest{}, 5*time.Second).Result()
	require.NoError(t, err)
	resp, ok := res.(domain.ActorHealthResponse)
	require.True(t, ok)
	return resp
}

func TestMasterActorHealth(t *testing.T) {

	assert := assert.New(t)

	reader := growatt_modbus.NewTestInverterModbusReader(map[uint16]uint16{1: 2315})
	as, pid := spawnMaster(t, reader, 40, &countingRestarter{})
	defer as.Shutdown()

	resp := health(t, as, pid)
	assert.Equal(domain.ACTOR_ID_MASTER, resp.Id)
	assert.True(resp.Healthy)

	assert.Eventually(func() bool {
		return health(t, as, pid).State == string(service.WatchdogNominal)
	}, 5*time.Second, 20*time.Millisecond)

	as.Root.Stop(pid)
}

func TestMasterActorHealthDuringSlowPoll(t *testing.T) {

	assert := assert.New(t)

	reader := &slowReader{TestInverterModbusReader: growatt_modbus.NewTestInverterModbusReader(nil), delay: 200 * time.Millisecond}
	f := newMasterFixture(reader)
	f.table = registers(10)
	as, pid := f.spawn(t)
	defer as.Shutdown()

	// the first cycle holds the acquisition mailbox for about 2s
	require.Eventually(t, func() bool { return reader.reads.Load() >= 2 }, 5*time.Second, 10*time.Millisecond)

	start := time.Now()
	resp := health(t, as, pid)
	assert.Less(time.Since(start), 500*time.Millisecond)
	assert.Less(reader.reads.Load(), int32(10))
	assert.Equal(domain.ACTOR_ID_MASTER, resp.Id)
	assert.True(resp.Healthy)
	assert.Equal(string(service.WatchdogNominal), resp.State)

	as.Root.Stop(pid)
}

func TestMasterActorStaleAcquisitionReport(t *testing.T) {

	assert := assert.New(t)

	reader := &slowReader{TestInverterModbusReader: growatt_modbus.NewTestInverterModbusReader(nil), delay: 100 * time.Millisecond}
	f := newMasterFixture(reader)
	f.table = registers(5)
	f.staleAfter = 250 * time.Millisecond
	as, pid := f.spawn(t)
	defer as.Shutdown()

	// a 500ms cycle outlives the bound
	assert.Eventually(func() bool {
		resp := health(t, as, pid)
		return !resp.Healthy && resp.State == STATE_UNRESPONSIVE
	}, 5*time.Second, 20*time.Millisecond)

	// idle ticks between cycles refresh the report
	assert.Eventually(func() bool {
		return health(t, as, pid).Healthy
	}, 5*time.Second, 20*time.Millisecond)

	as.Root.Stop(pid)
}

func TestMasterActorRestartKeepsSingleTickChain(t *testing.T) {

	assert := assert.New(t)

	reader := &slowReader{TestInverterModbusReader: growatt_modbus.NewTestInverterModbusReader(nil)}
	f := newMasterFixture(reader)
	as, pid := f.spawn(t)
	defer as.Shutdown()

	require.Eventually(t, func() bool { return f.ticks.ticks.Load() >= 3 }, 5*time.Second, 10*time.Millisecond)

	// a panicking mode write restarts the acquisition actor with a tick pending
	reader.panicWrite.Store(true)
	as.Root.Send(pid, domain.SetInverterModeRequest{})
	require.Eventually(t, func() bool { return f.builds.Load() == 2 }, 5*time.Second, 10*time.Millisecond)

	before := f.ticks.ticks.Load()
	time.Sleep(500 * time.Millisecond)
	// one chain at 20ms gives at most 25 ticks, two chains about 50
	assert.LessOrEqual(f.ticks.ticks.Load()-before, int32(30))
	assert.True(health(t, as, pid).Healthy)

	as.Root.Stop(pid)
}

func TestMasterActorRoutesInverterMode(t *testing.T) {

	assert := assert.New(t)

	reader := growatt_modbus.NewTestInverterModbusReader(nil)
	as, pid := spawnMaster(t, reader, 40, &countingRestarter{})
	defer as.Shutdown()

	mode, err := domain.ParseInverterMode("2")
	require.NoError(t, err)

	res, err := as.Root.RequestFuture(pid, domain.SetInverterModeRequest{Mode: mode}, 5*time.Second).Result()
	require.NoError(t, err)
	resp, ok := res.(domain.SetInverterModeResponse)
	require.True(t, ok)
	assert.False(resp.HasResponseError())

	// the reply is sent after the write, so the write is visible here
	require.Len(t, reader.Writes, 1)
	assert.Equal(growatt_modbus.RegisterWrite{Address: domain.MODE_CONTROL_REGISTER, Value: 0x0100}, reader.Writes[0])

	as.Root.Stop(pid)
}

func TestMasterActorReportsHaltedAcquisition(t *testing.T) {

	assert := assert.New(t)

	reader := growatt_modbus.NewTestInverterModbusReader(nil)
	reader.FailAt(1)
	reader.FailAt(3)
	restarter := &countingRestarter{}
	as, pid := spawnMaster(t, reader, 2, restarter)
	defer as.Shutdown()

	assert.Eventually(func() bool {
		return !health(t, as, pid).Healthy
	}, 5*time.Second, 50*time.Millisecond)

	resp := health(t, as, pid)
	assert.Equal(STATE_HALTED, resp.State)

	res, err := as.Root.RequestFuture(pid, domain.AcquisitionStatusRequest{}, 5*time.Second).Result()
	require.NoError(t, err)
	status, ok := res.(domain.AcquisitionStatusResponse)
	require.True(t, ok)
	assert.True(status.Halted)
	assert.EqualValues(2, status.Failures)
	assert.EqualValues(2, status.FailureCeiling)
	assert.Equal(2, status.LastCycle.ReadFailures)

	// no further ticks once halted
	time.Sleep(100 * time.Millisecond)
	assert.EqualValues(1, restarter.calls.Load())

	res, err = as.Root.RequestFuture(pid, domain.SetInverterModeRequest{}, 5*time.Second).Result()
	require.NoError(t, err)
	modeResp := res.(domain.SetInverterModeResponse)
	assert.ErrorIs(modeResp.GetResponseError(), service.ErrAcquisitionHalted)

	as.Root.Stop(pid)
}
