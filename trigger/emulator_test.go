package trigger

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zazins/rusefi/core"
	"github.com/Zazins/rusefi/engine"
)

type shaftEvent struct {
	channel int
	rising  bool
	stamp   uint32
}

// recordingShaft collects dispatched edges
type recordingShaft struct {
	events []shaftEvent
}

func (s *recordingShaft) HandleShaftSignal(channel int, rising bool, stamp uint32) {
	s.events = append(s.events, shaftEvent{channel, rising, stamp})
}

// countingEstimator counts speed-source registrations
type countingEstimator struct {
	registrations int
}

func (e *countingEstimator) RegisterSource() {
	e.registrations++
}

// benchGPIODriver is an in-memory core.GPIODriver for pin assertions
type benchGPIODriver struct {
	pins map[core.GPIOPin]bool
}

func newBenchGPIODriver() *benchGPIODriver {
	return &benchGPIODriver{pins: make(map[core.GPIOPin]bool)}
}

func (d *benchGPIODriver) ConfigureOutput(pin core.GPIOPin) error {
	d.pins[pin] = false
	return nil
}

func (d *benchGPIODriver) SetPin(pin core.GPIOPin, value bool) error {
	d.pins[pin] = value
	return nil
}

func (d *benchGPIODriver) GetPin(pin core.GPIOPin) (bool, error) {
	return d.pins[pin], nil
}

func quadratureSequence() *StateSequence {
	return NewStateSequence([]PhaseRow{
		{false, false},
		{true, false},
		{true, true},
		{false, true},
	})
}

type emulatorFixture struct {
	eng       *engine.Engine
	cfg       *engine.Configuration
	seq       *StateSequence
	shaft     *recordingShaft
	estimator *countingEstimator
	emu       *Emulator
}

func newFixture(t *testing.T, mode engine.OperationMode) *emulatorFixture {
	t.Helper()
	t.Cleanup(func() {
		core.ClearTimers()
		core.SetTime(0)
		core.SetGPIODriver(nil)
	})
	core.ClearTimers()
	core.SetTime(0)

	cfg := engine.NewConfiguration()
	eng := engine.New(cfg, engine.FixedRotationState{Mode: mode})
	seq := quadratureSequence()
	shaft := &recordingShaft{}
	estimator := &countingEstimator{}

	return &emulatorFixture{
		eng:       eng,
		cfg:       cfg,
		seq:       seq,
		shaft:     shaft,
		estimator: estimator,
		emu:       NewEmulator(eng, seq, shaft, estimator),
	}
}

// runPhases drives the clock through n phase intervals of the 4-phase
// table at the given cycle frequency
func runPhases(n int, perSecond float32, phases int) {
	interval := uint32(float32(core.TimerFreq) / perSecond / float32(phases))
	for i := 0; i < n; i++ {
		core.ProcessTimers()
		core.AdvanceTime(interval)
	}
}

func TestRPMMultiplier(t *testing.T) {
	cases := []struct {
		mode engine.OperationMode
		want float32
	}{
		{engine.FourStrokeCrankSensor, 1},
		{engine.FourStrokeCamSensor, 0.5},
		{engine.FourStrokeThreeTimesCrankSensor, 3},
		{engine.FourStrokeSymmetricalCrankSensor, 2},
		{engine.FourStrokeTwelveTimesCrankSensor, 12},
		{engine.OperationMode(250), 1}, // unmapped falls back to 1
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, rpmMultiplier(tc.mode), "mode %v", tc.mode)
	}
}

func TestSetRPMFrequencyMapping(t *testing.T) {
	cases := []struct {
		mode engine.OperationMode
		rpm  int
		want float32
	}{
		{engine.FourStrokeCrankSensor, 6000, 100},
		{engine.FourStrokeCrankSensor, 3000, 50},
		{engine.FourStrokeCamSensor, 3000, 25},
		{engine.FourStrokeThreeTimesCrankSensor, 6000, 300},
		{engine.FourStrokeTwelveTimesCrankSensor, 1000, 200},
	}
	for _, tc := range cases {
		fixture := newFixture(t, tc.mode)
		fixture.emu.SetRPM(tc.rpm)
		assert.Equal(t, tc.want, fixture.emu.scheduler.Frequency(),
			"rpm %d mode %v", tc.rpm, tc.mode)
	}
}

func TestSetRPMZeroParks(t *testing.T) {
	fixture := newFixture(t, engine.FourStrokeCrankSensor)
	fixture.emu.SetRPM(0)
	assert.True(t, math.IsNaN(float64(fixture.emu.scheduler.Frequency())))
	assert.Equal(t, 0, fixture.cfg.TriggerSimulatorRPM)
}

func TestSetRPMResetsSniffer(t *testing.T) {
	fixture := newFixture(t, engine.FourStrokeCrankSensor)
	resets := 0
	fixture.eng.SnifferReset = func() { resets++ }

	fixture.emu.SetRPM(3000)
	assert.Equal(t, 1, resets)
}

func TestSelfStimulationDispatchesQuadratureEdges(t *testing.T) {
	fixture := newFixture(t, engine.FourStrokeCrankSensor)
	fixture.cfg.TriggerSimulatorRPM = 6000 // 100Hz

	fixture.emu.EnableSelfStimulation(false)
	require.Equal(t, SelfStimulation, fixture.emu.RunMode())

	runPhases(4, 100, 4)

	interval := uint32(core.TimerFreq / 400)
	want := []shaftEvent{
		{channel: 0, rising: true, stamp: 0},
		{channel: 1, rising: true, stamp: interval},
		{channel: 0, rising: false, stamp: 2 * interval},
		{channel: 1, rising: false, stamp: 3 * interval},
	}
	assert.Equal(t, want, fixture.shaft.events)
}

func TestInvertFlagsFlipSelfStimulationEdges(t *testing.T) {
	fixture := newFixture(t, engine.FourStrokeCrankSensor)
	fixture.cfg.TriggerSimulatorRPM = 6000
	fixture.cfg.InvertPrimaryTriggerSignal = true

	fixture.emu.EnableSelfStimulation(false)
	runPhases(4, 100, 4)

	require.Len(t, fixture.shaft.events, 4)
	// Channel 0 edges are flipped, channel 1 untouched
	assert.Equal(t, false, fixture.shaft.events[0].rising) // was rising
	assert.Equal(t, true, fixture.shaft.events[1].rising)
	assert.Equal(t, true, fixture.shaft.events[2].rising) // was falling
	assert.Equal(t, false, fixture.shaft.events[3].rising)
}

func TestInvertSecondaryOnlyAffectsChannelOne(t *testing.T) {
	fixture := newFixture(t, engine.FourStrokeCrankSensor)
	fixture.cfg.TriggerSimulatorRPM = 6000
	fixture.cfg.InvertSecondaryTriggerSignal = true

	fixture.emu.EnableSelfStimulation(false)
	runPhases(4, 100, 4)

	require.Len(t, fixture.shaft.events, 4)
	assert.Equal(t, true, fixture.shaft.events[0].rising)
	assert.Equal(t, false, fixture.shaft.events[1].rising) // was rising
	assert.Equal(t, false, fixture.shaft.events[2].rising)
	assert.Equal(t, true, fixture.shaft.events[3].rising) // was falling
}

// The external-stimulation path drives raw table levels; the invert
// flags model sensor wiring and do not apply there.
func TestExternalPathIgnoresInvertFlags(t *testing.T) {
	fixture := newFixture(t, engine.FourStrokeCrankSensor)
	driver := newBenchGPIODriver()
	core.SetGPIODriver(driver)

	fixture.cfg.TriggerSimulatorRPM = 6000
	fixture.cfg.InvertPrimaryTriggerSignal = true
	fixture.cfg.TriggerSimulatorPins[0] = core.GPIOPin(2)
	fixture.cfg.TriggerSimulatorPins[1] = core.GPIOPin(3)
	require.NoError(t, fixture.emu.StartPins())
	require.True(t, fixture.emu.HasPhysicalPins())

	fixture.emu.EnableExternalStimulation()
	runPhases(2, 100, 4)

	// Phase 1 is (high, low), phase 2 is (high, high): raw levels on the
	// pins even though channel 0 is configured inverted
	ch0, err := driver.GetPin(core.GPIOPin(2))
	require.NoError(t, err)
	ch1, err := driver.GetPin(core.GPIOPin(3))
	require.NoError(t, err)
	assert.True(t, ch0)
	assert.True(t, ch1)

	// And nothing went to the shaft handler
	assert.Empty(t, fixture.shaft.events)
}

func TestExternalStimulationWithoutPinsSkipsWrites(t *testing.T) {
	fixture := newFixture(t, engine.FourStrokeCrankSensor)
	core.SetGPIODriver(newBenchGPIODriver())

	fixture.cfg.TriggerSimulatorRPM = 6000
	require.NoError(t, fixture.emu.StartPins())
	require.False(t, fixture.emu.HasPhysicalPins())

	fixture.emu.EnableExternalStimulation()
	runPhases(4, 100, 4)

	assert.Empty(t, fixture.shaft.events)
}

func TestDisableStopsWithinOneTick(t *testing.T) {
	fixture := newFixture(t, engine.FourStrokeCrankSensor)
	fixture.cfg.TriggerSimulatorRPM = 6000

	fixture.emu.EnableSelfStimulation(false)
	runPhases(2, 100, 4)
	require.NotEmpty(t, fixture.shaft.events)

	seen := len(fixture.shaft.events)
	fixture.emu.Disable()
	assert.Equal(t, Stopped, fixture.emu.RunMode())
	assert.False(t, fixture.emu.Active())

	runPhases(4, 100, 4)
	assert.Len(t, fixture.shaft.events, seen, "events dispatched after Disable")
}

func TestDisableEnableReproducesFirstEdges(t *testing.T) {
	fixture := newFixture(t, engine.FourStrokeCrankSensor)
	fixture.cfg.TriggerSimulatorRPM = 6000

	fixture.emu.EnableSelfStimulation(false)
	runPhases(4, 100, 4)
	firstRun := append([]shaftEvent(nil), fixture.shaft.events...)

	fixture.emu.Disable()
	fixture.shaft.events = nil

	fixture.emu.EnableSelfStimulation(false)
	runPhases(4, 100, 4)

	require.Len(t, fixture.shaft.events, len(firstRun))
	for i := range firstRun {
		assert.Equal(t, firstRun[i].channel, fixture.shaft.events[i].channel, "edge %d channel", i)
		assert.Equal(t, firstRun[i].rising, fixture.shaft.events[i].rising, "edge %d direction", i)
	}
}

func TestModeSwitchKeepsRunningTiming(t *testing.T) {
	fixture := newFixture(t, engine.FourStrokeCrankSensor)
	fixture.cfg.TriggerSimulatorRPM = 6000

	fixture.emu.EnableSelfStimulation(false)
	runPhases(2, 100, 4)
	cursor := fixture.emu.scheduler.PhaseIndex()
	require.NotZero(t, cursor)

	// Switching to external stimulation while initialized must not
	// restart the scheduler: the guard is "initialized", not "same mode"
	fixture.emu.EnableExternalStimulation()
	assert.Equal(t, ExternalStimulation, fixture.emu.RunMode())
	assert.Equal(t, cursor, fixture.emu.scheduler.PhaseIndex())
	assert.True(t, fixture.emu.scheduler.Running())
}

func TestEnableRegistersSpeedSource(t *testing.T) {
	fixture := newFixture(t, engine.FourStrokeCrankSensor)

	fixture.emu.EnableSelfStimulation(false)
	assert.Equal(t, 1, fixture.estimator.registrations)

	fixture.emu.EnableExternalStimulation()
	assert.Equal(t, 1, fixture.estimator.registrations, "external stimulation registered a speed source")
}

func TestConfigurationVersionBumps(t *testing.T) {
	fixture := newFixture(t, engine.FourStrokeCrankSensor)

	fixture.emu.EnableSelfStimulation(false)
	assert.Equal(t, 0, fixture.eng.ConfigurationVersion())

	fixture.emu.Disable()
	assert.Equal(t, 1, fixture.eng.ConfigurationVersion())

	fixture.emu.EnableSelfStimulation(true)
	assert.Equal(t, 2, fixture.eng.ConfigurationVersion())

	fixture.emu.EnableExternalStimulation()
	assert.Equal(t, 3, fixture.eng.ConfigurationVersion())
}

func TestOnConfigurationChangedIgnoresUnchangedRPM(t *testing.T) {
	fixture := newFixture(t, engine.FourStrokeCrankSensor)
	resets := 0
	fixture.eng.SnifferReset = func() { resets++ }

	fixture.cfg.TriggerSimulatorRPM = 3000
	fixture.emu.OnConfigurationChanged(3000)
	assert.Zero(t, resets, "unchanged rpm reapplied the frequency")

	fixture.emu.OnConfigurationChanged(1200)
	assert.Equal(t, 1, resets)
	assert.Equal(t, float32(50), fixture.emu.scheduler.Frequency())
}

func TestTableSwapMidRunNeverIndexesPastNewCount(t *testing.T) {
	fixture := newFixture(t, engine.FourStrokeCrankSensor)
	fixture.cfg.TriggerSimulatorRPM = 6000

	fixture.emu.EnableSelfStimulation(false)
	runPhases(3, 100, 4)

	// Swap in a two-phase single-channel shape mid-run
	fixture.seq.SetShape([]PhaseRow{{false}, {true}})

	runPhases(4, 100, 4)
	assert.Less(t, fixture.emu.scheduler.PhaseIndex(), 2)
}
