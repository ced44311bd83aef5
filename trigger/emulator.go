// Trigger emulator: produces the electrical signal of an engine position
// sensor from a known waveform table, either by feeding edges straight
// into the decoding logic (self-stimulation) or by driving physical
// output pins (external stimulation).
package trigger

import (
	"errors"
	"math"
	"strconv"

	"github.com/Zazins/rusefi/console"
	"github.com/Zazins/rusefi/core"
	"github.com/Zazins/rusefi/engine"
)

// RunMode is the emulator's mutually exclusive operating state
type RunMode uint8

const (
	Stopped RunMode = iota
	SelfStimulation
	ExternalStimulation
)

func (m RunMode) String() string {
	switch m {
	case SelfStimulation:
		return "self"
	case ExternalStimulation:
		return "external"
	}
	return "stopped"
}

// ShaftSignalHandler consumes synthesized shaft-position edges. On the
// self-stimulation path this is the unit's own trigger-decoding input
// stage.
type ShaftSignalHandler interface {
	HandleShaftSignal(channel int, rising bool, stamp uint32)
}

// Emulator coordinates waveform playback, edge classification and
// routing. All mutable state lives on the instance; several independent
// emulators can run side by side.
//
// Control methods (Set/Enable/Disable/OnConfigurationChanged) run on the
// control path; edge dispatch runs on the scheduler's tick path. The
// tick path re-reads the run mode once per tick, so a Disable takes
// effect within one tick without locking.
type Emulator struct {
	eng       *engine.Engine
	seq       *StateSequence
	shaft     ShaftSignalHandler
	estimator engine.SpeedEstimator

	scheduler core.WaveformScheduler
	outputs   [core.MaxPhaseChannels]core.OutputPin

	mode            RunMode
	initialized     bool
	hasPhysicalPins bool
}

// NewEmulator creates an emulator playing seq. shaft receives edges in
// self-stimulation mode; estimator (optional) is registered as a speed
// source when self-stimulation starts.
func NewEmulator(eng *engine.Engine, seq *StateSequence, shaft ShaftSignalHandler, estimator engine.SpeedEstimator) *Emulator {
	return &Emulator{
		eng:       eng,
		seq:       seq,
		shaft:     shaft,
		estimator: estimator,
	}
}

// rpmMultiplier maps an operation mode to the trigger-cycles-per-minute
// factor applied to the target rpm.
func rpmMultiplier(mode engine.OperationMode) float32 {
	switch mode {
	case engine.FourStrokeThreeTimesCrankSensor:
		return engine.SymmetricalThreeTimesCrankSensorDivider / 2.0
	case engine.FourStrokeSymmetricalCrankSensor:
		return engine.SymmetricalCrankSensorDivider / 2.0
	case engine.FourStrokeTwelveTimesCrankSensor:
		return engine.SymmetricalTwelveTimesCrankSensorDivider / 2.0
	case engine.FourStrokeCamSensor:
		return 0.5
	case engine.FourStrokeCrankSensor:
		return 1
	}
	core.DebugPrintln("emulator: unmapped operation mode, using multiplier 1")
	return 1
}

// SetRPM changes the emulated speed. Zero parks the scheduler; any other
// value maps to a cycle frequency through the operation-mode multiplier.
// The running scheduler picks the new frequency up on its next tick.
func (e *Emulator) SetRPM(rpm int) {
	e.eng.Configuration.TriggerSimulatorRPM = rpm
	if rpm == 0 {
		e.scheduler.SetFrequency(float32(math.NaN()))
	} else {
		perSecond := float32(rpm) * rpmMultiplier(e.eng.OperationMode()) / 60.0
		e.scheduler.SetFrequency(perSecond)
	}
	e.eng.ResetSniffer()
	core.DebugPrintln("emulating position sensor(s), rpm=" + strconv.Itoa(rpm))
}

// initialize arms the scheduler with the currently configured speed.
// No-op when already initialized, even if the run mode is about to
// change: switching between self and external stimulation deliberately
// keeps the running timing.
func (e *Emulator) initialize() {
	if e.initialized {
		return
	}
	e.SetRPM(e.eng.Configuration.TriggerSimulatorRPM)
	e.scheduler.Start(e.seq, e.onPhase)
	e.initialized = true
}

// EnableSelfStimulation starts feeding synthesized edges directly into
// the shaft-signal handler, bypassing hardware. incGlobalConfiguration
// controls whether the unit-wide configuration version is bumped.
func (e *Emulator) EnableSelfStimulation(incGlobalConfiguration bool) {
	e.initialize()
	e.mode = SelfStimulation
	if e.estimator != nil {
		e.estimator.RegisterSource()
	}
	if incGlobalConfiguration {
		e.eng.IncrementConfigurationVersion("trgSim")
	}
}

// EnableExternalStimulation starts driving the synthesized signal onto
// the bound physical output pins.
func (e *Emulator) EnableExternalStimulation() {
	e.initialize()
	e.mode = ExternalStimulation
	e.eng.IncrementConfigurationVersion("extTrg")
}

// Disable stops stimulation and drops the initialized flag, so the next
// enable re-arms timing from scratch.
func (e *Emulator) Disable() {
	e.mode = Stopped
	e.scheduler.Stop()
	e.initialized = false
	e.eng.IncrementConfigurationVersion("disTrg")
}

// OnConfigurationChanged reacts to an external configuration update.
// An unchanged target rpm is a no-op so unrelated configuration writes
// do not reset the playback timing.
func (e *Emulator) OnConfigurationChanged(previousRPM int) {
	if e.eng.Configuration.TriggerSimulatorRPM == previousRPM {
		return
	}
	e.SetRPM(e.eng.Configuration.TriggerSimulatorRPM)
}

// RunMode returns the current run mode
func (e *Emulator) RunMode() RunMode {
	return e.mode
}

// Active reports whether any stimulation mode is enabled
func (e *Emulator) Active() bool {
	return e.mode != Stopped
}

// HasPhysicalPins reports whether any output channel is bound to a pin
func (e *Emulator) HasPhysicalPins() bool {
	return e.hasPhysicalPins
}

// Init binds the configured physical pins and registers the emulator's
// console commands. Call once at startup; reg may be nil on targets
// without a console.
func (e *Emulator) Init(reg *console.Registry) error {
	if err := e.StartPins(); err != nil {
		return err
	}
	if reg != nil {
		e.RegisterCommands(reg)
	}
	return nil
}

// StartPins scans the configured pin bindings, initializes the bound
// ones as outputs and recomputes the physical-pin flag. Pins are only
// touched when a GPIO driver is present; the flag tracks the bindings
// either way.
func (e *Emulator) StartPins() error {
	e.hasPhysicalPins = false
	for i := range e.outputs {
		pin := e.eng.Configuration.TriggerSimulatorPins[i]
		if pin.IsValid() {
			e.hasPhysicalPins = true
		}
		if err := e.outputs[i].InitPin("trigger emulator", pin); err != nil {
			return err
		}
	}
	return nil
}

// StopPins releases the bound outputs, driving them low first
func (e *Emulator) StopPins() {
	for i := range e.outputs {
		e.outputs[i].DeInit()
	}
}

// onPhase is the scheduler callback: one invocation per phase advance,
// running in tick context.
func (e *Emulator) onPhase(src core.PhaseSource, stateIndex int, stamp uint32) {
	switch e.mode {
	case SelfStimulation:
		e.dispatchEdges(src, stateIndex, stamp)
	case ExternalStimulation:
		// Only touch pins if any are configured
		if e.hasPhysicalPins {
			e.applyPinState(src, stateIndex)
		}
	default:
		// Stopped: this tick raced a disable, drop it
	}
}

// dispatchEdges classifies every channel's transition at stateIndex and
// forwards the edges to the shaft-signal handler. The whole tick shares
// one timestamp; there is no per-channel skew.
func (e *Emulator) dispatchEdges(src core.PhaseSource, stateIndex int, stamp uint32) {
	cfg := e.eng.Configuration
	for channel := 0; channel < core.MaxPhaseChannels; channel++ {
		if !EdgeOccurred(src, stateIndex, channel) {
			continue
		}
		rising := src.ChannelHigh(channel, stateIndex)

		// This path stands in for a physically wired sensor, so polarity
		// inversion is part of what the decoder sees.
		if channel == 0 && cfg.InvertPrimaryTriggerSignal {
			rising = !rising
		}
		if channel == 1 && cfg.InvertSecondaryTriggerSignal {
			rising = !rising
		}

		core.RecordTiming(core.EvtEdgeOut, uint8(channel), stamp, boolToUint32(rising), uint32(stateIndex))
		e.shaft.HandleShaftSignal(channel, rising, stamp)
	}
}

// applyPinState drives every bound output to the raw table level at
// stateIndex. The invert flags describe sensor wiring and are not
// applied here; a scope or external decoder gets the unmodified pattern.
func (e *Emulator) applyPinState(src core.PhaseSource, stateIndex int) {
	for channel := range e.outputs {
		e.outputs[channel].SetValue(src.ChannelHigh(channel, stateIndex))
	}
}

// RegisterCommands exposes the emulator's bench controls on a console
// registry.
func (e *Emulator) RegisterCommands(reg *console.Registry) {
	reg.RegisterInt("emulator_rpm", "set emulator target speed", func(rpm int) error {
		if rpm < 0 {
			return errors.New("rpm must be non-negative")
		}
		e.SetRPM(rpm)
		return nil
	})
	reg.Register("selfstim", "feed synthesized edges into the decoder", func(args []string) error {
		e.EnableSelfStimulation(true)
		return nil
	})
	reg.Register("extstim", "drive synthesized signal onto output pins", func(args []string) error {
		e.EnableExternalStimulation()
		return nil
	})
	reg.Register("stopstim", "stop the trigger emulator", func(args []string) error {
		e.Disable()
		return nil
	})
	reg.Register("emulator_status", "report emulator state", func(args []string) error {
		reg.Println("mode=" + e.mode.String() +
			" rpm=" + strconv.Itoa(e.eng.Configuration.TriggerSimulatorRPM) +
			" phases=" + strconv.Itoa(e.seq.PhaseCount()) +
			" pins=" + strconv.FormatBool(e.hasPhysicalPins))
		return nil
	})
}

func boolToUint32(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}
