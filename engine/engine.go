// Engine-level shared state: configuration, rotation mode, and the
// configuration version counter other subsystems watch.
package engine

import "github.com/Zazins/rusefi/core"

// RotationState reports the engine's current operation mode. Supplied by
// configuration or by the decoding side; read-only to the emulator.
type RotationState interface {
	OperationMode() OperationMode
}

// FixedRotationState is a RotationState pinned to one mode. Used by bench
// configurations and tests.
type FixedRotationState struct {
	Mode OperationMode
}

func (s FixedRotationState) OperationMode() OperationMode {
	return s.Mode
}

// SpeedEstimator is the collaborator that estimates engine speed from
// shaft signals. The emulator registers itself as a signal source when
// self-stimulation starts.
type SpeedEstimator interface {
	RegisterSource()
}

// Engine holds state shared across subsystems. One Engine per emulated
// unit; nothing here is process-global, so tests can run several
// instances side by side.
type Engine struct {
	Configuration *Configuration

	// SnifferReset, when set, is invoked on every emulated speed change
	// so a capture tool can restart its trace.
	SnifferReset func()

	rotation             RotationState
	configurationVersion int
}

// New creates an Engine around an externally owned configuration.
// rotation may be nil, in which case the operation mode defaults to a
// plain crank sensor.
func New(cfg *Configuration, rotation RotationState) *Engine {
	if cfg == nil {
		cfg = NewConfiguration()
	}
	return &Engine{
		Configuration: cfg,
		rotation:      rotation,
	}
}

// OperationMode returns the current rotation mode
func (e *Engine) OperationMode() OperationMode {
	if e.rotation == nil {
		return FourStrokeCrankSensor
	}
	return e.rotation.OperationMode()
}

// IncrementConfigurationVersion bumps the counter subsystems use to
// notice that something about the unit's configuration changed.
func (e *Engine) IncrementConfigurationVersion(reason string) {
	e.configurationVersion++
	core.DebugPrintln("config version bump: " + reason)
}

// ConfigurationVersion returns the current counter value
func (e *Engine) ConfigurationVersion() int {
	return e.configurationVersion
}

// ResetSniffer invokes the sniffer-reset hook if one is installed
func (e *Engine) ResetSniffer() {
	if e.SnifferReset != nil {
		e.SnifferReset()
	}
}
