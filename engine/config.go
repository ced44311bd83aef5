package engine

import "github.com/Zazins/rusefi/core"

// Configuration is the externally owned slice of engine configuration the
// trigger emulator reads. Control code (console, bench config loader)
// mutates it; the emulator only ever writes TriggerSimulatorRPM, and only
// through its own SetRPM entry point.
type Configuration struct {
	// Target emulated speed, rpm. Zero means "emulator parked".
	TriggerSimulatorRPM int

	// Polarity inversion for the first two trigger channels. Channels
	// beyond the secondary are never inverted.
	InvertPrimaryTriggerSignal   bool
	InvertSecondaryTriggerSignal bool

	// Physical output bindings, core.PinNone when unbound.
	TriggerSimulatorPins [core.MaxPhaseChannels]core.GPIOPin
}

// NewConfiguration returns a configuration with every simulator pin
// unbound and a default bench speed.
func NewConfiguration() *Configuration {
	cfg := &Configuration{
		TriggerSimulatorRPM: DefaultSimulatorRPM,
	}
	for i := range cfg.TriggerSimulatorPins {
		cfg.TriggerSimulatorPins[i] = core.PinNone
	}
	return cfg
}

// DefaultSimulatorRPM is the bench speed used when nothing configures one
const DefaultSimulatorRPM = 1200
