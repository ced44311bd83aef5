// Bench configuration for the trigger emulator.
// JSON in, engine configuration plus waveform table out. The phase table
// is given as explicit levels; deriving tables from trigger-wheel
// geometry is a waveform-builder concern, not a bench-config one.
package config

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Zazins/rusefi/core"
	"github.com/Zazins/rusefi/engine"
	"github.com/Zazins/rusefi/trigger"
)

// BenchConfig describes one emulator bench setup
type BenchConfig struct {
	// Target speed, rpm. Omitted means the default bench speed; use the
	// emulator_rpm console command to park a running emulator.
	RPM int `json:"rpm"`

	// Operation mode: "crank", "cam", "crank-3x", "crank-symmetrical",
	// "crank-12x"
	Mode string `json:"mode"`

	// Physical output pins per channel, in channel order. Shorter than
	// the channel count means the remaining channels are unbound.
	Pins []uint32 `json:"pins"`

	InvertPrimary   bool `json:"invert_primary"`
	InvertSecondary bool `json:"invert_secondary"`

	// Phase table: one row per phase, one 0/1 level per channel
	Phases [][]int `json:"phases"`
}

// Load parses a JSON bench configuration and applies defaults
func Load(jsonData []byte) (*BenchConfig, error) {
	var cfg BenchConfig

	if err := json.Unmarshal(jsonData, &cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyDefaults fills in missing configuration values
func applyDefaults(cfg *BenchConfig) {
	if cfg.Mode == "" {
		cfg.Mode = "crank"
	}
	if cfg.RPM == 0 {
		cfg.RPM = engine.DefaultSimulatorRPM
	}
	if len(cfg.Phases) == 0 {
		// Two-channel quadrature test pattern
		cfg.Phases = [][]int{{0, 0}, {1, 0}, {1, 1}, {0, 1}}
	}
}

func (cfg *BenchConfig) validate() error {
	if cfg.RPM < 0 {
		return errors.New("rpm must be non-negative")
	}
	if _, err := cfg.OperationMode(); err != nil {
		return err
	}
	if len(cfg.Pins) > core.MaxPhaseChannels {
		return fmt.Errorf("at most %d pins, got %d", core.MaxPhaseChannels, len(cfg.Pins))
	}
	for i, row := range cfg.Phases {
		if len(row) == 0 || len(row) > core.MaxPhaseChannels {
			return fmt.Errorf("phase %d: need 1..%d channel levels, got %d", i, core.MaxPhaseChannels, len(row))
		}
		for ch, level := range row {
			if level != 0 && level != 1 {
				return fmt.Errorf("phase %d channel %d: level must be 0 or 1", i, ch)
			}
		}
	}
	return nil
}

// OperationMode maps the mode string to an engine operation mode
func (cfg *BenchConfig) OperationMode() (engine.OperationMode, error) {
	switch cfg.Mode {
	case "crank":
		return engine.FourStrokeCrankSensor, nil
	case "cam":
		return engine.FourStrokeCamSensor, nil
	case "crank-3x":
		return engine.FourStrokeThreeTimesCrankSensor, nil
	case "crank-symmetrical":
		return engine.FourStrokeSymmetricalCrankSensor, nil
	case "crank-12x":
		return engine.FourStrokeTwelveTimesCrankSensor, nil
	}
	return 0, fmt.Errorf("unknown operation mode %q", cfg.Mode)
}

// Sequence builds the waveform table from the configured phases
func (cfg *BenchConfig) Sequence() *trigger.StateSequence {
	rows := make([]trigger.PhaseRow, len(cfg.Phases))
	for i, levels := range cfg.Phases {
		for ch, level := range levels {
			rows[i][ch] = level != 0
		}
	}
	return trigger.NewStateSequence(rows)
}

// Configuration builds the engine configuration slice the emulator reads
func (cfg *BenchConfig) Configuration() *engine.Configuration {
	out := engine.NewConfiguration()
	out.TriggerSimulatorRPM = cfg.RPM
	out.InvertPrimaryTriggerSignal = cfg.InvertPrimary
	out.InvertSecondaryTriggerSignal = cfg.InvertSecondary
	for i, pin := range cfg.Pins {
		out.TriggerSimulatorPins[i] = core.GPIOPin(pin)
	}
	return out
}

// Default returns the configuration used when no file is supplied
func Default() *BenchConfig {
	cfg := &BenchConfig{}
	applyDefaults(cfg)
	return cfg
}
