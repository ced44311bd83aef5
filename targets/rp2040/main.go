//go:build rp2040

package main

import (
	"machine"

	"github.com/Zazins/rusefi/config"
	"github.com/Zazins/rusefi/console"
	"github.com/Zazins/rusefi/core"
	"github.com/Zazins/rusefi/engine"
	"github.com/Zazins/rusefi/trigger"
)

// Default bench wiring: primary trigger on GPIO2, secondary on GPIO3.
// Pins are consecutive so the PIO backend can drive both from one state
// machine.
const (
	triggerBasePin  = 2
	triggerPinCount = 2
	usePIOBackend   = true
	maxConsoleLine  = 64
)

// edgeCounter is the self-stimulation sink on a bare bench target: no
// decoder is wired in, so edges are just counted per channel for the
// console to report.
type edgeCounter struct {
	counts [core.MaxPhaseChannels]uint32
}

func (c *edgeCounter) HandleShaftSignal(channel int, rising bool, stamp uint32) {
	if channel >= 0 && channel < len(c.counts) {
		c.counts[channel]++
	}
}

// serialOut normalizes every console and debug line to CRLF
var serialOut = console.CRLFWriter{W: machine.Serial}

func main() {
	core.TimerInit()

	core.SetDebugWriter(func(s string) {
		serialOut.Write([]byte(s + "\n"))
	})

	if usePIOBackend {
		backend := NewPIOTriggerBackend(0, 0)
		if err := backend.Init(triggerBasePin, triggerPinCount); err != nil {
			// PIO unavailable (program slots taken): fall back to GPIO
			core.SetGPIODriver(NewRPGPIODriver())
		} else {
			core.SetGPIODriver(backend)
		}
	} else {
		core.SetGPIODriver(NewRPGPIODriver())
	}

	benchCfg := config.Default()
	benchCfg.Pins = []uint32{triggerBasePin, triggerBasePin + 1}

	mode, err := benchCfg.OperationMode()
	if err != nil {
		mode = engine.FourStrokeCrankSensor
	}
	eng := engine.New(benchCfg.Configuration(), engine.FixedRotationState{Mode: mode})
	seq := benchCfg.Sequence()
	counter := &edgeCounter{}
	emulator := trigger.NewEmulator(eng, seq, counter, nil)

	registry := console.NewRegistry()
	registry.SetOutput(serialOut)
	if err := emulator.Init(registry); err != nil {
		core.DebugPrintln("pin init failed: " + err.Error())
	}
	registry.Register("edge_counts", "per-channel self-stimulation edge counts", func(args []string) error {
		for channel := range counter.counts {
			registry.Println("ch" + itoa(channel) + "=" + itoa(int(counter.counts[channel])))
		}
		return nil
	})

	// Start driving the pins immediately; the console can switch modes
	emulator.EnableExternalStimulation()

	initDisplay(eng, emulator)

	var line [maxConsoleLine]byte
	lineLen := 0

	for {
		core.SetTime(GetHardwareTime())
		core.ProcessTimers()

		for machine.Serial.Buffered() > 0 {
			b, err := machine.Serial.ReadByte()
			if err != nil {
				break
			}
			if b == '\n' || b == '\r' {
				if lineLen > 0 {
					dispatchLine(registry, string(line[:lineLen]))
					lineLen = 0
				}
			} else if lineLen < len(line) {
				line[lineLen] = b
				lineLen++
			}
		}

		updateDisplay()
	}
}

func dispatchLine(registry *console.Registry, lineText string) {
	if err := registry.Dispatch(lineText); err != nil {
		serialOut.Write([]byte("error: " + err.Error() + "\n"))
	} else {
		serialOut.Write([]byte("ok\n"))
	}
}

// itoa avoids pulling fmt into the firmware image
func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	negative := n < 0
	if negative {
		n = -n
	}
	var buf [12]byte
	pos := len(buf)
	for n > 0 {
		pos--
		buf[pos] = byte('0' + n%10)
		n /= 10
	}
	if negative {
		pos--
		buf[pos] = '-'
	}
	return string(buf[pos:])
}
