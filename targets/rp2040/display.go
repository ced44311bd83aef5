//go:build rp2040

package main

// Optional ssd1306 bench readout: current run mode and target speed.

import (
	"image/color"
	"machine"
	"strconv"

	"tinygo.org/x/drivers/ssd1306"
	"tinygo.org/x/tinyfont"
	"tinygo.org/x/tinyfont/proggy"

	"github.com/Zazins/rusefi/core"
	"github.com/Zazins/rusefi/engine"
	"github.com/Zazins/rusefi/trigger"
)

const displayUpdateTicks = core.TimerFreq / 4 // 250ms

var bench struct {
	dev        ssd1306.Device
	ok         bool
	lastUpdate uint32
	eng        *engine.Engine
	emu        *trigger.Emulator
}

var displayWhite = color.RGBA{R: 255, G: 255, B: 255, A: 255}

// initDisplay probes the ssd1306 on I2C0 (SDA=GPIO4, SCL=GPIO5).
// A missing display is not an error; the readout just stays off.
func initDisplay(eng *engine.Engine, emu *trigger.Emulator) {
	err := machine.I2C0.Configure(machine.I2CConfig{
		SDA:       machine.GPIO4,
		SCL:       machine.GPIO5,
		Frequency: 400000,
	})
	if err != nil {
		return
	}

	bench.dev = ssd1306.NewI2C(machine.I2C0)
	bench.dev.Configure(ssd1306.Config{Width: 128, Height: 32, Address: 0x3C})
	bench.dev.ClearDisplay()
	bench.eng = eng
	bench.emu = emu
	bench.ok = true
}

// updateDisplay refreshes the readout a few times per second. Called
// from the main loop, never from tick context.
func updateDisplay() {
	if !bench.ok {
		return
	}
	now := core.GetTime()
	if now-bench.lastUpdate < displayUpdateTicks {
		return
	}
	bench.lastUpdate = now

	bench.dev.ClearBuffer()
	tinyfont.WriteLine(&bench.dev, &proggy.TinySZ8pt7b, 0, 10,
		"mode "+bench.emu.RunMode().String(), displayWhite)
	tinyfont.WriteLine(&bench.dev, &proggy.TinySZ8pt7b, 0, 24,
		"rpm "+strconv.Itoa(bench.eng.Configuration.TriggerSimulatorRPM), displayWhite)
	bench.dev.Display()
}
