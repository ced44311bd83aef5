//go:build rp2040

package main

// PIO trigger output backend using tinygo-org/pio.
// Drives a block of consecutive pins from 32-bit level masks pushed to
// the state-machine FIFO, so edge placement does not depend on software
// GPIO latency.

import (
	"errors"
	"machine"

	"github.com/Zazins/rusefi/core"

	rp2pio "github.com/tinygo-org/pio/rp2-pio"
)

// buildLevelProgram creates the PIO program: pull one word from the
// FIFO, apply its low pinCount bits to the output pins, repeat.
func buildLevelProgram(pinCount uint8) []uint16 {
	asm := rp2pio.AssemblerV0{SidesetBits: 0}
	return []uint16{
		// .wrap_target
		asm.Pull(false, true).Encode(),                 // 0: pull block
		asm.Out(rp2pio.OutDestPins, pinCount).Encode(), // 1: out pins, pinCount
		// .wrap
	}
}

const levelPIOOrigin = 0 // Load at offset 0 for correct wrap addresses

// PIOTriggerBackend implements core.GPIODriver on top of a PIO state
// machine. SetPin updates a shadow mask and pushes the whole mask, so
// all channels of one phase land on the pins in a single PIO cycle.
type PIOTriggerBackend struct {
	pio      *rp2pio.PIO
	sm       rp2pio.StateMachine
	basePin  machine.Pin
	pinCount uint8
	offset   uint8
	mask     uint32
}

// NewPIOTriggerBackend creates a backend on the given PIO block and
// state machine. pioNum: 0 or 1; smNum: 0-3.
func NewPIOTriggerBackend(pioNum, smNum uint8) *PIOTriggerBackend {
	pioHW := rp2pio.PIO0
	if pioNum != 0 {
		pioHW = rp2pio.PIO1
	}

	return &PIOTriggerBackend{
		pio: pioHW,
		sm:  pioHW.StateMachine(smNum),
	}
}

// Init claims the state machine and points it at pinCount consecutive
// pins starting at basePin.
func (b *PIOTriggerBackend) Init(basePin, pinCount uint8) error {
	if pinCount == 0 || pinCount > 32 {
		return errors.New("pin count must be 1..32")
	}
	b.basePin = machine.Pin(basePin)
	b.pinCount = pinCount

	b.sm.TryClaim()

	program := buildLevelProgram(pinCount)
	offset, err := b.pio.AddProgram(program, levelPIOOrigin)
	if err != nil {
		return err
	}
	b.offset = offset

	for i := uint8(0); i < pinCount; i++ {
		machine.Pin(basePin + i).Configure(machine.PinConfig{Mode: b.pio.PinMode()})
	}

	cfg := rp2pio.DefaultStateMachineConfig()
	cfg.SetOutPins(b.basePin, pinCount)
	// Shift right, no autopull (the program pulls explicitly), 32-bit threshold
	cfg.SetOutShift(true, false, 32)
	cfg.SetWrap(offset+uint8(len(program))-1, offset)
	// 1MHz state machine clock; edges are FIFO-paced, not clock-paced
	cfg.SetClkDivIntFrac(125, 0)

	b.sm.Init(offset, cfg)
	b.sm.SetPindirsConsecutive(b.basePin, pinCount, true)
	b.sm.SetPinsConsecutive(b.basePin, pinCount, false)
	b.sm.SetEnabled(true)

	return nil
}

func (b *PIOTriggerBackend) ConfigureOutput(pin core.GPIOPin) error {
	if !b.owns(pin) {
		return errors.New("pin outside PIO output block")
	}
	return nil
}

func (b *PIOTriggerBackend) SetPin(pin core.GPIOPin, value bool) error {
	if !b.owns(pin) {
		return errors.New("pin outside PIO output block")
	}

	bit := uint32(1) << (uint32(pin) - uint32(b.basePin))
	if value {
		b.mask |= bit
	} else {
		b.mask &^= bit
	}

	// Should be very brief: the FIFO drains one word per PIO cycle
	for b.sm.IsTxFIFOFull() {
	}
	b.sm.TxPut(b.mask)
	return nil
}

func (b *PIOTriggerBackend) GetPin(pin core.GPIOPin) (bool, error) {
	if !b.owns(pin) {
		return false, errors.New("pin outside PIO output block")
	}
	bit := uint32(1) << (uint32(pin) - uint32(b.basePin))
	return b.mask&bit != 0, nil
}

// Stop halts the state machine and releases the pins to low
func (b *PIOTriggerBackend) Stop() {
	b.sm.SetEnabled(false)
	b.sm.ClearFIFOs()
	b.sm.Restart()
	b.mask = 0
	b.sm.SetPinsConsecutive(b.basePin, b.pinCount, false)
}

func (b *PIOTriggerBackend) owns(pin core.GPIOPin) bool {
	return uint32(pin) >= uint32(b.basePin) && uint32(pin) < uint32(b.basePin)+uint32(b.pinCount)
}
