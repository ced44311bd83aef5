//go:build rp2040

package main

import (
	"errors"
	"machine"

	"github.com/Zazins/rusefi/core"
)

// RPGPIODriver implements core.GPIODriver for the RP2040
type RPGPIODriver struct {
	// Track configured pins to prevent conflicts
	configuredPins map[core.GPIOPin]machine.Pin
}

// NewRPGPIODriver creates the RP2040 GPIO driver
func NewRPGPIODriver() *RPGPIODriver {
	return &RPGPIODriver{
		configuredPins: make(map[core.GPIOPin]machine.Pin),
	}
}

func (d *RPGPIODriver) ConfigureOutput(pin core.GPIOPin) error {
	if _, exists := d.configuredPins[pin]; exists {
		// Already configured, this is OK
		return nil
	}

	machinePin, err := d.pinNumberToMachinePin(pin)
	if err != nil {
		return err
	}

	machinePin.Configure(machine.PinConfig{Mode: machine.PinOutput})
	d.configuredPins[pin] = machinePin
	return nil
}

func (d *RPGPIODriver) SetPin(pin core.GPIOPin, value bool) error {
	machinePin, exists := d.configuredPins[pin]
	if !exists {
		return errors.New("pin not configured")
	}
	machinePin.Set(value)
	return nil
}

func (d *RPGPIODriver) GetPin(pin core.GPIOPin) (bool, error) {
	machinePin, exists := d.configuredPins[pin]
	if !exists {
		return false, errors.New("pin not configured")
	}
	return machinePin.Get(), nil
}

// pinNumberToMachinePin maps a GPIO number to the machine pin
func (d *RPGPIODriver) pinNumberToMachinePin(pin core.GPIOPin) (machine.Pin, error) {
	// RP2040 has GPIO 0-29
	if pin > 29 {
		return 0, errors.New("invalid RP2040 pin")
	}
	return machine.Pin(pin), nil
}
