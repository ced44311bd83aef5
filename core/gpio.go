// GPIO output pin wrapper used by signal generators.
package core

// OutputPin is a configured digital output with cached state. Writes go
// through the GPIO HAL; repeated writes of the same level are skipped so
// the tick path does not touch hardware registers it does not have to.
type OutputPin struct {
	name         string
	pin          GPIOPin
	valid        bool
	currentState bool
}

// InitPin configures the pin as a digital output, driven low.
// Initializing with PinNone leaves the OutputPin invalid, which makes
// every later SetValue a no-op.
func (p *OutputPin) InitPin(name string, pin GPIOPin) error {
	p.name = name
	p.pin = pin
	p.valid = false
	p.currentState = false

	if !pin.IsValid() || !HasGPIODriver() {
		// Unbound, or a host build without hardware: leave the pin
		// invalid so SetValue stays a no-op.
		return nil
	}

	if err := MustGPIO().ConfigureOutput(pin); err != nil {
		return err
	}
	if err := MustGPIO().SetPin(pin, false); err != nil {
		return err
	}
	p.valid = true
	return nil
}

// Valid reports whether the pin is bound to hardware
func (p *OutputPin) Valid() bool {
	return p.valid
}

// Name returns the name the pin was initialized with
func (p *OutputPin) Name() string {
	return p.name
}

// SetValue drives the pin high or low. Invalid pins are skipped.
func (p *OutputPin) SetValue(high bool) {
	if !p.valid || p.currentState == high {
		return
	}
	p.currentState = high
	// Error intentionally dropped: runs in tick context, and a failed
	// write leaves the cached state ahead of hardware for one transition.
	_ = MustGPIO().SetPin(p.pin, high)
}

// GetState returns the last level written to the pin
func (p *OutputPin) GetState() bool {
	return p.currentState
}

// DeInit releases the pin. The pin is driven low first so a stopped
// emulator does not leave a stuck-high trigger line.
func (p *OutputPin) DeInit() {
	if p.valid {
		_ = MustGPIO().SetPin(p.pin, false)
	}
	p.valid = false
	p.currentState = false
}
