package core

// GPIOPin identifies a hardware GPIO pin number
type GPIOPin uint32

// PinNone marks an unbound pin in configuration
const PinNone GPIOPin = 0xffffffff

// IsValid reports whether the pin refers to actual hardware
func (p GPIOPin) IsValid() bool {
	return p != PinNone
}

// GPIODriver is the abstract GPIO interface that core code uses.
// Platform-specific implementations handle actual hardware control.
type GPIODriver interface {
	// ConfigureOutput configures a pin as a digital output.
	// Returns error if pin is invalid or already in use.
	ConfigureOutput(pin GPIOPin) error

	// SetPin sets the pin to high (true) or low (false)
	SetPin(pin GPIOPin, value bool) error

	// GetPin reads the current pin state
	GetPin(pin GPIOPin) (bool, error)
}

// Global singleton used by core code.
var gpioDriver GPIODriver

// SetGPIODriver is called by target-specific code to register its driver.
func SetGPIODriver(d GPIODriver) {
	gpioDriver = d
}

// HasGPIODriver reports whether a driver has been registered
func HasGPIODriver() bool {
	return gpioDriver != nil
}

// MustGPIO returns the configured driver or panics if missing.
func MustGPIO() GPIODriver {
	if gpioDriver == nil {
		panic("GPIO driver not configured")
	}
	return gpioDriver
}
