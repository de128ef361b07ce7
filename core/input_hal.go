package core

import "errors"

var ErrDisplayBusy = errors.New("display refresh in progress")

// InputDriver samples the badge buttons. Platform code owns the pins and
// their pull configuration; core only sees logical button states.
type InputDriver interface {
	// Configure sets up the button pins as inputs
	Configure() error

	// Sample returns the buttons currently held down
	Sample() ButtonSet
}

// BatterySensor reads the raw ADC values behind the battery gauge
type BatterySensor interface {
	// ReadBattery returns the VBAT and 1.24V reference readings, both scaled
	// to 16 bits
	ReadBattery() (vbat, vref uint16, err error)
}

// Display shows the status page. Slow panels return ErrDisplayBusy while a
// refresh is still running; the panel retries on its next pass.
type Display interface {
	Show(st Status) error
}

// Global singletons used by core code.
var (
	inputDriver   InputDriver
	batterySensor BatterySensor
	display       Display
)

// SetInputDriver is called by target-specific code to register its driver.
func SetInputDriver(d InputDriver) {
	inputDriver = d
}

// MustInput returns the configured driver or panics if missing.
func MustInput() InputDriver {
	if inputDriver == nil {
		panic("input driver not configured")
	}
	return inputDriver
}

// SetBatterySensor registers the battery sensor; it is optional.
func SetBatterySensor(s BatterySensor) {
	batterySensor = s
}

// GetBatterySensor returns the registered sensor, or nil.
func GetBatterySensor() BatterySensor {
	return batterySensor
}

// SetDisplay registers the status display; it is optional.
func SetDisplay(d Display) {
	display = d
}

// GetDisplay returns the registered display, or nil.
func GetDisplay() Display {
	return display
}
