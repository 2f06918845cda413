// Package gpio provides hardware access with abstraction for testing.
// The real implementation uses the Linux GPIO character device for the
// digital lines and the IIO sysfs ADC for the analog motion channel.
// The fake implementation allows testing without hardware.
package gpio

// Default pin assignments (BCM numbering) and ADC path.
const (
	DefaultPinButton = 17 // manual-activate pushbutton
	DefaultPinRelay  = 27 // fan relay
	DefaultPinLED    = 22 // status LED

	// DefaultADCPath is channel 0 of the first IIO ADC device; the
	// motion sensor's analog output is attached there.
	DefaultADCPath = "/sys/bus/iio/devices/iio:device0/in_voltage0_raw"
)

// Sample is one tick's worth of raw inputs.
type Sample struct {
	// Motion is the 8-bit analog motion-sensor reading.
	Motion uint8
	// Button is true while the pushbutton is pressed.
	Button bool
}

// Reader reads the sensor inputs.
type Reader interface {
	// Read returns the current motion and pushbutton samples.
	Read() (Sample, error)

	// Close releases input resources.
	Close() error
}

// Writer drives the relay and status LED. Writes are fire-and-forget from
// the control core's perspective; errors are logged, never acted on.
type Writer interface {
	SetRelay(on bool) error
	SetLED(on bool) error

	// Close de-asserts both outputs and releases resources.
	Close() error
}
