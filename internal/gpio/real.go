//go:build linux

package gpio

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/warthog618/go-gpiocdev"
)

// RealIO drives actual hardware: digital lines through the Linux GPIO
// character device and the analog motion channel through the IIO sysfs ADC.
type RealIO struct {
	chip    *gpiocdev.Chip
	button  *gpiocdev.Line
	relay   *gpiocdev.Line
	led     *gpiocdev.Line
	adcPath string
}

// NewRealIO requests the pushbutton as an input with pull-down and the
// relay/LED as outputs, both initially de-asserted. adcPath is the IIO
// raw-voltage file for the motion sensor.
func NewRealIO(pinButton, pinRelay, pinLED int, adcPath string) (*RealIO, error) {
	chip, err := gpiocdev.NewChip("gpiochip0")
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	button, err := chip.RequestLine(pinButton, gpiocdev.AsInput, gpiocdev.WithPullDown)
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request button pin %d: %w", pinButton, err)
	}

	relay, err := chip.RequestLine(pinRelay, gpiocdev.AsOutput(0))
	if err != nil {
		button.Close()
		chip.Close()
		return nil, fmt.Errorf("request relay pin %d: %w", pinRelay, err)
	}

	led, err := chip.RequestLine(pinLED, gpiocdev.AsOutput(0))
	if err != nil {
		relay.Close()
		button.Close()
		chip.Close()
		return nil, fmt.Errorf("request LED pin %d: %w", pinLED, err)
	}

	return &RealIO{
		chip:    chip,
		button:  button,
		relay:   relay,
		led:     led,
		adcPath: adcPath,
	}, nil
}

// Read returns the current motion and pushbutton samples.
func (r *RealIO) Read() (Sample, error) {
	raw, err := r.readADC()
	if err != nil {
		return Sample{}, fmt.Errorf("read motion adc: %w", err)
	}

	btn, err := r.button.Value()
	if err != nil {
		return Sample{}, fmt.Errorf("read button pin: %w", err)
	}

	return Sample{Motion: raw, Button: btn != 0}, nil
}

// readADC reads the IIO raw-voltage file. The sensor front end keeps
// readings in the low byte; anything above is clamped.
func (r *RealIO) readADC() (uint8, error) {
	data, err := os.ReadFile(r.adcPath)
	if err != nil {
		return 0, err
	}
	v, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("parse %q: %w", strings.TrimSpace(string(data)), err)
	}
	if v < 0 {
		v = 0
	}
	if v > 255 {
		v = 255
	}
	return uint8(v), nil
}

// SetRelay drives the fan relay line.
func (r *RealIO) SetRelay(on bool) error {
	if err := r.relay.SetValue(level(on)); err != nil {
		return fmt.Errorf("write relay pin: %w", err)
	}
	return nil
}

// SetLED drives the status LED line.
func (r *RealIO) SetLED(on bool) error {
	if err := r.led.SetValue(level(on)); err != nil {
		return fmt.Errorf("write LED pin: %w", err)
	}
	return nil
}

// Close de-asserts both outputs, reconfigures all lines to input with
// pull-down (matching Pi boot defaults), and releases them. The relay must
// not be left energized across a daemon restart.
func (r *RealIO) Close() error {
	var errs []error

	if r.relay != nil {
		if err := r.relay.SetValue(0); err != nil {
			errs = append(errs, fmt.Errorf("clear relay pin: %w", err))
		}
	}
	if r.led != nil {
		if err := r.led.SetValue(0); err != nil {
			errs = append(errs, fmt.Errorf("clear LED pin: %w", err))
		}
	}

	for _, l := range []*gpiocdev.Line{r.button, r.relay, r.led} {
		if l == nil {
			continue
		}
		if err := l.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure line: %w", err))
		}
		if err := l.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close line: %w", err))
		}
	}
	if r.chip != nil {
		if err := r.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}

func level(on bool) int {
	if on {
		return 1
	}
	return 0
}
