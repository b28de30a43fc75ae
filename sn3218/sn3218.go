// Package sn3218 controls the SI-EN SN3218, an 18-channel 8-bit PWM LED
// driver on I2C, found on the Pimoroni PiGlow among other boards.
//
// The chip stages register writes internally and only moves them to the
// physical outputs when it sees the update command, so every
// value-changing operation on Dev writes the registers and the latch as
// one atomic pair. Brightness values pass through a per-channel gamma
// table before they reach the wire; OutputRaw bypasses it.
package sn3218

import (
	"fmt"
	"sync"

	"periph.io/x/conn/v3/i2c"
)

// Opts holds construction options.
type Opts struct {
	// Addr is the 7-bit device address. Zero selects DefaultAddr, which
	// is the only address the bare chip can have.
	Addr uint16
	// Gamma is the exponent for the initial shared correction curve.
	// Zero selects DefaultGamma.
	Gamma float64
}

// DefaultOpts is the recommended configuration.
var DefaultOpts = Opts{Addr: DefaultAddr, Gamma: DefaultGamma}

// Dev is a handle to an SN3218.
//
// A fresh Dev performs no bus I/O and assumes the chip is in software
// shutdown, its power-on state. The chip retains whatever was last
// programmed across a host restart, so call Setup for a known state.
type Dev struct {
	gamma *GammaTable

	mu      sync.Mutex
	c       i2c.Dev
	enabled bool
}

// New returns a Dev that speaks to the chip over bus. Passing a nil opts
// uses DefaultOpts.
func New(bus i2c.Bus, opts *Opts) (*Dev, error) {
	if opts == nil {
		opts = &DefaultOpts
	}
	addr := opts.Addr
	if addr == 0 {
		addr = DefaultAddr
	}
	gamma := opts.Gamma
	if gamma == 0 {
		gamma = DefaultGamma
	}
	if gamma < 0 {
		return nil, fmt.Errorf("sn3218: negative gamma exponent %g", gamma)
	}
	return &Dev{
		c:     i2c.Dev{Bus: bus, Addr: addr},
		gamma: NewGammaTable(gamma),
	}, nil
}

func (d *Dev) String() string {
	return fmt.Sprintf("SN3218{%s}", &d.c)
}

// Gamma returns the correction table Output consults. Mutating it takes
// effect on the next Output call.
func (d *Dev) Gamma() *GammaTable {
	return d.gamma
}

// Enable takes the chip out of software shutdown so the outputs drive
// their latched values.
func (d *Dev) Enable() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.write(cmdEnableOutput, 0x01); err != nil {
		return err
	}
	d.enabled = true
	return nil
}

// Disable puts the chip in software shutdown: outputs off, registers
// retained. The datasheet suggests it for flashing the LEDs and for
// power saving.
func (d *Dev) Disable() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.write(cmdEnableOutput, 0x00); err != nil {
		return err
	}
	d.enabled = false
	return nil
}

// Enabled reports the last output-enable state this Dev wrote. Reset
// does not change it: the shutdown bit and the registers are independent
// on the chip.
func (d *Dev) Enabled() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.enabled
}

// Reset returns every register to its power-on default.
func (d *Dev) Reset() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.write(cmdReset, 0xFF)
}

// Setup brings the chip to a known state: registers reset, output
// enabled, all 18 channels unmasked.
func (d *Dev) Setup() error {
	if err := d.Reset(); err != nil {
		return err
	}
	if err := d.Enable(); err != nil {
		return err
	}
	return d.EnableLEDs(AllChannels)
}

// EnableLEDs gates individual channels on or off. Mask bits at position
// 18 and above are ignored. The new gating takes effect immediately
// because the write is latched.
func (d *Dev) EnableLEDs(mask ChannelMask) error {
	g := encodeMask(mask)
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.writeLatched(cmdEnableLEDs, g[:])
}

// Output sets all 18 channels from linear brightness levels, mapping
// each through the gamma table, and latches the result.
func (d *Dev) Output(levels []uint8) error {
	if len(levels) != NumChannels {
		return fmt.Errorf("%w, got %d", ErrFrameLength, len(levels))
	}
	var frame [NumChannels]uint8
	d.gamma.apply(frame[:], levels)
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.writeLatched(cmdSetPWM, frame[:])
}

// OutputRaw sets all 18 channels to literal PWM duty values, bypassing
// the gamma table, and latches the result. The chip wants channels in
// natural 1..18 order and that is exactly how levels goes on the wire.
func (d *Dev) OutputRaw(levels []uint8) error {
	if len(levels) != NumChannels {
		return fmt.Errorf("%w, got %d", ErrFrameLength, len(levels))
	}
	var frame [NumChannels]uint8
	copy(frame[:], levels)
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.writeLatched(cmdSetPWM, frame[:])
}

// Halt implements conn.Resource. It blanks the outputs and enters
// software shutdown.
func (d *Dev) Halt() error {
	if err := d.OutputRaw(make([]uint8, NumChannels)); err != nil {
		return err
	}
	return d.Disable()
}

// write sends one command register write. Callers hold d.mu.
func (d *Dev) write(cmd byte, payload ...byte) error {
	if _, err := d.c.Write(append([]byte{cmd}, payload...)); err != nil {
		return fmt.Errorf("sn3218: write reg %#02x: %w", cmd, err)
	}
	return nil
}

// writeLatched stages payload at cmd and issues the update command that
// commits it to the outputs. Omitting the latch would leave the old
// values driving the pins. Callers hold d.mu, so nothing interleaves
// between the two writes.
func (d *Dev) writeLatched(cmd byte, payload []byte) error {
	if err := d.write(cmd, payload...); err != nil {
		return err
	}
	return d.write(cmdUpdate, 0xFF)
}
