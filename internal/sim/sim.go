// Package sim provides an in-memory SN3218 for development and tests.
//
// Bus implements i2c.Bus and decodes the chip's command set, keeping
// separate staged and latched register state the way the silicon does.
// The driver runs against it byte-for-byte as it would against
// hardware, and an optional display.Drawer shows the latched, gated
// channel levels, so the CLI stays usable on a machine without the chip
// attached.
package sim

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"sync"

	"periph.io/x/conn/v3/display"
	"periph.io/x/conn/v3/physic"

	"github.com/coreman2200/funtimes-sn3218/sn3218"
)

// Register map mirrored from the driver package; sim decodes raw bus
// bytes so it cannot share the driver's unexported constants.
const (
	regEnableOutput = 0x00
	regPWMFirst     = 0x01
	regPWMLast      = 0x12
	regCtlFirst     = 0x13
	regCtlLast      = 0x15
	regUpdate       = 0x16
	regReset        = 0x17
)

// Bus is a virtual SN3218 on an otherwise empty I2C bus.
type Bus struct {
	drawer display.Drawer // optional

	mu        sync.Mutex
	pwm       [sn3218.NumChannels]uint8
	ctl       [3]uint8
	outPWM    [sn3218.NumChannels]uint8
	outCtl    [3]uint8
	run       bool
	renderErr error
}

// NewBus returns a Bus holding the chip's power-on state. drawer may be
// nil; if set, every visible state change is drawn to it.
func NewBus(drawer display.Drawer) *Bus {
	return &Bus{drawer: drawer}
}

func (b *Bus) String() string {
	return "sn3218sim"
}

// SetSpeed implements i2c.Bus; the simulated wire has no clock.
func (b *Bus) SetSpeed(f physic.Frequency) error {
	return nil
}

// Tx implements i2c.Bus. Reads are rejected: the SN3218 has no readable
// registers.
func (b *Bus) Tx(addr uint16, w, r []byte) error {
	if len(r) != 0 {
		return errors.New("sim: sn3218 has no readable registers")
	}
	if addr != sn3218.DefaultAddr {
		return fmt.Errorf("sim: no device at %#02x", addr)
	}
	if len(w) == 0 {
		return errors.New("sim: empty write")
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	// The chip auto-increments the register address across the payload.
	for i, v := range w[1:] {
		b.setReg(int(w[0])+i, v)
	}
	err := b.renderErr
	b.renderErr = nil
	return err
}

func (b *Bus) setReg(reg int, v uint8) {
	switch {
	case reg == regEnableOutput:
		b.run = v&1 == 1
		b.render()
	case reg >= regPWMFirst && reg <= regPWMLast:
		b.pwm[reg-regPWMFirst] = v
	case reg >= regCtlFirst && reg <= regCtlLast:
		b.ctl[reg-regCtlFirst] = v & 0x3F
	case reg == regUpdate:
		b.outPWM = b.pwm
		b.outCtl = b.ctl
		b.render()
	case reg == regReset:
		b.pwm = [sn3218.NumChannels]uint8{}
		b.ctl = [3]uint8{}
		b.outPWM = b.pwm
		b.outCtl = b.ctl
		b.render()
	}
	// Writes outside the register map fall off the end, as on the chip.
}

// Channels returns what the output pins drive: the latched PWM values,
// gated by the latched channel-control bits and the shutdown state.
func (b *Bus) Channels() [sn3218.NumChannels]uint8 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.channelsLocked()
}

func (b *Bus) channelsLocked() [sn3218.NumChannels]uint8 {
	var out [sn3218.NumChannels]uint8
	if !b.run {
		return out
	}
	for i := range out {
		if b.outCtl[i/6]&(1<<(i%6)) != 0 {
			out[i] = b.outPWM[i]
		}
	}
	return out
}

func (b *Bus) render() {
	if b.drawer == nil {
		return
	}
	img := image.NewNRGBA(image.Rect(0, 0, sn3218.NumChannels, 1))
	for i, v := range b.channelsLocked() {
		img.SetNRGBA(i, 0, color.NRGBA{R: v, G: v, B: v, A: 0xFF})
	}
	if err := b.drawer.Draw(b.drawer.Bounds(), img, image.Point{}); err != nil {
		b.renderErr = fmt.Errorf("sim: render: %w", err)
	}
}
