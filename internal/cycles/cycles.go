// Package cycles runs the scripted hardware check patterns: enable-mask
// toggling, a rolling gradient, a sine fade and linear fades across a
// set of gamma exponents. It exists to eyeball a freshly wired board
// and to exercise every driver operation end to end.
package cycles

import (
	"context"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/coreman2200/funtimes-sn3218/sn3218"
)

const (
	maskDelay  = 150 * time.Millisecond
	frameDelay = 10 * time.Millisecond
	blipDelay  = 100 * time.Millisecond
)

// fadeExponents are the gamma values the linear fade sweeps through; the
// last one is deliberately extreme to make the curve's effect obvious.
var fadeExponents = []float64{1.0, 1.2, sn3218.DefaultGamma, 1.6, 6.8}

// Runner drives one pass of the check patterns.
type Runner struct {
	dev   *sn3218.Dev
	log   zerolog.Logger
	sleep func(time.Duration)
}

// New returns a Runner for dev. Tests may replace the sleep function
// afterwards to run the sequence instantly.
func New(dev *sn3218.Dev, log zerolog.Logger) *Runner {
	return &Runner{dev: dev, log: log, sleep: time.Sleep}
}

// SetSleep replaces the delay function used between frames.
func (r *Runner) SetSleep(f func(time.Duration)) {
	r.sleep = f
}

// Run executes all patterns in order and leaves the chip dark and
// disabled. It returns early on context cancellation or the first
// transport error.
func (r *Runner) Run(ctx context.Context) error {
	if err := r.dev.Enable(); err != nil {
		return err
	}
	if err := r.dev.EnableLEDs(sn3218.AllChannels); err != nil {
		return err
	}
	steps := []struct {
		name string
		fn   func(context.Context) error
	}{
		{"enable mask on/off", r.maskBlink},
		{"enable mask odd/even", r.maskOddEven},
		{"enable mask rotate", r.maskRotate},
		{"gamma gradient", r.gradient},
		{"sine fade", r.sineFade},
		{"linear fade", r.linearFade},
	}
	for _, s := range steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		r.log.Info().Str("pattern", s.name).Msg("running")
		if err := s.fn(ctx); err != nil {
			return err
		}
	}
	if err := r.dev.Output(make([]uint8, sn3218.NumChannels)); err != nil {
		return err
	}
	return r.dev.Disable()
}

func (r *Runner) pause(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.sleep(d)
	return nil
}

func fullFrame(level uint8) []uint8 {
	f := make([]uint8, sn3218.NumChannels)
	for i := range f {
		f[i] = level
	}
	return f
}

func (r *Runner) maskBlink(ctx context.Context) error {
	return r.maskToggle(ctx, 0)
}

func (r *Runner) maskOddEven(ctx context.Context) error {
	return r.maskToggle(ctx, 0b101010_101010_101010)
}

// maskToggle sets a dim baseline frame and inverts the mask ten times.
func (r *Runner) maskToggle(ctx context.Context, mask sn3218.ChannelMask) error {
	if err := r.dev.Output(fullFrame(0x10)); err != nil {
		return err
	}
	for i := 0; i < 10; i++ {
		mask ^= sn3218.AllChannels
		if err := r.dev.EnableLEDs(mask); err != nil {
			return err
		}
		if err := r.pause(ctx, maskDelay); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) maskRotate(ctx context.Context) error {
	if err := r.dev.Output(fullFrame(0x10)); err != nil {
		return err
	}
	mask := sn3218.ChannelMask(0b100000_100000_100000)
	for i := 0; i < 10; i++ {
		mask = (mask&1)<<(sn3218.NumChannels-1) | mask>>1
		if err := r.dev.EnableLEDs(mask); err != nil {
			return err
		}
		if err := r.pause(ctx, maskDelay); err != nil {
			return err
		}
	}
	return nil
}

// gradient rolls a brightness staircase across the channels so every
// channel visits the whole curve.
func (r *Runner) gradient(ctx context.Context) error {
	if err := r.dev.EnableLEDs(sn3218.AllChannels); err != nil {
		return err
	}
	const step = 256 / sn3218.NumChannels
	frame := make([]uint8, sn3218.NumChannels)
	for i := 0; i < 256; i++ {
		for j := range frame {
			frame[j] = uint8((j*step + i*step) % 256)
		}
		if err := r.dev.Output(frame); err != nil {
			return err
		}
		if err := r.pause(ctx, frameDelay); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) sineFade(ctx context.Context) error {
	if err := r.dev.EnableLEDs(sn3218.AllChannels); err != nil {
		return err
	}
	for i := 0; i < 512; i++ {
		v := (math.Sin(float64(i)/64) + 1) * 128
		if v > 255 {
			v = 255
		}
		if err := r.dev.Output(fullFrame(uint8(v))); err != nil {
			return err
		}
		if err := r.pause(ctx, frameDelay); err != nil {
			return err
		}
	}
	return nil
}

// linearFade sweeps brightness up and down once per exponent, with a
// short blip between directions so the turnaround is visible.
func (r *Runner) linearFade(ctx context.Context) error {
	for _, exp := range fadeExponents {
		r.log.Info().Float64("gamma", exp).Msg("linear fade")
		r.dev.Gamma().ResetShared(exp)
		for i := 0; i < 256; i++ {
			if err := r.dev.Output(fullFrame(uint8(i))); err != nil {
				return err
			}
			if err := r.pause(ctx, frameDelay); err != nil {
				return err
			}
		}
		if err := r.dev.Disable(); err != nil {
			return err
		}
		if err := r.pause(ctx, blipDelay); err != nil {
			return err
		}
		if err := r.dev.Enable(); err != nil {
			return err
		}
		for i := 255; i > 0; i-- {
			if err := r.dev.Output(fullFrame(uint8(i))); err != nil {
				return err
			}
			if err := r.pause(ctx, frameDelay); err != nil {
				return err
			}
		}
	}
	return nil
}
