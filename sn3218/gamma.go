package sn3218

import (
	"errors"
	"fmt"
	"math"
	"sync"
)

// DefaultGamma is the exponent of the correction curve a new Dev starts
// with. 1.4 keeps the low end usable on the small LEDs this chip
// usually drives.
const DefaultGamma = 1.4

// Curve remaps a linear 8-bit brightness to a PWM duty value.
type Curve [256]uint8

// GenerateCurve builds a power-law gamma curve:
//
//	curve[i] = round(255 * (i/255)^exponent)
//
// An exponent above 1 compresses low brightness toward perceptual
// linearity; below 1 expands it; 1 is the identity.
func GenerateCurve(exponent float64) Curve {
	var c Curve
	for i := range c {
		c[i] = uint8(math.Round(255 * math.Pow(float64(i)/255, exponent)))
	}
	return c
}

// CurveFromSlice copies a 256-entry slice into a Curve. It is the
// validation point for curves arriving as slices from config files or
// remote callers.
func CurveFromSlice(values []uint8) (Curve, error) {
	var c Curve
	if len(values) != len(c) {
		return c, fmt.Errorf("%w, got %d", ErrCurveLength, len(values))
	}
	copy(c[:], values)
	return c, nil
}

var (
	// ErrBadChannel reports a channel index outside [0, NumChannels).
	ErrBadChannel = errors.New("sn3218: channel out of range")
	// ErrCurveLength reports a gamma curve without exactly 256 entries.
	ErrCurveLength = errors.New("sn3218: gamma curve must have 256 entries")
	// ErrFrameLength reports a brightness frame without exactly 18 values.
	ErrFrameLength = errors.New("sn3218: frame must have 18 values")
)

// GammaTable holds the correction curve for each channel. All channels
// start out sharing one generated curve; SetChannelCurve decouples a
// channel from the shared curve until the next ResetShared.
//
// A GammaTable never touches the bus, and lookups never mutate it.
// It is safe for concurrent use, so a calibration loop may regenerate
// curves while another goroutine streams frames through Correct.
type GammaTable struct {
	mu         sync.RWMutex
	shared     Curve
	overrides  [NumChannels]Curve
	overridden [NumChannels]bool
}

// NewGammaTable returns a table with every channel on a shared curve
// generated from exponent.
func NewGammaTable(exponent float64) *GammaTable {
	return &GammaTable{shared: GenerateCurve(exponent)}
}

// SetChannelCurve overrides the curve for one channel, leaving the other
// 17 untouched. The channel no longer follows the shared curve.
func (g *GammaTable) SetChannelCurve(channel int, curve Curve) error {
	if channel < 0 || channel >= NumChannels {
		return fmt.Errorf("%w: %d", ErrBadChannel, channel)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.overrides[channel] = curve
	g.overridden[channel] = true
	return nil
}

// Correct looks up the PWM duty for a raw brightness on one channel.
func (g *GammaTable) Correct(channel int, raw uint8) (uint8, error) {
	if channel < 0 || channel >= NumChannels {
		return 0, fmt.Errorf("%w: %d", ErrBadChannel, channel)
	}
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.overridden[channel] {
		return g.overrides[channel][raw], nil
	}
	return g.shared[raw], nil
}

// ChannelCurve returns a copy of the curve currently effective for a
// channel.
func (g *GammaTable) ChannelCurve(channel int) (Curve, error) {
	if channel < 0 || channel >= NumChannels {
		return Curve{}, fmt.Errorf("%w: %d", ErrBadChannel, channel)
	}
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.overridden[channel] {
		return g.overrides[channel], nil
	}
	return g.shared, nil
}

// ResetShared regenerates the shared curve from exponent and puts every
// channel back on it, discarding per-channel overrides.
func (g *GammaTable) ResetShared(exponent float64) {
	c := GenerateCurve(exponent)
	g.mu.Lock()
	defer g.mu.Unlock()
	g.shared = c
	g.overridden = [NumChannels]bool{}
}

// Regenerate replaces the shared curve from exponent. Channels with an
// override keep it; only channels still tracking the shared curve see
// the new exponent.
func (g *GammaTable) Regenerate(exponent float64) {
	c := GenerateCurve(exponent)
	g.mu.Lock()
	defer g.mu.Unlock()
	g.shared = c
}

// apply maps a frame through the table. dst and levels must both hold
// NumChannels values.
func (g *GammaTable) apply(dst, levels []uint8) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	for i, v := range levels {
		if g.overridden[i] {
			dst[i] = g.overrides[i][v]
		} else {
			dst[i] = g.shared[v]
		}
	}
}
