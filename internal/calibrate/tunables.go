package calibrate

import (
	"math"
	"sync/atomic"
	"time"
)

// minGamma keeps the exponent strictly positive; at 0 the power curve
// degenerates to full-on for every input.
const minGamma = 0.1

// Tunables are the two knobs shared between the calibration tasks: the
// inter-frame delay and the gamma exponent. The key loop is the sole
// writer; the fade loop reads them every frame, so both live in atomic
// cells rather than behind a lock.
type Tunables struct {
	delayNs   atomic.Int64
	gammaBits atomic.Uint64
}

// NewTunables returns a cell seeded with the given delay and exponent.
func NewTunables(delay time.Duration, gamma float64) *Tunables {
	t := &Tunables{}
	t.SetDelay(delay)
	t.SetGamma(gamma)
	return t
}

// Delay returns the current inter-frame delay.
func (t *Tunables) Delay() time.Duration {
	return time.Duration(t.delayNs.Load())
}

// SetDelay stores a new delay, clamped at zero.
func (t *Tunables) SetDelay(d time.Duration) {
	if d < 0 {
		d = 0
	}
	t.delayNs.Store(int64(d))
}

// Gamma returns the current exponent.
func (t *Tunables) Gamma() float64 {
	return math.Float64frombits(t.gammaBits.Load())
}

// SetGamma stores a new exponent, clamped at a small positive floor.
func (t *Tunables) SetGamma(g float64) {
	if g < minGamma {
		g = minGamma
	}
	t.gammaBits.Store(math.Float64bits(g))
}
