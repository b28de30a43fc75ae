package calibrate

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/i2c/i2ctest"

	"github.com/coreman2200/funtimes-sn3218/sn3218"
)

func TestTunables(t *testing.T) {
	tun := NewTunables(10*time.Millisecond, 1.4)
	assert.Equal(t, 10*time.Millisecond, tun.Delay())
	assert.InDelta(t, 1.4, tun.Gamma(), 1e-9)

	tun.SetDelay(-time.Second)
	assert.Equal(t, time.Duration(0), tun.Delay())
	tun.SetGamma(-3)
	assert.InDelta(t, minGamma, tun.Gamma(), 1e-9)
}

func TestReadKey(t *testing.T) {
	br := bufio.NewReader(strings.NewReader("\x1b[A\x1b[B\x1b[C\x1b[Dx\x1b[Z"))
	for _, want := range []key{keyUp, keyDown, keyRight, keyLeft, keyOther, keyOther} {
		got, err := readKey(br)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := readKey(br)
	assert.ErrorIs(t, err, io.EOF)
}

func newSession(t *testing.T, keys string) (*Session, *i2ctest.Record) {
	t.Helper()
	bus := &i2ctest.Record{}
	dev, err := sn3218.New(bus, nil)
	require.NoError(t, err)
	return &Session{
		Dev:    dev,
		Tun:    NewTunables(10*time.Millisecond, sn3218.DefaultGamma),
		Keys:   strings.NewReader(keys),
		Status: &bytes.Buffer{},
		Log:    zerolog.Nop(),
	}, bus
}

func TestSessionAdjustsTunables(t *testing.T) {
	// Two delay bumps, one back, gamma up then down, then quit.
	s, bus := newSession(t, "\x1b[C\x1b[C\x1b[D\x1b[A\x1b[Bq")
	require.NoError(t, s.Run(context.Background()))

	assert.Equal(t, 11*time.Millisecond, s.Tun.Delay())
	assert.InDelta(t, sn3218.DefaultGamma, s.Tun.Gamma(), 1e-9)

	// Quit runs the explicit shutdown pair last.
	n := len(bus.Ops)
	require.GreaterOrEqual(t, n, 2)
	assert.Equal(t, []byte{0x17, 0xFF}, bus.Ops[n-2].W, "reset before shutdown")
	assert.Equal(t, []byte{0x00, 0x00}, bus.Ops[n-1].W, "software shutdown last")
	assert.False(t, s.Dev.Enabled())
}

func TestSessionRegeneratesCurve(t *testing.T) {
	s, _ := newSession(t, "\x1b[Aq")
	require.NoError(t, s.Run(context.Background()))

	want := sn3218.GenerateCurve(s.Tun.Gamma())
	got, err := s.Dev.Gamma().ChannelCurve(0)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestSessionKeepsOverrides(t *testing.T) {
	s, _ := newSession(t, "\x1b[A\x1b[Aq")
	flat := sn3218.Curve{}
	require.NoError(t, s.Dev.Gamma().SetChannelCurve(5, flat))
	require.NoError(t, s.Run(context.Background()))

	got, err := s.Dev.Gamma().ChannelCurve(5)
	require.NoError(t, err)
	assert.Equal(t, flat, got, "tuning the exponent must not clobber overrides")
}

// A cancelled context surfaces as context.Canceled, but the shutdown
// sequence still runs; callers treat that error as a normal exit.
func TestSessionCancelledContext(t *testing.T) {
	s, bus := newSession(t, "\x1b[C\x1b[Cq")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, s.Run(ctx), context.Canceled)

	n := len(bus.Ops)
	require.GreaterOrEqual(t, n, 2)
	assert.Equal(t, []byte{0x17, 0xFF}, bus.Ops[n-2].W)
	assert.Equal(t, []byte{0x00, 0x00}, bus.Ops[n-1].W)
}

func TestSessionQuitsOnEOF(t *testing.T) {
	s, bus := newSession(t, "")
	require.NoError(t, s.Run(context.Background()))
	n := len(bus.Ops)
	require.GreaterOrEqual(t, n, 2)
	assert.Equal(t, []byte{0x00, 0x00}, bus.Ops[n-1].W)
}
