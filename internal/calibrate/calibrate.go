// Package calibrate implements the interactive gamma tuning session: a
// fade loop bounces the whole panel between dark and full brightness
// while arrow keys adjust the frame delay and the gamma exponent, so
// the curve can be judged by eye in real time.
package calibrate

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/coreman2200/funtimes-sn3218/sn3218"
)

const (
	delayStep = time.Millisecond
	gammaStep = 0.1
)

// Session ties the two calibration tasks together. Keys must deliver a
// raw-mode terminal byte stream; putting the terminal into raw mode is
// the caller's job, which keeps the session testable without a TTY.
type Session struct {
	Dev    *sn3218.Dev
	Tun    *Tunables
	Keys   io.Reader
	Status io.Writer
	Log    zerolog.Logger
}

// Run fades until a non-arrow key (or EOF) arrives on Keys, then stops
// the fade loop and runs the explicit shutdown sequence: reset followed
// by software shutdown. The fade loop has no independent life; quitting
// the key loop always terminates it.
func (s *Session) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.fade(ctx)
	}()

	err := s.keys(ctx)
	cancel()
	wg.Wait()

	if rerr := s.Dev.Reset(); err == nil {
		err = rerr
	}
	if derr := s.Dev.Disable(); err == nil {
		err = derr
	}
	return err
}

// fade sweeps 0→255→0 continuously, with a disable/enable blip at the
// top of each sweep to mark the turnaround. It reads the tunables every
// frame and stops on cancellation or the first transport error.
func (s *Session) fade(ctx context.Context) {
	if err := s.Dev.Enable(); err != nil {
		s.Log.Err(err).Msg("fade: enable failed")
		return
	}
	if err := s.Dev.EnableLEDs(sn3218.AllChannels); err != nil {
		s.Log.Err(err).Msg("fade: channel enable failed")
		return
	}
	frame := make([]uint8, sn3218.NumChannels)
	level, dir := 0, 1
	for {
		for i := range frame {
			frame[i] = uint8(level)
		}
		if err := s.Dev.Output(frame); err != nil {
			s.Log.Err(err).Msg("fade: output failed")
			return
		}
		if !s.pause(ctx, s.Tun.Delay()) {
			return
		}
		switch {
		case level == 255 && dir > 0:
			if err := s.Dev.Disable(); err != nil {
				s.Log.Err(err).Msg("fade: blip failed")
				return
			}
			if !s.pause(ctx, s.Tun.Delay()) {
				return
			}
			if err := s.Dev.Enable(); err != nil {
				s.Log.Err(err).Msg("fade: blip failed")
				return
			}
			dir = -1
		case level == 0 && dir < 0:
			dir = 1
		}
		level += dir
	}
}

// keys is the sole writer of the tunables. It returns nil when the user
// quits (any non-arrow key, or EOF on the key stream).
func (s *Session) keys(ctx context.Context) error {
	br := bufio.NewReader(s.Keys)
	for {
		s.printStatus()
		k, err := readKey(br)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("calibrate: key read: %w", err)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		switch k {
		case keyRight:
			s.Tun.SetDelay(s.Tun.Delay() + delayStep)
		case keyLeft:
			s.Tun.SetDelay(s.Tun.Delay() - delayStep)
		case keyUp:
			s.Tun.SetGamma(s.Tun.Gamma() + gammaStep)
			s.Dev.Gamma().Regenerate(s.Tun.Gamma())
		case keyDown:
			s.Tun.SetGamma(s.Tun.Gamma() - gammaStep)
			s.Dev.Gamma().Regenerate(s.Tun.Gamma())
		default:
			return nil
		}
	}
}

// printStatus repaints the two status lines. The terminal is in raw
// mode, so lines end with \r\n.
func (s *Session) printStatus() {
	fmt.Fprintf(s.Status, "\r\nDELAY: %.3fs  GAMMA: %.2f\r\narrow keys adjust, any other key quits\r\n",
		s.Tun.Delay().Seconds(), s.Tun.Gamma())
}

// pause sleeps for d unless the session is cancelled first. A zero or
// negative delay only checks for cancellation.
func (s *Session) pause(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
