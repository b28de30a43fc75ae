// Command sn3218ctl exercises an SN3218 LED driver: by default it runs
// the scripted test-pattern cycles, with -calibrate it starts the
// interactive gamma tuning session. Without hardware (or with -sim) it
// drives an in-memory chip rendered to the terminal.
package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/term"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/extra/devices/screen"
	"periph.io/x/host/v3"

	"github.com/coreman2200/funtimes-sn3218/internal/calibrate"
	"github.com/coreman2200/funtimes-sn3218/internal/config"
	"github.com/coreman2200/funtimes-sn3218/internal/cycles"
	"github.com/coreman2200/funtimes-sn3218/internal/sim"
	"github.com/coreman2200/funtimes-sn3218/sn3218"
)

func main() {
	var (
		busName   = flag.String("bus", "", "I2C bus name (empty = first available)")
		cfgPath   = flag.String("config", "", "path to config.yaml")
		calibMode = flag.Bool("calibrate", false, "interactive gamma calibration")
		gamma     = flag.Float64("gamma", 0, "gamma exponent (overrides config)")
		delayMs   = flag.Float64("delay-ms", 0, "frame delay in ms (overrides config)")
		simulate  = flag.Bool("sim", false, "use the in-memory chip instead of hardware")
	)
	flag.Parse()

	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	cfg := config.Default()
	if *cfgPath != "" {
		c, err := config.Load(*cfgPath)
		if err != nil {
			log.Warn().Err(err).Str("path", *cfgPath).Msg("config load failed; using defaults")
		} else {
			cfg = c
		}
	}
	if *busName != "" {
		cfg.Bus = *busName
	}
	if *gamma > 0 {
		cfg.Gamma = *gamma
	}
	if *delayMs > 0 {
		cfg.DelayMs = *delayMs
	}

	bus, closeBus := openBus(*simulate, cfg.Bus)
	if closeBus != nil {
		defer closeBus()
	}

	dev, err := sn3218.New(bus, &sn3218.Opts{Gamma: cfg.Gamma})
	if err != nil {
		log.Fatal().Err(err).Msg("driver construction failed")
	}
	if err := dev.Setup(); err != nil {
		log.Fatal().Err(err).Msg("chip setup failed")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *calibMode {
		runCalibration(ctx, dev, cfg)
		return
	}

	log.Info().Str("dev", dev.String()).Msg("running test cycles")
	if err := cycles.New(dev, log.Logger).Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal().Err(err).Msg("test cycles failed")
	}
}

// openBus opens the platform I2C bus, or the simulator when asked for
// (or when no bus is present, so the tool still runs on a dev machine).
func openBus(simulate bool, name string) (i2c.Bus, func() error) {
	if !simulate {
		if _, err := host.Init(); err != nil {
			log.Fatal().Err(err).Msg("host init failed")
		}
		if b, err := i2creg.Open(name); err == nil {
			log.Info().Str("bus", b.String()).Msg("opened I2C bus")
			return b, b.Close
		} else {
			log.Warn().Err(err).Msg("no I2C bus; falling back to the simulator")
		}
	}
	return sim.NewBus(screen.New(sn3218.NumChannels)), nil
}

func runCalibration(ctx context.Context, dev *sn3218.Dev, cfg *config.Config) {
	fd := int(os.Stdin.Fd())
	old, err := term.MakeRaw(fd)
	if err != nil {
		log.Fatal().Err(err).Msg("raw mode failed; calibration needs a terminal")
	}
	defer term.Restore(fd, old)

	s := &calibrate.Session{
		Dev:    dev,
		Tun:    calibrate.NewTunables(cfg.Delay(), cfg.Gamma),
		Keys:   os.Stdin,
		Status: os.Stdout,
		Log:    log.Logger,
	}
	if err := s.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		term.Restore(fd, old)
		log.Fatal().Err(err).Msg("calibration failed")
	}
	log.Info().Float64("gamma", s.Tun.Gamma()).Dur("delay", s.Tun.Delay()).Msg("calibration finished")
}
