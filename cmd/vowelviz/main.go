// Command vowelviz listens to a microphone (or replays a WAV file) and shows
// which vowel is being spoken as a mouth drawing in the terminal.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/RyanBlaney/sonido-vowels/app"
	"github.com/RyanBlaney/sonido-vowels/capture"
	"github.com/RyanBlaney/sonido-vowels/config"
	"github.com/RyanBlaney/sonido-vowels/logging"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "path to a YAML configuration file (defaults are used when empty)")
	source := flag.String("source", "", "audio source: microphone, file or synthetic")
	file := flag.String("file", "", "WAV file to replay (implies -source file)")
	headless := flag.Bool("headless", false, "log vowel changes instead of drawing in the terminal")
	logLevel := flag.String("log-level", "", "log level: debug, info, warn, error")
	metricsAddr := flag.String("metrics-addr", "", "serve Prometheus metrics on this address")
	listDevices := flag.Bool("list-devices", false, "list audio input devices and exit")
	flag.Parse()

	if *listDevices {
		out, err := capture.ListDevices()
		if err != nil {
			fmt.Fprintf(os.Stderr, "vowelviz: %v\n", err)
			return 1
		}
		fmt.Print(out)
		return 0
	}

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				fmt.Fprintf(os.Stderr, "vowelviz: config file %q not found\n", *configPath)
			} else {
				fmt.Fprintf(os.Stderr, "vowelviz: %v\n", err)
			}
			return 1
		}
	}

	// Flags override the file.
	if *source != "" {
		cfg.Source.Kind = *source
	}
	if *file != "" {
		cfg.Source.Kind = config.SourceFile
		cfg.Source.Path = *file
	}
	if *headless {
		cfg.Display.Mode = config.DisplayHeadless
	}
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}
	if *metricsAddr != "" {
		cfg.Metrics.Enabled = true
		cfg.Metrics.Address = *metricsAddr
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "vowelviz: invalid configuration:\n%v\n", err)
		return 1
	}

	closer, err := setupLogging(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "vowelviz: %v\n", err)
		return 1
	}
	defer closer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(cfg, app.Options{})
	if err != nil {
		logging.Error(err, "failed to build vowel detector")
		fmt.Fprintf(os.Stderr, "vowelviz: %v\n", err)
		return 1
	}

	if err := a.Run(ctx); err != nil {
		// The terminal has been restored by now, so this reaches the user
		// even when logs went to a file or nowhere.
		fmt.Fprintf(os.Stderr, "vowelviz: %v\n", err)
		return 1
	}
	return 0
}

// setupLogging installs the global logger. The terminal display owns the
// screen, so without a log file it runs with logging disabled.
func setupLogging(cfg *config.Config) (io.Closer, error) {
	level, err := logging.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return nil, err
	}

	switch {
	case cfg.Logging.File != "":
		logger, closer := logging.NewFileLogger(logging.FileOptions{
			Path:       cfg.Logging.File,
			MaxSizeMB:  cfg.Logging.MaxSizeMB,
			MaxBackups: cfg.Logging.MaxBackups,
		})
		logger.SetLevel(level)
		logging.SetGlobalLogger(logger)
		return closer, nil

	case cfg.Display.Mode == config.DisplayTerminal:
		logging.SetGlobalLogger(&logging.NoOpLogger{})

	default:
		logger := logging.NewDefaultLogger()
		if !cfg.Logging.Colors {
			logger.SetColors(false)
		}
		logger.SetLevel(level)
		logging.SetGlobalLogger(logger)
	}
	return nopCloser{}, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
