// Package app wires capture, processing and display into one running
// detector.
package app

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/RyanBlaney/sonido-vowels/algorithms/speech"
	"github.com/RyanBlaney/sonido-vowels/capture"
	"github.com/RyanBlaney/sonido-vowels/config"
	"github.com/RyanBlaney/sonido-vowels/display"
	"github.com/RyanBlaney/sonido-vowels/logging"
	"github.com/RyanBlaney/sonido-vowels/metrics"
	"github.com/RyanBlaney/sonido-vowels/stream"
	"github.com/RyanBlaney/sonido-vowels/vowel"
)

// Options override collaborators built from the configuration. Zero values
// select the configured defaults.
type Options struct {
	Source  capture.Source
	Display display.Display
	Logger  logging.Logger
}

// App owns one detector pipeline: a capture source feeding the block queue,
// the stream processor draining it and a display reading the current vowel.
type App struct {
	cfg       *config.Config
	logger    logging.Logger
	queue     *stream.BlockQueue
	state     *stream.CurrentVowel
	tracker   *display.DetectionTracker
	processor *stream.Processor
	source    capture.Source
	display   display.Display
	metrics   *metrics.Metrics
	server    *metrics.Server
}

// New builds the pipeline described by cfg.
func New(cfg *config.Config, opts Options) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("app: invalid config: %w", err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = logging.WithFields(logging.Fields{"component": "app"})
	}

	table, err := cfg.VowelTable()
	if err != nil {
		return nil, fmt.Errorf("app: vowel table: %w", err)
	}

	estimator, err := speech.NewFormantEstimator(speech.FormantEstimatorConfig{
		WindowSize:  cfg.Analysis.WindowSize,
		HopSize:     cfg.Analysis.HopSize,
		NumFormants: cfg.Analysis.NumFormants,
		PreEmphasis: cfg.Analysis.PreEmphasis,
		NoCenter:    !cfg.Analysis.Center,
	})
	if err != nil {
		return nil, fmt.Errorf("app: formant estimator: %w", err)
	}

	a := &App{
		cfg:     cfg,
		logger:  logger,
		queue:   stream.NewBlockQueue(),
		state:   stream.NewCurrentVowel(),
		tracker: &display.DetectionTracker{},
	}

	var recorder stream.Recorder
	if cfg.Metrics.Enabled {
		a.metrics = metrics.NewMetrics()
		a.server = metrics.NewServer(cfg.Metrics.Address, a.metrics)
		recorder = a.metrics
	}

	a.processor, err = stream.NewProcessor(stream.ProcessorConfig{
		SampleRate:     cfg.Audio.SampleRate,
		Queue:          a.queue,
		State:          a.state,
		Estimator:      estimator,
		Classifier:     vowel.NewClassifier(table),
		Recorder:       recorder,
		QueueWarnDepth: cfg.Queue.WarnDepth,
	})
	if err != nil {
		return nil, fmt.Errorf("app: processor: %w", err)
	}
	a.processor.OnDetection(a.tracker.Observe)

	a.source = opts.Source
	if a.source == nil {
		if a.source, err = a.newSource(table); err != nil {
			return nil, err
		}
	}

	a.display = opts.Display
	if a.display == nil {
		if a.display, err = a.newDisplay(); err != nil {
			return nil, err
		}
	}

	return a, nil
}

func (a *App) newSource(table vowel.Table) (capture.Source, error) {
	base := capture.Options{
		SampleRate: a.cfg.Audio.SampleRate,
		BlockSize:  a.cfg.Audio.BlockSize,
	}

	switch a.cfg.Source.Kind {
	case config.SourceFile:
		return capture.NewFile(capture.FileOptions{
			Options:  base,
			Path:     a.cfg.Source.Path,
			Realtime: a.cfg.Source.Realtime,
			Loop:     a.cfg.Source.Loop,

			MaxDuration:   a.cfg.Source.MaxDuration,
			NormalizePeak: a.cfg.Source.Normalize,
		})
	case config.SourceSynthetic:
		return capture.NewSynthetic(capture.SyntheticOptions{
			Options:    base,
			Table:      table,
			WindowSize: a.cfg.Analysis.WindowSize,
			// Hold each vowel for about one second.
			HoldBlocks: max(1, a.cfg.Audio.SampleRate/a.cfg.Audio.BlockSize),
			Realtime:   a.cfg.Source.Realtime,
			Cycles:     a.cfg.Source.Cycles,
		})
	default:
		mic, err := capture.NewMicrophone(base)
		if err != nil {
			return nil, err
		}
		if a.metrics != nil {
			mic.OnOverflow(a.metrics.CaptureOverflows.Inc)
		}
		return mic, nil
	}
}

func (a *App) newDisplay() (display.Display, error) {
	var frames display.FrameObserver
	if a.metrics != nil {
		frames = a.metrics
	}

	if a.cfg.Display.Mode == config.DisplayHeadless {
		return display.NewHeadless(display.HeadlessOptions{
			State:    a.state,
			Interval: a.cfg.FrameInterval(),
			Frames:   frames,
		})
	}
	return display.NewTerminal(display.TerminalOptions{
		State:    a.state,
		Tracker:  a.tracker,
		Interval: a.cfg.FrameInterval(),
		Frames:   frames,
	})
}

// State returns the shared current vowel.
func (a *App) State() *stream.CurrentVowel { return a.state }

// Processor returns the stream processor, for registering observers.
func (a *App) Processor() *stream.Processor { return a.processor }

// Run starts every component and blocks until shutdown. Shutdown happens
// when ctx is cancelled, the user quits the display or, in headless mode,
// once a finite source has been fully processed. The first component error
// is returned.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)

	a.logger.Info("starting vowel detector", logging.Fields{
		"source":      a.source.Name(),
		"sample_rate": a.cfg.Audio.SampleRate,
		"block_size":  a.cfg.Audio.BlockSize,
		"display":     a.cfg.Display.Mode,
		"metrics":     a.cfg.Metrics.Enabled,
	})

	g.Go(func() error {
		defer a.queue.Close()
		if err := a.source.Run(gctx, a.queue); err != nil {
			return fmt.Errorf("source %s: %w", a.source.Name(), err)
		}
		a.logger.Debug("source finished", logging.Fields{"source": a.source.Name()})
		return nil
	})

	g.Go(func() error {
		err := a.processor.Run(gctx)
		if a.cfg.Display.Mode == config.DisplayHeadless {
			cancel()
		}
		return err
	})

	g.Go(func() error {
		defer cancel()
		return a.display.Run(gctx)
	})

	if a.server != nil {
		g.Go(func() error {
			return a.server.Run(gctx)
		})
	}

	err := g.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		a.logger.Error(err, "vowel detector stopped with error")
		return err
	}

	a.logger.Info("vowel detector stopped", logging.Fields{
		"last_vowel": a.state.Load().String(),
		"updates":    a.state.Updates(),
	})
	return nil
}
