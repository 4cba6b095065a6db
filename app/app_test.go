package app

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RyanBlaney/sonido-vowels/algorithms/synth"
	"github.com/RyanBlaney/sonido-vowels/capture"
	"github.com/RyanBlaney/sonido-vowels/config"
	"github.com/RyanBlaney/sonido-vowels/logging"
	"github.com/RyanBlaney/sonido-vowels/stream"
	"github.com/RyanBlaney/sonido-vowels/transcode"
	"github.com/RyanBlaney/sonido-vowels/vowel"
)

func init() {
	logging.SetGlobalLogger(&logging.NoOpLogger{})
}

func headlessConfig() *config.Config {
	cfg := config.Default()
	cfg.Display.Mode = config.DisplayHeadless
	cfg.Display.FrameRate = 200
	cfg.Source.Realtime = false
	return cfg
}

func writeVowelFile(t *testing.T, cfg *config.Config) string {
	t.Helper()
	n := cfg.Audio.BlockSize
	sr := cfg.Audio.SampleRate

	// a, silence, i, silence
	var pcm []float64
	pcm = append(pcm, synth.Tones([]float64{781.25, 1312.5, 3500}, sr, n, 0.97)...)
	pcm = append(pcm, make([]float64, n)...)
	pcm = append(pcm, synth.Tones([]float64{312.5, 2593.75, 3500}, sr, n, 0.97)...)
	pcm = append(pcm, make([]float64, n)...)

	path := filepath.Join(t.TempDir(), "vowels.wav")
	require.NoError(t, transcode.EncodeFile(path, pcm, sr))
	return path
}

func TestRunHeadlessFileStopsWhenDrained(t *testing.T) {
	cfg := headlessConfig()
	cfg.Source.Kind = config.SourceFile
	cfg.Source.Path = writeVowelFile(t, cfg)

	a, err := New(cfg, Options{})
	require.NoError(t, err)

	var mu sync.Mutex
	var seen []vowel.Label
	a.Processor().OnDetection(func(d stream.Detection) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, d.Vowel)
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, a.Run(ctx))
	require.NoError(t, ctx.Err(), "run should end on its own before the deadline")

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []vowel.Label{vowel.A, vowel.I}, seen)
	assert.Equal(t, vowel.I, a.State().Load())
	assert.Equal(t, uint64(2), a.State().Updates())
}

func TestRunHeadlessSyntheticUntilCancelled(t *testing.T) {
	cfg := headlessConfig()
	cfg.Source.Kind = config.SourceSynthetic
	cfg.Source.Realtime = true
	cfg.Audio.BlockSize = 512

	a, err := New(cfg, Options{})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	require.NoError(t, a.Run(ctx))
	assert.Equal(t, vowel.A, a.State().Load())
}

func TestRunHeadlessSyntheticCyclesEndRun(t *testing.T) {
	cfg := headlessConfig()
	cfg.Source.Kind = config.SourceSynthetic
	cfg.Source.Cycles = 1

	a, err := New(cfg, Options{})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, a.Run(ctx))
	require.NoError(t, ctx.Err(), "a bounded synthetic run should end on its own")

	assert.Equal(t, vowel.U, a.State().Load())
	// every block of every vowel matched
	assert.Equal(t, uint64(len(vowel.Labels)*(cfg.Audio.SampleRate/cfg.Audio.BlockSize)), a.State().Updates())
}

type failingSource struct{}

func (failingSource) Run(context.Context, capture.Sink) error { return errors.New("device unplugged") }
func (failingSource) Name() string                           { return "failing" }

func TestRunReturnsSourceError(t *testing.T) {
	a, err := New(headlessConfig(), Options{Source: failingSource{}})
	require.NoError(t, err)

	err = a.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "source failing")
	assert.Contains(t, err.Error(), "device unplugged")
}

type quittingDisplay struct{}

func (quittingDisplay) Run(context.Context) error { return nil }

type blockingSource struct{}

func (blockingSource) Run(ctx context.Context, _ capture.Sink) error {
	<-ctx.Done()
	return nil
}
func (blockingSource) Name() string { return "blocking" }

func TestRunStopsWhenDisplayQuits(t *testing.T) {
	cfg := config.Default()
	a, err := New(cfg, Options{Source: blockingSource{}, Display: quittingDisplay{}})
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- a.Run(context.Background()) }()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("app kept running after the display quit")
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Audio.SampleRate = -1
	_, err := New(cfg, Options{})
	assert.Error(t, err)
}

func TestNewWithMetrics(t *testing.T) {
	cfg := headlessConfig()
	cfg.Source.Kind = config.SourceSynthetic
	cfg.Metrics.Enabled = true
	cfg.Metrics.Address = "127.0.0.1:0"

	a, err := New(cfg, Options{})
	require.NoError(t, err)
	require.NotNil(t, a.metrics)
	require.NotNil(t, a.server)
}
