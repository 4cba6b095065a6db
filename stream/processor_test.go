package stream

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RyanBlaney/sonido-vowels/algorithms/speech"
	"github.com/RyanBlaney/sonido-vowels/algorithms/synth"
	"github.com/RyanBlaney/sonido-vowels/logging"
	"github.com/RyanBlaney/sonido-vowels/vowel"
)

const (
	sampleRate = 16000
	blockSize  = 2048
)

// scriptedClassifier returns labels in order, one per call.
type scriptedClassifier struct {
	labels []vowel.Label
	calls  int
}

func (s *scriptedClassifier) Classify([]float64) vowel.Label {
	l := s.labels[s.calls%len(s.labels)]
	s.calls++
	return l
}

type fixedEstimator struct{ set speech.FormantSet }

func (f fixedEstimator) Estimate([]float64, int) speech.FormantSet { return f.set }

type fakeRecorder struct {
	mu         sync.Mutex
	blocks     int
	detections map[vowel.Label]int
	misses     int
	depths     []int
}

func (r *fakeRecorder) ObserveBlock(time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.blocks++
}

func (r *fakeRecorder) ObserveDetection(l vowel.Label) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.detections == nil {
		r.detections = map[vowel.Label]int{}
	}
	r.detections[l]++
}

func (r *fakeRecorder) ObserveMiss() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.misses++
}

func (r *fakeRecorder) SetQueueDepth(d int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.depths = append(r.depths, d)
}

func newProcessor(t *testing.T, est FormantEstimator, cls VowelClassifier, rec Recorder) (*Processor, *BlockQueue, *CurrentVowel) {
	t.Helper()
	q := NewBlockQueue()
	state := NewCurrentVowel()
	p, err := NewProcessor(ProcessorConfig{
		SampleRate: sampleRate,
		Queue:      q,
		State:      state,
		Estimator:  est,
		Classifier: cls,
		Logger:     &logging.NoOpLogger{},
		Recorder:   rec,
	})
	require.NoError(t, err)
	return p, q, state
}

func TestProcessorStickyState(t *testing.T) {
	cls := &scriptedClassifier{labels: []vowel.Label{vowel.A, vowel.None, vowel.None, vowel.E}}
	p, _, state := newProcessor(t, fixedEstimator{speech.FormantSet{1, 2, 3}}, cls, nil)

	assert.Equal(t, vowel.None, state.Load())

	var observed []vowel.Label
	for range 4 {
		p.ProcessBlock(make(Block, blockSize))
		observed = append(observed, state.Load())
	}
	assert.Equal(t, []vowel.Label{vowel.A, vowel.A, vowel.A, vowel.E}, observed)
	assert.Equal(t, uint64(2), state.Updates())
}

func TestProcessorEndToEndPerVowel(t *testing.T) {
	est, err := speech.NewFormantEstimator(speech.FormantEstimatorConfig{})
	require.NoError(t, err)
	p, _, state := newProcessor(t, est, vowel.NewDefaultClassifier(), nil)

	cases := []struct {
		freqs []float64
		want  vowel.Label
	}{
		{[]float64{781.25, 1312.5, 3500}, vowel.A},
		{[]float64{500, 2187.5, 3500}, vowel.E},
		{[]float64{312.5, 2593.75, 3500}, vowel.I},
		{[]float64{593.75, 937.5, 3500}, vowel.O},
		{[]float64{312.5, 843.75, 3500}, vowel.U},
	}
	for _, tc := range cases {
		block := synth.Tones(tc.freqs, sampleRate, blockSize, 0.97)
		label, formants := p.ProcessBlock(block)
		assert.Equal(t, tc.want, label, "%v", tc.freqs)
		assert.Equal(t, speech.FormantSet(tc.freqs), formants)
		assert.Equal(t, tc.want, state.Load())
	}
}

func TestProcessorSilenceKeepsPreviousVowel(t *testing.T) {
	est, err := speech.NewFormantEstimator(speech.FormantEstimatorConfig{})
	require.NoError(t, err)
	p, _, state := newProcessor(t, est, vowel.NewDefaultClassifier(), nil)

	p.ProcessBlock(synth.Tones([]float64{312.5, 2593.75, 3500}, sampleRate, blockSize, 0.97))
	require.Equal(t, vowel.I, state.Load())

	for range 3 {
		label, formants := p.ProcessBlock(make(Block, blockSize))
		assert.Equal(t, vowel.None, label)
		assert.Len(t, formants, 3)
		assert.Equal(t, vowel.I, state.Load())
	}
}

func TestProcessorObserversAndRecorder(t *testing.T) {
	rec := &fakeRecorder{}
	cls := &scriptedClassifier{labels: []vowel.Label{vowel.O, vowel.None, vowel.U}}
	p, _, _ := newProcessor(t, fixedEstimator{speech.FormantSet{500, 1000, 3000}}, cls, rec)

	var got []Detection
	p.OnDetection(func(d Detection) { got = append(got, d) })

	block := Block{0.5, -0.5, 0.5, -0.5}
	for range 3 {
		p.ProcessBlock(block)
	}

	require.Len(t, got, 2)
	assert.Equal(t, vowel.O, got[0].Vowel)
	assert.Equal(t, uint64(1), got[0].Sequence)
	assert.Equal(t, vowel.U, got[1].Vowel)
	assert.Equal(t, uint64(2), got[1].Sequence)
	assert.Equal(t, speech.FormantSet{500, 1000, 3000}, got[1].Formants)
	assert.InDelta(t, 0.5, got[1].Level, 1e-12)
	assert.False(t, got[1].At.IsZero())

	assert.Equal(t, 3, rec.blocks)
	assert.Equal(t, 1, rec.misses)
	assert.Equal(t, map[vowel.Label]int{vowel.O: 1, vowel.U: 1}, rec.detections)
}

func TestProcessorRunDrainsInOrderThenStopsOnClose(t *testing.T) {
	cls := &scriptedClassifier{labels: []vowel.Label{vowel.A, vowel.E, vowel.I}}
	p, q, state := newProcessor(t, fixedEstimator{speech.FormantSet{1, 2}}, cls, nil)

	var seen []vowel.Label
	p.OnDetection(func(d Detection) { seen = append(seen, d.Vowel) })

	for range 3 {
		require.NoError(t, q.Push(make(Block, 8)))
	}
	q.Close()

	done := make(chan error, 1)
	go func() { done <- p.Run(context.Background()) }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after Close")
	}
	assert.Equal(t, []vowel.Label{vowel.A, vowel.E, vowel.I}, seen)
	assert.Equal(t, vowel.I, state.Load())
}

func TestProcessorRunStopsOnCancel(t *testing.T) {
	p, _, _ := newProcessor(t, fixedEstimator{}, &scriptedClassifier{labels: []vowel.Label{vowel.None}}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run still blocked after cancel")
	}
}

func TestProcessorRunSkipsBacklogAfterCancel(t *testing.T) {
	rec := &fakeRecorder{}
	p, q, state := newProcessor(t, fixedEstimator{}, &scriptedClassifier{labels: []vowel.Label{vowel.A}}, rec)

	const queued = 500
	for range queued {
		require.NoError(t, q.Push(make(Block, 8)))
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, p.Run(ctx))

	rec.mu.Lock()
	defer rec.mu.Unlock()
	assert.LessOrEqual(t, rec.blocks, 1)
	assert.GreaterOrEqual(t, q.Len(), queued-1)
	assert.LessOrEqual(t, state.Updates(), uint64(1))
}

func TestProcessorBacklogWarning(t *testing.T) {
	var buf bytes.Buffer
	q := NewBlockQueue()
	rec := &fakeRecorder{}
	p, err := NewProcessor(ProcessorConfig{
		SampleRate:     sampleRate,
		Queue:          q,
		State:          NewCurrentVowel(),
		Estimator:      fixedEstimator{},
		Classifier:     &scriptedClassifier{labels: []vowel.Label{vowel.None}},
		Logger:         logging.NewWriterLogger(&buf, &buf),
		Recorder:       rec,
		QueueWarnDepth: 4,
	})
	require.NoError(t, err)

	for range 6 {
		require.NoError(t, q.Push(make(Block, blockSize)))
	}
	q.Close()
	require.NoError(t, p.Run(context.Background()))

	out := buf.String()
	assert.Contains(t, out, "processing is falling behind capture")
	assert.Contains(t, out, "processing caught up")
	assert.Equal(t, []int{5, 4, 3, 2, 1, 0}, rec.depths)
}

func TestNewProcessorValidation(t *testing.T) {
	q := NewBlockQueue()
	state := NewCurrentVowel()
	est := fixedEstimator{}
	cls := vowel.NewDefaultClassifier()

	bad := []ProcessorConfig{
		{SampleRate: sampleRate, State: state, Estimator: est, Classifier: cls},
		{SampleRate: sampleRate, Queue: q, Estimator: est, Classifier: cls},
		{SampleRate: sampleRate, Queue: q, State: state, Classifier: cls},
		{SampleRate: sampleRate, Queue: q, State: state, Estimator: est},
		{Queue: q, State: state, Estimator: est, Classifier: cls},
	}
	for i, cfg := range bad {
		_, err := NewProcessor(cfg)
		assert.Error(t, err, "case %d", i)
	}
}

func TestCurrentVowel(t *testing.T) {
	c := NewCurrentVowel()
	assert.Equal(t, vowel.None, c.Load())
	assert.True(t, c.UpdatedAt().IsZero())
	assert.Equal(t, uint64(0), c.Updates())

	assert.Equal(t, uint64(1), c.Store(vowel.U))
	assert.Equal(t, vowel.U, c.Load())
	assert.False(t, c.UpdatedAt().IsZero())
}

func TestCurrentVowelConcurrentAccess(t *testing.T) {
	c := NewCurrentVowel()
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := range 1000 {
			c.Store(vowel.Labels[i%len(vowel.Labels)])
		}
	}()
	go func() {
		defer wg.Done()
		for range 1000 {
			assert.True(t, c.Load() == vowel.None || c.Load().Valid())
		}
	}()
	wg.Wait()
	assert.Equal(t, uint64(1000), c.Updates())
}
