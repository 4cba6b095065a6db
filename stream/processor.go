package stream

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/RyanBlaney/sonido-vowels/algorithms/common"
	"github.com/RyanBlaney/sonido-vowels/algorithms/speech"
	"github.com/RyanBlaney/sonido-vowels/logging"
	"github.com/RyanBlaney/sonido-vowels/vowel"
)

// FormantEstimator turns one block into a formant set.
type FormantEstimator interface {
	Estimate(block []float64, sampleRate int) speech.FormantSet
}

// VowelClassifier maps a formant set onto a vowel.
type VowelClassifier interface {
	Classify(formants []float64) vowel.Label
}

// Recorder receives pipeline measurements.
type Recorder interface {
	ObserveBlock(elapsed time.Duration)
	ObserveDetection(label vowel.Label)
	ObserveMiss()
	SetQueueDepth(depth int)
}

// Detection describes one successful classification.
type Detection struct {
	Sequence uint64
	Vowel    vowel.Label
	Formants speech.FormantSet
	Level    float64 // block RMS
	At       time.Time
}

// ProcessorConfig wires a Processor. Queue, State, Estimator and Classifier
// are required.
type ProcessorConfig struct {
	SampleRate int
	Queue      *BlockQueue
	State      *CurrentVowel
	Estimator  FormantEstimator
	Classifier VowelClassifier

	Logger   logging.Logger
	Recorder Recorder

	// QueueWarnDepth logs a warning when the backlog reaches this many
	// blocks. Zero disables the warning.
	QueueWarnDepth int
}

// Processor drains the block queue, estimates formants, classifies them and
// publishes successful results to the shared state.
type Processor struct {
	sampleRate int
	queue      *BlockQueue
	state      *CurrentVowel
	estimator  FormantEstimator
	classifier VowelClassifier
	logger     logging.Logger
	recorder   Recorder
	warnDepth  int

	mu        sync.Mutex
	observers []func(Detection)
	lagging   bool
}

// NewProcessor creates a processor.
func NewProcessor(cfg ProcessorConfig) (*Processor, error) {
	switch {
	case cfg.Queue == nil:
		return nil, errors.New("processor: queue is required")
	case cfg.State == nil:
		return nil, errors.New("processor: state is required")
	case cfg.Estimator == nil:
		return nil, errors.New("processor: estimator is required")
	case cfg.Classifier == nil:
		return nil, errors.New("processor: classifier is required")
	case cfg.SampleRate <= 0:
		return nil, fmt.Errorf("processor: sample rate must be positive, got %d", cfg.SampleRate)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logging.WithFields(logging.Fields{"component": "stream_processor"})
	}
	recorder := cfg.Recorder
	if recorder == nil {
		recorder = nopRecorder{}
	}

	return &Processor{
		sampleRate: cfg.SampleRate,
		queue:      cfg.Queue,
		state:      cfg.State,
		estimator:  cfg.Estimator,
		classifier: cfg.Classifier,
		logger:     logger,
		recorder:   recorder,
		warnDepth:  cfg.QueueWarnDepth,
	}, nil
}

// OnDetection registers fn to be called, on the processing goroutine, after
// every successful classification.
func (p *Processor) OnDetection(fn func(Detection)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.observers = append(p.observers, fn)
}

// Run processes blocks until the queue is closed and drained or ctx is
// cancelled. Both are normal shutdowns and return nil. Cancellation stops
// at the next block boundary, leaving any backlog unprocessed.
func (p *Processor) Run(ctx context.Context) error {
	p.logger.Debug("processor started", logging.Fields{"sample_rate": p.sampleRate})
	defer p.logger.Debug("processor stopped")

	for {
		block, err := p.queue.Pop(ctx)
		if err != nil {
			if errors.Is(err, ErrQueueClosed) || ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("processor: pop: %w", err)
		}
		// Pop hands out queued blocks even after cancellation; a backlog
		// must not delay shutdown.
		if ctx.Err() != nil {
			return nil
		}

		p.checkBacklog(p.queue.Len(), len(block))
		p.ProcessBlock(block)
	}
}

// ProcessBlock runs one block through estimation and classification. On a
// match the shared state is updated and observers are notified; on a miss
// the state keeps its previous value.
func (p *Processor) ProcessBlock(block Block) (vowel.Label, speech.FormantSet) {
	start := time.Now()
	formants := p.estimator.Estimate(block, p.sampleRate)
	label := p.classifier.Classify(formants)
	p.recorder.ObserveBlock(time.Since(start))

	if label == vowel.None {
		p.recorder.ObserveMiss()
		p.logger.Debug("no vowel matched", logging.Fields{"formants": formants})
		return label, formants
	}

	seq := p.state.Store(label)
	p.recorder.ObserveDetection(label)

	d := Detection{
		Sequence: seq,
		Vowel:    label,
		Formants: formants,
		Level:    common.RMS(block),
		At:       start,
	}
	p.logger.Info("detected vowel", logging.Fields{
		"vowel":    label.String(),
		"formants": formants,
	})

	p.mu.Lock()
	observers := p.observers
	p.mu.Unlock()
	for _, fn := range observers {
		fn(d)
	}

	return label, formants
}

func (p *Processor) checkBacklog(depth, blockLen int) {
	p.recorder.SetQueueDepth(depth)
	if p.warnDepth <= 0 {
		return
	}

	switch {
	case depth >= p.warnDepth && !p.lagging:
		p.lagging = true
		p.logger.Warn("processing is falling behind capture", logging.Fields{
			"queued_blocks": depth,
			"lag":           time.Duration(depth*blockLen) * time.Second / time.Duration(p.sampleRate),
		})
	case depth < p.warnDepth/2 && p.lagging:
		p.lagging = false
		p.logger.Info("processing caught up", logging.Fields{"queued_blocks": depth})
	}
}

type nopRecorder struct{}

func (nopRecorder) ObserveBlock(time.Duration)   {}
func (nopRecorder) ObserveDetection(vowel.Label) {}
func (nopRecorder) ObserveMiss()                 {}
func (nopRecorder) SetQueueDepth(int)            {}
