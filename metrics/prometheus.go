package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/RyanBlaney/sonido-vowels/vowel"
)

// Metrics contains all Prometheus metrics for the vowel detector
type Metrics struct {
	registry *prometheus.Registry

	// Processing metrics
	BlocksProcessed    prometheus.Counter
	BlockProcessTime   prometheus.Histogram
	Detections         *prometheus.CounterVec
	Misses             prometheus.Counter
	QueueDepth         prometheus.Gauge
	CurrentVowel       *prometheus.GaugeVec
	CaptureOverflows   prometheus.Counter
	DisplayFramesDrawn prometheus.Counter
}

// NewMetrics creates all metrics on a private registry, alongside the Go
// runtime and process collectors.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	m := &Metrics{
		registry: reg,

		BlocksProcessed: factory.NewCounter(prometheus.CounterOpts{
			Name: "vowel_blocks_processed_total",
			Help: "Total number of audio blocks analyzed",
		}),
		BlockProcessTime: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "vowel_block_processing_duration_seconds",
			Help:    "Time spent estimating formants and classifying one block",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 12), // 100us to ~200ms
		}),
		Detections: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "vowel_detections_total",
			Help: "Total number of blocks classified as a vowel",
		}, []string{"vowel"}),
		Misses: factory.NewCounter(prometheus.CounterOpts{
			Name: "vowel_misses_total",
			Help: "Total number of blocks that matched no vowel",
		}),
		QueueDepth: factory.NewGauge(prometheus.GaugeOpts{
			Name: "vowel_block_queue_depth",
			Help: "Blocks waiting in the capture queue",
		}),
		CurrentVowel: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "vowel_current",
			Help: "1 for the vowel currently displayed, 0 for the others",
		}, []string{"vowel"}),
		CaptureOverflows: factory.NewCounter(prometheus.CounterOpts{
			Name: "vowel_capture_overflows_total",
			Help: "Input overflows reported by the audio device",
		}),
		DisplayFramesDrawn: factory.NewCounter(prometheus.CounterOpts{
			Name: "vowel_display_frames_total",
			Help: "Total number of display refreshes",
		}),
	}

	// Pre-create every label so absent vowels export zero instead of nothing.
	for _, l := range vowel.Labels {
		m.Detections.WithLabelValues(l.String())
		m.CurrentVowel.WithLabelValues(l.String())
	}

	return m
}

// Registry returns the registry the metrics are registered on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveBlock records one processed block.
func (m *Metrics) ObserveBlock(elapsed time.Duration) {
	m.BlocksProcessed.Inc()
	m.BlockProcessTime.Observe(elapsed.Seconds())
}

// ObserveDetection records a successful classification and marks label as
// the current vowel.
func (m *Metrics) ObserveDetection(label vowel.Label) {
	m.Detections.WithLabelValues(label.String()).Inc()
	for _, l := range vowel.Labels {
		v := 0.0
		if l == label {
			v = 1
		}
		m.CurrentVowel.WithLabelValues(l.String()).Set(v)
	}
}

// ObserveMiss records a block that matched no vowel.
func (m *Metrics) ObserveMiss() {
	m.Misses.Inc()
}

// SetQueueDepth records the queue backlog.
func (m *Metrics) SetQueueDepth(depth int) {
	m.QueueDepth.Set(float64(depth))
}

// ObserveFrame records one display refresh.
func (m *Metrics) ObserveFrame() {
	m.DisplayFramesDrawn.Inc()
}
