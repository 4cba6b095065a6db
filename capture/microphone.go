package capture

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/gordonklaus/portaudio"
	"github.com/pkg/errors"

	"github.com/RyanBlaney/sonido-vowels/logging"
	"github.com/RyanBlaney/sonido-vowels/stream"
)

// Microphone captures mono float32 audio from the default input device.
type Microphone struct {
	opts   Options
	logger logging.Logger

	overflows  atomic.Uint64
	dropped    atomic.Uint64
	onOverflow func()
}

// NewMicrophone creates a microphone source. The device is not opened until
// Run.
func NewMicrophone(opts Options) (*Microphone, error) {
	if opts.SampleRate <= 0 || opts.BlockSize <= 0 {
		return nil, fmt.Errorf("capture: invalid microphone options %+v", opts)
	}
	return &Microphone{
		opts:   opts,
		logger: logging.WithFields(logging.Fields{"component": "microphone"}),
	}, nil
}

// Name implements Source.
func (m *Microphone) Name() string { return "microphone" }

// Run opens the default input stream and pushes one block per device
// callback until ctx is cancelled. The device is released on every return
// path.
func (m *Microphone) Run(ctx context.Context, sink Sink) (err error) {
	if err = portaudio.Initialize(); err != nil {
		return errors.Wrap(err, "capture: initializing portaudio failed")
	}
	defer func() { wrapDeferred(&err, portaudio.Terminate(), "capture: terminating portaudio failed") }()

	callback := func(in []float32, _ portaudio.StreamCallbackTimeInfo, flags portaudio.StreamCallbackFlags) {
		if flags&portaudio.InputOverflow != 0 {
			m.overflows.Add(1)
			if m.onOverflow != nil {
				m.onOverflow()
			}
		}
		block := make(stream.Block, len(in))
		for i, s := range in {
			block[i] = float64(s)
		}
		if sink.Push(block) != nil {
			m.dropped.Add(1)
		}
	}

	s, err := portaudio.OpenDefaultStream(1, 0, float64(m.opts.SampleRate), m.opts.BlockSize, callback)
	if err != nil {
		return errors.Wrap(err, "capture: opening default input stream failed")
	}
	defer func() { wrapDeferred(&err, s.Close(), "capture: closing input stream failed") }()

	if err = s.Start(); err != nil {
		return errors.Wrap(err, "capture: starting input stream failed")
	}
	info := s.Info()
	m.logger.Info("microphone started", logging.Fields{
		"sample_rate":   info.SampleRate,
		"block_size":    m.opts.BlockSize,
		"input_latency": info.InputLatency.String(),
	})

	<-ctx.Done()

	if err = s.Stop(); err != nil {
		return errors.Wrap(err, "capture: stopping input stream failed")
	}
	m.logger.Info("microphone stopped", logging.Fields{
		"overflows": m.overflows.Load(),
		"dropped":   m.dropped.Load(),
	})
	return nil
}

// OnOverflow registers fn to be called from the audio callback whenever the
// device reports an input overflow. It must be set before Run.
func (m *Microphone) OnOverflow(fn func()) { m.onOverflow = fn }

// ListDevices describes the available host APIs and input devices.
func ListDevices() (s string, err error) {
	if err = portaudio.Initialize(); err != nil {
		return "", errors.Wrap(err, "capture: initializing portaudio failed")
	}
	defer func() { wrapDeferred(&err, portaudio.Terminate(), "capture: terminating portaudio failed") }()

	apis, err := portaudio.HostApis()
	if err != nil {
		return "", errors.Wrap(err, "capture: getting portaudio host apis failed")
	}

	var b strings.Builder
	for idxAPI, a := range apis {
		fmt.Fprintf(&b, "Host API #%d: %s\n", idxAPI, a.Name)
		if a.DefaultInputDevice != nil {
			fmt.Fprintf(&b, "  default input: %s\n", a.DefaultInputDevice.Name)
		}
		for idxDevice, d := range a.Devices {
			if d.MaxInputChannels == 0 {
				continue
			}
			fmt.Fprintf(&b, "  device #%d: %s (%d ch, %.0f Hz)\n", idxDevice, d.Name, d.MaxInputChannels, d.DefaultSampleRate)
		}
	}
	return b.String(), nil
}

// wrapDeferred records a cleanup failure in *err unless an earlier error is
// already being returned.
func wrapDeferred(err *error, cause error, msg string) {
	if cause != nil && *err == nil {
		*err = errors.Wrap(cause, msg)
	}
}
