package transcode

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/RyanBlaney/sonido-vowels/algorithms/common"
	"github.com/RyanBlaney/sonido-vowels/logging"
)

// wavFormatPCM is the WAVE_FORMAT_PCM format tag.
const wavFormatPCM = 1

// ErrInvalidWAV is returned when the input is not a readable PCM WAV stream.
var ErrInvalidWAV = errors.New("transcode: not a valid PCM wav stream")

// AudioData represents decoded audio data
type AudioData struct {
	PCM        []float64     // mono samples in [-1, 1]
	SampleRate int           // sample rate of PCM
	Channels   int           // always 1 after decoding
	Duration   time.Duration // duration of PCM
	Timestamp  time.Time     // when decoding finished
	Metadata   *FileMetadata // properties of the source file
}

// FileMetadata describes the file as stored on disk
type FileMetadata struct {
	Path       string
	Format     string
	SampleRate int
	Channels   int
	BitDepth   int
}

// DecoderConfig holds decoder configuration
type DecoderConfig struct {
	TargetSampleRate int           // resample to this rate; 0 keeps the source rate
	MaxDuration      time.Duration // truncate after this much audio; 0 means no limit
	NormalizePeak    float64       // scale to this peak amplitude; 0 disables
}

// DefaultDecoderConfig returns default decoder configuration
func DefaultDecoderConfig() *DecoderConfig {
	return &DecoderConfig{
		TargetSampleRate: 16000,
	}
}

// Decoder reads PCM WAV files into mono float samples
type Decoder struct {
	config *DecoderConfig
	logger logging.Logger
}

// NewDecoder creates a new audio decoder
func NewDecoder(config *DecoderConfig) *Decoder {
	if config == nil {
		config = DefaultDecoderConfig()
	}
	return &Decoder{
		config: config,
		logger: logging.WithFields(logging.Fields{"component": "wav_decoder"}),
	}
}

// DecodeFile decodes the WAV file at filename.
func (d *Decoder) DecodeFile(filename string) (*AudioData, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("transcode: open %q: %w", filename, err)
	}
	defer f.Close()

	data, err := d.DecodeReader(f)
	if err != nil {
		return nil, fmt.Errorf("transcode: decode %q: %w", filename, err)
	}
	data.Metadata.Path = filename
	return data, nil
}

// DecodeReader decodes a WAV stream. Multi-channel audio is mixed down to
// mono and resampled to the configured target rate.
func (d *Decoder) DecodeReader(r io.ReadSeeker) (*AudioData, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, ErrInvalidWAV
	}
	if dec.WavAudioFormat != wavFormatPCM {
		return nil, fmt.Errorf("%w: unsupported format tag %d", ErrInvalidWAV, dec.WavAudioFormat)
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("transcode: read pcm: %w", err)
	}

	meta := &FileMetadata{
		Format:     "wav",
		SampleRate: int(dec.SampleRate),
		Channels:   int(dec.NumChans),
		BitDepth:   int(dec.BitDepth),
	}
	if meta.SampleRate <= 0 || meta.Channels <= 0 {
		return nil, fmt.Errorf("%w: sample rate %d, channels %d", ErrInvalidWAV, meta.SampleRate, meta.Channels)
	}

	pcm := Downmix(IntBufferToFloat(buf, meta.BitDepth), meta.Channels)

	if maxDur := d.config.MaxDuration; maxDur > 0 {
		limit := int(maxDur.Seconds() * float64(meta.SampleRate))
		if limit < len(pcm) {
			pcm = pcm[:limit]
		}
	}

	rate := meta.SampleRate
	if target := d.config.TargetSampleRate; target > 0 && target != rate {
		pcm = common.Resample(pcm, rate, target)
		rate = target
	}

	if d.config.NormalizePeak > 0 {
		pcm = common.PeakNormalize(pcm, d.config.NormalizePeak)
	}

	d.logger.Debug("decoded wav", logging.Fields{
		"source_rate": meta.SampleRate,
		"channels":    meta.Channels,
		"bit_depth":   meta.BitDepth,
		"samples":     len(pcm),
		"rate":        rate,
	})

	return &AudioData{
		PCM:        pcm,
		SampleRate: rate,
		Channels:   1,
		Duration:   time.Duration(len(pcm)) * time.Second / time.Duration(rate),
		Timestamp:  time.Now(),
		Metadata:   meta,
	}, nil
}

// IntBufferToFloat converts interleaved integer PCM to floats in [-1, 1].
// 8-bit WAV samples are unsigned and are re-centred around zero.
func IntBufferToFloat(buf *audio.IntBuffer, bitDepth int) []float64 {
	if buf == nil || len(buf.Data) == 0 {
		return []float64{}
	}
	if bitDepth <= 0 {
		bitDepth = buf.SourceBitDepth
	}
	if bitDepth <= 0 {
		bitDepth = 16
	}

	out := make([]float64, len(buf.Data))
	scale := float64(int64(1) << (bitDepth - 1))
	offset := 0.0
	if bitDepth == 8 {
		offset = 128
	}
	for i, s := range buf.Data {
		out[i] = common.Clamp((float64(s)-offset)/scale, -1, 1)
	}
	return out
}

// Downmix averages interleaved frames of the given channel count into mono.
// A trailing incomplete frame is dropped.
func Downmix(interleaved []float64, channels int) []float64 {
	if channels <= 1 {
		out := make([]float64, len(interleaved))
		copy(out, interleaved)
		return out
	}

	frames := len(interleaved) / channels
	mono := make([]float64, frames)
	for i := range mono {
		sum := 0.0
		for c := range channels {
			sum += interleaved[i*channels+c]
		}
		mono[i] = sum / float64(channels)
	}
	return mono
}

// EncodeFile writes mono samples in [-1, 1] to filename as 16-bit PCM WAV.
func EncodeFile(filename string, samples []float64, sampleRate int) error {
	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("transcode: create %q: %w", filename, err)
	}
	defer f.Close()

	const bitDepth = 16
	data := make([]int, len(samples))
	for i, s := range samples {
		data[i] = int(common.Clamp(s, -1, 1) * 32767)
	}

	enc := wav.NewEncoder(f, sampleRate, bitDepth, 1, wavFormatPCM)
	if err := enc.Write(&audio.IntBuffer{
		Data: data,
		Format: &audio.Format{
			NumChannels: 1,
			SampleRate:  sampleRate,
		},
		SourceBitDepth: bitDepth,
	}); err != nil {
		return fmt.Errorf("transcode: write %q: %w", filename, err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("transcode: finalize %q: %w", filename, err)
	}
	return nil
}
