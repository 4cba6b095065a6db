// Package config loads and validates the vowel detector configuration.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/RyanBlaney/sonido-vowels/algorithms/speech"
	"github.com/RyanBlaney/sonido-vowels/logging"
	"github.com/RyanBlaney/sonido-vowels/vowel"
)

// Source kinds.
const (
	SourceMicrophone = "microphone"
	SourceFile       = "file"
	SourceSynthetic  = "synthetic"
)

// Display modes.
const (
	DisplayTerminal = "terminal"
	DisplayHeadless = "headless"
)

// Config represents the complete application configuration
type Config struct {
	Audio    AudioConfig    `yaml:"audio"`
	Analysis AnalysisConfig `yaml:"analysis"`
	Vowels   []VowelRule    `yaml:"vowels"`
	Source   SourceConfig   `yaml:"source"`
	Display  DisplayConfig  `yaml:"display"`
	Logging  LoggingConfig  `yaml:"logging"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Queue    QueueConfig    `yaml:"queue"`
}

// AudioConfig describes the capture stream. All values are fixed for the
// life of the process.
type AudioConfig struct {
	SampleRate int `yaml:"sample_rate"`
	BlockSize  int `yaml:"block_size"` // samples per capture callback
	Channels   int `yaml:"channels"`
}

// AnalysisConfig holds formant estimation parameters
type AnalysisConfig struct {
	WindowSize  int     `yaml:"window_size"`
	HopSize     int     `yaml:"hop_size"`
	PreEmphasis float64 `yaml:"pre_emphasis"`
	NumFormants int     `yaml:"num_formants"`
	Center      bool    `yaml:"center"`
}

// VowelRule is one entry of the ordered vowel table. Each range is
// [f1_min, f1_max, f2_min, f2_max] in Hz.
type VowelRule struct {
	Label  string       `yaml:"label"`
	Ranges [][4]float64 `yaml:"ranges"`
}

// SourceConfig selects where audio blocks come from
type SourceConfig struct {
	Kind     string `yaml:"kind"`
	Path     string `yaml:"path"`     // WAV file for kind=file
	Realtime bool   `yaml:"realtime"` // pace file and synthetic sources at capture cadence
	Loop     bool   `yaml:"loop"`     // restart file playback at end of file

	MaxDuration time.Duration `yaml:"max_duration"` // file: replay only this much audio; 0 plays it all
	Normalize   float64       `yaml:"normalize"`    // file: scale to this peak amplitude; 0 keeps levels
	Cycles      int           `yaml:"cycles"`       // synthetic: passes over the table; 0 repeats until stopped
}

// DisplayConfig configures the control loop
type DisplayConfig struct {
	Mode      string `yaml:"mode"`
	FrameRate int    `yaml:"frame_rate"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level      string `yaml:"level"`
	Colors     bool   `yaml:"colors"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
}

// MetricsConfig contains Prometheus exposition settings
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Address string `yaml:"address"`
}

// QueueConfig contains block queue settings
type QueueConfig struct {
	WarnDepth int `yaml:"warn_depth"`
}

// Default returns the built-in configuration: 16 kHz mono microphone input
// in 2048-sample blocks, 512-sample analysis windows and the default vowel
// table.
func Default() *Config {
	return &Config{
		Audio: AudioConfig{
			SampleRate: 16000,
			BlockSize:  2048,
			Channels:   1,
		},
		Analysis: AnalysisConfig{
			WindowSize:  512,
			HopSize:     128,
			PreEmphasis: 0.97,
			NumFormants: 3,
			Center:      true,
		},
		Vowels: RulesFromTable(vowel.DefaultTable()),
		Source: SourceConfig{
			Kind:     SourceMicrophone,
			Realtime: true,
		},
		Display: DisplayConfig{
			Mode:      DisplayTerminal,
			FrameRate: 30,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Colors:     true,
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
		Metrics: MetricsConfig{
			Address: ":9464",
		},
		Queue: QueueConfig{
			WarnDepth: 32,
		},
	}
}

// Load reads the YAML configuration file at path on top of Default and
// validates the result.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes YAML from r on top of Default and validates the
// result. Unknown keys are rejected. A vowels list, when present, replaces
// the default table entirely.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := Default()
	cfg.Vowels = nil

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if cfg.Vowels == nil {
		cfg.Vowels = RulesFromTable(vowel.DefaultTable())
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func (c *Config) Validate() error {
	var errs []error

	if c.Audio.SampleRate <= 0 {
		errs = append(errs, fmt.Errorf("audio.sample_rate must be positive, got %d", c.Audio.SampleRate))
	}
	if c.Audio.BlockSize <= 0 {
		errs = append(errs, fmt.Errorf("audio.block_size must be positive, got %d", c.Audio.BlockSize))
	}
	if c.Audio.Channels != 1 {
		errs = append(errs, fmt.Errorf("audio.channels must be 1, got %d", c.Audio.Channels))
	}

	if c.Analysis.WindowSize <= 0 {
		errs = append(errs, fmt.Errorf("analysis.window_size must be positive, got %d", c.Analysis.WindowSize))
	} else if c.Analysis.WindowSize > c.Audio.BlockSize && !c.Analysis.Center {
		errs = append(errs, fmt.Errorf("analysis.window_size %d exceeds audio.block_size %d", c.Analysis.WindowSize, c.Audio.BlockSize))
	}
	if c.Analysis.HopSize <= 0 {
		errs = append(errs, fmt.Errorf("analysis.hop_size must be positive, got %d", c.Analysis.HopSize))
	}
	if c.Analysis.PreEmphasis <= 0 || c.Analysis.PreEmphasis >= 1 {
		errs = append(errs, fmt.Errorf("analysis.pre_emphasis must be in (0, 1), got %g", c.Analysis.PreEmphasis))
	}
	if c.Analysis.NumFormants < 2 || c.Analysis.NumFormants > speech.MaxNumFormants {
		errs = append(errs, fmt.Errorf("analysis.num_formants must be in 2..%d, got %d", speech.MaxNumFormants, c.Analysis.NumFormants))
	}

	if _, err := c.VowelTable(); err != nil {
		errs = append(errs, fmt.Errorf("vowels: %w", err))
	}

	switch c.Source.Kind {
	case SourceMicrophone, SourceSynthetic:
	case SourceFile:
		if c.Source.Path == "" {
			errs = append(errs, errors.New("source.path is required for file sources"))
		}
	default:
		errs = append(errs, fmt.Errorf("source.kind %q is not one of %s, %s, %s", c.Source.Kind, SourceMicrophone, SourceFile, SourceSynthetic))
	}
	if c.Source.MaxDuration < 0 {
		errs = append(errs, fmt.Errorf("source.max_duration must not be negative, got %s", c.Source.MaxDuration))
	}
	if c.Source.Normalize < 0 || c.Source.Normalize > 1 {
		errs = append(errs, fmt.Errorf("source.normalize must be in [0, 1], got %g", c.Source.Normalize))
	}
	if c.Source.Cycles < 0 {
		errs = append(errs, fmt.Errorf("source.cycles must not be negative, got %d", c.Source.Cycles))
	}

	switch c.Display.Mode {
	case DisplayTerminal, DisplayHeadless:
	default:
		errs = append(errs, fmt.Errorf("display.mode %q is not one of %s, %s", c.Display.Mode, DisplayTerminal, DisplayHeadless))
	}
	if c.Display.FrameRate <= 0 || c.Display.FrameRate > 240 {
		errs = append(errs, fmt.Errorf("display.frame_rate must be in 1..240, got %d", c.Display.FrameRate))
	}

	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		errs = append(errs, fmt.Errorf("logging.level: %w", err))
	}
	if c.Logging.File != "" && c.Logging.MaxSizeMB < 0 {
		errs = append(errs, fmt.Errorf("logging.max_size_mb must not be negative, got %d", c.Logging.MaxSizeMB))
	}

	if c.Metrics.Enabled && c.Metrics.Address == "" {
		errs = append(errs, errors.New("metrics.address is required when metrics are enabled"))
	}

	if c.Queue.WarnDepth < 0 {
		errs = append(errs, fmt.Errorf("queue.warn_depth must not be negative, got %d", c.Queue.WarnDepth))
	}

	return errors.Join(errs...)
}

// VowelTable converts the configured rules into a validated vowel.Table,
// preserving their order.
func (c *Config) VowelTable() (vowel.Table, error) {
	table := make(vowel.Table, 0, len(c.Vowels))
	for i, rule := range c.Vowels {
		label, err := vowel.ParseLabel(rule.Label)
		if err != nil {
			return nil, fmt.Errorf("rule %d: %w", i, err)
		}
		ranges := make([]vowel.Range, len(rule.Ranges))
		for j, r := range rule.Ranges {
			ranges[j] = vowel.Range{F1Min: r[0], F1Max: r[1], F2Min: r[2], F2Max: r[3]}
		}
		table = append(table, vowel.Rule{Label: label, Ranges: ranges})
	}

	if err := table.Validate(); err != nil {
		return nil, err
	}
	return table, nil
}

// RulesFromTable converts a vowel.Table into its configuration form.
func RulesFromTable(table vowel.Table) []VowelRule {
	rules := make([]VowelRule, len(table))
	for i, rule := range table {
		ranges := make([][4]float64, len(rule.Ranges))
		for j, r := range rule.Ranges {
			ranges[j] = [4]float64{r.F1Min, r.F1Max, r.F2Min, r.F2Max}
		}
		rules[i] = VowelRule{Label: rule.Label.String(), Ranges: ranges}
	}
	return rules
}

// BlockDuration returns the wall-clock span of one capture block.
func (c *Config) BlockDuration() time.Duration {
	if c.Audio.SampleRate <= 0 {
		return 0
	}
	return time.Duration(c.Audio.BlockSize) * time.Second / time.Duration(c.Audio.SampleRate)
}

// FrameInterval returns the display refresh period.
func (c *Config) FrameInterval() time.Duration {
	if c.Display.FrameRate <= 0 {
		return 0
	}
	return time.Second / time.Duration(c.Display.FrameRate)
}
