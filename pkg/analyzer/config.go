package analyzer

import (
	"github.com/sevkunovoleksandr/librosa-api/pkg/analyzer/audio"
	"github.com/sevkunovoleksandr/librosa-api/pkg/analyzer/feature"
	"github.com/sevkunovoleksandr/librosa-api/pkg/analyzer/rhythm"
)

// Config is resolved once in NewService and never mutated afterwards; every
// stage reads its parameters from here instead of package globals.
type Config struct {
	DBPath     string
	TempDir    string
	SampleRate int

	HopSize      int
	FrameSize    int
	RMSFrameSize int
	RMSHopSize   int

	BeatsPerBar      int
	DownbeatTracking bool

	PlotWidth   int
	PanelHeight int

	Logger  Logger
	Storage Storage
}

type Option func(*Config)

func WithDBPath(path string) Option {
	return func(c *Config) { c.DBPath = path }
}

func WithTempDir(dir string) Option {
	return func(c *Config) { c.TempDir = dir }
}

func WithSampleRate(rate int) Option {
	return func(c *Config) { c.SampleRate = rate }
}

func WithHopSize(hop int) Option {
	return func(c *Config) { c.HopSize = hop }
}

func WithFrameSize(frame int) Option {
	return func(c *Config) { c.FrameSize = frame }
}

func WithRMSFrames(frame, hop int) Option {
	return func(c *Config) {
		c.RMSFrameSize = frame
		c.RMSHopSize = hop
	}
}

// WithDownbeatTracking enables or disables the optional bar-tracking stage.
// The capability is probed exactly once, in NewService; requests only ever
// see the resolved branch.
func WithDownbeatTracking(enabled bool) Option {
	return func(c *Config) { c.DownbeatTracking = enabled }
}

func WithLogger(log Logger) Option {
	return func(c *Config) { c.Logger = log }
}

func WithStorage(storage Storage) Option {
	return func(c *Config) { c.Storage = storage }
}

func WithPlotSize(width, panelHeight int) Option {
	return func(c *Config) {
		c.PlotWidth = width
		c.PanelHeight = panelHeight
	}
}

func defaultConfig() *Config {
	return &Config{
		DBPath:           "librosa-api.sqlite3",
		TempDir:          "/tmp",
		SampleRate:       audio.DefaultSampleRate,
		HopSize:          feature.HopSize,
		FrameSize:        feature.FrameSize,
		RMSFrameSize:     feature.RMSFrameSize,
		RMSHopSize:       feature.RMSHopSize,
		BeatsPerBar:      rhythm.DefaultBeatsPerBar,
		DownbeatTracking: true,
		PlotWidth:        1200,
		PanelHeight:      220,
	}
}
