package config

import "time"

// Options is one partial configuration layer. Nil fields are unset and
// leave the lower layer untouched; set fields replace it wholesale.
type Options struct {
	InputPaths     []string       `yaml:"inputPaths,omitempty"`
	OutputPatterns []string       `yaml:"outputPatterns,omitempty"`
	OutputDir      *string        `yaml:"outputDir,omitempty"`
	Modes          []Mode         `yaml:"modes,omitempty"`
	Widths         []int          `yaml:"widths,omitempty"`
	Scales         Scales         `yaml:"scales,omitempty"`
	Quality        *int           `yaml:"quality,omitempty"`
	Workers        *int           `yaml:"workers,omitempty"`
	FetchTimeout   *time.Duration `yaml:"fetchTimeout,omitempty"`
	Upscale        *UpscalePolicy `yaml:"upscale,omitempty"`
	EnvMode        *string        `yaml:"envMode,omitempty"`
}

func (o Options) apply(c *Config) {
	if o.InputPaths != nil {
		c.InputPaths = o.InputPaths
	}
	if o.OutputPatterns != nil {
		c.OutputPatterns = o.OutputPatterns
	}
	if o.OutputDir != nil {
		c.OutputDir = *o.OutputDir
	}
	if o.Modes != nil {
		c.Modes = o.Modes
	}
	if o.Widths != nil {
		c.Widths = o.Widths
	}
	if o.Scales != nil {
		c.Scales = o.Scales
	}
	if o.Quality != nil {
		c.Quality = *o.Quality
	}
	if o.Workers != nil {
		c.Workers = *o.Workers
	}
	if o.FetchTimeout != nil {
		c.FetchTimeout = *o.FetchTimeout
	}
	if o.Upscale != nil {
		c.Upscale = *o.Upscale
	}
	if o.EnvMode != nil {
		c.EnvMode = *o.EnvMode
	}
}

// Options returns c as a fully-populated layer, e.g. for writing a config file.
func (c Config) Options() Options {
	return Options{
		InputPaths:     c.InputPaths,
		OutputPatterns: c.OutputPatterns,
		OutputDir:      &c.OutputDir,
		Modes:          c.Modes,
		Widths:         c.Widths,
		Scales:         c.Scales,
		Quality:        &c.Quality,
		Workers:        &c.Workers,
		FetchTimeout:   &c.FetchTimeout,
		Upscale:        &c.Upscale,
		EnvMode:        &c.EnvMode,
	}
}
