// Package config builds the generation config for a run: built-in defaults,
// overlaid by an optional imgvariants.yaml file, overlaid by flag and
// environment overrides. The result is validated once and never mutated.
package config

import (
	"fmt"
	"math"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/multierr"
)

// Mode is a strategy for deriving target widths.
type Mode string

const (
	ModeWidths Mode = "widths"
	ModeScales Mode = "scales"
)

// UpscalePolicy decides what happens when a target is wider than its source.
type UpscalePolicy string

const (
	// UpscaleClamp encodes at the source width and keeps the requested name.
	UpscaleClamp UpscalePolicy = "clamp"
	// UpscaleAllow resizes to the requested width even if that enlarges the image.
	UpscaleAllow UpscalePolicy = "allow"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "prod"
)

// Config is the immutable generation config for one run.
type Config struct {
	InputPaths     []string
	OutputPatterns []string
	OutputDir      string
	Modes          []Mode
	Widths         []int
	Scales         Scales
	Quality        int

	Workers      int // 0 = NumCPU
	FetchTimeout time.Duration
	Upscale      UpscalePolicy
	EnvMode      string
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		InputPaths:     []string{},
		OutputPatterns: []string{"public/images/**/*.{jpg,png}"},
		OutputDir:      "out/images",
		Modes:          []Mode{ModeWidths},
		Widths:         []int{640, 1280, 1920},
		Scales:         Scales{},
		Quality:        80,
		FetchTimeout:   30 * time.Second,
		Upscale:        UpscaleClamp,
		EnvMode:        EnvDevelopment,
	}
}

// HasMode reports whether m is enabled.
func (c *Config) HasMode(m Mode) bool {
	for _, x := range c.Modes {
		if x == m {
			return true
		}
	}
	return false
}

// Build merges layers over the defaults, lowest priority first, and
// validates the result.
func Build(layers ...Options) (*Config, error) {
	c := Default()
	for _, l := range layers {
		l.apply(&c)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// ValidationError describes one invalid configuration field.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config %s: %s", e.Field, e.Msg)
}

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Msg: fmt.Sprintf(format, args...)}
}

// Validate returns every problem found, combined.
func (c *Config) Validate() error {
	var errs error

	if strings.TrimSpace(c.OutputDir) == "" {
		errs = multierr.Append(errs, invalid("outputDir", "must not be empty"))
	}
	if c.Quality < 0 || c.Quality > 100 {
		errs = multierr.Append(errs, invalid("quality", "must be within 0-100, got %d", c.Quality))
	}
	if c.Workers < 0 {
		errs = multierr.Append(errs, invalid("workers", "must not be negative, got %d", c.Workers))
	}
	if c.FetchTimeout < 0 {
		errs = multierr.Append(errs, invalid("fetchTimeout", "must not be negative, got %s", c.FetchTimeout))
	}
	switch c.Upscale {
	case UpscaleClamp, UpscaleAllow:
	default:
		errs = multierr.Append(errs, invalid("upscale", "unknown policy %q (want clamp or allow)", c.Upscale))
	}

	if len(c.Modes) == 0 {
		errs = multierr.Append(errs, invalid("modes", "at least one mode is required"))
	}
	seen := map[Mode]bool{}
	for _, m := range c.Modes {
		if m != ModeWidths && m != ModeScales {
			errs = multierr.Append(errs, invalid("modes", "unknown mode %q (want widths or scales)", m))
			continue
		}
		if seen[m] {
			errs = multierr.Append(errs, invalid("modes", "mode %q listed twice", m))
		}
		seen[m] = true
	}

	if seen[ModeWidths] {
		if len(c.Widths) == 0 {
			errs = multierr.Append(errs, invalid("widths", "widths mode needs at least one width"))
		}
		for _, w := range c.Widths {
			if w <= 0 {
				errs = multierr.Append(errs, invalid("widths", "width must be positive, got %d", w))
			}
		}
	}

	if seen[ModeScales] {
		if len(c.Scales) == 0 {
			errs = multierr.Append(errs, invalid("scales", "scales mode needs at least one suffix"))
		}
		suffixes := map[string]bool{}
		for _, s := range c.Scales {
			switch {
			case s.Suffix == "":
				errs = multierr.Append(errs, invalid("scales", "suffix must not be empty"))
			case strings.ContainsAny(s.Suffix, `/\`) || s.Suffix != filepath.Base(s.Suffix):
				errs = multierr.Append(errs, invalid("scales", "suffix %q must not contain path separators", s.Suffix))
			case suffixes[s.Suffix]:
				errs = multierr.Append(errs, invalid("scales", "suffix %q listed twice", s.Suffix))
			}
			suffixes[s.Suffix] = true
			if !(s.Factor > 0) || math.IsInf(s.Factor, 0) {
				errs = multierr.Append(errs, invalid("scales", "factor for %q must be positive and finite, got %v", s.Suffix, s.Factor))
			}
		}

		// Both modes write into the same directory: a scale suffix shaped
		// like a width fragment would overwrite that width's file.
		if seen[ModeWidths] {
			for _, w := range c.Widths {
				if frag := fmt.Sprintf("-%d", w); suffixes[frag] {
					errs = multierr.Append(errs, invalid("scales", "suffix %q collides with width %d", frag, w))
				}
			}
		}
	}

	return errs
}
