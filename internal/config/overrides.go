package config

import (
	"fmt"
	"strings"

	"github.com/spf13/cast"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every override environment variable, e.g.
// IMGV_OUTPUT_DIR or IMGV_WIDTHS=640,1280.
const EnvPrefix = "IMGV"

// Override keys. They double as flag names; the env var is the key
// upper-cased with dashes replaced by underscores.
const (
	KeyInput     = "input"
	KeyPattern   = "pattern"
	KeyOutputDir = "output-dir"
	KeyMode      = "mode"
	KeyWidths    = "widths"
	KeyScale     = "scale"
	KeyQuality   = "quality"
	KeyWorkers   = "workers"
	KeyTimeout   = "timeout"
	KeyUpscale   = "upscale"
	KeyEnvMode   = "env-mode"
)

// NewViper returns a viper instance reading IMGV_* env vars and, when
// flags is non-nil, the given flags.
func NewViper(flags *pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("bind flags: %w", err)
		}
	}
	return v, nil
}

// OverridesFromViper collects every key that was explicitly set by a flag
// or an env var into a layer.
func OverridesFromViper(v *viper.Viper) (Options, error) {
	var o Options

	if v.IsSet(KeyInput) {
		in, err := stringList(v.Get(KeyInput))
		if err != nil {
			return o, fmt.Errorf("%s: %w", KeyInput, err)
		}
		o.InputPaths = in
	}
	if v.IsSet(KeyPattern) {
		pats, err := stringList(v.Get(KeyPattern))
		if err != nil {
			return o, fmt.Errorf("%s: %w", KeyPattern, err)
		}
		o.OutputPatterns = pats
	}
	if v.IsSet(KeyOutputDir) {
		dir := v.GetString(KeyOutputDir)
		o.OutputDir = &dir
	}
	if v.IsSet(KeyMode) {
		raw, err := stringList(v.Get(KeyMode))
		if err != nil {
			return o, fmt.Errorf("%s: %w", KeyMode, err)
		}
		o.Modes = make([]Mode, 0, len(raw))
		for _, m := range raw {
			o.Modes = append(o.Modes, Mode(strings.ToLower(m)))
		}
	}
	if v.IsSet(KeyWidths) {
		ws, err := intList(v.Get(KeyWidths))
		if err != nil {
			return o, fmt.Errorf("%s: %w", KeyWidths, err)
		}
		o.Widths = ws
	}
	if v.IsSet(KeyScale) {
		raw, err := stringList(v.Get(KeyScale))
		if err != nil {
			return o, fmt.Errorf("%s: %w", KeyScale, err)
		}
		o.Scales = make(Scales, 0, len(raw))
		for _, r := range raw {
			sc, err := ParseScale(r)
			if err != nil {
				return o, err
			}
			o.Scales = append(o.Scales, sc)
		}
	}
	if v.IsSet(KeyQuality) {
		q, err := cast.ToIntE(v.Get(KeyQuality))
		if err != nil {
			return o, fmt.Errorf("%s: %w", KeyQuality, err)
		}
		o.Quality = &q
	}
	if v.IsSet(KeyWorkers) {
		n, err := cast.ToIntE(v.Get(KeyWorkers))
		if err != nil {
			return o, fmt.Errorf("%s: %w", KeyWorkers, err)
		}
		o.Workers = &n
	}
	if v.IsSet(KeyTimeout) {
		d, err := cast.ToDurationE(v.Get(KeyTimeout))
		if err != nil {
			return o, fmt.Errorf("%s: %w", KeyTimeout, err)
		}
		o.FetchTimeout = &d
	}
	if v.IsSet(KeyUpscale) {
		p := UpscalePolicy(strings.ToLower(v.GetString(KeyUpscale)))
		o.Upscale = &p
	}
	if v.IsSet(KeyEnvMode) {
		m := v.GetString(KeyEnvMode)
		o.EnvMode = &m
	}
	return o, nil
}

// stringList accepts comma-separated env strings as well as slices
// coming from flags. Commas inside glob braces do not split.
func stringList(raw any) ([]string, error) {
	if s, ok := raw.(string); ok {
		return splitList(s), nil
	}
	return cast.ToStringSliceE(raw)
}

func splitList(s string) []string {
	out := []string{}
	depth, start := 0, 0
	add := func(part string) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	for i, r := range s {
		switch r {
		case '{':
			depth++
		case '}':
			if depth > 0 {
				depth--
			}
		case ',':
			if depth == 0 {
				add(s[start:i])
				start = i + 1
			}
		}
	}
	add(s[start:])
	return out
}

func intList(raw any) ([]int, error) {
	if ints, ok := raw.([]int); ok {
		return append([]int{}, ints...), nil
	}
	parts, err := stringList(raw)
	if err != nil {
		return nil, err
	}
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := cast.ToIntE(p)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}
