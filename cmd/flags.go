package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/AnyUserName/imgvariants-cli/internal/config"
)

const (
	flagConfig  = "config"
	flagWorkDir = "workdir"
)

// addGenerationFlags registers the flags that override config file values.
// Their names are the override keys, so viper binds them directly.
func addGenerationFlags(f *pflag.FlagSet) {
	f.String(flagConfig, "", "config file (default: imgvariants.yaml in the working directory)")
	f.String(flagWorkDir, "", "working directory for inputs, patterns and relative output (default: current directory)")

	f.StringArray(config.KeyInput, nil, "input file or http(s) URL (repeatable)")
	f.StringArray(config.KeyPattern, nil, "glob pattern for inputs, e.g. 'public/images/**/*.{jpg,png}' (repeatable)")
	f.StringP(config.KeyOutputDir, "o", "", "output directory")
	f.StringSlice(config.KeyMode, nil, "modes: widths, scales")
	f.IntSlice(config.KeyWidths, nil, "target widths for widths mode")
	f.StringArray(config.KeyScale, nil, "scale as suffix=factor, e.g. '@2x=2/3' (repeatable, in order)")
	f.IntP(config.KeyQuality, "q", 0, "WebP quality 0-100")
	f.IntP(config.KeyWorkers, "w", 0, "images processed in parallel (0 = NumCPU)")
	f.Duration(config.KeyTimeout, 0, "timeout for one remote fetch")
	f.String(config.KeyUpscale, "", "targets wider than the source: clamp or allow")
	f.String(config.KeyEnvMode, "", "environment mode for srcset paths: development or prod")
}

// workDir returns --workdir as an absolute path, defaulting to the
// current directory.
func workDir(f *pflag.FlagSet) (string, error) {
	dir, _ := f.GetString(flagWorkDir)
	if dir == "" {
		return os.Getwd()
	}
	return filepath.Abs(dir)
}

// loadConfig merges defaults, the config file and IMGV_* env vars plus
// flags, then validates. extraInputs (positional arguments) join the
// inputs of the override layer.
func loadConfig(fs afero.Fs, f *pflag.FlagSet, dir string, extraInputs []string) (*config.Config, error) {
	var loader *config.Loader
	if path, _ := f.GetString(flagConfig); path != "" {
		if !filepath.IsAbs(path) {
			path = filepath.Join(dir, path)
		}
		loader = config.NewLoaderWithPath(fs, path)
	} else {
		loader = config.NewLoader(fs, dir)
	}

	fileOpts, err := loader.Load()
	switch {
	case errors.Is(err, config.ErrNoConfigFile):
		logger.Warn("no config file found, using defaults", zap.String("path", loader.Path()))
	case err != nil:
		return nil, err
	default:
		logger.Debug("config file loaded", zap.String("path", loader.Path()))
	}

	v, err := config.NewViper(f)
	if err != nil {
		return nil, err
	}
	overrides, err := config.OverridesFromViper(v)
	if err != nil {
		return nil, fmt.Errorf("overrides: %w", err)
	}
	if len(extraInputs) > 0 {
		overrides.InputPaths = append(overrides.InputPaths, extraInputs...)
	}

	return config.Build(fileOpts, overrides)
}
