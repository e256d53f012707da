package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

const (
	// FileName is the config file looked up in the working directory.
	FileName = "imgvariants.yaml"
	// AltFileName is accepted when FileName is absent.
	AltFileName = "imgvariants.yml"
)

// ErrNoConfigFile is returned by Load when no file was discovered and
// none was requested explicitly. Callers fall back to defaults.
var ErrNoConfigFile = errors.New("no config file found")

// Loader reads and writes the config file.
type Loader struct {
	fs       afero.Fs
	path     string
	explicit bool
}

// NewLoader discovers the config file in workDir.
func NewLoader(fs afero.Fs, workDir string) *Loader {
	path := filepath.Join(workDir, FileName)
	if !fileExists(fs, path) {
		if alt := filepath.Join(workDir, AltFileName); fileExists(fs, alt) {
			path = alt
		}
	}
	return &Loader{fs: fs, path: path}
}

// NewLoaderWithPath uses path; a missing file is an error.
func NewLoaderWithPath(fs afero.Fs, path string) *Loader {
	return &Loader{fs: fs, path: path, explicit: true}
}

// Path returns the config file path.
func (l *Loader) Path() string {
	return l.path
}

// Exists checks if the config file exists.
func (l *Loader) Exists() bool {
	return fileExists(l.fs, l.path)
}

// Load reads the file as a partial layer.
func (l *Loader) Load() (Options, error) {
	data, err := afero.ReadFile(l.fs, l.path)
	if err != nil {
		if os.IsNotExist(err) && !l.explicit {
			return Options{}, ErrNoConfigFile
		}
		return Options{}, fmt.Errorf("failed to read config file: %w", err)
	}

	var opts Options
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&opts); err != nil && !errors.Is(err, io.EOF) {
		return Options{}, fmt.Errorf("failed to parse config file %s: %w", l.path, err)
	}
	return opts, nil
}

// Init writes c to the config file. An existing file is never replaced.
func (l *Loader) Init(c Config) error {
	if l.Exists() {
		return fmt.Errorf("config file already exists: %s", l.path)
	}
	if dir := filepath.Dir(l.path); dir != "." {
		if err := l.fs.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	data, err := Marshal(c)
	if err != nil {
		return err
	}
	if err := afero.WriteFile(l.fs, l.path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Marshal renders c in config file form.
func Marshal(c Config) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(c.Options()); err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	return buf.Bytes(), nil
}

func fileExists(fs afero.Fs, path string) bool {
	info, err := fs.Stat(path)
	return err == nil && !info.IsDir()
}
