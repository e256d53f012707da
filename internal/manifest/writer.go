package manifest

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/afero"

	"github.com/AnyUserName/imgvariants-cli/internal/config"
	"github.com/AnyUserName/imgvariants-cli/internal/pipeline"
)

// New creates an empty manifest with defaults.
func New(runID string) *Manifest {
	return &Manifest{
		Version:     SupportedManifestVersion,
		RunID:       runID,
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		Assets:      make(map[string]Asset),
	}
}

// FromReport builds the manifest of a finished run. Inputs sharing a base
// name end up as one asset holding the later input, matching the files on
// disk.
func FromReport(r *pipeline.Report, gen *config.Config) *Manifest {
	m := New(r.RunID.String())
	m.OutputDir = filepath.ToSlash(r.OutputDir)

	modes := make([]string, 0, len(gen.Modes))
	for _, md := range gen.Modes {
		modes = append(modes, string(md))
	}
	m.BuildInfo = &BuildInfo{
		Modes:      modes,
		Quality:    gen.Quality,
		Workers:    gen.Workers,
		Upscale:    string(gen.Upscale),
		DurationMS: r.Duration.Milliseconds(),
	}

	byRef := make(map[string][]pipeline.Variant)
	for _, v := range r.Variants {
		byRef[v.Ref] = append(byRef[v.Ref], v)
	}

	for _, in := range r.Inputs {
		variants := byRef[in.Ref]
		if len(variants) == 0 {
			continue
		}
		a := Asset{
			Source: in.Ref,
			Original: OriginalInfo{
				Width:  in.Original.Width,
				Height: in.Original.Height,
				Format: in.Original.Format,
				Size:   int64(in.SourceBytes),
			},
		}
		for _, v := range variants {
			a.Variants = append(a.Variants, Variant{
				Mode:   string(v.Mode),
				Suffix: v.Suffix,
				Width:  v.Width,
				Size:   int64(v.Size),
				Hash:   v.Digest,
				Path:   filepath.Base(v.Path),
			})
		}
		m.Assets[in.BaseName] = a
	}

	for _, f := range r.Failures {
		m.Failures = append(m.Failures, Failure{
			Source: f.Ref,
			Suffix: f.Suffix,
			Stage:  string(f.Stage),
			Error:  f.Err.Error(),
		})
	}

	m.ComputeStats()
	return m
}

// ComputeStats recalculates aggregate statistics from assets.
func (m *Manifest) ComputeStats() {
	var s Stats
	s.TotalAssets = len(m.Assets)
	s.TotalFailures = len(m.Failures)
	for _, a := range m.Assets {
		s.TotalInputBytes += a.Original.Size
		s.TotalVariants += len(a.Variants)
		for _, v := range a.Variants {
			s.TotalOutputBytes += v.Size
		}
	}
	m.Stats = s
}

// WriteJSON serializes the manifest to a JSON file with stable ordering.
func WriteJSON(fs afero.Fs, m *Manifest, path string) error {
	m.ComputeStats()

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return afero.WriteFile(fs, path, data, 0o644)
}

// ReadJSON loads a manifest. If path is a directory the manifest inside
// it is read.
func ReadJSON(fs afero.Fs, path string) (*Manifest, string, error) {
	if isDir, err := afero.IsDir(fs, path); err == nil && isDir {
		path = filepath.Join(path, FileName)
	}

	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, path, fmt.Errorf("read manifest: %w", err)
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, path, fmt.Errorf("parse manifest: %w", err)
	}
	if m.Assets == nil {
		m.Assets = make(map[string]Asset)
	}
	return &m, path, nil
}
