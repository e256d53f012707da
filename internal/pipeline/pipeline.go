// Package pipeline turns a generation config into variant files: it
// collects inputs, then resolves, probes and encodes each of them in a
// bounded worker pool, and reports what was written and what failed.
package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/AnyUserName/imgvariants-cli/internal/config"
	"github.com/AnyUserName/imgvariants-cli/internal/encoder"
	"github.com/AnyUserName/imgvariants-cli/internal/metrics"
	"github.com/AnyUserName/imgvariants-cli/internal/source"
)

// Config holds all parameters for a pipeline run. Only Gen is required.
type Config struct {
	Gen     *config.Config
	WorkDir string        // base for relative inputs, patterns and OutputDir; default "."
	Fs      afero.Fs      // default: the OS filesystem
	Codec   encoder.Codec // default: ImageCodec over cwebp
	Fetcher source.Fetcher
}

// Option customizes a Pipeline.
type Option func(*Pipeline)

func WithLogger(l *zap.Logger) Option {
	return func(p *Pipeline) { p.log = l }
}

func WithMetrics(m metrics.Recorder) Option {
	return func(p *Pipeline) { p.metrics = m }
}

// Pipeline orchestrates image processing.
type Pipeline struct {
	cfg      Config
	workers  int
	outDir   string // OutputDir resolved against WorkDir
	resolver *source.Resolver
	glob     source.Globber
	log      *zap.Logger
	metrics  metrics.Recorder
}

// New creates a configured pipeline.
func New(cfg Config, opts ...Option) *Pipeline {
	gen := cfg.Gen
	if cfg.WorkDir == "" {
		cfg.WorkDir = "."
	}
	if cfg.Fs == nil {
		cfg.Fs = afero.NewOsFs()
	}
	if cfg.Fetcher == nil {
		cfg.Fetcher = source.NewHTTPFetcher(gen.FetchTimeout)
	}
	if cfg.Codec == nil {
		cfg.Codec = encoder.NewImageCodec(&encoder.WebPEncoder{}, gen.Upscale == config.UpscaleAllow)
	}

	p := &Pipeline{
		cfg:      cfg,
		workers:  gen.Workers,
		outDir:   gen.OutputDir,
		resolver: source.NewResolver(cfg.Fs, cfg.WorkDir, cfg.Fetcher),
		glob:     source.NewGlobber(cfg.Fs, cfg.WorkDir),
		log:      zap.NewNop(),
		metrics:  metrics.Nop{},
	}
	if p.workers <= 0 {
		p.workers = runtime.NumCPU()
	}
	if !filepath.IsAbs(p.outDir) {
		p.outDir = filepath.Join(cfg.WorkDir, p.outDir)
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Run executes the full build. Per-input and per-target failures are
// collected in the report; the returned error is reserved for failures
// that stop the whole run: a bad pattern, an uncreatable output
// directory, or ctx being done.
func (p *Pipeline) Run(ctx context.Context) (*Report, error) {
	report := &Report{
		RunID:     uuid.New(),
		StartedAt: time.Now(),
		OutputDir: p.cfg.Gen.OutputDir,
	}
	defer func() { report.Duration = time.Since(report.StartedAt) }()

	log := p.log.With(zap.Stringer("run", report.RunID))

	items, err := source.Collect(p.cfg.Gen.InputPaths, p.cfg.Gen.OutputPatterns, p.glob)
	if err != nil {
		return nil, fmt.Errorf("collect inputs: %w", err)
	}
	log.Info("inputs collected", zap.Int("count", len(items)), zap.Int("workers", p.workers))

	if err := p.cfg.Fs.MkdirAll(p.outDir, 0o755); err != nil {
		return nil, &DirectoryError{Path: p.outDir, Err: err}
	}

	warnCollisions(log, items)

	results := make([]itemResult, len(items))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for i, it := range items {
		i, it := i, it
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = p.processItem(gctx, log, it)
			return nil
		})
	}
	waitErr := g.Wait()

	for i, r := range results {
		if r.input.Ref == "" {
			// never started
			r.input = Input{Ref: items[i].Ref, BaseName: items[i].BaseName, Failed: true}
		}
		report.Inputs = append(report.Inputs, r.input)
		for _, tr := range r.tasks {
			if tr.Err != nil {
				report.Failures = append(report.Failures, tr.failure())
				continue
			}
			report.Variants = append(report.Variants, *tr.Variant)
		}
		report.Failures = append(report.Failures, r.failures...)
	}

	if err := ctx.Err(); err != nil {
		return report, err
	}
	if waitErr != nil {
		return report, waitErr
	}

	log.Info("run finished",
		zap.Int("inputs", len(report.Inputs)),
		zap.Int("variants", len(report.Variants)),
		zap.Int("failures", len(report.Failures)))
	return report, nil
}

// warnCollisions logs inputs whose variants would overwrite each other's.
// The later input in the list wins.
func warnCollisions(log *zap.Logger, items []source.Item) {
	first := make(map[string]string, len(items))
	for _, it := range items {
		if it.BaseName == "" {
			continue
		}
		if prev, ok := first[it.BaseName]; ok {
			log.Warn("inputs share a base name, later one overwrites",
				zap.String("base_name", it.BaseName),
				zap.String("first", prev),
				zap.String("ref", it.Ref))
			continue
		}
		first[it.BaseName] = it.Ref
	}
}
