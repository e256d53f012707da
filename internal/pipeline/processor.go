package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/AnyUserName/imgvariants-cli/internal/hasher"
	"github.com/AnyUserName/imgvariants-cli/internal/source"
	"github.com/AnyUserName/imgvariants-cli/internal/targets"
)

// Task is one variant to produce for one input.
type Task struct {
	Item     source.Item
	Spec     targets.Spec
	FileName string
	Path     string // where the file is written
	Reported string // Path as shown to users: configured OutputDir + FileName
}

// TaskResult is the outcome of one Task: either Variant or Err is set.
type TaskResult struct {
	Task    Task
	Variant *Variant
	Stage   Stage
	Err     error
}

func (r TaskResult) failure() Failure {
	return Failure{Ref: r.Task.Item.Ref, Suffix: r.Task.Spec.Suffix, Stage: r.Stage, Err: r.Err}
}

// itemResult holds the result of processing a single input.
type itemResult struct {
	input    Input
	tasks    []TaskResult
	failures []Failure // input-level and degenerate-target failures
}

// processItem handles a single input: resolve, probe, compute targets,
// then run one task per target in target order. The raw bytes live only
// for the duration of this call.
func (p *Pipeline) processItem(ctx context.Context, log *zap.Logger, it source.Item) (res itemResult) {
	res.input = Input{Ref: it.Ref, BaseName: it.BaseName}
	log = log.With(zap.String("ref", it.Ref))

	finish := p.metrics.StartInput()
	defer func() {
		res.input.Failed = len(res.tasks) == 0 || allFailed(res.tasks)
		finish(!res.input.Failed && len(res.failures) == 0)
	}()

	fail := func(stage Stage, err error) itemResult {
		log.Warn("input failed", zap.String("stage", string(stage)), zap.Error(err))
		p.metrics.TargetFailed(string(stage))
		res.failures = append(res.failures, Failure{Ref: it.Ref, Stage: stage, Err: err})
		return res
	}

	if it.BaseName == "" {
		return fail(StageName, fmt.Errorf("cannot derive a file name from %q", it.Ref))
	}

	done := p.metrics.Fetch()
	data, err := p.resolver.Resolve(ctx, it.Ref)
	done()
	if err != nil {
		return fail(StageResolve, err)
	}
	res.input.SourceBytes = len(data)
	p.metrics.BytesRead(len(data))

	meta, err := p.cfg.Codec.Probe(data)
	if err != nil {
		return fail(StageProbe, err)
	}
	res.input.Original = meta
	log.Debug("probed", zap.Int("width", meta.Width), zap.Int("height", meta.Height), zap.String("format", meta.Format))

	specs, err := targets.ForConfig(meta.Width, p.cfg.Gen)
	for _, e := range multierr.Errors(err) {
		suffix := ""
		var de *targets.DegenerateTargetError
		if errors.As(e, &de) {
			suffix = de.Suffix
		}
		log.Warn("target skipped", zap.String("suffix", suffix), zap.Error(e))
		p.metrics.TargetFailed(string(StageTargets))
		res.failures = append(res.failures, Failure{Ref: it.Ref, Suffix: suffix, Stage: StageTargets, Err: e})
	}

	for _, task := range p.buildTasks(it, specs) {
		tr := p.runTask(ctx, data, task)
		if tr.Err != nil {
			log.Warn("variant failed",
				zap.String("suffix", task.Spec.Suffix),
				zap.Int("width", task.Spec.Width),
				zap.String("stage", string(tr.Stage)),
				zap.Error(tr.Err))
			p.metrics.TargetFailed(string(tr.Stage))
		} else {
			log.Debug("variant written",
				zap.String("suffix", task.Spec.Suffix),
				zap.Int("width", task.Spec.Width),
				zap.String("path", tr.Variant.Path))
		}
		res.tasks = append(res.tasks, tr)
	}
	return res
}

// buildTasks expands target specs into file-level tasks.
func (p *Pipeline) buildTasks(it source.Item, specs []targets.Spec) []Task {
	tasks := make([]Task, 0, len(specs))
	for _, s := range specs {
		name := s.FileName(it.BaseName)
		tasks = append(tasks, Task{
			Item:     it,
			Spec:     s,
			FileName: name,
			Path:     filepath.Join(p.outDir, name),
			Reported: filepath.Join(p.cfg.Gen.OutputDir, name),
		})
	}
	return tasks
}

// runTask encodes one variant and writes it, overwriting any previous file.
func (p *Pipeline) runTask(ctx context.Context, data []byte, t Task) TaskResult {
	res := TaskResult{Task: t}
	if err := ctx.Err(); err != nil {
		res.Stage, res.Err = StageEncode, err
		return res
	}

	done := p.metrics.Encode()
	out, err := p.cfg.Codec.Transform(ctx, data, t.Spec.Width, p.cfg.Gen.Quality)
	done()
	if err != nil {
		res.Stage, res.Err = StageEncode, err
		return res
	}

	if err := afero.WriteFile(p.cfg.Fs, t.Path, out, 0o644); err != nil {
		res.Stage, res.Err = StageWrite, fmt.Errorf("write %s: %w", t.Reported, err)
		return res
	}
	p.metrics.VariantWritten(len(out))

	res.Variant = &Variant{
		Ref:      t.Item.Ref,
		BaseName: t.Item.BaseName,
		Mode:     t.Spec.Mode,
		Suffix:   t.Spec.Suffix,
		Width:    t.Spec.Width,
		Path:     t.Reported,
		Size:     len(out),
		Digest:   hasher.Digest(out),
	}
	return res
}

func allFailed(results []TaskResult) bool {
	for _, r := range results {
		if r.Err == nil {
			return false
		}
	}
	return true
}
