package pipeline

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/AnyUserName/imgvariants-cli/internal/config"
	"github.com/AnyUserName/imgvariants-cli/internal/encoder"
)

// Stage names where processing of an input or target stopped.
type Stage string

const (
	StageName    Stage = "name"    // no base name derivable from the reference
	StageResolve Stage = "resolve" // fetch or read
	StageProbe   Stage = "probe"
	StageTargets Stage = "targets"
	StageEncode  Stage = "encode"
	StageWrite   Stage = "write"
)

// DirectoryError is returned when the output directory cannot be created.
// It aborts the run before any input is touched.
type DirectoryError struct {
	Path string
	Err  error
}

func (e *DirectoryError) Error() string {
	return fmt.Sprintf("create output directory %s: %v", e.Path, e.Err)
}

func (e *DirectoryError) Unwrap() error { return e.Err }

// Input summarizes one processed input reference.
type Input struct {
	Ref         string
	BaseName    string
	Original    encoder.Metadata // zero if the probe never ran
	SourceBytes int
	Failed      bool
}

// Variant is one file written by the run.
type Variant struct {
	Ref      string
	BaseName string
	Mode     config.Mode
	Suffix   string
	Width    int    // target width; the encoded width may be smaller under clamp
	Path     string // outputDir joined with the file name, as configured
	Size     int
	Digest   string // hex xxHash64 of the written bytes
}

// Failure records one input or target that did not produce a file.
// Suffix is empty when the whole input failed.
type Failure struct {
	Ref    string
	Suffix string
	Stage  Stage
	Err    error
}

func (f Failure) Error() string {
	if f.Suffix == "" {
		return fmt.Sprintf("%s: %s: %v", f.Ref, f.Stage, f.Err)
	}
	return fmt.Sprintf("%s [%s]: %s: %v", f.Ref, f.Suffix, f.Stage, f.Err)
}

func (f Failure) Unwrap() error { return f.Err }

// Report is the outcome of a run. Inputs follow the deduplicated input
// order; variants and failures follow input order, then target order.
type Report struct {
	RunID     uuid.UUID
	StartedAt time.Time
	Duration  time.Duration
	OutputDir string

	Inputs   []Input
	Variants []Variant
	Failures []Failure
}

// Err combines every failure, nil if the run was clean.
func (r *Report) Err() error {
	var err error
	for _, f := range r.Failures {
		err = multierr.Append(err, f)
	}
	return err
}

// FailedInputs counts inputs that produced no variant at all.
func (r *Report) FailedInputs() int {
	n := 0
	for _, in := range r.Inputs {
		if in.Failed {
			n++
		}
	}
	return n
}
