// Package encoder produces the encoded bytes of one variant. The pipeline
// only sees the narrow Codec capability; ImageCodec implements it on top of
// the Go image decoders, imaging for resizing and an Encoder for output.
package encoder

import (
	"context"
	"fmt"
	"image"
)

// Encoder encodes an image to the output format.
type Encoder interface {
	// Format returns the output format name (e.g. "webp").
	Format() string

	// Encode converts the image to bytes at the given quality (0-100).
	Encode(ctx context.Context, img image.Image, quality int) ([]byte, error)

	// Available returns true if the encoder is ready to use.
	// External encoders (cwebp) may not be installed.
	Available() bool

	// Extension returns the file extension without dot.
	Extension() string
}

// Metadata is what a probe learns about a source image.
type Metadata struct {
	Width  int
	Height int
	Format string // sniffed source format, e.g. "jpg", "png"
}

// Codec probes source bytes and turns them into one encoded variant.
type Codec interface {
	Probe(data []byte) (Metadata, error)
	Transform(ctx context.Context, data []byte, width, quality int) ([]byte, error)
}

// Stage names the step of the codec that failed.
type Stage string

const (
	StageSniff  Stage = "sniff"
	StageProbe  Stage = "probe"
	StageDecode Stage = "decode"
	StageResize Stage = "resize"
	StageEncode Stage = "encode"
)

// EncodeError reports bytes or parameters the codec rejected.
type EncodeError struct {
	Stage Stage
	Err   error
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *EncodeError) Unwrap() error { return e.Err }
