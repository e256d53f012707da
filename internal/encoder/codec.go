package encoder

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
	"github.com/h2non/filetype"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// decodable lists the sniffed source formats that have a registered decoder.
var decodable = map[string]bool{
	"jpg":  true,
	"png":  true,
	"gif":  true,
	"webp": true,
	"bmp":  true,
	"tif":  true,
}

var errUnknownFormat = errors.New("unrecognized image data")

// ImageCodec decodes with the Go image decoders, resizes with a Lanczos
// filter (width-driven, aspect ratio preserved) and hands the result to enc.
type ImageCodec struct {
	enc          Encoder
	allowUpscale bool
}

// NewImageCodec creates a codec. Unless allowUpscale is set, targets wider
// than the source are encoded at the source width.
func NewImageCodec(enc Encoder, allowUpscale bool) *ImageCodec {
	return &ImageCodec{enc: enc, allowUpscale: allowUpscale}
}

// Sniff detects the source format from magic bytes.
func Sniff(data []byte) (string, error) {
	kind, err := filetype.Match(data)
	if err != nil {
		return "", &EncodeError{Stage: StageSniff, Err: err}
	}
	if kind == filetype.Unknown {
		return "", &EncodeError{Stage: StageSniff, Err: errUnknownFormat}
	}
	if !decodable[kind.Extension] {
		return "", &EncodeError{Stage: StageSniff, Err: fmt.Errorf("unsupported source format %s", kind.MIME.Value)}
	}
	return kind.Extension, nil
}

// Probe reads the image header only.
func (c *ImageCodec) Probe(data []byte) (Metadata, error) {
	format, err := Sniff(data)
	if err != nil {
		return Metadata{}, err
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Metadata{}, &EncodeError{Stage: StageProbe, Err: err}
	}
	return Metadata{Width: cfg.Width, Height: cfg.Height, Format: format}, nil
}

// Transform decodes data, resizes it to width and encodes it.
func (c *ImageCodec) Transform(ctx context.Context, data []byte, width, quality int) ([]byte, error) {
	if width <= 0 {
		return nil, &EncodeError{Stage: StageResize, Err: fmt.Errorf("invalid target width %d", width)}
	}
	if _, err := Sniff(data); err != nil {
		return nil, err
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, &EncodeError{Stage: StageDecode, Err: err}
	}

	var out image.Image = img
	if w := c.effectiveWidth(img.Bounds().Dx(), width); w != img.Bounds().Dx() {
		out = imaging.Resize(img, w, 0, imaging.Lanczos)
	}

	encoded, err := c.enc.Encode(ctx, out, quality)
	if err != nil {
		return nil, &EncodeError{Stage: StageEncode, Err: err}
	}
	return encoded, nil
}

func (c *ImageCodec) effectiveWidth(original, target int) int {
	if !c.allowUpscale && target > original {
		return original
	}
	return target
}
