package cmd

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AnyUserName/imgvariants-cli/internal/config"
	"github.com/AnyUserName/imgvariants-cli/internal/encoder"
	"github.com/AnyUserName/imgvariants-cli/internal/manifest"
)

// pngEncoder stands in for cwebp.
type pngEncoder struct{ available bool }

func (e pngEncoder) Format() string    { return "png" }
func (e pngEncoder) Extension() string { return "png" }
func (e pngEncoder) Available() bool   { return e.available }

func (e pngEncoder) Encode(_ context.Context, img image.Image, _ int) ([]byte, error) {
	var buf bytes.Buffer
	err := png.Encode(&buf, img)
	return buf.Bytes(), err
}

func useEncoder(t *testing.T, enc encoder.Encoder) {
	t.Helper()
	prev := newEncoder
	newEncoder = func() encoder.Encoder { return enc }
	t.Cleanup(func() { newEncoder = prev })
}

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x * 8), G: uint8(y * 8), B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

func buildFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	f := pflag.NewFlagSet("build", pflag.ContinueOnError)
	addBuildFlags(f)
	require.NoError(t, f.Parse(args))
	return f
}

func TestCommands(t *testing.T) {
	if rootCmd.Use != "imgvariants" {
		t.Errorf("expected Use 'imgvariants', got '%s'", rootCmd.Use)
	}

	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"build", "stats", "validate", "srcset", "config"} {
		if !names[want] {
			t.Errorf("expected command %q to be registered", want)
		}
	}

	for _, flag := range []string{"input", "pattern", "output-dir", "mode", "widths", "scale", "quality",
		"workers", "timeout", "upscale", "config", "workdir", "manifest", "metrics-file", "strict"} {
		if buildCmd.Flags().Lookup(flag) == nil {
			t.Errorf("expected build flag '%s' to exist", flag)
		}
	}
}

func TestExecuteBuild(t *testing.T) {
	useEncoder(t, pngEncoder{available: true})
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "public/images/photo.png"), 32, 16)
	writePNG(t, filepath.Join(dir, "public/images/nested/icon.png"), 20, 20)

	f := buildFlags(t, "--workdir", dir, "--widths", "8,16", "--quality", "70", "--metrics-file", "run.prom")
	var out bytes.Buffer
	require.NoError(t, executeBuild(context.Background(), afero.NewOsFs(), f, nil, &out))

	for _, name := range []string{"photo-8.webp", "photo-16.webp", "icon-8.webp", "icon-16.webp"} {
		_, err := os.Stat(filepath.Join(dir, "out/images", name))
		assert.NoError(t, err, name)
	}

	fs := afero.NewOsFs()
	m, path, err := manifest.ReadJSON(fs, filepath.Join(dir, "out/images"))
	require.NoError(t, err)
	assert.Equal(t, 4, m.Stats.TotalVariants)
	assert.Empty(t, manifest.Validate(fs, m, filepath.Dir(path)))
	assert.Equal(t, 70, m.BuildInfo.Quality)

	prom, err := os.ReadFile(filepath.Join(dir, "run.prom"))
	require.NoError(t, err)
	assert.Contains(t, string(prom), "imgvariants_variants_written_total 4")

	assert.Contains(t, out.String(), "Variants:    4")
	assert.Contains(t, out.String(), "Inputs:      2 (0 failed)")
}

func TestExecuteBuild_PartialFailure(t *testing.T) {
	useEncoder(t, pngEncoder{available: true})
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "ok.png"), 10, 10)

	args := []string{"--workdir", dir, "--pattern", "*.png", "--widths", "4", "--manifest", ""}

	var out bytes.Buffer
	err := executeBuild(context.Background(), afero.NewOsFs(), buildFlags(t, args...), []string{"missing.jpg"}, &out)
	require.NoError(t, err, "partial failures exit 0 without --strict")
	assert.Contains(t, out.String(), "missing.jpg: resolve")

	_, err = os.Stat(filepath.Join(dir, "out/images", manifest.FileName))
	assert.True(t, os.IsNotExist(err), "--manifest '' skips the manifest")

	err = executeBuild(context.Background(), afero.NewOsFs(), buildFlags(t, append(args, "--strict")...), []string{"missing.jpg"}, &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 failure(s)")
}

func TestExecuteBuild_EncoderUnavailable(t *testing.T) {
	useEncoder(t, pngEncoder{available: false})

	err := executeBuild(context.Background(), afero.NewMemMapFs(), buildFlags(t, "--workdir", "/site"), nil, &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cwebp not found")
}

func TestExecuteBuild_InvalidConfig(t *testing.T) {
	useEncoder(t, pngEncoder{available: true})

	err := executeBuild(context.Background(), afero.NewMemMapFs(),
		buildFlags(t, "--workdir", "/site", "--quality", "101"), nil, &bytes.Buffer{})
	var ve *config.ValidationError
	require.True(t, errors.As(err, &ve), "got %v", err)
	assert.Equal(t, "quality", ve.Field)
}

func srcsetFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	f := pflag.NewFlagSet("srcset", pflag.ContinueOnError)
	addSrcsetFlags(f)
	require.NoError(t, f.Parse(args))
	return f
}

func TestExecuteSrcset(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/site/imgvariants.yaml", []byte(
		"outputDir: ./dist/img\nenvMode: prod\nwidths: [320, 640]\n"), 0o644))

	t.Setenv("ENV_MODE", "")
	var out bytes.Buffer
	require.NoError(t, executeSrcset(fs, srcsetFlags(t, "--workdir", "/site"), "hero", &out))
	assert.Equal(t, "/dist/img/hero-320.webp 320w, /dist/img/hero-640.webp 640w\n", out.String())

	t.Setenv("ENV_MODE", "development")
	out.Reset()
	require.NoError(t, executeSrcset(fs, srcsetFlags(t, "--workdir", "/site", "--widths", "640", "--html", "--alt", "Hero"), "hero", &out))
	assert.Equal(t,
		`<picture><source srcset="/public/images/hero-640.webp 640w" type="image/webp"><img src="/public/images/hero-640.webp" alt="Hero"></picture>`+"\n",
		out.String())
}

func TestPrintStats(t *testing.T) {
	m := manifest.New("run-1")
	m.OutputDir = "out/images"
	m.Assets["hero"] = manifest.Asset{
		Source:   "public/images/hero.jpg",
		Original: manifest.OriginalInfo{Width: 2000, Height: 1000, Format: "jpg", Size: 4096},
		Variants: []manifest.Variant{
			{Mode: "widths", Suffix: "-640", Width: 640, Size: 1024, Hash: "a", Path: "hero-640.webp"},
			{Mode: "scales", Suffix: "@2x", Width: 1333, Size: 2048, Hash: "b", Path: "hero@2x.webp"},
		},
	}
	m.Failures = []manifest.Failure{{Source: "https://x/y.png", Stage: "resolve", Error: "status 500"}}
	m.ComputeStats()

	var out bytes.Buffer
	printStats(&out, m)
	text := out.String()

	assert.Contains(t, text, "Total variants:   2")
	assert.Contains(t, text, "Failures:         1")
	assert.Less(t, strings.Index(text, "-640"), strings.Index(text, "@2x"), "widths listed before scales")
	assert.Contains(t, text, "https://x/y.png: resolve failed: status 500")
}
