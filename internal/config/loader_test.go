package config

import (
	"errors"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoader_MissingFileFallsBack(t *testing.T) {
	fs := afero.NewMemMapFs()
	l := NewLoader(fs, "/work")

	_, err := l.Load()
	assert.True(t, errors.Is(err, ErrNoConfigFile))
	assert.Equal(t, "/work/imgvariants.yaml", l.Path())
}

func TestLoader_ExplicitMissingFileFails(t *testing.T) {
	l := NewLoaderWithPath(afero.NewMemMapFs(), "/work/custom.yaml")
	_, err := l.Load()
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNoConfigFile))
}

func TestLoader_Load(t *testing.T) {
	fs := afero.NewMemMapFs()
	content := `
inputPaths:
  - https://example.com/remote-image.jpg
outputPatterns:
  - "public/images/**/*.{jpg,png,webp}"
outputDir: ./out/images
quality: 80
modes: [scales, widths]
widths: [640, 1280, 1920]
scales:
  "@3x": 1
  "@2x": 2/3
  "@1x": 1/3
fetchTimeout: 10s
`
	require.NoError(t, afero.WriteFile(fs, "/work/imgvariants.yml", []byte(content), 0o644))

	l := NewLoader(fs, "/work")
	assert.Equal(t, "/work/imgvariants.yml", l.Path())

	o, err := l.Load()
	require.NoError(t, err)

	c, err := Build(o)
	require.NoError(t, err)
	assert.Equal(t, "./out/images", c.OutputDir)
	assert.Equal(t, []Mode{ModeScales, ModeWidths}, c.Modes)
	assert.Equal(t, []string{"https://example.com/remote-image.jpg"}, c.InputPaths)
	assert.Len(t, c.Scales, 3)
	assert.Equal(t, 10*time.Second, c.FetchTimeout)
}

func TestLoader_UnknownFieldRejected(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/work/imgvariants.yaml", []byte("outputDirectory: x\n"), 0o644))

	_, err := NewLoader(fs, "/work").Load()
	assert.Error(t, err)
}

func TestLoader_EmptyFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/work/imgvariants.yaml", nil, 0o644))

	o, err := NewLoader(fs, "/work").Load()
	require.NoError(t, err)
	assert.Nil(t, o.Widths)
}

func TestLoader_InitRoundTrip(t *testing.T) {
	fs := afero.NewMemMapFs()
	l := NewLoader(fs, "/work")

	want := Default()
	want.Modes = []Mode{ModeWidths, ModeScales}
	want.Scales = Scales{{"@2x", 0.5}, {"@1x", 0.25}}
	require.NoError(t, l.Init(want))
	assert.True(t, l.Exists())

	o, err := l.Load()
	require.NoError(t, err)
	got, err := Build(o)
	require.NoError(t, err)
	assert.Equal(t, want.Scales, got.Scales)
	assert.Equal(t, want.Widths, got.Widths)
	assert.Equal(t, want.FetchTimeout, got.FetchTimeout)

	// never overwrite
	assert.Error(t, l.Init(Default()))
}
