package targets

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"

	"github.com/AnyUserName/imgvariants-cli/internal/config"
)

var (
	widthsOnly = []config.Mode{config.ModeWidths}
	scalesOnly = []config.Mode{config.ModeScales}
	bothModes  = []config.Mode{config.ModeScales, config.ModeWidths}
)

func TestCompute_WidthsAreLiteral(t *testing.T) {
	widths := []int{1920, 640, 1280}

	for _, orig := range []int{0, 100, 800, 4000} {
		specs, err := Compute(orig, widthsOnly, widths, nil)
		require.NoError(t, err)

		want := []Spec{
			{Mode: config.ModeWidths, Suffix: "-1920", Width: 1920},
			{Mode: config.ModeWidths, Suffix: "-640", Width: 640},
			{Mode: config.ModeWidths, Suffix: "-1280", Width: 1280},
		}
		if diff := cmp.Diff(want, specs); diff != "" {
			t.Errorf("orig=%d (-want +got):\n%s", orig, diff)
		}
	}
}

func TestCompute_Scales(t *testing.T) {
	specs, err := Compute(900, scalesOnly, nil, config.Scales{{Suffix: "@2x", Factor: 2.0 / 3}})
	require.NoError(t, err)
	assert.Equal(t, []Spec{{Mode: config.ModeScales, Suffix: "@2x", Width: 600}}, specs)
}

func TestCompute_ScalesRounding(t *testing.T) {
	scales := config.Scales{
		{Suffix: "@3x", Factor: 1},
		{Suffix: "@half", Factor: 0.5},
		{Suffix: "@1x", Factor: 1.0 / 3},
		{Suffix: "@tiny", Factor: 0.0001},
	}
	specs, err := Compute(301, scalesOnly, nil, scales)
	require.NoError(t, err)

	got := map[string]int{}
	for _, s := range specs {
		got[s.Suffix] = s.Width
	}
	assert.Equal(t, 301, got["@3x"])
	assert.Equal(t, 151, got["@half"]) // 150.5 rounds away from zero
	assert.Equal(t, 100, got["@1x"])   // 100.33
	assert.Equal(t, 1, got["@tiny"])   // clamped to 1px
}

func TestCompute_BothModesConcatenate(t *testing.T) {
	scales := config.Scales{{Suffix: "@2x", Factor: 0.5}, {Suffix: "@1x", Factor: 0.25}}
	specs, err := Compute(800, bothModes, []int{640, 640}, scales)
	require.NoError(t, err)

	want := []Spec{
		{Mode: config.ModeWidths, Suffix: "-640", Width: 640},
		{Mode: config.ModeWidths, Suffix: "-640", Width: 640},
		{Mode: config.ModeScales, Suffix: "@2x", Width: 400},
		{Mode: config.ModeScales, Suffix: "@1x", Width: 200},
	}
	if diff := cmp.Diff(want, specs); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func TestCompute_DegenerateScales(t *testing.T) {
	scales := config.Scales{{Suffix: "@2x", Factor: 0.5}, {Suffix: "@1x", Factor: 0.25}}
	specs, err := Compute(0, bothModes, []int{640}, scales)
	require.Error(t, err)

	// widths specs survive
	assert.Equal(t, []Spec{{Mode: config.ModeWidths, Suffix: "-640", Width: 640}}, specs)

	errs := multierr.Errors(err)
	require.Len(t, errs, 2)
	var de *DegenerateTargetError
	require.True(t, errors.As(errs[1], &de))
	assert.Equal(t, "@1x", de.Suffix)
	assert.Equal(t, 0, de.OriginalWidth)
}

func TestCompute_ScalesOutOfRange(t *testing.T) {
	tests := []struct {
		name   string
		factor float64
	}{
		{"huge", 1e30},
		{"past MaxWidth", float64(MaxWidth)},
		{"infinite", math.Inf(1)},
		{"NaN", math.NaN()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scales := config.Scales{{Suffix: "@big", Factor: tt.factor}, {Suffix: "@half", Factor: 0.5}}
			specs, err := Compute(900, scalesOnly, nil, scales)

			var de *DegenerateTargetError
			require.True(t, errors.As(err, &de), "want DegenerateTargetError, got %v", err)
			assert.Equal(t, "@big", de.Suffix)
			assert.Equal(t, 900, de.OriginalWidth)
			assert.Equal(t, []Spec{{Mode: config.ModeScales, Suffix: "@half", Width: 450}}, specs)
		})
	}
}

func TestCompute_NoModes(t *testing.T) {
	specs, err := Compute(800, nil, []int{640}, config.Scales{{Suffix: "@1x", Factor: 1}})
	require.NoError(t, err)
	assert.Empty(t, specs)
}

func TestForConfig(t *testing.T) {
	c := config.Default()
	specs, err := ForConfig(1000, &c)
	require.NoError(t, err)
	require.Len(t, specs, 3)
	assert.Equal(t, "hero-640.webp", specs[0].FileName("hero"))
}

func TestSpec_FileName(t *testing.T) {
	assert.Equal(t, "hero@2x.webp", Spec{Suffix: "@2x"}.FileName("hero"))
	assert.Equal(t, "sample-local-640.webp", Spec{Suffix: "-640"}.FileName("sample-local"))
}
