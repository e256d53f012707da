// Package targets computes which variants to produce for one source image.
package targets

import (
	"fmt"
	"math"

	"github.com/AnyUserName/imgvariants-cli/internal/config"
	"go.uber.org/multierr"
)

// Extension is the file extension of every variant.
const Extension = ".webp"

// Spec describes one variant to produce.
type Spec struct {
	Mode   config.Mode
	Suffix string // "-640" for widths mode, the configured key for scales mode
	Width  int
}

// FileName returns "<baseName><suffix>.webp".
func (s Spec) FileName(baseName string) string {
	return baseName + s.Suffix + Extension
}

// MaxWidth bounds scaled widths; larger products are degenerate.
const MaxWidth = math.MaxInt32

// DegenerateTargetError is returned for a scale target whose width cannot
// be computed: the original width is unknown or original*factor is not a
// finite number within MaxWidth.
type DegenerateTargetError struct {
	Suffix        string
	Factor        float64
	OriginalWidth int
}

func (e *DegenerateTargetError) Error() string {
	return fmt.Sprintf("scale %q (x%g): original width %d gives no usable target width",
		e.Suffix, e.Factor, e.OriginalWidth)
}

// Compute returns widths-mode specs (literal widths, configured order)
// followed by scales-mode specs (round(originalWidth*factor), at least 1px),
// independent of the order modes are listed in. Scale targets that are
// degenerate are left out and reported through the combined error; the
// returned specs are still usable.
//
// Rounding is math.Round: halves round away from zero.
func Compute(originalWidth int, modes []config.Mode, widths []int, scales config.Scales) ([]Spec, error) {
	var widthsOn, scalesOn bool
	for _, m := range modes {
		switch m {
		case config.ModeWidths:
			widthsOn = true
		case config.ModeScales:
			scalesOn = true
		}
	}

	var specs []Spec
	var errs error

	if widthsOn {
		for _, w := range widths {
			specs = append(specs, Spec{
				Mode:   config.ModeWidths,
				Suffix: fmt.Sprintf("-%d", w),
				Width:  w,
			})
		}
	}

	if scalesOn {
		for _, sc := range scales {
			f := float64(originalWidth) * sc.Factor
			if originalWidth <= 0 || math.IsNaN(f) || math.IsInf(f, 0) || f > MaxWidth {
				errs = multierr.Append(errs, &DegenerateTargetError{
					Suffix:        sc.Suffix,
					Factor:        sc.Factor,
					OriginalWidth: originalWidth,
				})
				continue
			}
			w := int(math.Round(f))
			if w < 1 {
				w = 1
			}
			specs = append(specs, Spec{
				Mode:   config.ModeScales,
				Suffix: sc.Suffix,
				Width:  w,
			})
		}
	}

	return specs, errs
}

// ForConfig is Compute with the modes, widths and scales of c.
func ForConfig(originalWidth int, c *config.Config) ([]Spec, error) {
	return Compute(originalWidth, c.Modes, c.Widths, c.Scales)
}
