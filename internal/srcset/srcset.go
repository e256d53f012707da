// Package srcset renders the markup that consumes generated variants:
// a srcset attribute value or a complete <picture> element.
package srcset

import (
	"errors"
	"fmt"
	"html/template"
	"os"
	"path"
	"regexp"
	"strings"

	"github.com/samber/lo"

	"github.com/AnyUserName/imgvariants-cli/internal/config"
)

// EnvVar overrides the configured environment mode at render time.
const EnvVar = "ENV_MODE"

// DevBasePath is where variants are served from outside prod.
const DevBasePath = "/public/images"

var ErrNoWidths = errors.New("srcset: at least one width is required")

var leadingDot = regexp.MustCompile(`^\./?`)

// EnvMode returns $ENV_MODE if set, else configured.
func EnvMode(configured string) string {
	if v := os.Getenv(EnvVar); v != "" {
		return v
	}
	return configured
}

// BasePath is the URL prefix of the variants. In prod it is outputDir
// rooted at "/" ("./out/images" and "out/images" both give "/out/images");
// otherwise DevBasePath.
func BasePath(envMode, outputDir string) string {
	if envMode != config.EnvProduction {
		return DevBasePath
	}
	p := leadingDot.ReplaceAllString(outputDir, "/")
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return path.Clean(p)
}

// Image describes the variants of one base name.
type Image struct {
	BasePath string
	BaseName string
	Widths   []int
	Alt      string
}

func (i Image) url(w int) string {
	return fmt.Sprintf("%s/%s-%d.webp", strings.TrimSuffix(i.BasePath, "/"), i.BaseName, w)
}

// Srcset returns "<url> <w>w" entries joined by ", ".
func (i Image) Srcset() (string, error) {
	if len(i.Widths) == 0 {
		return "", ErrNoWidths
	}
	entries := lo.Map(i.Widths, func(w int, _ int) string {
		return fmt.Sprintf("%s %dw", i.url(w), w)
	})
	return strings.Join(entries, ", "), nil
}

// Src is the fallback source: the first width.
func (i Image) Src() (string, error) {
	if len(i.Widths) == 0 {
		return "", ErrNoWidths
	}
	return i.url(i.Widths[0]), nil
}

var pictureTmpl = template.Must(template.New("picture").Parse(
	`<picture><source srcset="{{.Srcset}}" type="image/webp"><img src="{{.Src}}" alt="{{.Alt}}"></picture>`))

// HTML renders a <picture> element with attribute values escaped.
func (i Image) HTML() (string, error) {
	set, err := i.Srcset()
	if err != nil {
		return "", err
	}
	src, _ := i.Src()

	var b strings.Builder
	err = pictureTmpl.Execute(&b, struct{ Srcset, Src, Alt string }{set, src, i.Alt})
	if err != nil {
		return "", fmt.Errorf("render picture: %w", err)
	}
	return b.String(), nil
}
