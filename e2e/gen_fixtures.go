//go:build ignore

// gen_fixtures lays out a small site for the E2E smoke test: source images
// under public/images (matched by the default pattern) and an
// imgvariants.yaml enabling both modes.
// Usage: go run gen_fixtures.go <site_dir>
package main

import (
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"

	"github.com/AnyUserName/imgvariants-cli/internal/config"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: gen_fixtures <site_dir>")
		os.Exit(1)
	}
	dir := os.Args[1]
	images := filepath.Join(dir, "public", "images")
	must(os.MkdirAll(filepath.Join(images, "cards"), 0o755))

	// Hero (JPEG, 2400x1200): every default width fits.
	save(filepath.Join(images, "hero.jpg"), gradient(2400, 1200))

	// Cards (PNG, 900x600 each): 1280 and 1920 clamp to 900.
	for i := 1; i <= 3; i++ {
		name := fmt.Sprintf("card-%d.png", i)
		save(filepath.Join(images, "cards", name), solidWithBorder(900, 600, uint8(i*60)))
	}

	// Odd width for scale rounding: 301 * 0.5 = 150.5 -> 151.
	save(filepath.Join(images, "odd.png"), alphaGradient(301, 101))

	// Not matched by *.{jpg,png}.
	save(filepath.Join(images, "ignored.gif"), gradient(64, 64))

	c := config.Default()
	c.Modes = []config.Mode{config.ModeWidths, config.ModeScales}
	c.Scales = config.Scales{
		{Suffix: "@2x", Factor: 2.0 / 3},
		{Suffix: "@half", Factor: 0.5},
	}
	data, err := config.Marshal(c)
	must(err)
	must(os.WriteFile(filepath.Join(dir, config.FileName), data, 0o644))

	fmt.Fprintf(os.Stderr, "[gen_fixtures] created 6 images and %s in %s\n", config.FileName, dir)
}

func gradient(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{
				R: uint8(x * 255 / w),
				G: uint8(y * 255 / h),
				B: 128,
				A: 255,
			})
		}
	}
	return img
}

func solidWithBorder(w, h int, base uint8) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := color.NRGBA{R: base, G: base + 40, B: base + 80, A: 255}
			if x < 4 || x >= w-4 || y < 4 || y >= h-4 {
				c = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
			}
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func alphaGradient(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{
				R: 220, G: 60, B: 30,
				A: uint8(x * 255 / w),
			})
		}
	}
	return img
}

// save picks the format from the extension.
func save(path string, img image.Image) {
	must(imaging.Save(img, path, imaging.JPEGQuality(85)))
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}
