package images

import (
	"bytes"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"strings"

	xdraw "golang.org/x/image/draw"
)

const (
	// Covers are bounded to 800 on the longer side, never upscaled.
	maxCoverSize = 800
	coverQuality = 85
)

// Process normalizes an uploaded cover image: decodes it, renders onto an
// opaque RGBA canvas (JPEG cannot carry alpha or palette data), downscales
// within maxCoverSize preserving aspect ratio, and re-encodes as JPEG.
func Process(r io.Reader) ([]byte, error) {
	src, _, err := image.Decode(r)
	if err != nil {
		return nil, err
	}

	bounds := src.Bounds()
	width, height := boundedSize(bounds.Dx(), bounds.Dy(), maxCoverSize)

	canvas := image.NewRGBA(image.Rect(0, 0, width, height))
	xdraw.CatmullRom.Scale(canvas, canvas.Bounds(), src, bounds, xdraw.Src, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, canvas, &jpeg.Options{Quality: coverQuality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func boundedSize(width, height, max int) (int, int) {
	if width <= max && height <= max {
		return width, height
	}
	if width >= height {
		return max, atLeastOne(height * max / width)
	}
	return atLeastOne(width * max / height), max
}

func atLeastOne(v int) int {
	if v < 1 {
		return 1
	}
	return v
}

// CoverFileName derives the deterministic file name for a recipe's cover
// from the recipe name: lower-cased, spaces replaced with underscores.
func CoverFileName(recipeName string) string {
	slug := strings.ReplaceAll(strings.ToLower(recipeName), " ", "_")
	return slug + "_cover.jpg"
}
