package crop

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"math"
	"path/filepath"
	"strings"

	"github.com/kahvecikaan/storefront-admin/internal/domain"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// Aspect is the width:height ratio of the storefront product card
const Aspect = 16.0 / 10.0

// Quality is the JPEG quality of cropped output
const Quality = 92

// defaultWidth is the share of the source width used by the default region
const defaultWidth = 0.9

// ErrEmptyRegion is returned when a region does not overlap the image
var ErrEmptyRegion = errors.New("crop region is empty")

// Region is a rectangle in pixel coordinates
type Region struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Ratio returns width divided by height
func (r Region) Ratio() float64 {
	if r.Height == 0 {
		return 0
	}
	return r.Width / r.Height
}

// CenterAspectCrop returns the default region for a w by h image: 90% of the
// width at the given aspect, shrunk to fit the height, and centered
func CenterAspectCrop(w, h int, aspect float64) Region {
	width := float64(w) * defaultWidth
	height := width / aspect
	if height > float64(h) {
		height = float64(h)
		width = height * aspect
	}

	return Region{
		X:      (float64(w) - width) / 2,
		Y:      (float64(h) - height) / 2,
		Width:  width,
		Height: height,
	}
}

// ScaleRegion maps a region selected on a displayW by displayH preview onto
// the naturalW by naturalH source pixels. Previews keep the source aspect, so
// both axes use the horizontal scale.
func ScaleRegion(r Region, displayW, displayH, naturalW, naturalH int) Region {
	if displayW <= 0 || displayH <= 0 {
		return r
	}

	scale := float64(naturalW) / float64(displayW)
	return Region{
		X:      r.X * scale,
		Y:      r.Y * scale,
		Width:  r.Width * scale,
		Height: r.Height * scale,
	}
}

// FitAspect shrinks r to the given aspect around its centre
func FitAspect(r Region, aspect float64) Region {
	if r.Width <= 0 || r.Height <= 0 || aspect <= 0 {
		return r
	}

	width, height := r.Width, r.Width/aspect
	if height > r.Height {
		height = r.Height
		width = height * aspect
	}

	return Region{
		X:      r.X + (r.Width-width)/2,
		Y:      r.Y + (r.Height-height)/2,
		Width:  width,
		Height: height,
	}
}

// Bounds returns the dimensions of the image held in b
func Bounds(b domain.Blob) (int, int, error) {
	rc, err := b.Open()
	if err != nil {
		return 0, 0, err
	}
	defer rc.Close()

	cfg, _, err := image.DecodeConfig(rc)
	if err != nil {
		return 0, 0, fmt.Errorf("unable to read image header: %w", err)
	}
	return cfg.Width, cfg.Height, nil
}

// Apply rasterizes region of the source image into a new JPEG blob. Pixels
// are copied one to one, so the output has the density of the source.
func Apply(b domain.Blob, region Region) (domain.Blob, error) {
	data, err := b.Bytes()
	if err != nil {
		return domain.Blob{}, err
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return domain.Blob{}, fmt.Errorf("unable to decode image: %w", err)
	}

	bounds := src.Bounds()
	rect := image.Rect(
		int(math.Floor(region.X)),
		int(math.Floor(region.Y)),
		int(math.Floor(region.X+region.Width)),
		int(math.Floor(region.Y+region.Height)),
	).Add(bounds.Min).Intersect(bounds)
	if rect.Empty() {
		return domain.Blob{}, ErrEmptyRegion
	}

	dst := image.NewRGBA(image.Rect(0, 0, rect.Dx(), rect.Dy()))
	// JPEG has no alpha, transparent sources are flattened onto white
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(dst, dst.Bounds(), src, rect.Min, draw.Over)

	var out bytes.Buffer
	if err := jpeg.Encode(&out, dst, &jpeg.Options{Quality: Quality}); err != nil {
		return domain.Blob{}, fmt.Errorf("unable to encode image: %w", err)
	}

	return domain.BytesBlob(jpegName(b.Name), "image/jpeg", out.Bytes()), nil
}

// ApplyOrOriginal crops b, falling back to b itself when no region can be produced
func ApplyOrOriginal(b domain.Blob, region Region) (domain.Blob, bool) {
	out, err := Apply(b, region)
	if err != nil {
		return b, false
	}
	return out, true
}

// Skip passes the source through untouched
func Skip(b domain.Blob) domain.Blob {
	return b
}

func jpegName(name string) string {
	if name == "" {
		return "image.jpg"
	}
	return strings.TrimSuffix(name, filepath.Ext(name)) + ".jpg"
}
