package crop

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/kahvecikaan/storefront-admin/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBlob(t *testing.T, name string, w, h int) domain.Blob {
	t.Helper()

	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: 200, A: 255})
		}
	}

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return domain.BytesBlob(name, "image/png", buf.Bytes())
}

func TestCenterAspectCropRatio(t *testing.T) {
	tests := []struct {
		name string
		w, h int
	}{
		{"landscape", 1920, 1080},
		{"portrait", 800, 1600},
		{"square", 1000, 1000},
		{"wide strip", 4000, 300},
		{"tiny", 17, 9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := CenterAspectCrop(tt.w, tt.h, Aspect)

			assert.InDelta(t, 1.6, r.Ratio(), 0.001)
			assert.LessOrEqual(t, r.Width, float64(tt.w))
			assert.LessOrEqual(t, r.Height, float64(tt.h))
			assert.InDelta(t, float64(tt.w)-r.Width, 2*r.X, 0.001)
			assert.InDelta(t, float64(tt.h)-r.Height, 2*r.Y, 0.001)
		})
	}
}

func TestApplyProducesSixteenByTen(t *testing.T) {
	tests := []struct {
		w, h int
	}{
		{640, 480},
		{333, 999},
		{1280, 720},
	}

	for _, tt := range tests {
		src := pngBlob(t, "cover.png", tt.w, tt.h)

		out, err := Apply(src, CenterAspectCrop(tt.w, tt.h, Aspect))
		require.NoError(t, err)
		assert.Equal(t, "cover.jpg", out.Name)
		assert.Equal(t, "image/jpeg", out.ContentType)

		data, err := out.Bytes()
		require.NoError(t, err)
		cfg, err := jpeg.DecodeConfig(bytes.NewReader(data))
		require.NoError(t, err)

		// flooring each edge can move the ratio by at most one pixel per side
		tolerance := 1.6 * 2 / float64(cfg.Height)
		assert.InDelta(t, 1.6, float64(cfg.Width)/float64(cfg.Height), tolerance)
	}
}

func TestApplyKeepsSourcePixelDensity(t *testing.T) {
	src := pngBlob(t, "cover.png", 400, 300)

	out, err := Apply(src, Region{X: 10, Y: 20, Width: 160, Height: 100})
	require.NoError(t, err)

	w, h, err := Bounds(out)
	require.NoError(t, err)
	assert.Equal(t, 160, w)
	assert.Equal(t, 100, h)
}

func TestScaleRegion(t *testing.T) {
	r := ScaleRegion(Region{X: 10, Y: 5, Width: 160, Height: 100}, 400, 300, 1600, 1200)
	assert.Equal(t, Region{X: 40, Y: 20, Width: 640, Height: 400}, r)
	assert.InDelta(t, 1.6, r.Ratio(), 0.0001)

	unchanged := ScaleRegion(Region{Width: 16, Height: 10}, 0, 0, 100, 100)
	assert.Equal(t, Region{Width: 16, Height: 10}, unchanged)

	// a preview with a rounded height still scales both axes alike
	uniform := ScaleRegion(Region{Width: 160, Height: 100}, 400, 301, 800, 600)
	assert.InDelta(t, 1.6, uniform.Ratio(), 0.0001)
}

func TestFitAspect(t *testing.T) {
	tests := []struct {
		name   string
		region Region
		want   Region
	}{
		{
			name:   "square keeps width and shrinks height",
			region: Region{X: 0, Y: 0, Width: 320, Height: 320},
			want:   Region{X: 0, Y: 60, Width: 320, Height: 200},
		},
		{
			name:   "wide keeps height and shrinks width",
			region: Region{X: 10, Y: 10, Width: 400, Height: 100},
			want:   Region{X: 130, Y: 10, Width: 160, Height: 100},
		},
		{
			name:   "already 16:10",
			region: Region{X: 5, Y: 5, Width: 160, Height: 100},
			want:   Region{X: 5, Y: 5, Width: 160, Height: 100},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FitAspect(tt.region, Aspect)
			assert.InDelta(t, tt.want.X, got.X, 0.0001)
			assert.InDelta(t, tt.want.Y, got.Y, 0.0001)
			assert.InDelta(t, tt.want.Width, got.Width, 0.0001)
			assert.InDelta(t, tt.want.Height, got.Height, 0.0001)
			assert.InDelta(t, Aspect, got.Ratio(), 0.0001)
		})
	}
}

func TestApplyClipsToImage(t *testing.T) {
	src := pngBlob(t, "a.png", 100, 100)

	out, err := Apply(src, Region{X: 50, Y: 50, Width: 160, Height: 100})
	require.NoError(t, err)

	w, h, err := Bounds(out)
	require.NoError(t, err)
	assert.Equal(t, 50, w)
	assert.Equal(t, 50, h)
}

func TestApplyOrOriginalFallsBack(t *testing.T) {
	src := pngBlob(t, "a.png", 100, 100)

	out, cropped := ApplyOrOriginal(src, Region{X: 500, Y: 500, Width: 16, Height: 10})
	assert.False(t, cropped)
	assert.Equal(t, src.Name, out.Name)

	_, err := Apply(src, Region{X: 500, Y: 500, Width: 16, Height: 10})
	assert.ErrorIs(t, err, ErrEmptyRegion)

	notImage := domain.BytesBlob("notes.txt", "text/plain", []byte("hello"))
	out, cropped = ApplyOrOriginal(notImage, Region{Width: 16, Height: 10})
	assert.False(t, cropped)
	assert.Equal(t, "notes.txt", out.Name)
}

func TestSkipPassesBytesThrough(t *testing.T) {
	src := pngBlob(t, "cover.png", 64, 48)
	before, err := src.Bytes()
	require.NoError(t, err)

	after, err := Skip(src).Bytes()
	require.NoError(t, err)
	assert.Equal(t, before, after)
}
