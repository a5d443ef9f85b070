package vinyl

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solidArtwork(t *testing.T, w, h int, c color.Color) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestTransformProducesDisk(t *testing.T) {
	artwork := solidArtwork(t, 512, 512, color.RGBA{R: 200, G: 40, B: 40, A: 255})

	out, err := Transform(artwork)
	require.NoError(t, err)

	disk, err := png.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, DiskSize, disk.Bounds().Dx())
	assert.Equal(t, DiskSize, disk.Bounds().Dy())

	center := DiskSize / 2

	// Corners are outside the circle: fully transparent
	_, _, _, a := disk.At(2, 2).RGBA()
	assert.Zero(t, a, "corner should be transparent")
	_, _, _, a = disk.At(DiskSize-3, DiskSize-3).RGBA()
	assert.Zero(t, a, "corner should be transparent")

	// Spindle hole is punched out
	_, _, _, a = disk.At(center, center).RGBA()
	assert.Zero(t, a, "center hole should be transparent")

	// The ring between hole and rim keeps the artwork
	r, g, b, a := disk.At(center, center/4).RGBA()
	assert.NotZero(t, a, "disk ring should be opaque")
	assert.Greater(t, r, g)
	assert.Greater(t, r, b)
}

func TestTransformHoleRatio(t *testing.T) {
	artwork := solidArtwork(t, 256, 256, color.White)

	out, err := Transform(artwork)
	require.NoError(t, err)
	disk, err := png.Decode(bytes.NewReader(out))
	require.NoError(t, err)

	center := DiskSize / 2
	holeR := int(float64(DiskSize) * 0.14 / 2)

	// Just inside the hole radius: transparent
	_, _, _, a := disk.At(center+holeR-2, center).RGBA()
	assert.Zero(t, a)

	// Just outside the hole radius: opaque
	_, _, _, a = disk.At(center+holeR+2, center).RGBA()
	assert.NotZero(t, a)
}

func TestTransformCenterCropsNonSquare(t *testing.T) {
	// Wide image: left half blue, right half green, so the crop keeps the
	// middle of both halves
	img := image.NewRGBA(image.Rect(0, 0, 400, 200))
	for y := 0; y < 200; y++ {
		for x := 0; x < 400; x++ {
			if x < 200 {
				img.Set(x, y, color.RGBA{B: 255, A: 255})
			} else {
				img.Set(x, y, color.RGBA{G: 255, A: 255})
			}
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))

	out, err := Transform(buf.Bytes())
	require.NoError(t, err)
	disk, err := png.Decode(bytes.NewReader(out))
	require.NoError(t, err)

	center := DiskSize / 2
	// Left of center maps into the blue half, right of center into the green
	_, _, b, _ := disk.At(center-center/2, center).RGBA()
	assert.NotZero(t, b)
	_, g, _, _ := disk.At(center+center/2, center).RGBA()
	assert.NotZero(t, g)
}

func TestTransformRejectsGarbage(t *testing.T) {
	_, err := Transform([]byte("not an image"))
	assert.Error(t, err)
}

func TestTransformDeterministic(t *testing.T) {
	artwork := solidArtwork(t, 300, 300, color.RGBA{R: 10, G: 120, B: 90, A: 255})

	first, err := Transform(artwork)
	require.NoError(t, err)
	second, err := Transform(artwork)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
