// Package vinyl turns square album artwork into a vinyl-disk rendition:
// a circular crop with a center spindle hole, encoded as PNG.
package vinyl

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"

	_ "image/gif"
	_ "image/jpeg"
)

const (
	// DiskSize is the output edge length in pixels
	DiskSize = 1000

	// holeRatio is the spindle hole diameter relative to the disk diameter
	holeRatio = 0.14
)

// Transform decodes artwork bytes, scales them onto a DiskSize square,
// masks everything outside the disk circle to transparent and punches
// the spindle hole. Output is always PNG.
func Transform(artwork []byte) ([]byte, error) {
	src, _, err := image.Decode(bytes.NewReader(artwork))
	if err != nil {
		return nil, fmt.Errorf("failed to decode artwork: %w", err)
	}

	scaled := scaleSquare(src, DiskSize)
	disk := image.NewRGBA(image.Rect(0, 0, DiskSize, DiskSize))

	center := DiskSize / 2
	diskR := DiskSize / 2
	holeR := int(float64(DiskSize) * holeRatio / 2)

	for y := 0; y < DiskSize; y++ {
		for x := 0; x < DiskSize; x++ {
			dx := x - center
			dy := y - center
			d2 := dx*dx + dy*dy
			if d2 > diskR*diskR || d2 < holeR*holeR {
				continue
			}
			disk.Set(x, y, scaled.At(x, y))
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, disk); err != nil {
		return nil, fmt.Errorf("failed to encode vinyl disk: %w", err)
	}
	return buf.Bytes(), nil
}

// scaleSquare resizes src to a size x size square with nearest-neighbor
// sampling. Non-square sources are center-cropped to square first.
func scaleSquare(src image.Image, size int) *image.RGBA {
	b := src.Bounds()
	side := b.Dx()
	if b.Dy() < side {
		side = b.Dy()
	}
	offX := b.Min.X + (b.Dx()-side)/2
	offY := b.Min.Y + (b.Dy()-side)/2

	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.Transparent), image.Point{}, draw.Src)

	for y := 0; y < size; y++ {
		sy := offY + y*side/size
		for x := 0; x < size; x++ {
			sx := offX + x*side/size
			dst.Set(x, y, src.At(sx, sy))
		}
	}
	return dst
}
