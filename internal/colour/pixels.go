package colour

import (
	"image"
	"math"
)

// Point is a position in RGB colour space with real-valued channels.
type Point struct {
	R, G, B float64
}

// toPoint widens an 8-bit colour to a Point.
func toPoint(c RGB) Point {
	return Point{R: float64(c.R), G: float64(c.G), B: float64(c.B)}
}

// distanceSq returns the squared Euclidean distance between two points.
func (p Point) distanceSq(other Point) float64 {
	dr := p.R - other.R
	dg := p.G - other.G
	db := p.B - other.B
	return dr*dr + dg*dg + db*db
}

// RGB rounds each channel to the nearest integer and clamps it to [0, 255].
func (p Point) RGB() RGB {
	return RGB{R: roundChannel(p.R), G: roundChannel(p.G), B: roundChannel(p.B)}
}

func roundChannel(v float64) uint8 {
	switch {
	case math.IsNaN(v), v <= 0:
		return 0
	case v >= 255:
		return 255
	default:
		return uint8(math.Round(v))
	}
}

// Pixels flattens an image into a pixel stream in row-major order.
// Alpha is ignored: translucent pixels contribute their straight colour.
func Pixels(img image.Image) []RGB {
	bounds := img.Bounds()
	pixels := make([]RGB, 0, bounds.Dx()*bounds.Dy())

	// Fast path for the layouts produced by the standard decoders.
	switch src := img.(type) {
	case *image.RGBA:
		for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
			row := src.Pix[src.PixOffset(bounds.Min.X, y):src.PixOffset(bounds.Max.X, y)]
			for i := 0; i+4 <= len(row); i += 4 {
				pixels = append(pixels, RGB{R: row[i], G: row[i+1], B: row[i+2]})
			}
		}
		return pixels
	case *image.NRGBA:
		for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
			row := src.Pix[src.PixOffset(bounds.Min.X, y):src.PixOffset(bounds.Max.X, y)]
			for i := 0; i+4 <= len(row); i += 4 {
				pixels = append(pixels, RGB{R: row[i], G: row[i+1], B: row[i+2]})
			}
		}
		return pixels
	}

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			pixels = append(pixels, ToRGB(img.At(x, y)))
		}
	}
	return pixels
}

// UniqueColours returns the number of distinct colours in a pixel stream.
func UniqueColours(pixels []RGB) int {
	seen := make(map[RGB]struct{}, min(len(pixels), 1<<16))
	for _, p := range pixels {
		seen[p] = struct{}{}
	}
	return len(seen)
}

// samplePixels reduces a pixel stream to at most maxSamples entries using a
// fixed stride, so the sample stays spread across the whole image.
// A non-positive maxSamples keeps every pixel.
func samplePixels(pixels []RGB, maxSamples int) []RGB {
	if maxSamples <= 0 || len(pixels) <= maxSamples {
		return pixels
	}

	step := float64(len(pixels)) / float64(maxSamples)
	sampled := make([]RGB, 0, maxSamples)
	for i := range maxSamples {
		sampled = append(sampled, pixels[int(float64(i)*step)])
	}
	return sampled
}
