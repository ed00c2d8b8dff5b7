package colour

import (
	"image"
	"image/color"
)

// solidImage returns a w×h image filled with c.
func solidImage(w, h int, c RGB) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.Set(x, y, color.RGBA{R: c.R, G: c.G, B: c.B, A: 255})
		}
	}
	return img
}

// splitImage returns a w×h image whose left half is left and right half is right.
func splitImage(w, h int, left, right RGB) *image.RGBA {
	img := solidImage(w, h, left)
	for y := range h {
		for x := w / 2; x < w; x++ {
			img.Set(x, y, color.RGBA{R: right.R, G: right.G, B: right.B, A: 255})
		}
	}
	return img
}

// gradientImage returns an image with many distinct colours.
func gradientImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.Set(x, y, color.RGBA{
				R: uint8(x * 255 / max(w-1, 1)),
				G: uint8(y * 255 / max(h-1, 1)),
				B: uint8((x + y) * 255 / max(w+h-2, 1)),
				A: 255,
			})
		}
	}
	return img
}

func seed(v int64) *int64 {
	return &v
}
