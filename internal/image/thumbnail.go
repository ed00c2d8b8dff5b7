package image

import (
	"image"

	"golang.org/x/image/draw"
)

// PreviewWidth and PreviewHeight bound the preview thumbnail.
const (
	PreviewWidth  = 300
	PreviewHeight = 170
)

// FitSize returns the largest size with the aspect ratio of w×h that fits
// inside maxW×maxH. Images that already fit keep their size.
func FitSize(w, h, maxW, maxH int) (int, int) {
	if w <= 0 || h <= 0 {
		return 0, 0
	}
	if w <= maxW && h <= maxH {
		return w, h
	}

	// Compare w/h against maxW/maxH without floating point.
	if w*maxH >= h*maxW {
		return maxW, max(1, h*maxW/w)
	}
	return max(1, w*maxH/h), maxH
}

// Thumbnail scales img down to fit inside maxW×maxH, preserving aspect ratio.
// The result is always a fresh *image.RGBA anchored at the origin.
func Thumbnail(img image.Image, maxW, maxH int) *image.RGBA {
	src := img.Bounds()
	w, h := FitSize(src.Dx(), src.Dy(), maxW, maxH)
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	if w == 0 || h == 0 {
		return dst
	}

	if w == src.Dx() && h == src.Dy() {
		draw.Draw(dst, dst.Bounds(), img, src.Min, draw.Src)
		return dst
	}

	draw.CatmullRom.Scale(dst, dst.Bounds(), img, src, draw.Src, nil)
	return dst
}
