//go:build ignore

// Generates sample images for trying out palette extraction:
//
//	go run testdata/generate_test_image.go --dir testdata
package main

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"

	"github.com/spf13/pflag"
)

type sample struct {
	name string
	draw func(x, y, w, h int) color.RGBA
}

var samples = []sample{
	{
		// One colour: always the minimum of five identical swatches.
		name: "solid.png",
		draw: func(int, int, int, int) color.RGBA {
			return color.RGBA{R: 200, G: 100, B: 50, A: 255}
		},
	},
	{
		// Left half red, right half blue.
		name: "split.png",
		draw: func(x, _, w, _ int) color.RGBA {
			if x < w/2 {
				return color.RGBA{R: 255, A: 255}
			}
			return color.RGBA{B: 255, A: 255}
		},
	},
	{
		// Eight blocks, one per primary and secondary colour plus grey and orange.
		name: "blocks.png",
		draw: func(x, y, w, h int) color.RGBA {
			blocks := []color.RGBA{
				{R: 255, A: 255}, {G: 255, A: 255},
				{B: 255, A: 255}, {R: 255, G: 255, A: 255},
				{R: 255, B: 255, A: 255}, {G: 255, B: 255, A: 255},
				{R: 128, G: 128, B: 128, A: 255}, {R: 255, G: 128, A: 255},
			}
			return blocks[(y*4/h)*2+x*2/w]
		},
	},
	{
		// Smooth gradient with many distinct colours, reaching the 24 cluster cap.
		name: "gradient.png",
		draw: func(x, y, w, h int) color.RGBA {
			return color.RGBA{R: uint8(x * 255 / w), G: uint8(y * 255 / h), B: 128, A: 255}
		},
	},
}

func main() {
	dir := pflag.String("dir", "testdata", "output directory")
	size := pflag.Int("size", 400, "image width and height")
	pflag.Parse()

	for _, s := range samples {
		path := filepath.Join(*dir, s.name)
		if err := write(path, *size, s.draw); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("created", path)
	}
}

func write(path string, size int, draw func(x, y, w, h int) color.RGBA) error {
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	for y := range size {
		for x := range size {
			img.SetRGBA(x, y, draw(x, y, size, size))
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	if err := png.Encode(file, img); err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return nil
}
