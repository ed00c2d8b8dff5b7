// Package colour provides colour extraction and palette ordering functionality.
package colour

import (
	"encoding/json"
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

// Palette is an ordered set of representative colours extracted from an image.
// Weights, when present, hold the fraction of pixels each colour represents and
// are index-aligned with Colours.
type Palette struct {
	Colours []RGB
	Weights []float64
}

// NewPalette creates a new Palette with the given colours and no weights.
func NewPalette(colours []RGB) *Palette {
	return &Palette{
		Colours: colours,
	}
}

// NewPaletteWithWeights creates a new Palette with index-aligned weights.
func NewPaletteWithWeights(colours []RGB, weights []float64) *Palette {
	return &Palette{
		Colours: colours,
		Weights: weights,
	}
}

// Len returns the number of colours in the palette.
func (p *Palette) Len() int {
	return len(p.Colours)
}

// Weight returns the weight of the colour at index i, or 0 if the palette
// carries no weights.
func (p *Palette) Weight(i int) float64 {
	if i < 0 || i >= len(p.Weights) {
		return 0
	}
	return p.Weights[i]
}

// RGB represents a colour in RGB format.
type RGB struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

// String returns the RGB colour as a string in the format "rgb(r, g, b)".
func (rgb RGB) String() string {
	return fmt.Sprintf("rgb(%d, %d, %d)", rgb.R, rgb.G, rgb.B)
}

// Hex returns the RGB colour as a hex string (e.g., "#1a2b3c").
func (rgb RGB) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", rgb.R, rgb.G, rgb.B)
}

// RGBA implements color.Color with full opacity.
func (rgb RGB) RGBA() (r, g, b, a uint32) {
	return color.RGBA{R: rgb.R, G: rgb.G, B: rgb.B, A: 255}.RGBA()
}

// ToRGB converts a color.Color to its straight (non-premultiplied) RGB
// value and drops alpha.
func ToRGB(c color.Color) RGB {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return RGB{R: n.R, G: n.G, B: n.B}
}

// ParseHex parses "#rrggbb" or "rrggbb" into an RGB value.
func ParseHex(s string) (RGB, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) != 6 {
		return RGB{}, fmt.Errorf("invalid hex colour %q: want 6 hex digits", s)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return RGB{}, fmt.Errorf("invalid hex colour %q: %w", s, err)
	}
	return RGB{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v)}, nil
}

// ToHex converts the palette colours to hex strings.
// Returns a slice of hex colour codes (e.g., ["#1a2b3c", "#4d5e6f"]).
func (p *Palette) ToHex() []string {
	hexColours := make([]string, len(p.Colours))
	for i, c := range p.Colours {
		hexColours[i] = c.Hex()
	}
	return hexColours
}

// ColourJSON represents a colour in JSON output format.
type ColourJSON struct {
	Hex    string  `json:"hex"`
	RGB    RGB     `json:"rgb"`
	Bucket string  `json:"bucket"`
	Weight float64 `json:"weight"`
}

// PaletteJSON represents the palette in JSON format.
type PaletteJSON struct {
	Source  string       `json:"source,omitempty"`
	Count   int          `json:"count"`
	Colours []ColourJSON `json:"colours"`
}

// JSON returns the JSON document form of the palette.
func (p *Palette) JSON(source string) PaletteJSON {
	colours := make([]ColourJSON, len(p.Colours))
	for i, c := range p.Colours {
		colours[i] = ColourJSON{
			Hex:    c.Hex(),
			RGB:    c,
			Bucket: Classify(c).String(),
			Weight: p.Weight(i),
		}
	}
	return PaletteJSON{
		Source:  source,
		Count:   len(p.Colours),
		Colours: colours,
	}
}

// ToJSON converts the palette to indented JSON.
func (p *Palette) ToJSON(source string) ([]byte, error) {
	return json.MarshalIndent(p.JSON(source), "", "  ")
}

// All returns an iterator over all colours in the palette.
func (p *Palette) All() func(func(int, RGB) bool) {
	return func(yield func(int, RGB) bool) {
		for i, c := range p.Colours {
			if !yield(i, c) {
				return
			}
		}
	}
}
