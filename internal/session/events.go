package session

import (
	"fmt"
	"image"
	"strings"

	"github.com/jmylchreest/colorhunter/internal/colour"
)

// SwatchEvent identifies the swatch a pointer event happened on.
type SwatchEvent struct {
	Index  int
	Colour colour.RGB
}

// Handlers receives user actions from a view.
type Handlers interface {
	// OnAdd loads and extracts the image at source.
	OnAdd(source string)

	// OnDelete removes the image at index.
	OnDelete(index int)

	// OnSelect displays the image at index. Negative indices are ignored.
	OnSelect(index int)

	// OnSwatchClick copies the swatch colour to the clipboard.
	OnSwatchClick(ev SwatchEvent)

	// OnSwatchLeave clears the copied marker of the swatch.
	OnSwatchLeave(ev SwatchEvent)
}

// View renders session state.
type View interface {
	// ShowLibrary lists the loaded images and highlights the selected one.
	ShowLibrary(ids []string, selected int)

	// ShowPalette draws the palette as a SwatchColumns-wide grid.
	ShowPalette(p *colour.Palette)

	// ShowPreview draws the preview thumbnail.
	ShowPreview(img image.Image)

	// Reset clears the palette and preview.
	Reset()

	// ShowError reports a failed action.
	ShowError(err error)

	// ShowCopied toggles the copied marker on the swatch at index.
	ShowCopied(index int, copied bool)
}

// Clipboard receives copied colour values.
type Clipboard interface {
	Copy(text string) error
}

// CopyFormat selects the text placed on the clipboard for a colour.
type CopyFormat string

const (
	// CopyHex copies "#rrggbb".
	CopyHex CopyFormat = "hex"

	// CopyRGB copies "rgb(r, g, b)".
	CopyRGB CopyFormat = "rgb"
)

// ParseCopyFormat validates a copy format name.
func ParseCopyFormat(s string) (CopyFormat, error) {
	switch f := CopyFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case CopyHex, CopyRGB:
		return f, nil
	case "":
		return CopyHex, nil
	default:
		return "", fmt.Errorf("unknown copy format: %q (valid formats: hex, rgb)", s)
	}
}

// Format renders c in the copy format.
func (f CopyFormat) Format(c colour.RGB) string {
	if f == CopyRGB {
		return c.String()
	}
	return c.Hex()
}

const copiedSuffix = " copied."

// SwatchTooltip returns the tooltip text of a swatch.
func SwatchTooltip(c colour.RGB, f CopyFormat, copied bool) string {
	text := f.Format(c)
	if copied {
		return text + copiedSuffix
	}
	return text
}
