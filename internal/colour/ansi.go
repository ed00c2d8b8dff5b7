package colour

import (
	"fmt"
	"strings"
)

// ANSI escape codes for terminal colours.
const (
	ansiReset    = "\033[0m"
	ansiFgPrefix = "\033[38;2;"
	ansiBgPrefix = "\033[48;2;"
	ansiSuffix   = "m"
	defaultWidth = 8
)

// SwatchColumns is the number of swatches per row in a palette grid.
const SwatchColumns = 6

// ColourPreview returns an ANSI-coloured preview string for a colour.
// Width specifies how many characters wide the colour block should be.
func ColourPreview(c RGB, width int) string {
	if width <= 0 {
		width = defaultWidth
	}

	bgColour := fmt.Sprintf("%s%d;%d;%d%s", ansiBgPrefix, c.R, c.G, c.B, ansiSuffix)
	return bgColour + strings.Repeat(" ", width) + ansiReset
}

// ColourPreviewWithText returns a colour block with centred text drawn in
// black or white, whichever reads better on the colour.
func ColourPreviewWithText(c RGB, text string, width int) string {
	if width <= 0 {
		width = defaultWidth
	}

	fg := ContrastText(c)

	bgColour := fmt.Sprintf("%s%d;%d;%d%s", ansiBgPrefix, c.R, c.G, c.B, ansiSuffix)
	fgColour := fmt.Sprintf("%s%d;%d;%d%s", ansiFgPrefix, fg.R, fg.G, fg.B, ansiSuffix)

	// Pad or truncate text to fit width.
	displayText := text
	if len(text) > width {
		displayText = text[:width]
	} else if len(text) < width {
		padding := (width - len(text)) / 2
		displayText = strings.Repeat(" ", padding) + text + strings.Repeat(" ", width-len(text)-padding)
	}

	return bgColour + fgColour + displayText + ansiReset
}

// ContrastText returns black for light colours and white for dark ones.
func ContrastText(c RGB) RGB {
	if Luma(c) > 127.5 {
		return RGB{}
	}
	return RGB{R: 255, G: 255, B: 255}
}

// FormatColourWithPreview formats a colour with its preview and hex code.
func FormatColourWithPreview(rgb RGB, width int) string {
	return fmt.Sprintf("%s %s", ColourPreview(rgb, width), rgb.Hex())
}

// FormatGrid renders the palette as rows of SwatchColumns cells.
// Without preview the hex codes are laid out in the same grid.
func FormatGrid(p *Palette, showPreview bool) string {
	const cellWidth = 9

	var sb strings.Builder
	for start := 0; start < len(p.Colours); start += SwatchColumns {
		row := p.Colours[start:min(start+SwatchColumns, len(p.Colours))]
		cells := make([]string, len(row))
		for i, c := range row {
			if showPreview {
				cells[i] = ColourPreviewWithText(c, c.Hex(), cellWidth)
			} else {
				cells[i] = c.Hex()
			}
		}
		sb.WriteString(strings.Join(cells, " "))
		sb.WriteString("\n")
	}
	return sb.String()
}
