package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/jmylchreest/colorhunter/internal/colour"
	"github.com/jmylchreest/colorhunter/internal/image"
)

// Output formats supported by extract.
const (
	formatHex   = "hex"
	formatRGB   = "rgb"
	formatJSON  = "json"
	formatTable = "table"
	formatGrid  = "grid"
)

var extractFormats = []string{formatHex, formatRGB, formatJSON, formatTable, formatGrid}

type extractOptions struct {
	format  string
	output  string
	preview bool
}

// extraction is the palette of one source.
type extraction struct {
	source  string
	palette *colour.Palette
}

func newExtractCmd(rt *appState) *cobra.Command {
	opts := &extractOptions{}

	cmd := &cobra.Command{
		Use:   "extract <image|directory|url>...",
		Short: "Extract the colour palette of one or more images",
		Long: `Extract the dominant colour palette of each image.

Directories expand to the supported images they contain. HTTP(S) URLs are
downloaded, and cached when --cache-dir is set.

Supported image formats: JPEG, PNG, GIF, WebP, BMP, TIFF

Examples:
  # Print the palette as hex codes
  colorhunter extract wallpaper.jpg

  # Reproducible palette as JSON
  colorhunter extract --seed 42 --format json wallpaper.jpg

  # Colour grid in the terminal
  colorhunter extract --format grid --preview wallpaper.png

  # Every image of a directory, as tables with weights
  colorhunter extract -f table ~/Pictures/wallpapers`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExtract(cmd, rt, opts, args)
		},
	}

	cmd.Flags().StringVarP(&opts.format, "format", "f", formatHex, "output format ("+strings.Join(extractFormats, ", ")+")")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default: stdout)")
	cmd.Flags().BoolVar(&opts.preview, "preview", false, "show colour previews when writing to a terminal")
	return cmd
}

// runExtract executes the extract command.
func runExtract(cmd *cobra.Command, rt *appState, opts *extractOptions, args []string) error {
	if !isExtractFormat(opts.format) {
		return fmt.Errorf("unsupported format: %s (supported: %s)", opts.format, strings.Join(extractFormats, ", "))
	}

	paths, err := image.ExpandPaths(args)
	if err != nil {
		return err
	}
	for _, path := range paths {
		if err := image.ValidateImagePath(path); err != nil {
			return fmt.Errorf("invalid image path: %w", err)
		}
	}

	loader := image.NewSmartLoader(rt.loaderOptions())

	results := make([]extraction, 0, len(paths))
	for _, path := range paths {
		img, err := loader.LoadContext(cmd.Context(), path)
		if err != nil {
			return fmt.Errorf("failed to load image: %w", err)
		}

		// A fresh extractor per image keeps seeded output independent of
		// argument order.
		extractor, err := colour.NewExtractor(rt.cfg.Algorithm, rt.extractorOptions())
		if err != nil {
			return fmt.Errorf("failed to create extractor: %w", err)
		}

		palette, err := extractor.Extract(img)
		if err != nil {
			return fmt.Errorf("failed to extract colours from %s: %w", path, err)
		}
		rt.logger.Info("palette extracted", "source", path, "colours", palette.Len())
		results = append(results, extraction{source: path, palette: palette})
	}

	var out io.Writer = cmd.OutOrStdout()
	if opts.output != "" {
		file, err := os.Create(opts.output) // #nosec G304 - User-specified output path
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer file.Close()
		out = file
	}

	showPreview := opts.preview && isTerminal(out)
	if opts.preview && !showPreview {
		rt.logger.Debug("preview disabled, output is not a terminal")
	}

	text, err := formatExtractions(results, opts.format, showPreview)
	if err != nil {
		return err
	}
	if _, err := io.WriteString(out, text); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func isExtractFormat(format string) bool {
	return slices.Contains(extractFormats, format)
}

// isTerminal reports whether w is a terminal. Only files can be.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// formatExtractions renders all results. JSON output is a single document
// for one source and an array otherwise; text formats separate sources with
// a "# source" header when there is more than one.
func formatExtractions(results []extraction, format string, showPreview bool) (string, error) {
	if format == formatJSON {
		docs := make([]colour.PaletteJSON, len(results))
		for i, r := range results {
			docs[i] = r.palette.JSON(r.source)
		}
		var v any = docs
		if len(docs) == 1 {
			v = docs[0]
		}
		data, err := marshalIndent(v)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}

	var sb strings.Builder
	for i, r := range results {
		if len(results) > 1 {
			if i > 0 {
				sb.WriteString("\n")
			}
			fmt.Fprintf(&sb, "# %s\n", r.source)
		}
		text, err := formatPalette(r.palette, format, showPreview)
		if err != nil {
			return "", err
		}
		sb.WriteString(text)
	}
	return sb.String(), nil
}

// formatPalette formats one palette in a text format.
func formatPalette(palette *colour.Palette, format string, showPreview bool) (string, error) {
	switch format {
	case formatHex:
		return formatLines(palette, showPreview, colour.RGB.Hex), nil
	case formatRGB:
		return formatLines(palette, showPreview, colour.RGB.String), nil
	case formatTable:
		return formatTableOutput(palette, showPreview), nil
	case formatGrid:
		return colour.FormatGrid(palette, showPreview), nil
	case formatJSON:
		data, err := palette.ToJSON("")
		if err != nil {
			return "", fmt.Errorf("failed to convert to JSON: %w", err)
		}
		return string(data) + "\n", nil
	default:
		return "", fmt.Errorf("unsupported format: %s (supported: %s)", format, strings.Join(extractFormats, ", "))
	}
}

func formatLines(palette *colour.Palette, showPreview bool, text func(colour.RGB) string) string {
	var sb strings.Builder
	for _, c := range palette.Colours {
		if showPreview {
			sb.WriteString(colour.ColourPreview(c, 4))
			sb.WriteString(" ")
		}
		sb.WriteString(text(c))
		sb.WriteString("\n")
	}
	return sb.String()
}

func formatTableOutput(palette *colour.Palette, showPreview bool) string {
	headers := []string{"#", "Hex", "RGB", "Bucket", "Weight"}
	if showPreview {
		headers = append([]string{"Swatch"}, headers...)
	}

	table := NewTable(headers...)
	for i, c := range palette.Colours {
		cells := []string{
			strconv.Itoa(i + 1),
			c.Hex(),
			c.String(),
			colour.Classify(c).String(),
			strconv.FormatFloat(palette.Weight(i), 'f', 4, 64),
		}
		if showPreview {
			cells = append([]string{colour.ColourPreview(c, 6)}, cells...)
		}
		table.AddRow(cells...)
	}
	return table.Render()
}

func marshalIndent(v any) ([]byte, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to convert to JSON: %w", err)
	}
	return append(data, '\n'), nil
}
