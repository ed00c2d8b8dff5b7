package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/colorhunter/internal/colour"
)

type sortOptions struct {
	format  string
	preview bool
}

func newSortCmd(rt *appState) *cobra.Command {
	opts := &sortOptions{}

	cmd := &cobra.Command{
		Use:   "sort <hex>...",
		Short: "Order colours the way extracted palettes are ordered",
		Long: `Order hex colours by dominant channel (red, green, blue) and by
brightness within each group, without reading an image.

Examples:
  colorhunter sort '#0000ff' ff0000 '#00ff00'
  colorhunter sort -f table 1a2b3c c86432`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSort(cmd.OutOrStdout(), rt, opts, args)
		},
	}

	cmd.Flags().StringVarP(&opts.format, "format", "f", formatHex, "output format ("+strings.Join(extractFormats, ", ")+")")
	cmd.Flags().BoolVar(&opts.preview, "preview", false, "show colour previews when writing to a terminal")
	return cmd
}

func runSort(out io.Writer, rt *appState, opts *sortOptions, args []string) error {
	if !isExtractFormat(opts.format) {
		return fmt.Errorf("unsupported format: %s (supported: %s)", opts.format, strings.Join(extractFormats, ", "))
	}

	colours := make([]colour.RGB, len(args))
	for i, arg := range args {
		c, err := colour.ParseHex(arg)
		if err != nil {
			return fmt.Errorf("%w: %w", colour.ErrInvalidInput, err)
		}
		colours[i] = c
	}

	palette := colour.NewPalette(colours)
	palette.Sort()
	rt.logger.Debug("colours sorted", "colours", palette.ToHex())

	text, err := formatPalette(palette, opts.format, opts.preview && isTerminal(out))
	if err != nil {
		return err
	}
	if _, err := io.WriteString(out, text); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
