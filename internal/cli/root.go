// Package cli provides the command-line interface for colorhunter.
package cli

import (
	"fmt"
	"io"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/jmylchreest/colorhunter/internal/colour"
	"github.com/jmylchreest/colorhunter/internal/config"
	"github.com/jmylchreest/colorhunter/internal/image"
	"github.com/jmylchreest/colorhunter/internal/logging"
	"github.com/jmylchreest/colorhunter/internal/version"
)

// appState holds what PersistentPreRunE resolves for the subcommands.
type appState struct {
	cfg    config.Config
	logger hclog.Logger
}

// NewRootCmd builds the colorhunter command tree.
func NewRootCmd() *cobra.Command {
	rt := &appState{}

	rootCmd := &cobra.Command{
		Use:   "colorhunter",
		Short: "Extract dominant colour palettes from images",
		Long: `colorhunter extracts a small, ordered palette of dominant colours from images.

Pixels are clustered with k-means; the number of clusters grows with the
number of distinct colours in the image (between 5 and 24). Colours are
grouped by their dominant channel (red, green, blue) and ordered by
brightness within each group.

Use it from the terminal, run it as an HTTP service, or open the desktop
window and click a swatch to copy its colour.`,
		Version:      version.Short(),
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return rt.init(cmd)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.BoolP("verbose", "v", false, "enable verbose output")
	flags.BoolP("quiet", "q", false, "suppress non-error output")
	flags.Bool("log-json", false, "write logs as JSON")
	flags.String("log-level", "", "log level ("+logging.LevelNames()+"), overrides --verbose and --quiet")
	flags.StringP("algorithm", "a", string(colour.AlgorithmKMeans), fmt.Sprintf("clustering algorithm %v", colour.ValidAlgorithms()))
	flags.Int64("seed", 0, "random seed for reproducible kmeans palettes")
	flags.Int("max-samples", 0, "maximum pixels to cluster (0 clusters every pixel)")
	flags.String("cache-dir", "", "cache directory for remote images (disabled when empty)")
	flags.Int64("max-pixels", config.DefaultMaxPixels, "reject images with more pixels (0 disables the check)")

	rootCmd.SetVersionTemplate(version.String() + "\n")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newExtractCmd(rt))
	rootCmd.AddCommand(newSortCmd(rt))
	rootCmd.AddCommand(newServeCmd(rt))
	rootCmd.AddCommand(newGUICmd(rt))

	return rootCmd
}

// init resolves configuration (defaults, then environment, then flags that
// were explicitly set) and builds the logger.
func (rt *appState) init(cmd *cobra.Command) error {
	cfg, err := config.NewBuilder().WithEnvConfig().Build()
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if err := applyFlags(&cfg, flags); err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	verbose, _ := flags.GetBool("verbose")
	quiet, _ := flags.GetBool("quiet")
	logJSON, _ := flags.GetBool("log-json")
	logger, err := logging.New(logging.Options{
		Output:  cmd.ErrOrStderr(),
		Verbose: verbose,
		Quiet:   quiet,
		Level:   cfg.LogLevel,
		JSON:    logJSON,
	})
	if err != nil {
		return err
	}

	rt.cfg = cfg
	rt.logger = logger
	logger.Debug("configuration resolved",
		"algorithm", cfg.Algorithm, "seeded", cfg.Seed != nil,
		"max_samples", cfg.MaxSamples, "cache_dir", cfg.CacheDir)
	return nil
}

// applyFlags copies explicitly set flags over cfg. Flags that a subcommand
// does not define are never visited.
func applyFlags(cfg *config.Config, flags *pflag.FlagSet) error {
	var err error
	flags.Visit(func(f *pflag.Flag) {
		if err != nil {
			return
		}
		switch f.Name {
		case "algorithm":
			cfg.Algorithm = colour.Algorithm(f.Value.String())
		case "seed":
			var seed int64
			if seed, err = flags.GetInt64(f.Name); err == nil {
				cfg.Seed = &seed
			}
		case "max-samples":
			cfg.MaxSamples, err = flags.GetInt(f.Name)
		case "cache-dir":
			cfg.CacheDir = f.Value.String()
		case "log-level":
			cfg.LogLevel = f.Value.String()
		case "listen":
			cfg.Listen = f.Value.String()
		case "max-upload-bytes":
			cfg.MaxUploadBytes, err = flags.GetInt64(f.Name)
		case "max-pixels":
			cfg.MaxPixels, err = flags.GetInt64(f.Name)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to read flags: %w", err)
	}
	return nil
}

// loaderOptions returns image loader options for local use: remote
// downloads and decoded sizes are bounded, any URL the user names is allowed.
func (rt *appState) loaderOptions() image.SmartLoaderOptions {
	return image.SmartLoaderOptions{
		CacheDir:  rt.cfg.CacheDir,
		MaxBytes:  rt.cfg.MaxUploadBytes,
		MaxPixels: rt.cfg.MaxPixels,
		Logger:    rt.logger,
	}
}

// extractorOptions returns extractor options carrying the runtime logger.
func (rt *appState) extractorOptions() colour.ExtractorOptions {
	opts := rt.cfg.ExtractorOptions()
	opts.Logger = rt.logger
	return opts
}

func newVersionCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long:  `Print detailed version information including build date, commit hash, and Go version.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), version.GetInfo())
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), version.String())
			return err
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print version information as JSON")
	return cmd
}

func writeJSON(w io.Writer, v any) error {
	data, err := marshalIndent(v)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}
