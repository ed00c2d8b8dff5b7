// Package logging builds the hclog loggers used across colorhunter.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/hashicorp/go-hclog"
)

// Options controls logger construction.
type Options struct {
	// Name is the root logger name.
	Name string

	// Output receives log lines. Defaults to os.Stderr.
	Output io.Writer

	// Verbose enables debug output.
	Verbose bool

	// Quiet limits output to errors. Verbose wins if both are set.
	Quiet bool

	// Level overrides Verbose and Quiet when non-empty
	// (trace, debug, info, warn, error, off).
	Level string

	// JSON switches to JSON formatted lines.
	JSON bool
}

// New creates a logger from opts.
func New(opts Options) (hclog.Logger, error) {
	level, err := resolveLevel(opts)
	if err != nil {
		return nil, err
	}

	output := opts.Output
	if output == nil {
		output = os.Stderr
	}

	name := opts.Name
	if name == "" {
		name = "colorhunter"
	}

	return hclog.New(&hclog.LoggerOptions{
		Name:       name,
		Output:     output,
		Level:      level,
		JSONFormat: opts.JSON,
	}), nil
}

func resolveLevel(opts Options) (hclog.Level, error) {
	if opts.Level != "" {
		level := hclog.LevelFromString(opts.Level)
		if level == hclog.NoLevel {
			return hclog.NoLevel, fmt.Errorf("unknown log level: %q", opts.Level)
		}
		return level, nil
	}

	switch {
	case opts.Verbose:
		return hclog.Debug, nil
	case opts.Quiet:
		return hclog.Error, nil
	default:
		return hclog.Info, nil
	}
}

// LevelNames returns the accepted log level names.
func LevelNames() string {
	return strings.Join([]string{"trace", "debug", "info", "warn", "error", "off"}, ", ")
}
