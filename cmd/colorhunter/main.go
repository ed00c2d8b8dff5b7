// colorhunter - dominant colour palettes from images
//
// colorhunter clusters the pixels of an image into a small, ordered palette
// and shows it in the terminal, over HTTP or in a desktop window.
package main

import (
	"os"

	"github.com/jmylchreest/colorhunter/internal/cli"
)

func main() {
	if err := cli.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
