package cli

import (
	"fyne.io/fyne/v2/app"
	"github.com/spf13/cobra"

	"github.com/jmylchreest/colorhunter/internal/colour"
	"github.com/jmylchreest/colorhunter/internal/gui"
	"github.com/jmylchreest/colorhunter/internal/image"
	"github.com/jmylchreest/colorhunter/internal/session"
)

const appID = "io.github.jmylchreest.colorhunter"

func newGUICmd(rt *appState) *cobra.Command {
	var copyFormat string

	cmd := &cobra.Command{
		Use:   "gui [image|url]...",
		Short: "Open the desktop window",
		Long: `Open the desktop window.

Add images with the buttons under the image list. Selecting an image shows
its palette and a preview. Click a swatch to copy its colour to the
clipboard.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := session.ParseCopyFormat(copyFormat)
			if err != nil {
				return err
			}
			sources, err := image.ExpandPaths(args)
			if err != nil {
				return err
			}

			fyneApp := app.NewWithID(appID)
			win := fyneApp.NewWindow(gui.Title)

			controller, err := session.NewController(session.ControllerOptions{
				Loader: image.NewSmartLoader(rt.loaderOptions()),
				Extractors: func() (colour.Extractor, error) {
					return colour.NewExtractor(rt.cfg.Algorithm, rt.extractorOptions())
				},
				Clipboard:  gui.NewClipboard(win),
				CopyFormat: format,
				Logger:     rt.logger,
			})
			if err != nil {
				return err
			}
			defer controller.Close()

			view := gui.New(win, controller, controller.CopyFormat())
			controller.Attach(view)

			// Initial images are added one at a time so the list keeps
			// argument order.
			go func() {
				for _, source := range sources {
					<-controller.AddImage(cmd.Context(), source)
				}
			}()

			view.ShowAndRun()
			return nil
		},
	}

	cmd.Flags().StringVar(&copyFormat, "copy-format", string(session.CopyHex), "clipboard format for swatches (hex, rgb)")
	return cmd
}
