package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/colorhunter/internal/config"
	"github.com/jmylchreest/colorhunter/internal/server"
)

func newServeCmd(rt *appState) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve palette extraction over HTTP",
		Long: `Start an HTTP server exposing palette extraction.

Endpoints:
  POST /v1/palette   image in the request body, or ?url=https://... to fetch one
                     optional ?algorithm= and ?seed= override the defaults
  GET  /healthz      liveness check
  GET  /version      build information

Example:
  colorhunter serve --listen :8080
  curl --data-binary @wallpaper.jpg http://localhost:8080/v1/palette`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			srv, err := server.New(server.Options{
				Config: rt.cfg,
				Logger: rt.logger,
			})
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return srv.ListenAndServe(ctx)
		},
	}

	cmd.Flags().String("listen", config.DefaultListen, "address to listen on")
	cmd.Flags().Int64("max-upload-bytes", config.DefaultMaxUploadBytes, "maximum request body and download size")
	return cmd
}
