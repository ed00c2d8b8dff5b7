// Package server exposes palette extraction over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/hashicorp/go-hclog"

	"github.com/jmylchreest/colorhunter/internal/colour"
	"github.com/jmylchreest/colorhunter/internal/config"
	imgutil "github.com/jmylchreest/colorhunter/internal/image"
	"github.com/jmylchreest/colorhunter/internal/security"
	"github.com/jmylchreest/colorhunter/internal/version"
)

const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 10 * time.Second
)

var (
	// errBodyTooLarge marks request bodies over the upload limit.
	errBodyTooLarge = errors.New("request body too large")

	// errUpstream marks failures fetching a ?url= image.
	errUpstream = errors.New("failed to fetch remote image")
)

// URLLoader fetches remote images for ?url= requests.
type URLLoader interface {
	LoadContext(ctx context.Context, path string) (image.Image, error)
}

// Options configures a Server.
type Options struct {
	Config config.Config

	// Loader fetches remote images. Defaults to an uncached SmartLoader bounded
	// by the configured limits that re-validates every redirect.
	Loader URLLoader

	// ValidateURL vets ?url= parameters. Defaults to security.ValidateHTTPURL.
	ValidateURL func(string) error

	// Logger defaults to a null logger.
	Logger hclog.Logger
}

// Server serves the palette API.
type Server struct {
	cfg         config.Config
	loader      URLLoader
	validateURL func(string) error
	logger      hclog.Logger
	router      chi.Router
}

// New creates a Server.
func New(opts Options) (*Server, error) {
	if err := opts.Config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid server configuration: %w", err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	logger = logger.Named("server")

	validate := opts.ValidateURL
	if validate == nil {
		validate = security.ValidateHTTPURL
	}

	loader := opts.Loader
	if loader == nil {
		loader = imgutil.NewSmartLoader(imgutil.SmartLoaderOptions{
			CacheDir:    opts.Config.CacheDir,
			MaxBytes:    opts.Config.MaxUploadBytes,
			MaxPixels:   opts.Config.MaxPixels,
			ValidateURL: validate,
			Logger:      logger,
		})
	}

	s := &Server{
		cfg:         opts.Config,
		loader:      loader,
		validateURL: validate,
		logger:      logger,
	}
	s.router = s.routes()
	return s, nil
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Get("/version", s.handleVersion)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/palette", s.handlePalette)
	})
	return r
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on the configured address until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.router,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", s.cfg.Listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleVersion(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, version.GetInfo())
}

// handlePalette extracts a palette from the raw request body, or from the
// image at ?url= when given. ?algorithm= and ?seed= override the defaults.
func (s *Server) handlePalette(w http.ResponseWriter, r *http.Request) {
	extractor, err := s.extractorFor(r)
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, err)
		return
	}

	img, source, err := s.readImage(w, r)
	if err != nil {
		s.writeError(w, r, statusFor(err), err)
		return
	}

	palette, err := extractor.Extract(img)
	if err != nil {
		s.writeError(w, r, statusFor(err), err)
		return
	}

	writeJSON(w, http.StatusOK, palette.JSON(source))
}

func (s *Server) extractorFor(r *http.Request) (*colour.PaletteExtractor, error) {
	cfg := s.cfg
	q := r.URL.Query()

	if alg := q.Get("algorithm"); alg != "" {
		cfg.Algorithm = colour.Algorithm(alg)
	}
	if v := q.Get("seed"); v != "" {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid seed %q", v)
		}
		cfg.Seed = &seed
	}

	opts := cfg.ExtractorOptions()
	opts.Logger = s.logger
	return colour.NewExtractor(cfg.Algorithm, opts)
}

func (s *Server) readImage(w http.ResponseWriter, r *http.Request) (image.Image, string, error) {
	if rawURL := r.URL.Query().Get("url"); rawURL != "" {
		if err := s.validateURL(rawURL); err != nil {
			return nil, "", fmt.Errorf("%w: %w", colour.ErrInvalidInput, err)
		}
		img, err := s.loader.LoadContext(r.Context(), rawURL)
		if err != nil {
			if errors.Is(err, imgutil.ErrDecode) || errors.Is(err, security.ErrLimitExceeded) {
				return nil, "", err
			}
			return nil, "", fmt.Errorf("%w: %w", errUpstream, err)
		}
		return img, rawURL, nil
	}

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes))
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, "", fmt.Errorf("%w: limit is %d bytes", errBodyTooLarge, maxErr.Limit)
		}
		return nil, "", fmt.Errorf("failed to read request body: %w", err)
	}
	if len(data) == 0 {
		return nil, "", fmt.Errorf("%w: empty request body", colour.ErrInvalidInput)
	}

	img, err := imgutil.DecodeBytes(data, s.cfg.MaxPixels)
	if err != nil {
		return nil, "", err
	}
	return img, "", nil
}

// statusFor maps an extraction error to an HTTP status code.
func statusFor(err error) int {
	switch {
	case errors.Is(err, errBodyTooLarge), errors.Is(err, security.ErrLimitExceeded):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, colour.ErrInvalidInput), errors.Is(err, imgutil.ErrDecode):
		return http.StatusBadRequest
	case errors.Is(err, colour.ErrClusteringFailed):
		return http.StatusUnprocessableEntity
	case errors.Is(err, errUpstream):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "path", r.URL.Path, "request_id", middleware.GetReqID(r.Context()), "error", err)
	} else {
		s.logger.Debug("request rejected", "path", r.URL.Path, "status", status, "error", err)
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
