package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/jmylchreest/colorhunter/internal/colour"
	"github.com/jmylchreest/colorhunter/internal/config"
	imgutil "github.com/jmylchreest/colorhunter/internal/image"
	"github.com/jmylchreest/colorhunter/internal/security"
)

func pngBytes(t *testing.T, w, h int, fill func(x, y int) color.RGBA) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.SetRGBA(x, y, fill(x, y))
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode() error = %v", err)
	}
	return buf.Bytes()
}

func solidPNG(t *testing.T, w, h int, c color.RGBA) []byte {
	return pngBytes(t, w, h, func(int, int) color.RGBA { return c })
}

func newTestServer(t *testing.T, mutate func(*Options)) *httptest.Server {
	t.Helper()
	seed := int64(1)
	cfg := config.Default()
	cfg.Seed = &seed
	cfg.MaxUploadBytes = 1 << 20

	opts := Options{Config: cfg}
	if mutate != nil {
		mutate(&opts)
	}
	s, err := New(opts)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func decodeBody(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func TestHealthAndVersion(t *testing.T) {
	ts := newTestServer(t, nil)

	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz error = %v", err)
	}
	var health map[string]string
	decodeBody(t, resp, &health)
	if resp.StatusCode != http.StatusOK || health["status"] != "ok" {
		t.Errorf("GET /healthz = %d %v", resp.StatusCode, health)
	}

	resp, err = http.Get(ts.URL + "/version")
	if err != nil {
		t.Fatalf("GET /version error = %v", err)
	}
	var info map[string]string
	decodeBody(t, resp, &info)
	if resp.StatusCode != http.StatusOK || info["version"] == "" {
		t.Errorf("GET /version = %d %v", resp.StatusCode, info)
	}
}

func TestPaletteFromBody(t *testing.T) {
	ts := newTestServer(t, nil)

	body := solidPNG(t, 20, 20, color.RGBA{R: 200, G: 100, B: 50, A: 255})
	resp, err := http.Post(ts.URL+"/v1/palette", "image/png", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("POST error = %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}

	var got colour.PaletteJSON
	decodeBody(t, resp, &got)
	if got.Count != colour.MinClusters || len(got.Colours) != colour.MinClusters {
		t.Fatalf("count = %d (%d colours), want %d", got.Count, len(got.Colours), colour.MinClusters)
	}

	total := 0.0
	for _, c := range got.Colours {
		if c.Bucket != "red" {
			t.Errorf("colour %s bucket = %q, want red", c.Hex, c.Bucket)
		}
		total += c.Weight
	}
	if total < 0.999 || total > 1.001 {
		t.Errorf("weights sum to %f, want 1", total)
	}
}

func TestPaletteSeededRequestsAgree(t *testing.T) {
	ts := newTestServer(t, nil)
	body := pngBytes(t, 24, 24, func(x, y int) color.RGBA {
		return color.RGBA{R: uint8(x * 10), G: uint8(y * 10), B: uint8((x + y) * 5), A: 255}
	})

	var results [2]colour.PaletteJSON
	for i := range results {
		resp, err := http.Post(ts.URL+"/v1/palette?seed=9", "image/png", bytes.NewReader(body))
		if err != nil {
			t.Fatalf("POST error = %v", err)
		}
		decodeBody(t, resp, &results[i])
	}

	if len(results[0].Colours) != len(results[1].Colours) {
		t.Fatalf("palette lengths differ: %d vs %d", len(results[0].Colours), len(results[1].Colours))
	}
	for i := range results[0].Colours {
		if results[0].Colours[i].Hex != results[1].Colours[i].Hex {
			t.Errorf("colour %d differs: %s vs %s", i, results[0].Colours[i].Hex, results[1].Colours[i].Hex)
		}
	}
}

func TestPaletteErrors(t *testing.T) {
	ts := newTestServer(t, func(o *Options) {
		o.Config.MaxUploadBytes = 4096
	})

	tests := []struct {
		name   string
		query  string
		body   []byte
		status int
	}{
		{name: "empty body", body: nil, status: http.StatusBadRequest},
		{name: "not an image", body: []byte("definitely not a png"), status: http.StatusBadRequest},
		{name: "unknown algorithm", query: "?algorithm=median", body: solidPNG(t, 8, 8, color.RGBA{A: 255}), status: http.StatusBadRequest},
		{name: "bad seed", query: "?seed=abc", body: solidPNG(t, 8, 8, color.RGBA{A: 255}), status: http.StatusBadRequest},
		{name: "too few pixels", body: solidPNG(t, 2, 2, color.RGBA{R: 9, A: 255}), status: http.StatusUnprocessableEntity},
		{name: "too large", body: bytes.Repeat([]byte{0}, 5000), status: http.StatusRequestEntityTooLarge},
		{name: "private url", query: "?url=https://127.0.0.1/a.png", status: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Post(ts.URL+"/v1/palette"+tt.query, "application/octet-stream", bytes.NewReader(tt.body))
			if err != nil {
				t.Fatalf("POST error = %v", err)
			}
			var body errorResponse
			decodeBody(t, resp, &body)
			if resp.StatusCode != tt.status {
				t.Errorf("status = %d, want %d (error %q)", resp.StatusCode, tt.status, body.Error)
			}
			if body.Error == "" {
				t.Error("error body is empty")
			}
		})
	}
}

func TestPaletteFromURL(t *testing.T) {
	images := map[string][]byte{
		"/blue.png": solidPNG(t, 16, 16, color.RGBA{R: 10, G: 20, B: 220, A: 255}),
		"/junk.png": []byte("junk"),
	}
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, ok := images[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write(data)
	}))
	defer upstream.Close()

	ts := newTestServer(t, func(o *Options) {
		o.ValidateURL = func(string) error { return nil }
	})

	tests := []struct {
		name   string
		path   string
		status int
	}{
		{name: "ok", path: "/blue.png", status: http.StatusOK},
		{name: "undecodable", path: "/junk.png", status: http.StatusBadRequest},
		{name: "missing", path: "/missing.png", status: http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := upstream.URL + tt.path
			resp, err := http.Post(ts.URL+"/v1/palette?url="+src, "", nil)
			if err != nil {
				t.Fatalf("POST error = %v", err)
			}
			if resp.StatusCode != tt.status {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tt.status)
			}
			if tt.status != http.StatusOK {
				resp.Body.Close()
				return
			}
			var got colour.PaletteJSON
			decodeBody(t, resp, &got)
			if got.Source != src {
				t.Errorf("source = %q, want %q", got.Source, src)
			}
			for _, c := range got.Colours {
				if c.Bucket != "blue" {
					t.Errorf("colour %s bucket = %q, want blue", c.Hex, c.Bucket)
				}
			}
		})
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{err: fmt.Errorf("x: %w", colour.ErrInvalidInput), want: http.StatusBadRequest},
		{err: fmt.Errorf("x: %w", imgutil.ErrDecode), want: http.StatusBadRequest},
		{err: fmt.Errorf("x: %w", colour.ErrClusteringFailed), want: http.StatusUnprocessableEntity},
		{err: fmt.Errorf("x: %w", security.ErrLimitExceeded), want: http.StatusRequestEntityTooLarge},
		{err: errBodyTooLarge, want: http.StatusRequestEntityTooLarge},
		{err: fmt.Errorf("%w: boom", errUpstream), want: http.StatusBadGateway},
		{err: errors.New("disk on fire"), want: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(strings.ReplaceAll(tt.err.Error(), " ", "_"), func(t *testing.T) {
			if got := statusFor(tt.err); got != tt.want {
				t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Algorithm = "bogus"
	if _, err := New(Options{Config: cfg}); err == nil {
		t.Error("New() with an unknown algorithm should fail")
	}
}

func TestPaletteFromURLRejectsRedirectToPrivateHost(t *testing.T) {
	var privateHits atomic.Int32
	private := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		privateHits.Add(1)
		_, _ = w.Write(solidPNG(t, 8, 8, color.RGBA{R: 255, A: 255}))
	}))
	defer private.Close()

	public := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, private.URL+"/metadata.png", http.StatusFound)
	}))
	defer public.Close()

	ts := newTestServer(t, func(o *Options) {
		o.ValidateURL = func(u string) error {
			if strings.HasPrefix(u, private.URL) {
				return errors.New("private host")
			}
			return nil
		}
	})

	resp, err := http.Post(ts.URL+"/v1/palette?url="+public.URL+"/wall.png", "", nil)
	if err != nil {
		t.Fatalf("POST error = %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadGateway {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusBadGateway)
	}
	if n := privateHits.Load(); n != 0 {
		t.Errorf("private host was requested %d times, want 0", n)
	}
}

func TestPaletteLimits(t *testing.T) {
	big := solidPNG(t, 64, 64, color.RGBA{G: 200, A: 255})
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(big)
	}))
	defer upstream.Close()

	tests := []struct {
		name   string
		mutate func(*config.Config)
		query  string
		body   []byte
	}{
		{
			name:   "body over pixel limit",
			mutate: func(c *config.Config) { c.MaxPixels = 1000 },
			body:   big,
		},
		{
			name:   "download over byte limit",
			mutate: func(c *config.Config) { c.MaxUploadBytes = int64(len(big) - 1) },
			query:  "?url=" + upstream.URL + "/big.png",
		},
		{
			name:   "download over pixel limit",
			mutate: func(c *config.Config) { c.MaxPixels = 1000 },
			query:  "?url=" + upstream.URL + "/big.png",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t, func(o *Options) {
				tt.mutate(&o.Config)
				o.ValidateURL = func(string) error { return nil }
			})
			resp, err := http.Post(ts.URL+"/v1/palette"+tt.query, "image/png", bytes.NewReader(tt.body))
			if err != nil {
				t.Fatalf("POST error = %v", err)
			}
			resp.Body.Close()
			if resp.StatusCode != http.StatusRequestEntityTooLarge {
				t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusRequestEntityTooLarge)
			}
		})
	}
}
