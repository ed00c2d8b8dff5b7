// Package http provides HTTP utilities for fetching remote images.
package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/jmylchreest/colorhunter/internal/security"
	"github.com/jmylchreest/colorhunter/internal/version"
)

const (
	// UserAgentName is the application name used in the User-Agent header.
	UserAgentName = "colorhunter"

	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 15 * time.Second

	// DefaultMaxBytes caps a response body when FetchOptions.MaxBytes is zero.
	DefaultMaxBytes int64 = 64 << 20

	// maxRedirects matches the net/http client default.
	maxRedirects = 10
)

// ErrRedirectRejected is returned when FetchOptions.ValidateRedirect refuses
// a redirect target.
var ErrRedirectRejected = errors.New("redirect rejected")

// FetchOptions configures HTTP fetch behavior.
type FetchOptions struct {
	// Timeout specifies the HTTP request timeout.
	// If zero, DefaultTimeout is used.
	Timeout time.Duration

	// MaxBytes limits the response body size. If zero, DefaultMaxBytes is used.
	MaxBytes int64

	// Headers specifies additional HTTP headers to send with the request.
	Headers map[string]string

	// ValidateRedirect, when set, vets the target of every redirect hop.
	ValidateRedirect func(url string) error
}

// Fetch retrieves content from a URL with context and timeout support.
// Non-200 responses, rejected redirects and bodies larger than the size
// limit are errors.
func Fetch(ctx context.Context, url string, opts FetchOptions) ([]byte, error) {
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	maxBytes := opts.MaxBytes
	if maxBytes == 0 {
		maxBytes = DefaultMaxBytes
	}

	client := &http.Client{
		Timeout: timeout,
	}
	if validate := opts.ValidateRedirect; validate != nil {
		client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return fmt.Errorf("stopped after %d redirects", maxRedirects)
			}
			if err := validate(req.URL.String()); err != nil {
				return fmt.Errorf("%w: %s: %w", ErrRedirectRejected, req.URL.Redacted(), err)
			}
			return nil
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", fmt.Sprintf("%s/%s", UserAgentName, version.Version))
	req.Header.Set("Accept", "image/*")
	for key, value := range opts.Headers {
		req.Header.Set(key, value)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}

	data, err := io.ReadAll(security.NewLimitedReader(resp.Body, maxBytes))
	if err != nil {
		if errors.Is(err, security.ErrLimitExceeded) {
			return nil, fmt.Errorf("response from %s exceeds %d bytes: %w", url, maxBytes, err)
		}
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return data, nil
}
