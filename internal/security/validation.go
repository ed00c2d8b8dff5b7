// Package security provides input validation for remote image sources.
package security

import (
	"errors"
	"fmt"
	"io"
	"net/netip"
	"net/url"
	"strings"
)

// ErrLimitExceeded is returned by LimitedReader once more than the allowed
// number of bytes is available.
var ErrLimitExceeded = errors.New("size limit exceeded")

// ValidateHTTPURL validates an HTTP(S) URL for safe downloads.
// Only allows HTTPS from non-local hosts.
func ValidateHTTPURL(urlStr string) error {
	if urlStr == "" {
		return fmt.Errorf("empty URL")
	}

	parsed, err := url.Parse(urlStr)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}

	if !strings.EqualFold(parsed.Scheme, "https") {
		return fmt.Errorf("only HTTPS URLs are allowed (got %q)", parsed.Scheme)
	}

	if parsed.Host == "" {
		return fmt.Errorf("URL must have a hostname")
	}

	// Block localhost and private IPs to prevent SSRF
	host := strings.ToLower(parsed.Hostname())
	if isLocalOrPrivateHost(host) {
		return fmt.Errorf("URL cannot point to local or private hosts: %s", host)
	}

	return nil
}

// LimitedReader wraps an io.Reader and fails once the underlying reader has
// more than the allowed number of bytes. Reading exactly the limit is fine.
type LimitedReader struct {
	R         io.Reader
	Remaining int64
}

// Read implements io.Reader with size limits.
func (l *LimitedReader) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if l.Remaining <= 0 {
		var extra [1]byte
		n, err := l.R.Read(extra[:])
		if n > 0 {
			return 0, ErrLimitExceeded
		}
		return 0, err
	}
	if int64(len(p)) > l.Remaining {
		p = p[:l.Remaining]
	}
	n, err := l.R.Read(p)
	l.Remaining -= int64(n)
	return n, err
}

// NewLimitedReader creates a new LimitedReader with the specified size limit.
func NewLimitedReader(r io.Reader, maxBytes int64) *LimitedReader {
	return &LimitedReader{
		R:         r,
		Remaining: maxBytes,
	}
}

// isLocalOrPrivateHost checks if a hostname is localhost or a literal
// loopback, private, link-local or unspecified address.
func isLocalOrPrivateHost(host string) bool {
	if host == "localhost" || strings.HasSuffix(host, ".localhost") {
		return true
	}

	addr, err := netip.ParseAddr(strings.Trim(host, "[]"))
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	return addr.IsLoopback() ||
		addr.IsPrivate() ||
		addr.IsLinkLocalUnicast() ||
		addr.IsLinkLocalMulticast() ||
		addr.IsUnspecified()
}
