package security

import (
	"errors"
	"io"
	"strings"
	"testing"
)

func TestValidateHTTPURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{name: "public https", url: "https://images.example.com/a.png"},
		{name: "empty", url: "", wantErr: true},
		{name: "plain http", url: "http://example.com/a.png", wantErr: true},
		{name: "ftp", url: "ftp://example.com/a.png", wantErr: true},
		{name: "no host", url: "https:///a.png", wantErr: true},
		{name: "localhost", url: "https://localhost/a.png", wantErr: true},
		{name: "loopback", url: "https://127.0.0.1:8080/a.png", wantErr: true},
		{name: "private v4", url: "https://192.168.1.10/a.png", wantErr: true},
		{name: "private 172", url: "https://172.20.0.1/a.png", wantErr: true},
		{name: "link local", url: "https://169.254.169.254/latest", wantErr: true},
		{name: "ipv6 loopback", url: "https://[::1]/a.png", wantErr: true},
		{name: "ipv6 unique local", url: "https://[fd00::1]/a.png", wantErr: true},
		{name: "public ip", url: "https://8.8.8.8/a.png"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateHTTPURL(tt.url)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateHTTPURL(%q) error = %v, wantErr %v", tt.url, err, tt.wantErr)
			}
		})
	}
}

func TestLimitedReader(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		limit   int64
		wantErr bool
	}{
		{name: "under limit", input: "abc", limit: 10},
		{name: "exactly at limit", input: "abcdefghij", limit: 10},
		{name: "over limit", input: "abcdefghijk", limit: 10, wantErr: true},
		{name: "zero limit empty input", input: "", limit: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := io.ReadAll(NewLimitedReader(strings.NewReader(tt.input), tt.limit))
			if tt.wantErr {
				if !errors.Is(err, ErrLimitExceeded) {
					t.Errorf("ReadAll() error = %v, want ErrLimitExceeded", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ReadAll() error = %v", err)
			}
			if string(data) != tt.input {
				t.Errorf("ReadAll() = %q, want %q", data, tt.input)
			}
		})
	}
}
