package fetcher

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseURL(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		wantHost string
		wantPath string
		wantErr  bool
	}{
		{"default port", "ftp://data.example.org/landcover/landcover_2019.asc", "data.example.org:21", "/landcover/landcover_2019.asc", false},
		{"explicit port", "ftp://data.example.org:2121/f.asc", "data.example.org:2121", "/f.asc", false},
		{"wrong scheme", "https://data.example.org/f.asc", "", "", true},
		{"empty path", "ftp://data.example.org", "", "", true},
		{"garbage", "://", "", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			host, path, err := parseURL(tt.url)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantHost, host)
			assert.Equal(t, tt.wantPath, path)
		})
	}
}

func TestNew_DefaultTimeout(t *testing.T) {
	f := New(Options{})
	assert.Equal(t, 30*time.Second, f.opts.Timeout)

	f = New(Options{Timeout: 5 * time.Second})
	assert.Equal(t, 5*time.Second, f.opts.Timeout)
}
