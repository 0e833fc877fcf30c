// Package fetcher downloads raster layers from the FTP mirrors the
// land-cover and elevation products are distributed on.
package fetcher

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/jlaffaye/ftp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Options configures the FTP fetcher.
type Options struct {
	Timeout time.Duration
}

// Fetcher downloads raster files over FTP.
type Fetcher struct {
	opts Options
}

// New creates a Fetcher with the given options.
func New(opts Options) *Fetcher {
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	return &Fetcher{opts: opts}
}

// parseURL extracts host (with port) and path from an FTP URL.
func parseURL(rawURL string) (host string, path string, err error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", "", eris.Wrap(err, "fetcher: parse ftp url")
	}
	if u.Scheme != "ftp" {
		return "", "", eris.Errorf("fetcher: expected ftp scheme, got %q", u.Scheme)
	}

	host = u.Host
	if _, _, splitErr := net.SplitHostPort(host); splitErr != nil {
		host = net.JoinHostPort(host, "21")
	}

	path = u.Path
	if path == "" {
		return "", "", eris.New("fetcher: empty path in ftp url")
	}
	return host, path, nil
}

// Download retrieves one file from the FTP server into destPath.
func (f *Fetcher) Download(ctx context.Context, ftpURL, destPath string) error {
	host, path, err := parseURL(ftpURL)
	if err != nil {
		return err
	}

	zap.L().Debug("fetcher: connecting", zap.String("host", host), zap.String("path", path))

	conn, err := ftp.Dial(host, ftp.DialWithTimeout(f.opts.Timeout), ftp.DialWithContext(ctx))
	if err != nil {
		return eris.Wrap(err, "fetcher: ftp dial")
	}
	defer conn.Quit()

	if err := conn.Login("anonymous", "anonymous@"); err != nil {
		return eris.Wrap(err, "fetcher: ftp login")
	}

	resp, err := conn.Retr(path)
	if err != nil {
		return eris.Wrapf(err, "fetcher: retrieve %s", path)
	}
	defer resp.Close()

	out, err := os.Create(destPath)
	if err != nil {
		return eris.Wrapf(err, "fetcher: create %s", destPath)
	}
	if _, err := io.Copy(out, resp); err != nil {
		out.Close()
		return eris.Wrapf(err, "fetcher: download %s", path)
	}
	return eris.Wrapf(out.Close(), "fetcher: close %s", destPath)
}

// DownloadLandCoverYears fetches the yearly land-cover grids
// landcover_<year>.asc from baseURL into destDir, skipping years
// already present. Returns the paths downloaded.
func (f *Fetcher) DownloadLandCoverYears(ctx context.Context, baseURL string, years []int, destDir string) ([]string, error) {
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return nil, eris.Wrapf(err, "fetcher: mkdir %s", destDir)
	}

	var paths []string
	for _, year := range years {
		name := fmt.Sprintf("landcover_%d.asc", year)
		dest := filepath.Join(destDir, name)
		if _, err := os.Stat(dest); err == nil {
			zap.L().Debug("fetcher: already present", zap.String("file", name))
			paths = append(paths, dest)
			continue
		}
		if err := f.Download(ctx, baseURL+"/"+name, dest); err != nil {
			return paths, eris.Wrapf(err, "fetcher: year %d", year)
		}
		zap.L().Info("fetcher: downloaded raster", zap.String("file", name))
		paths = append(paths, dest)
	}
	return paths, nil
}
