// Package packages fetches, verifies and installs the third-party packages a
// TynCan node needs to stream, currently a DarkIce build with MP3 support.
package packages

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/smazurov/tyncan/internal/capture"
	"github.com/smazurov/tyncan/internal/logging"
)

// ErrChecksumMismatch is returned when a downloaded file does not hash to the pinned value.
var ErrChecksumMismatch = errors.New("checksum mismatch")

// Package describes a downloadable .deb with its pinned SHA-256.
type Package struct {
	Name     string
	URL      string
	SHA256   string
	FileName string
}

// DarkIce is the armhf DarkIce 1.0.1 build with MP3 encoding enabled.
var DarkIce = Package{
	Name:     "darkice",
	URL:      "https://github.com/x20mar/darkice-with-mp3-for-raspberry-pi/blob/master/darkice_1.0.1-999~mp3+1_armhf.deb?raw=true",
	SHA256:   "d1081c42152119e69219ab46fb2ca201fd781c4d93d3e99ef87e434e90e52e07",
	FileName: "darkice.deb",
}

// Fetcher downloads packages over HTTP with retries.
type Fetcher struct {
	client *retryablehttp.Client
	logger *slog.Logger
}

// FetcherOption configures a Fetcher.
type FetcherOption func(*Fetcher)

// WithRetryMax sets how many times a failed request is retried.
func WithRetryMax(n int) FetcherOption {
	return func(f *Fetcher) {
		f.client.RetryMax = n
	}
}

// WithRetryWait sets the backoff bounds between retries.
func WithRetryWait(minWait, maxWait time.Duration) FetcherOption {
	return func(f *Fetcher) {
		f.client.RetryWaitMin = minWait
		f.client.RetryWaitMax = maxWait
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(c *http.Client) FetcherOption {
	return func(f *Fetcher) {
		f.client.HTTPClient = c
	}
}

// NewFetcher creates a Fetcher that logs request retries to the "packages" module logger.
func NewFetcher(opts ...FetcherOption) *Fetcher {
	logger := logging.GetLogger("packages")

	client := retryablehttp.NewClient()
	client.RetryMax = 3
	client.Logger = retryablehttp.LeveledLogger(logger)

	f := &Fetcher{client: client, logger: logger}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// CheckLink reports whether the package URL currently answers with a 2xx status.
func (f *Fetcher) CheckLink(ctx context.Context, pkg Package) error {
	resp, err := f.get(ctx, pkg.URL)
	if err != nil {
		return fmt.Errorf("%s download link is not reachable: %w", pkg.Name, err)
	}
	resp.Body.Close()

	f.logger.Debug("Download link reachable", "package", pkg.Name, "status", resp.StatusCode)
	return nil
}

// Download saves the package into dir as pkg.FileName and verifies its
// checksum. A file that fails verification is removed.
func (f *Fetcher) Download(ctx context.Context, pkg Package, dir string) (string, error) {
	resp, err := f.get(ctx, pkg.URL)
	if err != nil {
		return "", fmt.Errorf("failed to download %s: %w", pkg.Name, err)
	}
	defer resp.Body.Close()

	if mkErr := os.MkdirAll(dir, 0o755); mkErr != nil {
		return "", fmt.Errorf("failed to create download directory: %w", mkErr)
	}

	tmp, err := os.CreateTemp(dir, pkg.FileName+".*.part")
	if err != nil {
		return "", fmt.Errorf("failed to create download file: %w", err)
	}
	defer os.Remove(tmp.Name())

	hash := sha256.New()
	written, err := io.Copy(io.MultiWriter(tmp, hash), resp.Body)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return "", fmt.Errorf("failed to write %s: %w", pkg.Name, err)
	}

	if sum := hex.EncodeToString(hash.Sum(nil)); !strings.EqualFold(sum, pkg.SHA256) {
		return "", fmt.Errorf("%s: %w: got %s, want %s", pkg.Name, ErrChecksumMismatch, sum, pkg.SHA256)
	}

	path := filepath.Join(dir, pkg.FileName)
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("failed to save %s: %w", pkg.Name, err)
	}

	f.logger.Info("Package downloaded", "package", pkg.Name, "path", path, "bytes", written)
	return path, nil
}

func (f *Fetcher) get(ctx context.Context, url string) (*http.Response, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}
	return resp, nil
}

// Verify checks that the file at path hashes to the expected SHA-256.
func Verify(path, expected string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	hash := sha256.New()
	if _, err := io.Copy(hash, file); err != nil {
		return err
	}
	if sum := hex.EncodeToString(hash.Sum(nil)); !strings.EqualFold(sum, expected) {
		return fmt.Errorf("%s: %w: got %s, want %s", filepath.Base(path), ErrChecksumMismatch, sum, expected)
	}
	return nil
}

// Installer installs downloaded .deb packages with dpkg.
type Installer struct {
	Runner capture.Runner
	logger *slog.Logger
}

// NewInstaller creates an Installer that runs dpkg through os/exec.
func NewInstaller() *Installer {
	return &Installer{
		Runner: capture.ExecRunner{},
		logger: logging.GetLogger("packages"),
	}
}

// Install runs `dpkg -i path`.
func (i *Installer) Install(ctx context.Context, path string) error {
	out, err := i.Runner.Run(ctx, "dpkg", "-i", path)
	if err != nil {
		var exitErr interface{ ExitCode() int }
		if errors.As(err, &exitErr) {
			return fmt.Errorf("dpkg -i %s exited with status %d: %w", path, exitErr.ExitCode(), err)
		}
		return fmt.Errorf("dpkg -i %s: %w", path, err)
	}
	i.getLogger().Info("Package installed", "path", path, "output", strings.TrimSpace(string(out)))
	return nil
}

func (i *Installer) getLogger() *slog.Logger {
	if i.logger == nil {
		return logging.GetLogger("packages")
	}
	return i.logger
}
