package tools

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/Asdmir786/HalalDL/internal/logx"
)

// MaxDownloadAttempts bounds the attempts Download makes per URL.
const MaxDownloadAttempts = 3

// DefaultUserAgent identifies the engine to release hosts.
const DefaultUserAgent = "HalalDL/1.0"

// Downloader fetches URLs into staging files, retrying failed attempts.
type Downloader struct {
	client    *http.Client
	userAgent string
	reporter  Reporter
}

// DownloaderOption configures a Downloader.
type DownloaderOption func(*Downloader)

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(c *http.Client) DownloaderOption {
	return func(d *Downloader) { d.client = c }
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) DownloaderOption {
	return func(d *Downloader) {
		if ua != "" {
			d.userAgent = ua
		}
	}
}

// WithReporter sets the progress reporter.
func WithReporter(r Reporter) DownloaderOption {
	return func(d *Downloader) {
		if r != nil {
			d.reporter = r
		}
	}
}

// NewDownloader returns a Downloader with a transport that bounds connection
// setup but not the transfer itself.
func NewDownloader(opts ...DownloaderOption) *Downloader {
	d := &Downloader{
		client:    newHTTPClient(),
		userAgent: DefaultUserAgent,
		reporter:  nopReporter{},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func newHTTPClient() *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DialContext = (&net.Dialer{Timeout: 30 * time.Second, KeepAlive: 30 * time.Second}).DialContext
	transport.TLSHandshakeTimeout = 30 * time.Second
	transport.ResponseHeaderTimeout = 60 * time.Second
	return &http.Client{Transport: transport}
}

// Download fetches url into StagingPath(dest) and returns that path. dest
// itself is never written; the caller promotes the staging file.
func (d *Downloader) Download(ctx context.Context, tool ToolID, url, dest string) (string, error) {
	logger := logx.FromContext(ctx).With("tool", tool, "url", url)
	staging := StagingPath(dest)

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return "", fmt.Errorf("prepare download destination: %w", err)
	}

	var lastErr error
	for attempt := 1; attempt <= MaxDownloadAttempts; attempt++ {
		size, err := d.attempt(ctx, tool, url, staging)
		if err == nil {
			logger.Info("downloaded", "path", staging, "size", humanize.Bytes(uint64(size)), "attempt", attempt)
			return staging, nil
		}
		lastErr = err
		logger.Warn("download attempt failed", "attempt", attempt, "max", MaxDownloadAttempts, "err", err)
		if ctx.Err() != nil {
			break
		}
		if attempt < MaxDownloadAttempts {
			emit(d.reporter, tool, 0, fmt.Sprintf("Retrying download (attempt %d/%d)...", attempt+1, MaxDownloadAttempts))
		}
	}

	discardStaging(ctx, staging)
	return "", lastErr
}

func (d *Downloader) attempt(ctx context.Context, tool ToolID, url, staging string) (int64, error) {
	if err := removeIfExists(staging); err != nil {
		return 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, &NetworkError{URL: url, Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("User-Agent", d.userAgent)

	resp, err := d.client.Do(req)
	if err != nil {
		return 0, &NetworkError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return 0, &NetworkError{URL: url, StatusCode: resp.StatusCode, Err: errors.New(resp.Status)}
	}

	file, err := os.Create(staging)
	if err != nil {
		return 0, fmt.Errorf("create staging file %s: %w", staging, err)
	}

	body := newPercentReader(resp.Body, resp.ContentLength, func(read, total int64, pct float64) {
		emit(d.reporter, tool, pct, fmt.Sprintf("Downloading... %s / %s", humanize.Bytes(uint64(read)), humanize.Bytes(uint64(total))))
	})

	buf := make([]byte, 32*1024)
	if _, err := copyBuffer(file, body, buf); err != nil {
		file.Close()
		var we *writeError
		if errors.As(err, &we) {
			return 0, fmt.Errorf("write %s: %w", staging, we.err)
		}
		return 0, &NetworkError{URL: url, Err: fmt.Errorf("read body: %w", err)}
	}
	if err := file.Close(); err != nil {
		return 0, fmt.Errorf("close %s: %w", staging, err)
	}

	info, err := os.Stat(staging)
	if err != nil {
		return 0, fmt.Errorf("stat %s: %w", staging, err)
	}
	if info.Size() == 0 {
		discardStaging(ctx, staging)
		return 0, &IntegrityError{Path: staging, Reason: "downloaded file is empty"}
	}
	return info.Size(), nil
}
