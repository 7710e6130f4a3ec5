// Package download fetches release assets to the user's download folder,
// falling back between a direct connection and a mirror proxy.
package download

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/kbukum/imgkit/errors"
	"github.com/kbukum/imgkit/httpclient"
	"github.com/kbukum/imgkit/logger"
	"github.com/kbukum/imgkit/resilience"
	"github.com/kbukum/imgkit/storage"
	"github.com/kbukum/imgkit/validation"
	"github.com/kbukum/imgkit/worker"
)

const (
	// DefaultProxyPrefix is prepended to the raw URL for proxied fetches.
	DefaultProxyPrefix = "https://gh-proxy.com/"
	// DefaultTimeout bounds one fetch including the body.
	DefaultTimeout = 10 * time.Minute

	fallbackFileName = "download.bin"
	userAgent        = "imgkit-updater"
)

// Options configures a Fetcher.
type Options struct {
	Logger *logger.Logger
	// Dir is where files are saved. Empty means ~/Downloads, or the temp
	// dir when that does not exist.
	Dir         string
	ProxyPrefix string
	Timeout     time.Duration
	// Retry is the dropped-connection policy. Nil uses the default.
	Retry     *resilience.RetryConfig
	Transport http.RoundTripper
	// Pool runs fetches. Share it with the uploader to bound all network
	// work together. Nil gives the fetcher its own pool.
	Pool *worker.Pool
}

// Fetcher downloads files.
type Fetcher struct {
	http *httpclient.Client
	opts Options
	log  *logger.Logger
}

// New creates a Fetcher.
func New(opts Options) (*Fetcher, error) {
	if opts.Logger == nil {
		opts.Logger = logger.NewNop()
	}
	if opts.ProxyPrefix == "" {
		opts.ProxyPrefix = DefaultProxyPrefix
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Dir == "" {
		opts.Dir = DefaultDir()
	}
	if opts.Retry == nil {
		opts.Retry = httpclient.DefaultRetryConfig()
	}
	if opts.Pool == nil {
		opts.Pool = worker.NewPool(worker.DefaultSize)
	}

	hc, err := httpclient.New(httpclient.Config{
		Timeout:   opts.Timeout,
		UserAgent: userAgent,
		Retry:     opts.Retry,
		Transport: opts.Transport,
	})
	if err != nil {
		return nil, errors.Internal(err)
	}
	return &Fetcher{http: hc, opts: opts, log: opts.Logger.WithComponent("download")}, nil
}

// DefaultDir returns ~/Downloads when it exists, else the temp dir.
func DefaultDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		dir := filepath.Join(home, "Downloads")
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			return dir
		}
	}
	return os.TempDir()
}

// ProxyURL prefixes raw with the proxy unless it already carries it.
func ProxyURL(prefix, raw string) string {
	if strings.HasPrefix(raw, prefix) {
		return raw
	}
	return prefix + raw
}

// FileName returns the last path segment of u, or download.bin.
func FileName(u *url.URL) string {
	name := path.Base(u.Path)
	if name == "." || name == "/" || name == "" {
		return fallbackFileName
	}
	// Never let a crafted segment escape the download dir.
	name = filepath.Base(filepath.Clean(name))
	if name == "." || name == string(filepath.Separator) || name == ".." {
		return fallbackFileName
	}
	return name
}

// Fetch downloads rawURL, first over the preferred route (the proxy when
// useProxy is set) and then over the other one. It returns the saved path
// or the last error.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string, useProxy bool) (string, error) {
	if err := validation.New().Required("url", rawURL).HTTPURL("url", rawURL).Validate(); err != nil {
		return "", err
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", errors.InvalidInput("url", err.Error())
	}
	dest := filepath.Join(f.opts.Dir, FileName(u))

	routes := []string{rawURL, ProxyURL(f.opts.ProxyPrefix, rawURL)}
	if useProxy {
		routes[0], routes[1] = routes[1], routes[0]
	}
	return worker.Do(ctx, f.opts.Pool, func(ctx context.Context) (string, error) {
		return f.fetchFirst(ctx, routes, dest)
	})
}

// fetchFirst tries each route in order and returns dest after the first
// success, or the last error.
func (f *Fetcher) fetchFirst(ctx context.Context, routes []string, dest string) (string, error) {
	var lastErr error
	for i, route := range routes {
		if err := f.fetchTo(ctx, route, dest); err != nil {
			lastErr = err
			if i == 0 {
				f.log.Warn("download failed, trying other route", logger.Fields(
					"url", route,
					logger.FieldError, errors.Message(err),
				))
			}
			continue
		}
		f.log.Info("downloaded", logger.Fields("url", route, logger.FieldPath, dest))
		return dest, nil
	}
	return "", lastErr
}

// fetchTo streams route into a temp file next to dest and renames it.
func (f *Fetcher) fetchTo(ctx context.Context, route, dest string) error {
	resp, err := f.http.DoStream(ctx, httpclient.Request{Method: http.MethodGet, Path: route})
	if err != nil {
		return storage.HTTPError("download", err)
	}
	defer func() { _ = resp.Close() }()

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return errors.Internal(fmt.Errorf("create download dir: %w", err))
	}
	tmp, err := os.CreateTemp(filepath.Dir(dest), filepath.Base(dest)+".*.part")
	if err != nil {
		return errors.Internal(fmt.Errorf("create file: %w", err))
	}
	tmpName := tmp.Name()

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return errors.ConnectionFailed("download", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return errors.Internal(fmt.Errorf("write file: %w", err))
	}
	if err := os.Rename(tmpName, dest); err != nil {
		_ = os.Remove(tmpName)
		return errors.Internal(fmt.Errorf("save file: %w", err))
	}
	return nil
}
