// Package netcache fetches remote templates and variable files through a
// persistent cache that revalidates with ETag and Last-Modified.
package netcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/neurodesk/trimmer/pkg/errwrap"
	"github.com/neurodesk/trimmer/pkg/trimmer"
	"github.com/spf13/afero"
)

// Cache stores fetched documents under Dir on Fs.
type Cache struct {
	Fs      afero.Fs
	Dir     string
	Client  *http.Client
	Logger  *slog.Logger
	Retries int
	Backoff time.Duration
}

// New returns a Cache with a default HTTP client.
func New(fs afero.Fs, dir string) *Cache {
	return &Cache{
		Fs:      fs,
		Dir:     dir,
		Client:  &http.Client{Timeout: time.Minute},
		Retries: 3,
		Backoff: time.Second,
	}
}

type meta struct {
	URL          string `json:"url"`
	ETag         string `json:"etag,omitempty"`
	LastModified string `json:"last_modified,omitempty"`
	DataFile     string `json:"data_file"`
}

// IsURL reports whether name should be fetched rather than read locally.
func IsURL(name string) bool {
	return strings.HasPrefix(name, "http://") || strings.HasPrefix(name, "https://")
}

func (c *Cache) log() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}

// Get returns the body of url. A cached copy is revalidated with a
// conditional request and reused when the server is unreachable.
// The boolean reports whether the cached copy was used.
func (c *Cache) Get(ctx context.Context, url string) ([]byte, bool, error) {
	key := hash(url)
	mpath := path.Join(c.Dir, key+".json")
	m, cached := c.readMeta(mpath, url)

	if cached {
		data, resp, err := c.revalidate(ctx, url, m)
		if err == nil {
			if resp != nil {
				return data, false, c.store(mpath, key, url, data, resp)
			}
			c.log().Debug("cache hit", "url", url)
			return data, true, nil
		}
		c.log().Warn("revalidation failed, using cached copy", "url", url, "err", err)
		data, rerr := afero.ReadFile(c.Fs, path.Join(c.Dir, m.DataFile))
		if rerr == nil {
			return data, true, nil
		}
	}

	var lastErr error
	for attempt := range max(c.Retries, 1) {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, false, ctx.Err()
			case <-time.After(c.Backoff << (attempt - 1)):
			}
		}
		data, resp, err := c.fetch(ctx, url, nil)
		if err == nil {
			return data, false, c.store(mpath, key, url, data, resp)
		}
		lastErr = err
		var se statusError
		if errors.As(err, &se) && se.code < 500 {
			break
		}
		c.log().Debug("fetch failed", "url", url, "attempt", attempt+1, "err", err)
	}
	return nil, false, errwrap.Wrapf(lastErr, "fetching %s", url)
}

func (c *Cache) readMeta(mpath, url string) (meta, bool) {
	var m meta
	b, err := afero.ReadFile(c.Fs, mpath)
	if err != nil || json.Unmarshal(b, &m) != nil {
		return m, false
	}
	if m.URL != url || m.DataFile == "" {
		return m, false
	}
	ok, _ := afero.Exists(c.Fs, path.Join(c.Dir, m.DataFile))
	return m, ok
}

// revalidate returns the new body with its response when the server sent
// one, or the cached body and a nil response on 304.
func (c *Cache) revalidate(ctx context.Context, url string, m meta) ([]byte, *http.Response, error) {
	header := http.Header{}
	if m.ETag != "" {
		header.Set("If-None-Match", m.ETag)
	}
	if m.LastModified != "" {
		header.Set("If-Modified-Since", m.LastModified)
	}
	data, resp, err := c.fetch(ctx, url, header)
	var se statusError
	if errors.As(err, &se) && se.code == http.StatusNotModified {
		data, err := afero.ReadFile(c.Fs, path.Join(c.Dir, m.DataFile))
		return data, nil, err
	}
	if err != nil {
		return nil, nil, err
	}
	return data, resp, nil
}

type statusError struct {
	code int
}

func (e statusError) Error() string { return fmt.Sprintf("HTTP %d", e.code) }

func (c *Cache) fetch(ctx context.Context, url string, header http.Header) ([]byte, *http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, nil, err
	}
	for k, v := range header {
		req.Header[k] = v
	}
	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, resp, statusError{resp.StatusCode}
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp, err
	}
	return data, resp, nil
}

func (c *Cache) store(mpath, key, url string, data []byte, resp *http.Response) error {
	if err := c.Fs.MkdirAll(c.Dir, 0o755); err != nil {
		return err
	}
	m := meta{URL: url, DataFile: key + ".data"}
	if resp != nil {
		m.ETag = resp.Header.Get("ETag")
		m.LastModified = resp.Header.Get("Last-Modified")
	}
	if err := writeAtomic(c.Fs, path.Join(c.Dir, m.DataFile), data); err != nil {
		return err
	}
	b, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	return writeAtomic(c.Fs, mpath, b)
}

func writeAtomic(fs afero.Fs, dst string, data []byte) error {
	tmp := dst + ".tmp"
	if err := afero.WriteFile(fs, tmp, data, 0o644); err != nil {
		return err
	}
	if err := fs.Rename(tmp, dst); err != nil {
		_ = fs.Remove(tmp)
		return err
	}
	return nil
}

func hash(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// Loader resolves URLs through the cache and everything else through Local.
type Loader struct {
	Cache   *Cache
	Local   trimmer.Loader
	Context context.Context
}

func (l Loader) Load(name string) (string, error) {
	if !IsURL(name) {
		return l.Local.Load(name)
	}
	ctx := l.Context
	if ctx == nil {
		ctx = context.Background()
	}
	data, _, err := l.Cache.Get(ctx, name)
	if err != nil {
		var se statusError
		if errors.As(err, &se) && se.code == http.StatusNotFound {
			return "", trimmer.ErrTemplateNotFound{Name: name}
		}
		return "", err
	}
	return string(data), nil
}

// ReadFile reads name from the cache when it is a URL and from fs otherwise.
func ReadFile(ctx context.Context, c *Cache, fs afero.Fs, name string) ([]byte, error) {
	if !IsURL(name) {
		return afero.ReadFile(fs, name)
	}
	data, _, err := c.Get(ctx, name)
	return data, err
}
