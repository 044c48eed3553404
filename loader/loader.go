// Package loader reads schema and payload documents from the filesystem or
// HTTP, and classifies payloads by their UCP metadata.
package loader

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/Universal-Commerce-Protocol/ucp-schema/jsontree"
)

// Sentinel errors returned by the loader.
var (
	// ErrRead indicates a filesystem read failure.
	ErrRead = errors.New("read input")
	// ErrFetch indicates an HTTP fetch failure.
	ErrFetch = errors.New("fetch url")
)

// Fetcher retrieves the raw bytes of a remote document. The default
// implementation is [HTTPFetcher]; tests and embedders may substitute their
// own.
type Fetcher interface {
	Fetch(url string) ([]byte, error)
}

// HTTPFetcher fetches documents over HTTP(S).
type HTTPFetcher struct {
	Client *http.Client
}

// NewHTTPFetcher creates an [*HTTPFetcher] with a 30-second timeout.
func NewHTTPFetcher() *HTTPFetcher {
	return &HTTPFetcher{
		Client: &http.Client{Timeout: 30 * time.Second},
	}
}

// Fetch retrieves url and returns the response body. Non-2xx responses are
// errors.
func (f *HTTPFetcher) Fetch(url string) ([]byte, error) {
	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Get(url) //nolint:noctx // Single-shot CLI fetch; the client timeout bounds it.
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrFetch, url, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %s: status %d", ErrFetch, url, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrFetch, url, err)
	}

	return body, nil
}

// IsURL reports whether source is an http or https URL.
func IsURL(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}

// Loader reads documents from files or URLs, applying the base-config URL
// mapping first. The zero value reads files only; create instances with
// [New] for remote support.
type Loader struct {
	Fetcher Fetcher
	Base    BaseConfig
}

// New creates a [*Loader] with the default HTTP fetcher.
func New() *Loader {
	return &Loader{Fetcher: NewHTTPFetcher()}
}

// Load reads and parses the file at path.
func (l *Loader) Load(path string) (jsontree.Value, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}

	slog.Debug("loaded document", "path", path, "bytes", len(data))

	value, err := jsontree.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	return value, nil
}

// LoadAuto loads a document from a file path or URL. URLs covered by the
// base-config mapping are read from the mapped local file instead of the
// network.
func (l *Loader) LoadAuto(source string) (jsontree.Value, error) {
	if !IsURL(source) {
		return l.Load(source)
	}

	if mapped, ok := l.Base.Map(source); ok {
		slog.Debug("mapped remote schema", "url", source, "path", mapped)

		return l.Load(mapped)
	}

	fetcher := l.Fetcher
	if fetcher == nil {
		return nil, fmt.Errorf("%w: %s: no fetcher configured", ErrFetch, source)
	}

	data, err := fetcher.Fetch(source)
	if err != nil {
		return nil, err
	}

	slog.Debug("fetched document", "url", source, "bytes", len(data))

	value, err := jsontree.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", source, err)
	}

	return value, nil
}
