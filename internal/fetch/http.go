package fetch

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/hotbundle/hotbundle/internal/branding"
)

// HTTP fetches objects from <baseURL>/<key>.
type HTTP struct {
	baseURL    string
	httpClient *http.Client
	headers    map[string]string
}

// HTTPOption configures an HTTP fetcher.
type HTTPOption func(*HTTP)

// WithHTTPClient sets a custom HTTP client (useful for testing).
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(h *HTTP) { h.httpClient = c }
}

// WithHeader adds a header to every request, e.g. an authorization token.
func WithHeader(name, value string) HTTPOption {
	return func(h *HTTP) { h.headers[name] = value }
}

// NewHTTP creates an HTTP fetcher for baseURL.
func NewHTTP(baseURL string, opts ...HTTPOption) (*HTTP, error) {
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("parsing source url: %w", err)
	}
	h := &HTTP{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: http.DefaultClient,
		headers:    map[string]string{},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

// URL returns the address key is fetched from.
func (h *HTTP) URL(key string) string {
	return h.baseURL + "/" + strings.TrimLeft(key, "/")
}

func (h *HTTP) Fetch(ctx context.Context, key, dst string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.URL(key), nil)
	if err != nil {
		return fmt.Errorf("creating download request: %w", err)
	}
	req.Header.Set("User-Agent", branding.UserAgent())
	for k, v := range h.headers {
		req.Header.Set(k, v)
	}

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("downloading %s: %w", key, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("downloading %s: %w", key, ErrNotFound)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download of %s returned status %d", key, resp.StatusCode)
	}

	n, err := writeFile(ctx, dst, resp.Body)
	if err != nil {
		return err
	}
	if resp.ContentLength > 0 && n != resp.ContentLength {
		return fmt.Errorf("download of %s truncated: got %d of %d bytes", key, n, resp.ContentLength)
	}
	return nil
}
