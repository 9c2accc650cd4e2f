// Package shortener shortens direct links before they are shown in chat.
package shortener

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/vertextoedge/terabox-relay/internal/port"
)

// DefaultEndpoint is TinyURL's anonymous creation API
const DefaultEndpoint = "https://tinyurl.com/api-create.php"

// TinyURL shortens links with the TinyURL API
type TinyURL struct {
	endpoint   string
	httpClient *http.Client
}

// Ensure TinyURL implements port.Shortener
var _ port.Shortener = (*TinyURL)(nil)

// NewTinyURL creates a shortener. An empty endpoint means DefaultEndpoint.
func NewTinyURL(endpoint string) *TinyURL {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return &TinyURL{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// Shorten returns the short form of longURL. Only a 200 answer whose body
// is itself a URL is accepted.
func (s *TinyURL) Shorten(ctx context.Context, longURL string) (string, error) {
	reqURL := s.endpoint + "?" + url.Values{"url": {longURL}}.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("shorten request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 2048))
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	short := strings.TrimSpace(string(body))
	if !strings.HasPrefix(short, "http") {
		return "", fmt.Errorf("unexpected shortener response %q", short)
	}
	return short, nil
}
