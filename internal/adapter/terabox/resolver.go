// Package terabox resolves TeraBox share links into direct download links
// by scraping the share page and calling the share listing endpoint.
package terabox

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/vertextoedge/terabox-relay/internal/domain"
	"github.com/vertextoedge/terabox-relay/internal/port"
)

// maxPageBytes caps how much of the share page is read
const maxPageBytes = 4 << 20

// Normalizer rewrites mirror hosts to the canonical one
type Normalizer interface {
	Normalize(raw string) string
}

// Config contains optional resolver configuration
type Config struct {
	BaseURL   string        // listing endpoint host, default DefaultBaseURL
	Cookie    string        // optional raw Cookie header
	UserAgent string        // default DefaultUserAgent
	Timeout   time.Duration // per request, default 30s
	Pattern   *TokenPattern // default DefaultTokenPattern
}

// Resolver turns share links into ResolveResults
type Resolver struct {
	baseURL    string
	cookie     string
	userAgent  string
	timeout    time.Duration
	pattern    TokenPattern
	transport  http.RoundTripper
	normalizer Normalizer
	logger     *zap.Logger
}

// Ensure Resolver implements port.LinkResolver
var _ port.LinkResolver = (*Resolver)(nil)

// NewResolver creates a resolver. normalizer may be nil.
func NewResolver(cfg Config, normalizer Normalizer, logger *zap.Logger) *Resolver {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	pattern := DefaultTokenPattern
	if cfg.Pattern != nil {
		pattern = *cfg.Pattern
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Resolver{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		cookie:     cfg.Cookie,
		userAgent:  cfg.UserAgent,
		timeout:    cfg.Timeout,
		pattern:    pattern,
		transport:  newTransport(),
		normalizer: normalizer,
		logger:     logger.Named("resolver"),
	}
}

// Resolve fetches metadata and a direct link for shareURL.
// All failures are reported in the result.
func (r *Resolver) Resolve(ctx context.Context, shareURL string) (result *domain.ResolveResult) {
	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("resolver panic", zap.Any("panic", p))
			result = domain.ResolveFailure(fmt.Errorf("resolver panic: %v", p))
		}
	}()

	if r.normalizer != nil {
		shareURL = r.normalizer.Normalize(shareURL)
	}

	session, err := newSession(r.transport, r.timeout)
	if err != nil {
		return domain.ResolveFailure(fmt.Errorf("failed to create session: %w", err))
	}

	html, finalURL, err := r.fetchPage(ctx, session, shareURL)
	if err != nil {
		r.logger.Debug("share page fetch failed", zap.Error(err))
		return domain.ResolveFailure(err)
	}

	tokens, ok := r.pattern.extract(html, finalURL, shareURL)
	if !ok {
		return domain.ResolveFailure(domain.ErrMissingParameters)
	}

	item, err := r.fetchFirstItem(ctx, session, tokens)
	if err != nil {
		r.logger.Debug("share list failed", zap.Error(err))
		return domain.ResolveFailure(err)
	}

	thumb := tokens.Thumbnail
	if item.Thumbs != nil && item.Thumbs.URL3 != "" {
		thumb = item.Thumbs.URL3
	}

	direct := r.redirectTarget(ctx, session, item.Dlink)

	r.logger.Debug("share resolved",
		zap.String("file", item.ServerFilename),
		zap.Int64("size", item.size()),
		zap.Bool("redirected", direct != item.Dlink))

	return domain.ResolveSuccess(item.ServerFilename, item.size(), item.Dlink, direct, thumb)
}

// fetchPage loads the share page and returns its body and the final URL after redirects
func (r *Resolver) fetchPage(ctx context.Context, client *http.Client, shareURL string) (string, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, shareURL, nil)
	if err != nil {
		return "", "", domain.NewUpstreamHTTPError(0, "share page")
	}
	r.setBrowserHeaders(req)

	resp, err := client.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("%w: share page: %v", domain.ErrUpstreamHTTP, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", "", domain.NewUpstreamHTTPError(resp.StatusCode, "share page")
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return "", "", fmt.Errorf("%w: reading share page: %v", domain.ErrUpstreamHTTP, err)
	}

	return string(body), resp.Request.URL.String(), nil
}

// listURL builds the share listing request
func (r *Resolver) listURL(t pageTokens) string {
	params := url.Values{
		"app_id":   {"250528"},
		"web":      {"1"},
		"channel":  {"0"},
		"jsToken":  {t.JSToken},
		"dp-logid": {t.LogID},
		"page":     {"1"},
		"num":      {"20"},
		"by":       {"name"},
		"order":    {"asc"},
		"shorturl": {t.ShortCode},
		"root":     {"1"},
	}
	return r.baseURL + "/share/list?" + params.Encode()
}

// fetchFirstItem calls the listing endpoint and returns item 0.
// Folder shares are not enumerated past the first entry.
func (r *Resolver) fetchFirstItem(ctx context.Context, client *http.Client, t pageTokens) (*listItem, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.listURL(t), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	r.setBrowserHeaders(req)

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: share list: %v", domain.ErrUpstreamHTTP, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, domain.NewUpstreamHTTPError(resp.StatusCode, "share list")
	}

	var list listResponse
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return nil, &domain.UpstreamAPIError{Code: -1}
	}

	if list.Errno != 0 {
		return nil, &domain.UpstreamAPIError{Code: list.Errno}
	}
	if len(list.List) == 0 {
		return nil, domain.ErrNoFilesFound
	}

	item := list.List[0]
	if item.Dlink == "" {
		return nil, domain.ErrNoDownloadLink
	}
	return &item, nil
}

// redirectTarget issues a HEAD against dlink without following redirects and
// returns the Location target. Any failure falls back to dlink.
func (r *Resolver) redirectTarget(ctx context.Context, session *http.Client, dlink string) string {
	client := &http.Client{
		Transport:     session.Transport,
		Jar:           session.Jar,
		Timeout:       session.Timeout,
		CheckRedirect: noRedirect,
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, dlink, nil)
	if err != nil {
		return dlink
	}
	r.setBrowserHeaders(req)

	resp, err := client.Do(req)
	if err != nil {
		r.logger.Debug("redirect lookup failed, using dlink", zap.Error(err))
		return dlink
	}
	resp.Body.Close()

	if loc := resp.Header.Get("Location"); loc != "" {
		return loc
	}
	return dlink
}
