package terabox

import (
	"net/http"
	"net/http/cookiejar"
	"time"

	"golang.org/x/net/publicsuffix"
)

// DefaultBaseURL is the host serving the listing endpoint
const DefaultBaseURL = "https://www.terabox.app"

// DefaultUserAgent is a mobile Chrome user agent the share pages accept
const DefaultUserAgent = "Mozilla/5.0 (Linux; Android 11; Pixel 5) " +
	"AppleWebKit/537.36 (KHTML, like Gecko) " +
	"Chrome/121.0 Mobile Safari/537.36"

const defaultTimeout = 30 * time.Second

// newTransport returns the transport shared by every resolution
func newTransport() *http.Transport {
	return &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		ForceAttemptHTTP2:   true,
	}
}

// newSession builds a client for one resolution. The cookie jar carries
// cookies set by the share page over to the listing call.
func newSession(transport http.RoundTripper, timeout time.Duration) (*http.Client, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, err
	}
	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
		Jar:       jar,
	}, nil
}

// noRedirect makes a client return the first response instead of following it
func noRedirect(*http.Request, []*http.Request) error {
	return http.ErrUseLastResponse
}

// setBrowserHeaders applies the headers a mobile browser would send
func (r *Resolver) setBrowserHeaders(req *http.Request) {
	req.Header.Set("User-Agent", r.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("DNT", "1")
	if r.cookie != "" {
		req.Header.Set("Cookie", r.cookie)
	}
}
