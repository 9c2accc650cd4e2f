// Package urlmatch finds share links in chat text and checks them against
// the allow-listed hosting domains.
package urlmatch

import (
	"net/url"
	"regexp"
	"strings"
)

// DefaultDomains are the share hosts accepted out of the box.
var DefaultDomains = []string{
	"terabox.com",
	"teraboxapp.com",
	"terabox.app",
	"1024tera.com",
	"1024terabox.com",
	"nephobox.com",
	"mirrobox.com",
	"freeterabox.com",
	"4funbox.com",
	"momerybox.com",
	"tibibox.com",
	"teraboxlink.com",
	"terabox.fun",
}

// DefaultMirrors are rewritten to the canonical host before resolution.
var DefaultMirrors = []string{
	"teraboxlink.com",
	"nephobox.com",
	"4funbox.com",
	"mirrobox.com",
	"momerybox.com",
	"tibibox.com",
}

// DefaultCanonicalHost is the host mirror links are rewritten to.
const DefaultCanonicalHost = "www.terabox.com"

var linkPattern = regexp.MustCompile(`(?i)https?://[^\s<>"{}|\\^` + "`" + `\[\]]+`)

// Matcher validates and extracts share links. It is immutable and safe for
// concurrent use.
type Matcher struct {
	domains   []string
	mirrors   map[string]struct{}
	canonical string
}

// Option configures a Matcher
type Option func(*Matcher)

// WithMirrors replaces the mirror host list
func WithMirrors(hosts []string) Option {
	return func(m *Matcher) {
		m.mirrors = make(map[string]struct{}, len(hosts))
		for _, h := range hosts {
			m.mirrors[normalizeDomain(h)] = struct{}{}
		}
	}
}

// WithCanonicalHost sets the host mirror links are rewritten to
func WithCanonicalHost(host string) Option {
	return func(m *Matcher) {
		if host != "" {
			m.canonical = strings.ToLower(host)
		}
	}
}

// New creates a matcher for the given allow-list. An empty list means DefaultDomains.
func New(domains []string, opts ...Option) *Matcher {
	if len(domains) == 0 {
		domains = DefaultDomains
	}
	m := &Matcher{canonical: DefaultCanonicalHost}
	for _, d := range domains {
		if d = normalizeDomain(d); d != "" {
			m.domains = append(m.domains, d)
		}
	}
	WithMirrors(DefaultMirrors)(m)
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// IsSupportedDomain reports whether raw parses as a URL whose host ends with
// an allow-listed domain. Malformed input returns false.
func (m *Matcher) IsSupportedDomain(raw string) bool {
	host := hostOf(raw)
	if host == "" {
		return false
	}
	for _, d := range m.domains {
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}

// ExtractLinks returns every http(s) URL in text, in order of appearance,
// without duplicates. Trailing punctuation is dropped.
func (m *Matcher) ExtractLinks(text string) []string {
	var links []string
	seen := make(map[string]bool)

	for _, match := range linkPattern.FindAllString(text, -1) {
		match = strings.TrimRight(match, ".,;:!?)'")
		if match == "" || seen[match] || hostOf(match) == "" {
			continue
		}
		seen[match] = true
		links = append(links, match)
	}
	return links
}

// Normalize rewrites a known mirror host to the canonical host. Anything
// else, including unparsable input, is returned unchanged.
func (m *Matcher) Normalize(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return raw
	}
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	if _, ok := m.mirrors[host]; !ok {
		return raw
	}
	u.Host = m.canonical
	return u.String()
}

// Domains returns a copy of the allow-list
func (m *Matcher) Domains() []string {
	out := make([]string, len(m.domains))
	copy(out, m.domains)
	return out
}

// WithScheme prefixes https:// to a link written without a scheme, as chat
// clients auto-link "terabox.com/s/..." text. Links with a scheme are unchanged.
func WithScheme(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.Contains(raw, "://") {
		return raw
	}
	return "https://" + strings.TrimPrefix(raw, "//")
}

func hostOf(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}
	return strings.ToLower(u.Hostname())
}

func normalizeDomain(d string) string {
	d = strings.ToLower(strings.TrimSpace(d))
	d = strings.TrimPrefix(d, ".")
	return strings.TrimPrefix(d, "www.")
}
