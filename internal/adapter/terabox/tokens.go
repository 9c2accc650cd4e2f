package terabox

import (
	"net/url"
	"strings"
)

// ExtractBetween returns the text between the first occurrence of left and
// the next occurrence of right after it. ok is false when either is missing.
func ExtractBetween(haystack, left, right string) (string, bool) {
	i := strings.Index(haystack, left)
	if i < 0 {
		return "", false
	}
	rest := haystack[i+len(left):]
	j := strings.Index(rest, right)
	if j < 0 {
		return "", false
	}
	return rest[:j], true
}

// Delimiters is a pair of literal markers around a token in page HTML.
type Delimiters struct {
	Left  string
	Right string
}

// Find extracts the token from html. Empty tokens count as missing.
func (d Delimiters) Find(html string) (string, bool) {
	v, ok := ExtractBetween(html, d.Left, d.Right)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// TokenPattern locates the opaque tokens the listing endpoint needs.
// The upstream page format is undocumented and changes, so the markers are
// kept in one replaceable value.
type TokenPattern struct {
	LogID     Delimiters
	JSToken   Delimiters
	Thumbnail Delimiters
}

// DefaultTokenPattern matches the share page markup as currently served.
var DefaultTokenPattern = TokenPattern{
	LogID:     Delimiters{Left: "dp-logid=", Right: "&"},
	JSToken:   Delimiters{Left: "fn%28%22", Right: "%22%29"},
	Thumbnail: Delimiters{Left: `og:image" content="`, Right: `"`},
}

// pageTokens are the values scraped from one share page.
type pageTokens struct {
	LogID     string
	JSToken   string
	ShortCode string
	Thumbnail string
}

func (p TokenPattern) extract(html, finalURL, originalURL string) (pageTokens, bool) {
	var t pageTokens
	var okLog, okJS bool

	t.LogID, okLog = p.LogID.Find(html)
	t.JSToken, okJS = p.JSToken.Find(html)
	t.Thumbnail, _ = p.Thumbnail.Find(html)

	t.ShortCode = ShortCode(finalURL)
	if t.ShortCode == "" {
		t.ShortCode = ShortCode(originalURL)
	}

	return t, okLog && okJS && t.ShortCode != ""
}

// ShortCode returns the share code from a /s/<code> path or a surl query
// parameter. It returns "" when neither is present.
func ShortCode(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}

	parts := strings.Split(u.Path, "/")
	for i, p := range parts {
		if p == "s" && i+1 < len(parts) && parts[i+1] != "" {
			return parts[i+1]
		}
	}

	return u.Query().Get("surl")
}
