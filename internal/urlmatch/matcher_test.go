package urlmatch

import (
	"reflect"
	"testing"
)

func TestMatcher_IsSupportedDomain(t *testing.T) {
	m := New(nil)

	tests := []struct {
		name string
		raw  string
		want bool
	}{
		{name: "canonical host", raw: "https://www.terabox.com/s/1abcDEF", want: true},
		{name: "bare domain", raw: "https://terabox.app/s/1abc", want: true},
		{name: "upper case host", raw: "HTTPS://WWW.1024TERA.COM/s/1abc", want: true},
		{name: "mirror", raw: "http://teraboxlink.com/s/xyz", want: true},
		{name: "sharing surl", raw: "https://www.terabox.com/sharing/link?surl=abc", want: true},
		{name: "other host", raw: "https://example.com/s/1abc", want: false},
		{name: "domain only in path", raw: "https://example.com/terabox.com/s/1", want: false},
		{name: "look-alike prefix", raw: "https://notterabox.com/s/1", want: false},
		{name: "no scheme", raw: "terabox.com/s/1", want: false},
		{name: "ftp scheme", raw: "ftp://terabox.com/s/1", want: false},
		{name: "malformed", raw: "http://[::1", want: false},
		{name: "empty", raw: "", want: false},
		{name: "plain text", raw: "hello world", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := m.IsSupportedDomain(tt.raw); got != tt.want {
				t.Errorf("IsSupportedDomain(%q) = %v, want %v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestMatcher_NoAllowListedDomainNeverMatches(t *testing.T) {
	m := New([]string{"terabox.com"})

	inputs := []string{
		"https://google.com",
		"https://terabox.co/s/1",
		"https://teraboxcom.net/s/1",
		"https://drive.example.org/?d=terabox",
		"::::",
		"https://",
	}
	for _, in := range inputs {
		if m.IsSupportedDomain(in) {
			t.Errorf("IsSupportedDomain(%q) = true, want false", in)
		}
	}
}

func TestMatcher_ExtractLinks(t *testing.T) {
	m := New(nil)

	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "single link",
			text: "get this https://terabox.com/s/1abc please",
			want: []string{"https://terabox.com/s/1abc"},
		},
		{
			name: "trailing punctuation and duplicates",
			text: "https://terabox.com/s/1a, https://example.com/x. https://terabox.com/s/1a!",
			want: []string{"https://terabox.com/s/1a", "https://example.com/x"},
		},
		{
			name: "no links",
			text: "nothing to see",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := m.ExtractLinks(tt.text)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ExtractLinks() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMatcher_Normalize(t *testing.T) {
	m := New(nil)

	tests := []struct {
		name string
		raw  string
		want string
	}{
		{name: "mirror rewritten", raw: "https://teraboxlink.com/s/1abc", want: "https://www.terabox.com/s/1abc"},
		{name: "www mirror rewritten", raw: "https://www.nephobox.com/s/1abc?x=1", want: "https://www.terabox.com/s/1abc?x=1"},
		{name: "canonical untouched", raw: "https://www.terabox.app/s/1abc", want: "https://www.terabox.app/s/1abc"},
		{name: "unparsable untouched", raw: "not a url", want: "not a url"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := m.Normalize(tt.raw); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestMatcher_CustomCanonicalHost(t *testing.T) {
	m := New(nil, WithCanonicalHost("www.1024tera.com"), WithMirrors([]string{"terabox.com"}))

	got := m.Normalize("https://terabox.com/s/1abc")
	if got != "https://www.1024tera.com/s/1abc" {
		t.Errorf("Normalize() = %q, want %q", got, "https://www.1024tera.com/s/1abc")
	}
}

func TestWithScheme(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"terabox.com/s/1abc", "https://terabox.com/s/1abc"},
		{" www.1024tera.com/s/1x ", "https://www.1024tera.com/s/1x"},
		{"//terabox.app/s/1y", "https://terabox.app/s/1y"},
		{"http://terabox.com/s/1abc", "http://terabox.com/s/1abc"},
		{"https://terabox.com/s/1abc", "https://terabox.com/s/1abc"},
		{"", ""},
	}

	m := New(nil)
	for _, tt := range tests {
		got := WithScheme(tt.in)
		if got != tt.want {
			t.Errorf("WithScheme(%q) = %q, want %q", tt.in, got, tt.want)
		}
		if tt.want != "" && !m.IsSupportedDomain(got) {
			t.Errorf("IsSupportedDomain(%q) = false, want true", got)
		}
	}
}
