package domain

import (
	"errors"
	"fmt"
	"io"
	"testing"
	"time"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{name: "nil", err: nil, want: KindNone},
		{name: "invalid domain", err: ErrInvalidDomain, want: KindInvalidDomain},
		{name: "upstream http", err: NewUpstreamHTTPError(404, "share page"), want: KindUpstreamHTTP},
		{name: "missing parameters wrapped", err: fmt.Errorf("resolve: %w", ErrMissingParameters), want: KindMissingParameters},
		{name: "upstream api", err: &UpstreamAPIError{Code: 2}, want: KindUpstreamAPI},
		{name: "no files", err: ErrNoFilesFound, want: KindNoFilesFound},
		{name: "no link", err: ErrNoDownloadLink, want: KindNoDownloadLink},
		{name: "transfer", err: NewTransferError("read", io.ErrUnexpectedEOF), want: KindTransfer},
		{name: "size exceeded", err: &SizeExceededError{Size: 10, Limit: 5}, want: KindSizeExceeded},
		{name: "rate limited", err: &RateLimitedError{RetryAfter: time.Minute}, want: KindRateLimited},
		{name: "foreign error", err: errors.New("boom"), want: KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Errorf("KindOf() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTransferError_Unwrap(t *testing.T) {
	te := NewTransferError("read", io.ErrUnexpectedEOF)

	if !errors.Is(te, ErrTransfer) {
		t.Error("errors.Is(te, ErrTransfer) = false, want true")
	}
	if !errors.Is(te, io.ErrUnexpectedEOF) {
		t.Error("errors.Is(te, io.ErrUnexpectedEOF) = false, want true")
	}

	bare := NewTransferError("write", nil)
	if got := bare.Error(); got != "transfer write failed" {
		t.Errorf("Error() = %q, want %q", got, "transfer write failed")
	}
}

func TestUpstreamHTTPError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *UpstreamHTTPError
		want string
	}{
		{name: "with stage", err: NewUpstreamHTTPError(503, "share list"), want: "HTTP 503 on share list"},
		{name: "without stage", err: NewUpstreamHTTPError(403, ""), want: "HTTP 403"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestGetRetryAfter(t *testing.T) {
	err := fmt.Errorf("user 1: %w", &RateLimitedError{RetryAfter: 90 * time.Second})

	d, ok := GetRetryAfter(err)
	if !ok {
		t.Fatal("GetRetryAfter() ok = false, want true")
	}
	if d != 90*time.Second {
		t.Errorf("GetRetryAfter() = %v, want %v", d, 90*time.Second)
	}

	if _, ok := GetRetryAfter(errors.New("other")); ok {
		t.Error("GetRetryAfter() on foreign error ok = true, want false")
	}
}

func TestResolveSuccess(t *testing.T) {
	tests := []struct {
		name       string
		fileName   string
		size       int64
		source     string
		direct     string
		wantOK     bool
		wantName   string
		wantDirect string
	}{
		{
			name:       "direct link kept",
			fileName:   "a.mp4",
			size:       10,
			source:     "https://d/src",
			direct:     "https://cdn/x",
			wantOK:     true,
			wantName:   "a.mp4",
			wantDirect: "https://cdn/x",
		},
		{
			name:       "falls back to source link",
			fileName:   "",
			source:     "https://d/src",
			wantOK:     true,
			wantName:   DefaultFileName,
			wantDirect: "https://d/src",
		},
		{
			name:     "no links at all",
			fileName: "a.mp4",
			wantOK:   false,
			wantName: DefaultFileName,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := ResolveSuccess(tt.fileName, tt.size, tt.source, tt.direct, "")
			if r.OK != tt.wantOK {
				t.Fatalf("OK = %v, want %v", r.OK, tt.wantOK)
			}
			if r.FileName != tt.wantName {
				t.Errorf("FileName = %q, want %q", r.FileName, tt.wantName)
			}
			if r.DirectLink != tt.wantDirect {
				t.Errorf("DirectLink = %q, want %q", r.DirectLink, tt.wantDirect)
			}
			if !tt.wantOK && r.Reason() != KindNoDownloadLink {
				t.Errorf("Reason() = %v, want %v", r.Reason(), KindNoDownloadLink)
			}
		})
	}
}

func TestTransferProgress(t *testing.T) {
	p := TransferProgress{BytesDone: 50, BytesTotal: 200, Elapsed: 2 * time.Second}
	if got := p.Percentage(); got != 25 {
		t.Errorf("Percentage() = %v, want 25", got)
	}
	if got := p.Throughput(); got != 25 {
		t.Errorf("Throughput() = %v, want 25", got)
	}

	unknown := TransferProgress{BytesDone: 50}
	if got := unknown.Percentage(); got != 0 {
		t.Errorf("Percentage() with unknown total = %v, want 0", got)
	}

	// first chunk arrives almost instantly
	early := TransferProgress{BytesDone: 1 << 20, Elapsed: 50 * time.Microsecond}
	if got := early.Throughput(); got != 0 {
		t.Errorf("Throughput() after %v = %v, want 0", early.Elapsed, got)
	}
}
