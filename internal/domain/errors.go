package domain

import (
	"errors"
	"fmt"
	"time"
)

// Kind classifies a failure for user-facing reporting.
type Kind string

const (
	KindNone              Kind = ""
	KindInvalidDomain     Kind = "invalid_domain"
	KindUpstreamHTTP      Kind = "upstream_http_error"
	KindMissingParameters Kind = "missing_parameters"
	KindUpstreamAPI       Kind = "upstream_api_error"
	KindNoFilesFound      Kind = "no_files_found"
	KindNoDownloadLink    Kind = "no_download_link"
	KindTransfer          Kind = "transfer_error"
	KindSizeExceeded      Kind = "size_exceeded"
	KindRateLimited       Kind = "rate_limited"
	KindUnknown           Kind = "unknown"
)

// Sentinel errors, one per Kind
var (
	ErrInvalidDomain     = errors.New("url domain is not supported")
	ErrUpstreamHTTP      = errors.New("upstream returned an unexpected http status")
	ErrMissingParameters = errors.New("required share parameters not found, link may be private")
	ErrUpstreamAPI       = errors.New("upstream api reported an error")
	ErrNoFilesFound      = errors.New("no files found in this share")
	ErrNoDownloadLink    = errors.New("no downloadable link exposed")
	ErrTransfer          = errors.New("transfer failed")
	ErrSizeExceeded      = errors.New("file exceeds the configured size limit")
	ErrRateLimited       = errors.New("rate limit exceeded")

	ErrInsufficientSpace = errors.New("insufficient disk space")
)

var kindBySentinel = []struct {
	err  error
	kind Kind
}{
	{ErrInvalidDomain, KindInvalidDomain},
	{ErrUpstreamHTTP, KindUpstreamHTTP},
	{ErrMissingParameters, KindMissingParameters},
	{ErrUpstreamAPI, KindUpstreamAPI},
	{ErrNoFilesFound, KindNoFilesFound},
	{ErrNoDownloadLink, KindNoDownloadLink},
	{ErrTransfer, KindTransfer},
	{ErrSizeExceeded, KindSizeExceeded},
	{ErrRateLimited, KindRateLimited},
}

// KindOf returns the taxonomy kind of err. Nil maps to KindNone and anything
// outside the taxonomy maps to KindUnknown.
func KindOf(err error) Kind {
	if err == nil {
		return KindNone
	}
	for _, s := range kindBySentinel {
		if errors.Is(err, s.err) {
			return s.kind
		}
	}
	return KindUnknown
}

// UpstreamHTTPError is a non-2xx answer from the share page, the listing
// endpoint or the transfer stream.
type UpstreamHTTPError struct {
	Status int
	Stage  string
}

func (e *UpstreamHTTPError) Error() string {
	if e.Stage != "" {
		return fmt.Sprintf("HTTP %d on %s", e.Status, e.Stage)
	}
	return fmt.Sprintf("HTTP %d", e.Status)
}

func (e *UpstreamHTTPError) Unwrap() error {
	return ErrUpstreamHTTP
}

// NewUpstreamHTTPError creates a new UpstreamHTTPError
func NewUpstreamHTTPError(status int, stage string) *UpstreamHTTPError {
	return &UpstreamHTTPError{Status: status, Stage: stage}
}

// UpstreamAPIError carries the errno reported by the listing endpoint.
type UpstreamAPIError struct {
	Code int
}

func (e *UpstreamAPIError) Error() string {
	return fmt.Sprintf("upstream api error: errno=%d", e.Code)
}

func (e *UpstreamAPIError) Unwrap() error {
	return ErrUpstreamAPI
}

// TransferError wraps an I/O failure in the middle of a stream.
type TransferError struct {
	Op  string
	Err error
}

func (e *TransferError) Error() string {
	if e.Err == nil {
		return "transfer " + e.Op + " failed"
	}
	return "transfer " + e.Op + ": " + e.Err.Error()
}

// Unwrap exposes both the taxonomy sentinel and the underlying cause.
func (e *TransferError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrTransfer}
	}
	return []error{ErrTransfer, e.Err}
}

// NewTransferError creates a new TransferError
func NewTransferError(op string, err error) *TransferError {
	return &TransferError{Op: op, Err: err}
}

// SizeExceededError reports a file larger than the allowed ceiling.
type SizeExceededError struct {
	Size  int64
	Limit int64
}

func (e *SizeExceededError) Error() string {
	return fmt.Sprintf("file size (%d bytes) exceeds limit (%d bytes)", e.Size, e.Limit)
}

func (e *SizeExceededError) Unwrap() error {
	return ErrSizeExceeded
}

// RateLimitedError tells the caller how long to wait before retrying.
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limit exceeded, retry in %s", e.RetryAfter.Round(time.Second))
}

func (e *RateLimitedError) Unwrap() error {
	return ErrRateLimited
}

// GetRetryAfter returns the wait duration if err is a rate limit error
func GetRetryAfter(err error) (time.Duration, bool) {
	var re *RateLimitedError
	if errors.As(err, &re) {
		return re.RetryAfter, true
	}
	return 0, false
}
