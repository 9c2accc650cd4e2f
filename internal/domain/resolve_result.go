package domain

// DefaultFileName is used when the upstream listing carries no name.
const DefaultFileName = "file"

// ResolveResult is the outcome of resolving one share link.
// It is created by the resolver and never modified afterwards.
type ResolveResult struct {
	OK  bool
	Err error

	FileName   string
	FileSize   int64 // 0 means unknown
	SourceLink string
	DirectLink string
	Thumbnail  string
}

// ResolveFailure builds a failed result
func ResolveFailure(err error) *ResolveResult {
	if err == nil {
		err = ErrNoDownloadLink
	}
	return &ResolveResult{OK: false, Err: err, FileName: DefaultFileName}
}

// ResolveSuccess builds a successful result. A success without any usable
// link is reported as ErrNoDownloadLink instead.
func ResolveSuccess(fileName string, fileSize int64, sourceLink, directLink, thumbnail string) *ResolveResult {
	if sourceLink == "" && directLink == "" {
		return ResolveFailure(ErrNoDownloadLink)
	}
	if fileName == "" {
		fileName = DefaultFileName
	}
	if fileSize < 0 {
		fileSize = 0
	}
	if directLink == "" {
		directLink = sourceLink
	}
	return &ResolveResult{
		OK:         true,
		FileName:   fileName,
		FileSize:   fileSize,
		SourceLink: sourceLink,
		DirectLink: directLink,
		Thumbnail:  thumbnail,
	}
}

// Reason returns the taxonomy kind of a failed result
func (r *ResolveResult) Reason() Kind {
	if r == nil || r.OK {
		return KindNone
	}
	return KindOf(r.Err)
}

// BestLink returns the direct link, or the source link when no redirect was resolved
func (r *ResolveResult) BestLink() string {
	if r.DirectLink != "" {
		return r.DirectLink
	}
	return r.SourceLink
}
