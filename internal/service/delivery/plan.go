// Package delivery decides how a resolved file reaches the user: streamed
// and re-uploaded, or surfaced as a link only.
package delivery

import "github.com/vertextoedge/terabox-relay/internal/domain"

// Action is the delivery decision for one resolved link
type Action int

const (
	// Proceed streams the file and uploads it to the chat
	Proceed Action = iota
	// RejectTooLarge surfaces the link without transferring
	RejectTooLarge
	// RejectNoSpace surfaces the link because local disk is short
	RejectNoSpace
	// Failed means resolution failed and there is nothing to deliver
	Failed
)

func (a Action) String() string {
	switch a {
	case Proceed:
		return "proceed"
	case RejectTooLarge:
		return "reject_too_large"
	case RejectNoSpace:
		return "reject_no_space"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Plan is the outcome of a delivery decision
type Plan struct {
	Action     Action
	FileName   string
	FileSize   int64
	DirectLink string
	SourceLink string
	Err        error // set for Failed, and for rejections with a cause
}

// LinkOnly reports whether the plan surfaces a link without transferring
func (p Plan) LinkOnly() bool {
	return p.Action == RejectTooLarge || p.Action == RejectNoSpace
}

// Decide picks a plan from a resolution result and a size ceiling.
// Unknown sizes (0) always proceed; the transfer enforces the ceiling mid-stream.
func Decide(result *domain.ResolveResult, maxBytes int64) Plan {
	if result == nil || !result.OK {
		var err error = domain.ErrNoDownloadLink
		if result != nil && result.Err != nil {
			err = result.Err
		}
		return Plan{Action: Failed, Err: err}
	}

	plan := Plan{
		Action:     Proceed,
		FileName:   result.FileName,
		FileSize:   result.FileSize,
		DirectLink: result.BestLink(),
		SourceLink: result.SourceLink,
	}

	if result.FileSize > 0 && result.FileSize > maxBytes {
		plan.Action = RejectTooLarge
		plan.Err = &domain.SizeExceededError{Size: result.FileSize, Limit: maxBytes}
	}
	return plan
}
