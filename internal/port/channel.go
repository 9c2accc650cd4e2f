package port

import "context"

// MessageRef identifies a message previously sent to a chat
type MessageRef struct {
	ChatID    int64
	MessageID int
}

// Link is a labelled URL rendered as a button under a message
type Link struct {
	Label string
	URL   string
}

// Channel is the chat the pipeline talks to.
// Edits may fail or be rate limited by the chat platform.
type Channel interface {
	Send(ctx context.Context, text string) (MessageRef, error)
	Edit(ctx context.Context, ref MessageRef, text string) error
	EditWithLinks(ctx context.Context, ref MessageRef, text string, links []Link) error
	SendFile(ctx context.Context, path, caption string) error
}
