// Package telegram implements the chat channel on the Telegram Bot API.
package telegram

import (
	"context"
	"errors"
	"path/filepath"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/vertextoedge/terabox-relay/internal/port"
)

// Ensure Channel implements port.Channel
var _ port.Channel = (*Channel)(nil)

var videoExtensions = map[string]struct{}{
	".mp4":  {},
	".mkv":  {},
	".avi":  {},
	".mov":  {},
	".webm": {},
	".m4v":  {},
}

// API is the part of tgbotapi.BotAPI the adapter needs
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Channel talks to one chat, replying to the message that started a request
type Channel struct {
	api     API
	chatID  int64
	replyTo int
}

// NewChannel creates a Channel for chatID. replyTo may be 0.
func NewChannel(api API, chatID int64, replyTo int) *Channel {
	return &Channel{api: api, chatID: chatID, replyTo: replyTo}
}

// IsVideo reports whether the file name has a video extension
func IsVideo(name string) bool {
	_, ok := videoExtensions[strings.ToLower(filepath.Ext(name))]
	return ok
}

// Send posts an HTML message
func (c *Channel) Send(ctx context.Context, text string) (port.MessageRef, error) {
	if err := ctx.Err(); err != nil {
		return port.MessageRef{}, err
	}

	msg := tgbotapi.NewMessage(c.chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	msg.ReplyToMessageID = c.replyTo
	msg.AllowSendingWithoutReply = true

	sent, err := c.api.Send(msg)
	if err != nil {
		return port.MessageRef{}, err
	}
	return port.MessageRef{ChatID: c.chatID, MessageID: sent.MessageID}, nil
}

// Edit replaces the text of a message
func (c *Channel) Edit(ctx context.Context, ref port.MessageRef, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	edit := tgbotapi.NewEditMessageText(ref.ChatID, ref.MessageID, text)
	edit.ParseMode = tgbotapi.ModeHTML
	edit.DisableWebPagePreview = true

	return ignoreNotModified(c.request(edit))
}

// EditWithLinks replaces the text of a message and attaches one URL button per link
func (c *Channel) EditWithLinks(ctx context.Context, ref port.MessageRef, text string, links []port.Link) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	edit := tgbotapi.NewEditMessageText(ref.ChatID, ref.MessageID, text)
	edit.ParseMode = tgbotapi.ModeHTML
	edit.DisableWebPagePreview = true
	if len(links) > 0 {
		markup := LinkKeyboard(links)
		edit.ReplyMarkup = &markup
	}

	return ignoreNotModified(c.request(edit))
}

// SendFile uploads a local file, as a streamable video when the extension allows
func (c *Channel) SendFile(ctx context.Context, path, caption string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	file := tgbotapi.FilePath(path)

	var upload tgbotapi.Chattable
	if IsVideo(path) {
		video := tgbotapi.NewVideo(c.chatID, file)
		video.Caption = caption
		video.SupportsStreaming = true
		video.ReplyToMessageID = c.replyTo
		video.AllowSendingWithoutReply = true
		upload = video
	} else {
		doc := tgbotapi.NewDocument(c.chatID, file)
		doc.Caption = caption
		doc.ReplyToMessageID = c.replyTo
		doc.AllowSendingWithoutReply = true
		upload = doc
	}

	_, err := c.api.Send(upload)
	return err
}

// LinkKeyboard renders links as an inline keyboard, one button per row
func LinkKeyboard(links []port.Link) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(links))
	for _, l := range links {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonURL(l.Label, l.URL)))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func (c *Channel) request(cfg tgbotapi.Chattable) error {
	_, err := c.api.Request(cfg)
	return err
}

// ignoreNotModified drops the error Telegram returns when an edit changes nothing
func ignoreNotModified(err error) error {
	var tgErr *tgbotapi.Error
	if errors.As(err, &tgErr) && strings.Contains(tgErr.Message, "message is not modified") {
		return nil
	}
	return err
}
