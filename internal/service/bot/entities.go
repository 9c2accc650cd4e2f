package bot

import (
	"unicode/utf16"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/vertextoedge/terabox-relay/internal/urlmatch"
)

// SliceUTF16 returns the part of s at a UTF-16 code unit offset and length,
// the unit Telegram entities are measured in. Out of range values are clamped.
func SliceUTF16(s string, offset, length int) string {
	units := utf16.Encode([]rune(s))
	if offset < 0 {
		offset = 0
	}
	if offset > len(units) {
		offset = len(units)
	}
	end := offset + length
	if length < 0 || end > len(units) {
		end = len(units)
	}
	return string(utf16.Decode(units[offset:end]))
}

// EntityLinks returns the URLs carried by url and text_link entities of the
// message text or caption. Scheme-less url entities get https://.
func EntityLinks(msg *tgbotapi.Message) []string {
	if msg == nil {
		return nil
	}

	text, entities := msg.Text, msg.Entities
	if text == "" {
		text, entities = msg.Caption, msg.CaptionEntities
	}

	var out []string
	for _, e := range entities {
		switch e.Type {
		case "url":
			if u := SliceUTF16(text, e.Offset, e.Length); u != "" {
				out = append(out, urlmatch.WithScheme(u))
			}
		case "text_link":
			if e.URL != "" {
				out = append(out, e.URL)
			}
		}
	}
	return out
}

// MessageText returns the text of a message, falling back to its caption
func MessageText(msg *tgbotapi.Message) string {
	if msg == nil {
		return ""
	}
	if msg.Text != "" {
		return msg.Text
	}
	return msg.Caption
}
