package relay

import (
	"errors"
	"fmt"
	"html"
	"math"
	"net/url"

	"github.com/dustin/go-humanize"

	"github.com/vertextoedge/terabox-relay/internal/domain"
	"github.com/vertextoedge/terabox-relay/internal/service/delivery"
)

const hintText = "Send a <b>TeraBox</b> share link to get a direct download URL.\nOpen /menu for help &amp; limits."

// UserMessage maps an error to the short text shown in chat
func UserMessage(err error) string {
	switch domain.KindOf(err) {
	case domain.KindNone:
		return ""
	case domain.KindInvalidDomain:
		return "That URL domain isn't supported."
	case domain.KindUpstreamHTTP:
		var he *domain.UpstreamHTTPError
		if errors.As(err, &he) {
			return fmt.Sprintf("TeraBox answered with HTTP %d. Try again later.", he.Status)
		}
		return "Couldn't reach TeraBox. Try again later."
	case domain.KindMissingParameters:
		return "Couldn't read the share page. The link may be private, passworded or expired."
	case domain.KindUpstreamAPI:
		var ae *domain.UpstreamAPIError
		if errors.As(err, &ae) {
			return fmt.Sprintf("TeraBox API error (errno=%d).", ae.Code)
		}
		return "TeraBox API error."
	case domain.KindNoFilesFound:
		return "No files found in this share."
	case domain.KindNoDownloadLink:
		return "No downloadable link exposed (private or unsupported)."
	case domain.KindTransfer:
		return "Download failed while streaming the file."
	case domain.KindSizeExceeded:
		var se *domain.SizeExceededError
		if errors.As(err, &se) && se.Limit > 0 {
			return fmt.Sprintf("File is too large for Telegram upload (limit %s).", humanize.IBytes(uint64(se.Limit)))
		}
		return "File is too large for Telegram upload."
	case domain.KindRateLimited:
		if wait, ok := domain.GetRetryAfter(err); ok {
			return fmt.Sprintf("Rate limit: try again in ~%ds.", int(math.Ceil(wait.Seconds())))
		}
		return "Rate limit: try again later."
	}

	if errors.Is(err, domain.ErrInsufficientSpace) {
		return "Not enough disk space on the server."
	}
	return "Something went wrong. Try again later."
}

func rejectHeadline(plan delivery.Plan) string {
	if plan.Action == delivery.RejectNoSpace {
		return "⚠️ <b>Server is short on disk space</b>"
	}
	return "⚠️ File is <b>too large</b> for Telegram upload."
}

// fileCard renders the file details shown above the link buttons
func fileCard(headline string, plan delivery.Plan) string {
	text := fmt.Sprintf("%s\n• File: <code>%s</code>\n• Size: <code>%s</code>",
		headline, html.EscapeString(truncate(plan.FileName, 80)), formatSize(plan.FileSize))
	if h := linkHost(plan.SourceLink); h != "" {
		text += fmt.Sprintf("\n• DLink host: <code>%s</code>", html.EscapeString(h))
	}
	if h := linkHost(plan.DirectLink); h != "" {
		text += fmt.Sprintf("\n• Direct host: <code>%s</code>", html.EscapeString(h))
	}
	return text
}

func linkHost(raw string) string {
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return u.Host
}

func progressText(name string, p domain.TransferProgress) string {
	speed := "measuring…"
	if bps := p.Throughput(); bps > 0 {
		speed = humanize.IBytes(uint64(bps)) + "/s"
	}
	if p.BytesTotal <= 0 {
		return fmt.Sprintf("⬇️ <b>Downloading…</b>\n<code>%s</code>\n%s\nSpeed: %s",
			html.EscapeString(name), humanize.IBytes(uint64(p.BytesDone)), speed)
	}
	return fmt.Sprintf("⬇️ <b>Downloading…</b>\n<code>%s</code>\n%s / %s  (%.1f%%)\nSpeed: %s",
		html.EscapeString(name),
		humanize.IBytes(uint64(p.BytesDone)),
		humanize.IBytes(uint64(p.BytesTotal)),
		p.Percentage(),
		speed)
}

func formatSize(n int64) string {
	if n <= 0 {
		return "unknown"
	}
	return humanize.IBytes(uint64(n))
}

// truncate shortens s to at most n runes, marking the cut with an ellipsis
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}
