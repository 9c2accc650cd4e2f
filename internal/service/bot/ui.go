package bot

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/vertextoedge/terabox-relay/internal/domain"
	"github.com/vertextoedge/terabox-relay/internal/service/relay"
)

// Callback data of inline buttons
const (
	cbHelp         = "help"
	cbLimits       = "limits"
	cbPrivacy      = "privacy"
	cbSettings     = "settings"
	cbToggleShort  = "toggle_short"
	cbToggleMirror = "toggle_mirror"
	cbBack         = "back"
)

const (
	menuText = "🧭 <b>Main Menu</b>"

	welcomeText = "👋 <b>Welcome!</b>\n" +
		"Send a <u>TeraBox</u> share link and I'll fetch a direct download URL.\n\n" +
		"• Works with terabox.com / terabox.app / teraboxapp.com and mirrors\n" +
		"• Private or passworded shares won't resolve\n\n" +
		"Tip: you can send multiple links separated by new lines."

	privacyText = "<b>Privacy &amp; Terms</b>\n" +
		"• I store your Telegram id, name and settings to remember your preferences.\n" +
		"• Links you send are not stored. Mirrored files are deleted right after upload.\n" +
		"• Only share content you have the right to distribute."

	settingsIntro = "<b>Settings</b>\n" +
		"• Auto-Short: shorten direct links (TinyURL)\n" +
		"• Auto-Mirror: if ON and size ≤ limit, upload the file to Telegram"
)

// Limits are the user-visible quotas
type Limits struct {
	MaxFileBytes  int64
	RateLimit     int
	RateWindow    time.Duration
	MaxConcurrent int
}

func helpText(l Limits) string {
	return "<b>How it works</b>\n" +
		"1) Send a TeraBox share link.\n" +
		"2) I fetch the file list and extract a direct CDN URL.\n" +
		"3) Optional: shorten the URL and/or mirror the file to Telegram (see /settings).\n\n" +
		"<b>Batch</b>: send multiple links separated by spaces or new lines.\n" +
		"If a share is a folder, the first file is used.\n" +
		fmt.Sprintf("<b>Limit</b>: %d requests per %s; mirror ≤ <u>%s</u>.", l.RateLimit, formatWindow(l.RateWindow), humanize.IBytes(uint64(l.MaxFileBytes)))
}

func limitsText(l Limits) string {
	return "<b>Limits &amp; Quotas</b>\n" +
		fmt.Sprintf("• Max mirrored file: <code>%s</code>\n", humanize.IBytes(uint64(l.MaxFileBytes))) +
		fmt.Sprintf("• Requests: <code>%d</code> per <code>%s</code>\n", l.RateLimit, formatWindow(l.RateWindow)) +
		fmt.Sprintf("• Parallel downloads: <code>%d</code>\n", l.MaxConcurrent) +
		"Larger files get a direct link instead."
}

func settingsText(s domain.Settings) string {
	return settingsIntro + "\n\n" +
		fmt.Sprintf("Auto-Short: <b>%s</b>\nAuto-Mirror: <b>%s</b>", onOff(s.AutoShort), onOff(s.AutoMirror))
}

func statsText(users int, st relay.RuntimeStats) string {
	var b strings.Builder
	b.WriteString("📊 <b>Stats</b>\n")
	fmt.Fprintf(&b, "• Users: <code>%d</code>\n", users)
	fmt.Fprintf(&b, "• Active transfers: <code>%d/%d</code>\n", st.Pool.Active, st.Pool.Size)
	fmt.Fprintf(&b, "• Transfers started: <code>%d</code>\n", st.Pool.Acquisitions)
	fmt.Fprintf(&b, "• Rate-limited users tracked: <code>%d</code>", st.LimiterKeys)
	return b.String()
}

// formatWindow renders a rate window as "hour", "3 hours" or "15 minutes"
func formatWindow(d time.Duration) string {
	switch {
	case d == time.Hour:
		return "hour"
	case d > time.Hour && d%time.Hour == 0:
		return fmt.Sprintf("%d hours", d/time.Hour)
	case d == time.Minute:
		return "minute"
	case d > time.Minute && d%time.Minute == 0:
		return fmt.Sprintf("%d minutes", d/time.Minute)
	default:
		return d.String()
	}
}

func onOff(v bool) string {
	if v {
		return "ON"
	}
	return "OFF"
}

func mainMenuKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🆘 Help", cbHelp),
			tgbotapi.NewInlineKeyboardButtonData("📏 Limits", cbLimits),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⚙️ Settings", cbSettings),
			tgbotapi.NewInlineKeyboardButtonData("🔒 Privacy", cbPrivacy),
		),
	)
}

func backKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("⬅️ Back", cbBack)),
	)
}

func settingsKeyboard(s domain.Settings) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("🗜️ Auto-Short: "+onOff(s.AutoShort), cbToggleShort)),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("📥 Auto-Mirror: "+onOff(s.AutoMirror), cbToggleMirror)),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("⬅️ Back", cbBack)),
	)
}

func botCommands() []tgbotapi.BotCommand {
	return []tgbotapi.BotCommand{
		{Command: "menu", Description: "Open menu"},
		{Command: "help", Description: "How to use the bot"},
		{Command: "settings", Description: "Auto-short and auto-mirror"},
		{Command: "limits", Description: "View limits & quotas"},
		{Command: "privacy", Description: "Privacy & terms"},
		{Command: "id", Description: "Show your Telegram ID"},
		{Command: "ping", Description: "Check the bot is alive"},
	}
}
