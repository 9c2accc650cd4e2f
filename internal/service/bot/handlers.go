package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/vertextoedge/terabox-relay/internal/domain"
)

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	userID := msg.From.ID

	switch strings.ToLower(msg.Command()) {
	case "start":
		b.reply(chatID, welcomeText, mainMenuKeyboard())
	case "menu":
		b.reply(chatID, menuText, mainMenuKeyboard())
	case "help":
		b.reply(chatID, helpText(b.config.Limits), mainMenuKeyboard())
	case "limits":
		b.reply(chatID, limitsText(b.config.Limits), mainMenuKeyboard())
	case "privacy":
		b.reply(chatID, privacyText, mainMenuKeyboard())
	case "ping":
		b.reply(chatID, "🏓 Pong.", nil)
	case "id":
		b.reply(chatID, fmt.Sprintf("👤 Your ID: <code>%d</code>", userID), nil)
	case "settings":
		s := b.settings(ctx, userID)
		b.reply(chatID, settingsText(s), settingsKeyboard(s))
	case "stats":
		if !b.isOwner(userID) {
			b.reply(chatID, "Unknown command. Open /menu.", nil)
			return
		}
		b.reply(chatID, b.statsText(ctx), nil)
	case "broadcast":
		if !b.isOwner(userID) {
			b.reply(chatID, "Unknown command. Open /menu.", nil)
			return
		}
		text := strings.TrimSpace(msg.CommandArguments())
		if text == "" {
			b.reply(chatID, "Usage: <code>/broadcast your message</code>", nil)
			return
		}
		b.wg.Add(1)
		go func() {
			defer b.wg.Done()
			ok, failed := b.Broadcast(ctx, text)
			b.reply(chatID, fmt.Sprintf("📣 Broadcast done. ✅ %d | ❌ %d", ok, failed), nil)
		}()
	default:
		b.reply(chatID, "Unknown command. Open /menu.", nil)
	}
}

func (b *Bot) handleCallback(ctx context.Context, cq *tgbotapi.CallbackQuery) {
	if cq.From == nil || cq.Message == nil || cq.Message.Chat == nil {
		b.answer(cq.ID, "")
		return
	}

	chatID := cq.Message.Chat.ID
	msgID := cq.Message.MessageID
	userID := cq.From.ID

	switch cq.Data {
	case cbHelp:
		b.edit(chatID, msgID, helpText(b.config.Limits), backKeyboard())
	case cbLimits:
		b.edit(chatID, msgID, limitsText(b.config.Limits), backKeyboard())
	case cbPrivacy:
		b.edit(chatID, msgID, privacyText, backKeyboard())
	case cbSettings:
		s := b.settings(ctx, userID)
		b.edit(chatID, msgID, settingsText(s), settingsKeyboard(s))
	case cbToggleShort, cbToggleMirror:
		b.toggle(ctx, cq, chatID, msgID)
		return
	case cbBack:
		b.edit(chatID, msgID, menuText, mainMenuKeyboard())
	}

	b.answer(cq.ID, "")
}

func (b *Bot) toggle(ctx context.Context, cq *tgbotapi.CallbackQuery, chatID int64, msgID int) {
	name, label := domain.SettingAutoShort, "Auto-Short"
	if cq.Data == cbToggleMirror {
		name, label = domain.SettingAutoMirror, "Auto-Mirror"
	}

	if b.store == nil {
		b.answer(cq.ID, "Settings are unavailable.")
		return
	}
	s, err := b.store.ToggleSetting(ctx, cq.From.ID, name)
	if err != nil {
		b.logger.Error("failed to toggle setting",
			zap.Int64("user_id", cq.From.ID),
			zap.String("setting", name),
			zap.Error(err))
		b.answer(cq.ID, "Couldn't save the setting, try again.")
		return
	}

	value := s.AutoShort
	if name == domain.SettingAutoMirror {
		value = s.AutoMirror
	}
	b.answer(cq.ID, fmt.Sprintf("%s is now %s.", label, onOff(value)))
	b.edit(chatID, msgID, settingsText(s), settingsKeyboard(s))
}

// Broadcast sends text to every known user and returns delivered and failed counts
func (b *Bot) Broadcast(ctx context.Context, text string) (ok, failed int) {
	if b.store == nil {
		return 0, 0
	}
	ids, err := b.store.ListUserIDs(ctx)
	if err != nil {
		b.logger.Error("failed to list users for broadcast", zap.Error(err))
		return 0, 0
	}

	b.logger.Info("broadcast started", zap.Int("recipients", len(ids)))

	for i, id := range ids {
		if i > 0 {
			select {
			case <-ctx.Done():
				return ok, failed + len(ids) - i
			case <-time.After(b.config.BroadcastDelay):
			}
		}

		msg := tgbotapi.NewMessage(id, text)
		msg.ParseMode = tgbotapi.ModeHTML
		if _, err := b.api.Send(msg); err != nil {
			b.logger.Debug("broadcast delivery failed", zap.Int64("user_id", id), zap.Error(err))
			failed++
			continue
		}
		ok++
	}

	b.logger.Info("broadcast finished", zap.Int("ok", ok), zap.Int("failed", failed))
	return ok, failed
}

func (b *Bot) statsText(ctx context.Context) string {
	users := 0
	if b.store != nil {
		n, err := b.store.CountUsers(ctx)
		if err != nil {
			b.logger.Warn("failed to count users", zap.Error(err))
		}
		users = n
	}
	return statsText(users, b.relay.Stats())
}

func (b *Bot) settings(ctx context.Context, userID int64) domain.Settings {
	if b.store == nil {
		return b.config.DefaultSettings
	}
	s, err := b.store.GetSettings(ctx, userID)
	if err != nil {
		b.logger.Warn("failed to load settings", zap.Int64("user_id", userID), zap.Error(err))
		return b.config.DefaultSettings
	}
	return s
}

func (b *Bot) reply(chatID int64, text string, markup interface{}) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	if markup != nil {
		msg.ReplyMarkup = markup
	}
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Warn("failed to send reply", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

func (b *Bot) edit(chatID int64, msgID int, text string, markup tgbotapi.InlineKeyboardMarkup) {
	edit := tgbotapi.NewEditMessageTextAndMarkup(chatID, msgID, text, markup)
	edit.ParseMode = tgbotapi.ModeHTML
	edit.DisableWebPagePreview = true
	if _, err := b.api.Request(edit); err != nil {
		b.logger.Debug("failed to edit menu", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

func (b *Bot) answer(callbackID, text string) {
	if _, err := b.api.Request(tgbotapi.NewCallback(callbackID, text)); err != nil {
		b.logger.Debug("failed to answer callback", zap.Error(err))
	}
}
