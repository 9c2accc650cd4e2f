// Package bot runs the Telegram update loop: commands, inline menus and
// hand-off of link messages to the relay pipeline.
package bot

import (
	"context"
	"fmt"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/vertextoedge/terabox-relay/internal/adapter/telegram"
	"github.com/vertextoedge/terabox-relay/internal/domain"
	"github.com/vertextoedge/terabox-relay/internal/port"
	"github.com/vertextoedge/terabox-relay/internal/service/relay"
)

// API is the part of tgbotapi.BotAPI the bot needs
type API interface {
	telegram.API
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Relayer processes link messages
type Relayer interface {
	HandleText(ctx context.Context, req relay.Request) relay.Summary
	Stats() relay.RuntimeStats
}

// Config contains bot configuration
type Config struct {
	OwnerID         int64
	Limits          Limits
	DefaultSettings domain.Settings // shown when the store has no answer
	PollTimeout     int             // long polling timeout in seconds
	BroadcastDelay  time.Duration   // pause between broadcast messages
}

// DefaultConfig returns default bot configuration
func DefaultConfig() *Config {
	return &Config{
		PollTimeout:    30,
		BroadcastDelay: 50 * time.Millisecond,
	}
}

// Bot dispatches Telegram updates
type Bot struct {
	config *Config
	api    API
	relay  Relayer
	store  port.UserStore
	logger *zap.Logger

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// New creates a new Bot
func New(cfg *Config, api API, relayer Relayer, store port.UserStore, logger *zap.Logger) *Bot {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.PollTimeout == 0 {
		cfg.PollTimeout = 30
	}
	if cfg.BroadcastDelay == 0 {
		cfg.BroadcastDelay = 50 * time.Millisecond
	}

	return &Bot{
		config: cfg,
		api:    api,
		relay:  relayer,
		store:  store,
		logger: logger.Named("bot"),
	}
}

// Start registers the command list and polls for updates until ctx is done
// or Stop is called. In-flight message handlers are awaited before it returns.
func (b *Bot) Start(ctx context.Context) error {
	b.mu.Lock()
	if b.running {
		b.mu.Unlock()
		return fmt.Errorf("bot already running")
	}
	b.running = true
	ctx, b.cancel = context.WithCancel(ctx)
	b.mu.Unlock()

	if _, err := b.api.Request(tgbotapi.NewSetMyCommands(botCommands()...)); err != nil {
		b.logger.Warn("failed to register commands", zap.Error(err))
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = b.config.PollTimeout
	updates := b.api.GetUpdatesChan(u)

	b.logger.Info("bot started", zap.Int("poll_timeout", b.config.PollTimeout))

	b.pollLoop(ctx, updates)

	b.api.StopReceivingUpdates()
	b.wg.Wait()
	b.logger.Info("bot stopped")
	return nil
}

// Stop stops the bot
func (b *Bot) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.cancel != nil {
		b.cancel()
	}
	b.running = false
}

func (b *Bot) pollLoop(ctx context.Context, updates tgbotapi.UpdatesChannel) {
	for {
		select {
		case <-ctx.Done():
			return
		case upd, ok := <-updates:
			if !ok {
				return
			}
			b.HandleUpdate(ctx, upd)
		}
	}
}

// HandleUpdate dispatches one update. Link messages are processed on their
// own goroutine so a slow transfer never blocks the update loop.
func (b *Bot) HandleUpdate(ctx context.Context, upd tgbotapi.Update) {
	switch {
	case upd.CallbackQuery != nil:
		b.handleCallback(ctx, upd.CallbackQuery)
	case upd.Message != nil:
		b.handleMessage(ctx, upd.Message)
	}
}

// Wait blocks until every in-flight message handler has returned
func (b *Bot) Wait() {
	b.wg.Wait()
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil || msg.Chat == nil {
		return
	}

	b.rememberUser(ctx, msg.From)

	if msg.IsCommand() {
		b.handleCommand(ctx, msg)
		return
	}

	req := relay.Request{
		UserID:  msg.From.ID,
		Text:    MessageText(msg),
		Links:   EntityLinks(msg),
		Channel: telegram.NewChannel(b.api, msg.Chat.ID, msg.MessageID),
	}

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				b.logger.Error("message handler panicked",
					zap.Int64("user_id", req.UserID),
					zap.Any("panic", r))
			}
		}()
		b.relay.HandleText(ctx, req)
	}()
}

func (b *Bot) rememberUser(ctx context.Context, from *tgbotapi.User) {
	if b.store == nil {
		return
	}
	user := &domain.User{
		ID:        from.ID,
		FirstName: from.FirstName,
		LastName:  from.LastName,
		Username:  from.UserName,
		FirstSeen: time.Now(),
	}
	if err := b.store.UpsertUser(ctx, user); err != nil {
		b.logger.Warn("failed to upsert user", zap.Int64("user_id", from.ID), zap.Error(err))
	}
}

func (b *Bot) isOwner(userID int64) bool {
	return b.config.OwnerID != 0 && userID == b.config.OwnerID
}
