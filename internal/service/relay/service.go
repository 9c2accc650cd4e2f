// Package relay runs one chat message through the share-link pipeline:
// extract, rate limit, resolve, gate, then either surface the link or
// stream the file and forward it to the chat.
package relay

import (
	"context"
	"fmt"
	"html"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vertextoedge/terabox-relay/internal/domain"
	"github.com/vertextoedge/terabox-relay/internal/port"
	"github.com/vertextoedge/terabox-relay/internal/service/delivery"
	"github.com/vertextoedge/terabox-relay/internal/service/transfer"
	"github.com/vertextoedge/terabox-relay/internal/urlmatch"
	"github.com/vertextoedge/terabox-relay/internal/util/ratelimiter"
)

// Config contains relay configuration
type Config struct {
	OwnerID         int64           // exempt from the per-user rate limit
	DefaultSettings domain.Settings // used when the store cannot be read
}

// Deps are the collaborators of the pipeline. Shortener is optional.
type Deps struct {
	Matcher   *urlmatch.Matcher
	Limiter   *ratelimiter.Window
	Resolver  port.LinkResolver
	Gate      *delivery.Gate
	Pool      *transfer.Pool
	Engine    *transfer.Engine
	FS        port.FileSystem
	Store     port.UserStore
	Shortener port.Shortener
}

// Request is one incoming chat message
type Request struct {
	UserID  int64
	Text    string
	Links   []string // links found outside the text, e.g. in message entities
	Channel port.Channel
}

// Summary reports what happened to a request
type Summary struct {
	Links       int
	OK          int
	Failed      int
	RateLimited bool
}

// Service is the relay pipeline
type Service struct {
	cfg  Config
	deps Deps

	logger *zap.Logger
}

// New creates a new relay Service
func New(cfg Config, deps Deps, logger *zap.Logger) *Service {
	return &Service{
		cfg:    cfg,
		deps:   deps,
		logger: logger.Named("relay"),
	}
}

// HandleText processes every link in a message, one after another
func (s *Service) HandleText(ctx context.Context, req Request) Summary {
	log := s.logger.With(
		zap.String("request_id", uuid.NewString()),
		zap.Int64("user_id", req.UserID),
	)

	links := s.collectLinks(req)
	if len(links) == 0 {
		s.send(ctx, log, req.Channel, hintText)
		return Summary{}
	}

	summary := Summary{Links: len(links)}

	if req.UserID != s.cfg.OwnerID {
		if allowed, wait := s.deps.Limiter.Allow(req.UserID); !allowed {
			log.Info("rate limited", zap.Duration("retry_after", wait))
			s.send(ctx, log, req.Channel, "⏳ "+UserMessage(&domain.RateLimitedError{RetryAfter: wait}))
			summary.RateLimited = true
			summary.Failed = len(links)
			return summary
		}
	}

	settings := s.settings(ctx, log, req.UserID)
	log.Info("handling links",
		zap.Int("count", len(links)),
		zap.Bool("auto_mirror", settings.AutoMirror),
		zap.Bool("auto_short", settings.AutoShort))

	for i, link := range links {
		if s.processLink(ctx, log, req.Channel, link, i+1, len(links), settings) {
			summary.OK++
		} else {
			summary.Failed++
		}
	}

	if len(links) > 1 {
		s.send(ctx, log, req.Channel, fmt.Sprintf("Batch done. ✅ %d | ❌ %d", summary.OK, summary.Failed))
	}

	log.Info("request finished",
		zap.Int("ok", summary.OK),
		zap.Int("failed", summary.Failed))

	return summary
}

// Notify edits a status message. Failures are logged and reported as false,
// never propagated: edits are cosmetic and the chat may throttle them.
func (s *Service) Notify(ctx context.Context, ch port.Channel, ref port.MessageRef, text string) bool {
	if err := ch.Edit(ctx, ref, text); err != nil {
		s.logger.Debug("status edit failed",
			zap.Int64("chat_id", ref.ChatID),
			zap.Int("message_id", ref.MessageID),
			zap.Error(err))
		return false
	}
	return true
}

func (s *Service) collectLinks(req Request) []string {
	links := s.deps.Matcher.ExtractLinks(req.Text)
	seen := make(map[string]struct{}, len(links))
	for _, l := range links {
		seen[l] = struct{}{}
	}
	for _, l := range req.Links {
		l = urlmatch.WithScheme(l)
		if _, ok := seen[l]; ok || l == "" {
			continue
		}
		seen[l] = struct{}{}
		links = append(links, l)
	}
	return links
}

func (s *Service) settings(ctx context.Context, log *zap.Logger, userID int64) domain.Settings {
	if s.deps.Store == nil {
		return s.cfg.DefaultSettings
	}
	settings, err := s.deps.Store.GetSettings(ctx, userID)
	if err != nil {
		log.Warn("failed to load settings, using defaults", zap.Error(err))
		return s.cfg.DefaultSettings
	}
	return settings
}

// processLink runs one link to completion and reports whether it was delivered
func (s *Service) processLink(ctx context.Context, log *zap.Logger, ch port.Channel, link string, idx, total int, settings domain.Settings) bool {
	log = log.With(zap.Int("link_index", idx))

	if !s.deps.Matcher.IsSupportedDomain(link) {
		log.Info("unsupported link")
		s.send(ctx, log, ch, fmt.Sprintf("❌ %s\n<code>%s</code>", UserMessage(domain.ErrInvalidDomain), html.EscapeString(truncate(link, 80))))
		return false
	}

	status, err := ch.Send(ctx, fmt.Sprintf("🔎 Resolving %d/%d…", idx, total))
	if err != nil {
		log.Warn("failed to send status message", zap.Error(err))
		return false
	}

	result := s.deps.Resolver.Resolve(ctx, link)
	plan := s.deps.Gate.Decide(result)

	log.Info("link resolved",
		zap.String("action", plan.Action.String()),
		zap.String("reason", string(result.Reason())),
		zap.String("file_name", result.FileName),
		zap.Int64("file_size", result.FileSize))

	if plan.Action == delivery.Failed {
		s.Notify(ctx, ch, status, fmt.Sprintf("❌ <b>Failed:</b> %s\n%s",
			html.EscapeString(truncate(link, 80)), html.EscapeString(UserMessage(plan.Err))))
		return false
	}

	// Disk space only matters when the file would be mirrored.
	if plan.Action == delivery.RejectTooLarge || (plan.Action == delivery.RejectNoSpace && settings.AutoMirror) {
		note := UserMessage(plan.Err) + "\nI've provided a direct link instead."
		s.offerLinks(ctx, log, ch, status, plan, settings, rejectHeadline(plan), note)
		return true
	}

	s.offerLinks(ctx, log, ch, status, plan, settings, "✅ <b>Direct Link Ready</b>", "")
	if !settings.AutoMirror || plan.Action != delivery.Proceed {
		return true
	}
	return s.mirror(ctx, log, ch, plan)
}

// offerLinks replaces the status message with the file card and link buttons
func (s *Service) offerLinks(ctx context.Context, log *zap.Logger, ch port.Channel, ref port.MessageRef, plan delivery.Plan, settings domain.Settings, headline, note string) {
	links := []port.Link{{Label: "🔓 Open Direct Link", URL: plan.DirectLink}}

	if settings.AutoShort && s.deps.Shortener != nil {
		short, err := s.deps.Shortener.Shorten(ctx, plan.DirectLink)
		if err != nil {
			log.Debug("shorten failed", zap.Error(err))
		} else {
			links = append(links, port.Link{Label: "🗜️ Short Link", URL: short})
		}
	}
	if plan.SourceLink != "" && plan.SourceLink != plan.DirectLink {
		links = append(links, port.Link{Label: "↗️ Source DLink", URL: plan.SourceLink})
	}

	text := fileCard(headline, plan)
	if note != "" {
		text += "\n\n" + html.EscapeString(note)
	}

	if err := ch.EditWithLinks(ctx, ref, text, links); err != nil {
		log.Warn("failed to show links", zap.Error(err))
	}
}

// mirror streams the file to a temp file inside a transfer slot and uploads it.
// The temp file is removed and the slot released on every path.
func (s *Service) mirror(ctx context.Context, log *zap.Logger, ch port.Channel, plan delivery.Plan) bool {
	name := html.EscapeString(plan.FileName)

	status, err := ch.Send(ctx, fmt.Sprintf("⬇️ Queued for download…\n<code>%s</code>", name))
	if err != nil {
		log.Warn("failed to send mirror status", zap.Error(err))
		return false
	}

	release, err := s.deps.Pool.Acquire(ctx)
	if err != nil {
		s.Notify(ctx, ch, status, "❌ Download cancelled.")
		return false
	}
	defer release()

	tmp, err := s.deps.FS.CreateTemp(plan.FileName)
	if err != nil {
		log.Error("failed to create temp file", zap.Error(err))
		s.Notify(ctx, ch, status, "❌ "+UserMessage(domain.NewTransferError("create", err)))
		return false
	}
	defer func() {
		if err := tmp.Remove(); err != nil {
			log.Warn("failed to remove temp file", zap.String("path", tmp.Path()), zap.Error(err))
		}
	}()

	s.Notify(ctx, ch, status, fmt.Sprintf("⬇️ Starting download…\n<code>%s</code>", name))

	n, err := s.deps.Engine.Transfer(ctx, plan.DirectLink, tmp, plan.FileSize, func(p domain.TransferProgress) {
		s.Notify(ctx, ch, status, progressText(plan.FileName, p))
	})
	release()
	if closeErr := tmp.Close(); err == nil && closeErr != nil {
		err = domain.NewTransferError("close", closeErr)
	}
	if err != nil {
		log.Warn("transfer failed", zap.Int64("bytes", n), zap.Error(err))
		s.Notify(ctx, ch, status, "❌ "+html.EscapeString(UserMessage(err)))
		return false
	}

	log.Info("transfer complete", zap.Int64("bytes", n), zap.String("path", tmp.Path()))
	s.Notify(ctx, ch, status, "📤 Uploading to Telegram…")

	caption := "Mirrored: " + truncate(plan.FileName, 64)
	if err := ch.SendFile(ctx, tmp.Path(), caption); err != nil {
		log.Warn("upload failed", zap.Error(err))
		s.Notify(ctx, ch, status, "❌ Upload failed.")
		return false
	}

	s.Notify(ctx, ch, status, "✅ Sent successfully. (Cleaned temporary file.)")
	return true
}

func (s *Service) send(ctx context.Context, log *zap.Logger, ch port.Channel, text string) {
	if _, err := ch.Send(ctx, text); err != nil {
		log.Warn("failed to send message", zap.Error(err))
	}
}

// RuntimeStats is a point-in-time view of pipeline resources
type RuntimeStats struct {
	Pool        transfer.PoolStats
	LimiterKeys int
	RateLimit   int
	RateWindow  time.Duration
}

// Stats returns the current slot pool and rate limiter state
func (s *Service) Stats() RuntimeStats {
	return RuntimeStats{
		Pool:        s.deps.Pool.Stats(),
		LimiterKeys: s.deps.Limiter.Keys(),
		RateLimit:   s.deps.Limiter.Limit(),
		RateWindow:  s.deps.Limiter.Window(),
	}
}
