package middleware

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/set-night/ledgerbot/internal/config"
)

// Limiter counts messages per chat in fixed one-minute windows.
type Limiter struct {
	mu      sync.Mutex
	windows map[int64]*window
	window  time.Duration
	now     func() time.Time
	swept   time.Time
}

type window struct {
	start time.Time
	count int
}

func NewLimiter(now func() time.Time) *Limiter {
	if now == nil {
		now = time.Now
	}
	return &Limiter{
		windows: make(map[int64]*window),
		window:  time.Minute,
		now:     now,
	}
}

// Allow records one message for chatID and reports whether it is within limit.
func (l *Limiter) Allow(chatID int64, limit int) (int, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.swept) > l.window {
		for id, w := range l.windows {
			if now.Sub(w.start) >= l.window {
				delete(l.windows, id)
			}
		}
		l.swept = now
	}

	w, ok := l.windows[chatID]
	if !ok || now.Sub(w.start) >= l.window {
		w = &window{start: now}
		l.windows[chatID] = w
	}
	w.count++
	return w.count, w.count <= limit
}

// RateLimit returns middleware that enforces per-minute message limits.
// Privileged chats get the admin limit.
func RateLimit(limiter *Limiter, privileged func(int64) bool) bot.Middleware {
	return func(next bot.HandlerFunc) bot.HandlerFunc {
		return func(ctx context.Context, b *bot.Bot, update *models.Update) {
			// Only rate limit messages (not callbacks or other updates)
			if update.Message == nil {
				next(ctx, b, update)
				return
			}

			chatID := update.Message.Chat.ID
			limit := config.RateLimitRegular
			if privileged != nil && privileged(chatID) {
				limit = config.RateLimitAdmin
			}

			count, ok := limiter.Allow(chatID, limit)
			if !ok {
				slog.Debug("rate limited", "chat_id", chatID, "count", count, "limit", limit)
				if count == limit+1 {
					b.SendMessage(ctx, &bot.SendMessageParams{
						ChatID: chatID,
						Text:   "⏳ Слишком много запросов. Подождите немного.",
					})
				}
				return
			}

			next(ctx, b, update)
		}
	}
}
