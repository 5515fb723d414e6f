package middleware

import (
	"context"
	"log/slog"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/set-night/ledgerbot/internal/domain"
	"github.com/set-night/ledgerbot/internal/service"
	"github.com/set-night/ledgerbot/internal/telegram"
)

type ctxKey string

const UserKey ctxKey = "user"

// GetUser extracts user from context.
func GetUser(ctx context.Context) *domain.User {
	u, ok := ctx.Value(UserKey).(*domain.User)
	if !ok {
		return nil
	}
	return u
}

// WithUser stores user in ctx.
func WithUser(ctx context.Context, user *domain.User) context.Context {
	return context.WithValue(ctx, UserKey, user)
}

// UserLoader returns middleware that registers the sender on first contact
// and loads the user record into context.
func UserLoader(access *service.AccessService, tgLogger *telegram.TelegramLogger) bot.Middleware {
	return func(next bot.HandlerFunc) bot.HandlerFunc {
		return func(ctx context.Context, b *bot.Bot, update *models.Update) {
			var from *models.User
			if update.Message != nil {
				from = update.Message.From
			} else if update.CallbackQuery != nil {
				from = &update.CallbackQuery.From
			}

			if from == nil {
				next(ctx, b, update)
				return
			}

			user, created, err := access.EnsureUser(ctx, from.ID)
			if err != nil {
				slog.Error("load user", "user_id", from.ID, "error", err, "request_id", RequestID(ctx))
				chatID, _ := updateChatAndUser(update)
				if chatID != 0 {
					b.SendMessage(ctx, &bot.SendMessageParams{
						ChatID: chatID,
						Text:   "⚠️ Хранилище временно недоступно. Попробуйте позже.",
					})
				}
				return
			}
			if created {
				tgLogger.LogRegistration(from.ID, from.FirstName, from.Username)
			}

			next(WithUser(ctx, user), b, update)
		}
	}
}
