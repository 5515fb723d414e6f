package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/google/uuid"
)

const requestIDKey ctxKey = "request_id"

// RequestID returns the correlation id of the update being handled.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// Logging returns middleware that tags each update with a correlation id and
// logs its processing time.
func Logging() bot.Middleware {
	return func(next bot.HandlerFunc) bot.HandlerFunc {
		return func(ctx context.Context, b *bot.Bot, update *models.Update) {
			start := time.Now()
			reqID := uuid.NewString()
			ctx = context.WithValue(ctx, requestIDKey, reqID)

			updateType := "unknown"
			chatID, userID := updateChatAndUser(update)
			switch {
			case update.Message != nil:
				updateType = "message"
			case update.CallbackQuery != nil:
				updateType = "callback_query"
			}

			next(ctx, b, update)

			slog.Debug("update processed",
				"request_id", reqID,
				"type", updateType,
				"chat_id", chatID,
				"user_id", userID,
				"duration", time.Since(start),
			)
		}
	}
}

func updateChatAndUser(update *models.Update) (chatID, userID int64) {
	switch {
	case update.Message != nil:
		chatID = update.Message.Chat.ID
		if update.Message.From != nil {
			userID = update.Message.From.ID
		}
	case update.CallbackQuery != nil:
		if update.CallbackQuery.Message.Message != nil {
			chatID = update.CallbackQuery.Message.Message.Chat.ID
		}
		userID = update.CallbackQuery.From.ID
	}
	return chatID, userID
}
