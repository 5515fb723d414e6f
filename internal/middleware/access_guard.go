package middleware

import (
	"context"
	"log/slog"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/set-night/ledgerbot/internal/service"
	"github.com/set-night/ledgerbot/internal/telegram"
)

// publicCommands are answered without paid access.
var publicCommands = map[string]bool{
	"/start": true,
	"/help":  true,
	"/id":    true,
}

// AccessGuard returns middleware that lets through only users with valid
// access. Admins always pass. Must run after UserLoader.
func AccessGuard(access *service.AccessService, contactURL string) bot.Middleware {
	return func(next bot.HandlerFunc) bot.HandlerFunc {
		return func(ctx context.Context, b *bot.Bot, update *models.Update) {
			user := GetUser(ctx)
			if user == nil {
				next(ctx, b, update)
				return
			}
			if update.Message != nil && publicCommands[CommandName(update.Message.Text)] {
				next(ctx, b, update)
				return
			}

			ok, err := access.CheckAccess(ctx, user.UserID)
			if err != nil {
				slog.Error("check access", "user_id", user.UserID, "error", err, "request_id", RequestID(ctx))
			}
			if ok {
				next(ctx, b, update)
				return
			}

			if update.CallbackQuery != nil {
				b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
					CallbackQueryID: update.CallbackQuery.ID,
					Text:            "Нет доступа",
					ShowAlert:       true,
				})
				return
			}

			chatID, _ := updateChatAndUser(update)
			if chatID == 0 {
				return
			}
			text := "🔒 У вас нет доступа к боту."
			if err != nil {
				text = "⚠️ Не удалось проверить доступ. Попробуйте позже."
			}
			params := &bot.SendMessageParams{ChatID: chatID, Text: text}
			if contactURL != "" && err == nil {
				params.ReplyMarkup = telegram.InlineKeyboard(telegram.ButtonRow(
					telegram.URLButton("Получить доступ", contactURL),
				))
			}
			b.SendMessage(ctx, params)
		}
	}
}

// CommandName returns the leading /command of text without a @botname suffix.
func CommandName(text string) string {
	if !strings.HasPrefix(text, "/") {
		return ""
	}
	name, _, _ := strings.Cut(text, " ")
	name, _, _ = strings.Cut(name, "@")
	return strings.ToLower(name)
}
