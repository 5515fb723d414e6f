package handler

import (
	"context"
	"errors"
	"log/slog"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/set-night/ledgerbot/internal/domain"
	"github.com/set-night/ledgerbot/internal/middleware"
	tg "github.com/set-night/ledgerbot/internal/telegram"
)

// errorText turns a service error into a message for the user. Storage
// failures say so explicitly: nothing is ever reported as saved unless the
// store confirmed it.
func errorText(err error) string {
	switch {
	case errors.Is(err, domain.ErrSessionClosed):
		return "🔒 Сессия закрыта, изменения запрещены."
	case errors.Is(err, domain.ErrOwnerDemotion):
		return "⛔ Владельца бота нельзя понизить или лишить доступа."
	case errors.Is(err, domain.ErrInvalidName):
		return "❌ Название сессии должно быть от 3 до 50 символов."
	case errors.Is(err, domain.ErrInvalidPersonName):
		return "❌ Укажите имя человека."
	case errors.Is(err, domain.ErrInvalidAmount):
		return "❌ Некорректная сумма."
	case errors.Is(err, domain.ErrInvalidCurrency):
		return "❌ Валюта должна быть USDT или RUB."
	case errors.Is(err, domain.ErrUnknownField):
		return "❌ Это поле нельзя изменить."
	case errors.Is(err, domain.ErrSessionNotFound):
		return "❌ Сессия не найдена."
	case errors.Is(err, domain.ErrTransactionNotFound):
		return "❌ Операция не найдена."
	case errors.Is(err, domain.ErrDebtNotFound):
		return "❌ Долг не найден."
	case errors.Is(err, domain.ErrUserNotFound):
		return "❌ Пользователь не найден."
	}

	switch domain.Outcome(err) {
	case domain.OutcomeNotFound:
		return "❌ Не найдено."
	case domain.OutcomeInvalidArgument:
		return "❌ Некорректные данные."
	case domain.OutcomeRaceLost:
		return "⚠️ Данные изменились во время запроса, изменения не сохранены. Повторите попытку."
	}
	return "⚠️ Хранилище недоступно, изменения не сохранены. Попробуйте позже."
}

// fail reports err to the user; storage failures are also logged.
func (h *Handler) fail(ctx context.Context, b *bot.Bot, chatID int64, op string, err error) {
	switch domain.Outcome(err) {
	case domain.OutcomeStorageUnavailable, domain.OutcomeRaceLost:
		slog.Error(op, "error", err, "chat_id", chatID, "request_id", middleware.RequestID(ctx))
		h.tgLogger.LogError(err, op)
	default:
		slog.Debug(op, "error", err, "chat_id", chatID)
	}
	h.reply(ctx, b, chatID, errorText(err))
}

// reply sends plain text.
func (h *Handler) reply(ctx context.Context, b *bot.Bot, chatID int64, text string) {
	if _, err := b.SendMessage(ctx, &bot.SendMessageParams{ChatID: chatID, Text: text}); err != nil {
		slog.Warn("send reply", "chat_id", chatID, "error", err)
	}
}

// send sends Markdown text, splitting it if needed.
func (h *Handler) send(ctx context.Context, b *bot.Bot, chatID int64, text string, markup models.ReplyMarkup) {
	if err := tg.SendLongMessage(ctx, b, chatID, text, markup); err != nil {
		slog.Warn("send message", "chat_id", chatID, "error", err)
	}
}

// message returns the text message with a known sender and user record.
func message(ctx context.Context, update *models.Update) (*models.Message, *domain.User, bool) {
	if update.Message == nil {
		return nil, nil, false
	}
	user := middleware.GetUser(ctx)
	if user == nil {
		return nil, nil, false
	}
	return update.Message, user, true
}

// callback acknowledges the query and returns its chat and message.
func callback(ctx context.Context, b *bot.Bot, update *models.Update) (chatID int64, messageID int, user *domain.User, ok bool) {
	if update.CallbackQuery == nil {
		return 0, 0, nil, false
	}
	b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{CallbackQueryID: update.CallbackQuery.ID})

	user = middleware.GetUser(ctx)
	msg := update.CallbackQuery.Message.Message
	if user == nil || msg == nil {
		return 0, 0, nil, false
	}
	return msg.Chat.ID, msg.ID, user, true
}
