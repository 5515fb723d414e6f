package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/set-night/ledgerbot/internal/config"
	"github.com/set-night/ledgerbot/internal/domain"
	tg "github.com/set-night/ledgerbot/internal/telegram"
)

// ownedSession loads a session that belongs to user. Other users' sessions
// are reported as missing.
func (h *Handler) ownedSession(ctx context.Context, user *domain.User, id int64) (*domain.Session, error) {
	s, err := h.ledger.Session(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.OwnerUserID != user.UserID {
		return nil, domain.ErrSessionNotFound
	}
	return s, nil
}

func (h *Handler) handleNew(ctx context.Context, b *bot.Bot, update *models.Update) {
	msg, user, ok := message(ctx, update)
	if !ok {
		return
	}
	chatID := msg.Chat.ID

	a, err := parseNewSession(msg.Text)
	if errors.Is(err, errUsage) {
		h.reply(ctx, b, chatID, "Использование: /new <бюджет> <USDT|RUB> <название>\nНапример: /new 1000 USDT Магазин")
		return
	}
	if err != nil {
		h.fail(ctx, b, chatID, "parse session", err)
		return
	}

	id, err := h.ledger.CreateSession(ctx, user.UserID, a.Name, a.Budget, a.Currency)
	if err != nil {
		h.fail(ctx, b, chatID, "create session", err)
		return
	}
	s, err := h.ledger.Session(ctx, id)
	if err != nil {
		h.send(ctx, b, chatID, fmt.Sprintf("✅ Сессия #%d создана.", id), nil)
		return
	}
	h.send(ctx, b, chatID, "✅ Сессия создана.\n\n"+formatSession(*s), tg.SessionKeyboard(*s))
}

func (h *Handler) handleSessions(ctx context.Context, b *bot.Bot, update *models.Update) {
	msg, user, ok := message(ctx, update)
	if !ok {
		return
	}
	h.sendSessionsPage(ctx, b, msg.Chat.ID, user, 0, 0)
}

// sendSessionsPage sends the session list, or edits messageID in place when set.
func (h *Handler) sendSessionsPage(ctx context.Context, b *bot.Bot, chatID int64, user *domain.User, page int, messageID int) {
	sessions, err := h.ledger.ListSessions(ctx, user.UserID)
	if err != nil {
		h.fail(ctx, b, chatID, "list sessions", err)
		return
	}

	if len(sessions) == 0 {
		h.reply(ctx, b, chatID, "У вас пока нет сессий. Создайте: /new <бюджет> <USDT|RUB> <название>")
		return
	}

	active := 0
	for _, s := range sessions {
		if s.IsActive {
			active++
		}
	}
	text := fmt.Sprintf("📂 *Сессии* (%d, активных %d)\n\nВыберите сессию:", len(sessions), active)
	keyboard := tg.SessionListKeyboard(sessions, page, config.SessionsPerPage)

	if messageID != 0 {
		if err := tg.EditMessage(ctx, b, chatID, messageID, text, keyboard); err != nil {
			slog.Warn("edit sessions page", "error", err)
		}
		return
	}
	h.send(ctx, b, chatID, text, keyboard)
}

func (h *Handler) handleSessionsPage(ctx context.Context, b *bot.Bot, update *models.Update) {
	chatID, messageID, user, ok := callback(ctx, b, update)
	if !ok {
		return
	}
	page, _ := strconv.Atoi(strings.TrimPrefix(update.CallbackQuery.Data, tg.CallbackSessionsPage))
	h.sendSessionsPage(ctx, b, chatID, user, page, messageID)
}

func (h *Handler) handleSessionOpen(ctx context.Context, b *bot.Bot, update *models.Update) {
	chatID, messageID, user, ok := callback(ctx, b, update)
	if !ok {
		return
	}
	id, err := parseID(strings.TrimPrefix(update.CallbackQuery.Data, tg.CallbackSession))
	if err != nil {
		return
	}
	s, err := h.ownedSession(ctx, user, id)
	if err != nil {
		h.fail(ctx, b, chatID, "open session", err)
		return
	}
	if err := tg.EditMessage(ctx, b, chatID, messageID, formatSession(*s), tg.SessionKeyboard(*s)); err != nil {
		slog.Warn("edit session view", "error", err)
	}
}

func (h *Handler) handleSessionClose(ctx context.Context, b *bot.Bot, update *models.Update) {
	chatID, messageID, user, ok := callback(ctx, b, update)
	if !ok {
		return
	}
	id, err := parseID(strings.TrimPrefix(update.CallbackQuery.Data, tg.CallbackClose))
	if err != nil {
		return
	}
	s, err := h.closeSession(ctx, user, id)
	if err != nil {
		h.fail(ctx, b, chatID, "close session", err)
		return
	}
	if err := tg.EditMessage(ctx, b, chatID, messageID, "🔒 Сессия закрыта.\n\n"+formatSession(*s), tg.SessionKeyboard(*s)); err != nil {
		slog.Warn("edit session view", "error", err)
	}
}

func (h *Handler) handleSessionReport(ctx context.Context, b *bot.Bot, update *models.Update) {
	chatID, messageID, user, ok := callback(ctx, b, update)
	if !ok {
		return
	}
	id, err := parseID(strings.TrimPrefix(update.CallbackQuery.Data, tg.CallbackReport))
	if err != nil {
		return
	}
	s, details, err := h.report(ctx, user, id)
	if err != nil {
		h.fail(ctx, b, chatID, "session report", err)
		return
	}
	if err := tg.EditMessage(ctx, b, chatID, messageID, formatDetails(*details), tg.SessionKeyboard(*s)); err != nil {
		slog.Warn("edit session report", "error", err)
	}
}

func (h *Handler) handleClose(ctx context.Context, b *bot.Bot, update *models.Update) {
	msg, user, ok := message(ctx, update)
	if !ok {
		return
	}
	a := args(msg.Text)
	if len(a) < 1 {
		h.reply(ctx, b, msg.Chat.ID, "Использование: /close <номер сессии>")
		return
	}
	id, err := parseID(a[0])
	if err != nil {
		h.reply(ctx, b, msg.Chat.ID, "Использование: /close <номер сессии>")
		return
	}
	s, err := h.closeSession(ctx, user, id)
	if err != nil {
		h.fail(ctx, b, msg.Chat.ID, "close session", err)
		return
	}
	h.send(ctx, b, msg.Chat.ID, "🔒 Сессия закрыта.\n\n"+formatSession(*s), nil)
}

func (h *Handler) handleReport(ctx context.Context, b *bot.Bot, update *models.Update) {
	msg, user, ok := message(ctx, update)
	if !ok {
		return
	}
	a := args(msg.Text)
	if len(a) < 1 {
		h.reply(ctx, b, msg.Chat.ID, "Использование: /report <номер сессии>")
		return
	}
	id, err := parseID(a[0])
	if err != nil {
		h.reply(ctx, b, msg.Chat.ID, "Использование: /report <номер сессии>")
		return
	}
	s, details, err := h.report(ctx, user, id)
	if err != nil {
		h.fail(ctx, b, msg.Chat.ID, "session report", err)
		return
	}
	h.send(ctx, b, msg.Chat.ID, formatDetails(*details), tg.SessionKeyboard(*s))
}

func (h *Handler) closeSession(ctx context.Context, user *domain.User, id int64) (*domain.Session, error) {
	if _, err := h.ownedSession(ctx, user, id); err != nil {
		return nil, err
	}
	if err := h.ledger.CloseSession(ctx, id); err != nil {
		return nil, err
	}
	return h.ledger.Session(ctx, id)
}

func (h *Handler) report(ctx context.Context, user *domain.User, id int64) (*domain.Session, *domain.SessionDetails, error) {
	s, err := h.ownedSession(ctx, user, id)
	if err != nil {
		return nil, nil, err
	}
	details, err := h.ledger.GetDetails(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return s, details, nil
}
