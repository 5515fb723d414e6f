package handler

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/set-night/ledgerbot/internal/domain"
	tg "github.com/set-night/ledgerbot/internal/telegram"
)

func (h *Handler) ownedDebt(ctx context.Context, user *domain.User, id int64) (*domain.Debt, *domain.Session, error) {
	d, err := h.ledger.Debt(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	s, err := h.ownedSession(ctx, user, d.SessionID)
	if err != nil {
		if domain.Outcome(err) == domain.OutcomeNotFound {
			return nil, nil, domain.ErrDebtNotFound
		}
		return nil, nil, err
	}
	return d, s, nil
}

// debtID parses the single id argument of a debt command.
func debtID(text string) (int64, error) {
	a := args(text)
	if len(a) < 1 {
		return 0, errUsage
	}
	return parseID(a[0])
}

func (h *Handler) handleDebt(ctx context.Context, b *bot.Bot, update *models.Update) {
	msg, user, ok := message(ctx, update)
	if !ok {
		return
	}
	chatID := msg.Chat.ID

	a, err := parseDebt(msg.Text)
	if errors.Is(err, errUsage) {
		h.reply(ctx, b, chatID, "Использование: /debt <сессия> <мне|я> <имя> <сумма> [описание]\nНапример: /debt 1 мне Боб 50 за товар")
		return
	}
	if err != nil {
		h.fail(ctx, b, chatID, "parse debt", err)
		return
	}
	s, err := h.ownedSession(ctx, user, a.SessionID)
	if err != nil {
		h.fail(ctx, b, chatID, "add debt", err)
		return
	}
	id, err := h.ledger.AddDebt(ctx, a.SessionID, a.Type, a.Person, a.Amount, a.Description)
	if err != nil {
		h.fail(ctx, b, chatID, "add debt", err)
		return
	}
	h.send(ctx, b, chatID, fmt.Sprintf("✅ Долг `#%d` записан: %s, %s — %s",
		id, debtTypeLabel(a.Type), tg.EscapeMarkdown(a.Person), money(a.Amount, s.Currency)), nil)
}

func (h *Handler) handleRepay(ctx context.Context, b *bot.Bot, update *models.Update) {
	msg, user, ok := message(ctx, update)
	if !ok {
		return
	}
	id, err := debtID(msg.Text)
	if err != nil {
		h.reply(ctx, b, msg.Chat.ID, "Использование: /repay <id долга>")
		return
	}
	if _, _, err := h.ownedDebt(ctx, user, id); err != nil {
		h.fail(ctx, b, msg.Chat.ID, "mark repaid", err)
		return
	}
	if err := h.ledger.MarkRepaid(ctx, id); err != nil {
		h.fail(ctx, b, msg.Chat.ID, "mark repaid", err)
		return
	}
	h.send(ctx, b, msg.Chat.ID, fmt.Sprintf("✅ Долг `#%d` погашен.", id), nil)
}

func (h *Handler) handleDebts(ctx context.Context, b *bot.Bot, update *models.Update) {
	msg, user, ok := message(ctx, update)
	if !ok {
		return
	}
	a, err := parseList(msg.Text, true)
	if err != nil {
		h.reply(ctx, b, msg.Chat.ID, "Использование: /debts <сессия> [мне|я] [поиск]")
		return
	}
	s, err := h.ownedSession(ctx, user, a.SessionID)
	if err != nil {
		h.fail(ctx, b, msg.Chat.ID, "list debts", err)
		return
	}
	debts, err := h.ledger.ListDebts(ctx, a.SessionID, a.DebtType, a.Search)
	if err != nil {
		h.fail(ctx, b, msg.Chat.ID, "list debts", err)
		return
	}
	h.send(ctx, b, msg.Chat.ID, formatDebts(a.DebtType, debts, s.Currency), nil)
}

func (h *Handler) handleEditDebt(ctx context.Context, b *bot.Bot, update *models.Update) {
	msg, user, ok := message(ctx, update)
	if !ok {
		return
	}
	a, err := parseEdit(msg.Text)
	if err != nil {
		h.reply(ctx, b, msg.Chat.ID, "Использование: /edit_debt <id> <amount|person_name|description|is_repaid> <значение>")
		return
	}
	if _, _, err := h.ownedDebt(ctx, user, a.ID); err != nil {
		h.fail(ctx, b, msg.Chat.ID, "update debt", err)
		return
	}
	if err := h.ledger.UpdateDebt(ctx, a.ID, a.Field, a.Value); err != nil {
		h.fail(ctx, b, msg.Chat.ID, "update debt", err)
		return
	}
	h.send(ctx, b, msg.Chat.ID, fmt.Sprintf("✏️ Долг `#%d` обновлён.", a.ID), nil)
}

func (h *Handler) handleDeleteDebt(ctx context.Context, b *bot.Bot, update *models.Update) {
	msg, user, ok := message(ctx, update)
	if !ok {
		return
	}
	id, err := debtID(msg.Text)
	if err != nil {
		h.reply(ctx, b, msg.Chat.ID, "Использование: /del_debt <id>")
		return
	}
	if _, _, err := h.ownedDebt(ctx, user, id); err != nil {
		h.fail(ctx, b, msg.Chat.ID, "delete debt", err)
		return
	}
	if err := h.ledger.DeleteDebt(ctx, id); err != nil {
		h.fail(ctx, b, msg.Chat.ID, "delete debt", err)
		return
	}
	h.send(ctx, b, msg.Chat.ID, fmt.Sprintf("🗑 Долг `#%d` удалён.", id), nil)
}
