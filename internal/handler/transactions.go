package handler

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/set-night/ledgerbot/internal/domain"
)

func (h *Handler) ownedTransaction(ctx context.Context, user *domain.User, id int64) (*domain.Transaction, *domain.Session, error) {
	tx, err := h.ledger.Transaction(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	s, err := h.ownedSession(ctx, user, tx.SessionID)
	if err != nil {
		if domain.Outcome(err) == domain.OutcomeNotFound {
			return nil, nil, domain.ErrTransactionNotFound
		}
		return nil, nil, err
	}
	return tx, s, nil
}

func (h *Handler) handleSale(ctx context.Context, b *bot.Bot, update *models.Update) {
	msg, user, ok := message(ctx, update)
	if !ok {
		return
	}
	a, err := parseSale(msg.Text)
	if errors.Is(err, errUsage) {
		h.reply(ctx, b, msg.Chat.ID, "Использование: /sale <сессия> <сумма> [расход] [описание]\nНапример: /sale 1 100 20 Товар")
		return
	}
	h.addTransaction(ctx, b, msg.Chat.ID, user, domain.TxTypeSale, a, err)
}

func (h *Handler) handleExpense(ctx context.Context, b *bot.Bot, update *models.Update) {
	msg, user, ok := message(ctx, update)
	if !ok {
		return
	}
	a, err := parseExpense(msg.Text)
	if errors.Is(err, errUsage) {
		h.reply(ctx, b, msg.Chat.ID, "Использование: /expense <сессия> <сумма> [описание]\nНапример: /expense 1 10 Реклама")
		return
	}
	h.addTransaction(ctx, b, msg.Chat.ID, user, domain.TxTypeExpense, a, err)
}

func (h *Handler) addTransaction(ctx context.Context, b *bot.Bot, chatID int64, user *domain.User, typ domain.TxType, a txArgs, parseErr error) {
	if parseErr != nil {
		h.fail(ctx, b, chatID, "parse transaction", parseErr)
		return
	}
	s, err := h.ownedSession(ctx, user, a.SessionID)
	if err != nil {
		h.fail(ctx, b, chatID, "add transaction", err)
		return
	}
	id, err := h.ledger.AddTransaction(ctx, a.SessionID, typ, a.Amount, a.Cost, a.Description)
	if err != nil {
		h.fail(ctx, b, chatID, "add transaction", err)
		return
	}

	label := "Продажа"
	if typ == domain.TxTypeExpense {
		label = "Расход"
	}
	text := fmt.Sprintf("✅ %s `#%d` записана: %s", label, id, money(a.Amount, s.Currency))
	if typ == domain.TxTypeSale && !a.Cost.IsZero() {
		text += fmt.Sprintf(" (расход %s)", a.Cost.StringFixed(2))
	}
	h.send(ctx, b, chatID, text, nil)
}

func (h *Handler) handleSales(ctx context.Context, b *bot.Bot, update *models.Update) {
	h.listTransactions(ctx, b, update, domain.TxTypeSale, "💰 Продажи")
}

func (h *Handler) handleExpenses(ctx context.Context, b *bot.Bot, update *models.Update) {
	h.listTransactions(ctx, b, update, domain.TxTypeExpense, "💸 Расходы")
}

func (h *Handler) listTransactions(ctx context.Context, b *bot.Bot, update *models.Update, typ domain.TxType, title string) {
	msg, user, ok := message(ctx, update)
	if !ok {
		return
	}
	a, err := parseList(msg.Text, false)
	if err != nil {
		h.reply(ctx, b, msg.Chat.ID, "Использование: /sales <сессия> [поиск] или /expenses <сессия> [поиск]")
		return
	}
	s, err := h.ownedSession(ctx, user, a.SessionID)
	if err != nil {
		h.fail(ctx, b, msg.Chat.ID, "list transactions", err)
		return
	}
	txs, err := h.ledger.ListTransactions(ctx, a.SessionID, typ, a.Search)
	if err != nil {
		h.fail(ctx, b, msg.Chat.ID, "list transactions", err)
		return
	}
	h.send(ctx, b, msg.Chat.ID, formatTransactions(title, txs, s.Currency), nil)
}

func (h *Handler) handleEditTransaction(ctx context.Context, b *bot.Bot, update *models.Update) {
	msg, user, ok := message(ctx, update)
	if !ok {
		return
	}
	a, err := parseEdit(msg.Text)
	if err != nil {
		h.reply(ctx, b, msg.Chat.ID, "Использование: /edit_tx <id> <amount|expense_amount|description> <значение>")
		return
	}
	if _, _, err := h.ownedTransaction(ctx, user, a.ID); err != nil {
		h.fail(ctx, b, msg.Chat.ID, "update transaction", err)
		return
	}
	if err := h.ledger.UpdateTransaction(ctx, a.ID, a.Field, a.Value); err != nil {
		h.fail(ctx, b, msg.Chat.ID, "update transaction", err)
		return
	}
	h.send(ctx, b, msg.Chat.ID, fmt.Sprintf("✏️ Операция `#%d` обновлена.", a.ID), nil)
}

func (h *Handler) handleDeleteTransaction(ctx context.Context, b *bot.Bot, update *models.Update) {
	msg, user, ok := message(ctx, update)
	if !ok {
		return
	}
	a := args(msg.Text)
	if len(a) < 1 {
		h.reply(ctx, b, msg.Chat.ID, "Использование: /del_tx <id>")
		return
	}
	id, err := parseID(a[0])
	if err != nil {
		h.reply(ctx, b, msg.Chat.ID, "Использование: /del_tx <id>")
		return
	}
	if _, _, err := h.ownedTransaction(ctx, user, id); err != nil {
		h.fail(ctx, b, msg.Chat.ID, "delete transaction", err)
		return
	}
	if err := h.ledger.DeleteTransaction(ctx, id); err != nil {
		h.fail(ctx, b, msg.Chat.ID, "delete transaction", err)
		return
	}
	h.send(ctx, b, msg.Chat.ID, fmt.Sprintf("🗑 Операция `#%d` удалена.", id), nil)
}
