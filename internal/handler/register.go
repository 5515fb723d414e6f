package handler

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	tg "github.com/set-night/ledgerbot/internal/telegram"
)

// Register registers all command and callback handlers on the bot instance.
func (h *Handler) Register() {
	command := func(name string, fn bot.HandlerFunc) {
		h.bot.RegisterHandler(bot.HandlerTypeMessageText, name, bot.MatchTypeCommandStartOnly, fn)
	}

	// Commands
	command("start", h.handleStart)
	command("help", h.handleHelp)
	command("id", h.handleID)

	// Sessions
	command("new", h.handleNew)
	command("sessions", h.handleSessions)
	command("close", h.handleClose)
	command("report", h.handleReport)

	// Transactions
	command("sale", h.handleSale)
	command("expense", h.handleExpense)
	command("sales", h.handleSales)
	command("expenses", h.handleExpenses)
	command("edit_tx", h.handleEditTransaction)
	command("del_tx", h.handleDeleteTransaction)

	// Debts
	command("debt", h.handleDebt)
	command("repay", h.handleRepay)
	command("debts", h.handleDebts)
	command("edit_debt", h.handleEditDebt)
	command("del_debt", h.handleDeleteDebt)

	// Admin
	command("grant", h.handleGrant)
	command("revoke", h.handleRevoke)
	command("grantall", h.handleGrantAll)
	command("revokeall", h.handleRevokeAll)
	command("addadmin", h.handleAddAdmin)
	command("deladmin", h.handleDelAdmin)
	command("users", h.handleUsers)
	command("broadcast", h.handleBroadcast)

	// Session callbacks
	h.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, tg.CallbackSessionsPage, bot.MatchTypePrefix, h.handleSessionsPage)
	h.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, tg.CallbackSession, bot.MatchTypePrefix, h.handleSessionOpen)
	h.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, tg.CallbackClose, bot.MatchTypePrefix, h.handleSessionClose)
	h.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, tg.CallbackReport, bot.MatchTypePrefix, h.handleSessionReport)
	h.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, "cur", bot.MatchTypeExact, h.handleNoop)
}

// handleNoop is a no-op callback handler used for pagination indicators and other
// non-interactive inline buttons. It simply acknowledges the callback query.
func (h *Handler) handleNoop(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.CallbackQuery != nil {
		b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
			CallbackQueryID: update.CallbackQuery.ID,
		})
	}
}
