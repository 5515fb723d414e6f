package handler

import (
	"context"
	"fmt"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	tg "github.com/set-night/ledgerbot/internal/telegram"
)

const helpText = "📋 *Команды:*\n" +
	"/new <бюджет> <USDT|RUB> <название> — новая сессия\n" +
	"/sessions — список сессий\n" +
	"/report <сессия> — отчёт\n" +
	"/close <сессия> — закрыть сессию\n\n" +
	"💰 *Операции:*\n" +
	"/sale <сессия> <сумма> [расход] [описание]\n" +
	"/expense <сессия> <сумма> [описание]\n" +
	"/sales <сессия> [поиск] · /expenses <сессия> [поиск]\n" +
	"/edit\\_tx <id> <amount|expense\\_amount|description> <значение>\n" +
	"/del\\_tx <id>\n\n" +
	"🤝 *Долги:*\n" +
	"/debt <сессия> <мне|я> <имя> <сумма> [описание]\n" +
	"/debts <сессия> [мне|я] [поиск]\n" +
	"/repay <id> — отметить погашенным\n" +
	"/edit\\_debt <id> <amount|person\\_name|description|is\\_repaid> <значение>\n" +
	"/del\\_debt <id>\n\n" +
	"Суммы можно писать через точку или запятую."

const adminHelpText = "\n\n🛡 *Админ:*\n" +
	"/grant <id> [дней] · /revoke <id>\n" +
	"/grantall · /revokeall\n" +
	"/addadmin <id> · /deladmin <id>\n" +
	"/users · /broadcast <all|access|no\\_access> <текст>"

func (h *Handler) handleStart(ctx context.Context, b *bot.Bot, update *models.Update) {
	msg, user, ok := message(ctx, update)
	if !ok {
		return
	}

	name := "друг"
	if msg.From != nil && msg.From.FirstName != "" {
		name = msg.From.FirstName
	}

	allowed, err := h.access.CheckAccess(ctx, user.UserID)
	if err != nil {
		h.fail(ctx, b, msg.Chat.ID, "check access", err)
		return
	}

	text := fmt.Sprintf("👋 Привет, *%s*!\n\nЯ помогаю вести учёт продаж, расходов и долгов по сессиям.\n\n", tg.EscapeMarkdown(name))
	if !allowed {
		text += "🔒 У вас пока нет доступа. Ваш ID: `" + fmt.Sprint(user.UserID) + "`"
		var markup models.ReplyMarkup
		if h.cfg.ContactURL != "" {
			markup = tg.InlineKeyboard(tg.ButtonRow(tg.URLButton("Получить доступ", h.cfg.ContactURL)))
		}
		h.send(ctx, b, msg.Chat.ID, text, markup)
		return
	}

	text += helpText
	if user.IsAdmin() {
		text += adminHelpText
	}
	h.send(ctx, b, msg.Chat.ID, text, nil)
}

func (h *Handler) handleHelp(ctx context.Context, b *bot.Bot, update *models.Update) {
	msg, user, ok := message(ctx, update)
	if !ok {
		return
	}
	text := helpText
	if user.IsAdmin() {
		text += adminHelpText
	}
	h.send(ctx, b, msg.Chat.ID, text, nil)
}

func (h *Handler) handleID(ctx context.Context, b *bot.Bot, update *models.Update) {
	msg, user, ok := message(ctx, update)
	if !ok {
		return
	}
	h.send(ctx, b, msg.Chat.ID, fmt.Sprintf("Ваш ID: `%d`", user.UserID), nil)
}
