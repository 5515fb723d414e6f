package handler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/set-night/ledgerbot/internal/config"
	"github.com/set-night/ledgerbot/internal/domain"
	tg "github.com/set-night/ledgerbot/internal/telegram"
)

// adminMessage is message restricted to admins. Other users get no reply.
func adminMessage(ctx context.Context, update *models.Update) (*models.Message, *domain.User, bool) {
	msg, user, ok := message(ctx, update)
	if !ok || !user.IsAdmin() {
		return nil, nil, false
	}
	return msg, user, true
}

// targetID parses the user id argument of an admin command.
func targetID(text string) (int64, error) {
	a := args(text)
	if len(a) < 1 {
		return 0, errUsage
	}
	return parseID(a[0])
}

func (h *Handler) handleGrant(ctx context.Context, b *bot.Bot, update *models.Update) {
	msg, admin, ok := adminMessage(ctx, update)
	if !ok {
		return
	}
	userID, days, err := parseGrant(msg.Text)
	if err != nil {
		h.reply(ctx, b, msg.Chat.ID, "Использование: /grant <id> [дней]\nБез количества дней доступ бессрочный.")
		return
	}
	u, err := h.access.GrantAccess(ctx, userID, days)
	if err != nil {
		h.fail(ctx, b, msg.Chat.ID, "grant access", err)
		return
	}

	text := fmt.Sprintf("✅ Доступ для `%d` открыт бессрочно.", userID)
	notice := "✅ Вам открыт доступ к боту. Нажмите /start"
	if u.AccessUntil != nil {
		until := u.AccessUntil.Format(dateLayout)
		text = fmt.Sprintf("✅ Доступ для `%d` открыт до %s.", userID, until)
		notice = fmt.Sprintf("✅ Вам открыт доступ к боту до %s. Нажмите /start", until)
	}
	h.send(ctx, b, msg.Chat.ID, text, nil)
	h.tgLogger.LogAccess(admin.UserID, userID, fmt.Sprintf("grant %d days", days))
	h.notify(ctx, b, userID, notice)
}

func (h *Handler) handleRevoke(ctx context.Context, b *bot.Bot, update *models.Update) {
	msg, admin, ok := adminMessage(ctx, update)
	if !ok {
		return
	}
	userID, err := targetID(msg.Text)
	if err != nil {
		h.reply(ctx, b, msg.Chat.ID, "Использование: /revoke <id>")
		return
	}
	if err := h.access.RevokeAccess(ctx, userID); err != nil {
		h.fail(ctx, b, msg.Chat.ID, "revoke access", err)
		return
	}
	h.send(ctx, b, msg.Chat.ID, fmt.Sprintf("🚫 Доступ для `%d` закрыт.", userID), nil)
	h.tgLogger.LogAccess(admin.UserID, userID, "revoke")
}

func (h *Handler) handleGrantAll(ctx context.Context, b *bot.Bot, update *models.Update) {
	msg, admin, ok := adminMessage(ctx, update)
	if !ok {
		return
	}
	n, err := h.access.GrantAll(ctx)
	if err != nil {
		h.fail(ctx, b, msg.Chat.ID, "grant access to all", err)
		return
	}
	h.reply(ctx, b, msg.Chat.ID, fmt.Sprintf("✅ Доступ открыт для %d пользователей.", n))
	h.tgLogger.LogAdmin(admin.UserID, fmt.Sprintf("grant all: %d users", n))
}

func (h *Handler) handleRevokeAll(ctx context.Context, b *bot.Bot, update *models.Update) {
	msg, admin, ok := adminMessage(ctx, update)
	if !ok {
		return
	}
	n, err := h.access.RevokeAllTemporary(ctx)
	if err != nil {
		h.fail(ctx, b, msg.Chat.ID, "revoke temporary access", err)
		return
	}
	h.reply(ctx, b, msg.Chat.ID, fmt.Sprintf("🚫 Бессрочный доступ закрыт для %d пользователей. Оплаченные сроки сохранены.", n))
	h.tgLogger.LogAdmin(admin.UserID, fmt.Sprintf("revoke all: %d users", n))
}

func (h *Handler) handleAddAdmin(ctx context.Context, b *bot.Bot, update *models.Update) {
	msg, admin, ok := adminMessage(ctx, update)
	if !ok {
		return
	}
	userID, err := targetID(msg.Text)
	if err != nil {
		h.reply(ctx, b, msg.Chat.ID, "Использование: /addadmin <id>")
		return
	}
	if err := h.access.PromoteAdmin(ctx, userID); err != nil {
		h.fail(ctx, b, msg.Chat.ID, "promote admin", err)
		return
	}
	h.send(ctx, b, msg.Chat.ID, fmt.Sprintf("🛡 `%d` теперь администратор.", userID), nil)
	h.tgLogger.LogAdmin(admin.UserID, fmt.Sprintf("add admin %d", userID))
}

func (h *Handler) handleDelAdmin(ctx context.Context, b *bot.Bot, update *models.Update) {
	msg, admin, ok := adminMessage(ctx, update)
	if !ok {
		return
	}
	userID, err := targetID(msg.Text)
	if err != nil {
		h.reply(ctx, b, msg.Chat.ID, "Использование: /deladmin <id>")
		return
	}
	if err := h.access.DemoteAdmin(ctx, userID); err != nil {
		h.fail(ctx, b, msg.Chat.ID, "demote admin", err)
		return
	}
	h.send(ctx, b, msg.Chat.ID, fmt.Sprintf("👤 `%d` больше не администратор.", userID), nil)
	h.tgLogger.LogAdmin(admin.UserID, fmt.Sprintf("remove admin %d", userID))
}

func (h *Handler) handleUsers(ctx context.Context, b *bot.Bot, update *models.Update) {
	msg, _, ok := adminMessage(ctx, update)
	if !ok {
		return
	}
	users, err := h.access.ListUsers(ctx)
	if err != nil {
		h.fail(ctx, b, msg.Chat.ID, "list users", err)
		return
	}
	h.send(ctx, b, msg.Chat.ID, formatUsers(users, time.Now()), nil)
}

func (h *Handler) handleBroadcast(ctx context.Context, b *bot.Bot, update *models.Update) {
	msg, admin, ok := adminMessage(ctx, update)
	if !ok {
		return
	}
	chatID := msg.Chat.ID

	audience, text, err := parseBroadcast(msg.Text)
	if err != nil || text == "" {
		h.reply(ctx, b, chatID, "Использование: /broadcast <all|access|no_access> <текст>")
		return
	}
	ids, err := h.access.Audience(ctx, audience)
	if err != nil {
		h.fail(ctx, b, chatID, "broadcast audience", err)
		return
	}
	h.reply(ctx, b, chatID, fmt.Sprintf("📣 Рассылка запущена: %d получателей.", len(ids)))

	// Delivery outlives the update.
	go func() {
		bctx := context.WithoutCancel(ctx)
		res, err := tg.Broadcast(bctx, b, ids, text, config.BroadcastDelay)
		if err != nil {
			slog.Error("broadcast", "error", err)
		}
		slog.Info("broadcast finished", "audience", audience, "sent", res.Sent, "failed", res.Failed)
		h.reply(bctx, b, chatID, fmt.Sprintf("📣 Рассылка завершена.\nДоставлено: %d\nОшибок: %d", res.Sent, res.Failed))
		h.tgLogger.LogBroadcast(admin.UserID, string(audience), res)
	}()
}

// notify messages a user, ignoring chats that cannot be reached.
func (h *Handler) notify(ctx context.Context, b *bot.Bot, userID int64, text string) {
	if _, err := b.SendMessage(ctx, &bot.SendMessageParams{ChatID: userID, Text: text}); err != nil {
		slog.Debug("notify user", "user_id", userID, "error", err)
	}
}
