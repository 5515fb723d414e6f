package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-telegram/bot"
	"github.com/set-night/ledgerbot/internal/config"
)

// TelegramLogger mirrors notable events into topics of a log chat.
type TelegramLogger struct {
	bot MessageSender
	cfg *config.Config
}

func NewTelegramLogger(b MessageSender, cfg *config.Config) *TelegramLogger {
	return &TelegramLogger{bot: b, cfg: cfg}
}

// Attach sets the sender once the bot exists. Events logged before are dropped.
func (l *TelegramLogger) Attach(b MessageSender) {
	l.bot = b
}

type LogType string

const (
	LogTypeError        LogType = "error"
	LogTypeRegistration LogType = "registration"
	LogTypeAccess       LogType = "access"
	LogTypeAdmin        LogType = "admin"
	LogTypeBroadcast    LogType = "broadcast"
)

func (l *TelegramLogger) Log(logType LogType, message string) {
	if l == nil || l.bot == nil || l.cfg.LogTelegramChatID == 0 {
		return
	}

	topicID := l.getTopicID(logType)
	if topicID == 0 {
		return
	}

	if len([]rune(message)) > MaxMessageLen {
		message = string([]rune(message)[:MaxMessageLen-20]) + "\n\n... (truncated)"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := l.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:          l.cfg.LogTelegramChatID,
		Text:            message,
		ParseMode:       "Markdown",
		MessageThreadID: topicID,
	})
	if err != nil {
		slog.Error("failed to send telegram log", "type", logType, "error", err)
	}
}

func (l *TelegramLogger) LogError(err error, context string) {
	msg := fmt.Sprintf("❌ *Error*\n\n*Context:* %s\n*Error:* `%s`\n*Time:* %s",
		context, err.Error(), time.Now().Format("2006-01-02 15:04:05"))
	l.Log(LogTypeError, msg)
}

func (l *TelegramLogger) LogRegistration(userID int64, name, username string) {
	msg := fmt.Sprintf("👤 *New User*\n\n*ID:* `%d`\n*Name:* %s", userID, EscapeMarkdown(name))
	if username != "" {
		msg += "\n*Username:* @" + EscapeMarkdown(username)
	}
	l.Log(LogTypeRegistration, msg)
}

func (l *TelegramLogger) LogAccess(adminID, userID int64, action string) {
	msg := fmt.Sprintf("🔑 *Access*\n\n*Admin:* `%d`\n*User:* `%d`\n*Action:* %s", adminID, userID, action)
	l.Log(LogTypeAccess, msg)
}

func (l *TelegramLogger) LogAdmin(adminID int64, action string) {
	msg := fmt.Sprintf("🛡 *Admin*\n\n*By:* `%d`\n*Action:* %s", adminID, action)
	l.Log(LogTypeAdmin, msg)
}

func (l *TelegramLogger) LogBroadcast(adminID int64, audience string, res BroadcastResult) {
	msg := fmt.Sprintf("📣 *Broadcast*\n\n*By:* `%d`\n*Audience:* %s\n*Sent:* %d\n*Failed:* %d",
		adminID, audience, res.Sent, res.Failed)
	l.Log(LogTypeBroadcast, msg)
}

func (l *TelegramLogger) getTopicID(logType LogType) int {
	switch logType {
	case LogTypeError:
		return l.cfg.LogTopicError
	case LogTypeRegistration:
		return l.cfg.LogTopicRegister
	case LogTypeAccess:
		return l.cfg.LogTopicAccess
	case LogTypeAdmin:
		return l.cfg.LogTopicAdmin
	case LogTypeBroadcast:
		return l.cfg.LogTopicBroadcast
	default:
		return 0
	}
}
