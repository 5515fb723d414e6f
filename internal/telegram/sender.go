package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/set-night/ledgerbot/internal/config"
)

const MaxMessageLen = config.MaxTelegramMessageLen

// MessageSender is the part of *bot.Bot used for outgoing messages.
type MessageSender interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
}

// SendLongMessage sends text split into parts. The keyboard is attached to
// the last part. Falls back to plain text if Markdown parsing fails.
func SendLongMessage(ctx context.Context, b MessageSender, chatID int64, text string, markup models.ReplyMarkup) error {
	parts := SplitMessage(text, MaxMessageLen)

	for i, part := range parts {
		params := &bot.SendMessageParams{
			ChatID:    chatID,
			Text:      part,
			ParseMode: models.ParseModeMarkdownV1,
		}
		if i == len(parts)-1 && markup != nil {
			params.ReplyMarkup = markup
		}

		_, err := b.SendMessage(ctx, params)
		if err != nil {
			slog.Warn("markdown send failed, falling back to plain text", "error", err)
			params.ParseMode = ""
			if _, err = b.SendMessage(ctx, params); err != nil {
				return fmt.Errorf("send message: %w", err)
			}
		}
	}
	return nil
}

// EditMessage replaces the text of a bot message, truncating if needed.
func EditMessage(ctx context.Context, b *bot.Bot, chatID int64, messageID int, text string, markup models.ReplyMarkup) error {
	text = Truncate(text, MaxMessageLen)

	params := &bot.EditMessageTextParams{
		ChatID:      chatID,
		MessageID:   messageID,
		Text:        text,
		ParseMode:   models.ParseModeMarkdownV1,
		ReplyMarkup: markup,
	}
	if _, err := b.EditMessageText(ctx, params); err != nil {
		params.ParseMode = ""
		if _, err = b.EditMessageText(ctx, params); err != nil {
			return fmt.Errorf("edit message: %w", err)
		}
	}
	return nil
}

// BroadcastResult counts delivered and failed messages.
type BroadcastResult struct {
	Sent   int
	Failed int
}

// Broadcast sends text to every chat, pausing delay between messages to stay
// under the platform's flood limits. It stops early if ctx is cancelled.
func Broadcast(ctx context.Context, b MessageSender, chatIDs []int64, text string, delay time.Duration) (BroadcastResult, error) {
	var res BroadcastResult
	for i, chatID := range chatIDs {
		if i > 0 && delay > 0 {
			select {
			case <-ctx.Done():
				return res, ctx.Err()
			case <-time.After(delay):
			}
		}
		if err := ctx.Err(); err != nil {
			return res, err
		}

		_, err := b.SendMessage(ctx, &bot.SendMessageParams{ChatID: chatID, Text: text})
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return res, err
			}
			slog.Debug("broadcast delivery failed", "chat_id", chatID, "error", err)
			res.Failed++
			continue
		}
		res.Sent++
	}
	return res, nil
}
