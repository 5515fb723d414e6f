package telegram

import (
	"fmt"

	"github.com/go-telegram/bot/models"
	"github.com/set-night/ledgerbot/internal/domain"
)

// Callback data prefixes.
const (
	CallbackSession      = "session_"
	CallbackClose        = "close_"
	CallbackReport       = "report_"
	CallbackSessionsPage = "sessions_page_"
)

// InlineButton creates a single inline keyboard button.
func InlineButton(text, callbackData string) models.InlineKeyboardButton {
	return models.InlineKeyboardButton{
		Text:         text,
		CallbackData: callbackData,
	}
}

// URLButton creates a URL inline keyboard button.
func URLButton(text, url string) models.InlineKeyboardButton {
	return models.InlineKeyboardButton{
		Text: text,
		URL:  url,
	}
}

// InlineKeyboard creates an inline keyboard from rows of buttons.
func InlineKeyboard(rows ...[]models.InlineKeyboardButton) *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: rows,
	}
}

// ButtonRow creates a row of inline buttons.
func ButtonRow(buttons ...models.InlineKeyboardButton) []models.InlineKeyboardButton {
	return buttons
}

// PaginationRow creates a pagination row with prev/next buttons.
func PaginationRow(currentPage, totalPages int, callbackPrefix string) []models.InlineKeyboardButton {
	var row []models.InlineKeyboardButton

	if currentPage > 0 {
		row = append(row, InlineButton("⬅️", fmt.Sprintf("%s%d", callbackPrefix, currentPage-1)))
	}

	row = append(row, InlineButton(
		fmt.Sprintf("%d/%d", currentPage+1, totalPages),
		"cur",
	))

	if currentPage < totalPages-1 {
		row = append(row, InlineButton("➡️", fmt.Sprintf("%s%d", callbackPrefix, currentPage+1)))
	}

	return row
}

// SessionListKeyboard lists one page of sessions, one button per row.
func SessionListKeyboard(sessions []domain.Session, page, perPage int) *models.InlineKeyboardMarkup {
	totalPages := (len(sessions) + perPage - 1) / perPage
	if totalPages == 0 {
		totalPages = 1
	}
	page = max(0, min(page, totalPages-1))

	start := page * perPage
	end := min(start+perPage, len(sessions))

	var rows [][]models.InlineKeyboardButton
	for _, s := range sessions[start:end] {
		mark := "🟢"
		if !s.IsActive {
			mark = "⚪️"
		}
		label := fmt.Sprintf("%s #%d %s · %s %s", mark, s.ID, Truncate(s.Name, 24), s.Budget.String(), s.Currency)
		rows = append(rows, ButtonRow(InlineButton(label, fmt.Sprintf("%s%d", CallbackSession, s.ID))))
	}
	if totalPages > 1 {
		rows = append(rows, PaginationRow(page, totalPages, CallbackSessionsPage))
	}
	return InlineKeyboard(rows...)
}

// SessionKeyboard offers the actions available on one session.
func SessionKeyboard(s domain.Session) *models.InlineKeyboardMarkup {
	rows := [][]models.InlineKeyboardButton{
		ButtonRow(InlineButton("📊 Отчёт", fmt.Sprintf("%s%d", CallbackReport, s.ID))),
	}
	if s.IsActive {
		rows = append(rows, ButtonRow(InlineButton("🔒 Закрыть сессию", fmt.Sprintf("%s%d", CallbackClose, s.ID))))
	}
	rows = append(rows, ButtonRow(InlineButton("⬅️ К списку", CallbackSessionsPage+"0")))
	return InlineKeyboard(rows...)
}
