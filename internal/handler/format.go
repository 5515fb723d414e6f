package handler

import (
	"fmt"
	"strings"
	"time"

	"github.com/set-night/ledgerbot/internal/config"
	"github.com/set-night/ledgerbot/internal/domain"
	tg "github.com/set-night/ledgerbot/internal/telegram"
	"github.com/shopspring/decimal"
)

const dateLayout = "02.01.2006 15:04"

func currencyLabel(c domain.Currency) string {
	if c == domain.CurrencyRUB {
		return "руб. ПМР"
	}
	return string(c)
}

func money(d decimal.Decimal, c domain.Currency) string {
	return d.StringFixed(2) + " " + currencyLabel(c)
}

func sessionStatus(s domain.Session) string {
	if s.IsActive {
		return "🟢 активна"
	}
	return "⚪️ закрыта"
}

func formatSession(s domain.Session) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "📁 *Сессия #%d: %s*\n", s.ID, tg.EscapeMarkdown(s.Name))
	fmt.Fprintf(&sb, "Бюджет: %s\n", money(s.Budget, s.Currency))
	fmt.Fprintf(&sb, "Статус: %s\n", sessionStatus(s))
	fmt.Fprintf(&sb, "Создана: %s", s.CreatedAt.Format(dateLayout))
	if s.ClosedAt != nil {
		fmt.Fprintf(&sb, "\nЗакрыта: %s", s.ClosedAt.Format(dateLayout))
	}
	return sb.String()
}

// formatDetails renders the session report. Debts are listed apart from the
// net result.
func formatDetails(d domain.SessionDetails) string {
	c := d.Session.Currency
	var sb strings.Builder
	fmt.Fprintf(&sb, "📊 *Отчёт по сессии #%d: %s*\n\n", d.Session.ID, tg.EscapeMarkdown(d.Session.Name))
	fmt.Fprintf(&sb, "💰 Продажи: %s (%d шт.)\n", money(d.TotalSales, c), d.SalesCount)
	fmt.Fprintf(&sb, "💸 Расходы: %s\n", money(d.TotalExpenses, c))
	fmt.Fprintf(&sb, "📈 Итог: *%s*\n\n", money(d.Balance, c))
	fmt.Fprintf(&sb, "🤝 Мне должны: %s\n", money(d.OwedToMe, c))
	fmt.Fprintf(&sb, "🧾 Я должен: %s\n\n", money(d.IOwe, c))
	fmt.Fprintf(&sb, "Бюджет: %s · %s", money(d.Session.Budget, c), sessionStatus(d.Session))
	return sb.String()
}

func formatTransactions(title string, txs []domain.Transaction, c domain.Currency) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "*%s* (%d)\n", title, len(txs))
	if len(txs) == 0 {
		sb.WriteString("\nПусто.")
		return sb.String()
	}
	for i, tx := range txs {
		if i == config.ListLimit {
			fmt.Fprintf(&sb, "\n… и ещё %d", len(txs)-i)
			break
		}
		fmt.Fprintf(&sb, "\n`#%d` %s — %s", tx.ID, tx.Date.Format(dateLayout), money(tx.Amount, c))
		if tx.Type == domain.TxTypeSale && !tx.ExpenseAmount.IsZero() {
			fmt.Fprintf(&sb, " (расход %s)", tx.ExpenseAmount.StringFixed(2))
		}
		if tx.Description != "" {
			sb.WriteString("\n    " + tg.EscapeMarkdown(tx.Description))
		}
	}
	return sb.String()
}

func debtTypeLabel(t domain.DebtType) string {
	if t == domain.DebtIOwe {
		return "Я должен"
	}
	return "Мне должны"
}

func formatDebts(typ domain.DebtType, debts []domain.Debt, c domain.Currency) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "*%s* (%d)\n", debtTypeLabel(typ), len(debts))
	if len(debts) == 0 {
		sb.WriteString("\nПусто.")
		return sb.String()
	}
	for i, d := range debts {
		if i == config.ListLimit {
			fmt.Fprintf(&sb, "\n… и ещё %d", len(debts)-i)
			break
		}
		mark := "⏳"
		if d.IsRepaid {
			mark = "✅"
		}
		fmt.Fprintf(&sb, "\n%s `#%d` %s — %s", mark, d.ID, tg.EscapeMarkdown(d.PersonName), money(d.Amount, c))
		if d.Description != "" {
			sb.WriteString("\n    " + tg.EscapeMarkdown(d.Description))
		}
	}
	return sb.String()
}

func formatUsers(users []domain.User, now time.Time) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "👥 *Пользователи* (%d)\n", len(users))
	for _, u := range users {
		fmt.Fprintf(&sb, "\n`%d` %s", u.UserID, accessLabel(u, now))
	}
	return sb.String()
}

func accessLabel(u domain.User, now time.Time) string {
	if u.IsAdmin() {
		return "🛡 админ"
	}
	switch u.AccessState() {
	case domain.AccessUnlimited:
		return "✅ бессрочно"
	case domain.AccessTimed:
		if u.Expired(now) {
			return "⌛️ истёк " + u.AccessUntil.Format(dateLayout)
		}
		return "⏳ до " + u.AccessUntil.Format(dateLayout)
	}
	return "🚫 нет доступа"
}
