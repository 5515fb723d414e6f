package handler

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/set-night/ledgerbot/internal/domain"
	"github.com/set-night/ledgerbot/internal/service"
	"github.com/shopspring/decimal"
)

// errUsage marks input that does not match the command syntax.
var errUsage = errors.New("usage")

// args returns the words after the command.
func args(text string) []string {
	f := strings.Fields(text)
	if len(f) == 0 {
		return nil
	}
	return f[1:]
}

// tail returns the raw text after the command and n more words.
func tail(text string, n int) string {
	rest := text
	for i := 0; i <= n; i++ {
		rest = strings.TrimLeftFunc(rest, unicode.IsSpace)
		idx := strings.IndexFunc(rest, unicode.IsSpace)
		if idx < 0 {
			return ""
		}
		rest = rest[idx:]
	}
	return strings.TrimSpace(rest)
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimPrefix(s, "#"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: bad id %q", errUsage, s)
	}
	return id, nil
}

func isAmount(s string) bool {
	_, err := service.ParseAmount(s)
	return err == nil
}

type newSessionArgs struct {
	Budget   decimal.Decimal
	Currency domain.Currency
	Name     string
}

// parseNewSession parses "/new <budget> <currency> <name...>".
func parseNewSession(text string) (newSessionArgs, error) {
	a := args(text)
	if len(a) < 3 {
		return newSessionArgs{}, errUsage
	}
	budget, err := service.ParseAmount(a[0])
	if err != nil {
		return newSessionArgs{}, err
	}
	currency, ok := parseCurrency(a[1])
	if !ok {
		return newSessionArgs{}, fmt.Errorf("%w: %q", domain.ErrInvalidCurrency, a[1])
	}
	return newSessionArgs{Budget: budget, Currency: currency, Name: tail(text, 2)}, nil
}

func parseCurrency(s string) (domain.Currency, bool) {
	switch strings.ToLower(s) {
	case "руб", "рубль", "рубли", "р", "пмр", "₽":
		return domain.CurrencyRUB, true
	case "usd", "$", "tether":
		return domain.CurrencyUSDT, true
	}
	return domain.ParseCurrency(s)
}

type txArgs struct {
	SessionID   int64
	Amount      decimal.Decimal
	Cost        decimal.Decimal
	Description string
}

// parseSale parses "/sale <session> <amount> [cost] [description...]".
// The third word is a cost only if it reads as a number.
func parseSale(text string) (txArgs, error) {
	a := args(text)
	if len(a) < 2 {
		return txArgs{}, errUsage
	}
	id, err := parseID(a[0])
	if err != nil {
		return txArgs{}, err
	}
	amount, err := service.ParseAmount(a[1])
	if err != nil {
		return txArgs{}, err
	}
	out := txArgs{SessionID: id, Amount: amount, Cost: decimal.Zero}
	if len(a) > 2 && isAmount(a[2]) {
		out.Cost, _ = service.ParseAmount(a[2])
		out.Description = tail(text, 3)
	} else {
		out.Description = tail(text, 2)
	}
	return out, nil
}

// parseExpense parses "/expense <session> <amount> [description...]".
func parseExpense(text string) (txArgs, error) {
	a := args(text)
	if len(a) < 2 {
		return txArgs{}, errUsage
	}
	id, err := parseID(a[0])
	if err != nil {
		return txArgs{}, err
	}
	amount, err := service.ParseAmount(a[1])
	if err != nil {
		return txArgs{}, err
	}
	return txArgs{SessionID: id, Amount: amount, Cost: decimal.Zero, Description: tail(text, 2)}, nil
}

func parseDebtType(s string) (domain.DebtType, bool) {
	switch strings.ToLower(s) {
	case "owed", "owed_to_me", "мне", "должны":
		return domain.DebtOwedToMe, true
	case "iowe", "i_owe", "я", "должен":
		return domain.DebtIOwe, true
	}
	return "", false
}

type debtArgs struct {
	SessionID   int64
	Type        domain.DebtType
	Person      string
	Amount      decimal.Decimal
	Description string
}

// parseDebt parses "/debt <session> <type> <person...> <amount> [description...]".
// The person name runs up to the first word that reads as a number.
func parseDebt(text string) (debtArgs, error) {
	a := args(text)
	if len(a) < 4 {
		return debtArgs{}, errUsage
	}
	id, err := parseID(a[0])
	if err != nil {
		return debtArgs{}, err
	}
	typ, ok := parseDebtType(a[1])
	if !ok {
		return debtArgs{}, fmt.Errorf("%w: debt type %q", errUsage, a[1])
	}
	for i := 3; i < len(a); i++ {
		if !isAmount(a[i]) {
			continue
		}
		amount, _ := service.ParseAmount(a[i])
		return debtArgs{
			SessionID:   id,
			Type:        typ,
			Person:      strings.Join(a[2:i], " "),
			Amount:      amount,
			Description: tail(text, i+1),
		}, nil
	}
	return debtArgs{}, fmt.Errorf("%w: missing amount", errUsage)
}

type listArgs struct {
	SessionID int64
	DebtType  domain.DebtType
	Search    string
}

// parseList parses "<session> [search...]". With debts set, an optional
// debt type may precede the search; it defaults to owed_to_me.
func parseList(text string, debts bool) (listArgs, error) {
	a := args(text)
	if len(a) < 1 {
		return listArgs{}, errUsage
	}
	id, err := parseID(a[0])
	if err != nil {
		return listArgs{}, err
	}
	out := listArgs{SessionID: id, Search: tail(text, 1)}
	if debts {
		out.DebtType = domain.DebtOwedToMe
		if len(a) > 1 {
			if typ, ok := parseDebtType(a[1]); ok {
				out.DebtType = typ
				out.Search = tail(text, 2)
			}
		}
	}
	return out, nil
}

type editArgs struct {
	ID    int64
	Field string
	Value string
}

var fieldAliases = map[string]string{
	"сумма":         "amount",
	"себестоимость": "expense_amount",
	"cost":          "expense_amount",
	"расход":        "expense_amount",
	"описание":      "description",
	"desc":          "description",
	"имя":           "person_name",
	"name":          "person_name",
	"person":        "person_name",
	"погашен":       "is_repaid",
	"repaid":        "is_repaid",
}

// parseEdit parses "<id> <field> <value...>".
func parseEdit(text string) (editArgs, error) {
	a := args(text)
	if len(a) < 3 {
		return editArgs{}, errUsage
	}
	id, err := parseID(a[0])
	if err != nil {
		return editArgs{}, err
	}
	field := strings.ToLower(a[1])
	if alias, ok := fieldAliases[field]; ok {
		field = alias
	}
	return editArgs{ID: id, Field: field, Value: tail(text, 2)}, nil
}

// parseGrant parses "<user_id> [days]"; missing days means no expiry.
func parseGrant(text string) (int64, int, error) {
	a := args(text)
	if len(a) < 1 {
		return 0, 0, errUsage
	}
	id, err := parseID(a[0])
	if err != nil {
		return 0, 0, err
	}
	if len(a) < 2 {
		return id, 0, nil
	}
	days, err := strconv.Atoi(a[1])
	if err != nil || days < 0 {
		return 0, 0, fmt.Errorf("%w: bad days %q", errUsage, a[1])
	}
	return id, days, nil
}

// parseBroadcast parses "<audience> <text...>", keeping line breaks in text.
func parseBroadcast(text string) (service.Audience, string, error) {
	a := args(text)
	if len(a) < 2 {
		return "", "", errUsage
	}
	audience, ok := service.ParseAudience(strings.ToLower(a[0]))
	if !ok {
		return "", "", fmt.Errorf("%w: audience %q", errUsage, a[0])
	}
	return audience, tail(text, 1), nil
}
