package handler

import (
	"github.com/go-telegram/bot"
	"github.com/set-night/ledgerbot/internal/config"
	"github.com/set-night/ledgerbot/internal/service"
	"github.com/set-night/ledgerbot/internal/telegram"
)

// Handler holds all dependencies needed by command and callback handlers.
type Handler struct {
	bot      *bot.Bot
	cfg      *config.Config
	access   *service.AccessService
	ledger   *service.LedgerService
	tgLogger *telegram.TelegramLogger
}

// Deps contains all dependencies required to construct a Handler.
type Deps struct {
	Bot           *bot.Bot
	Cfg           *config.Config
	AccessService *service.AccessService
	LedgerService *service.LedgerService
	TgLogger      *telegram.TelegramLogger
}

// New creates a new Handler from the provided dependencies.
func New(deps Deps) *Handler {
	return &Handler{
		bot:      deps.Bot,
		cfg:      deps.Cfg,
		access:   deps.AccessService,
		ledger:   deps.LedgerService,
		tgLogger: deps.TgLogger,
	}
}
