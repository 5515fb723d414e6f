package main

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	ledgerroot "github.com/set-night/ledgerbot"
	"github.com/set-night/ledgerbot/internal/config"
	"github.com/set-night/ledgerbot/internal/handler"
	"github.com/set-night/ledgerbot/internal/middleware"
	"github.com/set-night/ledgerbot/internal/repository"
	"github.com/set-night/ledgerbot/internal/service"
	"github.com/set-night/ledgerbot/internal/store"
	"github.com/set-night/ledgerbot/internal/telegram"
)

func main() {
	// Setup structured logging
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		slog.Warn("unknown log level, using info", "level", cfg.LogLevel)
		level = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	})))

	// Setup context with graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Open storage
	backend, closeBackend, err := openBackend(ctx, cfg)
	if err != nil {
		slog.Error("failed to open storage", "backend", cfg.StorageBackend, "error", err)
		os.Exit(1)
	}
	defer closeBackend()

	st := store.New(backend, store.Options{
		OwnerID:  cfg.OwnerID,
		Timeout:  cfg.StorageTimeout,
		CacheTTL: cfg.CacheTTL,
	})
	if err := st.Init(ctx); err != nil {
		slog.Error("failed to initialize store", "error", err)
		os.Exit(1)
	}

	// Initialize services
	accessService := service.NewAccessService(st)
	ledgerService := service.NewLedgerService(st)

	if err := accessService.SeedAdmins(ctx, cfg.SeedAdminIDs()); err != nil {
		slog.Error("failed to seed admins", "error", err)
		os.Exit(1)
	}
	slog.Info("admins seeded", "owner_id", cfg.OwnerID, "admin_ids", cfg.AdminIDsString())

	// The logger needs the bot and the middlewares need the logger.
	tgLogger := telegram.NewTelegramLogger(nil, cfg)

	opts := []bot.Option{
		bot.WithMiddlewares(
			middleware.Recover(tgLogger),
			middleware.Logging(),
			middleware.RateLimit(middleware.NewLimiter(nil), cfg.IsAdmin),
			middleware.UserLoader(accessService, tgLogger),
			middleware.AccessGuard(accessService, cfg.ContactURL),
		),
		bot.WithDefaultHandler(func(ctx context.Context, b *bot.Bot, update *models.Update) {
			if update.Message == nil || update.Message.Chat.Type != "private" {
				return
			}
			b.SendMessage(ctx, &bot.SendMessageParams{
				ChatID: update.Message.Chat.ID,
				Text:   "🤔 Неизвестная команда. Список команд: /help",
			})
		}),
	}

	b, err := bot.New(cfg.BotToken, opts...)
	if err != nil {
		slog.Error("failed to create bot", "error", err)
		os.Exit(1)
	}
	tgLogger.Attach(b)

	// Get bot info
	me, err := b.GetMe(ctx)
	if err != nil {
		slog.Error("failed to get bot info", "error", err)
		os.Exit(1)
	}
	slog.Info("bot info retrieved", "id", me.ID, "username", me.Username)

	if cfg.DropPendingUpdates {
		if _, err := b.DeleteWebhook(ctx, &bot.DeleteWebhookParams{DropPendingUpdates: true}); err != nil {
			slog.Warn("failed to drop pending updates", "error", err)
		}
	}

	// Initialize handler
	h := handler.New(handler.Deps{
		Bot:           b,
		Cfg:           cfg,
		AccessService: accessService,
		LedgerService: ledgerService,
		TgLogger:      tgLogger,
	})

	// Register all handlers
	h.Register()

	// Start bot
	slog.Info("starting bot", "username", me.Username, "id", me.ID, "storage", cfg.StorageBackend)
	b.Start(ctx)

	// Graceful shutdown
	slog.Info("bot stopped gracefully")
}

// openBackend builds the configured snapshot backend and its cleanup.
func openBackend(ctx context.Context, cfg *config.Config) (store.Backend, func(), error) {
	switch cfg.StorageBackend {
	case config.BackendPostgres:
		migrationsFS, err := fs.Sub(ledgerroot.MigrationsFS, "migrations")
		if err != nil {
			return nil, nil, fmt.Errorf("load embedded migrations: %w", err)
		}
		pool, err := repository.OpenPostgres(ctx, cfg.DatabaseURL, migrationsFS, repository.PoolOptions{
			MaxConns: 4,
			MinConns: 1,
		})
		if err != nil {
			return nil, nil, err
		}
		slog.Info("using postgres storage")
		return repository.NewPostgresBackend(pool), pool.Close, nil
	default:
		backend := repository.NewFileBackend(cfg.DataFile)
		slog.Info("using file storage", "path", backend.Path())
		return backend, func() {}, nil
	}
}
