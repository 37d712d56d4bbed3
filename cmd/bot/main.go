// cmd/bot/main.go
package main

import (
	"context"
	"errors"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"habit-bot/internal/bot"
	"habit-bot/internal/config"
	"habit-bot/internal/gpt"
	"habit-bot/internal/habit"
	"habit-bot/internal/reminder"
	"habit-bot/internal/reply"
	"habit-bot/internal/server"
	"habit-bot/internal/store"
	"habit-bot/pkg/logger"
)

func main() {
	l := logger.New()
	l.Info("Starting Habit Bot...")

	cfg, err := config.Load()
	if err != nil {
		l.Fatal("Failed to load config", err)
	}

	if cfg.Telegram.Token == "" {
		l.Fatal("Telegram token is not configured")
	}

	st, closeStore, err := openStore(cfg, l)
	if err != nil {
		l.Fatal("Failed to open store", err)
	}
	defer closeStore()

	// The phrasing generator is optional; without an API key the selector
	// serves the static phrase table only.
	selector := reply.NewSelector(rand.NewSource(time.Now().UnixNano()), l)
	if cfg.GPT.APIKey != "" {
		selector = selector.WithGenerator(gpt.NewClient(cfg.GPT.APIKey).WithModel(cfg.GPT.Model))
		l.Info("Phrasing generator enabled", "model", cfg.GPT.Model)
	}

	service := habit.NewService(st, selector, l)

	telegramBot, err := bot.NewTelegramBot(cfg.Telegram.Token, service, l)
	if err != nil {
		l.Fatal("Failed to create Telegram bot", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	l.Info("Starting Telegram bot...")
	if err := telegramBot.Start(ctx); err != nil {
		l.Fatal("Failed to start Telegram bot", err)
	}

	scheduler := reminder.NewScheduler(st, telegramBot, cfg.Reminder.Time, l.Named("reminder"))
	go scheduler.Run(ctx)

	httpServer := server.NewServer(cfg.Server.Port, service, scheduler, telegramBot, l)
	go func() {
		l.Info("Starting HTTP server...")
		if err := httpServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.Fatal("Failed to start HTTP server", err)
		}
	}()

	// Wait for termination signal.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	l.Info("Shutting down bot...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := httpServer.Stop(shutdownCtx); err != nil {
		l.Error("Error during HTTP server shutdown", err)
	}
	if err := telegramBot.Stop(shutdownCtx); err != nil {
		l.Error("Error during bot shutdown", err)
	}

	l.Info("Bot stopped successfully")
}

// openStore picks the backend from config. Postgres connects with retry to
// ride out container startup ordering.
func openStore(cfg *config.Config, l *logger.Logger) (store.Store, func(), error) {
	switch cfg.Store.Driver {
	case "postgres":
		var (
			pg  *store.PostgresStore
			err error
		)
		maxRetries := 5
		for i := 0; i < maxRetries; i++ {
			pg, err = store.NewPostgresStore(store.PostgresConfig(cfg.Store.Postgres))
			if err == nil {
				break
			}
			l.Error("Failed to connect to database, retrying...", err)
			time.Sleep(time.Duration(i+1) * time.Second)
		}
		if pg == nil {
			return nil, nil, err
		}
		return pg, pg.Close, nil

	case "sqlite":
		sq, err := store.NewSQLiteStore(cfg.Store.SQLite.Path)
		if err != nil {
			return nil, nil, err
		}
		return sq, func() { _ = sq.Close() }, nil

	default:
		fs, err := store.NewFileStore(cfg.Store.File.Path)
		if err != nil {
			return nil, nil, err
		}
		return fs, func() {}, nil
	}
}
