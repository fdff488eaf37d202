package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/prasetyo/checkin-bot/internal/bot"
	"github.com/prasetyo/checkin-bot/internal/config"
	"github.com/prasetyo/checkin-bot/internal/domain"
	"github.com/prasetyo/checkin-bot/internal/repository/memory"
	"github.com/prasetyo/checkin-bot/internal/repository/sqlite"
	"github.com/prasetyo/checkin-bot/internal/service"
	"github.com/prasetyo/checkin-bot/internal/sheets"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	ctx := context.Background()

	// Initialize the spreadsheet client (check-in rows and allow list)
	sheet, err := sheets.New(ctx, cfg.CredentialsBase64, cfg.SpreadsheetID, cfg.CheckinRange, cfg.AllowListRange)
	if err != nil {
		logger.Fatal("failed to initialize sheets client", zap.Error(err))
	}

	// Initialize session storage: sqlite when a database path is configured,
	// otherwise in-memory (sessions are lost on restart)
	var sessions domain.SessionRepository
	if cfg.DatabasePath != "" {
		db, err := sqlite.New(cfg.DatabasePath)
		if err != nil {
			logger.Fatal("failed to initialize database", zap.Error(err))
		}
		defer db.Close()

		sessions = sqlite.NewSessionRepository(db)
		logger.Info("session storage: sqlite", zap.String("path", cfg.DatabasePath))
	} else {
		sessions = memory.NewSessionRepository()
		logger.Info("session storage: in-memory")
	}

	// Initialize service
	checkinService := service.NewCheckinService(sessions, sheet, sheet, logger)

	// Initialize bot
	telegramBot, err := bot.New(cfg.TelegramToken, checkinService, cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialize bot", zap.Error(err))
	}

	// Handle graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	// Start bot in goroutine
	go func() {
		logger.Info("bot started")
		if err := telegramBot.Start(); err != nil {
			logger.Fatal("bot stopped with error", zap.Error(err))
		}
	}()

	// Wait for stop signal
	<-stop
	logger.Info("shutting down gracefully")
	telegramBot.Stop()
}
