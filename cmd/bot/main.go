package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"

	"github.com/dmorales/ledgerbot/internal/analytics"
	"github.com/dmorales/ledgerbot/internal/bot"
	"github.com/dmorales/ledgerbot/internal/config"
	"github.com/dmorales/ledgerbot/internal/dialog"
	"github.com/dmorales/ledgerbot/internal/logger"
	"github.com/dmorales/ledgerbot/internal/sheets"
)

func main() {
	// A .env file is optional; real deployments set the environment
	// directly.
	_ = godotenv.Load()

	cfg, err := config.Load(os.Getenv)
	if err != nil {
		fallback := logger.New("info")
		fallback.Fatal().Err(err).Msg("Invalid configuration")
	}
	log := logger.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Record store
	store, err := sheets.NewStore(ctx, cfg.CredentialsFile, cfg.SpreadsheetID)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to the record store")
	}
	ledger := sheets.NewLedger(store, cfg.Location())
	if err := ledger.EnsureHeaders(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to prepare the record tables")
	}

	// Analytics are optional: a load failure disables the analytics
	// commands but leaves data entry fully functional. A configured
	// workbook takes precedence; otherwise the live spreadsheet is
	// tried as the source.
	var analyticsSrc analytics.Source = store
	if cfg.AnalyticsWorkbook != "" {
		src, err := analytics.OpenXLSX(cfg.AnalyticsWorkbook)
		if err != nil {
			log.Warn().Err(err).Str("workbook", cfg.AnalyticsWorkbook).
				Msg("Analytics workbook could not be loaded; analytics commands disabled")
			analyticsSrc = nil
		} else {
			analyticsSrc = src
		}
	}

	var analyzer *analytics.Analyzer
	if analyticsSrc != nil {
		a, err := analytics.New(ctx, analyticsSrc, log)
		if err != nil {
			log.Warn().Err(err).Msg("Analytics data could not be loaded; analytics commands disabled")
		} else {
			analyzer = a
		}
	}

	api, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Telegram")
	}
	log.Info().Str("username", api.Self.UserName).Msg("Connected to Telegram")

	engine := dialog.NewEngine(cfg.Authorized, log)
	b := bot.New(api, engine, ledger, analyzer, cfg, log)

	updateCfg := tgbotapi.NewUpdate(0)
	updateCfg.Timeout = 60
	updates := api.GetUpdatesChan(updateCfg)

	log.Info().Int("authorized_users", len(cfg.AuthorizedUsers)).Msg("Bot running")
	b.Run(ctx, updates)

	api.StopReceivingUpdates()
	log.Info().Msg("Bot stopped")
}
