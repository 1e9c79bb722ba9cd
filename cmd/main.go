package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"gopkg.in/telebot.v3"

	"tanishuv/internal/auth"
	"tanishuv/internal/bot"
	"tanishuv/internal/config"
	"tanishuv/internal/handlers"
	"tanishuv/internal/service"
	"tanishuv/internal/storage"
)

func main() {
	// Load .env if present; real deployments set the environment directly
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := config.Load()

	// Initialize SQLite database
	log.Printf("Initializing database at: %s", cfg.DatabasePath)
	if err := storage.InitDB(cfg.DatabasePath); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer storage.CloseDB()

	// The Telegram bot is optional: without a token the HTTP API still
	// serves balances, history and settlement, but invoice creation and
	// payment confirmations are disabled.
	var api service.TelegramAPI
	if cfg.BotToken != "" {
		b, err := telebot.NewBot(telebot.Settings{
			Token: cfg.BotToken,
			Poller: &telebot.LongPoller{
				Timeout: 10 * time.Second,
			},
		})
		if err != nil {
			log.Fatalf("Failed to create bot: %v", err)
		}
		api = service.NewBotAPI(b)
		bot.RegisterHandlers(b, cfg.WebAppURL)
		go b.Start()
		defer b.Stop()
	} else {
		log.Println("TELEGRAM_BOT_TOKEN not set, running without bot")
	}

	settlement := service.NewSettlementService(service.Settings{
		CommissionPercent:    cfg.CommissionPercent,
		MinTip:               cfg.MinTip,
		MinWithdrawal:        cfg.MinWithdrawal,
		WithdrawalFeePercent: cfg.WithdrawalFeePercent,
		WithdrawalFeeMin:     cfg.WithdrawalFeeMin,
	})
	bridge := service.NewPaymentBridge(api)

	// Expire stale pending purchases in the background
	sweeper := service.NewSweepWorker(cfg.SweepIntervalMinutes, cfg.PendingMaxAgeHours)
	sweeper.Start()
	defer sweeper.Stop()

	// Set up HTTP routes
	r := mux.NewRouter()
	handlers.NewPaymentsHandler(settlement, bridge).Register(r)

	var handler http.Handler = r
	if cfg.RequireInitData {
		handler = auth.Middleware(r)
	}

	addr := fmt.Sprintf(":%s", cfg.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	go func() {
		log.Printf("Server starting on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
}
