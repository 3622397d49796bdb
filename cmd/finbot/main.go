package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/susu3304/finbot/internal/api"
	"github.com/susu3304/finbot/internal/bot"
	"github.com/susu3304/finbot/internal/config"
	"github.com/susu3304/finbot/internal/conversation"
	"github.com/susu3304/finbot/internal/db"
	"github.com/susu3304/finbot/internal/intent"
	"github.com/susu3304/finbot/internal/ledger"
	"github.com/susu3304/finbot/internal/llm"
	"github.com/susu3304/finbot/internal/reminder"
	"github.com/susu3304/finbot/internal/session"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Connect to database
	database, err := db.New(context.Background(), cfg.DatabaseURL, cfg.Location)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	// Run migrations
	if err := database.RunMigrations(context.Background()); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	keywords := ledger.LoadKeywords(cfg.CategoriesFile)
	classifier := intent.New(keywords, cfg.Location)

	// LLM providers
	policy := llm.RetryPolicy{
		MaxAttempts: cfg.LLMMaxAttempts,
		Step:        cfg.LLMBackoffStep,
		Timeout:     cfg.LLMTimeout,
	}
	var primary, secondary llm.Endpoint
	if cfg.PrimaryLLMAPIKey != "" {
		primary = llm.Endpoint{
			Provider: llm.NewOpenAIProvider("primary", cfg.PrimaryLLMAPIKey, cfg.PrimaryLLMBaseURL, cfg.PrimaryLLMModel),
			Gate:     llm.NewGate(cfg.PrimaryLLMMinInterval),
		}
	} else {
		log.Println("PRIMARY_LLM_API_KEY not set; primary provider disabled")
	}
	if cfg.AnthropicAPIKey != "" {
		secondary = llm.Endpoint{Provider: llm.NewAnthropicProvider(cfg.AnthropicAPIKey, cfg.AnthropicModel)}
	} else {
		log.Println("ANTHROPIC_API_KEY not set; secondary provider disabled")
	}
	orchestrator := llm.NewOrchestrator(primary, secondary, policy, "")
	receipts := llm.NewReceiptExtractor(policy, cfg.Location, primary, secondary)

	// Initialize Discord bot
	discordBot, err := bot.New(cfg.DiscordToken)
	if err != nil {
		log.Fatalf("Failed to create discord bot: %v", err)
	}

	machine := conversation.New(conversation.Config{
		Sessions:     session.NewManager(cfg.SessionTTL),
		Classifier:   classifier,
		Reminders:    reminder.NewParser(keywords.Reminder, cfg.Location),
		Store:        database,
		Messenger:    discordBot.Messenger(),
		Responder:    orchestrator,
		Receipts:     receipts,
		StoreTimeout: cfg.StoreTimeout,
	})
	discordBot.SetHandler(machine)

	scheduler := reminder.NewScheduler(database, discordBot.Messenger(), cfg.ReminderInterval, cfg.ReminderMaxAttempts)

	// Initialize API server
	apiServer := api.New(cfg.WebBind, cfg.JWTSecret, database, cfg.StoreTimeout)

	// Start Discord bot
	if err := discordBot.Start(); err != nil {
		log.Fatalf("Failed to start discord bot: %v", err)
	}
	scheduler.Start()

	// Start API server
	go func() {
		if err := apiServer.Start(); err != nil {
			log.Printf("API server error: %v", err)
		}
	}()

	// Wait for signal to stop
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Println("Shutting down...")
	scheduler.Stop()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := apiServer.Shutdown(ctx); err != nil {
		log.Printf("API server shutdown error: %v", err)
	}
	if err := discordBot.Stop(); err != nil {
		log.Printf("Discord bot shutdown error: %v", err)
	}
}
