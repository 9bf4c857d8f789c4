package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/finsignal/emacross/internal/config"
	"github.com/finsignal/emacross/internal/detector"
	"github.com/finsignal/emacross/internal/logger"
	"github.com/finsignal/emacross/internal/marketdata"
	"github.com/finsignal/emacross/internal/scheduler"
	"github.com/finsignal/emacross/internal/storage"
	"github.com/finsignal/emacross/internal/telegram"
)

var (
	configPath = flag.String("config", "configs/config.yaml", "Path to configuration file")
	once       = flag.Bool("once", false, "Run a single scan tick and exit (cron mode)")
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	logger.Info("Configuration loaded from %s", *configPath)

	window, err := scheduler.NewWindow(cfg.Scanner.StartHour, cfg.Scanner.EndHour, cfg.Scanner.Timezone)
	if err != nil {
		logger.Fatal("Invalid timezone %q: %v", cfg.Scanner.Timezone, err)
	}

	store, err := storage.New(cfg.Storage.MaxAlerts, cfg.Storage.DBPath)
	if err != nil {
		logger.Fatal("Failed to initialize storage: %v", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("Failed to close storage: %v", err)
		}
	}()

	mdClient := marketdata.NewClient(cfg.MarketData.BaseURL, marketdata.ClientConfig{
		Timeout:        cfg.MarketData.Timeout,
		MaxRetries:     cfg.MarketData.MaxRetries,
		RetryDelayBase: cfg.MarketData.RetryDelayBase,
	})

	var telegramClient *telegram.Client
	if cfg.Telegram.Enabled {
		telegramClient, err = telegram.NewClient(cfg.Telegram.BotToken, cfg.Telegram.ChatID,
			cfg.Telegram.MaxRetries, cfg.Telegram.RetryDelayBase)
		if err != nil {
			logger.Fatal("Failed to initialize Telegram client: %v", err)
		}
		logger.Info("Telegram client initialized successfully")
	} else {
		logger.Debug("Telegram notifications disabled")
	}

	catalog := scheduler.NewCatalog(cfg.Scanner.Groups)
	det := detector.New(cfg.Scanner.EMASpan, cfg.Scanner.MinBars)

	var notifier scheduler.Notifier
	if telegramClient != nil {
		notifier = telegramClient
	}
	scanner := scheduler.New(window, catalog, mdClient, det, notifier, store, scheduler.Config{
		CooldownMultiplier: cfg.Scanner.CooldownMultiplier,
		MinBars:            cfg.Scanner.MinBars,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if *once {
		runOnce(ctx, scanner)
		return
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Info("Shutdown signal received, cleaning up...")
		scanner.Shutdown()
		cancel()
	}()

	if telegramClient != nil {
		telegramClient.ListenForCommands(ctx)
		if err := telegramClient.SendStartup(); err != nil {
			logger.Warn("Failed to send startup notification: %v", err)
		}
	}

	logger.Info("Starting scanner (tick: %v, window: %02d-%02d %s, instruments: %d)",
		cfg.Scanner.TickInterval, cfg.Scanner.StartHour, cfg.Scanner.EndHour,
		cfg.Scanner.Timezone, catalog.Size())

	runLoop(ctx, scanner, telegramClient, cfg.Scanner.TickInterval)
}

// runOnce performs exactly one gate check and, if active, one catalog
// evaluation. Exit code 0 covers "outside window, did nothing".
func runOnce(ctx context.Context, scanner *scheduler.Scanner) {
	now := time.Now()
	if !scanner.InWindow(now) {
		logger.Info("Outside monitoring window, nothing to do")
		return
	}
	res := scanner.Tick(ctx, now)
	logger.Info("One-shot scan done: %d evaluated, %d alerts", res.Active, res.Alerts)
	scanner.Shutdown()
}

// runLoop wakes on a short fixed interval and acts at most once per distinct
// wall-clock minute.
func runLoop(ctx context.Context, scanner *scheduler.Scanner, telegramClient *telegram.Client, tick time.Duration) {
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	lastMinute := -1
	consecutiveFailures := 0

	handleResult := func(res scheduler.TickResult) {
		// A cycle where the window was active but nothing could be
		// evaluated counts as failed; notify on the first of a streak.
		if res.Active == 0 && res.Skipped > 0 {
			consecutiveFailures++
			logger.Error("Scan cycle failed: all %d due instruments skipped", res.Skipped)
			if consecutiveFailures == 1 && telegramClient != nil {
				err := fmt.Errorf("all %d due instruments skipped", res.Skipped)
				if sendErr := telegramClient.SendError(err); sendErr != nil {
					logger.Warn("Failed to send error notification: %v", sendErr)
				}
			}
			return
		}
		if res.Active > 0 && consecutiveFailures > 0 {
			if telegramClient != nil {
				if sendErr := telegramClient.SendRecovery(consecutiveFailures); sendErr != nil {
					logger.Warn("Failed to send recovery notification: %v", sendErr)
				}
			}
			consecutiveFailures = 0
		}
	}

	for {
		select {
		case <-ctx.Done():
			logger.Info("Scanner stopped")
			return

		case <-ticker.C:
			now := time.Now()
			if now.Minute() == lastMinute {
				continue
			}
			lastMinute = now.Minute()
			handleResult(scanner.Tick(ctx, now))
		}
	}
}
