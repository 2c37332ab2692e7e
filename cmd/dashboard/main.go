package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"DemandBoard/internal/collector"
	"DemandBoard/internal/config"
	"DemandBoard/internal/notifier"
	"DemandBoard/internal/presenter"
	"DemandBoard/internal/recorder"
	"DemandBoard/internal/scheduler"
	"DemandBoard/internal/session"

	"github.com/joho/godotenv"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("[INFO] DemandBoard starting...")

	if err := godotenv.Load(".env"); err != nil && !os.IsNotExist(err) {
		log.Printf("[WARN] load .env: %v", err)
	}

	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("[FATAL] load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[FATAL] config validation: %v", err)
	}
	defaults, _ := cfg.DefaultRequest()

	// Init data source
	var src collector.Source
	if cfg.Backend.BaseURL != "" {
		src = collector.NewBackendSource(cfg.Backend.BaseURL, cfg.Backend.SalesPath, cfg.Backend.PredictPath, cfg.Proxy, cfg.Backend.RequestTimeout)
	} else {
		log.Println("[WARN] backend.base_url not set, serving synthetic sales")
		src = collector.NewMockSource(cfg.Backend.MockBase, cfg.Backend.MockDays)
	}
	log.Printf("[INFO] data source: %s", src.Name())
	col := collector.NewCollector(src)

	sess := session.New()
	pres := presenter.NewChartPresenter(presenter.Options{
		OutputPath: cfg.Chart.OutputPath,
		Width:      cfg.Chart.Width,
		Height:     cfg.Chart.Height,
		Title:      cfg.Chart.Title,
	})

	// Init recorder
	var rec recorder.Recorder
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			log.Printf("[WARN] init sqlite recorder failed, using noop: %v", err)
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
			defer sr.Close()
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Init scheduler; the notifier stays a nil interface when no chat is configured
	var tn *notifier.TelegramNotifier
	var n scheduler.Notifier
	if cfg.TelegramEnabled() {
		tn = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
		n = tn
	}
	sched := scheduler.NewScheduler(ctx, col, sess, pres, rec, n, defaults)
	if err := sched.RegisterAll(cfg.Schedule.ReloadCron, cfg.Schedule.ForecastCron); err != nil {
		log.Fatalf("[FATAL] register cron tasks: %v", err)
	}
	sched.Start()

	// Initial load runs independently of any forecast request
	go func() {
		if err := sched.LoadActual(ctx); err != nil {
			log.Printf("[WARN] initial load failed, waiting for the next reload")
		}
	}()

	if tn != nil {
		go tn.StartPolling(ctx, sched.HandleCommand)
		log.Println("[INFO] Telegram polling started")
	} else {
		log.Println("[INFO] Telegram not configured, commands disabled")
	}

	// Optional: forecast immediately on start
	if os.Getenv("FORECAST_ON_START") == "true" {
		log.Printf("[INFO] FORECAST_ON_START enabled, requesting %s for %d days", defaults.Model, defaults.Days)
		go func() {
			if _, err := sched.RequestForecast(ctx, defaults); err != nil {
				log.Printf("[WARN] startup forecast failed")
			}
		}()
	}

	log.Println("[INFO] DemandBoard is running. Press Ctrl+C to stop.")

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("[INFO] shutdown signal received, stopping...")
	cancel()
	if err := sched.Shutdown(); err != nil {
		log.Printf("[WARN] release chart: %v", err)
	}
	log.Println("[INFO] DemandBoard stopped")
}
