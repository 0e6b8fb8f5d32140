package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"BasketWatch/internal/analytics"
	"BasketWatch/internal/config"
	"BasketWatch/internal/quote"
	"BasketWatch/internal/recorder"
	"BasketWatch/internal/scheduler"
	"BasketWatch/internal/server"
	"BasketWatch/internal/store"
	"BasketWatch/internal/universe"
	"BasketWatch/internal/updater"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("[INFO] BasketWatch starting...")

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

	// Resolve baskets
	long := cfg.Portfolio.LongTickers
	short := cfg.Portfolio.ShortTickers
	if cfg.Portfolio.RankingCSV != "" {
		long, short, err = universe.LoadRankingCSV(cfg.Portfolio.RankingCSV, cfg.Portfolio.BasketSize)
		if err != nil {
			log.Fatalf("[FATAL] load ranking csv: %v", err)
		}
	}
	log.Printf("[INFO] universe: %d long, %d short, %d benchmarks",
		len(long), len(short), len(cfg.Portfolio.Benchmarks))

	// Init price store
	st := store.Open(cfg.Cache.PriceFile)
	log.Printf("[INFO] price cache loaded: %d tickers", len(st.Tickers()))

	// Init quote client
	fetcher := quote.NewClient(cfg.Provider.BaseURL, cfg.Provider.APIKey,
		cfg.Provider.RateLimitPerMin, cfg.Provider.SymbolMap, cfg.Proxy)
	log.Printf("[INFO] data source: %s", fetcher.Name())

	// Init orchestrator over the full universe
	allTickers := make([]string, 0, len(long)+len(short)+len(cfg.Portfolio.Benchmarks))
	allTickers = append(allTickers, long...)
	allTickers = append(allTickers, short...)
	allTickers = append(allTickers, cfg.Portfolio.Benchmarks...)
	orch := updater.New(st, fetcher, allTickers, cfg.Portfolio.InceptionDate,
		updater.FetchWindow(cfg.Update.FetchWindow))

	// Init analytics engine
	engine := analytics.New(st, analytics.Config{
		Long:            long,
		Short:           short,
		Benchmarks:      cfg.Portfolio.Benchmarks,
		Inception:       cfg.Portfolio.InceptionDate,
		InitialCapital:  cfg.Portfolio.InitialCapital,
		PositionSize:    cfg.Portfolio.PositionSize,
		MinSeriesPoints: cfg.Update.MinSeriesPoints,
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

	// Init scheduler
	sched := scheduler.NewScheduler(ctx, orch, engine, rec)
	if err := sched.RegisterAll(cfg.Schedule.DailyCron); err != nil {
		log.Fatalf("[FATAL] register cron tasks: %v", err)
	}
	sched.Start()
	defer sched.Stop()

	// Start HTTP API
	srv := server.New(cfg.Server.ListenAddr, orch, engine, st, rec)
	go func() {
		if err := srv.ListenAndServe(); err != nil {
			log.Fatalf("[FATAL] http server: %v", err)
		}
	}()

	// Optional: refresh immediately on start
	if os.Getenv("RUN_ON_START") == "true" {
		log.Println("[INFO] RUN_ON_START enabled, executing refresh now")
		go sched.RunRefresh("STARTUP", false)
	}

	log.Println("[INFO] BasketWatch is running. Press Ctrl+C to stop.")

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("[INFO] shutdown signal received, stopping...")
	cancel()
	log.Println("[INFO] BasketWatch stopped")
}
