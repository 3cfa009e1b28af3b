package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"interactions-backend/internal/cache"
	"interactions-backend/internal/cache/memory"
	"interactions-backend/internal/cache/supabase"
	"interactions-backend/internal/config"
	"interactions-backend/internal/orchestrator"
	"interactions-backend/internal/providers/label"
	"interactions-backend/internal/transport/rest"
	"interactions-backend/internal/usagelog"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	stores, err := supabase.New(cfg.SupabaseURL, cfg.SupabaseServiceRoleKey)
	if err != nil {
		logger.Fatal("failed to initialize supabase client", zap.Error(err))
	}

	itemStore := cache.ItemStore(supabase.NewItemStore(stores))
	pairStore := cache.PairStore(supabase.NewPairStore(stores, config.CalcVersion))
	exposureStore := cache.ExposureStore(supabase.NewExposureStore(stores))

	if cfg.MemoryCacheLayerEnabled {
		itemStore = memory.NewDecorator(
			memory.NewLRU(2048, 10*time.Minute),
			itemStore.Get, itemStore.Put,
			func(r cache.ItemRecord) string { return r.Normalized },
		)
		pairStore = memory.NewDecorator(
			memory.NewLRU(2048, 10*time.Minute),
			pairStore.Get, pairStore.Put,
			func(r cache.PairRecord) string { return r.PairKey },
		)
		exposureStore = memory.NewDecorator(
			memory.NewLRU(2048, time.Hour),
			exposureStore.Get, exposureStore.Put,
			func(r cache.ExposureRecord) string { return r.Normalized },
		)
		logger.Info("in-memory cache decorator layer enabled")
	}

	policyLoader := config.NewPolicyLoader("")
	policyWatcher, err := config.NewPolicyWatcher(policyLoader, logger, cfg.PolicyHotReloadEnabled)
	if err != nil {
		logger.Fatal("failed to load policy", zap.Error(err))
	}
	defer policyWatcher.Stop()

	initialPolicy := policyWatcher.Current()
	labelMatcher := label.NewMatcher(label.NewClassTable(initialPolicy.ClassGroups))
	policyWatcher.OnChange(func(p *config.Policy) {
		labelMatcher.SetClassTable(label.NewClassTable(p.ClassGroups))
	})

	deps := orchestrator.New(ctx, cfg, itemStore, pairStore, exposureStore, labelMatcher,
		cfg.RxNormBaseURL, cfg.SupplementBaseURL, cfg.LabelBaseURL,
		cfg.AdverseBaseURL, cfg.LiteratureBaseURL, cfg.ExposureBaseURL)

	usageLogger := usagelog.New(stores.Client(), logger)

	handler := rest.NewRouter(deps, logger, cfg.Debug, usageLogger)

	srv := &http.Server{
		Addr:         cfg.ServerAddress,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("starting server", zap.String("address", cfg.ServerAddress))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed to start", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutting down server...")
	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
	}
}
