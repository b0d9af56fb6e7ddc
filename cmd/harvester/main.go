package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/RichGutz/Scraper.Neoauto/internal/api"
	"github.com/RichGutz/Scraper.Neoauto/internal/artifact"
	"github.com/RichGutz/Scraper.Neoauto/internal/config"
	"github.com/RichGutz/Scraper.Neoauto/internal/extract"
	"github.com/RichGutz/Scraper.Neoauto/internal/harvester"
	"github.com/RichGutz/Scraper.Neoauto/internal/monitoring"
	"github.com/RichGutz/Scraper.Neoauto/internal/navigator"
	"github.com/RichGutz/Scraper.Neoauto/internal/queue"
	"github.com/RichGutz/Scraper.Neoauto/internal/rules"
	"github.com/RichGutz/Scraper.Neoauto/internal/storage"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("could not load config", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Storage layer
	pgStore, err := storage.NewPostgresStore(ctx, cfg.PostgresURL)
	if err != nil {
		logger.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer pgStore.Close()
	redisStore := storage.NewRedisStore(cfg.RedisAddr)
	defer redisStore.Close()

	// Static rule tables, loaded once and shared read-only by all workers.
	ruleSet, err := rules.Load(cfg.BrandRulesPath, cfg.OwnerRulesPath)
	if err != nil {
		logger.Fatal("failed to load rule tables", zap.Error(err))
	}

	writer, err := artifact.NewWriter(cfg.ResultsDir)
	if err != nil {
		logger.Fatal("failed to prepare results dir", zap.Error(err))
	}

	metrics := monitoring.NewMetrics(prometheus.DefaultRegisterer)
	engine := extract.NewEngine(ruleSet)
	sessions := navigator.NewSessionFactory(cfg.Headless, cfg.SessionMaxListings, time.Now().UnixNano())
	nav := navigator.New(logger, navigator.Options{
		StepTimeout:     time.Duration(cfg.StepTimeoutSec) * time.Second,
		SettleDelay:     time.Duration(cfg.SettleDelayMs) * time.Millisecond,
		MaxScrollRounds: cfg.MaxScrollRounds,
	}, time.Now().UnixNano())

	core := harvester.New(harvester.Options{
		Workers:        cfg.Workers,
		DedupTTL:       time.Duration(cfg.DedupTTLHours) * time.Hour,
		BlockThreshold: cfg.BlockThreshold,
		BlockWindow:    time.Duration(cfg.BlockWindowSec) * time.Second,
		Cooldown:       time.Duration(cfg.CooldownSec) * time.Second,
	}, harvester.BrowserSessions{Factory: sessions}, nav, engine, writer, pgStore, redisStore, redisStore, metrics, logger)

	// Build this run's work queue from the two pools.
	backlog, err := pgStore.FetchBacklog(ctx, cfg.RunQuota)
	if err != nil {
		logger.Fatal("failed to fetch backlog", zap.Error(err))
	}
	revisit, err := pgStore.FetchRevisitPool(ctx, cfg.RunQuota)
	if err != nil {
		logger.Fatal("failed to fetch revisit pool", zap.Error(err))
	}
	selected := queue.Select(backlog, revisit, cfg.RunQuota)
	workQueue := queue.New(selected)
	metrics.QueueDepth.Set(float64(workQueue.Len()))
	logger.Info("work queue built",
		zap.Int("backlog", len(backlog)),
		zap.Int("revisit", len(revisit)),
		zap.Int("selected", len(selected)),
	)

	server := api.NewServer(cfg, core, pgStore, redisStore, logger)
	go func() {
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("could not start server", zap.Error(err))
		}
	}()
	logger.Info("status server started", zap.String("port", cfg.ServerPort))

	runDone := make(chan error, 1)
	go func() {
		runDone <- core.Run(ctx, workQueue)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-runDone:
		if err != nil && err != context.Canceled {
			logger.Error("run finished with error", zap.Error(err))
		} else {
			stats := core.Stats()
			logger.Info("run complete",
				zap.Int64("succeeded", stats.Succeeded),
				zap.Int64("soft_failures", stats.SoftFailures),
				zap.Int64("hard_failures", stats.HardFailures),
			)
		}
	case <-quit:
		logger.Info("shutting down...")
		cancel()
		<-runDone
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}

	logger.Info("harvester exiting")
}
