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

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sarychlabs/sarychdb/application/benchmark"
	"github.com/sarychlabs/sarychdb/application/services"
	"github.com/sarychlabs/sarychdb/infrastructure/cache"
	"github.com/sarychlabs/sarychdb/infrastructure/config"
	"github.com/sarychlabs/sarychdb/infrastructure/persistence/file"
	"github.com/sarychlabs/sarychdb/interfaces/http/rest"
)

var (
	benchDataset string
	benchRecords int
	benchQueries []string
	benchShards  int
)

var rootCmd = &cobra.Command{
	Use:   "sarychdb",
	Short: "SarychDB - a file-backed document store with parallel search",
}

var runCmd = &cobra.Command{
	Use:   "run [benchmark]",
	Short: "Start the server, or the benchmark harness with 'run benchmark'",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 1 {
			if args[0] != "benchmark" {
				return fmt.Errorf("unknown run mode %q", args[0])
			}
			return benchmark.Run(benchmark.Options{
				DatasetPath: benchDataset,
				Records:     benchRecords,
				Queries:     benchQueries,
				Shards:      benchShards,
			})
		}
		return serve()
	},
}

func init() {
	runCmd.Flags().StringVar(&benchDataset, "dataset", "benchmark.json", "benchmark dataset file (generated when absent)")
	runCmd.Flags().IntVar(&benchRecords, "records", 100000, "synthetic dataset size")
	runCmd.Flags().StringSliceVar(&benchQueries, "query", []string{"P1605"}, "queries to benchmark")
	runCmd.Flags().IntVar(&benchShards, "shards", 0, "shard count (0 = one per CPU)")
	rootCmd.AddCommand(runCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serve() error {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return fmt.Errorf("initialize logger: %w", err)
	}

	// Wire the storage and cache tiers
	store := file.NewStore(logger)
	registry := file.NewRegistry(cfg.UsersFile(), logger)
	if err := registry.Init(); err != nil {
		return fmt.Errorf("initialize user registry: %w", err)
	}
	files := cache.NewFileCache(store, cfg.FileCacheTTL, logger)
	searches := cache.NewSearchCache(cfg.SearchCacheTTL, cfg.SearchCacheMaxEntries)

	auth := services.NewAuthService(cfg, registry, store, logger)
	db := services.NewDatabaseService(cfg, store, files, searches, logger)
	lists := services.NewListService(cfg, files, logger)

	router := rest.NewRouter(auth, db, lists, logger, cfg.EnableCORS)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router.Setup(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info("Starting server",
			zap.Int("port", cfg.Port),
			zap.String("dataDir", cfg.DataDir),
			zap.String("environment", cfg.Environment),
		)

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	// Graceful shutdown
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", zap.Error(err))
	}

	if err := logger.Sync(); err != nil {
		log.Printf("Failed to sync logger: %v", err)
	}
	return nil
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsDevelopment() {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
