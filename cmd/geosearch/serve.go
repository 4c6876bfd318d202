package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jhleee/geo-search-api/application/service"
	"github.com/jhleee/geo-search-api/domain/search"
	"github.com/jhleee/geo-search-api/infrastructure/api"
	"github.com/jhleee/geo-search-api/infrastructure/persistence"
	"github.com/jhleee/geo-search-api/infrastructure/provider"
	"github.com/jhleee/geo-search-api/infrastructure/vectorindex"
	"github.com/jhleee/geo-search-api/internal/config"
	"github.com/jhleee/geo-search-api/internal/database"
	"github.com/jhleee/geo-search-api/internal/log"
)

func serveCmd() *cobra.Command {
	var (
		envFile string
		host    string
		port    int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		Long: `Start the HTTP API server.

Configuration is loaded in the following order (later sources override earlier):
  1. Default values
  2. .env file (if --env-file specified or .env exists in current directory)
  3. Environment variables
  4. Command line flags

Environment variables (all prefixed GEOSEARCH_):
  HOST                    Server host to bind to (default: 0.0.0.0)
  PORT                    Server port to listen on (default: 8080)
  DATA_DIR                Data directory (default: ~/.geosearch)
  DB_URL                  Database URL (default: sqlite:///{data_dir}/geosearch.db)
  LOG_LEVEL               Log level: DEBUG, INFO, WARN, ERROR (default: INFO)
  LOG_FORMAT              Log format: pretty, json (default: pretty)

  EMBEDDING_*             Embedding endpoint configuration
    BASE_URL              Base URL (e.g. https://api.openai.com/v1)
    MODEL                 Model identifier (default: text-embedding-3-small)
    API_KEY               API key; without one a local hash embedder is used
    TIMEOUT               Request timeout (default: 60s)
    MAX_RETRIES           Retry attempts (default: 5)
    CACHE_DIR             HTTP response cache directory
    USE_PREFIXES          Apply query:/passage: role prefixes (default: false)

  INDEX_*                 Vector index configuration
    DIMENSION             Vector dimension (default: 384)
    TRAIN_THRESHOLD       Vector count that triggers training (default: 100)
    CENTROIDS             IVF centroid count (default: 100)
    PROBES                Probed lists per search (default: 10)
    SNAPSHOT_INTERVAL     Insertions between snapshots (default: 100)

  SEARCH_*                Search limits and thresholds
  BULK_*                  Bulk ingestion sizing`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(envFile, host, port)
		},
	}

	cmd.Flags().StringVar(&envFile, "env-file", "", "Path to .env file (default: .env in current directory)")
	cmd.Flags().StringVar(&host, "host", "", "Server host to bind to (default: 0.0.0.0)")
	cmd.Flags().IntVar(&port, "port", 0, "Server port to listen on (default: 8080)")

	return cmd
}

func runServe(envFile, host string, port int) error {
	cfg, err := loadConfig(envFile)
	if err != nil {
		return err
	}
	cfg = applyServeOverrides(cfg, host, port)

	if err := cfg.EnsureDataDir(); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}

	logger := log.New(cfg)
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := database.NewDatabase(ctx, cfg.DBURL())
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("failed to close database", slog.Any("error", err))
		}
	}()

	store, err := persistence.NewLocationStore(db, logger)
	if err != nil {
		return fmt.Errorf("create location store: %w", err)
	}

	indexCfg := cfg.Index()
	index, err := vectorindex.New(vectorindex.Options{
		Dimension:        indexCfg.Dimension(),
		TrainThreshold:   indexCfg.TrainThreshold(),
		Centroids:        indexCfg.Centroids(),
		Probes:           indexCfg.Probes(),
		SnapshotInterval: indexCfg.SnapshotInterval(),
		IndexPath:        cfg.IndexPath(),
		MetaPath:         cfg.IndexMetaPath(),
	}, logger)
	if err != nil {
		return fmt.Errorf("create vector index: %w", err)
	}

	embedder, model := buildEmbedder(cfg, logger)

	locations := service.NewLocationService(store, index, embedder, cfg.Search(), model, logger)
	searchSvc := service.NewSearchService(store, index, embedder, cfg.Search(), logger)
	bulk, err := service.NewBulkService(store, index, embedder, cfg.Bulk(), logger)
	if err != nil {
		return fmt.Errorf("create bulk service: %w", err)
	}
	defer bulk.Release()

	apiServer := api.NewAPIServer(locations, searchSvc, bulk, logger)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Info("shutting down server")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := apiServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown error", slog.Any("error", err))
		}

		if err := index.Save(); err != nil {
			logger.Error("failed to save vector index", slog.Any("error", err))
		}
		cancel()
	}()

	logger.Info("starting geosearch",
		slog.String("version", version),
		slog.String("addr", cfg.Addr()),
		slog.String("model", model),
		slog.Int("dimension", indexCfg.Dimension()),
	)
	if err := apiServer.ListenAndServe(cfg.Addr()); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// buildEmbedder wires the embedding gateway. With an API key the OpenAI
// backend is used; without one the deterministic local hash backend keeps
// the server fully functional offline.
func buildEmbedder(cfg config.AppConfig, logger *slog.Logger) (search.Embedder, string) {
	endpoint := cfg.Embedding()
	dimension := cfg.Index().Dimension()

	opts := []provider.GatewayOption{
		provider.WithBatchSize(cfg.Bulk().BatchSize()),
		provider.WithRolePrefixes(endpoint.UsePrefixes()),
	}

	if endpoint.IsConfigured() {
		backend := provider.NewOpenAIEmbedder(provider.OpenAIConfig{
			APIKey:        endpoint.APIKey(),
			BaseURL:       endpoint.BaseURL(),
			Model:         endpoint.Model(),
			Dimension:     dimension,
			Timeout:       endpoint.Timeout(),
			MaxRetries:    endpoint.MaxRetries(),
			InitialDelay:  endpoint.InitialDelay(),
			BackoffFactor: endpoint.BackoffFactor(),
			CacheDir:      endpoint.CacheDir(),
		})
		return provider.NewGateway(backend, opts...), endpoint.Model()
	}

	logger.Warn("no embedding API key configured, using local hash embedder")
	return provider.NewGateway(provider.NewHashEmbedder(dimension), opts...), fmt.Sprintf("hash-%d", dimension)
}

// applyServeOverrides applies command line flag overrides to the config.
func applyServeOverrides(cfg config.AppConfig, host string, port int) config.AppConfig {
	var opts []config.AppConfigOption

	if host != "" {
		opts = append(opts, config.WithHost(host))
	}
	if port != 0 {
		opts = append(opts, config.WithPort(port))
	}

	return cfg.Apply(opts...)
}
