package config

import (
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// envPrefix is the prefix for all environment variables.
const envPrefix = "GEOSEARCH"

// EnvConfig holds all environment-based configuration. Field names map to
// environment variables with the GEOSEARCH_ prefix, nested structs with an
// underscore delimiter (e.g. GEOSEARCH_EMBEDDING_API_KEY).
type EnvConfig struct {
	// Host is the server host to bind to.
	// Env: GEOSEARCH_HOST (default: 0.0.0.0)
	Host string `envconfig:"HOST" default:"0.0.0.0"`

	// Port is the server port to listen on.
	// Env: GEOSEARCH_PORT (default: 8080)
	Port int `envconfig:"PORT" default:"8080"`

	// DataDir is the data directory path.
	// Env: GEOSEARCH_DATA_DIR
	// Default: ~/.geosearch
	DataDir string `envconfig:"DATA_DIR"`

	// DBURL is the database connection URL.
	// Env: GEOSEARCH_DB_URL
	// Default: sqlite:///{data_dir}/geosearch.db
	DBURL string `envconfig:"DB_URL"`

	// LogLevel is the log verbosity level.
	// Env: GEOSEARCH_LOG_LEVEL (default: INFO)
	LogLevel string `envconfig:"LOG_LEVEL" default:"INFO"`

	// LogFormat is the log output format (pretty or json).
	// Env: GEOSEARCH_LOG_FORMAT (default: pretty)
	LogFormat string `envconfig:"LOG_FORMAT" default:"pretty"`

	// Embedding configures the embedding endpoint.
	Embedding EmbeddingEnv `envconfig:"EMBEDDING"`

	// Index configures the vector index.
	Index IndexEnv `envconfig:"INDEX"`

	// Search configures search limits and thresholds.
	Search SearchEnv `envconfig:"SEARCH"`

	// Bulk configures bulk ingestion.
	Bulk BulkEnv `envconfig:"BULK"`
}

// EmbeddingEnv holds environment configuration for the embedding endpoint.
type EmbeddingEnv struct {
	// BaseURL is the base URL for an OpenAI-compatible API.
	// Env: GEOSEARCH_EMBEDDING_BASE_URL
	BaseURL string `envconfig:"BASE_URL"`

	// Model is the embedding model identifier.
	// Env: GEOSEARCH_EMBEDDING_MODEL (default: text-embedding-3-small)
	Model string `envconfig:"MODEL" default:"text-embedding-3-small"`

	// APIKey is the API key. When empty, the deterministic local embedder
	// is used instead of the API.
	// Env: GEOSEARCH_EMBEDDING_API_KEY
	APIKey string `envconfig:"API_KEY"`

	// Timeout is the request timeout in seconds.
	// Env: GEOSEARCH_EMBEDDING_TIMEOUT (default: 60)
	Timeout float64 `envconfig:"TIMEOUT" default:"60"`

	// MaxRetries is the maximum number of retries.
	// Env: GEOSEARCH_EMBEDDING_MAX_RETRIES (default: 5)
	MaxRetries int `envconfig:"MAX_RETRIES" default:"5"`

	// InitialDelay is the initial retry delay in seconds.
	// Env: GEOSEARCH_EMBEDDING_INITIAL_DELAY (default: 2.0)
	InitialDelay float64 `envconfig:"INITIAL_DELAY" default:"2.0"`

	// BackoffFactor is the retry backoff multiplier.
	// Env: GEOSEARCH_EMBEDDING_BACKOFF_FACTOR (default: 2.0)
	BackoffFactor float64 `envconfig:"BACKOFF_FACTOR" default:"2.0"`

	// CacheDir caches embedding API responses on disk when set.
	// Env: GEOSEARCH_EMBEDDING_CACHE_DIR
	CacheDir string `envconfig:"CACHE_DIR"`

	// UsePrefixes applies E5-style "query: "/"passage: " role prefixes.
	// Env: GEOSEARCH_EMBEDDING_USE_PREFIXES (default: false)
	UsePrefixes bool `envconfig:"USE_PREFIXES" default:"false"`
}

// IndexEnv holds environment configuration for the vector index.
type IndexEnv struct {
	// Dimension is the vector dimensionality.
	// Env: GEOSEARCH_INDEX_DIMENSION (default: 384)
	Dimension int `envconfig:"DIMENSION" default:"384"`

	// TrainThreshold is the vector count that triggers quantizer training.
	// Env: GEOSEARCH_INDEX_TRAIN_THRESHOLD (default: 100)
	TrainThreshold int `envconfig:"TRAIN_THRESHOLD" default:"100"`

	// Centroids is the IVF centroid count.
	// Env: GEOSEARCH_INDEX_CENTROIDS (default: 100)
	Centroids int `envconfig:"CENTROIDS" default:"100"`

	// Probes is the number of inverted lists scanned per search.
	// Env: GEOSEARCH_INDEX_PROBES (default: 10)
	Probes int `envconfig:"PROBES" default:"10"`

	// SnapshotInterval is the insertions between automatic snapshots.
	// Env: GEOSEARCH_INDEX_SNAPSHOT_INTERVAL (default: 100)
	SnapshotInterval int `envconfig:"SNAPSHOT_INTERVAL" default:"100"`
}

// SearchEnv holds environment configuration for search behavior.
type SearchEnv struct {
	// DefaultLimit is the default result limit.
	// Env: GEOSEARCH_SEARCH_DEFAULT_LIMIT (default: 10)
	DefaultLimit int `envconfig:"DEFAULT_LIMIT" default:"10"`

	// MaxLimit is the maximum result limit.
	// Env: GEOSEARCH_SEARCH_MAX_LIMIT (default: 100)
	MaxLimit int `envconfig:"MAX_LIMIT" default:"100"`

	// DefaultRadiusKm is the default geographic search radius.
	// Env: GEOSEARCH_SEARCH_DEFAULT_RADIUS_KM (default: 1)
	DefaultRadiusKm float64 `envconfig:"DEFAULT_RADIUS_KM" default:"1"`

	// MaxRadiusKm is the maximum geographic search radius.
	// Env: GEOSEARCH_SEARCH_MAX_RADIUS_KM (default: 100)
	MaxRadiusKm float64 `envconfig:"MAX_RADIUS_KM" default:"100"`

	// SimilarityThreshold is the vector search score floor.
	// Env: GEOSEARCH_SEARCH_SIMILARITY_THRESHOLD (default: 0.5)
	SimilarityThreshold float64 `envconfig:"SIMILARITY_THRESHOLD" default:"0.5"`

	// UnifiedThreshold is the vector score floor for unified search.
	// Env: GEOSEARCH_SEARCH_UNIFIED_THRESHOLD (default: 0.3)
	UnifiedThreshold float64 `envconfig:"UNIFIED_THRESHOLD" default:"0.3"`
}

// BulkEnv holds environment configuration for bulk ingestion.
type BulkEnv struct {
	// MaxItems is the bulk request item cap.
	// Env: GEOSEARCH_BULK_MAX_ITEMS (default: 1000)
	MaxItems int `envconfig:"MAX_ITEMS" default:"1000"`

	// BatchSize is the embedding sub-batch size.
	// Env: GEOSEARCH_BULK_BATCH_SIZE (default: 32)
	BatchSize int `envconfig:"BATCH_SIZE" default:"32"`

	// WorkerCount is the embedding worker pool size.
	// Env: GEOSEARCH_BULK_WORKER_COUNT (default: 4)
	WorkerCount int `envconfig:"WORKER_COUNT" default:"4"`
}

// LoadFromEnv loads configuration from environment variables.
func LoadFromEnv() (EnvConfig, error) {
	var cfg EnvConfig
	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return EnvConfig{}, err
	}
	return cfg, nil
}

// ToAppConfig converts EnvConfig to AppConfig.
func (e EnvConfig) ToAppConfig() AppConfig {
	cfg := NewAppConfig()

	if e.Host != "" {
		cfg.host = e.Host
	}
	if e.Port != 0 {
		cfg.port = e.Port
	}
	if e.DataDir != "" {
		cfg.dataDir = e.DataDir
	}
	if e.DBURL != "" {
		cfg.dbURL = e.DBURL
	}
	if e.LogLevel != "" {
		cfg.logLevel = e.LogLevel
	}
	cfg.logFormat = parseLogFormat(e.LogFormat)

	cfg.embedding = Endpoint{
		baseURL:       e.Embedding.BaseURL,
		model:         e.Embedding.Model,
		apiKey:        e.Embedding.APIKey,
		timeout:       time.Duration(e.Embedding.Timeout * float64(time.Second)),
		maxRetries:    e.Embedding.MaxRetries,
		initialDelay:  time.Duration(e.Embedding.InitialDelay * float64(time.Second)),
		backoffFactor: e.Embedding.BackoffFactor,
		cacheDir:      e.Embedding.CacheDir,
		usePrefixes:   e.Embedding.UsePrefixes,
	}

	cfg.index = IndexConfig{
		dimension:        orDefault(e.Index.Dimension, DefaultDimension),
		trainThreshold:   orDefault(e.Index.TrainThreshold, DefaultTrainThreshold),
		centroids:        orDefault(e.Index.Centroids, DefaultCentroids),
		probes:           orDefault(e.Index.Probes, DefaultProbes),
		snapshotInterval: orDefault(e.Index.SnapshotInterval, DefaultSnapshotInterval),
	}

	cfg.search = SearchConfig{
		defaultLimit:        orDefault(e.Search.DefaultLimit, DefaultSearchLimit),
		maxLimit:            orDefault(e.Search.MaxLimit, MaxSearchLimit),
		defaultRadiusKm:     orDefaultFloat(e.Search.DefaultRadiusKm, DefaultRadiusKm),
		maxRadiusKm:         orDefaultFloat(e.Search.MaxRadiusKm, MaxRadiusKm),
		similarityThreshold: orDefaultFloat(e.Search.SimilarityThreshold, DefaultSimilarityThreshold),
		unifiedThreshold:    orDefaultFloat(e.Search.UnifiedThreshold, DefaultUnifiedThreshold),
	}

	cfg.bulk = BulkConfig{
		maxItems:    orDefault(e.Bulk.MaxItems, MaxBulkItems),
		batchSize:   orDefault(e.Bulk.BatchSize, DefaultBatchSize),
		workerCount: orDefault(e.Bulk.WorkerCount, DefaultWorkerCount),
	}

	return cfg
}

func orDefault(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}

func orDefaultFloat(v, def float64) float64 {
	if v > 0 {
		return v
	}
	return def
}

// parseLogFormat parses a log format string.
func parseLogFormat(s string) LogFormat {
	switch strings.ToLower(s) {
	case "json":
		return LogFormatJSON
	default:
		return LogFormatPretty
	}
}
