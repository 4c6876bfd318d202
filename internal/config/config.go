// Package config provides application configuration.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Default configuration values.
const (
	DefaultHost     = "0.0.0.0"
	DefaultPort     = 8080
	DefaultLogLevel = "INFO"

	DefaultDimension        = 384
	DefaultTrainThreshold   = 100
	DefaultCentroids        = 100
	DefaultProbes           = 10
	DefaultSnapshotInterval = 100

	DefaultSearchLimit         = 10
	MaxSearchLimit             = 100
	DefaultRadiusKm            = 1.0
	MaxRadiusKm                = 100.0
	MinRadiusKm                = 0.001
	DefaultSimilarityThreshold = 0.5
	DefaultUnifiedThreshold    = 0.3

	DefaultBatchSize   = 32
	MaxBulkItems       = 1000
	DefaultWorkerCount = 4

	DefaultEndpointTimeout       = 60 * time.Second
	DefaultEndpointMaxRetries    = 5
	DefaultEndpointInitialDelay  = 2 * time.Second
	DefaultEndpointBackoffFactor = 2.0
)

// LogFormat represents the log output format.
type LogFormat string

// LogFormat values.
const (
	LogFormatPretty LogFormat = "pretty"
	LogFormatJSON   LogFormat = "json"
)

// Endpoint configures the embedding AI endpoint.
type Endpoint struct {
	baseURL       string
	model         string
	apiKey        string
	timeout       time.Duration
	maxRetries    int
	initialDelay  time.Duration
	backoffFactor float64
	cacheDir      string
	usePrefixes   bool
}

// NewEndpoint creates a new Endpoint with defaults.
func NewEndpoint() Endpoint {
	return Endpoint{
		model:         "text-embedding-3-small",
		timeout:       DefaultEndpointTimeout,
		maxRetries:    DefaultEndpointMaxRetries,
		initialDelay:  DefaultEndpointInitialDelay,
		backoffFactor: DefaultEndpointBackoffFactor,
	}
}

// BaseURL returns the base URL for the endpoint.
func (e Endpoint) BaseURL() string { return e.baseURL }

// Model returns the model identifier.
func (e Endpoint) Model() string { return e.model }

// APIKey returns the API key.
func (e Endpoint) APIKey() string { return e.apiKey }

// Timeout returns the request timeout.
func (e Endpoint) Timeout() time.Duration { return e.timeout }

// MaxRetries returns the maximum retry count.
func (e Endpoint) MaxRetries() int { return e.maxRetries }

// InitialDelay returns the initial retry delay.
func (e Endpoint) InitialDelay() time.Duration { return e.initialDelay }

// BackoffFactor returns the retry backoff multiplier.
func (e Endpoint) BackoffFactor() float64 { return e.backoffFactor }

// CacheDir returns the HTTP response cache directory, empty when disabled.
func (e Endpoint) CacheDir() string { return e.cacheDir }

// UsePrefixes returns whether E5-style role prefixes are applied.
func (e Endpoint) UsePrefixes() bool { return e.usePrefixes }

// IsConfigured returns true when an API key is present.
func (e Endpoint) IsConfigured() bool { return e.apiKey != "" }

// IndexConfig configures the vector index.
type IndexConfig struct {
	dimension        int
	trainThreshold   int
	centroids        int
	probes           int
	snapshotInterval int
}

// NewIndexConfig creates an IndexConfig with defaults.
func NewIndexConfig() IndexConfig {
	return IndexConfig{
		dimension:        DefaultDimension,
		trainThreshold:   DefaultTrainThreshold,
		centroids:        DefaultCentroids,
		probes:           DefaultProbes,
		snapshotInterval: DefaultSnapshotInterval,
	}
}

// Dimension returns the vector dimensionality.
func (c IndexConfig) Dimension() int { return c.dimension }

// TrainThreshold returns the count that triggers quantizer training.
func (c IndexConfig) TrainThreshold() int { return c.trainThreshold }

// Centroids returns the IVF centroid count.
func (c IndexConfig) Centroids() int { return c.centroids }

// Probes returns the inverted lists scanned per search.
func (c IndexConfig) Probes() int { return c.probes }

// SnapshotInterval returns the insertions between automatic snapshots.
func (c IndexConfig) SnapshotInterval() int { return c.snapshotInterval }

// SearchConfig configures search behavior.
type SearchConfig struct {
	defaultLimit        int
	maxLimit            int
	defaultRadiusKm     float64
	maxRadiusKm         float64
	similarityThreshold float64
	unifiedThreshold    float64
}

// NewSearchConfig creates a SearchConfig with defaults.
func NewSearchConfig() SearchConfig {
	return SearchConfig{
		defaultLimit:        DefaultSearchLimit,
		maxLimit:            MaxSearchLimit,
		defaultRadiusKm:     DefaultRadiusKm,
		maxRadiusKm:         MaxRadiusKm,
		similarityThreshold: DefaultSimilarityThreshold,
		unifiedThreshold:    DefaultUnifiedThreshold,
	}
}

// DefaultLimit returns the default result limit.
func (c SearchConfig) DefaultLimit() int { return c.defaultLimit }

// MaxLimit returns the maximum result limit.
func (c SearchConfig) MaxLimit() int { return c.maxLimit }

// DefaultRadiusKm returns the default geographic search radius.
func (c SearchConfig) DefaultRadiusKm() float64 { return c.defaultRadiusKm }

// MaxRadiusKm returns the maximum geographic search radius.
func (c SearchConfig) MaxRadiusKm() float64 { return c.maxRadiusKm }

// SimilarityThreshold returns the vector search score floor.
func (c SearchConfig) SimilarityThreshold() float64 { return c.similarityThreshold }

// UnifiedThreshold returns the vector score floor used by unified search.
func (c SearchConfig) UnifiedThreshold() float64 { return c.unifiedThreshold }

// BulkConfig configures bulk ingestion.
type BulkConfig struct {
	maxItems    int
	batchSize   int
	workerCount int
}

// NewBulkConfig creates a BulkConfig with defaults.
func NewBulkConfig() BulkConfig {
	return BulkConfig{
		maxItems:    MaxBulkItems,
		batchSize:   DefaultBatchSize,
		workerCount: DefaultWorkerCount,
	}
}

// MaxItems returns the bulk request item cap.
func (c BulkConfig) MaxItems() int { return c.maxItems }

// BatchSize returns the embedding sub-batch size.
func (c BulkConfig) BatchSize() int { return c.batchSize }

// WorkerCount returns the embedding worker pool size.
func (c BulkConfig) WorkerCount() int { return c.workerCount }

// AppConfig is the full application configuration.
type AppConfig struct {
	host      string
	port      int
	dataDir   string
	dbURL     string
	logLevel  string
	logFormat LogFormat
	embedding Endpoint
	index     IndexConfig
	search    SearchConfig
	bulk      BulkConfig
}

// NewAppConfig creates an AppConfig with all defaults applied. The data
// directory defaults to ~/.geosearch.
func NewAppConfig() AppConfig {
	return AppConfig{
		host:      DefaultHost,
		port:      DefaultPort,
		dataDir:   defaultDataDir(),
		logLevel:  DefaultLogLevel,
		logFormat: LogFormatPretty,
		embedding: NewEndpoint(),
		index:     NewIndexConfig(),
		search:    NewSearchConfig(),
		bulk:      NewBulkConfig(),
	}
}

// Host returns the server bind host.
func (c AppConfig) Host() string { return c.host }

// Port returns the server port.
func (c AppConfig) Port() int { return c.port }

// Addr returns the host:port listen address.
func (c AppConfig) Addr() string { return fmt.Sprintf("%s:%d", c.host, c.port) }

// DataDir returns the data directory path.
func (c AppConfig) DataDir() string { return c.dataDir }

// DBURL returns the database connection URL. When unset it defaults to an
// SQLite file under the data directory.
func (c AppConfig) DBURL() string {
	if c.dbURL != "" {
		return c.dbURL
	}
	return "sqlite:///" + filepath.Join(c.dataDir, "geosearch.db")
}

// IndexPath returns the vector index snapshot path.
func (c AppConfig) IndexPath() string {
	return filepath.Join(c.dataDir, "vector_index.gob")
}

// IndexMetaPath returns the vector index ID mapping snapshot path.
func (c AppConfig) IndexMetaPath() string {
	return filepath.Join(c.dataDir, "vector_index_meta.gob")
}

// LogLevel returns the configured log level string.
func (c AppConfig) LogLevel() string { return c.logLevel }

// SlogLevel parses the configured level into a slog.Level, defaulting to
// Info on unknown values.
func (c AppConfig) SlogLevel() slog.Level {
	switch strings.ToUpper(c.logLevel) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// LogFormat returns the log output format.
func (c AppConfig) LogFormat() LogFormat { return c.logFormat }

// Embedding returns the embedding endpoint configuration.
func (c AppConfig) Embedding() Endpoint { return c.embedding }

// Index returns the vector index configuration.
func (c AppConfig) Index() IndexConfig { return c.index }

// Search returns the search configuration.
func (c AppConfig) Search() SearchConfig { return c.search }

// Bulk returns the bulk ingestion configuration.
func (c AppConfig) Bulk() BulkConfig { return c.bulk }

// EnsureDataDir creates the data directory if it does not exist.
func (c AppConfig) EnsureDataDir() error {
	if err := os.MkdirAll(c.dataDir, 0o755); err != nil {
		return fmt.Errorf("create data dir %s: %w", c.dataDir, err)
	}
	return nil
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".geosearch"
	}
	return filepath.Join(home, ".geosearch")
}

// AppConfigOption overrides a single AppConfig field.
type AppConfigOption func(*AppConfig)

// WithHost overrides the bind host.
func WithHost(host string) AppConfigOption {
	return func(c *AppConfig) { c.host = host }
}

// WithPort overrides the listen port.
func WithPort(port int) AppConfigOption {
	return func(c *AppConfig) { c.port = port }
}

// Apply returns a copy of the config with the given overrides applied.
func (c AppConfig) Apply(opts ...AppConfigOption) AppConfig {
	for _, opt := range opts {
		opt(&c)
	}
	return c
}
