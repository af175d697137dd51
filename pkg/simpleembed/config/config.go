package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tendant/simple-embed/pkg/simpleembed"
	"github.com/tendant/simple-embed/pkg/simpleembed/assetstore"
	"github.com/tendant/simple-embed/pkg/simpleembed/download"
	"github.com/tendant/simple-embed/pkg/simpleembed/fetcher"
	"github.com/tendant/simple-embed/pkg/simpleembed/objectkey"
	"github.com/tendant/simple-embed/pkg/simpleembed/repo/memory"
	repopg "github.com/tendant/simple-embed/pkg/simpleembed/repo/postgres"
	"github.com/tendant/simple-embed/pkg/simpleembed/sniff"
	fsstorage "github.com/tendant/simple-embed/pkg/simpleembed/storage/fs"
	memorystorage "github.com/tendant/simple-embed/pkg/simpleembed/storage/memory"
	s3storage "github.com/tendant/simple-embed/pkg/simpleembed/storage/s3"
	"github.com/tendant/simple-embed/pkg/simpleembed/templates"
)

// Option applies configuration to a ServerConfig instance.
type Option func(*ServerConfig) error

// Load constructs a ServerConfig by applying the supplied options on top of library defaults.
func Load(opts ...Option) (*ServerConfig, error) {
	cfg := defaults()

	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func defaults() ServerConfig {
	return ServerConfig{
		Port:                  "8080",
		Environment:           "development",
		DatabaseType:          "memory",
		DBSchema:              "embed",
		DefaultStorageBackend: "memory",
		StorageBackends: []StorageBackendConfig{
			{
				Name:   "memory",
				Type:   "memory",
				Config: map[string]interface{}{},
			},
		},
		Embed: EmbedConfig{
			Template:          simpleembed.DefaultTemplate,
			ObjectKeyStrategy: "folder",
			DownloadTimeout:   download.DefaultTimeout,
			DownloadMaxBytes:  download.DefaultMaxBytes,
		},
	}
}

// ServerConfig represents server configuration for the simple-embed service
type ServerConfig struct {
	Port        string
	Environment string // development, production, testing

	// Database configuration
	DatabaseURL  string
	DatabaseType string // "memory", "postgres"
	DBSchema     string // Postgres schema to use (default: embed)
	AutoMigrate  bool   // Apply the repository schema on startup

	// Storage configuration
	DefaultStorageBackend string
	StorageBackends       []StorageBackendConfig

	Embed EmbedConfig
}

// EmbedConfig holds the pipeline settings.
type EmbedConfig struct {
	CacheImageAsAsset  bool
	Folder             string
	AllowedTypes       []string
	Validate           bool
	Template           string
	TemplateDir        string
	ReuseExistingAsset bool
	FetcherRelayURL    string
	FetcherAPIKey      string
	DownloadTimeout    time.Duration
	DownloadMaxBytes   int64
	ObjectKeyStrategy  string // "folder", "git-like", "git-like-3"
}

// Settings converts the pipeline configuration to service settings.
func (e EmbedConfig) Settings() simpleembed.Settings {
	return simpleembed.Settings{
		CacheImageAsAsset:  e.CacheImageAsAsset,
		Folder:             e.Folder,
		AllowedTypes:       e.AllowedTypes,
		ValidateEmbed:      e.Validate,
		Template:           e.Template,
		ReuseExistingAsset: e.ReuseExistingAsset,
	}
}

// StorageBackendConfig represents configuration for a storage backend
type StorageBackendConfig struct {
	Name   string
	Type   string // "memory", "fs", "s3"
	Config map[string]interface{}
}

// Validate validates the server configuration
func (c *ServerConfig) Validate() error {
	if c.Port == "" {
		return errors.New("port is required")
	}

	if c.DatabaseType != "memory" && c.DatabaseType != "postgres" {
		return errors.New("database_type must be 'memory' or 'postgres'")
	}

	if c.DatabaseType == "postgres" && c.DatabaseURL == "" {
		return errors.New("database_url is required when using postgres")
	}

	if _, ok := c.storageBackend(c.DefaultStorageBackend); !ok {
		return fmt.Errorf("default storage backend '%s' not found in configured backends", c.DefaultStorageBackend)
	}

	if objectkey.NewByName(c.Embed.ObjectKeyStrategy) == nil {
		return fmt.Errorf("unknown object key strategy '%s'", c.Embed.ObjectKeyStrategy)
	}

	for _, t := range c.Embed.AllowedTypes {
		if strings.TrimSpace(t) == "" {
			return errors.New("allowed types must not contain empty entries")
		}
	}

	return nil
}

func (c *ServerConfig) storageBackend(name string) (StorageBackendConfig, bool) {
	for _, backend := range c.StorageBackends {
		if backend.Name == name {
			return backend, true
		}
	}
	return StorageBackendConfig{}, false
}

// BuildService creates a Service instance from the server configuration.
// Extra options are applied last and override the configured components.
func (c *ServerConfig) BuildService(logger *slog.Logger, extra ...simpleembed.Option) (simpleembed.Service, error) {
	if logger == nil {
		logger = slog.Default()
	}

	repo, err := c.buildRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to build repository: %w", err)
	}

	backendConfig, _ := c.storageBackend(c.DefaultStorageBackend)
	blobs, err := c.buildStorageBackend(backendConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to build storage backend %s: %w", backendConfig.Name, err)
	}

	assets, err := assetstore.New(repo, blobs,
		assetstore.WithKeyGenerator(objectkey.NewByName(c.Embed.ObjectKeyStrategy)),
		assetstore.WithLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build asset store: %w", err)
	}

	options := []simpleembed.Option{
		simpleembed.WithRepository(repo),
		simpleembed.WithAssetStore(assets),
		simpleembed.WithDownloader(download.New(download.Config{
			MaxBytes: c.Embed.DownloadMaxBytes,
		})),
		simpleembed.WithSniffer(sniff.New()),
		simpleembed.WithSettings(c.Embed.Settings()),
		simpleembed.WithLogger(logger),
	}

	f, err := c.BuildFetcher()
	if err != nil {
		return nil, err
	}
	if f != nil {
		options = append(options, simpleembed.WithFetcher(f))
	} else {
		logger.Warn("No metadata fetcher configured, source URL changes will fail to save")
	}

	if c.Embed.TemplateDir != "" {
		registry, err := templates.Load(os.DirFS(c.Embed.TemplateDir))
		if err != nil {
			return nil, err
		}
		options = append(options, simpleembed.WithTemplates(registry))
	}

	return simpleembed.New(append(options, extra...)...)
}

// BuildFetcher returns the configured relay fetcher, or nil when no relay
// URL is set.
func (c *ServerConfig) BuildFetcher() (simpleembed.Fetcher, error) {
	if c.Embed.FetcherRelayURL == "" {
		return nil, nil
	}
	relay, err := fetcher.NewRelay(fetcher.RelayConfig{
		Endpoint: c.Embed.FetcherRelayURL,
		APIKey:   c.Embed.FetcherAPIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build fetcher: %w", err)
	}
	return relay, nil
}

// buildRepository creates a Repository based on the configuration
func (c *ServerConfig) buildRepository() (simpleembed.Repository, error) {
	switch c.DatabaseType {
	case "memory":
		return memory.New(), nil
	case "postgres":
		pool, err := c.newPool(context.Background())
		if err != nil {
			return nil, err
		}
		if c.AutoMigrate {
			if err := repopg.EnsureSchema(context.Background(), pool); err != nil {
				pool.Close()
				return nil, err
			}
		}
		return repopg.NewWithPool(pool), nil
	default:
		return nil, fmt.Errorf("unsupported database type: %s", c.DatabaseType)
	}
}

func (c *ServerConfig) newPool(ctx context.Context) (*pgxpool.Pool, error) {
	if c.DatabaseURL == "" {
		return nil, errors.New("database_url is required for postgres")
	}
	cfg, err := pgxpool.ParseConfig(c.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DATABASE_URL: %w", err)
	}
	schema := c.DBSchema
	cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		if schema == "" {
			return nil
		}
		_, err := conn.Exec(ctx, fmt.Sprintf("SET search_path TO %s", pgx.Identifier{schema}.Sanitize()))
		return err
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create pgx pool: %w", err)
	}
	return pool, nil
}

// PingPostgres verifies connectivity to Postgres with the configured search_path.
func (c *ServerConfig) PingPostgres(ctx context.Context) error {
	pool, err := c.newPool(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	return nil
}

// buildStorageBackend creates a BlobStore based on the backend configuration
func (c *ServerConfig) buildStorageBackend(config StorageBackendConfig) (simpleembed.BlobStore, error) {
	switch config.Type {
	case "memory":
		return memorystorage.New(), nil

	case "fs":
		return fsstorage.New(fsstorage.Config{
			BaseDir:   getString(config.Config, "base_dir", "./data/assets"),
			URLPrefix: getString(config.Config, "url_prefix", ""),
		})

	case "s3":
		return s3storage.New(s3storage.Config{
			Region:                 getString(config.Config, "region", "us-east-1"),
			Bucket:                 getString(config.Config, "bucket", ""),
			AccessKeyID:            getString(config.Config, "access_key_id", ""),
			SecretAccessKey:        getString(config.Config, "secret_access_key", ""),
			Endpoint:               getString(config.Config, "endpoint", ""),
			UsePathStyle:           getBool(config.Config, "use_path_style", false),
			PresignDuration:        getInt(config.Config, "presign_duration", 3600),
			EnableSSE:              getBool(config.Config, "enable_sse", false),
			SSEAlgorithm:           getString(config.Config, "sse_algorithm", "AES256"),
			SSEKMSKeyID:            getString(config.Config, "sse_kms_key_id", ""),
			CreateBucketIfNotExist: getBool(config.Config, "create_bucket_if_not_exist", false),
		})

	default:
		return nil, fmt.Errorf("unsupported storage backend type: %s", config.Type)
	}
}

func getString(config map[string]interface{}, key string, defaultValue string) string {
	if value, exists := config[key]; exists {
		if str, ok := value.(string); ok {
			return str
		}
	}
	return defaultValue
}

func getBool(config map[string]interface{}, key string, defaultValue bool) bool {
	if value, exists := config[key]; exists {
		if b, ok := value.(bool); ok {
			return b
		}
		if str, ok := value.(string); ok {
			if b, err := strconv.ParseBool(str); err == nil {
				return b
			}
		}
	}
	return defaultValue
}

func getInt(config map[string]interface{}, key string, defaultValue int) int {
	if value, exists := config[key]; exists {
		switch v := value.(type) {
		case int:
			return v
		case float64:
			return int(v)
		case string:
			if i, err := strconv.Atoi(v); err == nil {
				return i
			}
		}
	}
	return defaultValue
}
