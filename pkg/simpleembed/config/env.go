package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// envConfig is the environment surface read by WithEnv. Unset variables
// leave the current value untouched.
//
// Server:
//
//	PORT, ENVIRONMENT
//
// Database:
//
//	DATABASE_URL - "memory" (default) or "postgres://..." / "postgresql://..."
//	DB_SCHEMA, DB_AUTO_MIGRATE
//
// Storage:
//
//	STORAGE_URL - "memory://", "file:///path/to/data" or
//	              "s3://bucket?region=us-east-1&endpoint=http://localhost:9000&path_style=true"
//	AWS_ACCESS_KEY_ID, AWS_SECRET_ACCESS_KEY, AWS_REGION
//
// Pipeline:
//
//	EMBED_CACHE_IMAGE_AS_ASSET, EMBED_FOLDER, EMBED_ALLOWED_TYPES (comma list),
//	EMBED_VALIDATE, EMBED_TEMPLATE, EMBED_TEMPLATE_DIR, EMBED_REUSE_EXISTING_ASSET,
//	EMBED_FETCHER_RELAY_URL, EMBED_FETCHER_API_KEY, EMBED_DOWNLOAD_TIMEOUT,
//	EMBED_DOWNLOAD_MAX_BYTES, EMBED_OBJECT_KEY_STRATEGY
type envConfig struct {
	Port        string `env:"PORT" env-description:"HTTP listen port"`
	Environment string `env:"ENVIRONMENT" env-description:"development, production or testing"`

	DatabaseURL string `env:"DATABASE_URL" env-description:"memory or postgres connection URL"`
	DBSchema    string `env:"DB_SCHEMA" env-description:"Postgres search_path schema"`
	AutoMigrate bool   `env:"DB_AUTO_MIGRATE" env-description:"apply the repository schema on startup"`

	StorageURL         string `env:"STORAGE_URL" env-description:"memory://, file:///path or s3://bucket"`
	AWSAccessKeyID     string `env:"AWS_ACCESS_KEY_ID"`
	AWSSecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY"`
	AWSRegion          string `env:"AWS_REGION"`

	CacheImageAsAsset  bool          `env:"EMBED_CACHE_IMAGE_AS_ASSET" env-description:"store photos and thumbnails as assets"`
	Folder             string        `env:"EMBED_FOLDER" env-description:"asset folder override"`
	AllowedTypes       []string      `env:"EMBED_ALLOWED_TYPES" env-separator:"," env-description:"allowed embed types"`
	Validate           bool          `env:"EMBED_VALIDATE" env-description:"enforce allowed types on save"`
	Template           string        `env:"EMBED_TEMPLATE" env-description:"default render template base name"`
	TemplateDir        string        `env:"EMBED_TEMPLATE_DIR" env-description:"directory of custom render templates"`
	ReuseExistingAsset bool          `env:"EMBED_REUSE_EXISTING_ASSET" env-description:"reuse assets with the same name and folder"`
	FetcherRelayURL    string        `env:"EMBED_FETCHER_RELAY_URL" env-description:"metadata relay endpoint"`
	FetcherAPIKey      string        `env:"EMBED_FETCHER_API_KEY" env-description:"metadata relay bearer token"`
	DownloadTimeout    time.Duration `env:"EMBED_DOWNLOAD_TIMEOUT" env-description:"image download timeout"`
	DownloadMaxBytes   int64         `env:"EMBED_DOWNLOAD_MAX_BYTES" env-description:"image download size limit"`
	ObjectKeyStrategy  string        `env:"EMBED_OBJECT_KEY_STRATEGY" env-description:"folder, git-like or git-like-3"`
}

// WithEnv applies environment variable overrides.
func WithEnv() Option {
	return func(c *ServerConfig) error {
		env := envFrom(c)
		if err := cleanenv.ReadEnv(&env); err != nil {
			return fmt.Errorf("failed to read environment: %w", err)
		}
		return env.apply(c)
	}
}

// WithConfigFile reads the same keys from a file, then from the
// environment. The format follows the extension: .env, .yaml, .json,
// .toml or .edn.
func WithConfigFile(path string) Option {
	return func(c *ServerConfig) error {
		env := envFrom(c)
		if err := cleanenv.ReadConfig(path, &env); err != nil {
			return fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		return env.apply(c)
	}
}

// envFrom seeds the environment surface with the current values.
func envFrom(c *ServerConfig) envConfig {
	return envConfig{
		Port:               c.Port,
		Environment:        c.Environment,
		DatabaseURL:        c.DatabaseURL,
		DBSchema:           c.DBSchema,
		AutoMigrate:        c.AutoMigrate,
		CacheImageAsAsset:  c.Embed.CacheImageAsAsset,
		Folder:             c.Embed.Folder,
		AllowedTypes:       c.Embed.AllowedTypes,
		Validate:           c.Embed.Validate,
		Template:           c.Embed.Template,
		TemplateDir:        c.Embed.TemplateDir,
		ReuseExistingAsset: c.Embed.ReuseExistingAsset,
		FetcherRelayURL:    c.Embed.FetcherRelayURL,
		FetcherAPIKey:      c.Embed.FetcherAPIKey,
		DownloadTimeout:    c.Embed.DownloadTimeout,
		DownloadMaxBytes:   c.Embed.DownloadMaxBytes,
		ObjectKeyStrategy:  c.Embed.ObjectKeyStrategy,
	}
}

// EnvUsage returns a description of the supported environment variables.
func EnvUsage() string {
	desc, err := cleanenv.GetDescription(&envConfig{}, nil)
	if err != nil {
		return ""
	}
	return desc
}

func (e envConfig) apply(c *ServerConfig) error {
	if e.Port != "" {
		c.Port = e.Port
	}
	if e.Environment != "" {
		c.Environment = e.Environment
	}
	if e.DBSchema != "" {
		c.DBSchema = e.DBSchema
	}
	c.AutoMigrate = e.AutoMigrate

	if err := applyDatabaseURL(e.DatabaseURL, c); err != nil {
		return err
	}
	if e.StorageURL != "" {
		if err := applyStorageURL(e, c); err != nil {
			return err
		}
	}

	c.Embed.CacheImageAsAsset = e.CacheImageAsAsset
	c.Embed.Validate = e.Validate
	c.Embed.ReuseExistingAsset = e.ReuseExistingAsset
	if e.Folder != "" {
		c.Embed.Folder = e.Folder
	}
	if e.AllowedTypes != nil {
		c.Embed.AllowedTypes = trimAll(e.AllowedTypes)
	}
	if e.Template != "" {
		c.Embed.Template = e.Template
	}
	if e.TemplateDir != "" {
		c.Embed.TemplateDir = e.TemplateDir
	}
	if e.FetcherRelayURL != "" {
		c.Embed.FetcherRelayURL = e.FetcherRelayURL
	}
	if e.FetcherAPIKey != "" {
		c.Embed.FetcherAPIKey = e.FetcherAPIKey
	}
	if e.DownloadTimeout > 0 {
		c.Embed.DownloadTimeout = e.DownloadTimeout
	}
	if e.DownloadMaxBytes > 0 {
		c.Embed.DownloadMaxBytes = e.DownloadMaxBytes
	}
	if e.ObjectKeyStrategy != "" {
		c.Embed.ObjectKeyStrategy = e.ObjectKeyStrategy
	}
	return nil
}

// applyDatabaseURL detects the database type from the URL
func applyDatabaseURL(dbURL string, c *ServerConfig) error {
	switch {
	case dbURL == "" || dbURL == "memory":
		c.DatabaseType = "memory"
		c.DatabaseURL = ""
	case strings.HasPrefix(dbURL, "postgresql://"), strings.HasPrefix(dbURL, "postgres://"):
		c.DatabaseType = "postgres"
		c.DatabaseURL = dbURL
	default:
		return fmt.Errorf("unsupported DATABASE_URL format: %s (use 'memory' or 'postgresql://...')", dbURL)
	}
	return nil
}

// applyStorageURL configures the default blob store from STORAGE_URL
func applyStorageURL(e envConfig, c *ServerConfig) error {
	if e.StorageURL == "memory" || e.StorageURL == "memory://" {
		c.DefaultStorageBackend = "memory"
		c.StorageBackends = upsertStorageBackend(c.StorageBackends, StorageBackendConfig{Name: "memory", Type: "memory"})
		return nil
	}

	u, err := url.Parse(e.StorageURL)
	if err != nil {
		return fmt.Errorf("invalid STORAGE_URL: %w", err)
	}

	switch u.Scheme {
	case "file":
		path := u.Path
		if u.Host != "" {
			// file://relative/dir
			path = u.Host + u.Path
		}
		if path == "" {
			return fmt.Errorf("filesystem path cannot be empty in STORAGE_URL")
		}
		c.DefaultStorageBackend = "fs"
		c.StorageBackends = upsertStorageBackend(c.StorageBackends, StorageBackendConfig{
			Name:   "fs",
			Type:   "fs",
			Config: map[string]interface{}{"base_dir": path},
		})

	case "s3":
		if u.Host == "" {
			return fmt.Errorf("S3 bucket name cannot be empty in STORAGE_URL")
		}
		q := u.Query()
		backend := StorageBackendConfig{
			Name: "s3",
			Type: "s3",
			Config: map[string]interface{}{
				"bucket": u.Host,
				"region": "us-east-1",
			},
		}
		if e.AWSRegion != "" {
			backend.Config["region"] = e.AWSRegion
		}
		if region := q.Get("region"); region != "" {
			backend.Config["region"] = region
		}
		if endpoint := q.Get("endpoint"); endpoint != "" {
			backend.Config["endpoint"] = endpoint
		}
		if pathStyle := q.Get("path_style"); pathStyle != "" {
			backend.Config["use_path_style"] = pathStyle
		}
		if create := q.Get("create_bucket"); create != "" {
			backend.Config["create_bucket_if_not_exist"] = create
		}
		if e.AWSAccessKeyID != "" {
			backend.Config["access_key_id"] = e.AWSAccessKeyID
		}
		if e.AWSSecretAccessKey != "" {
			backend.Config["secret_access_key"] = e.AWSSecretAccessKey
		}
		c.DefaultStorageBackend = "s3"
		c.StorageBackends = upsertStorageBackend(c.StorageBackends, backend)

	default:
		return fmt.Errorf("unsupported STORAGE_URL format: %s (use 'memory://', 'file://...', or 's3://...')", e.StorageURL)
	}
	return nil
}

func trimAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func upsertStorageBackend(backends []StorageBackendConfig, backend StorageBackendConfig) []StorageBackendConfig {
	if backend.Config == nil {
		backend.Config = map[string]interface{}{}
	}
	for i := range backends {
		if backends[i].Name == backend.Name {
			backends[i] = backend
			return backends
		}
	}
	return append(backends, backend)
}
