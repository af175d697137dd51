package config

import (
	"fmt"
	"time"

	"github.com/tendant/simple-embed/pkg/simpleembed/objectkey"
)

// WithPort sets the server port
func WithPort(port string) Option {
	return func(c *ServerConfig) error {
		if port == "" {
			return fmt.Errorf("port cannot be empty")
		}
		c.Port = port
		return nil
	}
}

// WithEnvironment sets the environment (development, production, testing)
func WithEnvironment(env string) Option {
	return func(c *ServerConfig) error {
		if env == "" {
			return fmt.Errorf("environment cannot be empty")
		}
		c.Environment = env
		return nil
	}
}

// WithDatabase configures the database backend
func WithDatabase(dbType, url string) Option {
	return func(c *ServerConfig) error {
		if dbType != "memory" && dbType != "postgres" {
			return fmt.Errorf("database type must be 'memory' or 'postgres', got: %s", dbType)
		}
		if dbType == "postgres" && url == "" {
			return fmt.Errorf("database URL is required for postgres")
		}
		c.DatabaseType = dbType
		c.DatabaseURL = url
		return nil
	}
}

// WithDatabaseSchema sets the database schema (for Postgres)
func WithDatabaseSchema(schema string) Option {
	return func(c *ServerConfig) error {
		c.DBSchema = schema
		return nil
	}
}

// WithAutoMigrate applies the repository schema when the service is built
func WithAutoMigrate(enabled bool) Option {
	return func(c *ServerConfig) error {
		c.AutoMigrate = enabled
		return nil
	}
}

// WithDefaultStorage sets the default storage backend name
func WithDefaultStorage(name string) Option {
	return func(c *ServerConfig) error {
		if name == "" {
			return fmt.Errorf("default storage backend name cannot be empty")
		}
		c.DefaultStorageBackend = name
		return nil
	}
}

// WithFilesystemStorage adds a filesystem storage backend
// If name is empty, defaults to "fs"
func WithFilesystemStorage(name, baseDir, urlPrefix string) Option {
	return func(c *ServerConfig) error {
		if name == "" {
			name = "fs"
		}
		if baseDir == "" {
			return fmt.Errorf("filesystem base directory cannot be empty")
		}

		backend := StorageBackendConfig{
			Name: name,
			Type: "fs",
			Config: map[string]interface{}{
				"base_dir": baseDir,
			},
		}
		if urlPrefix != "" {
			backend.Config["url_prefix"] = urlPrefix
		}

		c.StorageBackends = upsertStorageBackend(c.StorageBackends, backend)
		return nil
	}
}

// WithS3Storage adds an S3 storage backend
// If name is empty, defaults to "s3"
func WithS3Storage(name, bucket, region string) Option {
	return func(c *ServerConfig) error {
		if name == "" {
			name = "s3"
		}
		if bucket == "" {
			return fmt.Errorf("S3 bucket cannot be empty")
		}
		if region == "" {
			region = "us-east-1"
		}

		c.StorageBackends = upsertStorageBackend(c.StorageBackends, StorageBackendConfig{
			Name: name,
			Type: "s3",
			Config: map[string]interface{}{
				"bucket": bucket,
				"region": region,
			},
		})
		return nil
	}
}

// WithS3Credentials sets AWS credentials for S3 storage
func WithS3Credentials(name, accessKeyID, secretAccessKey string) Option {
	return s3Setting(name, map[string]interface{}{
		"access_key_id":     accessKeyID,
		"secret_access_key": secretAccessKey,
	})
}

// WithS3Endpoint sets a custom S3 endpoint (for MinIO, LocalStack, etc.)
func WithS3Endpoint(name, endpoint string, usePathStyle bool) Option {
	return s3Setting(name, map[string]interface{}{
		"endpoint":       endpoint,
		"use_path_style": usePathStyle,
	})
}

// s3Setting merges values into the named S3 backend, creating it if absent
func s3Setting(name string, values map[string]interface{}) Option {
	return func(c *ServerConfig) error {
		if name == "" {
			name = "s3"
		}
		for i := range c.StorageBackends {
			if c.StorageBackends[i].Name == name && c.StorageBackends[i].Type == "s3" {
				if c.StorageBackends[i].Config == nil {
					c.StorageBackends[i].Config = map[string]interface{}{}
				}
				for k, v := range values {
					c.StorageBackends[i].Config[k] = v
				}
				return nil
			}
		}
		backend := StorageBackendConfig{Name: name, Type: "s3", Config: map[string]interface{}{}}
		for k, v := range values {
			backend.Config[k] = v
		}
		c.StorageBackends = append(c.StorageBackends, backend)
		return nil
	}
}

// WithImageCaching enables storing photos and thumbnails as assets
func WithImageCaching(enabled bool) Option {
	return func(c *ServerConfig) error {
		c.Embed.CacheImageAsAsset = enabled
		return nil
	}
}

// WithAssetFolder overrides the per-kind asset folder
func WithAssetFolder(folder string) Option {
	return func(c *ServerConfig) error {
		c.Embed.Folder = folder
		return nil
	}
}

// WithAllowedTypes sets the embed type allow-list and turns validation on
func WithAllowedTypes(types ...string) Option {
	return func(c *ServerConfig) error {
		c.Embed.AllowedTypes = append([]string(nil), types...)
		c.Embed.Validate = len(types) > 0
		return nil
	}
}

// WithValidation toggles allow-list enforcement on save
func WithValidation(enabled bool) Option {
	return func(c *ServerConfig) error {
		c.Embed.Validate = enabled
		return nil
	}
}

// WithTemplate sets the default render template base name
func WithTemplate(name string) Option {
	return func(c *ServerConfig) error {
		if name == "" {
			return fmt.Errorf("template name cannot be empty")
		}
		c.Embed.Template = name
		return nil
	}
}

// WithTemplateDir loads custom render templates from dir
func WithTemplateDir(dir string) Option {
	return func(c *ServerConfig) error {
		c.Embed.TemplateDir = dir
		return nil
	}
}

// WithReuseExistingAsset reuses an asset with the same name and folder
func WithReuseExistingAsset(enabled bool) Option {
	return func(c *ServerConfig) error {
		c.Embed.ReuseExistingAsset = enabled
		return nil
	}
}

// WithFetcherRelay sets the metadata relay endpoint
func WithFetcherRelay(endpoint, apiKey string) Option {
	return func(c *ServerConfig) error {
		c.Embed.FetcherRelayURL = endpoint
		c.Embed.FetcherAPIKey = apiKey
		return nil
	}
}

// WithDownloadLimits bounds image downloads
func WithDownloadLimits(timeout time.Duration, maxBytes int64) Option {
	return func(c *ServerConfig) error {
		if timeout < 0 || maxBytes < 0 {
			return fmt.Errorf("download limits must not be negative")
		}
		c.Embed.DownloadTimeout = timeout
		c.Embed.DownloadMaxBytes = maxBytes
		return nil
	}
}

// WithObjectKeyStrategy selects the asset object key layout
func WithObjectKeyStrategy(name string) Option {
	return func(c *ServerConfig) error {
		if objectkey.NewByName(name) == nil {
			return fmt.Errorf("unknown object key strategy: %s", name)
		}
		c.Embed.ObjectKeyStrategy = name
		return nil
	}
}
