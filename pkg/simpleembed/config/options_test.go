package config

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-embed/pkg/simpleembed"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "memory", cfg.DatabaseType)
	assert.Equal(t, "memory", cfg.DefaultStorageBackend)
	assert.Equal(t, simpleembed.DefaultTemplate, cfg.Embed.Template)
	assert.Equal(t, "folder", cfg.Embed.ObjectKeyStrategy)
	assert.False(t, cfg.Embed.CacheImageAsAsset)
}

func TestOptions(t *testing.T) {
	tests := []struct {
		name    string
		opts    []Option
		check   func(t *testing.T, cfg *ServerConfig)
		wantErr bool
	}{
		{
			name: "port",
			opts: []Option{WithPort("9000")},
			check: func(t *testing.T, cfg *ServerConfig) {
				assert.Equal(t, "9000", cfg.Port)
			},
		},
		{name: "empty port", opts: []Option{WithPort("")}, wantErr: true},
		{name: "bad database type", opts: []Option{WithDatabase("mysql", "x")}, wantErr: true},
		{name: "postgres without url", opts: []Option{WithDatabase("postgres", "")}, wantErr: true},
		{
			name: "filesystem default storage",
			opts: []Option{WithFilesystemStorage("", "/tmp/assets", ""), WithDefaultStorage("fs")},
			check: func(t *testing.T, cfg *ServerConfig) {
				backend, ok := cfg.storageBackend("fs")
				require.True(t, ok)
				assert.Equal(t, "/tmp/assets", backend.Config["base_dir"])
			},
		},
		{name: "unknown default storage", opts: []Option{WithDefaultStorage("nope")}, wantErr: true},
		{
			name: "s3 settings merge",
			opts: []Option{
				WithS3Storage("", "media", ""),
				WithS3Credentials("", "key", "secret"),
				WithS3Endpoint("", "http://localhost:9000", true),
			},
			check: func(t *testing.T, cfg *ServerConfig) {
				backend, ok := cfg.storageBackend("s3")
				require.True(t, ok)
				assert.Equal(t, "media", backend.Config["bucket"])
				assert.Equal(t, "us-east-1", backend.Config["region"])
				assert.Equal(t, "key", backend.Config["access_key_id"])
				assert.Equal(t, true, backend.Config["use_path_style"])
			},
		},
		{
			name: "allowed types enable validation",
			opts: []Option{WithAllowedTypes("video")},
			check: func(t *testing.T, cfg *ServerConfig) {
				assert.Equal(t, []string{"video"}, cfg.Embed.AllowedTypes)
				assert.True(t, cfg.Embed.Validate)
			},
		},
		{
			name: "pipeline settings",
			opts: []Option{
				WithImageCaching(true),
				WithAssetFolder("Thumbs"),
				WithReuseExistingAsset(true),
				WithDownloadLimits(time.Second, 10),
				WithObjectKeyStrategy("git-like-3"),
			},
			check: func(t *testing.T, cfg *ServerConfig) {
				s := cfg.Embed.Settings()
				assert.True(t, s.CacheImageAsAsset)
				assert.Equal(t, "Thumbs", s.Folder)
				assert.True(t, s.ReuseExistingAsset)
				assert.Equal(t, time.Second, cfg.Embed.DownloadTimeout)
				assert.Equal(t, "git-like-3", cfg.Embed.ObjectKeyStrategy)
			},
		},
		{name: "unknown key strategy", opts: []Option{WithObjectKeyStrategy("random")}, wantErr: true},
		{name: "empty template", opts: []Option{WithTemplate("")}, wantErr: true},
		{name: "negative limits", opts: []Option{WithDownloadLimits(-1, 0)}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(tt.opts...)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			tt.check(t, cfg)
		})
	}
}

func TestBuildService(t *testing.T) {
	cfg, err := Load(
		WithImageCaching(true),
		WithFilesystemStorage("", t.TempDir(), ""),
		WithDefaultStorage("fs"),
	)
	require.NoError(t, err)

	svc, err := cfg.BuildService(nil)
	require.NoError(t, err)

	ctx := context.Background()
	list, err := svc.ListEmbeds(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.Equal(t, "Video", svc.Profile(simpleembed.KindVideo).Folder)
}

func TestBuildService_TemplateDir(t *testing.T) {
	cfg, err := Load(WithTemplateDir(t.TempDir()))
	require.NoError(t, err)
	_, err = cfg.BuildService(nil)
	assert.NoError(t, err)
}

func TestBuildFetcher(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	f, err := cfg.BuildFetcher()
	require.NoError(t, err)
	assert.Nil(t, f)

	cfg, err = Load(WithFetcherRelay("http://relay.local/oembed", "key"))
	require.NoError(t, err)
	f, err = cfg.BuildFetcher()
	require.NoError(t, err)
	assert.NotNil(t, f)
}
