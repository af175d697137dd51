package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/tendant/simple-embed/pkg/simpleembed"
	"github.com/tendant/simple-embed/pkg/simpleembed/config"
	"github.com/tendant/simple-embed/pkg/simpleembed/fetcher"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	rootCmd := NewRootCommand(serviceFromFlags)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// ServiceFactory builds the service used by a command invocation.
type ServiceFactory func(cmd *cobra.Command) (simpleembed.Service, error)

func NewRootCommand(factory ServiceFactory) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "embedctl",
		Short: "Manage oEmbed records from the command line",
		Long: `embedctl fetches provider metadata for URLs, stores embed records and
renders their display markup using the simple-embed service directly.

Configuration is read from the same environment variables as the server
(DATABASE_URL, STORAGE_URL, EMBED_*). Uses in-memory storage by default.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (.env, .yaml, .json or .toml)")
	rootCmd.PersistentFlags().String("metadata", "", "JSON file mapping URLs to provider records, used instead of the relay")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output")

	rootCmd.AddCommand(NewAddCommand(factory))
	rootCmd.AddCommand(NewShowCommand(factory))
	rootCmd.AddCommand(NewRenderCommand(factory))
	rootCmd.AddCommand(NewListCommand(factory))
	rootCmd.AddCommand(NewValidateCommand(factory))
	rootCmd.AddCommand(NewEnvCommand())

	return rootCmd
}

// serviceFromFlags loads configuration and builds the service
func serviceFromFlags(cmd *cobra.Command) (simpleembed.Service, error) {
	verbose, _ := cmd.Flags().GetBool("verbose")
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

	opts := []config.Option{config.WithEnv()}
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		opts = append(opts, config.WithConfigFile(path))
	}
	cfg, err := config.Load(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	var extra []simpleembed.Option
	if path, _ := cmd.Flags().GetString("metadata"); path != "" {
		static, err := loadStaticFetcher(path)
		if err != nil {
			return nil, err
		}
		extra = append(extra, simpleembed.WithFetcher(static))
	}

	logger.Debug("Building service", "database", cfg.DatabaseType, "storage", cfg.DefaultStorageBackend)
	return cfg.BuildService(logger, extra...)
}

func loadStaticFetcher(path string) (*fetcher.Static, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read metadata file: %w", err)
	}
	var records map[string]simpleembed.RawMetadata
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to parse metadata file: %w", err)
	}
	return fetcher.NewStatic(records), nil
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
