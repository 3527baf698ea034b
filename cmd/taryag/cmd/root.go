package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/mfenderov/taryag/internal/config"
	"github.com/mfenderov/taryag/internal/fetcher"
	"github.com/mfenderov/taryag/internal/query"
	"github.com/mfenderov/taryag/internal/storage"
	"github.com/mfenderov/taryag/internal/store"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	verbose bool
	cfg     config.Config
)

// GetConfig returns the loaded configuration.
func GetConfig() config.Config {
	return cfg
}

var rootCmd = &cobra.Command{
	Use:   "taryag",
	Short: "taryag: the 613 mitzvot in Hebrew and English",
	Long: `taryag downloads the 613 mitzvot of Sefer HaChinukh from the Sefaria texts API,
keeps them as JSON artifacts, and answers lookups and searches over them.

Commands:
  fetch     Download the whole corpus
  retry     Download the items that failed last time
  index     Rebuild the collection and index from per-record files
  get       Show one mitzvah
  search    Search English and Hebrew text
  category  List mitzvot in a category
  random    Show a random mitzvah
  stats     Corpus statistics
  export    Write a mitzvah as json, txt or md
  serve     Start the MCP server`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return cfg.Validate()
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig, initLogger)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
}

func initLogger() {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	slog.SetDefault(slog.New(handler))
}

func initConfig() {
	// Start with defaults
	cfg = config.Defaults()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath("./config")
		viper.AddConfigPath("/etc/taryag")
		viper.AddConfigPath(".")
	}

	// TARYAG_SOURCE_DELAY -> source.delay
	viper.SetEnvPrefix("TARYAG")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	for _, key := range []string{
		"source.base_url",
		"source.corpus",
		"source.count",
		"source.delay",
		"source.timeout",
		"source.user_agent",
		"storage.backend",
		"storage.dir",
		"storage.endpoint",
		"storage.bucket",
		"storage.prefix",
		"storage.access_key_id",
		"storage.secret_access_key",
		"storage.use_ssl",
		"mcp.name",
		"mcp.version",
	} {
		viper.BindEnv(key)
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Warn("config file error", "error", err)
		}
		// No config file - use defaults + env vars
	}

	// Unmarshal into struct (merges config file with defaults)
	if err := viper.Unmarshal(&cfg); err != nil {
		slog.Warn("failed to parse config", "error", err)
	}
}

// newBackend opens the configured artifact backend.
func newBackend(ctx context.Context, cfg config.Storage) (storage.Backend, error) {
	switch cfg.Backend {
	case config.BackendS3:
		s3, err := storage.NewS3(storage.S3Config{
			Endpoint:        cfg.Endpoint,
			Bucket:          cfg.Bucket,
			Prefix:          cfg.Prefix,
			AccessKeyID:     cfg.AccessKeyID,
			SecretAccessKey: cfg.SecretAccessKey,
			UseSSL:          cfg.UseSSL,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create storage client: %w", err)
		}
		if err := s3.EnsureBucket(ctx); err != nil {
			return nil, fmt.Errorf("failed to ensure bucket: %w", err)
		}
		return s3, nil
	default:
		fs, err := storage.NewFS(cfg.Dir)
		if err != nil {
			return nil, fmt.Errorf("failed to open data directory: %w", err)
		}
		return fs, nil
	}
}

func newStore(ctx context.Context) (*store.Store, error) {
	backend, err := newBackend(ctx, GetConfig().Storage)
	if err != nil {
		return nil, err
	}
	return store.New(backend), nil
}

func newFetcher() (*fetcher.Fetcher, error) {
	src := GetConfig().Source
	return fetcher.New(fetcher.Config{
		BaseURL:   src.BaseURL,
		Corpus:    src.Corpus,
		UserAgent: src.UserAgent,
		Timeout:   src.Timeout,
	})
}

// loadEngine builds a query engine from the stored collection. When no
// collection has been written yet, per-record files are used instead.
func loadEngine(ctx context.Context) (*query.Engine, error) {
	st, err := newStore(ctx)
	if err != nil {
		return nil, err
	}

	collection, found, err := st.LoadCollection(ctx)
	if err != nil {
		slog.Warn("failed to load collection", "location", st.Location(), "error", err)
	}
	if !found || err != nil {
		collection, err = st.LoadRecords(ctx)
		if err != nil {
			slog.Warn("failed to load records", "location", st.Location(), "error", err)
		}
	}
	if len(collection) == 0 {
		slog.Warn("no mitzvot loaded, run 'taryag fetch' first", "location", st.Location())
	}

	return query.New(collection, GetConfig().Source.Count), nil
}
