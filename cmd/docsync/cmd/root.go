// Package cmd provides the CLI commands for docsync.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dshills/docsync/internal/config"
	"github.com/dshills/docsync/internal/embedder"
	"github.com/dshills/docsync/internal/indexer"
	"github.com/dshills/docsync/internal/logging"
	"github.com/dshills/docsync/internal/source"
	"github.com/dshills/docsync/internal/storage"
	"github.com/dshills/docsync/pkg/types"
)

// Persistent flags
var (
	configPath     string
	debugMode      bool
	loggingCleanup func()
)

// NewRootCmd creates the root command for the docsync CLI.
func NewRootCmd() *cobra.Command {
	var refresh bool

	cmd := &cobra.Command{
		Use:   "docsync",
		Short: "Sync markdown documentation into a searchable embedding store",
		Long: `docsync walks a tree of markdown documents, splits each one into
heading-delimited sections and stores the sections with their vector
embeddings.

Unchanged documents are skipped by checksum. Pages whose sections failed
to store are retried on the next run.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSync(cmd.Context(), cmd, refresh)
		},
	}

	cmd.SetVersionTemplate("docsync version {{.Version}}\n")

	cmd.Flags().BoolVarP(&refresh, "refresh", "r", false, "Regenerate every page, ignoring checksums")

	cmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ./"+config.DefaultConfigFileName+")")
	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging")

	cmd.PersistentPostRunE = stopLogging

	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// Execute runs the root command until it finishes or the process is interrupted.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := NewRootCmd().ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	return err
}

// loadConfig reads the configuration and installs the logger it describes
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	logCfg := logging.Config{
		Level:         cfg.Logging.Level,
		FilePath:      cfg.Logging.File,
		MaxSizeMB:     cfg.Logging.MaxSizeMB,
		MaxFiles:      cfg.Logging.MaxFiles,
		WriteToStderr: true,
	}
	if debugMode {
		logCfg.Level = "debug"
	}

	logger, cleanup, err := logging.Setup(logCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to setup logging: %w", err)
	}
	stopLogging(nil, nil)
	loggingCleanup = cleanup
	slog.SetDefault(logger)

	return cfg, nil
}

func stopLogging(_ *cobra.Command, _ []string) error {
	if loggingCleanup != nil {
		loggingCleanup()
		loggingCleanup = nil
	}
	return nil
}

// runSync performs one sync of the configured documentation tree.
// Missing credentials make the run a no-op rather than a failure.
func runSync(ctx context.Context, cmd *cobra.Command, refresh bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		var cfgErr *types.ConfigurationError
		if errors.As(err, &cfgErr) {
			slog.Warn(fmt.Sprintf("%s: skipping embeddings generation", cfgErr))
			return nil
		}
		return err
	}

	deps, err := openDeps(ctx, cfg)
	if err != nil {
		return err
	}
	defer deps.Close()

	sources, err := source.Discover(ctx, cfg.DocsDir, discoverOptions(cfg))
	if err != nil {
		return fmt.Errorf("failed to discover documents: %w", err)
	}

	stats := deps.indexer.Sync(ctx, sources, &indexer.Options{Refresh: refresh})

	_, err = fmt.Fprintf(cmd.OutOrStdout(),
		"%d pages: %d unchanged, %d parent updated, %d regenerated, %d failed (%d sections, %d tokens, %s)\n",
		stats.Pages, stats.Unchanged, stats.ParentUpdated, stats.Regenerated, stats.Failed,
		stats.SectionsWritten, stats.TokensUsed, stats.Duration.Round(time.Millisecond))
	return err
}

// syncDeps holds the long-lived collaborators of a sync
type syncDeps struct {
	store    storage.Storage
	embedder embedder.Embedder
	indexer  *indexer.Indexer
}

func openDeps(ctx context.Context, cfg *config.Config) (*syncDeps, error) {
	store, err := storage.Open(ctx, cfg.Datastore.URL, cfg.Datastore.Key)
	if err != nil {
		return nil, fmt.Errorf("failed to open datastore: %w", err)
	}

	emb, err := embedder.NewFromConfig(cfg.Embedding)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to initialize embedder: %w", err)
	}

	slog.Debug("dependencies ready",
		slog.String("provider", emb.Provider()),
		slog.String("model", emb.Model()))

	return &syncDeps{
		store:    store,
		embedder: emb,
		indexer:  indexer.New(store, emb),
	}, nil
}

func (d *syncDeps) Close() {
	_ = d.embedder.Close()
	_ = d.store.Close()
}

func discoverOptions(cfg *config.Config) source.DiscoverOptions {
	return source.DiscoverOptions{
		Kind:   cfg.Source,
		Ignore: cfg.Ignore,
	}
}
