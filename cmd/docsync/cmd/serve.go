package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/dshills/docsync/internal/mcp"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server on stdio",
		Long: `Start a Model Context Protocol server on stdin/stdout exposing the
sync_docs and get_status tools. Logs are written to stderr.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	deps, err := openDeps(ctx, cfg)
	if err != nil {
		return err
	}
	defer deps.Close()

	server := mcp.NewServer(deps.store, deps.indexer, cfg.DocsDir, discoverOptions(cfg))

	slog.Info("MCP server ready, listening on stdio",
		slog.String("docs_dir", cfg.DocsDir),
		slog.String("provider", deps.embedder.Provider()))

	if err := server.Serve(ctx); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	slog.Info("Server stopped")
	return nil
}
