package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dshills/docsync/internal/config"
	"github.com/dshills/docsync/internal/storage"
	"github.com/dshills/docsync/pkg/types"
)

func newStatusCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show stored pages and pages waiting for regeneration",
		Long: `Display the contents of the datastore:
  - Number of pages, synced pages and sections
  - Pages whose checksum is NULL and will be regenerated on the next sync`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStatus(cmd.Context(), cmd, jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

func runStatus(ctx context.Context, cmd *cobra.Command, jsonOutput bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Datastore.URL == "" {
		return &types.ConfigurationError{Missing: []string{config.EnvDatastoreURL}}
	}

	store, err := storage.Open(ctx, cfg.Datastore.URL, cfg.Datastore.Key)
	if err != nil {
		return fmt.Errorf("failed to open datastore: %w", err)
	}
	defer func() { _ = store.Close() }()

	status, err := store.GetStatus(ctx)
	if err != nil {
		return fmt.Errorf("failed to collect status: %w", err)
	}
	if status.PendingPaths == nil {
		status.PendingPaths = []string{}
	}

	if jsonOutput {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(status)
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Backend:\t%s\n", status.Backend)
	fmt.Fprintf(w, "Pages:\t%d\n", status.Pages)
	fmt.Fprintf(w, "Synced:\t%d\n", status.SyncedPages)
	fmt.Fprintf(w, "Pending:\t%d\n", status.PendingPages)
	fmt.Fprintf(w, "Sections:\t%d\n", status.Sections)
	if status.SizeMB > 0 {
		fmt.Fprintf(w, "Size:\t%.2f MB\n", status.SizeMB)
	}
	for _, p := range status.PendingPaths {
		fmt.Fprintf(w, "  pending\t%s\n", p)
	}
	return w.Flush()
}
