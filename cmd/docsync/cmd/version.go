package cmd

import (
	"encoding/json"
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/dshills/docsync/internal/storage"
)

// Set at build time:
//
//	-ldflags "-X github.com/dshills/docsync/cmd/docsync/cmd.Version=v1.0.0"
var (
	Version   = "dev"
	BuildTime = "unknown"
)

// buildInfo is structured version information for JSON output.
type buildInfo struct {
	Version   string `json:"version"`
	BuildTime string `json:"build_time"`
	BuildMode string `json:"build_mode"`
	Driver    string `json:"sqlite_driver"`
	GoVersion string `json:"go_version"`
}

func newVersionCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			info := buildInfo{
				Version:   Version,
				BuildTime: BuildTime,
				BuildMode: storage.BuildMode,
				Driver:    storage.DriverName,
				GoVersion: runtime.Version(),
			}

			if jsonOutput {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(info)
			}

			_, err := fmt.Fprintf(cmd.OutOrStdout(),
				"docsync %s (built %s, %s, sqlite driver %s, %s)\n",
				info.Version, info.BuildTime, info.BuildMode, info.Driver, info.GoVersion)
			return err
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output version info as JSON")

	return cmd
}
