package app

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/stacklok/gbfs-client/internal/config"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Work with gbfs configuration files",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "validate <file>",
		Short: "Validate a configuration file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(config.WithConfigPath(args[0]))
			if err != nil {
				return err
			}
			return printConfigSummary(cmd.OutOrStdout(), cfg)
		},
	})
	return cmd
}

func printConfigSummary(w io.Writer, cfg *config.Config) error {
	source := cfg.Registry.URL
	switch {
	case cfg.Registry.File != "":
		source = cfg.Registry.File
	case source == "":
		source = "default registry"
	}

	lines := []string{
		"✓ Valid configuration",
		"  Registry: " + source,
	}
	if ids := cfg.Registry.GetIncludeIDs(); len(ids) > 0 {
		lines = append(lines, "  Include IDs: "+strings.Join(ids, ", "))
	}
	if ids := cfg.Registry.GetExcludeIDs(); len(ids) > 0 {
		lines = append(lines, "  Exclude IDs: "+strings.Join(ids, ", "))
	}
	if cfg.Feeds.Language != "" {
		lines = append(lines, "  Language: "+cfg.Feeds.Language)
	}
	if ttl := cfg.Feeds.GetCacheTTL(); ttl > 0 {
		lines = append(lines, "  Feed cache TTL: "+ttl.String())
	}
	if cfg.Telemetry != nil && cfg.Telemetry.Enabled {
		lines = append(lines, "  Telemetry endpoint: "+cfg.Telemetry.GetEndpoint())
	}

	_, err := fmt.Fprintln(w, strings.Join(lines, "\n"))
	return err
}
