// Package app provides the commands of the gbfs CLI.
package app

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/adrg/xdg"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"

	"github.com/stacklok/gbfs-client/internal/config"
	"github.com/stacklok/gbfs-client/pkg/versions"
)

// Flag names shared by several commands, also used as viper keys
const (
	flagDebug        = "debug"
	flagConfig       = "config"
	flagFormat       = "format"
	flagRegistryURL  = "registry-url"
	flagRegistryFile = "registry-file"
	flagTimeout      = "timeout"
	flagLanguage     = "language"
	flagURL          = "url"
	flagSystem       = "system"
)

// DefaultConfigFile is looked up in the XDG config directories when --config is not set
const DefaultConfigFile = "gbfs/config.yaml"

// cli carries the viper instance the command tree is bound to
type cli struct {
	v *viper.Viper
	// findConfig returns the path of an existing file below the XDG config directories
	findConfig func(relPath string) (string, error)
}

// NewRootCmd creates the gbfs command tree.
func NewRootCmd() *cobra.Command {
	return newRootCmd(xdg.SearchConfigFile)
}

func newRootCmd(findConfig func(string) (string, error)) *cobra.Command {
	c := &cli{v: viper.New(), findConfig: findConfig}
	c.v.SetEnvPrefix(config.EnvPrefix)
	c.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	c.v.AutomaticEnv()

	rootCmd := &cobra.Command{
		Use:               "gbfs",
		DisableAutoGenTag: true,
		SilenceUsage:      true,
		Short:             "Query General Bikeshare Feed Specification systems",
		Long: `gbfs searches the MobilityData systems registry and reads the station and
system feeds published by bikeshare operators.`,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			if c.v.GetBool(flagDebug) {
				return ConfigureLogging(zapcore.DebugLevel, true)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.Bool(flagDebug, false, "Enable debug logging")
	flags.String(flagConfig, "",
		"Path to configuration file (YAML format), default $XDG_CONFIG_HOME/"+DefaultConfigFile+" when it exists")
	flags.String(flagFormat, formatTable, "Output format (table, json or yaml)")
	flags.String(flagRegistryURL, "", "URL of the systems.csv registry")
	flags.String(flagRegistryFile, "", "Local systems.csv registry file")
	flags.Duration(flagTimeout, 0, "Timeout of each HTTP request")
	flags.String(flagLanguage, "", "Preferred feed language")
	rootCmd.MarkFlagsMutuallyExclusive(flagRegistryURL, flagRegistryFile)
	c.bindFlags(flags, flagDebug, flagConfig, flagFormat, flagRegistryURL, flagRegistryFile, flagTimeout, flagLanguage)

	rootCmd.AddCommand(c.newSystemsCmd())
	rootCmd.AddCommand(c.newLanguagesCmd())
	rootCmd.AddCommand(c.newFeedsCmd())
	rootCmd.AddCommand(c.newStationsCmd())
	rootCmd.AddCommand(c.newSystemInfoCmd())
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

// bindFlags binds persistent flags so they can also be set as GBFS_* variables
func (c *cli) bindFlags(flags *pflag.FlagSet, names ...string) {
	for _, name := range names {
		if err := c.v.BindPFlag(name, flags.Lookup(name)); err != nil {
			slog.Error("Error binding flag", "flag", name, "error", err)
		}
	}
}

func newVersionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, _ []string) error {
			info := versions.GetVersionInfo()
			format, err := cmd.Flags().GetString(flagFormat)
			if err != nil {
				return err
			}

			if format == formatJSON {
				output, err := json.MarshalIndent(info, "", "  ")
				if err != nil {
					return fmt.Errorf("failed to format version info as JSON: %w", err)
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), string(output))
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(),
				"gbfs %s\n  commit:   %s\n  built:    %s\n  go:       %s\n  platform: %s\n  gbfs:     %s\n",
				info.Version, info.Commit, info.BuildDate, info.GoVersion, info.Platform,
				strings.Join(info.GBFSVersions, ", "))
			return err
		},
	}
	return cmd
}
