// Package app provides the commands of the marketplace-sync CLI.
package app

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/stacklok/marketplace-sync/internal/config"
	"github.com/stacklok/marketplace-sync/internal/versions"
)

// EnvPrefix is the prefix of environment variables that override flags
const EnvPrefix = "MARKETPLACE_SYNC"

// DefaultOutputPath is where the aggregated catalog is written by default
const DefaultOutputPath = ".claude-plugin/marketplace.json"

// Flag names, also used as viper keys
const (
	flagConfig   = "config"
	flagOutput   = "output"
	flagRoot     = "root"
	flagVerbose  = "verbose"
	flagLogLevel = "log-level"
)

// NewRootCmd creates the root command. Running it without a subcommand performs a sync.
func NewRootCmd() *cobra.Command {
	v := newViper()

	rootCmd := &cobra.Command{
		Use:               "marketplace-sync",
		DisableAutoGenTag: true,
		Short:             "Aggregate Claude plugin marketplaces and skills into one catalog",
		Long: `marketplace-sync reads a list of upstream sources, fetches each one and writes a
single marketplace catalog. Marketplace sources contribute the plugins listed in
their .claude-plugin/marketplace.json minus a denylist; skill sources are copied
into the repository and listed as one plugin each. Every plugin records which
upstream sources it came from.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSync(cmd, v)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.String(flagConfig, config.DefaultConfigPath, "Path to the sync configuration (JSON, YAML or TOML)")
	flags.BoolP(flagVerbose, "v", false, "Print progress while syncing")
	flags.String(flagLogLevel, "info", "Minimum level of verbose output (debug, info)")
	rootCmd.Flags().String(flagOutput, DefaultOutputPath, "Path of the aggregated catalog")
	rootCmd.Flags().String(flagRoot, "", "Directory skill target paths are relative to (default: two levels above --output)")

	bindFlags(v, rootCmd, flagConfig, flagVerbose, flagLogLevel, flagOutput, flagRoot)

	rootCmd.AddCommand(newValidateCmd(v))
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v
}

// bindFlags binds the named local or persistent flags of cmd to v
func bindFlags(v *viper.Viper, cmd *cobra.Command, names ...string) {
	for _, name := range names {
		flag := cmd.Flags().Lookup(name)
		if flag == nil {
			flag = cmd.PersistentFlags().Lookup(name)
		}
		if err := v.BindPFlag(name, flag); err != nil {
			panic(fmt.Sprintf("failed to bind %s flag: %v", name, err))
		}
	}
}

func newVersionCmd() *cobra.Command {
	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			info := versions.GetVersionInfo()
			format, err := cmd.Flags().GetString("format")
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if format == "json" {
				output, err := json.MarshalIndent(info, "", "  ")
				if err != nil {
					return fmt.Errorf("error formatting version info as JSON: %w", err)
				}
				_, err = fmt.Fprintln(out, string(output))
				return err
			}

			_, err = fmt.Fprintf(out, "marketplace-sync %s\n  commit: %s\n  built: %s\n  go: %s\n  platform: %s\n",
				info.Version, info.Commit, info.BuildDate, info.GoVersion, info.Platform)
			return err
		},
	}
	versionCmd.Flags().String("format", "", "Output format (json)")
	return versionCmd
}
