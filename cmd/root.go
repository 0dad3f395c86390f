// Package cmd implements the gatewayd command-line surface: a cobra root
// command whose default action starts the orchestration server (serve),
// plus migrate subcommands for the Postgres-backed managed deployment
// tier.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version is set at build time via -ldflags "-X github.com/radbot/gateway/cmd.Version=v1.0.0"
var Version = "dev"

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "gatewayd",
	Short: "radbot gateway — multi-agent conversational orchestration server",
	Long: "radbot gateway: a root coordinator agent delegates to specialist agents and " +
		"model-provided tools over HTTP/WebSocket, with cron/reminder/webhook subsystems " +
		"injecting background invocations into the same runtime.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: config.json5 or $RADBOT_CONFIG)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(versionCmd())
}

// Execute runs the root command; main.go's sole responsibility is calling
// this and translating its error into a process exit code.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("gatewayd %s\n", Version)
		},
	}
}

// resolveConfigPath picks the config file path: --config flag, else
// $RADBOT_CONFIG, else config.<$RADBOT_ENV>.json5 if RADBOT_ENV is set and
// that file exists, else config.json5.
func resolveConfigPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	if v := os.Getenv("RADBOT_CONFIG"); v != "" {
		return v
	}
	if env := os.Getenv("RADBOT_ENV"); env != "" {
		candidate := fmt.Sprintf("config.%s.json5", env)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return "config.json5"
}
