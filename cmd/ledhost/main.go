// Command ledhost runs the LED strip controller.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Version is set via -ldflags.
	Version = "dev"

	cfgFile string
	verbose bool

	rootCmd = &cobra.Command{
		Use:   "ledhost",
		Short: "Run sandboxed LED programs on a strip",
		Long: `ledhost receives commands over a framed TCP channel and drives an LED
strip, either with a solid color or with a WebAssembly program ticked
every few milliseconds.

Configuration comes from --config, then LEDHOST_* environment variables.`,
		SilenceUsage: true,
	}

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "ledhost", Version)
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (yaml, toml or json)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log at debug level")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newLogger builds a production logger at level, or a development logger
// when verbose is set.
func newLogger(level string) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	return cfg.Build()
}
