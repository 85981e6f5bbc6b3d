package cmd

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/chainchat-dev/chainchat-server/internal/config"
)

var (
	cfgPath  string
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "relay",
	Short: "Chain-backed chat relay server",
	Long: `relay broadcasts chat messages to connected stream clients and mints a
chain transaction, stores a durable snapshot, and archives a content-addressed
copy for every accepted message.

Use "relay serve" to run the server and "relay chain" for contract queries
and match transactions.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "path to config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override configured log level")
}

func loadConfig(logger *zerolog.Logger) (config.Config, error) {
	cfg, path, err := config.Load(logger, cfgPath)
	if err != nil {
		return cfg, err
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	logger.Debug().Str("path", path).Msg("config loaded")
	return cfg, nil
}
