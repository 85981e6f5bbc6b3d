package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/chainchat-dev/chainchat-server/internal/app"
	"github.com/chainchat-dev/chainchat-server/internal/log"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the relay server",
	RunE: func(cmd *cobra.Command, _ []string) error {
		bootLog := log.New("info", "console")
		cfg, err := loadConfig(bootLog)
		if err != nil {
			return err
		}
		logger := log.New(cfg.LogLevel, cfg.LogFormat)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		application, err := app.New(&cfg, logger)
		if err != nil {
			return err
		}

		logger.Info().Str("addr", cfg.Addr).Msg("starting relay server")
		if err := application.Run(ctx); err != nil {
			return err
		}
		logger.Info().Msg("server stopped")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
