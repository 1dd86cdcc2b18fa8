package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/agenthub-x/agenthub/config"
	"github.com/agenthub-x/agenthub/internal/bootstrap"
	"github.com/agenthub-x/agenthub/logger"
)

func newServeCmd() *cobra.Command {
	var port int
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the collaboration observer hub",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				cfg.Server.Port = port
			}

			log := logger.GetLogger()
			level, err := logger.ParseLevel(cfg.Server.LogLevel)
			if err != nil {
				log.Warnf("%v, using info", err)
			}
			log.SetLevel(level)
			log.SetJSONFormat(cfg.Server.LogFormat != "console")
			log.SetComponent("agenthub")

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			app, err := bootstrap.New(ctx, cfg, version, log)
			if err != nil {
				return fmt.Errorf("start: %w", err)
			}
			defer app.Close()
			return app.Run(ctx)
		},
	}
	cmd.Flags().IntVarP(&port, "port", "p", 5001, "listen port (overrides PORT)")
	return cmd
}
