package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"sheets/internal/api"
	"sheets/internal/config"
)

func newServeCmd(opts *options) *cobra.Command {
	var listen string
	var origins []string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the save/load and formula HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("listen") {
				cfg.ListenAddr = listen
			}
			if cmd.Flags().Changed("allow-origin") {
				cfg.AllowOrigins = origins
			}

			log := newLogger(cmd.ErrOrStderr(), cfg.LogLevel)

			store, closeStore, err := openStore(cfg.DatabasePath, log)
			if err != nil {
				return err
			}
			defer func() {
				if err := closeStore(); err != nil {
					log.Error("close store", "error", err)
				}
			}()

			gin.SetMode(gin.ReleaseMode)
			router := api.SetupRouter(api.NewApiController(store, log), cfg.AllowOrigins, log)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return api.Serve(ctx, cfg.ListenAddr, router, log)
		},
	}

	cmd.Flags().StringVar(&listen, "listen", config.DefaultListenAddr, "listen address (overrides "+config.EnvListenAddr+")")
	cmd.Flags().StringSliceVar(&origins, "allow-origin", nil, "allowed CORS origin, repeatable (overrides "+config.EnvAllowOrigins+")")
	return cmd
}
