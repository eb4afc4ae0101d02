package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ramonehamilton/MTG-Buylist/internal/api"
	"github.com/ramonehamilton/MTG-Buylist/internal/buylist"
	"github.com/ramonehamilton/MTG-Buylist/internal/config"
	"github.com/ramonehamilton/MTG-Buylist/internal/logger"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(a *app) *cobra.Command {
	var (
		port        int
		openBrowser bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and WebSocket event stream",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			st, err := a.openStack(ctx)
			if err != nil {
				return err
			}
			defer a.closeStack(st)

			lookupCtx, cancelLookups := context.WithCancel(ctx)
			defer cancelLookups()
			st.svc.Start(lookupCtx)

			if !cmd.Flags().Changed("port") {
				port = a.cfg.Server.Port
			}
			server := api.NewServer(&api.Config{
				Port:           port,
				AllowedOrigins: a.cfg.Server.AllowedOrigins,
				OpenBrowser:    openBrowser,
			}, st.svc, st.metrics, a.log)

			if err := server.Start(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Buylist API running at http://localhost:%d (Ctrl+C to stop)\n", server.Port())

			// Lookups still queued from an earlier run.
			if n := st.svc.RetryLookups(); n > 0 {
				a.log.Info("Retrying lookups", logger.Int("entries", n))
			}

			go a.watchConfig(ctx, st.svc)

			<-ctx.Done()
			a.log.Info("Shutting down")

			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				a.log.Warn("Error during shutdown", logger.Error(err))
			}
			cancelLookups()
			<-st.svc.Done()
			return nil
		},
	}

	cmd.Flags().IntVar(&port, "port", 8080, "port to listen on (default from config)")
	cmd.Flags().BoolVar(&openBrowser, "open", false, "open the progress chart in a browser")
	return cmd
}

// watchConfig applies log level and page size changes from the config file.
func (a *app) watchConfig(ctx context.Context, svc *buylist.Service) {
	pageSize := a.cfg.View.PageSize
	err := config.Watch(ctx, a.configPath, func(cfg *config.Config) {
		if a.logLevel == "" {
			a.log.SetLevel(cfg.App.LogLevel)
		}
		if cfg.View.PageSize != pageSize {
			pageSize = cfg.View.PageSize
			svc.SetPageSize(pageSize)
		}
		a.log.Info("Configuration reloaded")
	}, func(err error) {
		a.log.Warn("Ignoring invalid configuration", logger.Error(err))
	})
	if err != nil {
		a.log.Warn("Config hot reload disabled", logger.Error(err))
	}
}
