package main

import (
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sahelgroup/recon-cli/internal/api"
	"github.com/sahelgroup/recon-cli/internal/cache"
	"github.com/sahelgroup/recon-cli/internal/reconcile"
	"github.com/sahelgroup/recon-cli/internal/store"
)

var (
	servePort    int
	serveAliases string
	serveNoStore bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the reconciliation HTTP API",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		resolver, err := newResolver(serveAliases)
		if err != nil {
			return err
		}
		ec, err := engineConfig()
		if err != nil {
			return err
		}
		engine := reconcile.NewEngine(ec, resolver)

		var st store.Store
		if !serveNoStore {
			st, err = store.Open(ctx, cfg.Store)
			if err != nil {
				return eris.Wrap(err, "serve: open store")
			}
			defer st.Close()
		}

		idxCache := cache.New(time.Duration(cfg.Cache.TTLMinutes) * time.Minute)
		server := api.NewServer(cfg, engine, st, idxCache)

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: server.Router(),
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			srv.Shutdown(ctx) //nolint:errcheck
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "serve: listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	serveCmd.Flags().StringVar(&serveAliases, "aliases", "", "YAML field-alias file")
	serveCmd.Flags().BoolVar(&serveNoStore, "no-store", false, "disable run persistence")
	rootCmd.AddCommand(serveCmd)
}
