// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/explainor/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the explanation API over HTTP",
	Long: `Serve exposes the pipeline over HTTP:

  POST /api/explain    stream progress as server-sent events (?format=json for one document)
  POST /api/speech     render text to MP3 in a persona's voice
  GET  /api/personas   list personas
  GET  /healthz        liveness
  GET  /metrics        Prometheus metrics`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(viper.GetViper(), loadedSecrets)
		if err != nil {
			return err
		}
		defer func() { _ = a.log.Sync() }()

		srv := &http.Server{
			Addr: a.cfg.Server.Addr,
			Handler: (&server.Server{
				Pipeline: a.pipeline,
				Personas: a.personas,
				Speaker:  a.speaker,
				Logger:   a.log.Named("http"),
			}).Handler(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		errCh := make(chan error, 1)
		go func() {
			a.log.Info("listening", zap.String("addr", srv.Addr))
			errCh <- srv.ListenAndServe()
		}()

		select {
		case err := <-errCh:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return fmt.Errorf("serving %s: %w", srv.Addr, err)
		case <-ctx.Done():
		}

		a.log.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down: %w", err)
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (default :7860)")
	_ = viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))
	rootCmd.AddCommand(serveCmd)
}
