// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/orcid-metrics/internal/metrics"
	"github.com/pdiddy/orcid-metrics/internal/web"
	"github.com/pdiddy/orcid-metrics/pkg/types"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the browser front end",
	Long: `Serve starts an HTTP server with an upload form. Uploaded spreadsheets can be
validated or extracted; extraction returns the consolidated table as a
download. Prometheus metrics are exposed at /metrics.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	d := types.DefaultServerConfig()
	serveCmd.Flags().String("addr", d.Addr, "listen address")
	serveCmd.Flags().Int64("max-upload", d.MaxUploadBytes, "maximum upload size in bytes")

	mustBind("addr", serveCmd.Flags().Lookup("addr"))
	mustBind("max_upload_bytes", serveCmd.Flags().Lookup("max-upload"))

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	defaults, err := extractionConfig()
	if err != nil {
		return err
	}
	srvCfg := types.DefaultServerConfig()
	srvCfg.Addr = viper.GetString("addr")
	srvCfg.MaxUploadBytes = viper.GetInt64("max_upload_bytes")

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	h := web.New(defaults, srvCfg, func(cfg types.ExtractionConfig) web.Runner {
		return newCollector(cfg, m)
	}, logger, m)
	srv := web.NewServer(srvCfg, web.NewRouter(h, reg))

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("listening", "addr", srvCfg.Addr, "version", version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
