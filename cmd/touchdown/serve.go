package main

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/okian/touchdown/internal/adapters/http/api"
	service "github.com/okian/touchdown/internal/app"
	"github.com/okian/touchdown/pkg/logger"
	"github.com/okian/touchdown/pkg/metrics"
)

// HTTP server and background loop constants.
const (
	readTimeout               = 30 * time.Second
	writeTimeout              = 2 * time.Minute
	idleTimeout               = 60 * time.Second
	shutdownTimeout           = 30 * time.Second
	systemMetricsInterval     = 10 * time.Second
	nanosecondsPerMillisecond = 1e6
)

func serveCmd(flags *rootFlags) *cobra.Command {
	var noSchedule bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and poll games on the configured schedules",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg, err := loadConfig(ctx, flags)
			if err != nil {
				return err
			}
			l := logger.Get()

			st, err := buildStack(ctx, cfg, stackOptions{withHub: true})
			if err != nil {
				return err
			}
			defer func() {
				if err := st.Close(); err != nil {
					l.Error(context.Background(), "close connections", logger.Error(err))
				}
			}()

			if err := st.svc.Start(ctx); err != nil {
				return errors.Wrap(err, "start service")
			}
			defer func() {
				stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				if err := st.svc.Stop(stopCtx); err != nil {
					l.Error(stopCtx, "stop service", logger.Error(err))
				}
			}()

			go startSystemMetricsUpdater(ctx)

			if !noSchedule {
				sched, err := service.NewScheduler(cfg.Schedules, cfg.Timezone, cfg.JobTimeout*2, func(ctx context.Context) {
					if _, err := st.svc.RunCycle(ctx); err != nil {
						l.Error(ctx, "scheduled cycle failed", logger.Error(err))
					}
				})
				if err != nil {
					return err
				}
				sched.Start(cfg.RunOnStart)
				defer func() {
					stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
					defer cancel()
					_ = sched.Stop(stopCtx)
				}()
			}

			srv := api.NewServer(st.svc,
				api.WithHub(st.hub),
				api.WithCORSOrigins(cfg.CORSOrigins),
				api.WithLogger(l.Named("api")),
			).HTTPServer(ctx, cfg.Addr)
			srv.ReadTimeout = readTimeout
			srv.WriteTimeout = writeTimeout
			srv.IdleTimeout = idleTimeout

			errCh := make(chan error, 1)
			go func() {
				l.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case <-ctx.Done():
			case err := <-errCh:
				if err != nil {
					return errors.Wrap(err, "http server")
				}
			}
			l.Info(context.Background(), "shutting down server")

			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				l.Error(shutdownCtx, "server shutdown failed", logger.Error(err))
			}
			l.Info(shutdownCtx, "server stopped")
			return nil
		},
	}
	cmd.Flags().BoolVar(&noSchedule, "no-schedule", false, "serve the API without scheduled cycles")
	return cmd
}

// startSystemMetricsUpdater updates system metrics until ctx ends.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

// updateSystemMetrics updates system-level metrics.
func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())
	if m.NumGC > 0 {
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}
