package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Kamar-Folarin/listing-sync/internal/api"
	"github.com/Kamar-Folarin/listing-sync/internal/models"
	"github.com/Kamar-Folarin/listing-sync/internal/scheduler"
)

// Scheduled job names
const (
	jobAdvertsSync = "adverts-delta-sync"
	jobRateRefresh = "eur-rate-refresh"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server and the sync scheduler",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	a.refreshRate(ctx)

	sched := scheduler.New(a.logger, scheduler.WithRunOnStart(a.cfg.Sync.OnStart))
	if err := sched.RunEvery(jobAdvertsSync, a.cfg.Sync.Interval, func(ctx context.Context) error {
		_, err := a.ingest.SyncNew(ctx, models.CollectionAdverts)
		return err
	}); err != nil {
		return err
	}
	if err := sched.RunEvery(jobRateRefresh, a.cfg.Sync.Interval, a.rates.Refresh); err != nil {
		return err
	}

	handler := api.NewHandler(a.ingest, a.ingest.Status(), a.rates, a.store, a.logger)
	// WriteTimeout covers a full advert ingestion, which fetches every detail document
	server := &http.Server{
		Addr:         ":" + a.cfg.Port,
		Handler:      api.SetupRouter(handler, a.metrics.Handler()),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	schedDone := make(chan struct{})
	go func() {
		defer close(schedDone)
		sched.Run(ctx)
	}()

	serverErr := make(chan error, 1)
	go func() {
		a.logger.Infof("Server starting on port %s", a.cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-serverErr:
		a.logger.WithError(err).Error("Server failed")
		stop()
	}

	a.logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		a.logger.Errorf("Server shutdown failed: %v", err)
	}
	<-schedDone
	a.logger.Info("Server exited properly")
	return nil
}
