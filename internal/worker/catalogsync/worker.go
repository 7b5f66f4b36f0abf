package catalogsync

import (
	"context"
	"log/slog"
	"time"

	"github.com/spf13/viper"
)

// service represents the catalog service surface used by the worker.
type service interface {
	Sync(ctx context.Context) error
}

// Worker periodically mirrors the provider catalog into the product table.
type Worker struct {
	service      service
	syncInterval time.Duration
	stopCh       chan struct{}
}

// NewWorker creates a new catalog sync worker.
func NewWorker(service service) *Worker {
	intervalMinutes := viper.GetInt("catalog.sync_interval_minutes")
	if intervalMinutes == 0 {
		intervalMinutes = 60
	}

	return &Worker{
		service:      service,
		syncInterval: time.Duration(intervalMinutes) * time.Minute,
		stopCh:       make(chan struct{}),
	}
}

// Start runs an initial sync and then re-syncs on the configured interval.
func (w *Worker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.syncInterval)
	defer ticker.Stop()

	slog.Info("Catalog sync worker started", "sync_interval", w.syncInterval)

	w.sync(ctx)

	for {
		select {
		case <-ctx.Done():
			slog.Info("Catalog sync worker shutting down")

			return
		case <-w.stopCh:
			slog.Info("Catalog sync worker stopped")

			return
		case <-ticker.C:
			w.sync(ctx)
		}
	}
}

// Stop stops the worker.
func (w *Worker) Stop() {
	close(w.stopCh)
}

func (w *Worker) sync(ctx context.Context) {
	if err := w.service.Sync(ctx); err != nil {
		slog.Error("Catalog sync failed", "error", err)
	}
}
