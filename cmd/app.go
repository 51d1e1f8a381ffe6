package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/kozaktomas/face-attendance/internal/config"
	"github.com/kozaktomas/face-attendance/internal/counter"
	"github.com/kozaktomas/face-attendance/internal/database/postgres"
	"github.com/kozaktomas/face-attendance/internal/fingerprint"
	"github.com/kozaktomas/face-attendance/internal/gallery"
	"github.com/kozaktomas/face-attendance/internal/pipeline"
	"github.com/spf13/cobra"
)

// app holds what every command needs: configuration, the loaded gallery and,
// when DATABASE_URL is set, the PostgreSQL pool backing it.
type app struct {
	cfg     *config.Config
	pool    *postgres.Pool
	files   *gallery.FileStore
	gallery *gallery.Gallery
}

// openApp loads configuration and the gallery from the configured backend.
func openApp(ctx context.Context) (*app, error) {
	cfg := config.Load()
	a := &app{cfg: cfg}

	var store gallery.Store
	if cfg.Database.URL != "" {
		pool, err := postgres.Open(ctx, &cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize PostgreSQL: %w", err)
		}
		a.pool = pool
		store = postgres.NewGalleryRepository(pool)
	} else {
		a.files = gallery.NewFileStore(cfg.Storage.GalleryPath)
		store = a.files
	}

	a.gallery = gallery.New(store)
	if err := a.gallery.Load(ctx); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

// Close releases the database pool, if any.
func (a *app) Close() {
	if a.pool != nil {
		a.pool.Close()
	}
}

// backend describes where the gallery lives.
func (a *app) backend() string {
	if a.files != nil {
		return a.files.Path()
	}
	return "PostgreSQL"
}

// processor builds a Processor for the --strategy flag (or FACE_STRATEGY)
// with options taken from the configuration.
func (a *app) processor(cmd *cobra.Command, withCountLog bool, locker sync.Locker, sinks ...pipeline.Sink) (*pipeline.Processor, error) {
	strategy, err := a.cfg.Strategy(mustGetString(cmd, "strategy"))
	if err != nil {
		return nil, err
	}

	rec := a.cfg.Recognition
	opts := pipeline.Options{
		Strategy:      strategy,
		MinConfidence: rec.MinConfidence,
		ProcessEveryN: rec.ProcessEveryN,
		FrameScale:    rec.FrameScale,
		FaceMargin:    rec.FaceMargin,
		StaleAfter:    rec.StaleAfter,
		UseIndex:      rec.HNSWEnabled,
		KnownFacesDir: a.cfg.Storage.KnownFacesDir,
		Sinks:         sinks,
		Locker:        locker,
	}
	if withCountLog {
		opts.CountLog = counter.NewCountLog(a.cfg.Storage.CountLogPath)
		fmt.Printf("Count log: %s\n", opts.CountLog.Path())
	}

	client := fingerprint.NewEmbeddingClient(a.cfg.Embedding.URL, "")
	return pipeline.NewProcessor(client, a.gallery, opts)
}

// checkDetector warns when the detection service does not answer its health probe.
func (a *app) checkDetector(ctx context.Context) {
	client := fingerprint.NewEmbeddingClient(a.cfg.Embedding.URL, "")
	if err := client.Health(ctx); err != nil {
		fmt.Printf("Warning: detection service is not healthy: %v\n", err)
	}
}

func outputJSON(data any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("encoding JSON output: %w", err)
	}
	return nil
}
