// Package app wires config, storage, metastore, and the workflow service
// into a runnable application.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"lakewap/internal/config"
	"lakewap/internal/db"
	"lakewap/internal/domain"
	"lakewap/internal/lakehouse"
	"lakewap/internal/repository"
	"lakewap/internal/service/source"
	"lakewap/internal/service/wap"
)

// App holds the fully-wired application.
type App struct {
	Cfg     *config.Config
	Logger  *slog.Logger
	Store   *lakehouse.DuckDBStore
	Runs    *repository.RunRepo
	Audit   *repository.AuditRepo
	Service *wap.Service

	meta *db.Metastore
}

// New opens the DuckDB store and the SQLite metastore, runs migrations, and
// wires the workflow service with the given quality-check suite.
func New(ctx context.Context, cfg *config.Config, suite []domain.QualityCheckSpec, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	for _, w := range cfg.Warnings {
		logger.Warn("config", "warning", w)
	}

	store, err := lakehouse.Open(ctx, cfg.DataDir, cfg.Trunk, logger.With("component", "lakehouse"))
	if err != nil {
		return nil, fmt.Errorf("open lakehouse store: %w", err)
	}
	if cfg.HasS3Config() {
		endpoint := ""
		if cfg.S3Endpoint != nil {
			endpoint = *cfg.S3Endpoint
		}
		if err := store.CreateS3Secret(ctx, *cfg.S3KeyID, *cfg.S3Secret, endpoint, *cfg.S3Region); err != nil {
			_ = store.Close()
			return nil, err
		}
	}

	meta, err := db.OpenMetastore(cfg.MetaDBPath)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("open metastore: %w", err)
	}

	runs := repository.NewRunRepo(meta.WriteDB, meta.ReadDB)
	audit := repository.NewAuditRepo(meta.WriteDB, meta.ReadDB)

	var prober wap.SourceProber
	if cfg.ProbeSources {
		var s3cfg *source.S3Config
		if cfg.HasS3Config() {
			s3cfg = &source.S3Config{KeyID: *cfg.S3KeyID, Secret: *cfg.S3Secret, Region: *cfg.S3Region}
			if cfg.S3Endpoint != nil {
				s3cfg.Endpoint = *cfg.S3Endpoint
			}
		}
		prober = source.New(s3cfg)
	}

	var lakeStore domain.LakehouseStore = store
	if cfg.StoreRPS > 0 {
		lakeStore = lakehouse.NewThrottledStore(store, cfg.StoreRPS, cfg.StoreBurst)
	}

	svc := wap.New(wap.Deps{
		Store:  lakeStore,
		Runs:   runs,
		Audit:  audit,
		Prober: prober,
		Logger: logger.With("component", "wap"),
	}, wap.Options{
		Trunk: cfg.Trunk,
		Actor: cfg.Actor,
		Suite: suite,
	})

	return &App{
		Cfg:     cfg,
		Logger:  logger,
		Store:   store,
		Runs:    runs,
		Audit:   audit,
		Service: svc,
		meta:    meta,
	}, nil
}

// Close releases the metastore pools and the DuckDB handle.
func (a *App) Close() error {
	metaErr := a.meta.Close()
	storeErr := a.Store.Close()
	if metaErr != nil {
		return metaErr
	}
	return storeErr
}
