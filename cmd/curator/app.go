package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/neomorfeo/curator/internal/adapter/catalog"
	"github.com/neomorfeo/curator/internal/adapter/fsm"
	handler "github.com/neomorfeo/curator/internal/adapter/http"
	"github.com/neomorfeo/curator/internal/adapter/otel"
	"github.com/neomorfeo/curator/internal/adapter/river"
	"github.com/neomorfeo/curator/internal/adapter/sqlite"
	"github.com/neomorfeo/curator/internal/app"
	"github.com/neomorfeo/curator/internal/config"
	"github.com/neomorfeo/curator/internal/domain"
)

// application holds the wired services and the resources they own.
type application struct {
	db       *sql.DB
	queue    *river.Client
	services handler.Services
}

func openStore(cfg *config.Config) (*sql.DB, domain.Store, error) {
	db, err := otel.OpenDB(cfg.Database.Path, cfg.Database.BusyTimeoutMS)
	if err != nil {
		return nil, nil, fmt.Errorf("database: %w", err)
	}

	store, err := sqlite.NewFromDB(db)
	if err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("database: %w", err)
	}

	return db, otel.NewTracingStore(store), nil
}

func newCatalog(cfg config.CatalogConfig) domain.Catalog {
	if cfg.URL == "" {
		return catalog.AllowAll{}
	}
	return otel.NewTracingCatalog(catalog.NewClient(cfg.URL, cfg.Timeout.Duration))
}

// newApplication wires adapters and services. The returned queue is not
// started; serve starts it, one-shot commands only insert into it.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*application, error) {
	db, store, err := openStore(cfg)
	if err != nil {
		return nil, err
	}

	registry := app.NewPlaylistRegistry(store)
	members := app.NewMembershipManager(store)

	var auditor *app.ConsistencyAuditor
	queue, err := river.Setup(ctx, db, river.Options{
		MaxWorkers: cfg.Queue.MaxWorkers,
		Auditor: river.AuditRunnerFunc(func(ctx context.Context, mode domain.RepairMode) (domain.AuditReport, error) {
			return auditor.Repair(ctx, mode)
		}),
		AuditInterval: cfg.Audit.Interval.Duration,
		AuditMode:     cfg.Audit.RepairMode(),
		AuditOnStart:  cfg.Audit.RunOnStart,
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("river: %w", err)
	}

	publisher, err := otel.NewTracingPublisher(river.NewPublisher(queue))
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("publisher: %w", err)
	}

	auditor = app.NewConsistencyAuditor(store, members, publisher)

	logger.Debug("application wired",
		"database", cfg.Database.Path,
		"catalog", cfg.Catalog.URL,
		"audit_interval", cfg.Audit.Interval.String(),
	)

	return &application{
		db:    db,
		queue: queue,
		services: handler.Services{
			Registry: registry,
			Members:  members,
			Workflow: app.NewSubmissionWorkflow(store, registry, members, fsm.New(), newCatalog(cfg.Catalog), publisher),
			Auditor:  auditor,
		},
	}, nil
}

func (a *application) Close() error {
	return a.db.Close()
}
