package river

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riversqlite"
	"github.com/riverqueue/river/rivermigrate"
	"go.uber.org/zap"
)

// Config wires the workers to the application.
type Config struct {
	Processor      Processor
	Requests       RequestLister
	Logger         *zap.Logger
	RescanInterval time.Duration
	MaxWorkers     int
}

// Setup creates a River client with the matching workers registered and
// runs River's internal migrations. A positive RescanInterval schedules the
// periodic rescan. The caller must call client.Start() to begin processing
// jobs and client.Stop() for graceful shutdown.
func Setup(ctx context.Context, db *sql.DB, cfg Config) (*Client, error) {
	driver := riversqlite.New(db)

	// Run River's own migrations (creates river_job, river_leader, etc.).
	// These are separate from the app's goose migrations.
	migrator, err := rivermigrate.New(driver, nil)
	if err != nil {
		return nil, fmt.Errorf("creating river migrator: %w", err)
	}
	if _, err := migrator.Migrate(ctx, rivermigrate.DirectionUp, nil); err != nil {
		return nil, fmt.Errorf("running river migrations: %w", err)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	maxWorkers := cfg.MaxWorkers
	if maxWorkers <= 0 {
		maxWorkers = 2
	}

	workers := river.NewWorkers()
	river.AddWorker(workers, &MatchingWorker{processor: cfg.Processor, logger: logger.Named("matching_worker")})
	river.AddWorker(workers, &RescanWorker{requests: cfg.Requests, logger: logger.Named("rescan_worker")})

	var periodic []*river.PeriodicJob
	if cfg.RescanInterval > 0 {
		periodic = append(periodic, river.NewPeriodicJob(
			river.PeriodicInterval(cfg.RescanInterval),
			func() (river.JobArgs, *river.InsertOpts) { return RescanArgs{}, nil },
			&river.PeriodicJobOpts{RunOnStart: true},
		))
	}

	client, err := river.NewClient(driver, &river.Config{
		Queues: map[string]river.QueueConfig{
			river.QueueDefault: {MaxWorkers: maxWorkers},
		},
		Workers:      workers,
		PeriodicJobs: periodic,
	})
	if err != nil {
		return nil, fmt.Errorf("creating river client: %w", err)
	}

	return client, nil
}
