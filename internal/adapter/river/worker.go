package river

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/riverqueue/river"
	"go.uber.org/zap"

	"github.com/kibeterick/blood-management-fullstack/internal/app"
	"github.com/kibeterick/blood-management-fullstack/internal/domain"
)

// Processor runs matching and notifications for a request.
type Processor interface {
	Process(ctx context.Context, requestID string) (app.MatchRunResult, app.NotifyResult, error)
}

// RequestLister finds requests by lifecycle state.
type RequestLister interface {
	ListByStatus(ctx context.Context, statuses ...domain.RequestStatus) ([]domain.BloodRequest, error)
}

// MatchingWorker processes matching.request jobs.
type MatchingWorker struct {
	river.WorkerDefaults[MatchRequestArgs]
	processor Processor
	logger    *zap.Logger
}

// Work runs one request. Missing or closed requests cancel the job; failed
// notifications return an error so River retries the donors left in matched.
func (w *MatchingWorker) Work(ctx context.Context, job *river.Job[MatchRequestArgs]) error {
	log := w.logger.With(
		zap.String("request_id", job.Args.RequestID),
		zap.Int64("job_id", job.ID),
		zap.Int("attempt", job.Attempt),
	)

	run, notified, err := w.processor.Process(ctx, job.Args.RequestID)
	if err != nil {
		if domain.IsNotFound(err) || domain.IsValidation(err) {
			log.Warn("matching job cancelled", zap.Error(err))
			return river.JobCancel(err)
		}
		log.Error("matching job failed", zap.Error(err))
		return err
	}

	log.Info("matching job processed",
		zap.Int("created", len(run.Created)),
		zap.Int("reused", len(run.Reused)),
		zap.Int("ineligible", len(run.Ineligible)),
		zap.Int("sent", notified.Sent),
		zap.Int("failed", notified.Failed),
		zap.String("summary", notified.Message()),
	)

	if notified.Failed > 0 {
		return fmt.Errorf("%d of %d notifications failed", notified.Failed, notified.Sent+notified.Failed)
	}
	return nil
}

// RescanWorker enqueues a matching job for every open request, picking up
// donors who registered or became eligible since the last run.
type RescanWorker struct {
	river.WorkerDefaults[RescanArgs]
	requests RequestLister
	logger   *zap.Logger
}

// Work lists open requests and inserts their jobs; duplicates of queued jobs are skipped.
func (w *RescanWorker) Work(ctx context.Context, job *river.Job[RescanArgs]) error {
	open, err := w.requests.ListByStatus(ctx, domain.RequestPending, domain.RequestApproved)
	if err != nil {
		return fmt.Errorf("listing open requests: %w", err)
	}
	if len(open) == 0 {
		return nil
	}

	params := make([]river.InsertManyParams, 0, len(open))
	for _, req := range open {
		params = append(params, river.InsertManyParams{Args: MatchRequestArgs{RequestID: req.ID}})
	}

	client := river.ClientFromContext[*sql.Tx](ctx)
	if _, err := client.InsertMany(ctx, params); err != nil {
		return fmt.Errorf("enqueuing matching jobs: %w", err)
	}

	w.logger.Info("rescan enqueued open requests", zap.Int("requests", len(open)), zap.Int64("job_id", job.ID))
	return nil
}
