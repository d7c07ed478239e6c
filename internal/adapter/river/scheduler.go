package river

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/riverqueue/river"

	"github.com/kibeterick/blood-management-fullstack/internal/domain"
)

// Compile-time check: Scheduler implements domain.MatchScheduler.
var _ domain.MatchScheduler = (*Scheduler)(nil)

// Client is the River client type parameterized for SQLite (*sql.Tx).
type Client = river.Client[*sql.Tx]

// Scheduler implements domain.MatchScheduler by enqueuing River jobs.
type Scheduler struct {
	client *Client
}

// NewScheduler creates a scheduler backed by the given River client.
func NewScheduler(client *Client) *Scheduler {
	return &Scheduler{client: client}
}

// Schedule enqueues a matching job for the request. A job already queued
// or running for the same request absorbs the call.
func (s *Scheduler) Schedule(ctx context.Context, requestID string) error {
	if _, err := s.client.Insert(ctx, MatchRequestArgs{RequestID: requestID}, nil); err != nil {
		return fmt.Errorf("enqueuing matching job: %w", err)
	}
	return nil
}
