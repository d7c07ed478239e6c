package domain

import (
	"context"
	"time"
)

// DonorRepository defines the persistence contract for donors.
type DonorRepository interface {
	Create(ctx context.Context, donor Donor) error
	Get(ctx context.Context, id string) (Donor, error)
	FindCompatibleAvailable(ctx context.Context, bloodTypes []BloodType) ([]Donor, error)
	List(ctx context.Context) ([]Donor, error)
}

// RequestRepository defines the persistence contract for blood requests.
type RequestRepository interface {
	Create(ctx context.Context, req BloodRequest) error
	Get(ctx context.Context, id string) (BloodRequest, error)
	UpdateStatus(ctx context.Context, id string, status RequestStatus) error
	ListByStatus(ctx context.Context, statuses ...RequestStatus) ([]BloodRequest, error)
}

// MatchRepository defines the persistence contract for match records.
//
// UpsertIfAbsentOrMatched must be atomic: it creates the record in state
// matched when none exists for (requestID, donorID), refreshes the score when
// the existing record is still matched, and otherwise leaves it untouched.
//
// Update is a compare-and-set: it stores match only while the stored status
// still equals from, and returns ErrStaleMatch when another writer got there first.
type MatchRepository interface {
	UpsertIfAbsentOrMatched(ctx context.Context, requestID, donorID string, score int) (MatchRecord, bool, error)
	Get(ctx context.Context, id string) (MatchRecord, error)
	Update(ctx context.Context, match MatchRecord, from MatchStatus) error
	ListByRequest(ctx context.Context, requestID string) ([]MatchRecord, error)
	List(ctx context.Context) ([]MatchRecord, error)
}

// ResponseRepository stores donor answers and donation outcomes. Both writes
// pair the match transition with its side effect in one transaction, guarded
// by the same compare-and-set as MatchRepository.Update.
//
// Record stores the answered match and the response, at most one response
// per (request, donor). Complete stores the completed match and moves the
// donor's last donation date forward, never backward.
type ResponseRepository interface {
	Record(ctx context.Context, match MatchRecord, from MatchStatus, resp DonorResponse) error
	Complete(ctx context.Context, match MatchRecord, from MatchStatus, donationDate time.Time) error
	ListByRequest(ctx context.Context, requestID string) ([]DonorResponse, error)
}

// NotificationChannel delivers a request summary to a donor over some transport.
type NotificationChannel interface {
	Send(ctx context.Context, donor Donor, summary RequestSummary) error
}

// MatchTransitionValidator checks match lifecycle events.
type MatchTransitionValidator interface {
	Apply(ctx context.Context, current MatchStatus, event MatchEvent) (MatchStatus, error)
}

// RequestTransitionValidator checks request lifecycle events.
type RequestTransitionValidator interface {
	Apply(ctx context.Context, current RequestStatus, event RequestEvent) (RequestStatus, error)
}

// MatchScheduler queues a matching run for a request.
type MatchScheduler interface {
	Schedule(ctx context.Context, requestID string) error
}
