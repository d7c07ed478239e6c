package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kibeterick/blood-management-fullstack/internal/domain"
)

// ResponseService records donor answers and completed donations.
type ResponseService struct {
	requests  domain.RequestRepository
	matches   domain.MatchRepository
	responses domain.ResponseRepository
	validator domain.MatchTransitionValidator
	reqStates domain.RequestTransitionValidator
	locks     *keyedMutex
	opts      options
}

// NewResponseService creates a response tracker.
func NewResponseService(
	requests domain.RequestRepository,
	matches domain.MatchRepository,
	responses domain.ResponseRepository,
	validator domain.MatchTransitionValidator,
	reqStates domain.RequestTransitionValidator,
	opts ...Option,
) *ResponseService {
	return &ResponseService{
		requests:  requests,
		matches:   matches,
		responses: responses,
		validator: validator,
		reqStates: reqStates,
		locks:     newKeyedMutex(),
		opts:      buildOptions(opts),
	}
}

// RecordResponse applies a donor's accept or decline to a match. A donor
// answers a request at most once; a second answer fails with a
// TransitionError and leaves the stored state unchanged.
func (s *ResponseService) RecordResponse(ctx context.Context, matchID string, kind domain.ResponseKind, reason string, at time.Time) (domain.MatchRecord, error) {
	event, ok := kind.Event()
	if !ok {
		return domain.MatchRecord{}, &domain.ValidationError{Field: "response", Message: fmt.Sprintf("unknown response %q", kind)}
	}

	unlock := s.locks.Lock(matchID)
	defer unlock()

	at = at.UTC()
	var match domain.MatchRecord
	err := retryStale(func() error {
		current, err := s.matches.Get(ctx, matchID)
		if err != nil {
			return err
		}

		next, err := s.validator.Apply(ctx, current.Status, event)
		if err != nil {
			return err
		}

		match = current
		match.Status = next
		match.RespondedAt = &at
		if kind == domain.ResponseDecline {
			match.DeclineReason = reason
		}

		if err := s.responses.Record(ctx, match, current.Status, domain.DonorResponse{
			MatchID:     match.ID,
			RequestID:   match.RequestID,
			DonorID:     match.DonorID,
			Response:    kind,
			Reason:      reason,
			RespondedAt: at,
		}); err != nil {
			return fmt.Errorf("recording response: %w", err)
		}
		return nil
	})
	if err != nil {
		return domain.MatchRecord{}, err
	}

	s.opts.logger.Info("donor responded",
		zap.String("match_id", match.ID),
		zap.String("request_id", match.RequestID),
		zap.String("donor_id", match.DonorID),
		zap.String("response", string(kind)),
	)

	return match, nil
}

// MarkCompleted records that the donor of an accepted match donated on
// date. The donor's last donation date moves forward and the request is
// fulfilled once enough donations are completed.
func (s *ResponseService) MarkCompleted(ctx context.Context, matchID string, date time.Time) (domain.MatchRecord, error) {
	if domain.DateOf(date).After(domain.DateOf(s.opts.now())) {
		return domain.MatchRecord{}, &domain.ValidationError{Field: "donation_date", Message: "must not be in the future"}
	}

	unlock := s.locks.Lock(matchID)
	defer unlock()

	completedAt := date.UTC()
	var match domain.MatchRecord
	err := retryStale(func() error {
		current, err := s.matches.Get(ctx, matchID)
		if err != nil {
			return err
		}

		next, err := s.validator.Apply(ctx, current.Status, domain.MatchEventComplete)
		if err != nil {
			return err
		}

		match = current
		match.Status = next
		match.CompletedAt = &completedAt

		if err := s.responses.Complete(ctx, match, current.Status, domain.DateOf(date)); err != nil {
			return fmt.Errorf("completing donation: %w", err)
		}
		return nil
	})
	if err != nil {
		return domain.MatchRecord{}, err
	}

	if err := s.fulfillIfSatisfied(ctx, match.RequestID); err != nil {
		return domain.MatchRecord{}, err
	}

	s.opts.logger.Info("donation completed",
		zap.String("match_id", match.ID),
		zap.String("request_id", match.RequestID),
		zap.String("donor_id", match.DonorID),
	)

	return match, nil
}

// staleAttempts bounds how often a write is rebuilt after losing a race
// with another writer of the same match.
const staleAttempts = 3

func retryStale(fn func() error) error {
	var err error
	for range staleAttempts {
		if err = fn(); !errors.Is(err, domain.ErrStaleMatch) {
			return err
		}
	}
	return err
}

func (s *ResponseService) fulfillIfSatisfied(ctx context.Context, requestID string) error {
	req, err := s.requests.Get(ctx, requestID)
	if err != nil {
		return err
	}
	if req.Status.Terminal() {
		return nil
	}

	matches, err := s.matches.ListByRequest(ctx, requestID)
	if err != nil {
		return fmt.Errorf("listing matches: %w", err)
	}
	if countCompleted(matches) < req.UnitsNeeded {
		return nil
	}

	next, err := s.reqStates.Apply(ctx, req.Status, domain.RequestEventFulfill)
	if err != nil {
		return err
	}
	if err := s.requests.UpdateStatus(ctx, requestID, next); err != nil {
		return fmt.Errorf("fulfilling request: %w", err)
	}

	s.opts.logger.Info("request fulfilled", zap.String("request_id", requestID), zap.Int("units", req.UnitsNeeded))
	return nil
}

// countCompleted counts completed donations among matches.
func countCompleted(matches []domain.MatchRecord) int {
	return domain.ComputeStatistics(matches).Completed
}

// Statistics aggregates responses for one request, or for all requests
// when requestID is empty.
func (s *ResponseService) Statistics(ctx context.Context, requestID string) (domain.Statistics, error) {
	var (
		matches []domain.MatchRecord
		err     error
	)
	if requestID == "" {
		matches, err = s.matches.List(ctx)
	} else {
		if _, err := s.requests.Get(ctx, requestID); err != nil {
			return domain.Statistics{}, err
		}
		matches, err = s.matches.ListByRequest(ctx, requestID)
	}
	if err != nil {
		return domain.Statistics{}, fmt.Errorf("listing matches: %w", err)
	}
	return domain.ComputeStatistics(matches), nil
}

// Responses returns the recorded answers for a request.
func (s *ResponseService) Responses(ctx context.Context, requestID string) ([]domain.DonorResponse, error) {
	if _, err := s.requests.Get(ctx, requestID); err != nil {
		return nil, err
	}
	return s.responses.ListByRequest(ctx, requestID)
}
