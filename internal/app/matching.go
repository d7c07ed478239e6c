package app

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kibeterick/blood-management-fullstack/internal/domain"
)

// MatchRunResult separates records created by a run from records that
// already existed, so only new matches trigger notifications.
type MatchRunResult struct {
	Created    []domain.MatchRecord
	Reused     []domain.MatchRecord
	Ineligible []domain.IneligibleDonor
}

// Matches returns created and reused records together.
func (r MatchRunResult) Matches() []domain.MatchRecord {
	out := make([]domain.MatchRecord, 0, len(r.Created)+len(r.Reused))
	out = append(out, r.Created...)
	return append(out, r.Reused...)
}

// Message is the operator-facing outcome of a run.
func (r MatchRunResult) Message() string {
	total := len(r.Created) + len(r.Reused)
	if total == 0 {
		return "no eligible donors at this time"
	}
	return fmt.Sprintf("matched %d eligible donors (%d new)", total, len(r.Created))
}

// NotifyResult aggregates a notification batch. Skipped counts matches that
// had already moved on, or whose donor no route could reach.
type NotifyResult struct {
	Sent    int
	Failed  int
	Skipped int
	Errors  []*domain.DispatchError
}

// Message reports partial delivery so operators can follow up on the gap.
func (r NotifyResult) Message() string {
	return fmt.Sprintf("notified %d of %d eligible donors", r.Sent, r.Sent+r.Failed)
}

// MatchingService ranks donors for blood requests, persists match records
// and dispatches notifications.
type MatchingService struct {
	donors    domain.DonorRepository
	requests  domain.RequestRepository
	matches   domain.MatchRepository
	channel   domain.NotificationChannel
	validator domain.MatchTransitionValidator
	locks     *keyedMutex
	opts      options
}

// NewMatchingService creates a service with the given adapters.
func NewMatchingService(
	donors domain.DonorRepository,
	requests domain.RequestRepository,
	matches domain.MatchRepository,
	channel domain.NotificationChannel,
	validator domain.MatchTransitionValidator,
	opts ...Option,
) *MatchingService {
	return &MatchingService{
		donors:    donors,
		requests:  requests,
		matches:   matches,
		channel:   channel,
		validator: validator,
		locks:     newKeyedMutex(),
		opts:      buildOptions(opts),
	}
}

// Rank scores the donor pool for req as of today.
func (s *MatchingService) Rank(req domain.BloodRequest, pool []domain.Donor) (domain.RankResult, error) {
	return s.opts.ranker.Rank(req, pool, s.opts.now())
}

// CheckEligibility evaluates a donor against the configured policy.
func (s *MatchingService) CheckEligibility(donor domain.Donor) domain.EligibilityResult {
	return s.opts.ranker.Policy.Check(donor, s.opts.now())
}

// RunMatching ranks pool for req and upserts one match per candidate.
// Runs for the same request are serialized; repeated runs never duplicate
// records and never touch matches the donor already acted on.
func (s *MatchingService) RunMatching(ctx context.Context, req domain.BloodRequest, pool []domain.Donor) (MatchRunResult, error) {
	if req.Status.Terminal() {
		return MatchRunResult{}, &domain.ValidationError{
			Field:   "status",
			Message: fmt.Sprintf("request %s is %s", req.ID, req.Status),
		}
	}

	unlock := s.locks.Lock(req.ID)
	defer unlock()

	ranked, err := s.Rank(req, pool)
	if err != nil {
		return MatchRunResult{}, err
	}

	result := MatchRunResult{Ineligible: ranked.Ineligible}
	for _, c := range ranked.Candidates {
		match, created, err := s.matches.UpsertIfAbsentOrMatched(ctx, req.ID, c.Donor.ID, c.Score)
		if err != nil {
			return MatchRunResult{}, fmt.Errorf("upserting match for donor %s: %w", c.Donor.ID, err)
		}
		if created {
			result.Created = append(result.Created, match)
		} else {
			result.Reused = append(result.Reused, match)
		}
	}

	s.opts.logger.Info("matching run finished",
		zap.String("request_id", req.ID),
		zap.String("blood_type", string(req.BloodType)),
		zap.Int("created", len(result.Created)),
		zap.Int("reused", len(result.Reused)),
		zap.Int("ineligible", len(result.Ineligible)),
	)

	return result, nil
}

// RunForRequest loads the request and its compatible, available donors
// and runs matching over them.
func (s *MatchingService) RunForRequest(ctx context.Context, requestID string) (domain.BloodRequest, MatchRunResult, error) {
	req, err := s.requests.Get(ctx, requestID)
	if err != nil {
		return domain.BloodRequest{}, MatchRunResult{}, err
	}

	if !req.BloodType.Valid() {
		return req, MatchRunResult{}, &domain.InvalidBloodTypeError{Value: string(req.BloodType)}
	}

	pool, err := s.donors.FindCompatibleAvailable(ctx, domain.CompatibleDonorTypes(req.BloodType))
	if err != nil {
		return req, MatchRunResult{}, fmt.Errorf("loading donor pool: %w", err)
	}

	result, err := s.RunMatching(ctx, req, pool)
	return req, result, err
}

// Preview ranks the current donor pool for a request without storing anything.
func (s *MatchingService) Preview(ctx context.Context, requestID string) (domain.BloodRequest, domain.RankResult, error) {
	req, err := s.requests.Get(ctx, requestID)
	if err != nil {
		return domain.BloodRequest{}, domain.RankResult{}, err
	}
	if !req.BloodType.Valid() {
		return req, domain.RankResult{}, &domain.InvalidBloodTypeError{Value: string(req.BloodType)}
	}

	pool, err := s.donors.FindCompatibleAvailable(ctx, domain.CompatibleDonorTypes(req.BloodType))
	if err != nil {
		return req, domain.RankResult{}, fmt.Errorf("loading donor pool: %w", err)
	}

	ranked, err := s.Rank(req, pool)
	return req, ranked, err
}

// Matches lists the stored matches of a request.
func (s *MatchingService) Matches(ctx context.Context, requestID string) ([]domain.MatchRecord, error) {
	if _, err := s.requests.Get(ctx, requestID); err != nil {
		return nil, err
	}
	return s.matches.ListByRequest(ctx, requestID)
}

// Process runs matching for a request and notifies every match still
// awaiting its first notification, including ones whose earlier dispatch failed.
func (s *MatchingService) Process(ctx context.Context, requestID string) (MatchRunResult, NotifyResult, error) {
	req, run, err := s.RunForRequest(ctx, requestID)
	if err != nil {
		return MatchRunResult{}, NotifyResult{}, err
	}

	var pending []domain.MatchRecord
	for _, m := range run.Matches() {
		if m.Status == domain.MatchMatched {
			pending = append(pending, m)
		}
	}

	return run, s.NotifyMatches(ctx, req, pending), nil
}

// NotifyMatches sends req to the donor of every match still in the matched
// state and advances successful ones to notified. Sends run in parallel;
// a failure for one donor is recorded and never blocks the others.
func (s *MatchingService) NotifyMatches(ctx context.Context, req domain.BloodRequest, matches []domain.MatchRecord) NotifyResult {
	return s.dispatch(ctx, req, matches, domain.MatchMatched, func(ctx context.Context, m domain.MatchRecord) (domain.MatchRecord, error) {
		next, err := s.validator.Apply(ctx, m.Status, domain.MatchEventNotify)
		if err != nil {
			return m, err
		}
		m.Status = next
		return m, nil
	})
}

// Remind re-sends the request to donors who were notified but have not
// answered yet, refreshing their notification time.
func (s *MatchingService) Remind(ctx context.Context, requestID string) (NotifyResult, error) {
	req, err := s.requests.Get(ctx, requestID)
	if err != nil {
		return NotifyResult{}, err
	}
	matches, err := s.matches.ListByRequest(ctx, requestID)
	if err != nil {
		return NotifyResult{}, fmt.Errorf("listing matches: %w", err)
	}

	return s.dispatch(ctx, req, matches, domain.MatchNotified, func(_ context.Context, m domain.MatchRecord) (domain.MatchRecord, error) {
		return m, nil
	}), nil
}

type advanceFunc func(ctx context.Context, m domain.MatchRecord) (domain.MatchRecord, error)

func (s *MatchingService) dispatch(ctx context.Context, req domain.BloodRequest, matches []domain.MatchRecord, want domain.MatchStatus, advance advanceFunc) NotifyResult {
	var (
		mu     sync.Mutex
		result NotifyResult
	)
	summary := req.Summary()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.notifyConcurrency)

	for _, m := range matches {
		g.Go(func() error {
			sent, err := s.notifyOne(gctx, m, summary, want, advance)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case errors.Is(err, domain.ErrDonorUnreachable):
				result.Skipped++
				s.opts.logger.Debug("donor unreachable",
					zap.String("match_id", m.ID),
					zap.String("donor_id", m.DonorID),
				)
			case err != nil:
				result.Failed++
				result.Errors = append(result.Errors, &domain.DispatchError{MatchID: m.ID, DonorID: m.DonorID, Err: err})
			case sent:
				result.Sent++
			default:
				result.Skipped++
			}
			// Errors stay per donor; returning nil keeps the group running.
			return nil
		})
	}
	_ = g.Wait()

	s.opts.logger.Info("notification batch finished",
		zap.String("request_id", req.ID),
		zap.Int("sent", result.Sent),
		zap.Int("failed", result.Failed),
		zap.Int("skipped", result.Skipped),
	)
	for _, e := range result.Errors {
		s.opts.logger.Warn("notification failed",
			zap.String("request_id", req.ID),
			zap.String("match_id", e.MatchID),
			zap.String("donor_id", e.DonorID),
			zap.Error(e.Err),
		)
	}

	return result
}

func (s *MatchingService) notifyOne(ctx context.Context, m domain.MatchRecord, summary domain.RequestSummary, want domain.MatchStatus, advance advanceFunc) (bool, error) {
	current, err := s.matches.Get(ctx, m.ID)
	if err != nil {
		return false, fmt.Errorf("reloading match: %w", err)
	}
	if current.Status != want {
		return false, nil
	}

	donor, err := s.donors.Get(ctx, current.DonorID)
	if err != nil {
		return false, fmt.Errorf("loading donor: %w", err)
	}

	if err := s.channel.Send(ctx, donor, summary); err != nil {
		return false, err
	}

	next, err := advance(ctx, current)
	if err != nil {
		return false, err
	}
	now := s.opts.now()
	next.NotifiedAt = &now

	// A donor may answer while the message is in flight; their answer wins.
	err = s.matches.Update(ctx, next, current.Status)
	if errors.Is(err, domain.ErrStaleMatch) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("updating match: %w", err)
	}
	return true, nil
}
