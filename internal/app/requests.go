package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kibeterick/blood-management-fullstack/internal/domain"
)

// NewRequest carries the caller-supplied fields of a blood request.
type NewRequest struct {
	PatientName     string
	BloodType       domain.BloodType
	UnitsNeeded     int
	Urgency         domain.Urgency
	HospitalName    string
	HospitalAddress string
	ContactNumber   string
	RequiredBy      time.Time
}

// RequestService orchestrates blood request lifecycle operations.
type RequestService struct {
	repo      domain.RequestRepository
	scheduler domain.MatchScheduler
	validator domain.RequestTransitionValidator
	opts      options
}

// NewRequestService creates a service with the given adapters. A nil
// scheduler disables background matching.
func NewRequestService(repo domain.RequestRepository, scheduler domain.MatchScheduler, validator domain.RequestTransitionValidator, opts ...Option) *RequestService {
	return &RequestService{
		repo:      repo,
		scheduler: scheduler,
		validator: validator,
		opts:      buildOptions(opts),
	}
}

// Create validates and persists a pending request, then queues matching for it.
func (s *RequestService) Create(ctx context.Context, in NewRequest) (domain.BloodRequest, error) {
	req := domain.NewBloodRequest(generateID(), in.BloodType, in.UnitsNeeded, in.Urgency)
	req.PatientName = in.PatientName
	req.HospitalName = in.HospitalName
	req.HospitalAddress = in.HospitalAddress
	req.ContactNumber = in.ContactNumber
	req.RequiredBy = in.RequiredBy
	req.CreatedAt = s.opts.now()

	if err := req.Validate(); err != nil {
		return domain.BloodRequest{}, err
	}

	if err := s.repo.Create(ctx, req); err != nil {
		return domain.BloodRequest{}, fmt.Errorf("creating request: %w", err)
	}

	if err := s.schedule(ctx, req.ID); err != nil {
		return domain.BloodRequest{}, err
	}

	s.opts.logger.Info("blood request created",
		zap.String("request_id", req.ID),
		zap.String("blood_type", string(req.BloodType)),
		zap.String("urgency", string(req.Urgency)),
	)

	return req, nil
}

// Get returns a request by its identifier.
func (s *RequestService) Get(ctx context.Context, id string) (domain.BloodRequest, error) {
	return s.repo.Get(ctx, id)
}

// List returns requests in any of the given states, or all when none are given.
func (s *RequestService) List(ctx context.Context, statuses ...domain.RequestStatus) ([]domain.BloodRequest, error) {
	return s.repo.ListByStatus(ctx, statuses...)
}

// Transition applies a lifecycle event to a request. Approval queues a
// fresh matching run.
func (s *RequestService) Transition(ctx context.Context, id string, event domain.RequestEvent) (domain.BloodRequest, error) {
	req, err := s.repo.Get(ctx, id)
	if err != nil {
		return domain.BloodRequest{}, err
	}

	newStatus, err := s.validator.Apply(ctx, req.Status, event)
	if err != nil {
		return domain.BloodRequest{}, err
	}

	if err := s.repo.UpdateStatus(ctx, id, newStatus); err != nil {
		return domain.BloodRequest{}, fmt.Errorf("updating request: %w", err)
	}
	req.Status = newStatus

	if event == domain.RequestEventApprove {
		if err := s.schedule(ctx, id); err != nil {
			return domain.BloodRequest{}, err
		}
	}

	return req, nil
}

func (s *RequestService) schedule(ctx context.Context, id string) error {
	if s.scheduler == nil {
		return nil
	}
	if err := s.scheduler.Schedule(ctx, id); err != nil {
		return fmt.Errorf("scheduling matching for %s: %w", id, err)
	}
	return nil
}
