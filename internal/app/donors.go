package app

import (
	"context"
	"fmt"
	"time"

	"github.com/kibeterick/blood-management-fullstack/internal/domain"
)

// NewDonorInput carries registration fields for a donor.
type NewDonorInput struct {
	FirstName        string
	LastName         string
	Email            string
	Phone            string
	TelegramChatID   int64
	BloodType        domain.BloodType
	DateOfBirth      *time.Time
	City             string
	State            string
	LastDonationDate *time.Time
	Unavailable      bool
}

// EligibilityView is a donor's eligibility as of today. NextEligible is
// today for donors outside the cooldown window.
type EligibilityView struct {
	DonorID string
	domain.EligibilityResult
	NextEligible time.Time
}

// DonorService registers donors and reports their eligibility.
type DonorService struct {
	repo domain.DonorRepository
	opts options
}

// NewDonorService creates a donor service.
func NewDonorService(repo domain.DonorRepository, opts ...Option) *DonorService {
	return &DonorService{repo: repo, opts: buildOptions(opts)}
}

// Register validates and stores a new donor.
func (s *DonorService) Register(ctx context.Context, in NewDonorInput) (domain.Donor, error) {
	d := domain.NewDonor(generateID(), in.FirstName, in.LastName, in.BloodType)
	d.Email = in.Email
	d.Phone = in.Phone
	d.TelegramChatID = in.TelegramChatID
	d.DateOfBirth = in.DateOfBirth
	d.City = in.City
	d.State = in.State
	d.LastDonationDate = in.LastDonationDate
	d.IsAvailable = !in.Unavailable
	now := s.opts.now()
	d.CreatedAt = now

	if err := d.Validate(now); err != nil {
		return domain.Donor{}, err
	}
	if err := s.repo.Create(ctx, d); err != nil {
		return domain.Donor{}, fmt.Errorf("creating donor: %w", err)
	}
	return d, nil
}

// Get returns a donor by its identifier.
func (s *DonorService) Get(ctx context.Context, id string) (domain.Donor, error) {
	return s.repo.Get(ctx, id)
}

// Eligibility checks whether the donor may donate today.
func (s *DonorService) Eligibility(ctx context.Context, id string) (EligibilityView, error) {
	d, err := s.repo.Get(ctx, id)
	if err != nil {
		return EligibilityView{}, err
	}
	now := s.opts.now()
	policy := s.opts.ranker.Policy
	return EligibilityView{
		DonorID:           d.ID,
		EligibilityResult: policy.Check(d, now),
		NextEligible:      policy.NextEligibleDate(d, now),
	}, nil
}

// PoolStatistics summarizes the whole donor pool against the configured policy.
func (s *DonorService) PoolStatistics(ctx context.Context) (domain.PoolStatistics, error) {
	donors, err := s.repo.List(ctx)
	if err != nil {
		return domain.PoolStatistics{}, fmt.Errorf("listing donors: %w", err)
	}
	return domain.ComputePoolStatistics(donors, s.opts.ranker.Policy, s.opts.now()), nil
}
