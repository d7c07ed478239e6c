package app_test

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/kibeterick/blood-management-fullstack/internal/domain"
)

// --- Mocks ---

type mockDonorRepo struct {
	mu     sync.Mutex
	donors map[string]domain.Donor
}

func newMockDonorRepo(donors ...domain.Donor) *mockDonorRepo {
	m := &mockDonorRepo{donors: make(map[string]domain.Donor)}
	for _, d := range donors {
		m.donors[d.ID] = d
	}
	return m
}

func (m *mockDonorRepo) Create(_ context.Context, d domain.Donor) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.donors[d.ID] = d
	return nil
}

func (m *mockDonorRepo) Get(_ context.Context, id string) (domain.Donor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.donors[id]
	if !ok {
		return domain.Donor{}, domain.ErrDonorNotFound
	}
	return d, nil
}

func (m *mockDonorRepo) FindCompatibleAvailable(_ context.Context, types []domain.BloodType) ([]domain.Donor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Donor
	for _, d := range m.donors {
		if d.IsAvailable && slices.Contains(types, d.BloodType) {
			out = append(out, d)
		}
	}
	slices.SortFunc(out, func(a, b domain.Donor) int { return strings.Compare(a.ID, b.ID) })
	return out, nil
}

func (m *mockDonorRepo) List(_ context.Context) ([]domain.Donor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Donor, 0, len(m.donors))
	for _, d := range m.donors {
		out = append(out, d)
	}
	slices.SortFunc(out, func(a, b domain.Donor) int { return strings.Compare(a.ID, b.ID) })
	return out, nil
}

// advance moves the last donation date forward only.
func (m *mockDonorRepo) advance(id string, date time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d := m.donors[id]
	if d.LastDonationDate == nil || d.LastDonationDate.Before(date) {
		d.LastDonationDate = &date
		m.donors[id] = d
	}
}

type mockRequestRepo struct {
	mu       sync.Mutex
	requests map[string]domain.BloodRequest
}

func newMockRequestRepo(reqs ...domain.BloodRequest) *mockRequestRepo {
	m := &mockRequestRepo{requests: make(map[string]domain.BloodRequest)}
	for _, r := range reqs {
		m.requests[r.ID] = r
	}
	return m
}

func (m *mockRequestRepo) Create(_ context.Context, r domain.BloodRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests[r.ID] = r
	return nil
}

func (m *mockRequestRepo) Get(_ context.Context, id string) (domain.BloodRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.requests[id]
	if !ok {
		return domain.BloodRequest{}, domain.ErrRequestNotFound
	}
	return r, nil
}

func (m *mockRequestRepo) UpdateStatus(_ context.Context, id string, status domain.RequestStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.requests[id]
	if !ok {
		return domain.ErrRequestNotFound
	}
	r.Status = status
	m.requests[id] = r
	return nil
}

func (m *mockRequestRepo) ListByStatus(_ context.Context, statuses ...domain.RequestStatus) ([]domain.BloodRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.BloodRequest
	for _, r := range m.requests {
		if len(statuses) == 0 || slices.Contains(statuses, r.Status) {
			out = append(out, r)
		}
	}
	return out, nil
}

type pairKey struct{ request, donor string }

type mockMatchRepo struct {
	mu      sync.Mutex
	seq     int
	matches map[string]domain.MatchRecord
	byPair  map[pairKey]string
	updates int
}

func newMockMatchRepo() *mockMatchRepo {
	return &mockMatchRepo{
		matches: make(map[string]domain.MatchRecord),
		byPair:  make(map[pairKey]string),
	}
}

func (m *mockMatchRepo) UpsertIfAbsentOrMatched(_ context.Context, requestID, donorID string, score int) (domain.MatchRecord, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := pairKey{requestID, donorID}
	if id, ok := m.byPair[key]; ok {
		rec := m.matches[id]
		if rec.Status == domain.MatchMatched {
			rec.Score = score
			m.matches[id] = rec
		}
		return rec, false, nil
	}
	m.seq++
	rec := domain.MatchRecord{
		ID:        fmt.Sprintf("m%d", m.seq),
		RequestID: requestID,
		DonorID:   donorID,
		Score:     score,
		Status:    domain.MatchMatched,
	}
	m.matches[rec.ID] = rec
	m.byPair[key] = rec.ID
	return rec, true, nil
}

// seed stores a record directly, bypassing upsert rules.
func (m *mockMatchRepo) seed(rec domain.MatchRecord) domain.MatchRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	if rec.ID == "" {
		rec.ID = fmt.Sprintf("m%d", m.seq)
	}
	m.matches[rec.ID] = rec
	m.byPair[pairKey{rec.RequestID, rec.DonorID}] = rec.ID
	return rec
}

func (m *mockMatchRepo) Get(_ context.Context, id string) (domain.MatchRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.matches[id]
	if !ok {
		return domain.MatchRecord{}, domain.ErrMatchNotFound
	}
	return rec, nil
}

func (m *mockMatchRepo) Update(_ context.Context, rec domain.MatchRecord, from domain.MatchStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	current, ok := m.matches[rec.ID]
	if !ok {
		return domain.ErrMatchNotFound
	}
	if current.Status != from {
		return domain.ErrStaleMatch
	}
	m.matches[rec.ID] = rec
	m.updates++
	return nil
}

func (m *mockMatchRepo) ListByRequest(_ context.Context, requestID string) ([]domain.MatchRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.MatchRecord
	for _, rec := range m.matches {
		if rec.RequestID == requestID {
			out = append(out, rec)
		}
	}
	slices.SortFunc(out, func(a, b domain.MatchRecord) int { return strings.Compare(a.ID, b.ID) })
	return out, nil
}

func (m *mockMatchRepo) List(_ context.Context) ([]domain.MatchRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.MatchRecord, 0, len(m.matches))
	for _, rec := range m.matches {
		out = append(out, rec)
	}
	return out, nil
}

func (m *mockMatchRepo) byDonor(requestID, donorID string) domain.MatchRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.matches[m.byPair[pairKey{requestID, donorID}]]
}

// mockResponseRepo writes through to the match and donor mocks under its own
// lock, checking every precondition before the first write.
type mockResponseRepo struct {
	mu         sync.Mutex
	matches    *mockMatchRepo
	donors     *mockDonorRepo
	responses  []domain.DonorResponse
	err        error
	staleFirst int
	attempts   int
}

func (m *mockResponseRepo) Record(ctx context.Context, rec domain.MatchRecord, from domain.MatchStatus, r domain.DonorResponse) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attempts++
	if m.staleFirst > 0 {
		m.staleFirst--
		return domain.ErrStaleMatch
	}
	if m.err != nil {
		return m.err
	}
	for _, existing := range m.responses {
		if existing.RequestID == r.RequestID && existing.DonorID == r.DonorID {
			return &domain.ResponseConflictError{RequestID: r.RequestID, DonorID: r.DonorID}
		}
	}
	if err := m.matches.Update(ctx, rec, from); err != nil {
		return err
	}
	m.responses = append(m.responses, r)
	return nil
}

func (m *mockResponseRepo) Complete(ctx context.Context, rec domain.MatchRecord, from domain.MatchStatus, date time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attempts++
	if m.err != nil {
		return m.err
	}
	if _, err := m.donors.Get(ctx, rec.DonorID); err != nil {
		return err
	}
	if err := m.matches.Update(ctx, rec, from); err != nil {
		return err
	}
	m.donors.advance(rec.DonorID, date)
	return nil
}

func (m *mockResponseRepo) ListByRequest(_ context.Context, requestID string) ([]domain.DonorResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.DonorResponse
	for _, r := range m.responses {
		if r.RequestID == requestID {
			out = append(out, r)
		}
	}
	return out, nil
}

var errGatewayDown = errors.New("gateway down")

type mockChannel struct {
	mu          sync.Mutex
	sent        []string
	failOn      map[string]bool
	unreachable map[string]bool
	// onSend runs before delivery, outside the lock.
	onSend func(ctx context.Context, d domain.Donor)
}

func (m *mockChannel) Send(ctx context.Context, d domain.Donor, _ domain.RequestSummary) error {
	if m.onSend != nil {
		m.onSend(ctx, d)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failOn[d.ID] {
		return errGatewayDown
	}
	if m.unreachable[d.ID] {
		return fmt.Errorf("routing: %w", domain.ErrDonorUnreachable)
	}
	m.sent = append(m.sent, d.ID)
	return nil
}

func (m *mockChannel) sentTo() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := slices.Clone(m.sent)
	slices.Sort(out)
	return out
}

type mockScheduler struct {
	mu        sync.Mutex
	scheduled []string
	err       error
}

func (m *mockScheduler) Schedule(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.scheduled = append(m.scheduled, id)
	return nil
}
