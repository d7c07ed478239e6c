package sqlite_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kibeterick/blood-management-fullstack/internal/adapter/sqlite"
	"github.com/kibeterick/blood-management-fullstack/internal/domain"
)

// newTestStore creates an in-memory SQLite store for testing.
func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("creating test store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func mustCreateDonor(t *testing.T, store *sqlite.Store, d domain.Donor) {
	t.Helper()
	if err := store.Donors().Create(context.Background(), d); err != nil {
		t.Fatalf("mustCreateDonor failed: %v", err)
	}
}

func mustCreateRequest(t *testing.T, store *sqlite.Store, r domain.BloodRequest) {
	t.Helper()
	if err := store.Requests().Create(context.Background(), r); err != nil {
		t.Fatalf("mustCreateRequest failed: %v", err)
	}
}

func date(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func TestDonor_CreateAndGet(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	d := domain.NewDonor("d-1", "Wanjiru", "Kamau", domain.ONeg)
	d.Email = "wanjiru@example.com"
	d.Phone = "+254700000001"
	d.TelegramChatID = 42
	d.DateOfBirth = date(1990, time.May, 4)
	d.City = "Nairobi"
	d.State = "Nairobi County"

	if err := store.Donors().Create(ctx, d); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	got, err := store.Donors().Get(ctx, "d-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}

	if got.FullName() != "Wanjiru Kamau" {
		t.Errorf("FullName = %q", got.FullName())
	}
	if got.BloodType != domain.ONeg {
		t.Errorf("BloodType = %q, want %q", got.BloodType, domain.ONeg)
	}
	if got.TelegramChatID != 42 {
		t.Errorf("TelegramChatID = %d, want 42", got.TelegramChatID)
	}
	if !got.IsAvailable {
		t.Error("IsAvailable should be true")
	}
	if got.DateOfBirth == nil || !got.DateOfBirth.Equal(*d.DateOfBirth) {
		t.Errorf("DateOfBirth = %v, want %v", got.DateOfBirth, d.DateOfBirth)
	}
	if got.LastDonationDate != nil {
		t.Errorf("LastDonationDate = %v, want nil", got.LastDonationDate)
	}
	if got.CreatedAt.IsZero() {
		t.Error("CreatedAt should not be zero")
	}
}

func TestDonor_GetNotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Donors().Get(context.Background(), "nonexistent")
	if !errors.Is(err, domain.ErrDonorNotFound) {
		t.Errorf("expected ErrDonorNotFound, got %v", err)
	}
}

func TestDonor_FindCompatibleAvailable(t *testing.T) {
	store := newTestStore(t)

	mustCreateDonor(t, store, domain.NewDonor("d-3", "C", "", domain.ONeg))
	mustCreateDonor(t, store, domain.NewDonor("d-1", "A", "", domain.ANeg))
	mustCreateDonor(t, store, domain.NewDonor("d-2", "B", "", domain.APos))
	away := domain.NewDonor("d-4", "D", "", domain.ONeg)
	away.IsAvailable = false
	mustCreateDonor(t, store, away)

	donors, err := store.Donors().FindCompatibleAvailable(context.Background(),
		domain.CompatibleDonorTypes(domain.ANeg))
	if err != nil {
		t.Fatalf("FindCompatibleAvailable failed: %v", err)
	}

	var ids []string
	for _, d := range donors {
		ids = append(ids, d.ID)
	}
	if len(ids) != 2 || ids[0] != "d-1" || ids[1] != "d-3" {
		t.Errorf("ids = %v, want [d-1 d-3]", ids)
	}

	none, err := store.Donors().FindCompatibleAvailable(context.Background(), nil)
	if err != nil || len(none) != 0 {
		t.Errorf("empty type list: got %v, %v", none, err)
	}
}

func TestDonor_List(t *testing.T) {
	store := newTestStore(t)
	mustCreateDonor(t, store, domain.NewDonor("d-2", "B", "", domain.APos))
	away := domain.NewDonor("d-1", "A", "", domain.ONeg)
	away.IsAvailable = false
	mustCreateDonor(t, store, away)

	donors, err := store.Donors().List(context.Background())
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(donors) != 2 || donors[0].ID != "d-1" || donors[1].ID != "d-2" {
		t.Errorf("donors = %+v, want d-1 then d-2", donors)
	}
	if donors[0].IsAvailable {
		t.Error("unavailable donor listed as available")
	}
}

func TestRequest_CreateAndGet(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	r := domain.NewBloodRequest("r-1", domain.ABNeg, 3, domain.UrgencyCritical)
	r.HospitalName = "Moi Teaching and Referral"
	r.HospitalAddress = "Nandi Rd, Eldoret"
	r.RequiredBy = time.Date(2026, 3, 12, 8, 0, 0, 0, time.UTC)
	mustCreateRequest(t, store, r)

	got, err := store.Requests().Get(ctx, "r-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Status != domain.RequestPending {
		t.Errorf("Status = %q, want pending", got.Status)
	}
	if got.UnitsNeeded != 3 || got.Urgency != domain.UrgencyCritical {
		t.Errorf("units=%d urgency=%q", got.UnitsNeeded, got.Urgency)
	}
	if !got.RequiredBy.Equal(r.RequiredBy) {
		t.Errorf("RequiredBy = %v, want %v", got.RequiredBy, r.RequiredBy)
	}

	_, err = store.Requests().Get(ctx, "nonexistent")
	if !errors.Is(err, domain.ErrRequestNotFound) {
		t.Errorf("expected ErrRequestNotFound, got %v", err)
	}
}

func TestRequest_UpdateStatusAndList(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	mustCreateRequest(t, store, domain.NewBloodRequest("r-1", domain.APos, 1, domain.UrgencyLow))
	mustCreateRequest(t, store, domain.NewBloodRequest("r-2", domain.BPos, 1, domain.UrgencyHigh))
	mustCreateRequest(t, store, domain.NewBloodRequest("r-3", domain.OPos, 1, domain.UrgencyMedium))

	if err := store.Requests().UpdateStatus(ctx, "r-2", domain.RequestApproved); err != nil {
		t.Fatalf("UpdateStatus failed: %v", err)
	}
	if err := store.Requests().UpdateStatus(ctx, "r-3", domain.RequestCancelled); err != nil {
		t.Fatalf("UpdateStatus failed: %v", err)
	}

	open, err := store.Requests().ListByStatus(ctx, domain.RequestPending, domain.RequestApproved)
	if err != nil {
		t.Fatalf("ListByStatus failed: %v", err)
	}
	if len(open) != 2 {
		t.Errorf("got %d open requests, want 2", len(open))
	}

	all, _ := store.Requests().ListByStatus(ctx)
	if len(all) != 3 {
		t.Errorf("got %d requests, want 3", len(all))
	}

	err = store.Requests().UpdateStatus(ctx, "nonexistent", domain.RequestApproved)
	if !errors.Is(err, domain.ErrRequestNotFound) {
		t.Errorf("expected ErrRequestNotFound, got %v", err)
	}
}
