package domain_test

import (
	"strings"
	"testing"
	"time"

	"github.com/kibeterick/blood-management-fullstack/internal/domain"
)

var today = time.Date(2026, time.March, 10, 9, 30, 0, 0, time.UTC)

func daysAgo(n int) *time.Time {
	d := domain.AddDays(today, -n)
	return &d
}

func yearsAgo(n int) *time.Time {
	d := today.AddDate(-n, 0, 0)
	return &d
}

func eligibleDonor(id string, bt domain.BloodType) domain.Donor {
	d := domain.NewDonor(id, "Donor", id, bt)
	d.DateOfBirth = yearsAgo(30)
	return d
}

func TestCheckEligibility_NeverDonated(t *testing.T) {
	d := domain.NewDonor("d-1", "Amina", "Otieno", domain.ONeg)

	res := domain.CheckEligibility(d, today)
	if !res.Eligible {
		t.Fatalf("expected eligible, got %q", res.Reason)
	}
	if res.Reason != "Eligible to donate" {
		t.Errorf("Reason = %q, want %q", res.Reason, "Eligible to donate")
	}
	if res.NextEligibleDate != nil {
		t.Errorf("NextEligibleDate = %v, want nil", res.NextEligibleDate)
	}
}

func TestCheckEligibility_Unavailable(t *testing.T) {
	d := eligibleDonor("d-1", domain.APos)
	d.IsAvailable = false
	d.LastDonationDate = daysAgo(3)

	res := domain.CheckEligibility(d, today)
	if res.Eligible {
		t.Fatal("expected ineligible")
	}
	if !strings.Contains(res.Reason, "marked as unavailable") {
		t.Errorf("Reason = %q, should mention unavailability first", res.Reason)
	}
	if res.NextEligibleDate != nil {
		t.Error("availability failure should short-circuit before cooldown")
	}
}

func TestCheckEligibility_Cooldown(t *testing.T) {
	d := eligibleDonor("d-1", domain.APos)
	d.LastDonationDate = daysAgo(30)

	res := domain.CheckEligibility(d, today)
	if res.Eligible {
		t.Fatal("expected ineligible")
	}
	if !strings.Contains(res.Reason, "26 more days") {
		t.Errorf("Reason = %q, want mention of 26 more days", res.Reason)
	}
	want := domain.AddDays(*d.LastDonationDate, 56)
	if res.NextEligibleDate == nil || !res.NextEligibleDate.Equal(want) {
		t.Errorf("NextEligibleDate = %v, want %v", res.NextEligibleDate, want)
	}
}

func TestCheckEligibility_CooldownBoundary(t *testing.T) {
	d := eligibleDonor("d-1", domain.APos)

	d.LastDonationDate = daysAgo(56)
	if res := domain.CheckEligibility(d, today); !res.Eligible {
		t.Errorf("56 days ago should be eligible, got %q", res.Reason)
	}

	d.LastDonationDate = daysAgo(55)
	res := domain.CheckEligibility(d, today)
	if res.Eligible {
		t.Error("55 days ago should be ineligible")
	}
	if !strings.Contains(res.Reason, "1 more days") {
		t.Errorf("Reason = %q", res.Reason)
	}
}

func TestCheckEligibility_IgnoresTimeOfDay(t *testing.T) {
	d := eligibleDonor("d-1", domain.APos)
	last := time.Date(2026, time.January, 13, 23, 59, 0, 0, time.UTC)
	d.LastDonationDate = &last

	morning := time.Date(2026, time.March, 10, 0, 1, 0, 0, time.UTC)
	if res := domain.CheckEligibility(d, morning); !res.Eligible {
		t.Errorf("exactly 56 calendar days should be eligible, got %q", res.Reason)
	}
}

func TestCheckEligibility_Age(t *testing.T) {
	cases := []struct {
		name     string
		dob      *time.Time
		eligible bool
		reason   string
	}{
		{"17 years", yearsAgo(17), false, "at least 18"},
		{"18 years", yearsAgo(18), true, "Eligible"},
		{"65 years", yearsAgo(65), true, "Eligible"},
		{"66 years", yearsAgo(66), false, "Donor must be at most 65 years old"},
		{"70 years", yearsAgo(70), false, "at most 65"},
		{"unknown", nil, true, "Eligible"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := domain.NewDonor("d-1", "A", "B", domain.BNeg)
			d.DateOfBirth = tc.dob

			res := domain.CheckEligibility(d, today)
			if res.Eligible != tc.eligible {
				t.Errorf("Eligible = %v, want %v (%q)", res.Eligible, tc.eligible, res.Reason)
			}
			if !strings.Contains(res.Reason, tc.reason) {
				t.Errorf("Reason = %q, want to contain %q", res.Reason, tc.reason)
			}
		})
	}
}

func TestCheckEligibility_Deterministic(t *testing.T) {
	d := eligibleDonor("d-1", domain.OPos)
	d.LastDonationDate = daysAgo(40)

	first := domain.CheckEligibility(d, today)
	for range 10 {
		got := domain.CheckEligibility(d, today)
		if got.Eligible != first.Eligible || got.Reason != first.Reason {
			t.Fatalf("non-deterministic result: %+v vs %+v", got, first)
		}
	}
}

func TestEligibilityPolicy_Overrides(t *testing.T) {
	policy := domain.EligibilityPolicy{CooldownDays: 84, MinAge: 17, MaxAge: 70}
	d := domain.NewDonor("d-1", "A", "B", domain.ANeg)
	d.DateOfBirth = yearsAgo(17)
	d.LastDonationDate = daysAgo(60)

	res := policy.Check(d, today)
	if res.Eligible {
		t.Fatal("60 days should be inside an 84-day cooldown")
	}
	if !strings.Contains(res.Reason, "24 more days") {
		t.Errorf("Reason = %q", res.Reason)
	}

	d.LastDonationDate = daysAgo(84)
	if res := policy.Check(d, today); !res.Eligible {
		t.Errorf("expected eligible under overridden policy, got %q", res.Reason)
	}
}

func TestNextEligibleDate(t *testing.T) {
	policy := domain.DefaultPolicy()
	d := domain.NewDonor("d-1", "A", "B", domain.ANeg)

	if got := policy.NextEligibleDate(d, today); !got.Equal(domain.DateOf(today)) {
		t.Errorf("never donated: got %v, want today", got)
	}

	d.LastDonationDate = daysAgo(10)
	if got, want := policy.NextEligibleDate(d, today), domain.AddDays(today, 46); !got.Equal(want) {
		t.Errorf("cooldown: got %v, want %v", got, want)
	}

	d.LastDonationDate = daysAgo(200)
	if got := policy.NextEligibleDate(d, today); !got.Equal(domain.DateOf(today)) {
		t.Errorf("past cooldown: got %v, want today", got)
	}
}
