package domain_test

import (
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/kibeterick/blood-management-fullstack/internal/domain"
)

func bloodRequest(bt domain.BloodType) domain.BloodRequest {
	req := domain.NewBloodRequest("r-1", bt, 2, domain.UrgencyHigh)
	req.HospitalAddress = "Kenyatta National Hospital, Hospital Rd, Nairobi, Nairobi County"
	return req
}

func TestRank_ExactMatchOutranksScore(t *testing.T) {
	exact := eligibleDonor("exact", domain.ABPos)
	compatible := eligibleDonor("compatible", domain.ONeg)
	compatible.City = "Nairobi"
	compatible.State = "Nairobi County"
	compatible.LastDonationDate = daysAgo(60)

	res, err := domain.DefaultRanker().Rank(bloodRequest(domain.ABPos), []domain.Donor{compatible, exact}, today)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Candidates) != 2 {
		t.Fatalf("got %d candidates, want 2", len(res.Candidates))
	}
	if res.Candidates[0].Donor.ID != "exact" || !res.Candidates[0].ExactMatch {
		t.Errorf("first candidate = %q (exact=%v), want exact AB+ donor", res.Candidates[0].Donor.ID, res.Candidates[0].ExactMatch)
	}
}

func TestRank_FiltersIncompatibleAndIneligible(t *testing.T) {
	ok := eligibleDonor("ok", domain.ANeg)
	incompatible := eligibleDonor("incompatible", domain.BPos)
	cooling := eligibleDonor("cooling", domain.ONeg)
	cooling.LastDonationDate = daysAgo(10)

	res, err := domain.DefaultRanker().Rank(bloodRequest(domain.ANeg), []domain.Donor{ok, incompatible, cooling}, today)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(res.Candidates) != 1 || res.Candidates[0].Donor.ID != "ok" {
		t.Fatalf("candidates = %+v, want only ok", res.Candidates)
	}
	if len(res.Ineligible) != 1 || res.Ineligible[0].Donor.ID != "cooling" {
		t.Fatalf("ineligible = %+v, want only cooling", res.Ineligible)
	}
	if res.Ineligible[0].Reason == "" {
		t.Error("ineligible donor should carry a reason")
	}
	if !reflect.DeepEqual(res.CompatibleTypes, []domain.BloodType{domain.ANeg, domain.ONeg}) {
		t.Errorf("CompatibleTypes = %v", res.CompatibleTypes)
	}
}

func TestRank_EmptyPool(t *testing.T) {
	res, err := domain.DefaultRanker().Rank(bloodRequest(domain.OPos), nil, today)
	if err != nil {
		t.Fatalf("empty pool should not fail: %v", err)
	}
	if len(res.Candidates) != 0 {
		t.Errorf("got %d candidates, want 0", len(res.Candidates))
	}
}

func TestRank_InvalidBloodType(t *testing.T) {
	req := bloodRequest("Z+")
	_, err := domain.DefaultRanker().Rank(req, nil, today)
	var btErr *domain.InvalidBloodTypeError
	if !errors.As(err, &btErr) {
		t.Fatalf("expected InvalidBloodTypeError, got %v", err)
	}
}

func TestRank_Scores(t *testing.T) {
	cases := []struct {
		name  string
		donor func() domain.Donor
		want  int
	}{
		{"exact, no history", func() domain.Donor { return eligibleDonor("d", domain.OPos) }, 80},
		{"compatible only", func() domain.Donor { return eligibleDonor("d", domain.ONeg) }, 50},
		{"exact, city and state", func() domain.Donor {
			d := eligibleDonor("d", domain.OPos)
			d.City, d.State = "nairobi", "NAIROBI COUNTY"
			return d
		}, 95},
		{"exact, recently eligible", func() domain.Donor {
			d := eligibleDonor("d", domain.OPos)
			d.LastDonationDate = daysAgo(70)
			return d
		}, 90},
		{"compatible, lapsed", func() domain.Donor {
			d := eligibleDonor("d", domain.ONeg)
			d.LastDonationDate = daysAgo(400)
			return d
		}, 45},
		{"clamped at 100", func() domain.Donor {
			d := eligibleDonor("d", domain.OPos)
			d.City, d.State = "Nairobi", "Nairobi County"
			d.LastDonationDate = daysAgo(56)
			return d
		}, 100},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := domain.DefaultRanker().Rank(bloodRequest(domain.OPos), []domain.Donor{tc.donor()}, today)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(res.Candidates) != 1 {
				t.Fatalf("got %d candidates", len(res.Candidates))
			}
			if got := res.Candidates[0].Score; got != tc.want {
				t.Errorf("Score = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestRank_TieBreaksOnLongestWait(t *testing.T) {
	recent := eligibleDonor("recent", domain.BPos)
	recent.LastDonationDate = daysAgo(120)
	older := eligibleDonor("older", domain.BPos)
	older.LastDonationDate = daysAgo(300)
	never := eligibleDonor("never", domain.BPos)

	res, err := domain.DefaultRanker().Rank(bloodRequest(domain.BPos), []domain.Donor{recent, older, never}, today)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var got []string
	for _, c := range res.Candidates {
		got = append(got, c.Donor.ID)
	}
	want := []string{"never", "older", "recent"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("order = %v, want %v", got, want)
	}
}

func TestRank_TruncatesToMaxCandidates(t *testing.T) {
	var pool []domain.Donor
	for i := range 8 {
		pool = append(pool, eligibleDonor(fmt.Sprintf("d-%d", i), domain.ONeg))
	}

	res, err := domain.NewRanker(domain.DefaultPolicy(), 3).Rank(bloodRequest(domain.ONeg), pool, today)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Candidates) != 3 {
		t.Errorf("got %d candidates, want 3", len(res.Candidates))
	}
}

func TestRank_Deterministic(t *testing.T) {
	var pool []domain.Donor
	for i, bt := range domain.BloodTypes {
		d := eligibleDonor(fmt.Sprintf("d-%d", i), bt)
		if i%2 == 0 {
			d.LastDonationDate = daysAgo(60 + i*40)
		}
		pool = append(pool, d)
	}
	req := bloodRequest(domain.ABPos)

	first, err := domain.DefaultRanker().Rank(req, pool, today)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, _ := domain.DefaultRanker().Rank(req, pool, today)
	if !reflect.DeepEqual(first, second) {
		t.Error("ranking the same input twice gave different results")
	}
}

func TestProximityScore(t *testing.T) {
	addr := "St. Mary's, Mombasa Road, Mombasa"
	cases := []struct {
		city, state string
		want        int
	}{
		{"Mombasa", "", 100},
		{"", "mombasa", 50},
		{"MOMBASA", "Mombasa", 150},
		{"Kisumu", "Kisumu County", 0},
		{"  ", "", 0},
	}
	for _, tc := range cases {
		d := domain.Donor{City: tc.city, State: tc.state}
		if got := domain.ProximityScore(d, addr); got != tc.want {
			t.Errorf("ProximityScore(%q, %q) = %d, want %d", tc.city, tc.state, got, tc.want)
		}
	}
}
