package domain

import (
	"slices"
	"testing"
	"time"
)

func TestCompareCandidates_ExactMatchBeatsHigherScore(t *testing.T) {
	exact := RankedCandidate{Donor: Donor{ID: "b"}, Score: 10, ExactMatch: true}
	better := RankedCandidate{Donor: Donor{ID: "a"}, Score: 99}

	got := []RankedCandidate{better, exact}
	slices.SortStableFunc(got, compareCandidates)

	if got[0].Donor.ID != "b" {
		t.Errorf("first = %q, want exact match %q", got[0].Donor.ID, "b")
	}
}

func TestCompareCandidates_IDBreaksFullTie(t *testing.T) {
	when := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	a := RankedCandidate{Donor: Donor{ID: "a", LastDonationDate: &when}, Score: 60}
	b := RankedCandidate{Donor: Donor{ID: "b", LastDonationDate: &when}, Score: 60}

	if compareCandidates(a, b) >= 0 || compareCandidates(b, a) <= 0 {
		t.Error("identical candidates should be ordered by donor ID")
	}
}
