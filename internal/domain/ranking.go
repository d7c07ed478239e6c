package domain

import (
	"cmp"
	"slices"
	"strings"
	"time"
)

// Scoring weights. Scores are additive and clamped to [0, 100].
const (
	BaseScore        = 50
	ExactMatchBonus  = 30
	RecentDonorBonus = 10
	LapsedDonorMalus = 5

	// CityProximity and StateProximity are raw proximity tiers; they enter
	// the score divided by ProximityDivisor.
	CityProximity    = 100
	StateProximity   = 50
	ProximityDivisor = 10

	recentWindowDays = 90
	lapsedAfterDays  = 365

	DefaultMaxCandidates = 50
)

// RankedCandidate is an eligible, compatible donor with its ranking data.
type RankedCandidate struct {
	Donor      Donor
	Score      int
	Proximity  int
	ExactMatch bool
}

// IneligibleDonor is a compatible donor dropped by the eligibility check.
type IneligibleDonor struct {
	Donor  Donor
	Reason string
}

// RankResult is the output of a ranking pass. An empty Candidates slice is
// the normal "no eligible donors" outcome, not an error.
type RankResult struct {
	CompatibleTypes []BloodType
	Candidates      []RankedCandidate
	Ineligible      []IneligibleDonor
}

// Ranker filters a donor pool down to compatible, eligible donors and orders them.
type Ranker struct {
	Policy        EligibilityPolicy
	MaxCandidates int
}

// NewRanker returns a ranker using the given policy. A non-positive limit
// falls back to DefaultMaxCandidates.
func NewRanker(policy EligibilityPolicy, maxCandidates int) Ranker {
	if maxCandidates <= 0 {
		maxCandidates = DefaultMaxCandidates
	}
	return Ranker{Policy: policy, MaxCandidates: maxCandidates}
}

// DefaultRanker uses the default policy and candidate limit.
func DefaultRanker() Ranker {
	return NewRanker(DefaultPolicy(), DefaultMaxCandidates)
}

// Rank scores every compatible, eligible donor in pool for req as of today.
// The result depends only on its inputs.
func (r Ranker) Rank(req BloodRequest, pool []Donor, today time.Time) (RankResult, error) {
	if !req.BloodType.Valid() {
		return RankResult{}, &InvalidBloodTypeError{Value: string(req.BloodType)}
	}

	result := RankResult{CompatibleTypes: CompatibleDonorTypes(req.BloodType)}

	for _, d := range pool {
		if !slices.Contains(result.CompatibleTypes, d.BloodType) {
			continue
		}

		elig := r.Policy.Check(d, today)
		if !elig.Eligible {
			result.Ineligible = append(result.Ineligible, IneligibleDonor{Donor: d, Reason: elig.Reason})
			continue
		}

		result.Candidates = append(result.Candidates, r.score(req, d, today))
	}

	slices.SortStableFunc(result.Candidates, compareCandidates)

	limit := r.MaxCandidates
	if limit <= 0 {
		limit = DefaultMaxCandidates
	}
	if len(result.Candidates) > limit {
		result.Candidates = result.Candidates[:limit]
	}

	return result, nil
}

func (r Ranker) score(req BloodRequest, d Donor, today time.Time) RankedCandidate {
	c := RankedCandidate{
		Donor:      d,
		ExactMatch: d.BloodType == req.BloodType,
		Proximity:  ProximityScore(d, req.HospitalAddress),
	}

	score := BaseScore
	if c.ExactMatch {
		score += ExactMatchBonus
	}
	score += c.Proximity / ProximityDivisor

	if d.LastDonationDate != nil {
		since := DaysBetween(*d.LastDonationDate, today)
		switch {
		case since >= r.Policy.CooldownDays && since <= recentWindowDays:
			score += RecentDonorBonus
		case since > lapsedAfterDays:
			score -= LapsedDonorMalus
		}
	}

	c.Score = max(0, min(score, 100))
	return c
}

// ProximityScore is a placeholder for real geolocation: it checks whether
// the donor's city and state appear, case-insensitively, in the hospital
// address. Blank city or state never match.
func ProximityScore(d Donor, hospitalAddress string) int {
	addr := strings.ToLower(hospitalAddress)
	score := 0
	if city := strings.ToLower(strings.TrimSpace(d.City)); city != "" && strings.Contains(addr, city) {
		score += CityProximity
	}
	if state := strings.ToLower(strings.TrimSpace(d.State)); state != "" && strings.Contains(addr, state) {
		score += StateProximity
	}
	return score
}

// compareCandidates orders exact matches first, then higher scores, then
// donors who have waited longest since their last gift (never donated first).
// Donor ID breaks any remaining tie so the order is total.
func compareCandidates(a, b RankedCandidate) int {
	if a.ExactMatch != b.ExactMatch {
		if a.ExactMatch {
			return -1
		}
		return 1
	}
	if c := cmp.Compare(b.Score, a.Score); c != 0 {
		return c
	}
	if c := compareLastDonation(a.Donor.LastDonationDate, b.Donor.LastDonationDate); c != 0 {
		return c
	}
	return cmp.Compare(a.Donor.ID, b.Donor.ID)
}

func compareLastDonation(a, b *time.Time) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	default:
		return a.Compare(*b)
	}
}
