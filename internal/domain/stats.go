package domain

import "time"

// Statistics summarizes donor responses across match records.
type Statistics struct {
	Total          int     `json:"total"`
	Accepted       int     `json:"accepted"`
	Declined       int     `json:"declined"`
	Pending        int     `json:"pending"`
	Completed      int     `json:"completed"`
	AcceptanceRate float64 `json:"acceptance_rate"`
}

// ComputeStatistics aggregates matches. Pending counts matched and notified
// records; AcceptanceRate is Accepted/Total and 0 when there are no records.
func ComputeStatistics(matches []MatchRecord) Statistics {
	var s Statistics
	for _, m := range matches {
		s.Total++
		switch m.Status {
		case MatchAccepted:
			s.Accepted++
		case MatchDeclined:
			s.Declined++
		case MatchCompleted:
			s.Completed++
		case MatchMatched, MatchNotified:
			s.Pending++
		}
	}
	if s.Total > 0 {
		s.AcceptanceRate = float64(s.Accepted) / float64(s.Total)
	}
	return s
}

// PoolStatistics describes the registered donor pool as of one day.
// ByBloodType counts available donors and always lists all eight groups.
type PoolStatistics struct {
	TotalDonors     int               `json:"total_donors"`
	AvailableDonors int               `json:"available_donors"`
	EligibleDonors  int               `json:"eligible_donors"`
	ByBloodType     map[BloodType]int `json:"blood_type_distribution"`
}

// ComputePoolStatistics counts donors, available donors and donors who pass
// policy on today.
func ComputePoolStatistics(donors []Donor, policy EligibilityPolicy, today time.Time) PoolStatistics {
	s := PoolStatistics{ByBloodType: make(map[BloodType]int, len(BloodTypes))}
	for _, bt := range BloodTypes {
		s.ByBloodType[bt] = 0
	}

	for _, d := range donors {
		s.TotalDonors++
		if !d.IsAvailable {
			continue
		}
		s.AvailableDonors++
		if d.BloodType.Valid() {
			s.ByBloodType[d.BloodType]++
		}
		if policy.Check(d, today).Eligible {
			s.EligibleDonors++
		}
	}
	return s
}
