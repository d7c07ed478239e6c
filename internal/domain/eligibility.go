package domain

import (
	"fmt"
	"time"
)

// Medical policy defaults.
const (
	DefaultCooldownDays = 56
	DefaultMinAge       = 18
	DefaultMaxAge       = 65
)

// ReasonEligible is reported for donors who may donate today.
const ReasonEligible = "Eligible to donate"

// EligibilityPolicy holds the rules deciding whether a donor may donate.
type EligibilityPolicy struct {
	CooldownDays int
	MinAge       int
	MaxAge       int
}

// DefaultPolicy is the standard 56-day / 18-65 policy.
func DefaultPolicy() EligibilityPolicy {
	return EligibilityPolicy{
		CooldownDays: DefaultCooldownDays,
		MinAge:       DefaultMinAge,
		MaxAge:       DefaultMaxAge,
	}
}

// EligibilityResult is the outcome of an eligibility check.
// NextEligibleDate is set only when the donor is inside the cooldown window.
type EligibilityResult struct {
	Eligible         bool
	Reason           string
	NextEligibleDate *time.Time
}

// Check applies the rules in order and returns on the first failure:
// availability, donation cooldown, then age bounds.
func (p EligibilityPolicy) Check(d Donor, today time.Time) EligibilityResult {
	if !d.IsAvailable {
		return EligibilityResult{Reason: "Donor marked as unavailable"}
	}

	if d.LastDonationDate != nil {
		since := DaysBetween(*d.LastDonationDate, today)
		if since < p.CooldownDays {
			next := AddDays(*d.LastDonationDate, p.CooldownDays)
			return EligibilityResult{
				Reason:           fmt.Sprintf("Must wait %d more days since last donation", p.CooldownDays-since),
				NextEligibleDate: &next,
			}
		}
	}

	if d.DateOfBirth != nil {
		age := DaysBetween(*d.DateOfBirth, today) / 365
		if age < p.MinAge {
			return EligibilityResult{Reason: fmt.Sprintf("Donor must be at least %d years old", p.MinAge)}
		}
		if age > p.MaxAge {
			return EligibilityResult{Reason: fmt.Sprintf("Donor must be at most %d years old", p.MaxAge)}
		}
	}

	return EligibilityResult{Eligible: true, Reason: ReasonEligible}
}

// NextEligibleDate returns the first date the donor clears the cooldown.
// Donors who never donated, or whose cooldown already ended, get today.
func (p EligibilityPolicy) NextEligibleDate(d Donor, today time.Time) time.Time {
	if d.LastDonationDate == nil {
		return DateOf(today)
	}
	next := AddDays(*d.LastDonationDate, p.CooldownDays)
	if next.Before(DateOf(today)) {
		return DateOf(today)
	}
	return next
}

// CheckEligibility evaluates d against the default policy.
func CheckEligibility(d Donor, today time.Time) EligibilityResult {
	return DefaultPolicy().Check(d, today)
}
