package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for simple conditions without extra context.
var (
	ErrDonorNotFound   = errors.New("donor not found")
	ErrRequestNotFound = errors.New("blood request not found")
	ErrMatchNotFound   = errors.New("match not found")

	// ErrStaleMatch means the match changed between read and write.
	ErrStaleMatch = errors.New("match was modified concurrently")

	// ErrDonorUnreachable means no notification route could reach the donor,
	// either for lack of an address or because every route was gated off.
	ErrDonorUnreachable = errors.New("donor unreachable on any channel")
)

// IsNotFound reports whether err refers to a missing donor, request or match.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrDonorNotFound) ||
		errors.Is(err, ErrRequestNotFound) ||
		errors.Is(err, ErrMatchNotFound)
}

// TransitionError is returned when a state transition is not allowed.
type TransitionError struct {
	Entity  string
	Event   string
	Current string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s: event %q is not valid from state %q", e.Entity, e.Event, e.Current)
}

// ValidationError is returned when the caller passes invalid input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// InvalidBloodTypeError is returned for a blood type outside the eight known groups.
type InvalidBloodTypeError struct {
	Value string
}

func (e *InvalidBloodTypeError) Error() string {
	return fmt.Sprintf("unknown blood type %q", e.Value)
}

// IsValidation reports whether err was caused by caller input or state,
// as opposed to an infrastructure failure.
func IsValidation(err error) bool {
	var (
		trErr *TransitionError
		vErr  *ValidationError
		btErr *InvalidBloodTypeError
	)
	return errors.As(err, &trErr) || errors.As(err, &vErr) || errors.As(err, &btErr)
}

// ResponseConflictError is returned when a donor already answered a request.
type ResponseConflictError struct {
	RequestID string
	DonorID   string
}

func (e *ResponseConflictError) Error() string {
	return fmt.Sprintf("donor %q already responded to request %q", e.DonorID, e.RequestID)
}

// DispatchError records a failed notification to a single donor.
type DispatchError struct {
	MatchID string
	DonorID string
	Err     error
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("notifying donor %q for match %q: %v", e.DonorID, e.MatchID, e.Err)
}

func (e *DispatchError) Unwrap() error {
	return e.Err
}
