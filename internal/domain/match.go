package domain

import "time"

// MatchStatus is the lifecycle state of a MatchRecord.
type MatchStatus string

const (
	MatchMatched   MatchStatus = "matched"
	MatchNotified  MatchStatus = "notified"
	MatchAccepted  MatchStatus = "accepted"
	MatchDeclined  MatchStatus = "declined"
	MatchCompleted MatchStatus = "completed"
)

// Pending reports whether the donor has not answered yet.
func (s MatchStatus) Pending() bool {
	return s == MatchMatched || s == MatchNotified
}

// MatchEvent triggers a match status change.
type MatchEvent string

const (
	MatchEventNotify   MatchEvent = "notify"
	MatchEventAccept   MatchEvent = "accept"
	MatchEventDecline  MatchEvent = "decline"
	MatchEventComplete MatchEvent = "complete"
)

// Transition defines a valid state change: an event moves an entity from Src to Dst.
type Transition[S ~string, E ~string] struct {
	Event E
	Src   S
	Dst   S
}

// MatchTransitions defines all valid state changes of a match.
// A donor may answer before the notification was confirmed, so accept and
// decline are valid from matched as well as notified.
var MatchTransitions = []Transition[MatchStatus, MatchEvent]{
	{Event: MatchEventNotify, Src: MatchMatched, Dst: MatchNotified},
	{Event: MatchEventAccept, Src: MatchMatched, Dst: MatchAccepted},
	{Event: MatchEventAccept, Src: MatchNotified, Dst: MatchAccepted},
	{Event: MatchEventDecline, Src: MatchMatched, Dst: MatchDeclined},
	{Event: MatchEventDecline, Src: MatchNotified, Dst: MatchDeclined},
	{Event: MatchEventComplete, Src: MatchAccepted, Dst: MatchCompleted},
}

// MatchRecord links one blood request to one candidate donor.
// At most one exists per (RequestID, DonorID).
type MatchRecord struct {
	ID            string
	RequestID     string
	DonorID       string
	Score         int
	Status        MatchStatus
	DeclineReason string
	CreatedAt     time.Time
	NotifiedAt    *time.Time
	RespondedAt   *time.Time
	CompletedAt   *time.Time
}

// ResponseKind is a donor's answer to a match.
type ResponseKind string

const (
	ResponseAccept  ResponseKind = "accept"
	ResponseDecline ResponseKind = "decline"
)

// Event maps the answer onto the match lifecycle.
func (k ResponseKind) Event() (MatchEvent, bool) {
	switch k {
	case ResponseAccept:
		return MatchEventAccept, true
	case ResponseDecline:
		return MatchEventDecline, true
	default:
		return "", false
	}
}

// DonorResponse is the recorded answer of one donor to one request.
type DonorResponse struct {
	MatchID     string
	RequestID   string
	DonorID     string
	Response    ResponseKind
	Reason      string
	RespondedAt time.Time
}
