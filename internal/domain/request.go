package domain

import "time"

// Urgency is the ordered priority of a blood request.
type Urgency string

const (
	UrgencyLow      Urgency = "low"
	UrgencyMedium   Urgency = "medium"
	UrgencyHigh     Urgency = "high"
	UrgencyCritical Urgency = "critical"
)

var urgencyRank = map[Urgency]int{
	UrgencyLow:      0,
	UrgencyMedium:   1,
	UrgencyHigh:     2,
	UrgencyCritical: 3,
}

// Valid reports whether u is a known urgency level.
func (u Urgency) Valid() bool {
	_, ok := urgencyRank[u]
	return ok
}

// AtLeast reports whether u is as urgent as other or more.
func (u Urgency) AtLeast(other Urgency) bool {
	return urgencyRank[u] >= urgencyRank[other]
}

// RequestStatus is the lifecycle state of a blood request.
type RequestStatus string

const (
	RequestPending   RequestStatus = "pending"
	RequestApproved  RequestStatus = "approved"
	RequestFulfilled RequestStatus = "fulfilled"
	RequestCancelled RequestStatus = "cancelled"
)

// Terminal reports whether no further transition is allowed.
func (s RequestStatus) Terminal() bool {
	return s == RequestFulfilled || s == RequestCancelled
}

// RequestEvent triggers a request status change.
type RequestEvent string

const (
	RequestEventApprove RequestEvent = "approve"
	RequestEventRevert  RequestEvent = "revert"
	RequestEventFulfill RequestEvent = "fulfill"
	RequestEventCancel  RequestEvent = "cancel"
)

// RequestTransitions defines every valid request status change.
// Only pending and approved may move back and forth.
var RequestTransitions = []Transition[RequestStatus, RequestEvent]{
	{Event: RequestEventApprove, Src: RequestPending, Dst: RequestApproved},
	{Event: RequestEventRevert, Src: RequestApproved, Dst: RequestPending},
	{Event: RequestEventFulfill, Src: RequestPending, Dst: RequestFulfilled},
	{Event: RequestEventFulfill, Src: RequestApproved, Dst: RequestFulfilled},
	{Event: RequestEventCancel, Src: RequestPending, Dst: RequestCancelled},
	{Event: RequestEventCancel, Src: RequestApproved, Dst: RequestCancelled},
}

// BloodRequest asks for units of a given blood type at a hospital.
type BloodRequest struct {
	ID              string
	PatientName     string
	BloodType       BloodType
	UnitsNeeded     int
	Urgency         Urgency
	Status          RequestStatus
	HospitalName    string
	HospitalAddress string
	ContactNumber   string
	RequiredBy      time.Time
	CreatedAt       time.Time
}

// NewBloodRequest creates a pending request.
func NewBloodRequest(id string, bloodType BloodType, units int, urgency Urgency) BloodRequest {
	return BloodRequest{
		ID:          id,
		BloodType:   bloodType,
		UnitsNeeded: units,
		Urgency:     urgency,
		Status:      RequestPending,
		CreatedAt:   time.Now().UTC(),
	}
}

// Validate checks the fields a request must carry before it is stored.
func (r BloodRequest) Validate() error {
	if !r.BloodType.Valid() {
		return &InvalidBloodTypeError{Value: string(r.BloodType)}
	}
	if r.UnitsNeeded <= 0 {
		return &ValidationError{Field: "units_needed", Message: "must be positive"}
	}
	if !r.Urgency.Valid() {
		return &ValidationError{Field: "urgency", Message: "unknown urgency " + string(r.Urgency)}
	}
	return nil
}

// RequestSummary is what a notification channel needs to describe a request.
type RequestSummary struct {
	RequestID     string
	BloodType     BloodType
	UnitsNeeded   int
	Urgency       Urgency
	HospitalName  string
	ContactNumber string
	RequiredBy    time.Time
}

// Summary extracts the notification view of the request.
func (r BloodRequest) Summary() RequestSummary {
	return RequestSummary{
		RequestID:     r.ID,
		BloodType:     r.BloodType,
		UnitsNeeded:   r.UnitsNeeded,
		Urgency:       r.Urgency,
		HospitalName:  r.HospitalName,
		ContactNumber: r.ContactNumber,
		RequiredBy:    r.RequiredBy,
	}
}
