// Package notify implements domain.NotificationChannel over SMS, email,
// Redis Streams, MQTT and Telegram.
package notify

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kibeterick/blood-management-fullstack/internal/domain"
)

// ErrNoAddress is returned when a donor has no address on a channel.
var ErrNoAddress = errors.New("donor has no address for this channel")

// Text renders the human-readable request message.
func Text(donor domain.Donor, s domain.RequestSummary) string {
	var b strings.Builder

	if s.Urgency.AtLeast(domain.UrgencyHigh) {
		b.WriteString("URGENT BLOOD REQUEST\n\n")
	} else {
		b.WriteString("BLOOD REQUEST\n\n")
	}
	if donor.FirstName != "" {
		fmt.Fprintf(&b, "Dear %s,\n\n", donor.FirstName)
	}

	fmt.Fprintf(&b, "Blood Type: %s\n", s.BloodType)
	fmt.Fprintf(&b, "Units Needed: %d\n", s.UnitsNeeded)
	if s.HospitalName != "" {
		fmt.Fprintf(&b, "Hospital: %s\n", s.HospitalName)
	}
	if s.ContactNumber != "" {
		fmt.Fprintf(&b, "Contact: %s\n", s.ContactNumber)
	}
	if !s.RequiredBy.IsZero() {
		fmt.Fprintf(&b, "Needed By: %s\n", s.RequiredBy.Format("Jan 02, 2006"))
	}

	b.WriteString("\nYour donation can save a life!")
	return b.String()
}

// Payload is the machine-readable form published to streams and brokers.
type Payload struct {
	RequestID     string     `json:"request_id"`
	DonorID       string     `json:"donor_id"`
	BloodType     string     `json:"blood_type"`
	UnitsNeeded   int        `json:"units_needed"`
	Urgency       string     `json:"urgency"`
	HospitalName  string     `json:"hospital_name,omitempty"`
	ContactNumber string     `json:"contact_number,omitempty"`
	RequiredBy    *time.Time `json:"required_by,omitempty"`
	Message       string     `json:"message"`
}

// NewPayload builds the payload for one donor.
func NewPayload(donor domain.Donor, s domain.RequestSummary) Payload {
	p := Payload{
		RequestID:     s.RequestID,
		DonorID:       donor.ID,
		BloodType:     string(s.BloodType),
		UnitsNeeded:   s.UnitsNeeded,
		Urgency:       string(s.Urgency),
		HospitalName:  s.HospitalName,
		ContactNumber: s.ContactNumber,
		Message:       Text(donor, s),
	}
	if !s.RequiredBy.IsZero() {
		t := s.RequiredBy.UTC()
		p.RequiredBy = &t
	}
	return p
}

func (p Payload) encode() ([]byte, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encoding payload: %w", err)
	}
	return data, nil
}
