package domain

import "time"

// Donor is a registered blood donor. Donors are owned by the registration
// flow; matching only reads them and asks the repository to record donations.
type Donor struct {
	ID               string
	FirstName        string
	LastName         string
	Email            string
	Phone            string
	TelegramChatID   int64
	BloodType        BloodType
	DateOfBirth      *time.Time
	City             string
	State            string
	IsAvailable      bool
	LastDonationDate *time.Time
	CreatedAt        time.Time
}

// FullName joins first and last name.
func (d Donor) FullName() string {
	if d.LastName == "" {
		return d.FirstName
	}
	return d.FirstName + " " + d.LastName
}

// NewDonor creates an available donor with no donation history.
func NewDonor(id, firstName, lastName string, bloodType BloodType) Donor {
	return Donor{
		ID:          id,
		FirstName:   firstName,
		LastName:    lastName,
		BloodType:   bloodType,
		IsAvailable: true,
		CreatedAt:   time.Now().UTC(),
	}
}

// Validate checks the fields a donor must carry before registration.
// Dates after today are rejected: a future last donation would keep the
// donor out of every pool for months.
func (d Donor) Validate(today time.Time) error {
	if d.FirstName == "" {
		return &ValidationError{Field: "first_name", Message: "must not be empty"}
	}
	if !d.BloodType.Valid() {
		return &InvalidBloodTypeError{Value: string(d.BloodType)}
	}
	if d.LastDonationDate != nil && DateOf(*d.LastDonationDate).After(DateOf(today)) {
		return &ValidationError{Field: "last_donation_date", Message: "must not be in the future"}
	}
	if d.DateOfBirth != nil && DateOf(*d.DateOfBirth).After(DateOf(today)) {
		return &ValidationError{Field: "date_of_birth", Message: "must not be in the future"}
	}
	return nil
}
