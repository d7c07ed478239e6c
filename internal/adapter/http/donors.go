package http

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/kibeterick/blood-management-fullstack/internal/app"
	"github.com/kibeterick/blood-management-fullstack/internal/domain"
)

// DonorResponse is the API representation of a donor.
type DonorResponse struct {
	ID               string `json:"id" doc:"Unique identifier"`
	FirstName        string `json:"first_name"`
	LastName         string `json:"last_name,omitempty"`
	Email            string `json:"email,omitempty"`
	Phone            string `json:"phone,omitempty"`
	TelegramChatID   int64  `json:"telegram_chat_id,omitempty"`
	BloodType        string `json:"blood_type" doc:"ABO/Rh type"`
	DateOfBirth      string `json:"date_of_birth,omitempty" doc:"YYYY-MM-DD"`
	City             string `json:"city,omitempty"`
	State            string `json:"state,omitempty"`
	IsAvailable      bool   `json:"is_available"`
	LastDonationDate string `json:"last_donation_date,omitempty" doc:"YYYY-MM-DD"`
	CreatedAt        string `json:"created_at" doc:"Creation timestamp (ISO 8601)"`
}

func toDonorResponse(d domain.Donor) DonorResponse {
	return DonorResponse{
		ID:               d.ID,
		FirstName:        d.FirstName,
		LastName:         d.LastName,
		Email:            d.Email,
		Phone:            d.Phone,
		TelegramChatID:   d.TelegramChatID,
		BloodType:        string(d.BloodType),
		DateOfBirth:      formatOptional(d.DateOfBirth, dateFormat),
		City:             d.City,
		State:            d.State,
		IsAvailable:      d.IsAvailable,
		LastDonationDate: formatOptional(d.LastDonationDate, dateFormat),
		CreatedAt:        d.CreatedAt.Format(timeFormat),
	}
}

// --- Register Donor ---

type RegisterDonorInput struct {
	Body struct {
		FirstName        string `json:"first_name" minLength:"1" maxLength:"100"`
		LastName         string `json:"last_name,omitempty" maxLength:"100"`
		Email            string `json:"email,omitempty"`
		Phone            string `json:"phone,omitempty"`
		TelegramChatID   int64  `json:"telegram_chat_id,omitempty"`
		BloodType        string `json:"blood_type" enum:"A+,A-,B+,B-,AB+,AB-,O+,O-"`
		DateOfBirth      string `json:"date_of_birth,omitempty" doc:"YYYY-MM-DD"`
		City             string `json:"city,omitempty"`
		State            string `json:"state,omitempty"`
		LastDonationDate string `json:"last_donation_date,omitempty" doc:"YYYY-MM-DD"`
		Unavailable      bool   `json:"unavailable,omitempty" doc:"Register as temporarily unavailable"`
	}
}

type DonorOutput struct {
	Body DonorResponse
}

type GetDonorInput struct {
	ID string `path:"id" doc:"Donor ID"`
}

// --- Eligibility ---

type EligibilityResponse struct {
	DonorID          string `json:"donor_id"`
	Eligible         bool   `json:"eligible"`
	Reason           string `json:"reason"`
	NextEligibleDate string `json:"next_eligible_date" doc:"First date the donor may donate (YYYY-MM-DD)"`
}

type EligibilityOutput struct {
	Body EligibilityResponse
}

// --- Pool statistics ---

type PoolStatisticsResponse struct {
	TotalDonors     int            `json:"total_donors"`
	AvailableDonors int            `json:"available_donors"`
	EligibleDonors  int            `json:"eligible_donors" doc:"Available donors who may donate today"`
	ByBloodType     map[string]int `json:"blood_type_distribution" doc:"Available donors per blood type"`
}

type PoolStatisticsOutput struct {
	Body PoolStatisticsResponse
}

func registerDonors(api huma.API, svc *app.DonorService) {
	huma.Register(api, huma.Operation{
		OperationID: "register-donor",
		Method:      http.MethodPost,
		Path:        "/api/v1/donors",
		Summary:     "Register a donor",
		Tags:        []string{"Donors"},
	}, func(ctx context.Context, input *RegisterDonorInput) (*DonorOutput, error) {
		dob, err := parseOptionalDate("date_of_birth", input.Body.DateOfBirth)
		if err != nil {
			return nil, toHumaError(err)
		}
		last, err := parseOptionalDate("last_donation_date", input.Body.LastDonationDate)
		if err != nil {
			return nil, toHumaError(err)
		}

		donor, err := svc.Register(ctx, app.NewDonorInput{
			FirstName:        input.Body.FirstName,
			LastName:         input.Body.LastName,
			Email:            input.Body.Email,
			Phone:            input.Body.Phone,
			TelegramChatID:   input.Body.TelegramChatID,
			BloodType:        domain.BloodType(input.Body.BloodType),
			DateOfBirth:      dob,
			City:             input.Body.City,
			State:            input.Body.State,
			LastDonationDate: last,
			Unavailable:      input.Body.Unavailable,
		})
		if err != nil {
			return nil, toHumaError(err)
		}
		return &DonorOutput{Body: toDonorResponse(donor)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-donor-pool-statistics",
		Method:      http.MethodGet,
		Path:        "/api/v1/donors/statistics",
		Summary:     "Summarize the donor pool",
		Tags:        []string{"Donors"},
	}, func(ctx context.Context, _ *struct{}) (*PoolStatisticsOutput, error) {
		stats, err := svc.PoolStatistics(ctx)
		if err != nil {
			return nil, toHumaError(err)
		}
		byType := make(map[string]int, len(stats.ByBloodType))
		for bt, n := range stats.ByBloodType {
			byType[string(bt)] = n
		}
		return &PoolStatisticsOutput{Body: PoolStatisticsResponse{
			TotalDonors:     stats.TotalDonors,
			AvailableDonors: stats.AvailableDonors,
			EligibleDonors:  stats.EligibleDonors,
			ByBloodType:     byType,
		}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-donor",
		Method:      http.MethodGet,
		Path:        "/api/v1/donors/{id}",
		Summary:     "Get a donor by ID",
		Tags:        []string{"Donors"},
	}, func(ctx context.Context, input *GetDonorInput) (*DonorOutput, error) {
		donor, err := svc.Get(ctx, input.ID)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &DonorOutput{Body: toDonorResponse(donor)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-donor-eligibility",
		Method:      http.MethodGet,
		Path:        "/api/v1/donors/{id}/eligibility",
		Summary:     "Check whether a donor may donate today",
		Tags:        []string{"Donors"},
	}, func(ctx context.Context, input *GetDonorInput) (*EligibilityOutput, error) {
		view, err := svc.Eligibility(ctx, input.ID)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &EligibilityOutput{Body: EligibilityResponse{
			DonorID:          view.DonorID,
			Eligible:         view.Eligible,
			Reason:           view.Reason,
			NextEligibleDate: view.NextEligible.Format(dateFormat),
		}}, nil
	})
}
