package http

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/kibeterick/blood-management-fullstack/internal/app"
	"github.com/kibeterick/blood-management-fullstack/internal/domain"
)

// BloodRequestResponse is the API representation of a blood request.
type BloodRequestResponse struct {
	ID              string `json:"id" doc:"Unique identifier"`
	PatientName     string `json:"patient_name,omitempty"`
	BloodType       string `json:"blood_type"`
	UnitsNeeded     int    `json:"units_needed"`
	Urgency         string `json:"urgency"`
	Status          string `json:"status" doc:"Lifecycle state"`
	HospitalName    string `json:"hospital_name,omitempty"`
	HospitalAddress string `json:"hospital_address,omitempty"`
	ContactNumber   string `json:"contact_number,omitempty"`
	RequiredBy      string `json:"required_by,omitempty" doc:"Deadline (ISO 8601)"`
	CreatedAt       string `json:"created_at" doc:"Creation timestamp (ISO 8601)"`
}

func toBloodRequestResponse(r domain.BloodRequest) BloodRequestResponse {
	resp := BloodRequestResponse{
		ID:              r.ID,
		PatientName:     r.PatientName,
		BloodType:       string(r.BloodType),
		UnitsNeeded:     r.UnitsNeeded,
		Urgency:         string(r.Urgency),
		Status:          string(r.Status),
		HospitalName:    r.HospitalName,
		HospitalAddress: r.HospitalAddress,
		ContactNumber:   r.ContactNumber,
		CreatedAt:       r.CreatedAt.Format(timeFormat),
	}
	if !r.RequiredBy.IsZero() {
		resp.RequiredBy = r.RequiredBy.Format(timeFormat)
	}
	return resp
}

// --- Create Request ---

type CreateRequestInput struct {
	Body struct {
		PatientName     string    `json:"patient_name,omitempty" maxLength:"200"`
		BloodType       string    `json:"blood_type" enum:"A+,A-,B+,B-,AB+,AB-,O+,O-"`
		UnitsNeeded     int       `json:"units_needed" minimum:"1" doc:"Units of blood required"`
		Urgency         string    `json:"urgency" enum:"low,medium,high,critical"`
		HospitalName    string    `json:"hospital_name,omitempty"`
		HospitalAddress string    `json:"hospital_address,omitempty" doc:"Matched against donor city and state for proximity"`
		ContactNumber   string    `json:"contact_number,omitempty"`
		RequiredBy      time.Time `json:"required_by,omitempty" required:"false"`
	}
}

type BloodRequestOutput struct {
	Body BloodRequestResponse
}

type GetRequestInput struct {
	ID string `path:"id" doc:"Blood request ID"`
}

type ListRequestsInput struct {
	Status string `query:"status" required:"false" enum:"pending,approved,fulfilled,cancelled" doc:"Filter by status"`
}

type ListRequestsOutput struct {
	Body []BloodRequestResponse
}

type RequestTransitionInput struct {
	ID   string `path:"id" doc:"Blood request ID"`
	Body struct {
		Event string `json:"event" doc:"Lifecycle event to trigger" enum:"approve,revert,fulfill,cancel"`
	}
}

func registerRequests(api huma.API, svc *app.RequestService) {
	huma.Register(api, huma.Operation{
		OperationID: "create-request",
		Method:      http.MethodPost,
		Path:        "/api/v1/requests",
		Summary:     "Create a blood request",
		Tags:        []string{"Requests"},
	}, func(ctx context.Context, input *CreateRequestInput) (*BloodRequestOutput, error) {
		req, err := svc.Create(ctx, app.NewRequest{
			PatientName:     input.Body.PatientName,
			BloodType:       domain.BloodType(input.Body.BloodType),
			UnitsNeeded:     input.Body.UnitsNeeded,
			Urgency:         domain.Urgency(input.Body.Urgency),
			HospitalName:    input.Body.HospitalName,
			HospitalAddress: input.Body.HospitalAddress,
			ContactNumber:   input.Body.ContactNumber,
			RequiredBy:      input.Body.RequiredBy,
		})
		if err != nil {
			return nil, toHumaError(err)
		}
		return &BloodRequestOutput{Body: toBloodRequestResponse(req)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-request",
		Method:      http.MethodGet,
		Path:        "/api/v1/requests/{id}",
		Summary:     "Get a blood request by ID",
		Tags:        []string{"Requests"},
	}, func(ctx context.Context, input *GetRequestInput) (*BloodRequestOutput, error) {
		req, err := svc.Get(ctx, input.ID)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &BloodRequestOutput{Body: toBloodRequestResponse(req)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-requests",
		Method:      http.MethodGet,
		Path:        "/api/v1/requests",
		Summary:     "List blood requests",
		Tags:        []string{"Requests"},
	}, func(ctx context.Context, input *ListRequestsInput) (*ListRequestsOutput, error) {
		var statuses []domain.RequestStatus
		if input.Status != "" {
			statuses = append(statuses, domain.RequestStatus(input.Status))
		}

		reqs, err := svc.List(ctx, statuses...)
		if err != nil {
			return nil, toHumaError(err)
		}

		resp := make([]BloodRequestResponse, len(reqs))
		for i, r := range reqs {
			resp[i] = toBloodRequestResponse(r)
		}
		return &ListRequestsOutput{Body: resp}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "transition-request",
		Method:      http.MethodPost,
		Path:        "/api/v1/requests/{id}/events",
		Summary:     "Trigger a lifecycle event",
		Tags:        []string{"Requests"},
	}, func(ctx context.Context, input *RequestTransitionInput) (*BloodRequestOutput, error) {
		req, err := svc.Transition(ctx, input.ID, domain.RequestEvent(input.Body.Event))
		if err != nil {
			return nil, toHumaError(err)
		}
		return &BloodRequestOutput{Body: toBloodRequestResponse(req)}, nil
	})
}
