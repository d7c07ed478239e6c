package http

import (
	"errors"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/kibeterick/blood-management-fullstack/internal/app"
	"github.com/kibeterick/blood-management-fullstack/internal/domain"
)

const (
	timeFormat = "2006-01-02T15:04:05Z07:00"
	dateFormat = "2006-01-02"
)

// Services bundles the application services exposed over HTTP.
type Services struct {
	Donors    *app.DonorService
	Requests  *app.RequestService
	Matching  *app.MatchingService
	Responses *app.ResponseService
}

// Register adds all API routes to the Huma API.
func Register(api huma.API, svc Services) {
	registerDonors(api, svc.Donors)
	registerRequests(api, svc.Requests)
	registerMatching(api, svc.Matching, svc.Responses)
}

// toHumaError translates domain errors to Huma HTTP errors.
func toHumaError(err error) error {
	switch {
	case errors.Is(err, domain.ErrDonorNotFound):
		return huma.Error404NotFound("donor not found")
	case errors.Is(err, domain.ErrRequestNotFound):
		return huma.Error404NotFound("blood request not found")
	case errors.Is(err, domain.ErrMatchNotFound):
		return huma.Error404NotFound("match not found")
	}

	var conflict *domain.ResponseConflictError
	if errors.As(err, &conflict) {
		return huma.Error409Conflict(conflict.Error())
	}
	if errors.Is(err, domain.ErrStaleMatch) {
		return huma.Error409Conflict("match changed while the request was processed, retry")
	}

	if domain.IsValidation(err) {
		return huma.Error422UnprocessableEntity(err.Error())
	}

	return huma.Error500InternalServerError("internal server error")
}

func formatOptional(t *time.Time, layout string) string {
	if t == nil {
		return ""
	}
	return t.Format(layout)
}

func parseOptionalDate(field, s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(dateFormat, s)
	if err != nil {
		return nil, &domain.ValidationError{Field: field, Message: "expected YYYY-MM-DD"}
	}
	return &t, nil
}
