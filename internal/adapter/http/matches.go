package http

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/kibeterick/blood-management-fullstack/internal/app"
	"github.com/kibeterick/blood-management-fullstack/internal/domain"
)

// MatchResponse is the API representation of a match record.
type MatchResponse struct {
	ID            string `json:"id"`
	RequestID     string `json:"request_id"`
	DonorID       string `json:"donor_id"`
	Score         int    `json:"score" doc:"Ranking score, 0 to 100"`
	Status        string `json:"status" doc:"Lifecycle state"`
	DeclineReason string `json:"decline_reason,omitempty"`
	CreatedAt     string `json:"created_at"`
	NotifiedAt    string `json:"notified_at,omitempty"`
	RespondedAt   string `json:"responded_at,omitempty"`
	CompletedAt   string `json:"completed_at,omitempty"`
}

func toMatchResponse(m domain.MatchRecord) MatchResponse {
	return MatchResponse{
		ID:            m.ID,
		RequestID:     m.RequestID,
		DonorID:       m.DonorID,
		Score:         m.Score,
		Status:        string(m.Status),
		DeclineReason: m.DeclineReason,
		CreatedAt:     m.CreatedAt.Format(timeFormat),
		NotifiedAt:    formatOptional(m.NotifiedAt, timeFormat),
		RespondedAt:   formatOptional(m.RespondedAt, timeFormat),
		CompletedAt:   formatOptional(m.CompletedAt, dateFormat),
	}
}

func toMatchResponses(matches []domain.MatchRecord) []MatchResponse {
	resp := make([]MatchResponse, len(matches))
	for i, m := range matches {
		resp[i] = toMatchResponse(m)
	}
	return resp
}

// --- Candidates ---

type CandidateResponse struct {
	DonorID    string `json:"donor_id"`
	Name       string `json:"name"`
	BloodType  string `json:"blood_type"`
	Score      int    `json:"score"`
	Proximity  int    `json:"proximity"`
	ExactMatch bool   `json:"exact_match"`
}

type IneligibleResponse struct {
	DonorID string `json:"donor_id"`
	Reason  string `json:"reason"`
}

type CandidatesOutput struct {
	Body struct {
		RequestID       string               `json:"request_id"`
		CompatibleTypes []string             `json:"compatible_types"`
		Candidates      []CandidateResponse  `json:"candidates"`
		Ineligible      []IneligibleResponse `json:"ineligible"`
	}
}

// --- Matching run ---

type DispatchFailure struct {
	MatchID string `json:"match_id"`
	DonorID string `json:"donor_id"`
	Error   string `json:"error"`
}

type NotifySummary struct {
	Sent     int               `json:"sent"`
	Failed   int               `json:"failed"`
	Skipped  int               `json:"skipped"`
	Failures []DispatchFailure `json:"failures,omitempty"`
	Message  string            `json:"message"`
}

func toNotifySummary(r app.NotifyResult) NotifySummary {
	s := NotifySummary{
		Sent:    r.Sent,
		Failed:  r.Failed,
		Skipped: r.Skipped,
		Message: r.Message(),
	}
	for _, e := range r.Errors {
		s.Failures = append(s.Failures, DispatchFailure{
			MatchID: e.MatchID,
			DonorID: e.DonorID,
			Error:   e.Err.Error(),
		})
	}
	return s
}

type MatchingOutput struct {
	Body struct {
		RequestID     string          `json:"request_id"`
		Created       int             `json:"created" doc:"Matches created by this run"`
		Matches       []MatchResponse `json:"matches"`
		Message       string          `json:"message"`
		Notifications NotifySummary   `json:"notifications"`
	}
}

type ReminderOutput struct {
	Body NotifySummary
}

type RequestIDInput struct {
	ID string `path:"id" doc:"Blood request ID"`
}

type ListMatchesOutput struct {
	Body []MatchResponse
}

// --- Responses ---

type DonorResponseView struct {
	MatchID     string `json:"match_id"`
	DonorID     string `json:"donor_id"`
	Response    string `json:"response"`
	Reason      string `json:"reason,omitempty"`
	RespondedAt string `json:"responded_at"`
}

type ListResponsesOutput struct {
	Body []DonorResponseView
}

type RespondInput struct {
	ID   string `path:"id" doc:"Match ID"`
	Body struct {
		Response string `json:"response" enum:"accept,decline"`
		Reason   string `json:"reason,omitempty" maxLength:"500"`
	}
}

type CompleteInput struct {
	ID   string `path:"id" doc:"Match ID"`
	Body struct {
		DonationDate string `json:"donation_date,omitempty" doc:"YYYY-MM-DD, defaults to today"`
	}
}

type MatchOutput struct {
	Body MatchResponse
}

// --- Statistics ---

type StatisticsOutput struct {
	Body domain.Statistics
}

func registerMatching(api huma.API, matching *app.MatchingService, responses *app.ResponseService) {
	huma.Register(api, huma.Operation{
		OperationID: "list-candidates",
		Method:      http.MethodGet,
		Path:        "/api/v1/requests/{id}/candidates",
		Summary:     "Rank eligible donors without creating matches",
		Tags:        []string{"Matching"},
	}, func(ctx context.Context, input *RequestIDInput) (*CandidatesOutput, error) {
		req, ranked, err := matching.Preview(ctx, input.ID)
		if err != nil {
			return nil, toHumaError(err)
		}

		out := &CandidatesOutput{}
		out.Body.RequestID = req.ID
		out.Body.CompatibleTypes = make([]string, len(ranked.CompatibleTypes))
		for i, t := range ranked.CompatibleTypes {
			out.Body.CompatibleTypes[i] = string(t)
		}
		out.Body.Candidates = make([]CandidateResponse, len(ranked.Candidates))
		for i, c := range ranked.Candidates {
			out.Body.Candidates[i] = CandidateResponse{
				DonorID:    c.Donor.ID,
				Name:       c.Donor.FullName(),
				BloodType:  string(c.Donor.BloodType),
				Score:      c.Score,
				Proximity:  c.Proximity,
				ExactMatch: c.ExactMatch,
			}
		}
		out.Body.Ineligible = make([]IneligibleResponse, len(ranked.Ineligible))
		for i, d := range ranked.Ineligible {
			out.Body.Ineligible[i] = IneligibleResponse{DonorID: d.Donor.ID, Reason: d.Reason}
		}
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "run-matching",
		Method:      http.MethodPost,
		Path:        "/api/v1/requests/{id}/matching",
		Summary:     "Match eligible donors and notify them",
		Tags:        []string{"Matching"},
	}, func(ctx context.Context, input *RequestIDInput) (*MatchingOutput, error) {
		run, notified, err := matching.Process(ctx, input.ID)
		if err != nil {
			return nil, toHumaError(err)
		}

		out := &MatchingOutput{}
		out.Body.RequestID = input.ID
		out.Body.Created = len(run.Created)
		out.Body.Matches = toMatchResponses(run.Matches())
		out.Body.Message = run.Message()
		out.Body.Notifications = toNotifySummary(notified)
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "send-reminders",
		Method:      http.MethodPost,
		Path:        "/api/v1/requests/{id}/reminders",
		Summary:     "Remind notified donors who have not answered",
		Tags:        []string{"Matching"},
	}, func(ctx context.Context, input *RequestIDInput) (*ReminderOutput, error) {
		res, err := matching.Remind(ctx, input.ID)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &ReminderOutput{Body: toNotifySummary(res)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-matches",
		Method:      http.MethodGet,
		Path:        "/api/v1/requests/{id}/matches",
		Summary:     "List matches of a request",
		Tags:        []string{"Matching"},
	}, func(ctx context.Context, input *RequestIDInput) (*ListMatchesOutput, error) {
		matches, err := matching.Matches(ctx, input.ID)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &ListMatchesOutput{Body: toMatchResponses(matches)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-responses",
		Method:      http.MethodGet,
		Path:        "/api/v1/requests/{id}/responses",
		Summary:     "List donor responses to a request",
		Tags:        []string{"Responses"},
	}, func(ctx context.Context, input *RequestIDInput) (*ListResponsesOutput, error) {
		list, err := responses.Responses(ctx, input.ID)
		if err != nil {
			return nil, toHumaError(err)
		}
		views := make([]DonorResponseView, len(list))
		for i, r := range list {
			views[i] = DonorResponseView{
				MatchID:     r.MatchID,
				DonorID:     r.DonorID,
				Response:    string(r.Response),
				Reason:      r.Reason,
				RespondedAt: r.RespondedAt.Format(timeFormat),
			}
		}
		return &ListResponsesOutput{Body: views}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "request-statistics",
		Method:      http.MethodGet,
		Path:        "/api/v1/requests/{id}/statistics",
		Summary:     "Response statistics of a request",
		Tags:        []string{"Responses"},
	}, func(ctx context.Context, input *RequestIDInput) (*StatisticsOutput, error) {
		stats, err := responses.Statistics(ctx, input.ID)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &StatisticsOutput{Body: stats}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "statistics",
		Method:      http.MethodGet,
		Path:        "/api/v1/statistics",
		Summary:     "Response statistics across all requests",
		Tags:        []string{"Responses"},
	}, func(ctx context.Context, _ *struct{}) (*StatisticsOutput, error) {
		stats, err := responses.Statistics(ctx, "")
		if err != nil {
			return nil, toHumaError(err)
		}
		return &StatisticsOutput{Body: stats}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "record-response",
		Method:      http.MethodPost,
		Path:        "/api/v1/matches/{id}/response",
		Summary:     "Record a donor's accept or decline",
		Tags:        []string{"Responses"},
	}, func(ctx context.Context, input *RespondInput) (*MatchOutput, error) {
		m, err := responses.RecordResponse(ctx, input.ID, domain.ResponseKind(input.Body.Response), input.Body.Reason, time.Now())
		if err != nil {
			return nil, toHumaError(err)
		}
		return &MatchOutput{Body: toMatchResponse(m)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "complete-donation",
		Method:      http.MethodPost,
		Path:        "/api/v1/matches/{id}/complete",
		Summary:     "Mark an accepted match as donated",
		Tags:        []string{"Responses"},
	}, func(ctx context.Context, input *CompleteInput) (*MatchOutput, error) {
		date := time.Now().UTC()
		if input.Body.DonationDate != "" {
			parsed, err := parseOptionalDate("donation_date", input.Body.DonationDate)
			if err != nil {
				return nil, toHumaError(err)
			}
			date = *parsed
		}

		m, err := responses.MarkCompleted(ctx, input.ID, date)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &MatchOutput{Body: toMatchResponse(m)}, nil
	})
}
