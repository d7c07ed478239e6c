package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/kibeterick/blood-management-fullstack/internal/domain"
)

// ResponseRepository implements domain.ResponseRepository using SQLite.
type ResponseRepository struct {
	db *sql.DB
}

// Record stores the answered match and the donor's response together.
// A second response from the same donor rolls the match back as well.
func (r *ResponseRepository) Record(ctx context.Context, m domain.MatchRecord, from domain.MatchStatus, resp domain.DonorResponse) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		if err := updateMatch(ctx, tx, m, from); err != nil {
			return err
		}
		return insertResponse(ctx, tx, resp)
	})
}

// Complete stores the completed match and advances the donor's last donation date.
func (r *ResponseRepository) Complete(ctx context.Context, m domain.MatchRecord, from domain.MatchStatus, donationDate time.Time) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		if err := updateMatch(ctx, tx, m, from); err != nil {
			return err
		}
		return advanceLastDonation(ctx, tx, m.DonorID, donationDate)
	})
}

func insertResponse(ctx context.Context, q querier, resp domain.DonorResponse) error {
	_, err := q.ExecContext(ctx,
		`INSERT INTO donor_responses (match_id, request_id, donor_id, response, reason, responded_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		resp.MatchID, resp.RequestID, resp.DonorID, string(resp.Response), resp.Reason,
		formatTime(resp.RespondedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return &domain.ResponseConflictError{RequestID: resp.RequestID, DonorID: resp.DonorID}
		}
		return fmt.Errorf("inserting response: %w", err)
	}
	return nil
}

// ListByRequest returns the responses for a request in the order they arrived.
func (r *ResponseRepository) ListByRequest(ctx context.Context, requestID string) ([]domain.DonorResponse, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT match_id, request_id, donor_id, response, reason, responded_at
		 FROM donor_responses WHERE request_id = ? ORDER BY id`, requestID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing responses: %w", err)
	}
	defer rows.Close()

	var responses []domain.DonorResponse
	for rows.Next() {
		var (
			resp              domain.DonorResponse
			kind, respondedAt string
		)
		if err := rows.Scan(&resp.MatchID, &resp.RequestID, &resp.DonorID, &kind, &resp.Reason, &respondedAt); err != nil {
			return nil, fmt.Errorf("scanning response row: %w", err)
		}
		resp.Response = domain.ResponseKind(kind)
		resp.RespondedAt = parseTime(respondedAt)
		responses = append(responses, resp)
	}

	return responses, rows.Err()
}

var (
	_ domain.DonorRepository    = (*DonorRepository)(nil)
	_ domain.RequestRepository  = (*RequestRepository)(nil)
	_ domain.MatchRepository    = (*MatchRepository)(nil)
	_ domain.ResponseRepository = (*ResponseRepository)(nil)
)
