package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/kibeterick/blood-management-fullstack/internal/domain"
)

// RequestRepository implements domain.RequestRepository using SQLite.
type RequestRepository struct {
	db *sql.DB
}

const requestColumns = `id, patient_name, blood_type, units_needed, urgency, status,
	hospital_name, hospital_address, contact_number, required_by, created_at`

func (r *RequestRepository) Create(ctx context.Context, req domain.BloodRequest) error {
	var requiredBy sql.NullString
	if !req.RequiredBy.IsZero() {
		requiredBy = sql.NullString{String: formatTime(req.RequiredBy), Valid: true}
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO blood_requests (`+requestColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		req.ID, req.PatientName, string(req.BloodType), req.UnitsNeeded, string(req.Urgency), string(req.Status),
		req.HospitalName, req.HospitalAddress, req.ContactNumber, requiredBy, formatTime(req.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting request: %w", err)
	}
	return nil
}

func (r *RequestRepository) Get(ctx context.Context, id string) (domain.BloodRequest, error) {
	req, err := scanRequest(r.db.QueryRowContext(ctx,
		`SELECT `+requestColumns+` FROM blood_requests WHERE id = ?`, id,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.BloodRequest{}, domain.ErrRequestNotFound
	}
	return req, err
}

func (r *RequestRepository) UpdateStatus(ctx context.Context, id string, status domain.RequestStatus) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE blood_requests SET status = ? WHERE id = ?`, string(status), id,
	)
	if err != nil {
		return fmt.Errorf("updating request: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		return domain.ErrRequestNotFound
	}

	return nil
}

// ListByStatus returns requests in any of the given states, oldest first.
// With no states it returns every request.
func (r *RequestRepository) ListByStatus(ctx context.Context, statuses ...domain.RequestStatus) ([]domain.BloodRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM blood_requests`
	var args []any

	if len(statuses) > 0 {
		for _, s := range statuses {
			args = append(args, string(s))
		}
		query += ` WHERE status IN (` + placeholders(len(args)) + `)`
	}

	query += ` ORDER BY created_at, id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing requests: %w", err)
	}
	defer rows.Close()

	var requests []domain.BloodRequest
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, req)
	}

	return requests, rows.Err()
}

func scanRequest(row scanner) (domain.BloodRequest, error) {
	var (
		req                                 domain.BloodRequest
		bloodType, urgency, status, created string
		requiredBy                          sql.NullString
	)

	err := row.Scan(&req.ID, &req.PatientName, &bloodType, &req.UnitsNeeded, &urgency, &status,
		&req.HospitalName, &req.HospitalAddress, &req.ContactNumber, &requiredBy, &created)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.BloodRequest{}, err
		}
		return domain.BloodRequest{}, fmt.Errorf("scanning request: %w", err)
	}

	req.BloodType = domain.BloodType(bloodType)
	req.Urgency = domain.Urgency(urgency)
	req.Status = domain.RequestStatus(status)
	if t := parseNullTime(requiredBy, timeFormat); t != nil {
		req.RequiredBy = *t
	}
	req.CreatedAt = parseTime(created)

	return req, nil
}
