package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kibeterick/blood-management-fullstack/internal/domain"
)

// MatchRepository implements domain.MatchRepository using SQLite.
type MatchRepository struct {
	db *sql.DB
}

const matchColumns = `id, request_id, donor_id, score, status, decline_reason,
	created_at, notified_at, responded_at, completed_at`

// UpsertIfAbsentOrMatched relies on the UNIQUE (request_id, donor_id)
// constraint so concurrent runs can never store two records for one pair.
func (r *MatchRepository) UpsertIfAbsentOrMatched(ctx context.Context, requestID, donorID string, score int) (domain.MatchRecord, bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.MatchRecord{}, false, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`INSERT INTO donor_matches (id, request_id, donor_id, score, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (request_id, donor_id) DO NOTHING`,
		uuid.NewString(), requestID, donorID, score, string(domain.MatchMatched),
		formatTime(time.Now()),
	)
	if err != nil {
		return domain.MatchRecord{}, false, fmt.Errorf("inserting match: %w", err)
	}

	inserted, err := result.RowsAffected()
	if err != nil {
		return domain.MatchRecord{}, false, fmt.Errorf("checking rows affected: %w", err)
	}

	if inserted == 0 {
		if _, err := tx.ExecContext(ctx,
			`UPDATE donor_matches SET score = ?
			 WHERE request_id = ? AND donor_id = ? AND status = ?`,
			score, requestID, donorID, string(domain.MatchMatched),
		); err != nil {
			return domain.MatchRecord{}, false, fmt.Errorf("refreshing match score: %w", err)
		}
	}

	m, err := scanMatch(tx.QueryRowContext(ctx,
		`SELECT `+matchColumns+` FROM donor_matches WHERE request_id = ? AND donor_id = ?`,
		requestID, donorID,
	))
	if err != nil {
		return domain.MatchRecord{}, false, err
	}

	if err := tx.Commit(); err != nil {
		return domain.MatchRecord{}, false, fmt.Errorf("committing match: %w", err)
	}

	return m, inserted > 0, nil
}

func (r *MatchRepository) Get(ctx context.Context, id string) (domain.MatchRecord, error) {
	m, err := scanMatch(r.db.QueryRowContext(ctx,
		`SELECT `+matchColumns+` FROM donor_matches WHERE id = ?`, id,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.MatchRecord{}, domain.ErrMatchNotFound
	}
	return m, err
}

// Update stores m only while the row is still in status from.
func (r *MatchRepository) Update(ctx context.Context, m domain.MatchRecord, from domain.MatchStatus) error {
	return updateMatch(ctx, r.db, m, from)
}

func updateMatch(ctx context.Context, q querier, m domain.MatchRecord, from domain.MatchStatus) error {
	result, err := q.ExecContext(ctx,
		`UPDATE donor_matches
		 SET score = ?, status = ?, decline_reason = ?, notified_at = ?, responded_at = ?, completed_at = ?
		 WHERE id = ? AND status = ?`,
		m.Score, string(m.Status), m.DeclineReason,
		nullTime(m.NotifiedAt, timeFormat), nullTime(m.RespondedAt, timeFormat), nullTime(m.CompletedAt, timeFormat),
		m.ID, string(from),
	)
	if err != nil {
		return fmt.Errorf("updating match: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rows > 0 {
		return nil
	}

	found, err := exists(ctx, q, `SELECT 1 FROM donor_matches WHERE id = ?`, m.ID)
	if err != nil {
		return err
	}
	if !found {
		return domain.ErrMatchNotFound
	}
	return domain.ErrStaleMatch
}

func exists(ctx context.Context, q querier, query string, args ...any) (bool, error) {
	var one int
	err := q.QueryRowContext(ctx, query, args...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking existence: %w", err)
	}
	return true, nil
}

// ListByRequest returns a request's matches, highest score first.
func (r *MatchRepository) ListByRequest(ctx context.Context, requestID string) ([]domain.MatchRecord, error) {
	return r.list(ctx,
		`SELECT `+matchColumns+` FROM donor_matches WHERE request_id = ? ORDER BY score DESC, id`,
		requestID,
	)
}

func (r *MatchRepository) List(ctx context.Context) ([]domain.MatchRecord, error) {
	return r.list(ctx, `SELECT `+matchColumns+` FROM donor_matches ORDER BY created_at, id`)
}

func (r *MatchRepository) list(ctx context.Context, query string, args ...any) ([]domain.MatchRecord, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing matches: %w", err)
	}
	defer rows.Close()

	var matches []domain.MatchRecord
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, err
		}
		matches = append(matches, m)
	}

	return matches, rows.Err()
}

func scanMatch(row scanner) (domain.MatchRecord, error) {
	var (
		m                              domain.MatchRecord
		status, created                string
		notified, responded, completed sql.NullString
	)

	err := row.Scan(&m.ID, &m.RequestID, &m.DonorID, &m.Score, &status, &m.DeclineReason,
		&created, &notified, &responded, &completed)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.MatchRecord{}, err
		}
		return domain.MatchRecord{}, fmt.Errorf("scanning match: %w", err)
	}

	m.Status = domain.MatchStatus(status)
	m.CreatedAt = parseTime(created)
	m.NotifiedAt = parseNullTime(notified, timeFormat)
	m.RespondedAt = parseNullTime(responded, timeFormat)
	m.CompletedAt = parseNullTime(completed, timeFormat)

	return m, nil
}
