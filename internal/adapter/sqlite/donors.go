package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/kibeterick/blood-management-fullstack/internal/domain"
)

// DonorRepository implements domain.DonorRepository using SQLite.
type DonorRepository struct {
	db *sql.DB
}

const donorColumns = `id, first_name, last_name, email, phone, telegram_chat_id, blood_type,
	date_of_birth, city, state, is_available, last_donation_date, created_at`

func (r *DonorRepository) Create(ctx context.Context, d domain.Donor) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO donors (`+donorColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.ID, d.FirstName, d.LastName, d.Email, d.Phone, d.TelegramChatID, string(d.BloodType),
		nullTime(d.DateOfBirth, dateFormat), d.City, d.State, d.IsAvailable,
		nullTime(d.LastDonationDate, dateFormat), formatTime(d.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting donor: %w", err)
	}
	return nil
}

func (r *DonorRepository) Get(ctx context.Context, id string) (domain.Donor, error) {
	d, err := scanDonor(r.db.QueryRowContext(ctx,
		`SELECT `+donorColumns+` FROM donors WHERE id = ?`, id,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Donor{}, domain.ErrDonorNotFound
	}
	return d, err
}

// FindCompatibleAvailable returns available donors of the given types ordered by id.
func (r *DonorRepository) FindCompatibleAvailable(ctx context.Context, bloodTypes []domain.BloodType) ([]domain.Donor, error) {
	if len(bloodTypes) == 0 {
		return nil, nil
	}

	args := make([]any, 0, len(bloodTypes))
	for _, bt := range bloodTypes {
		args = append(args, string(bt))
	}

	return r.list(ctx,
		`SELECT `+donorColumns+` FROM donors
		 WHERE is_available = 1 AND blood_type IN (`+placeholders(len(args))+`)
		 ORDER BY id`, args...,
	)
}

// List returns every registered donor ordered by id.
func (r *DonorRepository) List(ctx context.Context) ([]domain.Donor, error) {
	return r.list(ctx, `SELECT `+donorColumns+` FROM donors ORDER BY id`)
}

func (r *DonorRepository) list(ctx context.Context, query string, args ...any) ([]domain.Donor, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying donors: %w", err)
	}
	defer rows.Close()

	var donors []domain.Donor
	for rows.Next() {
		d, err := scanDonor(rows)
		if err != nil {
			return nil, err
		}
		donors = append(donors, d)
	}

	return donors, rows.Err()
}

// advanceLastDonation records a donation date unless the donor already has
// the same or a later one on file.
func advanceLastDonation(ctx context.Context, q querier, id string, date time.Time) error {
	day := date.UTC().Format(dateFormat)
	result, err := q.ExecContext(ctx,
		`UPDATE donors SET last_donation_date = ?
		 WHERE id = ? AND (last_donation_date IS NULL OR last_donation_date < ?)`,
		day, id, day,
	)
	if err != nil {
		return fmt.Errorf("updating donor: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rows > 0 {
		return nil
	}

	found, err := exists(ctx, q, `SELECT 1 FROM donors WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if !found {
		return domain.ErrDonorNotFound
	}
	return nil
}

func scanDonor(row scanner) (domain.Donor, error) {
	var (
		d                  domain.Donor
		bloodType, created string
		dob, lastDonation  sql.NullString
	)

	err := row.Scan(&d.ID, &d.FirstName, &d.LastName, &d.Email, &d.Phone, &d.TelegramChatID, &bloodType,
		&dob, &d.City, &d.State, &d.IsAvailable, &lastDonation, &created)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Donor{}, err
		}
		return domain.Donor{}, fmt.Errorf("scanning donor: %w", err)
	}

	d.BloodType = domain.BloodType(bloodType)
	d.DateOfBirth = parseNullTime(dob, dateFormat)
	d.LastDonationDate = parseNullTime(lastDonation, dateFormat)
	d.CreatedAt = parseTime(created)

	return d, nil
}
