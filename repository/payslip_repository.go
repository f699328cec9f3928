package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Aashish23092/payslip-ledger/dto"
	"github.com/google/uuid"
)

const paySlipColumns = `id, owner_id, file_path, file_name, file_size, processed, processed_at,
	extracted_data, processing_error, month, year, created_at, updated_at`

type PaySlipRepository struct {
	db *sql.DB
}

func NewPaySlipRepository(db *sql.DB) *PaySlipRepository {
	return &PaySlipRepository{db: db}
}

// Create stores a freshly uploaded, unprocessed pay slip. ID and timestamps
// are filled in when empty.
func (r *PaySlipRepository) Create(ctx context.Context, p *dto.PaySlip) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	p.Processed = false
	p.ProcessedAt = nil
	p.ExtractedData = nil
	p.ProcessingError = nil

	query := `INSERT INTO pay_slips (id, owner_id, file_path, file_name, file_size, processed, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	if _, err := r.db.ExecContext(ctx, query,
		p.ID, p.OwnerID, p.FilePath, p.FileName, p.FileSize, false, p.CreatedAt, p.UpdatedAt,
	); err != nil {
		return fmt.Errorf("failed to create pay slip: %w", err)
	}
	return nil
}

func (r *PaySlipRepository) FindByID(ctx context.Context, id string) (*dto.PaySlip, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+paySlipColumns+` FROM pay_slips WHERE id = ?`, id)
	p, err := scanPaySlip(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get pay slip %s: %w", id, err)
	}
	return p, nil
}

// MarkProcessed records a successful extraction. The error column is cleared.
func (r *PaySlipRepository) MarkProcessed(ctx context.Context, id string, fields dto.ExtractedFields, period dto.Period, at time.Time) error {
	data, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("failed to encode extracted data: %w", err)
	}

	query := `UPDATE pay_slips
		SET processed = ?, processed_at = ?, extracted_data = ?, processing_error = NULL,
			month = ?, year = ?, updated_at = ?
		WHERE id = ?`
	return r.update(ctx, query, true, at.UTC(), string(data), period.Month, period.Year, at.UTC(), id)
}

// MarkFailed records a terminal failure. Extracted data is cleared. A slip
// that is already processed is left alone and ErrAlreadyProcessed is returned.
func (r *PaySlipRepository) MarkFailed(ctx context.Context, id, message string, at time.Time) error {
	query := `UPDATE pay_slips
		SET processed = ?, processed_at = NULL, extracted_data = NULL, processing_error = ?, updated_at = ?
		WHERE id = ? AND processed = ?`
	err := r.update(ctx, query, false, message, at.UTC(), id, false)
	if !errors.Is(err, ErrNotFound) {
		return err
	}

	var processed bool
	row := r.db.QueryRowContext(ctx, `SELECT processed FROM pay_slips WHERE id = ?`, id)
	switch scanErr := row.Scan(&processed); {
	case errors.Is(scanErr, sql.ErrNoRows):
		return ErrNotFound
	case scanErr != nil:
		return fmt.Errorf("failed to get pay slip %s: %w", id, scanErr)
	case processed:
		return ErrAlreadyProcessed
	}
	return err
}

func (r *PaySlipRepository) update(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update pay slip: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update pay slip: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PaySlipRepository) ListByOwner(ctx context.Context, ownerID string) ([]dto.PaySlip, error) {
	return r.list(ctx, `SELECT `+paySlipColumns+` FROM pay_slips WHERE owner_id = ? ORDER BY created_at DESC`, ownerID)
}

// ListUnprocessed returns pay slips that never succeeded, oldest first.
func (r *PaySlipRepository) ListUnprocessed(ctx context.Context, limit int) ([]dto.PaySlip, error) {
	if limit <= 0 {
		limit = 100
	}
	return r.list(ctx, `SELECT `+paySlipColumns+` FROM pay_slips WHERE processed = ? ORDER BY created_at ASC LIMIT ?`, false, limit)
}

func (r *PaySlipRepository) list(ctx context.Context, query string, args ...any) ([]dto.PaySlip, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list pay slips: %w", err)
	}
	defer rows.Close()

	var out []dto.PaySlip
	for rows.Next() {
		p, err := scanPaySlip(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan pay slip: %w", err)
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func scanPaySlip(row rowScanner) (*dto.PaySlip, error) {
	var (
		p           dto.PaySlip
		processedAt sql.NullTime
		data        sql.NullString
		procErr     sql.NullString
		month, year sql.NullInt64
	)
	if err := row.Scan(
		&p.ID, &p.OwnerID, &p.FilePath, &p.FileName, &p.FileSize, &p.Processed, &processedAt,
		&data, &procErr, &month, &year, &p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		return nil, err
	}

	if processedAt.Valid {
		t := processedAt.Time
		p.ProcessedAt = &t
	}
	if data.Valid && data.String != "" {
		if err := json.Unmarshal([]byte(data.String), &p.ExtractedData); err != nil {
			return nil, fmt.Errorf("failed to decode extracted data: %w", err)
		}
	}
	if procErr.Valid {
		msg := procErr.String
		p.ProcessingError = &msg
	}
	if month.Valid {
		m := int(month.Int64)
		p.Month = &m
	}
	if year.Valid {
		y := int(year.Int64)
		p.Year = &y
	}
	return &p, nil
}
