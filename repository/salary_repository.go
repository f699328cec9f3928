package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Aashish23092/payslip-ledger/dto"
	"github.com/google/uuid"
)

const salaryColumns = `id, owner_id, base_salary, bonus, overtime_hours, overtime_rate, overtime_pay,
	tax_amount, deductions, gross_salary, net_salary, month, year, notes, pay_slip_id,
	auto_generated, created_at, updated_at`

type SalaryRepository struct {
	db *sql.DB
}

func NewSalaryRepository(db *sql.DB) *SalaryRepository {
	return &SalaryRepository{db: db}
}

func (r *SalaryRepository) BeginTx(ctx context.Context) (*sql.Tx, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return tx, nil
}

// FindByPeriodTx looks up the entry for an owner and month inside tx.
func (r *SalaryRepository) FindByPeriodTx(ctx context.Context, tx *sql.Tx, ownerID string, month, year int) (*dto.SalaryEntry, error) {
	return r.findOne(ctx, tx, `SELECT `+salaryColumns+` FROM salaries WHERE owner_id = ? AND month = ? AND year = ?`, ownerID, month, year)
}

// CreateTx inserts e inside tx. A second entry for the same owner and period
// is rejected by the store and reported as ErrDuplicatePeriod.
func (r *SalaryRepository) CreateTx(ctx context.Context, tx *sql.Tx, e *dto.SalaryEntry) error {
	return r.insert(ctx, tx, e)
}

// Create inserts e outside of any caller transaction.
func (r *SalaryRepository) Create(ctx context.Context, e *dto.SalaryEntry) error {
	return r.insert(ctx, r.db, e)
}

func (r *SalaryRepository) insert(ctx context.Context, q queryable, e *dto.SalaryEntry) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	e.UpdatedAt = now

	var paySlipID sql.NullString
	if e.PaySlipID != nil {
		paySlipID = sql.NullString{String: *e.PaySlipID, Valid: true}
	}

	query := `INSERT INTO salaries (` + salaryColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := q.ExecContext(ctx, query,
		e.ID, e.OwnerID, e.BaseSalary, e.Bonus, e.OvertimeHours, e.OvertimeRate, e.OvertimePay,
		e.TaxAmount, e.Deductions, e.GrossSalary, e.NetSalary, e.Month, e.Year, e.Notes, paySlipID,
		e.AutoGenerated, e.CreatedAt, e.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: owner %s %02d/%d", ErrDuplicatePeriod, e.OwnerID, e.Month, e.Year)
		}
		return fmt.Errorf("failed to create salary entry: %w", err)
	}
	return nil
}

func (r *SalaryRepository) FindByID(ctx context.Context, id string) (*dto.SalaryEntry, error) {
	return r.findOne(ctx, r.db, `SELECT `+salaryColumns+` FROM salaries WHERE id = ?`, id)
}

// FindByPaySlip returns the entry generated from a pay slip.
func (r *SalaryRepository) FindByPaySlip(ctx context.Context, paySlipID string) (*dto.SalaryEntry, error) {
	return r.findOne(ctx, r.db, `SELECT `+salaryColumns+` FROM salaries WHERE pay_slip_id = ?`, paySlipID)
}

func (r *SalaryRepository) ListByOwner(ctx context.Context, ownerID string) ([]dto.SalaryEntry, error) {
	return r.list(ctx, `SELECT `+salaryColumns+` FROM salaries WHERE owner_id = ? ORDER BY year DESC, month DESC`, ownerID)
}

func (r *SalaryRepository) ListByOwnerYear(ctx context.Context, ownerID string, year int) ([]dto.SalaryEntry, error) {
	return r.list(ctx, `SELECT `+salaryColumns+` FROM salaries WHERE owner_id = ? AND year = ? ORDER BY month ASC`, ownerID, year)
}

func (r *SalaryRepository) findOne(ctx context.Context, q queryable, query string, args ...any) (*dto.SalaryEntry, error) {
	e, err := scanSalary(q.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get salary entry: %w", err)
	}
	return e, nil
}

func (r *SalaryRepository) list(ctx context.Context, query string, args ...any) ([]dto.SalaryEntry, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list salary entries: %w", err)
	}
	defer rows.Close()

	var out []dto.SalaryEntry
	for rows.Next() {
		e, err := scanSalary(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan salary entry: %w", err)
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

func scanSalary(row rowScanner) (*dto.SalaryEntry, error) {
	var (
		e         dto.SalaryEntry
		notes     sql.NullString
		paySlipID sql.NullString
	)
	if err := row.Scan(
		&e.ID, &e.OwnerID, &e.BaseSalary, &e.Bonus, &e.OvertimeHours, &e.OvertimeRate, &e.OvertimePay,
		&e.TaxAmount, &e.Deductions, &e.GrossSalary, &e.NetSalary, &e.Month, &e.Year, &notes, &paySlipID,
		&e.AutoGenerated, &e.CreatedAt, &e.UpdatedAt,
	); err != nil {
		return nil, err
	}
	e.Notes = notes.String
	if paySlipID.Valid {
		id := paySlipID.String
		e.PaySlipID = &id
	}
	return &e, nil
}
