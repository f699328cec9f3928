package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/Aashish23092/payslip-ledger/config"
	"github.com/Aashish23092/payslip-ledger/dto"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func createPaySlip(t *testing.T, repo *PaySlipRepository, owner string) *dto.PaySlip {
	t.Helper()
	p := &dto.PaySlip{OwnerID: owner, FilePath: "slips/a.pdf", FileName: "busta_03-2025.pdf", FileSize: 1024}
	require.NoError(t, repo.Create(context.Background(), p))
	return p
}

func TestMigratorVersionAndDown(t *testing.T) {
	db := newTestDB(t)
	mg, err := NewMigrator(db, config.DriverSQLite)
	require.NoError(t, err)

	v, dirty, err := mg.Version()
	require.NoError(t, err)
	assert.Equal(t, uint(2), v)
	assert.False(t, dirty)

	require.NoError(t, mg.Down(1))
	v, _, err = mg.Version()
	require.NoError(t, err)
	assert.Equal(t, uint(1), v)

	require.NoError(t, mg.Up(0))
	require.NoError(t, mg.Up(0), "no change is not an error")
}

func TestPaySlipLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := NewPaySlipRepository(newTestDB(t))

	p := createPaySlip(t, repo, "user-1")
	assert.NotEmpty(t, p.ID)

	got, err := repo.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.False(t, got.Processed)
	assert.Nil(t, got.ExtractedData)
	assert.Nil(t, got.Month)

	require.NoError(t, repo.MarkFailed(ctx, p.ID, "File non trovato", time.Now()))
	got, err = repo.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, got.Failed())
	assert.Equal(t, "File non trovato", *got.ProcessingError)

	fields := dto.ExtractedFields{
		dto.FieldBaseSalary: decimal.RequireFromString("1800"),
		dto.FieldNetSalary:  decimal.RequireFromString("1650.25"),
	}
	require.NoError(t, repo.MarkProcessed(ctx, p.ID, fields, dto.Period{Month: 3, Year: 2025}, time.Now()))

	got, err = repo.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, got.Processed)
	assert.Nil(t, got.ProcessingError)
	require.NotNil(t, got.ProcessedAt)
	assert.Equal(t, 3, *got.Month)
	assert.Equal(t, 2025, *got.Year)
	assert.True(t, got.ExtractedData.OrZero(dto.FieldNetSalary).Equal(decimal.RequireFromString("1650.25")))
}

func TestMarkFailedKeepsProcessedSlip(t *testing.T) {
	ctx := context.Background()
	repo := NewPaySlipRepository(newTestDB(t))
	p := createPaySlip(t, repo, "user-1")

	fields := dto.ExtractedFields{dto.FieldNetSalary: decimal.RequireFromString("1200")}
	require.NoError(t, repo.MarkProcessed(ctx, p.ID, fields, dto.Period{Month: 4, Year: 2025}, time.Now()))

	err := repo.MarkFailed(ctx, p.ID, "File non trovato", time.Now())
	assert.ErrorIs(t, err, ErrAlreadyProcessed)

	got, err := repo.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, got.Processed)
	assert.Nil(t, got.ProcessingError)
	assert.True(t, got.ExtractedData.OrZero(dto.FieldNetSalary).Equal(decimal.RequireFromString("1200")))
}

func TestPaySlipNotFound(t *testing.T) {
	ctx := context.Background()
	repo := NewPaySlipRepository(newTestDB(t))

	_, err := repo.FindByID(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, repo.MarkFailed(ctx, "missing", "x", time.Now()), ErrNotFound)
}

func TestPaySlipListing(t *testing.T) {
	ctx := context.Background()
	repo := NewPaySlipRepository(newTestDB(t))

	a := createPaySlip(t, repo, "user-1")
	createPaySlip(t, repo, "user-1")
	createPaySlip(t, repo, "user-2")
	require.NoError(t, repo.MarkProcessed(ctx, a.ID, dto.ExtractedFields{}, dto.Period{Month: 1, Year: 2025}, time.Now()))

	mine, err := repo.ListByOwner(ctx, "user-1")
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	pending, err := repo.ListUnprocessed(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, pending, 2)
	for _, p := range pending {
		assert.NotEqual(t, a.ID, p.ID)
	}
}

func TestSalaryUniquePerPeriod(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewSalaryRepository(db)

	entry := &dto.SalaryEntry{
		OwnerID:    "user-1",
		BaseSalary: decimal.RequireFromString("1800"),
		Month:      3,
		Year:       2025,
	}
	entry.Recalculate()
	require.NoError(t, repo.Create(ctx, entry))

	dup := &dto.SalaryEntry{OwnerID: "user-1", Month: 3, Year: 2025}
	tx, err := repo.BeginTx(ctx)
	require.NoError(t, err)
	err = repo.CreateTx(ctx, tx, dup)
	require.NoError(t, tx.Rollback())
	assert.ErrorIs(t, err, ErrDuplicatePeriod)

	other := &dto.SalaryEntry{OwnerID: "user-2", Month: 3, Year: 2025}
	assert.NoError(t, repo.Create(ctx, other))
}

func TestSalaryFindAndList(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	slips := NewPaySlipRepository(db)
	repo := NewSalaryRepository(db)

	slip := createPaySlip(t, slips, "user-1")
	for _, m := range []int{1, 2, 3} {
		e := &dto.SalaryEntry{
			OwnerID:    "user-1",
			BaseSalary: decimal.NewFromInt(1000),
			TaxAmount:  decimal.RequireFromString("210.50"),
			Month:      m,
			Year:       2025,
			Notes:      "manual",
		}
		if m == 2 {
			e.PaySlipID = &slip.ID
			e.AutoGenerated = true
		}
		e.Recalculate()
		require.NoError(t, repo.Create(ctx, e))
	}

	tx, err := repo.BeginTx(ctx)
	require.NoError(t, err)
	found, err := repo.FindByPeriodTx(ctx, tx, "user-1", 2, 2025)
	require.NoError(t, tx.Commit())
	require.NoError(t, err)
	assert.True(t, found.AutoGenerated)
	assert.True(t, found.NetSalary.Equal(decimal.RequireFromString("789.50")))

	linked, err := repo.FindByPaySlip(ctx, slip.ID)
	require.NoError(t, err)
	assert.Equal(t, found.ID, linked.ID)

	_, err = repo.FindByPaySlip(ctx, "other")
	assert.ErrorIs(t, err, ErrNotFound)

	year, err := repo.ListByOwnerYear(ctx, "user-1", 2025)
	require.NoError(t, err)
	require.Len(t, year, 3)
	assert.Equal(t, 1, year[0].Month)

	all, err := repo.ListByOwner(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 3, all[0].Month)
}
