package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/Aashish23092/payslip-ledger/dto"
	"github.com/Aashish23092/payslip-ledger/events"
	"github.com/Aashish23092/payslip-ledger/repository"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// SalaryStore persists ledger entries. It must reject a second entry for the
// same owner and period with repository.ErrDuplicatePeriod.
type SalaryStore interface {
	BeginTx(ctx context.Context) (*sql.Tx, error)
	FindByPeriodTx(ctx context.Context, tx *sql.Tx, ownerID string, month, year int) (*dto.SalaryEntry, error)
	CreateTx(ctx context.Context, tx *sql.Tx, e *dto.SalaryEntry) error
	FindByPaySlip(ctx context.Context, paySlipID string) (*dto.SalaryEntry, error)
	ListByOwner(ctx context.Context, ownerID string) ([]dto.SalaryEntry, error)
	ListByOwnerYear(ctx context.Context, ownerID string, year int) ([]dto.SalaryEntry, error)
}

type LedgerService struct {
	store  SalaryStore
	events events.Publisher
	locale dto.Locale
	log    zerolog.Logger

	mu    sync.Mutex
	locks map[string]*periodLock
}

// periodLock is dropped from the map once no caller holds or waits for it.
type periodLock struct {
	sync.Mutex
	refs int
}

func NewLedgerService(store SalaryStore, publisher events.Publisher, locale dto.Locale, log zerolog.Logger) *LedgerService {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	return &LedgerService{
		store:  store,
		events: publisher,
		locale: locale,
		log:    log.With().Str("component", "ledger").Logger(),
		locks:  make(map[string]*periodLock),
	}
}

// lockPeriod serialises work on one owner and period inside this process and
// returns the matching unlock. The unique constraint still guards against
// other processes.
func (s *LedgerService) lockPeriod(ownerID string, month, year int) func() {
	key := fmt.Sprintf("%s|%d|%d", ownerID, year, month)

	s.mu.Lock()
	l, ok := s.locks[key]
	if !ok {
		l = &periodLock{}
		s.locks[key] = l
	}
	l.refs++
	s.mu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()
		s.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, key)
		}
		s.mu.Unlock()
	}
}

// Reconcile creates the auto-generated ledger entry for a processed pay slip.
// If the owner already has an entry for the period nothing is written and the
// outcome is ReconcileDuplicate.
func (s *LedgerService) Reconcile(ctx context.Context, slip *dto.PaySlip, period dto.Period, fields dto.ExtractedFields) (*dto.SalaryEntry, dto.ReconcileOutcome, error) {
	log := s.log.With().
		Str("owner_id", slip.OwnerID).
		Str("pay_slip_id", slip.ID).
		Int("month", period.Month).
		Int("year", period.Year).
		Logger()

	entry := newEntryFromFields(slip, period, fields, s.locale)

	created, err := s.insertOnce(ctx, entry)
	if errors.Is(err, repository.ErrDuplicatePeriod) {
		log.Info().Msg("salary entry already exists for period, skipping")
		return nil, dto.ReconcileDuplicate, nil
	}
	if err != nil {
		return nil, dto.ReconcileFailed, err
	}
	if !created {
		return nil, dto.ReconcileDuplicate, nil
	}

	log.Info().
		Str("salary_id", entry.ID).
		Str("gross", entry.GrossSalary.StringFixed(2)).
		Str("net", entry.NetSalary.StringFixed(2)).
		Msg("salary entry created from pay slip")
	s.publish(ctx, entry)
	return entry, dto.ReconcileCreated, nil
}

// CreateSalary stores a manually entered ledger row. Gross and net are always
// derived from the components.
func (s *LedgerService) CreateSalary(ctx context.Context, req dto.CreateSalaryRequest) (*dto.SalaryEntry, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	entry := &dto.SalaryEntry{
		OwnerID:       req.OwnerID,
		BaseSalary:    req.BaseSalary,
		Bonus:         req.Bonus,
		OvertimeHours: req.OvertimeHours,
		OvertimeRate:  req.OvertimeRate,
		TaxAmount:     req.TaxAmount,
		Deductions:    req.Deductions,
		Month:         req.Month,
		Year:          req.Year,
		Notes:         req.Notes,
	}
	entry.Recalculate()

	created, err := s.insertOnce(ctx, entry)
	if err != nil {
		return nil, err
	}
	if !created {
		return nil, fmt.Errorf("%w: owner %s %02d/%d", repository.ErrDuplicatePeriod, req.OwnerID, req.Month, req.Year)
	}
	s.publish(ctx, entry)
	return entry, nil
}

// insertOnce runs the existence check and the insert in one transaction.
// created is false when an entry for the period was already there.
func (s *LedgerService) insertOnce(ctx context.Context, entry *dto.SalaryEntry) (bool, error) {
	unlock := s.lockPeriod(entry.OwnerID, entry.Month, entry.Year)
	defer unlock()

	tx, err := s.store.BeginTx(ctx)
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback() }()

	_, err = s.store.FindByPeriodTx(ctx, tx, entry.OwnerID, entry.Month, entry.Year)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return false, err
	}

	if err := s.store.CreateTx(ctx, tx, entry); err != nil {
		return false, err
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit salary entry: %w", err)
	}
	return true, nil
}

func (s *LedgerService) publish(ctx context.Context, entry *dto.SalaryEntry) {
	if err := s.events.PublishSalaryCreated(ctx, entry); err != nil {
		s.log.Error().Err(err).Str("salary_id", entry.ID).Msg("failed to publish salary event")
	}
}

// newEntryFromFields defaults missing fields to zero, derives the totals and
// lets totals printed on the slip win over the formula. When only gross is
// printed, net is derived from it.
func newEntryFromFields(slip *dto.PaySlip, period dto.Period, fields dto.ExtractedFields, locale dto.Locale) *dto.SalaryEntry {
	paySlipID := slip.ID
	entry := &dto.SalaryEntry{
		OwnerID:       slip.OwnerID,
		BaseSalary:    fields.OrZero(dto.FieldBaseSalary),
		Bonus:         fields.OrZero(dto.FieldBonus),
		OvertimeHours: fields.OrZero(dto.FieldOvertimeHours),
		OvertimeRate:  fields.OrZero(dto.FieldOvertimeRate),
		TaxAmount:     fields.OrZero(dto.FieldTaxAmount),
		Deductions:    fields.OrZero(dto.FieldDeductions),
		Month:         period.Month,
		Year:          period.Year,
		Notes:         dto.AutoGeneratedNote(locale),
		PaySlipID:     &paySlipID,
		AutoGenerated: true,
	}
	entry.OvertimePay = fields.OrZero(dto.FieldOvertimeAmount)
	entry.Recalculate()

	if gross, ok := fields.Get(dto.FieldGrossSalary); ok {
		entry.GrossSalary = gross
		entry.NetSalary = gross.Sub(entry.TaxAmount).Sub(entry.Deductions).Round(2)
	}
	if net, ok := fields.Get(dto.FieldNetSalary); ok {
		entry.NetSalary = net
	}
	return entry
}

// FindByPaySlip returns the entry generated from a pay slip, or
// repository.ErrNotFound.
func (s *LedgerService) FindByPaySlip(ctx context.Context, paySlipID string) (*dto.SalaryEntry, error) {
	return s.store.FindByPaySlip(ctx, paySlipID)
}

func (s *LedgerService) ListSalaries(ctx context.Context, ownerID string) ([]dto.SalaryEntry, error) {
	return s.store.ListByOwner(ctx, ownerID)
}

// MonthlyStatistics totals one year of an owner's ledger.
func (s *LedgerService) MonthlyStatistics(ctx context.Context, ownerID string, year int) (*dto.MonthlyStatistics, error) {
	entries, err := s.store.ListByOwnerYear(ctx, ownerID, year)
	if err != nil {
		return nil, err
	}

	stats := &dto.MonthlyStatistics{
		Year:             year,
		TotalGross:       decimal.Zero,
		TotalNet:         decimal.Zero,
		TotalTaxes:       decimal.Zero,
		TotalDeductions:  decimal.Zero,
		TotalOvertimePay: decimal.Zero,
		AverageNet:       decimal.Zero,
		MonthsRecorded:   len(entries),
		Months:           make([]dto.MonthStatistics, 0, len(entries)),
	}
	for i := range entries {
		e := &entries[i]
		stats.TotalGross = stats.TotalGross.Add(e.GrossSalary)
		stats.TotalNet = stats.TotalNet.Add(e.NetSalary)
		stats.TotalTaxes = stats.TotalTaxes.Add(e.TaxAmount)
		stats.TotalDeductions = stats.TotalDeductions.Add(e.Deductions)
		stats.TotalOvertimePay = stats.TotalOvertimePay.Add(e.OvertimePay)
		stats.Months = append(stats.Months, dto.MonthStatistics{
			Month:       e.Month,
			GrossSalary: e.GrossSalary,
			NetSalary:   e.NetSalary,
			TaxAmount:   e.TaxAmount,
			TaxRate:     e.TaxRate(),
		})
	}
	if len(entries) > 0 {
		stats.AverageNet = stats.TotalNet.Div(decimal.NewFromInt(int64(len(entries)))).Round(2)
	}
	return stats, nil
}

// YearlyTrends compares the years from..to inclusive. Years without entries
// are reported with zero totals.
func (s *LedgerService) YearlyTrends(ctx context.Context, ownerID string, from, to int) ([]dto.YearlyTrend, error) {
	if from > to {
		from, to = to, from
	}
	if !dto.ValidPeriod(1, from) || !dto.ValidPeriod(1, to) {
		return nil, dto.ErrInvalidPeriod
	}

	trends := make([]dto.YearlyTrend, 0, to-from+1)
	for year := from; year <= to; year++ {
		entries, err := s.store.ListByOwnerYear(ctx, ownerID, year)
		if err != nil {
			return nil, err
		}

		t := dto.YearlyTrend{
			Year:           year,
			TotalGross:     decimal.Zero,
			TotalNet:       decimal.Zero,
			AverageGross:   decimal.Zero,
			AverageNet:     decimal.Zero,
			MonthsRecorded: len(entries),
		}
		for _, e := range entries {
			t.TotalGross = t.TotalGross.Add(e.GrossSalary)
			t.TotalNet = t.TotalNet.Add(e.NetSalary)
		}
		if n := len(entries); n > 0 {
			t.AverageGross = t.TotalGross.Div(decimal.NewFromInt(int64(n))).Round(2)
			t.AverageNet = t.TotalNet.Div(decimal.NewFromInt(int64(n))).Round(2)
		}
		trends = append(trends, t)
	}
	return trends, nil
}

// TopEarningMonths returns the owner's entries with the highest net pay.
func (s *LedgerService) TopEarningMonths(ctx context.Context, ownerID string, limit int) ([]dto.SalaryEntry, error) {
	if limit <= 0 {
		limit = 5
	}
	entries, err := s.store.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].NetSalary.GreaterThan(entries[j].NetSalary)
	})
	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}
