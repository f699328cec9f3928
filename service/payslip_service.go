package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Aashish23092/payslip-ledger/dto"
	"github.com/Aashish23092/payslip-ledger/repository"
	"github.com/Aashish23092/payslip-ledger/utils"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// PaySlipStore persists uploaded statements and their extraction outcome.
type PaySlipStore interface {
	Create(ctx context.Context, p *dto.PaySlip) error
	FindByID(ctx context.Context, id string) (*dto.PaySlip, error)
	MarkProcessed(ctx context.Context, id string, fields dto.ExtractedFields, period dto.Period, at time.Time) error
	MarkFailed(ctx context.Context, id, message string, at time.Time) error
	ListByOwner(ctx context.Context, ownerID string) ([]dto.PaySlip, error)
	ListUnprocessed(ctx context.Context, limit int) ([]dto.PaySlip, error)
}

// Reconciler turns a processed pay slip into a ledger entry.
type Reconciler interface {
	Reconcile(ctx context.Context, slip *dto.PaySlip, period dto.Period, fields dto.ExtractedFields) (*dto.SalaryEntry, dto.ReconcileOutcome, error)
	FindByPaySlip(ctx context.Context, paySlipID string) (*dto.SalaryEntry, error)
}

type PaySlipService struct {
	store      PaySlipStore
	extractor  TextExtractor
	reconciler Reconciler

	storageDir string
	locale     dto.Locale
	now        func() time.Time
	log        zerolog.Logger
}

type Option func(*PaySlipService)

// WithClock replaces time.Now. The clock dates processed_at and supplies the
// period when a document names none.
func WithClock(now func() time.Time) Option {
	return func(s *PaySlipService) { s.now = now }
}

func WithLocale(l dto.Locale) Option {
	return func(s *PaySlipService) { s.locale = l }
}

func WithLogger(log zerolog.Logger) Option {
	return func(s *PaySlipService) { s.log = log }
}

func WithStorageDir(dir string) Option {
	return func(s *PaySlipService) { s.storageDir = dir }
}

func NewPaySlipService(store PaySlipStore, extractor TextExtractor, reconciler Reconciler, opts ...Option) *PaySlipService {
	s := &PaySlipService{
		store:      store,
		extractor:  extractor,
		reconciler: reconciler,
		storageDir: filepath.Join(os.TempDir(), "pay-slips"),
		locale:     dto.LocaleIT,
		now:        time.Now,
		log:        zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With().Str("component", "payslip").Logger()
	return s
}

// Upload stores the file under the storage directory, records the pay slip
// and processes it straight away.
func (s *PaySlipService) Upload(ctx context.Context, ownerID, fileName string, r io.Reader) (*dto.ProcessResult, error) {
	if strings.TrimSpace(ownerID) == "" {
		return nil, dto.ErrOwnerRequired
	}
	ext := strings.ToLower(filepath.Ext(fileName))
	if !dto.SupportedExtensions[ext] {
		return nil, fmt.Errorf("%w: %q", dto.ErrUnsupportedFileType, ext)
	}

	if err := os.MkdirAll(s.storageDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage dir: %w", err)
	}
	path := filepath.Join(s.storageDir, uuid.NewString()+ext)

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to store pay slip: %w", err)
	}
	size, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("failed to store pay slip: %w", err)
	}

	slip := &dto.PaySlip{
		OwnerID:  ownerID,
		FilePath: path,
		FileName: filepath.Base(fileName),
		FileSize: size,
	}
	if err := s.store.Create(ctx, slip); err != nil {
		os.Remove(path)
		return nil, err
	}

	s.log.Info().
		Str("pay_slip_id", slip.ID).
		Str("owner_id", ownerID).
		Str("file", slip.FileName).
		Int64("size", size).
		Msg("pay slip uploaded")

	return s.process(ctx, slip)
}

// ProcessPaySlip runs extraction for a stored pay slip. A slip that is already
// processed is returned as it is together with its ledger entry. Extraction
// failures are recorded on the slip and reported through the result; the
// returned error is reserved for store and context failures.
func (s *PaySlipService) ProcessPaySlip(ctx context.Context, id string) (*dto.ProcessResult, error) {
	slip, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.process(ctx, slip)
}

func (s *PaySlipService) process(ctx context.Context, slip *dto.PaySlip) (*dto.ProcessResult, error) {
	if slip.Processed {
		return s.cachedResult(ctx, slip)
	}

	log := s.log.With().Str("pay_slip_id", slip.ID).Str("owner_id", slip.OwnerID).Logger()
	start := time.Now()

	fields, period, perr, err := s.analyze(ctx, slip)
	if err != nil {
		// abandoned; the slip stays unprocessed and can be retried
		return nil, err
	}

	at := s.now().UTC()
	if perr != nil {
		if err := s.store.MarkFailed(ctx, slip.ID, perr.UserMessage, at); err != nil {
			if errors.Is(err, repository.ErrAlreadyProcessed) {
				// a concurrent run won; report its result
				return s.reload(ctx, slip.ID)
			}
			return nil, err
		}
		msg := perr.UserMessage
		slip.Processed = false
		slip.ProcessedAt = nil
		slip.ExtractedData = nil
		slip.ProcessingError = &msg

		log.Warn().Err(perr).Dur("elapsed", time.Since(start)).Msg("pay slip extraction failed")
		return &dto.ProcessResult{Success: false, Message: msg, PaySlip: slip}, nil
	}

	if err := s.store.MarkProcessed(ctx, slip.ID, fields, period, at); err != nil {
		return nil, err
	}
	slip.Processed = true
	slip.ProcessedAt = &at
	slip.ExtractedData = fields
	slip.ProcessingError = nil
	slip.Month = &period.Month
	slip.Year = &period.Year

	if period.Ambiguous() {
		log.Warn().Int("month", period.Month).Int("year", period.Year).Msg("no period found in pay slip, using current month")
	}

	result := &dto.ProcessResult{Success: true, PaySlip: slip, Period: &period}
	entry, outcome, err := s.reconciler.Reconcile(ctx, slip, period, fields)
	if err != nil {
		log.Error().Err(err).Msg("failed to reconcile pay slip with ledger")
		outcome = dto.ReconcileFailed
	}
	result.Salary = entry
	result.Reconciliation = outcome

	log.Info().
		Int("fields", len(fields)).
		Str("period_source", string(period.Source)).
		Str("reconciliation", string(outcome)).
		Dur("elapsed", time.Since(start)).
		Msg("pay slip processed")
	return result, nil
}

func (s *PaySlipService) reload(ctx context.Context, id string) (*dto.ProcessResult, error) {
	slip, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.cachedResult(ctx, slip)
}

func (s *PaySlipService) cachedResult(ctx context.Context, slip *dto.PaySlip) (*dto.ProcessResult, error) {
	result := &dto.ProcessResult{
		Success: true,
		Cached:  true,
		Message: dto.AlreadyProcessedMessage(s.locale),
		PaySlip: slip,
	}
	if slip.Month != nil && slip.Year != nil {
		result.Period = &dto.Period{Month: *slip.Month, Year: *slip.Year}
	}

	entry, err := s.reconciler.FindByPaySlip(ctx, slip.ID)
	switch {
	case err == nil:
		result.Salary = entry
	case errors.Is(err, repository.ErrNotFound):
	default:
		return nil, err
	}
	return result, nil
}

// analyze reads the document and runs field extraction and period
// resolution. Extraction outcomes come back as a ProcessingError; err is only
// set when the attempt was abandoned through ctx.
func (s *PaySlipService) analyze(ctx context.Context, slip *dto.PaySlip) (fields dto.ExtractedFields, period dto.Period, perr *dto.ProcessingError, err error) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error().Interface("panic", r).Str("pay_slip_id", slip.ID).Msg("recovered from panic during extraction")
			fields, perr, err = nil, dto.NewProcessingError(dto.ErrExtractionFault, s.locale, fmt.Errorf("%v", r)), nil
		}
	}()

	text, err := s.extractor.ExtractText(ctx, slip.FilePath)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, period, nil, ctxErr
	}
	if err != nil {
		if errors.Is(err, dto.ErrSourceUnavailable) {
			return nil, period, dto.NewProcessingError(dto.ErrSourceUnavailable, s.locale, err), nil
		}
		return nil, period, dto.NewProcessingError(dto.ErrExtractionFault, s.locale, err), nil
	}

	fields = utils.ExtractFields(text)
	if len(fields) == 0 {
		s.log.Debug().Str("pay_slip_id", slip.ID).Msg("no labelled fields found, using amount fallback")
		fields = utils.ExtractFallback(text)
	}
	if len(fields) == 0 {
		return nil, period, dto.NewProcessingError(dto.ErrNoFieldsExtracted, s.locale, nil), nil
	}

	period = utils.ResolvePeriod(text, slip.FileName, s.now())
	return fields, period, nil, nil
}

func (s *PaySlipService) GetPaySlip(ctx context.Context, id string) (*dto.PaySlip, error) {
	return s.store.FindByID(ctx, id)
}

func (s *PaySlipService) ListPaySlips(ctx context.Context, ownerID string) ([]dto.PaySlip, error) {
	return s.store.ListByOwner(ctx, ownerID)
}

// ReprocessPending processes up to limit unprocessed slips, oldest first.
// progress, if set, is called after each slip. It stops at the first store or
// context error.
func (s *PaySlipService) ReprocessPending(ctx context.Context, limit int, progress func(*dto.ProcessResult)) ([]*dto.ProcessResult, error) {
	slips, err := s.store.ListUnprocessed(ctx, limit)
	if err != nil {
		return nil, err
	}

	results := make([]*dto.ProcessResult, 0, len(slips))
	for i := range slips {
		res, err := s.process(ctx, &slips[i])
		if err != nil {
			return results, fmt.Errorf("pay slip %s: %w", slips[i].ID, err)
		}
		results = append(results, res)
		if progress != nil {
			progress(res)
		}
	}
	return results, nil
}

// PendingCount reports how many slips ReprocessPending would pick up.
func (s *PaySlipService) PendingCount(ctx context.Context, limit int) (int, error) {
	slips, err := s.store.ListUnprocessed(ctx, limit)
	if err != nil {
		return 0, err
	}
	return len(slips), nil
}
