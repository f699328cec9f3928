package dto

import (
	"errors"
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrOwnerRequired       = errors.New("owner_id is required")
	ErrFileRequired        = errors.New("file is required")
	ErrFileTooLarge        = errors.New("file exceeds the maximum allowed size")
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrInvalidPeriod       = errors.New("month must be 1-12 and year 2000-2100")
	ErrNegativeAmount      = errors.New("amounts must not be negative")
)

// SupportedExtensions lists the statement formats text can be read from.
var SupportedExtensions = map[string]bool{
	".pdf":  true,
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".txt":  true,
}

// UploadPaySlipRequest is the multipart form of POST /payslips.
type UploadPaySlipRequest struct {
	OwnerID string                `form:"owner_id"`
	File    *multipart.FileHeader `form:"file"`
}

func (r *UploadPaySlipRequest) Validate(maxSize int64) error {
	if strings.TrimSpace(r.OwnerID) == "" {
		return ErrOwnerRequired
	}
	if r.File == nil {
		return ErrFileRequired
	}
	if maxSize > 0 && r.File.Size > maxSize {
		return fmt.Errorf("%w: %d bytes", ErrFileTooLarge, r.File.Size)
	}
	ext := strings.ToLower(filepath.Ext(r.File.Filename))
	if !SupportedExtensions[ext] {
		return fmt.Errorf("%w: %q", ErrUnsupportedFileType, ext)
	}
	return nil
}

// CreateSalaryRequest is a manually entered ledger row. Gross and net are
// always derived.
type CreateSalaryRequest struct {
	OwnerID       string          `json:"owner_id"`
	BaseSalary    decimal.Decimal `json:"base_salary"`
	Bonus         decimal.Decimal `json:"bonus"`
	OvertimeHours decimal.Decimal `json:"overtime_hours"`
	OvertimeRate  decimal.Decimal `json:"overtime_rate"`
	TaxAmount     decimal.Decimal `json:"tax_amount"`
	Deductions    decimal.Decimal `json:"deductions"`
	Month         int             `json:"month"`
	Year          int             `json:"year"`
	Notes         string          `json:"notes"`
}

func (r *CreateSalaryRequest) Validate() error {
	if strings.TrimSpace(r.OwnerID) == "" {
		return ErrOwnerRequired
	}
	if !ValidPeriod(r.Month, r.Year) {
		return ErrInvalidPeriod
	}
	for _, v := range []decimal.Decimal{r.BaseSalary, r.Bonus, r.OvertimeHours, r.OvertimeRate, r.TaxAmount, r.Deductions} {
		if v.IsNegative() {
			return ErrNegativeAmount
		}
	}
	return nil
}

// ValidPeriod reports whether month and year fall in the accepted ranges.
func ValidPeriod(month, year int) bool {
	return month >= 1 && month <= 12 && year >= MinYear && year <= MaxYear
}

const (
	MinYear = 2000
	MaxYear = 2100
)
