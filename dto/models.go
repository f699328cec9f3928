package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// Field names a monetary or hour value read from a pay slip.
type Field string

const (
	FieldBaseSalary     Field = "base_salary"
	FieldBonus          Field = "bonus"
	FieldOvertimeHours  Field = "overtime_hours"
	FieldOvertimeRate   Field = "overtime_rate"
	FieldOvertimeAmount Field = "overtime_amount"
	FieldTaxAmount      Field = "tax_amount"
	FieldDeductions     Field = "deductions"
	FieldGrossSalary    Field = "gross_salary"
	FieldNetSalary      Field = "net_salary"
)

// ExtractedFields maps a field to its value. A field is either present with a
// positive value or missing from the map.
type ExtractedFields map[Field]decimal.Decimal

// Get returns the value of f and whether it is present.
func (f ExtractedFields) Get(field Field) (decimal.Decimal, bool) {
	v, ok := f[field]
	return v, ok
}

// Has reports whether field is present.
func (f ExtractedFields) Has(field Field) bool {
	_, ok := f[field]
	return ok
}

// OrZero returns the value of field, or zero when it is absent.
func (f ExtractedFields) OrZero(field Field) decimal.Decimal {
	if v, ok := f[field]; ok {
		return v
	}
	return decimal.Zero
}

// Compact drops zero and negative values. Zero is treated as "not found", so a
// slip that really reports 0 overtime cannot be told apart from one that does
// not mention overtime at all.
func (f ExtractedFields) Compact() ExtractedFields {
	out := make(ExtractedFields, len(f))
	for k, v := range f {
		if v.IsPositive() {
			out[k] = v
		}
	}
	return out
}

// PeriodSource tells which strategy resolved a period.
type PeriodSource string

const (
	PeriodFromMonthName PeriodSource = "text_month_name"
	PeriodFromText      PeriodSource = "text_numeric"
	PeriodFromFileName  PeriodSource = "file_name"
	PeriodDefault       PeriodSource = "default"
)

type Period struct {
	Month  int          `json:"month"`
	Year   int          `json:"year"`
	Source PeriodSource `json:"source"`
}

// Ambiguous is true when nothing in the document named a period and the
// current month was used instead.
func (p Period) Ambiguous() bool {
	return p.Source == PeriodDefault
}

// PaySlip is an uploaded salary statement and the outcome of its last
// extraction attempt.
type PaySlip struct {
	ID              string          `json:"id"`
	OwnerID         string          `json:"owner_id"`
	FilePath        string          `json:"file_path"`
	FileName        string          `json:"file_name"`
	FileSize        int64           `json:"file_size"`
	Processed       bool            `json:"processed"`
	ProcessedAt     *time.Time      `json:"processed_at,omitempty"`
	ExtractedData   ExtractedFields `json:"extracted_data,omitempty"`
	ProcessingError *string         `json:"processing_error,omitempty"`
	Month           *int            `json:"month,omitempty"`
	Year            *int            `json:"year,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// Failed reports whether the last attempt ended with a recorded error.
func (p *PaySlip) Failed() bool {
	return !p.Processed && p.ProcessingError != nil
}

// SalaryEntry is the ledger row for one owner and one month.
type SalaryEntry struct {
	ID            string          `json:"id"`
	OwnerID       string          `json:"owner_id"`
	BaseSalary    decimal.Decimal `json:"base_salary"`
	Bonus         decimal.Decimal `json:"bonus"`
	OvertimeHours decimal.Decimal `json:"overtime_hours"`
	OvertimeRate  decimal.Decimal `json:"overtime_rate"`
	OvertimePay   decimal.Decimal `json:"overtime_pay"`
	TaxAmount     decimal.Decimal `json:"tax_amount"`
	Deductions    decimal.Decimal `json:"deductions"`
	GrossSalary   decimal.Decimal `json:"gross_salary"`
	NetSalary     decimal.Decimal `json:"net_salary"`
	Month         int             `json:"month"`
	Year          int             `json:"year"`
	Notes         string          `json:"notes,omitempty"`
	PaySlipID     *string         `json:"pay_slip_id,omitempty"`
	AutoGenerated bool            `json:"auto_generated"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// Recalculate derives overtime pay, gross and net from the components.
//
//	gross = base + bonus + hours*rate
//	net   = gross - tax - deductions
//
// When hours or rate is missing, an overtime pay already set on the entry is
// kept and counted into gross.
func (s *SalaryEntry) Recalculate() {
	if s.OvertimeHours.IsPositive() && s.OvertimeRate.IsPositive() {
		s.OvertimePay = s.OvertimeHours.Mul(s.OvertimeRate).Round(2)
	}
	s.GrossSalary = s.BaseSalary.Add(s.Bonus).Add(s.OvertimePay).Round(2)
	s.NetSalary = s.GrossSalary.Sub(s.TaxAmount).Sub(s.Deductions).Round(2)
}

// TaxRate is the tax amount as a percentage of gross, rounded to two places.
func (s *SalaryEntry) TaxRate() decimal.Decimal {
	if !s.GrossSalary.IsPositive() {
		return decimal.Zero
	}
	return s.TaxAmount.Div(s.GrossSalary).Mul(decimal.NewFromInt(100)).Round(2)
}
