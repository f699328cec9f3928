package dto

import "github.com/shopspring/decimal"

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// ReconcileOutcome says what happened to the ledger for a processed slip.
type ReconcileOutcome string

const (
	ReconcileCreated   ReconcileOutcome = "created"
	ReconcileDuplicate ReconcileOutcome = "duplicate"
	ReconcileSkipped   ReconcileOutcome = "skipped"
	ReconcileFailed    ReconcileOutcome = "failed"
)

// ProcessResult is returned for every extraction attempt.
type ProcessResult struct {
	Success        bool             `json:"success"`
	Cached         bool             `json:"cached"`
	Message        string           `json:"message,omitempty"`
	PaySlip        *PaySlip         `json:"pay_slip"`
	Period         *Period          `json:"period,omitempty"`
	Salary         *SalaryEntry     `json:"salary,omitempty"`
	Reconciliation ReconcileOutcome `json:"reconciliation,omitempty"`
}

type ListPaySlipsResponse struct {
	PaySlips []PaySlip `json:"pay_slips"`
	Count    int       `json:"count"`
}

type ListSalariesResponse struct {
	Salaries []SalaryEntry `json:"salaries"`
	Count    int           `json:"count"`
}

// MonthStatistics is one row of a yearly breakdown.
type MonthStatistics struct {
	Month       int             `json:"month"`
	GrossSalary decimal.Decimal `json:"gross_salary"`
	NetSalary   decimal.Decimal `json:"net_salary"`
	TaxAmount   decimal.Decimal `json:"tax_amount"`
	TaxRate     decimal.Decimal `json:"tax_rate"`
}

// MonthlyStatistics summarises one year of an owner's ledger.
type MonthlyStatistics struct {
	Year             int               `json:"year"`
	TotalGross       decimal.Decimal   `json:"total_gross"`
	TotalNet         decimal.Decimal   `json:"total_net"`
	TotalTaxes       decimal.Decimal   `json:"total_taxes"`
	TotalDeductions  decimal.Decimal   `json:"total_deductions"`
	TotalOvertimePay decimal.Decimal   `json:"total_overtime_pay"`
	AverageNet       decimal.Decimal   `json:"average_net"`
	MonthsRecorded   int               `json:"months_recorded"`
	Months           []MonthStatistics `json:"months"`
}

// YearlyTrend is one year of a multi-year comparison.
type YearlyTrend struct {
	Year           int             `json:"year"`
	TotalGross     decimal.Decimal `json:"total_gross"`
	TotalNet       decimal.Decimal `json:"total_net"`
	AverageGross   decimal.Decimal `json:"average_gross"`
	AverageNet     decimal.Decimal `json:"average_net"`
	MonthsRecorded int             `json:"months_recorded"`
}
