package utils

import (
	"testing"

	"github.com/Aashish23092/payslip-ledger/dto"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertField(t *testing.T, fields dto.ExtractedFields, f dto.Field, want string) {
	t.Helper()
	got, ok := fields.Get(f)
	require.True(t, ok, "field %s missing", f)
	assert.True(t, dec(want).Equal(got), "%s: want %s, got %s", f, want, got)
}

func TestExtractFieldsCedolino(t *testing.T) {
	text := `
		ACME S.r.l.      CEDOLINO PAGA
		PAGA BASE 1.800,00
		TOTALE COMPETENZE 2.100,50
		TOTALE TRATTENUTE 450,25
		TOTALE NETTO DEL MESE 1.650,25
	`

	fields := ExtractFields(text)

	assertField(t, fields, dto.FieldBaseSalary, "1800")
	assertField(t, fields, dto.FieldGrossSalary, "2100.50")
	assertField(t, fields, dto.FieldNetSalary, "1650.25")
	assertField(t, fields, dto.FieldDeductions, "450.25")
	assert.False(t, fields.Has(dto.FieldBonus))
}

func TestExtractFieldsGenericItalianLabels(t *testing.T) {
	text := "Stipendio base: € 2.000,00\nPremio: 150,00\nStraordinari: 10 ore a € 15,50/ora\n" +
		"IRPEF: 380,40\nContributi: 190,00\nTotale lordo € 2.305,00\nNetto in busta € 1.734,60"

	fields := ExtractFields(text)

	assertField(t, fields, dto.FieldBaseSalary, "2000")
	assertField(t, fields, dto.FieldBonus, "150")
	assertField(t, fields, dto.FieldOvertimeHours, "10")
	assertField(t, fields, dto.FieldOvertimeRate, "15.50")
	assertField(t, fields, dto.FieldTaxAmount, "380.40")
	assertField(t, fields, dto.FieldDeductions, "190")
	assertField(t, fields, dto.FieldGrossSalary, "2305")
	assertField(t, fields, dto.FieldNetSalary, "1734.60")
}

func TestExtractFieldsEnglishLabels(t *testing.T) {
	text := "Basic Salary: 3,200.00\nBonus 250.00\nIncome Tax: 640.00\nDeductions: 120.00\nGross Pay 3,450.00\nNet Pay 2,690.00"

	fields := ExtractFields(text)

	assertField(t, fields, dto.FieldBaseSalary, "3200")
	assertField(t, fields, dto.FieldBonus, "250")
	assertField(t, fields, dto.FieldTaxAmount, "640")
	assertField(t, fields, dto.FieldDeductions, "120")
	assertField(t, fields, dto.FieldGrossSalary, "3450")
	assertField(t, fields, dto.FieldNetSalary, "2690")
}

func TestExtractFieldsFirstPatternWins(t *testing.T) {
	// the template label outranks the generic "netto" even when it comes later
	text := "Netto 900,00 ... TOTALE NETTO DEL MESE 1.650,25"

	fields := ExtractFields(text)

	assertField(t, fields, dto.FieldNetSalary, "1650.25")
}

func TestExtractFieldsSkipsUnnormalizableMatch(t *testing.T) {
	// "1.800" is ambiguous, so the next base pattern is tried
	text := "PAGA BASE 1.800 Salario 1.750,00"

	fields := ExtractFields(text)

	assertField(t, fields, dto.FieldBaseSalary, "1750")
}

func TestExtractFieldsOvertimeAmountOnlyWithoutHoursAndRate(t *testing.T) {
	fields := ExtractFields("Paga base 1.500,00 Compenso straordinari € 120,00")
	assertField(t, fields, dto.FieldOvertimeAmount, "120")

	fields = ExtractFields("Paga base 1.500,00 Straordinari 8 ore, 15,00/ora Compenso straordinari € 120,00")
	assertField(t, fields, dto.FieldOvertimeHours, "8")
	assertField(t, fields, dto.FieldOvertimeRate, "15")
	assert.False(t, fields.Has(dto.FieldOvertimeAmount))
}

// Zero is indistinguishable from a missing value. This pins the current
// behaviour: an explicit "Bonus 0,00" is dropped.
func TestExtractFieldsZeroIsTreatedAsAbsent(t *testing.T) {
	fields := ExtractFields("Paga base 1.500,00 Bonus 0,00 Straordinari 0 ore")

	assertField(t, fields, dto.FieldBaseSalary, "1500")
	assert.False(t, fields.Has(dto.FieldBonus))
	assert.False(t, fields.Has(dto.FieldOvertimeHours))
}

func TestExtractFieldsNoMatch(t *testing.T) {
	assert.Empty(t, ExtractFields("Lorem ipsum dolor sit amet"))
	assert.Empty(t, ExtractFields(""))
}

func TestNormalizeText(t *testing.T) {
	assert.Equal(t, "Netto € 1.650,25", NormalizeText("  Netto\n\tâ‚¬ 1.650,25 "))
}
