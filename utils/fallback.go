package utils

import (
	"regexp"
	"sort"

	"github.com/Aashish23092/payslip-ledger/dto"
	"github.com/shopspring/decimal"
)

const (
	currencyTag = `(?:€|\beur(?:o)?\b)`
	// fallback tokens must carry exactly two decimals to look like money
	decimalToken = `\d[\d.,]*[.,]\d{2}`
)

var (
	// One left to right pass so every tag belongs to a single amount. The
	// tag-before form wins when both could apply.
	currencyAmount = regexp.MustCompile(`(?i)` + currencyTag + `\s*(` + decimalToken + `)\b|(` + decimalToken + `)\s*` + currencyTag)
	bareDecimal    = regexp.MustCompile(decimalToken + `\b`)
)

// ExtractFallback estimates totals from the largest amounts in text when no
// labelled field was recognised. Currency tagged amounts are preferred; bare
// decimals are used only when none exist. With two or more distinct values the
// largest becomes gross and the second both net and base. A single value
// becomes net and base. No value gives an empty result.
func ExtractFallback(text string) dto.ExtractedFields {
	normalized := NormalizeText(text)

	values := currencyAmounts(normalized)
	if len(values) == 0 {
		values = bareAmounts(normalized)
	}

	fields := make(dto.ExtractedFields)
	switch {
	case len(values) >= 2:
		fields[dto.FieldGrossSalary] = values[0]
		fields[dto.FieldNetSalary] = values[1]
		fields[dto.FieldBaseSalary] = values[1]
	case len(values) == 1:
		fields[dto.FieldNetSalary] = values[0]
		fields[dto.FieldBaseSalary] = values[0]
	}
	return fields.Compact()
}

func currencyAmounts(text string) []decimal.Decimal {
	var raw []string
	for _, m := range currencyAmount.FindAllStringSubmatch(text, -1) {
		if m[1] != "" {
			raw = append(raw, m[1])
		} else {
			raw = append(raw, m[2])
		}
	}
	return distinctDescending(raw)
}

func bareAmounts(text string) []decimal.Decimal {
	var raw []string
	for _, loc := range bareDecimal.FindAllStringIndex(text, -1) {
		// skip pieces of dates and codes such as 12.03.2025
		if loc[1] < len(text)-1 && isSeparator(text[loc[1]]) && isDigit(text[loc[1]+1]) {
			continue
		}
		if loc[0] > 0 && text[loc[0]-1] == '/' {
			continue
		}
		raw = append(raw, text[loc[0]:loc[1]])
	}
	return distinctDescending(raw)
}

func distinctDescending(raw []string) []decimal.Decimal {
	seen := make(map[string]bool)
	var out []decimal.Decimal
	for _, r := range raw {
		v, ok := NormalizeAmount(r)
		if !ok || !v.IsPositive() {
			continue
		}
		key := v.String()
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].GreaterThan(out[j]) })
	return out
}

func isSeparator(b byte) bool { return b == '.' || b == ',' || b == '/' }

func isDigit(b byte) bool { return b >= '0' && b <= '9' }
