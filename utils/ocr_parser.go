package utils

import (
	"regexp"
	"strings"

	"github.com/Aashish23092/payslip-ledger/dto"
	"github.com/shopspring/decimal"
)

// amountToken captures a run of digits and separators; NormalizeAmount decides
// whether it is a usable number.
const amountToken = `(\d[\d.,]*\d|\d)`

// labelSeparator sits between a label and its amount, e.g. "Netto: € 1.650,25".
const labelSeparator = `[\s:=\-]*(?:€|eur(?:o)?\b)?\s*`

type fieldRule struct {
	field    dto.Field
	patterns []*regexp.Regexp
}

// labelled builds one pattern per label, each followed by an amount.
func labelled(labels ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(labels))
	for _, l := range labels {
		out = append(out, regexp.MustCompile(`(?i)\b`+l+labelSeparator+amountToken))
	}
	return out
}

func raw(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		out = append(out, regexp.MustCompile(p))
	}
	return out
}

// fieldRules is evaluated top to bottom. Within a field the patterns go from
// the most template specific label to the loosest one.
var fieldRules = []fieldRule{
	{dto.FieldBaseSalary, labelled(
		`paga\s*base`,
		`stipendio\s*base`,
		`retribuzione\s*base`,
		`minimo\s*(?:tabellare|contrattuale)`,
		`salario`,
		`basic\s*(?:salary|pay)`,
		`base\s*(?:salary|pay)`,
	)},
	{dto.FieldBonus, labelled(
		`premio\s*di\s*produzione`,
		`una\s*tantum`,
		`bonus`,
		`premio`,
		`incentivo`,
		`gratifica`,
	)},
	{dto.FieldOvertimeHours, raw(
		`(?i)\bstraordinari[oe]?[\s:]*`+amountToken+`\s*ore\b`,
		`(?i)\bore\s*(?:di\s*)?straordinari[oe]?`+labelSeparator+amountToken,
		`(?i)\bovertime\s*hours?`+labelSeparator+amountToken,
		`(?i)`+amountToken+`\s*(?:hours|hrs)\s*(?:of\s*)?overtime`,
	)},
	{dto.FieldOvertimeRate, raw(
		`(?i)\btariffa\s*straordinari[oe]?`+labelSeparator+amountToken,
		`(?i)\bstraordinari[oe]?.{0,40}?(?:€|eur)?\s*`+amountToken+`\s*/\s*or[ae]\b`,
		`(?i)(?:€|eur)?\s*`+amountToken+`\s*/\s*or[ae]\b.{0,40}?straordinari`,
		`(?i)\bovertime\s*rate`+labelSeparator+amountToken,
		`(?i)\bovertime.{0,40}?(?:€|eur)?\s*`+amountToken+`\s*(?:/|per)\s*(?:hour|hr|h)\b`,
	)},
	{dto.FieldOvertimeAmount, raw(
		`(?i)\b(?:compenso|importo)\s*straordinari[oe]?`+labelSeparator+amountToken,
		`(?i)\bstraordinari[oe]?[\s:]*(?:€|eur(?:o)?\b)\s*`+amountToken,
		`(?i)\bovertime\s*(?:pay|amount)`+labelSeparator+amountToken,
	)},
	{dto.FieldTaxAmount, labelled(
		`ritenute\s*irpef`,
		`irpef`,
		`imposte`,
		`tasse`,
		`ritenute`,
		`income\s*tax`,
		`tax(?:es)?`,
	)},
	{dto.FieldDeductions, labelled(
		`totale\s*trattenute`,
		`contributi\s*(?:inps|previdenziali)`,
		`contributi`,
		`detrazioni`,
		`trattenute`,
		`(?:total\s*)?deductions`,
	)},
	{dto.FieldGrossSalary, labelled(
		`totale\s*competenze`,
		`totale\s*lordo`,
		`retribuzione\s*lorda`,
		`imponibile`,
		`lordo`,
		`gross\s*(?:pay|salary|earnings|amount)`,
		`total\s*earnings`,
	)},
	{dto.FieldNetSalary, labelled(
		`totale\s*netto\s*del\s*mese`,
		`netto\s*del\s*mese`,
		`totale\s*netto`,
		`netto\s*in\s*busta`,
		`netto\s*a\s*pagare`,
		`da\s*pagare`,
		`netto`,
		`net\s*(?:pay|salary|amount)`,
		`take\s*home(?:\s*pay)?`,
	)},
}

var (
	whitespaceRun = regexp.MustCompile(`\s+`)
	// PDF text layers often carry the euro sign in a broken encoding.
	textFixer = strings.NewReplacer(
		"â‚¬", "€",
		"âŹ", "€",
		"\u00a0", " ",
		"\u202f", " ",
	)
)

// NormalizeText collapses whitespace and repairs the euro sign. Number
// separators are left alone so NormalizeAmount can read the locale.
func NormalizeText(text string) string {
	text = textFixer.Replace(text)
	text = whitespaceRun.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// ExtractFields runs the ordered rules over text. Only the first usable match
// per field counts. The result never holds zero values.
func ExtractFields(text string) dto.ExtractedFields {
	normalized := NormalizeText(text)
	fields := make(dto.ExtractedFields)

	for _, rule := range fieldRules {
		if v, ok := firstAmount(normalized, rule.patterns); ok {
			fields[rule.field] = v
		}
	}

	fields = fields.Compact()

	// A direct overtime amount is only a stand-in for hours x rate.
	if fields.Has(dto.FieldOvertimeHours) && fields.Has(dto.FieldOvertimeRate) {
		delete(fields, dto.FieldOvertimeAmount)
	}

	return fields
}

// firstAmount returns the value captured by the first pattern whose match
// normalizes.
func firstAmount(text string, patterns []*regexp.Regexp) (decimal.Decimal, bool) {
	for _, re := range patterns {
		m := re.FindStringSubmatch(text)
		if len(m) < 2 {
			continue
		}
		if v, ok := NormalizeAmount(m[1]); ok {
			return v, true
		}
	}
	return decimal.Zero, false
}
