package utils

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	// 1.653,69
	dotThousandsCommaDecimal = regexp.MustCompile(`^\d{1,3}(?:\.\d{3})+,\d{2}$`)
	// 1,653.69
	commaThousandsDotDecimal = regexp.MustCompile(`^\d{1,3}(?:,\d{3})+\.\d{2}$`)
	// 532,54 and 12,5
	commaDecimal = regexp.MustCompile(`^\d+,\d{1,2}$`)
	// 1653.69 and 12.5
	dotDecimal   = regexp.MustCompile(`^\d+\.\d{1,2}$`)
	plainInteger = regexp.MustCompile(`^\d+$`)
)

// NormalizeAmount turns a locale formatted number into a decimal. The second
// return value is false when raw has none of the known shapes; that means
// "not found", never an error. Ambiguous strings such as "1.653" or "12,345"
// are rejected.
func NormalizeAmount(raw string) (decimal.Decimal, bool) {
	s := strings.TrimSpace(raw)
	var canonical string
	switch {
	case dotThousandsCommaDecimal.MatchString(s):
		canonical = strings.Replace(strings.ReplaceAll(s, ".", ""), ",", ".", 1)
	case commaThousandsDotDecimal.MatchString(s):
		canonical = strings.ReplaceAll(s, ",", "")
	case commaDecimal.MatchString(s):
		canonical = strings.Replace(s, ",", ".", 1)
	case dotDecimal.MatchString(s), plainInteger.MatchString(s):
		canonical = s
	default:
		return decimal.Zero, false
	}

	d, err := decimal.NewFromString(canonical)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}
