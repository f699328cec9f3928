package utils

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/Aashish23092/payslip-ledger/dto"
)

var monthNames = map[string]int{
	"gennaio": 1, "febbraio": 2, "marzo": 3, "aprile": 4, "maggio": 5, "giugno": 6,
	"luglio": 7, "agosto": 8, "settembre": 9, "ottobre": 10, "novembre": 11, "dicembre": 12,
	"january": 1, "february": 2, "march": 3, "april": 4, "may": 5, "june": 6,
	"july": 7, "august": 8, "september": 9, "october": 10, "november": 11, "december": 12,
}

var (
	monthNameYear  = regexp.MustCompile(`(?i)\b(` + monthAlternation() + `)\b[\s,/\-]*(\d{4})\b`)
	numericPeriod  = regexp.MustCompile(`(?:^|\D)(\d{1,2})[/-](\d{4})(?:\D|$)`)
	fileNamePeriod = regexp.MustCompile(`(?:^|\D)(\d{1,2})[-_](\d{4})(?:\D|$)`)
)

func monthAlternation() string {
	names := make([]string, 0, len(monthNames))
	for name := range monthNames {
		names = append(names, name)
	}
	return strings.Join(names, "|")
}

// ResolvePeriod finds the month a statement refers to. It tries a month name
// followed by a year, then MM/YYYY or MM-YYYY in the text, then MM-YYYY or
// MM_YYYY in the file name, and finally falls back to now. Candidates outside
// month 1-12 or years 2000-2100 are skipped.
func ResolvePeriod(text, fileName string, now time.Time) dto.Period {
	normalized := NormalizeText(text)

	for _, m := range monthNameYear.FindAllStringSubmatch(normalized, -1) {
		month := monthNames[strings.ToLower(m[1])]
		if year, ok := parseYear(m[2]); ok {
			return dto.Period{Month: month, Year: year, Source: dto.PeriodFromMonthName}
		}
	}

	if p, ok := numericMatch(numericPeriod, normalized); ok {
		p.Source = dto.PeriodFromText
		return p
	}

	if p, ok := numericMatch(fileNamePeriod, filepath.Base(fileName)); ok {
		p.Source = dto.PeriodFromFileName
		return p
	}

	return dto.Period{Month: int(now.Month()), Year: now.Year(), Source: dto.PeriodDefault}
}

func numericMatch(re *regexp.Regexp, s string) (dto.Period, bool) {
	// the boundary groups consume a character, so overlapping candidates
	// like "1-2025-03-2025" need a manual scan
	for start := 0; start < len(s); {
		loc := re.FindStringSubmatchIndex(s[start:])
		if loc == nil {
			break
		}
		month, _ := strconv.Atoi(s[start+loc[2] : start+loc[3]])
		year, ok := parseYear(s[start+loc[4] : start+loc[5]])
		if ok && dto.ValidPeriod(month, year) {
			return dto.Period{Month: month, Year: year}, true
		}
		start += loc[3]
	}
	return dto.Period{}, false
}

func parseYear(s string) (int, bool) {
	y, err := strconv.Atoi(s)
	if err != nil || y < dto.MinYear || y > dto.MaxYear {
		return 0, false
	}
	return y, true
}
