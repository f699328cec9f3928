package dto

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

// Terminal extraction outcomes. They are distinct so callers can tell a bad
// file apart from a layout nothing recognised.
var (
	ErrSourceUnavailable = errors.New("source document unavailable")
	ErrNoFieldsExtracted = errors.New("no fields extracted")
	ErrExtractionFault   = errors.New("extraction fault")
)

// maxErrorMessage caps what gets stored in processing_error.
const maxErrorMessage = 2000

type Locale string

const (
	LocaleIT Locale = "it"
	LocaleEN Locale = "en"
)

type messageCatalog struct {
	sourceUnavailable string
	noFields          string
	fault             string
	autoGenerated     string
	alreadyProcessed  string
}

var catalogs = map[Locale]messageCatalog{
	LocaleIT: {
		sourceUnavailable: "File non trovato",
		noFields:          "Impossibile estrarre dati dal PDF",
		fault:             "Errore nel parsing: %s",
		autoGenerated:     "Generato automaticamente da busta paga",
		alreadyProcessed:  "Busta paga già elaborata",
	},
	LocaleEN: {
		sourceUnavailable: "File not found",
		noFields:          "Unable to extract data from the document",
		fault:             "Parsing error: %s",
		autoGenerated:     "Automatically generated from pay slip",
		alreadyProcessed:  "Pay slip already processed",
	},
}

func catalog(l Locale) messageCatalog {
	if c, ok := catalogs[l]; ok {
		return c
	}
	return catalogs[LocaleIT]
}

// ParseLocale maps a config value to a Locale, defaulting to Italian.
func ParseLocale(s string) Locale {
	if _, ok := catalogs[Locale(s)]; ok {
		return Locale(s)
	}
	return LocaleIT
}

// AutoGeneratedNote is the note stored on ledger entries created from a slip.
func AutoGeneratedNote(l Locale) string {
	return catalog(l).autoGenerated
}

// AlreadyProcessedMessage is shown when a processed slip is re-triggered.
func AlreadyProcessedMessage(l Locale) string {
	return catalog(l).alreadyProcessed
}

// ProcessingError is a failed extraction with the message shown to the owner.
type ProcessingError struct {
	Kind        error
	UserMessage string
	Err         error
}

// NewProcessingError builds the localized error for kind. cause may be nil.
func NewProcessingError(kind error, locale Locale, cause error) *ProcessingError {
	c := catalog(locale)
	var msg string
	switch {
	case errors.Is(kind, ErrSourceUnavailable):
		msg = c.sourceUnavailable
	case errors.Is(kind, ErrNoFieldsExtracted):
		msg = c.noFields
	default:
		detail := "unknown"
		if cause != nil {
			detail = cause.Error()
		}
		msg = fmt.Sprintf(c.fault, detail)
	}
	return &ProcessingError{Kind: kind, UserMessage: truncateMessage(msg, maxErrorMessage), Err: cause}
}

// truncateMessage cuts msg to at most n bytes without splitting a rune.
func truncateMessage(msg string, n int) string {
	if len(msg) <= n {
		return msg
	}
	for n > 0 && !utf8.RuneStart(msg[n]) {
		n--
	}
	return msg[:n]
}

func (e *ProcessingError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%v: %v", e.Kind, e.Err)
	}
	return e.Kind.Error()
}

func (e *ProcessingError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}
