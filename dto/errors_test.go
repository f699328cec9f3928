package dto

import (
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestNewProcessingErrorMessages(t *testing.T) {
	it := NewProcessingError(ErrNoFieldsExtracted, LocaleIT, nil)
	assert.Equal(t, "Impossibile estrarre dati dal PDF", it.UserMessage)
	assert.ErrorIs(t, it, ErrNoFieldsExtracted)

	fault := NewProcessingError(ErrExtractionFault, LocaleEN, errors.New("boom"))
	assert.Contains(t, fault.UserMessage, "boom")
}

func TestNewProcessingErrorKeepsRunesWhole(t *testing.T) {
	// "è" is two bytes; pad so the cap lands inside one of them
	cause := errors.New(strings.Repeat("è", maxErrorMessage))

	perr := NewProcessingError(ErrExtractionFault, LocaleIT, cause)

	assert.LessOrEqual(t, len(perr.UserMessage), maxErrorMessage)
	assert.True(t, utf8.ValidString(perr.UserMessage))
}

func TestTruncateMessage(t *testing.T) {
	assert.Equal(t, "abc", truncateMessage("abc", 10))
	assert.Equal(t, "ab", truncateMessage("abcd", 2))
	assert.Equal(t, "a", truncateMessage("aèb", 2))
	assert.Equal(t, "aè", truncateMessage("aèb", 3))
}
