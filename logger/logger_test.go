package logger

import (
	"bytes"
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestNewParsesLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, New("DEBUG", "json").GetLevel())
	assert.Equal(t, zerolog.WarnLevel, New("warn", "console").GetLevel())
	assert.Equal(t, zerolog.InfoLevel, New("chatty", "json").GetLevel())
}

func TestContextRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf)

	ctx := WithContext(context.Background(), log)
	got := FromContext(ctx)
	got.Info().Str("pay_slip_id", "abc").Msg("hello")

	assert.Contains(t, buf.String(), `"pay_slip_id":"abc"`)
	assert.Contains(t, buf.String(), `"message":"hello"`)
}

func TestFromContextWithoutLogger(t *testing.T) {
	log := FromContext(context.Background())
	assert.Equal(t, zerolog.Disabled, log.GetLevel())
}
