package logging

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComponentTagsLines(t *testing.T) {
	var buf bytes.Buffer
	prev := Logger()
	defer SetLogger(prev)

	SetLogger(NewTestLogger(&buf))
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	logger := Component("reader")
	logger.Info().Int("rows", 3).Msg("table loaded")

	out := buf.String()
	assert.Contains(t, out, `"component":"reader"`)
	assert.Contains(t, out, `"rows":3`)
	assert.Contains(t, out, `"message":"table loaded"`)
}

func TestInitJSONRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	prev := Logger()
	defer func() {
		SetLogger(prev)
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}()

	Init(Config{Level: "warn", Format: "json", Output: &buf})
	Info().Msg("hidden")
	Warn().Msg("shown")

	out := buf.String()
	require.NotEmpty(t, out)
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, parseLevel("DEBUG"))
	assert.Equal(t, zerolog.WarnLevel, parseLevel("warning"))
	assert.Equal(t, zerolog.Disabled, parseLevel("off"))
	assert.Equal(t, zerolog.InfoLevel, parseLevel("nonsense"))
}
