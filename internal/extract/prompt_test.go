package extract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finlens/ledgerscan/internal/category"
)

func TestBuildRequest_ContainsVocabulary(t *testing.T) {
	req := BuildRequest("ACME BANK statement text with some transactions")

	for _, name := range category.Names {
		assert.Contains(t, req.Prompt, name)
	}
	assert.Contains(t, req.Prompt, "YYYY-MM-DD")
	assert.Contains(t, req.Prompt, `"transactions"`)
}

func TestBuildRequest_TruncatesLongInput(t *testing.T) {
	input := strings.Repeat("x", maxInputChars+500)
	req := BuildRequest(input)

	assert.Contains(t, req.Prompt, strings.Repeat("x", maxInputChars))
	assert.NotContains(t, req.Prompt, strings.Repeat("x", maxInputChars+1))
}

func TestBuildRequest_TruncationIsRuneSafe(t *testing.T) {
	// Multi-byte runes must not be split mid-sequence.
	input := strings.Repeat("£", maxInputChars+10)
	req := BuildRequest(input)

	assert.True(t, strings.HasSuffix(strings.TrimSuffix(req.Prompt, "\n\nJSON:"), "£"))
}

func TestBuildRequest_Config(t *testing.T) {
	req := BuildRequest("statement")

	require.NotNil(t, req.Config)
	require.NotNil(t, req.Config.Temperature)
	assert.InDelta(t, 0.1, float64(*req.Config.Temperature), 1e-6)
	assert.Equal(t, int32(16384), req.Config.MaxOutputTokens)
	assert.Equal(t, "application/json", req.Config.ResponseMIMEType)
}
