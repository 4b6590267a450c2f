package extract

import (
	"strings"

	"google.golang.org/genai"

	"github.com/finlens/ledgerscan/internal/category"
)

const (
	// DefaultModelName is the Gemini model used for extraction.
	DefaultModelName = "gemini-2.5-flash"

	// maxInputChars caps the recognized text embedded in the prompt. Longer
	// text is truncated silently; the tail of a statement is usually
	// summary boilerplate.
	maxInputChars = 8000

	maxOutputTokens = 16384
	temperature     = 0.1
)

// Request is the instruction payload for one extraction call: the prompt
// with the category vocabulary and formatting rules baked in, plus
// deterministic-leaning generation parameters.
type Request struct {
	Prompt string
	Config *genai.GenerateContentConfig
}

// BuildRequest constructs the extraction request for a blob of recognized
// statement text. Pure transformation, no side effects.
func BuildRequest(recognized string) Request {
	truncated := recognized
	if runes := []rune(truncated); len(runes) > maxInputChars {
		truncated = string(runes[:maxInputChars])
	}

	var b strings.Builder
	b.WriteString("Parse this bank statement and return JSON only.\n\n")
	b.WriteString("Rules:\n")
	b.WriteString("1. Classify each transaction into one category: ")
	b.WriteString(strings.Join(category.Names, ", "))
	b.WriteString("\n")
	b.WriteString("2. Mark costType as \"fixed\" for recurring bills (rent, insurance, subscriptions, utilities) or \"variable\" for discretionary spending\n")
	b.WriteString("3. Use YYYY-MM-DD date format\n")
	b.WriteString("4. Use numbers only for amounts (no currency symbols)\n\n")
	b.WriteString(`Format: {"transactions":[{"date":"YYYY-MM-DD","description":"text","debit":number|null,"credit":number|null,"balance":number|null,"reference":"text|null","category":"category","costType":"fixed|variable"}],"bankName":"name|null","period":"period|null"}`)
	b.WriteString("\n\nText:\n")
	b.WriteString(truncated)
	b.WriteString("\n\nJSON:")

	return Request{
		Prompt: b.String(),
		Config: &genai.GenerateContentConfig{
			Temperature:      genai.Ptr[float32](temperature),
			MaxOutputTokens:  maxOutputTokens,
			ResponseMIMEType: "application/json",
		},
	}
}
