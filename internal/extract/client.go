// Package extract implements the extraction-and-recovery pipeline: building
// the Gemini request for a blob of recognized statement text, recovering a
// structured result from whatever the model returns, and normalizing it
// into canonical transaction records.
package extract

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/genai"

	"github.com/finlens/ledgerscan/internal/model"
)

// minRecognizedChars guards against sending the model text that cannot
// possibly describe a statement (a failed or near-empty recognition pass).
const minRecognizedChars = 50

// Extractor turns recognized statement text into a normalized extraction
// result. batchOffset feeds the record ID scheme; see NormalizeResult.
type Extractor interface {
	Extract(ctx context.Context, recognized string, batchOffset int) (*model.ExtractionResult, error)
}

// GeminiExtractor calls the Gemini API. One request/response cycle per
// Extract call; no retry, and no deadline beyond what the context carries.
type GeminiExtractor struct {
	client *genai.Client
	model  string
	log    zerolog.Logger
}

// NewGeminiExtractor creates an extractor backed by the Gemini API. An
// empty apiKey lets the client fall back to the GEMINI_API_KEY environment
// variable.
func NewGeminiExtractor(ctx context.Context, apiKey, modelName string, log zerolog.Logger) (*GeminiExtractor, error) {
	if modelName == "" {
		modelName = DefaultModelName
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      apiKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("NewGeminiExtractor: create genai client: %w", err)
	}
	return &GeminiExtractor{client: client, model: modelName, log: log}, nil
}

// Extract implements Extractor.
func (e *GeminiExtractor) Extract(ctx context.Context, recognized string, batchOffset int) (*model.ExtractionResult, error) {
	if len(strings.TrimSpace(recognized)) < minRecognizedChars {
		return nil, fmt.Errorf("extract: %w", ErrUpstreamInput)
	}

	req := BuildRequest(recognized)

	resp, err := e.client.Models.GenerateContent(ctx, e.model, genai.Text(req.Prompt), req.Config)
	if err != nil {
		return nil, classifyServiceError(err)
	}

	raw := resp.Text()
	if raw == "" {
		return nil, fmt.Errorf("extract: empty response from model: %w", ErrParseFailure)
	}

	parsed, err := Parse(raw)
	if err != nil {
		// The raw text is diagnostic only; it never reaches the end user.
		e.log.Debug().Err(err).Str("raw_response", raw).Msg("Model response unrecoverable")
		return nil, err
	}

	result, err := NormalizeResult(parsed, batchOffset, time.Now())
	if err != nil {
		return nil, err
	}

	e.log.Info().
		Int("transactions", len(result.Transactions)).
		Int("batch_offset", batchOffset).
		Msg("Extraction completed")

	return result, nil
}

// classifyServiceError maps transport failures onto the error taxonomy.
func classifyServiceError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("extract: %s: %w", apiErr.Message, ErrCredential)
		case http.StatusTooManyRequests:
			return fmt.Errorf("extract: %s: %w", apiErr.Message, ErrRateLimited)
		}
	}
	return fmt.Errorf("extract: generate content: %w", err)
}
