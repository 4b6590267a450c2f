package extract

import "errors"

// Error taxonomy for a single extraction operation. Every failure here is
// local to one call and recoverable by user retry; none of them corrupts
// previously merged session state.
var (
	// ErrUpstreamInput means recognized text could not be obtained, or is
	// too short to describe a statement.
	ErrUpstreamInput = errors.New("recognized text is missing or too short")

	// ErrCredential means the remote service rejected the API credential.
	// Never retried automatically.
	ErrCredential = errors.New("extraction service rejected the credential")

	// ErrRateLimited means the remote service signalled throttling. No
	// automatic backoff is performed.
	ErrRateLimited = errors.New("extraction service is rate limited")

	// ErrParseFailure means the response could not be recovered into a
	// structured result even after repair.
	ErrParseFailure = errors.New("model response could not be parsed")

	// ErrInvalidFormat means the response parsed but is not the expected
	// JSON object shape.
	ErrInvalidFormat = errors.New("model response is not a JSON object")

	// ErrEmptyExtraction means a structurally valid response carried zero
	// transactions. A zero-result extraction is indistinguishable from a
	// total recognition failure, so it is rejected rather than accepted as
	// an empty success.
	ErrEmptyExtraction = errors.New("no transactions found in model response")
)

// UserMessage maps an extraction error onto the message shown to the end
// user. Diagnostic detail stays in the logs.
func UserMessage(err error) string {
	switch {
	case errors.Is(err, ErrUpstreamInput):
		return "Could not extract text. Please use a clearer image or PDF."
	case errors.Is(err, ErrCredential):
		return "Invalid API key. Please check your Gemini API key."
	case errors.Is(err, ErrRateLimited):
		return "Rate limit exceeded. Please try again in a moment."
	case errors.Is(err, ErrEmptyExtraction):
		return "No transactions found in the document. Please try a clearer image."
	case errors.Is(err, ErrParseFailure), errors.Is(err, ErrInvalidFormat):
		return "Failed to parse AI response. Please try again."
	default:
		return "Something went wrong. Please try again."
	}
}
