package extract

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// The model occasionally wraps its JSON in prose or code fences, and token
// limits can cut the output mid-array. Parse runs escalating recovery
// stages so a usable partial result is salvaged whenever the syntax allows:
//
//  1. candidate extraction: unwrap a fenced code block, or slice between
//     the outermost braces when the text does not start with one
//  2. syntax repair: strip trailing commas; on truncation, cut back to the
//     last complete array element and re-balance open brackets
//  3. hard failure: ErrParseFailure
var (
	fenceRE         = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)\\s*```")
	trailingCommaRE = regexp.MustCompile(`,\s*([}\]])`)
)

// Parse converts an arbitrary model response into a generic JSON object.
// The caller keeps the raw text for diagnostic logging on failure; it is
// never surfaced to the end user.
func Parse(raw string) (map[string]interface{}, error) {
	candidate := extractCandidate(raw)

	var parsed interface{}
	if err := json.Unmarshal([]byte(candidate), &parsed); err != nil {
		repaired := repairCandidate(candidate)
		if rerr := json.Unmarshal([]byte(repaired), &parsed); rerr != nil {
			return nil, fmt.Errorf("parse: %v: %w", err, ErrParseFailure)
		}
	}

	obj, ok := parsed.(map[string]interface{})
	if !ok || obj == nil {
		return nil, fmt.Errorf("parse: top-level value is %T: %w", parsed, ErrInvalidFormat)
	}
	return obj, nil
}

// extractCandidate unwraps the most likely JSON document from the response.
func extractCandidate(raw string) string {
	candidate := strings.TrimSpace(raw)

	if m := fenceRE.FindStringSubmatch(raw); m != nil {
		candidate = strings.TrimSpace(m[1])
	}

	if !strings.HasPrefix(candidate, "{") {
		start := strings.Index(raw, "{")
		end := strings.LastIndex(raw, "}")
		if start != -1 && end > start {
			candidate = raw[start : end+1]
		}
	}
	return candidate
}

// repairCandidate strips trailing commas and, when the document does not
// end with a closing brace (the signature of a truncated response),
// rebuilds a minimally valid envelope around the complete elements.
func repairCandidate(candidate string) string {
	fixed := trailingCommaRE.ReplaceAllString(candidate, "$1")

	if strings.HasSuffix(fixed, "}") {
		return fixed
	}

	// Cut at the last complete transactions element, close the array and
	// supply the metadata fields the truncation swallowed.
	if cut := strings.LastIndex(fixed, "},"); cut != -1 {
		return fixed[:cut+1] + `],"bankName":null,"period":null}`
	}

	// No element boundary at all. Cut at the last closing brace and balance
	// whatever brackets remain open.
	if cut := strings.LastIndex(fixed, "}"); cut != -1 {
		fixed = fixed[:cut+1]
		if n := strings.Count(fixed, "[") - strings.Count(fixed, "]"); n > 0 {
			fixed += strings.Repeat("]", n)
		}
		if n := strings.Count(fixed, "{") - strings.Count(fixed, "}"); n > 0 {
			fixed += strings.Repeat("}", n)
		}
	}
	return fixed
}
