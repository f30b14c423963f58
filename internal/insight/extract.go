package insight

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"
)

// Draft is the loosely-typed object decoded from a summarizer answer. Values
// keep whatever JSON type the model produced; Normalize decides what to trust.
type Draft map[string]any

// Outcome records which decode path produced a Result.
type Outcome string

const (
	// OutcomeParsed means the fence-stripped text was valid JSON.
	OutcomeParsed Outcome = "parsed"
	// OutcomeRepaired means JSON was recovered from the outermost {...} span.
	OutcomeRepaired Outcome = "repaired"
	// OutcomeFallback means no JSON was found and the fixed fallback was used.
	OutcomeFallback Outcome = "fallback"
)

// ErrNoJSON is returned by Parse when no JSON can be recovered.
var ErrNoJSON = errors.New("insight: no JSON object in response")

// fenceRE matches ```json and ``` markers, each with an optional adjacent newline.
var fenceRE = regexp.MustCompile("```json\\n?|\\n?```")

// StripFences removes every code-fence marker and trims surrounding whitespace.
func StripFences(raw string) string {
	return strings.TrimSpace(fenceRE.ReplaceAllString(raw, ""))
}

// Parse extracts a Draft from raw model output.
//
// The fence-stripped text is decoded first. When that fails, the outermost
// {...} span is tried, which recovers objects wrapped in prose; the span only
// counts when it is an object carrying at least one insight field. A value that
// decodes but is not an object yields an empty Draft, so every field takes
// its default. The returned Outcome is OutcomeParsed or OutcomeRepaired.
func Parse(raw string) (Draft, Outcome, error) {
	clean := StripFences(raw)

	var v any
	if err := json.Unmarshal([]byte(clean), &v); err == nil {
		return asDraft(v), OutcomeParsed, nil
	}

	start := strings.Index(clean, "{")
	end := strings.LastIndex(clean, "}")
	if start >= 0 && end > start {
		var m map[string]any
		if err := json.Unmarshal([]byte(clean[start:end+1]), &m); err == nil && hasInsightField(m) {
			return Draft(m), OutcomeRepaired, nil
		}
	}
	return nil, "", ErrNoJSON
}

// insightFields are the keys that make a recovered object an insight rather
// than a stray brace pair quoted in prose.
var insightFields = []string{"title", "summary", "key_themes", "sentiment", "action_items"}

func hasInsightField(m map[string]any) bool {
	for _, k := range insightFields {
		if _, ok := m[k]; ok {
			return true
		}
	}
	return false
}

func asDraft(v any) Draft {
	if m, ok := v.(map[string]any); ok {
		return Draft(m)
	}
	return Draft{}
}

// FallbackTitle labels insights built without parseable model output.
const FallbackTitle = "Feedback Analysis Summary"

// fallbackSummaryRunes caps how much raw text becomes the fallback summary.
const fallbackSummaryRunes = 500

// Fallback builds the deterministic Draft used when raw holds no JSON. The
// summary is the first 500 characters of raw, untouched.
func Fallback(raw string) Draft {
	summary := raw
	if r := []rune(raw); len(r) > fallbackSummaryRunes {
		summary = string(r[:fallbackSummaryRunes])
	}
	return Draft{
		"title":        FallbackTitle,
		"summary":      summary,
		"key_themes":   []any{"User Experience", "Feature Requests", "Performance"},
		"sentiment":    "neutral",
		"action_items": []any{"Review detailed feedback", "Prioritize based on frequency", "Follow up with users"},
	}
}

// Decode runs the whole answer-to-record path: Parse, or Fallback when
// nothing parses, then Normalize. It never fails.
func Decode(raw string) (Result, Outcome) {
	d, outcome, err := Parse(raw)
	if err != nil {
		return Normalize(Fallback(raw)), OutcomeFallback
	}
	return Normalize(d), outcome
}
