package insight

import (
	"strings"

	"github.com/tbourn/go-insight-backend/internal/domain"
)

// Defaults applied by Normalize.
const (
	DefaultTitle   = "Feedback Analysis"
	DefaultSummary = "Analysis complete"
	// MaxListItems caps key_themes and action_items.
	MaxListItems = 5
)

// Result is a fully validated insight body, ready to persist.
type Result struct {
	Title       string           `json:"title"`
	Summary     string           `json:"summary"`
	KeyThemes   []string         `json:"key_themes"`
	Sentiment   domain.Sentiment `json:"sentiment"`
	ActionItems []string         `json:"action_items"`
}

// Normalize converts a Draft into a Result. Every field gets an explicit
// default on violation:
//   - title, summary: kept when a non-blank string, else the default.
//   - key_themes, action_items: non-string elements dropped, then
//     the first MaxListItems kept; anything but an array becomes [].
//   - sentiment: kept only on an exact match of the four values, else neutral.
func Normalize(d Draft) Result {
	return Result{
		Title:       text(d["title"], DefaultTitle),
		Summary:     text(d["summary"], DefaultSummary),
		KeyThemes:   list(d["key_themes"]),
		Sentiment:   sentiment(d["sentiment"]),
		ActionItems: list(d["action_items"]),
	}
}

func text(v any, def string) string {
	s, ok := v.(string)
	if !ok || strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

func list(v any) []string {
	out := []string{}
	arr, ok := v.([]any)
	if !ok {
		return out
	}
	for _, e := range arr {
		s, ok := e.(string)
		if !ok {
			continue
		}
		out = append(out, s)
		if len(out) == MaxListItems {
			break
		}
	}
	return out
}

func sentiment(v any) domain.Sentiment {
	if s, ok := v.(string); ok && domain.Sentiment(s).Valid() {
		return domain.Sentiment(s)
	}
	return domain.SentimentNeutral
}
