// Package insight turns a user's feedback into a summarizer prompt and turns
// the summarizer's free-form answer back into a record that is safe to store.
//
// Everything here is pure: no I/O, no clocks, no globals that change. The
// network call and persistence live in the services package.
package insight

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/tbourn/go-insight-backend/internal/ai"
	"github.com/tbourn/go-insight-backend/internal/domain"
)

// SystemPrompt is the fixed instruction sent with every request. It pins the
// JSON shape and the analysis guidelines.
const SystemPrompt = `You are an expert product analyst specializing in user feedback analysis. Analyze the provided feedback and generate actionable insights.

Your response MUST be valid JSON with this exact structure:
{
  "title": "A concise title summarizing the main insight (max 10 words)",
  "summary": "A comprehensive 2-3 sentence summary of the key findings",
  "key_themes": ["theme1", "theme2", "theme3"],
  "sentiment": "positive" | "negative" | "neutral" | "mixed",
  "action_items": ["action1", "action2", "action3"]
}

Guidelines:
- Identify the most common themes and patterns
- Determine overall sentiment based on the content and ratings
- Generate 3-5 specific, actionable recommendations
- Be concise but informative
- Focus on product improvement opportunities`

// RenderLine serializes one feedback item as
// "- [category] title: content (Rating: N/5)". The rating clause is present
// only when the item is rated.
func RenderLine(f domain.Feedback) string {
	var b strings.Builder
	b.WriteString("- [")
	b.WriteString(string(f.Category))
	b.WriteString("] ")
	b.WriteString(f.Title)
	b.WriteString(": ")
	b.WriteString(f.Content)
	if f.Rating != nil {
		b.WriteString(" (Rating: ")
		b.WriteString(strconv.Itoa(*f.Rating))
		b.WriteString("/5)")
	}
	return b.String()
}

// RenderFeedback renders items one per line, in the order given.
func RenderFeedback(items []domain.Feedback) string {
	lines := make([]string, len(items))
	for i, f := range items {
		lines[i] = RenderLine(f)
	}
	return strings.Join(lines, "\n")
}

// UserPrompt wraps the rendered feedback with the item count.
func UserPrompt(n int, rendered string) string {
	return fmt.Sprintf("Analyze the following %d pieces of user feedback and generate insights:\n\n%s", n, rendered)
}

// Messages builds the two-message conversation for items.
func Messages(items []domain.Feedback) []ai.Message {
	return []ai.Message{
		{Role: ai.RoleSystem, Content: SystemPrompt},
		{Role: ai.RoleUser, Content: UserPrompt(len(items), RenderFeedback(items))},
	}
}
