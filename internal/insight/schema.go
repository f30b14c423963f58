package insight

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// schemaJSON describes the object the system prompt asks for.
const schemaJSON = `{
  "type": "object",
  "required": ["title", "summary", "key_themes", "sentiment", "action_items"],
  "properties": {
    "title":        {"type": "string", "minLength": 1},
    "summary":      {"type": "string", "minLength": 1},
    "key_themes":   {"type": "array", "maxItems": 5, "items": {"type": "string", "minLength": 1}},
    "sentiment":    {"type": "string", "enum": ["positive", "negative", "neutral", "mixed"]},
    "action_items": {"type": "array", "maxItems": 5, "items": {"type": "string", "minLength": 1}}
  }
}`

var schema = mustSchema(schemaJSON)

func mustSchema(src string) *gojsonschema.Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(src))
	if err != nil {
		panic(fmt.Sprintf("insight: invalid schema: %v", err))
	}
	return s
}

// Validate reports how d deviates from the requested shape, one message per
// violation. It is diagnostic only: Normalize repairs every violation it lists.
func Validate(d Draft) []string {
	if d == nil {
		d = Draft{}
	}
	res, err := schema.Validate(gojsonschema.NewGoLoader(map[string]any(d)))
	if err != nil {
		return []string{err.Error()}
	}
	if res.Valid() {
		return nil
	}
	out := make([]string, 0, len(res.Errors()))
	for _, e := range res.Errors() {
		out = append(out, e.String())
	}
	return out
}
