// Package search provides a small, deterministic in-memory text index used to
// rank feedback against a free-text query.
//
// An index is immutable after construction and safe for concurrent use. The
// library does no logging.
//
// Scoring uses Jaccard similarity between the query token set and each
// document's token set: score = |Q ∩ D| / |Q ∪ D|.
package search

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

// Doc is one searchable document.
type Doc struct {
	ID   string
	Text string
}

// Result is a ranked document id with its similarity score.
type Result struct {
	ID    string
	Score float64
}

// Index is the minimal interface implemented by all search indices.
type Index interface {
	TopK(query string, k int) []Result
}

type Option func(*config)

type config struct {
	minRunes  int
	stopwords map[string]struct{}
	maxDocs   int
}

func defaultConfig() config {
	return config{}
}

// WithMinRunes skips documents shorter than n runes after whitespace cleanup.
func WithMinRunes(n int) Option {
	return func(c *config) {
		if n >= 0 {
			c.minRunes = n
		}
	}
}

func WithStopwords(words []string) Option {
	return func(c *config) {
		m := make(map[string]struct{}, len(words))
		for _, w := range words {
			w = strings.ToLower(strings.TrimSpace(w))
			if w != "" {
				m[w] = struct{}{}
			}
		}
		if len(m) > 0 {
			c.stopwords = m
		}
	}
}

func WithMaxDocs(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.maxDocs = n
		}
	}
}

// DefaultStopwords are common English words that carry no signal in feedback.
var DefaultStopwords = []string{
	"a", "an", "and", "are", "at", "be", "but", "by", "for", "i", "in", "is", "it",
	"of", "on", "or", "so", "that", "the", "this", "to", "was", "we", "with", "you",
}

type doc struct {
	id     string
	text   string
	lower  string
	tokens map[string]struct{}
	pos    int
}

type index struct {
	cfg  config
	docs []doc
}

// NewIndex builds an Index over docs. Input order is remembered and breaks
// score ties, so callers control the secondary ordering.
func NewIndex(docs []Doc, opts ...Option) Index {
	return buildIndex(docs, opts)
}

func buildIndex(in []Doc, opts []Option) *index {
	cfg := defaultConfig()
	for _, o := range opts {
		o(&cfg)
	}
	docs := make([]doc, 0, len(in))
	for i, d := range in {
		t := strings.TrimSpace(normalizeWhitespace(d.Text))
		if t == "" {
			continue
		}
		if cfg.minRunes > 0 && utf8.RuneCountInString(t) < cfg.minRunes {
			continue
		}
		docs = append(docs, doc{
			id:     d.ID,
			text:   t,
			lower:  strings.ToLower(t),
			tokens: tokenize(t, cfg.stopwords),
			pos:    i,
		})
		if cfg.maxDocs > 0 && len(docs) >= cfg.maxDocs {
			break
		}
	}
	return &index{cfg: cfg, docs: docs}
}

// TopK returns up to k best-matching documents by Jaccard similarity. k <= 0
// means no limit.
func (i *index) TopK(q string, k int) []Result {
	if len(i.docs) == 0 || strings.TrimSpace(q) == "" {
		return nil
	}
	qTokens := tokenize(q, i.cfg.stopwords)
	if len(qTokens) == 0 {
		return nil
	}
	qLen := len(qTokens)

	type scored struct {
		id    string
		score float64
		pos   int
	}
	buf := make([]scored, 0, len(i.docs))
	for _, d := range i.docs {
		over := overlap(qTokens, d.tokens)
		if over == 0 {
			continue
		}
		union := float64(qLen + len(d.tokens) - over)
		buf = append(buf, scored{id: d.id, score: float64(over) / union, pos: d.pos})
	}
	if len(buf) == 0 {
		return nil
	}

	sort.SliceStable(buf, func(a, b int) bool {
		if buf[a].score != buf[b].score {
			return buf[a].score > buf[b].score
		}
		return buf[a].pos < buf[b].pos
	})

	if k <= 0 || k > len(buf) {
		k = len(buf)
	}
	out := make([]Result, k)
	for j := 0; j < k; j++ {
		out[j] = Result{ID: buf[j].id, Score: buf[j].score}
	}
	return out
}

// Rank orders ids of docs matching q: token matches first by score, then
// documents that only contain q as a case-insensitive substring, in input
// order. Documents matching neither are omitted.
func Rank(docs []Doc, q string, opts ...Option) []string {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil
	}
	idx := buildIndex(docs, opts)
	seen := make(map[string]struct{}, len(idx.docs))
	out := make([]string, 0, len(idx.docs))
	for _, r := range idx.TopK(q, 0) {
		seen[r.ID] = struct{}{}
		out = append(out, r.ID)
	}
	needle := strings.ToLower(q)
	for _, d := range idx.docs {
		if _, ok := seen[d.id]; ok {
			continue
		}
		if strings.Contains(d.lower, needle) {
			out = append(out, d.id)
		}
	}
	return out
}

var wordRE = regexp.MustCompile(`\p{L}+\p{N}*`)

func tokenize(s string, stop map[string]struct{}) map[string]struct{} {
	words := wordRE.FindAllString(strings.ToLower(s), -1)
	if len(words) == 0 {
		return nil
	}
	out := make(map[string]struct{}, len(words))
	for _, w := range words {
		if stop != nil {
			if _, skip := stop[w]; skip {
				continue
			}
		}
		out[w] = struct{}{}
	}
	return out
}

func overlap(a, b map[string]struct{}) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	if len(a) > len(b) {
		a, b = b, a
	}
	n := 0
	for k := range a {
		if _, ok := b[k]; ok {
			n++
		}
	}
	return n
}

func normalizeWhitespace(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	prevSpace := false
	for _, r := range s {
		if r == ' ' || r == '\t' || r == '\r' || r == '\n' {
			if !prevSpace {
				b.WriteByte(' ')
				prevSpace = true
			}
			continue
		}
		prevSpace = false
		b.WriteRune(r)
	}
	return b.String()
}
