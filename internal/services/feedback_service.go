// Package services – FeedbackService
//
// This file implements FeedbackService, which owns the lifecycle of user
// feedback: validated creation, filtered and searchable listing, status
// triage, and deletion. Every write invalidates the owner's dashboard cache.
package services

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/text/unicode/norm"
	"gorm.io/gorm"

	"github.com/tbourn/go-insight-backend/internal/domain"
	"github.com/tbourn/go-insight-backend/internal/repo"
	"github.com/tbourn/go-insight-backend/internal/search"
	"github.com/tbourn/go-insight-backend/internal/utils"
)

// MaxTitleRunes caps feedback titles; it matches the column width.
const MaxTitleRunes = 255

// Invalidator drops cached per-owner views after a write.
type Invalidator interface {
	Invalidate(userID string)
}

// NewFeedback is the input to FeedbackService.Create.
type NewFeedback struct {
	Title    string
	Content  string
	Category domain.Category
	Rating   *int
	Source   string
}

// ListFeedbackQuery selects a page of feedback. Empty or "all" filters match
// everything; a non-empty Search ranks results by relevance instead of recency.
type ListFeedbackQuery struct {
	Category string
	Status   string
	Search   string
	Page     int
	PageSize int
}

// FeedbackService coordinates feedback persistence.
type FeedbackService struct {
	DB        *gorm.DB
	Dashboard Invalidator
}

// Create validates in and stores it as new feedback owned by userID.
func (s *FeedbackService) Create(ctx context.Context, userID string, in NewFeedback) (*domain.Feedback, error) {
	tr := otel.Tracer("services/FeedbackService")
	ctx, span := tr.Start(ctx, "Create",
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.String("feedback.category", string(in.Category)),
		),
	)
	defer span.End()

	title := cleanText(in.Title)
	content := cleanText(in.Content)
	switch {
	case title == "":
		return nil, ErrEmptyTitle
	case utf8.RuneCountInString(title) > MaxTitleRunes:
		return nil, ErrTitleTooLong
	case content == "":
		return nil, ErrEmptyContent
	}

	cat := in.Category
	if cat == "" {
		cat = domain.CategoryGeneral
	}
	if !cat.Valid() {
		return nil, ErrInvalidCategory
	}
	if in.Rating != nil && (*in.Rating < 1 || *in.Rating > 5) {
		return nil, ErrInvalidRating
	}
	source := strings.TrimSpace(in.Source)
	if source == "" {
		source = domain.SourceManual
	}

	fb := &domain.Feedback{
		UserID:   userID,
		Title:    title,
		Content:  content,
		Category: cat,
		Status:   domain.StatusNew,
		Rating:   in.Rating,
		Source:   source,
	}
	if err := repo.CreateFeedback(ctx, s.DB, fb); err != nil {
		return nil, err
	}
	s.invalidate(userID)
	return fb, nil
}

// ListPage returns one page of the owner's feedback and the total number of
// matches. Without a search term the order is newest first; with one, the
// order is by relevance (token similarity, then substring matches).
func (s *FeedbackService) ListPage(ctx context.Context, userID string, q ListFeedbackQuery) ([]domain.Feedback, int64, error) {
	tr := otel.Tracer("services/FeedbackService")
	ctx, span := tr.Start(ctx, "ListPage",
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.Int("page", q.Page),
			attribute.Int("page_size", q.PageSize),
			attribute.Bool("search", strings.TrimSpace(q.Search) != ""),
		),
	)
	defer span.End()

	filter, err := parseFilter(q.Category, q.Status)
	if err != nil {
		return nil, 0, err
	}
	page, pageSize := q.Page, q.PageSize
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = utils.DefaultPageSize
	}
	offset := utils.Offset(page, pageSize)

	if term := strings.TrimSpace(q.Search); term != "" {
		all, err := repo.ListFeedbackFiltered(ctx, s.DB, userID, filter)
		if err != nil {
			return nil, 0, err
		}
		ranked := rankFeedback(all, term)
		total := int64(len(ranked))
		if offset >= len(ranked) {
			return []domain.Feedback{}, total, nil
		}
		end := offset + pageSize
		if end > len(ranked) {
			end = len(ranked)
		}
		return ranked[offset:end], total, nil
	}

	total, err := repo.CountFeedback(ctx, s.DB, userID, filter)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Feedback{}, 0, nil
	}
	items, err := repo.ListFeedbackPage(ctx, s.DB, userID, filter, offset, pageSize)
	return items, total, err
}

// Get returns one feedback item owned by userID.
func (s *FeedbackService) Get(ctx context.Context, userID, id string) (*domain.Feedback, error) {
	fb, err := repo.GetFeedback(ctx, s.DB, id, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrFeedbackNotFound
		}
		return nil, err
	}
	return fb, nil
}

// UpdateStatus moves a feedback item to a new triage status.
func (s *FeedbackService) UpdateStatus(ctx context.Context, userID, id string, status domain.Status) error {
	tr := otel.Tracer("services/FeedbackService")
	ctx, span := tr.Start(ctx, "UpdateStatus",
		trace.WithAttributes(
			attribute.String("feedback.id", id),
			attribute.String("feedback.status", string(status)),
		),
	)
	defer span.End()

	if !status.Valid() {
		return ErrInvalidStatus
	}
	if err := repo.UpdateFeedbackStatus(ctx, s.DB, id, userID, status); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrFeedbackNotFound
		}
		return err
	}
	s.invalidate(userID)
	return nil
}

// Delete removes a feedback item owned by userID.
func (s *FeedbackService) Delete(ctx context.Context, userID, id string) error {
	if err := repo.DeleteFeedback(ctx, s.DB, id, userID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrFeedbackNotFound
		}
		return err
	}
	s.invalidate(userID)
	return nil
}

func (s *FeedbackService) invalidate(userID string) {
	if s.Dashboard != nil {
		s.Dashboard.Invalidate(userID)
	}
}

// parseFilter maps query values to a repo filter; "" and "all" mean any.
func parseFilter(category, status string) (repo.FeedbackFilter, error) {
	var f repo.FeedbackFilter
	if c := strings.ToLower(strings.TrimSpace(category)); c != "" && c != "all" {
		f.Category = domain.Category(c)
		if !f.Category.Valid() {
			return f, ErrInvalidCategory
		}
	}
	if st := strings.ToLower(strings.TrimSpace(status)); st != "" && st != "all" {
		f.Status = domain.Status(st)
		if !f.Status.Valid() {
			return f, ErrInvalidStatus
		}
	}
	return f, nil
}

func rankFeedback(items []domain.Feedback, term string) []domain.Feedback {
	docs := make([]search.Doc, len(items))
	byID := make(map[string]domain.Feedback, len(items))
	for i, f := range items {
		docs[i] = search.Doc{ID: f.ID, Text: f.Title + "\n" + f.Content}
		byID[f.ID] = f
	}
	ids := search.Rank(docs, term, search.WithStopwords(search.DefaultStopwords))
	out := make([]domain.Feedback, 0, len(ids))
	for _, id := range ids {
		out = append(out, byID[id])
	}
	return out
}

var (
	crlfRE       = regexp.MustCompile(`\r\n?`)
	manyBreaksRE = regexp.MustCompile(`\n{3,}`)
)

// cleanText NFC-normalizes s, unifies line endings, collapses runs of blank
// lines, and trims surrounding whitespace.
func cleanText(s string) string {
	s = norm.NFC.String(s)
	s = crlfRE.ReplaceAllString(s, "\n")
	s = manyBreaksRE.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}
