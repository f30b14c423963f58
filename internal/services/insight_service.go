// Package services – InsightService
//
// This file implements the insight generation pipeline: fetch every piece of
// the owner's feedback, ask the external summarizer for an analysis, decode
// and normalize whatever comes back, and persist the result as a new Insight.
//
// The pipeline makes exactly one summarizer call per invocation and never
// retries. Failures surface as the sentinel errors in errors.go.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/go-insight-backend/internal/ai"
	"github.com/tbourn/go-insight-backend/internal/domain"
	"github.com/tbourn/go-insight-backend/internal/insight"
	"github.com/tbourn/go-insight-backend/internal/repo"
	"github.com/tbourn/go-insight-backend/internal/utils"
)

// Completer sends a chat conversation to the summarizer and returns the raw
// assistant text. *ai.Client satisfies it.
type Completer interface {
	Complete(ctx context.Context, messages []ai.Message) (string, error)
}

// InsightRepo defines the persistence contract required by InsightService.
type InsightRepo interface {
	// ListAllFeedback returns the owner's full feedback snapshot, newest first.
	ListAllFeedback(ctx context.Context, db *gorm.DB, userID string) ([]domain.Feedback, error)

	// CreateInsight stores a new insight and returns its id.
	CreateInsight(ctx context.Context, db *gorm.DB, in *domain.Insight) (string, error)

	CountInsights(ctx context.Context, db *gorm.DB, userID string) (int64, error)
	ListInsightsPage(ctx context.Context, db *gorm.DB, userID string, offset, limit int) ([]domain.Insight, error)
	GetInsight(ctx context.Context, db *gorm.DB, id, userID string) (*domain.Insight, error)
	DeleteInsight(ctx context.Context, db *gorm.DB, id, userID string) error
}

// InsightService runs the generation pipeline and manages stored insights.
type InsightService struct {
	DB        *gorm.DB
	Repo      InsightRepo
	AI        Completer
	Dashboard Invalidator

	// Now is the clock used for created_at; defaults to time.Now.
	Now func() time.Time
}

// NewInsightService constructs an InsightService.
func NewInsightService(db *gorm.DB, r InsightRepo, c Completer, dash Invalidator) *InsightService {
	return &InsightService{DB: db, Repo: r, AI: c, Dashboard: dash, Now: time.Now}
}

// Generate analyzes all of userID's feedback and stores the resulting insight.
//
// Errors:
//   - ErrNoFeedbackAvailable when the owner has no feedback (no network call).
//   - ErrRateLimited, ErrQuotaExhausted, ErrUpstreamUnavailable, ErrEmptyResponse
//     for summarizer failures; the ai error stays in the chain so callers can
//     read ai.RetryAfter.
//   - ErrPersistenceFailed when the insight cannot be stored.
//   - A wrapped storage error when the feedback cannot be fetched.
//
// A malformed summarizer answer is never an error: it degrades to the
// deterministic fallback insight.
func (s *InsightService) Generate(ctx context.Context, userID string) (*domain.Insight, error) {
	tr := otel.Tracer("services/InsightService")
	ctx, span := tr.Start(ctx, "Generate",
		trace.WithAttributes(attribute.String("user.id", userID)),
	)
	defer span.End()

	log := zerolog.Ctx(ctx).With().Str("user_id", userID).Logger()

	items, err := s.Repo.ListAllFeedback(ctx, s.DB, userID)
	if err != nil {
		return nil, s.fail(span, outcomeFetchFailed, fmt.Errorf("fetch feedback: %w", err))
	}
	span.SetAttributes(attribute.Int("feedback.count", len(items)))
	if len(items) == 0 {
		return nil, s.fail(span, outcomeNoFeedback, ErrNoFeedbackAvailable)
	}
	log.Info().Int("feedback_count", len(items)).Msg("generating insight")

	start := time.Now()
	raw, err := s.AI.Complete(ctx, insight.Messages(items))
	insightAILatency.Observe(time.Since(start).Seconds())
	if err == nil && strings.TrimSpace(raw) == "" {
		err = ai.ErrEmptyResponse
	}
	if err != nil {
		outcome, sentinel := classifyAIError(err)
		log.Warn().Err(err).Str("outcome", outcome).Msg("summarizer request failed")
		return nil, s.fail(span, outcome, fmt.Errorf("%w: %w", sentinel, err))
	}

	result, path := s.decode(raw, log)
	span.SetAttributes(attribute.String("insight.decode", string(path)))

	in := &domain.Insight{
		UserID:        userID,
		Title:         result.Title,
		Summary:       result.Summary,
		KeyThemes:     result.KeyThemes,
		Sentiment:     result.Sentiment,
		ActionItems:   result.ActionItems,
		FeedbackCount: len(items),
		CreatedAt:     s.now().UTC(),
	}
	if _, err := s.Repo.CreateInsight(ctx, s.DB, in); err != nil {
		log.Error().Err(err).Msg("failed to save insight")
		return nil, s.fail(span, outcomePersistenceFailed, fmt.Errorf("%w: %w", ErrPersistenceFailed, err))
	}

	insightGenerations.WithLabelValues(outcomeSuccess).Inc()
	if s.Dashboard != nil {
		s.Dashboard.Invalidate(userID)
	}
	log.Info().Str("insight_id", in.ID).Str("sentiment", string(in.Sentiment)).Msg("insight saved")
	return in, nil
}

// decode turns raw into a Result, recording the path and any schema
// deviations. It never fails.
func (s *InsightService) decode(raw string, log zerolog.Logger) (insight.Result, insight.Outcome) {
	if d, _, err := insight.Parse(raw); err == nil {
		if problems := insight.Validate(d); len(problems) > 0 {
			log.Debug().Strs("schema_problems", problems).Msg("summarizer answer deviates from schema")
		}
	}
	result, path := insight.Decode(raw)
	insightDecodes.WithLabelValues(string(path)).Inc()
	if path == insight.OutcomeFallback {
		log.Warn().Int("raw_len", len(raw)).Msg("summarizer answer was not JSON; using fallback insight")
	}
	return result, path
}

func (s *InsightService) fail(span trace.Span, outcome string, err error) error {
	insightGenerations.WithLabelValues(outcome).Inc()
	span.RecordError(err)
	span.SetStatus(codes.Error, outcome)
	return err
}

func (s *InsightService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// classifyAIError maps a summarizer error to its metric label and service
// sentinel. Unknown errors count as the summarizer being unavailable.
func classifyAIError(err error) (string, error) {
	switch {
	case errors.Is(err, ai.ErrRateLimited):
		return outcomeRateLimited, ErrRateLimited
	case errors.Is(err, ai.ErrQuotaExhausted):
		return outcomeQuotaExhausted, ErrQuotaExhausted
	case errors.Is(err, ai.ErrEmptyResponse):
		return outcomeEmptyResponse, ErrEmptyResponse
	default:
		return outcomeUpstreamUnavailable, ErrUpstreamUnavailable
	}
}

// ListPage returns a page of the owner's insights, newest first.
func (s *InsightService) ListPage(ctx context.Context, userID string, page, pageSize int) ([]domain.Insight, int64, error) {
	tr := otel.Tracer("services/InsightService")
	ctx, span := tr.Start(ctx, "ListPage",
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.Int("page", page),
			attribute.Int("page_size", pageSize),
		),
	)
	defer span.End()

	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = utils.DefaultPageSize
	}
	offset := utils.Offset(page, pageSize)

	total, err := s.Repo.CountInsights(ctx, s.DB, userID)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Insight{}, 0, nil
	}
	items, err := s.Repo.ListInsightsPage(ctx, s.DB, userID, offset, pageSize)
	return items, total, err
}

// Get returns one insight owned by userID.
func (s *InsightService) Get(ctx context.Context, userID, id string) (*domain.Insight, error) {
	in, err := s.Repo.GetInsight(ctx, s.DB, id, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrInsightNotFound
		}
		return nil, err
	}
	return in, nil
}

// Delete removes an insight owned by userID.
func (s *InsightService) Delete(ctx context.Context, userID, id string) error {
	if err := s.Repo.DeleteInsight(ctx, s.DB, id, userID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrInsightNotFound
		}
		return err
	}
	if s.Dashboard != nil {
		s.Dashboard.Invalidate(userID)
	}
	return nil
}
