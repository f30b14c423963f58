// Package handlers exposes the REST API for feedback, insights, and the
// dashboard. Handlers are transport-thin: they bind and validate input, call
// application services, and translate results and sentinel errors into HTTP
// responses (including conditional and replayed responses).
package handlers

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/tbourn/go-insight-backend/internal/domain"
	"github.com/tbourn/go-insight-backend/internal/http/middleware"
	"github.com/tbourn/go-insight-backend/internal/services"
	"github.com/tbourn/go-insight-backend/internal/utils"
)

//
// Service contracts (context-aware)
//

// FeedbackService manages the owner's feedback.
type FeedbackService interface {
	Create(ctx context.Context, userID string, in services.NewFeedback) (*domain.Feedback, error)
	ListPage(ctx context.Context, userID string, q services.ListFeedbackQuery) ([]domain.Feedback, int64, error)
	Get(ctx context.Context, userID, id string) (*domain.Feedback, error)
	UpdateStatus(ctx context.Context, userID, id string, status domain.Status) error
	Delete(ctx context.Context, userID, id string) error
}

// InsightService runs the generation pipeline and manages stored insights.
type InsightService interface {
	Generate(ctx context.Context, userID string) (*domain.Insight, error)
	ListPage(ctx context.Context, userID string, page, pageSize int) ([]domain.Insight, int64, error)
	Get(ctx context.Context, userID, id string) (*domain.Insight, error)
	Delete(ctx context.Context, userID, id string) error
}

// DashboardService computes the per-owner overview.
type DashboardService interface {
	Overview(ctx context.Context, userID string) (*services.Overview, error)
}

//
// Handler wiring
//

// Options carries the optional storage handle used for conditional list
// responses and idempotency records. A nil DB disables both.
type Options struct {
	DB             *gorm.DB
	IdempotencyTTL time.Duration
}

// Handlers groups the HTTP endpoints.
type Handlers struct {
	fbSvc   FeedbackService
	inSvc   InsightService
	dashSvc DashboardService

	db      *gorm.DB
	idemTTL time.Duration
}

// New constructs Handlers bound to the given services.
func New(fb FeedbackService, in InsightService, dash DashboardService, opts Options) *Handlers {
	ttl := opts.IdempotencyTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Handlers{fbSvc: fb, inSvc: in, dashSvc: dash, db: opts.DB, idemTTL: ttl}
}

func userID(c *gin.Context) string { return middleware.UserID(c) }

//
// Pagination
//

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

func newPagination(page, pageSize int, total int64) Pagination {
	totalPages := utils.TotalPages(total, pageSize)
	return Pagination{
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
	}
}

// clampPagination parses and bounds page and page_size query params.
func clampPagination(c *gin.Context) (page, pageSize int) {
	return utils.ParsePage(c.Query("page"), c.Query("page_size"))
}
