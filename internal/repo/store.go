package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/tbourn/go-insight-backend/internal/domain"
)

// Store adapts the package-level functions to the method set the services
// depend on (services.InsightRepo). It has no state of its own.
type Store struct{}

func (Store) ListAllFeedback(ctx context.Context, db *gorm.DB, userID string) ([]domain.Feedback, error) {
	return ListAllFeedback(ctx, db, userID)
}

func (Store) CreateInsight(ctx context.Context, db *gorm.DB, in *domain.Insight) (string, error) {
	return CreateInsight(ctx, db, in)
}

func (Store) CountInsights(ctx context.Context, db *gorm.DB, userID string) (int64, error) {
	return CountInsights(ctx, db, userID)
}

func (Store) ListInsightsPage(ctx context.Context, db *gorm.DB, userID string, offset, limit int) ([]domain.Insight, error) {
	return ListInsightsPage(ctx, db, userID, offset, limit)
}

func (Store) GetInsight(ctx context.Context, db *gorm.DB, id, userID string) (*domain.Insight, error) {
	return GetInsight(ctx, db, id, userID)
}

func (Store) DeleteInsight(ctx context.Context, db *gorm.DB, id, userID string) error {
	return DeleteInsight(ctx, db, id, userID)
}
