// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides small aggregate queries used for
// conditional responses (weak ETags) in the HTTP layer.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-insight-backend/internal/domain"
)

// FeedbackStats returns the number of feedback rows owned by userID and the
// greatest UpdatedAt among them (nil when there are none). A status change
// bumps UpdatedAt, so the pair changes whenever a listing would.
func FeedbackStats(ctx context.Context, db *gorm.DB, userID string) (count int64, maxUpdatedAt *time.Time, err error) {
	return latest(ctx, db, &domain.Feedback{}, userID, "updated_at")
}

// InsightsStats returns the number of insights owned by userID and the
// greatest CreatedAt among them. Insights are immutable, so creation time
// is the only change marker.
func InsightsStats(ctx context.Context, db *gorm.DB, userID string) (count int64, maxCreatedAt *time.Time, err error) {
	return latest(ctx, db, &domain.Insight{}, userID, "created_at")
}

func latest(ctx context.Context, db *gorm.DB, model any, userID, column string) (int64, *time.Time, error) {
	var count int64
	if err := db.WithContext(ctx).Model(model).Where("user_id = ?", userID).Count(&count).Error; err != nil {
		return 0, nil, err
	}
	if count == 0 {
		return 0, nil, nil
	}

	// Order+limit instead of MAX(): SQLite returns MAX() of a datetime as TEXT.
	var ts []time.Time
	err := db.WithContext(ctx).
		Model(model).
		Where("user_id = ?", userID).
		Order(column+" DESC").
		Limit(1).
		Pluck(column, &ts).Error
	if err != nil {
		return 0, nil, err
	}
	if len(ts) == 0 {
		return count, nil, nil
	}
	return count, &ts[0], nil
}
