// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Insight model.
//
// Insights are append-only: there is no update function. Deletion is a soft
// delete scoped by owner.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-insight-backend/internal/domain"
)

// CreateInsight inserts in, assigning a UUID and UTC creation time when unset.
// The generated id is returned for convenience.
func CreateInsight(ctx context.Context, db *gorm.DB, in *domain.Insight) (string, error) {
	if in.ID == "" {
		in.ID = uuid.NewString()
	}
	if in.CreatedAt.IsZero() {
		in.CreatedAt = time.Now().UTC()
	}
	if err := db.WithContext(ctx).Create(in).Error; err != nil {
		return "", err
	}
	return in.ID, nil
}

// ListInsights returns every insight owned by userID, newest first.
func ListInsights(ctx context.Context, db *gorm.DB, userID string) ([]domain.Insight, error) {
	var out []domain.Insight
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order(newestFirst).
		Find(&out).Error
	return out, err
}

// CountInsights returns the total number of insights owned by userID.
func CountInsights(ctx context.Context, db *gorm.DB, userID string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.Insight{}).
		Where("user_id = ?", userID).
		Count(&total).Error
	return total, err
}

// ListInsightsPage returns one page of insights, newest first.
func ListInsightsPage(ctx context.Context, db *gorm.DB, userID string, offset, limit int) ([]domain.Insight, error) {
	var out []domain.Insight
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order(newestFirst).
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// ListRecentInsights returns at most limit insights, newest first.
func ListRecentInsights(ctx context.Context, db *gorm.DB, userID string, limit int) ([]domain.Insight, error) {
	return ListInsightsPage(ctx, db, userID, 0, limit)
}

// GetInsight fetches a single insight by id and owner, or ErrNotFound.
func GetInsight(ctx context.Context, db *gorm.DB, id, userID string) (*domain.Insight, error) {
	var in domain.Insight
	err := db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&in).Error
	if err != nil {
		return nil, err
	}
	return &in, nil
}

// DeleteInsight soft-deletes one insight. It returns ErrNotFound when no row matched.
func DeleteInsight(ctx context.Context, db *gorm.DB, id, userID string) error {
	res := db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&domain.Insight{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
