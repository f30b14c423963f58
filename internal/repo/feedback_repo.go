// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Feedback model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions. Every query is scoped by owner (user_id);
// a row owned by another user behaves exactly like a missing row.
//
// Error semantics:
//   - Missing rows surface as ErrNotFound (alias of gorm.ErrRecordNotFound).
//   - Other DB errors are propagated unchanged.
//
// Usage:
//
//	items, err := repo.ListAllFeedback(ctx, db, userID)
//	if err != nil {
//	    // storage failure
//	}
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-insight-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// newestFirst is the default ordering for owner-scoped listings. The id
// tiebreak keeps order stable for rows created in the same instant.
const newestFirst = "created_at desc, id desc"

// FeedbackFilter narrows management listings. Zero values mean "any".
type FeedbackFilter struct {
	Category domain.Category
	Status   domain.Status
}

func (f FeedbackFilter) apply(q *gorm.DB) *gorm.DB {
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	return q
}

// CreateFeedback inserts fb, assigning a UUID and a UTC creation time when
// they are not already set.
func CreateFeedback(ctx context.Context, db *gorm.DB, fb *domain.Feedback) error {
	if fb.ID == "" {
		fb.ID = uuid.NewString()
	}
	if fb.CreatedAt.IsZero() {
		fb.CreatedAt = time.Now().UTC()
	}
	return db.WithContext(ctx).Create(fb).Error
}

// ListAllFeedback returns the owner's complete feedback history, newest
// first, with no filtering or pagination.
func ListAllFeedback(ctx context.Context, db *gorm.DB, userID string) ([]domain.Feedback, error) {
	var out []domain.Feedback
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order(newestFirst).
		Find(&out).Error
	return out, err
}

// ListFeedbackFiltered returns every row matching f, newest first.
func ListFeedbackFiltered(ctx context.Context, db *gorm.DB, userID string, f FeedbackFilter) ([]domain.Feedback, error) {
	var out []domain.Feedback
	q := db.WithContext(ctx).Where("user_id = ?", userID)
	err := f.apply(q).Order(newestFirst).Find(&out).Error
	return out, err
}

// CountFeedback returns how many rows match f for the owner.
func CountFeedback(ctx context.Context, db *gorm.DB, userID string, f FeedbackFilter) (int64, error) {
	var total int64
	q := db.WithContext(ctx).Model(&domain.Feedback{}).Where("user_id = ?", userID)
	err := f.apply(q).Count(&total).Error
	return total, err
}

// ListFeedbackPage returns one page of rows matching f, newest first.
// The caller computes offset and limit.
func ListFeedbackPage(ctx context.Context, db *gorm.DB, userID string, f FeedbackFilter, offset, limit int) ([]domain.Feedback, error) {
	var out []domain.Feedback
	q := db.WithContext(ctx).Where("user_id = ?", userID)
	err := f.apply(q).
		Order(newestFirst).
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// ListRecentFeedback returns at most limit rows, newest first.
func ListRecentFeedback(ctx context.Context, db *gorm.DB, userID string, limit int) ([]domain.Feedback, error) {
	var out []domain.Feedback
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order(newestFirst).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// GetFeedback fetches a single row by id and owner, or ErrNotFound.
func GetFeedback(ctx context.Context, db *gorm.DB, id, userID string) (*domain.Feedback, error) {
	var fb domain.Feedback
	err := db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&fb).Error
	if err != nil {
		return nil, err
	}
	return &fb, nil
}

// UpdateFeedbackStatus changes the triage status of one row. It returns
// ErrNotFound when no row matched.
func UpdateFeedbackStatus(ctx context.Context, db *gorm.DB, id, userID string, status domain.Status) error {
	res := db.WithContext(ctx).
		Model(&domain.Feedback{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteFeedback soft-deletes one row. It returns ErrNotFound when no row matched.
func DeleteFeedback(ctx context.Context, db *gorm.DB, id, userID string) error {
	res := db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&domain.Feedback{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// CategoryCount is one row of CountFeedbackByCategory.
type CategoryCount struct {
	Category domain.Category
	Count    int64
}

// CountFeedbackByCategory groups the owner's feedback by category.
func CountFeedbackByCategory(ctx context.Context, db *gorm.DB, userID string) ([]CategoryCount, error) {
	var out []CategoryCount
	err := db.WithContext(ctx).
		Model(&domain.Feedback{}).
		Select("category, COUNT(*) AS count").
		Where("user_id = ?", userID).
		Group("category").
		Order("category").
		Scan(&out).Error
	return out, err
}

// CountFeedbackSince counts the owner's feedback created at or after since.
func CountFeedbackSince(ctx context.Context, db *gorm.DB, userID string, since time.Time) (int64, error) {
	var n int64
	err := db.WithContext(ctx).
		Model(&domain.Feedback{}).
		Where("user_id = ? AND created_at >= ?", userID, since).
		Count(&n).Error
	return n, err
}
