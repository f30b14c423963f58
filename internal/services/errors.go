// Package services defines the business logic for feedback, AI insights, and
// the dashboard overview. This file centralizes common service-level error
// values so that they can be consistently returned by service methods and
// checked by callers.
//
// Translation into user-facing messages or HTTP status codes is performed at
// the handler layer.
package services

import "errors"

// Feedback errors.
var (
	// ErrEmptyTitle is returned when a feedback title is blank after trimming.
	ErrEmptyTitle = errors.New("title is empty")

	// ErrTitleTooLong is returned when a feedback title exceeds MaxTitleRunes.
	ErrTitleTooLong = errors.New("title too long")

	// ErrEmptyContent is returned when feedback content is blank after trimming.
	ErrEmptyContent = errors.New("content is empty")

	// ErrInvalidCategory is returned for a category outside the enumerated set.
	ErrInvalidCategory = errors.New("invalid category")

	// ErrInvalidRating is returned for a rating outside 1..5.
	ErrInvalidRating = errors.New("rating must be between 1 and 5")

	// ErrInvalidStatus is returned for a status outside the enumerated set.
	ErrInvalidStatus = errors.New("invalid status")

	// ErrFeedbackNotFound indicates that the feedback does not exist or is not
	// owned by the current user.
	ErrFeedbackNotFound = errors.New("feedback not found")
)

// Insight errors.
var (
	// ErrInsightNotFound indicates that the insight does not exist or is not
	// owned by the current user.
	ErrInsightNotFound = errors.New("insight not found")

	// ErrNoFeedbackAvailable is returned when the owner has no feedback to analyze.
	ErrNoFeedbackAvailable = errors.New("no feedback available to analyze")

	// ErrRateLimited means the summarizer throttled the request.
	ErrRateLimited = errors.New("AI rate limit exceeded")

	// ErrQuotaExhausted means the summarizer account is out of credits.
	ErrQuotaExhausted = errors.New("AI credits exhausted")

	// ErrUpstreamUnavailable covers transport failures and other non-success
	// summarizer responses.
	ErrUpstreamUnavailable = errors.New("AI service unavailable")

	// ErrEmptyResponse means the summarizer answered without any content.
	ErrEmptyResponse = errors.New("no content in AI response")

	// ErrPersistenceFailed means the insight was produced but could not be stored.
	ErrPersistenceFailed = errors.New("failed to save insight")
)
