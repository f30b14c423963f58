// Package handlers defines HTTP-layer error codes used across all API endpoints.
//
// These codes give clients a stable, machine-readable error taxonomy that
// supplements human-readable messages. Codes are lowercase snake_case; generic
// codes mirror HTTP status semantics and domain codes name pipeline failures.
//
// Example response:
//
//	{
//	  "request_id": "e1b9be03-4999-4289-9f03-999b042d65d6",
//	  "code": "no_feedback",
//	  "message": "No feedback available to analyze"
//	}
package handlers

const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeNotFound         = "not_found"
	ErrCodeMethodNotAllowed = "method_not_allowed"
	ErrCodeInternal         = "internal_error"

	ErrCodeValidation = "validation_failed"
	ErrCodeListFailed = "list_failed"

	// Insight pipeline:
	ErrCodeNoFeedback          = "no_feedback"
	ErrCodeUpstreamRateLimited = "upstream_rate_limited"
	ErrCodeQuotaExhausted      = "quota_exhausted"
	ErrCodeUpstreamUnavailable = "upstream_unavailable"
	ErrCodeEmptyResponse       = "empty_response"
	ErrCodePersistenceFailed   = "persistence_failed"
	ErrCodeFetchFailed         = "fetch_failed"
)
