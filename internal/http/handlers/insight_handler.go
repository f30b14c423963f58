// Insight HTTP handlers.
//
// This file exposes REST endpoints for AI insights:
//   - POST   /insights       (run the generation pipeline, Idempotency-Key replay)
//   - GET    /insights       (list, paginated, ETag support)
//   - GET    /insights/{id}  (fetch one)
//   - DELETE /insights/{id}  (delete)
package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-insight-backend/internal/ai"
	"github.com/tbourn/go-insight-backend/internal/domain"
	"github.com/tbourn/go-insight-backend/internal/repo"
	"github.com/tbourn/go-insight-backend/internal/services"
)

// ListInsightsResponse wraps a page of insights and pagination information.
type ListInsightsResponse struct {
	Insights   []domain.Insight `json:"insights"`
	Pagination Pagination       `json:"pagination"`
}

// GenerateInsight godoc
// @ID          generateInsight
// @Summary     Generate an insight from all feedback
// @Description Sends every piece of the user's feedback to the AI summarizer and stores the
// @Description normalized analysis as a new insight. Each call is a fresh analysis; send an
// @Description Idempotency-Key to make client retries return the first result instead.
// @Tags        Insights
// @Produce     json
//
// @Param       X-User-ID        header  string  false "User ID (set by the auth proxy)"  example(user123)
// @Param       Idempotency-Key  header  string  false "Idempotency key for safe retries"  example(7a8d9f4c-1b2a-4c3d-8e9f-0123456789ab)
//
// @Success     201  {object}  domain.Insight
// @Header      201  {string}  Idempotency-Replayed "true when served from a stored result"
// @Failure     402  {object}  handlers.ErrorResponse  "AI credits exhausted"
// @Failure     422  {object}  handlers.ErrorResponse  "No feedback to analyze"
// @Failure     429  {object}  handlers.ErrorResponse  "AI rate limit exceeded"
// @Header      429  {string}  Retry-After "Seconds to wait before retrying"
// @Failure     500  {object}  handlers.ErrorResponse  "Persistence failed"
// @Failure     502  {object}  handlers.ErrorResponse  "AI service unavailable or empty response"
// @Router      /insights [post]
func (h *Handlers) GenerateInsight(c *gin.Context) {
	ctx := c.Request.Context()
	uid := userID(c)

	rec, found := h.storedResult(c)
	if found {
		if prev, err := h.inSvc.Get(ctx, uid, rec.ResourceID); err == nil {
			markReplayed(c)
			ok(c, rec.Status, prev)
			return
		}
	}

	in, err := h.inSvc.Generate(ctx, uid)
	if err != nil {
		generateError(c, err)
		return
	}

	h.remember(c, rec, in.ID, http.StatusCreated)
	ok(c, http.StatusCreated, in)
}

func generateError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrNoFeedbackAvailable):
		fail(c, http.StatusUnprocessableEntity, ErrCodeNoFeedback, "No feedback available to analyze")
	case errors.Is(err, services.ErrRateLimited):
		d := ai.RetryAfter(err)
		if d <= 0 {
			d = ai.DefaultRetryAfter
		}
		secs := int(d.Seconds())
		if secs < 1 {
			secs = 1
		}
		c.Header("Retry-After", strconv.Itoa(secs))
		fail(c, http.StatusTooManyRequests, ErrCodeUpstreamRateLimited, "Rate limit exceeded. Please try again in a moment.")
	case errors.Is(err, services.ErrQuotaExhausted):
		fail(c, http.StatusPaymentRequired, ErrCodeQuotaExhausted, "AI credits exhausted. Please add more credits.")
	case errors.Is(err, services.ErrUpstreamUnavailable):
		fail(c, http.StatusBadGateway, ErrCodeUpstreamUnavailable, "AI service unavailable", err)
	case errors.Is(err, services.ErrEmptyResponse):
		fail(c, http.StatusBadGateway, ErrCodeEmptyResponse, "No content in AI response", err)
	case errors.Is(err, services.ErrPersistenceFailed):
		fail(c, http.StatusInternalServerError, ErrCodePersistenceFailed, "Failed to save insight", err)
	default:
		fail(c, http.StatusInternalServerError, ErrCodeFetchFailed, "Failed to load feedback", err)
	}
}

// ListInsights godoc
// @ID          listInsights
// @Summary     List insights (paginated)
// @Description Returns a page of the user's insights, newest first. Supports weak ETag via If-None-Match.
// @Tags        Insights
// @Produce     json
//
// @Param       X-User-ID      header  string  false "User ID (set by the auth proxy)"  example(user123)
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"
// @Param       page           query   int     false "Page number"     minimum(1) default(1)
// @Param       page_size      query   int     false "Items per page"  minimum(1) maximum(100) default(20)
//
// @Success     200  {object} handlers.ListInsightsResponse
// @Header      200  {string} ETag "Weak ETag for current result"
// @Success     304  {string} string "Not Modified"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /insights [get]
func (h *Handlers) ListInsights(c *gin.Context) {
	ctx := c.Request.Context()
	uid := userID(c)
	page, pageSize := clampPagination(c)

	if h.db != nil {
		if count, latest, err := repo.InsightsStats(ctx, h.db, uid); err == nil {
			variant := strconv.Itoa(page) + ":" + strconv.Itoa(pageSize)
			if weakETag(c, "insights", uid, count, latest, variant) {
				return
			}
		}
	}

	items, total, err := h.inSvc.ListPage(ctx, uid, page, pageSize)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, "failed to list insights", err)
		return
	}
	ok(c, http.StatusOK, ListInsightsResponse{
		Insights:   items,
		Pagination: newPagination(page, pageSize, total),
	})
}

// GetInsight godoc
// @ID          getInsight
// @Summary     Get one insight
// @Tags        Insights
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (set by the auth proxy)"  example(user123)
// @Param       id         path    string  true  "Insight ID (UUID)"  format(uuid)
//
// @Success     200  {object} domain.Insight
// @Failure     400  {object} handlers.ErrorResponse "Bad id"
// @Failure     404  {object} handlers.ErrorResponse "Not found"
// @Router      /insights/{id} [get]
func (h *Handlers) GetInsight(c *gin.Context) {
	id, valid := pathUUID(c, "insight")
	if !valid {
		return
	}
	in, err := h.inSvc.Get(c.Request.Context(), userID(c), id)
	if err != nil {
		insightError(c, err)
		return
	}
	ok(c, http.StatusOK, in)
}

// DeleteInsight godoc
// @ID          deleteInsight
// @Summary     Delete an insight
// @Tags        Insights
//
// @Param       X-User-ID  header  string  false "User ID (set by the auth proxy)"  example(user123)
// @Param       id         path    string  true  "Insight ID (UUID)"  format(uuid)
//
// @Success     204  {string} string "No Content"
// @Failure     400  {object} handlers.ErrorResponse "Bad id"
// @Failure     404  {object} handlers.ErrorResponse "Not found"
// @Router      /insights/{id} [delete]
func (h *Handlers) DeleteInsight(c *gin.Context) {
	id, valid := pathUUID(c, "insight")
	if !valid {
		return
	}
	if err := h.inSvc.Delete(c.Request.Context(), userID(c), id); err != nil {
		insightError(c, err)
		return
	}
	noContent(c)
}

func insightError(c *gin.Context, err error) {
	if errors.Is(err, services.ErrInsightNotFound) {
		fail(c, http.StatusNotFound, ErrCodeNotFound, "insight not found")
		return
	}
	fail(c, http.StatusInternalServerError, ErrCodeInternal, "internal server error", err)
}
