// Feedback HTTP handlers.
//
// This file exposes REST endpoints for feedback resources:
//   - POST   /feedback              (create, Idempotency-Key replay)
//   - GET    /feedback              (list, filter, search, ETag support)
//   - GET    /feedback/{id}         (fetch one)
//   - PATCH  /feedback/{id}/status  (triage)
//   - DELETE /feedback/{id}         (delete)
package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tbourn/go-insight-backend/internal/domain"
	"github.com/tbourn/go-insight-backend/internal/repo"
	"github.com/tbourn/go-insight-backend/internal/services"
)

// CreateFeedbackRequest is the JSON payload for submitting feedback.
type CreateFeedbackRequest struct {
	Title    string `json:"title"    binding:"required,max=255"                example:"Checkout is slow"`
	Content  string `json:"content"  binding:"required"                        example:"Paying takes more than ten seconds on mobile."`
	Category string `json:"category" binding:"omitempty,feedback_category"     example:"bug"`
	Rating   *int   `json:"rating"   binding:"omitempty,gte=1,lte=5"           example:"2"`
	Source   string `json:"source"   binding:"omitempty,max=32"                example:"manual"`
}

// UpdateStatusRequest is the JSON payload for triaging feedback.
type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required,feedback_status" example:"reviewed"`
}

// ListFeedbackResponse wraps a page of feedback and pagination information.
type ListFeedbackResponse struct {
	Feedback   []domain.Feedback `json:"feedback"`
	Pagination Pagination        `json:"pagination"`
}

// CreateFeedback godoc
// @ID          createFeedback
// @Summary     Submit feedback
// @Description Stores a new piece of feedback for the current user. Supports Idempotency-Key replays.
// @Tags        Feedback
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID        header  string  false "User ID (set by the auth proxy)"  example(user123)
// @Param       Idempotency-Key  header  string  false "Idempotency key for safe retries"  example(7a8d9f4c-1b2a-4c3d-8e9f-0123456789ab)
// @Param       body             body    handlers.CreateFeedbackRequest  true  "Feedback payload"
//
// @Success     201  {object}  domain.Feedback
// @Header      201  {string}  Idempotency-Replayed "true when served from a stored result"
// @Failure     400  {object}  handlers.ErrorResponse  "Validation failed"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /feedback [post]
func (h *Handlers) CreateFeedback(c *gin.Context) {
	ctx := c.Request.Context()
	uid := userID(c)

	rec, found := h.storedResult(c)
	if found {
		if prev, err := h.fbSvc.Get(ctx, uid, rec.ResourceID); err == nil {
			markReplayed(c)
			ok(c, rec.Status, prev)
			return
		}
	}

	var req CreateFeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeValidation, bindMessage(err))
		return
	}

	fb, err := h.fbSvc.Create(ctx, uid, services.NewFeedback{
		Title:    req.Title,
		Content:  req.Content,
		Category: domain.Category(strings.ToLower(req.Category)),
		Rating:   req.Rating,
		Source:   req.Source,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrEmptyTitle),
			errors.Is(err, services.ErrTitleTooLong),
			errors.Is(err, services.ErrEmptyContent),
			errors.Is(err, services.ErrInvalidCategory),
			errors.Is(err, services.ErrInvalidRating):
			fail(c, http.StatusBadRequest, ErrCodeValidation, err.Error())
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, "failed to save feedback", err)
		}
		return
	}

	h.remember(c, rec, fb.ID, http.StatusCreated)
	ok(c, http.StatusCreated, fb)
}

// ListFeedback godoc
// @ID          listFeedback
// @Summary     List feedback (paginated)
// @Description Returns a page of the user's feedback, newest first, optionally filtered by category and status.
// @Description With q set, results are ordered by relevance instead. Supports weak ETag via If-None-Match.
// @Tags        Feedback
// @Produce     json
//
// @Param       X-User-ID      header  string  false "User ID (set by the auth proxy)"  example(user123)
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"
// @Param       category       query   string  false "Category filter or all"  Enums(all, general, bug, feature, improvement, question)
// @Param       status         query   string  false "Status filter or all"    Enums(all, new, reviewed, resolved)
// @Param       q              query   string  false "Free-text search over title and content"
// @Param       page           query   int     false "Page number"     minimum(1) default(1)
// @Param       page_size      query   int     false "Items per page"  minimum(1) maximum(100) default(20)
//
// @Success     200  {object} handlers.ListFeedbackResponse
// @Header      200  {string} ETag "Weak ETag for current result"
// @Success     304  {string} string "Not Modified"
// @Failure     400  {object} handlers.ErrorResponse "Bad filter"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /feedback [get]
func (h *Handlers) ListFeedback(c *gin.Context) {
	ctx := c.Request.Context()
	uid := userID(c)
	page, pageSize := clampPagination(c)
	q := services.ListFeedbackQuery{
		Category: c.Query("category"),
		Status:   c.Query("status"),
		Search:   c.Query("q"),
		Page:     page,
		PageSize: pageSize,
	}

	if h.db != nil {
		if count, latest, err := repo.FeedbackStats(ctx, h.db, uid); err == nil {
			variant := strings.Join([]string{q.Category, q.Status, q.Search, c.Query("page"), c.Query("page_size")}, "\x00")
			if weakETag(c, "feedback", uid, count, latest, variant) {
				return
			}
		}
	}

	items, total, err := h.fbSvc.ListPage(ctx, uid, q)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidCategory), errors.Is(err, services.ErrInvalidStatus):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		default:
			fail(c, http.StatusInternalServerError, ErrCodeListFailed, "failed to list feedback", err)
		}
		return
	}

	ok(c, http.StatusOK, ListFeedbackResponse{
		Feedback:   items,
		Pagination: newPagination(page, pageSize, total),
	})
}

// GetFeedback godoc
// @ID          getFeedback
// @Summary     Get one feedback item
// @Tags        Feedback
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (set by the auth proxy)"  example(user123)
// @Param       id         path    string  true  "Feedback ID (UUID)"  format(uuid)
//
// @Success     200  {object} domain.Feedback
// @Failure     400  {object} handlers.ErrorResponse "Bad id"
// @Failure     404  {object} handlers.ErrorResponse "Not found"
// @Router      /feedback/{id} [get]
func (h *Handlers) GetFeedback(c *gin.Context) {
	id, valid := pathUUID(c, "feedback")
	if !valid {
		return
	}
	fb, err := h.fbSvc.Get(c.Request.Context(), userID(c), id)
	if err != nil {
		feedbackError(c, err)
		return
	}
	ok(c, http.StatusOK, fb)
}

// UpdateFeedbackStatus godoc
// @ID          updateFeedbackStatus
// @Summary     Change feedback status
// @Description Moves a feedback item to new, reviewed, or resolved.
// @Tags        Feedback
// @Accept      json
//
// @Param       X-User-ID  header  string  false "User ID (set by the auth proxy)"  example(user123)
// @Param       id         path    string  true  "Feedback ID (UUID)"  format(uuid)
// @Param       body       body    handlers.UpdateStatusRequest  true  "New status"
//
// @Success     204  {string} string "No Content"
// @Failure     400  {object} handlers.ErrorResponse "Validation failed"
// @Failure     404  {object} handlers.ErrorResponse "Not found"
// @Router      /feedback/{id}/status [patch]
func (h *Handlers) UpdateFeedbackStatus(c *gin.Context) {
	id, valid := pathUUID(c, "feedback")
	if !valid {
		return
	}
	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeValidation, bindMessage(err))
		return
	}
	status := domain.Status(strings.ToLower(req.Status))
	if err := h.fbSvc.UpdateStatus(c.Request.Context(), userID(c), id, status); err != nil {
		feedbackError(c, err)
		return
	}
	noContent(c)
}

// DeleteFeedback godoc
// @ID          deleteFeedback
// @Summary     Delete feedback
// @Tags        Feedback
//
// @Param       X-User-ID  header  string  false "User ID (set by the auth proxy)"  example(user123)
// @Param       id         path    string  true  "Feedback ID (UUID)"  format(uuid)
//
// @Success     204  {string} string "No Content"
// @Failure     400  {object} handlers.ErrorResponse "Bad id"
// @Failure     404  {object} handlers.ErrorResponse "Not found"
// @Router      /feedback/{id} [delete]
func (h *Handlers) DeleteFeedback(c *gin.Context) {
	id, valid := pathUUID(c, "feedback")
	if !valid {
		return
	}
	if err := h.fbSvc.Delete(c.Request.Context(), userID(c), id); err != nil {
		feedbackError(c, err)
		return
	}
	noContent(c)
}

func feedbackError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrFeedbackNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "feedback not found")
	case errors.Is(err, services.ErrInvalidStatus):
		fail(c, http.StatusBadRequest, ErrCodeValidation, err.Error())
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "internal server error", err)
	}
}

// pathUUID reads the :id path parameter and rejects anything but a UUID.
func pathUUID(c *gin.Context, kind string) (string, bool) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, kind+" id must be a UUID")
		return "", false
	}
	return id, true
}
