package handlers

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-insight-backend/internal/domain"
	"github.com/tbourn/go-insight-backend/internal/http/middleware"
	"github.com/tbourn/go-insight-backend/internal/repo"
)

// storedResult returns the record of a completed request carrying the same
// (user, scope, Idempotency-Key), if one is still valid.
func (h *Handlers) storedResult(c *gin.Context) (*domain.Idempotency, bool) {
	if h.db == nil {
		return nil, false
	}
	key, ok := middleware.GetIdempotencyKey(c)
	if !ok {
		return nil, false
	}
	rec, err := repo.GetIdempotency(c.Request.Context(), h.db, userID(c),
		middleware.GetIdempotencyScope(c), key, time.Now().UTC())
	if err != nil {
		if !errors.Is(err, repo.ErrNotFound) {
			middleware.LoggerFrom(c).Warn().Err(err).Msg("idempotency lookup failed")
		}
		return nil, false
	}
	return rec, true
}

// remember records resourceID as the result of this request. stale is the
// record found by storedResult whose resource has since been deleted; it is
// repointed instead of inserting a second row. Best effort: a concurrent
// request that stored first wins, and storage errors are logged.
func (h *Handlers) remember(c *gin.Context, stale *domain.Idempotency, resourceID string, status int) {
	if h.db == nil {
		return
	}
	key, ok := middleware.GetIdempotencyKey(c)
	if !ok {
		return
	}
	lg := middleware.LoggerFrom(c)
	if stale != nil {
		if err := repo.RepointIdempotency(c.Request.Context(), h.db, stale.ID, resourceID, status); err != nil {
			lg.Warn().Err(err).Str("idempotency_id", stale.ID).Msg("idempotency repoint failed")
		}
		return
	}
	_, err := repo.CreateIdempotency(c.Request.Context(), h.db, userID(c),
		middleware.GetIdempotencyScope(c), key, resourceID, status, h.idemTTL)
	switch {
	case errors.Is(err, repo.ErrDuplicate):
		lg.Debug().Str("resource_id", resourceID).Msg("idempotency key already stored by a concurrent request")
	case err != nil:
		lg.Warn().Err(err).Msg("idempotency store failed")
	}
}

func markReplayed(c *gin.Context) {
	c.Header(middleware.HeaderIdempotencyReplayed, "true")
}
