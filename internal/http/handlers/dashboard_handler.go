package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Dashboard godoc
// @ID          dashboard
// @Summary     Dashboard overview
// @Description Totals, this week's volume, per-category counts, the five newest feedback items and the three newest insights.
// @Tags        Dashboard
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (set by the auth proxy)"  example(user123)
//
// @Success     200  {object} services.Overview
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /dashboard [get]
func (h *Handlers) Dashboard(c *gin.Context) {
	ov, err := h.dashSvc.Overview(c.Request.Context(), userID(c))
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "failed to build dashboard", err)
		return
	}
	ok(c, http.StatusOK, ov)
}
