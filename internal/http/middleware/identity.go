// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements Identity, which copies the caller identity asserted by
// the upstream auth proxy (X-User-ID) into the Gin context under "userID".
// Every owner-scoped handler and the rate limiter read it from there.
package middleware

import (
	"net/http"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	// HeaderUserID carries the authenticated user id set by the auth proxy.
	HeaderUserID = "X-User-ID"
	// DefaultUserID is used when no identity is asserted.
	DefaultUserID = "demo-user"

	userIDKey    = "userID"
	maxUserIDLen = 64
)

var userIDRE = regexp.MustCompile(`^[A-Za-z0-9._@:\-]+$`)

// Identity stores the caller id in the context. A missing header falls back
// to DefaultUserID; a malformed one is rejected with 400 because it would
// otherwise scope data to an id nobody can reproduce.
func Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := strings.TrimSpace(c.GetHeader(HeaderUserID))
		if uid == "" {
			uid = DefaultUserID
		}
		if len(uid) > maxUserIDLen || !userIDRE.MatchString(uid) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"request_id": c.Writer.Header().Get(requestIDHeader),
				"code":       "bad_user_id",
				"message":    "invalid X-User-ID",
			})
			return
		}
		c.Set(userIDKey, uid)
		c.Next()
	}
}

// UserID returns the caller id stored by Identity, or DefaultUserID.
func UserID(c *gin.Context) string {
	if v, ok := c.Get(userIDKey); ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return DefaultUserID
}
