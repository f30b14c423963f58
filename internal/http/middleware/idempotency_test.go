package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func TestIdempotencyHelpers_Defaults(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodPost, "/insights", nil)

	if k, ok := GetIdempotencyKey(c); k != "" || ok {
		t.Fatalf("expected empty key when not set")
	}
	if IsReplay(c) || GetIdempotencyScope(c) != "" {
		t.Fatalf("expected no replay and no scope by default")
	}

	c.Set(ctxKeyIdemKey, 123)
	if _, ok := GetIdempotencyKey(c); ok {
		t.Fatalf("non-string key must read as absent")
	}
	c.Set(ctxKeyIdemReplay, "yes")
	if IsReplay(c) {
		t.Fatalf("non-bool replay flag must read as false")
	}
}

func TestIdempotencyValidator_SkipsWithoutHeaderOrOnSafeMethods(t *testing.T) {
	gin.SetMode(gin.TestMode)
	calls := 0
	lookup := func(context.Context, string, string, string, time.Time) (bool, error) {
		calls++
		return true, nil
	}

	r := gin.New()
	r.Use(IdempotencyValidator(IdempotencyOptions{}, lookup))
	r.GET("/insights", func(c *gin.Context) {
		if _, ok := GetIdempotencyKey(c); ok {
			t.Fatalf("GET must not stash a key")
		}
		c.Status(http.StatusOK)
	})
	r.POST("/insights", func(c *gin.Context) { c.Status(http.StatusCreated) })

	get := httptest.NewRequest(http.MethodGet, "/insights", nil)
	get.Header.Set(HeaderIdempotencyKey, "k1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, get)

	w2 := httptest.NewRecorder()
	r.ServeHTTP(w2, httptest.NewRequest(http.MethodPost, "/insights", nil))

	if w.Code != http.StatusOK || w2.Code != http.StatusCreated {
		t.Fatalf("codes: %d %d", w.Code, w2.Code)
	}
	if calls != 0 {
		t.Fatalf("lookup called %d times; want 0", calls)
	}
}

func TestIdempotencyValidator_RejectsBadKeys(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := []struct {
		name string
		opts IdempotencyOptions
		key  string
	}{
		{"too long", IdempotencyOptions{MaxLen: 5}, "abcdef"},
		{"custom pattern", IdempotencyOptions{Pattern: regexp.MustCompile(`^[0-9]+$`)}, "abc123"},
		{"default pattern", IdempotencyOptions{}, "has space"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := gin.New()
			r.Use(IdempotencyValidator(tc.opts, nil))
			r.POST("/feedback", func(c *gin.Context) { c.Status(http.StatusCreated) })

			req := httptest.NewRequest(http.MethodPost, "/feedback", nil)
			req.Header.Set(HeaderIdempotencyKey, tc.key)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", w.Code)
			}
			var body map[string]any
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("invalid json: %v", err)
			}
			if body["code"] != "bad_idempotency_key" {
				t.Fatalf("unexpected body: %v", body)
			}
		})
	}
}

func TestIdempotencyValidator_ScopeUserAndReplayFlags(t *testing.T) {
	gin.SetMode(gin.TestMode)

	type call struct{ user, scope, key string }
	var seen []call
	stored := map[call]bool{{"u9", "POST /insights", "k-9"}: true}
	lookup := func(_ context.Context, userID, scope, key string, now time.Time) (bool, error) {
		if now.IsZero() || now.Location() != time.UTC {
			t.Fatalf("lookup time must be UTC, got %v", now)
		}
		c := call{userID, scope, key}
		seen = append(seen, c)
		return stored[c], nil
	}

	r := gin.New()
	r.Use(Identity())
	r.Use(IdempotencyValidator(IdempotencyOptions{}, lookup))
	handler := func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"replay": IsReplay(c),
			"bypass": IsRateBypass(c),
			"scope":  GetIdempotencyScope(c),
		})
	}
	r.POST("/insights", handler)
	r.DELETE("/insights/:id", handler)

	do := func(method, path, user, key string) map[string]any {
		req := httptest.NewRequest(method, path, nil)
		req.Header.Set(HeaderIdempotencyKey, key)
		if user != "" {
			req.Header.Set(HeaderUserID, user)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		var out map[string]any
		_ = json.Unmarshal(w.Body.Bytes(), &out)
		return out
	}

	hit := do(http.MethodPost, "/insights", "u9", "k-9")
	if hit["replay"] != true || hit["bypass"] != true || hit["scope"] != "POST /insights" {
		t.Fatalf("hit: %v", hit)
	}

	otherUser := do(http.MethodPost, "/insights", "", "k-9")
	if otherUser["replay"] != false {
		t.Fatalf("a different user must not see the stored result: %v", otherUser)
	}

	otherScope := do(http.MethodDelete, "/insights/abc", "u9", "k-9")
	if otherScope["replay"] != false || otherScope["scope"] != "DELETE /insights/:id" {
		t.Fatalf("scope must follow the route: %v", otherScope)
	}

	if len(seen) != 3 || seen[1].user != DefaultUserID {
		t.Fatalf("lookup calls: %+v", seen)
	}
}

func TestIdempotencyValidator_CustomScope(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var gotScope string
	r := gin.New()
	r.Use(IdempotencyValidator(IdempotencyOptions{
		Scope: func(*gin.Context) string { return "generate" },
	}, func(_ context.Context, _, scope, _ string, _ time.Time) (bool, error) {
		gotScope = scope
		return false, nil
	}))
	r.POST("/insights", func(c *gin.Context) { c.Status(http.StatusCreated) })

	req := httptest.NewRequest(http.MethodPost, "/insights", nil)
	req.Header.Set(HeaderIdempotencyKey, "abc")
	r.ServeHTTP(httptest.NewRecorder(), req)
	if gotScope != "generate" {
		t.Fatalf("scope = %q", gotScope)
	}
}
