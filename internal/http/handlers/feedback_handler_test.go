package handlers

import (
	"net/http"
	"strings"
	"testing"

	"github.com/tbourn/go-insight-backend/internal/domain"
	"github.com/tbourn/go-insight-backend/internal/http/middleware"
)

func TestCreateFeedback_SuccessAndDefaults(t *testing.T) {
	app := newTestApp(t)

	w := app.do(t, http.MethodPost, "/feedback", map[string]any{
		"title":   "  Checkout is slow ",
		"content": "Paying takes ages\r\n\r\n\r\n\r\non mobile",
		"rating":  2,
	}, asUser("u1"))
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}
	fb := decode[domain.Feedback](t, w)
	if fb.ID == "" || fb.UserID != "u1" || fb.Title != "Checkout is slow" {
		t.Fatalf("unexpected feedback: %+v", fb)
	}
	if fb.Content != "Paying takes ages\n\non mobile" {
		t.Fatalf("content not cleaned: %q", fb.Content)
	}
	if fb.Category != domain.CategoryGeneral || fb.Status != domain.StatusNew || fb.Source != domain.SourceManual {
		t.Fatalf("defaults not applied: %+v", fb)
	}
	if fb.Rating == nil || *fb.Rating != 2 {
		t.Fatalf("rating = %v", fb.Rating)
	}
	if w.Header().Get(middleware.HeaderIdempotencyReplayed) != "" {
		t.Fatalf("fresh create must not be marked replayed")
	}
}

func TestCreateFeedback_Validation(t *testing.T) {
	app := newTestApp(t)
	cases := []struct {
		name string
		body any
		want string
	}{
		{"malformed json", `{"title":`, "invalid JSON body"},
		{"missing title", map[string]any{"content": "c"}, "title is required"},
		{"missing content", map[string]any{"title": "t"}, "content is required"},
		{"blank title", map[string]any{"title": "   ", "content": "c"}, "title is empty"},
		{"long title", map[string]any{"title": strings.Repeat("é", 256), "content": "c"}, "title must be at most 255 characters"},
		{"bad category", map[string]any{"title": "t", "content": "c", "category": "rant"}, "category must be one of"},
		{"rating low", map[string]any{"title": "t", "content": "c", "rating": 0}, "rating is out of range"},
		{"rating high", map[string]any{"title": "t", "content": "c", "rating": 6}, "rating is out of range"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			er := wantError(t, app.do(t, http.MethodPost, "/feedback", tc.body), http.StatusBadRequest, ErrCodeValidation)
			if !strings.Contains(er.Message, tc.want) {
				t.Fatalf("message = %q; want it to contain %q", er.Message, tc.want)
			}
		})
	}
}

func TestCreateFeedback_CategoryIsCaseInsensitive(t *testing.T) {
	app := newTestApp(t)
	w := app.do(t, http.MethodPost, "/feedback", map[string]any{"title": "t", "content": "c", "category": "Bug"})
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}
	if fb := decode[domain.Feedback](t, w); fb.Category != domain.CategoryBug {
		t.Fatalf("category = %q", fb.Category)
	}
}

func TestCreateFeedback_IdempotentReplay(t *testing.T) {
	app := newTestApp(t)
	body := map[string]any{"title": "Dark mode", "content": "Please add it", "category": "feature"}

	first := app.do(t, http.MethodPost, "/feedback", body, asUser("u1"), withHeader(middleware.HeaderIdempotencyKey, "fb-1"))
	second := app.do(t, http.MethodPost, "/feedback", body, asUser("u1"), withHeader(middleware.HeaderIdempotencyKey, "fb-1"))
	other := app.do(t, http.MethodPost, "/feedback", body, asUser("u2"), withHeader(middleware.HeaderIdempotencyKey, "fb-1"))

	a, b, c := decode[domain.Feedback](t, first), decode[domain.Feedback](t, second), decode[domain.Feedback](t, other)
	if second.Code != http.StatusCreated || a.ID != b.ID {
		t.Fatalf("replay should return the original: %d %s vs %s", second.Code, a.ID, b.ID)
	}
	if second.Header().Get(middleware.HeaderIdempotencyReplayed) != "true" {
		t.Fatalf("replay header missing")
	}
	if c.ID == a.ID || c.UserID != "u2" {
		t.Fatalf("keys are per user: %+v", c)
	}

	var n int64
	app.db.Model(&domain.Feedback{}).Where("user_id = ?", "u1").Count(&n)
	if n != 1 {
		t.Fatalf("u1 rows = %d; want 1", n)
	}
}

func TestListFeedback_FiltersSearchAndPagination(t *testing.T) {
	app := newTestApp(t)
	for _, f := range []map[string]any{
		{"title": "Loading spinner", "content": "never stops", "category": "bug"},
		{"title": "Export to CSV", "content": "would help reporting", "category": "feature"},
		{"title": "Slow search", "content": "search is slow", "category": "bug"},
	} {
		if w := app.do(t, http.MethodPost, "/feedback", f, asUser("u1")); w.Code != http.StatusCreated {
			t.Fatalf("seed: %d", w.Code)
		}
	}
	app.do(t, http.MethodPost, "/feedback", map[string]any{"title": "not mine", "content": "x", "category": "bug"}, asUser("u2"))

	all := decode[ListFeedbackResponse](t, app.do(t, http.MethodGet, "/feedback?page_size=2", nil, asUser("u1")))
	if all.Pagination.Total != 3 || len(all.Feedback) != 2 || !all.Pagination.HasNext || all.Pagination.TotalPages != 2 {
		t.Fatalf("pagination: %+v (%d items)", all.Pagination, len(all.Feedback))
	}
	if all.Feedback[0].Title != "Slow search" {
		t.Fatalf("newest first expected, got %q", all.Feedback[0].Title)
	}

	bugs := decode[ListFeedbackResponse](t, app.do(t, http.MethodGet, "/feedback?category=BUG&status=all", nil, asUser("u1")))
	if bugs.Pagination.Total != 2 {
		t.Fatalf("bug filter total = %d", bugs.Pagination.Total)
	}

	found := decode[ListFeedbackResponse](t, app.do(t, http.MethodGet, "/feedback?q=slow", nil, asUser("u1")))
	if found.Pagination.Total != 1 || found.Feedback[0].Title != "Slow search" {
		t.Fatalf("search: %+v", found)
	}

	wantError(t, app.do(t, http.MethodGet, "/feedback?category=rant", nil), http.StatusBadRequest, ErrCodeBadRequest)
	wantError(t, app.do(t, http.MethodGet, "/feedback?status=done", nil), http.StatusBadRequest, ErrCodeBadRequest)
}

func TestListFeedback_ETag(t *testing.T) {
	app := newTestApp(t)
	app.do(t, http.MethodPost, "/feedback", map[string]any{"title": "t", "content": "c"}, asUser("u1"))

	first := app.do(t, http.MethodGet, "/feedback", nil, asUser("u1"))
	etag := first.Header().Get("ETag")
	if first.Code != http.StatusOK || !strings.HasPrefix(etag, `W/"feedback:u1:1:`) {
		t.Fatalf("etag = %q (status %d)", etag, first.Code)
	}

	cached := app.do(t, http.MethodGet, "/feedback", nil, asUser("u1"), withHeader("If-None-Match", etag))
	if cached.Code != http.StatusNotModified {
		t.Fatalf("expected 304, got %d", cached.Code)
	}

	otherPage := app.do(t, http.MethodGet, "/feedback?page=2", nil, asUser("u1"), withHeader("If-None-Match", etag))
	if otherPage.Code != http.StatusOK {
		t.Fatalf("a different query must not reuse the ETag, got %d", otherPage.Code)
	}

	app.do(t, http.MethodPost, "/feedback", map[string]any{"title": "t2", "content": "c2"}, asUser("u1"))
	changed := app.do(t, http.MethodGet, "/feedback", nil, asUser("u1"), withHeader("If-None-Match", etag))
	if changed.Code != http.StatusOK {
		t.Fatalf("expected 200 after a write, got %d", changed.Code)
	}
}

func TestFeedback_GetStatusDeleteLifecycle(t *testing.T) {
	app := newTestApp(t)
	fb := decode[domain.Feedback](t, app.do(t, http.MethodPost, "/feedback", map[string]any{"title": "t", "content": "c"}, asUser("u1")))
	path := "/feedback/" + fb.ID

	if got := decode[domain.Feedback](t, app.do(t, http.MethodGet, path, nil, asUser("u1"))); got.ID != fb.ID {
		t.Fatalf("get: %+v", got)
	}
	wantError(t, app.do(t, http.MethodGet, path, nil, asUser("u2")), http.StatusNotFound, ErrCodeNotFound)
	wantError(t, app.do(t, http.MethodGet, "/feedback/not-a-uuid", nil), http.StatusBadRequest, ErrCodeBadRequest)

	if w := app.do(t, http.MethodPatch, path+"/status", map[string]any{"status": "Reviewed"}, asUser("u1")); w.Code != http.StatusNoContent {
		t.Fatalf("patch: %d %s", w.Code, w.Body.String())
	}
	if got := decode[domain.Feedback](t, app.do(t, http.MethodGet, path, nil, asUser("u1"))); got.Status != domain.StatusReviewed {
		t.Fatalf("status = %q", got.Status)
	}
	er := wantError(t, app.do(t, http.MethodPatch, path+"/status", map[string]any{"status": "done"}, asUser("u1")), http.StatusBadRequest, ErrCodeValidation)
	if !strings.Contains(er.Message, "new, reviewed, resolved") {
		t.Fatalf("message = %q", er.Message)
	}
	wantError(t, app.do(t, http.MethodPatch, path+"/status", map[string]any{"status": "resolved"}, asUser("u2")), http.StatusNotFound, ErrCodeNotFound)

	wantError(t, app.do(t, http.MethodDelete, path, nil, asUser("u2")), http.StatusNotFound, ErrCodeNotFound)
	if w := app.do(t, http.MethodDelete, path, nil, asUser("u1")); w.Code != http.StatusNoContent {
		t.Fatalf("delete: %d", w.Code)
	}
	wantError(t, app.do(t, http.MethodGet, path, nil, asUser("u1")), http.StatusNotFound, ErrCodeNotFound)
	wantError(t, app.do(t, http.MethodDelete, path, nil, asUser("u1")), http.StatusNotFound, ErrCodeNotFound)
}
