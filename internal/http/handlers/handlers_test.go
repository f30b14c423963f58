package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-insight-backend/internal/ai"
	"github.com/tbourn/go-insight-backend/internal/http/middleware"
	"github.com/tbourn/go-insight-backend/internal/repo"
	"github.com/tbourn/go-insight-backend/internal/services"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:handlers_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// stubAI answers every completion with text/err and counts calls.
type stubAI struct {
	text  string
	err   error
	calls int
}

func (s *stubAI) Complete(context.Context, []ai.Message) (string, error) {
	s.calls++
	return s.text, s.err
}

type testApp struct {
	r  *gin.Engine
	db *gorm.DB
	ai *stubAI
}

// newTestApp wires real services over sqlite with a stubbed summarizer and
// the middleware the handlers rely on.
func newTestApp(t *testing.T) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)
	if err := RegisterValidators(); err != nil {
		t.Fatalf("validators: %v", err)
	}

	db := newTestDB(t)
	stub := &stubAI{text: `{"title":"Checkout pain","summary":"Users find checkout slow.","key_themes":["Performance"],"sentiment":"negative","action_items":["Profile checkout"]}`}
	dash := services.NewDashboardService(db, 0)
	fb := &services.FeedbackService{DB: db, Dashboard: dash}
	in := services.NewInsightService(db, repo.Store{}, stub, dash)
	h := New(fb, in, dash, Options{DB: db, IdempotencyTTL: time.Hour})

	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Identity())
	r.Use(middleware.IdempotencyValidator(middleware.IdempotencyOptions{}, nil))
	r.POST("/feedback", h.CreateFeedback)
	r.GET("/feedback", h.ListFeedback)
	r.GET("/feedback/:id", h.GetFeedback)
	r.PATCH("/feedback/:id/status", h.UpdateFeedbackStatus)
	r.DELETE("/feedback/:id", h.DeleteFeedback)
	r.POST("/insights", h.GenerateInsight)
	r.GET("/insights", h.ListInsights)
	r.GET("/insights/:id", h.GetInsight)
	r.DELETE("/insights/:id", h.DeleteInsight)
	r.GET("/dashboard", h.Dashboard)

	return &testApp{r: r, db: db, ai: stub}
}

type reqOpt func(*http.Request)

func asUser(uid string) reqOpt {
	return func(r *http.Request) { r.Header.Set(middleware.HeaderUserID, uid) }
}

func withHeader(k, v string) reqOpt {
	return func(r *http.Request) { r.Header.Set(k, v) }
}

func (a *testApp) do(t *testing.T, method, path string, body any, opts ...reqOpt) *httptest.ResponseRecorder {
	t.Helper()
	var rdr *bytes.Reader
	switch b := body.(type) {
	case nil:
		rdr = bytes.NewReader(nil)
	case string:
		rdr = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		rdr = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rdr)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, o := range opts {
		o(req)
	}
	w := httptest.NewRecorder()
	a.r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %T: %v (body=%s)", v, err, w.Body.String())
	}
	return v
}

func wantError(t *testing.T, w *httptest.ResponseRecorder, status int, code string) ErrorResponse {
	t.Helper()
	if w.Code != status {
		t.Fatalf("status = %d; want %d (body=%s)", w.Code, status, w.Body.String())
	}
	er := decode[ErrorResponse](t, w)
	if er.Code != code {
		t.Fatalf("code = %q; want %q", er.Code, code)
	}
	if er.RequestID == "" {
		t.Fatalf("missing request_id: %+v", er)
	}
	return er
}
