package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-insight-backend/internal/ai"
	"github.com/tbourn/go-insight-backend/internal/domain"
	"github.com/tbourn/go-insight-backend/internal/insight"
	"github.com/tbourn/go-insight-backend/internal/repo"
)

// testRepo is the real store with optional failure injection.
type testRepo struct {
	repo.Store
	listErr   error
	createErr error
}

func (r testRepo) ListAllFeedback(ctx context.Context, db *gorm.DB, userID string) ([]domain.Feedback, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	return r.Store.ListAllFeedback(ctx, db, userID)
}

func (r testRepo) CreateInsight(ctx context.Context, db *gorm.DB, in *domain.Insight) (string, error) {
	if r.createErr != nil {
		return "", r.createErr
	}
	return r.Store.CreateInsight(ctx, db, in)
}

// fakeAI returns a canned answer and records what it was sent.
type fakeAI struct {
	text  string
	err   error
	calls int
	got   []ai.Message
}

func (f *fakeAI) Complete(_ context.Context, msgs []ai.Message) (string, error) {
	f.calls++
	f.got = msgs
	return f.text, f.err
}

func newInsightSvc(t *testing.T, r testRepo, c *fakeAI) (*InsightService, *gorm.DB, *countingInvalidator) {
	t.Helper()
	db := newTestDB(t)
	inv := &countingInvalidator{}
	svc := NewInsightService(db, r, c, inv)
	svc.Now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.FixedZone("X", 3600)) }
	return svc, db, inv
}

func countInsights(t *testing.T, db *gorm.DB, userID string) int64 {
	t.Helper()
	n, err := repo.CountInsights(context.Background(), db, userID)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}

const validAnswer = `{"title":"Checkout friction","summary":"Users report slow checkout.","key_themes":["checkout","performance"],"sentiment":"negative","action_items":["Profile checkout","Add progress indicator","Survey users"]}`

// ---------- Generate ----------

func TestGenerate_Success(t *testing.T) {
	c := &fakeAI{text: validAnswer}
	svc, db, inv := newInsightSvc(t, testRepo{}, c)
	base := time.Now().UTC().Add(-time.Hour)
	seed(t, db, "u1", "Slow checkout", "takes ages", domain.CategoryBug, base)
	seed(t, db, "u1", "Spinner", "no progress shown", domain.CategoryImprovement, base.Add(time.Minute))
	seed(t, db, "u2", "Other", "not mine", domain.CategoryGeneral, base)

	in, err := svc.Generate(context.Background(), "u1")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if in.ID == "" || in.UserID != "u1" || in.FeedbackCount != 2 {
		t.Fatalf("unexpected insight: %+v", in)
	}
	if in.Title != "Checkout friction" || in.Sentiment != domain.SentimentNegative || len(in.ActionItems) != 3 {
		t.Fatalf("decoded fields wrong: %+v", in)
	}
	if in.CreatedAt.Location() != time.UTC || !in.CreatedAt.Equal(svc.Now()) {
		t.Fatalf("created_at should be UTC now: %v", in.CreatedAt)
	}
	if c.calls != 1 {
		t.Fatalf("want exactly one AI call, got %d", c.calls)
	}
	if len(c.got) != 2 || c.got[0].Content != insight.SystemPrompt {
		t.Fatalf("unexpected messages: %+v", c.got)
	}
	// newest first, owner-scoped
	wantUser := "Analyze the following 2 pieces of user feedback and generate insights:\n\n" +
		"- [improvement] Spinner: no progress shown\n- [bug] Slow checkout: takes ages"
	if c.got[1].Content != wantUser {
		t.Fatalf("user prompt:\n%s", c.got[1].Content)
	}
	if countInsights(t, db, "u1") != 1 || inv.calls["u1"] != 1 {
		t.Fatalf("insight not persisted or cache not invalidated")
	}

	stored, err := svc.Get(context.Background(), "u1", in.ID)
	if err != nil || stored.Summary != "Users report slow checkout." || len(stored.KeyThemes) != 2 {
		t.Fatalf("stored insight: %+v err=%v", stored, err)
	}
}

func TestGenerate_NoFeedbackMakesNoCall(t *testing.T) {
	c := &fakeAI{text: validAnswer}
	svc, db, _ := newInsightSvc(t, testRepo{}, c)

	_, err := svc.Generate(context.Background(), "u1")
	if !errors.Is(err, ErrNoFeedbackAvailable) {
		t.Fatalf("want ErrNoFeedbackAvailable, got %v", err)
	}
	if c.calls != 0 || countInsights(t, db, "u1") != 0 {
		t.Fatalf("no call and no row expected (calls=%d)", c.calls)
	}
}

func TestGenerate_FetchFailure(t *testing.T) {
	boom := errors.New("db down")
	c := &fakeAI{text: validAnswer}
	svc, _, _ := newInsightSvc(t, testRepo{listErr: boom}, c)

	_, err := svc.Generate(context.Background(), "u1")
	if !errors.Is(err, boom) {
		t.Fatalf("want wrapped fetch error, got %v", err)
	}
	if c.calls != 0 {
		t.Fatalf("AI must not be called when fetch fails")
	}
}

func TestGenerate_UpstreamErrors(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want error
	}{
		{"rate limited", fmt.Errorf("upstream: %w", ai.ErrRateLimited), ErrRateLimited},
		{"quota", ai.ErrQuotaExhausted, ErrQuotaExhausted},
		{"unavailable", fmt.Errorf("dial: %w", ai.ErrUpstreamUnavailable), ErrUpstreamUnavailable},
		{"unknown", errors.New("weird"), ErrUpstreamUnavailable},
		{"empty", ai.ErrEmptyResponse, ErrEmptyResponse},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := &fakeAI{err: tc.err}
			svc, db, inv := newInsightSvc(t, testRepo{}, c)
			seed(t, db, "u1", "t", "c", domain.CategoryBug, time.Now().UTC())

			_, err := svc.Generate(context.Background(), "u1")
			if !errors.Is(err, tc.want) {
				t.Fatalf("want %v, got %v", tc.want, err)
			}
			if countInsights(t, db, "u1") != 0 || inv.calls["u1"] != 0 {
				t.Fatalf("failure must not persist or invalidate")
			}
		})
	}
}

func TestGenerate_RateLimitKeepsRetryAfter(t *testing.T) {
	c := &fakeAI{err: fmt.Errorf("%w", ai.ErrRateLimited)}
	svc, db, _ := newInsightSvc(t, testRepo{}, c)
	seed(t, db, "u1", "t", "c", domain.CategoryBug, time.Now().UTC())

	_, err := svc.Generate(context.Background(), "u1")
	if !errors.Is(err, ErrRateLimited) || !errors.Is(err, ai.ErrRateLimited) {
		t.Fatalf("both sentinels should match: %v", err)
	}
	if ai.RetryAfter(err) != ai.DefaultRetryAfter {
		t.Fatalf("RetryAfter lost through wrapping: %v", ai.RetryAfter(err))
	}
}

func TestGenerate_WhitespaceAnswerIsEmpty(t *testing.T) {
	c := &fakeAI{text: "  \n\t "}
	svc, db, _ := newInsightSvc(t, testRepo{}, c)
	seed(t, db, "u1", "t", "c", domain.CategoryBug, time.Now().UTC())

	if _, err := svc.Generate(context.Background(), "u1"); !errors.Is(err, ErrEmptyResponse) {
		t.Fatalf("want ErrEmptyResponse, got %v", err)
	}
}

func TestGenerate_ProseFallsBack(t *testing.T) {
	prose := strings.Repeat("Users like the app but want more speed. ", 20)
	c := &fakeAI{text: prose}
	svc, db, _ := newInsightSvc(t, testRepo{}, c)
	seed(t, db, "u1", "t", "c", domain.CategoryBug, time.Now().UTC())

	in, err := svc.Generate(context.Background(), "u1")
	if err != nil {
		t.Fatalf("fallback must not fail: %v", err)
	}
	if in.Title != insight.FallbackTitle || in.Summary != prose[:500] || in.Sentiment != domain.SentimentNeutral {
		t.Fatalf("unexpected fallback: %+v", in)
	}
}

func TestGenerate_NormalizesSloppyAnswer(t *testing.T) {
	c := &fakeAI{text: "```json\n{\"title\":\"\",\"sentiment\":\"angry\",\"key_themes\":[\"a\",\"b\",\"c\",\"d\",\"e\",\"f\",\"g\"]}\n```"}
	svc, db, _ := newInsightSvc(t, testRepo{}, c)
	seed(t, db, "u1", "t", "c", domain.CategoryBug, time.Now().UTC())

	in, err := svc.Generate(context.Background(), "u1")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if in.Title != insight.DefaultTitle || in.Summary != insight.DefaultSummary {
		t.Fatalf("text defaults: %+v", in)
	}
	if in.Sentiment != domain.SentimentNeutral || len(in.KeyThemes) != 5 || len(in.ActionItems) != 0 {
		t.Fatalf("normalization: %+v", in)
	}
}

func TestGenerate_PersistenceFailure(t *testing.T) {
	boom := errors.New("disk full")
	c := &fakeAI{text: validAnswer}
	svc, db, inv := newInsightSvc(t, testRepo{createErr: boom}, c)
	seed(t, db, "u1", "t", "c", domain.CategoryBug, time.Now().UTC())

	_, err := svc.Generate(context.Background(), "u1")
	if !errors.Is(err, ErrPersistenceFailed) || !errors.Is(err, boom) {
		t.Fatalf("want ErrPersistenceFailed wrapping cause, got %v", err)
	}
	if inv.calls["u1"] != 0 {
		t.Fatalf("cache must not be invalidated on failure")
	}
}

func TestGenerate_TwiceMakesTwoInsights(t *testing.T) {
	c := &fakeAI{text: validAnswer}
	svc, db, _ := newInsightSvc(t, testRepo{}, c)
	seed(t, db, "u1", "t", "c", domain.CategoryBug, time.Now().UTC())

	a, err1 := svc.Generate(context.Background(), "u1")
	b, err2 := svc.Generate(context.Background(), "u1")
	if err1 != nil || err2 != nil || a.ID == b.ID {
		t.Fatalf("expected two distinct insights: %v %v", err1, err2)
	}
	if countInsights(t, db, "u1") != 2 || c.calls != 2 {
		t.Fatalf("want 2 rows and 2 calls")
	}
}

// ---------- ListPage / Get / Delete ----------

func TestInsight_ListGetDelete(t *testing.T) {
	svc, db, inv := newInsightSvc(t, testRepo{}, &fakeAI{})
	ctx := context.Background()
	base := time.Now().UTC().Add(-time.Hour)
	var ids []string
	for i := 0; i < 3; i++ {
		in := &domain.Insight{UserID: "u1", Title: fmt.Sprintf("i%d", i), Summary: "s", Sentiment: domain.SentimentMixed, CreatedAt: base.Add(time.Duration(i) * time.Minute)}
		id, err := repo.CreateInsight(ctx, db, in)
		if err != nil {
			t.Fatalf("seed: %v", err)
		}
		ids = append(ids, id)
	}

	items, total, err := svc.ListPage(ctx, "u1", 1, 2)
	if err != nil || total != 3 || len(items) != 2 || items[0].Title != "i2" {
		t.Fatalf("list: %v total=%d err=%v", items, total, err)
	}
	if items[0].KeyThemes == nil || items[0].ActionItems == nil {
		t.Fatalf("lists must load non-nil")
	}
	empty, total, err := svc.ListPage(ctx, "u2", 0, 0)
	if err != nil || total != 0 || len(empty) != 0 {
		t.Fatalf("empty owner: %v %d %v", empty, total, err)
	}

	if _, err := svc.Get(ctx, "u2", ids[0]); !errors.Is(err, ErrInsightNotFound) {
		t.Fatalf("foreign get: %v", err)
	}
	if err := svc.Delete(ctx, "u2", ids[0]); !errors.Is(err, ErrInsightNotFound) {
		t.Fatalf("foreign delete: %v", err)
	}
	if err := svc.Delete(ctx, "u1", ids[0]); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.Get(ctx, "u1", ids[0]); !errors.Is(err, ErrInsightNotFound) {
		t.Fatalf("deleted insight visible: %v", err)
	}
	if inv.calls["u1"] != 1 {
		t.Fatalf("delete should invalidate once")
	}
}
