package domain

import (
	"fmt"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite (no CGO)
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&Feedback{}, &Insight{}, &Idempotency{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func intPtr(i int) *int { return &i }

func TestTableNames(t *testing.T) {
	if (Feedback{}).TableName() != "feedback" {
		t.Fatalf("Feedback.TableName() = %q", (Feedback{}).TableName())
	}
	if (Insight{}).TableName() != "insights" {
		t.Fatalf("Insight.TableName() = %q", (Insight{}).TableName())
	}
	if (Idempotency{}).TableName() != "idempotency" {
		t.Fatalf("Idempotency.TableName() = %q", (Idempotency{}).TableName())
	}
}

func TestEnums_Valid(t *testing.T) {
	for _, c := range Categories {
		if !c.Valid() {
			t.Fatalf("category %q should be valid", c)
		}
	}
	if Category("praise").Valid() || Category("").Valid() || Category("Bug").Valid() {
		t.Fatalf("unexpected category accepted")
	}
	for _, s := range Statuses {
		if !s.Valid() {
			t.Fatalf("status %q should be valid", s)
		}
	}
	if Status("closed").Valid() {
		t.Fatalf("unexpected status accepted")
	}
	for _, s := range []Sentiment{SentimentPositive, SentimentNegative, SentimentNeutral, SentimentMixed} {
		if !s.Valid() {
			t.Fatalf("sentiment %q should be valid", s)
		}
	}
	for _, s := range []Sentiment{"angry", "Positive", " neutral", ""} {
		if s.Valid() {
			t.Fatalf("sentiment %q should be rejected", s)
		}
	}
}

func TestMigrations_Indexes(t *testing.T) {
	db := newTestDB(t)
	m := db.Migrator()

	for _, tbl := range []any{&Feedback{}, &Insight{}, &Idempotency{}} {
		if !m.HasTable(tbl) {
			t.Fatalf("expected table for %T to exist", tbl)
		}
	}
	if !m.HasIndex(&Feedback{}, "idx_user_feedback") {
		t.Fatalf("expected index idx_user_feedback")
	}
	if !m.HasIndex(&Insight{}, "idx_user_insights") {
		t.Fatalf("expected index idx_user_insights")
	}
	if !m.HasIndex(&Idempotency{}, "ux_user_scope_key") {
		t.Fatalf("expected index ux_user_scope_key")
	}
}

func TestFeedback_CheckConstraints(t *testing.T) {
	db := newTestDB(t)
	now := time.Now().UTC()

	base := func(id string) Feedback {
		return Feedback{
			ID: id, UserID: "u1", Title: "t", Content: "c",
			Category: CategoryBug, Status: StatusNew, Source: SourceManual,
			CreatedAt: now, UpdatedAt: now,
		}
	}

	ok := base("f-ok")
	ok.Rating = intPtr(5)
	if err := db.Create(&ok).Error; err != nil {
		t.Fatalf("valid insert: %v", err)
	}

	badCat := base("f-cat")
	badCat.Category = "praise"
	if err := db.Create(&badCat).Error; err == nil {
		t.Fatalf("expected check violation for category")
	}

	badStatus := base("f-status")
	badStatus.Status = "closed"
	if err := db.Create(&badStatus).Error; err == nil {
		t.Fatalf("expected check violation for status")
	}

	badRating := base("f-rating")
	badRating.Rating = intPtr(6)
	if err := db.Create(&badRating).Error; err == nil {
		t.Fatalf("expected check violation for rating")
	}
}

func TestInsight_ListsRoundTripAndNeverNil(t *testing.T) {
	db := newTestDB(t)
	now := time.Now().UTC()

	full := &Insight{
		ID: "i1", UserID: "u1", Title: "T", Summary: "S",
		KeyThemes: []string{"a", "b"}, Sentiment: SentimentMixed,
		ActionItems: []string{"x"}, FeedbackCount: 3, CreatedAt: now,
	}
	empty := &Insight{ID: "i2", UserID: "u1", Title: "T", Summary: "S", Sentiment: SentimentNeutral, CreatedAt: now}
	if err := db.Create(full).Error; err != nil {
		t.Fatalf("insert full: %v", err)
	}
	if err := db.Create(empty).Error; err != nil {
		t.Fatalf("insert empty: %v", err)
	}

	var raw string
	if err := db.Raw("SELECT key_themes FROM insights WHERE id = ?", "i2").Row().Scan(&raw); err != nil {
		t.Fatalf("raw scan: %v", err)
	}
	if raw != "[]" {
		t.Fatalf("empty list stored as %q; want []", raw)
	}

	var got Insight
	if err := db.First(&got, "id = ?", "i1").Error; err != nil {
		t.Fatalf("readback: %v", err)
	}
	if len(got.KeyThemes) != 2 || got.KeyThemes[1] != "b" || len(got.ActionItems) != 1 || got.FeedbackCount != 3 {
		t.Fatalf("unexpected insight: %+v", got)
	}

	var got2 Insight
	if err := db.First(&got2, "id = ?", "i2").Error; err != nil {
		t.Fatalf("readback empty: %v", err)
	}
	if got2.KeyThemes == nil || got2.ActionItems == nil {
		t.Fatalf("lists must be non-nil after load: %+v", got2)
	}

	bad := &Insight{ID: "i3", UserID: "u1", Title: "T", Summary: "S", Sentiment: "angry", CreatedAt: now}
	if err := db.Create(bad).Error; err == nil {
		t.Fatalf("expected check violation for sentiment")
	}
}
