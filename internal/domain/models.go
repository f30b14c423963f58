// Package domain defines the persistence models for feedback and AI-generated
// insights. These types are mapped with GORM and form the core data layer
// of the insights application.
package domain

import (
	"time"

	"gorm.io/gorm"
)

// Category classifies a piece of feedback.
type Category string

const (
	CategoryGeneral     Category = "general"
	CategoryBug         Category = "bug"
	CategoryFeature     Category = "feature"
	CategoryImprovement Category = "improvement"
	CategoryQuestion    Category = "question"
)

// Categories lists every accepted category in display order.
var Categories = []Category{CategoryGeneral, CategoryBug, CategoryFeature, CategoryImprovement, CategoryQuestion}

// Valid reports whether c is one of the enumerated categories.
func (c Category) Valid() bool {
	for _, v := range Categories {
		if c == v {
			return true
		}
	}
	return false
}

// Status is the triage state of a piece of feedback.
type Status string

const (
	StatusNew      Status = "new"
	StatusReviewed Status = "reviewed"
	StatusResolved Status = "resolved"
)

// Statuses lists every accepted status.
var Statuses = []Status{StatusNew, StatusReviewed, StatusResolved}

// Valid reports whether s is one of the enumerated statuses.
func (s Status) Valid() bool {
	for _, v := range Statuses {
		if s == v {
			return true
		}
	}
	return false
}

// Sentiment is the overall tone an insight assigns to the analyzed feedback.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNegative Sentiment = "negative"
	SentimentNeutral  Sentiment = "neutral"
	SentimentMixed    Sentiment = "mixed"
)

// Valid reports whether s is exactly one of the four sentiments.
func (s Sentiment) Valid() bool {
	switch s {
	case SentimentPositive, SentimentNegative, SentimentNeutral, SentimentMixed:
		return true
	}
	return false
}

// SourceManual tags feedback entered through the API by its owner.
const SourceManual = "manual"

// Feedback is one user-submitted piece of input text with triage metadata.
//
// Fields:
//   - ID: UUID primary key (char(36)), assigned at creation.
//   - UserID: owner; every query is scoped by it.
//   - Title / Content: required, trimmed, non-empty.
//   - Category: one of Categories, "general" when omitted.
//   - Status: "new" at creation, changed only through the status operation.
//   - Rating: optional 1..5.
//   - Source: provenance tag, immutable.
//   - DeletedAt: soft deletion marker.
type Feedback struct {
	ID        string         `json:"id"               gorm:"type:char(36);primaryKey"`
	UserID    string         `json:"user_id"          gorm:"type:varchar(64);not null;index:idx_user_feedback,priority:1"`
	Title     string         `json:"title"            gorm:"type:varchar(255);not null"`
	Content   string         `json:"content"          gorm:"type:text;not null"`
	Category  Category       `json:"category"         gorm:"type:varchar(16);not null;default:'general';check:category IN ('general','bug','feature','improvement','question')"`
	Status    Status         `json:"status"           gorm:"type:varchar(16);not null;default:'new';check:status IN ('new','reviewed','resolved')"`
	Rating    *int           `json:"rating,omitempty" gorm:"check:rating IS NULL OR (rating >= 1 AND rating <= 5)"`
	Source    string         `json:"source"           gorm:"type:varchar(32);not null;default:'manual'"`
	CreatedAt time.Time      `json:"created_at"       gorm:"index:idx_user_feedback,priority:2"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-"                gorm:"index"`
}

// TableName returns the database table name for Feedback.
func (Feedback) TableName() string { return "feedback" }

// Insight is a persisted, normalized AI summary over a user's feedback.
// It is never updated after creation; regenerating produces a new row.
type Insight struct {
	ID            string         `json:"id"             gorm:"type:char(36);primaryKey"`
	UserID        string         `json:"user_id"        gorm:"type:varchar(64);not null;index:idx_user_insights,priority:1"`
	Title         string         `json:"title"          gorm:"type:text;not null"`
	Summary       string         `json:"summary"        gorm:"type:text;not null"`
	KeyThemes     []string       `json:"key_themes"     gorm:"type:text;not null;serializer:json"`
	Sentiment     Sentiment      `json:"sentiment"      gorm:"type:varchar(16);not null;default:'neutral';check:sentiment IN ('positive','negative','neutral','mixed')"`
	ActionItems   []string       `json:"action_items"   gorm:"type:text;not null;serializer:json"`
	FeedbackCount int            `json:"feedback_count" gorm:"not null;default:0"`
	CreatedAt     time.Time      `json:"created_at"     gorm:"index:idx_user_insights,priority:2"`
	DeletedAt     gorm.DeletedAt `json:"-"              gorm:"index"`
}

// TableName returns the database table name for Insight.
func (Insight) TableName() string { return "insights" }

// BeforeSave stores empty lists as "[]" rather than "null".
func (i *Insight) BeforeSave(*gorm.DB) error {
	i.ensureLists()
	return nil
}

// AfterFind guarantees list fields are never nil for callers.
func (i *Insight) AfterFind(*gorm.DB) error {
	i.ensureLists()
	return nil
}

func (i *Insight) ensureLists() {
	if i.KeyThemes == nil {
		i.KeyThemes = []string{}
	}
	if i.ActionItems == nil {
		i.ActionItems = []string{}
	}
}
