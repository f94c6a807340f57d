package models

import (
	"time"

	"gorm.io/datatypes"
)

// FeedbackResult stores the outcome of one grading invocation. The most
// recent row for a submission is authoritative for downstream push.
type FeedbackResult struct {
	ID           uint              `gorm:"primaryKey" json:"id"`
	SubmissionID uint              `gorm:"not null;index" json:"submission_id"`
	Grade        float64           `json:"grade"`
	FeedbackText string            `gorm:"type:text" json:"feedback_text"`
	Payload      datatypes.JSONMap `gorm:"type:json" json:"payload"`
	Confidence   float64           `json:"confidence"`
	CreatedAt    time.Time         `json:"created_at"`
	Submission   Submission        `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}

// ConceptHistory is an append-only record of the per-concept scores one
// grading run produced for a submission.
type ConceptHistory struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	StudentID    int64     `gorm:"not null;index" json:"student_id"`
	SubmissionID uint      `gorm:"not null" json:"submission_id"`
	Service      float64   `json:"service"`
	ClusterIP    float64   `gorm:"column:clusterip_nodeport" json:"clusterip_nodeport"`
	NetPolicy    float64   `gorm:"column:networkpolicy" json:"networkpolicy"`
	CreatedAt    time.Time `json:"created_at"`
}

// TableName keeps the historical table name.
func (ConceptHistory) TableName() string {
	return "concept_history"
}

// StudentProfile is the rolling per-student state updated after every
// multi-agent grading run. Profiles are upserted, never deleted.
type StudentProfile struct {
	StudentID           int64          `gorm:"primaryKey" json:"student_id"`
	WeakConcepts        datatypes.JSON `gorm:"type:json" json:"weak_concepts"`
	Trend               string         `gorm:"size:16;not null;default:unknown" json:"trend"`
	LastFeedbackSummary string         `gorm:"type:text" json:"last_feedback_summary"`
	LastGrade           *float64       `json:"last_grade"`
	UpdatedAt           time.Time      `json:"updated_at"`
}

// TableName keeps the historical table name.
func (StudentProfile) TableName() string {
	return "student_profile"
}

const (
	// TrendUnknown is assigned on a student's first grading event.
	TrendUnknown = "unknown"
	// TrendImproving indicates the grade rose by at least five points.
	TrendImproving = "improving"
	// TrendDeclining indicates the grade fell by at least five points.
	TrendDeclining = "declining"
	// TrendStable indicates the grade moved less than five points either way.
	TrendStable = "stable"
)
