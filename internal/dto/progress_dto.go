package dto

import "time"

// ProfileView is the rolling per-student state exposed by the progress API.
type ProfileView struct {
	WeakConcepts        []string `json:"weak_concepts"`
	Trend               string   `json:"trend"`
	LastGrade           *float64 `json:"last_grade"`
	LastFeedbackSummary string   `json:"last_feedback_summary"`
}

// GradePoint is one historical grading result.
type GradePoint struct {
	SubmissionID uint      `json:"submission_id"`
	Grade        float64   `json:"grade"`
	Confidence   float64   `json:"confidence"`
	CreatedAt    time.Time `json:"created_at"`
}

// ConceptPoint is one historical per-concept score record.
type ConceptPoint struct {
	SubmissionID uint      `json:"submission_id"`
	Service      float64   `json:"service"`
	ClusterIP    float64   `json:"clusterip_nodeport"`
	NetPolicy    float64   `json:"networkpolicy"`
	CreatedAt    time.Time `json:"created_at"`
}

// ProgressResponse aggregates a student's profile with their grade and
// concept history, newest first.
type ProgressResponse struct {
	StudentID      int64          `json:"student_id"`
	Profile        ProfileView    `json:"profile"`
	GradeHistory   []GradePoint   `json:"grade_history"`
	ConceptHistory []ConceptPoint `json:"concept_history"`
}
