package dto

import (
	"time"

	"github.com/cepdnaclk/e20-4yp-ai-driven-automated-feedback-and-tutoring-system-for-higher-education/internal/models"
)

// SubmissionIngestRequest is the payload delivered by the Moodle intake glue.
type SubmissionIngestRequest struct {
	MoodleSubmissionID int64  `json:"moodle_submission_id" validate:"required,gt=0"`
	AssignmentID       int64  `json:"assignment_id" validate:"required,gt=0"`
	CourseID           int64  `json:"course_id" validate:"required,gt=0"`
	StudentID          int64  `json:"student_id" validate:"required,gt=0"`
	RawText            string `json:"raw_text"`
	CleanedText        string `json:"cleaned_text"`
}

// Ingest outcome statuses.
const (
	IngestStatusStored    = "stored"
	IngestStatusExists    = "already_exists"
	IngestStatusRechunked = "rechunked_existing"
)

// SubmissionIngestResponse reports the result of an ingestion attempt.
type SubmissionIngestResponse struct {
	Status         string `json:"status"`
	SubmissionID   uint   `json:"submission_id"`
	ChunksSaved    int    `json:"chunks_saved"`
	ChunkQuestions []int  `json:"chunk_questions,omitempty"`
}

// SubmissionResponse is returned to API clients when viewing a submission.
type SubmissionResponse struct {
	ID                 uint      `json:"id"`
	MoodleSubmissionID int64     `json:"moodle_submission_id"`
	AssignmentID       int64     `json:"assignment_id"`
	CourseID           int64     `json:"course_id"`
	StudentID          int64     `json:"student_id"`
	Status             string    `json:"status"`
	PlagiarismFlag     bool      `json:"plagiarism_flag"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// NewSubmissionResponse converts a Submission model into a DTO.
func NewSubmissionResponse(model models.Submission) SubmissionResponse {
	return SubmissionResponse{
		ID:                 model.ID,
		MoodleSubmissionID: model.MoodleSubmissionID,
		AssignmentID:       model.AssignmentID,
		CourseID:           model.CourseID,
		StudentID:          model.StudentID,
		Status:             model.Status,
		PlagiarismFlag:     model.PlagiarismFlag,
		CreatedAt:          model.CreatedAt,
		UpdatedAt:          model.UpdatedAt,
	}
}
