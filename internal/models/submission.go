package models

import "time"

// Submission is one student's answer set for one assignment attempt, as
// pulled from the source platform.
type Submission struct {
	ID                 uint      `gorm:"primaryKey" json:"id"`
	MoodleSubmissionID int64     `gorm:"uniqueIndex;not null" json:"moodle_submission_id"`
	AssignmentID       int64     `gorm:"not null" json:"assignment_id"`
	CourseID           int64     `gorm:"not null" json:"course_id"`
	StudentID          int64     `gorm:"not null;index" json:"student_id"`
	RawText            string    `gorm:"type:text" json:"raw_text"`
	CleanedText        string    `gorm:"type:text" json:"cleaned_text"`
	Status             string    `gorm:"size:32;not null;default:pending" json:"status"`
	PlagiarismFlag     bool      `gorm:"not null;default:false" json:"plagiarism_flag"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

const (
	// SubmissionStatusPending indicates the submission is ingested but not graded.
	SubmissionStatusPending = "pending"
	// SubmissionStatusGraded indicates a grading run has produced a result.
	SubmissionStatusGraded = "graded"
	// SubmissionStatusFlagged indicates plagiarism detection flagged the submission.
	SubmissionStatusFlagged = "flagged"
)

// IsGraded reports whether the submission carries a final grade.
func (s Submission) IsGraded() bool {
	return s.Status == SubmissionStatusGraded
}

// SubmissionChunk is the answer text for one numbered question, extracted
// from a submission. At most one chunk exists per (submission, question).
type SubmissionChunk struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	SubmissionID uint       `gorm:"not null;uniqueIndex:uq_submission_question" json:"submission_id"`
	QuestionNo   int        `gorm:"not null;uniqueIndex:uq_submission_question" json:"question_no"`
	ChunkText    string     `gorm:"type:text;not null" json:"chunk_text"`
	CleanedText  string     `gorm:"type:text;not null" json:"cleaned_text"`
	CreatedAt    time.Time  `json:"created_at"`
	Submission   Submission `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}

// ChunkFingerprint caches the semantic vector computed for a chunk. The
// unique index on chunk_id enforces the at-most-one-fingerprint invariant
// even under concurrent checks.
type ChunkFingerprint struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	ChunkID   uint            `gorm:"uniqueIndex;not null" json:"chunk_id"`
	Vector    string          `gorm:"type:text;not null" json:"-"`
	CreatedAt time.Time       `json:"created_at"`
	Chunk     SubmissionChunk `gorm:"foreignKey:ChunkID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}

// SimilarityMatch records one plagiarism decision: the best match found for
// a chunk in a different submission, above the configured threshold.
type SimilarityMatch struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	ChunkID        uint      `gorm:"not null;index" json:"chunk_id"`
	MatchedChunkID uint      `gorm:"not null" json:"matched_chunk_id"`
	Similarity     float64   `gorm:"not null" json:"similarity"`
	Decision       string    `gorm:"size:16;not null;default:ok" json:"decision"`
	EvidenceNote   string    `gorm:"type:text" json:"evidence_note"`
	CreatedAt      time.Time `json:"created_at"`
}

const (
	// SimilarityDecisionOK marks a comparison below the plagiarism threshold.
	SimilarityDecisionOK = "ok"
	// SimilarityDecisionFlagged marks a comparison at or above the threshold.
	SimilarityDecisionFlagged = "flagged"
)
