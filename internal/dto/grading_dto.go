package dto

// GradeResponse reports the outcome of a grading run.
type GradeResponse struct {
	SubmissionID uint    `json:"submission_id"`
	FeedbackID   uint    `json:"feedback_id"`
	Grade        float64 `json:"grade"`
	FeedbackText string  `json:"feedback_text"`
}

// ReviewResponse reports the outcome of a multi-agent review run, including
// the per-agent outputs kept for audit.
type ReviewResponse struct {
	SubmissionID uint                   `json:"submission_id"`
	FeedbackID   uint                   `json:"feedback_id"`
	Grade        float64                `json:"grade"`
	FeedbackText string                 `json:"feedback_text"`
	Confidence   float64                `json:"confidence"`
	Result       map[string]interface{} `json:"result"`
}

// PushPayload carries a finished grade plus feedback in the shape the
// Moodle push-back glue expects.
type PushPayload struct {
	MoodleUserID       int64   `json:"moodle_user_id"`
	MoodleSubmissionID int64   `json:"moodle_submission_id"`
	MoodleAssignID     int64   `json:"moodle_assign_id"`
	Grade              float64 `json:"grade"`
	FeedbackText       string  `json:"feedback_text"`
}
