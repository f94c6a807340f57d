package dto

// PlagiarismFlag describes one chunk whose best cross-submission match
// exceeded the similarity threshold.
type PlagiarismFlag struct {
	ChunkID             uint    `json:"chunk_id"`
	QuestionNo          int     `json:"question_no"`
	MatchedSubmissionID uint    `json:"matched_submission_id"`
	MatchedChunkID      uint    `json:"matched_chunk_id"`
	Similarity          float64 `json:"similarity"`
}

// MatchRecord is one stored similarity decision, kept as audit evidence
// for review by teaching staff.
type MatchRecord struct {
	ID             uint    `json:"id"`
	ChunkID        uint    `json:"chunk_id"`
	MatchedChunkID uint    `json:"matched_chunk_id"`
	Similarity     float64 `json:"similarity"`
	Decision       string  `json:"decision"`
	EvidenceNote   string  `json:"evidence_note"`
}

// PlagiarismCheckResponse summarizes one plagiarism evaluation run.
type PlagiarismCheckResponse struct {
	SubmissionID uint             `json:"submission_id"`
	Threshold    float64          `json:"threshold"`
	Flags        []PlagiarismFlag `json:"flags"`
	FlaggedCount int              `json:"flagged_count"`
	Matches      []MatchRecord    `json:"matches"`
}
