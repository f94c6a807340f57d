package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/cepdnaclk/e20-4yp-ai-driven-automated-feedback-and-tutoring-system-for-higher-education/internal/models"
)

// PeerChunk is a same-question chunk from another submission together with
// its stored fingerprint vector, as used by plagiarism comparison.
type PeerChunk struct {
	ChunkID      uint
	SubmissionID uint
	QuestionNo   int
	Vector       string
}

// ChunkRepository defines data operations for submission chunks.
type ChunkRepository interface {
	ListBySubmission(ctx context.Context, submissionID uint) ([]models.SubmissionChunk, error)
	CountBySubmission(ctx context.Context, submissionID uint) (int64, error)
	ListPeers(ctx context.Context, questionNo int, excludeSubmissionID uint) ([]PeerChunk, error)
}

type chunkRepository struct {
	db *gorm.DB
}

// NewChunkRepository instantiates the repository.
func NewChunkRepository(db *gorm.DB) ChunkRepository {
	return &chunkRepository{db: db}
}

func (r *chunkRepository) ListBySubmission(ctx context.Context, submissionID uint) ([]models.SubmissionChunk, error) {
	var chunks []models.SubmissionChunk
	if err := r.db.WithContext(ctx).
		Where("submission_id = ?", submissionID).
		Order("question_no ASC").
		Find(&chunks).Error; err != nil {
		return nil, err
	}

	return chunks, nil
}

func (r *chunkRepository) CountBySubmission(ctx context.Context, submissionID uint) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.SubmissionChunk{}).
		Where("submission_id = ?", submissionID).
		Count(&count).Error; err != nil {
		return 0, err
	}

	return count, nil
}

// ListPeers returns every fingerprinted chunk answering the same question
// from a different submission. Chunks without a stored fingerprint are not
// comparable and are excluded by the join.
func (r *chunkRepository) ListPeers(ctx context.Context, questionNo int, excludeSubmissionID uint) ([]PeerChunk, error) {
	var peers []PeerChunk
	if err := r.db.WithContext(ctx).
		Table("submission_chunks").
		Select("submission_chunks.id AS chunk_id, submission_chunks.submission_id, submission_chunks.question_no, chunk_fingerprints.vector").
		Joins("JOIN chunk_fingerprints ON chunk_fingerprints.chunk_id = submission_chunks.id").
		Where("submission_chunks.question_no = ?", questionNo).
		Where("submission_chunks.submission_id <> ?", excludeSubmissionID).
		Scan(&peers).Error; err != nil {
		return nil, err
	}

	return peers, nil
}
