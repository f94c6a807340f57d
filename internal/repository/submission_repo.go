package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/cepdnaclk/e20-4yp-ai-driven-automated-feedback-and-tutoring-system-for-higher-education/internal/models"
)

// SubmissionRepository defines data operations for submissions.
type SubmissionRepository interface {
	GetByID(ctx context.Context, id uint) (models.Submission, error)
	GetByMoodleID(ctx context.Context, moodleSubmissionID int64) (models.Submission, error)
	Update(ctx context.Context, submission *models.Submission) error
	CreateWithChunks(ctx context.Context, submission *models.Submission, chunks []models.SubmissionChunk) error
	RepairWithChunks(ctx context.Context, submission *models.Submission, chunks []models.SubmissionChunk) error
}

type submissionRepository struct {
	db *gorm.DB
}

// NewSubmissionRepository instantiates the repository.
func NewSubmissionRepository(db *gorm.DB) SubmissionRepository {
	return &submissionRepository{db: db}
}

func (r *submissionRepository) GetByID(ctx context.Context, id uint) (models.Submission, error) {
	var submission models.Submission
	if err := r.db.WithContext(ctx).First(&submission, id).Error; err != nil {
		return models.Submission{}, err
	}

	return submission, nil
}

func (r *submissionRepository) GetByMoodleID(ctx context.Context, moodleSubmissionID int64) (models.Submission, error) {
	var submission models.Submission
	if err := r.db.WithContext(ctx).
		Where("moodle_submission_id = ?", moodleSubmissionID).
		First(&submission).Error; err != nil {
		return models.Submission{}, err
	}

	return submission, nil
}

func (r *submissionRepository) Update(ctx context.Context, submission *models.Submission) error {
	return r.db.WithContext(ctx).Save(submission).Error
}

// CreateWithChunks stores a new submission and its chunks in one
// transaction so a failed chunk insert never leaves a half-ingested record.
func (r *submissionRepository) CreateWithChunks(ctx context.Context, submission *models.Submission, chunks []models.SubmissionChunk) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(submission).Error; err != nil {
			return err
		}

		for i := range chunks {
			chunks[i].SubmissionID = submission.ID
		}

		if len(chunks) == 0 {
			return nil
		}

		return tx.Create(&chunks).Error
	})
}

// RepairWithChunks refreshes an existing submission's fields and recreates
// its missing chunks atomically.
func (r *submissionRepository) RepairWithChunks(ctx context.Context, submission *models.Submission, chunks []models.SubmissionChunk) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(submission).Error; err != nil {
			return err
		}

		for i := range chunks {
			chunks[i].SubmissionID = submission.ID
		}

		if len(chunks) == 0 {
			return nil
		}

		return tx.Create(&chunks).Error
	})
}
