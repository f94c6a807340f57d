package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cepdnaclk/e20-4yp-ai-driven-automated-feedback-and-tutoring-system-for-higher-education/internal/models"
)

// FeedbackRepository defines data operations for grading results.
type FeedbackRepository interface {
	SaveGraded(ctx context.Context, result *models.FeedbackResult, submission *models.Submission) error
	SaveReviewed(ctx context.Context, result *models.FeedbackResult, submission *models.Submission, history *models.ConceptHistory, profile *models.StudentProfile) error
	LatestBySubmission(ctx context.Context, submissionID uint) (models.FeedbackResult, error)
	ListByStudent(ctx context.Context, studentID int64, limit int) ([]models.FeedbackResult, error)
}

type feedbackRepository struct {
	db *gorm.DB
}

// NewFeedbackRepository instantiates the repository.
func NewFeedbackRepository(db *gorm.DB) FeedbackRepository {
	return &feedbackRepository{db: db}
}

// SaveGraded persists a grading result and the submission's status change
// in one transaction. A failure rolls both back so a partially graded
// submission is never visible.
func (r *feedbackRepository) SaveGraded(ctx context.Context, result *models.FeedbackResult, submission *models.Submission) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(result).Error; err != nil {
			return err
		}

		return tx.Save(submission).Error
	})
}

// SaveReviewed persists a multi-agent grading result together with the
// concept-history append and the student-profile upsert, atomically.
func (r *feedbackRepository) SaveReviewed(ctx context.Context, result *models.FeedbackResult, submission *models.Submission, history *models.ConceptHistory, profile *models.StudentProfile) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(result).Error; err != nil {
			return err
		}

		if err := tx.Save(submission).Error; err != nil {
			return err
		}

		if err := tx.Create(history).Error; err != nil {
			return err
		}

		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "student_id"}},
			UpdateAll: true,
		}).Create(profile).Error
	})
}

func (r *feedbackRepository) LatestBySubmission(ctx context.Context, submissionID uint) (models.FeedbackResult, error) {
	var result models.FeedbackResult
	if err := r.db.WithContext(ctx).
		Where("submission_id = ?", submissionID).
		Order("id DESC").
		First(&result).Error; err != nil {
		return models.FeedbackResult{}, err
	}

	return result, nil
}

func (r *feedbackRepository) ListByStudent(ctx context.Context, studentID int64, limit int) ([]models.FeedbackResult, error) {
	query := r.db.WithContext(ctx).
		Joins("JOIN submissions ON submissions.id = feedback_results.submission_id").
		Where("submissions.student_id = ?", studentID).
		Order("feedback_results.id DESC")

	if limit > 0 {
		query = query.Limit(limit)
	}

	var results []models.FeedbackResult
	if err := query.Find(&results).Error; err != nil {
		return nil, err
	}

	return results, nil
}
