package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/cepdnaclk/e20-4yp-ai-driven-automated-feedback-and-tutoring-system-for-higher-education/internal/models"
)

// ProfileRepository defines read operations over student profiles and their
// concept history. Writes go through FeedbackRepository.SaveReviewed so they
// stay atomic with the grading result.
type ProfileRepository interface {
	Get(ctx context.Context, studentID int64) (models.StudentProfile, error)
	ListConceptHistory(ctx context.Context, studentID int64, limit int) ([]models.ConceptHistory, error)
}

type profileRepository struct {
	db *gorm.DB
}

// NewProfileRepository instantiates the repository.
func NewProfileRepository(db *gorm.DB) ProfileRepository {
	return &profileRepository{db: db}
}

func (r *profileRepository) Get(ctx context.Context, studentID int64) (models.StudentProfile, error) {
	var profile models.StudentProfile
	if err := r.db.WithContext(ctx).
		Where("student_id = ?", studentID).
		First(&profile).Error; err != nil {
		return models.StudentProfile{}, err
	}

	return profile, nil
}

func (r *profileRepository) ListConceptHistory(ctx context.Context, studentID int64, limit int) ([]models.ConceptHistory, error) {
	query := r.db.WithContext(ctx).
		Where("student_id = ?", studentID).
		Order("id DESC")

	if limit > 0 {
		query = query.Limit(limit)
	}

	var rows []models.ConceptHistory
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}

	return rows, nil
}
