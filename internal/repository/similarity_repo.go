package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/cepdnaclk/e20-4yp-ai-driven-automated-feedback-and-tutoring-system-for-higher-education/internal/models"
)

// SimilarityRepository defines data operations for similarity matches.
type SimilarityRepository interface {
	Create(ctx context.Context, match *models.SimilarityMatch) error
	ListByChunkIDs(ctx context.Context, chunkIDs []uint) ([]models.SimilarityMatch, error)
	DeleteByChunkIDs(ctx context.Context, chunkIDs []uint) error
}

type similarityRepository struct {
	db *gorm.DB
}

// NewSimilarityRepository instantiates the repository.
func NewSimilarityRepository(db *gorm.DB) SimilarityRepository {
	return &similarityRepository{db: db}
}

func (r *similarityRepository) Create(ctx context.Context, match *models.SimilarityMatch) error {
	return r.db.WithContext(ctx).Create(match).Error
}

func (r *similarityRepository) ListByChunkIDs(ctx context.Context, chunkIDs []uint) ([]models.SimilarityMatch, error) {
	if len(chunkIDs) == 0 {
		return nil, nil
	}

	var matches []models.SimilarityMatch
	if err := r.db.WithContext(ctx).
		Where("chunk_id IN ?", chunkIDs).
		Order("created_at DESC").
		Find(&matches).Error; err != nil {
		return nil, err
	}

	return matches, nil
}

func (r *similarityRepository) DeleteByChunkIDs(ctx context.Context, chunkIDs []uint) error {
	if len(chunkIDs) == 0 {
		return nil
	}

	return r.db.WithContext(ctx).
		Where("chunk_id IN ?", chunkIDs).
		Delete(&models.SimilarityMatch{}).Error
}
