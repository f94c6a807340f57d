package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/cepdnaclk/e20-4yp-ai-driven-automated-feedback-and-tutoring-system-for-higher-education/internal/models"
)

// FingerprintRepository defines data operations for chunk fingerprints.
type FingerprintRepository interface {
	GetByChunkID(ctx context.Context, chunkID uint) (models.ChunkFingerprint, error)
	Ensure(ctx context.Context, fingerprint *models.ChunkFingerprint) error
}

type fingerprintRepository struct {
	db *gorm.DB
}

// NewFingerprintRepository instantiates the repository.
func NewFingerprintRepository(db *gorm.DB) FingerprintRepository {
	return &fingerprintRepository{db: db}
}

func (r *fingerprintRepository) GetByChunkID(ctx context.Context, chunkID uint) (models.ChunkFingerprint, error) {
	var fingerprint models.ChunkFingerprint
	if err := r.db.WithContext(ctx).
		Where("chunk_id = ?", chunkID).
		First(&fingerprint).Error; err != nil {
		return models.ChunkFingerprint{}, err
	}

	return fingerprint, nil
}

// Ensure stores the fingerprint unless one already exists for the chunk.
// Together with the unique index on chunk_id this keeps the
// at-most-one-fingerprint invariant under concurrent checks: on a lost
// race the existing row wins and is loaded into fingerprint.
func (r *fingerprintRepository) Ensure(ctx context.Context, fingerprint *models.ChunkFingerprint) error {
	return r.db.WithContext(ctx).
		Where("chunk_id = ?", fingerprint.ChunkID).
		FirstOrCreate(fingerprint).Error
}
