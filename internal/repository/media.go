package repository

import (
	"context"
	"errors"

	"social/internal/models"
	"social/internal/observability"

	"gorm.io/gorm"
)

// MediaRepository stores metadata of uploaded files.
type MediaRepository interface {
	// Create inserts m, or loads the existing row for the same kind and hash.
	Create(ctx context.Context, m *models.Media) error
	GetByKindHash(ctx context.Context, kind, hash string) (*models.Media, error)
}

type mediaRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewMediaRepository creates a new media repository.
func NewMediaRepository(db *gorm.DB) MediaRepository {
	return &mediaRepository{db: db, log: observability.NewRepoLogger("media")}
}

func (r *mediaRepository) Create(ctx context.Context, m *models.Media) error {
	err := r.db.WithContext(ctx).Create(m).Error
	if err == nil {
		r.log.LogWrite(ctx, "create", m.ID)
		return nil
	}
	if !IsUniqueViolation(err) {
		return err
	}

	existing, getErr := r.GetByKindHash(ctx, m.Kind, m.Hash)
	if getErr != nil {
		return errors.Join(translateWrite(err), getErr)
	}
	*m = *existing
	return nil
}

func (r *mediaRepository) GetByKindHash(ctx context.Context, kind, hash string) (*models.Media, error) {
	var m models.Media
	err := r.db.WithContext(ctx).Where("kind = ? AND hash = ?", kind, hash).First(&m).Error
	if err != nil {
		return nil, notFound(err, "Media", hash)
	}
	return &m, nil
}
