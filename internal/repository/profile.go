package repository

import (
	"context"
	"errors"

	"social/internal/models"
	"social/internal/observability"

	"gorm.io/gorm"
)

// ProfileRepository defines persistence operations for user profiles.
type ProfileRepository interface {
	Create(ctx context.Context, profile *models.Profile) error
	GetByID(ctx context.Context, id uint) (*models.Profile, error)
	GetByUserID(ctx context.Context, userID uint) (*models.Profile, error)
	GetOrCreate(ctx context.Context, userID uint) (*models.Profile, error)
	List(ctx context.Context, page Page) ([]models.Profile, error)
	Update(ctx context.Context, id uint, fields map[string]interface{}) error
	Delete(ctx context.Context, id uint) error
}

type profileRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewProfileRepository returns a new ProfileRepository implementation.
func NewProfileRepository(db *gorm.DB) ProfileRepository {
	return &profileRepository{db: db, log: observability.NewRepoLogger("profiles")}
}

func (r *profileRepository) Create(ctx context.Context, profile *models.Profile) error {
	if err := r.db.WithContext(ctx).Omit("User").Create(profile).Error; err != nil {
		return translateWrite(err)
	}
	r.log.LogWrite(ctx, "create", profile.ID)
	return nil
}

func (r *profileRepository) GetByID(ctx context.Context, id uint) (*models.Profile, error) {
	var profile models.Profile
	if err := r.db.WithContext(ctx).Preload("User").First(&profile, id).Error; err != nil {
		return nil, notFound(err, "Profile", id)
	}
	profile.Decorate()
	return &profile, nil
}

func (r *profileRepository) GetByUserID(ctx context.Context, userID uint) (*models.Profile, error) {
	var profile models.Profile
	err := r.db.WithContext(ctx).Preload("User").Where("user_id = ?", userID).First(&profile).Error
	if err != nil {
		return nil, notFound(err, "Profile", userID)
	}
	profile.Decorate()
	return &profile, nil
}

func (r *profileRepository) GetOrCreate(ctx context.Context, userID uint) (*models.Profile, error) {
	profile, err := r.GetByUserID(ctx, userID)
	if err == nil {
		return profile, nil
	}
	if !models.IsCode(err, models.CodeNotFound) {
		return nil, err
	}

	created := &models.Profile{UserID: userID}
	if err := r.Create(ctx, created); err != nil {
		// Lost a race with a concurrent get-or-create.
		if !errors.Is(err, ErrDuplicate) {
			return nil, err
		}
	}
	return r.GetByUserID(ctx, userID)
}

func (r *profileRepository) List(ctx context.Context, page Page) ([]models.Profile, error) {
	profiles := []models.Profile{}
	err := page.apply(r.db.WithContext(ctx).Preload("User").Order("id ASC")).Find(&profiles).Error
	if err != nil {
		return nil, err
	}
	for i := range profiles {
		profiles[i].Decorate()
	}
	return profiles, nil
}

func (r *profileRepository) Update(ctx context.Context, id uint, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}
	res := r.db.WithContext(ctx).Model(&models.Profile{ID: id}).Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Profile", id)
	}
	r.log.LogWrite(ctx, "update", id)
	return nil
}

func (r *profileRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Profile{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Profile", id)
	}
	r.log.LogWrite(ctx, "delete", id)
	return nil
}
