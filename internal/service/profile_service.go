package service

import (
	"context"
	"errors"
	"strings"

	"social/internal/authz"
	"social/internal/cache"
	"social/internal/models"
	"social/internal/observability"
	"social/internal/repository"
	"social/internal/validation"
)

// ProfileBundle is the profile detail view: the profile and the owner's posts
// visible to the viewer.
type ProfileBundle struct {
	Profile *models.Profile `json:"profile"`
	Posts   []models.Post   `json:"posts"`
}

// ProfileInput carries the writable profile fields. An empty DateOfBirth
// clears the stored date.
type ProfileInput struct {
	Bio            *string
	ProfilePicture *string
	Location       *string
	Website        *string
	DateOfBirth    *string
}

type ProfileService struct {
	profiles repository.ProfileRepository
	posts    repository.PostRepository
	cache    *cache.Store
	log      *observability.ServiceLogger
}

func NewProfileService(profiles repository.ProfileRepository, posts repository.PostRepository, store *cache.Store) *ProfileService {
	return &ProfileService{
		profiles: profiles,
		posts:    posts,
		cache:    store,
		log:      observability.NewServiceLogger("profile"),
	}
}

// Me returns the actor's own profile bundle, creating the profile on first
// access.
func (s *ProfileService) Me(ctx context.Context, actor authz.Actor) (*ProfileBundle, error) {
	if !actor.Authenticated() {
		return nil, models.NewUnauthorizedError("Authentication credentials were not provided.")
	}
	profile, err := s.profiles.GetOrCreate(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	return s.bundle(ctx, actor, profile)
}

func (s *ProfileService) GetProfile(ctx context.Context, actor authz.Actor, id uint) (*ProfileBundle, error) {
	if err := authz.Require(authz.CanProfile(actor, authz.ActionRead, 0), authz.ResourceProfile, authz.ActionRead); err != nil {
		return nil, err
	}
	profile, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.bundle(ctx, actor, profile)
}

func (s *ProfileService) ListProfiles(ctx context.Context, actor authz.Actor, limit, offset int) ([]models.Profile, error) {
	if err := authz.Require(authz.CanProfile(actor, authz.ActionRead, 0), authz.ResourceProfile, authz.ActionRead); err != nil {
		return nil, err
	}
	return s.profiles.List(ctx, repository.Page{Limit: limit, Offset: offset})
}

// CreateProfile creates the actor's profile. Each user has at most one.
func (s *ProfileService) CreateProfile(ctx context.Context, actor authz.Actor, in ProfileInput) (*models.Profile, error) {
	if err := authz.Require(authz.CanProfile(actor, authz.ActionCreate, actor.ID), authz.ResourceProfile, authz.ActionCreate); err != nil {
		return nil, err
	}
	fields, err := profileFields(in)
	if err != nil {
		return nil, err
	}

	profile := &models.Profile{UserID: actor.ID}
	if v, ok := fields["bio"].(string); ok {
		profile.Bio = v
	}
	if v, ok := fields["profile_picture"].(string); ok {
		profile.ProfilePicture = v
	}
	if v, ok := fields["location"].(string); ok {
		profile.Location = v
	}
	if v, ok := fields["website"].(string); ok {
		profile.Website = v
	}
	if v, ok := fields["date_of_birth"].(*models.Date); ok {
		profile.DateOfBirth = v
	}

	if err := s.profiles.Create(ctx, profile); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, models.NewConflictError("Profile already exists.")
		}
		return nil, err
	}
	return s.profiles.GetByID(ctx, profile.ID)
}

func (s *ProfileService) UpdateProfile(ctx context.Context, actor authz.Actor, id uint, in ProfileInput) (*models.Profile, error) {
	profile, err := s.profiles.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authz.Require(authz.CanProfile(actor, authz.ActionUpdate, profile.UserID), authz.ResourceProfile, authz.ActionUpdate); err != nil {
		return nil, err
	}
	fields, err := profileFields(in)
	if err != nil {
		return nil, err
	}
	if err := s.profiles.Update(ctx, id, fields); err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx, cache.ProfileKey(id))
	return s.profiles.GetByID(ctx, id)
}

// DeleteProfile removes only the profile row; the user account stays and
// /profiles/me recreates an empty profile.
func (s *ProfileService) DeleteProfile(ctx context.Context, actor authz.Actor, id uint) error {
	profile, err := s.profiles.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := authz.Require(authz.CanProfile(actor, authz.ActionDelete, profile.UserID), authz.ResourceProfile, authz.ActionDelete); err != nil {
		return err
	}
	if err := s.profiles.Delete(ctx, id); err != nil {
		return err
	}
	s.cache.Invalidate(ctx, cache.ProfileKey(id))
	s.log.Info(ctx, "profile deleted", "profile_id", id, "actor_id", actor.ID)
	return nil
}

func (s *ProfileService) load(ctx context.Context, id uint) (*models.Profile, error) {
	var profile models.Profile
	err := s.cache.Aside(ctx, cache.NameProfile, cache.ProfileKey(id), &profile, func() error {
		fresh, err := s.profiles.GetByID(ctx, id)
		if err != nil {
			return err
		}
		profile = *fresh
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func (s *ProfileService) bundle(ctx context.Context, actor authz.Actor, profile *models.Profile) (*ProfileBundle, error) {
	ownerID := profile.UserID
	posts, err := s.posts.List(ctx, repository.PostFilter{
		AuthorID:    &ownerID,
		ViewerID:    actor.ID,
		ViewerStaff: actor.IsStaff,
	})
	if err != nil {
		return nil, err
	}
	return &ProfileBundle{Profile: profile, Posts: posts}, nil
}

func profileFields(in ProfileInput) (map[string]interface{}, error) {
	fields := map[string]interface{}{}
	errs := map[string]string{}

	if in.Bio != nil {
		fields["bio"] = strings.TrimSpace(*in.Bio)
	}
	if in.ProfilePicture != nil {
		if err := validation.ValidateText("Profile picture", *in.ProfilePicture, 0, mediaRefMax); err != nil {
			errs["profile_picture"] = err.Error()
		}
		fields["profile_picture"] = strings.TrimSpace(*in.ProfilePicture)
	}
	if in.Location != nil {
		if err := validation.ValidateText("Location", *in.Location, 0, locationMax); err != nil {
			errs["location"] = err.Error()
		}
		fields["location"] = strings.TrimSpace(*in.Location)
	}
	if in.Website != nil {
		website := strings.TrimSpace(*in.Website)
		if err := validation.ValidateWebsite(website); err != nil {
			errs["website"] = err.Error()
		}
		fields["website"] = website
	}
	if in.DateOfBirth != nil {
		raw := strings.TrimSpace(*in.DateOfBirth)
		if raw == "" {
			fields["date_of_birth"] = nil
		} else if d, err := models.ParseDate(raw); err != nil {
			errs["date_of_birth"] = "Date has wrong format. Use YYYY-MM-DD."
		} else {
			fields["date_of_birth"] = &d
		}
	}

	if len(errs) > 0 {
		return nil, models.NewFieldsError(errs)
	}
	return fields, nil
}
