package service

import (
	"context"
	"errors"
	"strings"

	"social/internal/authz"
	"social/internal/models"
	"social/internal/observability"
	"social/internal/repository"
	"social/internal/slug"
	"social/internal/validation"
)

const tagTitleMax = 100

type TagService struct {
	tags repository.TagRepository
	log  *observability.ServiceLogger
}

// TagInput carries the writable tag fields. An absent or blank slug is
// derived from the title.
type TagInput struct {
	Title *string
	Slug  *string
}

func NewTagService(tags repository.TagRepository) *TagService {
	return &TagService{tags: tags, log: observability.NewServiceLogger("tag")}
}

func (s *TagService) ListTags(ctx context.Context, actor authz.Actor, limit, offset int) ([]models.Tag, error) {
	if err := authz.Require(authz.CanTag(actor, authz.ActionRead), authz.ResourceTag, authz.ActionRead); err != nil {
		return nil, err
	}
	return s.tags.List(ctx, repository.Page{Limit: limit, Offset: offset})
}

func (s *TagService) GetTag(ctx context.Context, actor authz.Actor, id uint) (*models.Tag, error) {
	if err := authz.Require(authz.CanTag(actor, authz.ActionRead), authz.ResourceTag, authz.ActionRead); err != nil {
		return nil, err
	}
	return s.tags.GetByID(ctx, id)
}

func (s *TagService) CreateTag(ctx context.Context, actor authz.Actor, in TagInput) (*models.Tag, error) {
	if err := authz.Require(authz.CanTag(actor, authz.ActionCreate), authz.ResourceTag, authz.ActionCreate); err != nil {
		return nil, err
	}
	if in.Title == nil {
		return nil, models.NewFieldError("title", errRequired)
	}
	tag := &models.Tag{}
	if err := applyTagInput(tag, in, true); err != nil {
		return nil, err
	}
	if err := s.tags.Create(ctx, tag); err != nil {
		return nil, tagWriteError(err)
	}
	created("tag")
	return tag, nil
}

// UpdateTag is staff-only. Changing the title keeps the stored slug unless a
// new one is supplied.
func (s *TagService) UpdateTag(ctx context.Context, actor authz.Actor, id uint, in TagInput, replace bool) (*models.Tag, error) {
	if err := authz.Require(authz.CanTag(actor, authz.ActionUpdate), authz.ResourceTag, authz.ActionUpdate); err != nil {
		return nil, err
	}
	if replace && in.Title == nil {
		return nil, models.NewFieldError("title", errRequired)
	}
	tag, err := s.tags.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := applyTagInput(tag, in, false); err != nil {
		return nil, err
	}
	if err := s.tags.Update(ctx, tag); err != nil {
		return nil, tagWriteError(err)
	}
	s.log.Info(ctx, "tag updated", "tag_id", tag.ID, "slug", tag.Slug)
	return tag, nil
}

func (s *TagService) DeleteTag(ctx context.Context, actor authz.Actor, id uint) error {
	if err := authz.Require(authz.CanTag(actor, authz.ActionDelete), authz.ResourceTag, authz.ActionDelete); err != nil {
		return err
	}
	return s.tags.Delete(ctx, id)
}

func applyTagInput(tag *models.Tag, in TagInput, deriveSlug bool) error {
	if in.Title != nil {
		if err := validation.ValidateText("Title", *in.Title, 1, tagTitleMax); err != nil {
			return models.NewFieldError("title", err.Error())
		}
		tag.Title = strings.TrimSpace(*in.Title)
	}

	supplied := ""
	if in.Slug != nil {
		supplied = strings.TrimSpace(*in.Slug)
	}
	switch {
	case supplied != "":
		if len(supplied) > slug.MaxLen || !slug.Valid(supplied) {
			return models.NewFieldError("slug", "Enter a valid slug consisting of letters, numbers, underscores or hyphens.")
		}
		tag.Slug = supplied
	case deriveSlug || tag.Slug == "":
		tag.Slug = slug.Make(tag.Title)
		if tag.Slug == "" {
			return models.NewFieldError("slug", "A slug could not be derived from the title.")
		}
	}
	return nil
}

func tagWriteError(err error) error {
	if errors.Is(err, repository.ErrDuplicate) {
		return models.NewConflictError("A tag with this slug already exists.")
	}
	return err
}
