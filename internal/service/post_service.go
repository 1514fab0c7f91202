package service

import (
	"context"
	"strings"

	"social/internal/authz"
	"social/internal/cache"
	"social/internal/featureflags"
	"social/internal/models"
	"social/internal/notifications"
	"social/internal/observability"
	"social/internal/repository"
	"social/internal/validation"

	"go.opentelemetry.io/otel/attribute"
)

const (
	postTextMax     = 5000
	locationMax     = 255
	mediaRefMax     = 512
	errRequired     = "This field is required."
	errUnknownTagID = "Invalid tag id - object does not exist."
)

// PostService owns post reads and writes, the post detail cache and the
// post.created event.
type PostService struct {
	posts    repository.PostRepository
	tags     repository.TagRepository
	cache    *cache.Store
	flags    *featureflags.Manager
	notifier *notifications.Notifier
	log      *observability.ServiceLogger
}

// PostInput carries the writable post fields. Nil means "not supplied".
// The author is always the actor.
type PostInput struct {
	Text        *string
	Image       *string
	Location    *string
	IsPublished *bool
	TagIDs      *[]uint
}

// ListPostsInput holds the list query parameters.
type ListPostsInput struct {
	Search   string
	Tag      string
	AuthorID *uint
	Limit    int
	Offset   int
}

func NewPostService(
	posts repository.PostRepository,
	tags repository.TagRepository,
	store *cache.Store,
	flags *featureflags.Manager,
	notifier *notifications.Notifier,
) *PostService {
	return &PostService{
		posts:    posts,
		tags:     tags,
		cache:    store,
		flags:    flags,
		notifier: notifier,
		log:      observability.NewServiceLogger("post"),
	}
}

// ListPosts returns the posts visible to the actor, newest first.
func (s *PostService) ListPosts(ctx context.Context, actor authz.Actor, in ListPostsInput) ([]models.Post, error) {
	return s.posts.List(ctx, repository.PostFilter{
		Search:      strings.TrimSpace(in.Search),
		Tag:         strings.TrimSpace(in.Tag),
		AuthorID:    in.AuthorID,
		ViewerID:    actor.ID,
		ViewerStaff: actor.IsStaff,
		Page:        repository.Page{Limit: in.Limit, Offset: in.Offset},
	})
}

// GetPost returns the post detail. Cached entries are still checked against
// the read rule for every actor.
func (s *PostService) GetPost(ctx context.Context, actor authz.Actor, id uint) (*models.Post, error) {
	post, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authz.Require(authz.CanPost(actor, authz.ActionRead, post.AuthorID, post.IsPublished), authz.ResourcePost, authz.ActionRead); err != nil {
		return nil, err
	}
	return post, nil
}

func (s *PostService) load(ctx context.Context, id uint) (*models.Post, error) {
	if !s.flags.EnabledGlobally(featureflags.PostCache) {
		return s.posts.GetByID(ctx, id)
	}
	var post models.Post
	err := s.cache.Aside(ctx, cache.NamePost, cache.PostKey(id), &post, func() error {
		fresh, err := s.posts.GetByID(ctx, id)
		if err != nil {
			return err
		}
		post = *fresh
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &post, nil
}

// CreatePost writes a post authored by the actor.
func (s *PostService) CreatePost(ctx context.Context, actor authz.Actor, in PostInput) (post *models.Post, err error) {
	ctx, span := observability.StartServiceSpan(ctx, "PostService", "CreatePost")
	defer func() { observability.EndSpan(span, err) }()

	if err := authz.Require(authz.CanPost(actor, authz.ActionCreate, actor.ID, true), authz.ResourcePost, authz.ActionCreate); err != nil {
		return nil, err
	}
	tagIDs, err := s.validate(ctx, in, true)
	if err != nil {
		return nil, err
	}

	post = &models.Post{
		Text:        strings.TrimSpace(*in.Text),
		AuthorID:    actor.ID,
		IsPublished: true,
	}
	if in.Image != nil {
		post.Image = strings.TrimSpace(*in.Image)
	}
	if in.Location != nil {
		post.Location = strings.TrimSpace(*in.Location)
	}
	if in.IsPublished != nil {
		post.IsPublished = *in.IsPublished
	}

	if err := s.posts.Create(ctx, post, tagIDs); err != nil {
		return nil, err
	}
	created("post")
	span.SetAttributes(attribute.Int("post.id", int(post.ID)))

	full, err := s.posts.GetByID(ctx, post.ID)
	if err != nil {
		return nil, err
	}
	publish(ctx, s.notifier, s.log, notifications.EventPostCreated, actor.ID,
		map[string]interface{}{"post_id": full.ID, "author_id": full.AuthorID},
		notifications.UserChannel(actor.ID))
	return full, nil
}

// UpdatePost applies in to a post owned by the actor. With replace set the
// required fields must be present, as for PUT.
func (s *PostService) UpdatePost(ctx context.Context, actor authz.Actor, id uint, in PostInput, replace bool) (*models.Post, error) {
	current, err := s.posts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authz.Require(authz.CanPost(actor, authz.ActionUpdate, current.AuthorID, current.IsPublished), authz.ResourcePost, authz.ActionUpdate); err != nil {
		return nil, err
	}
	tagIDs, err := s.validate(ctx, in, replace)
	if err != nil {
		return nil, err
	}

	fields := map[string]interface{}{}
	if in.Text != nil {
		fields["text"] = strings.TrimSpace(*in.Text)
	}
	if in.Image != nil {
		fields["image"] = strings.TrimSpace(*in.Image)
	}
	if in.Location != nil {
		fields["location"] = strings.TrimSpace(*in.Location)
	}
	if in.IsPublished != nil {
		fields["is_published"] = *in.IsPublished
	}
	var replaceTags []uint
	if in.TagIDs != nil {
		replaceTags = tagIDs
	}

	if err := s.posts.Update(ctx, id, fields, replaceTags); err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx, cache.PostKey(id))
	return s.posts.GetByID(ctx, id)
}

// DeletePost removes a post with its comments, likes and tag links.
func (s *PostService) DeletePost(ctx context.Context, actor authz.Actor, id uint) error {
	current, err := s.posts.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := authz.Require(authz.CanPost(actor, authz.ActionDelete, current.AuthorID, current.IsPublished), authz.ResourcePost, authz.ActionDelete); err != nil {
		return err
	}
	if err := s.posts.Delete(ctx, id); err != nil {
		return err
	}
	s.cache.Invalidate(ctx, cache.PostKey(id))
	s.log.Info(ctx, "post deleted", "post_id", id, "actor_id", actor.ID)
	return nil
}

// validate checks field bounds and resolves the tag set. It returns the
// de-duplicated tag IDs, or nil when none were supplied.
func (s *PostService) validate(ctx context.Context, in PostInput, requireText bool) ([]uint, error) {
	fields := map[string]string{}
	switch {
	case in.Text == nil && requireText:
		fields["text"] = errRequired
	case in.Text != nil:
		if err := validation.ValidateText("Text", *in.Text, 1, postTextMax); err != nil {
			fields["text"] = err.Error()
		}
	}
	if in.Location != nil {
		if err := validation.ValidateText("Location", *in.Location, 0, locationMax); err != nil {
			fields["location"] = err.Error()
		}
	}
	if in.Image != nil {
		if err := validation.ValidateText("Image", *in.Image, 0, mediaRefMax); err != nil {
			fields["image"] = err.Error()
		}
	}
	if len(fields) > 0 {
		return nil, models.NewFieldsError(fields)
	}

	if in.TagIDs == nil {
		return nil, nil
	}
	ids := dedupeIDs(*in.TagIDs)
	if len(ids) == 0 {
		return []uint{}, nil
	}
	found, err := s.tags.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	if len(found) != len(ids) {
		return nil, models.NewFieldError("tags", errUnknownTagID)
	}
	return ids, nil
}
