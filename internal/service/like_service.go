package service

import (
	"context"
	"errors"

	"social/internal/authz"
	"social/internal/cache"
	"social/internal/models"
	"social/internal/notifications"
	"social/internal/observability"
	"social/internal/repository"
)

type LikeService struct {
	likes    repository.LikeRepository
	posts    repository.PostRepository
	cache    *cache.Store
	notifier *notifications.Notifier
	log      *observability.ServiceLogger
}

func NewLikeService(
	likes repository.LikeRepository,
	posts repository.PostRepository,
	store *cache.Store,
	notifier *notifications.Notifier,
) *LikeService {
	return &LikeService{
		likes:    likes,
		posts:    posts,
		cache:    store,
		notifier: notifier,
		log:      observability.NewServiceLogger("like"),
	}
}

func (s *LikeService) ListLikes(ctx context.Context, actor authz.Actor, postID *uint, limit, offset int) ([]models.Like, error) {
	if err := authz.Require(authz.CanLike(actor, authz.ActionRead, nil), authz.ResourceLike, authz.ActionRead); err != nil {
		return nil, err
	}
	return s.likes.List(ctx, repository.LikeFilter{
		PostID:      postID,
		ViewerID:    actor.ID,
		ViewerStaff: actor.IsStaff,
		Page:        repository.Page{Limit: limit, Offset: offset},
	})
}

func (s *LikeService) GetLike(ctx context.Context, actor authz.Actor, id uint) (*models.Like, error) {
	if err := authz.Require(authz.CanLike(actor, authz.ActionRead, nil), authz.ResourceLike, authz.ActionRead); err != nil {
		return nil, err
	}
	like, err := s.likes.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := visiblePost(ctx, s.posts, actor, like.PostID); err != nil {
		if models.IsCode(err, models.CodeValidation) {
			return nil, models.NewNotFoundError("Like", id)
		}
		return nil, err
	}
	return like, nil
}

// CreateLike records the actor's like on a post. A second like on the same
// post is a conflict.
func (s *LikeService) CreateLike(ctx context.Context, actor authz.Actor, postID uint) (*models.Like, error) {
	if err := authz.Require(authz.CanLike(actor, authz.ActionCreate, nil), authz.ResourceLike, authz.ActionCreate); err != nil {
		return nil, err
	}
	post, err := visiblePost(ctx, s.posts, actor, postID)
	if err != nil {
		return nil, err
	}

	authorID := actor.ID
	like := &models.Like{PostID: post.ID, AuthorID: &authorID}
	if err := s.likes.Create(ctx, like); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, models.NewConflictError("You have already liked this post.")
		}
		return nil, err
	}
	created("like")
	s.cache.Invalidate(ctx, cache.PostKey(post.ID))

	publish(ctx, s.notifier, s.log, notifications.EventLikeCreated, actor.ID,
		map[string]interface{}{"like_id": like.ID, "post_id": post.ID},
		notifications.UserChannel(post.AuthorID))
	return like, nil
}

func (s *LikeService) DeleteLike(ctx context.Context, actor authz.Actor, id uint) error {
	like, err := s.likes.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := authz.Require(authz.CanLike(actor, authz.ActionDelete, like.AuthorID), authz.ResourceLike, authz.ActionDelete); err != nil {
		return err
	}
	if err := s.likes.Delete(ctx, id); err != nil {
		return err
	}
	s.cache.Invalidate(ctx, cache.PostKey(like.PostID))
	return nil
}
