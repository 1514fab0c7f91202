package service

import (
	"context"
	"strings"

	"social/internal/authz"
	"social/internal/cache"
	"social/internal/models"
	"social/internal/notifications"
	"social/internal/observability"
	"social/internal/repository"
	"social/internal/validation"
)

const (
	commentTextMax   = 1000
	errUnknownPostID = "Invalid post id - object does not exist."
)

type CommentService struct {
	comments repository.CommentRepository
	posts    repository.PostRepository
	cache    *cache.Store
	notifier *notifications.Notifier
	log      *observability.ServiceLogger
}

type CreateCommentInput struct {
	PostID uint
	Text   *string
}

func NewCommentService(
	comments repository.CommentRepository,
	posts repository.PostRepository,
	store *cache.Store,
	notifier *notifications.Notifier,
) *CommentService {
	return &CommentService{
		comments: comments,
		posts:    posts,
		cache:    store,
		notifier: notifier,
		log:      observability.NewServiceLogger("comment"),
	}
}

// visiblePost loads a post the actor may read. A post the actor cannot see
// is reported the same way as a missing one.
func visiblePost(ctx context.Context, posts repository.PostRepository, actor authz.Actor, postID uint) (*models.Post, error) {
	if postID == 0 {
		return nil, models.NewFieldError("post", errRequired)
	}
	post, err := posts.GetByID(ctx, postID)
	if err != nil {
		if models.IsCode(err, models.CodeNotFound) {
			return nil, models.NewFieldError("post", errUnknownPostID)
		}
		return nil, err
	}
	if !authz.CanPost(actor, authz.ActionRead, post.AuthorID, post.IsPublished) {
		return nil, models.NewFieldError("post", errUnknownPostID)
	}
	return post, nil
}

func (s *CommentService) ListComments(ctx context.Context, actor authz.Actor, postID *uint, limit, offset int) ([]models.Comment, error) {
	if err := authz.Require(authz.CanComment(actor, authz.ActionRead, nil), authz.ResourceComment, authz.ActionRead); err != nil {
		return nil, err
	}
	return s.comments.List(ctx, repository.CommentFilter{
		PostID:      postID,
		ViewerID:    actor.ID,
		ViewerStaff: actor.IsStaff,
		Page:        repository.Page{Limit: limit, Offset: offset},
	})
}

func (s *CommentService) GetComment(ctx context.Context, actor authz.Actor, id uint) (*models.Comment, error) {
	if err := authz.Require(authz.CanComment(actor, authz.ActionRead, nil), authz.ResourceComment, authz.ActionRead); err != nil {
		return nil, err
	}
	comment, err := s.comments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := visiblePost(ctx, s.posts, actor, comment.PostID); err != nil {
		if models.IsCode(err, models.CodeValidation) {
			return nil, models.NewNotFoundError("Comment", id)
		}
		return nil, err
	}
	return comment, nil
}

// CreateComment adds a comment by the actor and notifies the post author.
func (s *CommentService) CreateComment(ctx context.Context, actor authz.Actor, in CreateCommentInput) (*models.Comment, error) {
	if err := authz.Require(authz.CanComment(actor, authz.ActionCreate, nil), authz.ResourceComment, authz.ActionCreate); err != nil {
		return nil, err
	}
	if in.Text == nil {
		return nil, models.NewFieldError("text", errRequired)
	}
	if err := validation.ValidateText("Text", *in.Text, 1, commentTextMax); err != nil {
		return nil, models.NewFieldError("text", err.Error())
	}
	post, err := visiblePost(ctx, s.posts, actor, in.PostID)
	if err != nil {
		return nil, err
	}

	authorID := actor.ID
	comment := &models.Comment{PostID: post.ID, AuthorID: &authorID, Text: strings.TrimSpace(*in.Text)}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, err
	}
	created("comment")
	s.cache.Invalidate(ctx, cache.PostKey(post.ID))

	publish(ctx, s.notifier, s.log, notifications.EventCommentCreated, actor.ID,
		map[string]interface{}{"comment_id": comment.ID, "post_id": post.ID},
		notifications.UserChannel(post.AuthorID))
	return s.comments.GetByID(ctx, comment.ID)
}

// UpdateComment replaces the text and marks the comment edited.
func (s *CommentService) UpdateComment(ctx context.Context, actor authz.Actor, id uint, text *string) (*models.Comment, error) {
	comment, err := s.comments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authz.Require(authz.CanComment(actor, authz.ActionUpdate, comment.AuthorID), authz.ResourceComment, authz.ActionUpdate); err != nil {
		return nil, err
	}
	if text == nil {
		return nil, models.NewFieldError("text", errRequired)
	}
	if err := validation.ValidateText("Text", *text, 1, commentTextMax); err != nil {
		return nil, models.NewFieldError("text", err.Error())
	}

	if err := s.comments.UpdateText(ctx, id, strings.TrimSpace(*text)); err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx, cache.PostKey(comment.PostID))
	return s.comments.GetByID(ctx, id)
}

func (s *CommentService) DeleteComment(ctx context.Context, actor authz.Actor, id uint) error {
	comment, err := s.comments.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := authz.Require(authz.CanComment(actor, authz.ActionDelete, comment.AuthorID), authz.ResourceComment, authz.ActionDelete); err != nil {
		return err
	}
	if err := s.comments.Delete(ctx, id); err != nil {
		return err
	}
	s.cache.Invalidate(ctx, cache.PostKey(comment.PostID))
	return nil
}
