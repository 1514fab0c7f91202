package repository

import (
	"context"

	"social/internal/models"
	"social/internal/observability"

	"gorm.io/gorm"
)

// CommentFilter narrows a comment listing to visible posts, optionally one post.
type CommentFilter struct {
	PostID      *uint
	ViewerID    uint
	ViewerStaff bool
	Page
}

// CommentRepository defines the interface for comment data operations.
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	GetByID(ctx context.Context, id uint) (*models.Comment, error)
	List(ctx context.Context, filter CommentFilter) ([]models.Comment, error)
	UpdateText(ctx context.Context, id uint, text string) error
	Delete(ctx context.Context, id uint) error
}

type commentRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewCommentRepository creates a new comment repository.
func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db, log: observability.NewRepoLogger("comments")}
}

func (r *commentRepository) Create(ctx context.Context, comment *models.Comment) error {
	if err := r.db.WithContext(ctx).Omit("Author").Create(comment).Error; err != nil {
		return translateWrite(err)
	}
	r.log.LogWrite(ctx, "create", comment.ID)
	return nil
}

func (r *commentRepository) GetByID(ctx context.Context, id uint) (*models.Comment, error) {
	var comment models.Comment
	if err := r.db.WithContext(ctx).Preload("Author").First(&comment, id).Error; err != nil {
		return nil, notFound(err, "Comment", id)
	}
	comment.Decorate()
	return &comment, nil
}

func (r *commentRepository) List(ctx context.Context, filter CommentFilter) ([]models.Comment, error) {
	q := r.db.WithContext(ctx).Preload("Author")
	q = visiblePostsClause(q, "comments.post_id", filter.ViewerID, filter.ViewerStaff)
	if filter.PostID != nil {
		q = q.Where("comments.post_id = ?", *filter.PostID)
	}

	comments := []models.Comment{}
	if err := filter.Page.apply(q.Order("comments.time_create ASC, comments.id ASC")).Find(&comments).Error; err != nil {
		return nil, err
	}
	for i := range comments {
		comments[i].Decorate()
	}
	return comments, nil
}

// UpdateText replaces the text and marks the comment as edited.
func (r *commentRepository) UpdateText(ctx context.Context, id uint, text string) error {
	res := r.db.WithContext(ctx).Model(&models.Comment{ID: id}).
		Updates(map[string]interface{}{"text": text, "is_edited": true})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Comment", id)
	}
	r.log.LogWrite(ctx, "update", id)
	return nil
}

func (r *commentRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Comment{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Comment", id)
	}
	r.log.LogWrite(ctx, "delete", id)
	return nil
}
