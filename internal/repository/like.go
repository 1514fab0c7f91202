package repository

import (
	"context"

	"social/internal/models"
	"social/internal/observability"

	"gorm.io/gorm"
)

// LikeFilter narrows a like listing to visible posts, optionally one post.
type LikeFilter struct {
	PostID      *uint
	ViewerID    uint
	ViewerStaff bool
	Page
}

// LikeRepository defines persistence operations for likes.
type LikeRepository interface {
	// Create returns ErrDuplicate when the author already liked the post.
	Create(ctx context.Context, like *models.Like) error
	GetByID(ctx context.Context, id uint) (*models.Like, error)
	List(ctx context.Context, filter LikeFilter) ([]models.Like, error)
	CountByPost(ctx context.Context, postID uint) (int64, error)
	Delete(ctx context.Context, id uint) error
}

type likeRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewLikeRepository creates a new like repository.
func NewLikeRepository(db *gorm.DB) LikeRepository {
	return &likeRepository{db: db, log: observability.NewRepoLogger("likes")}
}

func (r *likeRepository) Create(ctx context.Context, like *models.Like) error {
	if err := r.db.WithContext(ctx).Omit("Author", "Post").Create(like).Error; err != nil {
		return translateWrite(err)
	}
	r.log.LogWrite(ctx, "create", like.ID)
	return nil
}

func (r *likeRepository) GetByID(ctx context.Context, id uint) (*models.Like, error) {
	var like models.Like
	if err := r.db.WithContext(ctx).First(&like, id).Error; err != nil {
		return nil, notFound(err, "Like", id)
	}
	return &like, nil
}

func (r *likeRepository) List(ctx context.Context, filter LikeFilter) ([]models.Like, error) {
	q := visiblePostsClause(r.db.WithContext(ctx), "likes.post_id", filter.ViewerID, filter.ViewerStaff)
	if filter.PostID != nil {
		q = q.Where("likes.post_id = ?", *filter.PostID)
	}

	likes := []models.Like{}
	err := filter.Page.apply(q.Order("likes.created_at ASC, likes.id ASC")).Find(&likes).Error
	return likes, err
}

func (r *likeRepository) CountByPost(ctx context.Context, postID uint) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Like{}).Where("post_id = ?", postID).Count(&n).Error
	return n, err
}

func (r *likeRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Like{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Like", id)
	}
	r.log.LogWrite(ctx, "delete", id)
	return nil
}
