package repository

import (
	"context"
	"strings"

	"social/internal/models"
	"social/internal/observability"

	"gorm.io/gorm"
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// containsPattern builds a case-folded LIKE pattern matching s literally.
func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(s)) + "%"
}

// PostFilter narrows a post listing. Viewer fields drive visibility of
// unpublished posts.
type PostFilter struct {
	Search      string
	Tag         string
	AuthorID    *uint
	ViewerID    uint
	ViewerStaff bool
	Page
}

// PostRepository defines the interface for post data operations.
type PostRepository interface {
	Create(ctx context.Context, post *models.Post, tagIDs []uint) error
	GetByID(ctx context.Context, id uint) (*models.Post, error)
	List(ctx context.Context, filter PostFilter) ([]models.Post, error)
	// Update writes fields and, when tagIDs is non-nil, replaces the tag set.
	Update(ctx context.Context, id uint, fields map[string]interface{}, tagIDs []uint) error
	Delete(ctx context.Context, id uint) error
}

type postRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db, log: observability.NewRepoLogger("posts")}
}

const postCountersSelect = "posts.*, " +
	"(SELECT COUNT(*) FROM likes WHERE likes.post_id = posts.id) AS likes_num, " +
	"(SELECT COUNT(*) FROM comments WHERE comments.post_id = posts.id) AS comments_num"

// withDetails selects the derived counters and preloads everything a post
// response renders.
func withDetails(db *gorm.DB) *gorm.DB {
	return db.Select(postCountersSelect).
		Preload("Author.Profile").
		Preload("Tags", func(db *gorm.DB) *gorm.DB { return db.Order("tags.id ASC") }).
		Preload("Comments", func(db *gorm.DB) *gorm.DB { return db.Order("time_create ASC, id ASC") }).
		Preload("Comments.Author")
}

func replaceTags(tx *gorm.DB, postID uint, tagIDs []uint) error {
	if err := tx.Exec("DELETE FROM post_tags WHERE post_id = ?", postID).Error; err != nil {
		return err
	}
	for _, tagID := range tagIDs {
		if err := tx.Exec("INSERT INTO post_tags (post_id, tag_id) VALUES (?, ?)", postID, tagID).Error; err != nil {
			return err
		}
	}
	return nil
}

func (r *postRepository) Create(ctx context.Context, post *models.Post, tagIDs []uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Author", "Tags", "Comments").Create(post).Error; err != nil {
			return err
		}
		return replaceTags(tx, post.ID, tagIDs)
	})
	if err != nil {
		return translateWrite(err)
	}
	r.log.LogWrite(ctx, "create", post.ID)
	return nil
}

func (r *postRepository) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	if err := withDetails(r.db.WithContext(ctx)).Where("posts.id = ?", id).First(&post).Error; err != nil {
		return nil, notFound(err, "Post", id)
	}
	post.Decorate()
	return &post, nil
}

func (r *postRepository) List(ctx context.Context, filter PostFilter) ([]models.Post, error) {
	q := withDetails(r.db.WithContext(ctx).Model(&models.Post{}))
	q = visiblePostsClause(q, "posts.id", filter.ViewerID, filter.ViewerStaff)

	if s := strings.TrimSpace(filter.Search); s != "" {
		q = q.Where(`LOWER(posts.text) LIKE ? ESCAPE '\'`, containsPattern(s))
	}
	if tag := strings.TrimSpace(filter.Tag); tag != "" {
		tag = strings.ToLower(tag)
		q = q.Where(
			"posts.id IN (SELECT post_tags.post_id FROM post_tags JOIN tags ON tags.id = post_tags.tag_id WHERE LOWER(tags.slug) = ? OR LOWER(tags.title) = ?)",
			tag, tag,
		)
	}
	if filter.AuthorID != nil {
		q = q.Where("posts.author_id = ?", *filter.AuthorID)
	}

	posts := []models.Post{}
	if err := filter.Page.apply(q.Order("posts.time_create DESC, posts.id DESC")).Find(&posts).Error; err != nil {
		return nil, err
	}
	for i := range posts {
		posts[i].Decorate()
	}
	return posts, nil
}

func (r *postRepository) Update(ctx context.Context, id uint, fields map[string]interface{}, tagIDs []uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(fields) > 0 {
			res := tx.Model(&models.Post{ID: id}).Updates(fields)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return models.NewNotFoundError("Post", id)
			}
		}
		if tagIDs != nil {
			return replaceTags(tx, id, tagIDs)
		}
		return nil
	})
	if err != nil {
		return err
	}
	r.log.LogWrite(ctx, "update", id)
	return nil
}

// Delete removes the post with its tag links, comments and likes.
func (r *postRepository) Delete(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, stmt := range []string{
			"DELETE FROM post_tags WHERE post_id = ?",
			"DELETE FROM comments WHERE post_id = ?",
			"DELETE FROM likes WHERE post_id = ?",
		} {
			if err := tx.Exec(stmt, id).Error; err != nil {
				return err
			}
		}
		res := tx.Delete(&models.Post{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return models.NewNotFoundError("Post", id)
		}
		return nil
	})
	if err != nil {
		return err
	}
	r.log.LogWrite(ctx, "delete", id)
	return nil
}
