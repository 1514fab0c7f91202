package models

import "time"

// Post is an authored content item with optional image and tags.
type Post struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Text        string    `gorm:"type:text;not null" json:"text"`
	Image       string    `gorm:"size:512" json:"image"`
	Location    string    `gorm:"size:255" json:"location"`
	IsPublished bool      `gorm:"not null" json:"is_published"`
	AuthorID    uint      `gorm:"not null;index" json:"author_id"`
	Author      *User     `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE" json:"-"`
	Tags        []Tag     `gorm:"many2many:post_tags;constraint:OnDelete:CASCADE" json:"tags"`
	Comments    []Comment `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"comments"`
	TimeCreate  time.Time `gorm:"autoCreateTime;index" json:"time_create"`
	UpdatedAt   time.Time `json:"-"`

	// LikesNum and CommentsNum are computed at query time.
	LikesNum    int64 `gorm:"->;-:migration" json:"likes_num"`
	CommentsNum int64 `gorm:"->;-:migration" json:"comments_num"`

	AuthorName           string `gorm:"-" json:"author_name"`
	AuthorProfilePicture string `gorm:"-" json:"author_profile_picture"`
}

// Decorate fills author display fields from the preloaded author and its profile.
func (p *Post) Decorate() {
	if p.Author != nil {
		p.AuthorName = p.Author.Username
		if p.Author.Profile != nil {
			p.AuthorProfilePicture = p.Author.Profile.ProfilePicture
		}
	}
	if p.Tags == nil {
		p.Tags = []Tag{}
	}
	if p.Comments == nil {
		p.Comments = []Comment{}
	}
	for i := range p.Comments {
		p.Comments[i].Decorate()
	}
}

// Tag is a named label with a unique URL-safe slug.
type Tag struct {
	ID    uint   `gorm:"primaryKey" json:"id"`
	Title string `gorm:"size:100;not null" json:"title"`
	Slug  string `gorm:"size:255;uniqueIndex;not null" json:"slug"`
}

// Comment is a reply to a post. AuthorID becomes NULL when the author is deleted.
type Comment struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	PostID     uint      `gorm:"not null;index" json:"post"`
	AuthorID   *uint     `gorm:"index" json:"author"`
	Author     *User     `gorm:"foreignKey:AuthorID;constraint:OnDelete:SET NULL" json:"-"`
	Text       string    `gorm:"size:1000;not null" json:"text"`
	IsEdited   bool      `gorm:"not null" json:"is_edited"`
	TimeCreate time.Time `gorm:"autoCreateTime;index" json:"time_create"`
	UpdatedAt  time.Time `json:"-"`

	AuthorName string `gorm:"-" json:"author_name"`
}

// Decorate fills AuthorName from the preloaded author.
func (c *Comment) Decorate() {
	if c.Author != nil {
		c.AuthorName = c.Author.Username
	}
}

// Like is a single user's vote on a post; (author, post) is unique.
type Like struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	PostID    uint      `gorm:"not null;uniqueIndex:idx_likes_author_post,priority:2;index" json:"post"`
	AuthorID  *uint     `gorm:"uniqueIndex:idx_likes_author_post,priority:1" json:"author"`
	Author    *User     `gorm:"foreignKey:AuthorID;constraint:OnDelete:SET NULL" json:"-"`
	Post      *Post     `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt time.Time `json:"created_at"`
}
