package models

import "time"

// Chat is a conversation among two or more participants.
type Chat struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Title        string    `gorm:"size:255" json:"title"`
	Image        string    `gorm:"size:512" json:"image"`
	CreatedAt    time.Time `json:"created_at"`
	Participants []User    `gorm:"many2many:chat_participants;constraint:OnDelete:CASCADE" json:"-"`
	Messages     []Message `gorm:"foreignKey:ChatID;constraint:OnDelete:CASCADE" json:"messages,omitempty"`

	// ParticipantIDs is the serialized view of Participants.
	ParticipantIDs []uint `gorm:"-" json:"participants"`
}

// Decorate fills ParticipantIDs from the preloaded participants.
func (c *Chat) Decorate() {
	ids := make([]uint, 0, len(c.Participants))
	for _, u := range c.Participants {
		ids = append(ids, u.ID)
	}
	c.ParticipantIDs = ids
}

// HasParticipant reports whether userID is among the preloaded participants.
func (c *Chat) HasParticipant(userID uint) bool {
	for _, u := range c.Participants {
		if u.ID == userID {
			return true
		}
	}
	return false
}

// Message is a text posted into a chat. ChatID never changes after creation.
type Message struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	ChatID      uint      `gorm:"not null;index:idx_messages_chat_time,priority:1" json:"chat"`
	AuthorID    uint      `gorm:"not null;index" json:"author"`
	Author      *User     `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE" json:"-"`
	RecipientID *uint     `gorm:"index" json:"recipient"`
	Recipient   *User     `gorm:"foreignKey:RecipientID;constraint:OnDelete:SET NULL" json:"-"`
	Text        string    `gorm:"size:1500;not null" json:"text"`
	IsEdited    bool      `gorm:"not null" json:"is_edited"`
	IsPublished bool      `gorm:"not null" json:"is_published"`
	TimeCreate  time.Time `gorm:"autoCreateTime;index:idx_messages_chat_time,priority:2" json:"time_create"`
	UpdatedAt   time.Time `json:"-"`
}

// Media is a stored upload referenced by posts, chats and profiles.
type Media struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Hash      string    `gorm:"size:64;uniqueIndex:idx_media_kind_hash,priority:2;not null" json:"hash"`
	Kind      string    `gorm:"size:32;uniqueIndex:idx_media_kind_hash,priority:1;not null" json:"kind"`
	OwnerID   uint      `gorm:"not null;index" json:"owner"`
	Path      string    `gorm:"size:512;not null" json:"-"`
	MimeType  string    `gorm:"size:64;not null" json:"mime_type"`
	Width     int       `json:"width"`
	Height    int       `json:"height"`
	SizeBytes int64     `json:"size_bytes"`
	CreatedAt time.Time `json:"created_at"`

	URL string `gorm:"-" json:"url"`
}

// TableName pins the table name; GORM would otherwise pluralize it.
func (Media) TableName() string {
	return "media"
}
