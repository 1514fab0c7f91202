package repository

import (
	"context"

	"social/internal/models"
	"social/internal/observability"

	"gorm.io/gorm"
)

// MessageFilter scopes a message listing to the viewer's chats.
type MessageFilter struct {
	ViewerID   uint
	ChatID     *uint
	Descending bool
	Page
}

// MessageRepository defines persistence operations for chat messages.
type MessageRepository interface {
	Create(ctx context.Context, msg *models.Message) error
	GetByID(ctx context.Context, id uint) (*models.Message, error)
	List(ctx context.Context, filter MessageFilter) ([]models.Message, error)
	ListByChat(ctx context.Context, chatID uint, descending bool) ([]models.Message, error)
	Update(ctx context.Context, id uint, fields map[string]interface{}) error
	Delete(ctx context.Context, id uint) error
}

type messageRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewMessageRepository creates a new message repository.
func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepository{db: db, log: observability.NewRepoLogger("messages")}
}

func messageOrder(descending bool) string {
	if descending {
		return "messages.time_create DESC, messages.id DESC"
	}
	return "messages.time_create ASC, messages.id ASC"
}

func (r *messageRepository) Create(ctx context.Context, msg *models.Message) error {
	if err := r.db.WithContext(ctx).Omit("Author", "Recipient").Create(msg).Error; err != nil {
		return translateWrite(err)
	}
	r.log.LogWrite(ctx, "create", msg.ID)
	return nil
}

func (r *messageRepository) GetByID(ctx context.Context, id uint) (*models.Message, error) {
	var msg models.Message
	if err := r.db.WithContext(ctx).First(&msg, id).Error; err != nil {
		return nil, notFound(err, "Message", id)
	}
	return &msg, nil
}

func (r *messageRepository) List(ctx context.Context, filter MessageFilter) ([]models.Message, error) {
	q := r.db.WithContext(ctx).Where("messages.chat_id IN ("+participantChatsSubquery+")", filter.ViewerID)
	if filter.ChatID != nil {
		q = q.Where("messages.chat_id = ?", *filter.ChatID)
	}

	msgs := []models.Message{}
	err := filter.Page.apply(q.Order(messageOrder(filter.Descending))).Find(&msgs).Error
	return msgs, err
}

func (r *messageRepository) ListByChat(ctx context.Context, chatID uint, descending bool) ([]models.Message, error) {
	msgs := []models.Message{}
	err := r.db.WithContext(ctx).
		Where("messages.chat_id = ?", chatID).
		Order(messageOrder(descending)).
		Find(&msgs).Error
	return msgs, err
}

func (r *messageRepository) Update(ctx context.Context, id uint, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}
	res := r.db.WithContext(ctx).Model(&models.Message{ID: id}).Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Message", id)
	}
	r.log.LogWrite(ctx, "update", id)
	return nil
}

func (r *messageRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Message{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Message", id)
	}
	r.log.LogWrite(ctx, "delete", id)
	return nil
}
