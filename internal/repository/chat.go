package repository

import (
	"context"

	"social/internal/models"
	"social/internal/observability"

	"gorm.io/gorm"
)

// ChatRepository defines the interface for chat data operations. Lookups are
// scoped to a participant so foreign and missing chats look the same.
type ChatRepository interface {
	Create(ctx context.Context, chat *models.Chat, participantIDs []uint) error
	GetForParticipant(ctx context.Context, chatID, userID uint) (*models.Chat, error)
	ListForParticipant(ctx context.Context, userID uint, page Page) ([]models.Chat, error)
	IsParticipant(ctx context.Context, chatID, userID uint) (bool, error)
	// Update writes fields and, when participantIDs is non-nil, replaces the
	// participant set.
	Update(ctx context.Context, chatID uint, fields map[string]interface{}, participantIDs []uint) error
	Delete(ctx context.Context, chatID uint) error
}

type chatRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewChatRepository creates a new chat repository
func NewChatRepository(db *gorm.DB) ChatRepository {
	return &chatRepository{db: db, log: observability.NewRepoLogger("chats")}
}

const participantChatsSubquery = "SELECT chat_id FROM chat_participants WHERE user_id = ?"

func orderedParticipants(db *gorm.DB) *gorm.DB {
	return db.Order("users.id ASC")
}

func replaceParticipants(tx *gorm.DB, chatID uint, userIDs []uint) error {
	if err := tx.Exec("DELETE FROM chat_participants WHERE chat_id = ?", chatID).Error; err != nil {
		return err
	}
	for _, userID := range userIDs {
		if err := tx.Exec("INSERT INTO chat_participants (chat_id, user_id) VALUES (?, ?)", chatID, userID).Error; err != nil {
			return err
		}
	}
	return nil
}

// Create writes the chat row and its participant rows in one transaction.
func (r *chatRepository) Create(ctx context.Context, chat *models.Chat, participantIDs []uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Participants", "Messages").Create(chat).Error; err != nil {
			return err
		}
		return replaceParticipants(tx, chat.ID, participantIDs)
	})
	if err != nil {
		return translateWrite(err)
	}
	r.log.LogWrite(ctx, "create", chat.ID)
	return nil
}

func (r *chatRepository) GetForParticipant(ctx context.Context, chatID, userID uint) (*models.Chat, error) {
	var chat models.Chat
	err := r.db.WithContext(ctx).
		Preload("Participants", orderedParticipants).
		Where("chats.id = ? AND chats.id IN ("+participantChatsSubquery+")", chatID, userID).
		First(&chat).Error
	if err != nil {
		return nil, notFound(err, "Chat", chatID)
	}
	chat.Decorate()
	return &chat, nil
}

func (r *chatRepository) ListForParticipant(ctx context.Context, userID uint, page Page) ([]models.Chat, error) {
	q := r.db.WithContext(ctx).
		Preload("Participants", orderedParticipants).
		Where("chats.id IN ("+participantChatsSubquery+")", userID).
		Order("chats.created_at DESC, chats.id DESC")

	chats := []models.Chat{}
	if err := page.apply(q).Find(&chats).Error; err != nil {
		return nil, err
	}
	for i := range chats {
		chats[i].Decorate()
	}
	return chats, nil
}

func (r *chatRepository) IsParticipant(ctx context.Context, chatID, userID uint) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Table("chat_participants").
		Where("chat_id = ? AND user_id = ?", chatID, userID).
		Count(&n).Error
	return n > 0, err
}

func (r *chatRepository) Update(ctx context.Context, chatID uint, fields map[string]interface{}, participantIDs []uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(fields) > 0 {
			if err := tx.Model(&models.Chat{ID: chatID}).Updates(fields).Error; err != nil {
				return err
			}
		}
		if participantIDs != nil {
			return replaceParticipants(tx, chatID, participantIDs)
		}
		return nil
	})
	if err != nil {
		return err
	}
	r.log.LogWrite(ctx, "update", chatID)
	return nil
}

// Delete removes the chat with its messages and participant rows.
func (r *chatRepository) Delete(ctx context.Context, chatID uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM messages WHERE chat_id = ?", chatID).Error; err != nil {
			return err
		}
		if err := tx.Exec("DELETE FROM chat_participants WHERE chat_id = ?", chatID).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Chat{}, chatID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return models.NewNotFoundError("Chat", chatID)
		}
		return nil
	})
	if err != nil {
		return err
	}
	r.log.LogWrite(ctx, "delete", chatID)
	return nil
}
