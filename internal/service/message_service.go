package service

import (
	"context"
	"strings"

	"social/internal/authz"
	"social/internal/models"
	"social/internal/notifications"
	"social/internal/observability"
	"social/internal/repository"
	"social/internal/validation"
)

const (
	messageTextMax    = 1500
	errChatImmutable  = "A message cannot be moved to another chat."
	errRecipientOther = "Recipient must be a participant of the chat."
)

type MessageService struct {
	messages   repository.MessageRepository
	chats      repository.ChatRepository
	notifier   *notifications.Notifier
	descending bool
	log        *observability.ServiceLogger
}

// MessageInput carries the writable message fields. Nil means "not supplied".
type MessageInput struct {
	ChatID      *uint
	RecipientID *uint
	Text        *string
	IsPublished *bool
}

func NewMessageService(
	messages repository.MessageRepository,
	chats repository.ChatRepository,
	notifier *notifications.Notifier,
	descending bool,
) *MessageService {
	return &MessageService{
		messages:   messages,
		chats:      chats,
		notifier:   notifier,
		descending: descending,
		log:        observability.NewServiceLogger("message"),
	}
}

// ListMessages returns messages from the actor's chats, optionally narrowed
// to one chat, in the configured order.
func (s *MessageService) ListMessages(ctx context.Context, actor authz.Actor, chatID *uint, limit, offset int) ([]models.Message, error) {
	if !actor.Authenticated() {
		return nil, models.NewUnauthorizedError("Authentication credentials were not provided.")
	}
	return s.messages.List(ctx, repository.MessageFilter{
		ViewerID:   actor.ID,
		ChatID:     chatID,
		Descending: s.descending,
		Page:       repository.Page{Limit: limit, Offset: offset},
	})
}

func (s *MessageService) GetMessage(ctx context.Context, actor authz.Actor, id uint) (*models.Message, error) {
	msg, err := s.messages.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.require(ctx, actor, authz.ActionRead, msg.AuthorID, msg.ChatID); err != nil {
		return nil, err
	}
	return msg, nil
}

// CreateMessage posts into a chat the actor belongs to. The recipient, when
// set, must be a participant of the same chat.
func (s *MessageService) CreateMessage(ctx context.Context, actor authz.Actor, in MessageInput) (msg *models.Message, err error) {
	ctx, span := observability.StartServiceSpan(ctx, "MessageService", "CreateMessage")
	defer func() { observability.EndSpan(span, err) }()

	if in.ChatID == nil || *in.ChatID == 0 {
		return nil, models.NewFieldError("chat", errRequired)
	}
	chatID := *in.ChatID
	if err := s.require(ctx, actor, authz.ActionCreate, actor.ID, chatID); err != nil {
		return nil, err
	}
	if in.Text == nil {
		return nil, models.NewFieldError("text", errRequired)
	}
	if err := validation.ValidateText("Text", *in.Text, 1, messageTextMax); err != nil {
		return nil, models.NewFieldError("text", err.Error())
	}
	if err := s.checkRecipient(ctx, chatID, in.RecipientID); err != nil {
		return nil, err
	}

	msg = &models.Message{
		ChatID:      chatID,
		AuthorID:    actor.ID,
		RecipientID: in.RecipientID,
		Text:        strings.TrimSpace(*in.Text),
		IsPublished: true,
	}
	if in.IsPublished != nil {
		msg.IsPublished = *in.IsPublished
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, err
	}
	created("message")

	channels := []string{notifications.ChatChannel(chatID)}
	if msg.RecipientID != nil {
		channels = append(channels, notifications.UserChannel(*msg.RecipientID))
	}
	publish(ctx, s.notifier, s.log, notifications.EventMessageCreated, actor.ID,
		map[string]interface{}{"message_id": msg.ID, "chat_id": chatID},
		channels...)
	return msg, nil
}

// UpdateMessage edits a message the actor wrote. The chat of a message never
// changes; supplying a different chat fails before anything is written.
func (s *MessageService) UpdateMessage(ctx context.Context, actor authz.Actor, id uint, in MessageInput, replace bool) (*models.Message, error) {
	msg, err := s.messages.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.require(ctx, actor, authz.ActionUpdate, msg.AuthorID, msg.ChatID); err != nil {
		return nil, err
	}
	if in.ChatID != nil && *in.ChatID != msg.ChatID {
		return nil, models.NewFieldError("chat", errChatImmutable)
	}
	if replace && in.Text == nil {
		return nil, models.NewFieldError("text", errRequired)
	}

	fields := map[string]interface{}{}
	if in.Text != nil {
		if err := validation.ValidateText("Text", *in.Text, 1, messageTextMax); err != nil {
			return nil, models.NewFieldError("text", err.Error())
		}
		fields["text"] = strings.TrimSpace(*in.Text)
		fields["is_edited"] = true
	}
	if in.RecipientID != nil {
		if err := s.checkRecipient(ctx, msg.ChatID, in.RecipientID); err != nil {
			return nil, err
		}
		fields["recipient_id"] = *in.RecipientID
	}
	if in.IsPublished != nil {
		fields["is_published"] = *in.IsPublished
	}

	if err := s.messages.Update(ctx, id, fields); err != nil {
		return nil, err
	}
	return s.messages.GetByID(ctx, id)
}

func (s *MessageService) DeleteMessage(ctx context.Context, actor authz.Actor, id uint) error {
	msg, err := s.messages.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.require(ctx, actor, authz.ActionDelete, msg.AuthorID, msg.ChatID); err != nil {
		return err
	}
	return s.messages.Delete(ctx, id)
}

func (s *MessageService) require(ctx context.Context, actor authz.Actor, action authz.Action, authorID, chatID uint) error {
	member := false
	if actor.Authenticated() {
		var err error
		if member, err = s.chats.IsParticipant(ctx, chatID, actor.ID); err != nil {
			return err
		}
	}
	return authz.Require(authz.CanMessage(actor, action, authorID, member), authz.ResourceMessage, action)
}

func (s *MessageService) checkRecipient(ctx context.Context, chatID uint, recipientID *uint) error {
	if recipientID == nil {
		return nil
	}
	ok, err := s.chats.IsParticipant(ctx, chatID, *recipientID)
	if err != nil {
		return err
	}
	if !ok {
		return models.NewFieldError("recipient", errRecipientOther)
	}
	return nil
}
