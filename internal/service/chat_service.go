package service

import (
	"context"
	"strings"

	"social/internal/authz"
	"social/internal/models"
	"social/internal/observability"
	"social/internal/repository"
	"social/internal/validation"

	"go.opentelemetry.io/otel/attribute"
)

const (
	chatTitleMax          = 255
	errTooFewParticipants = "A chat must have at least two participants."
	errUnknownUserID      = "Invalid user id - object does not exist."
)

// ChatService manages chats. Every read and write is scoped to the actor's
// own chats; staff get no override.
type ChatService struct {
	chats      repository.ChatRepository
	messages   repository.MessageRepository
	users      repository.UserRepository
	descending bool
	log        *observability.ServiceLogger
}

// ChatInput carries the writable chat fields. Nil means "not supplied".
type ChatInput struct {
	Title          *string
	Image          *string
	ParticipantIDs *[]uint
}

// NewChatService wires the chat service. descending orders the messages
// nested in a chat detail newest first.
func NewChatService(
	chats repository.ChatRepository,
	messages repository.MessageRepository,
	users repository.UserRepository,
	descending bool,
) *ChatService {
	return &ChatService{
		chats:      chats,
		messages:   messages,
		users:      users,
		descending: descending,
		log:        observability.NewServiceLogger("chat"),
	}
}

func (s *ChatService) ListChats(ctx context.Context, actor authz.Actor, limit, offset int) ([]models.Chat, error) {
	if !actor.Authenticated() {
		return nil, models.NewUnauthorizedError("Authentication credentials were not provided.")
	}
	return s.chats.ListForParticipant(ctx, actor.ID, repository.Page{Limit: limit, Offset: offset})
}

// GetChat returns the chat with its messages. A missing chat and a chat the
// actor is not in both yield FORBIDDEN.
func (s *ChatService) GetChat(ctx context.Context, actor authz.Actor, id uint) (*models.Chat, error) {
	chat, err := s.participantChat(ctx, actor, id, authz.ActionRead)
	if err != nil {
		return nil, err
	}
	msgs, err := s.messages.ListByChat(ctx, chat.ID, s.descending)
	if err != nil {
		return nil, err
	}
	chat.Messages = msgs
	return chat, nil
}

// CreateChat adds the actor to the participant set, requires at least two
// distinct known users and derives a title when none is given.
func (s *ChatService) CreateChat(ctx context.Context, actor authz.Actor, in ChatInput) (chat *models.Chat, err error) {
	ctx, span := observability.StartServiceSpan(ctx, "ChatService", "CreateChat")
	defer func() { observability.EndSpan(span, err) }()

	if err := authz.Require(authz.CanChat(actor, authz.ActionCreate, false), authz.ResourceChat, authz.ActionCreate); err != nil {
		return nil, err
	}
	if err := validateChatFields(in); err != nil {
		return nil, err
	}

	requested := []uint{actor.ID}
	if in.ParticipantIDs != nil {
		requested = append(requested, *in.ParticipantIDs...)
	}
	users, err := s.resolveParticipants(ctx, requested)
	if err != nil {
		return nil, err
	}

	chat = &models.Chat{}
	if in.Image != nil {
		chat.Image = strings.TrimSpace(*in.Image)
	}
	if in.Title != nil {
		chat.Title = strings.TrimSpace(*in.Title)
	}
	if chat.Title == "" {
		chat.Title = defaultChatTitle(users)
	}

	if err := s.chats.Create(ctx, chat, userIDs(users)); err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int("chat.id", int(chat.ID)), attribute.Int("chat.participants", len(users)))
	created("chat")
	s.log.Info(ctx, "chat created", "chat_id", chat.ID, "participants", len(users))
	return s.chats.GetForParticipant(ctx, chat.ID, actor.ID)
}

// UpdateChat changes title, image or participants. A participant change must
// still leave two or more participants.
func (s *ChatService) UpdateChat(ctx context.Context, actor authz.Actor, id uint, in ChatInput, replace bool) (*models.Chat, error) {
	current, err := s.participantChat(ctx, actor, id, authz.ActionUpdate)
	if err != nil {
		return nil, err
	}
	if replace && in.ParticipantIDs == nil {
		return nil, models.NewFieldError("participants", errRequired)
	}
	if err := validateChatFields(in); err != nil {
		return nil, err
	}

	users := current.Participants
	var participantIDs []uint
	if in.ParticipantIDs != nil {
		users, err = s.resolveParticipants(ctx, *in.ParticipantIDs)
		if err != nil {
			return nil, err
		}
		participantIDs = userIDs(users)
	}

	fields := map[string]interface{}{}
	if in.Image != nil {
		fields["image"] = strings.TrimSpace(*in.Image)
	}
	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			title = defaultChatTitle(users)
		}
		fields["title"] = title
	}

	if err := s.chats.Update(ctx, id, fields, participantIDs); err != nil {
		return nil, err
	}

	// The actor may have removed themselves; read back through a remaining
	// participant.
	viewer := actor.ID
	if participantIDs != nil && !containsID(participantIDs, actor.ID) {
		viewer = participantIDs[0]
	}
	chat, err := s.chats.GetForParticipant(ctx, id, viewer)
	if err != nil {
		return nil, err
	}
	if chat.Messages, err = s.messages.ListByChat(ctx, id, s.descending); err != nil {
		return nil, err
	}
	return chat, nil
}

// DeleteChat removes the chat and its messages.
func (s *ChatService) DeleteChat(ctx context.Context, actor authz.Actor, id uint) error {
	if _, err := s.participantChat(ctx, actor, id, authz.ActionDelete); err != nil {
		return err
	}
	if err := s.chats.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info(ctx, "chat deleted", "chat_id", id, "actor_id", actor.ID)
	return nil
}

func (s *ChatService) participantChat(ctx context.Context, actor authz.Actor, id uint, action authz.Action) (*models.Chat, error) {
	if !actor.Authenticated() {
		return nil, authz.Require(false, authz.ResourceChat, action)
	}
	chat, err := s.chats.GetForParticipant(ctx, id, actor.ID)
	if err != nil {
		if models.IsCode(err, models.CodeNotFound) {
			return nil, authz.Require(false, authz.ResourceChat, action)
		}
		return nil, err
	}
	if err := authz.Require(authz.CanChat(actor, action, true), authz.ResourceChat, action); err != nil {
		return nil, err
	}
	return chat, nil
}

// resolveParticipants de-duplicates ids and loads the users in ascending ID
// order.
func (s *ChatService) resolveParticipants(ctx context.Context, ids []uint) ([]models.User, error) {
	ids = dedupeIDs(ids)
	users, err := s.users.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	if len(users) != len(ids) {
		return nil, models.NewFieldError("participants", errUnknownUserID)
	}
	if len(users) < 2 {
		return nil, models.NewFieldError("participants", errTooFewParticipants)
	}
	return users, nil
}

func validateChatFields(in ChatInput) error {
	fields := map[string]string{}
	if in.Title != nil {
		if err := validation.ValidateText("Title", *in.Title, 0, chatTitleMax); err != nil {
			fields["title"] = err.Error()
		}
	}
	if in.Image != nil {
		if err := validation.ValidateText("Image", *in.Image, 0, mediaRefMax); err != nil {
			fields["image"] = err.Error()
		}
	}
	if len(fields) > 0 {
		return models.NewFieldsError(fields)
	}
	return nil
}

func defaultChatTitle(users []models.User) string {
	names := make([]string, 0, len(users))
	for _, u := range users {
		names = append(names, u.Username)
	}
	title := []rune(strings.Join(names, ", "))
	if len(title) > chatTitleMax {
		title = title[:chatTitleMax]
	}
	return string(title)
}

func containsID(ids []uint, id uint) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func userIDs(users []models.User) []uint {
	ids := make([]uint, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	return ids
}
