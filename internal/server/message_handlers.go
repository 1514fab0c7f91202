package server

import (
	"social/internal/middleware"
	"social/internal/service"

	"github.com/gofiber/fiber/v2"
)

// MessageRequest is the writable part of a message. The author is always the
// caller and the chat cannot change after creation.
type MessageRequest struct {
	Chat        *uint   `json:"chat"`
	Recipient   *uint   `json:"recipient"`
	Text        *string `json:"text"`
	IsPublished *bool   `json:"is_published"`
}

func (r MessageRequest) input() service.MessageInput {
	return service.MessageInput{
		ChatID:      r.Chat,
		RecipientID: r.Recipient,
		Text:        r.Text,
		IsPublished: r.IsPublished,
	}
}

// ListMessages handles GET /api/v1/messages
// @Summary List messages from the caller's chats
// @Tags messages
// @Produce json
// @Param chat query int false "Chat ID"
// @Success 200 {array} models.Message
// @Security BearerAuth
// @Router /messages [get]
func (s *Server) ListMessages(c *fiber.Ctx) error {
	chatID, err := queryID(c, "chat")
	if err != nil {
		return nil
	}
	page := parsePagination(c, maxPaginationLimit)

	messages, err := s.messageService.ListMessages(c.UserContext(), middleware.ActorFrom(c), chatID, page.Limit, page.Offset)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(messages)
}

// CreateMessage handles POST /api/v1/messages
// @Summary Post a message into a chat
// @Tags messages
// @Accept json
// @Produce json
// @Param body body MessageRequest true "Message"
// @Success 201 {object} models.Message
// @Failure 403 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /messages [post]
func (s *Server) CreateMessage(c *fiber.Ctx) error {
	var req MessageRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	msg, err := s.messageService.CreateMessage(c.UserContext(), middleware.ActorFrom(c), req.input())
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(msg)
}

// GetMessage handles GET /api/v1/messages/:id
// @Summary Retrieve a message
// @Tags messages
// @Produce json
// @Param id path int true "Message ID"
// @Success 200 {object} models.Message
// @Security BearerAuth
// @Router /messages/{id} [get]
func (s *Server) GetMessage(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	msg, err := s.messageService.GetMessage(c.UserContext(), middleware.ActorFrom(c), id)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(msg)
}

// ReplaceMessage handles PUT /api/v1/messages/:id
// @Summary Replace a message
// @Tags messages
// @Accept json
// @Produce json
// @Param id path int true "Message ID"
// @Param body body MessageRequest true "Message"
// @Success 200 {object} models.Message
// @Failure 400 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /messages/{id} [put]
func (s *Server) ReplaceMessage(c *fiber.Ctx) error {
	return s.updateMessage(c, true)
}

// PatchMessage handles PATCH /api/v1/messages/:id
// @Summary Partially update a message
// @Tags messages
// @Accept json
// @Produce json
// @Param id path int true "Message ID"
// @Param body body MessageRequest true "Fields to change"
// @Success 200 {object} models.Message
// @Security BearerAuth
// @Router /messages/{id} [patch]
func (s *Server) PatchMessage(c *fiber.Ctx) error {
	return s.updateMessage(c, false)
}

func (s *Server) updateMessage(c *fiber.Ctx, replace bool) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req MessageRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	msg, err := s.messageService.UpdateMessage(c.UserContext(), middleware.ActorFrom(c), id, req.input(), replace)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(msg)
}

// DeleteMessage handles DELETE /api/v1/messages/:id
// @Summary Delete a message
// @Tags messages
// @Param id path int true "Message ID"
// @Success 204
// @Security BearerAuth
// @Router /messages/{id} [delete]
func (s *Server) DeleteMessage(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.messageService.DeleteMessage(c.UserContext(), middleware.ActorFrom(c), id); err != nil {
		return respondServiceError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
