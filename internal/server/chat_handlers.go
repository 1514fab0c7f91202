package server

import (
	"social/internal/middleware"
	"social/internal/service"

	"github.com/gofiber/fiber/v2"
)

// ChatRequest is the writable part of a chat. The caller is added to the
// participants on creation.
type ChatRequest struct {
	Title        *string `json:"title"`
	Image        *string `json:"image"`
	Participants *[]uint `json:"participants"`
}

func (r ChatRequest) input() service.ChatInput {
	return service.ChatInput{Title: r.Title, Image: r.Image, ParticipantIDs: r.Participants}
}

// ListChats handles GET /api/v1/chats
// @Summary List the caller's chats
// @Tags chats
// @Produce json
// @Success 200 {array} models.Chat
// @Security BearerAuth
// @Router /chats [get]
func (s *Server) ListChats(c *fiber.Ctx) error {
	page := parsePagination(c, defaultPageLimit)
	chats, err := s.chatService.ListChats(c.UserContext(), middleware.ActorFrom(c), page.Limit, page.Offset)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(chats)
}

// CreateChat handles POST /api/v1/chats
// @Summary Open a chat
// @Tags chats
// @Accept json
// @Produce json
// @Param body body ChatRequest true "Chat"
// @Success 201 {object} models.Chat
// @Failure 400 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /chats [post]
func (s *Server) CreateChat(c *fiber.Ctx) error {
	var req ChatRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	chat, err := s.chatService.CreateChat(c.UserContext(), middleware.ActorFrom(c), req.input())
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(chat)
}

// GetChat handles GET /api/v1/chats/:id
// @Summary Retrieve a chat with its messages
// @Tags chats
// @Produce json
// @Param id path int true "Chat ID"
// @Success 200 {object} models.Chat
// @Failure 403 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /chats/{id} [get]
func (s *Server) GetChat(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	chat, err := s.chatService.GetChat(c.UserContext(), middleware.ActorFrom(c), id)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(chat)
}

// ReplaceChat handles PUT /api/v1/chats/:id
// @Summary Replace a chat
// @Tags chats
// @Accept json
// @Produce json
// @Param id path int true "Chat ID"
// @Param body body ChatRequest true "Chat"
// @Success 200 {object} models.Chat
// @Security BearerAuth
// @Router /chats/{id} [put]
func (s *Server) ReplaceChat(c *fiber.Ctx) error {
	return s.updateChat(c, true)
}

// PatchChat handles PATCH /api/v1/chats/:id
// @Summary Partially update a chat
// @Tags chats
// @Accept json
// @Produce json
// @Param id path int true "Chat ID"
// @Param body body ChatRequest true "Fields to change"
// @Success 200 {object} models.Chat
// @Security BearerAuth
// @Router /chats/{id} [patch]
func (s *Server) PatchChat(c *fiber.Ctx) error {
	return s.updateChat(c, false)
}

func (s *Server) updateChat(c *fiber.Ctx, replace bool) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req ChatRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	chat, err := s.chatService.UpdateChat(c.UserContext(), middleware.ActorFrom(c), id, req.input(), replace)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(chat)
}

// DeleteChat handles DELETE /api/v1/chats/:id
// @Summary Delete a chat and its messages
// @Tags chats
// @Param id path int true "Chat ID"
// @Success 204
// @Security BearerAuth
// @Router /chats/{id} [delete]
func (s *Server) DeleteChat(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.chatService.DeleteChat(c.UserContext(), middleware.ActorFrom(c), id); err != nil {
		return respondServiceError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
