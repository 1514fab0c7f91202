package server

import (
	"social/internal/middleware"
	"social/internal/models"
	"social/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CommentRequest is the writable part of a comment. The post is fixed at
// creation; updates only change the text.
type CommentRequest struct {
	Post *uint   `json:"post"`
	Text *string `json:"text"`
}

// ListComments handles GET /api/v1/comments
// @Summary List comments on visible posts
// @Tags comments
// @Produce json
// @Param post query int false "Post ID"
// @Success 200 {array} models.Comment
// @Security BearerAuth
// @Router /comments [get]
func (s *Server) ListComments(c *fiber.Ctx) error {
	postID, err := queryID(c, "post")
	if err != nil {
		return nil
	}
	page := parsePagination(c, defaultPageLimit)

	comments, err := s.commentService.ListComments(c.UserContext(), middleware.ActorFrom(c), postID, page.Limit, page.Offset)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(comments)
}

// CreateComment handles POST /api/v1/comments
// @Summary Comment on a post
// @Tags comments
// @Accept json
// @Produce json
// @Param body body CommentRequest true "Comment"
// @Success 201 {object} models.Comment
// @Failure 400 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /comments [post]
func (s *Server) CreateComment(c *fiber.Ctx) error {
	var req CommentRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	if req.Post == nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewFieldError("post", "This field is required."))
	}

	comment, err := s.commentService.CreateComment(c.UserContext(), middleware.ActorFrom(c), service.CreateCommentInput{
		PostID: *req.Post,
		Text:   req.Text,
	})
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(comment)
}

// GetComment handles GET /api/v1/comments/:id
// @Summary Retrieve a comment
// @Tags comments
// @Produce json
// @Param id path int true "Comment ID"
// @Success 200 {object} models.Comment
// @Security BearerAuth
// @Router /comments/{id} [get]
func (s *Server) GetComment(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	comment, err := s.commentService.GetComment(c.UserContext(), middleware.ActorFrom(c), id)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(comment)
}

// UpdateComment handles PUT and PATCH /api/v1/comments/:id
// @Summary Edit a comment
// @Tags comments
// @Accept json
// @Produce json
// @Param id path int true "Comment ID"
// @Param body body CommentRequest true "Comment text"
// @Success 200 {object} models.Comment
// @Failure 403 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /comments/{id} [put]
func (s *Server) UpdateComment(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req CommentRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	comment, err := s.commentService.UpdateComment(c.UserContext(), middleware.ActorFrom(c), id, req.Text)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(comment)
}

// DeleteComment handles DELETE /api/v1/comments/:id
// @Summary Delete a comment
// @Tags comments
// @Param id path int true "Comment ID"
// @Success 204
// @Security BearerAuth
// @Router /comments/{id} [delete]
func (s *Server) DeleteComment(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.commentService.DeleteComment(c.UserContext(), middleware.ActorFrom(c), id); err != nil {
		return respondServiceError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
