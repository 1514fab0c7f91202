package server

import (
	"social/internal/middleware"
	"social/internal/models"

	"github.com/gofiber/fiber/v2"
)

// LikeRequest names the post to like.
type LikeRequest struct {
	Post *uint `json:"post"`
}

// ListLikes handles GET /api/v1/likes
// @Summary List likes on visible posts
// @Tags likes
// @Produce json
// @Param post query int false "Post ID"
// @Success 200 {array} models.Like
// @Security BearerAuth
// @Router /likes [get]
func (s *Server) ListLikes(c *fiber.Ctx) error {
	postID, err := queryID(c, "post")
	if err != nil {
		return nil
	}
	page := parsePagination(c, defaultPageLimit)

	likes, err := s.likeService.ListLikes(c.UserContext(), middleware.ActorFrom(c), postID, page.Limit, page.Offset)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(likes)
}

// CreateLike handles POST /api/v1/likes
// @Summary Like a post
// @Tags likes
// @Accept json
// @Produce json
// @Param body body LikeRequest true "Post to like"
// @Success 201 {object} models.Like
// @Failure 409 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /likes [post]
func (s *Server) CreateLike(c *fiber.Ctx) error {
	var req LikeRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	if req.Post == nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewFieldError("post", "This field is required."))
	}

	like, err := s.likeService.CreateLike(c.UserContext(), middleware.ActorFrom(c), *req.Post)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(like)
}

// GetLike handles GET /api/v1/likes/:id
// @Summary Retrieve a like
// @Tags likes
// @Produce json
// @Param id path int true "Like ID"
// @Success 200 {object} models.Like
// @Security BearerAuth
// @Router /likes/{id} [get]
func (s *Server) GetLike(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	like, err := s.likeService.GetLike(c.UserContext(), middleware.ActorFrom(c), id)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(like)
}

// DeleteLike handles DELETE /api/v1/likes/:id
// @Summary Remove a like
// @Tags likes
// @Param id path int true "Like ID"
// @Success 204
// @Security BearerAuth
// @Router /likes/{id} [delete]
func (s *Server) DeleteLike(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.likeService.DeleteLike(c.UserContext(), middleware.ActorFrom(c), id); err != nil {
		return respondServiceError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
