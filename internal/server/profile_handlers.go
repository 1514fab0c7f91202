package server

import (
	"social/internal/middleware"
	"social/internal/service"

	"github.com/gofiber/fiber/v2"
)

// ProfileRequest is the writable part of a profile. An empty date_of_birth
// clears it.
type ProfileRequest struct {
	Bio            *string `json:"bio"`
	ProfilePicture *string `json:"profile_picture"`
	Location       *string `json:"location"`
	Website        *string `json:"website"`
	DateOfBirth    *string `json:"date_of_birth"`
}

func (r ProfileRequest) input() service.ProfileInput {
	return service.ProfileInput{
		Bio:            r.Bio,
		ProfilePicture: r.ProfilePicture,
		Location:       r.Location,
		Website:        r.Website,
		DateOfBirth:    r.DateOfBirth,
	}
}

// ListProfiles handles GET /api/v1/profiles
// @Summary List profiles
// @Tags profiles
// @Produce json
// @Success 200 {array} models.Profile
// @Security BearerAuth
// @Router /profiles [get]
func (s *Server) ListProfiles(c *fiber.Ctx) error {
	page := parsePagination(c, defaultPageLimit)
	profiles, err := s.profileService.ListProfiles(c.UserContext(), middleware.ActorFrom(c), page.Limit, page.Offset)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(profiles)
}

// CreateProfile handles POST /api/v1/profiles
// @Summary Create the caller's profile
// @Tags profiles
// @Accept json
// @Produce json
// @Param body body ProfileRequest true "Profile"
// @Success 201 {object} models.Profile
// @Failure 409 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /profiles [post]
func (s *Server) CreateProfile(c *fiber.Ctx) error {
	var req ProfileRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	profile, err := s.profileService.CreateProfile(c.UserContext(), middleware.ActorFrom(c), req.input())
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(profile)
}

// GetMyProfile handles GET /api/v1/profiles/me
// @Summary Retrieve (or create) the caller's profile with their posts
// @Tags profiles
// @Produce json
// @Success 200 {object} service.ProfileBundle
// @Security BearerAuth
// @Router /profiles/me [get]
func (s *Server) GetMyProfile(c *fiber.Ctx) error {
	bundle, err := s.profileService.Me(c.UserContext(), middleware.ActorFrom(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(bundle)
}

// GetProfile handles GET /api/v1/profiles/:id
// @Summary Retrieve a profile with the owner's visible posts
// @Tags profiles
// @Produce json
// @Param id path int true "Profile ID"
// @Success 200 {object} service.ProfileBundle
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /profiles/{id} [get]
func (s *Server) GetProfile(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	bundle, err := s.profileService.GetProfile(c.UserContext(), middleware.ActorFrom(c), id)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(bundle)
}

// UpdateProfile handles PUT and PATCH /api/v1/profiles/:id
// @Summary Update a profile
// @Tags profiles
// @Accept json
// @Produce json
// @Param id path int true "Profile ID"
// @Param body body ProfileRequest true "Fields to change"
// @Success 200 {object} models.Profile
// @Failure 403 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /profiles/{id} [patch]
func (s *Server) UpdateProfile(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req ProfileRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	profile, err := s.profileService.UpdateProfile(c.UserContext(), middleware.ActorFrom(c), id, req.input())
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(profile)
}

// DeleteProfile handles DELETE /api/v1/profiles/:id
// @Summary Delete a profile
// @Tags profiles
// @Param id path int true "Profile ID"
// @Success 204
// @Security BearerAuth
// @Router /profiles/{id} [delete]
func (s *Server) DeleteProfile(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.profileService.DeleteProfile(c.UserContext(), middleware.ActorFrom(c), id); err != nil {
		return respondServiceError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
