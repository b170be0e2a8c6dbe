package server

import (
	"realestate/internal/middleware"
	"realestate/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type favoriteRequest struct {
	UserID     string `json:"userId"`
	PropertyID string `json:"propertyId"`
}

type toggleFavoriteRequest struct {
	PropertyID string `json:"propertyId"`
}

// FavoriteState reports whether a property is in a user's favorites.
type FavoriteState struct {
	IsFavorite bool `json:"isFavorite"`
}

func requiredUUID(raw, field string) (uuid.UUID, error) {
	id, err := parseOptionalUUID(raw, field)
	if err != nil {
		return uuid.Nil, err
	}
	if id == nil {
		return uuid.Nil, models.NewFieldValidationError(map[string]string{field: "is required"})
	}
	return *id, nil
}

// CreateFavorite handles POST /api/favorites
// @Summary Favorite a property
// @Tags favorites
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body favoriteRequest true "Favorite"
// @Success 201 {object} models.Favorite
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /favorites [post]
func (s *Server) CreateFavorite(c *fiber.Ctx) error {
	var req favoriteRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	actor := middleware.ActorFrom(c)
	propertyID, err := requiredUUID(req.PropertyID, "propertyId")
	if err != nil {
		return respondError(c, err)
	}
	// userId defaults to the caller.
	userID := actor.ID()
	if req.UserID != "" {
		if userID, err = requiredUUID(req.UserID, "userId"); err != nil {
			return respondError(c, err)
		}
	}

	favorite, err := s.favoriteService.Create(c.UserContext(), actor, userID, propertyID)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(favorite)
}

// DeleteFavorite handles DELETE /api/favorites/:userId/:propertyId
// @Summary Remove a favorite
// @Tags favorites
// @Security BearerAuth
// @Param userId path string true "User ID"
// @Param propertyId path string true "Property ID"
// @Success 204
// @Failure 403 {object} models.ErrorResponse
// @Router /favorites/{userId}/{propertyId} [delete]
func (s *Server) DeleteFavorite(c *fiber.Ctx) error {
	userID, err := s.parseID(c, "userId")
	if err != nil {
		return nil
	}
	propertyID, err := s.parseID(c, "propertyId")
	if err != nil {
		return nil
	}

	if err := s.favoriteService.Remove(c.UserContext(), middleware.ActorFrom(c), userID, propertyID); err != nil {
		return respondError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// FavoriteExists handles GET /api/favorites/:userId/:propertyId/exists
// @Summary Check a favorite
// @Tags favorites
// @Security BearerAuth
// @Produce json
// @Param userId path string true "User ID"
// @Param propertyId path string true "Property ID"
// @Success 200 {object} FavoriteState
// @Router /favorites/{userId}/{propertyId}/exists [get]
func (s *Server) FavoriteExists(c *fiber.Ctx) error {
	userID, err := s.parseID(c, "userId")
	if err != nil {
		return nil
	}
	propertyID, err := s.parseID(c, "propertyId")
	if err != nil {
		return nil
	}

	exists, err := s.favoriteService.IsFavorite(c.UserContext(), middleware.ActorFrom(c), userID, propertyID)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(FavoriteState{IsFavorite: exists})
}

// GetFavorites handles GET /api/favorites?userId=
// @Summary List favorited properties
// @Description Defaults to the caller's favorites
// @Tags favorites
// @Security BearerAuth
// @Produce json
// @Param userId query string false "User ID"
// @Success 200 {array} models.Property
// @Router /favorites [get]
func (s *Server) GetFavorites(c *fiber.Ctx) error {
	actor := middleware.ActorFrom(c)
	userID := actor.ID()
	if raw := c.Query("userId"); raw != "" {
		id, err := requiredUUID(raw, "userId")
		if err != nil {
			return respondError(c, err)
		}
		userID = id
	}

	properties, err := s.favoriteService.ListForUser(c.UserContext(), actor, userID)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(properties)
}

// ToggleFavorite handles POST /api/favorites/toggle
// @Summary Toggle the caller's favorite
// @Tags favorites
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body toggleFavoriteRequest true "Property"
// @Success 200 {object} FavoriteState
// @Router /favorites/toggle [post]
func (s *Server) ToggleFavorite(c *fiber.Ctx) error {
	var req toggleFavoriteRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	propertyID, err := requiredUUID(req.PropertyID, "propertyId")
	if err != nil {
		return respondError(c, err)
	}

	favorited, err := s.favoriteService.Toggle(c.UserContext(), middleware.ActorFrom(c), propertyID)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(FavoriteState{IsFavorite: favorited})
}
