package server

import (
	"realestate/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// FeatureFlagReport is the configured flag set and its evaluation for one user.
type FeatureFlagReport struct {
	Raw          map[string]string `json:"raw"`
	Evaluated    map[string]bool   `json:"evaluated"`
	EvaluatedFor uuid.UUID         `json:"evaluatedFor"`
}

// GetFeatureFlags handles GET /api/admin/feature-flags
// Percentage rollouts are evaluated for ?userId= when given, else for the caller.
// @Summary Feature flags and their evaluation
// @Tags admin
// @Security BearerAuth
// @Produce json
// @Param userId query string false "Evaluate rollouts for this user"
// @Success 200 {object} FeatureFlagReport
// @Failure 403 {object} models.ErrorResponse
// @Router /admin/feature-flags [get]
func (s *Server) GetFeatureFlags(c *fiber.Ctx) error {
	userID := middleware.ActorFrom(c).ID()
	if requested, err := parseOptionalUUID(c.Query("userId"), "userId"); err != nil {
		return respondError(c, err)
	} else if requested != nil {
		userID = *requested
	}

	report := FeatureFlagReport{
		Raw:          map[string]string{},
		Evaluated:    map[string]bool{},
		EvaluatedFor: userID,
	}
	if s.featureFlags != nil {
		report.Raw = s.featureFlags.Raw()
		report.Evaluated = s.featureFlags.Snapshot(userID)
	}
	return c.JSON(report)
}
