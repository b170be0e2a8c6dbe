package server

import (
	"strconv"

	"realestate/internal/middleware"
	"realestate/internal/models"
	"realestate/internal/service"

	"github.com/gofiber/fiber/v2"
)

type inquiryRequest struct {
	PropertyID string `json:"propertyId"`
	UserID     string `json:"userId"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Message    string `json:"message"`
}

// CreateInquiry handles POST /api/inquiries
// @Summary Submit an inquiry
// @Description Anonymous callers must supply name, email and message
// @Tags inquiries
// @Accept json
// @Produce json
// @Param request body inquiryRequest true "Inquiry"
// @Success 201 {object} models.Inquiry
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /inquiries [post]
func (s *Server) CreateInquiry(c *fiber.Ctx) error {
	var req inquiryRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	propertyID, err := requiredUUID(req.PropertyID, "propertyId")
	if err != nil {
		return respondError(c, err)
	}
	userID, err := parseOptionalUUID(req.UserID, "userId")
	if err != nil {
		return respondError(c, err)
	}

	inquiry, err := s.inquiryService.Submit(c.UserContext(), middleware.ActorFrom(c), service.SubmitInquiryInput{
		PropertyID: propertyID,
		UserID:     userID,
		Name:       req.Name,
		Email:      req.Email,
		Phone:      req.Phone,
		Message:    req.Message,
	})
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(inquiry)
}

// GetMyInquiries handles GET /api/inquiries/my
// @Summary Inquiries sent and received by the caller
// @Tags inquiries
// @Security BearerAuth
// @Produce json
// @Success 200 {object} models.InquiryPartition
// @Failure 401 {object} models.ErrorResponse
// @Router /inquiries/my [get]
func (s *Server) GetMyInquiries(c *fiber.Ctx) error {
	partition, err := s.inquiryService.ListForActor(c.UserContext(), middleware.ActorFrom(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(partition)
}

// GetAllInquiries handles GET /api/inquiries
// @Summary List all inquiries
// @Tags inquiries
// @Security BearerAuth
// @Produce json
// @Param limit query int false "Page size (all rows when omitted)"
// @Param offset query int false "Offset"
// @Success 200 {array} models.Inquiry
// @Header 200 {integer} X-Total-Count "Total number of inquiries"
// @Failure 403 {object} models.ErrorResponse
// @Router /inquiries [get]
func (s *Server) GetAllInquiries(c *fiber.Ctx) error {
	limit := max(c.QueryInt("limit", 0), 0)
	offset := max(c.QueryInt("offset", 0), 0)

	items, total, err := s.inquiryService.ListAll(c.UserContext(), middleware.ActorFrom(c), limit, offset)
	if err != nil {
		return respondError(c, err)
	}
	if items == nil {
		items = []models.Inquiry{}
	}

	c.Set("X-Total-Count", strconv.FormatInt(total, 10))
	return c.JSON(items)
}

// GetInquiry handles GET /api/inquiries/:id
// @Summary Get an inquiry
// @Tags inquiries
// @Security BearerAuth
// @Produce json
// @Param id path string true "Inquiry ID"
// @Success 200 {object} models.Inquiry
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /inquiries/{id} [get]
func (s *Server) GetInquiry(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	inquiry, err := s.inquiryService.Get(c.UserContext(), middleware.ActorFrom(c), id)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(inquiry)
}

// DeleteInquiry handles DELETE /api/inquiries/:id
// @Summary Delete an inquiry
// @Description Allowed for the sender, the property owner and admins
// @Tags inquiries
// @Security BearerAuth
// @Param id path string true "Inquiry ID"
// @Success 204
// @Failure 401 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /inquiries/{id} [delete]
func (s *Server) DeleteInquiry(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.inquiryService.Delete(c.UserContext(), middleware.ActorFrom(c), id); err != nil {
		return respondError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}
