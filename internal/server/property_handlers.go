package server

import (
	"strings"

	"realestate/internal/middleware"
	"realestate/internal/models"
	"realestate/internal/service"

	"github.com/gofiber/fiber/v2"
)

type propertyRequest struct {
	Title       string                  `json:"title"`
	Description string                  `json:"description"`
	Price       float64                 `json:"price"`
	Bedrooms    int                     `json:"bedrooms"`
	Bathrooms   int                     `json:"bathrooms"`
	Area        float64                 `json:"area"`
	Address     string                  `json:"address"`
	Type        models.PropertyType     `json:"type"`
	Status      models.PropertyStatus   `json:"status"`
	Location    models.PropertyLocation `json:"location"`
	Features    []string                `json:"features"`
}

func (r propertyRequest) input() service.PropertyInput {
	return service.PropertyInput{
		Title:       r.Title,
		Description: r.Description,
		Price:       r.Price,
		Bedrooms:    r.Bedrooms,
		Bathrooms:   r.Bathrooms,
		Area:        r.Area,
		Address:     r.Address,
		Type:        r.Type,
		Status:      r.Status,
		Location:    r.Location,
		Features:    r.Features,
	}
}

type addImageRequest struct {
	URL          string `json:"url"`
	DisplayOrder int    `json:"displayOrder"`
}

// PropertyPage is a paginated property listing.
type PropertyPage struct {
	Items  []models.Property `json:"items"`
	Total  int64             `json:"total"`
	Limit  int               `json:"limit"`
	Offset int               `json:"offset"`
}

func propertyFilterFromQuery(c *fiber.Ctx, page Pagination) models.PropertyFilter {
	return models.PropertyFilter{
		Type:        models.PropertyType(c.Query("type")),
		Status:      models.PropertyStatus(c.Query("status")),
		Location:    models.PropertyLocation(c.Query("location")),
		MinPrice:    c.QueryFloat("minPrice", 0),
		MaxPrice:    c.QueryFloat("maxPrice", 0),
		MinBedrooms: c.QueryInt("minBedrooms", 0),
		Search:      strings.TrimSpace(c.Query("search")),
		Limit:       page.Limit,
		Offset:      page.Offset,
	}
}

// GetProperties handles GET /api/properties
// @Summary List properties
// @Tags properties
// @Produce json
// @Param type query string false "Property type"
// @Param status query string false "Listing status"
// @Param location query string false "City"
// @Param minPrice query number false "Minimum price"
// @Param maxPrice query number false "Maximum price"
// @Param minBedrooms query int false "Minimum bedrooms"
// @Param search query string false "Text search"
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Success 200 {object} PropertyPage
// @Router /properties [get]
func (s *Server) GetProperties(c *fiber.Ctx) error {
	page := parsePagination(c, defaultPaginationLimit)

	items, total, err := s.propertyService.ListProperties(c.UserContext(), propertyFilterFromQuery(c, page))
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(PropertyPage{Items: items, Total: total, Limit: page.Limit, Offset: page.Offset})
}

// GetMyProperties handles GET /api/properties/my
// @Summary Listings owned by the caller
// @Tags properties
// @Security BearerAuth
// @Produce json
// @Success 200 {object} PropertyPage
// @Router /properties/my [get]
func (s *Server) GetMyProperties(c *fiber.Ctx) error {
	page := parsePagination(c, defaultPaginationLimit)

	items, total, err := s.propertyService.ListMine(c.UserContext(), middleware.ActorFrom(c), page.Limit, page.Offset)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(PropertyPage{Items: items, Total: total, Limit: page.Limit, Offset: page.Offset})
}

// GetProperty handles GET /api/properties/:id
// @Summary Get property
// @Tags properties
// @Produce json
// @Param id path string true "Property ID"
// @Success 200 {object} models.Property
// @Failure 404 {object} models.ErrorResponse
// @Router /properties/{id} [get]
func (s *Server) GetProperty(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	property, err := s.propertyService.GetProperty(c.UserContext(), middleware.ActorFrom(c), id)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(property)
}

// CreateProperty handles POST /api/properties
// @Summary Create property
// @Tags properties
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body propertyRequest true "Listing"
// @Success 201 {object} models.Property
// @Failure 400 {object} models.ErrorResponse
// @Router /properties [post]
func (s *Server) CreateProperty(c *fiber.Ctx) error {
	var req propertyRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	property, err := s.propertyService.CreateProperty(c.UserContext(), middleware.ActorFrom(c), req.input())
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(property)
}

// UpdateProperty handles PUT /api/properties/:id
// @Summary Update property
// @Tags properties
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Property ID"
// @Param request body propertyRequest true "Listing"
// @Success 200 {object} models.Property
// @Failure 403 {object} models.ErrorResponse
// @Router /properties/{id} [put]
func (s *Server) UpdateProperty(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req propertyRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	property, err := s.propertyService.UpdateProperty(c.UserContext(), middleware.ActorFrom(c), id, req.input())
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(property)
}

// DeleteProperty handles DELETE /api/properties/:id
// @Summary Delete property
// @Tags properties
// @Security BearerAuth
// @Param id path string true "Property ID"
// @Success 204
// @Failure 403 {object} models.ErrorResponse
// @Router /properties/{id} [delete]
func (s *Server) DeleteProperty(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.propertyService.DeleteProperty(c.UserContext(), middleware.ActorFrom(c), id); err != nil {
		return respondError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// GetPropertyImages handles GET /api/properties/:id/images
// @Summary List property images
// @Tags properties
// @Produce json
// @Param id path string true "Property ID"
// @Success 200 {array} models.PropertyImage
// @Router /properties/{id}/images [get]
func (s *Server) GetPropertyImages(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	images, err := s.propertyService.ListImages(c.UserContext(), middleware.ActorFrom(c), id)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(images)
}

// AddPropertyImage handles POST /api/properties/:id/images
// @Summary Attach an image URL
// @Tags properties
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Property ID"
// @Param request body addImageRequest true "Image"
// @Success 201 {object} models.PropertyImage
// @Router /properties/{id}/images [post]
func (s *Server) AddPropertyImage(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req addImageRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	image, err := s.propertyService.AddImage(c.UserContext(), middleware.ActorFrom(c), id, service.AddImageInput{
		URL:          req.URL,
		DisplayOrder: req.DisplayOrder,
	})
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(image)
}

// DeletePropertyImage handles DELETE /api/properties/:id/images/:imageId
// @Summary Remove an image
// @Tags properties
// @Security BearerAuth
// @Param id path string true "Property ID"
// @Param imageId path string true "Image ID"
// @Success 204
// @Router /properties/{id}/images/{imageId} [delete]
func (s *Server) DeletePropertyImage(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	imageID, err := s.parseID(c, "imageId")
	if err != nil {
		return nil
	}

	if err := s.propertyService.RemoveImage(c.UserContext(), middleware.ActorFrom(c), id, imageID); err != nil {
		return respondError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}
