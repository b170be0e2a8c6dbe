package service

import (
	"context"
	"strings"

	"realestate/internal/access"
	"realestate/internal/featureflags"
	"realestate/internal/middleware"
	"realestate/internal/models"
	"realestate/internal/repository"
	"realestate/internal/validation"

	"github.com/google/uuid"
)

type PropertyService struct {
	propertyRepo repository.PropertyRepository
	imageRepo    repository.PropertyImageRepository
	favoriteRepo repository.FavoriteRepository
	flags        *featureflags.Manager
}

// PropertyInput is the writable part of a listing.
type PropertyInput struct {
	Title       string
	Description string
	Price       float64
	Bedrooms    int
	Bathrooms   int
	Area        float64
	Address     string
	Type        models.PropertyType
	Status      models.PropertyStatus
	Location    models.PropertyLocation
	Features    []string
}

type AddImageInput struct {
	URL          string
	DisplayOrder int
}

func NewPropertyService(
	propertyRepo repository.PropertyRepository,
	imageRepo repository.PropertyImageRepository,
	favoriteRepo repository.FavoriteRepository,
	flags *featureflags.Manager,
) *PropertyService {
	return &PropertyService{
		propertyRepo: propertyRepo,
		imageRepo:    imageRepo,
		favoriteRepo: favoriteRepo,
		flags:        flags,
	}
}

func (in PropertyInput) validate() error {
	errs := validation.Errors{}
	errs.Check("title", validation.ValidateTitle(in.Title))
	errs.Check("address", validation.ValidateAddress(in.Address))
	errs.Check("features", validation.ValidateFeatures(in.Features))
	if in.Price < 0 {
		errs.Add("price", "price must not be negative")
	}
	if in.Area < 0 {
		errs.Add("area", "area must not be negative")
	}
	if in.Bedrooms < 0 {
		errs.Add("bedrooms", "bedrooms must not be negative")
	}
	if in.Bathrooms < 0 {
		errs.Add("bathrooms", "bathrooms must not be negative")
	}
	if !in.Type.Valid() {
		errs.Add("type", "unknown property type")
	}
	if !in.Status.Valid() {
		errs.Add("status", "unknown property status")
	}
	if !in.Location.Valid() {
		errs.Add("location", "unknown location")
	}
	return errs.Err()
}

func (in PropertyInput) apply(p *models.Property) {
	p.Title = strings.TrimSpace(in.Title)
	p.Description = in.Description
	p.Price = in.Price
	p.Bedrooms = in.Bedrooms
	p.Bathrooms = in.Bathrooms
	p.Area = in.Area
	p.Address = strings.TrimSpace(in.Address)
	p.Type = in.Type
	p.Status = in.Status
	p.Location = in.Location
	p.Features = in.Features
	if p.Features == nil {
		p.Features = []string{}
	}
}

// ListProperties is public.
func (s *PropertyService) ListProperties(ctx context.Context, filter models.PropertyFilter) ([]models.Property, int64, error) {
	return s.propertyRepo.List(ctx, filter)
}

// ListMine returns the actor's own listings.
func (s *PropertyService) ListMine(ctx context.Context, actor access.Actor, limit, offset int) ([]models.Property, int64, error) {
	if actor.IsAnonymous() {
		return nil, 0, models.NewUnauthorizedError("Authentication required")
	}
	return s.propertyRepo.List(ctx, models.PropertyFilter{OwnerID: actor.ID(), Limit: limit, Offset: offset})
}

// GetProperty returns the listing with images and owner. The favorite count is
// filled when the favorite_counts flag is on for the actor.
func (s *PropertyService) GetProperty(ctx context.Context, actor access.Actor, id uuid.UUID) (*models.Property, error) {
	p, err := s.propertyRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorize(actor, access.ActionRead, access.Property(p.UserID)); err != nil {
		return nil, err
	}

	if s.flags.Enabled(featureflags.FavoriteCounts, actor.ID()) {
		count, err := s.favoriteRepo.CountForProperty(ctx, id)
		if err != nil {
			middleware.Logger.WarnContext(ctx, "favorite count unavailable", "property_id", id, "error", err)
		} else {
			p.FavoritesCount = count
		}
	}
	return p, nil
}

func (s *PropertyService) CreateProperty(ctx context.Context, actor access.Actor, in PropertyInput) (*models.Property, error) {
	if err := authorize(actor, access.ActionCreate, access.Property(uuid.Nil)); err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	p := &models.Property{UserID: actor.ID()}
	in.apply(p)
	if err := s.propertyRepo.Create(ctx, p); err != nil {
		return nil, err
	}
	return s.propertyRepo.GetByID(ctx, p.ID)
}

func (s *PropertyService) UpdateProperty(ctx context.Context, actor access.Actor, id uuid.UUID, in PropertyInput) (*models.Property, error) {
	if err := s.authorizeOwner(ctx, actor, access.ActionUpdate, id, access.Property); err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	p := &models.Property{ID: id}
	in.apply(p)
	if err := s.propertyRepo.Update(ctx, p); err != nil {
		return nil, err
	}
	return s.propertyRepo.GetByID(ctx, id)
}

func (s *PropertyService) DeleteProperty(ctx context.Context, actor access.Actor, id uuid.UUID) error {
	if err := s.authorizeOwner(ctx, actor, access.ActionDelete, id, access.Property); err != nil {
		return err
	}
	return s.propertyRepo.Delete(ctx, id)
}

func (s *PropertyService) ListImages(ctx context.Context, actor access.Actor, propertyID uuid.UUID) ([]models.PropertyImage, error) {
	if err := s.authorizeOwner(ctx, actor, access.ActionRead, propertyID, access.PropertyImage); err != nil {
		return nil, err
	}
	return s.imageRepo.ListByProperty(ctx, propertyID)
}

func (s *PropertyService) AddImage(ctx context.Context, actor access.Actor, propertyID uuid.UUID, in AddImageInput) (*models.PropertyImage, error) {
	if err := s.authorizeOwner(ctx, actor, access.ActionCreate, propertyID, access.PropertyImage); err != nil {
		return nil, err
	}
	url := strings.TrimSpace(in.URL)
	if err := validation.ValidateImageURL(url); err != nil {
		return nil, models.NewFieldValidationError(map[string]string{"url": err.Error()})
	}
	if in.DisplayOrder < 0 {
		return nil, models.NewFieldValidationError(map[string]string{"displayOrder": "display order must not be negative"})
	}

	img := &models.PropertyImage{PropertyID: propertyID, URL: url, DisplayOrder: in.DisplayOrder}
	if err := s.imageRepo.Create(ctx, img); err != nil {
		return nil, err
	}
	return img, nil
}

func (s *PropertyService) RemoveImage(ctx context.Context, actor access.Actor, propertyID, imageID uuid.UUID) error {
	if err := s.authorizeOwner(ctx, actor, access.ActionDelete, propertyID, access.PropertyImage); err != nil {
		return err
	}
	return s.imageRepo.Delete(ctx, propertyID, imageID)
}

// authorizeOwner loads the owner of propertyID and checks action against the
// resource built by kind. Anonymous writes are refused before any lookup.
func (s *PropertyService) authorizeOwner(
	ctx context.Context,
	actor access.Actor,
	action access.Action,
	propertyID uuid.UUID,
	kind func(uuid.UUID) access.Resource,
) error {
	if action != access.ActionRead && actor.IsAnonymous() {
		return authorize(actor, action, kind(uuid.Nil))
	}
	ownerID, err := s.propertyRepo.OwnerOf(ctx, propertyID)
	if err != nil {
		return err
	}
	return authorize(actor, action, kind(ownerID))
}
