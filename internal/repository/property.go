package repository

import (
	"context"
	"strings"

	"realestate/internal/cache"
	"realestate/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PropertyRepository defines the interface for property data operations
type PropertyRepository interface {
	Create(ctx context.Context, property *models.Property) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Property, error)
	OwnerOf(ctx context.Context, id uuid.UUID) (uuid.UUID, error)
	List(ctx context.Context, filter models.PropertyFilter) ([]models.Property, int64, error)
	Update(ctx context.Context, property *models.Property) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type propertyRepository struct {
	db *gorm.DB
}

// NewPropertyRepository creates a new property repository
func NewPropertyRepository(db *gorm.DB) PropertyRepository {
	return &propertyRepository{db: db}
}

func orderedImages(db *gorm.DB) *gorm.DB {
	return db.Order("display_order ASC, created_at ASC")
}

func (r *propertyRepository) Create(ctx context.Context, property *models.Property) error {
	err := r.db.WithContext(ctx).Omit("User").Create(property).Error
	return translateError(err, "Property", property.ID, "Property already exists")
}

// GetByID returns the property with its images and owner. The result is cached.
func (r *propertyRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Property, error) {
	var property models.Property
	err := cache.Aside(ctx, cache.PropertyKey(id), &property, cache.PropertyTTL, func() error {
		return r.db.WithContext(ctx).
			Preload("Images", orderedImages).
			Preload("User").
			First(&property, "id = ?", id).Error
	})
	if err != nil {
		return nil, translateError(err, "Property", id, "")
	}
	return &property, nil
}

// OwnerOf reads only the owner column; authorization needs nothing else.
func (r *propertyRepository) OwnerOf(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	var owner struct{ UserID uuid.UUID }
	err := r.db.WithContext(ctx).Model(&models.Property{}).
		Select("user_id").
		Where("id = ?", id).
		Take(&owner).Error
	if err != nil {
		return uuid.Nil, translateError(err, "Property", id, "")
	}
	return owner.UserID, nil
}

func (r *propertyRepository) List(ctx context.Context, filter models.PropertyFilter) ([]models.Property, int64, error) {
	query := func() *gorm.DB {
		return r.applyFilter(r.db.WithContext(ctx).Model(&models.Property{}), filter)
	}

	var total int64
	if err := query().Count(&total).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}

	limit, offset := page(filter.Limit, filter.Offset)
	var properties []models.Property
	err := query().Preload("Images", orderedImages).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&properties).Error
	if err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	return properties, total, nil
}

func (r *propertyRepository) applyFilter(q *gorm.DB, f models.PropertyFilter) *gorm.DB {
	if f.Type != "" {
		q = q.Where("type = ?", f.Type)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Location != "" {
		q = q.Where("location = ?", f.Location)
	}
	if f.MinPrice > 0 {
		q = q.Where("price >= ?", f.MinPrice)
	}
	if f.MaxPrice > 0 {
		q = q.Where("price <= ?", f.MaxPrice)
	}
	if f.MinBedrooms > 0 {
		q = q.Where("bedrooms >= ?", f.MinBedrooms)
	}
	if f.OwnerID != uuid.Nil {
		q = q.Where("user_id = ?", f.OwnerID)
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		q = q.Where("LOWER(title) LIKE ? OR LOWER(description) LIKE ? OR LOWER(address) LIKE ?", like, like, like)
	}
	return q
}

// Update saves the listing fields. Ownership and images are not changed here.
func (r *propertyRepository) Update(ctx context.Context, property *models.Property) error {
	res := r.db.WithContext(ctx).Model(&models.Property{}).
		Where("id = ?", property.ID).
		Select("title", "description", "price", "bedrooms", "bathrooms", "area",
			"address", "type", "status", "location", "features", "updated_at").
		Updates(property)
	if res.Error != nil {
		return translateError(res.Error, "Property", property.ID, "")
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Property", property.ID)
	}
	cache.InvalidateProperty(ctx, property.ID)
	return nil
}

// Delete removes the property; images, favorites and inquiries cascade.
func (r *propertyRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&models.Property{}, "id = ?", id)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Property", id)
	}
	cache.InvalidateProperty(ctx, id)
	return nil
}
