package repository

import (
	"context"

	"realestate/internal/cache"
	"realestate/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PropertyImageRepository defines storage operations for listing images.
type PropertyImageRepository interface {
	ListByProperty(ctx context.Context, propertyID uuid.UUID) ([]models.PropertyImage, error)
	Create(ctx context.Context, image *models.PropertyImage) error
	Delete(ctx context.Context, propertyID, imageID uuid.UUID) error
}

type propertyImageRepository struct {
	db *gorm.DB
}

// NewPropertyImageRepository returns a repository for listing images.
func NewPropertyImageRepository(db *gorm.DB) PropertyImageRepository {
	return &propertyImageRepository{db: db}
}

func (r *propertyImageRepository) ListByProperty(ctx context.Context, propertyID uuid.UUID) ([]models.PropertyImage, error) {
	var images []models.PropertyImage
	err := orderedImages(r.db.WithContext(ctx)).
		Where("property_id = ?", propertyID).
		Find(&images).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return images, nil
}

// Create appends the image after the current last one when DisplayOrder is
// zero.
func (r *propertyImageRepository) Create(ctx context.Context, image *models.PropertyImage) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if image.DisplayOrder == 0 {
			var maxOrder *int
			if err := tx.Model(&models.PropertyImage{}).
				Where("property_id = ?", image.PropertyID).
				Select("MAX(display_order)").
				Scan(&maxOrder).Error; err != nil {
				return err
			}
			if maxOrder != nil {
				image.DisplayOrder = *maxOrder + 1
			}
		}
		return tx.Create(image).Error
	})
	if err != nil {
		return translateError(err, "PropertyImage", image.ID, "Image already exists")
	}
	cache.InvalidateProperty(ctx, image.PropertyID)
	return nil
}

func (r *propertyImageRepository) Delete(ctx context.Context, propertyID, imageID uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Where("id = ? AND property_id = ?", imageID, propertyID).
		Delete(&models.PropertyImage{})
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("PropertyImage", imageID)
	}
	cache.InvalidateProperty(ctx, propertyID)
	return nil
}
