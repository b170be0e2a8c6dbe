package repository

import (
	"context"

	"realestate/internal/cache"
	"realestate/internal/models"
	"realestate/internal/observability"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// FavoriteRepository stores (user, property) bookmarks. The unique index on
// the pair is the only guard against duplicates; Create reports a lost race
// as a conflict.
type FavoriteRepository interface {
	Create(ctx context.Context, favorite *models.Favorite) error
	Delete(ctx context.Context, userID, propertyID uuid.UUID) (bool, error)
	Exists(ctx context.Context, userID, propertyID uuid.UUID) (bool, error)
	ListPropertiesForUser(ctx context.Context, userID uuid.UUID) ([]models.Property, error)
	CountForProperty(ctx context.Context, propertyID uuid.UUID) (int64, error)
}

type favoriteRepository struct {
	db *gorm.DB
}

// NewFavoriteRepository returns a FavoriteRepository backed by db.
func NewFavoriteRepository(db *gorm.DB) FavoriteRepository {
	return &favoriteRepository{db: db}
}

func (r *favoriteRepository) Create(ctx context.Context, favorite *models.Favorite) (err error) {
	ctx, span := observability.StartRepository(ctx, "favorites", "Create")
	defer func() { observability.EndSpan(span, err) }()

	err = r.db.WithContext(ctx).Omit("User", "Property").Create(favorite).Error
	if err != nil {
		return translateError(err, "Favorite", favorite.ID, "Property already favorited")
	}
	cache.InvalidateFavoriteCount(ctx, favorite.PropertyID)
	return nil
}

// Delete reports whether a row was removed. Removing an absent pair is not an error.
func (r *favoriteRepository) Delete(ctx context.Context, userID, propertyID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND property_id = ?", userID, propertyID).
		Delete(&models.Favorite{})
	if res.Error != nil {
		return false, models.NewInternalError(res.Error)
	}
	if res.RowsAffected > 0 {
		cache.InvalidateFavoriteCount(ctx, propertyID)
	}
	return res.RowsAffected > 0, nil
}

func (r *favoriteRepository) Exists(ctx context.Context, userID, propertyID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Favorite{}).
		Where("user_id = ? AND property_id = ?", userID, propertyID).
		Count(&count).Error
	if err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

// ListPropertiesForUser joins through favorites, newest favorite first.
func (r *favoriteRepository) ListPropertiesForUser(ctx context.Context, userID uuid.UUID) (_ []models.Property, err error) {
	ctx, span := observability.StartRepository(ctx, "favorites", "ListPropertiesForUser")
	defer func() { observability.EndSpan(span, err) }()

	var properties []models.Property
	err = r.db.WithContext(ctx).
		Joins("JOIN favorites ON favorites.property_id = properties.id").
		Where("favorites.user_id = ?", userID).
		Order("favorites.created_at DESC").
		Preload("Images", orderedImages).
		Find(&properties).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return properties, nil
}

func (r *favoriteRepository) CountForProperty(ctx context.Context, propertyID uuid.UUID) (int64, error) {
	var count int64
	err := cache.Aside(ctx, cache.FavoriteCountKey(propertyID), &count, cache.FavoriteCountTTL, func() error {
		return r.db.WithContext(ctx).Model(&models.Favorite{}).
			Where("property_id = ?", propertyID).
			Count(&count).Error
	})
	if err != nil {
		return 0, models.NewInternalError(err)
	}
	return count, nil
}
