package service

import (
	"context"

	"realestate/internal/access"
	"realestate/internal/models"
	"realestate/internal/observability"
	"realestate/internal/repository"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

// FavoriteService manages user bookmarks on listings. The unique index on
// (user_id, property_id) is authoritative; the existence check here only
// produces a friendlier error for the common case.
type FavoriteService struct {
	favoriteRepo repository.FavoriteRepository
	propertyRepo repository.PropertyRepository
}

func NewFavoriteService(favoriteRepo repository.FavoriteRepository, propertyRepo repository.PropertyRepository) *FavoriteService {
	return &FavoriteService{favoriteRepo: favoriteRepo, propertyRepo: propertyRepo}
}

func favoriteAttrs(userID, propertyID uuid.UUID) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("favorite.user_id", userID.String()),
		attribute.String("favorite.property_id", propertyID.String()),
	}
}

// Create stores the favorite of userID on propertyID.
func (s *FavoriteService) Create(ctx context.Context, actor access.Actor, userID, propertyID uuid.UUID) (fav *models.Favorite, err error) {
	ctx, span := observability.StartService(ctx, "FavoriteService", "Create", favoriteAttrs(userID, propertyID)...)
	defer func() { observability.EndSpan(span, err) }()

	ownerID, err := s.propertyRepo.OwnerOf(ctx, propertyID)
	if err != nil {
		return nil, err
	}

	resource := access.Favorite(userID, ownerID, false)
	if d := access.Authorize(actor, access.ActionCreate, resource); d.Reason == access.ReasonSelfReference {
		observability.FavoriteConflicts.WithLabelValues("self_reference").Inc()
	}
	if err := authorize(actor, access.ActionCreate, resource); err != nil {
		return nil, err
	}

	exists, err := s.favoriteRepo.Exists(ctx, userID, propertyID)
	if err != nil {
		return nil, err
	}
	if exists {
		observability.FavoriteConflicts.WithLabelValues("duplicate").Inc()
		resource.Exists = true
		if err := authorize(actor, access.ActionCreate, resource); err != nil {
			return nil, err
		}
		return nil, models.NewConflictError("Property is already in favorites")
	}

	fav = &models.Favorite{UserID: userID, PropertyID: propertyID}
	if err := s.favoriteRepo.Create(ctx, fav); err != nil {
		if models.HasCode(err, models.CodeConflict) {
			observability.FavoriteConflicts.WithLabelValues("race").Inc()
		}
		return nil, err
	}

	observability.FavoriteOps.WithLabelValues("add").Inc()
	return fav, nil
}

// Remove deletes the pair if present. Removing an absent favorite succeeds.
func (s *FavoriteService) Remove(ctx context.Context, actor access.Actor, userID, propertyID uuid.UUID) (err error) {
	ctx, span := observability.StartService(ctx, "FavoriteService", "Remove", favoriteAttrs(userID, propertyID)...)
	defer func() { observability.EndSpan(span, err) }()

	if err := authorize(actor, access.ActionDelete, access.Favorite(userID, uuid.Nil, false)); err != nil {
		return err
	}

	removed, err := s.favoriteRepo.Delete(ctx, userID, propertyID)
	if err != nil {
		return err
	}
	if removed {
		observability.FavoriteOps.WithLabelValues("remove").Inc()
	}
	return nil
}

// Toggle flips the actor's own favorite on propertyID and reports the new
// state. It is not atomic: a concurrent create surfaces as a conflict.
func (s *FavoriteService) Toggle(ctx context.Context, actor access.Actor, propertyID uuid.UUID) (bool, error) {
	if actor.IsAnonymous() {
		return false, authorize(actor, access.ActionCreate, access.Favorite(uuid.Nil, uuid.Nil, false))
	}
	userID := actor.ID()

	favorited, err := s.IsFavorite(ctx, actor, userID, propertyID)
	if err != nil {
		return false, err
	}
	if favorited {
		return false, s.Remove(ctx, actor, userID, propertyID)
	}
	if _, err := s.Create(ctx, actor, userID, propertyID); err != nil {
		return false, err
	}
	return true, nil
}

func (s *FavoriteService) IsFavorite(ctx context.Context, actor access.Actor, userID, propertyID uuid.UUID) (bool, error) {
	if err := authorize(actor, access.ActionRead, access.Favorite(userID, uuid.Nil, false)); err != nil {
		return false, err
	}
	return s.favoriteRepo.Exists(ctx, userID, propertyID)
}

// ListForUser returns the favorited listings of userID, newest favorite first.
func (s *FavoriteService) ListForUser(ctx context.Context, actor access.Actor, userID uuid.UUID) (props []models.Property, err error) {
	ctx, span := observability.StartService(ctx, "FavoriteService", "ListForUser",
		attribute.String("favorite.user_id", userID.String()))
	defer func() { observability.EndSpan(span, err) }()

	if err := authorize(actor, access.ActionRead, access.Favorite(userID, uuid.Nil, false)); err != nil {
		return nil, err
	}
	props, err = s.favoriteRepo.ListPropertiesForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if props == nil {
		props = []models.Property{}
	}
	return props, nil
}

// CountForProperty is public; the property must exist.
func (s *FavoriteService) CountForProperty(ctx context.Context, propertyID uuid.UUID) (int64, error) {
	if _, err := s.propertyRepo.OwnerOf(ctx, propertyID); err != nil {
		return 0, err
	}
	return s.favoriteRepo.CountForProperty(ctx, propertyID)
}
