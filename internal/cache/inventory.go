package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	UserKeyPrefix          = "user:%s"
	PropertyKeyPrefix      = "property:%s"
	FavoriteCountKeyPrefix = "property:%s:favorites"
)

const (
	UserTTL          = 5 * time.Minute
	PropertyTTL      = 10 * time.Minute
	FavoriteCountTTL = time.Minute
)

func UserKey(userID uuid.UUID) string {
	return fmt.Sprintf(UserKeyPrefix, userID)
}

func PropertyKey(propertyID uuid.UUID) string {
	return fmt.Sprintf(PropertyKeyPrefix, propertyID)
}

func FavoriteCountKey(propertyID uuid.UUID) string {
	return fmt.Sprintf(FavoriteCountKeyPrefix, propertyID)
}

func Invalidate(ctx context.Context, keys ...string) {
	if client != nil && len(keys) > 0 {
		client.Del(ctx, keys...)
	}
}

func InvalidateUser(ctx context.Context, userID uuid.UUID) {
	Invalidate(ctx, UserKey(userID))
}

// InvalidateProperty drops the cached property and its favorite count.
func InvalidateProperty(ctx context.Context, propertyID uuid.UUID) {
	Invalidate(ctx, PropertyKey(propertyID), FavoriteCountKey(propertyID))
}

func InvalidateFavoriteCount(ctx context.Context, propertyID uuid.UUID) {
	Invalidate(ctx, FavoriteCountKey(propertyID))
}
