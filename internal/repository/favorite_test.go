package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"realestate/internal/cache"
	"realestate/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFavoriteRepository(t *testing.T) {
	db := newTestDB(t)
	repo := NewFavoriteRepository(db)
	ctx := context.Background()

	owner := createUser(t, db, "owner@example.com")
	fan := createUser(t, db, "fan@example.com")
	first := createProperty(t, db, owner.ID, "First")
	second := createProperty(t, db, owner.ID, "Second")

	require.NoError(t, repo.Create(ctx, &models.Favorite{UserID: fan.ID, PropertyID: first.ID, CreatedAt: time.Now().Add(-time.Hour)}))
	require.NoError(t, repo.Create(ctx, &models.Favorite{UserID: fan.ID, PropertyID: second.ID}))

	t.Run("duplicate pair is conflict", func(t *testing.T) {
		err := repo.Create(ctx, &models.Favorite{UserID: fan.ID, PropertyID: first.ID})
		assert.True(t, models.HasCode(err, models.CodeConflict))
	})

	t.Run("list newest first", func(t *testing.T) {
		props, err := repo.ListPropertiesForUser(ctx, fan.ID)
		require.NoError(t, err)
		require.Len(t, props, 2)
		assert.Equal(t, second.ID, props[0].ID)
		assert.Equal(t, first.ID, props[1].ID)

		empty, err := repo.ListPropertiesForUser(ctx, owner.ID)
		require.NoError(t, err)
		assert.Empty(t, empty)
	})

	t.Run("exists and delete", func(t *testing.T) {
		ok, err := repo.Exists(ctx, fan.ID, first.ID)
		require.NoError(t, err)
		assert.True(t, ok)

		removed, err := repo.Delete(ctx, fan.ID, first.ID)
		require.NoError(t, err)
		assert.True(t, removed)

		removed, err = repo.Delete(ctx, fan.ID, first.ID)
		require.NoError(t, err)
		assert.False(t, removed)

		ok, err = repo.Exists(ctx, fan.ID, first.ID)
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestFavoriteRepository_CountIsCachedAndInvalidated(t *testing.T) {
	mr := miniredis.RunT(t)
	cache.SetClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { cache.SetClient(nil) })

	db := newTestDB(t)
	repo := NewFavoriteRepository(db)
	ctx := context.Background()

	owner := createUser(t, db, "owner@example.com")
	fan := createUser(t, db, "fan@example.com")
	p := createProperty(t, db, owner.ID, "Flat")

	count, err := repo.CountForProperty(ctx, p.ID)
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.True(t, mr.Exists(cache.FavoriteCountKey(p.ID)))

	require.NoError(t, repo.Create(ctx, &models.Favorite{UserID: fan.ID, PropertyID: p.ID}))
	assert.False(t, mr.Exists(cache.FavoriteCountKey(p.ID)))

	count, err = repo.CountForProperty(ctx, p.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestFavoriteRepository_ConcurrentCreateHitsUniqueIndex(t *testing.T) {
	db := newTestDB(t)
	repo := NewFavoriteRepository(db)
	ctx := context.Background()

	owner := createUser(t, db, "owner@example.com")
	fan := createUser(t, db, "fan@example.com")
	p := createProperty(t, db, owner.ID, "Contested")

	// No existence check here: every writer goes straight to the insert.
	const n = 16
	start := make(chan struct{})
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			errs[i] = repo.Create(ctx, &models.Favorite{UserID: fan.ID, PropertyID: p.ID})
		}()
	}
	close(start)
	wg.Wait()

	var ok int
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.True(t, models.HasCode(err, models.CodeConflict), "unexpected error %v", err)
	}
	assert.Equal(t, 1, ok)

	count, err := repo.CountForProperty(ctx, p.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}
