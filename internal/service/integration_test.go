package service

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"realestate/internal/access"
	"realestate/internal/database"
	"realestate/internal/models"
	"realestate/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:svc_%s?mode=memory&cache=shared", uuid.NewString()[:8])
	db, err := database.Open(sqlite.Open(dsn), logger.Silent)
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func TestFavoriteService_ParallelCreatesLeaveOneRow(t *testing.T) {
	db := newTestDB(t)
	users := repository.NewUserRepository(db)
	properties := repository.NewPropertyRepository(db)
	favorites := repository.NewFavoriteRepository(db)
	svc := NewFavoriteService(favorites, properties)
	ctx := context.Background()

	owner := &models.User{Name: "Owner", Email: "owner@example.com", Password: "x"}
	fan := &models.User{Name: "Fan", Email: "fan@example.com", Password: "x"}
	require.NoError(t, users.Create(ctx, owner))
	require.NoError(t, users.Create(ctx, fan))
	p := &models.Property{
		Title: "Flat", Address: "1 Main St", UserID: owner.ID,
		Type: models.PropertyTypeApartment, Status: models.PropertyStatusForSale, Location: models.LocationKyiv,
	}
	require.NoError(t, properties.Create(ctx, p))

	const n = 16
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Create(ctx, access.User(fan.ID), fan.ID, p.ID)
		}(i)
	}
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

	var rows int64
	require.NoError(t, db.Model(&models.Favorite{}).Where("user_id = ? AND property_id = ?", fan.ID, p.ID).Count(&rows).Error)
	assert.EqualValues(t, 1, rows)
}

func TestInquiryService_AnonymousRowsKeepContact(t *testing.T) {
	db := newTestDB(t)
	users := repository.NewUserRepository(db)
	properties := repository.NewPropertyRepository(db)
	svc := NewInquiryService(repository.NewInquiryRepository(db), properties, nil, nil)
	ctx := context.Background()

	owner := &models.User{Name: "Owner", Email: "owner@example.com", Password: "x"}
	require.NoError(t, users.Create(ctx, owner))
	p := &models.Property{
		Title: "House", Address: "2 Main St", UserID: owner.ID,
		Type: models.PropertyTypeHouse, Status: models.PropertyStatusForRent, Location: models.LocationOdesa,
	}
	require.NoError(t, properties.Create(ctx, p))

	_, err := svc.Submit(ctx, access.Anonymous(), SubmitInquiryInput{PropertyID: p.ID, Message: "no contact"})
	assertValidationError(t, err)
	_, err = svc.Submit(ctx, access.Anonymous(), SubmitInquiryInput{PropertyID: p.ID, Name: "Jane", Email: "jane@example.com", Message: "Hello"})
	require.NoError(t, err)

	var stored []models.Inquiry
	require.NoError(t, db.Where("user_id IS NULL").Find(&stored).Error)
	require.Len(t, stored, 1)
	for _, q := range stored {
		assert.NotEmpty(t, q.Name)
		assert.NotEmpty(t, q.Email)
		assert.NotEmpty(t, q.Message)
	}

	received, err := svc.ListForActor(ctx, access.User(owner.ID))
	require.NoError(t, err)
	require.Len(t, received.Received, 1)
	assert.Empty(t, received.Sent)
}
