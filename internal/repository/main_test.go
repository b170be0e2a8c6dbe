package repository

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"realestate/internal/database"
	"realestate/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens an isolated in-memory sqlite database with the full schema.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%s?mode=memory&cache=shared", name, uuid.NewString()[:8])

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

func createUser(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()
	u := &models.User{Name: "User " + email, Email: email, Password: "hash", Phone: "+380501112233"}
	require.NoError(t, NewUserRepository(db).Create(context.Background(), u))
	return u
}

func createProperty(t *testing.T, db *gorm.DB, owner uuid.UUID, title string) *models.Property {
	t.Helper()
	p := &models.Property{
		Title:     title,
		Price:     100000,
		Bedrooms:  2,
		Bathrooms: 1,
		Area:      55,
		Address:   "1 Khreshchatyk St",
		Type:      models.PropertyTypeApartment,
		Status:    models.PropertyStatusForSale,
		Location:  models.LocationKyiv,
		UserID:    owner,
	}
	require.NoError(t, NewPropertyRepository(db).Create(context.Background(), p))
	return p
}
