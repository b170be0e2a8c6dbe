package service

import (
	"context"
	"testing"

	"realestate/internal/access"
	"realestate/internal/featureflags"
	"realestate/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type imageRepoStub struct {
	created []*models.PropertyImage
	deleted []uuid.UUID
}

func (s *imageRepoStub) ListByProperty(context.Context, uuid.UUID) ([]models.PropertyImage, error) {
	return nil, nil
}
func (s *imageRepoStub) Create(_ context.Context, img *models.PropertyImage) error {
	s.created = append(s.created, img)
	return nil
}
func (s *imageRepoStub) Delete(_ context.Context, _, imageID uuid.UUID) error {
	s.deleted = append(s.deleted, imageID)
	return nil
}

func validListing() PropertyInput {
	return PropertyInput{
		Title:     "Flat",
		Price:     90000,
		Bedrooms:  2,
		Bathrooms: 1,
		Area:      48,
		Address:   "5 Rynok Sq",
		Type:      models.PropertyTypeApartment,
		Status:    models.PropertyStatusForSale,
		Location:  models.LocationLviv,
	}
}

func TestPropertyService_Create(t *testing.T) {
	t.Parallel()
	actorID := uuid.New()

	t.Run("owner is the actor", func(t *testing.T) {
		t.Parallel()
		repo := ownedBy(actorID)
		var created *models.Property
		repo.createFn = func(_ context.Context, p *models.Property) error {
			p.ID = uuid.New()
			created = p
			return nil
		}
		svc := NewPropertyService(repo, &imageRepoStub{}, memoryFavorites(), nil)
		_, err := svc.CreateProperty(context.Background(), access.User(actorID), validListing())
		require.NoError(t, err)
		assert.Equal(t, actorID, created.UserID)
		assert.NotNil(t, created.Features)
	})

	t.Run("anonymous", func(t *testing.T) {
		t.Parallel()
		svc := NewPropertyService(ownedBy(actorID), &imageRepoStub{}, memoryFavorites(), nil)
		_, err := svc.CreateProperty(context.Background(), access.Anonymous(), validListing())
		assertCode(t, err, models.CodeUnauthorized)
	})

	t.Run("invalid enums", func(t *testing.T) {
		t.Parallel()
		in := validListing()
		in.Type = "Castle"
		in.Location = "Paris"
		in.Price = -1
		svc := NewPropertyService(ownedBy(actorID), &imageRepoStub{}, memoryFavorites(), nil)
		_, err := svc.CreateProperty(context.Background(), access.User(actorID), in)
		assertValidationError(t, err)
		fields := err.(*models.AppError).Fields
		assert.Contains(t, fields, "type")
		assert.Contains(t, fields, "location")
		assert.Contains(t, fields, "price")
	})
}

func TestPropertyService_OwnershipChecks(t *testing.T) {
	t.Parallel()
	owner := uuid.New()
	propertyID := uuid.New()
	ctx := context.Background()

	tests := []struct {
		name  string
		actor access.Actor
		code  string
	}{
		{"owner", access.User(owner), ""},
		{"admin", access.Admin(uuid.New()), ""},
		{"other user", access.User(uuid.New()), models.CodeForbidden},
		{"anonymous", access.Anonymous(), models.CodeUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			images := &imageRepoStub{}
			svc := NewPropertyService(ownedBy(owner), images, memoryFavorites(), nil)

			_, errUpdate := svc.UpdateProperty(ctx, tt.actor, propertyID, validListing())
			errDelete := svc.DeleteProperty(ctx, tt.actor, propertyID)
			_, errImage := svc.AddImage(ctx, tt.actor, propertyID, AddImageInput{URL: "https://cdn.example.com/a.jpg"})
			errRemove := svc.RemoveImage(ctx, tt.actor, propertyID, uuid.New())

			for _, err := range []error{errUpdate, errDelete, errImage, errRemove} {
				if tt.code == "" {
					assert.NoError(t, err)
				} else {
					assertCode(t, err, tt.code)
				}
			}
			if tt.code != "" {
				assert.Empty(t, images.created)
				assert.Empty(t, images.deleted)
			}
		})
	}

	t.Run("anyone reads images", func(t *testing.T) {
		svc := NewPropertyService(ownedBy(owner), &imageRepoStub{}, memoryFavorites(), nil)
		_, err := svc.ListImages(ctx, access.Anonymous(), propertyID)
		assert.NoError(t, err)
	})

	t.Run("bad image url", func(t *testing.T) {
		svc := NewPropertyService(ownedBy(owner), &imageRepoStub{}, memoryFavorites(), nil)
		_, err := svc.AddImage(ctx, access.User(owner), propertyID, AddImageInput{URL: "javascript:alert(1)"})
		assertValidationError(t, err)
	})
}

func TestPropertyService_GetFavoriteCountBehindFlag(t *testing.T) {
	t.Parallel()
	owner := uuid.New()
	propertyID := uuid.New()
	favs := memoryFavorites()
	require.NoError(t, favs.Create(context.Background(), &models.Favorite{UserID: uuid.New(), PropertyID: propertyID}))

	off := NewPropertyService(ownedBy(owner), &imageRepoStub{}, favs, featureflags.NewManager(""))
	p, err := off.GetProperty(context.Background(), access.Anonymous(), propertyID)
	require.NoError(t, err)
	assert.Zero(t, p.FavoritesCount)

	on := NewPropertyService(ownedBy(owner), &imageRepoStub{}, favs, featureflags.NewManager("favorite_counts=on"))
	p, err = on.GetProperty(context.Background(), access.Anonymous(), propertyID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, p.FavoritesCount)
}
