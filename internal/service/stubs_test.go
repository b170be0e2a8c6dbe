package service

import (
	"context"
	"errors"
	"testing"

	"realestate/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errStubNotConfigured = errors.New("stub not configured")

type userRepoStub struct {
	getByIDFn    func(context.Context, uuid.UUID) (*models.User, error)
	getByEmailFn func(context.Context, string) (*models.User, error)
	createFn     func(context.Context, *models.User) error
	updateFn     func(context.Context, *models.User) error
	setRoleFn    func(context.Context, uuid.UUID, models.Role) error
	deleteFn     func(context.Context, uuid.UUID) error
	listFn       func(context.Context, int, int) ([]models.User, error)
	listByRoleFn func(context.Context, models.Role) ([]models.User, error)
}

func (s *userRepoStub) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return s.getByIDFn(ctx, id)
}
func (s *userRepoStub) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getByEmailFn(ctx, email)
}
func (s *userRepoStub) Create(ctx context.Context, user *models.User) error {
	return s.createFn(ctx, user)
}
func (s *userRepoStub) Update(ctx context.Context, user *models.User) error {
	return s.updateFn(ctx, user)
}
func (s *userRepoStub) SetRole(ctx context.Context, id uuid.UUID, role models.Role) error {
	return s.setRoleFn(ctx, id, role)
}
func (s *userRepoStub) Delete(ctx context.Context, id uuid.UUID) error {
	return s.deleteFn(ctx, id)
}
func (s *userRepoStub) List(ctx context.Context, limit, offset int) ([]models.User, error) {
	return s.listFn(ctx, limit, offset)
}
func (s *userRepoStub) ListByRole(ctx context.Context, role models.Role) ([]models.User, error) {
	return s.listByRoleFn(ctx, role)
}

func noopUserRepo() *userRepoStub {
	return &userRepoStub{
		getByIDFn:    func(context.Context, uuid.UUID) (*models.User, error) { return nil, errStubNotConfigured },
		getByEmailFn: func(context.Context, string) (*models.User, error) { return nil, nil },
		createFn:     func(context.Context, *models.User) error { return nil },
		updateFn:     func(context.Context, *models.User) error { return nil },
		setRoleFn:    func(context.Context, uuid.UUID, models.Role) error { return nil },
		deleteFn:     func(context.Context, uuid.UUID) error { return nil },
		listFn:       func(context.Context, int, int) ([]models.User, error) { return nil, nil },
		listByRoleFn: func(context.Context, models.Role) ([]models.User, error) { return nil, nil },
	}
}

type propertyRepoStub struct {
	createFn  func(context.Context, *models.Property) error
	getByIDFn func(context.Context, uuid.UUID) (*models.Property, error)
	ownerOfFn func(context.Context, uuid.UUID) (uuid.UUID, error)
	listFn    func(context.Context, models.PropertyFilter) ([]models.Property, int64, error)
	updateFn  func(context.Context, *models.Property) error
	deleteFn  func(context.Context, uuid.UUID) error
}

func (s *propertyRepoStub) Create(ctx context.Context, p *models.Property) error {
	return s.createFn(ctx, p)
}
func (s *propertyRepoStub) GetByID(ctx context.Context, id uuid.UUID) (*models.Property, error) {
	return s.getByIDFn(ctx, id)
}
func (s *propertyRepoStub) OwnerOf(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	return s.ownerOfFn(ctx, id)
}
func (s *propertyRepoStub) List(ctx context.Context, f models.PropertyFilter) ([]models.Property, int64, error) {
	return s.listFn(ctx, f)
}
func (s *propertyRepoStub) Update(ctx context.Context, p *models.Property) error {
	return s.updateFn(ctx, p)
}
func (s *propertyRepoStub) Delete(ctx context.Context, id uuid.UUID) error {
	return s.deleteFn(ctx, id)
}

// ownedBy returns a property stub whose listings all belong to owner.
func ownedBy(owner uuid.UUID) *propertyRepoStub {
	return &propertyRepoStub{
		createFn: func(context.Context, *models.Property) error { return nil },
		getByIDFn: func(_ context.Context, id uuid.UUID) (*models.Property, error) {
			return &models.Property{ID: id, UserID: owner, Title: "Listing"}, nil
		},
		ownerOfFn: func(context.Context, uuid.UUID) (uuid.UUID, error) { return owner, nil },
		listFn: func(context.Context, models.PropertyFilter) ([]models.Property, int64, error) {
			return nil, 0, nil
		},
		updateFn: func(context.Context, *models.Property) error { return nil },
		deleteFn: func(context.Context, uuid.UUID) error { return nil },
	}
}

func missingProperties() *propertyRepoStub {
	repo := ownedBy(uuid.Nil)
	repo.getByIDFn = func(_ context.Context, id uuid.UUID) (*models.Property, error) {
		return nil, models.NewNotFoundError("Property", id)
	}
	repo.ownerOfFn = func(_ context.Context, id uuid.UUID) (uuid.UUID, error) {
		return uuid.Nil, models.NewNotFoundError("Property", id)
	}
	return repo
}

type favoriteRepoStub struct {
	createFn    func(context.Context, *models.Favorite) error
	deleteFn    func(context.Context, uuid.UUID, uuid.UUID) (bool, error)
	existsFn    func(context.Context, uuid.UUID, uuid.UUID) (bool, error)
	listFn      func(context.Context, uuid.UUID) ([]models.Property, error)
	countFn     func(context.Context, uuid.UUID) (int64, error)
	createCalls int
	deleteCalls int
}

func (s *favoriteRepoStub) Create(ctx context.Context, f *models.Favorite) error {
	s.createCalls++
	return s.createFn(ctx, f)
}
func (s *favoriteRepoStub) Delete(ctx context.Context, userID, propertyID uuid.UUID) (bool, error) {
	s.deleteCalls++
	return s.deleteFn(ctx, userID, propertyID)
}
func (s *favoriteRepoStub) Exists(ctx context.Context, userID, propertyID uuid.UUID) (bool, error) {
	return s.existsFn(ctx, userID, propertyID)
}
func (s *favoriteRepoStub) ListPropertiesForUser(ctx context.Context, userID uuid.UUID) ([]models.Property, error) {
	return s.listFn(ctx, userID)
}
func (s *favoriteRepoStub) CountForProperty(ctx context.Context, propertyID uuid.UUID) (int64, error) {
	return s.countFn(ctx, propertyID)
}

// memoryFavorites keeps favorite pairs in a map.
func memoryFavorites() *favoriteRepoStub {
	type pair struct{ user, property uuid.UUID }
	rows := map[pair]bool{}
	return &favoriteRepoStub{
		createFn: func(_ context.Context, f *models.Favorite) error {
			k := pair{f.UserID, f.PropertyID}
			if rows[k] {
				return models.NewConflictError("Property already favorited")
			}
			rows[k] = true
			return nil
		},
		deleteFn: func(_ context.Context, u, p uuid.UUID) (bool, error) {
			k := pair{u, p}
			existed := rows[k]
			delete(rows, k)
			return existed, nil
		},
		existsFn: func(_ context.Context, u, p uuid.UUID) (bool, error) {
			return rows[pair{u, p}], nil
		},
		listFn: func(context.Context, uuid.UUID) ([]models.Property, error) { return nil, nil },
		countFn: func(_ context.Context, p uuid.UUID) (int64, error) {
			var n int64
			for k := range rows {
				if k.property == p {
					n++
				}
			}
			return n, nil
		},
	}
}

type inquiryRepoStub struct {
	createFn     func(context.Context, *models.Inquiry) error
	getByIDFn    func(context.Context, uuid.UUID) (*models.Inquiry, error)
	sentByFn     func(context.Context, uuid.UUID) ([]models.Inquiry, error)
	receivedByFn func(context.Context, uuid.UUID) ([]models.Inquiry, error)
	listFn       func(context.Context, int, int) ([]models.Inquiry, int64, error)
	deleteFn     func(context.Context, uuid.UUID) error
	deleteCalls  int
}

func (s *inquiryRepoStub) Create(ctx context.Context, q *models.Inquiry) error {
	return s.createFn(ctx, q)
}
func (s *inquiryRepoStub) GetByID(ctx context.Context, id uuid.UUID) (*models.Inquiry, error) {
	return s.getByIDFn(ctx, id)
}
func (s *inquiryRepoStub) SentBy(ctx context.Context, id uuid.UUID) ([]models.Inquiry, error) {
	return s.sentByFn(ctx, id)
}
func (s *inquiryRepoStub) ReceivedBy(ctx context.Context, id uuid.UUID) ([]models.Inquiry, error) {
	return s.receivedByFn(ctx, id)
}
func (s *inquiryRepoStub) List(ctx context.Context, limit, offset int) ([]models.Inquiry, int64, error) {
	return s.listFn(ctx, limit, offset)
}
func (s *inquiryRepoStub) Delete(ctx context.Context, id uuid.UUID) error {
	s.deleteCalls++
	return s.deleteFn(ctx, id)
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, code, appErr.Code)
}

func assertValidationError(t *testing.T, err error) {
	t.Helper()
	assertCode(t, err, models.CodeValidation)
}
