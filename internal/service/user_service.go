package service

import (
	"context"
	"strings"

	"realestate/internal/access"
	"realestate/internal/models"
	"realestate/internal/repository"
	"realestate/internal/validation"

	"github.com/google/uuid"
)

type UserService struct {
	userRepo repository.UserRepository
}

// UpdateProfileInput carries optional profile changes; nil fields are kept.
type UpdateProfileInput struct {
	Name  *string
	Phone *string
}

func NewUserService(userRepo repository.UserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

// ListUsers is admin-only.
func (s *UserService) ListUsers(ctx context.Context, actor access.Actor, limit, offset int) ([]models.User, error) {
	if err := authorize(actor, access.ActionRead, access.UserProfile(uuid.Nil)); err != nil {
		return nil, err
	}
	return s.userRepo.List(ctx, limit, offset)
}

// GetUser returns a profile to its owner or an admin.
func (s *UserService) GetUser(ctx context.Context, actor access.Actor, id uuid.UUID) (*models.User, error) {
	if err := authorize(actor, access.ActionRead, access.UserProfile(id)); err != nil {
		return nil, err
	}
	return s.userRepo.GetByID(ctx, id)
}

func (s *UserService) UpdateProfile(ctx context.Context, actor access.Actor, id uuid.UUID, in UpdateProfileInput) (*models.User, error) {
	if err := authorize(actor, access.ActionUpdate, access.UserProfile(id)); err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	errs := validation.Errors{}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		errs.Check("name", validation.ValidateName(name))
		user.Name = name
	}
	if in.Phone != nil {
		phone := strings.TrimSpace(*in.Phone)
		errs.Check("phone", validation.ValidatePhone(phone))
		user.Phone = phone
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// SetRole changes a user's role. It has no actor: the only caller is the
// operator CLI.
func (s *UserService) SetRole(ctx context.Context, idOrEmail string, role models.Role) (*models.User, error) {
	user, err := s.resolve(ctx, idOrEmail)
	if err != nil {
		return nil, err
	}
	if err := s.userRepo.SetRole(ctx, user.ID, role); err != nil {
		return nil, err
	}
	user.Role = role
	return user, nil
}

func (s *UserService) ListAdmins(ctx context.Context) ([]models.User, error) {
	return s.userRepo.ListByRole(ctx, models.RoleAdmin)
}

func (s *UserService) resolve(ctx context.Context, idOrEmail string) (*models.User, error) {
	if id, err := uuid.Parse(idOrEmail); err == nil {
		return s.userRepo.GetByID(ctx, id)
	}
	user, err := s.userRepo.GetByEmail(ctx, idOrEmail)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, models.NewNotFoundError("User", idOrEmail)
	}
	return user, nil
}
