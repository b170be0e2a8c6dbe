package service

import (
	"context"
	"strings"

	"realestate/internal/access"
	"realestate/internal/middleware"
	"realestate/internal/models"
	"realestate/internal/repository"
	"realestate/internal/session"
	"realestate/internal/validation"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// TokenProvider issues and revokes session tokens.
type TokenProvider interface {
	Issue(userID uuid.UUID, role models.Role) (string, error)
	Revoke(ctx context.Context, s *session.Session) error
}

type AuthService struct {
	userRepo repository.UserRepository
	tokens   TokenProvider
	cost     int
}

type RegisterInput struct {
	Name     string
	Email    string
	Phone    string
	Password string
}

// AuthResult is returned by register and login.
type AuthResult struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

func NewAuthService(userRepo repository.UserRepository, tokens TokenProvider) *AuthService {
	return &AuthService{userRepo: userRepo, tokens: tokens, cost: bcrypt.DefaultCost}
}

// WithBcryptCost overrides the hashing cost. Tests use bcrypt.MinCost.
func (s *AuthService) WithBcryptCost(cost int) *AuthService {
	s.cost = cost
	return s
}

// Register creates a User-role account and signs it in.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Phone = strings.TrimSpace(in.Phone)

	errs := validation.Errors{}
	errs.Check("name", validation.ValidateName(in.Name))
	errs.Check("email", validation.ValidateEmail(in.Email))
	errs.Check("phone", validation.ValidatePhone(in.Phone))
	errs.Check("password", validation.ValidatePassword(in.Password))
	if err := errs.Err(); err != nil {
		return nil, err
	}

	existing, err := s.userRepo.GetByEmail(ctx, in.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, models.NewConflictError("User with this email already exists")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	user := &models.User{
		Name:     in.Name,
		Email:    in.Email,
		Phone:    in.Phone,
		Password: string(hashed),
		Role:     models.RoleUser,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	return s.signIn(user)
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, models.NewUnauthorizedError("Invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, models.NewUnauthorizedError("Invalid credentials")
	}
	return s.signIn(user)
}

// Logout revokes the presented session.
func (s *AuthService) Logout(ctx context.Context, actor access.Actor, sess *session.Session) error {
	if actor.IsAnonymous() || sess == nil {
		return models.NewUnauthorizedError("Authentication required")
	}
	if err := s.tokens.Revoke(ctx, sess); err != nil {
		middleware.Logger.WarnContext(ctx, "session revoke failed", "error", err)
		return models.NewInternalError(err)
	}
	return nil
}

func (s *AuthService) signIn(user *models.User) (*AuthResult, error) {
	token, err := s.tokens.Issue(user.ID, user.Role)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return &AuthResult{Token: token, User: user}, nil
}
