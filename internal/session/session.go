// Package session issues and verifies the bearer credential that carries a
// user id and role. Sessions are stateless apart from an optional Redis
// revocation list keyed by token id.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"realestate/internal/access"
	"realestate/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const revokedKeyPrefix = "revoked:"

var (
	// ErrInvalidToken is returned for malformed, expired or foreign tokens.
	ErrInvalidToken = errors.New("invalid or expired token")
	// ErrRevokedToken is returned for tokens revoked through logout.
	ErrRevokedToken = errors.New("token has been revoked")
)

// Claims is the payload of a session token.
type Claims struct {
	Role models.Role `json:"role"`
	jwt.RegisteredClaims
}

// Session is a verified token.
type Session struct {
	Actor     access.Actor
	TokenID   string
	ExpiresAt time.Time
}

// Options configures a Provider.
type Options struct {
	Secret   string
	Issuer   string
	Audience string
	TTL      time.Duration
}

// Provider issues and verifies session tokens.
type Provider struct {
	secret   []byte
	issuer   string
	audience string
	ttl      time.Duration
	rdb      *redis.Client
	now      func() time.Time
}

// NewProvider returns a Provider. rdb may be nil, in which case revocation is a
// no-op and tokens stay valid until they expire.
func NewProvider(opts Options, rdb *redis.Client) *Provider {
	if opts.Issuer == "" {
		opts.Issuer = "realestate-api"
	}
	if opts.Audience == "" {
		opts.Audience = "realestate-client"
	}
	if opts.TTL <= 0 {
		opts.TTL = 7 * 24 * time.Hour
	}
	return &Provider{
		secret:   []byte(opts.Secret),
		issuer:   opts.Issuer,
		audience: opts.Audience,
		ttl:      opts.TTL,
		rdb:      rdb,
		now:      time.Now,
	}
}

// Issue creates a signed token for the user.
func (p *Provider) Issue(userID uuid.UUID, role models.Role) (string, error) {
	if len(p.secret) == 0 {
		return "", fmt.Errorf("JWT secret not configured")
	}
	if userID == uuid.Nil {
		return "", fmt.Errorf("cannot issue a session without a user id")
	}
	if !role.Valid() {
		role = models.RoleUser
	}

	now := p.now()
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			Issuer:    p.issuer,
			Audience:  jwt.ClaimStrings{p.audience},
			ExpiresAt: jwt.NewNumericDate(now.Add(p.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(p.secret)
}

// Parse verifies the token signature, issuer, audience and expiry and returns
// the session it encodes.
func (p *Provider) Parse(ctx context.Context, tokenString string) (*Session, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return p.secret, nil
	},
		jwt.WithIssuer(p.issuer),
		jwt.WithAudience(p.audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(p.now),
	)
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil || userID == uuid.Nil {
		return nil, ErrInvalidToken
	}

	if claims.ID != "" && p.rdb != nil {
		revoked, err := p.rdb.Exists(ctx, revokedKeyPrefix+claims.ID).Result()
		if err == nil && revoked > 0 {
			return nil, ErrRevokedToken
		}
	}

	s := &Session{
		Actor:   access.ForRole(userID, claims.Role),
		TokenID: claims.ID,
	}
	if claims.ExpiresAt != nil {
		s.ExpiresAt = claims.ExpiresAt.Time
	}
	return s, nil
}

// Revoke blacklists the session until it would have expired.
func (p *Provider) Revoke(ctx context.Context, s *Session) error {
	if p.rdb == nil || s == nil || s.TokenID == "" {
		return nil
	}
	ttl := s.ExpiresAt.Sub(p.now())
	if ttl <= 0 {
		return nil
	}
	return p.rdb.Set(ctx, revokedKeyPrefix+s.TokenID, "1", ttl).Err()
}
