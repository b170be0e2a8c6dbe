// Package middleware provides authentication and request plumbing for the HTTP layer.
package middleware

import (
	"context"
	"strings"

	"realestate/internal/access"
	"realestate/internal/models"
	"realestate/internal/session"

	"github.com/gofiber/fiber/v2"
)

const (
	actorLocal   = "actor"
	sessionLocal = "session"
	userIDLocal  = "userID"
)

// SessionParser verifies bearer credentials.
type SessionParser interface {
	Parse(ctx context.Context, token string) (*session.Session, error)
}

// TicketRedeemer consumes websocket tickets.
type TicketRedeemer interface {
	Redeem(ctx context.Context, ticket string) (access.Actor, error)
}

// Authenticate resolves the request's actor. A missing Authorization header
// leaves the request anonymous; a present but invalid one is rejected, so a
// stale token never silently downgrades a caller.
//
// Websocket upgrades under /api/ws authenticate with a single-use ticket in the
// query string instead of a header.
func Authenticate(sessions SessionParser, tickets TicketRedeemer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if tickets != nil && strings.HasPrefix(c.Path(), "/api/ws") {
			if ticket := c.Query("ticket"); ticket != "" {
				actor, err := tickets.Redeem(c.UserContext(), ticket)
				if err != nil {
					return models.RespondWithError(c, fiber.StatusUnauthorized,
						models.NewUnauthorizedError("Invalid or expired websocket ticket"))
				}
				setActor(c, actor)
				return c.Next()
			}
		}

		header := c.Get(fiber.HeaderAuthorization)
		if header == "" {
			setActor(c, access.Anonymous())
			return c.Next()
		}

		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid authorization header format"))
		}

		s, err := sessions.Parse(c.UserContext(), strings.TrimSpace(token))
		if err != nil {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid or expired token"))
		}

		c.Locals(sessionLocal, s)
		setActor(c, s.Actor)
		return c.Next()
	}
}

func setActor(c *fiber.Ctx, actor access.Actor) {
	c.Locals(actorLocal, actor)
	if !actor.IsAnonymous() {
		c.Locals(userIDLocal, actor.ID())
		c.SetUserContext(WithUserID(c.UserContext(), actor.ID()))
	}
}

// ActorFrom returns the actor resolved by Authenticate, or Anonymous.
func ActorFrom(c *fiber.Ctx) access.Actor {
	if actor, ok := c.Locals(actorLocal).(access.Actor); ok {
		return actor
	}
	return access.Anonymous()
}

// SessionFrom returns the verified bearer session, if the request carried one.
func SessionFrom(c *fiber.Ctx) (*session.Session, bool) {
	s, ok := c.Locals(sessionLocal).(*session.Session)
	return s, ok && s != nil
}

// AuthRequired rejects anonymous requests.
func AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if ActorFrom(c).IsAnonymous() {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Authentication required"))
		}
		return c.Next()
	}
}

// AdminRequired rejects everyone but administrators.
func AdminRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor := ActorFrom(c)
		if actor.IsAnonymous() {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Authentication required"))
		}
		if !actor.IsAdmin() {
			return models.RespondWithError(c, fiber.StatusForbidden,
				models.NewForbiddenError("Admin access required"))
		}
		return c.Next()
	}
}
