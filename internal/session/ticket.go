package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"realestate/internal/access"
	"realestate/internal/models"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// TicketTTL is how long a websocket ticket can be redeemed.
const TicketTTL = 30 * time.Second

// ErrInvalidTicket is returned for unknown, expired or reused tickets.
var ErrInvalidTicket = errors.New("invalid or expired websocket ticket")

// Tickets issues short-lived single-use websocket tickets. Browsers cannot set
// headers on websocket upgrades, so the bearer token is exchanged for a ticket
// that travels in the query string instead.
type Tickets struct {
	rdb *redis.Client
}

// NewTickets returns a ticket store backed by Redis.
func NewTickets(rdb *redis.Client) *Tickets {
	return &Tickets{rdb: rdb}
}

func ticketKey(ticket string) string {
	return fmt.Sprintf("ws_ticket:%s", ticket)
}

// Issue stores a ticket for an authenticated actor.
func (t *Tickets) Issue(ctx context.Context, actor access.Actor) (string, error) {
	if t == nil || t.rdb == nil {
		return "", errors.New("websocket tickets require redis")
	}
	if actor.IsAnonymous() {
		return "", errors.New("websocket tickets require an authenticated actor")
	}
	ticket := uuid.NewString()
	value := actor.ID().String() + "|" + string(actor.Role())
	if err := t.rdb.Set(ctx, ticketKey(ticket), value, TicketTTL).Err(); err != nil {
		return "", err
	}
	return ticket, nil
}

// Redeem consumes a ticket and returns the actor it was issued to.
func (t *Tickets) Redeem(ctx context.Context, ticket string) (access.Actor, error) {
	if t == nil || t.rdb == nil || ticket == "" {
		return access.Anonymous(), ErrInvalidTicket
	}
	value, err := t.rdb.GetDel(ctx, ticketKey(ticket)).Result()
	if err != nil {
		return access.Anonymous(), ErrInvalidTicket
	}
	idPart, rolePart, ok := strings.Cut(value, "|")
	if !ok {
		return access.Anonymous(), ErrInvalidTicket
	}
	userID, err := uuid.Parse(idPart)
	if err != nil {
		return access.Anonymous(), ErrInvalidTicket
	}
	return access.ForRole(userID, models.Role(rolePart)), nil
}
