package session

import (
	"context"
	"testing"

	"realestate/internal/access"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTickets_SingleUse(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = rdb.Close() }()

	ctx := context.Background()
	tickets := NewTickets(rdb)
	userID := uuid.New()

	ticket, err := tickets.Issue(ctx, access.Admin(userID))
	require.NoError(t, err)
	assert.Equal(t, TicketTTL, mr.TTL(ticketKey(ticket)))

	actor, err := tickets.Redeem(ctx, ticket)
	require.NoError(t, err)
	assert.True(t, actor.IsAdmin())
	assert.Equal(t, userID, actor.ID())

	_, err = tickets.Redeem(ctx, ticket)
	assert.ErrorIs(t, err, ErrInvalidTicket)
}

func TestTickets_Rejects(t *testing.T) {
	ctx := context.Background()

	_, err := NewTickets(nil).Issue(ctx, access.User(uuid.New()))
	assert.Error(t, err)

	_, err = NewTickets(nil).Redeem(ctx, "whatever")
	assert.ErrorIs(t, err, ErrInvalidTicket)

	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = rdb.Close() }()

	_, err = NewTickets(rdb).Issue(ctx, access.Anonymous())
	assert.Error(t, err)

	require.NoError(t, mr.Set(ticketKey("broken"), "not-a-uuid|User"))
	_, err = NewTickets(rdb).Redeem(ctx, "broken")
	assert.ErrorIs(t, err, ErrInvalidTicket)
}
