package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/inquest-cli/internal/core/domain"
)

func TestSessionStore_SaveAndGet(t *testing.T) {
	store := NewSessionStore()
	ctx := context.Background()

	session := &domain.Session{
		ID:        "s1",
		Topic:     "distributed consensus",
		Status:    domain.StatusGathering,
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, store.SaveSession(ctx, session))

	got, err := store.GetSession(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "distributed consensus", got.Topic)
}

func TestSessionStore_GetNotFound(t *testing.T) {
	store := NewSessionStore()

	_, err := store.GetSession(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSessionStore_ListNewestFirst(t *testing.T) {
	store := NewSessionStore()
	ctx := context.Background()

	base := time.Now().UTC()
	require.NoError(t, store.SaveSession(ctx, &domain.Session{ID: "old", CreatedAt: base.Add(-time.Hour)}))
	require.NoError(t, store.SaveSession(ctx, &domain.Session{ID: "new", CreatedAt: base}))

	list, err := store.ListSessions(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "new", list[0].ID)
}

func TestSessionStore_TurnsInIndexOrder(t *testing.T) {
	store := NewSessionStore()
	ctx := context.Background()

	require.NoError(t, store.AppendTurn(ctx, &domain.SynthesisTurn{SessionID: "s1", Index: 1}))
	require.NoError(t, store.AppendTurn(ctx, &domain.SynthesisTurn{SessionID: "s1", Index: 0}))

	turns, err := store.ListTurns(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, turns, 2)
	assert.Equal(t, 0, turns[0].Index)
	assert.Equal(t, 1, turns[1].Index)
}

func TestSessionStore_DeleteRemovesTurns(t *testing.T) {
	store := NewSessionStore()
	ctx := context.Background()

	require.NoError(t, store.SaveSession(ctx, &domain.Session{ID: "s1"}))
	require.NoError(t, store.AppendTurn(ctx, &domain.SynthesisTurn{SessionID: "s1", Index: 0}))

	require.NoError(t, store.DeleteSession(ctx, "s1"))

	_, err := store.GetSession(ctx, "s1")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	turns, err := store.ListTurns(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, turns)
}
