package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wricardo/courtqueue/game/engine"
)

// runStoreContract exercises the behavior every backend must share. newStore
// must return an empty store.
func runStoreContract(t *testing.T, newStore func(t *testing.T) Store) {
	ctx := context.Background()

	sample := func() *engine.Session {
		return &engine.Session{
			Mode:   engine.ModeWinnerStaysOn,
			Queue:  []engine.Team{{ID: "c", Name: "Charlie"}},
			InPlay: []engine.Team{{ID: "a", Name: "Alpha"}, {ID: "b", Name: "Bravo"}},
			Score:  engine.Score{Team1: 3, Team2: 5},
		}
	}

	t.Run("get missing", func(t *testing.T) {
		store := newStore(t)
		_, err := store.Get(ctx, "court-1")
		assert.ErrorIs(t, err, engine.ErrNotFound)
		assert.NotErrorIs(t, err, engine.ErrStorageUnavailable)
	})

	t.Run("put and get", func(t *testing.T) {
		store := newStore(t)
		require.NoError(t, store.Put(ctx, "court-1", sample()))

		got, err := store.Get(ctx, "court-1")
		require.NoError(t, err)
		assert.Equal(t, sample(), got)
	})

	t.Run("put replaces", func(t *testing.T) {
		store := newStore(t)
		require.NoError(t, store.Put(ctx, "court-1", sample()))
		require.NoError(t, store.Put(ctx, "court-1", engine.NewSession()))

		got, err := store.Get(ctx, "court-1")
		require.NoError(t, err)
		assert.Equal(t, engine.NewSession(), got)
	})

	t.Run("empty session keeps its shape", func(t *testing.T) {
		store := newStore(t)
		require.NoError(t, store.Put(ctx, "court-1", &engine.Session{}))

		got, err := store.Get(ctx, "court-1")
		require.NoError(t, err)
		assert.NotNil(t, got.Queue)
		assert.NotNil(t, got.InPlay)
		assert.Equal(t, engine.ModeUnset, got.Mode)
	})

	t.Run("area ids are case sensitive", func(t *testing.T) {
		store := newStore(t)
		require.NoError(t, store.Put(ctx, "Court", sample()))

		_, err := store.Get(ctx, "court")
		assert.ErrorIs(t, err, engine.ErrNotFound)
	})

	t.Run("list is sorted", func(t *testing.T) {
		store := newStore(t)
		for _, id := range []string{"north", "east", "south court", "west"} {
			require.NoError(t, store.Put(ctx, id, engine.NewSession()))
		}

		ids, err := store.List(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"east", "north", "south court", "west"}, ids)
	})

	t.Run("clear empties", func(t *testing.T) {
		store := newStore(t)
		require.NoError(t, store.Put(ctx, "a", sample()))
		require.NoError(t, store.Put(ctx, "b", sample()))
		require.NoError(t, store.Clear(ctx))

		ids, err := store.List(ctx)
		require.NoError(t, err)
		assert.Empty(t, ids)

		_, err = store.Get(ctx, "a")
		assert.ErrorIs(t, err, engine.ErrNotFound)

		// the store stays usable after a clear
		require.NoError(t, store.Put(ctx, "a", sample()))
		_, err = store.Get(ctx, "a")
		assert.NoError(t, err)
	})

	t.Run("arbitrary area ids", func(t *testing.T) {
		store := newStore(t)
		ids := []string{"index", "areas", "Court 1/2", " ", "a:b", "../etc", "pista 1 ñ", "コート"}
		for _, id := range ids {
			s := sample()
			s.Score.Team1 = len(id)
			require.NoError(t, store.Put(ctx, id, s), "put %q", id)
		}

		for _, id := range ids {
			got, err := store.Get(ctx, id)
			require.NoError(t, err, "get %q", id)
			assert.Equal(t, len(id), got.Score.Team1, "area %q", id)
		}

		listed, err := store.List(ctx)
		require.NoError(t, err)
		assert.ElementsMatch(t, ids, listed)

		require.NoError(t, store.Clear(ctx))
		listed, err = store.List(ctx)
		require.NoError(t, err)
		assert.Empty(t, listed)
		for _, id := range ids {
			_, err := store.Get(ctx, id)
			assert.ErrorIs(t, err, engine.ErrNotFound, "area %q survived clear", id)
		}
	})

	t.Run("clear on empty store", func(t *testing.T) {
		store := newStore(t)
		assert.NoError(t, store.Clear(ctx))
	})

	t.Run("returned sessions are copies", func(t *testing.T) {
		store := newStore(t)
		original := sample()
		require.NoError(t, store.Put(ctx, "court-1", original))

		// mutating the value passed to Put must not leak in
		original.Queue[0].Name = "mutated"

		got, err := store.Get(ctx, "court-1")
		require.NoError(t, err)
		assert.Equal(t, "Charlie", got.Queue[0].Name)

		got.InPlay = nil
		again, err := store.Get(ctx, "court-1")
		require.NoError(t, err)
		assert.Len(t, again.InPlay, 2)
	})

	t.Run("invalid put", func(t *testing.T) {
		store := newStore(t)
		assert.ErrorIs(t, store.Put(ctx, "", sample()), engine.ErrInvalidInput)
		assert.ErrorIs(t, store.Put(ctx, "court-1", nil), engine.ErrInvalidInput)
	})
}
