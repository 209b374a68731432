package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"relay/infrastructure"
	"relay/internal/user"
)

// exercise runs the behaviour every user.Store implementation must share.
func exercise(t *testing.T, store user.Store) {
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	newUser := func(name string) *user.User {
		u := &user.User{
			ID:           uuid.New(),
			Email:        name + "-" + uuid.NewString()[:8] + "@Example.com",
			FullName:     name,
			PasswordHash: "hash",
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		require.NoError(t, store.Create(ctx, u))
		return u
	}

	t.Run("create and lookup", func(t *testing.T) {
		u := newUser("alice")

		byID, err := store.ByID(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, u.FullName, byID.FullName)

		byEmail, err := store.ByEmail(ctx, u.Email)
		require.NoError(t, err)
		assert.Equal(t, u.ID, byEmail.ID)

		err = store.Create(ctx, &user.User{ID: uuid.New(), Email: u.Email, FullName: "dup",
			PasswordHash: "x", CreatedAt: now, UpdatedAt: now})
		assert.ErrorIs(t, err, infrastructure.ErrUserAlreadyExists)

		_, err = store.ByID(ctx, uuid.New())
		assert.ErrorIs(t, err, infrastructure.ErrNotFound)
	})

	t.Run("updates", func(t *testing.T) {
		u := newUser("bob")

		updated, err := store.UpdateProfilePic(ctx, u.ID, "https://cdn/pic.png")
		require.NoError(t, err)
		assert.Equal(t, "https://cdn/pic.png", updated.ProfilePic)

		require.NoError(t, store.UpdatePassword(ctx, u.ID, "new-hash"))
		got, err := store.ByID(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, "new-hash", got.PasswordHash)

		assert.ErrorIs(t, store.UpdatePassword(ctx, uuid.New(), "h"), infrastructure.ErrUserNotFound)
	})

	t.Run("relations derive mirrored sets", func(t *testing.T) {
		a, b, c := newUser("a"), newUser("b"), newUser("c")

		err := store.Atomically(ctx, []uuid.UUID{a.ID, b.ID}, func(tx user.Tx) error {
			assert.True(t, tx.Exists(a.ID))
			assert.True(t, tx.Exists(b.ID))
			return tx.SetRelation(a.ID, b.ID, user.Pending(a.ID))
		})
		require.NoError(t, err)
		require.NoError(t, store.Atomically(ctx, []uuid.UUID{a.ID, c.ID}, func(tx user.Tx) error {
			return tx.SetRelation(c.ID, a.ID, user.Contact)
		}))

		rel, err := store.Relation(ctx, b.ID, a.ID)
		require.NoError(t, err)
		assert.True(t, rel.PendingFrom(a.ID))

		outgoing, err := store.Related(ctx, a.ID, user.KindOutgoing)
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{b.ID}, outgoing)

		incoming, err := store.Related(ctx, b.ID, user.KindIncoming)
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{a.ID}, incoming)

		contactsA, err := store.Related(ctx, a.ID, user.KindContacts)
		require.NoError(t, err)
		contactsC, err := store.Related(ctx, c.ID, user.KindContacts)
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{c.ID}, contactsA)
		assert.Equal(t, []uuid.UUID{a.ID}, contactsC)

		users, err := store.ByIDs(ctx, []uuid.UUID{c.ID, a.ID})
		require.NoError(t, err)
		require.Len(t, users, 2)
		assert.Equal(t, "a", users[0].FullName)
	})

	t.Run("failed transaction leaves no trace", func(t *testing.T) {
		a, b := newUser("x"), newUser("y")
		boom := errors.New("boom")

		err := store.Atomically(ctx, []uuid.UUID{a.ID, b.ID}, func(tx user.Tx) error {
			require.NoError(t, tx.SetRelation(a.ID, b.ID, user.Contact))
			require.NoError(t, tx.SetBlocked(a.ID, b.ID, true))
			return boom
		})
		assert.ErrorIs(t, err, boom)

		rel, err := store.Relation(ctx, a.ID, b.ID)
		require.NoError(t, err)
		assert.Equal(t, user.NoRelation, rel)
		blocked, err := store.IsBlocked(ctx, a.ID, b.ID)
		require.NoError(t, err)
		assert.False(t, blocked)
	})

	t.Run("blocks are directional", func(t *testing.T) {
		a, b := newUser("p"), newUser("q")

		require.NoError(t, store.Atomically(ctx, []uuid.UUID{a.ID, b.ID}, func(tx user.Tx) error {
			return tx.SetBlocked(b.ID, a.ID, true)
		}))

		blocked, err := store.IsBlocked(ctx, b.ID, a.ID)
		require.NoError(t, err)
		assert.True(t, blocked)
		blocked, err = store.IsBlocked(ctx, a.ID, b.ID)
		require.NoError(t, err)
		assert.False(t, blocked)

		list, err := store.Related(ctx, b.ID, user.KindBlocked)
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{a.ID}, list)

		require.NoError(t, store.Atomically(ctx, []uuid.UUID{a.ID, b.ID}, func(tx user.Tx) error {
			return tx.SetBlocked(b.ID, a.ID, false)
		}))
		list, err = store.Related(ctx, b.ID, user.KindBlocked)
		require.NoError(t, err)
		assert.Empty(t, list)
	})

	t.Run("unknown users are not locked", func(t *testing.T) {
		a := newUser("z")
		ghost := uuid.New()
		require.NoError(t, store.Atomically(ctx, []uuid.UUID{a.ID, ghost}, func(tx user.Tx) error {
			assert.True(t, tx.Exists(a.ID))
			assert.False(t, tx.Exists(ghost))
			return nil
		}))
	})
}

func TestMemoryStorage(t *testing.T) {
	exercise(t, NewMemoryStorage())
}
