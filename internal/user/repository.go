package user

import (
	"context"

	"github.com/google/uuid"
)

// Store is the authoritative user directory. Relationship sets are derived from the
// per-pair Relation and the per-direction block flag.
type Store interface {
	Create(ctx context.Context, u *User) error
	ByID(ctx context.Context, id uuid.UUID) (*User, error)
	ByEmail(ctx context.Context, email string) (*User, error)
	ByIDs(ctx context.Context, ids []uuid.UUID) ([]*User, error)
	UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error
	UpdateProfilePic(ctx context.Context, id uuid.UUID, url string) (*User, error)

	Relation(ctx context.Context, a, b uuid.UUID) (Relation, error)
	Related(ctx context.Context, id uuid.UUID, kind Kind) ([]uuid.UUID, error)
	IsBlocked(ctx context.Context, blocker, blocked uuid.UUID) (bool, error)

	// Atomically locks the given users and runs fn in one transaction. Nothing fn writes is
	// visible to other readers unless fn returns nil.
	Atomically(ctx context.Context, ids []uuid.UUID, fn func(tx Tx) error) error
}

// Tx is a relationship transaction opened by Store.Atomically.
type Tx interface {
	// Exists reports whether id was among the locked users and exists.
	Exists(id uuid.UUID) bool
	Relation(a, b uuid.UUID) (Relation, error)
	// SetRelation replaces the relation of the pair; NoRelation removes it.
	SetRelation(a, b uuid.UUID, r Relation) error
	IsBlocked(blocker, blocked uuid.UUID) (bool, error)
	SetBlocked(blocker, blocked uuid.UUID, on bool) error
}
