package storage

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"relay/infrastructure"
	"relay/internal/user"
)

type blockKey struct {
	blocker, blocked uuid.UUID
}

// MemoryStorage is a process-local user directory used for local runs and tests.
type MemoryStorage struct {
	mu        sync.RWMutex
	users     map[uuid.UUID]*user.User
	byEmail   map[string]uuid.UUID
	relations map[user.Pair]user.Relation
	blocks    map[blockKey]struct{}
	now       func() time.Time
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		users:     make(map[uuid.UUID]*user.User),
		byEmail:   make(map[string]uuid.UUID),
		relations: make(map[user.Pair]user.Relation),
		blocks:    make(map[blockKey]struct{}),
		now:       time.Now,
	}
}

func (s *MemoryStorage) Create(_ context.Context, u *user.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	email := strings.ToLower(u.Email)
	if _, ok := s.byEmail[email]; ok {
		return infrastructure.ErrUserAlreadyExists
	}
	if _, ok := s.users[u.ID]; ok {
		return infrastructure.ErrUserAlreadyExists
	}
	stored := *u
	stored.Email = email
	s.users[u.ID] = &stored
	s.byEmail[email] = u.ID
	return nil
}

func (s *MemoryStorage) ByID(_ context.Context, id uuid.UUID) (*user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.get(id)
}

func (s *MemoryStorage) get(id uuid.UUID) (*user.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, infrastructure.ErrUserNotFound
	}
	clone := *u
	return &clone, nil
}

func (s *MemoryStorage) ByEmail(_ context.Context, email string) (*user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, infrastructure.ErrUserNotFound
	}
	return s.get(id)
}

func (s *MemoryStorage) ByIDs(_ context.Context, ids []uuid.UUID) ([]*user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]*user.User, 0, len(ids))
	seen := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		if u, err := s.get(id); err == nil {
			users = append(users, u)
		}
	}
	sort.Slice(users, func(i, j int) bool {
		if users[i].FullName != users[j].FullName {
			return users[i].FullName < users[j].FullName
		}
		return users[i].ID.String() < users[j].ID.String()
	})
	return users, nil
}

func (s *MemoryStorage) UpdatePassword(_ context.Context, id uuid.UUID, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return infrastructure.ErrUserNotFound
	}
	u.PasswordHash = hash
	u.UpdatedAt = s.now()
	return nil
}

func (s *MemoryStorage) UpdateProfilePic(_ context.Context, id uuid.UUID, url string) (*user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, infrastructure.ErrUserNotFound
	}
	u.ProfilePic = url
	u.UpdatedAt = s.now()
	return s.get(id)
}

func (s *MemoryStorage) Relation(_ context.Context, a, b uuid.UUID) (user.Relation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.relation(a, b), nil
}

func (s *MemoryStorage) relation(a, b uuid.UUID) user.Relation {
	if rel, ok := s.relations[user.NewPair(a, b)]; ok {
		return rel
	}
	return user.NoRelation
}

func (s *MemoryStorage) Related(_ context.Context, id uuid.UUID, kind user.Kind) ([]uuid.UUID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := []uuid.UUID{}
	if kind == user.KindBlocked {
		for k := range s.blocks {
			if k.blocker == id {
				ids = append(ids, k.blocked)
			}
		}
		return ids, nil
	}

	for pair, rel := range s.relations {
		if pair.Low != id && pair.High != id {
			continue
		}
		other := pair.Other(id)
		switch {
		case kind == user.KindContacts && rel.State == user.StateContact,
			kind == user.KindIncoming && rel.PendingFrom(other),
			kind == user.KindOutgoing && rel.PendingFrom(id):
			ids = append(ids, other)
		}
	}
	return ids, nil
}

func (s *MemoryStorage) IsBlocked(_ context.Context, blocker, blocked uuid.UUID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.blocks[blockKey{blocker, blocked}]
	return ok, nil
}

// Atomically holds the write lock for the whole of fn and applies its writes only on success.
func (s *MemoryStorage) Atomically(_ context.Context, ids []uuid.UUID, fn func(tx user.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &memoryTx{
		s:         s,
		found:     make(map[uuid.UUID]bool, len(ids)),
		relations: make(map[user.Pair]user.Relation),
		blocks:    make(map[blockKey]bool),
	}
	for _, id := range ids {
		if _, ok := s.users[id]; ok {
			tx.found[id] = true
		}
	}
	if err := fn(tx); err != nil {
		return err
	}

	for pair, rel := range tx.relations {
		if rel.State == user.StateNone {
			delete(s.relations, pair)
		} else {
			s.relations[pair] = rel
		}
	}
	for k, on := range tx.blocks {
		if on {
			s.blocks[k] = struct{}{}
		} else {
			delete(s.blocks, k)
		}
	}
	return nil
}

type memoryTx struct {
	s         *MemoryStorage
	found     map[uuid.UUID]bool
	relations map[user.Pair]user.Relation
	blocks    map[blockKey]bool
}

func (t *memoryTx) Exists(id uuid.UUID) bool {
	return t.found[id]
}

func (t *memoryTx) Relation(a, b uuid.UUID) (user.Relation, error) {
	if rel, ok := t.relations[user.NewPair(a, b)]; ok {
		return rel, nil
	}
	return t.s.relation(a, b), nil
}

func (t *memoryTx) SetRelation(a, b uuid.UUID, rel user.Relation) error {
	t.relations[user.NewPair(a, b)] = rel
	return nil
}

func (t *memoryTx) IsBlocked(blocker, blocked uuid.UUID) (bool, error) {
	k := blockKey{blocker, blocked}
	if on, ok := t.blocks[k]; ok {
		return on, nil
	}
	_, ok := t.s.blocks[k]
	return ok, nil
}

func (t *memoryTx) SetBlocked(blocker, blocked uuid.UUID, on bool) error {
	t.blocks[blockKey{blocker, blocked}] = on
	return nil
}
