package contacts

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"github.com/moby/locker"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"relay/infrastructure"
	"relay/internal/user"
)

// Profile is a user summary as seen by another user.
type Profile struct {
	user.Summary
	CanSendRequest bool `json:"canSendRequest"`
}

// Service is the relationship state machine over the user directory.
type Service struct {
	users user.Store
	locks *locker.Locker
	log   logrus.FieldLogger
}

func NewService(users user.Store, log logrus.FieldLogger) *Service {
	return &Service{
		users: users,
		locks: locker.New(),
		log:   log.WithField("component", "contacts"),
	}
}

// mutate serializes fn against every other mutation touching either user, then runs it
// inside a store transaction with both user rows locked.
func (s *Service) mutate(ctx context.Context, a, b uuid.UUID, fn func(tx user.Tx) error) error {
	keys := []string{a.String(), b.String()}
	sort.Strings(keys)
	if keys[0] == keys[1] {
		keys = keys[:1]
	}
	for _, k := range keys {
		s.locks.Lock(k)
	}
	defer func() {
		for i := len(keys) - 1; i >= 0; i-- {
			_ = s.locks.Unlock(keys[i])
		}
	}()

	return s.users.Atomically(ctx, []uuid.UUID{a, b}, fn)
}

func (s *Service) SendRequest(ctx context.Context, actor, target uuid.UUID) error {
	if actor == target {
		return infrastructure.ErrInvalidTarget
	}
	err := s.mutate(ctx, actor, target, func(tx user.Tx) error {
		if !tx.Exists(target) || !tx.Exists(actor) {
			return infrastructure.ErrInvalidTarget
		}
		rel, err := tx.Relation(actor, target)
		if err != nil {
			return err
		}
		switch rel.State {
		case user.StateContact:
			return infrastructure.ErrAlreadyContact
		case user.StatePending:
			return infrastructure.ErrAlreadyRequested
		}
		return tx.SetRelation(actor, target, user.Pending(actor))
	})
	if err != nil {
		return err
	}

	s.log.WithFields(logrus.Fields{"user_id": actor, "target_id": target}).Info("contact request sent")
	return nil
}

func (s *Service) AcceptRequest(ctx context.Context, actor, requester uuid.UUID) error {
	if actor == requester {
		return infrastructure.ErrNoPendingRequest
	}
	err := s.mutate(ctx, actor, requester, func(tx user.Tx) error {
		rel, err := tx.Relation(actor, requester)
		if err != nil {
			return err
		}
		if !rel.PendingFrom(requester) {
			return infrastructure.ErrNoPendingRequest
		}
		return tx.SetRelation(actor, requester, user.Contact)
	})
	if err != nil {
		return err
	}

	s.log.WithFields(logrus.Fields{"user_id": actor, "requester_id": requester}).Info("contact request accepted")
	return nil
}

// CanRequest is false when target is the actor, a contact, or on either side of a pending request.
func (s *Service) CanRequest(ctx context.Context, actor, target uuid.UUID) (bool, error) {
	if actor == target {
		return false, nil
	}
	rel, err := s.users.Relation(ctx, actor, target)
	if err != nil {
		return false, err
	}
	return rel.State == user.StateNone, nil
}

// Profile resolves target for actor, including whether a request may be sent.
func (s *Service) Profile(ctx context.Context, actor, target uuid.UUID) (*Profile, error) {
	if actor == target {
		return nil, infrastructure.ErrInvalidTarget
	}
	u, err := s.users.ByID(ctx, target)
	if err != nil {
		return nil, err
	}
	can, err := s.CanRequest(ctx, actor, target)
	if err != nil {
		return nil, err
	}
	return &Profile{Summary: u.Summary(), CanSendRequest: can}, nil
}

func (s *Service) ListIncomingRequests(ctx context.Context, actor uuid.UUID) ([]user.Summary, error) {
	return s.list(ctx, actor, user.KindIncoming)
}

func (s *Service) ListOutgoingRequests(ctx context.Context, actor uuid.UUID) ([]user.Summary, error) {
	return s.list(ctx, actor, user.KindOutgoing)
}

func (s *Service) ListContacts(ctx context.Context, actor uuid.UUID) ([]user.Summary, error) {
	return s.list(ctx, actor, user.KindContacts)
}

func (s *Service) list(ctx context.Context, actor uuid.UUID, kind user.Kind) ([]user.Summary, error) {
	ids, err := s.users.Related(ctx, actor, kind)
	if err != nil {
		return nil, err
	}
	users, err := s.users.ByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	summaries := make([]user.Summary, 0, len(users))
	for _, u := range users {
		summaries = append(summaries, u.Summary())
	}
	return summaries, nil
}

// Block stops target from messaging actor. It leaves contacts and requests untouched.
func (s *Service) Block(ctx context.Context, actor, target uuid.UUID) error {
	if actor == target {
		return infrastructure.ErrInvalidTarget
	}
	err := s.mutate(ctx, actor, target, func(tx user.Tx) error {
		if !tx.Exists(target) {
			return infrastructure.ErrInvalidTarget
		}
		blocked, err := tx.IsBlocked(actor, target)
		if err != nil {
			return err
		}
		if blocked {
			return infrastructure.ErrAlreadyBlocked
		}
		return tx.SetBlocked(actor, target, true)
	})
	if err != nil {
		return err
	}

	s.log.WithFields(logrus.Fields{"user_id": actor, "target_id": target}).Info("user blocked")
	return nil
}

func (s *Service) Unblock(ctx context.Context, actor, target uuid.UUID) error {
	if actor == target {
		return infrastructure.ErrNotBlocked
	}
	err := s.mutate(ctx, actor, target, func(tx user.Tx) error {
		blocked, err := tx.IsBlocked(actor, target)
		if err != nil {
			return err
		}
		if !blocked {
			return infrastructure.ErrNotBlocked
		}
		return tx.SetBlocked(actor, target, false)
	})
	if err != nil {
		return err
	}

	s.log.WithFields(logrus.Fields{"user_id": actor, "target_id": target}).Info("user unblocked")
	return nil
}

// IsBlocked reports whether actor has blocked target.
func (s *Service) IsBlocked(ctx context.Context, actor, target uuid.UUID) (bool, error) {
	blocked, err := s.users.IsBlocked(ctx, actor, target)
	return blocked, errors.Wrap(err, "contacts.IsBlocked")
}
