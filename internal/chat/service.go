package chat

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/moby/locker"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"relay/infrastructure"
	"relay/internal/media"
	"relay/internal/user"
)

type UserLookup interface {
	ByID(ctx context.Context, id uuid.UUID) (*user.User, error)
}

type BlockChecker interface {
	IsBlocked(ctx context.Context, actor, target uuid.UUID) (bool, error)
}

type Deliverer interface {
	Deliver(m *Message) bool
}

type Service struct {
	repo     Repository
	users    UserLookup
	blocks   BlockChecker
	uploader media.Uploader
	delivery Deliverer
	locks    *locker.Locker
	log      logrus.FieldLogger

	clockMu sync.Mutex
	last    time.Time
	now     func() time.Time
}

func NewService(
	repo Repository,
	users UserLookup,
	blocks BlockChecker,
	uploader media.Uploader,
	delivery Deliverer,
	log logrus.FieldLogger,
) *Service {
	return &Service{
		repo:     repo,
		users:    users,
		blocks:   blocks,
		uploader: uploader,
		delivery: delivery,
		locks:    locker.New(),
		log:      log.WithField("component", "chat"),
		now:      time.Now,
	}
}

// Send stores a message from sender to receiver and hands it to the delivery coordinator.
// The returned record is the stored one, with its id and creation time.
func (s *Service) Send(ctx context.Context, sender, receiver uuid.UUID, content Content) (*Message, error) {
	if content.Empty() {
		return nil, errors.Wrap(infrastructure.ErrInvalidInput, "message needs text, image or video")
	}
	if sender == receiver {
		return nil, infrastructure.ErrInvalidTarget
	}
	if _, err := s.users.ByID(ctx, receiver); err != nil {
		if errors.Is(err, infrastructure.ErrNotFound) {
			return nil, infrastructure.ErrInvalidTarget
		}
		return nil, err
	}

	blocked, err := s.blocks.IsBlocked(ctx, receiver, sender)
	if err != nil {
		return nil, err
	}
	if blocked {
		return nil, infrastructure.ErrBlocked
	}

	m := &Message{
		ID:         uuid.New(),
		SenderID:   sender,
		ReceiverID: receiver,
		Text:       content.Text,
	}
	if content.Image != "" {
		if m.Image, err = s.uploader.Upload(ctx, content.Image, media.KindImage); err != nil {
			return nil, err
		}
	}
	if content.Video != "" {
		if m.Video, err = s.uploader.Upload(ctx, content.Video, media.KindVideo); err != nil {
			return nil, err
		}
	}

	if err := s.append(ctx, m); err != nil {
		return nil, err
	}

	delivered := s.delivery.Deliver(m)
	s.log.WithFields(logrus.Fields{
		"message_id": m.ID,
		"user_id":    sender,
		"delivered":  delivered,
	}).Debug("message sent")
	return m, nil
}

// append stamps and stores m while holding the conversation lock, so that within one
// conversation creation order and insertion order agree.
func (s *Service) append(ctx context.Context, m *Message) error {
	key := conversationKey(m.SenderID, m.ReceiverID)
	s.locks.Lock(key)
	defer func() { _ = s.locks.Unlock(key) }()

	m.CreatedAt = s.stamp()
	return infrastructure.TimeOperation(s.log, "messages.append", func() error {
		return s.repo.Create(ctx, m)
	})
}

// stamp returns a strictly increasing UTC time with microsecond precision.
func (s *Service) stamp() time.Time {
	s.clockMu.Lock()
	defer s.clockMu.Unlock()

	t := s.now().UTC().Truncate(time.Microsecond)
	if !t.After(s.last) {
		t = s.last.Add(time.Microsecond)
	}
	s.last = t
	return t
}

// Fetch returns the conversation between a and b, oldest first. Block state is not applied.
func (s *Service) Fetch(ctx context.Context, a, b uuid.UUID) ([]*Message, error) {
	return s.repo.Conversation(ctx, a, b)
}

func conversationKey(a, b uuid.UUID) string {
	ids := []string{a.String(), b.String()}
	sort.Strings(ids)
	return ids[0] + ":" + ids[1]
}
