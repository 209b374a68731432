package chat

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"relay/infrastructure"
	"relay/internal/contacts"
	"relay/internal/database"
	"relay/internal/media"
	"relay/internal/media/mocks"
	"relay/internal/presence"
	"relay/internal/user"
	"relay/internal/user/storage"
)

type recordingChannel struct {
	mu     sync.Mutex
	events []presence.Event
	err    error
}

func (c *recordingChannel) Push(ev presence.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.events = append(c.events, ev)
	return nil
}

func (c *recordingChannel) messages() []*Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []*Message
	for _, ev := range c.events {
		if ev.Type == presence.EventNewMessage {
			out = append(out, ev.Payload.(*Message))
		}
	}
	return out
}

type fixture struct {
	svc      *Service
	users    *storage.MemoryStorage
	contacts *contacts.Service
	registry *presence.Registry
	uploader *mocks.MockUploader
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	log, _ := test.NewNullLogger()

	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "chat.db"), log)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.Migrate(ctx, "", &Message{}))

	users := storage.NewMemoryStorage()
	contactsSvc := contacts.NewService(users, log)
	registry := presence.NewRegistry(log)
	uploader := mocks.NewMockUploader(gomock.NewController(t))

	svc := NewService(NewGormRepository(db.ORM), users, contactsSvc, uploader,
		NewCoordinator(registry, log), log)

	return &fixture{svc: svc, users: users, contacts: contactsSvc, registry: registry, uploader: uploader}
}

func (f *fixture) user(t *testing.T, name string) uuid.UUID {
	t.Helper()
	now := time.Now()
	u := &user.User{ID: uuid.New(), Email: name + "@example.com", FullName: name,
		PasswordHash: "hash", CreatedAt: now, UpdatedAt: now}
	require.NoError(t, f.users.Create(context.Background(), u))
	return u.ID
}

func messageIDs(messages []*Message) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(messages))
	for _, m := range messages {
		ids = append(ids, m.ID)
	}
	return ids
}

func TestSendReturnsStoredRecord(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a, b := f.user(t, "a"), f.user(t, "b")

	m, err := f.svc.Send(ctx, a, b, Content{Text: "hi"})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, m.ID)
	assert.Equal(t, a, m.SenderID)
	assert.Equal(t, b, m.ReceiverID)
	assert.Equal(t, "hi", m.Text)
	assert.False(t, m.CreatedAt.IsZero())

	history, err := f.svc.Fetch(ctx, b, a)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, m.ID, history[0].ID)
	assert.True(t, m.CreatedAt.Equal(history[0].CreatedAt))
}

func TestFetchOrdersBothDirections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a, b, c := f.user(t, "a"), f.user(t, "b"), f.user(t, "c")

	// a frozen clock still yields strictly increasing creation times
	frozen := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	f.svc.now = func() time.Time { return frozen }

	m1, err := f.svc.Send(ctx, a, b, Content{Text: "one"})
	require.NoError(t, err)
	m2, err := f.svc.Send(ctx, b, a, Content{Text: "two"})
	require.NoError(t, err)
	_, err = f.svc.Send(ctx, a, c, Content{Text: "elsewhere"})
	require.NoError(t, err)
	m3, err := f.svc.Send(ctx, a, b, Content{Text: "three"})
	require.NoError(t, err)

	assert.True(t, m1.CreatedAt.Before(m2.CreatedAt))
	assert.True(t, m2.CreatedAt.Before(m3.CreatedAt))

	first, err := f.svc.Fetch(ctx, a, b)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{m1.ID, m2.ID, m3.ID}, messageIDs(first))

	second, err := f.svc.Fetch(ctx, b, a)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestFetchEmptyConversation(t *testing.T) {
	f := newFixture(t)
	history, err := f.svc.Fetch(context.Background(), f.user(t, "a"), f.user(t, "b"))
	require.NoError(t, err)
	assert.NotNil(t, history)
	assert.Empty(t, history)
}

func TestSendValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.user(t, "a")

	_, err := f.svc.Send(ctx, a, f.user(t, "b"), Content{Text: "   "})
	assert.ErrorIs(t, err, infrastructure.ErrInvalidInput)

	_, err = f.svc.Send(ctx, a, a, Content{Text: "me"})
	assert.ErrorIs(t, err, infrastructure.ErrInvalidTarget)

	_, err = f.svc.Send(ctx, a, uuid.New(), Content{Text: "ghost"})
	assert.ErrorIs(t, err, infrastructure.ErrInvalidTarget)
}

func TestBlockGatesSendOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a1, b1 := f.user(t, "a1"), f.user(t, "b1")

	before, err := f.svc.Send(ctx, a1, b1, Content{Text: "before"})
	require.NoError(t, err)

	require.NoError(t, f.contacts.Block(ctx, b1, a1))

	// the uploader has no expectations: a blocked send must not upload anything
	_, err = f.svc.Send(ctx, a1, b1, Content{Text: "hi", Image: "payload"})
	assert.ErrorIs(t, err, infrastructure.ErrBlocked)

	history, err := f.svc.Fetch(ctx, a1, b1)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{before.ID}, messageIDs(history))

	reply, err := f.svc.Send(ctx, b1, a1, Content{Text: "hi"})
	require.NoError(t, err)

	history, err = f.svc.Fetch(ctx, a1, b1)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{before.ID, reply.ID}, messageIDs(history))
}

func TestSendUploadsMedia(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a, b := f.user(t, "a"), f.user(t, "b")

	f.uploader.EXPECT().Upload(gomock.Any(), "img-payload", media.KindImage).
		Return("http://media/chat-images/1.png", nil)
	f.uploader.EXPECT().Upload(gomock.Any(), "vid-payload", media.KindVideo).
		Return("http://media/chat-videos/1.mp4", nil)

	m, err := f.svc.Send(ctx, a, b, Content{Image: "img-payload", Video: "vid-payload"})
	require.NoError(t, err)
	assert.Equal(t, "http://media/chat-images/1.png", m.Image)
	assert.Equal(t, "http://media/chat-videos/1.mp4", m.Video)
	assert.Empty(t, m.Text)
}

func TestSendUploadFailureStoresNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a, b := f.user(t, "a"), f.user(t, "b")

	f.uploader.EXPECT().Upload(gomock.Any(), "bad", media.KindImage).
		Return("", infrastructure.ErrInvalidInput)

	_, err := f.svc.Send(ctx, a, b, Content{Text: "look", Image: "bad"})
	assert.ErrorIs(t, err, infrastructure.ErrInvalidInput)

	history, err := f.svc.Fetch(ctx, a, b)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestSendPushesToOnlineReceiver(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a, b := f.user(t, "a"), f.user(t, "b")

	receiver := &recordingChannel{}
	f.registry.Open(b, receiver)

	m, err := f.svc.Send(ctx, a, b, Content{Text: "live"})
	require.NoError(t, err)

	pushed := receiver.messages()
	require.Len(t, pushed, 1)
	assert.Equal(t, m.ID, pushed[0].ID)
}

func TestSendSucceedsWhenPushFails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a, b := f.user(t, "a"), f.user(t, "b")

	f.registry.Open(b, &recordingChannel{err: errors.New("connection reset")})

	m, err := f.svc.Send(ctx, a, b, Content{Text: "durable"})
	require.NoError(t, err)

	history, err := f.svc.Fetch(ctx, b, a)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{m.ID}, messageIDs(history))
}
