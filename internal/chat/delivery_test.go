package chat

import (
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"relay/internal/presence"
)

func TestCoordinatorDeliver(t *testing.T) {
	log, hook := test.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)
	registry := presence.NewRegistry(log)
	c := NewCoordinator(registry, log)

	receiver := uuid.New()
	m := &Message{ID: uuid.New(), SenderID: uuid.New(), ReceiverID: receiver, Text: "hi"}

	t.Run("offline receiver", func(t *testing.T) {
		assert.False(t, c.Deliver(m))
	})

	t.Run("online receiver", func(t *testing.T) {
		ch := &recordingChannel{}
		id := registry.Open(receiver, ch)
		defer registry.Close(id)

		assert.True(t, c.Deliver(m))
		require.Len(t, ch.messages(), 1)
		assert.Same(t, m, ch.messages()[0])
	})

	t.Run("full channel is swallowed", func(t *testing.T) {
		id := registry.Open(receiver, &recordingChannel{err: presence.ErrChannelFull})
		defer registry.Close(id)

		hook.Reset()
		assert.False(t, c.Deliver(m))
		require.NotNil(t, hook.LastEntry())
		assert.Equal(t, "push dropped", hook.LastEntry().Message)
	})
}
