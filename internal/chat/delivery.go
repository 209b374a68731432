package chat

import (
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"relay/internal/presence"
)

type Locator interface {
	Lookup(userID uuid.UUID) (presence.Channel, bool)
}

// Coordinator pushes newly stored messages to online receivers.
//
// Delivery is best-effort, non-blocking and never retried. The message is already durable
// when Deliver runs, so a receiver that misses the push sees it on its next fetch.
type Coordinator struct {
	presence Locator
	log      logrus.FieldLogger
}

func NewCoordinator(presence Locator, log logrus.FieldLogger) *Coordinator {
	return &Coordinator{presence: presence, log: log.WithField("component", "delivery")}
}

// Deliver reports whether the message was handed to a live channel.
func (c *Coordinator) Deliver(m *Message) bool {
	ch, ok := c.presence.Lookup(m.ReceiverID)
	if !ok {
		return false
	}
	if err := ch.Push(presence.Event{Type: presence.EventNewMessage, Payload: m}); err != nil {
		c.log.WithError(err).WithFields(logrus.Fields{
			"message_id": m.ID,
			"user_id":    m.ReceiverID,
		}).Debug("push dropped")
		return false
	}
	return true
}
