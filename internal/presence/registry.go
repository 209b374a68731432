package presence

import (
	"errors"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	EventOnlineUsers = "onlineUsers"
	EventNewMessage  = "newMessage"
)

var (
	ErrChannelFull   = errors.New("presence: channel buffer full")
	ErrChannelClosed = errors.New("presence: channel closed")
)

// Event is one frame pushed to a connected client.
type Event struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// Channel is a live delivery channel to one client. Push must never block: a channel that
// cannot accept the event right away returns an error and the event is dropped.
type Channel interface {
	Push(ev Event) error
}

// ChannelID identifies one registration of a channel. IDs are never reused.
type ChannelID uint64

type entry struct {
	id ChannelID
	ch Channel
}

// Registry maps each online user to its current channel. A user has at most one entry: a
// new Open replaces the previous one. Open, Close and the snapshot broadcast they trigger
// are serialized by one mutex.
type Registry struct {
	mu     sync.Mutex
	nextID ChannelID
	byUser map[uuid.UUID]entry
	owners map[ChannelID]uuid.UUID
	log    logrus.FieldLogger
}

func NewRegistry(log logrus.FieldLogger) *Registry {
	return &Registry{
		byUser: make(map[uuid.UUID]entry),
		owners: make(map[ChannelID]uuid.UUID),
		log:    log.WithField("component", "presence"),
	}
}

// Open registers ch as the channel of userID, replacing any previous registration, and
// broadcasts the new snapshot. A replaced channel that supports closing is closed.
func (r *Registry) Open(userID uuid.UUID, ch Channel) ChannelID {
	r.mu.Lock()
	r.nextID++
	id := r.nextID
	prev, replaced := r.byUser[userID]
	if replaced {
		delete(r.owners, prev.id)
	}
	r.byUser[userID] = entry{id: id, ch: ch}
	r.owners[id] = userID

	r.log.WithFields(logrus.Fields{"user_id": userID, "channel_id": id}).Debug("channel opened")
	r.broadcastLocked()
	r.mu.Unlock()

	if replaced && prev.ch != ch {
		closeChannel(prev.ch)
	}
	return id
}

// Close removes the registration with the given id. Closing a handle that was already
// replaced or closed does nothing and reports false.
func (r *Registry) Close(id ChannelID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	userID, ok := r.owners[id]
	if !ok {
		return false
	}
	delete(r.owners, id)
	delete(r.byUser, userID)

	r.log.WithFields(logrus.Fields{"user_id": userID, "channel_id": id}).Debug("channel closed")
	r.broadcastLocked()
	return true
}

func (r *Registry) Lookup(userID uuid.UUID) (Channel, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.byUser[userID]
	return e.ch, ok
}

// Snapshot returns the ids of all online users in a stable order.
func (r *Registry) Snapshot() []uuid.UUID {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked()
}

func (r *Registry) snapshotLocked() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(r.byUser))
	for id := range r.byUser {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return ids
}

// broadcastLocked pushes the current snapshot to every registered channel, best effort.
func (r *Registry) broadcastLocked() {
	ev := Event{Type: EventOnlineUsers, Payload: r.snapshotLocked()}
	for userID, e := range r.byUser {
		if err := e.ch.Push(ev); err != nil {
			r.log.WithError(err).WithField("user_id", userID).Debug("snapshot push dropped")
		}
	}
}

// Shutdown closes every registered channel that supports closing. Each connection then
// unregisters itself through its own Close call.
func (r *Registry) Shutdown() {
	r.mu.Lock()
	channels := make([]Channel, 0, len(r.byUser))
	for _, e := range r.byUser {
		channels = append(channels, e.ch)
	}
	r.mu.Unlock()

	for _, ch := range channels {
		closeChannel(ch)
	}
}

func closeChannel(ch Channel) {
	if c, ok := ch.(interface{ Close() }); ok {
		c.Close()
	}
}
