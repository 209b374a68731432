package user

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	FullName     string    `json:"fullName"`
	PasswordHash string    `json:"-"`
	ProfilePic   string    `json:"profilePic"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Summary is the public view of a user shown to other users.
type Summary struct {
	ID         uuid.UUID `json:"id"`
	FullName   string    `json:"fullName"`
	Email      string    `json:"email"`
	ProfilePic string    `json:"profilePic"`
}

func (u *User) Summary() Summary {
	return Summary{ID: u.ID, FullName: u.FullName, Email: u.Email, ProfilePic: u.ProfilePic}
}

// State is the relationship state of an unordered pair of users.
type State int

const (
	StateNone State = iota
	StatePending
	StateContact
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateContact:
		return "contact"
	default:
		return "none"
	}
}

// Relation is the tagged relationship between two distinct users. Requester is set only
// while the state is StatePending.
type Relation struct {
	State     State
	Requester uuid.UUID
}

var NoRelation = Relation{State: StateNone}

func Pending(requester uuid.UUID) Relation {
	return Relation{State: StatePending, Requester: requester}
}

var Contact = Relation{State: StateContact}

// PendingFrom reports whether id has an unanswered request in this relation.
func (r Relation) PendingFrom(id uuid.UUID) bool {
	return r.State == StatePending && r.Requester == id
}

// Kind selects one of the derived relationship sets of a user.
type Kind int

const (
	KindContacts Kind = iota
	KindIncoming
	KindOutgoing
	KindBlocked
)

// Pair is an unordered pair of user ids in canonical order.
type Pair struct {
	Low, High uuid.UUID
}

func NewPair(a, b uuid.UUID) Pair {
	if a.String() > b.String() {
		a, b = b, a
	}
	return Pair{Low: a, High: b}
}

// Other returns the member of the pair that is not id.
func (p Pair) Other(id uuid.UUID) uuid.UUID {
	if p.Low == id {
		return p.High
	}
	return p.Low
}
