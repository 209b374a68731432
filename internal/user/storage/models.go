package storage

import (
	"time"

	"github.com/google/uuid"

	"relay/internal/user"
)

type userRow struct {
	ID           uuid.UUID `db:"id"`
	Email        string    `db:"email"`
	FullName     string    `db:"full_name"`
	PasswordHash string    `db:"password_hash"`
	ProfilePic   string    `db:"profile_pic"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

type relationRow struct {
	State     string        `db:"state"`
	Requester uuid.NullUUID `db:"requester"`
}

func toUserRow(u *user.User) *userRow {
	return &userRow{
		ID:           u.ID,
		Email:        u.Email,
		FullName:     u.FullName,
		PasswordHash: u.PasswordHash,
		ProfilePic:   u.ProfilePic,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func (r *userRow) toUser() *user.User {
	return &user.User{
		ID:           r.ID,
		Email:        r.Email,
		FullName:     r.FullName,
		PasswordHash: r.PasswordHash,
		ProfilePic:   r.ProfilePic,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

func (r relationRow) toRelation() user.Relation {
	switch r.State {
	case "contact":
		return user.Contact
	case "pending":
		return user.Pending(r.Requester.UUID)
	default:
		return user.NoRelation
	}
}

func fromRelation(rel user.Relation) relationRow {
	row := relationRow{State: rel.State.String()}
	if rel.State == user.StatePending {
		row.Requester = uuid.NullUUID{UUID: rel.Requester, Valid: true}
	}
	return row
}
