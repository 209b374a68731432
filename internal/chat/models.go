package chat

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Message is an immutable direct message. Seq records insertion order and breaks ties
// between equal creation times.
type Message struct {
	Seq        int64     `gorm:"primaryKey;autoIncrement" json:"-"`
	ID         uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"id"`
	SenderID   uuid.UUID `gorm:"type:uuid;not null;index:idx_messages_pair,priority:1" json:"senderId"`
	ReceiverID uuid.UUID `gorm:"type:uuid;not null;index:idx_messages_pair,priority:2" json:"receiverId"`
	Text       string    `gorm:"not null" json:"text,omitempty"`
	Image      string    `gorm:"not null" json:"image,omitempty"`
	Video      string    `gorm:"not null" json:"video,omitempty"`
	CreatedAt  time.Time `gorm:"not null;index" json:"createdAt"`
}

func (Message) TableName() string {
	return "messages"
}

// Content is what a sender submits. Image and Video carry raw base64 payloads that are
// uploaded before the message is stored.
type Content struct {
	Text  string `json:"text"`
	Image string `json:"image"`
	Video string `json:"video"`
}

func (c Content) Empty() bool {
	return strings.TrimSpace(c.Text) == "" && c.Image == "" && c.Video == ""
}
