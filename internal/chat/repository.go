package chat

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, m *Message) error
	// Conversation returns every message between a and b in either direction, oldest first.
	Conversation(ctx context.Context, a, b uuid.UUID) ([]*Message, error)
}

type GormRepository struct {
	db *gorm.DB
}

func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

func (r *GormRepository) Create(ctx context.Context, m *Message) error {
	return errors.Wrap(r.db.WithContext(ctx).Create(m).Error, "messageRepo.Create")
}

func (r *GormRepository) Conversation(ctx context.Context, a, b uuid.UUID) ([]*Message, error) {
	messages := []*Message{}
	err := r.db.WithContext(ctx).
		Where("(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)", a, b, b, a).
		Order("created_at ASC").
		Order("seq ASC").
		Find(&messages).Error
	if err != nil {
		return nil, errors.Wrap(err, "messageRepo.Conversation")
	}
	return messages, nil
}
