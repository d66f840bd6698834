package notification

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("notification: not found")

// Repository is the persistence boundary for notifications.
type Repository interface {
	Create(ctx context.Context, n *Notification) error
	GetByID(ctx context.Context, id uuid.UUID) (*Notification, error)
	// ListByUser returns the user's notifications newest-first. An empty or
	// "all" typeFilter matches every type; unreadOnly drops read rows.
	ListByUser(ctx context.Context, userID uuid.UUID, typeFilter string, unreadOnly bool) ([]*Notification, error)
	MarkRead(ctx context.Context, id uuid.UUID) error
	UnreadCountByUser(ctx context.Context, userID uuid.UUID) (int, error)
}
