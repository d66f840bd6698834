package notification

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var ErrInvalidInput = errors.New("notification: invalid notification")

// Service manages in-app notifications. It satisfies the Notifier
// interfaces of the domains that emit them.
type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// Notify creates a medium-priority unread notification for the user.
func (s *Service) Notify(ctx context.Context, userID uuid.UUID, kind, title, description string) error {
	return s.Create(ctx, &Notification{
		UserID:      userID,
		Type:        kind,
		Title:       title,
		Description: description,
	})
}

// Create writes a notification, defaulting priority to medium.
func (s *Service) Create(ctx context.Context, n *Notification) error {
	if n.UserID == uuid.Nil || n.Type == "" || n.Title == "" {
		return ErrInvalidInput
	}
	if n.Priority == "" {
		n.Priority = "medium"
	}
	if !validPriority(n.Priority) {
		return ErrInvalidInput
	}
	if n.Timestamp.IsZero() {
		n.Timestamp = s.now().UTC()
	}
	return s.repo.Create(ctx, n)
}

// ListForUser returns the user's notifications as views with relative
// timestamps, optionally narrowed by type or to unread only.
func (s *Service) ListForUser(ctx context.Context, userID uuid.UUID, typeFilter string, unreadOnly bool) ([]*View, error) {
	items, err := s.repo.ListByUser(ctx, userID, typeFilter, unreadOnly)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	views := make([]*View, 0, len(items))
	for _, n := range items {
		views = append(views, &View{
			ID:          n.ID,
			Type:        n.Type,
			Title:       n.Title,
			Description: n.Description,
			Timestamp:   relativeTime(now, n.Timestamp),
			Read:        n.Read,
			Priority:    n.Priority,
			ActionURL:   n.ActionURL,
			ActionLabel: n.ActionLabel,
		})
	}
	return views, nil
}

// MarkRead marks one of the user's notifications as read. A notification
// belonging to another user reads as missing.
func (s *Service) MarkRead(ctx context.Context, userID, id uuid.UUID) error {
	n, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if n.UserID != userID {
		return ErrNotFound
	}
	return s.repo.MarkRead(ctx, id)
}

// UnreadCount returns the user's unread notification count.
func (s *Service) UnreadCount(ctx context.Context, userID uuid.UUID) (int, error) {
	return s.repo.UnreadCountByUser(ctx, userID)
}

// relativeTime renders how long ago ts was, coarsening with age.
func relativeTime(now, ts time.Time) string {
	diff := now.Sub(ts)
	if diff < 0 {
		diff = 0
	}
	days := int(diff.Hours() / 24)
	switch {
	case days == 0:
		if diff < time.Hour {
			return ago(int(diff.Minutes()), "minute")
		}
		return ago(int(diff.Hours()), "hour")
	case days == 1:
		return "1 day ago"
	case days < 7:
		return fmt.Sprintf("%d days ago", days)
	case days < 30:
		return ago(days/7, "week")
	default:
		return ago(days/30, "month")
	}
}

func ago(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s ago", unit)
	}
	return fmt.Sprintf("%d %ss ago", n, unit)
}
