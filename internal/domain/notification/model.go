package notification

import (
	"time"

	"github.com/google/uuid"
)

// Notification maps to the notifications table. Type is one of
// prescription, appointment, system or message.
type Notification struct {
	ID          uuid.UUID `db:"id" json:"id"`
	UserID      uuid.UUID `db:"user_id" json:"user_id"`
	Type        string    `db:"type" json:"type"`
	Title       string    `db:"title" json:"title"`
	Description string    `db:"description" json:"description"`
	Read        bool      `db:"read" json:"read"`
	Priority    string    `db:"priority" json:"priority"`
	ActionURL   *string   `db:"action_url" json:"action_url,omitempty"`
	ActionLabel *string   `db:"action_label" json:"action_label,omitempty"`
	Timestamp   time.Time `db:"timestamp" json:"timestamp"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// View is a notification with the timestamp rendered as relative time.
type View struct {
	ID          uuid.UUID `json:"id"`
	Type        string    `json:"type"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Timestamp   string    `json:"timestamp"`
	Read        bool      `json:"read"`
	Priority    string    `json:"priority"`
	ActionURL   *string   `json:"actionUrl,omitempty"`
	ActionLabel *string   `json:"actionLabel,omitempty"`
}

func validPriority(p string) bool {
	switch p {
	case "low", "medium", "high":
		return true
	}
	return false
}
