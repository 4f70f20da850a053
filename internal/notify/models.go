package notify

import "time"

// Notification is one message in a user's append-only inbox.
// Only the Read flag may change after creation.
type Notification struct {
	ID      string `json:"id" db:"id"`
	UserID  string `json:"user_id" db:"user_id"`
	Message string `json:"message" db:"message"`
	Read    bool   `json:"read" db:"read"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
