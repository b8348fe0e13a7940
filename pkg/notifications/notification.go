package notifications

import (
	"time"
)

// Type is the notification severity.
type Type string

const (
	TypeInfo    Type = "info"
	TypeSuccess Type = "success"
	TypeWarning Type = "warning"
	TypeError   Type = "error"
)

// Valid reports whether t is one of the known severities.
func (t Type) Valid() bool {
	switch t {
	case TypeInfo, TypeSuccess, TypeWarning, TypeError:
		return true
	}
	return false
}

// Notification is a transient message shown to the user.
type Notification struct {
	ID        string    `json:"id"`
	Type      Type      `json:"type"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
	// ExpiresAt is zero when the notification stays until dismissed.
	ExpiresAt time.Time `json:"expires_at,omitzero"`
}

// IsZero reports whether n is the empty notification.
func (n Notification) IsZero() bool {
	return n.ID == ""
}

// Update describes the slot after a change. Visible is false once the
// notification was dismissed or expired; Notification then holds the one that
// was removed.
type Update struct {
	Notification Notification
	Visible      bool
}
