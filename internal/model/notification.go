package model

import (
	"slices"
	"time"
)

// NotificationType is the severity shown to the recipient.
type NotificationType string

// Notification type constants.
const (
	NotificationInfo    NotificationType = "info"
	NotificationSuccess NotificationType = "success"
	NotificationWarning NotificationType = "warning"
	NotificationError   NotificationType = "error"
)

// ValidNotificationTypes contains all valid notification types.
var ValidNotificationTypes = []NotificationType{
	NotificationInfo,
	NotificationSuccess,
	NotificationWarning,
	NotificationError,
}

// IsValid checks if the notification type is known.
func (t NotificationType) IsValid() bool {
	return slices.Contains(ValidNotificationTypes, t)
}

// Notification is a message addressed to exactly one user.
// Only IsRead changes after creation.
type Notification struct {
	ID        string           `json:"id"`
	UserID    string           `json:"user"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	Type      NotificationType `json:"type"`
	SenderID  string           `json:"-"` // Empty for system notifications
	Sender    *UserRef         `json:"sender"`
	IsRead    bool             `json:"isRead"`
	CreatedAt time.Time        `json:"createdAt"`
}
