package dto

import "github.com/apihub/apihub/internal/model"

// NotificationListResponse is the recipient's inbox.
type NotificationListResponse struct {
	Success       bool                  `json:"success"`
	Count         int                   `json:"count"`
	UnreadCount   int64                 `json:"unreadCount"`
	Notifications []*model.Notification `json:"notifications"`
}

// UnreadCountResponse carries the unread counter.
type UnreadCountResponse struct {
	Success     bool  `json:"success"`
	UnreadCount int64 `json:"unreadCount"`
}

// NotificationResponse wraps a single notification.
type NotificationResponse struct {
	Success      bool                `json:"success"`
	Message      string              `json:"message,omitempty"`
	Notification *model.Notification `json:"notification"`
}

// MarkAllReadResponse reports how many notifications were flagged.
type MarkAllReadResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Updated int64  `json:"updated"`
}

// ChangePasswordRequest is the body of PUT /api/admin/users/{id}/password.
type ChangePasswordRequest struct {
	NewPassword string `json:"newPassword"`
}

// SendNotificationRequest is the body of POST /api/admin/users/{id}/notify.
type SendNotificationRequest struct {
	Title   string `json:"title"`
	Message string `json:"message"`
	Type    string `json:"type"`
}
