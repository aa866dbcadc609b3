package dto

import "github.com/apihub/apihub/internal/model"

// UpdateUserRequest is the body of PUT /api/users/{id}. Omitted fields are unchanged.
type UpdateUserRequest struct {
	Name  *string `json:"name"`
	Email *string `json:"email"`
	Role  *string `json:"role"`
}

// UserResponse wraps a single user.
type UserResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	User    *model.User `json:"user"`
}

// UserListResponse wraps a user list.
type UserListResponse struct {
	Success bool          `json:"success"`
	Count   int           `json:"count"`
	Users   []*model.User `json:"users"`
}

// NewUserList builds a UserListResponse.
func NewUserList(users []*model.User) UserListResponse {
	return UserListResponse{Success: true, Count: len(users), Users: users}
}
