package dto

import "time"

// CreateUserRequest payload.
type CreateUserRequest struct {
	Username string `json:"username"`
}

// UserResponse represents a user record.
type UserResponse struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
}

// UserListResponse wraps all users.
type UserListResponse struct {
	Users []UserResponse `json:"users"`
}
