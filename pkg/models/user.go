package models

import "time"

// User is a directory record. Only active users are eligible assignees.
type User struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"      validate:"required,email"`
	Role       string    `json:"role"`
	Department string    `json:"department,omitempty"`
	Manager    string    `json:"manager,omitempty"`
	IsActive   bool      `json:"is_active"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
