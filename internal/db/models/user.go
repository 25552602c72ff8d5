package models

import "time"

// Roles a studio account can hold. Only the bootstrap account is an admin;
// accounts created any other way default to RoleViewer.
const (
	RoleAdmin  = "admin"
	RoleViewer = "viewer"
)

// User is a studio account. Password holds the bcrypt hash and never leaves
// the server.
type User struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Password  string    `json:"-"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
