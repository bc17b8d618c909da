// Package domain contains the core business entities and interfaces.
package domain

import (
	"context"
	"time"
)

// User represents a user identified by the forward-auth proxy.
type User struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"createdAt"`
}

// UserRepository defines the port for user persistence operations.
type UserRepository interface {
	// GetByUsername returns nil when no such user exists.
	GetByUsername(ctx context.Context, username string) (*User, error)
	Create(ctx context.Context, username string) (*User, error)
}
