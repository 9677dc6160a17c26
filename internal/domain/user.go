package domain

import (
	"fmt"
	"time"
)

// User represents a document owner in the system
type User struct {
	ID        string
	Name      string
	CreatedAt time.Time
}

// NewUser creates a new User instance
func NewUser(id, name string, createdAt time.Time) *User {
	return &User{
		ID:        id,
		Name:      name,
		CreatedAt: createdAt,
	}
}

// ValidateUser validates a User instance
func ValidateUser(u *User) error {
	if u == nil {
		return fmt.Errorf("user cannot be nil")
	}

	if u.ID == "" {
		return fmt.Errorf("user ID is required")
	}

	if u.Name == "" {
		return fmt.Errorf("user Name is required")
	}

	return nil
}
