package model

import (
	"time"

	"foodlens/internal/domain"

	"github.com/google/uuid"
)

// User is a domain entity representing one mobile-app account.
type User struct {
	ID           string
	DeviceID     string // install-scoped identifier reported by the client
	Email        string // optional; empty for anonymous installs
	RegisteredAt time.Time
	LastActiveAt time.Time
	Dietary      []string // dietary preference tags, e.g. "vegetarian"
}

func NewUser(id, deviceID, email string) (*User, error) {
	if id == "" {
		id = uuid.NewString()
	}
	if deviceID == "" {
		return nil, domain.ErrInvalidArgument
	}
	now := time.Now()
	return &User{
		ID:           id,
		DeviceID:     deviceID,
		Email:        email,
		RegisteredAt: now,
		LastActiveAt: now,
	}, nil
}

func (u *User) IsZero() bool { return u == nil || u.ID == "" }
func (u *User) Touch()       { u.LastActiveAt = time.Now() }
