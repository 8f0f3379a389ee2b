package repository

import (
	"context"

	"foodlens/internal/domain/model"
)

// UserRepository is the port for user accounts.
type UserRepository interface {
	Save(ctx context.Context, tx Tx, user *model.User) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.User, error)
	FindByDeviceID(ctx context.Context, tx Tx, deviceID string) (*model.User, error)
	CountUsers(ctx context.Context) (int, error)
}
