// File: internal/usecase/user_uc.go
package usecase

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"foodlens/internal/domain"
	"foodlens/internal/domain/model"
	"foodlens/internal/domain/ports/repository"
)

// UserUseCase handles device-scoped account registration and profile bits.
type UserUseCase interface {
	// RegisterDevice finds or creates the account for a device install and
	// guarantees a subscription exists for it.
	RegisterDevice(ctx context.Context, deviceID, email string) (*model.User, error)
	Get(ctx context.Context, id string) (*model.User, error)
	UpdateDietary(ctx context.Context, id string, tags []string) (*model.User, error)
	CountUsers(ctx context.Context) (int, error)
}

var _ UserUseCase = (*userUC)(nil)

type userUC struct {
	users repository.UserRepository
	subs  SubscriptionUseCase
	log   *zerolog.Logger
}

func NewUserUseCase(users repository.UserRepository, subs SubscriptionUseCase, log *zerolog.Logger) *userUC {
	return &userUC{users: users, subs: subs, log: log}
}

func (uc *userUC) RegisterDevice(ctx context.Context, deviceID, email string) (*model.User, error) {
	user, err := uc.users.FindByDeviceID(ctx, repository.NoTX, deviceID)
	if errors.Is(err, domain.ErrNotFound) {
		user, err = model.NewUser("", deviceID, email)
		if err != nil {
			return nil, err
		}
		if err := uc.users.Save(ctx, repository.NoTX, user); err != nil {
			return nil, err
		}
		uc.log.Info().Str("user_id", user.ID).Msg("registered new device")
	} else if err != nil {
		return nil, err
	} else {
		user.Touch()
		if err := uc.users.Save(ctx, repository.NoTX, user); err != nil {
			uc.log.Warn().Err(err).Str("user_id", user.ID).Msg("last-active touch failed")
		}
	}

	if _, err := uc.subs.EnsureSubscription(ctx, user.ID); err != nil {
		return nil, err
	}
	return user, nil
}

func (uc *userUC) Get(ctx context.Context, id string) (*model.User, error) {
	return uc.users.FindByID(ctx, repository.NoTX, id)
}

func (uc *userUC) UpdateDietary(ctx context.Context, id string, tags []string) (*model.User, error) {
	user, err := uc.users.FindByID(ctx, repository.NoTX, id)
	if err != nil {
		return nil, err
	}
	user.Dietary = tags
	if err := uc.users.Save(ctx, repository.NoTX, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (uc *userUC) CountUsers(ctx context.Context) (int, error) {
	return uc.users.CountUsers(ctx)
}
