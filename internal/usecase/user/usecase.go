package user

import (
	"context"

	"go.uber.org/zap"

	domain "user-service/internal/domain/user"
	"user-service/pkg/logger"
)

// Repository defines the interface for user data access operations.
// It abstracts the store, allowing the SQL and Redis implementations
// to be used interchangeably.
type Repository interface {
	FindAll(ctx context.Context) ([]domain.User, error)                // All users, unspecified order
	FindByID(ctx context.Context, id int64) (domain.User, bool, error) // false when absent
	Save(ctx context.Context, u domain.User) (domain.User, error)      // Insert when ID is zero, upsert otherwise
	DeleteByID(ctx context.Context, id int64) error                    // No error when absent
}

// Usecase delegates user operations to the repository.
type Usecase struct {
	repo Repository
	log  *zap.Logger
}

// New creates a new instance of Usecase with the provided repository and logger.
func New(r Repository, log *zap.Logger) *Usecase {
	return &Usecase{repo: r, log: log}
}

// GetAllUsers returns every stored user as a concrete, never nil, slice.
func (uc *Usecase) GetAllUsers(ctx context.Context) ([]domain.User, error) {
	log := logger.WithContext(ctx, uc.log)

	found, err := uc.repo.FindAll(ctx)
	if err != nil {
		log.Error("failed to get all users", zap.Error(err))
		return nil, err
	}

	users := make([]domain.User, 0, len(found))
	users = append(users, found...)

	log.Debug("listed users", zap.Int("count", len(users)))
	return users, nil
}

// GetUserByID returns the user with the given ID. The boolean is false when no such user exists.
func (uc *Usecase) GetUserByID(ctx context.Context, id int64) (domain.User, bool, error) {
	log := logger.WithContext(ctx, uc.log)

	u, ok, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		log.Error("failed to get user", zap.Int64("id", id), zap.Error(err))
		return domain.User{}, false, err
	}
	if !ok {
		log.Debug("user absent", zap.Int64("id", id))
	}
	return u, ok, nil
}

// AddUser stores a new user. Any caller supplied ID is ignored so the store assigns one.
func (uc *Usecase) AddUser(ctx context.Context, u domain.User) (domain.User, error) {
	log := logger.WithContext(ctx, uc.log)
	log.Info("adding user", zap.String("email", u.Email))

	u.ID = 0
	saved, err := uc.repo.Save(ctx, u)
	if err != nil {
		log.Error("failed to add user", zap.Error(err))
		return domain.User{}, err
	}
	return saved, nil
}

// UpdateUser saves the user under its ID, inserting it when the ID is unknown.
func (uc *Usecase) UpdateUser(ctx context.Context, u domain.User) (domain.User, error) {
	log := logger.WithContext(ctx, uc.log)
	log.Info("updating user", zap.Int64("id", u.ID))

	saved, err := uc.repo.Save(ctx, u)
	if err != nil {
		log.Error("failed to update user", zap.Int64("id", u.ID), zap.Error(err))
		return domain.User{}, err
	}
	return saved, nil
}

// DeleteUser removes the user with the given ID. Deleting a missing user succeeds.
func (uc *Usecase) DeleteUser(ctx context.Context, id int64) error {
	log := logger.WithContext(ctx, uc.log)
	log.Info("deleting user", zap.Int64("id", id))

	if err := uc.repo.DeleteByID(ctx, id); err != nil {
		log.Error("failed to delete user", zap.Int64("id", id), zap.Error(err))
		return err
	}
	return nil
}
