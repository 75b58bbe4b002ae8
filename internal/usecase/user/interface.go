package user

import (
	"context"

	domain "user-service/internal/domain/user"
)

// UserUsecase defines the interface for user operations exposed to transports.
type UserUsecase interface {
	GetAllUsers(ctx context.Context) ([]domain.User, error)
	GetUserByID(ctx context.Context, id int64) (domain.User, bool, error)
	AddUser(ctx context.Context, u domain.User) (domain.User, error)
	UpdateUser(ctx context.Context, u domain.User) (domain.User, error)
	DeleteUser(ctx context.Context, id int64) error
}

var _ UserUsecase = (*Usecase)(nil)
