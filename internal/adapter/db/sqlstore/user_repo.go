package sqlstore

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"user-service/internal/domain/user"
	"user-service/pkg/logger"
)

// UserRepo implements the Repository interface on a relational database through GORM.
// It works with any GORM dialector; PostgreSQL and SQLite are wired at startup.
type UserRepo struct {
	db  *gorm.DB
	log *zap.Logger
}

// NewUserRepo creates a new instance of UserRepo.
func NewUserRepo(db *gorm.DB, log *zap.Logger) *UserRepo {
	return &UserRepo{db: db, log: log}
}

// UserSchema is the row shape of the users table.
type UserSchema struct {
	ID        int64  `gorm:"column:id;primaryKey;autoIncrement"`
	FirstName string `gorm:"column:first_name"`
	LastName  string `gorm:"column:last_name"`
	Age       int    `gorm:"column:age"`
	Email     string `gorm:"column:email"`
	Password  string `gorm:"column:password"`
}

// TableName specifies the table name for the UserSchema model.
func (UserSchema) TableName() string {
	return "users"
}

func toSchema(u user.User) UserSchema {
	return UserSchema{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Age:       u.Age,
		Email:     u.Email,
		Password:  u.Password,
	}
}

func toDomain(m UserSchema) user.User {
	return user.User{
		ID:        m.ID,
		FirstName: m.FirstName,
		LastName:  m.LastName,
		Age:       m.Age,
		Email:     m.Email,
		Password:  m.Password,
	}
}

// Migrate creates or extends the users table from UserSchema.
func (r *UserRepo) Migrate(ctx context.Context) error {
	if err := r.db.WithContext(ctx).AutoMigrate(&UserSchema{}); err != nil {
		return fmt.Errorf("failed to migrate users table: %w", err)
	}
	return nil
}

// FindAll returns every user row. Order is whatever the database yields.
func (r *UserRepo) FindAll(ctx context.Context) ([]user.User, error) {
	var models []UserSchema
	if err := r.db.WithContext(ctx).Find(&models).Error; err != nil {
		logger.WithContext(ctx, r.log).Error("failed to list users from db", zap.Error(err))
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	users := make([]user.User, len(models))
	for i, m := range models {
		users[i] = toDomain(m)
	}
	return users, nil
}

// FindByID retrieves a user by primary key. ok is false when no row matches.
func (r *UserRepo) FindByID(ctx context.Context, id int64) (u user.User, ok bool, err error) {
	var model UserSchema
	if err := r.db.WithContext(ctx).Take(&model, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return user.User{}, false, nil
		}
		logger.WithContext(ctx, r.log).Error("failed to get user from db", zap.Error(err), zap.Int64("id", id))
		return user.User{}, false, fmt.Errorf("failed to get user: %w", err)
	}
	return toDomain(model), true, nil
}

// Save inserts the user when ID is zero. Otherwise it updates the row with that ID,
// and GORM falls back to an insert when no row was updated.
// On PostgreSQL an explicit ID does not advance the id sequence, so the sequence is
// moved past the largest stored ID in the same transaction.
func (r *UserRepo) Save(ctx context.Context, u user.User) (user.User, error) {
	log := logger.WithContext(ctx, r.log)
	model := toSchema(u)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(&model).Error; err != nil {
			return err
		}
		if u.ID != 0 && tx.Dialector.Name() == "postgres" {
			return syncIDSequence(tx)
		}
		return nil
	})
	if err != nil {
		log.Error("failed to save user in db", zap.Error(err), zap.Int64("id", u.ID))
		return user.User{}, fmt.Errorf("failed to save user: %w", err)
	}

	log.Info("user saved in db", zap.Int64("id", model.ID))
	return toDomain(model), nil
}

func syncIDSequence(tx *gorm.DB) error {
	table := UserSchema{}.TableName()
	return tx.Exec(
		"SELECT setval(pg_get_serial_sequence(?, 'id'), GREATEST((SELECT MAX(id) FROM "+table+"), 1))",
		table,
	).Error
}

// DeleteByID removes the row with the given ID. A missing row is not an error.
func (r *UserRepo) DeleteByID(ctx context.Context, id int64) error {
	log := logger.WithContext(ctx, r.log)

	res := r.db.WithContext(ctx).Delete(&UserSchema{}, id)
	if res.Error != nil {
		log.Error("failed to delete user in db", zap.Error(res.Error), zap.Int64("id", id))
		return fmt.Errorf("failed to delete user: %w", res.Error)
	}

	log.Info("user deleted in db", zap.Int64("id", id), zap.Int64("rows", res.RowsAffected))
	return nil
}
