package di

import (
	"context"
	"fmt"

	"user-service/cmd/api/infrastructure"
	"user-service/internal/adapter/db/redisstore"
	"user-service/internal/adapter/db/sqlstore"
	ginhandler "user-service/internal/adapter/gin/handler"
	grpcadapter "user-service/internal/adapter/grpc"
	"user-service/internal/config"
	"user-service/internal/usecase/user"
	redisclient "user-service/pkg/redis"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Container holds all application dependencies
type Container struct {
	Config      *config.Config
	Logger      *zap.Logger
	DB          *gorm.DB
	RedisClient *redisclient.Client
	UserUC      user.UserUsecase
	GinHandler  *ginhandler.UserHandler
	GRPCService *grpcadapter.UserServiceServer
}

// NewContainer creates and initializes all application dependencies
func NewContainer(ctx context.Context, cfg *config.Config, l *zap.Logger) (*Container, error) {
	// Validate configuration before initializing any dependencies
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	c := &Container{Config: cfg, Logger: l}

	repo, err := c.newRepository(ctx)
	if err != nil {
		_ = c.Close()
		return nil, err
	}

	c.UserUC = user.New(repo, l)
	c.GinHandler = ginhandler.NewUserHandler(c.UserUC, l)
	c.GRPCService = grpcadapter.NewUserServiceServer(c.UserUC, l)

	return c, nil
}

// newRepository opens the store selected by STORE_DRIVER.
func (c *Container) newRepository(ctx context.Context) (user.Repository, error) {
	if c.Config.Store.Driver == config.StoreRedis {
		rdb, err := infrastructure.NewRedisClient(ctx, c.Config, c.Logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Redis: %w", err)
		}
		c.RedisClient = rdb
		return redisstore.NewUserRepo(rdb.Client, c.Logger), nil
	}

	db, err := infrastructure.NewDatabase(c.Config, c.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	c.DB = db

	repo := sqlstore.NewUserRepo(db, c.Logger)
	if c.Config.DB.AutoMigrate {
		if err := repo.Migrate(ctx); err != nil {
			return nil, err
		}
	}
	return repo, nil
}

// Close closes all resources held by the container
func (c *Container) Close() error {
	var errs []error

	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close Redis: %w", err))
		}
	}

	if c.DB != nil {
		if err := infrastructure.CloseDatabase(c.DB); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("container close errors: %v", errs)
	}

	return nil
}
