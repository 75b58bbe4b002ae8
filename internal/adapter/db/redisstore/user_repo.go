package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	domain "user-service/internal/domain/user"
	"user-service/pkg/logger"
)

const (
	sequenceKey = "users:seq"
	indexKey    = "users:ids"
)

// raiseSequence lifts the id sequence to at least ARGV[1] so generated ids
// never collide with ids written explicitly through an upsert.
var raiseSequence = redis.NewScript(`
	local current = tonumber(redis.call('GET', KEYS[1]) or '0')
	local wanted = tonumber(ARGV[1])
	if wanted > current then
		redis.call('SET', KEYS[1], ARGV[1])
	end
	return 1
`)

// userRecord is the JSON document stored under user:{id}.
type userRecord struct {
	ID        int64  `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Age       int    `json:"age"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

func toRecord(u domain.User) userRecord {
	return userRecord{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Age:       u.Age,
		Email:     u.Email,
		Password:  u.Password,
	}
}

func (r userRecord) toDomain() domain.User {
	return domain.User{
		ID:        r.ID,
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Age:       r.Age,
		Email:     r.Email,
		Password:  r.Password,
	}
}

// UserRepo implements the Repository interface on Redis.
// Each user is a JSON value under user:{id}; users:ids indexes the live ids.
type UserRepo struct {
	client redis.UniversalClient
	log    *zap.Logger
}

// NewUserRepo creates a new Redis-backed user repository.
func NewUserRepo(client redis.UniversalClient, log *zap.Logger) *UserRepo {
	return &UserRepo{client: client, log: log}
}

func recordKey(id int64) string {
	return fmt.Sprintf("user:%d", id)
}

// FindAll returns every indexed user. Index entries without a record are skipped.
func (r *UserRepo) FindAll(ctx context.Context) ([]domain.User, error) {
	log := logger.WithContext(ctx, r.log)

	members, err := r.client.SMembers(ctx, indexKey).Result()
	if err != nil {
		log.Error("failed to read user index", zap.Error(err))
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	users := make([]domain.User, 0, len(members))
	if len(members) == 0 {
		return users, nil
	}

	keys := make([]string, len(members))
	for i, m := range members {
		keys[i] = "user:" + m
	}

	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		log.Error("failed to read users", zap.Int("count", len(keys)), zap.Error(err))
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	for i, v := range values {
		s, ok := v.(string)
		if !ok {
			log.Debug("index entry without record", zap.String("key", keys[i]))
			continue
		}
		var rec userRecord
		if err := json.Unmarshal([]byte(s), &rec); err != nil {
			log.Error("failed to unmarshal stored user", zap.String("key", keys[i]), zap.Error(err))
			return nil, fmt.Errorf("failed to decode %s: %w", keys[i], err)
		}
		users = append(users, rec.toDomain())
	}
	return users, nil
}

// FindByID retrieves a user by ID. ok is false when the key does not exist.
func (r *UserRepo) FindByID(ctx context.Context, id int64) (u domain.User, ok bool, err error) {
	key := recordKey(id)

	data, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.User{}, false, nil
	}
	if err != nil {
		logger.WithContext(ctx, r.log).Error("failed to get user", zap.Int64("id", id), zap.Error(err))
		return domain.User{}, false, fmt.Errorf("failed to get user: %w", err)
	}

	var rec userRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		logger.WithContext(ctx, r.log).Error("failed to unmarshal stored user", zap.String("key", key), zap.Error(err))
		return domain.User{}, false, fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return rec.toDomain(), true, nil
}

// Save assigns the next sequence value when ID is zero, otherwise it writes
// the record under the given ID whether or not it existed.
func (r *UserRepo) Save(ctx context.Context, u domain.User) (domain.User, error) {
	log := logger.WithContext(ctx, r.log)

	if u.ID == 0 {
		id, err := r.client.Incr(ctx, sequenceKey).Result()
		if err != nil {
			log.Error("failed to allocate user id", zap.Error(err))
			return domain.User{}, fmt.Errorf("failed to save user: %w", err)
		}
		u.ID = id
	} else if err := raiseSequence.Run(ctx, r.client, []string{sequenceKey}, u.ID).Err(); err != nil {
		log.Error("failed to advance user id sequence", zap.Int64("id", u.ID), zap.Error(err))
		return domain.User{}, fmt.Errorf("failed to save user: %w", err)
	}

	data, err := json.Marshal(toRecord(u))
	if err != nil {
		return domain.User{}, fmt.Errorf("failed to encode user: %w", err)
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, recordKey(u.ID), data, 0)
		pipe.SAdd(ctx, indexKey, strconv.FormatInt(u.ID, 10))
		return nil
	})
	if err != nil {
		log.Error("failed to save user", zap.Int64("id", u.ID), zap.Error(err))
		return domain.User{}, fmt.Errorf("failed to save user: %w", err)
	}

	log.Info("user saved in redis", zap.Int64("id", u.ID))
	return u, nil
}

// DeleteByID removes the record and its index entry. A missing user is not an error.
func (r *UserRepo) DeleteByID(ctx context.Context, id int64) error {
	log := logger.WithContext(ctx, r.log)

	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, recordKey(id))
		pipe.SRem(ctx, indexKey, strconv.FormatInt(id, 10))
		return nil
	})
	if err != nil {
		log.Error("failed to delete user", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to delete user: %w", err)
	}

	log.Info("user deleted in redis", zap.Int64("id", id))
	return nil
}
