package redisstore

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	domain "user-service/internal/domain/user"
)

// setupTestRedis creates a miniredis instance for testing
func setupTestRedis(t *testing.T) (*UserRepo, *redis.Client, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() {
		_ = client.Close()
	})
	return NewUserRepo(client, zaptest.NewLogger(t)), client, mr
}

func newUser(first string, age int) domain.User {
	return domain.User{
		FirstName: first,
		LastName:  "Lee",
		Age:       age,
		Email:     first + "@x.com",
		Password:  "secret-" + first,
	}
}

func TestUserRepo_SaveThenFind(t *testing.T) {
	repo, _, _ := setupTestRedis(t)
	ctx := context.Background()

	in := newUser("Ann", 30)
	saved, err := repo.Save(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, int64(1), saved.ID)

	got, ok, err := repo.FindByID(ctx, saved.ID)
	require.NoError(t, err)
	require.True(t, ok)

	want := in
	want.ID = saved.ID
	assert.Equal(t, want, got)
}

func TestUserRepo_StoredLayout(t *testing.T) {
	repo, client, mr := setupTestRedis(t)
	ctx := context.Background()

	saved, err := repo.Save(ctx, newUser("Ann", 30))
	require.NoError(t, err)

	data, err := client.Get(ctx, "user:1").Bytes()
	require.NoError(t, err)

	var rec userRecord
	require.NoError(t, json.Unmarshal(data, &rec))
	assert.Equal(t, saved.ID, rec.ID)
	assert.Equal(t, "secret-Ann", rec.Password)

	members, err := mr.Members(indexKey)
	require.NoError(t, err)
	assert.Equal(t, []string{"1"}, members)
}

func TestUserRepo_FindByID_Absent(t *testing.T) {
	repo, _, _ := setupTestRedis(t)

	got, ok, err := repo.FindByID(context.Background(), 404)

	require.NoError(t, err)
	assert.False(t, ok)
	assert.Zero(t, got)
}

func TestUserRepo_FindByID_CorruptRecord(t *testing.T) {
	_, client, mr := setupTestRedis(t)
	core, logs := observer.New(zapcore.ErrorLevel)
	repo := NewUserRepo(client, zap.New(core))
	require.NoError(t, mr.Set("user:5", "not json"))

	_, ok, err := repo.FindByID(context.Background(), 5)

	assert.Error(t, err)
	assert.False(t, ok)
	entries := logs.FilterMessage("failed to unmarshal stored user").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "user:5", entries[0].ContextMap()["key"])
}

func TestUserRepo_FindAll(t *testing.T) {
	repo, _, mr := setupTestRedis(t)
	ctx := context.Background()

	users, err := repo.FindAll(ctx)
	require.NoError(t, err)
	assert.NotNil(t, users)
	assert.Empty(t, users)

	var ids []int64
	for i, n := range []string{"Ann", "Bob", "Cid"} {
		saved, err := repo.Save(ctx, newUser(n, 20+i))
		require.NoError(t, err)
		ids = append(ids, saved.ID)
	}

	// a dangling index entry is skipped
	_, err = mr.SetAdd(indexKey, "99")
	require.NoError(t, err)

	users, err = repo.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, users, 3)

	var got []int64
	for _, u := range users {
		got = append(got, u.ID)
	}
	assert.ElementsMatch(t, ids, got)
}

func TestUserRepo_SaveWithExistingIDReplaces(t *testing.T) {
	repo, _, _ := setupTestRedis(t)
	ctx := context.Background()

	saved, err := repo.Save(ctx, newUser("Ann", 30))
	require.NoError(t, err)

	saved.Age = 31
	_, err = repo.Save(ctx, saved)
	require.NoError(t, err)

	got, ok, err := repo.FindByID(ctx, saved.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 31, got.Age)

	users, err := repo.FindAll(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestUserRepo_SaveWithUnknownIDInsertsAndAdvancesSequence(t *testing.T) {
	repo, _, mr := setupTestRedis(t)
	ctx := context.Background()

	in := newUser("Eve", 50)
	in.ID = 10
	saved, err := repo.Save(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, int64(10), saved.ID)

	seq, err := mr.Get(sequenceKey)
	require.NoError(t, err)
	assert.Equal(t, "10", seq)

	next, err := repo.Save(ctx, newUser("Fay", 60))
	require.NoError(t, err)
	assert.Equal(t, int64(11), next.ID)

	// a lower explicit id never moves the sequence backwards
	low := newUser("Gus", 70)
	low.ID = 3
	_, err = repo.Save(ctx, low)
	require.NoError(t, err)

	seq, err = mr.Get(sequenceKey)
	require.NoError(t, err)
	assert.Equal(t, "11", seq)
}

func TestUserRepo_DeleteByID(t *testing.T) {
	repo, _, mr := setupTestRedis(t)
	ctx := context.Background()

	saved, err := repo.Save(ctx, newUser("Ann", 30))
	require.NoError(t, err)

	require.NoError(t, repo.DeleteByID(ctx, saved.ID))

	_, ok, err := repo.FindByID(ctx, saved.ID)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.False(t, mr.Exists("user:1"))

	members, _ := mr.Members(indexKey)
	assert.Empty(t, members)

	// idempotent
	assert.NoError(t, repo.DeleteByID(ctx, saved.ID))
	assert.NoError(t, repo.DeleteByID(ctx, 12345))
}

func TestUserRepo_ConnectionFailure(t *testing.T) {
	repo, _, mr := setupTestRedis(t)
	mr.Close()
	ctx := context.Background()

	_, err := repo.FindAll(ctx)
	assert.ErrorContains(t, err, "failed to list users")

	_, _, err = repo.FindByID(ctx, 1)
	assert.ErrorContains(t, err, "failed to get user")

	_, err = repo.Save(ctx, newUser("Ann", 30))
	assert.ErrorContains(t, err, "failed to save user")

	assert.ErrorContains(t, repo.DeleteByID(ctx, 1), "failed to delete user")
}
