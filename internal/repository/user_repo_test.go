package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/thrivesend/thrivesend-backend/internal/domain"
	"github.com/thrivesend/thrivesend-backend/pkg/cache"
)

type mockCache struct {
	mock.Mock
	store map[string]interface{}
}

func (m *mockCache) Get(ctx context.Context, key string, dest interface{}) error {
	args := m.Called(key)
	if v, ok := m.store[key]; ok {
		*(dest.(*domain.User)) = *(v.(*domain.User))
	}
	return args.Error(0)
}

func (m *mockCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	args := m.Called(key, ttl)
	m.store[key] = value
	return args.Error(0)
}

func (m *mockCache) IsAvailable() bool { return true }

func TestUserRepository_FindByExternalID(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	u := &domain.User{ExternalID: "user_2abc", FirstName: "Ada", LastName: "Lovelace"}
	require.NoError(t, repo.Create(ctx, u))
	assert.NotEmpty(t, u.ID)

	got, err := repo.FindByExternalID(ctx, "user_2abc")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	missing, err := repo.FindByExternalID(ctx, "user_missing")
	assert.NoError(t, err)
	assert.Nil(t, missing)
}

func TestCachedUserRepository_ReadThrough(t *testing.T) {
	db := setupTestDB(t)
	inner := NewUserRepository(db)
	ctx := context.Background()
	require.NoError(t, inner.Create(ctx, &domain.User{ExternalID: "user_2abc", FirstName: "Ada"}))

	c := &mockCache{store: map[string]interface{}{}}
	key := cache.UserKey("user_2abc")
	c.On("Get", key).Return(cache.ErrMiss).Once()
	c.On("Set", key, cache.TTLUser).Return(nil).Once()
	c.On("Get", key).Return(nil).Once()

	repo := NewCachedUserRepository(inner, c)

	first, err := repo.FindByExternalID(ctx, "user_2abc")
	require.NoError(t, err)
	second, err := repo.FindByExternalID(ctx, "user_2abc")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "Ada", second.FirstName)
	c.AssertExpectations(t)
}

func TestCachedUserRepository_MissingUserNotCached(t *testing.T) {
	db := setupTestDB(t)
	c := &mockCache{store: map[string]interface{}{}}
	c.On("Get", cache.UserKey("ghost")).Return(cache.ErrMiss)

	repo := NewCachedUserRepository(NewUserRepository(db), c)
	got, err := repo.FindByExternalID(context.Background(), "ghost")

	assert.NoError(t, err)
	assert.Nil(t, got)
	c.AssertNotCalled(t, "Set", mock.Anything, mock.Anything)
}

func TestNewCachedUserRepository_NoRedis(t *testing.T) {
	inner := NewUserRepository(setupTestDB(t))
	assert.Equal(t, inner, NewCachedUserRepository(inner, cache.NewService(nil)))
}
