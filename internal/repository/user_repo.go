package repository

import (
	"context"
	"errors"

	"github.com/thrivesend/thrivesend-backend/internal/domain"
	"github.com/thrivesend/thrivesend-backend/pkg/cache"
	pkglogger "github.com/thrivesend/thrivesend-backend/pkg/logger"
	"gorm.io/gorm"
)

// UserRepository 사용자 조회
type UserRepository interface {
	FindByExternalID(ctx context.Context, externalID string) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	Create(ctx context.Context, user *domain.User) error
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

// FindByExternalID returns nil, nil when the identity is not provisioned
func (r *userRepository) FindByExternalID(ctx context.Context, externalID string) (*domain.User, error) {
	var user domain.User
	err := r.db.WithContext(ctx).Where("external_id = ?", externalID).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// FindByID returns nil, nil when missing
func (r *userRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	var user domain.User
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// Create inserts a new user
func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	if user.ID == "" {
		user.ID = newID()
	}
	return r.db.WithContext(ctx).Create(user).Error
}

// cachedUserRepository Redis 캐시를 앞단에 둔 UserRepository
// 인증된 요청마다 외부 ID -> 내부 사용자 조회가 일어나므로 캐시한다.
type cachedUserRepository struct {
	UserRepository
	cache cache.Service
}

// NewCachedUserRepository wraps inner with a read-through cache on FindByExternalID
func NewCachedUserRepository(inner UserRepository, c cache.Service) UserRepository {
	if c == nil || !c.IsAvailable() {
		return inner
	}
	return &cachedUserRepository{UserRepository: inner, cache: c}
}

func (r *cachedUserRepository) FindByExternalID(ctx context.Context, externalID string) (*domain.User, error) {
	key := cache.UserKey(externalID)

	var cached domain.User
	if err := r.cache.Get(ctx, key, &cached); err == nil {
		return &cached, nil
	} else if !errors.Is(err, cache.ErrMiss) {
		pkglogger.GetLogger().Warn().Err(err).Str("key", key).Msg("user cache read failed")
	}

	user, err := r.UserRepository.FindByExternalID(ctx, externalID)
	if err != nil || user == nil {
		return user, err
	}

	if err := r.cache.Set(ctx, key, user, cache.TTLUser); err != nil {
		pkglogger.GetLogger().Warn().Err(err).Str("key", key).Msg("user cache write failed")
	}
	return user, nil
}
