package repositories

import (
	"context"
	"time"

	"encore/internal/database"
	"encore/internal/logger"
	. "encore/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	USER_CACHE_PREFIX = "user"
	USER_CACHE_EXPIRY = 24 * time.Hour
)

type UserRepository interface {
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*User, error)
	Create(ctx context.Context, tx *gorm.DB, user *User) error
}

type userRepository struct {
	cache database.CacheClient
}

func NewUserRepository(cache database.CacheClient) UserRepository {
	return &userRepository{cache: cache}
}

func (r *userRepository) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*User, error) {
	log := logger.NewWithContext(ctx, "userRepository").Function("GetByID")

	var cached User
	found, err := database.NewCacheBuilder(r.cache, id).
		WithContext(ctx).
		WithHash(USER_CACHE_PREFIX).
		Get(&cached)
	if err != nil {
		log.Warn("failed to get user from cache", "userID", id, "error", err)
	}

	if found {
		return &cached, nil
	}

	var user User
	err = tx.WithContext(ctx).First(&user, "id = ?", id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, log.Err("failed to get user", err, "id", id)
	}

	err = database.NewCacheBuilder(r.cache, id).
		WithContext(ctx).
		WithHash(USER_CACHE_PREFIX).
		WithStruct(user).
		WithTTL(USER_CACHE_EXPIRY).
		Set()
	if err != nil {
		log.Warn("failed to cache user", "userID", id, "error", err)
	}

	return &user, nil
}

func (r *userRepository) Create(ctx context.Context, tx *gorm.DB, user *User) error {
	log := logger.NewWithContext(ctx, "userRepository").Function("Create")

	if err := tx.WithContext(ctx).Create(user).Error; err != nil {
		return log.Err("failed to create user", err)
	}

	return nil
}
