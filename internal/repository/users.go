package repository

import (
	"NewsComments/internal/models"
	"context"
	"fmt"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.uber.org/zap"
	"strconv"
	"time"
)

// Users reads the user hashes (user:<id>) owned by the account service.
// The comment store only reads profiles and bumps the replies counter.
type Users struct {
	kv  KV
	log *zap.Logger
}

func NewUsers(kv KV, log *zap.Logger) *Users {
	return &Users{kv: kv, log: log.Named("users")}
}

func userKey(id int64) string {
	return "user:" + strconv.FormatInt(id, 10)
}

func (u *Users) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	fields, err := u.kv.HGetAll(ctx, userKey(id))
	if err != nil {
		u.log.Error("Failed to get user", zap.Int64("user_id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("user %d: %w", id, ErrNotFound)
	}
	user := &models.User{
		ID:       id,
		Username: fields["username"],
		Email:    fields["email"],
	}
	if replies, ok := fields["replies"]; ok {
		n, err := strconv.ParseInt(replies, 10, 64)
		if err != nil {
			u.log.Warn("Ignoring unreadable replies counter", zap.Int64("user_id", id), zap.String("replies", replies), zap.Error(err))
		}
		user.Replies = n
	}
	return user, nil
}

// Save writes the profile fields of a user. Used for seeding and tests.
func (u *Users) Save(ctx context.Context, user models.User) error {
	key := userKey(user.ID)
	fields := [][2]string{
		{"id", strconv.FormatInt(user.ID, 10)},
		{"username", user.Username},
		{"email", user.Email},
	}
	for _, f := range fields {
		if err := u.kv.HSet(ctx, key, f[0], f[1]); err != nil {
			return fmt.Errorf("failed to save user: %w", err)
		}
	}
	return nil
}

// IncrReplies bumps the replies counter of an existing user. It reports
// false without writing anything when the user does not exist.
func (u *Users) IncrReplies(ctx context.Context, id int64) (bool, error) {
	key := userKey(id)
	ok, err := u.kv.Exists(ctx, key)
	if err != nil {
		u.log.Error("Failed to check user", zap.Int64("user_id", id), zap.Error(err))
		return false, fmt.Errorf("failed to check user: %w", err)
	}
	if !ok {
		return false, nil
	}
	if _, err := u.kv.HIncrBy(ctx, key, "replies", 1); err != nil {
		u.log.Error("Failed to increment replies", zap.Int64("user_id", id), zap.Error(err))
		return false, fmt.Errorf("failed to increment replies: %w", err)
	}
	return true, nil
}

// CachedUsers keeps recently read profiles in an expiring LRU. Counter
// updates go straight to the backend and drop the cached entry.
type CachedUsers struct {
	*Users
	cache *expirable.LRU[int64, models.User]
}

func NewCachedUsers(users *Users, size int, ttl time.Duration) *CachedUsers {
	if size <= 0 {
		size = 1024
	}
	return &CachedUsers{
		Users: users,
		cache: expirable.NewLRU[int64, models.User](size, nil, ttl),
	}
}

func (c *CachedUsers) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	if user, ok := c.cache.Get(id); ok {
		return &user, nil
	}
	user, err := c.Users.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	c.cache.Add(id, *user)
	return user, nil
}

func (c *CachedUsers) IncrReplies(ctx context.Context, id int64) (bool, error) {
	c.cache.Remove(id)
	return c.Users.IncrReplies(ctx, id)
}
