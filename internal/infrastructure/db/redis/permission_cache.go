package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/blazechat/chat-api/internal/core/domain"
	"github.com/blazechat/chat-api/internal/core/ports"
)

// DefaultTTL keeps cached masks short-lived: a role edit is visible to
// already-assigned members within this window without any invalidation
// traffic.
const DefaultTTL = 30 * time.Second

type permissionCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewPermissionCache returns a PermissionCache storing effective permission
// masks under one key per member. ttl <= 0 falls back to DefaultTTL.
func NewPermissionCache(client *redis.Client, ttl time.Duration) ports.PermissionCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &permissionCache{client: client, ttl: ttl}
}

func permKey(memberID string) string {
	return "perm:" + memberID
}

func (c *permissionCache) Get(ctx context.Context, memberID string) (domain.Permission, bool, error) {
	val, err := c.client.Get(ctx, permKey(memberID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("permission cache get: %w", err)
	}

	mask, err := strconv.ParseUint(val, 10, 64)
	if err != nil {
		// Unparseable entry: treat as a miss so the store read repairs it.
		return 0, false, nil
	}
	return domain.Permission(mask), true, nil
}

func (c *permissionCache) Set(ctx context.Context, memberID string, mask domain.Permission) error {
	err := c.client.Set(ctx, permKey(memberID), strconv.FormatUint(uint64(mask), 10), c.ttl).Err()
	if err != nil {
		return fmt.Errorf("permission cache set: %w", err)
	}
	return nil
}

func (c *permissionCache) Invalidate(ctx context.Context, memberID string) error {
	if err := c.client.Del(ctx, permKey(memberID)).Err(); err != nil {
		return fmt.Errorf("permission cache invalidate: %w", err)
	}
	return nil
}
