package ports

import (
	"context"

	"github.com/blazechat/chat-api/internal/core/domain"
)

// PermissionCache is a short-TTL cache for effective permission masks. A
// miss or cache error is never fatal; callers fall through to the store.
type PermissionCache interface {
	Get(ctx context.Context, memberID string) (domain.Permission, bool, error)
	Set(ctx context.Context, memberID string, mask domain.Permission) error
	Invalidate(ctx context.Context, memberID string) error
}
