package ports

import (
	"context"
	"time"

	"github.com/blazechat/chat-api/internal/core/domain"
)

// UserService exposes account state to handlers and guards.
type UserService interface {
	// Get returns the user with suspensions loaded.
	Get(ctx context.Context, id string) (*domain.User, error)
	// IsSuspended evaluates the suspension rule (active iff now before
	// expire_at) against the user's suspension rows.
	IsSuspended(ctx context.Context, id string) (bool, error)
	// Suspend records a suspension issued by staff for the given duration.
	Suspend(ctx context.Context, staffID, userID string, duration time.Duration) error
	// ScheduleDeletion soft-deletes via a pending-deletion marker.
	ScheduleDeletion(ctx context.Context, userID string) error
}
