package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/blazechat/chat-api/internal/core/domain"
	"github.com/blazechat/chat-api/internal/core/ports"
)

type userService struct {
	users ports.UserRepository
	clock ports.Clock
	log   zerolog.Logger
}

// NewUserService returns the account-state service used by handlers and the
// suspension guard.
func NewUserService(users ports.UserRepository, clock ports.Clock, log zerolog.Logger) ports.UserService {
	return &userService{users: users, clock: clock, log: log}
}

func (s *userService) Get(ctx context.Context, id string) (*domain.User, error) {
	return s.users.FindByID(ctx, id)
}

// IsSuspended applies the one suspension rule used everywhere: a suspension
// is active iff now is before its expiry.
func (s *userService) IsSuspended(ctx context.Context, id string) (bool, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return false, err
	}
	return user.SuspendedAt(s.clock.Now()), nil
}

func (s *userService) Suspend(ctx context.Context, staffID, userID string, duration time.Duration) error {
	if duration <= 0 {
		return fmt.Errorf("suspend: non-positive duration")
	}

	// The target must exist; suspending a ghost row would silently succeed.
	if _, err := s.users.FindByID(ctx, userID); err != nil {
		return err
	}

	suspension := &domain.Suspension{
		ID:       uuid.NewString(),
		UserID:   userID,
		StaffID:  staffID,
		ExpireAt: s.clock.Now().Add(duration),
	}
	if err := s.users.CreateSuspension(ctx, suspension); err != nil {
		return fmt.Errorf("suspend: %w", err)
	}

	s.log.Info().
		Str("user_id", userID).
		Str("staff_id", staffID).
		Time("expire_at", suspension.ExpireAt).
		Msg("user suspended")
	return nil
}

// ScheduleDeletion soft-deletes: the account row stays, a pending-deletion
// marker is inserted for the reaper.
func (s *userService) ScheduleDeletion(ctx context.Context, userID string) error {
	if _, err := s.users.FindByID(ctx, userID); err != nil {
		return err
	}

	marker := &domain.PendingDeletion{
		ID:     uuid.NewString(),
		UserID: userID,
	}
	if err := s.users.CreatePendingDeletion(ctx, marker); err != nil {
		return fmt.Errorf("schedule deletion: %w", err)
	}
	return nil
}
