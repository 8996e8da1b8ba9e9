package ports

import (
	"context"

	"github.com/blazechat/chat-api/internal/core/domain"
)

// UserRepository is the persistence contract for accounts, suspensions and
// deletion markers. Find methods return domain.ErrUserNotFound when no row
// matches.
type UserRepository interface {
	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	// FindByVerificationToken matches only unconfirmed accounts still
	// holding the token.
	FindByVerificationToken(ctx context.Context, token string) (*domain.User, error)
	ExistsByEmailOrUsername(ctx context.Context, email, username string) (bool, error)
	Create(ctx context.Context, user *domain.User) error
	// ConfirmEmail flips the confirmed flag and clears the verification
	// token in one conditional update; it returns domain.ErrUserNotFound
	// when the token was already consumed (single-use contract).
	ConfirmEmail(ctx context.Context, userID, verificationToken string) error
	CreateSuspension(ctx context.Context, s *domain.Suspension) error
	CreatePendingDeletion(ctx context.Context, d *domain.PendingDeletion) error
}
