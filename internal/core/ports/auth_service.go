package ports

import (
	"context"

	"github.com/blazechat/chat-api/internal/core/domain"
)

// SignUpInput carries the registration payload into the auth service.
type SignUpInput struct {
	Email       string
	Username    string
	Password    string
	RedirectURI string
}

// AuthService orchestrates the credential lifecycle: sign-up, email
// verification, sign-in, refresh rotation and silent access renewal.
type AuthService interface {
	// SignUp registers an unconfirmed account and enqueues the
	// confirmation email. It does not log the user in.
	SignUp(ctx context.Context, in SignUpInput) error

	// VerifyEmail consumes a single-use verification token, confirms the
	// account and mints a token pair (auto-login on verification).
	VerifyEmail(ctx context.Context, verificationToken string) (domain.TokenPair, error)

	// SignIn authenticates by username and password. Failures are generic:
	// the caller never learns which of the two was wrong.
	SignIn(ctx context.Context, username, password string) (domain.TokenPair, error)

	// Refresh exchanges a valid refresh token for a fresh pair, rotating
	// the presented token out. A rotated-away token resolves to
	// domain.ErrUnauthorized.
	Refresh(ctx context.Context, refreshToken string) (domain.TokenPair, error)

	// AccessFromRefresh mints a new access token from a still-active
	// refresh token without rotating it. Used by the guard chain for
	// silent renewal.
	AccessFromRefresh(ctx context.Context, refreshToken string) (access string, userID string, err error)
}
