package ports

import "context"

// RefreshTokenRepository persists the rotating refresh tokens.
type RefreshTokenRepository interface {
	// Rotate invalidates every active token for the user and inserts the
	// new one as a single atomic unit. Two concurrent Rotate calls for the
	// same user must serialize; at no observable point may two tokens for
	// one user both be active.
	Rotate(ctx context.Context, userID, token string) error

	// Resolve returns the owning user of a still-active token, or
	// domain.ErrUnauthorized for unknown and rotated-away tokens alike.
	Resolve(ctx context.Context, token string) (string, error)
}
