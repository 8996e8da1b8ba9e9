package domain

import "errors"

// Sentinel errors shared across services. The API layer maps each of these
// to a deterministic HTTP status; anything else becomes a 500.
var (
	// ErrUnauthorized covers every failure where identity could not be
	// established: missing, forged, expired or rotated-away credentials.
	// Deliberately undifferentiated so a caller cannot distinguish
	// "expired" from "forged".
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden covers failures where identity is known but standing is
	// insufficient: active suspension, CSRF mismatch, missing role or
	// permission bits.
	ErrForbidden = errors.New("access forbidden")

	ErrAccountExists = errors.New("email or username already registered")
	ErrWeakPassword  = errors.New("password below strength threshold")

	ErrUserNotFound   = errors.New("user not found")
	ErrServerNotFound = errors.New("server not found")
	ErrRoleNotFound   = errors.New("role not found")
	ErrMemberNotFound = errors.New("member not found")
)
