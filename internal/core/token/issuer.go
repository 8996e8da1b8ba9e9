// Package token mints and verifies the short-lived, stateless access tokens.
// Validity is determined entirely by signature and expiry; no store lookup
// happens on the hot path.
package token

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/blazechat/chat-api/internal/core/domain"
	"github.com/blazechat/chat-api/internal/core/ports"
)

const (
	// Issuer and Audience identify this deployment; tokens minted elsewhere
	// never verify here.
	Issuer   = "blazechat.se-prod"
	Audience = "https://blazechat.se"

	// AccessTTL is the fixed access-token lifetime.
	AccessTTL = 3600 * time.Second
)

// Claims is the verified payload of an access token.
type Claims struct {
	UserID   string
	IssuedAt time.Time
	Expiry   time.Time
}

// Issuer signs and verifies access tokens with a shared HS256 secret.
type TokenIssuer struct {
	secret []byte
	clock  ports.Clock
}

// NewIssuer returns a TokenIssuer. The secret is loaded once at startup and
// never rotated at runtime.
func NewIssuer(secret string, clock ports.Clock) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), clock: clock}
}

// IssueAccess mints a signed access token for the user, valid for AccessTTL
// from now.
func (i *TokenIssuer) IssueAccess(userID string) (string, error) {
	now := i.clock.Now()

	claims := jwt.RegisteredClaims{
		Subject:   userID,
		Issuer:    Issuer,
		Audience:  jwt.ClaimStrings{Audience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(AccessTTL)),
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
}

// VerifyAccess validates signature, issuer, audience and expiry. Every
// failure collapses to domain.ErrUnauthorized so callers cannot build an
// oracle out of the error detail.
func (i *TokenIssuer) VerifyAccess(tokenString string) (*Claims, error) {
	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return i.secret, nil
	},
		jwt.WithIssuer(Issuer),
		jwt.WithAudience(Audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.clock.Now),
	)
	if err != nil || !parsed.Valid || claims.Subject == "" {
		return nil, domain.ErrUnauthorized
	}

	out := &Claims{UserID: claims.Subject}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		out.Expiry = claims.ExpiresAt.Time
	}
	return out, nil
}
