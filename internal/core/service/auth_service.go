package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/blazechat/chat-api/internal/core/domain"
	"github.com/blazechat/chat-api/internal/core/password"
	"github.com/blazechat/chat-api/internal/core/ports"
)

const (
	emailTokenBytes   = 42
	refreshTokenBytes = 128

	// ConfirmEmailEvent is the queue event consumed by the mailer worker.
	ConfirmEmailEvent = "confirm-email"
)

// AccessIssuer abstracts the stateless access-token signer.
type AccessIssuer interface {
	IssueAccess(userID string) (string, error)
}

type authService struct {
	users   ports.UserRepository
	refresh ports.RefreshTokenRepository
	queue   ports.NotificationQueue
	cred    *password.Credential
	issuer  AccessIssuer
	apiURL  string
	log     zerolog.Logger
}

// NewAuthService wires the auth gateway. apiURL is the externally reachable
// base used to build email-confirmation callback links.
func NewAuthService(
	users ports.UserRepository,
	refresh ports.RefreshTokenRepository,
	queue ports.NotificationQueue,
	cred *password.Credential,
	issuer AccessIssuer,
	apiURL string,
	log zerolog.Logger,
) ports.AuthService {
	return &authService{
		users:   users,
		refresh: refresh,
		queue:   queue,
		cred:    cred,
		issuer:  issuer,
		apiURL:  apiURL,
		log:     log,
	}
}

// SignUp registers an unconfirmed account. The confirmation email is
// enqueued fire-and-forget: a broker hiccup is logged, never surfaced.
func (s *authService) SignUp(ctx context.Context, in ports.SignUpInput) error {
	if !password.Acceptable(in.Password) {
		return domain.ErrWeakPassword
	}

	exists, err := s.users.ExistsByEmailOrUsername(ctx, in.Email, in.Username)
	if err != nil {
		return fmt.Errorf("sign up: %w", err)
	}
	if exists {
		return domain.ErrAccountExists
	}

	hash, err := s.cred.Hash(in.Password)
	if err != nil {
		return fmt.Errorf("sign up: hash password: %w", err)
	}

	emailToken, err := randomToken(emailTokenBytes)
	if err != nil {
		return fmt.Errorf("sign up: %w", err)
	}

	user := &domain.User{
		ID:                     uuid.NewString(),
		Email:                  in.Email,
		Username:               in.Username,
		HashedPassword:         hash,
		Role:                   domain.RoleRegular,
		EmailConfirmed:         false,
		EmailVerificationToken: &emailToken,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return fmt.Errorf("sign up: create user: %w", err)
	}

	if err := s.queue.Enqueue(ctx, ConfirmEmailEvent, map[string]string{
		"user_id":  user.ID,
		"email":    user.Email,
		"username": user.Username,
		"callback": s.callbackURL(emailToken, in.RedirectURI),
	}); err != nil {
		s.log.Warn().Err(err).Str("user_id", user.ID).Msg("confirmation email enqueue failed")
	}

	return nil
}

// VerifyEmail consumes the single-use token and logs the user in. A second
// attempt with the same token finds no matching unconfirmed account and
// fails unauthorized.
func (s *authService) VerifyEmail(ctx context.Context, verificationToken string) (domain.TokenPair, error) {
	if verificationToken == "" {
		return domain.TokenPair{}, domain.ErrUnauthorized
	}

	user, err := s.users.FindByVerificationToken(ctx, verificationToken)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return domain.TokenPair{}, domain.ErrUnauthorized
		}
		return domain.TokenPair{}, fmt.Errorf("verify email: %w", err)
	}

	if err := s.users.ConfirmEmail(ctx, user.ID, verificationToken); err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			// Token consumed by a concurrent verification.
			return domain.TokenPair{}, domain.ErrUnauthorized
		}
		return domain.TokenPair{}, fmt.Errorf("verify email: %w", err)
	}

	return s.mintPair(ctx, user.ID)
}

// SignIn authenticates by username and password. Unknown username and wrong
// password are indistinguishable to the caller.
func (s *authService) SignIn(ctx context.Context, username, pass string) (domain.TokenPair, error) {
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return domain.TokenPair{}, domain.ErrUnauthorized
		}
		return domain.TokenPair{}, fmt.Errorf("sign in: %w", err)
	}

	if !s.cred.Verify(pass, user.HashedPassword) {
		return domain.TokenPair{}, domain.ErrUnauthorized
	}

	return s.mintPair(ctx, user.ID)
}

// Refresh exchanges a still-active refresh token for a new pair. The
// presented token is rotated out and never reusable.
func (s *authService) Refresh(ctx context.Context, refreshToken string) (domain.TokenPair, error) {
	userID, err := s.refresh.Resolve(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, domain.ErrUnauthorized) {
			return domain.TokenPair{}, domain.ErrUnauthorized
		}
		return domain.TokenPair{}, fmt.Errorf("refresh: %w", err)
	}

	return s.mintPair(ctx, userID)
}

// AccessFromRefresh mints a fresh access token without rotating the refresh
// token. Used for silent renewal inside the guard chain.
func (s *authService) AccessFromRefresh(ctx context.Context, refreshToken string) (string, string, error) {
	userID, err := s.refresh.Resolve(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, domain.ErrUnauthorized) {
			return "", "", domain.ErrUnauthorized
		}
		return "", "", fmt.Errorf("silent renewal: %w", err)
	}

	access, err := s.issuer.IssueAccess(userID)
	if err != nil {
		return "", "", fmt.Errorf("silent renewal: issue access: %w", err)
	}
	return access, userID, nil
}

// mintPair issues an access token and rotates in a fresh refresh token.
func (s *authService) mintPair(ctx context.Context, userID string) (domain.TokenPair, error) {
	access, err := s.issuer.IssueAccess(userID)
	if err != nil {
		return domain.TokenPair{}, fmt.Errorf("issue access token: %w", err)
	}

	refreshToken, err := randomToken(refreshTokenBytes)
	if err != nil {
		return domain.TokenPair{}, err
	}
	if err := s.refresh.Rotate(ctx, userID, refreshToken); err != nil {
		return domain.TokenPair{}, fmt.Errorf("rotate refresh token: %w", err)
	}

	return domain.TokenPair{Access: access, Refresh: refreshToken}, nil
}

func (s *authService) callbackURL(emailToken, redirectURI string) string {
	link, err := url.Parse(s.apiURL + "/auth/callback")
	if err != nil {
		// apiURL is validated at startup; a parse failure here means the
		// config loader let garbage through.
		s.log.Error().Err(err).Msg("invalid api url for callback link")
		return ""
	}
	q := link.Query()
	q.Set("t", emailToken)
	q.Set("redirect_uri", redirectURI)
	link.RawQuery = q.Encode()
	return link.String()
}

func randomToken(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
