package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/blazechat/chat-api/internal/api/cookies"
	"github.com/blazechat/chat-api/internal/api/metrics"
	"github.com/blazechat/chat-api/internal/core/domain"
	"github.com/blazechat/chat-api/internal/core/ports"
	"github.com/blazechat/chat-api/internal/core/token"
)

// Context keys set by the guard chain for downstream handlers.
const (
	ContextUserID   = "user_id"
	ContextUserRole = "user_role"
)

// Meta declares a route's admission requirements. The zero value is the
// strictest sane default: authenticated, not suspended, no CSRF token
// needed, no role or permission constraint.
type Meta struct {
	// Public skips identity resolution and every check that depends on
	// it. CSRF still applies when set.
	Public bool
	// AllowSuspended lets suspended users through (e.g. appeal routes).
	AllowSuspended bool
	// CSRF requires a session-bound token on state-changing methods.
	CSRF bool
	// Roles allows only users whose platform role is in the set.
	Roles []domain.UserRole
	// Permissions requires every listed bit on the caller's member record
	// in the server addressed by the :server_id path parameter.
	Permissions domain.Permission
}

// Guard evaluates the admission chain: csrf, identity (with silent
// renewal), suspension, role, permission. Later stages assume identity is
// established, so the order is fixed. Every stage fails closed.
type Guard struct {
	issuer  *token.TokenIssuer
	auth    ports.AuthService
	users   ports.UserService
	members ports.MemberService
	clock   ports.Clock
	cookies *cookies.Writer
	log     zerolog.Logger
}

func NewGuard(
	issuer *token.TokenIssuer,
	auth ports.AuthService,
	users ports.UserService,
	members ports.MemberService,
	clock ports.Clock,
	cw *cookies.Writer,
	log zerolog.Logger,
) *Guard {
	return &Guard{
		issuer:  issuer,
		auth:    auth,
		users:   users,
		members: members,
		clock:   clock,
		cookies: cw,
		log:     log,
	}
}

// Require returns the middleware enforcing meta on a route.
func (g *Guard) Require(meta Meta) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			// CSRF runs before the public bypass: login, register and
			// refresh are public yet still need the session token.
			if meta.CSRF && stateChanging(c.Request().Method) {
				if err := verifyCSRF(c); err != nil {
					metrics.GuardDenialsTotal.WithLabelValues("csrf").Inc()
					return err
				}
			}

			if meta.Public {
				return next(c)
			}

			userID, err := g.identify(c)
			if err != nil {
				metrics.GuardDenialsTotal.WithLabelValues("identity").Inc()
				return err
			}
			c.Set(ContextUserID, userID)

			// Suspension and role checks both need the account row; load
			// it once.
			if !meta.AllowSuspended || len(meta.Roles) > 0 {
				user, err := g.users.Get(c.Request().Context(), userID)
				if err != nil {
					// The token outlived the account.
					metrics.GuardDenialsTotal.WithLabelValues("identity").Inc()
					return domain.ErrUnauthorized
				}
				c.Set(ContextUserRole, user.Role)

				if !meta.AllowSuspended && user.SuspendedAt(g.clock.Now()) {
					metrics.GuardDenialsTotal.WithLabelValues("suspension").Inc()
					return domain.ErrForbidden
				}

				if len(meta.Roles) > 0 && !roleAllowed(user.Role, meta.Roles) {
					metrics.GuardDenialsTotal.WithLabelValues("role").Inc()
					return domain.ErrUnauthorized
				}
			}

			if meta.Permissions != 0 {
				if err := g.checkPermissions(c, userID, meta.Permissions); err != nil {
					metrics.GuardDenialsTotal.WithLabelValues("permission").Inc()
					return err
				}
			}

			return next(c)
		}
	}
}

// identify resolves the caller's identity: access cookie first, then the
// Authorization header, then silent renewal from the refresh cookie. A
// renewal stamps a fresh access cookie on the response.
func (g *Guard) identify(c echo.Context) (string, error) {
	if cookie, err := c.Cookie(cookies.AccessName); err == nil && cookie.Value != "" {
		if claims, err := g.issuer.VerifyAccess(cookie.Value); err == nil {
			return claims.UserID, nil
		}
	}

	if header := c.Request().Header.Get(echo.HeaderAuthorization); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			if claims, err := g.issuer.VerifyAccess(parts[1]); err == nil {
				return claims.UserID, nil
			}
		}
	}

	refresh, err := c.Cookie(cookies.RefreshName)
	if err != nil || refresh.Value == "" {
		return "", domain.ErrUnauthorized
	}
	access, userID, err := g.auth.AccessFromRefresh(c.Request().Context(), refresh.Value)
	if err != nil {
		return "", domain.ErrUnauthorized
	}

	g.cookies.SetAccess(c, access)
	metrics.SilentRenewalsTotal.Inc()
	g.log.Debug().Str("user_id", userID).Msg("access token silently renewed")
	return userID, nil
}

// checkPermissions resolves the caller's membership in the addressed server
// and tests the required bits. Non-membership and missing bits both read as
// forbidden.
func (g *Guard) checkPermissions(c echo.Context, userID string, required domain.Permission) error {
	serverID := c.Param("server_id")
	if serverID == "" {
		return domain.ErrForbidden
	}

	ctx := c.Request().Context()
	memberID, err := g.members.MemberID(ctx, serverID, userID)
	if err != nil {
		return domain.ErrForbidden
	}

	ok, err := g.members.HasPermission(ctx, memberID, required)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrForbidden
	}
	return nil
}

func roleAllowed(role domain.UserRole, allowed []domain.UserRole) bool {
	for _, a := range allowed {
		if role == a {
			return true
		}
	}
	return false
}

func stateChanging(method string) bool {
	switch method {
	case "GET", "HEAD", "OPTIONS":
		return false
	}
	return true
}
