package api

import (
	"net/http"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/blazechat/chat-api/internal/api/cookies"
	"github.com/blazechat/chat-api/internal/api/handler"
	"github.com/blazechat/chat-api/internal/api/middleware"
	"github.com/blazechat/chat-api/internal/core/domain"
	"github.com/blazechat/chat-api/internal/core/password"
	"github.com/blazechat/chat-api/internal/core/ports"
	"github.com/blazechat/chat-api/internal/core/service"
	"github.com/blazechat/chat-api/internal/core/token"
	"github.com/blazechat/chat-api/internal/infrastructure/config"
	pgstore "github.com/blazechat/chat-api/internal/infrastructure/db/postgres"
	redisstore "github.com/blazechat/chat-api/internal/infrastructure/db/redis"
	"github.com/blazechat/chat-api/pkg/logger"
)

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(cfg *config.Config, db *gorm.DB, rdb *redis.Client, queue ports.NotificationQueue, log zerolog.Logger) (*echo.Echo, error) {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddleware("blazechat"))

	// The CSRF token lives in a signed session cookie; the session store
	// carries the same hardening as the auth cookies.
	store := sessions.NewCookieStore([]byte(cfg.SessionSecret))
	store.Options = &sessions.Options{
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   cfg.IsProduction(),
	}
	e.Use(session.Middleware(store))

	// --- Dependencies ---
	cred, err := password.NewCredential(password.DefaultParams, cfg.PasswordPepper)
	if err != nil {
		return nil, err
	}

	clock := ports.SystemClock{}
	issuer := token.NewIssuer(cfg.JWTSecret, clock)

	userRepo := pgstore.NewUserRepository(db)
	refreshRepo := pgstore.NewRefreshTokenRepository(db, clock)
	serverRepo := pgstore.NewServerRepository(db)
	permCache := redisstore.NewPermissionCache(rdb, redisstore.DefaultTTL)

	authService := service.NewAuthService(userRepo, refreshRepo, queue, cred, issuer, cfg.APIURL, logger.Component("auth"))
	userService := service.NewUserService(userRepo, clock, logger.Component("users"))
	memberService := service.NewMemberService(serverRepo, permCache, logger.Component("members"))
	serverService := service.NewServerService(serverRepo, permCache, logger.Component("servers"))

	cw := cookies.NewWriter(cfg.IsProduction())
	guard := middleware.NewGuard(issuer, authService, userService, memberService, clock, cw, logger.Component("guard"))

	authHandler := handler.NewAuthHandler(authService, cw, cfg.SiteURL)
	userHandler := handler.NewUserHandler(userService, cw)
	serverHandler := handler.NewServerHandler(serverService, memberService)

	// --- Auth routes ---
	// Login, register and refresh are reachable without an identity but
	// still demand the CSRF session token.
	publicCSRF := guard.Require(middleware.Meta{Public: true, CSRF: true})
	public := guard.Require(middleware.Meta{Public: true})

	e.POST("/auth/register", authHandler.Register, publicCSRF)
	e.POST("/auth/login", authHandler.Login, publicCSRF)
	e.POST("/auth/refresh", authHandler.Refresh, publicCSRF)
	e.POST("/auth/logout", authHandler.Logout, publicCSRF)
	e.GET("/auth/callback", authHandler.Callback, public)
	e.GET("/auth/csrf-token", authHandler.CSRFToken, public)

	// --- User routes ---
	// Suspended users may still see their own account and delete it.
	e.GET("/users/me", userHandler.Me, guard.Require(middleware.Meta{AllowSuspended: true}))
	e.DELETE("/users/me", userHandler.DeleteMe, guard.Require(middleware.Meta{AllowSuspended: true, CSRF: true}))
	e.POST("/users/:user_id/suspensions", userHandler.Suspend, guard.Require(middleware.Meta{
		CSRF:  true,
		Roles: []domain.UserRole{domain.RoleAdmin, domain.RoleRoot},
	}))

	// --- Server routes ---
	e.POST("/servers", serverHandler.Create, guard.Require(middleware.Meta{CSRF: true}))
	e.POST("/servers/:server_id/members", serverHandler.Join, guard.Require(middleware.Meta{CSRF: true}))

	view := guard.Require(middleware.Meta{Permissions: domain.PermViewThreads})
	e.GET("/servers/:server_id/roles", serverHandler.Roles, view)
	e.GET("/servers/:server_id/roles/search", serverHandler.SearchRoles, view)
	e.GET("/servers/:server_id/members", serverHandler.Members, view)

	manageRoles := guard.Require(middleware.Meta{CSRF: true, Permissions: domain.PermManageRoles})
	e.POST("/servers/:server_id/roles", serverHandler.CreateRole, manageRoles)
	e.PUT("/servers/:server_id/roles/:role_id", serverHandler.UpdateRole, manageRoles)
	e.DELETE("/servers/:server_id/roles/:role_id", serverHandler.DeleteRole, manageRoles)
	e.POST("/servers/:server_id/members/:member_id/roles", serverHandler.AssignRole, manageRoles)
	e.DELETE("/servers/:server_id/members/:member_id/roles/:member_role_id", serverHandler.UnassignRole, manageRoles)

	// Members rename themselves with ChangeNickname; renaming someone else
	// needs ManageNickname.
	e.PUT("/servers/:server_id/members/me/nickname", serverHandler.UpdateNickname,
		guard.Require(middleware.Meta{CSRF: true, Permissions: domain.PermChangeNickname}))
	e.PUT("/servers/:server_id/members/:member_id/nickname", serverHandler.UpdateMemberNickname,
		guard.Require(middleware.Meta{CSRF: true, Permissions: domain.PermManageNickname}))

	// --- Health probes and metrics (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(db, rdb)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?
	e.GET("/metrics", echoprometheus.NewHandler())

	return e, nil
}
