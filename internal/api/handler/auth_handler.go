package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/blazechat/chat-api/internal/api/cookies"
	"github.com/blazechat/chat-api/internal/api/metrics"
	"github.com/blazechat/chat-api/internal/api/middleware"
	"github.com/blazechat/chat-api/internal/core/domain"
	"github.com/blazechat/chat-api/internal/core/ports"
)

// AuthHandler handles the credential lifecycle endpoints.
type AuthHandler struct {
	auth    ports.AuthService
	cookies *cookies.Writer
	siteURL string
}

// NewAuthHandler returns the auth endpoints. siteURL is the fallback
// redirect target after email verification.
func NewAuthHandler(auth ports.AuthService, cw *cookies.Writer, siteURL string) *AuthHandler {
	return &AuthHandler{auth: auth, cookies: cw, siteURL: siteURL}
}

type registerRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Username    string `json:"username" validate:"required,username"`
	Password    string `json:"password" validate:"required"`
	RedirectURI string `json:"redirect_uri" validate:"omitempty,uri"`
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type csrfTokenResponse struct {
	CSRFToken string `json:"csrf_token"`
}

// Register creates an unconfirmed account and mails a confirmation link.
//
// @Summary      Register a new account
// @Tags         auth
// @Accept       json
// @Param        body  body  registerRequest  true  "Registration details"
// @Success      204
// @Failure      400   {object}  map[string]string
// @Failure      406   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Router       /auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	err := h.auth.SignUp(c.Request().Context(), ports.SignUpInput{
		Email:       req.Email,
		Username:    req.Username,
		Password:    req.Password,
		RedirectURI: req.RedirectURI,
	})
	switch {
	case err == nil:
		metrics.SignupsTotal.WithLabelValues("ok").Inc()
	case err == domain.ErrAccountExists:
		metrics.SignupsTotal.WithLabelValues("conflict").Inc()
	case err == domain.ErrWeakPassword:
		metrics.SignupsTotal.WithLabelValues("weak_password").Inc()
	default:
		metrics.SignupsTotal.WithLabelValues("error").Inc()
	}
	if err != nil {
		return err
	}

	return c.NoContent(http.StatusNoContent)
}

// Login authenticates by username and password and sets the auth cookies.
//
// @Summary      Sign in
// @Tags         auth
// @Accept       json
// @Param        body  body  loginRequest  true  "Credentials"
// @Success      204
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	pair, err := h.auth.SignIn(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		metrics.LoginsTotal.WithLabelValues("unauthorized").Inc()
		return err
	}
	metrics.LoginsTotal.WithLabelValues("ok").Inc()

	h.cookies.SetPair(c, pair.Access, pair.Refresh)
	return c.NoContent(http.StatusNoContent)
}

// Callback consumes the emailed verification token, logs the user in and
// redirects to the client app.
//
// @Summary      Email verification callback
// @Tags         auth
// @Param        t             query  string  true   "Verification token"
// @Param        redirect_uri  query  string  false  "Post-login redirect"
// @Success      302
// @Failure      401  {object}  map[string]string
// @Router       /auth/callback [get]
func (h *AuthHandler) Callback(c echo.Context) error {
	pair, err := h.auth.VerifyEmail(c.Request().Context(), c.QueryParam("t"))
	if err != nil {
		return err
	}

	h.cookies.SetPair(c, pair.Access, pair.Refresh)

	target := c.QueryParam("redirect_uri")
	if target == "" {
		target = h.siteURL
	}
	return c.Redirect(http.StatusFound, target)
}

// Refresh rotates the refresh token and re-issues both cookies.
//
// @Summary      Refresh the session
// @Tags         auth
// @Success      204
// @Failure      401  {object}  map[string]string
// @Router       /auth/refresh [post]
func (h *AuthHandler) Refresh(c echo.Context) error {
	cookie, err := c.Cookie(cookies.RefreshName)
	if err != nil || cookie.Value == "" {
		metrics.TokenRefreshTotal.WithLabelValues("unauthorized").Inc()
		return domain.ErrUnauthorized
	}

	pair, err := h.auth.Refresh(c.Request().Context(), cookie.Value)
	if err != nil {
		metrics.TokenRefreshTotal.WithLabelValues("unauthorized").Inc()
		return err
	}
	metrics.TokenRefreshTotal.WithLabelValues("ok").Inc()

	h.cookies.SetPair(c, pair.Access, pair.Refresh)
	return c.NoContent(http.StatusNoContent)
}

// Logout drops the auth cookies. The refresh token stays in the store until
// the next rotation; access tokens expire on their own.
//
// @Summary      Sign out
// @Tags         auth
// @Success      204
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	h.cookies.Clear(c)
	return c.NoContent(http.StatusNoContent)
}

// CSRFToken hands the client its session-bound CSRF token.
//
// @Summary      Fetch the CSRF token
// @Tags         auth
// @Produce      json
// @Success      200  {object}  csrfTokenResponse
// @Router       /auth/csrf-token [get]
func (h *AuthHandler) CSRFToken(c echo.Context) error {
	tok, err := middleware.EnsureCSRFToken(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, csrfTokenResponse{CSRFToken: tok})
}
