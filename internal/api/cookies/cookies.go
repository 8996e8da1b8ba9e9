// Package cookies centralizes the auth cookie contract: names, lifetimes
// and attributes. Handlers and the guard chain must agree on these or
// sessions silently break, so they live in one place.
package cookies

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/blazechat/chat-api/internal/core/token"
)

const (
	// AccessName holds the short-lived JWT.
	AccessName = "blaze_at"
	// RefreshName holds the long-lived rotating refresh token.
	RefreshName = "blaze_rt"

	// RefreshTTL bounds how long a refresh token can sit unused before the
	// browser drops it.
	RefreshTTL = 14 * 24 * time.Hour
)

// Writer stamps auth cookies with environment-dependent attributes. Secure
// is off outside production so local HTTP development works.
type Writer struct {
	secure bool
}

func NewWriter(secure bool) *Writer {
	return &Writer{secure: secure}
}

// SetAccess writes the access-token cookie, valid as long as the token it
// carries.
func (w *Writer) SetAccess(c echo.Context, accessToken string) {
	c.SetCookie(w.build(AccessName, accessToken, token.AccessTTL))
}

// SetPair writes both auth cookies after a successful login or refresh.
func (w *Writer) SetPair(c echo.Context, accessToken, refreshToken string) {
	w.SetAccess(c, accessToken)
	c.SetCookie(w.build(RefreshName, refreshToken, RefreshTTL))
}

// Clear expires both auth cookies.
func (w *Writer) Clear(c echo.Context) {
	c.SetCookie(w.build(AccessName, "", -time.Second))
	c.SetCookie(w.build(RefreshName, "", -time.Second))
}

func (w *Writer) build(name, value string, ttl time.Duration) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(ttl / time.Second),
		HttpOnly: true,
		Secure:   w.secure,
		SameSite: http.SameSiteLaxMode,
	}
}
