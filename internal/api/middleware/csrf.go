package middleware

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"

	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"

	"github.com/blazechat/chat-api/internal/core/domain"
)

const (
	// CSRFHeader carries the client's copy of the session token.
	CSRFHeader = "X-Csrf-Token"
	// SessionName is the signed session cookie holding the server's copy.
	SessionName = "blaze_sid"

	sessionCSRFKey = "csrf_token"
	csrfTokenBytes = 32
)

// EnsureCSRFToken returns the session's CSRF token, minting and persisting
// one on first use. A tampered session cookie decodes to a fresh session
// and therefore a fresh token.
func EnsureCSRFToken(c echo.Context) (string, error) {
	sess, err := session.Get(SessionName, c)
	if sess == nil {
		return "", fmt.Errorf("csrf token: %w", err)
	}

	if tok, ok := sess.Values[sessionCSRFKey].(string); ok && tok != "" {
		return tok, nil
	}

	buf := make([]byte, csrfTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("csrf token: %w", err)
	}
	tok := hex.EncodeToString(buf)

	sess.Values[sessionCSRFKey] = tok
	if err := sess.Save(c.Request(), c.Response()); err != nil {
		return "", fmt.Errorf("csrf token: save session: %w", err)
	}
	return tok, nil
}

// verifyCSRF compares the header token against the session token. Length is
// checked before the byte comparison so a mismatched length cannot be told
// apart from mismatched bytes by timing. Any absence fails closed.
func verifyCSRF(c echo.Context) error {
	sess, err := session.Get(SessionName, c)
	if err != nil || sess == nil {
		return domain.ErrForbidden
	}

	stored, _ := sess.Values[sessionCSRFKey].(string)
	presented := c.Request().Header.Get(CSRFHeader)
	if stored == "" || presented == "" {
		return domain.ErrForbidden
	}
	if len(stored) != len(presented) {
		return domain.ErrForbidden
	}
	if subtle.ConstantTimeCompare([]byte(stored), []byte(presented)) != 1 {
		return domain.ErrForbidden
	}
	return nil
}
