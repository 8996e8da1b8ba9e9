package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/blazechat/chat-api/internal/api/middleware"
	"github.com/blazechat/chat-api/internal/core/domain"
)

// ctxUserID extracts the identity injected by the guard chain. An empty
// value means the route was wired without the guard; treat it as an
// unauthenticated request rather than trusting the gap.
func ctxUserID(c echo.Context) (string, error) {
	userID, _ := c.Get(middleware.ContextUserID).(string)
	if userID == "" {
		return "", domain.ErrUnauthorized
	}
	return userID, nil
}
