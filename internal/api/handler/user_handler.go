package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/blazechat/chat-api/internal/api/cookies"
	"github.com/blazechat/chat-api/internal/core/domain"
	"github.com/blazechat/chat-api/internal/core/ports"
)

// UserHandler exposes account state and moderation endpoints.
type UserHandler struct {
	users   ports.UserService
	cookies *cookies.Writer
}

func NewUserHandler(users ports.UserService, cw *cookies.Writer) *UserHandler {
	return &UserHandler{users: users, cookies: cw}
}

type userResponse struct {
	ID             string          `json:"id"`
	Email          string          `json:"email"`
	Username       string          `json:"username"`
	Role           domain.UserRole `json:"role"`
	EmailConfirmed bool            `json:"email_confirmed"`
	Suspended      bool            `json:"suspended"`
	CreatedAt      time.Time       `json:"created_at"`
}

type suspendRequest struct {
	DurationSeconds int64 `json:"duration_seconds" validate:"required,gt=0"`
}

// Me returns the authenticated account.
//
// @Summary      Current account
// @Tags         users
// @Produce      json
// @Success      200  {object}  userResponse
// @Failure      401  {object}  map[string]string
// @Router       /users/me [get]
func (h *UserHandler) Me(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}

	user, err := h.users.Get(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	suspended, err := h.users.IsSuspended(c.Request().Context(), userID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, userResponse{
		ID:             user.ID,
		Email:          user.Email,
		Username:       user.Username,
		Role:           user.Role,
		EmailConfirmed: user.EmailConfirmed,
		Suspended:      suspended,
		CreatedAt:      user.CreatedAt,
	})
}

// Suspend records a timed suspension against a user. Guarded to admin and
// root roles at the router.
//
// @Summary      Suspend a user
// @Tags         users
// @Accept       json
// @Param        user_id  path  string          true  "Target user"
// @Param        body     body  suspendRequest  true  "Suspension length"
// @Success      204
// @Failure      400  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /users/{user_id}/suspensions [post]
func (h *UserHandler) Suspend(c echo.Context) error {
	staffID, err := ctxUserID(c)
	if err != nil {
		return err
	}

	var req suspendRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	duration := time.Duration(req.DurationSeconds) * time.Second
	if err := h.users.Suspend(c.Request().Context(), staffID, c.Param("user_id"), duration); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// DeleteMe schedules the account for deletion and ends the session.
//
// @Summary      Delete the current account
// @Tags         users
// @Success      204
// @Failure      401  {object}  map[string]string
// @Router       /users/me [delete]
func (h *UserHandler) DeleteMe(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}

	if err := h.users.ScheduleDeletion(c.Request().Context(), userID); err != nil {
		return err
	}

	h.cookies.Clear(c)
	return c.NoContent(http.StatusNoContent)
}
