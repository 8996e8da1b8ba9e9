package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/blazechat/chat-api/internal/core/domain"
	"github.com/blazechat/chat-api/internal/core/ports"
)

// ServerHandler exposes server, role and member management. Permission
// enforcement happens in the guard chain; handlers assume an admitted
// caller.
type ServerHandler struct {
	servers ports.ServerService
	members ports.MemberService
}

func NewServerHandler(servers ports.ServerService, members ports.MemberService) *ServerHandler {
	return &ServerHandler{servers: servers, members: members}
}

type createServerRequest struct {
	Name string `json:"name" validate:"required,min=2,max=50"`
}

type roleRequest struct {
	Name        string `json:"name" validate:"required,min=1,max=50"`
	Color       string `json:"color" validate:"omitempty,hexcolor"`
	Permissions uint64 `json:"permissions"`
}

type serverResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	OwnerID   string    `json:"owner_id"`
	CreatedAt time.Time `json:"created_at"`
}

type roleResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Color       string `json:"color"`
	Permissions uint64 `json:"permissions"`
}

type memberResponse struct {
	ID       string    `json:"id"`
	UserID   string    `json:"user_id"`
	Nickname string    `json:"nickname"`
	TimedOut bool      `json:"timed_out"`
	JoinedAt time.Time `json:"joined_at"`
}

type joinRequest struct {
	Nickname string `json:"nickname" validate:"omitempty,max=32"`
}

type nicknameRequest struct {
	Nickname string `json:"nickname" validate:"max=32"`
}

type assignRoleRequest struct {
	RoleID string `json:"role_id" validate:"required,uuid"`
}

func toRoleResponse(r domain.ServerRole) roleResponse {
	return roleResponse{
		ID:          r.ID,
		Name:        r.Name,
		Color:       r.Color,
		Permissions: uint64(r.Permissions),
	}
}

func toMemberResponse(m domain.ServerMember) memberResponse {
	return memberResponse{
		ID:       m.ID,
		UserID:   m.UserID,
		Nickname: m.Nickname,
		TimedOut: m.TimedOut,
		JoinedAt: m.CreatedAt,
	}
}

// Create provisions a server owned by the caller.
//
// @Summary      Create a server
// @Tags         servers
// @Accept       json
// @Produce      json
// @Param        body  body      createServerRequest  true  "Server details"
// @Success      201   {object}  serverResponse
// @Failure      400   {object}  map[string]string
// @Router       /servers [post]
func (h *ServerHandler) Create(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}

	var req createServerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	server, err := h.servers.Create(c.Request().Context(), userID, req.Name)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, serverResponse{
		ID:        server.ID,
		Name:      server.Name,
		OwnerID:   server.OwnerID,
		CreatedAt: server.CreatedAt,
	})
}

// Roles lists a server's roles.
//
// @Summary      List roles
// @Tags         roles
// @Produce      json
// @Param        server_id  path      string  true  "Server id"
// @Success      200        {array}   roleResponse
// @Failure      404        {object}  map[string]string
// @Router       /servers/{server_id}/roles [get]
func (h *ServerHandler) Roles(c echo.Context) error {
	roles, err := h.servers.Roles(c.Request().Context(), c.Param("server_id"))
	if err != nil {
		return err
	}
	out := make([]roleResponse, 0, len(roles))
	for _, r := range roles {
		out = append(out, toRoleResponse(r))
	}
	return c.JSON(http.StatusOK, out)
}

// SearchRoles ranks roles against a free-text query.
//
// @Summary      Search roles
// @Tags         roles
// @Produce      json
// @Param        server_id  path      string  true   "Server id"
// @Param        q          query     string  false  "Query"
// @Success      200        {array}   roleResponse
// @Router       /servers/{server_id}/roles/search [get]
func (h *ServerHandler) SearchRoles(c echo.Context) error {
	roles, err := h.servers.SearchRoles(c.Request().Context(), c.Param("server_id"), c.QueryParam("q"))
	if err != nil {
		return err
	}
	out := make([]roleResponse, 0, len(roles))
	for _, r := range roles {
		out = append(out, toRoleResponse(r))
	}
	return c.JSON(http.StatusOK, out)
}

// CreateRole adds a role to a server.
//
// @Summary      Create a role
// @Tags         roles
// @Accept       json
// @Produce      json
// @Param        server_id  path      string       true  "Server id"
// @Param        body       body      roleRequest  true  "Role details"
// @Success      201        {object}  roleResponse
// @Failure      400        {object}  map[string]string
// @Failure      403        {object}  map[string]string
// @Router       /servers/{server_id}/roles [post]
func (h *ServerHandler) CreateRole(c echo.Context) error {
	var req roleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	role, err := h.servers.CreateRole(c.Request().Context(), c.Param("server_id"), ports.RoleInput{
		Name:        req.Name,
		Color:       req.Color,
		Permissions: domain.Permission(req.Permissions),
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toRoleResponse(*role))
}

// UpdateRole replaces a role's name, color and permission mask.
//
// @Summary      Update a role
// @Tags         roles
// @Accept       json
// @Param        server_id  path  string       true  "Server id"
// @Param        role_id    path  string       true  "Role id"
// @Param        body       body  roleRequest  true  "Role details"
// @Success      204
// @Failure      404  {object}  map[string]string
// @Router       /servers/{server_id}/roles/{role_id} [put]
func (h *ServerHandler) UpdateRole(c echo.Context) error {
	var req roleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	err := h.servers.UpdateRole(c.Request().Context(), c.Param("server_id"), c.Param("role_id"), ports.RoleInput{
		Name:        req.Name,
		Color:       req.Color,
		Permissions: domain.Permission(req.Permissions),
	})
	if err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// DeleteRole removes a role. Assignments cascade away with it.
//
// @Summary      Delete a role
// @Tags         roles
// @Param        server_id  path  string  true  "Server id"
// @Param        role_id    path  string  true  "Role id"
// @Success      204
// @Failure      404  {object}  map[string]string
// @Router       /servers/{server_id}/roles/{role_id} [delete]
func (h *ServerHandler) DeleteRole(c echo.Context) error {
	if err := h.servers.DeleteRole(c.Request().Context(), c.Param("server_id"), c.Param("role_id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Members lists a server's members.
//
// @Summary      List members
// @Tags         members
// @Produce      json
// @Param        server_id  path      string  true  "Server id"
// @Success      200        {array}   memberResponse
// @Failure      404        {object}  map[string]string
// @Router       /servers/{server_id}/members [get]
func (h *ServerHandler) Members(c echo.Context) error {
	members, err := h.servers.Members(c.Request().Context(), c.Param("server_id"))
	if err != nil {
		return err
	}
	out := make([]memberResponse, 0, len(members))
	for _, m := range members {
		out = append(out, toMemberResponse(m))
	}
	return c.JSON(http.StatusOK, out)
}

// Join adds the caller to a server.
//
// @Summary      Join a server
// @Tags         members
// @Accept       json
// @Produce      json
// @Param        server_id  path      string       true   "Server id"
// @Param        body       body      joinRequest  false  "Join options"
// @Success      201        {object}  memberResponse
// @Failure      404        {object}  map[string]string
// @Router       /servers/{server_id}/members [post]
func (h *ServerHandler) Join(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}

	var req joinRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	member, err := h.servers.Join(c.Request().Context(), c.Param("server_id"), userID, req.Nickname)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toMemberResponse(*member))
}

// UpdateNickname changes the caller's nickname in a server.
//
// @Summary      Update own nickname
// @Tags         members
// @Accept       json
// @Param        server_id  path  string           true  "Server id"
// @Param        body       body  nicknameRequest  true  "New nickname"
// @Success      204
// @Failure      404  {object}  map[string]string
// @Router       /servers/{server_id}/members/me/nickname [put]
func (h *ServerHandler) UpdateNickname(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}

	var req nicknameRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()
	serverID := c.Param("server_id")
	memberID, err := h.members.MemberID(ctx, serverID, userID)
	if err != nil {
		return err
	}
	if err := h.members.UpdateNickname(ctx, serverID, memberID, req.Nickname); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// UpdateMemberNickname changes another member's nickname.
//
// @Summary      Update a member's nickname
// @Tags         members
// @Accept       json
// @Param        server_id  path  string           true  "Server id"
// @Param        member_id  path  string           true  "Member id"
// @Param        body       body  nicknameRequest  true  "New nickname"
// @Success      204
// @Failure      404  {object}  map[string]string
// @Router       /servers/{server_id}/members/{member_id}/nickname [put]
func (h *ServerHandler) UpdateMemberNickname(c echo.Context) error {
	var req nicknameRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.members.UpdateNickname(c.Request().Context(), c.Param("server_id"), c.Param("member_id"), req.Nickname); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// AssignRole grants a role to a member.
//
// @Summary      Assign a role to a member
// @Tags         members
// @Accept       json
// @Param        server_id  path  string             true  "Server id"
// @Param        member_id  path  string             true  "Member id"
// @Param        body       body  assignRoleRequest  true  "Role to assign"
// @Success      204
// @Failure      404  {object}  map[string]string
// @Router       /servers/{server_id}/members/{member_id}/roles [post]
func (h *ServerHandler) AssignRole(c echo.Context) error {
	var req assignRoleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.members.AssignRole(c.Request().Context(), c.Param("server_id"), c.Param("member_id"), req.RoleID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// UnassignRole revokes a role assignment from a member.
//
// @Summary      Unassign a role from a member
// @Tags         members
// @Param        server_id       path  string  true  "Server id"
// @Param        member_id       path  string  true  "Member id"
// @Param        member_role_id  path  string  true  "Assignment id"
// @Success      204
// @Failure      404  {object}  map[string]string
// @Router       /servers/{server_id}/members/{member_id}/roles/{member_role_id} [delete]
func (h *ServerHandler) UnassignRole(c echo.Context) error {
	if err := h.members.UnassignRole(c.Request().Context(), c.Param("server_id"), c.Param("member_id"), c.Param("member_role_id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
