package ports

import (
	"context"

	"github.com/blazechat/chat-api/internal/core/domain"
)

// ServerRepository is the persistence contract for servers, roles, members
// and role assignments.
type ServerRepository interface {
	CreateServer(ctx context.Context, server *domain.Server) error
	FindServer(ctx context.Context, id string) (*domain.Server, error)

	CreateRole(ctx context.Context, role *domain.ServerRole) error
	// RoleByID resolves a role inside a server; a role id that exists but
	// belongs to another server is domain.ErrRoleNotFound.
	RoleByID(ctx context.Context, serverID, roleID string) (*domain.ServerRole, error)
	UpdateRole(ctx context.Context, role *domain.ServerRole) error
	DeleteRole(ctx context.Context, serverID, roleID string) error
	RolesByServer(ctx context.Context, serverID string) ([]domain.ServerRole, error)
	// SearchRoles matches against the normalized name: exact first, then
	// prefix/substring, then trigram similarity above 0.3, in that rank
	// order.
	SearchRoles(ctx context.Context, serverID, query string) ([]domain.ServerRole, error)

	CreateMember(ctx context.Context, member *domain.ServerMember) error
	UpdateMember(ctx context.Context, member *domain.ServerMember) error
	MemberByID(ctx context.Context, memberID string) (*domain.ServerMember, error)
	MemberByUser(ctx context.Context, serverID, userID string) (*domain.ServerMember, error)
	MembersByServer(ctx context.Context, serverID string) ([]domain.ServerMember, error)

	RolesByMember(ctx context.Context, memberID string) ([]domain.MemberRole, error)
	AssignRole(ctx context.Context, mr *domain.MemberRole) error
	UnassignRole(ctx context.Context, memberID, memberRoleID string) error
}
