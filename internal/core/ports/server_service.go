package ports

import (
	"context"

	"github.com/blazechat/chat-api/internal/core/domain"
)

// RoleInput is the create/update payload for a server role.
type RoleInput struct {
	Name        string
	Color       string
	Permissions domain.Permission
}

// ServerService manages servers, their roles and member listings.
type ServerService interface {
	// Create provisions a server with the caller as owner and first
	// member, holding an auto-created administrator role.
	Create(ctx context.Context, ownerID, name string) (*domain.Server, error)

	Roles(ctx context.Context, serverID string) ([]domain.ServerRole, error)
	CreateRole(ctx context.Context, serverID string, in RoleInput) (*domain.ServerRole, error)
	UpdateRole(ctx context.Context, serverID, roleID string, in RoleInput) error
	DeleteRole(ctx context.Context, serverID, roleID string) error
	SearchRoles(ctx context.Context, serverID, query string) ([]domain.ServerRole, error)

	Members(ctx context.Context, serverID string) ([]domain.ServerMember, error)
	Join(ctx context.Context, serverID, userID, nickname string) (*domain.ServerMember, error)
}
