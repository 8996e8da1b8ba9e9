package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/blazechat/chat-api/internal/core/domain"
	"github.com/blazechat/chat-api/internal/core/ports"
)

type serverService struct {
	servers ports.ServerRepository
	cache   ports.PermissionCache
	log     zerolog.Logger
}

// NewServerService returns the server/role management service.
func NewServerService(servers ports.ServerRepository, cache ports.PermissionCache, log zerolog.Logger) ports.ServerService {
	return &serverService{servers: servers, cache: cache, log: log}
}

// Create provisions a server, joins the owner as its first member and grants
// them an auto-created administrator role.
func (s *serverService) Create(ctx context.Context, ownerID, name string) (*domain.Server, error) {
	server := &domain.Server{
		ID:      uuid.NewString(),
		Name:    name,
		OwnerID: ownerID,
	}
	if err := s.servers.CreateServer(ctx, server); err != nil {
		return nil, fmt.Errorf("create server: %w", err)
	}

	adminRole := &domain.ServerRole{
		ID:          uuid.NewString(),
		ServerID:    server.ID,
		Name:        "admin",
		Color:       "#e74c3c",
		Permissions: domain.PermAdministrator,
	}
	if err := s.servers.CreateRole(ctx, adminRole); err != nil {
		return nil, fmt.Errorf("create server: seed admin role: %w", err)
	}

	owner := &domain.ServerMember{
		ID:       uuid.NewString(),
		UserID:   ownerID,
		ServerID: server.ID,
	}
	if err := s.servers.CreateMember(ctx, owner); err != nil {
		return nil, fmt.Errorf("create server: join owner: %w", err)
	}
	if err := s.servers.AssignRole(ctx, &domain.MemberRole{
		ID:       uuid.NewString(),
		MemberID: owner.ID,
		RoleID:   adminRole.ID,
	}); err != nil {
		return nil, fmt.Errorf("create server: grant admin role: %w", err)
	}

	return server, nil
}

func (s *serverService) Roles(ctx context.Context, serverID string) ([]domain.ServerRole, error) {
	if _, err := s.servers.FindServer(ctx, serverID); err != nil {
		return nil, err
	}
	return s.servers.RolesByServer(ctx, serverID)
}

func (s *serverService) CreateRole(ctx context.Context, serverID string, in ports.RoleInput) (*domain.ServerRole, error) {
	if _, err := s.servers.FindServer(ctx, serverID); err != nil {
		return nil, err
	}

	role := &domain.ServerRole{
		ID:          uuid.NewString(),
		ServerID:    serverID,
		Name:        in.Name,
		Color:       in.Color,
		Permissions: in.Permissions,
	}
	if err := s.servers.CreateRole(ctx, role); err != nil {
		return nil, fmt.Errorf("create role: %w", err)
	}
	return role, nil
}

// UpdateRole patches a role. Assigned members keep their cached mask until
// the cache TTL lapses; role edits are rare and the window is seconds.
func (s *serverService) UpdateRole(ctx context.Context, serverID, roleID string, in ports.RoleInput) error {
	role := &domain.ServerRole{
		ID:          roleID,
		ServerID:    serverID,
		Name:        in.Name,
		Color:       in.Color,
		Permissions: in.Permissions,
	}
	return s.servers.UpdateRole(ctx, role)
}

func (s *serverService) DeleteRole(ctx context.Context, serverID, roleID string) error {
	return s.servers.DeleteRole(ctx, serverID, roleID)
}

// SearchRoles normalizes the query and delegates ranking to the store:
// exact match, then substring, then trigram similarity.
func (s *serverService) SearchRoles(ctx context.Context, serverID, query string) ([]domain.ServerRole, error) {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return s.servers.RolesByServer(ctx, serverID)
	}
	return s.servers.SearchRoles(ctx, serverID, query)
}

func (s *serverService) Members(ctx context.Context, serverID string) ([]domain.ServerMember, error) {
	if _, err := s.servers.FindServer(ctx, serverID); err != nil {
		return nil, err
	}
	return s.servers.MembersByServer(ctx, serverID)
}

func (s *serverService) Join(ctx context.Context, serverID, userID, nickname string) (*domain.ServerMember, error) {
	if _, err := s.servers.FindServer(ctx, serverID); err != nil {
		return nil, err
	}

	member := &domain.ServerMember{
		ID:       uuid.NewString(),
		UserID:   userID,
		ServerID: serverID,
		Nickname: nickname,
	}
	if err := s.servers.CreateMember(ctx, member); err != nil {
		return nil, fmt.Errorf("join server: %w", err)
	}
	return member, nil
}
