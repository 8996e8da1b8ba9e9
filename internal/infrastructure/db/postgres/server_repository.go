package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/blazechat/chat-api/internal/core/domain"
	"github.com/blazechat/chat-api/internal/core/ports"
)

type serverRepository struct {
	db *gorm.DB
}

func NewServerRepository(db *gorm.DB) ports.ServerRepository {
	return &serverRepository{db: db}
}

func (r *serverRepository) CreateServer(ctx context.Context, server *domain.Server) error {
	if err := r.db.WithContext(ctx).Create(server).Error; err != nil {
		return fmt.Errorf("create server: %w", err)
	}
	return nil
}

func (r *serverRepository) FindServer(ctx context.Context, id string) (*domain.Server, error) {
	var server domain.Server
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&server).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrServerNotFound
		}
		return nil, fmt.Errorf("find server: %w", err)
	}
	return &server, nil
}

func (r *serverRepository) CreateRole(ctx context.Context, role *domain.ServerRole) error {
	if err := r.db.WithContext(ctx).Create(role).Error; err != nil {
		return fmt.Errorf("create role: %w", err)
	}
	return nil
}

func (r *serverRepository) RoleByID(ctx context.Context, serverID, roleID string) (*domain.ServerRole, error) {
	var role domain.ServerRole
	err := r.db.WithContext(ctx).
		Where("id = ? AND server_id = ?", roleID, serverID).
		First(&role).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrRoleNotFound
		}
		return nil, fmt.Errorf("role by id: %w", err)
	}
	return &role, nil
}

func (r *serverRepository) UpdateRole(ctx context.Context, role *domain.ServerRole) error {
	result := r.db.WithContext(ctx).
		Model(&domain.ServerRole{}).
		Where("id = ? AND server_id = ?", role.ID, role.ServerID).
		Updates(map[string]any{
			"name":            role.Name,
			"normalized_name": strings.ToLower(role.Name),
			"color":           role.Color,
			"permissions":     role.Permissions,
		})
	if result.Error != nil {
		return fmt.Errorf("update role: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrRoleNotFound
	}
	return nil
}

func (r *serverRepository) DeleteRole(ctx context.Context, serverID, roleID string) error {
	result := r.db.WithContext(ctx).
		Where("id = ? AND server_id = ?", roleID, serverID).
		Delete(&domain.ServerRole{})
	if result.Error != nil {
		return fmt.Errorf("delete role: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrRoleNotFound
	}
	return nil
}

func (r *serverRepository) RolesByServer(ctx context.Context, serverID string) ([]domain.ServerRole, error) {
	var roles []domain.ServerRole
	err := r.db.WithContext(ctx).
		Where("server_id = ?", serverID).
		Order("created_at ASC").
		Find(&roles).Error
	if err != nil {
		return nil, fmt.Errorf("roles by server: %w", err)
	}
	return roles, nil
}

// SearchRoles ranks against the normalized name: exact match first, then
// substring, then pg_trgm similarity above 0.3. The caller has already
// lowercased and trimmed the query.
func (r *serverRepository) SearchRoles(ctx context.Context, serverID, query string) ([]domain.ServerRole, error) {
	var roles []domain.ServerRole
	err := r.db.WithContext(ctx).Raw(`
		SELECT *
		FROM server_roles
		WHERE server_id = ?
		  AND (normalized_name LIKE '%' || ? || '%' OR similarity(normalized_name, ?) > 0.3)
		ORDER BY
		  (normalized_name = ?) DESC,
		  (normalized_name LIKE ? || '%') DESC,
		  similarity(normalized_name, ?) DESC,
		  created_at ASC`,
		serverID, query, query, query, query, query,
	).Scan(&roles).Error
	if err != nil {
		return nil, fmt.Errorf("search roles: %w", err)
	}
	return roles, nil
}

func (r *serverRepository) CreateMember(ctx context.Context, member *domain.ServerMember) error {
	if err := r.db.WithContext(ctx).Create(member).Error; err != nil {
		return fmt.Errorf("create member: %w", err)
	}
	return nil
}

func (r *serverRepository) UpdateMember(ctx context.Context, member *domain.ServerMember) error {
	result := r.db.WithContext(ctx).
		Model(&domain.ServerMember{}).
		Where("id = ?", member.ID).
		Updates(map[string]any{
			"nickname":        member.Nickname,
			"normalized_name": strings.ToLower(member.Nickname),
			"timed_out":       member.TimedOut,
		})
	if result.Error != nil {
		return fmt.Errorf("update member: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrMemberNotFound
	}
	return nil
}

func (r *serverRepository) MemberByID(ctx context.Context, memberID string) (*domain.ServerMember, error) {
	var member domain.ServerMember
	err := r.db.WithContext(ctx).Where("id = ?", memberID).First(&member).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrMemberNotFound
		}
		return nil, fmt.Errorf("member by id: %w", err)
	}
	return &member, nil
}

func (r *serverRepository) MemberByUser(ctx context.Context, serverID, userID string) (*domain.ServerMember, error) {
	var member domain.ServerMember
	err := r.db.WithContext(ctx).
		Where("server_id = ? AND user_id = ?", serverID, userID).
		First(&member).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrMemberNotFound
		}
		return nil, fmt.Errorf("member by user: %w", err)
	}
	return &member, nil
}

func (r *serverRepository) MembersByServer(ctx context.Context, serverID string) ([]domain.ServerMember, error) {
	var members []domain.ServerMember
	err := r.db.WithContext(ctx).
		Where("server_id = ?", serverID).
		Order("created_at ASC").
		Find(&members).Error
	if err != nil {
		return nil, fmt.Errorf("members by server: %w", err)
	}
	return members, nil
}

func (r *serverRepository) RolesByMember(ctx context.Context, memberID string) ([]domain.MemberRole, error) {
	var assignments []domain.MemberRole
	err := r.db.WithContext(ctx).
		Preload("Role").
		Where("member_id = ?", memberID).
		Find(&assignments).Error
	if err != nil {
		return nil, fmt.Errorf("roles by member: %w", err)
	}
	return assignments, nil
}

func (r *serverRepository) AssignRole(ctx context.Context, mr *domain.MemberRole) error {
	if err := r.db.WithContext(ctx).Create(mr).Error; err != nil {
		return fmt.Errorf("assign role: %w", err)
	}
	return nil
}

func (r *serverRepository) UnassignRole(ctx context.Context, memberID, memberRoleID string) error {
	result := r.db.WithContext(ctx).
		Where("id = ? AND member_id = ?", memberRoleID, memberID).
		Delete(&domain.MemberRole{})
	if result.Error != nil {
		return fmt.Errorf("unassign role: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrRoleNotFound
	}
	return nil
}
