package ports

import (
	"context"

	"github.com/blazechat/chat-api/internal/core/domain"
)

// MemberService is the permission engine plus member-side role management.
type MemberService interface {
	// MemberID resolves the member record of a user inside a server;
	// domain.ErrMemberNotFound when the user is not a member.
	MemberID(ctx context.Context, serverID, userID string) (string, error)

	// EffectivePermissions ORs the mask of every role assigned to the
	// member. Roles from other servers never contribute, regardless of
	// what assignment rows exist. No assignments means zero.
	EffectivePermissions(ctx context.Context, memberID string) (domain.Permission, error)

	// HasPermission is true iff every bit of required is present in the
	// member's effective mask.
	HasPermission(ctx context.Context, memberID string, required domain.Permission) (bool, error)

	// AssignRole, UnassignRole and UpdateNickname act only inside
	// serverID: a member or role id from another server is
	// domain.ErrMemberNotFound / domain.ErrRoleNotFound.
	AssignRole(ctx context.Context, serverID, memberID, roleID string) error
	UnassignRole(ctx context.Context, serverID, memberID, memberRoleID string) error
	UpdateNickname(ctx context.Context, serverID, memberID, nickname string) error
}
