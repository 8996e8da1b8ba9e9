package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/blazechat/chat-api/internal/core/domain"
	"github.com/blazechat/chat-api/internal/core/ports"
)

type memberService struct {
	servers ports.ServerRepository
	cache   ports.PermissionCache
	log     zerolog.Logger
}

// NewMemberService returns the permission engine. cache may be nil;
// permission reads then always hit the store.
func NewMemberService(servers ports.ServerRepository, cache ports.PermissionCache, log zerolog.Logger) ports.MemberService {
	return &memberService{servers: servers, cache: cache, log: log}
}

func (s *memberService) MemberID(ctx context.Context, serverID, userID string) (string, error) {
	member, err := s.servers.MemberByUser(ctx, serverID, userID)
	if err != nil {
		return "", err
	}
	return member.ID, nil
}

// EffectivePermissions ORs every role mask assigned to the member within
// the member's own server. An assignment pointing at a role from another
// server carries no weight here. Cache errors degrade to a store read,
// never to a denial or grant.
func (s *memberService) EffectivePermissions(ctx context.Context, memberID string) (domain.Permission, error) {
	if s.cache != nil {
		mask, hit, err := s.cache.Get(ctx, memberID)
		if err != nil {
			s.log.Warn().Err(err).Str("member_id", memberID).Msg("permission cache read failed")
		} else if hit {
			return mask, nil
		}
	}

	member, err := s.servers.MemberByID(ctx, memberID)
	if err != nil {
		return 0, err
	}

	assignments, err := s.servers.RolesByMember(ctx, memberID)
	if err != nil {
		return 0, fmt.Errorf("effective permissions: %w", err)
	}

	var mask domain.Permission
	for _, assignment := range assignments {
		if assignment.Role.ServerID != member.ServerID {
			s.log.Warn().
				Str("member_id", memberID).
				Str("role_id", assignment.RoleID).
				Msg("ignoring role assignment from another server")
			continue
		}
		mask |= assignment.Role.Permissions
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, memberID, mask); err != nil {
			s.log.Warn().Err(err).Str("member_id", memberID).Msg("permission cache write failed")
		}
	}
	return mask, nil
}

func (s *memberService) HasPermission(ctx context.Context, memberID string, required domain.Permission) (bool, error) {
	mask, err := s.EffectivePermissions(ctx, memberID)
	if err != nil {
		return false, err
	}
	return mask.Has(required), nil
}

func (s *memberService) AssignRole(ctx context.Context, serverID, memberID, roleID string) error {
	if _, err := s.memberInServer(ctx, serverID, memberID); err != nil {
		return err
	}
	// The role must live in the same server the caller was authorized
	// for; otherwise a role id from a server the caller controls would
	// grant its mask here.
	if _, err := s.servers.RoleByID(ctx, serverID, roleID); err != nil {
		return err
	}

	mr := &domain.MemberRole{
		ID:       uuid.NewString(),
		MemberID: memberID,
		RoleID:   roleID,
	}
	if err := s.servers.AssignRole(ctx, mr); err != nil {
		return fmt.Errorf("assign role: %w", err)
	}
	s.invalidate(ctx, memberID)
	return nil
}

func (s *memberService) UnassignRole(ctx context.Context, serverID, memberID, memberRoleID string) error {
	if _, err := s.memberInServer(ctx, serverID, memberID); err != nil {
		return err
	}
	if err := s.servers.UnassignRole(ctx, memberID, memberRoleID); err != nil {
		return err
	}
	s.invalidate(ctx, memberID)
	return nil
}

func (s *memberService) UpdateNickname(ctx context.Context, serverID, memberID, nickname string) error {
	member, err := s.memberInServer(ctx, serverID, memberID)
	if err != nil {
		if errors.Is(err, domain.ErrMemberNotFound) {
			return err
		}
		return fmt.Errorf("update nickname: %w", err)
	}

	member.Nickname = nickname
	return s.servers.UpdateMember(ctx, member)
}

// memberInServer resolves memberID and rejects it when it belongs to a
// different server than the one the request was authorized against.
func (s *memberService) memberInServer(ctx context.Context, serverID, memberID string) (*domain.ServerMember, error) {
	member, err := s.servers.MemberByID(ctx, memberID)
	if err != nil {
		return nil, err
	}
	if member.ServerID != serverID {
		return nil, domain.ErrMemberNotFound
	}
	return member, nil
}

func (s *memberService) invalidate(ctx context.Context, memberID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, memberID); err != nil {
		s.log.Warn().Err(err).Str("member_id", memberID).Msg("permission cache invalidation failed")
	}
}
