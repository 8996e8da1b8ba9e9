package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/blazechat/chat-api/internal/core/domain"
	"github.com/blazechat/chat-api/internal/core/ports"
)

// ── shared in-memory stubs ────────────────────────────────────────────────────

type fixedClock struct{ now time.Time }

func (c *fixedClock) Now() time.Time { return c.now }

type stubIssuer struct {
	mu     sync.Mutex
	minted int
	fail   bool
}

func (i *stubIssuer) IssueAccess(userID string) (string, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.fail {
		return "", fmt.Errorf("signer unavailable")
	}
	i.minted++
	return fmt.Sprintf("access-%s-%d", userID, i.minted), nil
}

type queuedEvent struct {
	name    string
	payload any
}

type stubQueue struct {
	events []queuedEvent
	fail   bool
}

func (q *stubQueue) Enqueue(_ context.Context, event string, payload any) error {
	if q.fail {
		return fmt.Errorf("broker down")
	}
	q.events = append(q.events, queuedEvent{name: event, payload: payload})
	return nil
}

type stubUserRepo struct {
	mu    sync.Mutex
	users map[string]*domain.User
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[string]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	clone.Suspensions = append([]domain.Suspension(nil), u.Suspensions...)
	return &clone
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		return cloneUser(u), nil
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) FindByUsername(_ context.Context, username string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == username {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) FindByVerificationToken(_ context.Context, token string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if !u.EmailConfirmed && u.EmailVerificationToken != nil && *u.EmailVerificationToken == token {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) ExistsByEmailOrUsername(_ context.Context, email, username string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email || u.Username == username {
			return true, nil
		}
	}
	return false, nil
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[user.ID] = cloneUser(user)
	return nil
}

func (r *stubUserRepo) ConfirmEmail(_ context.Context, userID, verificationToken string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok || u.EmailConfirmed || u.EmailVerificationToken == nil || *u.EmailVerificationToken != verificationToken {
		return domain.ErrUserNotFound
	}
	u.EmailConfirmed = true
	u.EmailVerificationToken = nil
	return nil
}

func (r *stubUserRepo) CreateSuspension(_ context.Context, s *domain.Suspension) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[s.UserID]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.Suspensions = append(u.Suspensions, *s)
	return nil
}

func (r *stubUserRepo) CreatePendingDeletion(_ context.Context, d *domain.PendingDeletion) error {
	return nil
}

// stubRefreshRepo mirrors the relational rotation semantics in memory.
type stubRefreshRepo struct {
	mu   sync.Mutex
	rows []*domain.RefreshToken
	now  func() time.Time
}

func newStubRefreshRepo() *stubRefreshRepo {
	return &stubRefreshRepo{now: time.Now}
}

func (r *stubRefreshRepo) Rotate(_ context.Context, userID, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	for _, row := range r.rows {
		if row.UserID == userID && row.Invalidated == nil {
			ts := now
			row.Invalidated = &ts
		}
	}
	r.rows = append(r.rows, &domain.RefreshToken{
		ID:     fmt.Sprintf("rt-%d", len(r.rows)+1),
		UserID: userID,
		Token:  token,
		Issued: now,
	})
	return nil
}

func (r *stubRefreshRepo) Resolve(_ context.Context, token string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range r.rows {
		if row.Token == token && row.Invalidated == nil {
			return row.UserID, nil
		}
	}
	return "", domain.ErrUnauthorized
}

func (r *stubRefreshRepo) activeFor(userID string) []*domain.RefreshToken {
	r.mu.Lock()
	defer r.mu.Unlock()
	var active []*domain.RefreshToken
	for _, row := range r.rows {
		if row.UserID == userID && row.Invalidated == nil {
			active = append(active, row)
		}
	}
	return active
}

// stubServerRepo keeps servers, roles, members and assignments in memory.
type stubServerRepo struct {
	mu          sync.Mutex
	servers     map[string]*domain.Server
	roles       map[string]*domain.ServerRole
	members     map[string]*domain.ServerMember
	assignments map[string]*domain.MemberRole
}

func newStubServerRepo() *stubServerRepo {
	return &stubServerRepo{
		servers:     make(map[string]*domain.Server),
		roles:       make(map[string]*domain.ServerRole),
		members:     make(map[string]*domain.ServerMember),
		assignments: make(map[string]*domain.MemberRole),
	}
}

func (r *stubServerRepo) CreateServer(_ context.Context, s *domain.Server) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.servers[s.ID] = s
	return nil
}

func (r *stubServerRepo) FindServer(_ context.Context, id string) (*domain.Server, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.servers[id]; ok {
		return s, nil
	}
	return nil, domain.ErrServerNotFound
}

func (r *stubServerRepo) CreateRole(_ context.Context, role *domain.ServerRole) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.roles[role.ID] = role
	return nil
}

func (r *stubServerRepo) RoleByID(_ context.Context, serverID, roleID string) (*domain.ServerRole, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	role, ok := r.roles[roleID]
	if !ok || role.ServerID != serverID {
		return nil, domain.ErrRoleNotFound
	}
	return role, nil
}

func (r *stubServerRepo) UpdateRole(_ context.Context, role *domain.ServerRole) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.roles[role.ID]
	if !ok || existing.ServerID != role.ServerID {
		return domain.ErrRoleNotFound
	}
	existing.Name = role.Name
	existing.Color = role.Color
	existing.Permissions = role.Permissions
	return nil
}

func (r *stubServerRepo) DeleteRole(_ context.Context, serverID, roleID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	role, ok := r.roles[roleID]
	if !ok || role.ServerID != serverID {
		return domain.ErrRoleNotFound
	}
	delete(r.roles, roleID)
	return nil
}

func (r *stubServerRepo) RolesByServer(_ context.Context, serverID string) ([]domain.ServerRole, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.ServerRole
	for _, role := range r.roles {
		if role.ServerID == serverID {
			out = append(out, *role)
		}
	}
	return out, nil
}

func (r *stubServerRepo) SearchRoles(_ context.Context, serverID, query string) ([]domain.ServerRole, error) {
	// Ranking lives in SQL; the stub only filters by substring.
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.ServerRole
	for _, role := range r.roles {
		if role.ServerID == serverID && strings.Contains(strings.ToLower(role.Name), query) {
			out = append(out, *role)
		}
	}
	return out, nil
}

func (r *stubServerRepo) CreateMember(_ context.Context, m *domain.ServerMember) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.members[m.ID] = m
	return nil
}

func (r *stubServerRepo) UpdateMember(_ context.Context, m *domain.ServerMember) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.members[m.ID]; !ok {
		return domain.ErrMemberNotFound
	}
	r.members[m.ID] = m
	return nil
}

func (r *stubServerRepo) MemberByID(_ context.Context, memberID string) (*domain.ServerMember, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m, ok := r.members[memberID]; ok {
		return m, nil
	}
	return nil, domain.ErrMemberNotFound
}

func (r *stubServerRepo) MemberByUser(_ context.Context, serverID, userID string) (*domain.ServerMember, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.members {
		if m.ServerID == serverID && m.UserID == userID {
			return m, nil
		}
	}
	return nil, domain.ErrMemberNotFound
}

func (r *stubServerRepo) MembersByServer(_ context.Context, serverID string) ([]domain.ServerMember, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.ServerMember
	for _, m := range r.members {
		if m.ServerID == serverID {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (r *stubServerRepo) RolesByMember(_ context.Context, memberID string) ([]domain.MemberRole, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.MemberRole
	for _, mr := range r.assignments {
		if mr.MemberID == memberID {
			row := *mr
			if role, ok := r.roles[mr.RoleID]; ok {
				row.Role = *role
			}
			out = append(out, row)
		}
	}
	return out, nil
}

func (r *stubServerRepo) AssignRole(_ context.Context, mr *domain.MemberRole) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.assignments[mr.ID] = mr
	return nil
}

func (r *stubServerRepo) UnassignRole(_ context.Context, memberID, memberRoleID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	mr, ok := r.assignments[memberRoleID]
	if !ok || mr.MemberID != memberID {
		return domain.ErrRoleNotFound
	}
	delete(r.assignments, memberRoleID)
	return nil
}

type stubPermissionCache struct {
	mu            sync.Mutex
	entries       map[string]domain.Permission
	invalidations int
}

func newStubPermissionCache() *stubPermissionCache {
	return &stubPermissionCache{entries: make(map[string]domain.Permission)}
}

func (c *stubPermissionCache) Get(_ context.Context, memberID string) (domain.Permission, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	mask, ok := c.entries[memberID]
	return mask, ok, nil
}

func (c *stubPermissionCache) Set(_ context.Context, memberID string, mask domain.Permission) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[memberID] = mask
	return nil
}

func (c *stubPermissionCache) Invalidate(_ context.Context, memberID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, memberID)
	c.invalidations++
	return nil
}

var _ ports.UserRepository = (*stubUserRepo)(nil)
var _ ports.RefreshTokenRepository = (*stubRefreshRepo)(nil)
var _ ports.ServerRepository = (*stubServerRepo)(nil)
var _ ports.PermissionCache = (*stubPermissionCache)(nil)
