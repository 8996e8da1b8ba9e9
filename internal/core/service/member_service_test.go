package service

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/blazechat/chat-api/internal/core/domain"
)

type memberFixture struct {
	servers *stubServerRepo
	cache   *stubPermissionCache
}

// seedMember creates a server, a member and one role per mask, assigned.
func (f *memberFixture) seedMember(t *testing.T, memberID string, masks ...domain.Permission) {
	t.Helper()
	ctx := context.Background()
	if err := f.servers.CreateServer(ctx, &domain.Server{ID: "srv1", Name: "general", OwnerID: "owner"}); err != nil {
		t.Fatalf("CreateServer: %v", err)
	}
	if err := f.servers.CreateMember(ctx, &domain.ServerMember{ID: memberID, UserID: "u-" + memberID, ServerID: "srv1"}); err != nil {
		t.Fatalf("CreateMember: %v", err)
	}
	for i, mask := range masks {
		role := &domain.ServerRole{ID: memberID + "-role-" + string(rune('a'+i)), ServerID: "srv1", Name: "r", Permissions: mask}
		if err := f.servers.CreateRole(ctx, role); err != nil {
			t.Fatalf("CreateRole: %v", err)
		}
		mr := &domain.MemberRole{ID: role.ID + "-mr", MemberID: memberID, RoleID: role.ID}
		if err := f.servers.AssignRole(ctx, mr); err != nil {
			t.Fatalf("AssignRole: %v", err)
		}
	}
}

func TestEffectivePermissionsUnionsRoleMasks(t *testing.T) {
	f := &memberFixture{servers: newStubServerRepo(), cache: newStubPermissionCache()}
	svc := NewMemberService(f.servers, f.cache, zerolog.Nop())
	f.seedMember(t, "m1",
		domain.PermViewThreads|domain.PermSendMessages,
		domain.PermSendMessages|domain.PermKickMembers,
	)

	mask, err := svc.EffectivePermissions(context.Background(), "m1")
	if err != nil {
		t.Fatalf("EffectivePermissions: %v", err)
	}
	want := domain.PermViewThreads | domain.PermSendMessages | domain.PermKickMembers
	if mask != want {
		t.Errorf("mask = %v, want %v", mask, want)
	}

	ok, err := svc.HasPermission(context.Background(), "m1", domain.PermViewThreads|domain.PermKickMembers)
	if err != nil || !ok {
		t.Errorf("HasPermission(view|kick) = %v, %v", ok, err)
	}
	ok, err = svc.HasPermission(context.Background(), "m1", domain.PermBanMembers)
	if err != nil || ok {
		t.Errorf("HasPermission(ban) = %v, %v; member has no ban bit", ok, err)
	}
}

func TestEffectivePermissionsNoRolesIsZero(t *testing.T) {
	f := &memberFixture{servers: newStubServerRepo(), cache: newStubPermissionCache()}
	svc := NewMemberService(f.servers, f.cache, zerolog.Nop())
	f.seedMember(t, "m1")

	mask, err := svc.EffectivePermissions(context.Background(), "m1")
	if err != nil {
		t.Fatalf("EffectivePermissions: %v", err)
	}
	if mask != 0 {
		t.Errorf("mask = %v, want 0", mask)
	}
}

func TestAdministratorSatisfiesEverything(t *testing.T) {
	f := &memberFixture{servers: newStubServerRepo(), cache: newStubPermissionCache()}
	svc := NewMemberService(f.servers, f.cache, zerolog.Nop())
	f.seedMember(t, "m1", domain.PermAdministrator)

	for _, required := range []domain.Permission{
		domain.PermViewThreads,
		domain.PermManageServer,
		domain.PermBanMembers | domain.PermKickMembers | domain.PermManageRoles,
	} {
		ok, err := svc.HasPermission(context.Background(), "m1", required)
		if err != nil || !ok {
			t.Errorf("HasPermission(%v) = %v, %v", required, ok, err)
		}
	}
}

func TestEffectivePermissionsCaching(t *testing.T) {
	f := &memberFixture{servers: newStubServerRepo(), cache: newStubPermissionCache()}
	svc := NewMemberService(f.servers, f.cache, zerolog.Nop())
	f.seedMember(t, "m1", domain.PermSendMessages)

	if _, err := svc.EffectivePermissions(context.Background(), "m1"); err != nil {
		t.Fatalf("EffectivePermissions: %v", err)
	}
	cached, hit, _ := f.cache.Get(context.Background(), "m1")
	if !hit || cached != domain.PermSendMessages {
		t.Fatalf("cache after read: hit=%v mask=%v", hit, cached)
	}

	// A cached mask is served without consulting the store.
	f.cache.entries["m1"] = domain.PermBanMembers
	mask, err := svc.EffectivePermissions(context.Background(), "m1")
	if err != nil {
		t.Fatalf("EffectivePermissions: %v", err)
	}
	if mask != domain.PermBanMembers {
		t.Errorf("mask = %v, want cached value", mask)
	}
}

func TestAssignAndUnassignInvalidateCache(t *testing.T) {
	f := &memberFixture{servers: newStubServerRepo(), cache: newStubPermissionCache()}
	svc := NewMemberService(f.servers, f.cache, zerolog.Nop())
	f.seedMember(t, "m1", domain.PermSendMessages)

	role := &domain.ServerRole{ID: "extra", ServerID: "srv1", Name: "mod", Permissions: domain.PermKickMembers}
	if err := f.servers.CreateRole(context.Background(), role); err != nil {
		t.Fatalf("CreateRole: %v", err)
	}

	if _, err := svc.EffectivePermissions(context.Background(), "m1"); err != nil {
		t.Fatalf("warm cache: %v", err)
	}
	if err := svc.AssignRole(context.Background(), "srv1", "m1", "extra"); err != nil {
		t.Fatalf("AssignRole: %v", err)
	}
	if f.cache.invalidations != 1 {
		t.Errorf("invalidations = %d after assign, want 1", f.cache.invalidations)
	}

	mask, err := svc.EffectivePermissions(context.Background(), "m1")
	if err != nil {
		t.Fatalf("EffectivePermissions: %v", err)
	}
	if !mask.Has(domain.PermKickMembers) {
		t.Error("new role not reflected after invalidation")
	}

	var assignmentID string
	for id, mr := range f.servers.assignments {
		if mr.MemberID == "m1" && mr.RoleID == "extra" {
			assignmentID = id
		}
	}
	if err := svc.UnassignRole(context.Background(), "srv1", "m1", assignmentID); err != nil {
		t.Fatalf("UnassignRole: %v", err)
	}
	if f.cache.invalidations != 2 {
		t.Errorf("invalidations = %d after unassign, want 2", f.cache.invalidations)
	}
}

func TestAssignRoleUnknownMember(t *testing.T) {
	f := &memberFixture{servers: newStubServerRepo(), cache: newStubPermissionCache()}
	svc := NewMemberService(f.servers, f.cache, zerolog.Nop())

	if err := svc.AssignRole(context.Background(), "srv1", "ghost", "r1"); !errors.Is(err, domain.ErrMemberNotFound) {
		t.Errorf("err = %v, want ErrMemberNotFound", err)
	}
}

// seedTwoServers builds the hostile layout: the caller owns srv-a (with an
// administrator role) and also holds a plain membership in srv-b.
func seedTwoServers(t *testing.T, repo *stubServerRepo) {
	t.Helper()
	ctx := context.Background()
	for _, srv := range []*domain.Server{
		{ID: "srv-a", Name: "mine", OwnerID: "attacker"},
		{ID: "srv-b", Name: "victim", OwnerID: "victim"},
	} {
		if err := repo.CreateServer(ctx, srv); err != nil {
			t.Fatalf("CreateServer: %v", err)
		}
	}
	if err := repo.CreateRole(ctx, &domain.ServerRole{
		ID: "role-a-admin", ServerID: "srv-a", Name: "admin", Permissions: domain.PermAdministrator,
	}); err != nil {
		t.Fatalf("CreateRole: %v", err)
	}
	if err := repo.CreateMember(ctx, &domain.ServerMember{ID: "m-b", UserID: "attacker", ServerID: "srv-b"}); err != nil {
		t.Fatalf("CreateMember: %v", err)
	}
}

func TestAssignRoleRejectsRoleFromAnotherServer(t *testing.T) {
	repo := newStubServerRepo()
	svc := NewMemberService(repo, newStubPermissionCache(), zerolog.Nop())
	seedTwoServers(t, repo)

	// Authorized in srv-b, presenting srv-a's admin role id.
	if err := svc.AssignRole(context.Background(), "srv-b", "m-b", "role-a-admin"); !errors.Is(err, domain.ErrRoleNotFound) {
		t.Fatalf("cross-server role assign: err = %v, want ErrRoleNotFound", err)
	}
	// Authorized in srv-a, presenting a member of srv-b.
	if err := svc.AssignRole(context.Background(), "srv-a", "m-b", "role-a-admin"); !errors.Is(err, domain.ErrMemberNotFound) {
		t.Fatalf("cross-server member assign: err = %v, want ErrMemberNotFound", err)
	}
	if mrs, _ := repo.RolesByMember(context.Background(), "m-b"); len(mrs) != 0 {
		t.Fatalf("assignments = %d, want none", len(mrs))
	}
}

func TestEffectivePermissionsIgnoresForeignServerRoles(t *testing.T) {
	repo := newStubServerRepo()
	svc := NewMemberService(repo, newStubPermissionCache(), zerolog.Nop())
	seedTwoServers(t, repo)

	// A stray assignment row pointing at another server's role must not
	// count toward the mask.
	if err := repo.AssignRole(context.Background(), &domain.MemberRole{
		ID: "mr-x", MemberID: "m-b", RoleID: "role-a-admin",
	}); err != nil {
		t.Fatalf("AssignRole: %v", err)
	}

	mask, err := svc.EffectivePermissions(context.Background(), "m-b")
	if err != nil {
		t.Fatalf("EffectivePermissions: %v", err)
	}
	if mask != 0 {
		t.Errorf("mask = %v, want 0; foreign-server role leaked into the mask", mask)
	}
}

func TestUnassignRoleScopedToServer(t *testing.T) {
	repo := newStubServerRepo()
	svc := NewMemberService(repo, newStubPermissionCache(), zerolog.Nop())
	seedTwoServers(t, repo)
	if err := repo.AssignRole(context.Background(), &domain.MemberRole{
		ID: "mr-b", MemberID: "m-b", RoleID: "role-b",
	}); err != nil {
		t.Fatalf("AssignRole: %v", err)
	}

	if err := svc.UnassignRole(context.Background(), "srv-a", "m-b", "mr-b"); !errors.Is(err, domain.ErrMemberNotFound) {
		t.Fatalf("cross-server unassign: err = %v, want ErrMemberNotFound", err)
	}
	if mrs, _ := repo.RolesByMember(context.Background(), "m-b"); len(mrs) != 1 {
		t.Fatalf("assignment deleted through another server's route")
	}
}

func TestUpdateNicknameScopedToServer(t *testing.T) {
	repo := newStubServerRepo()
	svc := NewMemberService(repo, newStubPermissionCache(), zerolog.Nop())
	seedTwoServers(t, repo)

	if err := svc.UpdateNickname(context.Background(), "srv-a", "m-b", "pwned"); !errors.Is(err, domain.ErrMemberNotFound) {
		t.Fatalf("cross-server rename: err = %v, want ErrMemberNotFound", err)
	}
	member, err := repo.MemberByID(context.Background(), "m-b")
	if err != nil {
		t.Fatalf("MemberByID: %v", err)
	}
	if member.Nickname != "" {
		t.Errorf("nickname = %q, want unchanged", member.Nickname)
	}
}

func TestNilCacheFallsThroughToStore(t *testing.T) {
	f := &memberFixture{servers: newStubServerRepo(), cache: newStubPermissionCache()}
	svc := NewMemberService(f.servers, nil, zerolog.Nop())
	f.seedMember(t, "m1", domain.PermViewThreads)

	mask, err := svc.EffectivePermissions(context.Background(), "m1")
	if err != nil {
		t.Fatalf("EffectivePermissions: %v", err)
	}
	if mask != domain.PermViewThreads {
		t.Errorf("mask = %v", mask)
	}
}

func TestUpdateNickname(t *testing.T) {
	f := &memberFixture{servers: newStubServerRepo(), cache: newStubPermissionCache()}
	svc := NewMemberService(f.servers, f.cache, zerolog.Nop())
	f.seedMember(t, "m1")

	if err := svc.UpdateNickname(context.Background(), "srv1", "m1", "Cap"); err != nil {
		t.Fatalf("UpdateNickname: %v", err)
	}
	member, err := f.servers.MemberByID(context.Background(), "m1")
	if err != nil {
		t.Fatalf("MemberByID: %v", err)
	}
	if member.Nickname != "Cap" {
		t.Errorf("nickname = %q", member.Nickname)
	}

	if err := svc.UpdateNickname(context.Background(), "srv1", "ghost", "x"); !errors.Is(err, domain.ErrMemberNotFound) {
		t.Errorf("err = %v, want ErrMemberNotFound", err)
	}
}
