package domain

import "strings"

// Permission is a 64-bit flag set evaluated per server member. A member's
// effective mask is the OR of every role mask assigned to them; a check
// passes only when every requested bit is present.
type Permission uint64

const (
	PermViewThreads        Permission = 1 << 0
	PermManageThreads      Permission = 1 << 1
	PermManageRoles        Permission = 1 << 2
	PermViewAuditLogs      Permission = 1 << 3
	PermViewServerInsights Permission = 1 << 4
	PermManageWebhooks     Permission = 1 << 5
	PermManageServer       Permission = 1 << 6
	PermCreateInvite       Permission = 1 << 7
	PermChangeNickname     Permission = 1 << 8
	PermManageNickname     Permission = 1 << 9
	PermKickMembers        Permission = 1 << 10
	PermBanMembers         Permission = 1 << 11

	// Bit 12 is unassigned; the wire format skips it.

	PermSendMessages    Permission = 1 << 13
	PermEmbedLinks      Permission = 1 << 14
	PermAddReactions    Permission = 1 << 15
	PermMentionEveryone Permission = 1 << 16
	PermManageMessages  Permission = 1 << 17
)

// permissionNames drives both String and the Administrator computation, so a
// newly added bit cannot drift out of the sentinel.
var permissionNames = map[Permission]string{
	PermViewThreads:        "view_threads",
	PermManageThreads:      "manage_threads",
	PermManageRoles:        "manage_roles",
	PermViewAuditLogs:      "view_audit_logs",
	PermViewServerInsights: "view_server_insights",
	PermManageWebhooks:     "manage_webhooks",
	PermManageServer:       "manage_server",
	PermCreateInvite:       "create_invite",
	PermChangeNickname:     "change_nickname",
	PermManageNickname:     "manage_nickname",
	PermKickMembers:        "kick_members",
	PermBanMembers:         "ban_members",
	PermSendMessages:       "send_messages",
	PermEmbedLinks:         "embed_links",
	PermAddReactions:       "add_reactions",
	PermMentionEveryone:    "mention_everyone",
	PermManageMessages:     "manage_messages",
}

// PermAdministrator is the OR of every named bit and therefore satisfies any
// permission check. Computed, never hardcoded.
var PermAdministrator = func() Permission {
	var all Permission
	for bit := range permissionNames {
		all |= bit
	}
	return all
}()

// Has reports whether every bit of required is set in p. Has with a combined
// mask is an all-bits check, not any-bit.
func (p Permission) Has(required Permission) bool {
	return p&required == required
}

// Combine ORs a list of permissions into a single required mask.
func Combine(perms ...Permission) Permission {
	var mask Permission
	for _, p := range perms {
		mask |= p
	}
	return mask
}

// String renders the set bits as a stable, sorted, pipe-joined list.
func (p Permission) String() string {
	if p == 0 {
		return "empty"
	}
	names := make([]string, 0, len(permissionNames))
	for bit := Permission(1); bit != 0; bit <<= 1 {
		if p&bit != 0 {
			if name, ok := permissionNames[bit]; ok {
				names = append(names, name)
			}
		}
	}
	if len(names) == 0 {
		return "unknown"
	}
	return strings.Join(names, "|")
}
