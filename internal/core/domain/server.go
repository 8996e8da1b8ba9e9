package domain

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// Server is a guild-like community owning its roles, members and threads.
type Server struct {
	ID      string `json:"id" gorm:"type:uuid;primaryKey"`
	Name    string `json:"name" gorm:"not null"`
	OwnerID string `json:"owner_id" gorm:"type:uuid;not null;index"`

	Roles   []ServerRole   `json:"roles,omitempty" gorm:"foreignKey:ServerID"`
	Members []ServerMember `json:"members,omitempty" gorm:"foreignKey:ServerID"`

	CreatedAt time.Time `json:"created_at"`
}

// ServerRole carries a permission mask granted to assigned members.
// NormalizedName is derived and recomputed on every write; it backs the
// case-insensitive and trigram search paths.
type ServerRole struct {
	ID             string     `json:"id" gorm:"type:uuid;primaryKey"`
	ServerID       string     `json:"server_id" gorm:"type:uuid;not null;index"`
	Name           string     `json:"name" gorm:"not null"`
	NormalizedName string     `json:"-" gorm:"type:text;index;not null"`
	Color          string     `json:"color"`
	Permissions    Permission `json:"permissions" gorm:"type:bigint;not null;default:0"`
	CreatedAt      time.Time  `json:"created_at"`
}

func (r *ServerRole) BeforeSave(_ *gorm.DB) error {
	r.NormalizedName = strings.ToLower(r.Name)
	return nil
}

// ServerMember joins a user to a server. Effective permissions come from the
// member's assigned roles, never stored on the member itself.
type ServerMember struct {
	ID             string `json:"id" gorm:"type:uuid;primaryKey"`
	UserID         string `json:"user_id" gorm:"type:uuid;not null;index:idx_member_user_server,unique"`
	ServerID       string `json:"server_id" gorm:"type:uuid;not null;index:idx_member_user_server,unique"`
	Nickname       string `json:"nickname" gorm:"type:text;index"`
	NormalizedName string `json:"-" gorm:"type:text;index"`
	TimedOut       bool   `json:"timed_out" gorm:"not null;default:false"`

	Roles []MemberRole `json:"roles,omitempty" gorm:"foreignKey:MemberID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time `json:"created_at"`
}

func (m *ServerMember) BeforeSave(_ *gorm.DB) error {
	m.NormalizedName = strings.ToLower(m.Nickname)
	return nil
}

// MemberRole links a ServerMember to a ServerRole; cascade-deleted with the
// member.
type MemberRole struct {
	ID       string `json:"id" gorm:"type:uuid;primaryKey"`
	MemberID string `json:"member_id" gorm:"type:uuid;not null;index:idx_member_role,unique"`
	RoleID   string `json:"role_id" gorm:"type:uuid;not null;index:idx_member_role,unique"`

	Role ServerRole `json:"role" gorm:"foreignKey:RoleID"`

	CreatedAt time.Time `json:"created_at"`
}
