package domain

import (
	"time"

	"gorm.io/gorm"
)

// UserRole is the platform-wide staff role, distinct from per-server roles.
type UserRole string

const (
	RoleRoot    UserRole = "root"
	RoleAdmin   UserRole = "admin"
	RoleRegular UserRole = "regular"
)

// User models an account holder. Accounts start unconfirmed; the
// verification token is single-use and cleared on confirmation.
type User struct {
	ID             string   `json:"id" gorm:"type:uuid;primaryKey"`
	Email          string   `json:"email" gorm:"uniqueIndex;not null"`
	Username       string   `json:"username" gorm:"uniqueIndex;not null"`
	HashedPassword string   `json:"-" gorm:"not null"`
	Role           UserRole `json:"role" gorm:"type:varchar(16);default:regular;not null"`
	Bio            string   `json:"bio,omitempty"`

	EmailConfirmed         bool    `json:"email_confirmed" gorm:"not null;default:false"`
	EmailVerificationToken *string `json:"-" gorm:"index"`

	Suspensions []Suspension `json:"suspensions,omitempty" gorm:"foreignKey:UserID"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SuspendedAt reports whether the user has at least one suspension still in
// force at the given instant. A suspension is active iff now < expire_at;
// rows are never deleted, expiry is evaluated.
func (u *User) SuspendedAt(now time.Time) bool {
	for _, s := range u.Suspensions {
		if now.Before(s.ExpireAt) {
			return true
		}
	}
	return false
}

// Suspension is issued by a staff user and expires naturally.
type Suspension struct {
	ID        string    `json:"id" gorm:"type:uuid;primaryKey"`
	UserID    string    `json:"user_id" gorm:"type:uuid;not null;index"`
	StaffID   string    `json:"staff_id" gorm:"type:uuid;not null"`
	ExpireAt  time.Time `json:"expire_at" gorm:"not null"`
	CreatedAt time.Time `json:"created_at"`
}

// PendingDeletion marks an account for removal without hard-deleting the row.
type PendingDeletion struct {
	ID        string    `json:"id" gorm:"type:uuid;primaryKey"`
	UserID    string    `json:"user_id" gorm:"type:uuid;uniqueIndex;not null"`
	CreatedAt time.Time `json:"created_at"`
}

const (
	UsernameMinLen = 3
	UsernameMaxLen = 20
)

// ValidUsername enforces the account-name contract: 3–20 chars from
// [A-Za-z0-9_], at most one underscore, and never at either end.
func ValidUsername(name string) bool {
	if len(name) < UsernameMinLen || len(name) > UsernameMaxLen {
		return false
	}
	underscores := 0
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case c == '_':
			if i == 0 || i == len(name)-1 {
				return false
			}
			underscores++
			if underscores > 1 {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// BeforeCreate guards against a zero role slipping through raw inserts.
func (u *User) BeforeCreate(_ *gorm.DB) error {
	if u.Role == "" {
		u.Role = RoleRegular
	}
	return nil
}
