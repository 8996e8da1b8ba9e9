package domain

import "time"

// RefreshToken is the store-backed half of the credential pair: long-lived,
// opaque, revocable. Rows are never deleted; superseded tokens get an
// invalidated timestamp so the table doubles as an audit trail.
//
// Invariant: at most one row per user with a NULL invalidated column.
type RefreshToken struct {
	ID          string     `json:"id" gorm:"type:uuid;primaryKey"`
	UserID      string     `json:"user_id" gorm:"type:uuid;not null;index"`
	Token       string     `json:"-" gorm:"type:text;not null;uniqueIndex"`
	Issued      time.Time  `json:"issued" gorm:"autoCreateTime"`
	Invalidated *time.Time `json:"invalidated,omitempty" gorm:"index"`
}

// Active reports whether the token has not been rotated away yet.
func (t *RefreshToken) Active() bool {
	return t.Invalidated == nil
}

// TokenPair is what a successful sign-in, verification or refresh mints.
type TokenPair struct {
	Access  string
	Refresh string
}
