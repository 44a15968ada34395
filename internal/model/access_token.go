package model

import (
	"time"

	"gorm.io/gorm"
)

// Access token scopes. A staff token unlocks the confidential report once the
// assignment is submitted; a public token unlocks the redacted report once it
// is released to the student.
const (
	TokenScopeStaff  = "staff"
	TokenScopePublic = "public"
)

// AccessToken pairs an assignment with a shared secret. Tokens are read-only
// once issued; the gate checks them but never mutates them.
type AccessToken struct {
	ID           uint           `gorm:"primarykey" json:"id"`
	AssignmentID uint           `json:"assignment_id" gorm:"not null;index"`
	Scope        string         `json:"scope" gorm:"not null"` // "staff" or "public"
	Secret       string         `json:"-" gorm:"not null;uniqueIndex"`
	ExpiresAt    *time.Time     `json:"expires_at,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

// Expired reports whether the token has passed its expiry at the given
// instant. Tokens with no expiry never expire.
func (t AccessToken) Expired(now time.Time) bool {
	return t.ExpiresAt != nil && now.After(*t.ExpiresAt)
}
