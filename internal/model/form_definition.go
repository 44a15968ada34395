package model

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// FormDefinition stores the raw JSON form definition for one marking role.
// The schema package parses Definition in full; no component reads it ad hoc.
type FormDefinition struct {
	ID          uint           `gorm:"primarykey" json:"id"`
	Role        string         `json:"role" gorm:"not null;uniqueIndex"`
	Definition  datatypes.JSON `json:"definition" gorm:"type:jsonb;not null"`
	CriteriaURL string         `json:"criteria_url,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}
