package model

import (
	"time"

	"gorm.io/gorm"
)

// Presentation is a specific offering of a course in an academic year,
// e.g. "MSc Computing Science" in 2025. Read-only reference data.
type Presentation struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	Code      string         `json:"code" gorm:"not null;uniqueIndex"` // e.g. "MSCS"
	Title     string         `json:"title" gorm:"not null"`
	Year      int            `json:"year" gorm:"not null"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
