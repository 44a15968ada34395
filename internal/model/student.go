package model

import (
	"time"

	"gorm.io/gorm"
)

// Student is read-only reference data; the marking engine never mutates it.
type Student struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	Username  string         `json:"username" gorm:"not null;uniqueIndex"`
	FirstName string         `json:"first_name" gorm:"not null"`
	LastName  string         `json:"last_name" gorm:"not null"`
	Email     string         `json:"email" gorm:"not null"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// FullName returns "First Last" for display surfaces.
func (s Student) FullName() string {
	return s.FirstName + " " + s.LastName
}
