package model

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AnswerSet maps a component variable name to the committed value. A nil
// value means the marker explicitly left the component blank; an absent key
// means the component was never touched.
type AnswerSet map[string]*string

// Assignment is one marker's obligation to complete one marking form for one
// student presentation. Status transitions are owned by the lifecycle package;
// nothing else may write Status except the admin override path.
type Assignment struct {
	ID             uint           `gorm:"primarykey" json:"id"`
	StudentID      uint           `json:"student_id" gorm:"not null;index"`
	Student        Student        `json:"student,omitempty" gorm:"foreignKey:StudentID"`
	PresentationID uint           `json:"presentation_id" gorm:"not null;index"`
	Presentation   Presentation   `json:"presentation,omitempty" gorm:"foreignKey:PresentationID"`
	MarkerID       uint           `json:"marker_id" gorm:"not null;index"`
	Marker         Staff          `json:"marker,omitempty" gorm:"foreignKey:MarkerID"`
	Role           string         `json:"role" gorm:"not null;index"` // selects the form definition, e.g. "supervisor", "marker", "viva"
	DueDate        *time.Time     `json:"due_date,omitempty"`
	Status         string         `json:"status" gorm:"not null;default:created"`
	SubmittedAt    *time.Time     `json:"submitted_at,omitempty"`
	SubmittedIP    string         `json:"submitted_ip,omitempty"`
	Answers        datatypes.JSON `json:"answers,omitempty" gorm:"type:jsonb"`
	Tokens         []AccessToken  `json:"-" gorm:"foreignKey:AssignmentID"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
}

// AnswerSet decodes the stored answer JSON. A missing or empty column yields
// an empty (non-nil) set.
func (a *Assignment) AnswerSet() AnswerSet {
	as := AnswerSet{}
	if len(a.Answers) == 0 {
		return as
	}
	if err := json.Unmarshal(a.Answers, &as); err != nil {
		return AnswerSet{}
	}
	return as
}

// SetAnswerSet replaces the stored answer JSON wholesale. Draft saves and
// submits both go through here; last write wins.
func (a *Assignment) SetAnswerSet(as AnswerSet) error {
	raw, err := json.Marshal(as)
	if err != nil {
		return err
	}
	a.Answers = datatypes.JSON(raw)
	return nil
}
