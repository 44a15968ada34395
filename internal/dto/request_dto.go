package dto

import (
	"encoding/json"
	"time"
)

// ScheduleMarkingRequest creates one assignment: one marker, one student
// presentation, one role.
type ScheduleMarkingRequest struct {
	StudentID      uint       `json:"student_id" binding:"required"`
	PresentationID uint       `json:"presentation_id" binding:"required"`
	MarkerID       uint       `json:"marker_id" binding:"required"`
	Role           string     `json:"role" binding:"required"`
	DueDate        *time.Time `json:"due_date,omitempty"`
}

// AnswersRequest carries a full answer set for a draft save or a final
// submit. Null values are meaningful: they record an explicitly cleared
// component.
type AnswersRequest struct {
	Answers map[string]*string `json:"answers" binding:"required"`
}

// BatchRequest selects the assignments a batch action iterates over.
type BatchRequest struct {
	IDs []uint `json:"ids" binding:"required,min=1"`
}

// FormDefinitionRequest uploads or replaces a role's form definition. The
// definition travels as raw JSON and is validated server-side before storage.
type FormDefinitionRequest struct {
	Definition  json.RawMessage `json:"definition" binding:"required"`
	CriteriaURL string          `json:"criteria_url,omitempty"`
}

// OverrideStatusRequest is the privileged lifecycle override.
type OverrideStatusRequest struct {
	Status string `json:"status" binding:"required"`
}
