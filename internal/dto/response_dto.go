package dto

import (
	"time"

	"github.com/coursemark/coursemark/internal/lifecycle"
)

type ErrorResponse struct {
	Error   string   `json:"error"`
	Details []string `json:"details,omitempty"`
}

// AssignmentResponse is the admin/marker view of one assignment.
type AssignmentResponse struct {
	ID            uint                    `json:"id"`
	StudentName   string                  `json:"student_name"`
	Presentation  string                  `json:"presentation"`
	Year          int                     `json:"year"`
	MarkerID      uint                    `json:"marker_id"`
	MarkerName    string                  `json:"marker_name"`
	Role          string                  `json:"role"`
	DueDate       *time.Time              `json:"due_date,omitempty"`
	Status        string                  `json:"status"`
	StatusDisplay lifecycle.StatusDisplay `json:"status_display"`
	SubmittedAt   *time.Time              `json:"submitted_at,omitempty"`
	CreatedAt     time.Time               `json:"created_at"`
}

// SubmitResponse reports the outcome of a final submit. A non-empty Errors
// map means the submit was rejected and the form should be re-displayed with
// the partial input retained.
type SubmitResponse struct {
	Status      string            `json:"status"`
	SubmittedAt *time.Time        `json:"submitted_at,omitempty"`
	Errors      map[string]string `json:"errors,omitempty"`
}

// BatchResult summarizes a partial-failure batch action. Items are attempted
// independently; the batch never aborts on a single failure.
type BatchResult struct {
	Requested int      `json:"requested"`
	Succeeded int      `json:"succeeded"`
	Skipped   int      `json:"skipped"`
	Failed    int      `json:"failed"`
	Errors    []string `json:"errors,omitempty"`
}
