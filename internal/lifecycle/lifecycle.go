package lifecycle

import (
	"fmt"
	"time"

	"github.com/coursemark/coursemark/internal/model"
	"github.com/rs/zerolog/log"
)

// Assignment statuses, in normal workflow order. Withdrawal is modeled as
// record deletion, not a status, and is only permitted from the first two.
const (
	StatusCreated    = "created"
	StatusNotStarted = "not_started"
	StatusStarted    = "started"
	StatusSubmitted  = "submitted"
	StatusReleased   = "released"
)

var validStatuses = map[string]bool{
	StatusCreated:    true,
	StatusNotStarted: true,
	StatusStarted:    true,
	StatusSubmitted:  true,
	StatusReleased:   true,
}

// Valid reports whether s is a known assignment status.
func Valid(s string) bool { return validStatuses[s] }

// TransitionError is returned when an action is attempted from a status that
// does not permit it. The record is left unchanged.
type TransitionError struct {
	Action string
	From   string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot %s an assignment in status %q", e.Action, e.From)
}

// Distribute moves a freshly created assignment into the marker's queue.
// Idempotent: anything already distributed is left untouched and reported as
// unchanged, so batch distribution can safely re-run over a mixed selection.
func Distribute(a *model.Assignment) bool {
	if a.Status != StatusCreated {
		return false
	}
	a.Status = StatusNotStarted
	return true
}

// SaveDraft records a partial answer set without any completeness check. The
// answer set is replaced wholesale; last write wins.
func SaveDraft(a *model.Assignment, answers model.AnswerSet) error {
	if a.Status != StatusNotStarted && a.Status != StatusStarted {
		return &TransitionError{Action: "save a draft for", From: a.Status}
	}
	if err := a.SetAnswerSet(answers); err != nil {
		return err
	}
	a.Status = StatusStarted
	return nil
}

// Submit finalizes the answer set and stamps the submission time and the
// submitting network address. Required-field validation is the caller's
// responsibility and must pass before Submit is invoked.
func Submit(a *model.Assignment, answers model.AnswerSet, ip string, now time.Time) error {
	if a.Status != StatusNotStarted && a.Status != StatusStarted {
		return &TransitionError{Action: "submit", From: a.Status}
	}
	if err := a.SetAnswerSet(answers); err != nil {
		return err
	}
	a.Status = StatusSubmitted
	a.SubmittedAt = &now
	a.SubmittedIP = ip
	return nil
}

// Release makes a submitted report available to the student. Idempotent over
// already-released records within a batch.
func Release(a *model.Assignment) (bool, error) {
	switch a.Status {
	case StatusReleased:
		return false, nil
	case StatusSubmitted:
		a.Status = StatusReleased
		return true, nil
	default:
		return false, &TransitionError{Action: "release", From: a.Status}
	}
}

// Deletable reports whether the assignment may be withdrawn. Only pre-work
// states qualify; deleting later would orphan submitted marking data.
func Deletable(a *model.Assignment) bool {
	return a.Status == StatusCreated || a.Status == StatusNotStarted
}

// AdminSetStatus sets the status to any valid value, bypassing the normal
// transition gating. This is a deliberate escape hatch for privileged actors
// (e.g. reopening a submitted report for correction) and is warn-logged on
// every use rather than prevented.
func AdminSetStatus(a *model.Assignment, status string) error {
	if !Valid(status) {
		return fmt.Errorf("unknown assignment status %q", status)
	}
	log.Warn().
		Uint("assignmentID", a.ID).
		Str("from", a.Status).
		Str("to", status).
		Msg("Administrative lifecycle override applied")
	a.Status = status
	return nil
}
