package service

import (
	"fmt"

	"github.com/coursemark/coursemark/internal/model"
	"github.com/coursemark/coursemark/internal/schema"
)

const dateFormat = "2 January 2006"

// registerBuiltinQueries installs the query functions form definitions may
// reference. These are pure lookups over the owning assignment; schemas
// naming anything else are rejected at parse time.
func registerBuiltinQueries(reg *schema.QueryRegistry) {
	reg.Register("student_name", func(a *model.Assignment) string {
		return a.Student.FullName()
	})
	reg.Register("student_username", func(a *model.Assignment) string {
		return a.Student.Username
	})
	reg.Register("presentation", func(a *model.Assignment) string {
		return fmt.Sprintf("%s (%d)", a.Presentation.Title, a.Presentation.Year)
	})
	reg.Register("marker_name", func(a *model.Assignment) string {
		return a.Marker.FullName()
	})
	reg.Register("due_date", func(a *model.Assignment) string {
		if a.DueDate == nil {
			return ""
		}
		return a.DueDate.Format(dateFormat)
	})
	reg.Register("submission_date", func(a *model.Assignment) string {
		if a.SubmittedAt == nil {
			return ""
		}
		return a.SubmittedAt.Format(dateFormat)
	})
}
