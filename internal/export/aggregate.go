package export

import (
	"fmt"
	"regexp"
	"sort"

	"github.com/coursemark/coursemark/internal/model"
	"github.com/coursemark/coursemark/internal/schema"
)

// NA marks "no data" in the export, as opposed to an empty string answer.
const NA = "NA"

// AggregationDataError reports an export field that does not exist in the
// resolved schema for a role. The export fails loudly rather than silently
// emitting blank columns.
type AggregationDataError struct {
	Role  string
	Field string
}

func (e *AggregationDataError) Error() string {
	return fmt.Sprintf("grade export: field %q is not defined in the %q form", e.Field, e.Role)
}

var gradeRe = regexp.MustCompile(`^\s*(\d{1,3})\s*%`)

// ExtractGrade pulls the leading integer percentage out of a formatted grade
// string such as "65% (B)". When no percentage leads the value the raw
// string is returned unchanged; this is a deliberate fallback, not an error.
func ExtractGrade(raw string) string {
	if m := gradeRe.FindStringSubmatch(raw); m != nil {
		return m[1]
	}
	return raw
}

// roleLayout is the reserved column plan for one role: how many occurrence
// slots it needs and which fields each slot exports.
type roleLayout struct {
	role   string
	slots  int
	fields []string
}

// Aggregate builds the wide grade table for a batch of assignments spanning
// multiple roles and forms. The column layout is data-dependent (a student
// may be marked by two independent markers of the same role), so the whole
// plan is computed before any cell is written.
func Aggregate(assignments []*model.Assignment, schemas map[string]*schema.Schema) (*Table, error) {
	// Per-student, per-role counts determine the slot reservation per role.
	type studentKey = uint
	byStudent := make(map[studentKey][]*model.Assignment)
	roleCount := make(map[studentKey]map[string]int)
	maxSlots := make(map[string]int)

	for _, a := range assignments {
		byStudent[a.StudentID] = append(byStudent[a.StudentID], a)
		if roleCount[a.StudentID] == nil {
			roleCount[a.StudentID] = make(map[string]int)
		}
		roleCount[a.StudentID][a.Role]++
		if n := roleCount[a.StudentID][a.Role]; n > maxSlots[a.Role] {
			maxSlots[a.Role] = n
		}
	}

	roles := make([]string, 0, len(maxSlots))
	for r := range maxSlots {
		roles = append(roles, r)
	}
	sort.Strings(roles)

	layouts := make([]roleLayout, 0, len(roles))
	for _, r := range roles {
		s, ok := schemas[r]
		if !ok {
			return nil, fmt.Errorf("grade export: no form definition resolved for role %q", r)
		}
		for _, f := range s.ExportFields {
			if _, ok := s.Component(f); !ok {
				return nil, &AggregationDataError{Role: r, Field: f}
			}
		}
		layouts = append(layouts, roleLayout{role: r, slots: maxSlots[r], fields: s.ExportFields})
	}

	t := &Table{}
	t.GroupHeader = []string{"", ""}
	t.FieldHeader = []string{"Student", "Username"}
	for _, l := range layouts {
		for slot := 1; slot <= l.slots; slot++ {
			label := l.role
			if l.slots > 1 {
				label = fmt.Sprintf("%s %d", l.role, slot)
			}
			t.GroupHeader = append(t.GroupHeader, label)
			t.FieldHeader = append(t.FieldHeader, "Marker")
			for _, f := range l.fields {
				t.GroupHeader = append(t.GroupHeader, "")
				t.FieldHeader = append(t.FieldHeader, f)
			}
		}
	}

	students := make([]*model.Assignment, 0, len(byStudent))
	for _, as := range byStudent {
		students = append(students, as[0])
	}
	sort.Slice(students, func(i, j int) bool {
		si, sj := students[i].Student, students[j].Student
		if si.LastName != sj.LastName {
			return si.LastName < sj.LastName
		}
		if si.FirstName != sj.FirstName {
			return si.FirstName < sj.FirstName
		}
		return students[i].StudentID < students[j].StudentID
	})

	for _, first := range students {
		rows := byStudent[first.StudentID]
		sort.Slice(rows, func(i, j int) bool { return rows[i].ID < rows[j].ID })

		row := []string{first.Student.FullName(), first.Student.Username}
		for _, l := range layouts {
			occupants := make([]*model.Assignment, 0, l.slots)
			for _, a := range rows {
				if a.Role == l.role {
					occupants = append(occupants, a)
				}
			}
			for slot := 0; slot < l.slots; slot++ {
				if slot >= len(occupants) {
					row = append(row, "")
					for range l.fields {
						row = append(row, NA)
					}
					continue
				}
				a := occupants[slot]
				row = append(row, a.Marker.FullName())
				answers := a.AnswerSet()
				for _, f := range l.fields {
					v, ok := answers[f]
					if !ok || v == nil {
						row = append(row, NA)
						continue
					}
					row = append(row, ExtractGrade(*v))
				}
			}
		}
		t.Rows = append(t.Rows, row)
	}

	return t, nil
}
