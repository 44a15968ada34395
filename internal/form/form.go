package form

import (
	"fmt"
	"html"
	"strings"

	"github.com/coursemark/coursemark/internal/model"
	"github.com/coursemark/coursemark/internal/schema"
)

// Render modes. Preview renders an editable-looking form with no backing
// assignment, used when an admin inspects a form definition.
type Mode string

const (
	ModeEditable Mode = "editable"
	ModeReadOnly Mode = "readonly"
	ModePreview  Mode = "preview"
)

// Field is one rendered input surface, ready for the template layer. For
// read-only comment fields and query fields, HTML carries the only content
// that may be emitted; Value is the raw stored text.
type Field struct {
	Name        string   `json:"name"`
	Type        string   `json:"type"`
	Label       string   `json:"label,omitempty"`
	Info        string   `json:"info,omitempty"`
	Options     []string `json:"options,omitempty"`
	Value       string   `json:"value"`
	Rows        int      `json:"rows,omitempty"`
	Placeholder string   `json:"placeholder,omitempty"`
	Required    bool     `json:"required"`
	ReadOnly    bool     `json:"read_only"`
	HTML        string   `json:"html,omitempty"`
}

type RenderedQuestion struct {
	Title        string  `json:"title"`
	Info         string  `json:"info,omitempty"`
	Confidential bool    `json:"confidential"`
	Fields       []Field `json:"fields"`
}

type RenderedForm struct {
	Title        string             `json:"title"`
	Instructions string             `json:"instructions,omitempty"`
	CriteriaDoc  string             `json:"criteria_doc,omitempty"`
	Mode         Mode               `json:"mode"`
	Questions    []RenderedQuestion `json:"questions"`
}

// ValidationResult maps component variable names to user-facing error
// messages. An empty result means the submission is acceptable.
type ValidationResult map[string]string

func (v ValidationResult) Valid() bool { return len(v) == 0 }

const defaultCommentRows = 6

// Build renders a schema plus an optional prior answer set into an input
// surface, in document order. The assignment may be nil in preview mode, in
// which case query components render empty.
func Build(s *schema.Schema, a *model.Assignment, answers model.AnswerSet, mode Mode, reg *schema.QueryRegistry) (*RenderedForm, error) {
	rf := &RenderedForm{
		Title:        s.Title,
		Instructions: s.Instructions,
		CriteriaDoc:  s.CriteriaDoc,
		Mode:         mode,
	}
	readonly := mode == ModeReadOnly

	for _, q := range s.Questions {
		rq := RenderedQuestion{Title: q.Title, Info: q.Info, Confidential: q.Confidential}
		for _, c := range q.Components {
			f := Field{
				Name:        c.Name,
				Type:        c.Type,
				Label:       c.Label,
				Info:        c.Info,
				Options:     c.Options,
				Rows:        c.Rows,
				Placeholder: c.Placeholder,
				Required:    c.Required,
				ReadOnly:    readonly,
				Value:       storedValue(c, answers),
			}

			switch c.Type {
			case schema.TypeComment:
				if f.Rows == 0 {
					f.Rows = defaultCommentRows
				}
				if readonly {
					// Stored text is untrusted. Escape first, then turn
					// newlines into breaks; no other markup survives.
					f.HTML = EscapeMultiline(f.Value)
				}
			case schema.TypeQuery:
				// Never a stored input: computed fresh on every render and
				// read-only even in editable mode.
				f.ReadOnly = true
				fn, ok := reg.Resolve(c.Query)
				if !ok {
					return nil, fmt.Errorf("query function %q not registered for component %q", c.Query, c.Name)
				}
				if a != nil {
					f.Value = fn(a)
				}
				f.HTML = html.EscapeString(f.Value)
			}
			rq.Fields = append(rq.Fields, f)
		}
		rf.Questions = append(rf.Questions, rq)
	}
	return rf, nil
}

// ValidateSubmit checks required-field completion. The check applies only to
// final submission: saving a draft is allowed to be arbitrarily incomplete.
func ValidateSubmit(s *schema.Schema, answers model.AnswerSet, finalSubmit bool) ValidationResult {
	errs := ValidationResult{}
	if !finalSubmit {
		return errs
	}
	for _, q := range s.Questions {
		for _, c := range q.Components {
			if !c.Required || c.Type == schema.TypeQuery {
				continue
			}
			v, ok := answers[c.Name]
			if !ok || v == nil || strings.TrimSpace(*v) == "" {
				errs[c.Name] = requiredMessage(c)
			}
		}
	}
	return errs
}

func requiredMessage(c schema.Component) string {
	switch c.Type {
	case schema.TypeRubric:
		return "You must select an option"
	case schema.TypeSelect:
		return "You must select a grade"
	case schema.TypeComment:
		return "You must provide comments"
	default:
		return "This field is required"
	}
}

// EscapeMultiline HTML-escapes stored text and converts newlines to <br>
// tags. Escaping must happen before the breaks are inserted, or the breaks
// would be escaped too.
func EscapeMultiline(s string) string {
	escaped := html.EscapeString(s)
	escaped = strings.ReplaceAll(escaped, "\r\n", "\n")
	return strings.ReplaceAll(escaped, "\n", "<br>")
}

func storedValue(c schema.Component, answers model.AnswerSet) string {
	if v, ok := answers[c.Name]; ok && v != nil {
		return *v
	}
	return c.Default
}
