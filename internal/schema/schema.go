package schema

import (
	"encoding/json"
	"fmt"
)

// Component types understood by the form engine.
const (
	TypeRubric  = "rubric"  // single choice among options, rendered as radio buttons
	TypeComment = "comment" // free multi-line text
	TypeSelect  = "select"  // single choice among options, rendered as a dropdown
	TypeQuery   = "query"   // computed read-only value, resolved through the query registry
)

var knownTypes = map[string]bool{
	TypeRubric:  true,
	TypeComment: true,
	TypeSelect:  true,
	TypeQuery:   true,
}

// Component is a single input surface within a question. Name is the variable
// the committed value is stored under and must be unique across the schema.
type Component struct {
	Name         string   `json:"name"`
	Type         string   `json:"type"`
	Label        string   `json:"label,omitempty"`
	Info         string   `json:"info,omitempty"`
	Options      []string `json:"options,omitempty"`     // rubric/select only
	Rows         int      `json:"rows,omitempty"`        // comment only; visible row count
	Placeholder  string   `json:"placeholder,omitempty"` // comment only
	Query        string   `json:"query,omitempty"`       // query only; registry name
	Required     bool     `json:"required,omitempty"`
	Default      string   `json:"default,omitempty"`
	Confidential bool     `json:"confidential,omitempty"`
}

// Question is an ordered group of components under a title. A confidential
// question is withheld in its entirety from public output.
type Question struct {
	Title        string      `json:"title"`
	Info         string      `json:"info,omitempty"`
	Confidential bool        `json:"confidential,omitempty"`
	Components   []Component `json:"components"`
}

// Schema is the validated, immutable form definition for one marking role.
// It is parsed in full or rejected in full; both the interactive renderer and
// the PDF generator consume the same parsed value.
type Schema struct {
	Role         string     `json:"role,omitempty"`
	Title        string     `json:"title"`
	PDFTitle     string     `json:"pdf_title,omitempty"`
	Instructions string     `json:"instructions,omitempty"`
	CriteriaDoc  string     `json:"criteria_doc,omitempty"`
	ExportFields []string   `json:"export_fields,omitempty"`
	Questions    []Question `json:"questions"`
}

// SchemaError reports a malformed form definition. It is fatal: a role with a
// broken definition cannot be rendered, submitted or exported.
type SchemaError struct {
	Question  int    // 1-based index of the offending question, 0 if top-level
	Component string // variable name of the offending component, "" if question-level
	Msg       string
}

func (e *SchemaError) Error() string {
	switch {
	case e.Question > 0 && e.Component != "":
		return fmt.Sprintf("form definition invalid: question %d, component %q: %s", e.Question, e.Component, e.Msg)
	case e.Question > 0:
		return fmt.Sprintf("form definition invalid: question %d: %s", e.Question, e.Msg)
	default:
		return fmt.Sprintf("form definition invalid: %s", e.Msg)
	}
}

// Parse decodes and validates a JSON form definition. Query components are
// resolved against the registry here, at load time; an unknown query name is
// a schema error, never deferred to render time.
func Parse(raw []byte, reg *QueryRegistry) (*Schema, error) {
	var s Schema
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, &SchemaError{Msg: fmt.Sprintf("not valid JSON: %v", err)}
	}
	if s.Title == "" {
		return nil, &SchemaError{Msg: "missing title"}
	}
	if len(s.Questions) == 0 {
		return nil, &SchemaError{Msg: "missing questions"}
	}

	seen := make(map[string]bool)
	for qi, q := range s.Questions {
		qn := qi + 1
		if len(q.Components) == 0 {
			return nil, &SchemaError{Question: qn, Msg: "question has no components"}
		}
		for _, c := range q.Components {
			if c.Name == "" {
				return nil, &SchemaError{Question: qn, Msg: "component has no variable name"}
			}
			if seen[c.Name] {
				return nil, &SchemaError{Question: qn, Component: c.Name, Msg: "duplicate variable name"}
			}
			seen[c.Name] = true

			if !knownTypes[c.Type] {
				return nil, &SchemaError{Question: qn, Component: c.Name, Msg: fmt.Sprintf("unknown component type %q", c.Type)}
			}
			switch c.Type {
			case TypeRubric, TypeSelect:
				if len(c.Options) == 0 {
					return nil, &SchemaError{Question: qn, Component: c.Name, Msg: "rubric/select component requires a non-empty options list"}
				}
			case TypeQuery:
				if c.Query == "" {
					return nil, &SchemaError{Question: qn, Component: c.Name, Msg: "query component has no query name"}
				}
				if reg == nil || !reg.Has(c.Query) {
					return nil, &SchemaError{Question: qn, Component: c.Name, Msg: fmt.Sprintf("unknown query function %q", c.Query)}
				}
			}
		}
	}

	for _, f := range s.ExportFields {
		if !seen[f] {
			return nil, &SchemaError{Msg: fmt.Sprintf("export field %q does not name a component", f)}
		}
	}

	return &s, nil
}

// Component returns the component with the given variable name, if any.
func (s *Schema) Component(name string) (Component, bool) {
	for _, q := range s.Questions {
		for _, c := range q.Components {
			if c.Name == name {
				return c, true
			}
		}
	}
	return Component{}, false
}

// DisplayTitle returns the PDF title when set, falling back to the form title.
func (s *Schema) DisplayTitle() string {
	if s.PDFTitle != "" {
		return s.PDFTitle
	}
	return s.Title
}
