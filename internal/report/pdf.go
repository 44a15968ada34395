package report

import (
	"bytes"
	"fmt"

	"github.com/coursemark/coursemark/internal/model"
	"github.com/coursemark/coursemark/internal/schema"
	"github.com/go-pdf/fpdf"
)

// Generator renders marking reports as paginated PDF documents. The same
// parsed schema drives both this and the interactive form; the generator
// never re-reads the raw definition.
type Generator struct {
	institution string
	reg         *schema.QueryRegistry
}

func NewGenerator(institution string, reg *schema.QueryRegistry) *Generator {
	return &Generator{institution: institution, reg: reg}
}

// Render produces the report bytes and the canonical filename. When
// confidential is false, every question or component flagged confidential is
// omitted entirely; its labels and values must never reach the output.
func (g *Generator) Render(s *schema.Schema, a *model.Assignment, confidential bool) ([]byte, string, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCompression(false)
	pdf.SetAutoPageBreak(true, 20)
	pdf.AddPage()

	// Branding header.
	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 8, g.institution, "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 8, s.DisplayTitle(), "", 1, "C", false, 0, "")
	if !confidential {
		pdf.SetFont("Helvetica", "I", 9)
		pdf.CellFormat(0, 6, "Student copy", "", 1, "C", false, 0, "")
	}
	pdf.Ln(4)

	g.identityTable(pdf, a)
	pdf.Ln(4)

	answers := a.AnswerSet()
	for _, q := range s.Questions {
		if q.Confidential && !confidential {
			continue
		}
		pdf.SetFont("Helvetica", "B", 11)
		pdf.MultiCell(0, 7, q.Title, "", "L", false)
		if q.Info != "" {
			pdf.SetFont("Helvetica", "I", 9)
			pdf.MultiCell(0, 5, q.Info, "", "L", false)
		}
		for _, c := range q.Components {
			if c.Confidential && !confidential {
				continue
			}
			g.component(pdf, c, a, answers)
		}
		pdf.Ln(3)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, "", fmt.Errorf("rendering report for assignment %d: %w", a.ID, err)
	}
	return buf.Bytes(), Filename(a), nil
}

func (g *Generator) identityTable(pdf *fpdf.Fpdf, a *model.Assignment) {
	rows := [][2]string{
		{"Student", a.Student.FullName()},
		{"Student ID", a.Student.Username},
		{"Presentation", a.Presentation.Title},
		{"Year", fmt.Sprintf("%d", a.Presentation.Year)},
		{"Marker", a.Marker.FullName()},
		{"Role", a.Role},
	}
	pdf.SetFont("Helvetica", "", 10)
	for _, row := range rows {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(40, 6, row[0], "1", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		pdf.CellFormat(0, 6, row[1], "1", 1, "L", false, 0, "")
	}
}

func (g *Generator) component(pdf *fpdf.Fpdf, c schema.Component, a *model.Assignment, answers model.AnswerSet) {
	value := ""
	switch c.Type {
	case schema.TypeQuery:
		// Same handler as the interactive form, but asked for plain text.
		if fn, ok := g.reg.Resolve(c.Query); ok {
			value = fn(a)
		}
	default:
		if v, ok := answers[c.Name]; ok && v != nil {
			value = *v
		}
	}

	if c.Label != "" {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.MultiCell(0, 5, c.Label, "", "L", false)
	}
	pdf.SetFont("Helvetica", "", 10)
	if value == "" {
		value = "-"
	}
	pdf.MultiCell(0, 5, value, "", "L", false)
	pdf.Ln(1)
}

// Filename derives the stable artifact name:
// "{presentation} {year} {lastname} {firstname} {role} {id}.pdf".
// The trailing record id guarantees no collision between concurrently
// generated artifacts and keeps batch zip entries unique.
func Filename(a *model.Assignment) string {
	return fmt.Sprintf("%s %d %s %s %s %d.pdf",
		a.Presentation.Code, a.Presentation.Year,
		a.Student.LastName, a.Student.FirstName,
		a.Role, a.ID)
}
