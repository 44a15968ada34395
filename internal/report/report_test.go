package report

import (
	"archive/zip"
	"bytes"
	"errors"
	"testing"

	"github.com/coursemark/coursemark/internal/model"
	"github.com/coursemark/coursemark/internal/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func testAssignment(t *testing.T) *model.Assignment {
	t.Helper()
	a := &model.Assignment{
		ID:   42,
		Role: "supervisor",
		Student: model.Student{
			Username:  "2468101z",
			FirstName: "Grace",
			LastName:  "Hopper",
		},
		Presentation: model.Presentation{
			Code:  "MSCS",
			Title: "MSc Computing Science",
			Year:  2026,
		},
		Marker: model.Staff{FirstName: "Alan", LastName: "Turing"},
	}
	require.NoError(t, a.SetAnswerSet(model.AnswerSet{
		"grade":    strPtr("65% (B)"),
		"notes":    strPtr("Clear structure throughout."),
		"concerns": strPtr("Plagiarism check pending."),
	}))
	return a
}

func testSchema(t *testing.T, reg *schema.QueryRegistry) *schema.Schema {
	t.Helper()
	raw := `{
		"title": "Supervisor Assessment",
		"pdf_title": "Project Supervisor Report",
		"questions": [
			{
				"title": "Assessment",
				"components": [
					{"name": "grade", "type": "select", "options": ["80% (A)", "65% (B)"], "label": "Overall grade"},
					{"name": "notes", "type": "comment", "label": "Comments for the student"}
				]
			},
			{
				"title": "Internal remarks",
				"confidential": true,
				"components": [
					{"name": "concerns", "type": "comment", "label": "Concerns"}
				]
			}
		]
	}`
	s, err := schema.Parse([]byte(raw), reg)
	require.NoError(t, err)
	return s
}

func TestRenderConfidentialCopy(t *testing.T) {
	reg := schema.NewQueryRegistry()
	g := NewGenerator("School of Computing Science", reg)
	a := testAssignment(t)
	s := testSchema(t, reg)

	content, name, err := g.Render(s, a, true)
	require.NoError(t, err)
	assert.Equal(t, "MSCS 2026 Hopper Grace supervisor 42.pdf", name)

	assert.True(t, bytes.HasPrefix(content, []byte("%PDF")))
	assert.True(t, bytes.Contains(content, []byte("Internal remarks")))
	assert.True(t, bytes.Contains(content, []byte("Plagiarism check pending.")))
	assert.False(t, bytes.Contains(content, []byte("Student copy")))
}

func TestRenderPublicCopyOmitsConfidentialContent(t *testing.T) {
	reg := schema.NewQueryRegistry()
	g := NewGenerator("School of Computing Science", reg)
	a := testAssignment(t)
	s := testSchema(t, reg)

	content, _, err := g.Render(s, a, false)
	require.NoError(t, err)

	// Withheld content must be absent from the raw bytes, not just hidden.
	assert.False(t, bytes.Contains(content, []byte("Internal remarks")))
	assert.False(t, bytes.Contains(content, []byte("Concerns")))
	assert.False(t, bytes.Contains(content, []byte("Plagiarism check pending.")))

	assert.True(t, bytes.Contains(content, []byte("Student copy")))
	assert.True(t, bytes.Contains(content, []byte("Clear structure throughout.")))
}

func TestRenderResolvesQueryComponents(t *testing.T) {
	reg := schema.NewQueryRegistry()
	reg.Register("student_name", func(a *model.Assignment) string { return a.Student.FullName() })
	g := NewGenerator("School of Computing Science", reg)
	a := testAssignment(t)

	raw := `{
		"title": "T",
		"questions": [
			{"title": "Candidate", "components": [{"name": "who", "type": "query", "query": "student_name"}]}
		]
	}`
	s, err := schema.Parse([]byte(raw), reg)
	require.NoError(t, err)

	content, _, err := g.Render(s, a, true)
	require.NoError(t, err)
	assert.True(t, bytes.Contains(content, []byte("Grace Hopper")))
}

func TestFilename(t *testing.T) {
	a := testAssignment(t)
	assert.Equal(t, "MSCS 2026 Hopper Grace supervisor 42.pdf", Filename(a))
}

func TestWriteZipPartialFailure(t *testing.T) {
	good := testAssignment(t)
	bad := testAssignment(t)
	bad.ID = 43

	render := func(a *model.Assignment) ([]byte, string, error) {
		if a.ID == 43 {
			return nil, "", errors.New("render failed")
		}
		return []byte("content"), Filename(a), nil
	}

	var buf bytes.Buffer
	succeeded, failed, err := WriteZip(&buf, []*model.Assignment{good, bad}, render)
	require.NoError(t, err)
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, failed)

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)
	require.Len(t, zr.File, 1)
	assert.Equal(t, "MSCS 2026 Hopper Grace supervisor 42.pdf", zr.File[0].Name)
}
