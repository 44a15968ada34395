package form

import (
	"testing"

	"github.com/coursemark/coursemark/internal/model"
	"github.com/coursemark/coursemark/internal/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

// gradeSchema is a minimal two-component form: a required rubric and an
// optional comment.
func gradeSchema(t *testing.T) (*schema.Schema, *schema.QueryRegistry) {
	t.Helper()
	reg := schema.NewQueryRegistry()
	reg.Register("student_name", func(a *model.Assignment) string { return a.Student.FullName() })

	raw := `{
		"title": "Presentation Assessment",
		"questions": [
			{
				"title": "Grade",
				"components": [
					{"name": "grade", "type": "rubric", "options": ["A", "B", "C"], "required": true},
					{"name": "notes", "type": "comment"}
				]
			}
		]
	}`
	s, err := schema.Parse([]byte(raw), reg)
	require.NoError(t, err)
	return s, reg
}

func TestValidateSubmitMissingRequiredRubric(t *testing.T) {
	s, _ := gradeSchema(t)
	answers := model.AnswerSet{"grade": nil, "notes": strPtr("good work")}

	res := ValidateSubmit(s, answers, true)
	assert.False(t, res.Valid())
	assert.Equal(t, ValidationResult{"grade": "You must select an option"}, res)
}

func TestValidateSubmitCompleteSet(t *testing.T) {
	s, _ := gradeSchema(t)
	answers := model.AnswerSet{"grade": strPtr("B"), "notes": nil}

	res := ValidateSubmit(s, answers, true)
	assert.True(t, res.Valid())
}

func TestValidateSubmitDraftSkipsChecks(t *testing.T) {
	s, _ := gradeSchema(t)

	res := ValidateSubmit(s, model.AnswerSet{}, false)
	assert.True(t, res.Valid())
}

func TestValidateSubmitBlankAndAbsentTreatedAlike(t *testing.T) {
	s, _ := gradeSchema(t)

	for _, answers := range []model.AnswerSet{
		{},
		{"grade": strPtr("   ")},
	} {
		res := ValidateSubmit(s, answers, true)
		assert.Equal(t, "You must select an option", res["grade"])
	}
}

func TestValidateSubmitMessagesPerType(t *testing.T) {
	reg := schema.NewQueryRegistry()
	raw := `{
		"title": "T",
		"questions": [
			{
				"title": "Q",
				"components": [
					{"name": "r", "type": "rubric", "options": ["x"], "required": true},
					{"name": "s", "type": "select", "options": ["x"], "required": true},
					{"name": "c", "type": "comment", "required": true}
				]
			}
		]
	}`
	s, err := schema.Parse([]byte(raw), reg)
	require.NoError(t, err)

	res := ValidateSubmit(s, model.AnswerSet{}, true)
	assert.Equal(t, "You must select an option", res["r"])
	assert.Equal(t, "You must select a grade", res["s"])
	assert.Equal(t, "You must provide comments", res["c"])
}

func TestBuildPrefillsStoredAnswers(t *testing.T) {
	s, reg := gradeSchema(t)
	answers := model.AnswerSet{"grade": strPtr("A"), "notes": strPtr("solid")}

	rf, err := Build(s, nil, answers, ModeEditable, reg)
	require.NoError(t, err)
	require.Len(t, rf.Questions, 1)
	fields := rf.Questions[0].Fields
	require.Len(t, fields, 2)

	assert.Equal(t, "A", fields[0].Value)
	assert.False(t, fields[0].ReadOnly)
	assert.Equal(t, "solid", fields[1].Value)
	assert.Equal(t, defaultCommentRows, fields[1].Rows)
}

func TestBuildReadOnlyEscapesComments(t *testing.T) {
	s, reg := gradeSchema(t)
	answers := model.AnswerSet{"notes": strPtr("<script>alert(1)</script>\nline two")}

	rf, err := Build(s, nil, answers, ModeReadOnly, reg)
	require.NoError(t, err)

	notes := rf.Questions[0].Fields[1]
	assert.True(t, notes.ReadOnly)
	assert.Equal(t, "&lt;script&gt;alert(1)&lt;/script&gt;<br>line two", notes.HTML)
}

func TestBuildResolvesQueryComponents(t *testing.T) {
	reg := schema.NewQueryRegistry()
	reg.Register("student_name", func(a *model.Assignment) string { return a.Student.FullName() })
	raw := `{
		"title": "T",
		"questions": [
			{"title": "Q", "components": [{"name": "who", "type": "query", "query": "student_name"}]}
		]
	}`
	s, err := schema.Parse([]byte(raw), reg)
	require.NoError(t, err)

	a := &model.Assignment{Student: model.Student{FirstName: "Ada", LastName: "Lovelace"}}
	rf, err := Build(s, a, model.AnswerSet{}, ModeEditable, reg)
	require.NoError(t, err)

	who := rf.Questions[0].Fields[0]
	assert.True(t, who.ReadOnly, "query fields are read-only even in editable mode")
	assert.Equal(t, "Ada Lovelace", who.Value)
	assert.Equal(t, "Ada Lovelace", who.HTML)
}

func TestBuildQueryEmptyInPreview(t *testing.T) {
	reg := schema.NewQueryRegistry()
	reg.Register("student_name", func(a *model.Assignment) string { return a.Student.FullName() })
	raw := `{
		"title": "T",
		"questions": [
			{"title": "Q", "components": [{"name": "who", "type": "query", "query": "student_name"}]}
		]
	}`
	s, err := schema.Parse([]byte(raw), reg)
	require.NoError(t, err)

	rf, err := Build(s, nil, nil, ModePreview, reg)
	require.NoError(t, err)
	assert.Equal(t, "", rf.Questions[0].Fields[0].Value)
}

func TestBuildUsesDefaultWhenUnanswered(t *testing.T) {
	reg := schema.NewQueryRegistry()
	raw := `{
		"title": "T",
		"questions": [
			{"title": "Q", "components": [{"name": "grade", "type": "select", "options": ["A", "B"], "default": "B"}]}
		]
	}`
	s, err := schema.Parse([]byte(raw), reg)
	require.NoError(t, err)

	rf, err := Build(s, nil, model.AnswerSet{}, ModeEditable, reg)
	require.NoError(t, err)
	assert.Equal(t, "B", rf.Questions[0].Fields[0].Value)
}

func TestEscapeMultiline(t *testing.T) {
	assert.Equal(t, "a&amp;b<br>c", EscapeMultiline("a&b\r\nc"))
	assert.Equal(t, "plain", EscapeMultiline("plain"))
}
