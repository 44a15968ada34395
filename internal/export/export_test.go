package export

import (
	"bytes"
	"testing"

	"github.com/coursemark/coursemark/internal/model"
	"github.com/coursemark/coursemark/internal/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func strPtr(s string) *string { return &s }

func TestExtractGrade(t *testing.T) {
	cases := map[string]string{
		"65% (B)":         "65",
		"100%":            "100",
		"  80 % (A)":      "80",
		"0% (fail)":       "0",
		"B2":              "B2",
		"pass":            "pass",
		"":                "",
		"percent 50% odd": "percent 50% odd",
	}
	for raw, want := range cases {
		assert.Equal(t, want, ExtractGrade(raw), "raw %q", raw)
	}
}

func exportSchema(t *testing.T, role string) *schema.Schema {
	t.Helper()
	raw := `{
		"title": "Assessment",
		"export_fields": ["grade"],
		"questions": [
			{"title": "Q", "components": [
				{"name": "grade", "type": "select", "options": ["80% (A)", "65% (B)"]},
				{"name": "notes", "type": "comment"}
			]}
		]
	}`
	s, err := schema.Parse([]byte(raw), schema.NewQueryRegistry())
	require.NoError(t, err)
	s.Role = role
	return s
}

func assignment(id, studentID uint, role string, student model.Student, marker model.Staff, answers model.AnswerSet) *model.Assignment {
	a := &model.Assignment{
		ID:        id,
		StudentID: studentID,
		Student:   student,
		Role:      role,
		Marker:    marker,
	}
	if answers != nil {
		if err := a.SetAnswerSet(answers); err != nil {
			panic(err)
		}
	}
	return a
}

func TestAggregateSingleRole(t *testing.T) {
	ada := model.Student{Username: "1111a", FirstName: "Ada", LastName: "Lovelace"}
	grace := model.Student{Username: "2222g", FirstName: "Grace", LastName: "Hopper"}
	marker := model.Staff{FirstName: "Alan", LastName: "Turing"}

	as := []*model.Assignment{
		assignment(1, 10, "supervisor", ada, marker, model.AnswerSet{"grade": strPtr("65% (B)")}),
		assignment(2, 20, "supervisor", grace, marker, model.AnswerSet{"grade": strPtr("80% (A)")}),
	}
	schemas := map[string]*schema.Schema{"supervisor": exportSchema(t, "supervisor")}

	table, err := Aggregate(as, schemas)
	require.NoError(t, err)

	assert.Equal(t, []string{"", "", "supervisor", ""}, table.GroupHeader)
	assert.Equal(t, []string{"Student", "Username", "Marker", "grade"}, table.FieldHeader)
	require.Len(t, table.Rows, 2)

	// Rows sort by last name: Hopper before Lovelace.
	assert.Equal(t, []string{"Grace Hopper", "2222g", "Alan Turing", "80"}, table.Rows[0])
	assert.Equal(t, []string{"Ada Lovelace", "1111a", "Alan Turing", "65"}, table.Rows[1])
}

func TestAggregateDoubleMarkedRoleReservesSlots(t *testing.T) {
	ada := model.Student{Username: "1111a", FirstName: "Ada", LastName: "Lovelace"}
	grace := model.Student{Username: "2222g", FirstName: "Grace", LastName: "Hopper"}
	m1 := model.Staff{FirstName: "Alan", LastName: "Turing"}
	m2 := model.Staff{FirstName: "Edsger", LastName: "Dijkstra"}

	// Ada has two independent markers of the same role; Grace has one.
	as := []*model.Assignment{
		assignment(1, 10, "marker", ada, m1, model.AnswerSet{"grade": strPtr("65% (B)")}),
		assignment(2, 10, "marker", ada, m2, model.AnswerSet{"grade": strPtr("80% (A)")}),
		assignment(3, 20, "marker", grace, m1, model.AnswerSet{"grade": strPtr("80% (A)")}),
	}
	schemas := map[string]*schema.Schema{"marker": exportSchema(t, "marker")}

	table, err := Aggregate(as, schemas)
	require.NoError(t, err)

	assert.Equal(t, []string{"", "", "marker 1", "", "marker 2", ""}, table.GroupHeader)
	assert.Equal(t, []string{"Student", "Username", "Marker", "grade", "Marker", "grade"}, table.FieldHeader)

	// Grace's unused second slot renders an empty marker and NA fields.
	assert.Equal(t, []string{"Grace Hopper", "2222g", "Alan Turing", "80", "", NA}, table.Rows[0])
	assert.Equal(t, []string{"Ada Lovelace", "1111a", "Alan Turing", "65", "Edsger Dijkstra", "80"}, table.Rows[1])
}

func TestAggregateMissingAnswerIsNA(t *testing.T) {
	ada := model.Student{Username: "1111a", FirstName: "Ada", LastName: "Lovelace"}
	marker := model.Staff{FirstName: "Alan", LastName: "Turing"}

	as := []*model.Assignment{
		assignment(1, 10, "supervisor", ada, marker, model.AnswerSet{"grade": nil}),
	}
	schemas := map[string]*schema.Schema{"supervisor": exportSchema(t, "supervisor")}

	table, err := Aggregate(as, schemas)
	require.NoError(t, err)
	assert.Equal(t, []string{"Ada Lovelace", "1111a", "Alan Turing", NA}, table.Rows[0])
}

func TestAggregateUnknownExportField(t *testing.T) {
	ada := model.Student{Username: "1111a", FirstName: "Ada", LastName: "Lovelace"}
	as := []*model.Assignment{
		assignment(1, 10, "supervisor", ada, model.Staff{}, nil),
	}
	s := exportSchema(t, "supervisor")
	s.ExportFields = []string{"vanished"}
	schemas := map[string]*schema.Schema{"supervisor": s}

	_, err := Aggregate(as, schemas)
	var derr *AggregationDataError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, "supervisor", derr.Role)
	assert.Equal(t, "vanished", derr.Field)
}

func TestAggregateMissingSchema(t *testing.T) {
	ada := model.Student{Username: "1111a", FirstName: "Ada", LastName: "Lovelace"}
	as := []*model.Assignment{
		assignment(1, 10, "viva", ada, model.Staff{}, nil),
	}
	_, err := Aggregate(as, map[string]*schema.Schema{})
	require.Error(t, err)
}

func TestTableWriteCSV(t *testing.T) {
	table := &Table{
		GroupHeader: []string{"", "", "supervisor", ""},
		FieldHeader: []string{"Student", "Username", "Marker", "grade"},
		Rows:        [][]string{{"Ada Lovelace", "1111a", "Alan Turing", "65"}},
	}
	var buf bytes.Buffer
	require.NoError(t, table.WriteCSV(&buf))
	assert.Equal(t, ",,supervisor,\nStudent,Username,Marker,grade\nAda Lovelace,1111a,Alan Turing,65\n", buf.String())
}

func TestTableWriteXLSX(t *testing.T) {
	table := &Table{
		GroupHeader: []string{"", "", "marker 1", "", "marker 2", ""},
		FieldHeader: []string{"Student", "Username", "Marker", "grade", "Marker", "grade"},
		Rows:        [][]string{{"Ada Lovelace", "1111a", "Alan Turing", "65", "Edsger Dijkstra", "80"}},
	}
	content, err := table.WriteXLSX()
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(content))
	require.NoError(t, err)
	defer f.Close()

	got, err := f.GetCellValue("Sheet1", "C1")
	require.NoError(t, err)
	assert.Equal(t, "marker 1", got)
	got, err = f.GetCellValue("Sheet1", "A3")
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", got)

	merged, err := f.GetMergeCells("Sheet1")
	require.NoError(t, err)
	assert.Len(t, merged, 2, "each group label merges across its columns")
}
