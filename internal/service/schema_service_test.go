package service

import (
	"testing"

	"github.com/coursemark/coursemark/internal/model"
	"github.com/coursemark/coursemark/internal/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type fakeFormRepo struct {
	defs map[string]*model.FormDefinition
}

func newFakeFormRepo() *fakeFormRepo {
	return &fakeFormRepo{defs: make(map[string]*model.FormDefinition)}
}

func (r *fakeFormRepo) FindByRole(role string) (*model.FormDefinition, error) {
	def, ok := r.defs[role]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return def, nil
}

func (r *fakeFormRepo) FindAll() ([]model.FormDefinition, error) {
	var out []model.FormDefinition
	for _, def := range r.defs {
		out = append(out, *def)
	}
	return out, nil
}

func (r *fakeFormRepo) Upsert(def *model.FormDefinition) error {
	r.defs[def.Role] = def
	return nil
}

const storedDefinition = `{
	"title": "Supervisor Assessment",
	"questions": [
		{"title": "Candidate", "components": [
			{"name": "who", "type": "query", "query": "student_name"},
			{"name": "when", "type": "query", "query": "submission_date"}
		]},
		{"title": "Grade", "components": [
			{"name": "grade", "type": "select", "options": ["80% (A)", "65% (B)"], "required": true}
		]}
	]
}`

func TestSchemaForRoleParsesStoredDefinition(t *testing.T) {
	repo := newFakeFormRepo()
	repo.defs["supervisor"] = &model.FormDefinition{
		Role:        "supervisor",
		Definition:  datatypes.JSON(storedDefinition),
		CriteriaURL: "https://example.edu/criteria.pdf",
	}
	svc := NewSchemaService(repo)

	sch, err := svc.SchemaForRole("supervisor")
	require.NoError(t, err)
	assert.Equal(t, "supervisor", sch.Role)
	assert.Equal(t, "https://example.edu/criteria.pdf", sch.CriteriaDoc)

	_, ok := sch.Component("grade")
	assert.True(t, ok)
}

func TestSchemaForRoleMissingDefinition(t *testing.T) {
	svc := NewSchemaService(newFakeFormRepo())
	_, err := svc.SchemaForRole("viva")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "viva")
}

func TestSchemaForRoleInvalidStoredDefinition(t *testing.T) {
	repo := newFakeFormRepo()
	repo.defs["supervisor"] = &model.FormDefinition{
		Role:       "supervisor",
		Definition: datatypes.JSON(`{"title": "T", "questions": []}`),
	}
	svc := NewSchemaService(repo)

	_, err := svc.SchemaForRole("supervisor")
	var serr *schema.SchemaError
	require.ErrorAs(t, err, &serr)
}

func TestSaveDefinitionValidatesBeforeStoring(t *testing.T) {
	repo := newFakeFormRepo()
	svc := NewSchemaService(repo)

	err := svc.SaveDefinition("supervisor", []byte(`{"title": "T"}`), "")
	require.Error(t, err)
	assert.Empty(t, repo.defs)

	require.NoError(t, svc.SaveDefinition("supervisor", []byte(storedDefinition), "https://example.edu/criteria.pdf"))
	require.Contains(t, repo.defs, "supervisor")

	defs, err := svc.ListDefinitions()
	require.NoError(t, err)
	assert.Len(t, defs, 1)
}

func TestBuiltinQueriesRegistered(t *testing.T) {
	svc := NewSchemaService(newFakeFormRepo())
	reg := svc.Registry()
	assert.Equal(t, []string{
		"due_date",
		"marker_name",
		"presentation",
		"student_name",
		"student_username",
		"submission_date",
	}, reg.Names())
}
