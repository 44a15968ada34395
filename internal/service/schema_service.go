package service

import (
	"fmt"

	"github.com/coursemark/coursemark/internal/model"
	"github.com/coursemark/coursemark/internal/repository"
	"github.com/coursemark/coursemark/internal/schema"
	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"
)

// SchemaService resolves the parsed form schema for a marking role. The raw
// definition is parsed in full on every resolve; the parsed value is what
// the renderer, the PDF generator and the aggregator all share within a
// request. No process-wide cache: a definition edit takes effect on the next
// request.
type SchemaService interface {
	SchemaForRole(role string) (*schema.Schema, error)
	SaveDefinition(role string, definition []byte, criteriaURL string) error
	ListDefinitions() ([]model.FormDefinition, error)
	Registry() *schema.QueryRegistry
}

type schemaService struct {
	formRepo repository.FormRepository
	reg      *schema.QueryRegistry
}

func NewSchemaService(formRepo repository.FormRepository) SchemaService {
	reg := schema.NewQueryRegistry()
	registerBuiltinQueries(reg)
	return &schemaService{formRepo: formRepo, reg: reg}
}

func (s *schemaService) Registry() *schema.QueryRegistry {
	return s.reg
}

func (s *schemaService) SchemaForRole(role string) (*schema.Schema, error) {
	def, err := s.formRepo.FindByRole(role)
	if err != nil {
		return nil, fmt.Errorf("no form definition for role %q: %w", role, err)
	}
	sch, err := schema.Parse(def.Definition, s.reg)
	if err != nil {
		log.Error().Err(err).Str("role", role).Msg("SchemaForRole: stored form definition is invalid")
		return nil, err
	}
	if sch.Role == "" {
		sch.Role = def.Role
	}
	if sch.CriteriaDoc == "" {
		sch.CriteriaDoc = def.CriteriaURL
	}
	return sch, nil
}

// SaveDefinition validates a raw definition against the registry and stores
// it under the role, replacing any previous version. A definition that does
// not parse is rejected outright; a broken form must never reach a marker.
func (s *schemaService) SaveDefinition(role string, definition []byte, criteriaURL string) error {
	if _, err := schema.Parse(definition, s.reg); err != nil {
		return err
	}
	def := model.FormDefinition{
		Role:        role,
		Definition:  datatypes.JSON(definition),
		CriteriaURL: criteriaURL,
	}
	if err := s.formRepo.Upsert(&def); err != nil {
		log.Error().Err(err).Str("role", role).Msg("SaveDefinition: failed to store form definition")
		return fmt.Errorf("storing form definition for role %q: %w", role, err)
	}
	return nil
}

func (s *schemaService) ListDefinitions() ([]model.FormDefinition, error) {
	return s.formRepo.FindAll()
}

// schemasForAssignments resolves one parsed schema per distinct role in the
// batch, failing on the first role whose definition is missing or invalid.
func schemasForAssignments(svc SchemaService, assignments []*model.Assignment) (map[string]*schema.Schema, error) {
	out := make(map[string]*schema.Schema)
	for _, a := range assignments {
		if _, ok := out[a.Role]; ok {
			continue
		}
		sch, err := svc.SchemaForRole(a.Role)
		if err != nil {
			return nil, err
		}
		out[a.Role] = sch
	}
	return out, nil
}
