package service

import (
	"fmt"

	"github.com/coursemark/coursemark/internal/export"
	"github.com/coursemark/coursemark/internal/repository"
)

// ExportService produces the wide grade table for an admin-selected batch of
// assignments.
type ExportService interface {
	GradeExport(ids []uint) (*export.Table, error)
}

type exportService struct {
	assignmentRepo repository.AssignmentRepository
	schemaSvc      SchemaService
}

func NewExportService(assignmentRepo repository.AssignmentRepository, schemaSvc SchemaService) ExportService {
	return &exportService{assignmentRepo: assignmentRepo, schemaSvc: schemaSvc}
}

func (s *exportService) GradeExport(ids []uint) (*export.Table, error) {
	assignments, err := s.assignmentRepo.FindByIDs(ids)
	if err != nil {
		return nil, fmt.Errorf("loading assignments for grade export: %w", err)
	}
	schemas, err := schemasForAssignments(s.schemaSvc, assignments)
	if err != nil {
		return nil, err
	}
	return export.Aggregate(assignments, schemas)
}
