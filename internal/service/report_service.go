package service

import (
	"bytes"
	"fmt"

	"github.com/coursemark/coursemark/internal/dto"
	"github.com/coursemark/coursemark/internal/model"
	"github.com/coursemark/coursemark/internal/report"
	"github.com/coursemark/coursemark/internal/repository"
	"github.com/coursemark/coursemark/internal/token"
)

// ReportService renders marking reports and decides who may see which copy.
type ReportService interface {
	Authorize(id uint, creds token.Credentials) (*model.Assignment, token.Outcome, error)
	Render(id uint, confidential bool) ([]byte, string, error)
	Zip(ids []uint) ([]byte, string, *dto.BatchResult, error)
}

type reportService struct {
	assignmentRepo repository.AssignmentRepository
	schemaSvc      SchemaService
	generator      *report.Generator
	gate           *token.Gate
}

func NewReportService(
	assignmentRepo repository.AssignmentRepository,
	schemaSvc SchemaService,
	generator *report.Generator,
	gate *token.Gate,
) ReportService {
	return &reportService{
		assignmentRepo: assignmentRepo,
		schemaSvc:      schemaSvc,
		generator:      generator,
		gate:           gate,
	}
}

// Authorize loads the assignment with its issued tokens and runs the gate.
// The assignment is returned so the caller can render without a second load.
func (s *reportService) Authorize(id uint, creds token.Credentials) (*model.Assignment, token.Outcome, error) {
	a, err := s.assignmentRepo.FindByIDWithDetails(id)
	if err != nil {
		return nil, token.Outcome{}, fmt.Errorf("assignment not found with ID %d: %w", id, err)
	}
	return a, s.gate.Authorize(a, a.Tokens, creds), nil
}

func (s *reportService) Render(id uint, confidential bool) ([]byte, string, error) {
	a, err := s.assignmentRepo.FindByIDWithDetails(id)
	if err != nil {
		return nil, "", fmt.Errorf("assignment not found with ID %d: %w", id, err)
	}
	return s.renderAssignment(a, confidential)
}

func (s *reportService) renderAssignment(a *model.Assignment, confidential bool) ([]byte, string, error) {
	sch, err := s.schemaSvc.SchemaForRole(a.Role)
	if err != nil {
		return nil, "", err
	}
	return s.generator.Render(sch, a, confidential)
}

// Zip renders the confidential copy of each selected report into one
// archive. Per-report failures skip that entry; the archive is produced for
// whatever rendered.
func (s *reportService) Zip(ids []uint) ([]byte, string, *dto.BatchResult, error) {
	assignments, err := s.assignmentRepo.FindByIDs(ids)
	if err != nil {
		return nil, "", nil, fmt.Errorf("loading assignments for zip: %w", err)
	}

	var buf bytes.Buffer
	ok, failed, err := report.WriteZip(&buf, assignments, func(a *model.Assignment) ([]byte, string, error) {
		return s.renderAssignment(a, true)
	})
	if err != nil {
		return nil, "", nil, fmt.Errorf("writing report archive: %w", err)
	}
	res := &dto.BatchResult{Requested: len(ids), Succeeded: ok, Failed: failed}
	return buf.Bytes(), "marking-reports.zip", res, nil
}
