package service

import (
	"fmt"
	"time"

	"github.com/coursemark/coursemark/config"
	"github.com/coursemark/coursemark/internal/dto"
	"github.com/coursemark/coursemark/internal/form"
	"github.com/coursemark/coursemark/internal/lifecycle"
	"github.com/coursemark/coursemark/internal/mailer"
	"github.com/coursemark/coursemark/internal/model"
	"github.com/coursemark/coursemark/internal/repository"
	"github.com/coursemark/coursemark/internal/token"
	"github.com/jinzhu/copier"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// MarkingService owns the marking workflow: scheduling, distribution to
// markers, draft saves, final submission and release to students. All status
// changes go through the lifecycle package.
type MarkingService interface {
	ScheduleMarking(req dto.ScheduleMarkingRequest) (*dto.AssignmentResponse, error)
	GetAssignment(id uint) (*dto.AssignmentResponse, error)
	AssignmentsForMarker(markerID uint) ([]*dto.AssignmentResponse, error)
	BuildForm(id uint, mode form.Mode) (*form.RenderedForm, error)
	PreviewForm(role string) (*form.RenderedForm, error)
	Distribute(ids []uint) (*dto.BatchResult, error)
	SaveDraft(id uint, answers model.AnswerSet) error
	Submit(id uint, answers model.AnswerSet, ip string) (*dto.SubmitResponse, error)
	Release(ids []uint) (*dto.BatchResult, error)
	Delete(id uint) error
	OverrideStatus(id uint, status string) error
}

type markingService struct {
	assignmentRepo repository.AssignmentRepository
	tokenRepo      repository.TokenRepository
	studentRepo    repository.StudentRepository
	staffRepo      repository.StaffRepository
	schemaSvc      SchemaService
	mail           mailer.Mailer
	cfg            *config.Config
}

func NewMarkingService(
	assignmentRepo repository.AssignmentRepository,
	tokenRepo repository.TokenRepository,
	studentRepo repository.StudentRepository,
	staffRepo repository.StaffRepository,
	schemaSvc SchemaService,
	mail mailer.Mailer,
	cfg *config.Config,
) MarkingService {
	return &markingService{
		assignmentRepo: assignmentRepo,
		tokenRepo:      tokenRepo,
		studentRepo:    studentRepo,
		staffRepo:      staffRepo,
		schemaSvc:      schemaSvc,
		mail:           mail,
		cfg:            cfg,
	}
}

func (s *markingService) ScheduleMarking(req dto.ScheduleMarkingRequest) (*dto.AssignmentResponse, error) {
	// A role without a valid form definition cannot be scheduled; catching it
	// here beats a marker discovering it from a broken form link.
	if _, err := s.schemaSvc.SchemaForRole(req.Role); err != nil {
		return nil, err
	}
	if _, err := s.studentRepo.FindByID(req.StudentID); err != nil {
		return nil, fmt.Errorf("student not found with ID %d: %w", req.StudentID, err)
	}
	if _, err := s.staffRepo.FindByID(req.MarkerID); err != nil {
		return nil, fmt.Errorf("marker not found with ID %d: %w", req.MarkerID, err)
	}

	a := model.Assignment{
		StudentID:      req.StudentID,
		PresentationID: req.PresentationID,
		MarkerID:       req.MarkerID,
		Role:           req.Role,
		DueDate:        req.DueDate,
		Status:         lifecycle.StatusCreated,
	}
	if err := s.assignmentRepo.Create(&a); err != nil {
		log.Error().Err(err).Msg("ScheduleMarking: failed to create assignment")
		return nil, fmt.Errorf("creating assignment: %w", err)
	}
	return s.GetAssignment(a.ID)
}

func (s *markingService) GetAssignment(id uint) (*dto.AssignmentResponse, error) {
	a, err := s.assignmentRepo.FindByIDWithDetails(id)
	if err != nil {
		return nil, fmt.Errorf("assignment not found with ID %d: %w", id, err)
	}
	return toAssignmentResponse(a), nil
}

// AssignmentsForMarker lists a marker's queue, soonest due date first.
func (s *markingService) AssignmentsForMarker(markerID uint) ([]*dto.AssignmentResponse, error) {
	assignments, err := s.assignmentRepo.FindByMarker(markerID)
	if err != nil {
		return nil, fmt.Errorf("loading assignments for marker %d: %w", markerID, err)
	}
	out := make([]*dto.AssignmentResponse, 0, len(assignments))
	for _, a := range assignments {
		out = append(out, toAssignmentResponse(a))
	}
	return out, nil
}

func (s *markingService) BuildForm(id uint, mode form.Mode) (*form.RenderedForm, error) {
	a, err := s.assignmentRepo.FindByIDWithDetails(id)
	if err != nil {
		return nil, fmt.Errorf("assignment not found with ID %d: %w", id, err)
	}
	sch, err := s.schemaSvc.SchemaForRole(a.Role)
	if err != nil {
		return nil, err
	}
	return form.Build(sch, a, a.AnswerSet(), mode, s.schemaSvc.Registry())
}

// PreviewForm renders a role's form with no backing assignment, for admins
// checking a definition before scheduling against it.
func (s *markingService) PreviewForm(role string) (*form.RenderedForm, error) {
	sch, err := s.schemaSvc.SchemaForRole(role)
	if err != nil {
		return nil, err
	}
	return form.Build(sch, nil, nil, form.ModePreview, s.schemaSvc.Registry())
}

// Distribute moves every selected assignment into its marker's queue and
// mails each affected marker a magic link. Already-distributed records are
// skipped; failures are tallied and the batch continues.
func (s *markingService) Distribute(ids []uint) (*dto.BatchResult, error) {
	assignments, err := s.assignmentRepo.FindByIDs(ids)
	if err != nil {
		return nil, fmt.Errorf("loading assignments for distribution: %w", err)
	}

	res := &dto.BatchResult{Requested: len(ids)}
	for _, a := range assignments {
		if !lifecycle.Distribute(a) {
			res.Skipped++
			continue
		}
		if err := s.assignmentRepo.Update(a); err != nil {
			log.Error().Err(err).Uint("assignmentID", a.ID).Msg("Distribute: failed to persist status")
			res.Failed++
			res.Errors = append(res.Errors, fmt.Sprintf("assignment %d: %v", a.ID, err))
			continue
		}
		if !s.sendDistributionMail(a) {
			res.Failed++
			res.Errors = append(res.Errors, fmt.Sprintf("assignment %d: email to %s failed", a.ID, a.Marker.Email))
			continue
		}
		res.Succeeded++
	}
	log.Info().Int("succeeded", res.Succeeded).Int("skipped", res.Skipped).Int("failed", res.Failed).Msg("Distribution batch finished")
	return res, nil
}

func (s *markingService) sendDistributionMail(a *model.Assignment) bool {
	link, err := token.IssueMagicLink([]byte(s.cfg.App.TokenSecret), a.MarkerID, s.cfg.App.MagicLinkTTL)
	if err != nil {
		log.Error().Err(err).Uint("markerID", a.MarkerID).Msg("Distribute: failed to issue magic link")
		return false
	}
	vars := map[string]any{
		"MarkerName":   a.Marker.FullName(),
		"StudentName":  a.Student.FullName(),
		"Presentation": fmt.Sprintf("%s (%d)", a.Presentation.Title, a.Presentation.Year),
		"Role":         a.Role,
		"FormURL":      fmt.Sprintf("%s/marking/%d?link=%s", s.cfg.App.BaseURL, a.ID, link),
	}
	if a.DueDate != nil {
		vars["DueDate"] = a.DueDate.Format(dateFormat)
	}
	return s.mail.Send(a.Marker.Email, "Marking assigned to you", mailer.TemplateMarkingDistributed, vars)
}

func (s *markingService) SaveDraft(id uint, answers model.AnswerSet) error {
	a, err := s.assignmentRepo.FindByID(id)
	if err != nil {
		return fmt.Errorf("assignment not found with ID %d: %w", id, err)
	}
	if err := lifecycle.SaveDraft(a, answers); err != nil {
		return err
	}
	return s.assignmentRepo.Update(a)
}

// Submit runs required-field validation and, if it passes, finalizes the
// answer set with the submission stamps in one repository write. A failed
// validation leaves the record untouched.
func (s *markingService) Submit(id uint, answers model.AnswerSet, ip string) (*dto.SubmitResponse, error) {
	a, err := s.assignmentRepo.FindByIDWithDetails(id)
	if err != nil {
		return nil, fmt.Errorf("assignment not found with ID %d: %w", id, err)
	}
	sch, err := s.schemaSvc.SchemaForRole(a.Role)
	if err != nil {
		return nil, err
	}

	if result := form.ValidateSubmit(sch, answers, true); !result.Valid() {
		return &dto.SubmitResponse{Status: a.Status, Errors: result}, nil
	}

	if err := lifecycle.Submit(a, answers, ip, time.Now()); err != nil {
		return nil, err
	}
	if err := s.assignmentRepo.MarkSubmitted(a); err != nil {
		log.Error().Err(err).Uint("assignmentID", a.ID).Msg("Submit: failed to persist submission")
		return nil, fmt.Errorf("persisting submission: %w", err)
	}
	if _, err := s.ensureToken(a.ID, model.TokenScopeStaff); err != nil {
		log.Error().Err(err).Uint("assignmentID", a.ID).Msg("Submit: failed to issue staff token")
	}
	return &dto.SubmitResponse{Status: a.Status, SubmittedAt: a.SubmittedAt}, nil
}

// Release publishes submitted reports and mails every distinct student in
// the batch exactly once, aggregating that student's download links.
func (s *markingService) Release(ids []uint) (*dto.BatchResult, error) {
	assignments, err := s.assignmentRepo.FindByIDs(ids)
	if err != nil {
		return nil, fmt.Errorf("loading assignments for release: %w", err)
	}

	type recipient struct {
		student model.Student
		links   []string
	}
	recipients := make(map[uint]*recipient)

	res := &dto.BatchResult{Requested: len(ids)}
	for _, a := range assignments {
		changed, err := lifecycle.Release(a)
		if err != nil {
			res.Failed++
			res.Errors = append(res.Errors, fmt.Sprintf("assignment %d: %v", a.ID, err))
			continue
		}
		if changed {
			if err := s.assignmentRepo.Update(a); err != nil {
				log.Error().Err(err).Uint("assignmentID", a.ID).Msg("Release: failed to persist status")
				res.Failed++
				res.Errors = append(res.Errors, fmt.Sprintf("assignment %d: %v", a.ID, err))
				continue
			}
			res.Succeeded++
		} else {
			res.Skipped++
		}

		t, err := s.ensureToken(a.ID, model.TokenScopePublic)
		if err != nil {
			log.Error().Err(err).Uint("assignmentID", a.ID).Msg("Release: failed to issue public token")
			res.Errors = append(res.Errors, fmt.Sprintf("assignment %d: token issue failed", a.ID))
			continue
		}
		r, ok := recipients[a.StudentID]
		if !ok {
			r = &recipient{student: a.Student}
			recipients[a.StudentID] = r
		}
		r.links = append(r.links, fmt.Sprintf("%s/reports/%d?token=%s", s.cfg.App.BaseURL, a.ID, t.Secret))
	}

	for _, r := range recipients {
		ok := s.mail.Send(r.student.Email, "Your marking reports are available", mailer.TemplateReportsReleased, map[string]any{
			"StudentName": r.student.FullName(),
			"Links":       r.links,
		})
		if !ok {
			res.Failed++
			res.Errors = append(res.Errors, fmt.Sprintf("email to %s failed", r.student.Email))
		}
	}
	log.Info().Int("succeeded", res.Succeeded).Int("skipped", res.Skipped).Int("failed", res.Failed).Msg("Release batch finished")
	return res, nil
}

// ensureToken returns the existing static token for (assignment, scope) or
// mints one.
func (s *markingService) ensureToken(assignmentID uint, scope string) (*model.AccessToken, error) {
	existing, err := s.tokenRepo.FindByAssignmentAndScope(assignmentID, scope)
	if err == nil {
		return existing, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}
	t := token.NewStaticToken(assignmentID, scope, nil)
	if err := s.tokenRepo.Create(&t); err != nil {
		return nil, err
	}
	return &t, nil
}

// Delete withdraws an assignment. Permitted only before marking has begun,
// to avoid orphaning submitted marking data.
func (s *markingService) Delete(id uint) error {
	a, err := s.assignmentRepo.FindByID(id)
	if err != nil {
		return fmt.Errorf("assignment not found with ID %d: %w", id, err)
	}
	if !lifecycle.Deletable(a) {
		return &lifecycle.TransitionError{Action: "delete", From: a.Status}
	}
	return s.assignmentRepo.Delete(id)
}

// OverrideStatus is the privileged escape hatch: any status, any direction,
// warn-logged by the lifecycle package.
func (s *markingService) OverrideStatus(id uint, status string) error {
	a, err := s.assignmentRepo.FindByID(id)
	if err != nil {
		return fmt.Errorf("assignment not found with ID %d: %w", id, err)
	}
	if err := lifecycle.AdminSetStatus(a, status); err != nil {
		return err
	}
	return s.assignmentRepo.Update(a)
}

func toAssignmentResponse(a *model.Assignment) *dto.AssignmentResponse {
	var resp dto.AssignmentResponse
	if err := copier.Copy(&resp, a); err != nil {
		log.Error().Err(err).Uint("assignmentID", a.ID).Msg("toAssignmentResponse: copy failed")
	}
	resp.StudentName = a.Student.FullName()
	resp.Presentation = a.Presentation.Title
	resp.Year = a.Presentation.Year
	resp.MarkerName = a.Marker.FullName()
	resp.StatusDisplay = lifecycle.Display(a.Status)
	return &resp
}
