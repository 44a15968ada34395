package marker

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/coursemark/coursemark/config"
	"github.com/coursemark/coursemark/internal/dto"
	"github.com/coursemark/coursemark/internal/form"
	"github.com/coursemark/coursemark/internal/lifecycle"
	"github.com/coursemark/coursemark/internal/service"
	"github.com/coursemark/coursemark/internal/token"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// MarkerController is the marker- and student-facing surface: the marking
// form behind a magic link, and report downloads behind the access gate.
type MarkerController struct {
	markingSvc service.MarkingService
	reportSvc  service.ReportService
	cfg        *config.Config
}

func NewMarkerController(markingSvc service.MarkingService, reportSvc service.ReportService, cfg *config.Config) *MarkerController {
	return &MarkerController{markingSvc: markingSvc, reportSvc: reportSvc, cfg: cfg}
}

// credentials assembles whatever the request presented. The admin flag is
// set by the surrounding session middleware, which is outside this core.
func (c *MarkerController) credentials(ctx *gin.Context) token.Credentials {
	creds := token.Credentials{
		AdminSession: ctx.GetBool("is_admin"),
		Token:        ctx.Query("token"),
	}
	if link := ctx.Query("link"); link != "" {
		session, err := token.ParseMagicLink([]byte(c.cfg.App.TokenSecret), link)
		if err != nil {
			log.Warn().Err(err).Msg("credentials: magic link rejected")
		} else {
			creds.MarkerSession = session
		}
	}
	return creds
}

// markerOwns verifies a live marker session for the assignment's marker.
func (c *MarkerController) markerOwns(ctx *gin.Context, markerID uint) bool {
	creds := c.credentials(ctx)
	if creds.AdminSession {
		return true
	}
	s := creds.MarkerSession
	if s == nil {
		ctx.JSON(http.StatusForbidden, dto.ErrorResponse{Error: token.ReasonNoToken})
		return false
	}
	if !s.Live {
		ctx.JSON(http.StatusForbidden, dto.ErrorResponse{Error: token.ReasonExpired})
		return false
	}
	if s.MarkerID != markerID {
		ctx.JSON(http.StatusForbidden, dto.ErrorResponse{Error: token.ReasonMismatch})
		return false
	}
	return true
}

// ListAssignments godoc
// @Summary (Marker) List the caller's marking queue
// @Description Requires a live magic link; returns the marker's assignments ordered by due date.
// @Tags Marker
// @Produce json
// @Param link query string true "Magic link token"
// @Success 200 {array} dto.AssignmentResponse
// @Failure 403 {object} dto.ErrorResponse "No or expired link"
// @Router /marking [get]
func (c *MarkerController) ListAssignments(ctx *gin.Context) {
	creds := c.credentials(ctx)
	s := creds.MarkerSession
	if s == nil {
		ctx.JSON(http.StatusForbidden, dto.ErrorResponse{Error: token.ReasonNoToken})
		return
	}
	if !s.Live {
		ctx.JSON(http.StatusForbidden, dto.ErrorResponse{Error: token.ReasonExpired})
		return
	}
	resp, err := c.markingSvc.AssignmentsForMarker(s.MarkerID)
	if err != nil {
		log.Error().Err(err).Uint("markerID", s.MarkerID).Msg("ListAssignments: service error")
		ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// GetForm godoc
// @Summary (Marker) Fetch the marking form for an assignment
// @Description Renders the form from the role's schema, prefilled with any saved draft. Read-only once submitted.
// @Tags Marker
// @Produce json
// @Param id path int true "Assignment ID"
// @Param link query string true "Magic link token"
// @Success 200 {object} form.RenderedForm
// @Failure 403 {object} dto.ErrorResponse "No, expired or mismatched link"
// @Failure 404 {object} dto.ErrorResponse "Assignment not found"
// @Router /marking/{id} [get]
func (c *MarkerController) GetForm(ctx *gin.Context) {
	id, ok := pathID(ctx)
	if !ok {
		return
	}
	a, err := c.markingSvc.GetAssignment(id)
	if err != nil {
		ctx.JSON(http.StatusNotFound, dto.ErrorResponse{Error: err.Error()})
		return
	}
	if !c.markerOwns(ctx, a.MarkerID) {
		return
	}

	mode := form.ModeEditable
	if a.Status == lifecycle.StatusSubmitted || a.Status == lifecycle.StatusReleased {
		mode = form.ModeReadOnly
	}
	rendered, err := c.markingSvc.BuildForm(id, mode)
	if err != nil {
		log.Error().Err(err).Uint("assignmentID", id).Msg("GetForm: render failed")
		ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, rendered)
}

// SaveDraft godoc
// @Summary (Marker) Save a marking draft
// @Description Replaces the stored answer set wholesale. No completeness check: drafts may be arbitrarily incomplete.
// @Tags Marker
// @Accept json
// @Param id path int true "Assignment ID"
// @Param link query string true "Magic link token"
// @Param answers body dto.AnswersRequest true "Full answer set"
// @Success 204 "No Content"
// @Failure 403 {object} dto.ErrorResponse "No, expired or mismatched link"
// @Failure 409 {object} dto.ErrorResponse "Assignment not in an editable state"
// @Router /marking/{id}/draft [put]
func (c *MarkerController) SaveDraft(ctx *gin.Context) {
	id, req, ok := c.boundAnswers(ctx)
	if !ok {
		return
	}
	if err := c.markingSvc.SaveDraft(id, req.Answers); err != nil {
		status := http.StatusInternalServerError
		if _, isTransition := err.(*lifecycle.TransitionError); isTransition {
			status = http.StatusConflict
		}
		ctx.JSON(status, dto.ErrorResponse{Error: err.Error()})
		return
	}
	ctx.Status(http.StatusNoContent)
}

// Submit godoc
// @Summary (Marker) Submit the completed marking form
// @Description Final submission: required fields are enforced and the submission time and address are stamped.
// @Tags Marker
// @Accept json
// @Produce json
// @Param id path int true "Assignment ID"
// @Param link query string true "Magic link token"
// @Param answers body dto.AnswersRequest true "Full answer set"
// @Success 200 {object} dto.SubmitResponse
// @Failure 403 {object} dto.ErrorResponse "No, expired or mismatched link"
// @Failure 409 {object} dto.ErrorResponse "Assignment not in a submittable state"
// @Failure 422 {object} dto.SubmitResponse "Required fields missing; field errors returned"
// @Router /marking/{id}/submit [post]
func (c *MarkerController) Submit(ctx *gin.Context) {
	id, req, ok := c.boundAnswers(ctx)
	if !ok {
		return
	}
	resp, err := c.markingSvc.Submit(id, req.Answers, ctx.ClientIP())
	if err != nil {
		status := http.StatusInternalServerError
		if _, isTransition := err.(*lifecycle.TransitionError); isTransition {
			status = http.StatusConflict
		}
		ctx.JSON(status, dto.ErrorResponse{Error: err.Error()})
		return
	}
	if len(resp.Errors) > 0 {
		ctx.JSON(http.StatusUnprocessableEntity, resp)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// boundAnswers is the shared front half of the draft and submit handlers:
// path id, ownership check, body bind.
func (c *MarkerController) boundAnswers(ctx *gin.Context) (uint, *dto.AnswersRequest, bool) {
	id, ok := pathID(ctx)
	if !ok {
		return 0, nil, false
	}
	a, err := c.markingSvc.GetAssignment(id)
	if err != nil {
		ctx.JSON(http.StatusNotFound, dto.ErrorResponse{Error: err.Error()})
		return 0, nil, false
	}
	if !c.markerOwns(ctx, a.MarkerID) {
		return 0, nil, false
	}
	var req dto.AnswersRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		log.Warn().Err(err).Msg("boundAnswers: failed to bind answer set")
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return 0, nil, false
	}
	return id, &req, true
}

// GetReport godoc
// @Summary Download an assignment's marking report
// @Description The access gate decides between the confidential and the redacted copy, or denies with a specific reason.
// @Tags Reports
// @Produce application/pdf
// @Param id path int true "Assignment ID"
// @Param token query string false "Static access token"
// @Param link query string false "Marker magic link"
// @Success 200 {file} binary
// @Failure 403 {object} dto.ErrorResponse "no token / expired / token mismatch / not yet available"
// @Failure 404 {object} dto.ErrorResponse "Assignment not found"
// @Router /reports/{id} [get]
func (c *MarkerController) GetReport(ctx *gin.Context) {
	id, ok := pathID(ctx)
	if !ok {
		return
	}
	a, outcome, err := c.reportSvc.Authorize(id, c.credentials(ctx))
	if err != nil {
		ctx.JSON(http.StatusNotFound, dto.ErrorResponse{Error: err.Error()})
		return
	}
	if !outcome.Granted {
		log.Info().Uint("assignmentID", id).Str("reason", outcome.Reason).Msg("GetReport: access denied")
		ctx.JSON(http.StatusForbidden, dto.ErrorResponse{Error: outcome.Reason})
		return
	}

	content, name, err := c.reportSvc.Render(a.ID, outcome.Level == token.AccessConfidential)
	if err != nil {
		log.Error().Err(err).Uint("assignmentID", id).Msg("GetReport: render failed")
		ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: err.Error()})
		return
	}
	ctx.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	ctx.Data(http.StatusOK, "application/pdf", content)
}

func pathID(ctx *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 32)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid assignment ID format"})
		return 0, false
	}
	return uint(id), true
}
