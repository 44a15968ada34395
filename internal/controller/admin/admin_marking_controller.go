package admin

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/coursemark/coursemark/internal/dto"
	"github.com/coursemark/coursemark/internal/lifecycle"
	"github.com/coursemark/coursemark/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// AdminMarkingController exposes the privileged workflow operations. It
// assumes an upstream session middleware has already established the caller
// as an administrator; session handling itself is outside this service.
type AdminMarkingController struct {
	markingSvc service.MarkingService
	reportSvc  service.ReportService
	exportSvc  service.ExportService
	schemaSvc  service.SchemaService
}

func NewAdminMarkingController(
	markingSvc service.MarkingService,
	reportSvc service.ReportService,
	exportSvc service.ExportService,
	schemaSvc service.SchemaService,
) *AdminMarkingController {
	return &AdminMarkingController{
		markingSvc: markingSvc,
		reportSvc:  reportSvc,
		exportSvc:  exportSvc,
		schemaSvc:  schemaSvc,
	}
}

// ScheduleMarking godoc
// @Summary (Admin) Schedule a marking assignment
// @Description Creates one assignment pairing a marker with a student presentation under a marking role.
// @Tags Admin - Marking
// @Accept json
// @Produce json
// @Param assignment body dto.ScheduleMarkingRequest true "Assignment to schedule"
// @Success 201 {object} dto.AssignmentResponse
// @Failure 400 {object} dto.ErrorResponse "Invalid request body or role without a form definition"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /admin/assignments [post]
func (c *AdminMarkingController) ScheduleMarking(ctx *gin.Context) {
	var req dto.ScheduleMarkingRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		log.Warn().Err(err).Msg("ScheduleMarking: failed to bind request")
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}
	resp, err := c.markingSvc.ScheduleMarking(req)
	if err != nil {
		log.Error().Err(err).Msg("ScheduleMarking: service error")
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}
	ctx.JSON(http.StatusCreated, resp)
}

// GetAssignment godoc
// @Summary (Admin) Get an assignment
// @Tags Admin - Marking
// @Produce json
// @Param id path int true "Assignment ID"
// @Success 200 {object} dto.AssignmentResponse
// @Failure 404 {object} dto.ErrorResponse "Assignment not found"
// @Router /admin/assignments/{id} [get]
func (c *AdminMarkingController) GetAssignment(ctx *gin.Context) {
	id, ok := pathID(ctx)
	if !ok {
		return
	}
	resp, err := c.markingSvc.GetAssignment(id)
	if err != nil {
		ctx.JSON(http.StatusNotFound, dto.ErrorResponse{Error: err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// DeleteAssignment godoc
// @Summary (Admin) Withdraw an assignment
// @Description Deletes an assignment. Only permitted before marking work has started.
// @Tags Admin - Marking
// @Param id path int true "Assignment ID"
// @Success 204 "No Content"
// @Failure 409 {object} dto.ErrorResponse "Assignment already has marking work"
// @Router /admin/assignments/{id} [delete]
func (c *AdminMarkingController) DeleteAssignment(ctx *gin.Context) {
	id, ok := pathID(ctx)
	if !ok {
		return
	}
	if err := c.markingSvc.Delete(id); err != nil {
		var terr *lifecycle.TransitionError
		if errors.As(err, &terr) {
			ctx.JSON(http.StatusConflict, dto.ErrorResponse{Error: err.Error()})
			return
		}
		ctx.JSON(http.StatusNotFound, dto.ErrorResponse{Error: err.Error()})
		return
	}
	ctx.Status(http.StatusNoContent)
}

// OverrideStatus godoc
// @Summary (Admin) Override an assignment's lifecycle status
// @Description Sets any status directly, bypassing normal transition gating. Logged as a deliberate exception.
// @Tags Admin - Marking
// @Accept json
// @Param id path int true "Assignment ID"
// @Param status body dto.OverrideStatusRequest true "Target status"
// @Success 204 "No Content"
// @Failure 400 {object} dto.ErrorResponse "Unknown status"
// @Router /admin/assignments/{id}/status [put]
func (c *AdminMarkingController) OverrideStatus(ctx *gin.Context) {
	id, ok := pathID(ctx)
	if !ok {
		return
	}
	var req dto.OverrideStatusRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}
	if err := c.markingSvc.OverrideStatus(id, req.Status); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}
	ctx.Status(http.StatusNoContent)
}

// Distribute godoc
// @Summary (Admin) Distribute assignments to their markers
// @Description Batch action; already-distributed assignments are skipped, failures are tallied and the batch continues.
// @Tags Admin - Marking
// @Accept json
// @Produce json
// @Param batch body dto.BatchRequest true "Assignment IDs"
// @Success 200 {object} dto.BatchResult
// @Failure 400 {object} dto.ErrorResponse "Invalid request body"
// @Router /admin/assignments/distribute [post]
func (c *AdminMarkingController) Distribute(ctx *gin.Context) {
	c.batch(ctx, c.markingSvc.Distribute)
}

// Release godoc
// @Summary (Admin) Release submitted reports to students
// @Description Batch action; emails each distinct student one message aggregating their download links.
// @Tags Admin - Marking
// @Accept json
// @Produce json
// @Param batch body dto.BatchRequest true "Assignment IDs"
// @Success 200 {object} dto.BatchResult
// @Failure 400 {object} dto.ErrorResponse "Invalid request body"
// @Router /admin/assignments/release [post]
func (c *AdminMarkingController) Release(ctx *gin.Context) {
	c.batch(ctx, c.markingSvc.Release)
}

func (c *AdminMarkingController) batch(ctx *gin.Context, action func([]uint) (*dto.BatchResult, error)) {
	var req dto.BatchRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}
	res, err := action(req.IDs)
	if err != nil {
		log.Error().Err(err).Msg("Batch action failed")
		ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, res)
}

// ZipReports godoc
// @Summary (Admin) Download a zip of confidential reports
// @Tags Admin - Reports
// @Accept json
// @Produce application/zip
// @Param batch body dto.BatchRequest true "Assignment IDs"
// @Success 200 {file} binary
// @Failure 400 {object} dto.ErrorResponse "Invalid request body"
// @Router /admin/reports/zip [post]
func (c *AdminMarkingController) ZipReports(ctx *gin.Context) {
	var req dto.BatchRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}
	content, name, res, err := c.reportSvc.Zip(req.IDs)
	if err != nil {
		log.Error().Err(err).Msg("ZipReports: service error")
		ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: err.Error()})
		return
	}
	if res.Failed > 0 {
		log.Warn().Int("failed", res.Failed).Msg("ZipReports: some reports failed to render")
	}
	ctx.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	ctx.Data(http.StatusOK, "application/zip", content)
}

// GradeExport godoc
// @Summary (Admin) Export grades for a batch of assignments
// @Description Produces the wide per-student grade table. Format query selects csv (default) or xlsx.
// @Tags Admin - Reports
// @Accept json
// @Param format query string false "csv or xlsx"
// @Param batch body dto.BatchRequest true "Assignment IDs"
// @Success 200 {file} binary
// @Failure 400 {object} dto.ErrorResponse "Invalid request or export field mismatch"
// @Router /admin/reports/grades [post]
func (c *AdminMarkingController) GradeExport(ctx *gin.Context) {
	var req dto.BatchRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}
	table, err := c.exportSvc.GradeExport(req.IDs)
	if err != nil {
		log.Error().Err(err).Msg("GradeExport: service error")
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}

	if ctx.DefaultQuery("format", "csv") == "xlsx" {
		content, err := table.WriteXLSX()
		if err != nil {
			ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: err.Error()})
			return
		}
		ctx.Header("Content-Disposition", `attachment; filename="grades.xlsx"`)
		ctx.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", content)
		return
	}
	content, err := table.Bytes()
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: err.Error()})
		return
	}
	ctx.Header("Content-Disposition", `attachment; filename="grades.csv"`)
	ctx.Data(http.StatusOK, "text/csv", content)
}

// ListForms godoc
// @Summary (Admin) List stored form definitions
// @Tags Admin - Forms
// @Produce json
// @Success 200 {array} model.FormDefinition
// @Router /admin/forms [get]
func (c *AdminMarkingController) ListForms(ctx *gin.Context) {
	defs, err := c.schemaSvc.ListDefinitions()
	if err != nil {
		log.Error().Err(err).Msg("ListForms: service error")
		ctx.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, defs)
}

// UpsertForm godoc
// @Summary (Admin) Store a role's form definition
// @Description Validates the definition in full and replaces any previous version for the role.
// @Tags Admin - Forms
// @Accept json
// @Param role path string true "Marking role"
// @Param definition body dto.FormDefinitionRequest true "Form definition"
// @Success 204 "No Content"
// @Failure 400 {object} dto.ErrorResponse "Definition failed validation"
// @Router /admin/forms/{role} [put]
func (c *AdminMarkingController) UpsertForm(ctx *gin.Context) {
	var req dto.FormDefinitionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}
	if err := c.schemaSvc.SaveDefinition(ctx.Param("role"), req.Definition, req.CriteriaURL); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}
	ctx.Status(http.StatusNoContent)
}

// PreviewForm godoc
// @Summary (Admin) Preview a role's marking form
// @Tags Admin - Forms
// @Produce json
// @Param role path string true "Marking role"
// @Success 200 {object} form.RenderedForm
// @Failure 400 {object} dto.ErrorResponse "Role has no valid form definition"
// @Router /admin/forms/{role}/preview [get]
func (c *AdminMarkingController) PreviewForm(ctx *gin.Context) {
	rendered, err := c.markingSvc.PreviewForm(ctx.Param("role"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, rendered)
}

func pathID(ctx *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 32)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid assignment ID format"})
		return 0, false
	}
	return uint(id), true
}
