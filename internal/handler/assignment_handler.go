package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sistema-ministerial-api/internal/dto"
	"github.com/noah-isme/sistema-ministerial-api/internal/middleware"
	"github.com/noah-isme/sistema-ministerial-api/internal/models"
	appErrors "github.com/noah-isme/sistema-ministerial-api/pkg/errors"
	"github.com/noah-isme/sistema-ministerial-api/pkg/response"
)

type assignmentService interface {
	Generate(ctx context.Context, congregationID string, req dto.GenerateAssignmentsRequest) (*dto.GenerateAssignmentsResponse, error)
	ListWeek(ctx context.Context, congregationID string, week models.Week) ([]dto.AssignmentView, error)
	Eligible(ctx context.Context, congregationID string, week models.Week, partID string) ([]dto.EligibleCandidate, error)
	Confirm(ctx context.Context, congregationID, id string) (*models.Assignment, error)
	Reassign(ctx context.Context, congregationID, id string, req dto.ReassignRequest) (*models.Assignment, error)
	UpdateStatus(ctx context.Context, congregationID, id string, req dto.UpdateAssignmentStatusRequest) (*models.Assignment, error)
}

// AssignmentHandler exposes generation and review endpoints.
type AssignmentHandler struct {
	assignments assignmentService
}

// NewAssignmentHandler constructs AssignmentHandler.
func NewAssignmentHandler(assignments assignmentService) *AssignmentHandler {
	return &AssignmentHandler{assignments: assignments}
}

// Generate godoc
// @Summary Generate the designations of a week
// @Description Fills every open part of the week. Parts no student can take are listed in unfillable.
// @Tags Assignments
// @Accept json
// @Produce json
// @Param payload body dto.GenerateAssignmentsRequest true "Generation request"
// @Success 200 {object} response.Envelope
// @Failure 423 {object} response.Envelope
// @Router /generate-assignments [post]
func (h *AssignmentHandler) Generate(c *gin.Context) {
	claims, err := congregationFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.GenerateAssignmentsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.assignments.Generate(c.Request.Context(), claims.CongregationID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetMeta(c, "week", result.Week)
	middleware.SetMeta(c, "written", result.Statistics.Written)
	response.JSON(c, http.StatusOK, result, nil, middleware.ExtractMeta(c))
}

// ListWeek godoc
// @Summary List the designations of a week
// @Tags Assignments
// @Produce json
// @Param week path string true "Week (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /weeks/{week}/assignments [get]
func (h *AssignmentHandler) ListWeek(c *gin.Context) {
	claims, week, ok := weekScope(c)
	if !ok {
		return
	}
	views, err := h.assignments.ListWeek(c.Request.Context(), claims.CongregationID, week)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetMeta(c, "week", week.String())
	response.JSON(c, http.StatusOK, views, nil, middleware.ExtractMeta(c))
}

// Eligible godoc
// @Summary Preview the students eligible for a part
// @Tags Assignments
// @Produce json
// @Param week path string true "Week (YYYY-MM-DD)"
// @Param partId path string true "Part ID"
// @Success 200 {object} response.Envelope
// @Router /weeks/{week}/parts/{partId}/eligible [get]
func (h *AssignmentHandler) Eligible(c *gin.Context) {
	claims, week, ok := weekScope(c)
	if !ok {
		return
	}
	candidates, err := h.assignments.Eligible(c.Request.Context(), claims.CongregationID, week, c.Param("partId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, candidates, nil)
}

// Confirm godoc
// @Summary Confirm a designation
// @Tags Assignments
// @Produce json
// @Param id path string true "Assignment ID"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /assignments/{id}/confirm [post]
func (h *AssignmentHandler) Confirm(c *gin.Context) {
	claims, err := congregationFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	assignment, err := h.assignments.Confirm(c.Request.Context(), claims.CongregationID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, assignment, nil)
}

// Reassign godoc
// @Summary Manually reassign a designation
// @Tags Assignments
// @Accept json
// @Produce json
// @Param id path string true "Assignment ID"
// @Param payload body dto.ReassignRequest true "Reassignment"
// @Success 200 {object} response.Envelope
// @Router /assignments/{id}/reassign [post]
func (h *AssignmentHandler) Reassign(c *gin.Context) {
	claims, err := congregationFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.ReassignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	assignment, err := h.assignments.Reassign(c.Request.Context(), claims.CongregationID, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, assignment, nil)
}

// UpdateStatus godoc
// @Summary Mark a designation as done or cancelled
// @Tags Assignments
// @Accept json
// @Produce json
// @Param id path string true "Assignment ID"
// @Param payload body dto.UpdateAssignmentStatusRequest true "Status"
// @Success 200 {object} response.Envelope
// @Router /assignments/{id}/status [post]
func (h *AssignmentHandler) UpdateStatus(c *gin.Context) {
	claims, err := congregationFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.UpdateAssignmentStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	assignment, err := h.assignments.UpdateStatus(c.Request.Context(), claims.CongregationID, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, assignment, nil)
}
