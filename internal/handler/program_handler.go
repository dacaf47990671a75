package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sistema-ministerial-api/internal/dto"
	"github.com/noah-isme/sistema-ministerial-api/internal/middleware"
	"github.com/noah-isme/sistema-ministerial-api/internal/models"
	"github.com/noah-isme/sistema-ministerial-api/internal/rules"
	appErrors "github.com/noah-isme/sistema-ministerial-api/pkg/errors"
	"github.com/noah-isme/sistema-ministerial-api/pkg/response"
)

type programService interface {
	Parts(ctx context.Context, congregationID string, week models.Week) ([]models.MeetingPart, error)
	Create(ctx context.Context, congregationID string, week models.Week, req dto.CreateProgramRequest) ([]models.MeetingPart, error)
	CreateFromTemplate(ctx context.Context, congregationID string, week models.Week) ([]models.MeetingPart, error)
	Publish(ctx context.Context, congregationID string, week models.Week) ([]models.MeetingPart, error)
	Delete(ctx context.Context, congregationID string, week models.Week) error
}

// ProgramHandler exposes weekly meeting program endpoints.
type ProgramHandler struct {
	programs programService
}

// NewProgramHandler constructs ProgramHandler.
func NewProgramHandler(programs programService) *ProgramHandler {
	return &ProgramHandler{programs: programs}
}

// Catalog godoc
// @Summary List the part type catalog
// @Tags Programs
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /catalog/parts [get]
func (h *ProgramHandler) Catalog(c *gin.Context) {
	response.JSON(c, http.StatusOK, rules.Catalog(), nil, middleware.ExtractMeta(c))
}

// Parts godoc
// @Summary List the parts of a week
// @Tags Programs
// @Produce json
// @Param week path string true "Week (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /weeks/{week}/program [get]
func (h *ProgramHandler) Parts(c *gin.Context) {
	claims, week, ok := weekScope(c)
	if !ok {
		return
	}
	parts, err := h.programs.Parts(c.Request.Context(), claims.CongregationID, week)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetMeta(c, "week", week.String())
	response.JSON(c, http.StatusOK, parts, nil, middleware.ExtractMeta(c))
}

// Create godoc
// @Summary Create a week program from explicit parts
// @Tags Programs
// @Accept json
// @Produce json
// @Param week path string true "Week (YYYY-MM-DD)"
// @Param payload body dto.CreateProgramRequest true "Program parts"
// @Success 201 {object} response.Envelope
// @Router /weeks/{week}/program [post]
func (h *ProgramHandler) Create(c *gin.Context) {
	claims, week, ok := weekScope(c)
	if !ok {
		return
	}
	var req dto.CreateProgramRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	parts, err := h.programs.Create(c.Request.Context(), claims.CongregationID, week, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, parts)
}

// CreateFromTemplate godoc
// @Summary Create a week program from the configured template
// @Tags Programs
// @Produce json
// @Param week path string true "Week (YYYY-MM-DD)"
// @Success 201 {object} response.Envelope
// @Router /weeks/{week}/program/template [post]
func (h *ProgramHandler) CreateFromTemplate(c *gin.Context) {
	claims, week, ok := weekScope(c)
	if !ok {
		return
	}
	parts, err := h.programs.CreateFromTemplate(c.Request.Context(), claims.CongregationID, week)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, parts)
}

// Publish godoc
// @Summary Publish a week program
// @Tags Programs
// @Produce json
// @Param week path string true "Week (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /weeks/{week}/program/publish [post]
func (h *ProgramHandler) Publish(c *gin.Context) {
	claims, week, ok := weekScope(c)
	if !ok {
		return
	}
	parts, err := h.programs.Publish(c.Request.Context(), claims.CongregationID, week)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, parts, nil)
}

// Delete godoc
// @Summary Delete an unpublished week program
// @Tags Programs
// @Param week path string true "Week (YYYY-MM-DD)"
// @Success 204
// @Router /weeks/{week}/program [delete]
func (h *ProgramHandler) Delete(c *gin.Context) {
	claims, week, ok := weekScope(c)
	if !ok {
		return
	}
	if err := h.programs.Delete(c.Request.Context(), claims.CongregationID, week); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
