package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sistema-ministerial-api/internal/dto"
	"github.com/noah-isme/sistema-ministerial-api/internal/models"
	appErrors "github.com/noah-isme/sistema-ministerial-api/pkg/errors"
	"github.com/noah-isme/sistema-ministerial-api/pkg/response"
)

type familyService interface {
	List(ctx context.Context, congregationID string) ([]models.FamilyGroupDetail, error)
	Create(ctx context.Context, congregationID string, req dto.CreateFamilyRequest) (*models.FamilyGroupDetail, error)
	ReplaceMembers(ctx context.Context, congregationID, groupID string, req dto.ReplaceFamilyMembersRequest) (*models.FamilyGroupDetail, error)
	Delete(ctx context.Context, congregationID, id string) error
}

// FamilyHandler manages family group endpoints.
type FamilyHandler struct {
	families familyService
}

// NewFamilyHandler constructs FamilyHandler.
func NewFamilyHandler(families familyService) *FamilyHandler {
	return &FamilyHandler{families: families}
}

// List godoc
// @Summary List family groups with members
// @Tags Families
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /families [get]
func (h *FamilyHandler) List(c *gin.Context) {
	claims, err := congregationFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	groups, err := h.families.List(c.Request.Context(), claims.CongregationID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, groups, nil)
}

// Create godoc
// @Summary Create family group
// @Tags Families
// @Accept json
// @Produce json
// @Param payload body dto.CreateFamilyRequest true "Family payload"
// @Success 201 {object} response.Envelope
// @Router /families [post]
func (h *FamilyHandler) Create(c *gin.Context) {
	claims, err := congregationFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.CreateFamilyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	group, err := h.families.Create(c.Request.Context(), claims.CongregationID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, group)
}

// ReplaceMembers godoc
// @Summary Replace family members
// @Tags Families
// @Accept json
// @Produce json
// @Param id path string true "Family group ID"
// @Param payload body dto.ReplaceFamilyMembersRequest true "Members"
// @Success 200 {object} response.Envelope
// @Router /families/{id}/members [put]
func (h *FamilyHandler) ReplaceMembers(c *gin.Context) {
	claims, err := congregationFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.ReplaceFamilyMembersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	group, err := h.families.ReplaceMembers(c.Request.Context(), claims.CongregationID, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, group, nil)
}

// Delete godoc
// @Summary Delete family group
// @Tags Families
// @Param id path string true "Family group ID"
// @Success 204
// @Router /families/{id} [delete]
func (h *FamilyHandler) Delete(c *gin.Context) {
	claims, err := congregationFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.families.Delete(c.Request.Context(), claims.CongregationID, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
