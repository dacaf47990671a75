package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sistema-ministerial-api/internal/dto"
	"github.com/noah-isme/sistema-ministerial-api/internal/models"
	appErrors "github.com/noah-isme/sistema-ministerial-api/pkg/errors"
)

type fakeAssignmentSrv struct {
	generated    *dto.GenerateAssignmentsResponse
	assignment   *models.Assignment
	candidates   []dto.EligibleCandidate
	err          error
	lastGenerate dto.GenerateAssignmentsRequest
	lastPartID   string
	lastReassign dto.ReassignRequest
	lastStatus   dto.UpdateAssignmentStatusRequest
}

func (f *fakeAssignmentSrv) Generate(_ context.Context, _ string, req dto.GenerateAssignmentsRequest) (*dto.GenerateAssignmentsResponse, error) {
	f.lastGenerate = req
	return f.generated, f.err
}

func (f *fakeAssignmentSrv) ListWeek(context.Context, string, models.Week) ([]dto.AssignmentView, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []dto.AssignmentView{{Assignment: *f.assignment, PartTitle: "Discurso", PartOrdinal: 1}}, nil
}

func (f *fakeAssignmentSrv) Eligible(_ context.Context, _ string, _ models.Week, partID string) ([]dto.EligibleCandidate, error) {
	f.lastPartID = partID
	return f.candidates, f.err
}

func (f *fakeAssignmentSrv) Confirm(context.Context, string, string) (*models.Assignment, error) {
	return f.assignment, f.err
}

func (f *fakeAssignmentSrv) Reassign(_ context.Context, _, _ string, req dto.ReassignRequest) (*models.Assignment, error) {
	f.lastReassign = req
	return f.assignment, f.err
}

func (f *fakeAssignmentSrv) UpdateStatus(_ context.Context, _, _ string, req dto.UpdateAssignmentStatusRequest) (*models.Assignment, error) {
	f.lastStatus = req
	return f.assignment, f.err
}

func TestAssignmentHandlerGenerate(t *testing.T) {
	srv := &fakeAssignmentSrv{generated: &dto.GenerateAssignmentsResponse{
		Week:             "2024-03-04",
		Unfillable:       []string{"part-cbs"},
		AssistantPending: []string{},
		Statistics:       dto.GenerationStatistics{TotalParts: 2, Filled: 1, Unfillable: 1},
	}}
	handler := NewAssignmentHandler(srv)

	body := `{"week":"2024-03-04","regenerate":true,"allowDoubleBooking":false}`
	c, rec := newContext(http.MethodPost, "/generate-assignments", body, instructorClaims())
	handler.Generate(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, srv.lastGenerate.Regenerate)
	require.NotNil(t, srv.lastGenerate.AllowDoubleBooking)
	assert.False(t, *srv.lastGenerate.AllowDoubleBooking)

	var payload dto.GenerateAssignmentsResponse
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &payload))
	assert.Equal(t, []string{"part-cbs"}, payload.Unfillable)
	assert.Equal(t, 1, payload.Statistics.Unfillable)
}

func TestAssignmentHandlerGenerateLocked(t *testing.T) {
	handler := NewAssignmentHandler(&fakeAssignmentSrv{err: appErrors.Clone(appErrors.ErrLocked, "generation already running for this week")})

	c, rec := newContext(http.MethodPost, "/generate-assignments", `{"week":"2024-03-04"}`, instructorClaims())
	handler.Generate(c)

	assert.Equal(t, http.StatusLocked, rec.Code)
	envelope := decodeEnvelope(t, rec)
	require.NotNil(t, envelope.Error)
	assert.Equal(t, "LOCKED", envelope.Error.Code)
}

func TestAssignmentHandlerListWeek(t *testing.T) {
	primary := "s-1"
	srv := &fakeAssignmentSrv{assignment: &models.Assignment{ID: "a-1", PartID: "p-1", PrimaryStudentID: &primary, State: models.PartStateFilled}}
	handler := NewAssignmentHandler(srv)

	c, rec := newContext(http.MethodGet, "/weeks/2024-03-04/assignments", "", instructorClaims(), weekParamOf("2024-03-04"))
	handler.ListWeek(c)

	require.Equal(t, http.StatusOK, rec.Code)
	var views []map[string]interface{}
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &views))
	require.Len(t, views, 1)
	assert.Equal(t, "FILLED", views[0]["state"])
	assert.Equal(t, "Discurso", views[0]["partTitle"])
}

func TestAssignmentHandlerEligible(t *testing.T) {
	srv := &fakeAssignmentSrv{candidates: []dto.EligibleCandidate{{StudentID: "s-1", FullName: "Antonio"}}}
	handler := NewAssignmentHandler(srv)

	c, rec := newContext(http.MethodGet, "/weeks/2024-03-04/parts/p-1/eligible", "", instructorClaims(),
		weekParamOf("2024-03-04"), gin.Param{Key: "partId", Value: "p-1"})
	handler.Eligible(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "p-1", srv.lastPartID)
}

func TestAssignmentHandlerConfirmConflict(t *testing.T) {
	handler := NewAssignmentHandler(&fakeAssignmentSrv{err: appErrors.Clone(appErrors.ErrConflict, "cannot move from PENDING to CONFIRMED")})

	c, rec := newContext(http.MethodPost, "/assignments/a-1/confirm", "", instructorClaims(), gin.Param{Key: "id", Value: "a-1"})
	handler.Confirm(c)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestAssignmentHandlerReassign(t *testing.T) {
	srv := &fakeAssignmentSrv{assignment: &models.Assignment{ID: "a-1", State: models.PartStateReassigned}}
	handler := NewAssignmentHandler(srv)

	body := `{"primaryStudentId":"00000000-0000-4000-8000-000000000001","notes":"troca"}`
	c, rec := newContext(http.MethodPost, "/assignments/a-1/reassign", body, instructorClaims(), gin.Param{Key: "id", Value: "a-1"})
	handler.Reassign(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "00000000-0000-4000-8000-000000000001", srv.lastReassign.PrimaryStudentID)
	assert.Nil(t, srv.lastReassign.AssistantStudentID)
}

func TestAssignmentHandlerUpdateStatusBadPayload(t *testing.T) {
	srv := &fakeAssignmentSrv{}
	handler := NewAssignmentHandler(srv)

	c, rec := newContext(http.MethodPost, "/assignments/a-1/status", `{"status":`, instructorClaims(), gin.Param{Key: "id", Value: "a-1"})
	handler.UpdateStatus(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, srv.lastStatus.Status)
}
