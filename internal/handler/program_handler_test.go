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

type fakeProgramSrv struct {
	parts    []models.MeetingPart
	err      error
	lastWeek models.Week
	lastReq  dto.CreateProgramRequest
	deleted  bool
}

func (f *fakeProgramSrv) Parts(_ context.Context, _ string, week models.Week) ([]models.MeetingPart, error) {
	f.lastWeek = week
	return f.parts, f.err
}

func (f *fakeProgramSrv) Create(_ context.Context, _ string, week models.Week, req dto.CreateProgramRequest) ([]models.MeetingPart, error) {
	f.lastWeek = week
	f.lastReq = req
	return f.parts, f.err
}

func (f *fakeProgramSrv) CreateFromTemplate(_ context.Context, _ string, week models.Week) ([]models.MeetingPart, error) {
	f.lastWeek = week
	return f.parts, f.err
}

func (f *fakeProgramSrv) Publish(context.Context, string, models.Week) ([]models.MeetingPart, error) {
	return f.parts, f.err
}

func (f *fakeProgramSrv) Delete(context.Context, string, models.Week) error {
	f.deleted = true
	return f.err
}

func weekParamOf(value string) gin.Param {
	return gin.Param{Key: "week", Value: value}
}

func TestProgramHandlerCatalog(t *testing.T) {
	handler := NewProgramHandler(&fakeProgramSrv{})

	c, rec := newContext(http.MethodGet, "/catalog/parts", "", instructorClaims())
	handler.Catalog(c)

	require.Equal(t, http.StatusOK, rec.Code)
	var specs []map[string]interface{}
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &specs))
	require.Len(t, specs, len(models.PartTypes))
	assert.Equal(t, "talk", specs[0]["type"])
}

func TestProgramHandlerParts(t *testing.T) {
	srv := &fakeProgramSrv{parts: []models.MeetingPart{{ID: "p-1", Type: models.PartTalk, Ordinal: 1}}}
	handler := NewProgramHandler(srv)

	c, rec := newContext(http.MethodGet, "/weeks/2024-03-06/program", "", instructorClaims(), weekParamOf("2024-03-06"))
	handler.Parts(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "2024-03-04", srv.lastWeek.String())
	assert.Equal(t, "2024-03-04", decodeEnvelope(t, rec).Meta["week"])
}

func TestProgramHandlerCreate(t *testing.T) {
	srv := &fakeProgramSrv{parts: []models.MeetingPart{{ID: "p-1"}}}
	handler := NewProgramHandler(srv)

	body := `{"parts":[{"ordinal":1,"type":"talk","title":"Discurso","durationMinutes":10}]}`
	c, rec := newContext(http.MethodPost, "/weeks/2024-03-04/program", body, instructorClaims(), weekParamOf("2024-03-04"))
	handler.Create(c)

	require.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, srv.lastReq.Parts, 1)
	assert.Equal(t, "talk", srv.lastReq.Parts[0].Type)
}

func TestProgramHandlerTemplateDisabled(t *testing.T) {
	handler := NewProgramHandler(&fakeProgramSrv{err: appErrors.Clone(appErrors.ErrFeatureDisabled, "program template not configured")})

	c, rec := newContext(http.MethodPost, "/weeks/2024-03-04/program/template", "", instructorClaims(), weekParamOf("2024-03-04"))
	handler.CreateFromTemplate(c)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestProgramHandlerDeletePublished(t *testing.T) {
	handler := NewProgramHandler(&fakeProgramSrv{err: appErrors.Clone(appErrors.ErrPublished, "program already published")})

	c, rec := newContext(http.MethodDelete, "/weeks/2024-03-04/program", "", instructorClaims(), weekParamOf("2024-03-04"))
	handler.Delete(c)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestProgramHandlerInvalidWeek(t *testing.T) {
	srv := &fakeProgramSrv{}
	handler := NewProgramHandler(srv)

	c, rec := newContext(http.MethodPost, "/weeks/next/program/publish", "", instructorClaims(), weekParamOf("next"))
	handler.Publish(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.True(t, srv.lastWeek.IsZero())
}
