package handler

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sistema-ministerial-api/internal/dto"
	"github.com/noah-isme/sistema-ministerial-api/internal/models"
	"github.com/noah-isme/sistema-ministerial-api/internal/service"
	appErrors "github.com/noah-isme/sistema-ministerial-api/pkg/errors"
)

type fakeExportSrv struct {
	lastActor  string
	lastWeek   models.Week
	lastFormat string
	lastToken  string
	status     *dto.ExportStatusResponse
	download   *service.ExportDownload
	err        error
}

func (f *fakeExportSrv) Create(_ context.Context, _, actorID string, week models.Week, req dto.ExportRequest) (*dto.ExportJobResponse, error) {
	f.lastActor = actorID
	f.lastWeek = week
	f.lastFormat = req.Format
	if f.err != nil {
		return nil, f.err
	}
	return &dto.ExportJobResponse{ID: "job-1", Status: models.ExportStatusQueued}, nil
}

func (f *fakeExportSrv) Status(context.Context, string, string) (*dto.ExportStatusResponse, error) {
	return f.status, f.err
}

func (f *fakeExportSrv) ResolveDownload(_ context.Context, token string) (*service.ExportDownload, error) {
	f.lastToken = token
	return f.download, f.err
}

func TestExportHandlerCreateAccepted(t *testing.T) {
	srv := &fakeExportSrv{}
	handler := NewExportHandler(srv)

	c, rec := newContext(http.MethodPost, "/weeks/2024-03-04/exports", `{"format":"pdf"}`, instructorClaims(), weekParamOf("2024-03-04"))
	handler.Create(c)

	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, "user-1", srv.lastActor)
	assert.Equal(t, "pdf", srv.lastFormat)
	assert.Equal(t, "2024-03-04", srv.lastWeek.String())
}

func TestExportHandlerCreateDisabled(t *testing.T) {
	handler := NewExportHandler(&fakeExportSrv{err: appErrors.Clone(appErrors.ErrFeatureDisabled, "exports disabled")})

	c, rec := newContext(http.MethodPost, "/weeks/2024-03-04/exports", `{"format":"csv"}`, instructorClaims(), weekParamOf("2024-03-04"))
	handler.Create(c)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestExportHandlerStatus(t *testing.T) {
	url := "/api/v1/exports/download?token=abc"
	handler := NewExportHandler(&fakeExportSrv{status: &dto.ExportStatusResponse{ID: "job-1", Status: models.ExportStatusFinished, DownloadURL: &url}})

	c, rec := newContext(http.MethodGet, "/exports/job-1", "", instructorClaims(), gin.Param{Key: "id", Value: "job-1"})
	handler.Status(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "downloadUrl")
}

func TestExportHandlerDownloadRequiresToken(t *testing.T) {
	handler := NewExportHandler(&fakeExportSrv{})

	c, rec := newContext(http.MethodGet, "/exports/download", "", nil)
	handler.Download(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExportHandlerDownloadStreamsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "designacoes.csv")
	require.NoError(t, os.WriteFile(path, []byte("Seção;Nº\n"), 0o644))
	file, err := os.Open(path)
	require.NoError(t, err)

	srv := &fakeExportSrv{download: &service.ExportDownload{
		File:        file,
		Filename:    "designacoes.csv",
		ContentType: "text/csv",
		ExpiresAt:   time.Now().Add(time.Hour),
	}}
	handler := NewExportHandler(srv)

	c, rec := newContext(http.MethodGet, "/exports/download?token=signed", "", nil)
	handler.Download(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "signed", srv.lastToken)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "designacoes.csv")
	assert.Equal(t, "Seção;Nº\n", rec.Body.String())
}

func TestExportHandlerDownloadExpired(t *testing.T) {
	handler := NewExportHandler(&fakeExportSrv{err: appErrors.Clone(appErrors.ErrForbidden, "download link expired")})

	c, rec := newContext(http.MethodGet, "/exports/download?token=old", "", nil)
	handler.Download(c)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}
