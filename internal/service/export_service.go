package service

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sistema-ministerial-api/internal/dto"
	"github.com/noah-isme/sistema-ministerial-api/internal/models"
	"github.com/noah-isme/sistema-ministerial-api/internal/repository"
	"github.com/noah-isme/sistema-ministerial-api/pkg/export"
	"github.com/noah-isme/sistema-ministerial-api/pkg/jobs"
	"github.com/noah-isme/sistema-ministerial-api/pkg/storage"
)

type weekDesignations interface {
	ListWeek(ctx context.Context, congregationID string, week models.Week) ([]dto.AssignmentView, error)
}

type fileStorage interface {
	Save(name string, data []byte) (string, error)
	Open(name string) (*os.File, error)
	Delete(name string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix string
	ResultTTL time.Duration
}

// ExportResult captures successful generation metadata.
type ExportResult struct {
	RelativePath string
	Token        string
	URL          string
	ExpiresAt    time.Time
}

// ExportService renders a week's designations and stores the file behind a signed URL.
type ExportService struct {
	designations weekDesignations
	storage      fileStorage
	renderers    map[models.ExportFormat]export.Renderer
	signer       *storage.SignedURLSigner
	logger       *zap.Logger
	cfg          ExportConfig
	now          func() time.Time
}

// NewExportService constructs an ExportService.
func NewExportService(designations weekDesignations, files fileStorage, signer *storage.SignedURLSigner, cfg ExportConfig, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	return &ExportService{
		designations: designations,
		storage:      files,
		renderers: map[models.ExportFormat]export.Renderer{
			models.ExportFormatCSV: export.NewCSVExporter(),
			models.ExportFormatPDF: export.NewPDFExporter(),
		},
		signer: signer,
		logger: logger,
		cfg:    cfg,
		now:    time.Now,
	}
}

var sectionLabels = map[models.Section]string{
	models.SectionTreasures: "Tesouros da Palavra de Deus",
	models.SectionMinistry:  "Faça Seu Melhor no Ministério",
	models.SectionLiving:    "Nossa Vida Cristã",
}

// Dataset builds the designation table for one week in program order.
func (s *ExportService) Dataset(ctx context.Context, congregationID string, week models.Week) (export.Dataset, error) {
	views, err := s.designations.ListWeek(ctx, congregationID, week)
	if err != nil {
		return export.Dataset{}, err
	}
	dataset := export.Dataset{
		Title:    "Designações da reunião Vida e Ministério",
		Subtitle: "Semana de " + week.Format("02/01/2006"),
		Headers:  []string{"Seção", "Nº", "Parte", "Estudante", "Ajudante", "Estado", "Status"},
		GroupBy:  "Seção",
		Rows:     make([][]string, 0, len(views)),
	}
	for _, v := range views {
		primary := v.PrimaryName
		if v.Primary() == "" {
			primary = "(sem designação)"
		}
		assistant := v.AssistantName
		if v.AssistantPending {
			assistant = "(pendente)"
		}
		dataset.Rows = append(dataset.Rows, []string{
			sectionLabels[v.PartSection],
			strconv.Itoa(v.PartOrdinal),
			v.PartTitle,
			primary,
			assistant,
			string(v.State),
			string(v.Status),
		})
	}
	return dataset, nil
}

// Generate renders the job's week and stores the result.
func (s *ExportService) Generate(ctx context.Context, job *models.ExportJob) (*ExportResult, error) {
	if job == nil {
		return nil, fmt.Errorf("job nil")
	}
	renderer, ok := s.renderers[job.Format]
	if !ok {
		return nil, fmt.Errorf("unsupported format %s", job.Format)
	}
	dataset, err := s.Dataset(ctx, job.CongregationID, job.Week)
	if err != nil {
		return nil, err
	}
	payload, err := renderer.Render(dataset)
	if err != nil {
		return nil, err
	}

	relPath, err := s.storage.Save(s.filename(job, renderer.Extension()), payload)
	if err != nil {
		return nil, err
	}
	token, expiresAt, err := s.signer.Generate(job.ID, relPath)
	if err != nil {
		return nil, err
	}
	prefix := strings.TrimRight(s.cfg.APIPrefix, "/")
	if prefix == "" {
		prefix = "/api/v1"
	}
	return &ExportResult{
		RelativePath: relPath,
		Token:        token,
		URL:          prefix + "/exports/download?token=" + url.QueryEscape(token),
		ExpiresAt:    expiresAt,
	}, nil
}

// ContentType returns the MIME type of a format.
func (s *ExportService) ContentType(format models.ExportFormat) string {
	if r, ok := s.renderers[format]; ok {
		return r.ContentType()
	}
	return "application/octet-stream"
}

// ParseToken validates download token metadata.
func (s *ExportService) ParseToken(token string) (storage.Token, error) {
	return s.signer.Parse(token)
}

// Open returns a handle to the stored file.
func (s *ExportService) Open(relPath string) (*os.File, error) {
	return s.storage.Open(relPath)
}

// Cleanup removes files older than ttl, or the configured result TTL when ttl <= 0.
func (s *ExportService) Cleanup(ttl time.Duration) ([]string, error) {
	if ttl <= 0 {
		ttl = s.cfg.ResultTTL
	}
	return s.storage.CleanupOlderThan(ttl)
}

func (s *ExportService) filename(job *models.ExportJob, ext string) string {
	timestamp := s.now().UTC().Format("20060102_150405")
	return fmt.Sprintf("%s/designacoes_%s_%s.%s", sanitizeFilename(job.CongregationID), job.Week.String(), timestamp, ext)
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "na"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}

type exportJobStore interface {
	Create(ctx context.Context, job *models.ExportJob) error
	GetByID(ctx context.Context, id string) (*models.ExportJob, error)
	Update(ctx context.Context, id string, params repository.UpdateExportJobParams) error
	ListQueued(ctx context.Context, limit int) ([]models.ExportJob, error)
}

type exportGenerator interface {
	Generate(ctx context.Context, job *models.ExportJob) (*ExportResult, error)
}

// ExportWorker bridges queue jobs to ExportService.
type ExportWorker struct {
	repo     exportJobStore
	exporter exportGenerator
	metrics  *MetricsService
	logger   *zap.Logger
}

// NewExportWorker constructs a worker.
func NewExportWorker(repo exportJobStore, exporter exportGenerator, metrics *MetricsService, logger *zap.Logger) *ExportWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportWorker{repo: repo, exporter: exporter, metrics: metrics, logger: logger}
}

// Handle processes one queue job. Returned errors make the queue retry.
func (w *ExportWorker) Handle(ctx context.Context, job jobs.Job) error {
	record, err := w.repo.GetByID(ctx, job.ID)
	if err != nil {
		return err
	}
	processing := models.ExportStatusProcessing
	if err := w.repo.Update(ctx, job.ID, repository.UpdateExportJobParams{Status: &processing}); err != nil {
		return err
	}
	result, err := w.exporter.Generate(ctx, record)
	if err != nil {
		w.logger.Warn("export attempt failed", zap.String("job_id", job.ID), zap.Int("attempt", job.Attempt), zap.Error(err))
		return err
	}

	finished := models.ExportStatusFinished
	now := time.Now().UTC()
	resultURL := result.URL
	clear := ""
	if err := w.repo.Update(ctx, job.ID, repository.UpdateExportJobParams{
		Status:       &finished,
		ResultURL:    &resultURL,
		ErrorMessage: &clear,
		FinishedAt:   &now,
	}); err != nil {
		return err
	}
	w.metrics.ObserveExport(string(record.Format), string(finished))
	w.logger.Info("export finished", zap.String("job_id", job.ID), zap.String("format", string(record.Format)), zap.String("week", record.Week.String()))
	return nil
}

// Fail marks a job FAILED once the queue gave up on it.
func (w *ExportWorker) Fail(ctx context.Context, job jobs.Job, cause error) {
	failed := models.ExportStatusFailed
	msg := cause.Error()
	now := time.Now().UTC()
	if err := w.repo.Update(ctx, job.ID, repository.UpdateExportJobParams{
		Status:       &failed,
		ErrorMessage: &msg,
		FinishedAt:   &now,
	}); err != nil {
		w.logger.Warn("failed to mark export failed", zap.String("job_id", job.ID), zap.Error(err))
	}
	format, _ := job.Payload.(models.ExportFormat)
	w.metrics.ObserveExport(string(format), string(failed))
}
