package main

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/sistema-ministerial-api/internal/repository"
	"github.com/noah-isme/sistema-ministerial-api/internal/rules"
	"github.com/noah-isme/sistema-ministerial-api/internal/service"
	"github.com/noah-isme/sistema-ministerial-api/pkg/cache"
	"github.com/noah-isme/sistema-ministerial-api/pkg/config"
	"github.com/noah-isme/sistema-ministerial-api/pkg/database"
	"github.com/noah-isme/sistema-ministerial-api/pkg/jobs"
	"github.com/noah-isme/sistema-ministerial-api/pkg/storage"
)

// app holds the wired services shared by the serve and generate commands.
type app struct {
	cfg    *config.Config
	logger *zap.Logger
	db     *sqlx.DB
	cache  *repository.CacheRepository

	metrics     *service.MetricsService
	auth        *service.AuthService
	students    *service.StudentService
	families    *service.FamilyService
	programs    *service.ProgramService
	assignments *service.AssignmentService
	exports     *service.ExportJobService
	exportQueue *jobs.Queue
}

func newApp(ctx context.Context, cfg *config.Config, logr *zap.Logger) (*app, error) {
	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	a := &app{cfg: cfg, logger: logr, db: db, metrics: service.NewMetricsService()}

	var cacheRepo service.CacheRepository
	if cfg.Cache.Enabled {
		client, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, student cache disabled", zap.Error(err))
		} else {
			a.cache = repository.NewCacheRepository(client)
			cacheRepo = a.cache
		}
	}
	cacheSvc := service.NewCacheService(cacheRepo, a.metrics, cfg.Cache.StudentTTL, logr, cacheRepo != nil)

	template, err := service.LoadProgramTemplate(cfg.Program.TemplatePath)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("load program template: %w", err)
	}

	validate := validator.New()
	studentRepo := repository.NewStudentRepository(db)
	familyRepo := repository.NewFamilyRepository(db)
	partRepo := repository.NewMeetingPartRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)

	genCfg := service.GeneratorConfig{
		MinorAge:            cfg.Generator.MinorAge,
		AllowDoubleBooking:  cfg.Generator.AllowDoubleBooking,
		FairnessWindowWeeks: cfg.Generator.FairnessWindowWeeks,
		HistoryWeeks:        cfg.Generator.HistoryWeeks,
	}

	a.auth = service.NewAuthService(service.AuthConfig{Secret: cfg.JWT.Secret, Issuer: cfg.JWT.Issuer, Audience: cfg.JWT.Audience})
	a.families = service.NewFamilyService(familyRepo, cacheSvc, validate, logr)
	a.programs = service.NewProgramService(db, partRepo, template, validate, logr)
	a.students = service.NewStudentService(studentRepo, familyRepo, cacheSvc, rules.NewTable(genCfg.MinorAge), validate, logr)
	a.assignments = service.NewAssignmentService(db, assignmentRepo, partRepo, a.students, a.metrics, validate, logr, genCfg)

	if err := a.wireExports(validate); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *app) wireExports(validate *validator.Validate) error {
	files, err := storage.NewLocalStorage(a.cfg.Exports.StorageDir)
	if err != nil {
		return err
	}
	signer := storage.NewSignedURLSigner(a.cfg.Exports.SignedURLSecret, a.cfg.Exports.SignedURLTTL)
	exporter := service.NewExportService(a.assignments, files, signer, service.ExportConfig{
		APIPrefix: a.cfg.APIPrefix,
		ResultTTL: a.cfg.Exports.SignedURLTTL,
	}, a.logger)

	jobRepo := repository.NewExportJobRepository(a.db)
	worker := service.NewExportWorker(jobRepo, exporter, a.metrics, a.logger)
	a.exportQueue = jobs.NewQueue("exports", worker.Handle, jobs.QueueConfig{
		Workers:    a.cfg.Exports.WorkerConcurrency,
		MaxRetries: a.cfg.Exports.WorkerRetries,
		OnFailure:  worker.Fail,
		Logger:     a.logger,
	})
	a.exports = service.NewExportJobService(jobRepo, a.exportQueue, exporter, validate, a.logger, service.ExportJobConfig{
		Enabled:         a.cfg.Exports.Enabled,
		CleanupInterval: a.cfg.Exports.SignedURLTTL / 4,
	})
	return nil
}

// Close releases connections. The export queue is stopped by the serve command.
func (a *app) Close() {
	if a.cache != nil {
		_ = a.cache.Close()
	}
	if a.db != nil {
		_ = a.db.Close()
	}
}
