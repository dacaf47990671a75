package main

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/sistema-ministerial-api/api/swagger"
	"github.com/noah-isme/sistema-ministerial-api/internal/handler"
	"github.com/noah-isme/sistema-ministerial-api/internal/middleware"
	"github.com/noah-isme/sistema-ministerial-api/internal/models"
	"github.com/noah-isme/sistema-ministerial-api/internal/service"
	"github.com/noah-isme/sistema-ministerial-api/pkg/config"
	"github.com/noah-isme/sistema-ministerial-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/sistema-ministerial-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/sistema-ministerial-api/pkg/middleware/requestid"
)

type routeDeps struct {
	cfg         *config.Config
	logger      *zap.Logger
	metrics     *service.MetricsService
	auth        *service.AuthService
	checks      map[string]handler.ReadinessCheck
	students    *handler.StudentHandler
	families    *handler.FamilyHandler
	programs    *handler.ProgramHandler
	assignments *handler.AssignmentHandler
	exports     *handler.ExportHandler
}

func (a *app) routeDeps() routeDeps {
	checks := map[string]handler.ReadinessCheck{
		"postgres": a.db.PingContext,
	}
	if a.cache != nil {
		checks["redis"] = a.cache.Ping
	}
	return routeDeps{
		cfg:         a.cfg,
		logger:      a.logger,
		metrics:     a.metrics,
		auth:        a.auth,
		checks:      checks,
		students:    handler.NewStudentHandler(a.students),
		families:    handler.NewFamilyHandler(a.families),
		programs:    handler.NewProgramHandler(a.programs),
		assignments: handler.NewAssignmentHandler(a.assignments),
		exports:     handler.NewExportHandler(a.exports),
	}
}

func newRouter(d routeDeps) *gin.Engine {
	if d.cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(d.logger))
	r.Use(corsmiddleware.New(d.cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(d.metrics, "/metrics", "/health", "/ready"))

	ops := handler.NewMetricsHandler(d.metrics, d.checks)
	r.GET("/health", ops.Health)
	r.GET("/ready", ops.Ready)
	r.GET("/metrics", ops.Prometheus)

	if d.cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(d.cfg.APIPrefix)
	api.GET("/exports/download", d.exports.Download)

	secured := api.Group("")
	secured.Use(middleware.JWT(d.auth), middleware.WithResponseMeta())
	editors := middleware.RequireRoles(models.RoleAdmin, models.RoleInstructor)

	secured.GET("/catalog/parts", d.programs.Catalog)

	students := secured.Group("/students")
	students.GET("", d.students.List)
	students.GET("/:id", d.students.Get)
	students.GET("/:id/qualifications", d.students.Qualifications)
	students.POST("", editors, d.students.Create)
	students.PUT("/:id", editors, d.students.Update)
	students.DELETE("/:id", editors, d.students.Deactivate)

	families := secured.Group("/families")
	families.GET("", d.families.List)
	families.POST("", editors, d.families.Create)
	families.PUT("/:id/members", editors, d.families.ReplaceMembers)
	families.DELETE("/:id", editors, d.families.Delete)

	weeks := secured.Group("/weeks/:week")
	weeks.GET("/program", d.programs.Parts)
	weeks.POST("/program", editors, d.programs.Create)
	weeks.POST("/program/template", editors, d.programs.CreateFromTemplate)
	weeks.POST("/program/publish", editors, d.programs.Publish)
	weeks.DELETE("/program", editors, d.programs.Delete)
	weeks.GET("/parts/:partId/eligible", d.assignments.Eligible)
	weeks.GET("/assignments", d.assignments.ListWeek)
	weeks.POST("/exports", editors, d.exports.Create)

	secured.POST("/generate-assignments", editors, d.assignments.Generate)

	assignments := secured.Group("/assignments")
	assignments.POST("/:id/confirm", editors, d.assignments.Confirm)
	assignments.POST("/:id/reassign", editors, d.assignments.Reassign)
	assignments.POST("/:id/status", editors, d.assignments.UpdateStatus)

	secured.GET("/exports/:id", d.exports.Status)

	return r
}
