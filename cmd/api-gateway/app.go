package main

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/obe-attainment-api/internal/handler"
	"github.com/noah-isme/obe-attainment-api/internal/middleware"
	"github.com/noah-isme/obe-attainment-api/internal/models"
	"github.com/noah-isme/obe-attainment-api/internal/repository"
	"github.com/noah-isme/obe-attainment-api/internal/service"
	"github.com/noah-isme/obe-attainment-api/pkg/config"
	"github.com/noah-isme/obe-attainment-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/obe-attainment-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/obe-attainment-api/pkg/middleware/requestid"
)

// App bundles the HTTP router with the resources it must release.
type App struct {
	Router  *gin.Engine
	closers []func()
}

// Close releases background workers and clients in reverse order.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

type handlers struct {
	outcome    *handler.OutcomeHandler
	mapping    *handler.MappingHandler
	assessment *handler.AssessmentHandler
	result     *handler.ResultHandler
	attainment *handler.AttainmentHandler
	metrics    *handler.MetricsHandler
}

func buildApp(ctx context.Context, cfg *config.Config, db *sqlx.DB, redisClient *redis.Client, logr *zap.Logger) (*App, error) {
	app := &App{}

	cloRepo := repository.NewCLORepository(db)
	ploRepo := repository.NewPLORepository(db)
	mappingRepo := repository.NewMappingRepository(db)
	academicRepo := repository.NewAcademicRepository(db)
	assessmentRepo := repository.NewAssessmentRepository(db)
	resultRepo := repository.NewResultRepository(db)
	attainmentRepo := repository.NewAttainmentRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	app.closers = append(app.closers, func() {
		if err := cacheRepo.Close(); err != nil {
			logr.Warn("redis close failed", zap.Error(err))
		}
	})

	metricsSvc := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Attainment.CacheTTL, logr, cfg.Attainment.CacheEnabled)
	eventSvc, closeEvents, err := newEventService(ctx, cfg, metricsSvc, logr)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.closers = append(app.closers, closeEvents)

	validate := newValidator()
	authSvc := service.NewAuthService(service.AuthConfig{AccessTokenSecret: cfg.JWT.Secret, Issuer: cfg.JWT.Issuer}, logr)
	outcomeSvc := service.NewOutcomeService(cloRepo, ploRepo, academicRepo, cacheSvc, validate, logr)
	mappingSvc := service.NewMappingService(mappingRepo, cloRepo, ploRepo, academicRepo, cacheSvc, eventSvc, validate, logr)
	assessmentSvc := service.NewAssessmentService(assessmentRepo, academicRepo, cloRepo, cacheSvc, validate, logr)
	marksSvc := service.NewMarksService(assessmentRepo, academicRepo, resultRepo, cacheSvc, eventSvc, metricsSvc, validate, logr)
	resultSvc := service.NewResultService(resultRepo, cacheSvc, eventSvc, cfg.Results.StrictModeration, validate, logr)
	analyticsSvc := service.NewResultAnalyticsService(resultRepo, academicRepo, cfg.Results.PassThreshold, logr)
	attainmentSvc := service.NewAttainmentService(attainmentRepo, mappingRepo, cloRepo, ploRepo, academicRepo, cacheSvc, cfg.Attainment.CacheTTL, metricsSvc, logr)
	exportSvc := service.NewExportService(attainmentSvc, logr)

	h := handlers{
		outcome:    handler.NewOutcomeHandler(outcomeSvc),
		mapping:    handler.NewMappingHandler(mappingSvc),
		assessment: handler.NewAssessmentHandler(assessmentSvc),
		result:     handler.NewResultHandler(marksSvc, resultSvc, analyticsSvc),
		attainment: handler.NewAttainmentHandler(attainmentSvc, exportSvc),
		metrics:    handler.NewMetricsHandler(metricsSvc, pingers(db, cacheRepo)),
	}

	app.Router = newRouter(cfg, logr, metricsSvc, authSvc, h)
	return app, nil
}

func newRouter(cfg *config.Config, logr *zap.Logger, metricsSvc *service.MetricsService, auth middleware.TokenValidator, h handlers) *gin.Engine {
	binding.EnableDecoderDisallowUnknownFields = true

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc, "/metrics", "/health", "/ready"))

	r.GET("/health", h.metrics.Health)
	r.GET("/ready", h.metrics.Ready)
	r.GET("/metrics", h.metrics.Prometheus)
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}
	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": gin.H{"code": "NOT_FOUND", "message": "route not found"}})
	})

	admins := middleware.RequireRoles(middleware.AdminRoles...)
	staff := middleware.RequireRoles(middleware.StaffRoles...)
	facultyOnly := middleware.RequireRoles(models.RoleFaculty)

	api := r.Group(cfg.APIPrefix, middleware.JWT(auth))

	clos := api.Group("/clos", staff)
	clos.GET("", h.outcome.ListCLOs)
	clos.GET("/:id", h.outcome.GetCLO)
	clos.POST("", admins, h.outcome.CreateCLO)
	clos.PUT("/:id", admins, h.outcome.UpdateCLO)
	clos.DELETE("/:id", admins, h.outcome.DeleteCLO)

	plos := api.Group("/plos", admins)
	plos.GET("", h.outcome.ListPLOs)
	plos.GET("/:id", h.outcome.GetPLO)
	plos.POST("", h.outcome.CreatePLO)
	plos.PUT("/:id", h.outcome.UpdatePLO)
	plos.DELETE("/:id", h.outcome.DeletePLO)

	mappings := api.Group("/clo-plo-mappings", admins)
	mappings.GET("", h.mapping.List)
	mappings.POST("", h.mapping.Create)
	mappings.PUT("/:id", h.mapping.Update)
	mappings.DELETE("/:id", h.mapping.Delete)

	assessments := api.Group("/assessments", staff)
	assessments.GET("", h.assessment.List)
	assessments.POST("", h.assessment.Create)
	assessments.GET("/:id", h.assessment.Get)
	assessments.POST("/:id/archive", h.assessment.Archive)
	assessments.POST("/:id/items", h.assessment.AddItem)

	results := api.Group("/assessment-results")
	results.POST("/bulk", facultyOnly, h.result.BulkSubmit)
	results.GET("", staff, h.result.List)
	results.GET("/analytics", staff, h.result.Analytics)
	results.GET("/:id", staff, h.result.Get)
	results.PATCH("/:id", staff, h.result.Update)
	results.DELETE("/:id", staff, h.result.Delete)

	api.GET("/clo-attainments", staff, h.attainment.CLO)
	plo := api.Group("/plo-attainments", staff)
	plo.GET("", h.attainment.ListPLO)
	plo.GET("/export", admins, h.attainment.Export)
	plo.GET("/:ploId", h.attainment.PLO)

	api.GET("/system/metrics", admins, h.metrics.System)

	return r
}
