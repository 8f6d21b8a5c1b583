package router

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/course-scheduler-api/internal/handler"
	internalmiddleware "github.com/noah-isme/course-scheduler-api/internal/middleware"
	"github.com/noah-isme/course-scheduler-api/internal/service"
	"github.com/noah-isme/course-scheduler-api/pkg/config"
	"github.com/noah-isme/course-scheduler-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/course-scheduler-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/course-scheduler-api/pkg/middleware/requestid"
)

// Handlers groups every HTTP handler mounted by Setup.
type Handlers struct {
	Generator  *handler.ScheduleGeneratorHandler
	Schedule   *handler.ScheduleHandler
	Course     *handler.CourseHandler
	Instructor *handler.InstructorHandler
	Calendar   *handler.CalendarHandler
	Metrics    *handler.MetricsHandler
}

// Setup builds the engine with the shared middleware chain and all routes.
func Setup(cfg *config.Config, logr *zap.Logger, metrics *service.MetricsService, h Handlers) *gin.Engine {
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr, "/health", "/ready", "/metrics"))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metrics, "/metrics"))

	r.GET("/health", h.Metrics.Health)
	r.GET("/ready", h.Metrics.Ready)
	r.GET("/metrics", h.Metrics.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.GET("/metrics/summary", h.Metrics.Snapshot)

	schedules := api.Group("/schedules")
	schedules.POST("/generate", h.Generator.Generate)
	schedules.GET("", h.Schedule.List)
	schedules.POST("", h.Schedule.Create)
	schedules.POST("/validate", h.Schedule.Validate)
	schedules.GET("/export", h.Schedule.Export)
	schedules.PUT("/:id", h.Schedule.Update)
	schedules.DELETE("/:id", h.Schedule.Delete)
	schedules.POST("/:id/validate", h.Schedule.ValidateUpdate)

	api.GET("/calendar/periods", h.Calendar.Periods)

	courses := api.Group("/courses")
	courses.GET("", h.Course.List)
	courses.POST("", h.Course.Create)
	courses.POST("/upload", h.Course.Upload)
	courses.GET("/:id", h.Course.Get)
	courses.PUT("/:id", h.Course.Update)
	courses.DELETE("/:id", h.Course.Delete)

	api.GET("/instructors", h.Instructor.List)
	api.POST("/instructors", h.Instructor.Create)

	api.GET("/off-days", h.Calendar.ListOffDays)
	api.POST("/off-days", h.Calendar.CreateOffDay)
	api.DELETE("/off-days/:id", h.Calendar.DeleteOffDay)

	api.GET("/holidays", h.Calendar.ListHolidays)
	api.POST("/holidays", h.Calendar.CreateHoliday)
	api.DELETE("/holidays/:id", h.Calendar.DeleteHoliday)

	return r
}
