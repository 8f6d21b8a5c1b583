package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	_ "github.com/noah-isme/course-scheduler-api/api/swagger"
	"github.com/noah-isme/course-scheduler-api/internal/handler"
	"github.com/noah-isme/course-scheduler-api/internal/repository"
	"github.com/noah-isme/course-scheduler-api/internal/router"
	"github.com/noah-isme/course-scheduler-api/internal/scheduler"
	"github.com/noah-isme/course-scheduler-api/internal/service"
	"github.com/noah-isme/course-scheduler-api/pkg/cache"
	"github.com/noah-isme/course-scheduler-api/pkg/config"
	"github.com/noah-isme/course-scheduler-api/pkg/database"
	"github.com/noah-isme/course-scheduler-api/pkg/logger"
)

// @title Course Scheduler API
// @version 1.0.0
// @description Course catalogue, calendar constraints and automatic timetable generation.
// @BasePath /api/v1
// @schemes http

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect database", zap.Error(err))
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := database.RunMigrations(db.DB, logr); err != nil {
			logr.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		logr.Fatal("failed to connect redis", zap.Error(err))
	}
	if redisClient == nil {
		logr.Warn("redis disabled, generation lock is process-local")
	}

	courseRepo := repository.NewCourseRepository(db)
	instructorRepo := repository.NewInstructorRepository(db)
	entryRepo := repository.NewScheduleEntryRepository(db)
	offDayRepo := repository.NewOffDayRepository(db)
	holidayRepo := repository.NewHolidayRepository(db)
	stores := repository.NewSchedulerStore(db)
	locks := repository.NewLockRepository(redisClient, logr)
	defer locks.Close() //nolint:errcheck

	validate := validator.New()
	metrics := service.NewMetricsService()

	generatorSvc := service.NewScheduleGeneratorService(courseRepo, entryRepo, stores, locks, db, metrics, validate, logr,
		service.ScheduleGeneratorConfig{
			Rules: scheduler.Rules{
				SearchHorizonDays:  cfg.Scheduler.SearchHorizonDays,
				DailyHourCap:       cfg.Scheduler.DailyHourCap,
				ConsecutiveHourCap: cfg.Scheduler.ConsecutiveHourCap,
				ExamHours:          cfg.Scheduler.ExamHours,
				ExamDailyCap:       cfg.Scheduler.ExamDailyCap,
			},
			IndexWindowDays: cfg.Scheduler.IndexWindowDays,
			LockKey:         cfg.Scheduler.LockKey,
			LockTTL:         cfg.Scheduler.LockTTL,
		})
	scheduleSvc := service.NewScheduleService(entryRepo, stores, db, metrics, validate, logr)
	exportSvc := service.NewExportService(scheduleSvc, metrics, logr)
	courseSvc := service.NewCourseService(courseRepo, instructorRepo, db, validate, logr)
	ingestionSvc := service.NewIngestionService(courseRepo, instructorRepo, db, logr)
	instructorSvc := service.NewInstructorService(instructorRepo, validate, logr)
	calendarSvc := service.NewCalendarService(offDayRepo, holidayRepo, instructorRepo, validate, logr)

	engine := router.Setup(cfg, logr, metrics, router.Handlers{
		Generator:  handler.NewScheduleGeneratorHandler(generatorSvc),
		Schedule:   handler.NewScheduleHandler(scheduleSvc, exportSvc),
		Course:     handler.NewCourseHandler(courseSvc, ingestionSvc, cfg.Uploads.MaxFileSizeBytes),
		Instructor: handler.NewInstructorHandler(instructorSvc),
		Calendar:   handler.NewCalendarHandler(calendarSvc),
		Metrics:    handler.NewMetricsHandler(metrics, db),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}
