package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/navaja-dev/barber-academy-api/api/swagger"
	"github.com/navaja-dev/barber-academy-api/internal/handler"
	"github.com/navaja-dev/barber-academy-api/internal/middleware"
	"github.com/navaja-dev/barber-academy-api/internal/models"
	"github.com/navaja-dev/barber-academy-api/internal/repository"
	"github.com/navaja-dev/barber-academy-api/internal/service"
	"github.com/navaja-dev/barber-academy-api/pkg/cache"
	"github.com/navaja-dev/barber-academy-api/pkg/config"
	"github.com/navaja-dev/barber-academy-api/pkg/database"
	"github.com/navaja-dev/barber-academy-api/pkg/export"
	"github.com/navaja-dev/barber-academy-api/pkg/logger"
	corsmiddleware "github.com/navaja-dev/barber-academy-api/pkg/middleware/cors"
	reqidmiddleware "github.com/navaja-dev/barber-academy-api/pkg/middleware/requestid"
)

// @title Barber Academy API
// @version 1.0.0
// @description Course lifecycle, enrollment and attendance backend
// @BasePath /api/v1
// @schemes http

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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewSQLite(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to open database", "error", err)
	}
	defer db.Close() //nolint:errcheck

	cacheRepo := repository.NewCacheRepository(nil, logr)
	if cfg.Redis.Enabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, continuing without cache", "error", err)
		} else {
			cacheRepo = repository.NewCacheRepository(redisClient, logr)
			defer redisClient.Close() //nolint:errcheck
		}
	}

	validate := validator.New()
	metricsSvc := service.NewMetricsService()

	userRepo := repository.NewUserRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	instructorRepo := repository.NewInstructorRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             cfg.JWT.Issuer,
	})
	studentSvc := service.NewStudentService(studentRepo, validate, logr)
	instructorSvc := service.NewInstructorService(instructorRepo, validate, logr)
	courseSvc := service.NewCourseService(courseRepo, instructorRepo, cacheRepo, metricsSvc, cfg.Cache.CourseListTTL, validate, logr)
	enrollmentSvc := service.NewEnrollmentService(enrollmentRepo, studentRepo, courseRepo, cacheRepo, validate, logr)
	attendanceSvc := service.NewAttendanceService(attendanceRepo, enrollmentRepo, courseRepo, validate, logr)
	exportSvc := service.NewExportService(attendanceSvc, export.NewCSVExporter(), export.NewPDFExporter(), cfg.Exports.SchoolName, logr)

	authHandler := handler.NewAuthHandler(authSvc)
	studentHandler := handler.NewStudentHandler(studentSvc)
	instructorHandler := handler.NewInstructorHandler(instructorSvc)
	courseHandler := handler.NewCourseHandler(courseSvc)
	enrollmentHandler := handler.NewEnrollmentHandler(enrollmentSvc)
	attendanceHandler := handler.NewAttendanceHandler(attendanceSvc, exportSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	{
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)
		auth.POST("/logout", middleware.JWT(authSvc), authHandler.Logout)
		auth.GET("/me", middleware.JWT(authSvc), authHandler.Me)
	}

	staff := middleware.RequireRoles(models.RoleAdmin, models.RoleReception)
	anyRole := middleware.RequireRoles(models.RoleAdmin, models.RoleReception, models.RoleInstructor)

	protected := api.Group("")
	protected.Use(middleware.JWT(authSvc))
	{
		students := protected.Group("/students")
		{
			students.GET("", anyRole, studentHandler.List)
			students.GET("/:id", anyRole, studentHandler.Get)
			students.POST("", staff, studentHandler.Create)
			students.PUT("/:id", staff, studentHandler.Update)
			students.DELETE("/:id", staff, studentHandler.Delete)
		}

		instructors := protected.Group("/instructors")
		{
			instructors.GET("", anyRole, instructorHandler.List)
			instructors.GET("/:id", anyRole, instructorHandler.Get)
			instructors.POST("", staff, instructorHandler.Create)
			instructors.PUT("/:id", staff, instructorHandler.Update)
			instructors.DELETE("/:id", staff, instructorHandler.Delete)
		}

		courses := protected.Group("/courses")
		{
			courses.GET("", anyRole, courseHandler.List)
			courses.GET("/:id", anyRole, courseHandler.Get)
			courses.GET("/:id/dates", anyRole, courseHandler.ClassDates)
			courses.POST("", staff, courseHandler.Create)
			courses.PUT("/:id", staff, courseHandler.Update)

			courses.GET("/:id/attendance", anyRole, attendanceHandler.Grid)
			courses.POST("/:id/attendance", anyRole, attendanceHandler.BulkSave)
			courses.GET("/:id/attendance/export/csv", anyRole, attendanceHandler.ExportCSV)
			courses.GET("/:id/attendance/export/pdf", anyRole, attendanceHandler.ExportPDF)
		}

		enrollments := protected.Group("/enrollments")
		{
			enrollments.GET("", anyRole, enrollmentHandler.List)
			enrollments.POST("", staff, enrollmentHandler.Create)
			enrollments.DELETE("/:id", staff, enrollmentHandler.Delete)
		}
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
