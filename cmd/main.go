package main

import (
	"context"
	"net/http"
	"time"

	"github.com/coursemark/coursemark/config"
	"github.com/coursemark/coursemark/database"
	_ "github.com/coursemark/coursemark/docs" // Swagger docs - auto-generated
	adminctrl "github.com/coursemark/coursemark/internal/controller/admin"
	markerctrl "github.com/coursemark/coursemark/internal/controller/marker"
	"github.com/coursemark/coursemark/internal/logger"
	"github.com/coursemark/coursemark/internal/mailer"
	"github.com/coursemark/coursemark/internal/model"
	"github.com/coursemark/coursemark/internal/report"
	"github.com/coursemark/coursemark/internal/repository"
	"github.com/coursemark/coursemark/internal/service"
	"github.com/coursemark/coursemark/internal/token"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

// @title Coursemark Marking API
// @version 1.0
// @description Marking workflow for student presentations: scheduled assignments, marker forms, report release and grade export.
// @host localhost:8080
// @BasePath /api/v1
// @schemes http https
func main() {
	logger.Init()

	app := fx.New(
		// Core Application Components
		fx.Provide(
			config.NewConfig,
			database.NewDatabase,
			NewGinEngine,
		),

		// Repositories Layer
		fx.Provide(
			repository.NewAssignmentRepository,
			repository.NewFormRepository,
			repository.NewTokenRepository,
			repository.NewStudentRepository,
			repository.NewStaffRepository,
		),

		// Services Layer
		fx.Provide(
			service.NewSchemaService,
			service.NewMarkingService,
			service.NewReportService,
			service.NewExportService,
			func(cfg *config.Config, schemaSvc service.SchemaService) *report.Generator {
				return report.NewGenerator(cfg.App.Institution, schemaSvc.Registry())
			},
			token.NewGate,
			func(cfg *config.Config) mailer.Mailer {
				return mailer.NewConsoleMailer(cfg.Mail.From)
			},
		),

		// API Controllers Layer
		fx.Provide(
			adminctrl.NewAdminMarkingController,
			markerctrl.NewMarkerController,
		),

		fx.Invoke(RegisterRoutesAndStartServer),
		fx.Invoke(AutoMigrateDB),
	)

	if err := app.Start(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("Failed to start application")
	}

	<-app.Done()
	log.Info().Msg("Application shutting down gracefully...")
}

func NewGinEngine() *gin.Engine {
	gin.SetMode(gin.DebugMode)

	r := gin.New()

	r.Use(gin.LoggerWithFormatter(func(param gin.LogFormatterParams) string {
		log.Info().
			Str("client_ip", param.ClientIP).
			Str("method", param.Method).
			Str("path", param.Path).
			Int("status_code", param.StatusCode).
			Dur("latency", param.Latency).
			Str("user_agent", param.Request.UserAgent()).
			Str("error_message", param.ErrorMessage).
			Msg("gin_request")
		return ""
	}))
	r.Use(gin.Recovery())

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"}, // Be more specific in production
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Swagger UI: http://localhost:PORT/swagger/index.html
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r
}

// RegisterRoutesAndStartServer configures API routes and manages server lifecycle.
func RegisterRoutesAndStartServer(
	lc fx.Lifecycle,
	router *gin.Engine,
	cfg *config.Config,
	adminCtrl *adminctrl.AdminMarkingController,
	markerCtrl *markerctrl.MarkerController,
) {
	// Admin Routes (prefixed with /api/v1/admin)
	adminAPIGroup := router.Group("/api/v1/admin")
	{
		assignments := adminAPIGroup.Group("/assignments")
		assignments.POST("", adminCtrl.ScheduleMarking)
		assignments.GET("/:id", adminCtrl.GetAssignment)
		assignments.DELETE("/:id", adminCtrl.DeleteAssignment)
		assignments.PUT("/:id/status", adminCtrl.OverrideStatus)
		assignments.POST("/distribute", adminCtrl.Distribute)
		assignments.POST("/release", adminCtrl.Release)

		reports := adminAPIGroup.Group("/reports")
		reports.POST("/zip", adminCtrl.ZipReports)
		reports.POST("/grades", adminCtrl.GradeExport)

		forms := adminAPIGroup.Group("/forms")
		forms.GET("", adminCtrl.ListForms)
		forms.PUT("/:role", adminCtrl.UpsertForm)
		forms.GET("/:role/preview", adminCtrl.PreviewForm)
	}

	// Marker and student routes (prefixed with /api/v1)
	apiGroup := router.Group("/api/v1")
	{
		apiGroup.GET("/marking", markerCtrl.ListAssignments)
		apiGroup.GET("/marking/:id", markerCtrl.GetForm)
		apiGroup.PUT("/marking/:id/draft", markerCtrl.SaveDraft)
		apiGroup.POST("/marking/:id/submit", markerCtrl.Submit)

		apiGroup.GET("/reports/:id", markerCtrl.GetReport)
	}

	server := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info().Msgf("Marking API server starting on port %s", cfg.Server.Port)
			log.Info().Msgf("Swagger UI available at http://localhost:%s/swagger/index.html", cfg.Server.Port)
			go func() {
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal().Err(err).Msg("Server ListenAndServe failed")
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info().Msg("Server shutting down...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		},
	})
}

func AutoMigrateDB(db *gorm.DB) error {
	log.Info().Msg("Running database migrations...")
	err := db.AutoMigrate(
		&model.Student{},
		&model.Staff{},
		&model.Presentation{},
		&model.FormDefinition{},
		&model.Assignment{},
		&model.AccessToken{},
	)
	if err != nil {
		log.Error().Err(err).Msg("Database migration failed")
		return err
	}
	log.Info().Msg("Database migration completed successfully.")
	return nil
}
