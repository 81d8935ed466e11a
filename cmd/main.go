package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/lamngo/formflow/config"
	"github.com/lamngo/formflow/database"
	_ "github.com/lamngo/formflow/docs" // Swagger docs
	"github.com/lamngo/formflow/internal/cache"
	adminctrl "github.com/lamngo/formflow/internal/controller/admin"
	userctrl "github.com/lamngo/formflow/internal/controller/user"
	"github.com/lamngo/formflow/internal/logger"
	"github.com/lamngo/formflow/internal/model"
	"github.com/lamngo/formflow/internal/repository"
	"github.com/lamngo/formflow/internal/service"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

// @title FormFlow API
// @version 1.0
// @description Survey, poll and assessment platform: resumable response submission with deterministic scoring.
// @contact.name API Support
// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html
// @host localhost:8080
// @BasePath /api/v1
// @schemes http https
func main() {
	logger.Init()

	app := fx.New(
		// Core application components
		fx.Provide(
			config.NewConfig,
			database.NewDatabase,
			cache.NewRedisClient,
			cache.NewCatalogCache,
			NewGinEngine,
		),

		// Repositories layer
		fx.Provide(
			repository.NewActivityRepository,
			repository.NewQuestionnaireRepository,
			repository.NewQuestionRepository,
			repository.NewResponseRepository,
			repository.NewAnswerRepository,
		),

		// Services layer
		fx.Provide(
			service.NewAnswerNormalizer,
			service.NewScoringService,
			service.NewAccessService,
			service.NewActivityService,
			service.NewAdminActivityService,
			service.NewResponseService,
		),

		// API controllers layer
		fx.Provide(
			adminctrl.NewAdminActivityController,
			userctrl.NewActivityController,
			userctrl.NewResponseController,
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
	r := gin.New()

	// Route Gin request logging through zerolog.
	r.Use(gin.LoggerWithFormatter(func(param gin.LogFormatterParams) string {
		log.Info().
			Str("client_ip", param.ClientIP).
			Str("method", param.Method).
			Str("path", param.Path).
			Int("status_code", param.StatusCode).
			Dur("latency", param.Latency).
			Str("error_message", param.ErrorMessage).
			Msg("gin_request")
		return ""
	}))
	r.Use(gin.Recovery())

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r
}

// RegisterRoutesAndStartServer configures API routes and manages the server lifecycle.
func RegisterRoutesAndStartServer(
	lc fx.Lifecycle,
	router *gin.Engine,
	cfg *config.Config,
	adminActivityCtrl *adminctrl.AdminActivityController,
	activityCtrl *userctrl.ActivityController,
	responseCtrl *userctrl.ResponseController,
) {
	adminAPIGroup := router.Group("/api/v1/admin")
	{
		activitiesAdminGroup := adminAPIGroup.Group("/activities")
		activitiesAdminGroup.POST("", adminActivityCtrl.CreateActivity)
		activitiesAdminGroup.GET("/:activity_id/responses", adminActivityCtrl.ListActivityResponses)
	}

	userAPIGroup := router.Group("/api/v1")
	{
		userAPIGroup.GET("/activities", activityCtrl.GetActivities)
		userAPIGroup.GET("/activities/:activity_id", activityCtrl.GetActivityDetails)

		userAPIGroup.POST("/activities/:activity_id/responses", responseCtrl.StartOrResume)
		userAPIGroup.GET("/activities/:activity_id/progress", responseCtrl.LoadProgress)
		userAPIGroup.PUT("/responses/:response_id/answers", responseCtrl.SaveProgress)
		userAPIGroup.POST("/responses/:response_id/submit", responseCtrl.Finalize)
		userAPIGroup.GET("/responses/:response_id", responseCtrl.GetResponse)
	}

	server := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info().Msgf("FormFlow API server starting on port %s", cfg.Server.Port)
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
		&model.Questionnaire{},
		&model.Section{},
		&model.Question{},
		&model.Activity{},
		&model.Response{},
		&model.Answer{},
	)
	if err != nil {
		log.Error().Err(err).Msg("Database migration failed")
		return err
	}
	log.Info().Msg("Database migration completed successfully.")
	return nil
}
