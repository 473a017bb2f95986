package main

import (
	"log"

	"github.com/jeskokaiser/altfragen-io-sub002/internal/bus"
	"github.com/jeskokaiser/altfragen-io-sub002/internal/config"
	"github.com/jeskokaiser/altfragen-io-sub002/internal/database"
	"github.com/jeskokaiser/altfragen-io-sub002/internal/handlers"
	"github.com/jeskokaiser/altfragen-io-sub002/internal/middleware"
	"github.com/jeskokaiser/altfragen-io-sub002/internal/presence"
	"github.com/jeskokaiser/altfragen-io-sub002/internal/queue"
	"github.com/jeskokaiser/altfragen-io-sub002/internal/services"
	"github.com/jeskokaiser/altfragen-io-sub002/internal/store"
	"github.com/jeskokaiser/altfragen-io-sub002/internal/ws"

	_ "github.com/jeskokaiser/altfragen-io-sub002/docs"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title           Altfragen Collaboration API
// @version         1.0
// @description     API for collaborative exam-question drafting sessions
// @host            localhost:8080
// @BasePath        /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Enter "Bearer {token}"

func main() {
	cfg := config.Load()

	db := database.Connect(cfg)
	database.AutoMigrate(db)

	storeClient := store.New(db)
	changeBus := bus.New()
	hub := ws.NewHub()
	tracker := presence.NewTracker(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)

	var enqueuer queue.Enqueuer = queue.Noop{}
	if cfg.AIQueueEnabled {
		enqueuer = queue.NewAsynqClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	} else {
		log.Println("AI_QUEUE_ENABLED not set, commentary enqueue disabled")
	}
	defer enqueuer.Close()

	authService := services.NewAuthService(db, cfg.JWTSecret)
	activityService := services.NewActivityService(storeClient)
	syncService := services.NewSyncService(storeClient, changeBus)
	draftService := services.NewDraftService(storeClient, activityService, changeBus, enqueuer)
	collabService := services.NewCollabService(storeClient, syncService, draftService, activityService, changeBus)

	authHandler := handlers.NewAuthHandler(authService)
	sessionHandler := handlers.NewSessionHandler(collabService)
	questionHandler := handlers.NewQuestionHandler(collabService, storeClient, authService)
	settingsHandler := handlers.NewSettingsHandler(db)
	wsHandler := handlers.NewWSHandler(hub, collabService, authService, tracker)

	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
	}))

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	r.GET("/ws/session/:id", wsHandler.HandleSessionSocket)

	api := r.Group("/api/v1")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
		}

		settings := api.Group("/settings")
		settings.Use(middleware.JWTAuth(authService))
		{
			settings.GET("", settingsHandler.GetSettings)
			settings.PUT("", settingsHandler.UpdateSettings)
		}

		sessions := api.Group("/sessions")
		sessions.Use(middleware.JWTAuth(authService))
		{
			sessions.GET("", sessionHandler.ListSessions)
			sessions.POST("", sessionHandler.CreateSession)
			sessions.GET("/:id", sessionHandler.GetSession)
			sessions.POST("/:id/join", sessionHandler.JoinSession)
			sessions.GET("/:id/participants", sessionHandler.GetParticipants)
			sessions.GET("/:id/activity", sessionHandler.ActivityFeed)
			sessions.GET("/:id/questions", questionHandler.ListSessionQuestions)
			sessions.POST("/:id/questions", questionHandler.AddQuestion)
			sessions.POST("/:id/publish", sessionHandler.PublishQuestions)
			sessions.POST("/:id/close", sessionHandler.CloseSession)
			sessions.POST("/:id/reopen", sessionHandler.ReopenSession)
		}

		drafts := api.Group("/drafts")
		drafts.Use(middleware.JWTAuth(authService))
		{
			drafts.PUT("/:id", questionHandler.UpdateQuestion)
			drafts.POST("/:id/review", questionHandler.ReviewQuestion)
		}

		questions := api.Group("/questions")
		questions.Use(middleware.JWTAuth(authService))
		{
			questions.GET("", questionHandler.ListQuestions)
			questions.GET("/:id", questionHandler.GetQuestion)
		}
	}

	log.Printf("server starting on :%s", cfg.ServerPort)
	if err := r.Run(":" + cfg.ServerPort); err != nil {
		log.Fatalf("failed to start server: %v", err)
	}
}
