package http

import (
	"time"

	"github.com/gin-gonic/gin"

	"studydesk/internal/ai"
	appsvc "studydesk/internal/app"
	"studydesk/internal/bootstrap"
	"studydesk/internal/cache"
	"studydesk/internal/platform/rabbitmq"
	"studydesk/internal/repository"
	"studydesk/internal/transport/http/handler"
	"studydesk/internal/transport/http/middleware"
)

func NewRouter(app *bootstrap.App) *gin.Engine {
	gin.SetMode(app.Config.App.GinMode)
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	healthHandler := handler.NewHealthHandler(app)
	router.GET("/healthz", healthHandler.Check)

	sessionRepo := repository.NewSessionRepository(app.MySQL)
	docRepo := repository.NewDocumentRepository(app.MySQL)
	chatRepo := repository.NewChatRepository(app.MySQL)
	questionRepo := repository.NewQuestionRepository(app.MySQL)

	historyCache := cache.NewHistoryCache(
		app.Redis,
		time.Duration(app.Config.Redis.HistoryTTLSeconds)*time.Second,
		time.Duration(app.Config.Redis.HistoryDirtyTTLSeconds)*time.Second,
	)
	stateCache := cache.NewStateCache(
		app.Redis,
		time.Duration(app.Config.Redis.StateTTLSeconds)*time.Second,
	)
	publisher := rabbitmq.NewSummarizeJobPublisher(app.MQConn, app.Config.RabbitMQ.SummarizeQueue)
	qaProvider := ai.NewQAProvider(app.AI, app.Config.AI.QAModel)

	authService := appsvc.NewAuthService(sessionRepo, app.Config.Auth.Password, app.Config.Auth.PasswordHash)
	documentService := appsvc.NewDocumentService(
		docRepo,
		chatRepo,
		publisher,
		historyCache,
		stateCache,
		qaProvider,
		app.Config.AI.QAContextChars,
	)
	quizService := appsvc.NewQuizService(docRepo, questionRepo)

	authHandler := handler.NewAuthHandler(authService)
	documentHandler := handler.NewDocumentHandler(documentService, quizService)

	api := router.Group("/api")
	api.POST("/login", authHandler.Login)
	api.POST("/logout", authHandler.Logout)
	api.GET("/auth/status", authHandler.Status)

	docs := api.Group("/documents")
	docs.Use(middleware.RequireSession(authService))
	docs.POST("", documentHandler.Upload)
	docs.GET("/:id", documentHandler.Get)
	docs.POST("/:id/summarize", documentHandler.Summarize)
	docs.POST("/:id/chat", documentHandler.Chat)
	docs.GET("/:id/chat", documentHandler.History)
	docs.POST("/:id/quiz", documentHandler.Quiz)

	return router
}
