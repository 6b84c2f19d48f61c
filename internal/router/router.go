package router

import (
	"log"

	"firebase.google.com/go/v4/auth"
	"github.com/labstack/echo/v4"
	eMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/otabek42/blogium/backend/internal/fanout"
	"github.com/otabek42/blogium/backend/internal/handlers"
	"github.com/otabek42/blogium/backend/internal/middleware"
	"github.com/otabek42/blogium/backend/internal/models"
	"github.com/otabek42/blogium/backend/internal/repositories"
	"github.com/otabek42/blogium/backend/internal/ws"
	"github.com/otabek42/blogium/backend/pkg/mailer"
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"
)

// SetupMiddleware configures global Echo middleware
func SetupMiddleware(e *echo.Echo) {
	e.Use(eMiddleware.Logger())
	e.Use(eMiddleware.Recover())
	e.Use(eMiddleware.CORS())
	log.Println("Global middleware configured.")
}

// SetupRoutes configures all application routes and injects dependencies
func SetupRoutes(
	e *echo.Echo,
	pgdb *gorm.DB,
	mgClient *mongo.Client,
	firebaseAuthClient *auth.Client,
	mail mailer.Mailer,
	broker *ws.Broker,
) {
	// AutoMigrate PostgreSQL models
	err := pgdb.AutoMigrate(
		&models.User{},
		&models.Follow{},
		&models.Comment{},
		&models.Like{},
		&models.Notification{},
		&models.EmailVerificationCode{},
	)
	if err != nil {
		log.Fatalf("Failed to auto migrate models: %v", err)
	}
	log.Println("PostgreSQL auto-migrations completed for all models.")

	// Health check - always accessible
	e.GET("/health", handlers.HealthCheck)

	// --- Initialize Repositories ---
	userRepo := repositories.NewPostgresUserRepository(pgdb)
	followRepo := repositories.NewPostgresFollowRepository(pgdb)
	postRepo := repositories.NewMongoPostRepository(mgClient.Database("blogium"))
	commentRepo := repositories.NewPostgresCommentRepository(pgdb)
	likeRepo := repositories.NewPostgresLikeRepository(pgdb)
	notificationRepo := repositories.NewPostgresNotificationRepository(pgdb)
	emailCodeRepo := repositories.NewPostgresEmailCodeRepository(pgdb)

	// Fan-out orchestrator delivers notifications durably and then live
	orchestrator := fanout.NewOrchestrator(followRepo, notificationRepo, userRepo, broker)

	// --- WebSocket endpoint for live notification delivery ---
	wsHandler := ws.NewHandler(broker)
	wsHandler.RegisterWSRoutes(e)
	log.Println("WebSocket routes configured.")

	// --- Unprotected routes for authentication ---
	authGroup := e.Group("/api/v1/auth")
	authHandler := handlers.NewAuthHandler(userRepo, emailCodeRepo, mail, firebaseAuthClient)
	authHandler.RegisterAuthRoutes(authGroup)
	log.Println("Auth routes configured.")

	// --- Protected routes (require JWT authentication) ---
	api := e.Group("/api/v1")
	api.Use(middleware.JWTAuthMiddleware())
	log.Println("JWT authentication middleware applied to /api/v1 group.")

	// User profile routes
	userHandler := handlers.NewUserHandler(userRepo, followRepo)
	userHandler.RegisterUserRoutes(api)
	log.Println("User profile routes configured.")

	// Follow routes
	followHandler := handlers.NewFollowHandler(followRepo, userRepo, orchestrator)
	followHandler.RegisterFollowRoutes(api)
	log.Println("Follow routes configured.")

	// Post routes
	postHandler := handlers.NewPostHandler(postRepo, userRepo, orchestrator)
	postHandler.RegisterPostRoutes(api)
	log.Println("Post routes configured.")

	// Feed routes
	feedHandler := handlers.NewFeedHandler(postRepo, followRepo)
	feedHandler.RegisterFeedRoutes(api)
	log.Println("Feed routes configured.")

	// Comment routes
	commentHandler := handlers.NewCommentHandler(commentRepo, postRepo, userRepo, orchestrator)
	commentHandler.RegisterCommentRoutes(api)
	log.Println("Comment routes configured.")

	// Like routes
	likeHandler := handlers.NewLikeHandler(likeRepo, postRepo, userRepo, orchestrator)
	likeHandler.RegisterLikeRoutes(api)
	log.Println("Like routes configured.")

	// Notification routes
	notificationHandler := handlers.NewNotificationHandler(notificationRepo, userRepo)
	notificationHandler.RegisterNotificationRoutes(api)
	log.Println("Notification routes configured.")

	log.Println("All routes configured.")
}
