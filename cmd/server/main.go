package main

import (
	"context"
	"log"

	"github.com/labstack/echo/v4"
	"github.com/otabek42/blogium/backend/internal/router"
	"github.com/otabek42/blogium/backend/internal/ws"
	"github.com/otabek42/blogium/backend/pkg/config"
	"github.com/otabek42/blogium/backend/pkg/firebase"
	"github.com/otabek42/blogium/backend/pkg/mailer"

	"firebase.google.com/go/v4/auth"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize database connections
	db, err := config.InitDB(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize databases: %v", err)
	}
	defer db.CloseDB() // Ensure database connections are closed when main exits

	// Initialize Firebase when credentials are configured
	var firebaseAuthClient *auth.Client
	if cfg.FirebaseCredentialsPath != "" {
		ctx := context.Background()
		firebaseApp, err := firebase.InitFirebase(ctx, cfg.FirebaseCredentialsPath)
		if err != nil {
			log.Fatalf("Failed to initialize Firebase: %v", err)
		}
		firebaseAuthClient = firebaseApp.AuthClient
	} else {
		log.Println("Firebase credentials not configured, Firebase login disabled.")
	}

	// Pick the mailer: real SMTP when configured, log output otherwise
	var mail mailer.Mailer
	if cfg.SMTPHost != "" {
		mail, err = mailer.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPFromEmail)
		if err != nil {
			log.Fatalf("Failed to configure SMTP mailer: %v", err)
		}
	} else {
		log.Println("SMTP not configured, verification codes will be logged.")
		mail = mailer.LogMailer{}
	}

	// Broker carries live notifications to connected WebSocket clients
	broker := ws.NewBroker()

	// Create Echo instance
	e := echo.New()

	// Setup global middleware
	router.SetupMiddleware(e)

	// Setup routes and dependencies
	router.SetupRoutes(e, db.Postgres, db.Mongo, firebaseAuthClient, mail, broker)

	// Start server
	e.Logger.Fatal(e.Start(":" + cfg.Port))
}
