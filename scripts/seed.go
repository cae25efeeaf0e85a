//go:build ignore

package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/hugh/meetly/internal/auth"
	"github.com/hugh/meetly/internal/database"
	"github.com/hugh/meetly/internal/database/models"
	"github.com/hugh/meetly/pkg/config"
	"github.com/hugh/meetly/pkg/util"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := util.NewLogger(cfg.Server.Env)

	db, err := database.Connect(&cfg.Database, logger)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	// Run migrations
	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}

	// Create demo user
	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.Expiry())
	authService := auth.NewService(db, jwtService)

	email := os.Getenv("DEMO_EMAIL")
	password := os.Getenv("DEMO_PASSWORD")
	name := os.Getenv("DEMO_NAME")

	if email == "" {
		email = "demo@example.com"
	}
	if password == "" {
		password = "demo1234!"
	}
	if name == "" {
		name = "Demo User"
	}

	resp, err := authService.Register(context.Background(), auth.RegisterInput{
		Email:    email,
		Password: password,
		Name:     name,
	})

	if err != nil {
		if err == auth.ErrUserExists {
			fmt.Printf("Demo user already exists: %s\n", email)
			return
		}
		log.Fatalf("failed to create demo user: %v", err)
	}

	// Seed a couple of agents and a meeting for the demo account
	tutor := models.Agent{
		UserID:       resp.User.ID,
		Name:         "Language Tutor",
		Instructions: "You are a patient language tutor. Keep explanations short and correct mistakes gently.",
	}
	interviewer := models.Agent{
		UserID:       resp.User.ID,
		Name:         "Mock Interviewer",
		Instructions: "You are a technical interviewer. Ask one question at a time and probe for depth.",
	}
	if err := db.Create(&tutor).Error; err != nil {
		log.Fatalf("failed to seed agent: %v", err)
	}
	if err := db.Create(&interviewer).Error; err != nil {
		log.Fatalf("failed to seed agent: %v", err)
	}

	meeting := models.Meeting{
		UserID:  resp.User.ID,
		AgentID: tutor.ID,
		Name:    "Spanish practice",
		Status:  models.MeetingStatusUpcoming,
	}
	if err := db.Create(&meeting).Error; err != nil {
		log.Fatalf("failed to seed meeting: %v", err)
	}

	fmt.Printf("Demo user created successfully!\n")
	fmt.Printf("Email: %s\n", resp.User.Email)
	fmt.Printf("Token: %s\n", resp.Token)
}
