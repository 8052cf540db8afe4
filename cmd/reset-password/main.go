package main

import (
	"context"
	"flag"
	"os"

	"go-inventory-procurement/internal/config"
	"go-inventory-procurement/internal/model"
	"go-inventory-procurement/internal/repository"
	"go-inventory-procurement/pkg/database"
	"go-inventory-procurement/pkg/logger"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

func main() {
	email := flag.String("email", "admin@example.com", "user whose password is reset")
	password := flag.String("password", "", "new password (required)")
	flag.Parse()

	envErr := godotenv.Load()
	cfg := config.Load()
	log := logger.New(cfg.LogLevel)
	if envErr != nil {
		log.Info(".env file not found, relying on system env")
	}
	if *password == "" {
		log.Error("-password is required")
		os.Exit(2)
	}

	db, err := database.ConnectDB(cfg.Database, log)
	if err != nil {
		log.WithError(err).Fatal("database unavailable")
	}

	ctx := context.Background()
	users := repository.NewUserRepo(db)
	user, err := users.FindByEmail(ctx, *email)
	if err != nil {
		log.WithError(err).WithField("email", *email).Fatal("user not found")
	}

	var hashed model.User
	if err := hashed.SetPassword(*password); err != nil {
		log.WithError(err).Fatal("failed to hash password")
	}
	if err := users.UpdatePassword(ctx, user.ID, hashed.Password); err != nil {
		log.WithError(err).Fatal("failed to update password")
	}
	// log out every active session
	if err := users.UpdateSession(ctx, user.ID, uuid.New().String()); err != nil {
		log.WithError(err).Fatal("failed to reset session")
	}

	log.WithField("email", *email).Info("password reset")
}
