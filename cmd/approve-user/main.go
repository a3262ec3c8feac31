package main

import (
	"context"
	"flag"
	"log"
	"strings"

	"go-inventory-sales/internal/config"
	"go-inventory-sales/internal/logger"
	"go-inventory-sales/internal/model"
	"go-inventory-sales/internal/repository"
	"go-inventory-sales/pkg/database"
)

// approve-user approves a registered identity from the command line, for
// bootstrapping the first administrator.
func main() {
	email := flag.String("email", "", "email of the user to approve")
	admin := flag.Bool("admin", false, "also grant administrator rights")
	flag.Parse()

	if strings.TrimSpace(*email) == "" {
		log.Fatal("❌ -email is required")
	}

	// 1. Load Env
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("❌ Failed to load config: %v", err)
	}

	// 2. Setup Database
	db, err := database.Connect(cfg.DatabaseOptions(), logger.Setup(cfg.LogLevel))
	if err != nil {
		log.Fatalf("❌ %v", err)
	}
	if err := repository.AutoMigrate(db); err != nil {
		log.Fatalf("❌ Failed to migrate schema: %v", err)
	}

	// 3. Find user
	ctx := context.Background()
	users := repository.NewUserRepo(db)
	user, err := users.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(*email)))
	if err != nil {
		log.Fatalf("❌ User %s not found in database (sign in once first): %v", *email, err)
	}

	// 4. Update
	if err := users.UpdateStatus(ctx, user.Email, model.UserApproved, user.IsAdmin || *admin); err != nil {
		log.Fatalf("❌ Failed to approve user: %v", err)
	}

	log.Printf("✅ Success! %s is approved (admin: %t)", user.Email, user.IsAdmin || *admin)
}
