// Package main provides admin management utilities for the showcase API.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"

	"showcase/internal/config"
	"showcase/internal/database"
	"showcase/internal/repository"
	"showcase/internal/service"

	"github.com/google/uuid"
)

func usage() {
	fmt.Println("Usage:")
	fmt.Println("  go run ./cmd/admin promote <email>                     - Grant admin rights")
	fmt.Println("  go run ./cmd/admin demote <email>                      - Revoke admin rights")
	fmt.Println("  go run ./cmd/admin list-admins                         - List all admins")
	fmt.Println("  go run ./cmd/admin assign-reviewer <competition_id> <user_id>")
	os.Exit(1)
}

func main() {
	if len(os.Args) < 2 {
		usage()
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	ctx := context.Background()
	userRepo := repository.NewUserRepository(db)
	users := service.NewUserService(userRepo)

	switch os.Args[1] {
	case "promote", "demote":
		if len(os.Args) < 3 {
			usage()
		}
		user, err := users.SetAdmin(ctx, os.Args[2], os.Args[1] == "promote")
		if err != nil {
			log.Fatalf("Failed to update %s: %v", os.Args[2], err)
		}
		fmt.Printf("%s (ID %d) admin=%t\n", user.Email, user.ID, user.IsAdmin())

	case "list-admins":
		admins, err := users.ListAdmins(ctx)
		if err != nil {
			log.Fatalf("Failed to list admins: %v", err)
		}
		if len(admins) == 0 {
			fmt.Println("No admins found")
			return
		}
		for _, a := range admins {
			fmt.Printf("%-6d %-40s %s %s\n", a.ID, a.Email, a.FirstName, a.LastName)
		}

	case "assign-reviewer":
		if len(os.Args) < 4 {
			usage()
		}
		competitionID, err := uuid.Parse(os.Args[2])
		if err != nil {
			log.Fatalf("Invalid competition ID %q: %v", os.Args[2], err)
		}
		userID, err := strconv.ParseUint(os.Args[3], 10, 32)
		if err != nil {
			log.Fatalf("Invalid user ID %q: %v", os.Args[3], err)
		}
		reviews := service.NewReviewService(
			repository.NewReviewRepository(db),
			repository.NewCompetitionRepository(db),
			repository.NewProjectRepository(db),
			userRepo,
			nil,
		)
		assignment, err := reviews.Assign(ctx, competitionID, uint(userID))
		if err != nil {
			log.Fatalf("Failed to assign reviewer: %v", err)
		}
		fmt.Printf("User %d reviews competition %s (status %s)\n", assignment.UserID, competitionID, assignment.Status)

	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		usage()
	}
}
