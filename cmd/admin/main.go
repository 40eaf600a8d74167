// Package main provides account administration utilities for the blog.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"myblog/internal/config"
	"myblog/internal/database"
	"myblog/internal/models"
	"myblog/internal/repository"

	"gorm.io/gorm"
)

func usage() {
	fmt.Println("Usage:")
	fmt.Println("  go run ./cmd/admin grant <username> <codename>...    - Grant permissions")
	fmt.Println("  go run ./cmd/admin revoke <username> <codename>...   - Revoke permissions")
	fmt.Println("  go run ./cmd/admin superuser <username> on|off       - Toggle superuser")
	fmt.Println("  go run ./cmd/admin active <username> on|off          - Enable or disable login")
	fmt.Println("  go run ./cmd/admin show <username>                   - Show flags and permissions")
	fmt.Println()
	fmt.Println("Codenames: " + strings.Join(models.AllPermissions, ", "))
}

func main() {
	if len(os.Args) < 3 {
		usage()
		os.Exit(1)
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
	users := repository.NewUserRepository(db)
	command, args := os.Args[1], os.Args[2:]
	user := lookup(ctx, users, args[0])

	switch command {
	case "grant", "revoke":
		codenames := args[1:]
		if len(codenames) == 0 {
			usage()
			os.Exit(1)
		}
		for _, c := range codenames {
			if !knownPermission(c) {
				log.Fatalf("Unknown permission %q", c)
			}
		}
		if command == "grant" {
			err = users.Grant(ctx, user.ID, codenames...)
		} else {
			err = users.Revoke(ctx, user.ID, codenames...)
		}
		if err != nil {
			log.Fatalf("Failed to %s permissions: %v", command, err)
		}
		fmt.Printf("✅ %s: %s %s\n", user.Username, command, strings.Join(codenames, ", "))

	case "superuser", "active":
		on := flagArg(args)
		if command == "superuser" {
			err = users.SetSuperuser(ctx, user.ID, on)
		} else {
			err = users.SetActive(ctx, user.ID, on)
		}
		if err != nil {
			log.Fatalf("Failed to update %s: %v", user.Username, err)
		}
		fmt.Printf("✅ %s: %s=%v\n", user.Username, command, on)

	case "show":
		perms, err := users.Permissions(ctx, user.ID)
		if err != nil {
			log.Fatalf("Failed to load permissions: %v", err)
		}
		fmt.Printf("ID: %d | Username: %s | Email: %s\n", user.ID, user.Username, user.Email)
		fmt.Printf("Active: %v | Superuser: %v\n", user.IsActive, user.IsSuperuser)
		fmt.Printf("Permissions: %s\n", strings.Join(perms, ", "))

	default:
		fmt.Printf("Unknown command: %s\n", command)
		usage()
		os.Exit(1)
	}
}

func lookup(ctx context.Context, users repository.UserRepository, username string) *models.User {
	user, err := users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			fmt.Printf("User %s not found\n", username)
			os.Exit(1)
		}
		log.Fatalf("Database error: %v", err)
	}
	return user
}

func flagArg(args []string) bool {
	if len(args) < 2 {
		usage()
		os.Exit(1)
	}
	switch args[1] {
	case "on", "true", "yes":
		return true
	case "off", "false", "no":
		return false
	}
	usage()
	os.Exit(1)
	return false
}

func knownPermission(codename string) bool {
	for _, p := range models.AllPermissions {
		if p == codename {
			return true
		}
	}
	return false
}
