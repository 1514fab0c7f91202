// Package main provides staff management and event inspection utilities.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"social/internal/cache"
	"social/internal/config"
	"social/internal/database"
	"social/internal/middleware"
	"social/internal/models"
	"social/internal/notifications"

	"gorm.io/gorm"
)

func printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  go run ./cmd/admin promote <user_id>       - Grant staff rights")
	fmt.Println("  go run ./cmd/admin demote <user_id>        - Revoke staff rights")
	fmt.Println("  go run ./cmd/admin list-staff              - List all staff accounts")
	fmt.Println("  go run ./cmd/admin tail-events [pattern]   - Print published events (default user:* chat:*)")
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	middleware.InitLogger(cfg.Env)

	command := os.Args[1]
	if command == "tail-events" {
		if err := tailEvents(cfg, os.Args[2:]); err != nil {
			log.Fatalf("tail-events: %v", err)
		}
		return
	}

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	switch command {
	case "promote", "demote":
		if len(os.Args) < 3 {
			fmt.Printf("Usage: go run ./cmd/admin %s <user_id>\n", command)
			os.Exit(1)
		}
		setStaff(db, os.Args[2], command == "promote")

	case "list-staff":
		listStaff(db)

	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func setStaff(db *gorm.DB, userID string, staff bool) {
	var user models.User
	if err := db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			fmt.Printf("User with ID %s not found\n", userID)
		} else {
			log.Fatalf("Database error: %v", err)
		}
		os.Exit(1)
	}

	if user.IsStaff == staff {
		fmt.Printf("User %s (ID: %d) already has is_staff=%t\n", user.Username, user.ID, staff)
		return
	}

	if err := db.Model(&user).Update("is_staff", staff).Error; err != nil {
		log.Fatalf("Failed to update user: %v", err)
	}

	verb := "promoted"
	if !staff {
		verb = "demoted"
	}
	fmt.Printf("Successfully %s %s (ID: %d)\n", verb, user.Username, user.ID)
}

func listStaff(db *gorm.DB) {
	var staff []models.User
	if err := db.Where("is_staff = ?", true).Order("id ASC").Find(&staff).Error; err != nil {
		log.Fatalf("Failed to fetch staff: %v", err)
	}

	if len(staff) == 0 {
		fmt.Println("No staff accounts found")
		return
	}

	fmt.Println("Current staff:")
	for _, u := range staff {
		fmt.Printf("ID: %d | Username: %s | Email: %s\n", u.ID, u.Username, u.Email)
	}
}

func tailEvents(cfg *config.Config, patterns []string) error {
	rdb, err := cache.NewClient(cfg.RedisURL)
	if err != nil {
		return err
	}
	defer func() { _ = rdb.Close() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	notifier := notifications.NewNotifier(rdb)
	err = notifier.Subscribe(ctx, func(channel string, evt notifications.Event) {
		data, _ := json.Marshal(evt.Data)
		fmt.Printf("%s %-8s %-20s actor=%d %s\n",
			evt.OccurredAt.Format("15:04:05.000"), channel, evt.Type, evt.ActorID, data)
	}, patterns...)
	if err != nil {
		return err
	}

	fmt.Println("Listening for events, Ctrl+C to stop")
	<-ctx.Done()
	return nil
}
