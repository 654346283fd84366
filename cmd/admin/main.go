package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"

	"strangerchat/backend/internal/config"
	"strangerchat/backend/internal/storage"

	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	cfg := config.Load()

	db, err := gorm.Open(postgres.Open(cfg.PostgresDSN), &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})

	store := storage.NewService(db, rdb)
	ctx := context.Background()

	if len(os.Args) < 2 {
		fmt.Println("Usage: admin <reports|queue|end-session> [args]")
		os.Exit(1)
	}

	switch os.Args[1] {
	case "reports":
		limit := 20
		if len(os.Args) > 2 {
			limit, err = strconv.Atoi(os.Args[2])
			if err != nil {
				fmt.Println("Invalid limit. Please provide an integer.")
				os.Exit(1)
			}
		}
		reports, err := store.RecentReports(ctx, limit)
		if err != nil {
			log.Fatalf("Error listing reports: %v", err)
		}
		for _, r := range reports {
			fmt.Printf("%d\t%s\t%s\t%s\n", r.ID, r.CreatedAt.Format("2006-01-02 15:04:05"), r.ReporterID, r.Reason)
		}

	case "queue":
		entries, err := store.WaitingEntries(ctx)
		if err != nil {
			log.Fatalf("Error reading waiting pool: %v", err)
		}
		fmt.Printf("%d waiting\n", len(entries))
		for _, e := range entries {
			fmt.Printf("%s\t%s\n", e.EnqueuedAt.Format("2006-01-02 15:04:05"), e.UserID)
		}

	case "end-session":
		if len(os.Args) != 3 {
			fmt.Println("Usage: admin end-session <user_id>")
			os.Exit(1)
		}
		partner, err := store.EndFor(ctx, os.Args[2])
		if err != nil {
			log.Fatalf("Error ending session: %v", err)
		}
		if partner == "" {
			fmt.Println("No active session for that user.")
		} else {
			fmt.Printf("Session ended; partner was %s.\n", partner)
		}

	default:
		fmt.Println("Unknown command")
		os.Exit(1)
	}
}
