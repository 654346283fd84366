package main

import (
	"context"
	"log"
	"net/http"

	"strangerchat/backend/internal/api/handler"
	"strangerchat/backend/internal/config"
	"strangerchat/backend/internal/engine"
	"strangerchat/backend/internal/hub"
	"strangerchat/backend/internal/models"
	"strangerchat/backend/internal/storage"
	"strangerchat/backend/internal/telegram"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupDependencies(cfg config.Config) (*gorm.DB, *redis.Client) {
	// TranslateError turns driver duplicate-key failures into
	// gorm.ErrDuplicatedKey, which the session registry relies on.
	db, err := gorm.Open(postgres.Open(cfg.PostgresDSN), &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatalf("Failed to connect PostgreSQL: %v", err)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       0,
	})
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Fatalf("Failed to connect Redis: %v", err)
	}

	err = db.AutoMigrate(
		&models.Session{},
		&models.Report{},
		&models.User{},
		&models.ChatHistory{},
	)
	if err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	log.Println("Database and Redis connections established, migrations complete.")
	return db, rdb
}

func main() {
	log.Println("Starting StrangerChat backend...")

	if err := godotenv.Load(); err != nil {
		log.Println("Warning: no .env file loaded")
	}
	cfg := config.Load()
	if cfg.BotToken == "" {
		log.Fatal("TELEGRAM_BOT_TOKEN is not set")
	}
	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET is not set")
	}

	db, rdb := setupDependencies(cfg)
	store := storage.NewService(db, rdb)

	h := hub.New()
	eng := engine.New(store, h)

	bot, err := telegram.NewBotService(cfg.BotToken, eng, h, store)
	if err != nil {
		log.Fatalf("Failed to start Telegram bot: %v", err)
	}

	if cfg.WebhookURL != "" {
		if err := bot.SetWebhook(cfg.WebhookURL); err != nil {
			log.Fatalf("Failed to set webhook: %v", err)
		}
	} else {
		go bot.Run()
	}

	r := gin.Default()
	api := handler.NewHandler(h, eng, bot, []byte(cfg.JWTSecret))

	r.GET("/", api.Health)
	r.GET("/anonid", api.GetAnonID)
	r.GET("/ws", api.ServeWebSocket)
	r.POST("/webhook", api.TelegramWebhook)

	server := &http.Server{
		Addr:           cfg.HTTPAddr,
		Handler:        r,
		ReadTimeout:    config.HTTPReadTimeout,
		WriteTimeout:   config.HTTPWriteTimeout,
		MaxHeaderBytes: 1 << 20,
	}

	log.Printf("HTTP server listening on %s", cfg.HTTPAddr)
	log.Fatal(server.ListenAndServe())
}
