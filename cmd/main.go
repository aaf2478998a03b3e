package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/Basit2121/OneSuite/internal/api/handler"
	"github.com/Basit2121/OneSuite/internal/config"
	"github.com/Basit2121/OneSuite/internal/signalhub"
	"github.com/Basit2121/OneSuite/internal/storage"
	"github.com/Basit2121/OneSuite/internal/sweeper"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupDependencies(cfg *config.Config) (*gorm.DB, *redis.Client) {
	// 1. Database: PostgreSQL when configured, SQLite file otherwise
	var dialector gorm.Dialector
	if cfg.DatabaseURL != "" {
		dialector = postgres.Open(cfg.DatabaseURL)
	} else {
		log.Printf("INFO: DATABASE_URL not set, using SQLite at %s", cfg.SQLitePath)
		dialector = sqlite.Open(cfg.SQLitePath)
	}

	db, err := gorm.Open(dialector, &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatalf("Failed to connect database: %v", err)
	}

	// 2. Redis, optional: powers the live event feed
	var rdb *redis.Client
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Fatalf("Invalid REDIS_URL: %v", err)
		}
		rdb = redis.NewClient(opts)
		if _, err := rdb.Ping(context.Background()).Result(); err != nil {
			log.Fatalf("Failed to connect Redis: %v", err)
		}
	}

	// 3. Schema migration, once at startup
	if err := storage.Migrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	log.Println("Database connection established, migrations complete.")
	return db, rdb
}

func main() {
	log.Println("Starting OneSuite signaling backend...")

	cfg := config.Load()
	db, rdb := setupDependencies(cfg)
	s := storage.NewStorageService(db, rdb)

	// Live feed hub, only when Redis carries the envelope fanout
	var hub *signalhub.ManagerService
	if rdb != nil {
		hub = signalhub.NewManagerService(s)
		go hub.Run()
	}

	// Retention sweeper
	sw := sweeper.New(s, cfg.SignalTTL, cfg.SweepInterval)
	go sw.Run(context.Background())

	// Gin routing
	r := gin.Default()
	h := handler.NewHandler(s, hub, []byte(cfg.JWTSecret), cfg.SignalTTL)
	h.RegisterRoutes(r)

	server := &http.Server{
		Addr:           ":" + cfg.Port,
		Handler:        r,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	log.Fatal(server.ListenAndServe())
}
