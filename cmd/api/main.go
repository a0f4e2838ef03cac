package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"

	"github.com/lettura-app/lettura-engine/internal/adapters/cache"
	adapterHTTP "github.com/lettura-app/lettura-engine/internal/adapters/handler/http"
	"github.com/lettura-app/lettura-engine/internal/adapters/repository"
	"github.com/lettura-app/lettura-engine/internal/core/domain"
	"github.com/lettura-app/lettura-engine/internal/core/services"
	"github.com/lettura-app/lettura-engine/internal/core/workers"
)

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	startTime := time.Now()

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading configuration from environment")
	}

	dbUser := os.Getenv("DB_USER")
	dbPass := os.Getenv("DB_PASSWORD")
	dbName := os.Getenv("DB_NAME")
	dbHost := getenv("DB_HOST", "localhost")
	dbPort := getenv("DB_PORT", "5432")
	serverPort := getenv("PORT", "8080")

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal("Critical: JWT_SECRET must be set")
	}
	jwtIssuer := getenv("JWT_ISSUER", "lettura-engine")

	tokenTTL := 24 * time.Hour
	if ttlStr := os.Getenv("TOKEN_TTL_HOURS"); ttlStr != "" {
		hours, err := strconv.Atoi(ttlStr)
		if err != nil || hours <= 0 {
			log.Fatalf("Critical: invalid TOKEN_TTL_HOURS: %q", ttlStr)
		}
		tokenTTL = time.Duration(hours) * time.Hour
	}

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		dbUser, dbPass, dbHost, dbPort, dbName)

	log.Println("Connecting to database...")

	db, err := sqlx.Connect("pgx", dsn)
	if err != nil {
		log.Fatalf("Critical: Failed to connect to database: %v", err)
	}
	defer db.Close()

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	log.Println("Database connected successfully.")

	// Redis is optional: without it the API runs uncached and unthrottled.
	redisAddr := fmt.Sprintf("%s:%s", getenv("REDIS_HOST", "localhost"), getenv("REDIS_PORT", "6379"))
	redisClient, err := cache.NewRedisClient(redisAddr, os.Getenv("REDIS_PASSWORD"), 0)
	if err != nil {
		log.Printf("Redis unavailable, continuing without cache: %v", err)
		redisClient = nil
	}

	var bookRepo domain.BookRepository = repository.NewPostgresBookRepository(db)
	if redisClient != nil {
		bookRepo = repository.NewCachedBookRepository(bookRepo, redisClient)
	}
	historyRepo := repository.NewPostgresStreakHistoryRepository(db)
	userRepo := repository.NewPostgresUserRepository(db)

	worker := workers.NewStreakWorker(bookRepo, historyRepo)
	workerCtx, stopWorker := context.WithCancel(context.Background())
	defer stopWorker()
	worker.Start(workerCtx)

	authService := services.NewAuthService(userRepo)
	tokenService := services.NewTokenService(jwtSecret, jwtIssuer, tokenTTL, userRepo)
	bookService := services.NewBookService(bookRepo, historyRepo, worker)
	streakService := services.NewStreakService(bookRepo, historyRepo)
	importService := services.NewImportService(bookRepo, historyRepo, worker, nil)

	router := adapterHTTP.NewRouter(adapterHTTP.RouterDependencies{
		AuthHandler:   adapterHTTP.NewAuthHandler(authService, tokenService),
		BookHandler:   adapterHTTP.NewBookHandler(bookService),
		StreakHandler: adapterHTTP.NewStreakHandler(streakService),
		ImportHandler: adapterHTTP.NewImportHandler(importService),
		TokenService:  tokenService,
		DB:            db,
		Redis:         redisClient,
		StartTime:     startTime,
	})

	srv := &http.Server{
		Addr:         ":" + serverPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Printf("Lettura Engine running on http://localhost:%s", serverPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Critical server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Stop signal received. Shutting down...")

	stopWorker()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Forced shutdown error:", err)
	}

	log.Println("Server stopped gracefully.")
}
