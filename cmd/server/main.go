package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/yourorg/trade-journal/internal/auth"
	"github.com/yourorg/trade-journal/internal/gateway"
	"github.com/yourorg/trade-journal/internal/journal"
	pgRepo "github.com/yourorg/trade-journal/internal/repository/postgres"
	"github.com/yourorg/trade-journal/internal/scan"
)

func main() {
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	backendName := os.Getenv("STORAGE_BACKEND")
	if backendName == "" {
		backendName = "file"
	}
	journalPath := os.Getenv("JOURNAL_PATH")
	if journalPath == "" {
		journalPath = "data"
	}
	dbURL := os.Getenv("DATABASE_URL")
	redisURL := os.Getenv("REDIS_URL")
	jwtSecret := os.Getenv("JWT_SECRET")
	ocrURL := os.Getenv("OCR_URL")
	ocrKey := os.Getenv("OCR_API_KEY")
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	policy := journal.RecoverDrop
	if os.Getenv("CORRUPT_POLICY") == "fail" {
		policy = journal.RecoverFail
	}

	// The document store always exists: in postgres mode it still carries
	// the expense collection, the relational repos take over trades and
	// users.
	var backend journal.Backend
	switch backendName {
	case "memory":
		backend = journal.NewMemoryBackend()
	case "redis":
		client, err := journal.ConnectRedis(redisURL)
		if err != nil {
			logger.Error("failed to connect to redis", "err", err)
			os.Exit(1)
		}
		logger.Info("redis connected")
		backend = journal.NewRedisBackend(client)
	case "file", "postgres":
		fb, err := journal.NewFileBackend(journalPath)
		if err != nil {
			logger.Error("failed to open journal directory", "err", err, "path", journalPath)
			os.Exit(1)
		}
		backend = fb
	default:
		logger.Error("unknown STORAGE_BACKEND", "backend", backendName)
		os.Exit(1)
	}

	store := journal.NewStore(backend, policy, logger)

	var (
		users    gateway.UserStore    = store
		trades   gateway.TradeStore   = store
		expenses gateway.ExpenseStore = store
	)

	if backendName == "postgres" {
		db, err := pgRepo.Connect(dbURL)
		if err != nil {
			logger.Error("failed to connect to database", "err", err)
			os.Exit(1)
		}
		logger.Info("database connected")

		if err := pgRepo.RunMigrations(dbURL, "migrations"); err != nil {
			logger.Error("failed to run migrations", "err", err)
			os.Exit(1)
		}
		logger.Info("migrations applied")

		users = pgRepo.NewUserRepo(db)
		trades = pgRepo.NewTradeRepo(db, time.Local)
	}

	jwtSvc := auth.NewJWTService(jwtSecret)
	hub := gateway.NewHub(logger)
	scanner := scan.New(scan.NewOCRClient(ocrURL, ocrKey, logger), logger)

	handlers := gateway.NewHandlers(users, trades, expenses, scanner, jwtSvc, hub, logger, time.Local)
	router := gateway.NewRouter(handlers, hub, jwtSvc)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go hub.Run(ctx)

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server starting", "port", port, "backend", backendName)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "err", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "err", err)
	}
	logger.Info("server stopped")
}
