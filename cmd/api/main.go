package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"example.com/tribe/internal/achievement"
	"example.com/tribe/internal/api"
	"example.com/tribe/internal/auth"
	"example.com/tribe/internal/cache"
	"example.com/tribe/internal/config"
	"example.com/tribe/internal/domain"
	"example.com/tribe/internal/engine"
	"example.com/tribe/internal/events"
	"example.com/tribe/internal/persistence/memory"
	persistence "example.com/tribe/internal/persistence/postgres"
	"example.com/tribe/internal/quest"
	"example.com/tribe/internal/syncqueue"
	"example.com/tribe/internal/tracker"
	httptransport "example.com/tribe/internal/transport/http"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		logs         domain.LogRepository
		profiles     domain.ProfileRepository
		gamification domain.GamificationRepository
		queueStore   syncqueue.Store
	)

	switch cfg.Store {
	case "memory":
		store := memory.NewStore()
		logs = store.Logs()
		profiles = store.Profiles()
		gamification = store.Gamification()
		queueStore = syncqueue.NewMemoryStore()
	default:
		pool, err := pgxpool.New(ctx, cfg.PostgresURL)
		if err != nil {
			log.Fatalf("failed to connect to postgres: %v", err)
		}
		defer pool.Close()

		repo := persistence.NewRepository(pool)
		logs = repo.Logs()
		profiles = repo.Profiles()
		gamification = repo.Gamification()
		queueStore = persistence.NewQueueStore(pool)
	}

	emitter := events.NewKafkaEmitter(cfg.KafkaBrokers)
	defer emitter.Close()

	derive := engine.New(cfg.Policy)
	service := tracker.NewService(tracker.Deps{
		Logs:         logs,
		Profiles:     profiles,
		Gamification: gamification,
		Derive:       derive,
		Quests:       quest.New(cfg.Policy.Location),
		Badges:       achievement.New(derive),
		Cache:        cache.New(cfg.CacheTTL),
		Emitter:      emitter,
	})
	reconciler := syncqueue.NewReconciler(queueStore, service, emitter,
		syncqueue.WithMaxAttempts(cfg.SyncMaxAttempts))

	handler := api.NewHandler(service, reconciler)
	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)
	mux.Handle("/metrics", promhttp.Handler())

	// Simple CORS middleware for local dev
	cors := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "http://localhost:5173")
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}

	// Basic request logger
	logger := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log.Printf("%s %s", r.Method, r.URL.Path)
			next.ServeHTTP(w, r)
		})
	}

	authMiddleware := auth.NewMiddleware(
		auth.Config{Secret: cfg.JWTSecret, Issuer: cfg.JWTIssuer},
		func(r *http.Request) bool {
			return r.URL.Path == "/healthz" || r.URL.Path == "/metrics"
		},
	)

	server := httptransport.NewServer(httptransport.ServerConfig{
		Address:      cfg.HTTPAddress,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}, authMiddleware.Wrap(logger(cors(mux))))

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("tribe-service listening on %s", cfg.HTTPAddress)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-shutdownCh
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}
}
