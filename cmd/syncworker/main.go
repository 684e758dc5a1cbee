package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/segmentio/kafka-go"

	"example.com/tribe/internal/achievement"
	"example.com/tribe/internal/cache"
	"example.com/tribe/internal/config"
	"example.com/tribe/internal/consumer"
	"example.com/tribe/internal/engine"
	"example.com/tribe/internal/events"
	persistence "example.com/tribe/internal/persistence/postgres"
	"example.com/tribe/internal/quest"
	"example.com/tribe/internal/syncqueue"
	"example.com/tribe/internal/tracker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.PostgresURL)
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer pool.Close()

	emitter := events.NewKafkaEmitter(cfg.KafkaBrokers)
	defer emitter.Close()

	repo := persistence.NewRepository(pool)
	derive := engine.New(cfg.Policy)
	service := tracker.NewService(tracker.Deps{
		Logs:         repo.Logs(),
		Profiles:     repo.Profiles(),
		Gamification: repo.Gamification(),
		Derive:       derive,
		Quests:       quest.New(cfg.Policy.Location),
		Badges:       achievement.New(derive),
		Cache:        cache.New(cfg.CacheTTL),
		Emitter:      emitter,
	})
	reconciler := syncqueue.NewReconciler(persistence.NewQueueStore(pool), service, emitter,
		syncqueue.WithMaxAttempts(cfg.SyncMaxAttempts))

	handler := consumer.NewPersistenceHandler(pool)

	metricsSrv := &http.Server{Addr: cfg.MetricsAddress, Handler: promhttp.Handler()}

	go func() {
		log.Printf("syncworker metrics listening on %s", cfg.MetricsAddress)
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("metrics server error: %v", err)
		}
	}()

	var wg sync.WaitGroup
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	for _, topic := range cfg.ConsumerTopics {
		reader := kafka.NewReader(kafka.ReaderConfig{
			Brokers:         cfg.KafkaBrokers,
			GroupID:         cfg.ConsumerGroupID,
			Topic:           topic,
			MinBytes:        1e3,
			MaxBytes:        10e6,
			CommitInterval:  time.Second,
			RetentionTime:   24 * time.Hour,
			ReadLagInterval: -1,
		})

		proc := consumer.NewProcessor(reader, handler)

		wg.Add(1)
		go func(topic string, r *kafka.Reader) {
			defer wg.Done()
			defer r.Close()

			log.Printf("consumer started (topic=%s, group=%s)", topic, cfg.ConsumerGroupID)
			if err := proc.Run(ctx); err != nil && err != context.Canceled {
				log.Printf("consumer stopped with error (topic=%s): %v", topic, err)
			}
		}(topic, reader)
	}

	wg.Add(1)
	go func() {
		defer wg.Done()

		ticker := time.NewTicker(cfg.DrainInterval)
		defer ticker.Stop()

		log.Printf("queue drain started (interval=%s, maxAttempts=%d)", cfg.DrainInterval, cfg.SyncMaxAttempts)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				reconciler.DrainAll(ctx)
			}
		}
	}()

	<-stop
	log.Println("syncworker shutdown requested")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		log.Printf("metrics server shutdown error: %v", err)
	}

	wg.Wait()
}
