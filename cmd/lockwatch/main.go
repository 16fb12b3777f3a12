package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"staylock/internal/locks/events"
	"staylock/pkg/config"
	"staylock/pkg/kafka"
	kafka_config "staylock/pkg/kafka/config"
	kafka_middleware "staylock/pkg/kafka/middleware"
	"staylock/pkg/logger"
)

const (
	ServiceName     = "lockwatch"
	consumerGroupID = "lockwatch"
	summaryInterval = time.Minute
)

// lockwatch tails the lock event stream and reports contention: which rooms
// are being fought over, and how often locks get abandoned to the TTL
// instead of released.
func main() {
	cfg := config.Load(ServiceName)
	kafkaCfg := kafka_config.Load()

	watcher := newWatcher(cfg.Log)

	consumer, err := kafka.NewConsumer(
		kafkaCfg,
		cfg.LockEventsTopic,
		consumerGroupID,
		cfg.LockEventsDLQ,
		watcher.handle,
	)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka consumer", "error", err)
	}
	consumer.Use(kafka_middleware.LoggingConsumerMiddleware(cfg.Log))

	ctx, cancel := context.WithCancel(context.Background())

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-shutdown
		cfg.Log.Info("Shutdown signal received", "signal", sig)
		cancel()
	}()

	go watcher.reportLoop(ctx)

	cfg.Log.Info("Starting lock event watcher",
		"topic", cfg.LockEventsTopic,
		"group", consumerGroupID,
		"brokers", kafkaCfg.Brokers,
	)
	if err := consumer.Start(ctx); err != nil && ctx.Err() == nil {
		cfg.Log.Error("Consumer stopped with error", "error", err)
	}

	if err := consumer.Close(); err != nil {
		cfg.Log.Error("Failed to close Kafka consumer", "error", err)
	}
	cfg.Log.Info("Lock event watcher stopped")
}

type watcher struct {
	log *logger.Logger

	acquired   atomic.Int64
	reacquired atomic.Int64
	conflicted atomic.Int64
	released   atomic.Int64

	mu        sync.Mutex
	conflicts map[string]int
}

func newWatcher(log *logger.Logger) *watcher {
	return &watcher{
		log:       log,
		conflicts: make(map[string]int),
	}
}

func (w *watcher) handle(ctx context.Context, msg kafka.Message) error {
	var event events.LockEvent
	if err := msg.DecodeValue(&event); err != nil {
		// Malformed payloads go to the DLQ via the consumer's retry
		// classification; nothing to do here but report.
		return err
	}

	switch event.Type {
	case events.TypeAcquired:
		w.acquired.Add(1)
	case events.TypeReacquired:
		w.reacquired.Add(1)
	case events.TypeConflicted:
		w.conflicted.Add(1)
		w.mu.Lock()
		w.conflicts[msg.Key]++
		w.mu.Unlock()
		w.log.Warn("Lock contention observed",
			"content_id", event.ContentID,
			"room_id", event.RoomID,
			"check_in", event.CheckIn,
			"check_out", event.CheckOut,
			"holder_session", event.SessionID,
		)
	case events.TypeReleased:
		w.released.Add(1)
	default:
		w.log.Warn("Unknown lock event type", "type", event.Type)
	}

	return nil
}

func (w *watcher) reportLoop(ctx context.Context) {
	ticker := time.NewTicker(summaryInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.report()
		}
	}
}

func (w *watcher) report() {
	w.mu.Lock()
	hotKey, hotCount := "", 0
	for key, count := range w.conflicts {
		if count > hotCount {
			hotKey, hotCount = key, count
		}
	}
	w.conflicts = make(map[string]int)
	w.mu.Unlock()

	acquired := w.acquired.Swap(0)
	reacquired := w.reacquired.Swap(0)
	conflicted := w.conflicted.Swap(0)
	released := w.released.Swap(0)

	if acquired+reacquired+conflicted+released == 0 {
		return
	}

	w.log.Info("Lock activity summary",
		"acquired", acquired,
		"reacquired", reacquired,
		"conflicted", conflicted,
		"released", released,
		"abandoned", acquired-released,
		"hottest_key", hotKey,
		"hottest_key_conflicts", hotCount,
	)
}
