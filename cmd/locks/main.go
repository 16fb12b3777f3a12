package main

import (
	"os"

	"staylock/internal/locks/events"
	"staylock/internal/locks/handler"
	"staylock/internal/locks/repository"
	"staylock/internal/locks/service"
	"staylock/internal/locks/validator"
	"staylock/pkg/app"
	"staylock/pkg/config"
	"staylock/pkg/kafka"
	kafka_config "staylock/pkg/kafka/config"
	kafka_middleware "staylock/pkg/kafka/middleware"
)

const ServiceName = "locks"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	cfg.Log.Info("Starting Locks service")
	lockService, closeProducer := initServices(cfg)
	defer closeProducer()

	serverApp := app.NewApplication()
	serverApp.SetApp(cfg, handler.NewLockHandler(lockService, cfg.Log))
	serverApp.Run()
}

func initServices(cfg *config.Config) (service.LockService, func()) {
	lockValidator := validator.NewLockValidator(cfg.Log)
	lockRepo := repository.NewMongoLockRepository(cfg)
	publisher, closeProducer := initPublisher(cfg)

	lockService := service.NewLockService(
		lockRepo,
		lockValidator,
		publisher,
		cfg,
	)

	cfg.Log.Info("Lock service initialized", "database", cfg.MongoDatabaseName)
	return lockService, closeProducer
}

// initPublisher wires the lock event producer. Events are best-effort, so a
// missing broker configuration disables them instead of failing startup.
func initPublisher(cfg *config.Config) (events.Publisher, func()) {
	if os.Getenv(kafka_config.EnvKafkaBrokers) == "" {
		cfg.Log.Warn("Kafka brokers not configured, lock events disabled")
		return events.NopPublisher{}, func() {}
	}

	kafkaCfg := kafka_config.Load()
	producer, err := kafka.NewProducer(kafkaCfg, cfg.LockEventsTopic, cfg.LockEventsDLQ)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka producer", "error", err)
	}
	producer.Use(kafka_middleware.LoggingProducerMiddleware(cfg.Log))

	cfg.Log.Info("Lock event producer initialized",
		"topic", cfg.LockEventsTopic,
		"dlq", cfg.LockEventsDLQ,
		"brokers", kafkaCfg.Brokers,
	)

	closeProducer := func() {
		if err := producer.Close(); err != nil {
			cfg.Log.Error("Failed to close Kafka producer", "error", err)
		}
	}
	return events.NewKafkaPublisher(producer), closeProducer
}
