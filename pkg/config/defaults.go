package config

import "time"

const (
	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "staylock"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultPort     = "8080"
	DefaultLogLevel = "info"

	// DefaultLockTTL is the validity window of a reservation lock, anchored
	// to its initial acquisition time.
	DefaultLockTTL = 10 * time.Minute

	DefaultLockRPCTimeout    = 5 * time.Second
	DefaultLockBeaconTimeout = 2 * time.Second
	DefaultLockAuthorityURL  = "http://localhost:8080"
	DefaultLockEventsTopic   = "reservation-lock-events"
	DefaultLockEventsDLQ     = "reservation-lock-events-dlq"

	DefaultRateLimitRequests = 30
	DefaultRateLimitWindow   = 1 * time.Minute

	DefaultRequestTimeout = 30 * time.Second
	DefaultIdempotencyTTL = 24 * time.Hour
	DefaultMaxRequestSize = 64 * 1024 // 64KB; lock payloads are tiny

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second
)
