package events

import (
	"context"
	"time"

	"staylock/pkg/kafka"
	"staylock/pkg/model"
)

const (
	TypeAcquired   = "lock.acquired"
	TypeReacquired = "lock.reacquired"
	TypeConflicted = "lock.conflicted"
	TypeReleased   = "lock.released"
)

const source = "locks"

// LockEvent is the payload published for every lock lifecycle transition,
// keyed by the resource key so per-lock ordering is preserved.
type LockEvent struct {
	Type          string    `json:"type"`
	ContentID     string    `json:"contentId"`
	RoomID        int       `json:"roomId"`
	CheckIn       string    `json:"checkIn"`
	CheckOut      string    `json:"checkOut"`
	LockID        string    `json:"lockId,omitempty"`
	SessionID     string    `json:"sessionId,omitempty"`
	InitialLockAt time.Time `json:"initialLockAt,omitempty"`
	ExpireTime    time.Time `json:"expireTime,omitempty"`
	OccurredAt    time.Time `json:"occurredAt"`
}

// Publisher emits lock lifecycle events. Implementations are best-effort;
// callers log publish failures and never fail the request over them.
type Publisher interface {
	Publish(ctx context.Context, event LockEvent) error
}

type kafkaPublisher struct {
	producer *kafka.Producer
}

func NewKafkaPublisher(producer *kafka.Producer) Publisher {
	return &kafkaPublisher{producer: producer}
}

func (p *kafkaPublisher) Publish(ctx context.Context, event LockEvent) error {
	key := model.LockKey{
		ContentID: event.ContentID,
		RoomID:    event.RoomID,
		CheckIn:   event.CheckIn,
		CheckOut:  event.CheckOut,
	}

	msg := kafka.NewMessage().
		WithKey(key.String()).
		WithValue(event).
		WithEventType(event.Type).
		WithSource(source).
		Build()

	return p.producer.Publish(ctx, msg)
}

// NopPublisher drops every event. Used when Kafka is not configured and in
// tests.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, LockEvent) error { return nil }
