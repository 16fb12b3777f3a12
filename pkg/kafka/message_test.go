package kafka

import (
	"testing"
	"time"
)

func TestMessageBuilder(t *testing.T) {
	type payload struct {
		Type   string `json:"type"`
		RoomID int    `json:"roomId"`
	}

	msg := NewMessage().
		WithKey("H123_42_2026-09-01_2026-09-03").
		WithValue(payload{Type: "lock.acquired", RoomID: 42}).
		WithEventType("lock.acquired").
		WithSource("locks").
		Build()

	if msg.Key != "H123_42_2026-09-01_2026-09-03" {
		t.Errorf("unexpected key: %q", msg.Key)
	}
	if msg.GetEventType() != "lock.acquired" {
		t.Errorf("unexpected event type: %q", msg.GetEventType())
	}
	if msg.Headers[HeaderSource] != "locks" {
		t.Errorf("unexpected source: %q", msg.Headers[HeaderSource])
	}
	if msg.GetEventID() == "" {
		t.Error("builder must assign an event id")
	}
	if _, err := time.Parse(time.RFC3339, msg.Headers[HeaderTimestamp]); err != nil {
		t.Errorf("timestamp header must be RFC3339: %v", err)
	}

	var decoded payload
	if err := msg.DecodeValue(&decoded); err != nil {
		t.Fatalf("failed to decode value: %v", err)
	}
	if decoded.Type != "lock.acquired" || decoded.RoomID != 42 {
		t.Errorf("unexpected decoded payload: %+v", decoded)
	}
}

func TestRetryCount(t *testing.T) {
	msg := NewMessage().WithKey("k").WithValue("v").Build()

	if got := msg.GetRetryCount(); got != 0 {
		t.Errorf("expected zero retries on a fresh message, got %d", got)
	}

	msg.IncrementRetryCount()
	msg.IncrementRetryCount()

	if got := msg.GetRetryCount(); got != 2 {
		t.Errorf("expected 2 retries, got %d", got)
	}

	msg.Headers[HeaderRetryCount] = "garbage"
	if got := msg.GetRetryCount(); got != 0 {
		t.Errorf("unparseable retry count must read as zero, got %d", got)
	}
}
