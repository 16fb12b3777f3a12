package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"staylock/pkg/checkout"
	"staylock/pkg/client"
	"staylock/pkg/config"
	"staylock/pkg/model"
	"staylock/pkg/sanitizer"
)

const (
	ServiceName      = "checkout"
	healthWait       = 30 * time.Second
	countdownRefresh = 30 * time.Second
)

// checkout drives one reservation flow against a running lock authority:
// claim the room described by the environment, hold it while the countdown
// runs, release on interrupt. It doubles as the operational smoke check for
// the whole lock protocol.
func main() {
	cfg := config.Load(ServiceName)

	if err := client.NewHttpClient(cfg.LockAuthorityURL, cfg.LockRPCTimeout).WaitForHealthy(healthWait); err != nil {
		cfg.Log.Fatal("Lock authority not reachable", "url", cfg.LockAuthorityURL, "error", err)
	}

	drafts := checkout.NewMemoryDraftStore()
	drafts.Save(draftFromEnv())

	controller := checkout.NewController(checkout.ControllerConfig{
		API:      checkout.NewAuthorityClient(cfg),
		Identity: checkout.NewIdentityProvider(),
		Drafts:   drafts,
		TTL:      cfg.LockTTL,
		Log:      cfg.Log,
		OnConflict: func(message string) {
			cfg.Log.Warn("Room is taken", "message", message)
		},
	})

	guard := checkout.NewUnloadGuard(controller, cfg.Log)
	guard.Arm(checkout.DefaultSettleDelay)

	if err := controller.Ensure(context.Background()); err != nil {
		cfg.Log.Fatal("Could not hold the room", "error", err)
	}

	gate := checkout.NewGate(drafts, controller, envCustomer{})
	readiness, err := gate.Check(context.Background())
	if err != nil {
		cfg.Log.Warn("Customer lookup failed", "error", err)
	}
	cfg.Log.Info("Room held",
		"readiness", readiness.String(),
		"remaining", gate.RemainingTTL(),
	)

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	ticker := time.NewTicker(countdownRefresh)
	defer ticker.Stop()

	for {
		select {
		case sig := <-shutdown:
			cfg.Log.Info("Shutdown signal received, giving the room back", "signal", sig)
			controller.Cancel(context.Background())
			return
		case <-ticker.C:
			remaining := gate.RemainingTTL()
			if remaining == 0 {
				cfg.Log.Warn("Hold window elapsed, leaving cleanup to the server TTL")
				return
			}
			cfg.Log.Info("Holding room", "remaining", remaining)
		}
	}
}

// draftFromEnv assembles the reservation selection from the environment, with
// defaults that make a bare run work against a local authority. Free-text and
// identifier inputs go through the same sanitizers the server applies.
func draftFromEnv() *model.ReservationDraft {
	return &model.ReservationDraft{
		ContentID: sanitizer.SanitizeIdentifier(getEnvStr("CHECKOUT_CONTENT_ID", "H123")),
		HotelName: sanitizer.SanitizeLabel(getEnvStr("CHECKOUT_HOTEL_NAME", "Grand Hyatt Seoul")),
		RoomID:    getEnvNum("CHECKOUT_ROOM_ID", 42),
		RoomName:  sanitizer.SanitizeLabel(getEnvStr("CHECKOUT_ROOM_NAME", "Deluxe Twin")),
		CheckIn:   sanitizer.SanitizeDate(getEnvStr("CHECKOUT_CHECK_IN", time.Now().AddDate(0, 0, 7).Format("2006-01-02"))),
		CheckOut:  sanitizer.SanitizeDate(getEnvStr("CHECKOUT_CHECK_OUT", time.Now().AddDate(0, 0, 9).Format("2006-01-02"))),
		RoomPrice: int64(getEnvNum("CHECKOUT_ROOM_PRICE", 120000)),
	}
}

// envCustomer resolves the signed-in customer from the environment; an unset
// id reads as "not signed in", which the gate reports rather than errors on.
type envCustomer struct{}

func (envCustomer) Resolve(context.Context) (*checkout.Customer, error) {
	id := os.Getenv("CHECKOUT_CUSTOMER_ID")
	if id == "" {
		return nil, nil
	}
	return &checkout.Customer{ID: id, Name: os.Getenv("CHECKOUT_CUSTOMER_NAME")}, nil
}

func getEnvStr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvNum(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}
