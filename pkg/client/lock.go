package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"staylock/pkg/logger"
	"staylock/pkg/model"
)

const (
	lockPath       = "/api/v1/reservations/lock"
	lockStatusPath = "/api/v1/reservations/lock/status"
	unlockPath     = "/api/v1/reservations/unlock"
)

// LockClient issues lock RPCs against the lock authority. It only shapes
// requests and surfaces failures; interpreting them is the lifecycle
// controller's job. There is no retry and no caching here.
type LockClient struct {
	httpClient    *HttpClient
	rpcTimeout    time.Duration
	beaconTimeout time.Duration
	log           *logger.Logger
}

func NewLockClient(baseURL string, rpcTimeout, beaconTimeout time.Duration, log *logger.Logger) *LockClient {
	return &LockClient{
		// The http.Client timeout bounds every lock RPC so a hung
		// authority surfaces as an error instead of a stalled checkout.
		httpClient:    NewHttpClient(baseURL, rpcTimeout),
		rpcTimeout:    rpcTimeout,
		beaconTimeout: beaconTimeout,
		log:           log,
	}
}

func (c *LockClient) CreateLock(ctx context.Context, req *model.LockRequest) (*model.LockResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, c.rpcTimeout)
	defer cancel()

	resp, err := c.httpClient.POST(ctx, lockPath, req)
	if err != nil {
		return nil, err
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("lock request rejected: %s", GetErrorMessage(resp))
	}

	var out model.LockResponse
	if err := resp.DecodeJSON(&out); err != nil {
		return nil, fmt.Errorf("failed to decode lock response: %w", err)
	}
	if !out.Success {
		return nil, fmt.Errorf("lock request rejected: %s", out.Message)
	}
	return &out, nil
}

func (c *LockClient) GetLockStatus(ctx context.Context, key model.LockKey) (*model.LockStatusResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, c.rpcTimeout)
	defer cancel()

	q := url.Values{}
	q.Set("contentId", key.ContentID)
	q.Set("roomId", strconv.Itoa(key.RoomID))
	q.Set("checkIn", key.CheckIn)
	q.Set("checkOut", key.CheckOut)

	resp, err := c.httpClient.GET(ctx, lockStatusPath+"?"+q.Encode())
	if err != nil {
		return nil, err
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("lock status request rejected: %s", GetErrorMessage(resp))
	}

	var out model.LockStatusResponse
	if err := resp.DecodeJSON(&out); err != nil {
		return nil, fmt.Errorf("failed to decode lock status response: %w", err)
	}
	return &out, nil
}

func (c *LockClient) ReleaseLock(ctx context.Context, req *model.LockRequest) error {
	ctx, cancel := context.WithTimeout(ctx, c.rpcTimeout)
	defer cancel()

	resp, err := c.httpClient.POST(ctx, unlockPath, req)
	if err != nil {
		return err
	}
	if !resp.IsSuccess() {
		return fmt.Errorf("unlock request rejected: %s", GetErrorMessage(resp))
	}
	return nil
}

// SendReleaseBeacon notifies the authority that this flow is going away,
// without blocking the caller or waiting for confirmation. Delivery failure
// is logged, never surfaced; the server-side TTL is the real safety net.
func (c *LockClient) SendReleaseBeacon(req *model.LockRequest) {
	payload, err := json.Marshal(req)
	if err != nil {
		c.log.Warn("Failed to encode release beacon", "error", err)
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), c.beaconTimeout)
		defer cancel()

		if err := c.httpClient.FireAndForget(ctx, unlockPath, payload); err != nil {
			c.log.Warn("Release beacon delivery failed",
				"content_id", req.ContentID,
				"room_id", req.RoomID,
				"lock_id", req.LockID,
				"error", err,
			)
		}
	}()
}
