package model

import (
	"fmt"
	"time"
)

// ReservationLock is a time-boxed claim on one room for one date range.
// At most one non-expired lock may exist per resource key; the repository
// enforces that with a unique insert on the key.
type ReservationLock struct {
	ID            string    `json:"-" bson:"_id"`
	ContentID     string    `json:"contentId" bson:"content_id" validate:"required,min=1,max=64"`
	RoomID        int       `json:"roomId" bson:"room_id" validate:"required,min=1"`
	CheckIn       string    `json:"checkIn" bson:"check_in" validate:"required,datetime=2006-01-02"`
	CheckOut      string    `json:"checkOut" bson:"check_out" validate:"required,datetime=2006-01-02"`
	LockID        string    `json:"lockId" bson:"lock_id" validate:"required,min=1,max=128"`
	SessionID     string    `json:"sessionId" bson:"session_id" validate:"required,min=1,max=128"`
	TabID         string    `json:"tabId" bson:"tab_id" validate:"required,min=1,max=128"`
	InitialLockAt time.Time `json:"initialLockAt" bson:"initial_lock_at"`
	ExpireTime    time.Time `json:"expireTime" bson:"expire_time"`
	CreatedAt     time.Time `json:"createdAt" bson:"created_at"`
}

// LockKey identifies the contended resource: one room for one date range.
type LockKey struct {
	ContentID string `json:"contentId" validate:"required,min=1,max=64"`
	RoomID    int    `json:"roomId" validate:"required,min=1"`
	CheckIn   string `json:"checkIn" validate:"required,datetime=2006-01-02"`
	CheckOut  string `json:"checkOut" validate:"required,datetime=2006-01-02"`
}

func (k LockKey) String() string {
	return fmt.Sprintf("%s_%d_%s_%s", k.ContentID, k.RoomID, k.CheckIn, k.CheckOut)
}

func (l *ReservationLock) Key() LockKey {
	return LockKey{
		ContentID: l.ContentID,
		RoomID:    l.RoomID,
		CheckIn:   l.CheckIn,
		CheckOut:  l.CheckOut,
	}
}

// Expired reports whether the lock window has fully elapsed at the given time.
func (l *ReservationLock) Expired(now time.Time) bool {
	return !l.ExpireTime.After(now)
}

// OwnedBy reports whether the lock belongs to the caller's ongoing flow.
// Ownership holds on a lock ID match, or on a session+tab pair match (the
// same shopper re-entering with a regenerated lock ID).
func (l *ReservationLock) OwnedBy(lockID, sessionID, tabID string) bool {
	if lockID != "" && l.LockID == lockID {
		return true
	}
	return sessionID != "" && tabID != "" && l.SessionID == sessionID && l.TabID == tabID
}

// LockRequest is the wire shape shared by the lock and unlock endpoints.
type LockRequest struct {
	ContentID     string    `json:"contentId" validate:"required,min=1,max=64"`
	RoomID        int       `json:"roomId" validate:"required,min=1"`
	CheckIn       string    `json:"checkIn" validate:"required,datetime=2006-01-02"`
	CheckOut      string    `json:"checkOut" validate:"required,datetime=2006-01-02"`
	LockID        string    `json:"lockId" validate:"required,min=1,max=128"`
	SessionID     string    `json:"sessionId" validate:"required,min=1,max=128"`
	TabID         string    `json:"tabId" validate:"required,min=1,max=128"`
	InitialLockAt time.Time `json:"initialLockAt,omitempty"`
}

func (r *LockRequest) Key() LockKey {
	return LockKey{
		ContentID: r.ContentID,
		RoomID:    r.RoomID,
		CheckIn:   r.CheckIn,
		CheckOut:  r.CheckOut,
	}
}

// LockResponse is returned by the lock endpoint.
type LockResponse struct {
	Success       bool      `json:"success"`
	Message       string    `json:"message,omitempty"`
	LockID        string    `json:"lockId,omitempty"`
	InitialLockAt time.Time `json:"initialLockAt,omitempty"`
	ExpireTime    time.Time `json:"expireTime,omitempty"`
}

// LockInfo is the owner projection reported by the status endpoint.
type LockInfo struct {
	LockID        string    `json:"lockId"`
	SessionID     string    `json:"sessionId"`
	TabID         string    `json:"tabId"`
	InitialLockAt time.Time `json:"initialLockAt"`
	ExpireTime    time.Time `json:"expireTime"`
}

// LockStatusResponse is returned by the status endpoint.
type LockStatusResponse struct {
	IsLocked bool      `json:"isLocked"`
	LockInfo *LockInfo `json:"lockInfo,omitempty"`
}

// UnlockResponse is returned by the unlock endpoint. Beacon callers never
// read it.
type UnlockResponse struct {
	Success bool `json:"success"`
}
