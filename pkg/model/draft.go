package model

import "time"

// LockMeta is the client-held projection of a server lock, merged into the
// reservation draft once the lifecycle controller reaches the held state.
type LockMeta struct {
	LockID        string    `json:"lockId"`
	InitialLockAt time.Time `json:"initialLockAt"`
	ExpireTime    time.Time `json:"expireTime"`
	LockExpiresAt time.Time `json:"lockExpiresAt"`
}

// ReservationDraft is the in-progress reservation selection held in
// session-scoped client state before payment: hotel, room, dates, a pricing
// snapshot and the lock metadata. Consumers must treat it as immutable and
// replace it wholesale on change.
type ReservationDraft struct {
	ContentID string `json:"contentId"`
	HotelName string `json:"hotelName,omitempty"`
	RoomID    int    `json:"roomId"`
	RoomName  string `json:"roomName,omitempty"`
	CheckIn   string `json:"checkIn"`
	CheckOut  string `json:"checkOut"`

	RoomPrice  int64 `json:"roomPrice"`
	CashUsed   int64 `json:"cashUsed"`
	PointsUsed int64 `json:"pointsUsed"`

	Lock *LockMeta `json:"lock,omitempty"`
}

// Complete reports whether the draft carries every field that identifies the
// contended resource. An incomplete draft is "not yet ready", not an error.
func (d *ReservationDraft) Complete() bool {
	return d != nil && d.ContentID != "" && d.RoomID > 0 && d.CheckIn != "" && d.CheckOut != ""
}

func (d *ReservationDraft) Key() LockKey {
	return LockKey{
		ContentID: d.ContentID,
		RoomID:    d.RoomID,
		CheckIn:   d.CheckIn,
		CheckOut:  d.CheckOut,
	}
}

// WithLock returns a copy of the draft carrying the given lock metadata.
// Whole-object replacement keeps store watchers' change detection correct.
func (d *ReservationDraft) WithLock(meta LockMeta) *ReservationDraft {
	next := *d
	next.Lock = &meta
	return &next
}

// ClampCashUse bounds a requested cash amount to [0, remaining payable].
func (d *ReservationDraft) ClampCashUse(requested int64) int64 {
	return clamp(requested, d.RoomPrice-d.PointsUsed)
}

// ClampPointUse bounds a requested point amount to [0, remaining payable].
func (d *ReservationDraft) ClampPointUse(requested int64) int64 {
	return clamp(requested, d.RoomPrice-d.CashUsed)
}

// PayableAmount is the final amount due after cash and point usage.
func (d *ReservationDraft) PayableAmount() int64 {
	due := d.RoomPrice - d.CashUsed - d.PointsUsed
	if due < 0 {
		return 0
	}
	return due
}

func clamp(v, limit int64) int64 {
	if limit < 0 {
		limit = 0
	}
	if v < 0 {
		return 0
	}
	if v > limit {
		return limit
	}
	return v
}
