package service

import (
	"context"
	"errors"
	"time"

	lockserrors "staylock/internal/locks/errors"
	"staylock/internal/locks/events"
	"staylock/internal/locks/repository"
	"staylock/internal/locks/validator"
	"staylock/pkg/config"
	apperrors "staylock/pkg/errors"
	"staylock/pkg/model"
	"staylock/pkg/sanitizer"

	"go.mongodb.org/mongo-driver/mongo"
)

const conflictMessage = "This room is currently being booked by another guest. Please try again later."

// LockService is the lock authority. It enforces the one invariant that
// matters: at most one non-expired lock per room/date-range key.
type LockService interface {
	Acquire(ctx context.Context, req *model.LockRequest) (*model.LockResponse, error)
	Status(ctx context.Context, key model.LockKey) (*model.LockStatusResponse, error)
	Release(ctx context.Context, req *model.LockRequest) error
}

type lockService struct {
	repo      repository.LockRepository
	validator *validator.LockValidator
	publisher events.Publisher
	cfg       *config.Config
	now       func() time.Time
}

func NewLockService(
	repo repository.LockRepository,
	v *validator.LockValidator,
	publisher events.Publisher,
	cfg *config.Config,
) LockService {
	return &lockService{
		repo:      repo,
		validator: v,
		publisher: publisher,
		cfg:       cfg,
		now:       time.Now,
	}
}

// Acquire claims the resource key for the requesting session, or confirms an
// existing claim by the same owner. Re-acquisition by the owner preserves
// the original lock window; a fully elapsed window resets instead.
func (s *lockService) Acquire(ctx context.Context, req *model.LockRequest) (*model.LockResponse, error) {
	s.sanitize(req)
	if err := s.validator.ValidateRequest(req); err != nil {
		s.cfg.Log.Warn("Lock request validation failed", "error", err)
		return nil, apperrors.Validation("Invalid lock request", map[string]any{"error": err.Error()})
	}

	now := s.now()
	initialLockAt := s.resolveWindowStart(req.InitialLockAt, now)

	lock := &model.ReservationLock{
		ContentID:     req.ContentID,
		RoomID:        req.RoomID,
		CheckIn:       req.CheckIn,
		CheckOut:      req.CheckOut,
		LockID:        req.LockID,
		SessionID:     req.SessionID,
		TabID:         req.TabID,
		InitialLockAt: initialLockAt,
		ExpireTime:    initialLockAt.Add(s.cfg.LockTTL),
	}

	err := s.repo.Insert(ctx, lock)
	if err == nil {
		s.publish(ctx, events.TypeAcquired, lock, now)
		s.cfg.Log.Info("Reservation lock acquired",
			"content_id", lock.ContentID,
			"room_id", lock.RoomID,
			"check_in", lock.CheckIn,
			"check_out", lock.CheckOut,
			"lock_id", lock.LockID,
			"expire_time", lock.ExpireTime,
		)
		return success(lock), nil
	}
	if !mongo.IsDuplicateKeyError(err) {
		s.cfg.Log.Error("Failed to insert reservation lock", "error", err)
		return nil, apperrors.Internal("Failed to acquire reservation lock", err)
	}

	// Contended: somebody holds a document for this key. Decide whether
	// it is the same shopper re-entering, an expired leftover, or a real
	// conflict.
	return s.resolveContention(ctx, req, now)
}

func (s *lockService) resolveContention(ctx context.Context, req *model.LockRequest, now time.Time) (*model.LockResponse, error) {
	existing, err := s.repo.FindByKey(ctx, req.Key())
	if err != nil {
		if errors.Is(err, lockserrors.ErrNotFound) {
			// The holder vanished between insert and lookup; one
			// more insert settles it.
			return s.retryInsert(ctx, req, now)
		}
		return nil, apperrors.Internal("Failed to inspect existing reservation lock", err)
	}

	if existing.Expired(now) {
		removed, err := s.repo.DeleteExpired(ctx, req.Key(), now)
		if err != nil {
			return nil, apperrors.Internal("Failed to clear expired reservation lock", err)
		}
		if removed {
			return s.retryInsert(ctx, req, now)
		}
		// Someone else replaced the expired lock first.
		return s.resolveContention(ctx, req, now)
	}

	if existing.OwnedBy(req.LockID, req.SessionID, req.TabID) {
		// Same shopper reloading or duplicate-mounting: confirm the
		// existing claim and keep the original window untouched.
		s.publish(ctx, events.TypeReacquired, existing, now)
		s.cfg.Log.Info("Reservation lock re-acquired by owner",
			"content_id", existing.ContentID,
			"room_id", existing.RoomID,
			"lock_id", existing.LockID,
			"initial_lock_at", existing.InitialLockAt,
		)
		return success(existing), nil
	}

	s.publish(ctx, events.TypeConflicted, existing, now)
	s.cfg.Log.Info("Reservation lock conflict",
		"content_id", existing.ContentID,
		"room_id", existing.RoomID,
		"check_in", existing.CheckIn,
		"check_out", existing.CheckOut,
		"holder_session", existing.SessionID,
	)
	return nil, apperrors.Conflict(conflictMessage)
}

func (s *lockService) retryInsert(ctx context.Context, req *model.LockRequest, now time.Time) (*model.LockResponse, error) {
	initialLockAt := s.resolveWindowStart(req.InitialLockAt, now)
	lock := &model.ReservationLock{
		ContentID:     req.ContentID,
		RoomID:        req.RoomID,
		CheckIn:       req.CheckIn,
		CheckOut:      req.CheckOut,
		LockID:        req.LockID,
		SessionID:     req.SessionID,
		TabID:         req.TabID,
		InitialLockAt: initialLockAt,
		ExpireTime:    initialLockAt.Add(s.cfg.LockTTL),
	}

	err := s.repo.Insert(ctx, lock)
	if err == nil {
		s.publish(ctx, events.TypeAcquired, lock, now)
		return success(lock), nil
	}
	if mongo.IsDuplicateKeyError(err) {
		// Lost the race to another shopper.
		s.publish(ctx, events.TypeConflicted, lock, now)
		return nil, apperrors.Conflict(conflictMessage)
	}
	return nil, apperrors.Internal("Failed to acquire reservation lock", err)
}

func (s *lockService) Status(ctx context.Context, key model.LockKey) (*model.LockStatusResponse, error) {
	key = sanitizeKey(key)
	if err := s.validator.ValidateKey(key); err != nil {
		s.cfg.Log.Warn("Lock status validation failed", "error", err)
		return nil, apperrors.Validation("Invalid lock status request", map[string]any{"error": err.Error()})
	}

	existing, err := s.repo.FindByKey(ctx, key)
	if err != nil {
		if errors.Is(err, lockserrors.ErrNotFound) {
			return &model.LockStatusResponse{IsLocked: false}, nil
		}
		return nil, apperrors.Internal("Failed to read reservation lock status", err)
	}

	// An elapsed window reads as unlocked even before the TTL monitor
	// physically removes the document.
	if existing.Expired(s.now()) {
		return &model.LockStatusResponse{IsLocked: false}, nil
	}

	return &model.LockStatusResponse{
		IsLocked: true,
		LockInfo: &model.LockInfo{
			LockID:        existing.LockID,
			SessionID:     existing.SessionID,
			TabID:         existing.TabID,
			InitialLockAt: existing.InitialLockAt,
			ExpireTime:    existing.ExpireTime,
		},
	}, nil
}

// Release removes the caller's lock. Releasing a lock that is already gone
// or expired succeeds: release is best-effort by contract and the TTL is the
// safety net. Only releasing somebody else's live lock is refused.
func (s *lockService) Release(ctx context.Context, req *model.LockRequest) error {
	s.sanitize(req)
	if err := s.validator.ValidateRequest(req); err != nil {
		s.cfg.Log.Warn("Unlock request validation failed", "error", err)
		return apperrors.Validation("Invalid unlock request", map[string]any{"error": err.Error()})
	}

	now := s.now()
	existing, err := s.repo.FindByKey(ctx, req.Key())
	if err != nil {
		if errors.Is(err, lockserrors.ErrNotFound) {
			return nil
		}
		return apperrors.Internal("Failed to inspect reservation lock", err)
	}

	if !existing.Expired(now) && !existing.OwnedBy(req.LockID, req.SessionID, req.TabID) {
		s.cfg.Log.Warn("Refused unlock by non-owner",
			"content_id", existing.ContentID,
			"room_id", existing.RoomID,
			"holder_session", existing.SessionID,
			"caller_session", req.SessionID,
		)
		return apperrors.Conflict("Reservation lock is held by another session")
	}

	if err := s.repo.Delete(ctx, req.Key()); err != nil {
		if errors.Is(err, lockserrors.ErrNotFound) {
			return nil
		}
		return apperrors.Internal("Failed to release reservation lock", err)
	}

	s.publish(ctx, events.TypeReleased, existing, now)
	s.cfg.Log.Info("Reservation lock released",
		"content_id", existing.ContentID,
		"room_id", existing.RoomID,
		"lock_id", existing.LockID,
	)
	return nil
}

// resolveWindowStart keeps a caller-supplied window start only while it is
// live: a zero, future, or fully elapsed start resets to now.
func (s *lockService) resolveWindowStart(requested, now time.Time) time.Time {
	if requested.IsZero() || requested.After(now) {
		return now
	}
	if now.Sub(requested) >= s.cfg.LockTTL {
		return now
	}
	return requested
}

func (s *lockService) sanitize(req *model.LockRequest) {
	req.ContentID = sanitizer.SanitizeIdentifier(req.ContentID)
	req.LockID = sanitizer.SanitizeIdentifier(req.LockID)
	req.SessionID = sanitizer.SanitizeIdentifier(req.SessionID)
	req.TabID = sanitizer.SanitizeIdentifier(req.TabID)
	req.CheckIn = sanitizer.SanitizeDate(req.CheckIn)
	req.CheckOut = sanitizer.SanitizeDate(req.CheckOut)
}

func sanitizeKey(key model.LockKey) model.LockKey {
	key.ContentID = sanitizer.SanitizeIdentifier(key.ContentID)
	key.CheckIn = sanitizer.SanitizeDate(key.CheckIn)
	key.CheckOut = sanitizer.SanitizeDate(key.CheckOut)
	return key
}

func (s *lockService) publish(ctx context.Context, eventType string, lock *model.ReservationLock, now time.Time) {
	event := events.LockEvent{
		Type:          eventType,
		ContentID:     lock.ContentID,
		RoomID:        lock.RoomID,
		CheckIn:       lock.CheckIn,
		CheckOut:      lock.CheckOut,
		LockID:        lock.LockID,
		SessionID:     lock.SessionID,
		InitialLockAt: lock.InitialLockAt,
		ExpireTime:    lock.ExpireTime,
		OccurredAt:    now,
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.cfg.Log.Warn("Failed to publish lock event", "type", eventType, "error", err)
	}
}

func success(lock *model.ReservationLock) *model.LockResponse {
	return &model.LockResponse{
		Success:       true,
		LockID:        lock.LockID,
		InitialLockAt: lock.InitialLockAt,
		ExpireTime:    lock.ExpireTime,
	}
}
