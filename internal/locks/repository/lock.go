package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	lockserrors "staylock/internal/locks/errors"
	"staylock/pkg/config"
	"staylock/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const CollectionName = "Reservation_locks"

// LockRepository stores reservation locks keyed by the compound resource
// key. The unique _id insert is what makes acquisition mutually exclusive:
// a duplicate key error means the slot is contended.
type LockRepository interface {
	Insert(ctx context.Context, lock *model.ReservationLock) error
	FindByKey(ctx context.Context, key model.LockKey) (*model.ReservationLock, error)
	Delete(ctx context.Context, key model.LockKey) error
	DeleteExpired(ctx context.Context, key model.LockKey, now time.Time) (bool, error)
}

type mongoLockRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoLockRepository(cfg *config.Config) LockRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoLockRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

func (r *mongoLockRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	deadline, hasDeadline := ctx.Deadline()
	if hasDeadline && time.Until(deadline) < timeout {
		return context.WithTimeout(ctx, time.Until(deadline))
	}
	return context.WithTimeout(ctx, timeout)
}

// Insert creates a lock document. Returns the driver's duplicate key error
// unchanged when a lock already exists for the key; the service inspects it
// with mongo.IsDuplicateKeyError.
func (r *mongoLockRepository) Insert(ctx context.Context, lock *model.ReservationLock) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	lock.ID = lock.Key().String()
	lock.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)

	_, err := r.collection.InsertOne(ctx, lock)
	return err
}

func (r *mongoLockRepository) FindByKey(ctx context.Context, key model.LockKey) (*model.ReservationLock, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var lock model.ReservationLock
	err := r.collection.FindOne(ctx, bson.M{"_id": key.String()}).Decode(&lock)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, lockserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find reservation lock: %w", err)
	}

	return &lock, nil
}

func (r *mongoLockRepository) Delete(ctx context.Context, key model.LockKey) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": key.String()})
	if err != nil {
		return fmt.Errorf("failed to delete reservation lock: %w", err)
	}
	if result.DeletedCount == 0 {
		return lockserrors.ErrNotFound
	}

	return nil
}

// DeleteExpired removes the lock for a key only if its window has elapsed.
// The expiry condition in the filter keeps the delete atomic: a live lock is
// never removed by a taker that read a stale document.
func (r *mongoLockRepository) DeleteExpired(ctx context.Context, key model.LockKey, now time.Time) (bool, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	result, err := r.collection.DeleteOne(ctx, bson.M{
		"_id":         key.String(),
		"expire_time": bson.M{"$lte": now},
	})
	if err != nil {
		return false, fmt.Errorf("failed to delete expired reservation lock: %w", err)
	}

	return result.DeletedCount > 0, nil
}
