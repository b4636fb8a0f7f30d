// internal/app/store/ratelimit/store.go
package ratelimit

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CollectionName is the MongoDB collection holding attempt counters.
const CollectionName = "rate_limits"

// Attempt tracks failed attempts for one key (the admin login uses the
// client IP).
type Attempt struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Key          string             `bson:"key"`
	AttemptCount int                `bson:"attempt_count"` // failures in the current window
	WindowStart  time.Time          `bson:"window_start"`
	LockedUntil  *time.Time         `bson:"locked_until"` // nil when not locked
	LastAttempt  time.Time          `bson:"last_attempt"` // TTL index field
	CreatedAt    time.Time          `bson:"created_at"`
	UpdatedAt    time.Time          `bson:"updated_at"`
}

// Store is a fixed-window failure counter with lockout. Storage errors fail
// open: the attempt is allowed and nothing is locked.
type Store struct {
	c               *mongo.Collection
	maxAttempts     int
	windowDuration  time.Duration
	lockoutDuration time.Duration
	now             func() time.Time
}

// New creates a rate limit Store.
func New(db *mongo.Database, maxAttempts int, window, lockout time.Duration) *Store {
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	return &Store{
		c:               db.Collection(CollectionName),
		maxAttempts:     maxAttempts,
		windowDuration:  window,
		lockoutDuration: lockout,
		now:             time.Now,
	}
}

func normalizeKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}

func (s *Store) find(ctx context.Context, key string) (*Attempt, error) {
	var a Attempt
	err := s.c.FindOne(ctx, bson.M{"key": key}).Decode(&a)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// CheckAllowed reports whether another attempt may be made for key.
// remaining is -1 while locked; lockedUntil is nil unless locked.
func (s *Store) CheckAllowed(ctx context.Context, key string) (allowed bool, remaining int, lockedUntil *time.Time) {
	now := s.now()
	a, err := s.find(ctx, normalizeKey(key))
	if err != nil || a == nil {
		return true, s.maxAttempts, nil
	}

	if a.LockedUntil != nil && now.Before(*a.LockedUntil) {
		return false, -1, a.LockedUntil
	}
	if now.After(a.WindowStart.Add(s.windowDuration)) {
		return true, s.maxAttempts, nil
	}
	remaining = s.maxAttempts - a.AttemptCount
	if remaining <= 0 {
		return false, 0, nil
	}
	return true, remaining, nil
}

// RecordFailure counts a failed attempt for key and locks the key once the
// limit is reached within the window.
func (s *Store) RecordFailure(ctx context.Context, key string) (lockedOut bool, lockedUntil *time.Time) {
	key = normalizeKey(key)
	now := s.now()

	a, err := s.find(ctx, key)
	if err != nil {
		return false, nil
	}
	if a == nil {
		a = &Attempt{Key: key, WindowStart: now, CreatedAt: now}
	}

	expired := a.LockedUntil != nil && !now.Before(*a.LockedUntil)
	if expired || now.After(a.WindowStart.Add(s.windowDuration)) {
		a.AttemptCount = 0
		a.WindowStart = now
		a.LockedUntil = nil
	}
	a.AttemptCount++
	a.LastAttempt = now
	a.UpdatedAt = now

	if a.AttemptCount >= s.maxAttempts {
		until := now.Add(s.lockoutDuration)
		a.LockedUntil = &until
		lockedOut, lockedUntil = true, &until
	}

	_, _ = s.c.UpdateOne(ctx,
		bson.M{"key": key},
		bson.M{
			"$set": bson.M{
				"attempt_count": a.AttemptCount,
				"window_start":  a.WindowStart,
				"locked_until":  a.LockedUntil,
				"last_attempt":  a.LastAttempt,
				"updated_at":    a.UpdatedAt,
			},
			"$setOnInsert": bson.M{"created_at": a.CreatedAt},
		},
		options.Update().SetUpsert(true),
	)
	return lockedOut, lockedUntil
}

// ClearOnSuccess removes the counter for key after a successful attempt.
func (s *Store) ClearOnSuccess(ctx context.Context, key string) error {
	_, err := s.c.DeleteOne(ctx, bson.M{"key": normalizeKey(key)})
	return err
}

// GetAttempt returns the counter for key, or nil when there is none.
func (s *Store) GetAttempt(ctx context.Context, key string) (*Attempt, error) {
	return s.find(ctx, normalizeKey(key))
}
