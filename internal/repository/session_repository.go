package repository

import (
	"context"
	"errors"
	"time"

	"github.com/spec-kit/courtweb-service/internal/domain"
)

// ErrSessionNotFound is returned when no live record exists for a session
// id. Expired records are treated as absent.
var ErrSessionNotFound = errors.New("session not found")

// ErrStoreUnavailable wraps infrastructure faults of the underlying
// storage. Callers that verify sessions must fail closed on it.
var ErrStoreUnavailable = errors.New("session store unavailable")

// SessionStore persists durable session records keyed by session id.
type SessionStore interface {
	// Upsert replaces the entire record for its session id, creating it
	// when absent. Concurrent upserts converge to last writer wins.
	Upsert(ctx context.Context, record *domain.SessionRecord) error

	// Get returns the live record or ErrSessionNotFound when the record
	// is absent or expired. An expired record found during the read is
	// best-effort deleted (reap-on-read).
	Get(ctx context.Context, sessionID string) (*domain.SessionRecord, error)

	// Delete removes the record. Deleting an absent record is not an error.
	Delete(ctx context.Context, sessionID string) error

	// SweepExpired bulk-deletes all records whose expiry is at or before
	// now and returns the number removed.
	SweepExpired(ctx context.Context, now time.Time) (int64, error)
}
