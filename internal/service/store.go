// Package service holds the issuance, redemption and access-policy cores.
// Services receive their store handles at construction and keep no ambient
// state; every cross-request invariant (duplicate booking, capacity, single
// redemption) is enforced by the store's atomic primitives, never by
// in-process locking, because several instances may run against the same
// database.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/campus-events/gatepass/internal/model"
	"github.com/campus-events/gatepass/internal/repository"
)

// Sentinel outcomes that need more precision than the repository taxonomy:
// the booking contract distinguishes an unknown user from an unknown event.
// Both wrap repository.ErrNotFound so errors.Is keeps working either way.
var (
	ErrUserNotFound  = fmt.Errorf("user: %w", repository.ErrNotFound)
	ErrEventNotFound = fmt.Errorf("event: %w", repository.ErrNotFound)
)

// UserDirectory resolves verified caller identities to user records.
type UserDirectory interface {
	GetByID(ctx context.Context, id uint64) (*model.User, error)
}

// EventCatalog is the slice of the catalog the issuance core needs: reads,
// plus the conditional seat reserve/release pair. ReserveSeat must be atomic
// with respect to capacity (no two callers may both claim the last seat) and
// ReleaseSeat must be safe to call as compensation.
type EventCatalog interface {
	GetByID(ctx context.Context, id uint64) (*model.Event, error)
	ReserveSeat(ctx context.Context, eventID uint64) error
	ReleaseSeat(ctx context.Context, eventID uint64) error
}

// PassStore owns pass lifecycle and the redemption invariant. CreateActive
// must reject a second active pass for the same (user, event) even under
// concurrency, and RedeemEntry must let exactly one of N concurrent attempts
// on the same entry succeed.
type PassStore interface {
	CreateActive(ctx context.Context, userID, eventID uint64, labels []string) (*model.Pass, error)
	FindByPublicUUID(ctx context.Context, publicUUID string) (*model.Pass, error)
	FindActiveByUserAndEvent(ctx context.Context, userID, eventID uint64) ([]model.Pass, error)
	Summary(ctx context.Context, publicUUID string) (*model.PassSummary, error)
	RedeemEntry(ctx context.Context, publicUUID string, entryID uint64) (*model.Entry, error)
	ExpireBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
