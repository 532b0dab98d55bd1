// This file holds the event catalog repository. The catalog is mostly owned
// by admin tooling; the booking core touches exactly one of its columns,
// registration_count, and only through the conditional ReserveSeat /
// ReleaseSeat pair below. Capacity must never be enforced with a
// read-modify-write in the service layer: multiple instances may run against
// the same database, so the guard lives in the UPDATE's WHERE clause.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/campus-events/gatepass/internal/model"
)

// EventRepo manages persistence for events.
type EventRepo struct {
	db *sql.DB
}

// NewEventRepo returns an EventRepo bound to the given database.
func NewEventRepo(db *sql.DB) *EventRepo { return &EventRepo{db: db} }

// GetByID fetches an event by id. Returns ErrNotFound when no row exists.
func (r *EventRepo) GetByID(ctx context.Context, id uint64) (*model.Event, error) {
	const q = `SELECT id, name, description, start_time, location, mode,
	                  total_seats, registration_count, is_live, created_at
	           FROM events WHERE id = ? LIMIT 1`
	var e model.Event
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&e.ID, &e.Name, &e.Description, &e.StartTime, &e.Location, &e.Mode,
		&e.TotalSeats, &e.RegistrationCount, &e.IsLive, &e.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get event %d: %w", id, err)
	}
	return &e, nil
}

// List returns a page of events ordered by start time ascending, together
// with the total row count for pagination. Page numbers start at 1.
func (r *EventRepo) List(ctx context.Context, page, limit int) ([]model.Event, int, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM events`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count events: %w", err)
	}
	const q = `SELECT id, name, description, start_time, location, mode,
	                  total_seats, registration_count, is_live, created_at
	           FROM events
	           ORDER BY start_time ASC, id ASC
	           LIMIT ? OFFSET ?`
	rows, err := r.db.QueryContext(ctx, q, limit, (page-1)*limit)
	if err != nil {
		return nil, 0, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()
	events := make([]model.Event, 0, limit)
	for rows.Next() {
		var e model.Event
		if err := rows.Scan(
			&e.ID, &e.Name, &e.Description, &e.StartTime, &e.Location, &e.Mode,
			&e.TotalSeats, &e.RegistrationCount, &e.IsLive, &e.CreatedAt,
		); err != nil {
			return nil, 0, err
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return events, total, nil
}

// Create inserts a new event and populates the generated ID and the
// DB-default fields on the given record.
func (r *EventRepo) Create(ctx context.Context, e *model.Event) error {
	const q = `INSERT INTO events (name, description, start_time, location, mode, total_seats, is_live)
	           VALUES (?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q,
		e.Name, e.Description, e.StartTime.UTC(), e.Location, e.Mode, e.TotalSeats, e.IsLive)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	e.ID = uint64(id)
	// Query back defaults so the caller sees the persisted state.
	const sel = `SELECT registration_count, created_at FROM events WHERE id = ?`
	if err := r.db.QueryRowContext(ctx, sel, e.ID).Scan(&e.RegistrationCount, &e.CreatedAt); err != nil {
		return fmt.Errorf("reload event %d: %w", e.ID, err)
	}
	return nil
}

// ReserveSeat atomically claims one seat by incrementing registration_count,
// guarded by capacity at update time. When two bookings race for the last
// seat, the WHERE clause lets exactly one row change; the loser sees zero
// rows affected and gets ErrSoldOut. Returns ErrNotFound when the event does
// not exist at all.
func (r *EventRepo) ReserveSeat(ctx context.Context, eventID uint64) error {
	const q = `UPDATE events
	           SET registration_count = registration_count + 1
	           WHERE id = ? AND registration_count < total_seats`
	res, err := r.db.ExecContext(ctx, q, eventID)
	if err != nil {
		return fmt.Errorf("reserve seat for event %d: %w", eventID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		var exists bool
		if err := r.db.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM events WHERE id = ?)`, eventID).Scan(&exists); err != nil {
			return fmt.Errorf("check event %d: %w", eventID, err)
		}
		if !exists {
			return ErrNotFound
		}
		return ErrSoldOut
	}
	return nil
}

// ReleaseSeat is the compensation for ReserveSeat: it decrements
// registration_count when a later issuance step fails, guarded against
// dropping below zero. Releasing a seat that was never reserved is a no-op.
func (r *EventRepo) ReleaseSeat(ctx context.Context, eventID uint64) error {
	const q = `UPDATE events
	           SET registration_count = registration_count - 1
	           WHERE id = ? AND registration_count > 0`
	if _, err := r.db.ExecContext(ctx, q, eventID); err != nil {
		return fmt.Errorf("release seat for event %d: %w", eventID, err)
	}
	return nil
}
