// Package repository: pass persistence and invariant enforcement.
//
// Schema the PassRepo expects:
//
//	passes(id PK AUTO_INCREMENT, public_uuid CHAR(36), user_id, event_id,
//	       status ENUM('active','expired','cancelled') DEFAULT 'active',
//	       active_key TINYINT NULL, amount_cents INT UNSIGNED DEFAULT 0,
//	       payment_status VARCHAR(16) DEFAULT 'FREE',
//	       created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
//	       UNIQUE KEY uniq_public_uuid (public_uuid),
//	       UNIQUE KEY uniq_user_event_active (user_id, event_id, active_key))
//	pass_entries(id PK AUTO_INCREMENT, pass_id, label VARCHAR(64),
//	       consumed TINYINT DEFAULT 0, consumed_at DATETIME NULL,
//	       created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
//	       KEY idx_pass_entry (pass_id, id))
//
// active_key is 1 while the pass is active and NULL otherwise. MySQL treats
// NULLs in a unique key as distinct, so uniq_user_event_active enforces "at
// most one active pass per (user, event)" inside the store itself; a racing
// duplicate insert fails with error 1062 rather than slipping past a
// check-then-create window.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"

	"github.com/campus-events/gatepass/internal/model"
)

// PassRepo provides persistence for passes and their entries.
type PassRepo struct {
	db *sql.DB
}

// NewPassRepo returns a PassRepo bound to the given database.
func NewPassRepo(db *sql.DB) *PassRepo { return &PassRepo{db: db} }

// isDuplicateActive reports whether err is a duplicate-key violation of the
// uniq_user_event_active key, i.e. a concurrent or repeated booking for the
// same user and event.
func isDuplicateActive(err error) bool {
	var me *mysql.MySQLError
	if !errors.As(err, &me) || me.Number != 1062 {
		return false
	}
	return strings.Contains(me.Message, "uniq_user_event_active")
}

// CreateActive inserts a new active pass with one entry per label, all
// unconsumed, under a freshly generated random public UUID. The pass insert
// and its entries commit in one transaction. Returns ErrAlreadyBooked when
// an active pass already exists for (userID, eventID); the unique key makes
// this hold under concurrency, so callers need no advisory locking.
func (r *PassRepo) CreateActive(ctx context.Context, userID, eventID uint64, labels []string) (*model.Pass, error) {
	if len(labels) == 0 {
		return nil, errors.New("createActive: at least one entry label required")
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin create pass: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	publicUUID := uuid.NewString()
	const insPass = `INSERT INTO passes (public_uuid, user_id, event_id, status, active_key)
	                 VALUES (?, ?, ?, 'active', 1)`
	res, err := tx.ExecContext(ctx, insPass, publicUUID, userID, eventID)
	if err != nil {
		if isDuplicateActive(err) {
			return nil, ErrAlreadyBooked
		}
		return nil, fmt.Errorf("insert pass: %w", err)
	}
	passID, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}

	insEntries := `INSERT INTO pass_entries (pass_id, label) VALUES `
	args := make([]interface{}, 0, len(labels)*2)
	for i, label := range labels {
		if i > 0 {
			insEntries += ","
		}
		insEntries += "(?, ?)"
		args = append(args, passID, label)
	}
	if _, err := tx.ExecContext(ctx, insEntries, args...); err != nil {
		return nil, fmt.Errorf("insert pass entries: %w", err)
	}

	pass := &model.Pass{
		ID:         uint64(passID),
		PublicUUID: publicUUID,
		UserID:     userID,
		EventID:    eventID,
	}
	// Query back DB defaults and the generated entry rows.
	const selPass = `SELECT status, amount_cents, payment_status, created_at FROM passes WHERE id = ?`
	if err := tx.QueryRowContext(ctx, selPass, passID).Scan(
		&pass.Status, &pass.AmountCents, &pass.PaymentStatus, &pass.CreatedAt,
	); err != nil {
		return nil, fmt.Errorf("reload pass %d: %w", passID, err)
	}
	entries, err := scanEntriesTx(ctx, tx, uint64(passID))
	if err != nil {
		return nil, err
	}
	pass.Entries = entries

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit create pass: %w", err)
	}
	committed = true
	return pass, nil
}

// FindByPublicUUID loads a pass and its entries by the externally shared
// identifier. Returns ErrNotFound when the UUID is unknown.
func (r *PassRepo) FindByPublicUUID(ctx context.Context, publicUUID string) (*model.Pass, error) {
	const q = `SELECT id, public_uuid, user_id, event_id, status, amount_cents, payment_status, created_at
	           FROM passes WHERE public_uuid = ? LIMIT 1`
	var p model.Pass
	err := r.db.QueryRowContext(ctx, q, publicUUID).Scan(
		&p.ID, &p.PublicUUID, &p.UserID, &p.EventID, &p.Status,
		&p.AmountCents, &p.PaymentStatus, &p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find pass by uuid: %w", err)
	}
	entries, err := r.scanEntries(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	p.Entries = entries
	return &p, nil
}

// FindActiveByUserAndEvent returns the active passes for (userID, eventID)
// with their entries, ordered by creation time. The unique key caps the
// result at one row, but the return stays a slice because the wire contract
// exposes a list. Returns ErrNotFound when there are none.
func (r *PassRepo) FindActiveByUserAndEvent(ctx context.Context, userID, eventID uint64) ([]model.Pass, error) {
	const q = `SELECT id, public_uuid, user_id, event_id, status, amount_cents, payment_status, created_at
	           FROM passes
	           WHERE user_id = ? AND event_id = ? AND status = 'active'
	           ORDER BY created_at ASC, id ASC`
	rows, err := r.db.QueryContext(ctx, q, userID, eventID)
	if err != nil {
		return nil, fmt.Errorf("find active passes: %w", err)
	}
	defer rows.Close()
	var passes []model.Pass
	for rows.Next() {
		var p model.Pass
		if err := rows.Scan(
			&p.ID, &p.PublicUUID, &p.UserID, &p.EventID, &p.Status,
			&p.AmountCents, &p.PaymentStatus, &p.CreatedAt,
		); err != nil {
			return nil, err
		}
		passes = append(passes, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(passes) == 0 {
		return nil, ErrNotFound
	}
	for i := range passes {
		entries, err := r.scanEntries(ctx, passes[i].ID)
		if err != nil {
			return nil, err
		}
		passes[i].Entries = entries
	}
	return passes, nil
}

// Summary builds the scanner-facing projection for a pass: event display
// fields joined in, plus the entry count. Returns ErrNotFound when the UUID
// is unknown.
func (r *PassRepo) Summary(ctx context.Context, publicUUID string) (*model.PassSummary, error) {
	const q = `SELECT p.amount_cents, e.name, e.start_time, p.payment_status, p.created_at, e.id,
	                  (SELECT COUNT(*) FROM pass_entries pe WHERE pe.pass_id = p.id)
	           FROM passes p
	           JOIN events e ON e.id = p.event_id
	           WHERE p.public_uuid = ? LIMIT 1`
	var s model.PassSummary
	err := r.db.QueryRowContext(ctx, q, publicUUID).Scan(
		&s.AmountCents, &s.EventName, &s.EventDate, &s.PaymentStatus,
		&s.CreatedAt, &s.EventID, &s.EntryCount,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("pass summary: %w", err)
	}
	return &s, nil
}

// RedeemEntry atomically consumes one entry of the pass identified by
// publicUUID. The check-and-set is a single conditional UPDATE, so N
// concurrent attempts on the same entry yield exactly one row change; the
// winner gets the consumed entry back, every loser is classified by a
// follow-up read into ErrAlreadyRedeemed or ErrNotFound. consumed_at is set
// once and never cleared; there is no transition out of the consumed state.
func (r *PassRepo) RedeemEntry(ctx context.Context, publicUUID string, entryID uint64) (*model.Entry, error) {
	const upd = `UPDATE pass_entries pe
	             JOIN passes p ON p.id = pe.pass_id
	             SET pe.consumed = 1, pe.consumed_at = UTC_TIMESTAMP()
	             WHERE p.public_uuid = ? AND pe.id = ? AND pe.consumed = 0`
	res, err := r.db.ExecContext(ctx, upd, publicUUID, entryID)
	if err != nil {
		return nil, fmt.Errorf("redeem entry: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 1 {
		return r.getEntry(ctx, publicUUID, entryID)
	}
	// No row changed: either the entry is already consumed or the
	// identifiers do not match anything.
	entry, err := r.getEntry(ctx, publicUUID, entryID)
	if err != nil {
		return nil, err
	}
	if entry.Consumed {
		return nil, ErrAlreadyRedeemed
	}
	// The entry was unconsumed at read time yet the UPDATE matched nothing;
	// only an interleaved write can cause this. Surface it as retryable.
	return nil, fmt.Errorf("redeem entry %d of %s: state changed underneath", entryID, publicUUID)
}

// ExpireBefore transitions active passes to expired for every event whose
// start time is older than the cutoff. active_key is cleared together with
// the status so the uniqueness slot for (user, event) is freed. Entry state
// is never touched: consumed stays consumed. Returns the number of passes
// transitioned.
func (r *PassRepo) ExpireBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	const q = `UPDATE passes p
	           JOIN events e ON e.id = p.event_id
	           SET p.status = 'expired', p.active_key = NULL
	           WHERE p.status = 'active' AND e.start_time < ?`
	res, err := r.db.ExecContext(ctx, q, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("expire passes: %w", err)
	}
	return res.RowsAffected()
}

// getEntry loads a single entry addressed the way scanners address it, by
// (public UUID, entry id). Returns ErrNotFound for an unknown pair.
func (r *PassRepo) getEntry(ctx context.Context, publicUUID string, entryID uint64) (*model.Entry, error) {
	const q = `SELECT pe.id, pe.pass_id, pe.label, pe.consumed, pe.consumed_at, pe.created_at
	           FROM pass_entries pe
	           JOIN passes p ON p.id = pe.pass_id
	           WHERE p.public_uuid = ? AND pe.id = ? LIMIT 1`
	var e model.Entry
	var consumedAt sql.NullTime
	err := r.db.QueryRowContext(ctx, q, publicUUID, entryID).Scan(
		&e.ID, &e.PassID, &e.Label, &e.Consumed, &consumedAt, &e.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get entry: %w", err)
	}
	if consumedAt.Valid {
		t := consumedAt.Time
		e.ConsumedAt = &t
	}
	return &e, nil
}

// scanEntries loads all entries of a pass ordered by id.
func (r *PassRepo) scanEntries(ctx context.Context, passID uint64) ([]model.Entry, error) {
	const q = `SELECT id, pass_id, label, consumed, consumed_at, created_at
	           FROM pass_entries WHERE pass_id = ? ORDER BY id ASC`
	rows, err := r.db.QueryContext(ctx, q, passID)
	if err != nil {
		return nil, fmt.Errorf("load entries for pass %d: %w", passID, err)
	}
	defer rows.Close()
	return collectEntries(rows)
}

// scanEntriesTx is scanEntries inside an open transaction.
func scanEntriesTx(ctx context.Context, tx *sql.Tx, passID uint64) ([]model.Entry, error) {
	const q = `SELECT id, pass_id, label, consumed, consumed_at, created_at
	           FROM pass_entries WHERE pass_id = ? ORDER BY id ASC`
	rows, err := tx.QueryContext(ctx, q, passID)
	if err != nil {
		return nil, fmt.Errorf("load entries for pass %d: %w", passID, err)
	}
	defer rows.Close()
	return collectEntries(rows)
}

func collectEntries(rows *sql.Rows) ([]model.Entry, error) {
	var entries []model.Entry
	for rows.Next() {
		var e model.Entry
		var consumedAt sql.NullTime
		if err := rows.Scan(&e.ID, &e.PassID, &e.Label, &e.Consumed, &consumedAt, &e.CreatedAt); err != nil {
			return nil, err
		}
		if consumedAt.Valid {
			t := consumedAt.Time
			e.ConsumedAt = &t
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}
