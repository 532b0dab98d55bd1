package model

import "time"

// Pass status values for the `passes.status` column.
const (
	PassActive    = "active"
	PassExpired   = "expired"
	PassCancelled = "cancelled"
)

// Entry is one redeemable admission slot within a pass. Entries have no
// identity outside their pass: scanning devices reference them by the pair
// (pass public UUID, entry ID). Consumed transitions false→true exactly
// once; ConsumedAt is set at that moment and never cleared.
//
// Fields:
//  ID         – identifier of the entry, unique within the pass.
//  PassID     – owning pass.
//  Label      – display label for door staff ("self", "friend 1", ...).
//  Consumed   – whether the entry has been redeemed.
//  ConsumedAt – when redemption happened (nil while unconsumed).
//  CreatedAt  – timestamp of creation (same instant as the pass).
type Entry struct {
	ID         uint64     // pass_entries.id
	PassID     uint64     // pass_entries.pass_id
	Label      string     // pass_entries.label
	Consumed   bool       // pass_entries.consumed
	ConsumedAt *time.Time // pass_entries.consumed_at (nullable)
	CreatedAt  time.Time  // pass_entries.created_at
}

// Pass is a booking record admitting one or more persons to one event. It
// belongs to exactly one user and one event; ownership never changes after
// creation. PublicUUID is the externally shared lookup key handed to
// scanning devices and must be unguessable, so it is a random v4 UUID,
// distinct from the internal ID.
//
// Fields:
//  ID            – system-internal identifier, assigned at creation.
//  PublicUUID    – random, externally shareable lookup identifier.
//  UserID        – owner of the pass.
//  EventID       – event the pass admits to.
//  Status        – PassActive, PassExpired or PassCancelled.
//  AmountCents   – price paid; zero for free registration events.
//  PaymentStatus – payment state label surfaced on scanner summaries.
//  Entries       – ordered, non-empty admission slots under this pass.
//  CreatedAt     – timestamp of creation.
type Pass struct {
	ID            uint64    // passes.id
	PublicUUID    string    // passes.public_uuid
	UserID        uint64    // passes.user_id
	EventID       uint64    // passes.event_id
	Status        string    // passes.status
	AmountCents   uint32    // passes.amount_cents
	PaymentStatus string    // passes.payment_status
	Entries       []Entry   // pass_entries rows, ordered by id
	CreatedAt     time.Time // passes.created_at
}

// Entry returns the entry with the given ID, or nil when the pass has no
// such entry. Entry counts per pass are small and bounded by configuration,
// so a scan over the slice is fine here; the SQL redemption path uses the
// (pass_id, id) key directly.
func (p *Pass) Entry(entryID uint64) *Entry {
	for i := range p.Entries {
		if p.Entries[i].ID == entryID {
			return &p.Entries[i]
		}
	}
	return nil
}

// ConsumedCount returns how many entries of the pass have been redeemed.
func (p *Pass) ConsumedCount() int {
	n := 0
	for i := range p.Entries {
		if p.Entries[i].Consumed {
			n++
		}
	}
	return n
}

// PassSummary is the read-only projection a scanner displays before
// confirming redemption. It is denormalized from the pass and its event and
// never persisted.
type PassSummary struct {
	AmountCents   uint32    `json:"amount"`
	EventName     string    `json:"event_name"`
	EventDate     time.Time `json:"event_date"`
	PaymentStatus string    `json:"payment_status"`
	CreatedAt     time.Time `json:"created_at"`
	EntryCount    int       `json:"entry_count"`
	EventID       uint64    `json:"event_id"`
}
