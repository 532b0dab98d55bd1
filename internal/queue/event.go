// Package queue defines the audit events the service publishes to the
// message broker and the payloads exchanged over it.
package queue

// PassIssuedEvent is published when a booking succeeds. It carries enough
// for downstream consumers to log or notify without querying the database.
type PassIssuedEvent struct {
	PassID     uint64 `json:"pass_id"`
	PassUUID   string `json:"pass_uuid"`
	UserID     uint64 `json:"user_id"`
	EventID    uint64 `json:"event_id"`
	EventName  string `json:"event_name"`
	EntryCount int    `json:"entry_count"`
	IssuedAt   string `json:"issued_at"`
}

// EntryRedeemedEvent is published when an entry is consumed at the door.
type EntryRedeemedEvent struct {
	PassUUID   string `json:"pass_uuid"`
	EntryID    uint64 `json:"entry_id"`
	EntryLabel string `json:"entry_label"`
	EventID    uint64 `json:"event_id"`
	ScannedBy  uint64 `json:"scanned_by"`
	RedeemedAt string `json:"redeemed_at"`
}
