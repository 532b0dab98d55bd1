// Package repository defines the sentinel errors shared by the data access
// layer. Services and handlers compare against these values with errors.Is
// to pick the right outcome for the caller; the distinction between "already
// scanned" and "not found" in particular is what lets door staff tell a
// replayed code from a mistyped one.
package repository

import "errors"

// ErrNotFound is returned when a user, event, pass or entry does not exist.
// Handlers translate this into an HTTP 404 response.
var ErrNotFound = errors.New("not found")

// ErrAlreadyBooked is returned when an active pass already exists for the
// same user and event. The store enforces this with a unique key, so it is
// raised even when two bookings race. Handlers translate it into 409.
var ErrAlreadyBooked = errors.New("already booked")

// ErrSoldOut is returned when the conditional seat increment finds no
// remaining capacity. Handlers translate it into 409 with a distinct code
// so clients can render the right message.
var ErrSoldOut = errors.New("sold out")

// ErrAlreadyRedeemed is returned when a redemption targets an entry whose
// consumed flag is already set. Terminal for the request; never retried.
var ErrAlreadyRedeemed = errors.New("entry already redeemed")

// ErrForbidden is returned when the caller's role does not authorize the
// operation. Handlers translate this into 403.
var ErrForbidden = errors.New("forbidden")
