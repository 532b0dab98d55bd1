package model

import "time"

// Event mode values for the `events.mode` column.
const (
	ModeOnline  = "online"
	ModeOffline = "offline"
)

// Event is the catalog record the core books against. The only field the
// core ever writes is RegistrationCount, and only through the conditional
// increment/decrement in the event repository; everything else belongs to
// the catalog's owner.
//
// Fields:
//  ID                – primary key identifier.
//  Name              – display name of the event.
//  Description       – free-form description shown on event pages.
//  StartTime         – scheduled start, stored in UTC.
//  Location          – venue or meeting link label.
//  Mode              – ModeOnline or ModeOffline.
//  TotalSeats        – fixed capacity set at creation.
//  RegistrationCount – seats handed out so far; never exceeds TotalSeats.
//  IsLive            – whether the event is open for booking.
//  CreatedAt         – timestamp of creation.
type Event struct {
	ID                uint64    // events.id
	Name              string    // events.name
	Description       string    // events.description
	StartTime         time.Time // events.start_time
	Location          string    // events.location
	Mode              string    // events.mode
	TotalSeats        uint32    // events.total_seats
	RegistrationCount uint32    // events.registration_count
	IsLive            bool      // events.is_live
	CreatedAt         time.Time // events.created_at
}

// AvailableSeats derives the remaining capacity. It is computed server-side
// only; clients never supply or cache this figure for capacity decisions.
func (e *Event) AvailableSeats() uint32 {
	if e.RegistrationCount >= e.TotalSeats {
		return 0
	}
	return e.TotalSeats - e.RegistrationCount
}

// IsBookable reports whether a booking attempt may proceed to the seat
// reservation step. The authoritative capacity check happens in the store.
func (e *Event) IsBookable() bool {
	return e.IsLive && e.AvailableSeats() > 0
}
