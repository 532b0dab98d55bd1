package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/campus-events/gatepass/internal/model"
	"github.com/campus-events/gatepass/internal/repository"
)

// IssuedPass is the denormalized booking confirmation. The event display
// fields are copied in so the confirmation screen needs no second request;
// the projection itself is never persisted.
type IssuedPass struct {
	PassID         uint64        `json:"pass_id"`
	PublicUUID     string        `json:"pass_uuid"`
	EventID        uint64        `json:"event_id"`
	EventName      string        `json:"event_name"`
	EventStartTime time.Time     `json:"event_start_time"`
	EventLocation  string        `json:"event_location"`
	EventMode      string        `json:"event_mode"`
	PassStatus     string        `json:"pass_status"`
	Entries        []model.Entry `json:"entries"`
	CreatedAt      time.Time     `json:"created_at"`
}

// IssuanceService orchestrates the booking workflow: eligibility checks,
// seat reservation, pass creation. The seat is reserved before the pass is
// inserted and released again if the insert fails, so a failed booking
// leaves neither a pass nor a claimed seat behind.
type IssuanceService struct {
	users      UserDirectory
	events     EventCatalog
	passes     PassStore
	maxEntries int
}

// NewIssuanceService constructs an IssuanceService. maxEntries caps how many
// admission slots a single pass may carry; values below 1 fall back to 1.
func NewIssuanceService(users UserDirectory, events EventCatalog, passes PassStore, maxEntries int) *IssuanceService {
	if users == nil || events == nil || passes == nil {
		panic("nil store passed to NewIssuanceService")
	}
	if maxEntries < 1 {
		maxEntries = 1
	}
	return &IssuanceService{users: users, events: events, passes: passes, maxEntries: maxEntries}
}

// BookTicket books people admission slots for userID at eventID and returns
// the confirmation payload. people is clamped to [1, maxEntries].
//
// Outcomes: ErrUserNotFound, ErrEventNotFound, repository.ErrSoldOut,
// repository.ErrAlreadyBooked, or a wrapped internal error after
// compensation. Exactly one pass and one seat increment happen on success;
// neither happens on failure.
func (s *IssuanceService) BookTicket(ctx context.Context, userID, eventID uint64, people int) (*IssuedPass, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("resolve user: %w", err)
	}
	if !user.IsActive {
		return nil, ErrUserNotFound
	}

	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("resolve event: %w", err)
	}
	// Fast-fail on an obviously full event. The authoritative check is the
	// conditional increment below; this read only saves a round trip.
	if event.AvailableSeats() == 0 {
		return nil, repository.ErrSoldOut
	}

	if people < 1 {
		people = 1
	}
	if people > s.maxEntries {
		people = s.maxEntries
	}

	if err := s.events.ReserveSeat(ctx, eventID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrEventNotFound
		}
		if errors.Is(err, repository.ErrSoldOut) {
			return nil, repository.ErrSoldOut
		}
		return nil, fmt.Errorf("reserve seat: %w", err)
	}

	pass, err := s.passes.CreateActive(ctx, userID, eventID, entryLabels(people))
	if err != nil {
		// Compensate: give the claimed seat back before surfacing the
		// failure, so the registration count stays consistent with the set
		// of passes that actually exist.
		if relErr := s.events.ReleaseSeat(ctx, eventID); relErr != nil {
			return nil, fmt.Errorf("create pass failed (%v) and seat release failed: %w", err, relErr)
		}
		if errors.Is(err, repository.ErrAlreadyBooked) {
			return nil, repository.ErrAlreadyBooked
		}
		return nil, fmt.Errorf("create pass: %w", err)
	}

	return &IssuedPass{
		PassID:         pass.ID,
		PublicUUID:     pass.PublicUUID,
		EventID:        event.ID,
		EventName:      event.Name,
		EventStartTime: event.StartTime,
		EventLocation:  event.Location,
		EventMode:      event.Mode,
		PassStatus:     pass.Status,
		Entries:        pass.Entries,
		CreatedAt:      pass.CreatedAt,
	}, nil
}

// PassesForUserAndEvent returns the caller's active passes for an event,
// with event display fields denormalized the same way the confirmation is.
// Returns repository.ErrNotFound when the user holds none.
func (s *IssuanceService) PassesForUserAndEvent(ctx context.Context, userID, eventID uint64) ([]IssuedPass, error) {
	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("resolve event: %w", err)
	}
	passes, err := s.passes.FindActiveByUserAndEvent(ctx, userID, eventID)
	if err != nil {
		return nil, err
	}
	out := make([]IssuedPass, 0, len(passes))
	for _, p := range passes {
		out = append(out, IssuedPass{
			PassID:         p.ID,
			PublicUUID:     p.PublicUUID,
			EventID:        event.ID,
			EventName:      event.Name,
			EventStartTime: event.StartTime,
			EventLocation:  event.Location,
			EventMode:      event.Mode,
			PassStatus:     p.Status,
			Entries:        p.Entries,
			CreatedAt:      p.CreatedAt,
		})
	}
	return out, nil
}

// entryLabels builds the display labels for a pass with n admission slots:
// the owner first, then numbered guests.
func entryLabels(n int) []string {
	labels := make([]string, n)
	labels[0] = "self"
	for i := 1; i < n; i++ {
		labels[i] = fmt.Sprintf("guest %d", i)
	}
	return labels
}
