package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/campus-events/gatepass/internal/model"
	"github.com/campus-events/gatepass/internal/repository"
)

// AccessPolicy authorizes the privileged operations: scanning entries at
// the door and creating catalog events. Booking and read-only lookups need
// only an authenticated identity and are not gated here.
//
// Scanning is allowed for admin and event_manager. The system this replaces
// had a second, inner check that re-restricted scanning to admin only,
// which made the event_manager role dead; that inner check was a bug and is
// intentionally not reproduced.
type AccessPolicy struct {
	events EventCatalog
}

// NewAccessPolicy constructs an AccessPolicy over the given catalog.
func NewAccessPolicy(events EventCatalog) *AccessPolicy {
	if events == nil {
		panic("nil event catalog passed to NewAccessPolicy")
	}
	return &AccessPolicy{events: events}
}

// scanRoles are the roles allowed to redeem entries.
var scanRoles = map[string]bool{
	model.RoleAdmin:        true,
	model.RoleEventManager: true,
}

// AuthorizeScan checks that actor may scan passes for eventID. Outcomes:
// nil, ErrEventNotFound, or repository.ErrForbidden.
func (p *AccessPolicy) AuthorizeScan(ctx context.Context, actor *model.User, eventID uint64) error {
	if _, err := p.events.GetByID(ctx, eventID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrEventNotFound
		}
		return fmt.Errorf("resolve event: %w", err)
	}
	if actor == nil || !scanRoles[actor.Role] {
		return repository.ErrForbidden
	}
	return nil
}

// AuthorizeEventCreate checks that actor may create catalog events. Only
// admins (and superadmins) manage the catalog.
func (p *AccessPolicy) AuthorizeEventCreate(actor *model.User) error {
	if actor == nil {
		return repository.ErrForbidden
	}
	switch actor.Role {
	case model.RoleAdmin, model.RoleSuperAdmin:
		return nil
	}
	return repository.ErrForbidden
}
