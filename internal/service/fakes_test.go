package service_test

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/campus-events/gatepass/internal/model"
	"github.com/campus-events/gatepass/internal/repository"
)

// The fakes below are mutex-serialized in-memory stores that honor the same
// contracts as the MySQL repositories: conditional seat claims, one active
// pass per (user, event), exactly-once redemption. Serializing through a
// single mutex makes them safe targets for the concurrency tests.

type fakeUsers struct {
	mu    sync.Mutex
	users map[uint64]model.User
}

func newFakeUsers(users ...model.User) *fakeUsers {
	f := &fakeUsers{users: make(map[uint64]model.User)}
	for _, u := range users {
		f.users[u.ID] = u
	}
	return f
}

func (f *fakeUsers) GetByID(_ context.Context, id uint64) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := u
	return &cp, nil
}

type fakeEvents struct {
	mu       sync.Mutex
	events   map[uint64]model.Event
	reserves int
	releases int

	reserveErr error
	releaseErr error
}

func newFakeEvents(events ...model.Event) *fakeEvents {
	f := &fakeEvents{events: make(map[uint64]model.Event)}
	for _, e := range events {
		f.events[e.ID] = e
	}
	return f
}

func (f *fakeEvents) GetByID(_ context.Context, id uint64) (*model.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.events[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := e
	return &cp, nil
}

func (f *fakeEvents) ReserveSeat(_ context.Context, eventID uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.reserveErr != nil {
		return f.reserveErr
	}
	e, ok := f.events[eventID]
	if !ok {
		return repository.ErrNotFound
	}
	if e.RegistrationCount >= e.TotalSeats {
		return repository.ErrSoldOut
	}
	e.RegistrationCount++
	f.events[eventID] = e
	f.reserves++
	return nil
}

func (f *fakeEvents) ReleaseSeat(_ context.Context, eventID uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.releaseErr != nil {
		return f.releaseErr
	}
	e, ok := f.events[eventID]
	if ok && e.RegistrationCount > 0 {
		e.RegistrationCount--
		f.events[eventID] = e
	}
	f.releases++
	return nil
}

func (f *fakeEvents) registrationCount(eventID uint64) uint32 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.events[eventID].RegistrationCount
}

type userEvent struct{ userID, eventID uint64 }

type fakePasses struct {
	mu      sync.Mutex
	nextID  uint64
	active  map[userEvent]string
	byUUID  map[string]*model.Pass
	events  *fakeEvents
	expired []time.Time

	createErr error
	expireN   int64
}

func newFakePasses(events *fakeEvents) *fakePasses {
	return &fakePasses{
		active: make(map[userEvent]string),
		byUUID: make(map[string]*model.Pass),
		events: events,
	}
}

func (f *fakePasses) CreateActive(_ context.Context, userID, eventID uint64, labels []string) (*model.Pass, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	key := userEvent{userID, eventID}
	if _, exists := f.active[key]; exists {
		return nil, repository.ErrAlreadyBooked
	}
	f.nextID++
	pass := &model.Pass{
		ID:            f.nextID,
		PublicUUID:    uuid.NewString(),
		UserID:        userID,
		EventID:       eventID,
		Status:        model.PassActive,
		PaymentStatus: "not_required",
		CreatedAt:     time.Now().UTC(),
	}
	for _, label := range labels {
		f.nextID++
		pass.Entries = append(pass.Entries, model.Entry{
			ID:        f.nextID,
			PassID:    pass.ID,
			Label:     label,
			CreatedAt: pass.CreatedAt,
		})
	}
	f.active[key] = pass.PublicUUID
	f.byUUID[pass.PublicUUID] = pass
	return copyPass(pass), nil
}

func (f *fakePasses) FindByPublicUUID(_ context.Context, publicUUID string) (*model.Pass, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	pass, ok := f.byUUID[publicUUID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return copyPass(pass), nil
}

func (f *fakePasses) FindActiveByUserAndEvent(_ context.Context, userID, eventID uint64) ([]model.Pass, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id, ok := f.active[userEvent{userID, eventID}]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return []model.Pass{*copyPass(f.byUUID[id])}, nil
}

func (f *fakePasses) Summary(_ context.Context, publicUUID string) (*model.PassSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	pass, ok := f.byUUID[publicUUID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	s := &model.PassSummary{
		AmountCents:   pass.AmountCents,
		PaymentStatus: pass.PaymentStatus,
		CreatedAt:     pass.CreatedAt,
		EntryCount:    len(pass.Entries),
		EventID:       pass.EventID,
	}
	if f.events != nil {
		if e, ok := f.events.events[pass.EventID]; ok {
			s.EventName = e.Name
			s.EventDate = e.StartTime
		}
	}
	return s, nil
}

func (f *fakePasses) RedeemEntry(_ context.Context, publicUUID string, entryID uint64) (*model.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	pass, ok := f.byUUID[publicUUID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	for i := range pass.Entries {
		if pass.Entries[i].ID != entryID {
			continue
		}
		if pass.Entries[i].Consumed {
			return nil, repository.ErrAlreadyRedeemed
		}
		now := time.Now().UTC()
		pass.Entries[i].Consumed = true
		pass.Entries[i].ConsumedAt = &now
		cp := pass.Entries[i]
		return &cp, nil
	}
	return nil, repository.ErrNotFound
}

func (f *fakePasses) ExpireBefore(_ context.Context, cutoff time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.expired = append(f.expired, cutoff)
	return f.expireN, nil
}

func copyPass(p *model.Pass) *model.Pass {
	cp := *p
	cp.Entries = append([]model.Entry(nil), p.Entries...)
	return &cp
}
