package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campus-events/gatepass/internal/model"
	"github.com/campus-events/gatepass/internal/repository"
	"github.com/campus-events/gatepass/internal/service"
)

// memStore backs the real issuance service with in-memory state so the
// handler's status-code mapping can be exercised without a database.
type memStore struct {
	mu        sync.Mutex
	user      model.User
	event     model.Event
	hasEvent  bool
	passes    map[string]*model.Pass
	active    map[uint64]string // eventID -> pass uuid for the single user
	createErr error
	nextID    uint64
}

func newMemStore(user model.User, event model.Event) *memStore {
	return &memStore{
		user:     user,
		event:    event,
		hasEvent: true,
		passes:   make(map[string]*model.Pass),
		active:   make(map[uint64]string),
	}
}

func (m *memStore) GetByID(_ context.Context, id uint64) (*model.User, error) {
	if id != m.user.ID {
		return nil, repository.ErrNotFound
	}
	cp := m.user
	return &cp, nil
}

func (m *memStore) eventByID(id uint64) (*model.Event, error) {
	if !m.hasEvent || id != m.event.ID {
		return nil, repository.ErrNotFound
	}
	cp := m.event
	return &cp, nil
}

type memEvents struct{ s *memStore }

func (m memEvents) GetByID(_ context.Context, id uint64) (*model.Event, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	return m.s.eventByID(id)
}

func (m memEvents) ReserveSeat(_ context.Context, eventID uint64) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if _, err := m.s.eventByID(eventID); err != nil {
		return err
	}
	if m.s.event.RegistrationCount >= m.s.event.TotalSeats {
		return repository.ErrSoldOut
	}
	m.s.event.RegistrationCount++
	return nil
}

func (m memEvents) ReleaseSeat(_ context.Context, eventID uint64) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if m.s.event.RegistrationCount > 0 {
		m.s.event.RegistrationCount--
	}
	return nil
}

type memPasses struct{ s *memStore }

func (m memPasses) CreateActive(_ context.Context, userID, eventID uint64, labels []string) (*model.Pass, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if m.s.createErr != nil {
		return nil, m.s.createErr
	}
	if _, exists := m.s.active[eventID]; exists {
		return nil, repository.ErrAlreadyBooked
	}
	m.s.nextID++
	p := &model.Pass{
		ID:            m.s.nextID,
		PublicUUID:    uuid.NewString(),
		UserID:        userID,
		EventID:       eventID,
		Status:        model.PassActive,
		PaymentStatus: "not_required",
		CreatedAt:     time.Now().UTC(),
	}
	for _, label := range labels {
		m.s.nextID++
		p.Entries = append(p.Entries, model.Entry{ID: m.s.nextID, PassID: p.ID, Label: label})
	}
	m.s.active[eventID] = p.PublicUUID
	m.s.passes[p.PublicUUID] = p
	return p, nil
}

func (m memPasses) FindByPublicUUID(_ context.Context, publicUUID string) (*model.Pass, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	p, ok := m.s.passes[publicUUID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return p, nil
}

func (m memPasses) FindActiveByUserAndEvent(_ context.Context, userID, eventID uint64) ([]model.Pass, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	id, ok := m.s.active[eventID]
	if !ok || m.s.passes[id].UserID != userID {
		return nil, repository.ErrNotFound
	}
	return []model.Pass{*m.s.passes[id]}, nil
}

func (m memPasses) Summary(_ context.Context, publicUUID string) (*model.PassSummary, error) {
	return nil, repository.ErrNotFound
}

func (m memPasses) RedeemEntry(_ context.Context, publicUUID string, entryID uint64) (*model.Entry, error) {
	return nil, repository.ErrNotFound
}

func (m memPasses) ExpireBefore(_ context.Context, cutoff time.Time) (int64, error) {
	return 0, nil
}

func newBookingHandler(store *memStore) *PassHandler {
	svc := service.NewIssuanceService(store, memEvents{store}, memPasses{store}, 5)
	return NewPassHandler(svc)
}

func doBook(t *testing.T, h *PassHandler, userID interface{}, body string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/passes", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if userID != nil {
		c.Set("user_id", userID)
	}
	require.NoError(t, h.Book(c))
	return rec
}

func testStore() *memStore {
	return newMemStore(
		model.User{ID: 1, Name: "Test", Role: model.RoleUser, IsActive: true},
		model.Event{ID: 10, Name: "Freshers Night", StartTime: time.Now().Add(24 * time.Hour), TotalSeats: 100, IsLive: true, Mode: model.ModeOffline},
	)
}

func TestBook_Created(t *testing.T) {
	h := newBookingHandler(testStore())
	rec := doBook(t, h, float64(1), `{"event_id":10,"people":2}`)

	require.Equal(t, http.StatusCreated, rec.Code)
	var resp service.IssuedPass
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.PublicUUID)
	assert.Equal(t, "Freshers Night", resp.EventName)
	assert.Len(t, resp.Entries, 2)
}

func TestBook_Unauthorized(t *testing.T) {
	h := newBookingHandler(testStore())
	rec := doBook(t, h, nil, `{"event_id":10}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestBook_MissingEventID(t *testing.T) {
	h := newBookingHandler(testStore())
	rec := doBook(t, h, float64(1), `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBook_UnknownEvent(t *testing.T) {
	h := newBookingHandler(testStore())
	rec := doBook(t, h, float64(1), `{"event_id":99}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBook_UnknownUser(t *testing.T) {
	h := newBookingHandler(testStore())
	rec := doBook(t, h, float64(7), `{"event_id":10}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBook_SoldOutConflict(t *testing.T) {
	store := testStore()
	store.event.RegistrationCount = store.event.TotalSeats
	h := newBookingHandler(store)

	rec := doBook(t, h, float64(1), `{"event_id":10}`)
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "sold_out")
}

func TestBook_DuplicateConflict(t *testing.T) {
	h := newBookingHandler(testStore())

	rec := doBook(t, h, float64(1), `{"event_id":10}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doBook(t, h, float64(1), `{"event_id":10}`)
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "already_booked")
}

func TestLookup(t *testing.T) {
	h := newBookingHandler(testStore())
	rec := doBook(t, h, float64(1), `{"event_id":10}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/passes/lookup", strings.NewReader(`{"event_id":10}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	lookupRec := httptest.NewRecorder()
	c := e.NewContext(req, lookupRec)
	c.Set("user_id", float64(1))
	require.NoError(t, h.Lookup(c))

	require.Equal(t, http.StatusOK, lookupRec.Code)
	assert.Contains(t, lookupRec.Body.String(), "pass_uuid")

	// Nothing booked for another event id.
	req = httptest.NewRequest(http.MethodPost, "/v1/passes/lookup", strings.NewReader(`{"event_id":10}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	missRec := httptest.NewRecorder()
	c = e.NewContext(req, missRec)
	c.Set("user_id", float64(2))
	require.NoError(t, h.Lookup(c))
	require.Equal(t, http.StatusNotFound, missRec.Code)
}
