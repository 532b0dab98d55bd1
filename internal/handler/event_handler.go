package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/campus-events/gatepass/internal/model"
	"github.com/campus-events/gatepass/internal/repository"
	"github.com/campus-events/gatepass/internal/service"
)

// EventHandler exposes the event catalog. Listing and detail are public;
// creation is gated by the access policy.
type EventHandler struct {
	Events *repository.EventRepo
	Users  *repository.UserRepo
	Access *service.AccessPolicy
}

// NewEventHandler constructs an EventHandler and panics on nil dependencies.
func NewEventHandler(events *repository.EventRepo, users *repository.UserRepo, access *service.AccessPolicy) *EventHandler {
	if events == nil || users == nil || access == nil {
		panic("nil dependency passed to NewEventHandler")
	}
	return &EventHandler{Events: events, Users: users, Access: access}
}

// eventView is the wire shape of a catalog event. available_seats is derived
// at response time; clients must not treat it as a reservation.
type eventView struct {
	ID             uint64    `json:"id"`
	Name           string    `json:"name"`
	Description    string    `json:"description"`
	StartTime      time.Time `json:"start_time"`
	Location       string    `json:"location"`
	Mode           string    `json:"mode"`
	TotalSeats     uint32    `json:"total_seats"`
	AvailableSeats uint32    `json:"available_seats"`
	Bookable       bool      `json:"bookable"`
}

func toEventView(e *model.Event) eventView {
	return eventView{
		ID:             e.ID,
		Name:           e.Name,
		Description:    e.Description,
		StartTime:      e.StartTime,
		Location:       e.Location,
		Mode:           e.Mode,
		TotalSeats:     e.TotalSeats,
		AvailableSeats: e.AvailableSeats(),
		Bookable:       e.IsBookable(),
	}
}

// List handles GET /v1/events with ?page and ?limit pagination.
func (h *EventHandler) List(c echo.Context) error {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if limit < 1 || limit > 100 {
		limit = 20
	}
	events, total, err := h.Events.List(c.Request().Context(), page, limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to list events"})
	}
	views := make([]eventView, 0, len(events))
	for i := range events {
		views = append(views, toEventView(&events[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{
		"events": views,
		"page":   page,
		"limit":  limit,
		"total":  total,
	})
}

// Get handles GET /v1/events/:id.
func (h *EventHandler) Get(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	event, err := h.Events.GetByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load event"})
	}
	return c.JSON(http.StatusOK, toEventView(event))
}

// createEventRequest is the payload for POST /v1/events.
type createEventRequest struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	StartTime   time.Time `json:"start_time"`
	Location    string    `json:"location"`
	Mode        string    `json:"mode"`
	TotalSeats  uint32    `json:"total_seats"`
	IsLive      *bool     `json:"is_live"`
}

// Create handles POST /v1/events. Only admins may create catalog entries.
func (h *EventHandler) Create(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	actor, err := h.Users.GetByID(c.Request().Context(), userID)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	if err := h.Access.AuthorizeEventCreate(actor); err != nil {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}

	var req createEventRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if req.Name == "" || req.StartTime.IsZero() || req.TotalSeats == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name, start_time and total_seats are required"})
	}
	if req.Mode == "" {
		req.Mode = model.ModeOffline
	}
	if req.Mode != model.ModeOnline && req.Mode != model.ModeOffline {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "mode must be online or offline"})
	}

	event := &model.Event{
		Name:        req.Name,
		Description: req.Description,
		StartTime:   req.StartTime,
		Location:    req.Location,
		Mode:        req.Mode,
		TotalSeats:  req.TotalSeats,
		IsLive:      req.IsLive == nil || *req.IsLive,
	}
	if err := h.Events.Create(c.Request().Context(), event); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create event"})
	}
	return c.JSON(http.StatusCreated, toEventView(event))
}
