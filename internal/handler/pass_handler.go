package handler

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/campus-events/gatepass/internal/monitoring"
	"github.com/campus-events/gatepass/internal/queue"
	"github.com/campus-events/gatepass/internal/repository"
	"github.com/campus-events/gatepass/internal/service"
)

// PassHandler exposes the booking side of the API: issuing a pass and
// letting a holder look their own passes up again.
type PassHandler struct {
	Issuance *service.IssuanceService
}

// NewPassHandler constructs a PassHandler and panics on a nil service.
func NewPassHandler(issuance *service.IssuanceService) *PassHandler {
	if issuance == nil {
		panic("nil issuance service passed to NewPassHandler")
	}
	return &PassHandler{Issuance: issuance}
}

// bookRequest is the payload for POST /v1/passes. people defaults to 1 and
// is clamped server-side.
type bookRequest struct {
	EventID uint64 `json:"event_id"`
	People  int    `json:"people"`
}

// Book handles POST /v1/passes. The identity comes from the JWT, never the
// body, so a caller can only ever book for themselves.
func (h *PassHandler) Book(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req bookRequest
	if err := c.Bind(&req); err != nil || req.EventID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "event_id is required"})
	}

	start := time.Now()
	issued, err := h.Issuance.BookTicket(c.Request().Context(), userID, req.EventID, req.People)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			monitoring.RecordBooking(monitoring.OutcomeNotFound, time.Since(start))
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		case errors.Is(err, service.ErrEventNotFound):
			monitoring.RecordBooking(monitoring.OutcomeNotFound, time.Since(start))
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		case errors.Is(err, repository.ErrSoldOut):
			monitoring.RecordBooking(monitoring.OutcomeSoldOut, time.Since(start))
			return c.JSON(http.StatusConflict, echo.Map{"error": "event sold out", "code": "sold_out"})
		case errors.Is(err, repository.ErrAlreadyBooked):
			monitoring.RecordBooking(monitoring.OutcomeAlreadyBooked, time.Since(start))
			return c.JSON(http.StatusConflict, echo.Map{"error": "active pass already exists for this event", "code": "already_booked"})
		}
		monitoring.RecordBooking(monitoring.OutcomeError, time.Since(start))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "booking failed"})
	}
	monitoring.RecordBooking(monitoring.OutcomeSuccess, time.Since(start))

	// Audit publication is best effort; the booking already committed.
	if err := queue.PublishPassIssued(c.Request().Context(), queue.PassIssuedEvent{
		PassID:     issued.PassID,
		PassUUID:   issued.PublicUUID,
		UserID:     userID,
		EventID:    issued.EventID,
		EventName:  issued.EventName,
		EntryCount: len(issued.Entries),
		IssuedAt:   issued.CreatedAt.UTC().Format(time.RFC3339),
	}); err != nil {
		log.Printf("publish pass.issued for %s: %v", issued.PublicUUID, err)
	}

	return c.JSON(http.StatusCreated, issued)
}

// lookupRequest is the payload for POST /v1/passes/lookup.
type lookupRequest struct {
	EventID uint64 `json:"event_id"`
}

// Lookup handles POST /v1/passes/lookup. It returns the caller's active
// passes for one event so a holder who lost the confirmation can recover
// the pass UUID. The list currently holds at most one element; it stays a
// list so the contract survives if the single-active rule is ever relaxed.
func (h *PassHandler) Lookup(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req lookupRequest
	if err := c.Bind(&req); err != nil || req.EventID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "event_id is required"})
	}
	passes, err := h.Issuance.PassesForUserAndEvent(c.Request().Context(), userID, req.EventID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "no active pass for this event"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "lookup failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"passes": passes})
}
