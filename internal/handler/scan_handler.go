package handler

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/campus-events/gatepass/internal/model"
	"github.com/campus-events/gatepass/internal/monitoring"
	"github.com/campus-events/gatepass/internal/queue"
	"github.com/campus-events/gatepass/internal/repository"
	"github.com/campus-events/gatepass/internal/service"
)

// ScanHandler serves the door-side API: pass summaries, per-entry detail
// and the redeem call itself. Every route except the public summary is
// role-gated by middleware; Redeem additionally re-checks the actor against
// the pass's own event, so a scanner token for one event cannot redeem
// entries of another.
type ScanHandler struct {
	Redemption *service.RedemptionService
	Access     *service.AccessPolicy
	Users      *repository.UserRepo
}

// NewScanHandler constructs a ScanHandler and panics on nil dependencies.
func NewScanHandler(redemption *service.RedemptionService, access *service.AccessPolicy, users *repository.UserRepo) *ScanHandler {
	if redemption == nil || access == nil || users == nil {
		panic("nil dependency passed to NewScanHandler")
	}
	return &ScanHandler{Redemption: redemption, Access: access, Users: users}
}

// Summary handles GET /v1/passes/:uuid/summary, the confirmation screen a
// scanner shows before redeeming anything. It is read-only and safe to
// repeat.
func (h *ScanHandler) Summary(c echo.Context) error {
	publicUUID := c.Param("uuid")
	if publicUUID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing pass uuid"})
	}
	summary, err := h.Redemption.ResolvePassSummary(c.Request().Context(), publicUUID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "pass not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load pass"})
	}
	return c.JSON(http.StatusOK, summary)
}

// EntryDetail handles GET /v1/passes/:uuid/entries/:entry_id.
func (h *ScanHandler) EntryDetail(c echo.Context) error {
	publicUUID := c.Param("uuid")
	entryID, err := parseIDParam(c, "entry_id")
	if publicUUID == "" || err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid pass uuid or entry id"})
	}
	detail, err := h.Redemption.ResolveEntry(c.Request().Context(), publicUUID, entryID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "entry not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load entry"})
	}
	return c.JSON(http.StatusOK, detail)
}

// authorizeRequest is the payload for POST /v1/scan/authorize.
type authorizeRequest struct {
	EventID uint64 `json:"event_id"`
}

// Authorize handles POST /v1/scan/authorize. Scanning clients call it once
// at setup to learn whether the signed-in operator may work the given
// event's door before any pass is presented.
func (h *ScanHandler) Authorize(c echo.Context) error {
	actor, status, msg := h.resolveActor(c)
	if actor == nil {
		return c.JSON(status, echo.Map{"error": msg})
	}
	var req authorizeRequest
	if err := c.Bind(&req); err != nil || req.EventID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "event_id is required"})
	}
	if err := h.Access.AuthorizeScan(c.Request().Context(), actor, req.EventID); err != nil {
		switch {
		case errors.Is(err, service.ErrEventNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "event not found"})
		case errors.Is(err, repository.ErrForbidden):
			return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "authorization check failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"authorized": true, "event_id": req.EventID})
}

// redeemRequest is the payload for POST /v1/scan/redeem.
type redeemRequest struct {
	PassUUID string `json:"pass_uuid"`
	EntryID  uint64 `json:"entry_id"`
}

// Redeem handles POST /v1/scan/redeem. Exactly one of any number of
// concurrent redeem calls for the same entry gets 200; every other caller
// gets 409 with code already_redeemed, never a second success.
func (h *ScanHandler) Redeem(c echo.Context) error {
	actor, status, msg := h.resolveActor(c)
	if actor == nil {
		return c.JSON(status, echo.Map{"error": msg})
	}
	var req redeemRequest
	if err := c.Bind(&req); err != nil || req.PassUUID == "" || req.EntryID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "pass_uuid and entry_id are required"})
	}
	ctx := c.Request().Context()

	// Resolve first so the role check runs against the event the pass
	// actually belongs to.
	detail, err := h.Redemption.ResolveEntry(ctx, req.PassUUID, req.EntryID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			monitoring.RecordRedemption(monitoring.OutcomeNotFound)
			return c.JSON(http.StatusNotFound, echo.Map{"error": "pass or entry not found"})
		}
		monitoring.RecordRedemption(monitoring.OutcomeError)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "redeem failed"})
	}
	if err := h.Access.AuthorizeScan(ctx, actor, detail.EventID); err != nil {
		if errors.Is(err, repository.ErrForbidden) {
			monitoring.RecordRedemption(monitoring.OutcomeForbidden)
			return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
		}
		monitoring.RecordRedemption(monitoring.OutcomeError)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "redeem failed"})
	}

	entry, err := h.Redemption.Redeem(ctx, req.PassUUID, req.EntryID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrAlreadyRedeemed):
			monitoring.RecordRedemption(monitoring.OutcomeAlreadyRedeemed)
			return c.JSON(http.StatusConflict, echo.Map{"error": "entry already redeemed", "code": "already_redeemed"})
		case errors.Is(err, repository.ErrNotFound):
			monitoring.RecordRedemption(monitoring.OutcomeNotFound)
			return c.JSON(http.StatusNotFound, echo.Map{"error": "pass or entry not found"})
		}
		monitoring.RecordRedemption(monitoring.OutcomeError)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "redeem failed"})
	}
	monitoring.RecordRedemption(monitoring.OutcomeSuccess)

	redeemedAt := time.Now().UTC()
	if entry.ConsumedAt != nil {
		redeemedAt = entry.ConsumedAt.UTC()
	}
	if err := queue.PublishEntryRedeemed(ctx, queue.EntryRedeemedEvent{
		PassUUID:   req.PassUUID,
		EntryID:    entry.ID,
		EntryLabel: entry.Label,
		EventID:    detail.EventID,
		ScannedBy:  actor.ID,
		RedeemedAt: redeemedAt.Format(time.RFC3339),
	}); err != nil {
		log.Printf("publish entry.redeemed for %s/%d: %v", req.PassUUID, entry.ID, err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"redeemed": true,
		"entry":    entry,
	})
}

// resolveActor loads the full user record behind the JWT identity. A valid
// token whose user row has since been deactivated or removed is rejected.
func (h *ScanHandler) resolveActor(c echo.Context) (*model.User, int, string) {
	userID, err := getUserID(c)
	if err != nil {
		return nil, http.StatusUnauthorized, "unauthorized"
	}
	u, err := h.Users.GetByID(c.Request().Context(), userID)
	if err != nil || !u.IsActive {
		return nil, http.StatusUnauthorized, "unauthorized"
	}
	return u, http.StatusOK, ""
}
