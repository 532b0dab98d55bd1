package service

import (
	"context"
	"fmt"

	"github.com/campus-events/gatepass/internal/model"
	"github.com/campus-events/gatepass/internal/repository"
)

// EntryDetail is what a scanner shows before confirming redemption of one
// specific entry: who bought the pass, which event, which slot.
type EntryDetail struct {
	BuyerUserID uint64      `json:"buyer_user_id"`
	EventID     uint64      `json:"event_id"`
	AmountCents uint32      `json:"amount"`
	Entry       model.Entry `json:"entry"`
}

// RedemptionService handles scan-time validation. It is deliberately thin:
// the exactly-once guarantee lives in the pass store's conditional update,
// and this service only shapes lookups and outcomes for the scanning client.
type RedemptionService struct {
	passes PassStore
}

// NewRedemptionService constructs a RedemptionService.
func NewRedemptionService(passes PassStore) *RedemptionService {
	if passes == nil {
		panic("nil pass store passed to NewRedemptionService")
	}
	return &RedemptionService{passes: passes}
}

// ResolvePassSummary returns the read-only projection for the scanner's
// confirmation screen. Outcomes: the summary, or repository.ErrNotFound.
func (s *RedemptionService) ResolvePassSummary(ctx context.Context, publicUUID string) (*model.PassSummary, error) {
	return s.passes.Summary(ctx, publicUUID)
}

// ResolveEntry locates one entry inside a pass for pre-confirmation display.
// Outcomes: the detail, or repository.ErrNotFound for an unknown UUID or an
// entry id the pass does not contain.
func (s *RedemptionService) ResolveEntry(ctx context.Context, publicUUID string, entryID uint64) (*EntryDetail, error) {
	pass, err := s.passes.FindByPublicUUID(ctx, publicUUID)
	if err != nil {
		return nil, err
	}
	entry := pass.Entry(entryID)
	if entry == nil {
		return nil, fmt.Errorf("entry %d: %w", entryID, repository.ErrNotFound)
	}
	return &EntryDetail{
		BuyerUserID: pass.UserID,
		EventID:     pass.EventID,
		AmountCents: pass.AmountCents,
		Entry:       *entry,
	}, nil
}

// Redeem consumes one entry, exactly once. Outcomes: the consumed entry on
// success, repository.ErrNotFound for an unknown (uuid, entry) pair,
// repository.ErrAlreadyRedeemed for a replay. A replay is never reported as
// success: a pass must not admit more people than it has entries for.
func (s *RedemptionService) Redeem(ctx context.Context, publicUUID string, entryID uint64) (*model.Entry, error) {
	return s.passes.RedeemEntry(ctx, publicUUID, entryID)
}
