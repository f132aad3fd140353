package services

import (
	"context"

	"github.com/SscSPs/splitledger/internal/core/domain"
	"github.com/SscSPs/splitledger/internal/dto"
)

// SettlementSvc records settlements against line items with optimistic concurrency.
type SettlementSvc interface {
	// Settle marks a line item as fully paid. The caller supplies the version it last observed.
	Settle(ctx context.Context, groupID, lineItemID string, req dto.SettleLineItemRequest, actorID string) (*domain.SplitLineItem, error)

	// RecordPayment applies a partial payment to a line item without changing its original amount.
	RecordPayment(ctx context.Context, groupID, lineItemID string, req dto.RecordPaymentRequest, actorID string) (*domain.SplitLineItem, error)
}

// ReconcilerSvc reacts to membership removal.
type ReconcilerSvc interface {
	// OnMemberRemoved writes off the removed member's outstanding line items and resolves the membership.
	OnMemberRemoved(ctx context.Context, groupID, memberID string) error
}
