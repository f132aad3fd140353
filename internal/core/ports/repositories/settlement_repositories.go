package repositories

import (
	"context"

	"github.com/SscSPs/splitledger/internal/core/domain"
)

// LineItemReader defines read operations for split line items
type LineItemReader interface {
	// FindLineItemByID retrieves a single line item.
	FindLineItemByID(ctx context.Context, lineItemID string) (*domain.SplitLineItem, error)

	// ListUnsettledLineItemsByDebtor retrieves a debtor's unsettled line items on valid expenses of a group.
	ListUnsettledLineItemsByDebtor(ctx context.Context, groupID, debtorID string) ([]domain.SplitLineItem, error)
}

// SettlementReader defines read operations for settlement records
type SettlementReader interface {
	// FindSettlementByIdempotencyKey retrieves the record written for a line item under a client key.
	FindSettlementByIdempotencyKey(ctx context.Context, lineItemID, key string) (*domain.SettlementRecord, error)

	// ListSettlementsByExpenseIDs retrieves the settlement records of the given expenses, oldest first.
	ListSettlementsByExpenseIDs(ctx context.Context, expenseIDs []string) ([]domain.SettlementRecord, error)
}

// SettlementWriter defines the only write path for line items after creation.
type SettlementWriter interface {
	// ApplySettlement performs the version-checked update and stores its audit record in one unit.
	// It returns ErrVersionConflict when the stored version no longer matches, and
	// ErrNotFound once the owning expense is invalid.
	ApplySettlement(ctx context.Context, update domain.LineItemUpdate, record domain.SettlementRecord) (*domain.SplitLineItem, error)
}

// SettlementRepositoryFacade combines all settlement-related repository interfaces
type SettlementRepositoryFacade interface {
	LineItemReader
	SettlementReader
	SettlementWriter
}
