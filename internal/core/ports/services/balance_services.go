package services

import (
	"context"
	"io"

	"github.com/SscSPs/splitledger/internal/core/domain"
)

// BalanceSvc computes group balances on demand.
type BalanceSvc interface {
	// ComputeBalances returns the current net debts and member summaries of a group in its base currency.
	ComputeBalances(ctx context.Context, groupID, requestingUserID string) (*domain.GroupBalanceSnapshot, error)
}

// BalanceCache stores computed snapshots until the group's ledger changes.
type BalanceCache interface {
	// Invalidate drops the cached snapshot of a group.
	Invalidate(groupID string)

	// Purge drops every cached snapshot.
	Purge()
}

// LedgerExportSvc renders a group's ledger for download.
type LedgerExportSvc interface {
	// ExportLedger writes the group's ledger and balances as an XLSX workbook.
	ExportLedger(ctx context.Context, groupID, requestingUserID string, w io.Writer) error

	// ExportBalanceStatement writes a one-page PDF of the group's balances and suggested transfers.
	ExportBalanceStatement(ctx context.Context, groupID, requestingUserID string, w io.Writer) error
}
