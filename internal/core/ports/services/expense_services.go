package services

import (
	"context"

	"github.com/SscSPs/splitledger/internal/core/domain"
	"github.com/SscSPs/splitledger/internal/dto"
)

// ParticipantValidator checks split participants against current group membership.
type ParticipantValidator interface {
	// ValidateParticipants returns ErrInvalidParticipant if any id is not a current member.
	ValidateParticipants(ctx context.Context, groupID string, participantIDs []string) error
}

// ExpenseReaderSvc defines read operations for the expense ledger
type ExpenseReaderSvc interface {
	// GetExpense retrieves one expense with its line items.
	GetExpense(ctx context.Context, groupID, expenseID, requestingUserID string) (*domain.Expense, error)

	// GetLedgerHistory retrieves a page of the group's expenses with line items and settlement records.
	GetLedgerHistory(ctx context.Context, groupID, requestingUserID string, params dto.ListExpensesParams) (*dto.LedgerHistoryResponse, error)
}

// ExpenseWriterSvc defines write operations for the expense ledger
type ExpenseWriterSvc interface {
	// CreateExpense validates, splits and stores an expense with its line items in one unit.
	CreateExpense(ctx context.Context, groupID string, req dto.CreateExpenseRequest, creatorUserID string) (*domain.Expense, error)

	// InvalidateExpense soft-deletes an expense so it no longer counts towards balances.
	InvalidateExpense(ctx context.Context, groupID, expenseID, requestingUserID string) (*domain.Expense, error)
}

// ExpenseSvcFacade combines all expense-related service interfaces
type ExpenseSvcFacade interface {
	ExpenseReaderSvc
	ExpenseWriterSvc
}
