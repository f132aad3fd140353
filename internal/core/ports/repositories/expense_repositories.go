package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/splitledger/internal/core/domain"
)

// ExpenseReader defines read operations for expense data
type ExpenseReader interface {
	// FindExpenseByID retrieves an expense together with its line items.
	FindExpenseByID(ctx context.Context, expenseID string) (*domain.Expense, error)

	// ListExpensesByGroup retrieves a page of a group's expenses, newest first, with their line items.
	// The returned token is nil when there are no more pages.
	ListExpensesByGroup(ctx context.Context, groupID string, includeInvalid bool, limit int, nextToken *string) ([]domain.Expense, *string, error)

	// ListLedgerEntries retrieves every line item of the group's non-invalidated expenses,
	// joined with the expense payer and currency.
	ListLedgerEntries(ctx context.Context, groupID string) ([]domain.LedgerEntry, error)
}

// ExpenseWriter defines write operations for expense data
type ExpenseWriter interface {
	// SaveExpense persists an expense and all of its line items atomically.
	SaveExpense(ctx context.Context, expense domain.Expense) error

	// InvalidateExpense marks an expense invalid. It returns ErrConflict if it already
	// is or if any of its line items has a recorded payment.
	InvalidateExpense(ctx context.Context, expenseID, userID string, at time.Time) error
}

// ExpenseRepositoryFacade combines all expense-related repository interfaces
type ExpenseRepositoryFacade interface {
	ExpenseReader
	ExpenseWriter
}
