package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/SscSPs/splitledger/internal/apperrors"
	"github.com/SscSPs/splitledger/internal/core/domain"
	"github.com/SscSPs/splitledger/internal/utils/pagination"
)

func (s *Store) FindExpenseByID(_ context.Context, expenseID string) (*domain.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.expenses[expenseID]
	if !ok {
		return nil, apperrors.NewNotFoundError("expense " + expenseID)
	}
	full := s.expenseWithItems(e)
	return &full, nil
}

// newerFirst orders expenses by (created_at, id) descending.
func newerFirst(a, b domain.Expense) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ExpenseID > b.ExpenseID
}

func (s *Store) ListExpensesByGroup(_ context.Context, groupID string, includeInvalid bool, limit int, nextToken *string) ([]domain.Expense, *string, error) {
	var (
		cursorAt time.Time
		cursorID string
		hasCur   bool
	)
	if nextToken != nil && *nextToken != "" {
		at, id, err := pagination.DecodeToken(*nextToken)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
		}
		cursorAt, cursorID, hasCur = at, id, true
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []domain.Expense
	for _, e := range s.expenses {
		if e.GroupID != groupID || (e.IsInvalid && !includeInvalid) {
			continue
		}
		if hasCur && !newerFirst(domain.Expense{ExpenseID: cursorID, AuditFields: domain.AuditFields{CreatedAt: cursorAt}}, e) {
			continue
		}
		matched = append(matched, e)
	}
	sort.Slice(matched, func(i, j int) bool { return newerFirst(matched[i], matched[j]) })

	var token *string
	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
		last := matched[limit-1]
		t := pagination.EncodeToken(last.CreatedAt, last.ExpenseID)
		token = &t
	}

	out := make([]domain.Expense, len(matched))
	for i, e := range matched {
		out[i] = s.expenseWithItems(e)
	}
	return out, token, nil
}

// ListLedgerEntries returns the line items of valid expenses, oldest expense first.
func (s *Store) ListLedgerEntries(_ context.Context, groupID string) ([]domain.LedgerEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var expenses []domain.Expense
	for _, e := range s.expenses {
		if e.GroupID == groupID && !e.IsInvalid {
			expenses = append(expenses, e)
		}
	}
	sort.Slice(expenses, func(i, j int) bool { return newerFirst(expenses[j], expenses[i]) })

	var entries []domain.LedgerEntry
	for _, e := range expenses {
		for _, id := range s.lineItemsByExpense[e.ExpenseID] {
			entries = append(entries, domain.LedgerEntry{
				SplitLineItem: copyLineItem(s.lineItems[id]),
				GroupID:       e.GroupID,
				PayerID:       e.PayerID,
				CurrencyCode:  e.CurrencyCode,
			})
		}
	}
	return entries, nil
}

// SaveExpense stores the expense and its line items, or nothing on error.
func (s *Store) SaveExpense(_ context.Context, expense domain.Expense) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.expenses[expense.ExpenseID]; ok {
		return fmt.Errorf("%w: expense %s", apperrors.ErrDuplicate, expense.ExpenseID)
	}
	for _, li := range expense.LineItems {
		if _, ok := s.lineItems[li.LineItemID]; ok {
			return fmt.Errorf("%w: line item %s", apperrors.ErrDuplicate, li.LineItemID)
		}
	}

	ids := make([]string, len(expense.LineItems))
	for i, li := range expense.LineItems {
		li.ExpenseID = expense.ExpenseID
		s.lineItems[li.LineItemID] = copyLineItem(li)
		ids[i] = li.LineItemID
	}
	s.lineItemsByExpense[expense.ExpenseID] = ids
	expense.LineItems = nil
	s.expenses[expense.ExpenseID] = expense
	return nil
}

// InvalidateExpense refuses expenses that are already invalid or carry payments.
func (s *Store) InvalidateExpense(_ context.Context, expenseID, userID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.expenses[expenseID]
	if !ok {
		return apperrors.NewNotFoundError("expense " + expenseID)
	}
	if e.IsInvalid {
		return fmt.Errorf("%w: expense %s is already invalid", apperrors.ErrConflict, expenseID)
	}
	for _, id := range s.lineItemsByExpense[expenseID] {
		if s.lineItems[id].PaidAmount.IsPositive() {
			return fmt.Errorf("%w: expense %s has recorded payments", apperrors.ErrConflict, expenseID)
		}
	}
	e.IsInvalid = true
	e.InvalidatedAt = &at
	e.InvalidatedBy = &userID
	e.LastUpdatedAt = at
	e.LastUpdatedBy = userID
	s.expenses[expenseID] = e
	return nil
}
