package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/SscSPs/splitledger/internal/apperrors"
	"github.com/SscSPs/splitledger/internal/core/domain"
)

func (s *Store) FindLineItemByID(_ context.Context, lineItemID string) (*domain.SplitLineItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	li, ok := s.lineItems[lineItemID]
	if !ok {
		return nil, apperrors.NewNotFoundError("line item " + lineItemID)
	}
	li = copyLineItem(li)
	return &li, nil
}

func (s *Store) ListUnsettledLineItemsByDebtor(_ context.Context, groupID, debtorID string) ([]domain.SplitLineItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.SplitLineItem
	for _, li := range s.lineItems {
		if li.DebtorID != debtorID || li.IsSettled {
			continue
		}
		e := s.expenses[li.ExpenseID]
		if e.GroupID != groupID || e.IsInvalid {
			continue
		}
		out = append(out, copyLineItem(li))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LineItemID < out[j].LineItemID })
	return out, nil
}

func (s *Store) FindSettlementByIdempotencyKey(_ context.Context, lineItemID, key string) (*domain.SettlementRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.settlements {
		if r.LineItemID == lineItemID && r.IdempotencyKey != nil && *r.IdempotencyKey == key {
			return &r, nil
		}
	}
	return nil, apperrors.NewNotFoundError("settlement for key " + key)
}

func (s *Store) ListSettlementsByExpenseIDs(_ context.Context, expenseIDs []string) ([]domain.SettlementRecord, error) {
	wanted := make(map[string]struct{}, len(expenseIDs))
	for _, id := range expenseIDs {
		wanted[id] = struct{}{}
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.SettlementRecord
	for _, r := range s.settlements {
		if _, ok := wanted[r.ExpenseID]; ok {
			out = append(out, r)
		}
	}
	return out, nil
}

// ApplySettlement updates the line item only while it is unsettled and still at
// update.ExpectedVersion on a valid expense, and appends record in the same
// critical section.
func (s *Store) ApplySettlement(_ context.Context, update domain.LineItemUpdate, record domain.SettlementRecord) (*domain.SplitLineItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	li, ok := s.lineItems[update.LineItemID]
	if !ok {
		return nil, apperrors.NewNotFoundError("line item " + update.LineItemID)
	}
	if s.expenses[li.ExpenseID].IsInvalid {
		return nil, apperrors.NewNotFoundError("line item " + update.LineItemID)
	}
	if li.Version != update.ExpectedVersion || li.IsSettled {
		return nil, fmt.Errorf("%w: line item %s", apperrors.ErrVersionConflict, update.LineItemID)
	}
	if record.IdempotencyKey != nil {
		for _, r := range s.settlements {
			if r.LineItemID == record.LineItemID && r.IdempotencyKey != nil && *r.IdempotencyKey == *record.IdempotencyKey {
				return nil, fmt.Errorf("%w: idempotency key %s", apperrors.ErrDuplicate, *record.IdempotencyKey)
			}
		}
	}

	li.PaidAmount = update.PaidAmount
	li.IsSettled = update.Settled
	li.SettledAt = update.SettledAt
	li.SettlementMethod = update.Method
	li.Version++
	li = copyLineItem(li)
	s.lineItems[li.LineItemID] = li
	s.settlements = append(s.settlements, record)

	out := copyLineItem(li)
	return &out, nil
}
