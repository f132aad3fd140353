// Package memory is an in-process implementation of the repository ports.
// It backs STORE_BACKEND=memory and the service tests. All reads return copies.
package memory

import (
	"sync"

	"github.com/SscSPs/splitledger/internal/core/domain"
	portsrepo "github.com/SscSPs/splitledger/internal/core/ports/repositories"
)

type memberKey struct {
	groupID string
	userID  string
}

// Store holds every entity behind one lock so multi-row writes are atomic.
type Store struct {
	mu sync.RWMutex

	currencies map[string]domain.Currency
	rates      []domain.ExchangeRate

	groups  map[string]domain.Group
	members map[memberKey]domain.GroupMember

	expenses           map[string]domain.Expense
	lineItems          map[string]domain.SplitLineItem
	lineItemsByExpense map[string][]string
	settlements        []domain.SettlementRecord
}

// NewStore constructs an empty store.
func NewStore() *Store {
	return &Store{
		currencies:         make(map[string]domain.Currency),
		groups:             make(map[string]domain.Group),
		members:            make(map[memberKey]domain.GroupMember),
		expenses:           make(map[string]domain.Expense),
		lineItems:          make(map[string]domain.SplitLineItem),
		lineItemsByExpense: make(map[string][]string),
	}
}

// Provider exposes the store through every repository port.
func (s *Store) Provider() portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		CurrencyRepo:     s,
		ExchangeRateRepo: s,
		GroupRepo:        s,
		ExpenseRepo:      s,
		SettlementRepo:   s,
	}
}

var (
	_ portsrepo.CurrencyRepositoryFacade     = (*Store)(nil)
	_ portsrepo.ExchangeRateRepositoryFacade = (*Store)(nil)
	_ portsrepo.GroupRepositoryFacade        = (*Store)(nil)
	_ portsrepo.ExpenseRepositoryFacade      = (*Store)(nil)
	_ portsrepo.SettlementRepositoryFacade   = (*Store)(nil)
)

func copyLineItem(li domain.SplitLineItem) domain.SplitLineItem {
	if li.SettledAt != nil {
		at := *li.SettledAt
		li.SettledAt = &at
	}
	if li.SettlementMethod != nil {
		m := *li.SettlementMethod
		li.SettlementMethod = &m
	}
	return li
}

// expenseWithItems must be called with s.mu held.
func (s *Store) expenseWithItems(e domain.Expense) domain.Expense {
	ids := s.lineItemsByExpense[e.ExpenseID]
	e.LineItems = make([]domain.SplitLineItem, 0, len(ids))
	for _, id := range ids {
		e.LineItems = append(e.LineItems, copyLineItem(s.lineItems[id]))
	}
	return e
}
