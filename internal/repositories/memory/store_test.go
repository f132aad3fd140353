package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/SscSPs/splitledger/internal/apperrors"
	"github.com/SscSPs/splitledger/internal/core/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedExpense(t *testing.T, s *Store, id string, createdAt time.Time, items ...domain.SplitLineItem) {
	t.Helper()
	for i := range items {
		items[i].ExpenseID = id
		items[i].Version = 1
	}
	require.NoError(t, s.SaveExpense(context.Background(), domain.Expense{
		ExpenseID:    id,
		GroupID:      "g1",
		PayerID:      "alice",
		Amount:       decimal.RequireFromString("30.00"),
		CurrencyCode: "USD",
		AuditFields:  domain.AuditFields{CreatedAt: createdAt},
		LineItems:    items,
	}))
}

func TestApplySettlement_ConcurrentSameVersion(t *testing.T) {
	s := NewStore()
	seedExpense(t, s, "e1", time.Now(), domain.SplitLineItem{LineItemID: "li1", DebtorID: "bob", Amount: decimal.RequireFromString("10.00")})

	const racers = 8
	var wg sync.WaitGroup
	errs := make([]error, racers)
	start := make(chan struct{})
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			method := domain.MethodCash
			_, errs[i] = s.ApplySettlement(context.Background(), domain.LineItemUpdate{
				LineItemID:      "li1",
				ExpectedVersion: 1,
				PaidAmount:      decimal.RequireFromString("10.00"),
				Settled:         true,
				Method:          &method,
			}, domain.SettlementRecord{SettlementID: "s", LineItemID: "li1", ExpenseID: "e1"})
		}(i)
	}
	close(start)
	wg.Wait()

	wins, conflicts := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			wins++
		case assert.ErrorIs(t, err, apperrors.ErrVersionConflict):
			conflicts++
		}
	}
	assert.Equal(t, 1, wins)
	assert.Equal(t, racers-1, conflicts)

	li, err := s.FindLineItemByID(context.Background(), "li1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), li.Version)
	assert.True(t, li.IsSettled)

	records, err := s.ListSettlementsByExpenseIDs(context.Background(), []string{"e1"})
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestApplySettlement_RejectsReusedIdempotencyKey(t *testing.T) {
	s := NewStore()
	seedExpense(t, s, "e1", time.Now(), domain.SplitLineItem{LineItemID: "li1", DebtorID: "bob", Amount: decimal.RequireFromString("10.00")})
	key := "k1"

	_, err := s.ApplySettlement(context.Background(),
		domain.LineItemUpdate{LineItemID: "li1", ExpectedVersion: 1, PaidAmount: decimal.RequireFromString("4.00")},
		domain.SettlementRecord{LineItemID: "li1", ExpenseID: "e1", IdempotencyKey: &key})
	require.NoError(t, err)

	_, err = s.ApplySettlement(context.Background(),
		domain.LineItemUpdate{LineItemID: "li1", ExpectedVersion: 2, PaidAmount: decimal.RequireFromString("8.00")},
		domain.SettlementRecord{LineItemID: "li1", ExpenseID: "e1", IdempotencyKey: &key})
	assert.ErrorIs(t, err, apperrors.ErrDuplicate)

	found, err := s.FindSettlementByIdempotencyKey(context.Background(), "li1", key)
	require.NoError(t, err)
	assert.Equal(t, int64(0), found.ObservedVersion)
}

func TestReturnedLineItemsAreCopies(t *testing.T) {
	s := NewStore()
	seedExpense(t, s, "e1", time.Now(), domain.SplitLineItem{LineItemID: "li1", DebtorID: "bob", Amount: decimal.RequireFromString("10.00")})

	e, err := s.FindExpenseByID(context.Background(), "e1")
	require.NoError(t, err)
	e.LineItems[0].IsSettled = true

	li, err := s.FindLineItemByID(context.Background(), "li1")
	require.NoError(t, err)
	assert.False(t, li.IsSettled)
}

func TestListExpensesByGroup_Paginates(t *testing.T) {
	s := NewStore()
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, id := range []string{"e1", "e2", "e3"} {
		seedExpense(t, s, id, base.Add(time.Duration(i)*time.Minute),
			domain.SplitLineItem{LineItemID: id + "-li", DebtorID: "bob", Amount: decimal.RequireFromString("30.00")})
	}
	require.NoError(t, s.InvalidateExpense(context.Background(), "e2", "alice", base))

	page, token, err := s.ListExpensesByGroup(context.Background(), "g1", true, 2, nil)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "e3", page[0].ExpenseID)
	assert.Equal(t, "e2", page[1].ExpenseID)
	require.NotNil(t, token)

	page, token, err = s.ListExpensesByGroup(context.Background(), "g1", true, 2, token)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "e1", page[0].ExpenseID)
	assert.Len(t, page[0].LineItems, 1)
	assert.Nil(t, token)

	valid, _, err := s.ListExpensesByGroup(context.Background(), "g1", false, 10, nil)
	require.NoError(t, err)
	assert.Len(t, valid, 2)

	entries, err := s.ListLedgerEntries(context.Background(), "g1")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "e1", entries[0].ExpenseID)
	assert.Equal(t, "alice", entries[0].PayerID)
}

func TestInvalidateExpense_Twice(t *testing.T) {
	s := NewStore()
	seedExpense(t, s, "e1", time.Now(), domain.SplitLineItem{LineItemID: "li1", DebtorID: "bob", Amount: decimal.RequireFromString("30.00")})

	require.NoError(t, s.InvalidateExpense(context.Background(), "e1", "alice", time.Now()))
	assert.ErrorIs(t, s.InvalidateExpense(context.Background(), "e1", "alice", time.Now()), apperrors.ErrConflict)
}

func TestFindExchangeRate_DirectInverseAndAsOf(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	jan := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	feb := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, s.SaveExchangeRate(ctx, domain.ExchangeRate{FromCurrencyCode: "EUR", ToCurrencyCode: "USD", Rate: decimal.RequireFromString("1.10"), DateEffective: jan}))
	require.NoError(t, s.SaveExchangeRate(ctx, domain.ExchangeRate{FromCurrencyCode: "EUR", ToCurrencyCode: "USD", Rate: decimal.RequireFromString("1.20"), DateEffective: feb}))
	require.NoError(t, s.SaveExchangeRate(ctx, domain.ExchangeRate{FromCurrencyCode: "USD", ToCurrencyCode: "INR", Rate: decimal.RequireFromString("80"), DateEffective: jan}))

	latest, err := s.FindExchangeRate(ctx, "eur", "usd", nil)
	require.NoError(t, err)
	assert.Equal(t, "1.2", latest.Rate.String())

	asOf := jan.Add(24 * time.Hour)
	older, err := s.FindExchangeRate(ctx, "EUR", "USD", &asOf)
	require.NoError(t, err)
	assert.Equal(t, "1.1", older.Rate.String())

	inverse, err := s.FindExchangeRate(ctx, "INR", "USD", nil)
	require.NoError(t, err)
	assert.Equal(t, "0.0125", inverse.Rate.String())

	same, err := s.FindExchangeRate(ctx, "GBP", "GBP", nil)
	require.NoError(t, err)
	assert.Equal(t, "1", same.Rate.String())

	_, err = s.FindExchangeRate(ctx, "GBP", "USD", nil)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestMembershipLifecycle(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	now := time.Now().UTC()
	require.NoError(t, s.SaveGroup(ctx, domain.Group{GroupID: "g1"}, domain.GroupMember{GroupID: "g1", UserID: "alice", Role: domain.RoleAdmin, ReconciliationState: domain.ReconciliationActive, JoinedAt: now}))
	require.NoError(t, s.SaveMember(ctx, domain.GroupMember{GroupID: "g1", UserID: "bob", Role: domain.RoleMember, ReconciliationState: domain.ReconciliationActive, JoinedAt: now.Add(time.Second)}))

	require.NoError(t, s.MarkMemberRemoved(ctx, "g1", "bob", now))
	current, err := s.ListMembers(ctx, "g1", false)
	require.NoError(t, err)
	require.Len(t, current, 1)
	assert.Equal(t, "alice", current[0].UserID)

	all, err := s.ListMembers(ctx, "g1", true)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	err = s.UpdateReconciliationState(ctx, "g1", "bob", domain.ReconciliationActive, domain.ReconciliationDone, now)
	assert.ErrorIs(t, err, apperrors.ErrConflict)

	require.NoError(t, s.UpdateReconciliationState(ctx, "g1", "bob", domain.ReconciliationPending, domain.ReconciliationDone, now))
	bob, err := s.FindMember(ctx, "g1", "bob")
	require.NoError(t, err)
	assert.Equal(t, domain.ReconciliationDone, bob.ReconciliationState)
	assert.NotNil(t, bob.ResolvedAt)
}

func TestInvalidateExpense_RefusesPaidExpense(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	seedExpense(t, s, "e1", time.Now(), domain.SplitLineItem{LineItemID: "li1", DebtorID: "bob", Amount: decimal.RequireFromString("10.00")})

	_, err := s.ApplySettlement(ctx,
		domain.LineItemUpdate{LineItemID: "li1", ExpectedVersion: 1, PaidAmount: decimal.RequireFromString("5.00")},
		domain.SettlementRecord{SettlementID: "s1", LineItemID: "li1", ExpenseID: "e1"})
	require.NoError(t, err)

	err = s.InvalidateExpense(ctx, "e1", "alice", time.Now())
	assert.ErrorIs(t, err, apperrors.ErrConflict)

	e, err := s.FindExpenseByID(ctx, "e1")
	require.NoError(t, err)
	assert.False(t, e.IsInvalid)
}

func TestApplySettlement_InvalidatedExpense(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	seedExpense(t, s, "e1", time.Now(), domain.SplitLineItem{LineItemID: "li1", DebtorID: "bob", Amount: decimal.RequireFromString("10.00")})
	require.NoError(t, s.InvalidateExpense(ctx, "e1", "alice", time.Now()))

	method := domain.MethodCash
	_, err := s.ApplySettlement(ctx,
		domain.LineItemUpdate{LineItemID: "li1", ExpectedVersion: 1, PaidAmount: decimal.RequireFromString("10.00"), Settled: true, Method: &method},
		domain.SettlementRecord{SettlementID: "s1", LineItemID: "li1", ExpenseID: "e1"})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	li, err := s.FindLineItemByID(ctx, "li1")
	require.NoError(t, err)
	assert.False(t, li.IsSettled)
	assert.Equal(t, int64(1), li.Version)

	records, err := s.ListSettlementsByExpenseIDs(ctx, []string{"e1"})
	require.NoError(t, err)
	assert.Empty(t, records)
}
