package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/SscSPs/splitledger/internal/apperrors"
	"github.com/SscSPs/splitledger/internal/core/domain"
	portssvc "github.com/SscSPs/splitledger/internal/core/ports/services"
	"github.com/SscSPs/splitledger/internal/core/services"
	"github.com/SscSPs/splitledger/internal/dto"
	"github.com/SscSPs/splitledger/internal/platform/config"
	"github.com/SscSPs/splitledger/internal/repositories/memory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// hookedExpenseRepo runs afterFind once, right after the next expense read,
// to land a concurrent write between a service's read and its write.
type hookedExpenseRepo struct {
	*memory.Store
	afterFind func()
}

func (r *hookedExpenseRepo) FindExpenseByID(ctx context.Context, expenseID string) (*domain.Expense, error) {
	expense, err := r.Store.FindExpenseByID(ctx, expenseID)
	if hook := r.afterFind; hook != nil {
		r.afterFind = nil
		hook()
	}
	return expense, err
}

func newHookedServices(t *testing.T) (*memory.Store, *hookedExpenseRepo, *portssvc.ServiceContainer, *domain.Expense) {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()
	require.NoError(t, store.SaveCurrency(ctx, domain.Currency{CurrencyCode: "USD", Precision: 2}))

	repo := &hookedExpenseRepo{Store: store}
	provider := store.Provider()
	provider.ExpenseRepo = repo
	svc, err := services.NewServiceContainer(&config.Config{BaseCurrency: "USD", SettleRetryAttempts: 3}, provider, nil, nil)
	require.NoError(t, err)

	group, err := svc.Group.CreateGroup(ctx, dto.CreateGroupRequest{Name: "Cabin"}, alice)
	require.NoError(t, err)
	_, err = svc.Group.AddMember(ctx, group.GroupID, dto.AddMemberRequest{UserID: bob}, alice)
	require.NoError(t, err)
	expense, err := svc.Expense.CreateExpense(ctx, group.GroupID, dto.CreateExpenseRequest{
		PayerID:      alice,
		Description:  "firewood",
		Amount:       decimal.RequireFromString("20.00"),
		CurrencyCode: "USD",
		SplitType:    domain.SplitEqual,
		Participants: []string{alice, bob},
	}, alice)
	require.NoError(t, err)
	return store, repo, svc, expense
}

func lineItemOf(t *testing.T, expense *domain.Expense, debtor string) domain.SplitLineItem {
	t.Helper()
	for _, li := range expense.LineItems {
		if li.DebtorID == debtor {
			return li
		}
	}
	t.Fatalf("no line item for %s", debtor)
	return domain.SplitLineItem{}
}

func TestInvalidateExpense_PaymentAfterReadIsNotLost(t *testing.T) {
	ctx := context.Background()
	store, repo, svc, expense := newHookedServices(t)
	item := lineItemOf(t, expense, bob)

	repo.afterFind = func() {
		_, err := store.ApplySettlement(ctx,
			domain.LineItemUpdate{LineItemID: item.LineItemID, ExpectedVersion: 1, PaidAmount: decimal.RequireFromString("5.00")},
			domain.SettlementRecord{SettlementID: "s-late", LineItemID: item.LineItemID, ExpenseID: expense.ExpenseID, GroupID: expense.GroupID})
		require.NoError(t, err)
	}

	_, err := svc.Expense.InvalidateExpense(ctx, expense.GroupID, expense.ExpenseID, alice)
	assert.ErrorIs(t, err, apperrors.ErrConflict)

	stored, err := store.FindExpenseByID(ctx, expense.ExpenseID)
	require.NoError(t, err)
	assert.False(t, stored.IsInvalid)

	snapshot, err := svc.Balance.ComputeBalances(ctx, expense.GroupID, alice)
	require.NoError(t, err)
	require.Len(t, snapshot.NetDebts, 1)
	assert.Equal(t, "5.00", snapshot.NetDebts[0].Amount.StringFixed(2))
}

func TestSettle_ExpenseInvalidatedAfterRead(t *testing.T) {
	ctx := context.Background()
	store, repo, svc, expense := newHookedServices(t)
	item := lineItemOf(t, expense, bob)

	repo.afterFind = func() {
		require.NoError(t, store.InvalidateExpense(ctx, expense.ExpenseID, alice, time.Now().UTC()))
	}

	_, err := svc.Settlement.Settle(ctx, expense.GroupID, item.LineItemID, dto.SettleLineItemRequest{
		ExpectedVersion: 1,
		Method:          domain.MethodCash,
	}, bob)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	stored, err := store.FindLineItemByID(ctx, item.LineItemID)
	require.NoError(t, err)
	assert.False(t, stored.IsSettled)
	assert.Equal(t, int64(1), stored.Version)

	records, err := store.ListSettlementsByExpenseIDs(ctx, []string{expense.ExpenseID})
	require.NoError(t, err)
	assert.Empty(t, records)
}
