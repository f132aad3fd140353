package accounting_test

import (
	"encoding/json"
	"testing"

	"github.com/SscSPs/splitledger/internal/apperrors"
	"github.com/SscSPs/splitledger/internal/core/domain"
	"github.com/SscSPs/splitledger/internal/utils/accounting"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entry(expenseID, payer, debtor, amount, currency string) domain.LedgerEntry {
	return domain.LedgerEntry{
		SplitLineItem: domain.SplitLineItem{
			LineItemID: expenseID + "-" + debtor,
			ExpenseID:  expenseID,
			DebtorID:   debtor,
			Amount:     dec(amount),
			PaidAmount: decimal.Zero,
			Version:    1,
		},
		GroupID:      "g1",
		PayerID:      payer,
		CurrencyCode: currency,
	}
}

func memberByID(snapshot *domain.GroupBalanceSnapshot, id string) domain.MemberBalance {
	for _, m := range snapshot.Members {
		if m.MemberID == id {
			return m
		}
	}
	return domain.MemberBalance{}
}

func totalNet(snapshot *domain.GroupBalanceSnapshot) decimal.Decimal {
	sum := decimal.Zero
	for _, m := range snapshot.Members {
		sum = sum.Add(m.Net)
	}
	return sum
}

func TestAggregateBalances_EqualSplitPayerOwed(t *testing.T) {
	entries := []domain.LedgerEntry{
		entry("e1", "alice", "alice", "33.34", "USD"),
		entry("e1", "alice", "bob", "33.33", "USD"),
		entry("e1", "alice", "carol", "33.33", "USD"),
	}

	snapshot, err := accounting.AggregateBalances("g1", []string{"alice", "bob", "carol"}, entries, domain.NewRateTable("USD"))
	require.NoError(t, err)

	assert.Equal(t, "66.66", memberByID(snapshot, "alice").Net.StringFixed(2))
	assert.Equal(t, "-33.33", memberByID(snapshot, "bob").Net.StringFixed(2))
	assert.Equal(t, "-33.33", memberByID(snapshot, "carol").Net.StringFixed(2))
	assert.Equal(t, "100.00", memberByID(snapshot, "alice").LifetimePaid.StringFixed(2))
	assert.Len(t, snapshot.NetDebts, 2)
	assert.True(t, totalNet(snapshot).IsZero())
}

func TestAggregateBalances_MultiCurrencyNetting(t *testing.T) {
	rates := domain.NewRateTable("USD")
	rates.Set("EUR", dec("1.10"))

	entries := []domain.LedgerEntry{
		entry("e1", "alice", "bob", "50", "EUR"),
		entry("e2", "bob", "alice", "20", "USD"),
	}

	snapshot, err := accounting.AggregateBalances("g1", []string{"alice", "bob"}, entries, rates)
	require.NoError(t, err)

	require.Len(t, snapshot.NetDebts, 1)
	assert.Equal(t, "bob", snapshot.NetDebts[0].FromMemberID)
	assert.Equal(t, "alice", snapshot.NetDebts[0].ToMemberID)
	assert.Equal(t, "35.00", snapshot.NetDebts[0].Amount.StringFixed(2))
	assert.Equal(t, "USD", snapshot.BaseCurrencyCode)
}

func TestAggregateBalances_EqualOpposingDebtsCancel(t *testing.T) {
	entries := []domain.LedgerEntry{
		entry("e1", "alice", "bob", "10", "USD"),
		entry("e2", "bob", "alice", "10", "USD"),
	}

	snapshot, err := accounting.AggregateBalances("g1", nil, entries, domain.NewRateTable("USD"))
	require.NoError(t, err)
	assert.Empty(t, snapshot.NetDebts)
	assert.Empty(t, snapshot.SuggestedTransfers)
	assert.True(t, memberByID(snapshot, "alice").Net.IsZero())
}

func TestAggregateBalances_SettledAndPartiallyPaid(t *testing.T) {
	settled := entry("e1", "alice", "bob", "40", "USD")
	settled.IsSettled = true
	settled.PaidAmount = dec("40")

	partial := entry("e2", "alice", "carol", "30", "USD")
	partial.PaidAmount = dec("12.50")

	snapshot, err := accounting.AggregateBalances("g1", nil, []domain.LedgerEntry{settled, partial}, domain.NewRateTable("USD"))
	require.NoError(t, err)

	require.Len(t, snapshot.NetDebts, 1)
	assert.Equal(t, "carol", snapshot.NetDebts[0].FromMemberID)
	assert.Equal(t, "17.50", snapshot.NetDebts[0].Amount.StringFixed(2))
	assert.Equal(t, "40.00", memberByID(snapshot, "bob").LifetimeShare.StringFixed(2))
	assert.True(t, memberByID(snapshot, "bob").Net.IsZero())
	assert.Equal(t, "70.00", memberByID(snapshot, "alice").LifetimePaid.StringFixed(2))
}

func TestAggregateBalances_UnknownCurrencyAborts(t *testing.T) {
	entries := []domain.LedgerEntry{
		entry("e1", "alice", "bob", "10", "USD"),
		entry("e2", "alice", "bob", "10", "GBP"),
	}

	snapshot, err := accounting.AggregateBalances("g1", nil, entries, domain.NewRateTable("USD"))
	assert.ErrorIs(t, err, apperrors.ErrUnknownCurrency)
	assert.Nil(t, snapshot)
}

func TestAggregateBalances_UnknownCurrencyOnSettledItemStillAborts(t *testing.T) {
	settled := entry("e1", "alice", "bob", "10", "CHF")
	settled.IsSettled = true

	_, err := accounting.AggregateBalances("g1", nil, []domain.LedgerEntry{settled}, domain.NewRateTable("USD"))
	assert.ErrorIs(t, err, apperrors.ErrUnknownCurrency)
}

func TestAggregateBalances_ZeroSumAcrossCurrencies(t *testing.T) {
	rates := domain.NewRateTable("USD")
	rates.Set("EUR", dec("1.0873"))
	rates.Set("JPY", dec("0.00671"))

	var entries []domain.LedgerEntry
	ids := []string{"a", "b", "c", "d"}
	for i, payer := range ids {
		shares, err := accounting.Resolve(dec("101.03"), domain.EqualSplit{}, ids)
		require.NoError(t, err)
		currency := []string{"USD", "EUR", "JPY", "EUR"}[i]
		for _, s := range shares {
			entries = append(entries, entry("e"+payer, payer, s.ParticipantID, s.Amount.String(), currency))
		}
	}

	snapshot, err := accounting.AggregateBalances("g1", ids, entries, rates)
	require.NoError(t, err)
	assert.True(t, totalNet(snapshot).IsZero(), "net balances must sum to zero, got %s", totalNet(snapshot))
}

func TestAggregateBalances_DeterministicOrdering(t *testing.T) {
	entries := []domain.LedgerEntry{
		entry("e1", "zed", "amy", "5", "USD"),
		entry("e2", "kim", "zed", "7", "USD"),
		entry("e3", "amy", "kim", "9", "USD"),
	}

	first, err := accounting.AggregateBalances("g1", []string{"zed", "kim", "amy"}, entries, domain.NewRateTable("USD"))
	require.NoError(t, err)
	reversed := []domain.LedgerEntry{entries[2], entries[1], entries[0]}
	second, err := accounting.AggregateBalances("g1", []string{"amy", "kim", "zed"}, reversed, domain.NewRateTable("USD"))
	require.NoError(t, err)

	firstJSON, err := json.Marshal(first)
	require.NoError(t, err)
	secondJSON, err := json.Marshal(second)
	require.NoError(t, err)
	assert.JSONEq(t, string(firstJSON), string(secondJSON))
	assert.Equal(t, "amy", first.Members[0].MemberID)
}

func TestSuggestTransfers(t *testing.T) {
	balances := []domain.MemberBalance{
		{MemberID: "a", Net: dec("50")},
		{MemberID: "b", Net: dec("-30")},
		{MemberID: "c", Net: dec("-20")},
		{MemberID: "d", Net: decimal.Zero},
	}

	transfers := accounting.SuggestTransfers(balances)
	require.Len(t, transfers, 2)
	assert.Equal(t, "b", transfers[0].FromMemberID)
	assert.Equal(t, "a", transfers[0].ToMemberID)
	assert.Equal(t, "30", transfers[0].Amount.String())
	assert.Equal(t, "c", transfers[1].FromMemberID)
	assert.Equal(t, "20", transfers[1].Amount.String())
}
