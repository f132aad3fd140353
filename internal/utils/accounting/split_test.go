package accounting_test

import (
	"testing"

	"github.com/SscSPs/splitledger/internal/apperrors"
	"github.com/SscSPs/splitledger/internal/core/domain"
	"github.com/SscSPs/splitledger/internal/utils/accounting"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func shareAmounts(shares []domain.Share) map[string]string {
	out := make(map[string]string, len(shares))
	for _, s := range shares {
		out[s.ParticipantID] = s.Amount.StringFixed(2)
	}
	return out
}

func sumShares(shares []domain.Share) decimal.Decimal {
	sum := decimal.Zero
	for _, s := range shares {
		sum = sum.Add(s.Amount)
	}
	return sum
}

func TestResolve_Equal(t *testing.T) {
	tests := []struct {
		name         string
		total        string
		participants []string
		want         map[string]string
	}{
		{
			name:         "hundred three ways",
			total:        "100.00",
			participants: []string{"carol", "alice", "bob"},
			want:         map[string]string{"alice": "33.34", "bob": "33.33", "carol": "33.33"},
		},
		{
			name:         "ten three ways",
			total:        "10",
			participants: []string{"u1", "u2", "u3"},
			want:         map[string]string{"u1": "3.34", "u2": "3.33", "u3": "3.33"},
		},
		{
			name:         "two leftover cents go to the lowest ids",
			total:        "0.05",
			participants: []string{"c", "b", "a"},
			want:         map[string]string{"a": "0.02", "b": "0.02", "c": "0.01"},
		},
		{
			name:         "single participant owes everything",
			total:        "42.17",
			participants: []string{"solo"},
			want:         map[string]string{"solo": "42.17"},
		},
		{
			name:         "even division",
			total:        "90",
			participants: []string{"a", "b", "c"},
			want:         map[string]string{"a": "30.00", "b": "30.00", "c": "30.00"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			shares, err := accounting.Resolve(dec(tt.total), domain.EqualSplit{}, tt.participants)
			require.NoError(t, err)
			assert.Equal(t, tt.want, shareAmounts(shares))
			assert.True(t, dec(tt.total).Equal(sumShares(shares)), "shares must sum to the total")
		})
	}
}

func TestResolve_EqualMaxSpreadIsOneCent(t *testing.T) {
	participants := []string{"a", "b", "c", "d", "e", "f", "g"}
	for _, total := range []string{"1.00", "10.01", "99.99", "123.45", "0.07"} {
		shares, err := accounting.Resolve(dec(total), domain.EqualSplit{}, participants)
		require.NoError(t, err, total)

		minShare, maxShare := shares[0].Amount, shares[0].Amount
		for _, s := range shares {
			minShare = decimal.Min(minShare, s.Amount)
			maxShare = decimal.Max(maxShare, s.Amount)
		}
		assert.True(t, maxShare.Sub(minShare).LessThanOrEqual(dec("0.01")), total)
		assert.True(t, dec(total).Equal(sumShares(shares)), total)
	}
}

func TestResolve_Percentage(t *testing.T) {
	policy := domain.PercentageSplit{Percentages: map[string]decimal.Decimal{
		"alice": dec("33.33"),
		"bob":   dec("33.33"),
		"carol": dec("33.34"),
	}}

	shares, err := accounting.Resolve(dec("10.00"), policy, []string{"alice", "bob", "carol"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"alice": "3.34", "bob": "3.33", "carol": "3.33"}, shareAmounts(shares))
	assert.True(t, dec("10.00").Equal(sumShares(shares)))
}

func TestResolve_PercentageFractional(t *testing.T) {
	policy := domain.PercentageSplit{Percentages: map[string]decimal.Decimal{
		"a": dec("12.5"),
		"b": dec("87.5"),
	}}

	shares, err := accounting.Resolve(dec("19.99"), policy, []string{"a", "b"})
	require.NoError(t, err)
	// 2.49875 and 17.49125 floor to 2.49 and 17.49, one cent left over for "a".
	assert.Equal(t, map[string]string{"a": "2.50", "b": "17.49"}, shareAmounts(shares))
}

func TestResolve_PercentageMustSumTo100(t *testing.T) {
	policy := domain.PercentageSplit{Percentages: map[string]decimal.Decimal{
		"a": dec("50"),
		"b": dec("49"),
	}}

	_, err := accounting.Resolve(dec("100"), policy, []string{"a", "b"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidSplit)
}

func TestResolve_Exact(t *testing.T) {
	policy := domain.ExactSplit{Amounts: map[string]decimal.Decimal{
		"a": dec("12.50"),
		"b": dec("7.50"),
	}}

	shares, err := accounting.Resolve(dec("20"), policy, []string{"b", "a"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"a": "12.50", "b": "7.50"}, shareAmounts(shares))
	assert.Equal(t, "a", shares[0].ParticipantID)
}

func TestResolve_InvalidSplits(t *testing.T) {
	tests := []struct {
		name         string
		total        string
		policy       domain.SplitPolicy
		participants []string
	}{
		{"zero participants", "10", domain.EqualSplit{}, nil},
		{"duplicate participant", "10", domain.EqualSplit{}, []string{"a", "a"}},
		{"empty participant id", "10", domain.EqualSplit{}, []string{"a", " "}},
		{"zero total", "0", domain.EqualSplit{}, []string{"a"}},
		{"negative total", "-5", domain.EqualSplit{}, []string{"a"}},
		{"sub-cent total", "10.001", domain.EqualSplit{}, []string{"a"}},
		{"equal share rounds to zero", "0.01", domain.EqualSplit{}, []string{"a", "b"}},
		{"exact sum mismatch", "20", domain.ExactSplit{Amounts: map[string]decimal.Decimal{"a": dec("10"), "b": dec("9.99")}}, []string{"a", "b"}},
		{"exact zero amount", "10", domain.ExactSplit{Amounts: map[string]decimal.Decimal{"a": dec("10"), "b": dec("0")}}, []string{"a", "b"}},
		{"exact negative amount", "10", domain.ExactSplit{Amounts: map[string]decimal.Decimal{"a": dec("15"), "b": dec("-5")}}, []string{"a", "b"}},
		{"exact missing participant", "10", domain.ExactSplit{Amounts: map[string]decimal.Decimal{"a": dec("10")}}, []string{"a", "b"}},
		{"exact unknown participant", "10", domain.ExactSplit{Amounts: map[string]decimal.Decimal{"a": dec("5"), "z": dec("5")}}, []string{"a", "b"}},
		{"percentage negative", "10", domain.PercentageSplit{Percentages: map[string]decimal.Decimal{"a": dec("110"), "b": dec("-10")}}, []string{"a", "b"}},
		{"percentage over 100", "10", domain.PercentageSplit{Percentages: map[string]decimal.Decimal{"a": dec("60"), "b": dec("41")}}, []string{"a", "b"}},
		{"nil policy", "10", nil, []string{"a"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := accounting.Resolve(dec(tt.total), tt.policy, tt.participants)
			assert.ErrorIs(t, err, apperrors.ErrInvalidSplit)
		})
	}
}

func TestResolve_Deterministic(t *testing.T) {
	first, err := accounting.Resolve(dec("100"), domain.EqualSplit{}, []string{"z", "m", "a"})
	require.NoError(t, err)
	second, err := accounting.Resolve(dec("100"), domain.EqualSplit{}, []string{"a", "z", "m"})
	require.NoError(t, err)
	assert.Equal(t, shareAmounts(first), shareAmounts(second))
}
