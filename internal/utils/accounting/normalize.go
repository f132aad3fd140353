package accounting

import (
	"fmt"

	"github.com/SscSPs/splitledger/internal/apperrors"
	"github.com/SscSPs/splitledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

var one = decimal.NewFromInt(1)

// Normalize converts amount from one currency to another using the rate table.
// The result is rounded to 2 places with banker's rounding; the input amount is
// left untouched so stored values stay exact.
func Normalize(amount decimal.Decimal, from, to string, rates domain.RateTable) (decimal.Decimal, error) {
	fromRate, ok := rates.Lookup(from)
	if !ok || !fromRate.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: no rate for %s", apperrors.ErrUnknownCurrency, from)
	}
	toRate, ok := rates.Lookup(to)
	if !ok || !toRate.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: no rate for %s", apperrors.ErrUnknownCurrency, to)
	}

	rate := one
	if from != to {
		rate = fromRate
		if !toRate.Equal(one) {
			rate = fromRate.Div(toRate)
		}
	}
	return amount.Mul(rate).RoundBank(2), nil
}
