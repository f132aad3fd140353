package accounting

import (
	"fmt"
	"sort"
	"strings"

	"github.com/SscSPs/splitledger/internal/apperrors"
	"github.com/SscSPs/splitledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Resolve divides total across participants according to policy. Shares are
// returned in ascending participant order and always sum to total exactly.
// Leftover cents go one at a time to participants in ascending id order.
func Resolve(total decimal.Decimal, policy domain.SplitPolicy, participantIDs []string) ([]domain.Share, error) {
	if !total.IsPositive() {
		return nil, fmt.Errorf("%w: amount must be positive", apperrors.ErrInvalidSplit)
	}
	if !HasCentPrecision(total) {
		return nil, fmt.Errorf("%w: amount %s has more than 2 decimal places", apperrors.ErrInvalidSplit, total)
	}
	ids, err := sortedParticipants(participantIDs)
	if err != nil {
		return nil, err
	}

	var shares []domain.Share
	switch p := policy.(type) {
	case domain.EqualSplit:
		shares = resolveEqual(total, ids)
	case domain.PercentageSplit:
		shares, err = resolvePercentage(total, p.Percentages, ids)
	case domain.ExactSplit:
		shares, err = resolveExact(total, p.Amounts, ids)
	default:
		return nil, fmt.Errorf("%w: unsupported split policy %T", apperrors.ErrInvalidSplit, policy)
	}
	if err != nil {
		return nil, err
	}

	for _, s := range shares {
		if !s.Amount.IsPositive() {
			return nil, fmt.Errorf("%w: share for %s must be positive", apperrors.ErrInvalidSplit, s.ParticipantID)
		}
	}
	return shares, nil
}

// HasCentPrecision reports whether d has no more than 2 decimal places.
func HasCentPrecision(d decimal.Decimal) bool {
	return d.Equal(d.Truncate(2))
}

func resolveEqual(total decimal.Decimal, ids []string) []domain.Share {
	cents := total.Shift(2)
	base, rem := cents.QuoRem(decimal.NewFromInt(int64(len(ids))), 0)
	perParticipant := make([]decimal.Decimal, len(ids))
	for i := range ids {
		perParticipant[i] = base
	}
	return toShares(ids, distributeCents(perParticipant, rem.IntPart()))
}

func resolvePercentage(total decimal.Decimal, pcts map[string]decimal.Decimal, ids []string) ([]domain.Share, error) {
	if err := requireSameParticipants(pcts, ids); err != nil {
		return nil, err
	}

	sum := decimal.Zero
	for _, id := range ids {
		pct := pcts[id]
		if !pct.IsPositive() {
			return nil, fmt.Errorf("%w: percentage for %s must be positive", apperrors.ErrInvalidSplit, id)
		}
		sum = sum.Add(pct)
	}
	if !sum.Equal(hundred) {
		return nil, fmt.Errorf("%w: percentages sum to %s, expected 100", apperrors.ErrInvalidSplit, sum)
	}

	cents := total.Shift(2)
	allocated := decimal.Zero
	perParticipant := make([]decimal.Decimal, len(ids))
	for i, id := range ids {
		perParticipant[i] = cents.Mul(pcts[id]).Shift(-2).Floor()
		allocated = allocated.Add(perParticipant[i])
	}
	return toShares(ids, distributeCents(perParticipant, cents.Sub(allocated).IntPart())), nil
}

func resolveExact(total decimal.Decimal, amounts map[string]decimal.Decimal, ids []string) ([]domain.Share, error) {
	if err := requireSameParticipants(amounts, ids); err != nil {
		return nil, err
	}

	sum := decimal.Zero
	shares := make([]domain.Share, 0, len(ids))
	for _, id := range ids {
		amount := amounts[id]
		if !amount.IsPositive() {
			return nil, fmt.Errorf("%w: amount for %s must be positive", apperrors.ErrInvalidSplit, id)
		}
		if !HasCentPrecision(amount) {
			return nil, fmt.Errorf("%w: amount for %s has more than 2 decimal places", apperrors.ErrInvalidSplit, id)
		}
		sum = sum.Add(amount)
		shares = append(shares, domain.Share{ParticipantID: id, Amount: amount})
	}
	if !sum.Equal(total) {
		return nil, fmt.Errorf("%w: amounts sum to %s, expected %s", apperrors.ErrInvalidSplit, sum, total)
	}
	return shares, nil
}

// distributeCents adds one cent to the first n entries.
func distributeCents(cents []decimal.Decimal, n int64) []decimal.Decimal {
	for i := int64(0); i < n && i < int64(len(cents)); i++ {
		cents[i] = cents[i].Add(one)
	}
	return cents
}

func toShares(ids []string, cents []decimal.Decimal) []domain.Share {
	shares := make([]domain.Share, len(ids))
	for i, id := range ids {
		shares[i] = domain.Share{ParticipantID: id, Amount: cents[i].Shift(-2)}
	}
	return shares
}

func sortedParticipants(participantIDs []string) ([]string, error) {
	if len(participantIDs) == 0 {
		return nil, fmt.Errorf("%w: at least one participant is required", apperrors.ErrInvalidSplit)
	}
	seen := make(map[string]struct{}, len(participantIDs))
	ids := make([]string, 0, len(participantIDs))
	for _, id := range participantIDs {
		if strings.TrimSpace(id) == "" {
			return nil, fmt.Errorf("%w: participant id cannot be empty", apperrors.ErrInvalidSplit)
		}
		if _, dup := seen[id]; dup {
			return nil, fmt.Errorf("%w: participant %s listed more than once", apperrors.ErrInvalidSplit, id)
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func requireSameParticipants(values map[string]decimal.Decimal, ids []string) error {
	if len(values) != len(ids) {
		return fmt.Errorf("%w: expected a value for each of %d participants, got %d", apperrors.ErrInvalidSplit, len(ids), len(values))
	}
	for _, id := range ids {
		if _, ok := values[id]; !ok {
			return fmt.Errorf("%w: missing value for participant %s", apperrors.ErrInvalidSplit, id)
		}
	}
	return nil
}
