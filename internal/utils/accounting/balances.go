package accounting

import (
	"sort"

	"github.com/SscSPs/splitledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// debtMatrix tracks directed debts: debts[debtor][creditor] = amount.
type debtMatrix map[string]map[string]decimal.Decimal

func (m debtMatrix) add(debtor, creditor string, amount decimal.Decimal) {
	if _, ok := m[debtor]; !ok {
		m[debtor] = make(map[string]decimal.Decimal)
	}
	m[debtor][creditor] = m[debtor][creditor].Add(amount)
}

// AggregateBalances reduces ledger entries into net debts and per-member totals
// in the rate table's base currency.
//
// Unsettled outstanding amounts become debts from debtor to payer. Settled
// entries only count towards lifetime totals. Any entry whose currency has no
// rate fails the whole computation.
func AggregateBalances(groupID string, memberIDs []string, entries []domain.LedgerEntry, rates domain.RateTable) (*domain.GroupBalanceSnapshot, error) {
	debts := make(debtMatrix)
	lifetimeShare := make(map[string]decimal.Decimal)
	lifetimePaid := make(map[string]decimal.Decimal)
	members := make(map[string]struct{}, len(memberIDs))
	for _, id := range memberIDs {
		members[id] = struct{}{}
	}

	for _, e := range entries {
		members[e.DebtorID] = struct{}{}
		members[e.PayerID] = struct{}{}

		share, err := Normalize(e.Amount, e.CurrencyCode, rates.Base, rates)
		if err != nil {
			return nil, err
		}
		lifetimeShare[e.DebtorID] = lifetimeShare[e.DebtorID].Add(share)
		lifetimePaid[e.PayerID] = lifetimePaid[e.PayerID].Add(share)

		if e.DebtorID == e.PayerID {
			continue
		}
		outstanding := e.Outstanding()
		if !outstanding.IsPositive() {
			continue
		}
		owed, err := Normalize(outstanding, e.CurrencyCode, rates.Base, rates)
		if err != nil {
			return nil, err
		}
		if owed.IsPositive() {
			debts.add(e.DebtorID, e.PayerID, owed)
		}
	}

	netDebts := NetDebts(debts)

	owedTo := make(map[string]decimal.Decimal)
	owes := make(map[string]decimal.Decimal)
	for _, d := range netDebts {
		owedTo[d.ToMemberID] = owedTo[d.ToMemberID].Add(d.Amount)
		owes[d.FromMemberID] = owes[d.FromMemberID].Add(d.Amount)
	}

	ids := make([]string, 0, len(members))
	for id := range members {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	summaries := make([]domain.MemberBalance, 0, len(ids))
	for _, id := range ids {
		summaries = append(summaries, domain.MemberBalance{
			MemberID:      id,
			OwedToMember:  owedTo[id],
			MemberOwes:    owes[id],
			Net:           owedTo[id].Sub(owes[id]),
			LifetimeShare: lifetimeShare[id],
			LifetimePaid:  lifetimePaid[id],
		})
	}

	return &domain.GroupBalanceSnapshot{
		GroupID:            groupID,
		BaseCurrencyCode:   rates.Base,
		Members:            summaries,
		NetDebts:           netDebts,
		SuggestedTransfers: SuggestTransfers(summaries),
	}, nil
}

// NetDebts collapses opposing debts between every pair into a single directed
// debt. Pairs that cancel out are omitted. The result is sorted by (from, to).
func NetDebts(debts map[string]map[string]decimal.Decimal) []domain.NetDebt {
	type pair struct{ a, b string }
	visited := make(map[pair]struct{})
	result := []domain.NetDebt{}

	for debtor, creditors := range debts {
		for creditor := range creditors {
			a, b := debtor, creditor
			if b < a {
				a, b = b, a
			}
			if _, done := visited[pair{a, b}]; done {
				continue
			}
			visited[pair{a, b}] = struct{}{}

			diff := debts[a][b].Sub(debts[b][a])
			switch diff.Sign() {
			case 1:
				result = append(result, domain.NetDebt{FromMemberID: a, ToMemberID: b, Amount: diff})
			case -1:
				result = append(result, domain.NetDebt{FromMemberID: b, ToMemberID: a, Amount: diff.Neg()})
			}
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].FromMemberID != result[j].FromMemberID {
			return result[i].FromMemberID < result[j].FromMemberID
		}
		return result[i].ToMemberID < result[j].ToMemberID
	})
	return result
}

// SuggestTransfers proposes a short list of payments that clears every net
// balance, matching the largest debtor with the largest creditor first.
func SuggestTransfers(balances []domain.MemberBalance) []domain.NetDebt {
	type position struct {
		id     string
		amount decimal.Decimal
	}
	var creditors, debtors []position
	for _, b := range balances {
		switch b.Net.Sign() {
		case 1:
			creditors = append(creditors, position{b.MemberID, b.Net})
		case -1:
			debtors = append(debtors, position{b.MemberID, b.Net.Neg()})
		}
	}
	byAmountDesc := func(ps []position) {
		sort.Slice(ps, func(i, j int) bool {
			if c := ps[i].amount.Cmp(ps[j].amount); c != 0 {
				return c > 0
			}
			return ps[i].id < ps[j].id
		})
	}
	byAmountDesc(creditors)
	byAmountDesc(debtors)

	transfers := []domain.NetDebt{}
	i, j := 0, 0
	for i < len(debtors) && j < len(creditors) {
		amount := decimal.Min(debtors[i].amount, creditors[j].amount)
		if amount.IsPositive() {
			transfers = append(transfers, domain.NetDebt{
				FromMemberID: debtors[i].id,
				ToMemberID:   creditors[j].id,
				Amount:       amount,
			})
		}
		debtors[i].amount = debtors[i].amount.Sub(amount)
		creditors[j].amount = creditors[j].amount.Sub(amount)
		if !debtors[i].amount.IsPositive() {
			i++
		}
		if !creditors[j].amount.IsPositive() {
			j++
		}
	}
	return transfers
}
