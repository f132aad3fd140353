package domain

import "github.com/shopspring/decimal"

// NetDebt is a single directed debt after opposing debts between two members
// have been collapsed.
type NetDebt struct {
	FromMemberID string          `json:"fromMemberID"`
	ToMemberID   string          `json:"toMemberID"`
	Amount       decimal.Decimal `json:"amount"`
}

// MemberBalance summarizes one member's position in base currency.
type MemberBalance struct {
	MemberID      string          `json:"memberID"`
	OwedToMember  decimal.Decimal `json:"owedToMember"`
	MemberOwes    decimal.Decimal `json:"memberOwes"`
	Net           decimal.Decimal `json:"net"`
	LifetimeShare decimal.Decimal `json:"lifetimeShare"`
	LifetimePaid  decimal.Decimal `json:"lifetimePaid"`
}

// GroupBalanceSnapshot is a request-time view of a group's balances. It is never persisted.
type GroupBalanceSnapshot struct {
	GroupID            string          `json:"groupID"`
	BaseCurrencyCode   string          `json:"baseCurrencyCode"`
	Members            []MemberBalance `json:"members"`
	NetDebts           []NetDebt       `json:"netDebts"`
	SuggestedTransfers []NetDebt       `json:"suggestedTransfers"`
}
