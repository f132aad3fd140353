package dto

import (
	"github.com/SscSPs/splitledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// NetDebtResponse is one directed debt in base currency.
type NetDebtResponse struct {
	From   string          `json:"from"`
	To     string          `json:"to"`
	Amount decimal.Decimal `json:"amount"`
}

// MemberBalanceResponse summarizes one member's position.
type MemberBalanceResponse struct {
	MemberID      string          `json:"memberID"`
	OwedToMember  decimal.Decimal `json:"owedToMember"`
	MemberOwes    decimal.Decimal `json:"memberOwes"`
	Net           decimal.Decimal `json:"net"`
	LifetimeShare decimal.Decimal `json:"lifetimeShare"`
	LifetimePaid  decimal.Decimal `json:"lifetimePaid"`
}

// GroupBalancesResponse defines the data returned for a group's balances.
type GroupBalancesResponse struct {
	GroupID            string                  `json:"groupID"`
	BaseCurrencyCode   string                  `json:"baseCurrencyCode"`
	Members            []MemberBalanceResponse `json:"members"`
	NetDebts           []NetDebtResponse       `json:"netDebts"`
	SuggestedTransfers []NetDebtResponse       `json:"suggestedTransfers"`
}

func toNetDebtResponses(debts []domain.NetDebt) []NetDebtResponse {
	out := make([]NetDebtResponse, len(debts))
	for i, d := range debts {
		out[i] = NetDebtResponse{From: d.FromMemberID, To: d.ToMemberID, Amount: d.Amount}
	}
	return out
}

// ToGroupBalancesResponse converts a domain.GroupBalanceSnapshot to DTO.
func ToGroupBalancesResponse(s *domain.GroupBalanceSnapshot) GroupBalancesResponse {
	members := make([]MemberBalanceResponse, len(s.Members))
	for i, m := range s.Members {
		members[i] = MemberBalanceResponse{
			MemberID:      m.MemberID,
			OwedToMember:  m.OwedToMember,
			MemberOwes:    m.MemberOwes,
			Net:           m.Net,
			LifetimeShare: m.LifetimeShare,
			LifetimePaid:  m.LifetimePaid,
		}
	}
	return GroupBalancesResponse{
		GroupID:            s.GroupID,
		BaseCurrencyCode:   s.BaseCurrencyCode,
		Members:            members,
		NetDebts:           toNetDebtResponses(s.NetDebts),
		SuggestedTransfers: toNetDebtResponses(s.SuggestedTransfers),
	}
}
