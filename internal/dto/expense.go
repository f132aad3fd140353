package dto

import (
	"fmt"
	"sort"
	"time"

	"github.com/SscSPs/splitledger/internal/apperrors"
	"github.com/SscSPs/splitledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreateExpenseRequest defines the data needed to record a group expense.
// Participants are required for EQUAL splits; for PERCENTAGE and EXACT splits
// they default to the keys of Percentages or Amounts.
type CreateExpenseRequest struct {
	PayerID      string                     `json:"payerID" binding:"required"`
	Description  string                     `json:"description" binding:"required,max=255"`
	Amount       decimal.Decimal            `json:"amount" binding:"required,money"`
	CurrencyCode string                     `json:"currencyCode" binding:"required,len=3,uppercase,iso4217"`
	Category     domain.ExpenseCategory     `json:"category" binding:"omitempty,max=40"`
	SplitType    domain.SplitType           `json:"splitType" binding:"required,oneof=EQUAL PERCENTAGE EXACT"`
	Participants []string                   `json:"participants" binding:"omitempty,dive,required"`
	Percentages  map[string]decimal.Decimal `json:"percentages,omitempty"`
	Amounts      map[string]decimal.Decimal `json:"amounts,omitempty"`
}

// SplitPolicy builds the split policy and participant list described by the request.
func (r CreateExpenseRequest) SplitPolicy() (domain.SplitPolicy, []string, error) {
	switch r.SplitType {
	case domain.SplitEqual:
		return domain.EqualSplit{}, r.Participants, nil
	case domain.SplitPercentage:
		return domain.PercentageSplit{Percentages: r.Percentages}, participantsOrKeys(r.Participants, r.Percentages), nil
	case domain.SplitExact:
		return domain.ExactSplit{Amounts: r.Amounts}, participantsOrKeys(r.Participants, r.Amounts), nil
	default:
		return nil, nil, fmt.Errorf("%w: unknown split type %q", apperrors.ErrInvalidSplit, r.SplitType)
	}
}

func participantsOrKeys(participants []string, values map[string]decimal.Decimal) []string {
	if len(participants) > 0 {
		return participants
	}
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ListExpensesParams defines query parameters for ledger history.
type ListExpensesParams struct {
	Limit          int     `form:"limit" binding:"omitempty,min=1,max=100"`
	NextToken      *string `form:"nextToken"`
	IncludeInvalid bool    `form:"includeInvalid"`
}

// LineItemResponse defines the data returned for a split line item.
type LineItemResponse struct {
	LineItemID       string                   `json:"lineItemID"`
	ExpenseID        string                   `json:"expenseID"`
	DebtorID         string                   `json:"debtorID"`
	Amount           decimal.Decimal          `json:"amount"`
	PaidAmount       decimal.Decimal          `json:"paidAmount"`
	Outstanding      decimal.Decimal          `json:"outstanding"`
	IsSettled        bool                     `json:"isSettled"`
	SettledAt        *time.Time               `json:"settledAt,omitempty"`
	SettlementMethod *domain.SettlementMethod `json:"settlementMethod,omitempty"`
	Version          int64                    `json:"version"`
}

// ToLineItemResponse converts a domain.SplitLineItem to DTO.
func ToLineItemResponse(li *domain.SplitLineItem) LineItemResponse {
	return LineItemResponse{
		LineItemID:       li.LineItemID,
		ExpenseID:        li.ExpenseID,
		DebtorID:         li.DebtorID,
		Amount:           li.Amount,
		PaidAmount:       li.PaidAmount,
		Outstanding:      li.Outstanding(),
		IsSettled:        li.IsSettled,
		SettledAt:        li.SettledAt,
		SettlementMethod: li.SettlementMethod,
		Version:          li.Version,
	}
}

// ExpenseResponse defines the data returned for an expense.
type ExpenseResponse struct {
	ExpenseID     string                     `json:"expenseID"`
	GroupID       string                     `json:"groupID"`
	PayerID       string                     `json:"payerID"`
	Description   string                     `json:"description"`
	Amount        decimal.Decimal            `json:"amount"`
	CurrencyCode  string                     `json:"currencyCode"`
	Category      domain.ExpenseCategory     `json:"category"`
	SplitType     domain.SplitType           `json:"splitType"`
	IsInvalid     bool                       `json:"isInvalid"`
	InvalidatedAt *time.Time                 `json:"invalidatedAt,omitempty"`
	InvalidatedBy *string                    `json:"invalidatedBy,omitempty"`
	CreatedAt     time.Time                  `json:"createdAt"`
	CreatedBy     string                     `json:"createdBy"`
	LineItems     []LineItemResponse         `json:"lineItems"`
	Settlements   []SettlementRecordResponse `json:"settlements,omitempty"`
}

// ToExpenseResponse converts a domain.Expense to DTO.
func ToExpenseResponse(e *domain.Expense) ExpenseResponse {
	items := make([]LineItemResponse, len(e.LineItems))
	for i := range e.LineItems {
		items[i] = ToLineItemResponse(&e.LineItems[i])
	}
	return ExpenseResponse{
		ExpenseID:     e.ExpenseID,
		GroupID:       e.GroupID,
		PayerID:       e.PayerID,
		Description:   e.Description,
		Amount:        e.Amount,
		CurrencyCode:  e.CurrencyCode,
		Category:      e.Category,
		SplitType:     e.SplitType,
		IsInvalid:     e.IsInvalid,
		InvalidatedAt: e.InvalidatedAt,
		InvalidatedBy: e.InvalidatedBy,
		CreatedAt:     e.CreatedAt,
		CreatedBy:     e.CreatedBy,
		LineItems:     items,
	}
}

// LedgerHistoryResponse is one page of a group's ledger.
type LedgerHistoryResponse struct {
	Expenses  []ExpenseResponse `json:"expenses"`
	NextToken *string           `json:"nextToken,omitempty"`
}
