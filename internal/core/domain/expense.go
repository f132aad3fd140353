package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ExpenseCategory is an open-ended label for an expense.
type ExpenseCategory string

const (
	CategoryGeneral       ExpenseCategory = "GENERAL"
	CategoryFood          ExpenseCategory = "FOOD"
	CategoryTransport     ExpenseCategory = "TRANSPORT"
	CategoryAccommodation ExpenseCategory = "ACCOMMODATION"
	CategoryEntertainment ExpenseCategory = "ENTERTAINMENT"
	CategoryUtilities     ExpenseCategory = "UTILITIES"
)

// Expense is one recorded group cost with one payer. It is never mutated after
// creation apart from being marked invalid.
type Expense struct {
	ExpenseID     string          `json:"expenseID"`
	GroupID       string          `json:"groupID"`
	PayerID       string          `json:"payerID"`
	Description   string          `json:"description"`
	Amount        decimal.Decimal `json:"amount"`
	CurrencyCode  string          `json:"currencyCode"`
	Category      ExpenseCategory `json:"category"`
	SplitType     SplitType       `json:"splitType"`
	IsInvalid     bool            `json:"isInvalid"`
	InvalidatedAt *time.Time      `json:"invalidatedAt,omitempty"`
	InvalidatedBy *string         `json:"invalidatedBy,omitempty"`
	AuditFields
	LineItems []SplitLineItem `json:"lineItems,omitempty"`
}

// SettlementMethod records how a line item was settled.
type SettlementMethod string

const (
	MethodCash          SettlementMethod = "cash"
	MethodBankTransfer  SettlementMethod = "bank_transfer"
	MethodExternalApp   SettlementMethod = "external_app"
	MethodOther         SettlementMethod = "other"
	MethodMemberRemoved SettlementMethod = "member_removed" // write-off, reserved for reconciliation
)

// IsUserSelectable reports whether callers may pick this method themselves.
func (m SettlementMethod) IsUserSelectable() bool {
	switch m {
	case MethodCash, MethodBankTransfer, MethodExternalApp, MethodOther:
		return true
	}
	return false
}

// SplitLineItem is one participant's share of one expense, in the expense's currency.
// Amount never changes; payments accumulate in PaidAmount.
type SplitLineItem struct {
	LineItemID       string            `json:"lineItemID"`
	ExpenseID        string            `json:"expenseID"`
	DebtorID         string            `json:"debtorID"`
	Amount           decimal.Decimal   `json:"amount"`
	PaidAmount       decimal.Decimal   `json:"paidAmount"`
	IsSettled        bool              `json:"isSettled"`
	SettledAt        *time.Time        `json:"settledAt,omitempty"`
	SettlementMethod *SettlementMethod `json:"settlementMethod,omitempty"`
	Version          int64             `json:"version"`
}

// Outstanding returns the part of the share not yet paid.
func (li SplitLineItem) Outstanding() decimal.Decimal {
	if li.IsSettled {
		return decimal.Zero
	}
	return li.Amount.Sub(li.PaidAmount)
}

// LedgerEntry is a line item joined to the fields of its owning expense that
// balance aggregation needs.
type LedgerEntry struct {
	SplitLineItem
	GroupID      string `json:"groupID"`
	PayerID      string `json:"payerID"`
	CurrencyCode string `json:"currencyCode"`
}
