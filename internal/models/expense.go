package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Expense is a row of the expenses table.
type Expense struct {
	ExpenseID     string          `db:"expense_id"`
	GroupID       string          `db:"group_id"`
	PayerID       string          `db:"payer_id"`
	Description   string          `db:"description"`
	Amount        decimal.Decimal `db:"amount"`
	CurrencyCode  string          `db:"currency_code"`
	Category      string          `db:"category"`
	SplitType     string          `db:"split_type"`
	IsInvalid     bool            `db:"is_invalid"`
	InvalidatedAt *time.Time      `db:"invalidated_at"`
	InvalidatedBy *string         `db:"invalidated_by"`
	AuditFields
}

// SplitLineItem is a row of split_line_items. Version increments on every write.
type SplitLineItem struct {
	LineItemID       string          `db:"line_item_id"`
	ExpenseID        string          `db:"expense_id"`
	DebtorID         string          `db:"debtor_id"`
	Amount           decimal.Decimal `db:"amount"`
	PaidAmount       decimal.Decimal `db:"paid_amount"`
	IsSettled        bool            `db:"is_settled"`
	SettledAt        *time.Time      `db:"settled_at"`
	SettlementMethod *string         `db:"settlement_method"`
	Version          int64           `db:"version"`
}
