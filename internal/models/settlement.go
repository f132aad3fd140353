package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// SettlementRecord is a row of settlement_records. Rows are append-only.
type SettlementRecord struct {
	SettlementID    string          `db:"settlement_id"`
	LineItemID      string          `db:"line_item_id"`
	ExpenseID       string          `db:"expense_id"`
	GroupID         string          `db:"group_id"`
	ActorID         string          `db:"actor_id"`
	Method          string          `db:"method"`
	Amount          decimal.Decimal `db:"amount"`
	ObservedVersion int64           `db:"observed_version"`
	IdempotencyKey  *string         `db:"idempotency_key"`
	CreatedAt       time.Time       `db:"created_at"`
}
