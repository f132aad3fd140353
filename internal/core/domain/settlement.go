package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// SettlementRecord is the audit entry written for every payment or settlement
// applied to a line item.
type SettlementRecord struct {
	SettlementID    string           `json:"settlementID"`
	LineItemID      string           `json:"lineItemID"`
	ExpenseID       string           `json:"expenseID"`
	GroupID         string           `json:"groupID"`
	ActorID         string           `json:"actorID"`
	Method          SettlementMethod `json:"method"`
	Amount          decimal.Decimal  `json:"amount"`
	ObservedVersion int64            `json:"observedVersion"`
	IdempotencyKey  *string          `json:"idempotencyKey,omitempty"`
	CreatedAt       time.Time        `json:"createdAt"`
}

// LineItemUpdate is the conditional write applied by settlement. It only
// succeeds while the stored version equals ExpectedVersion.
type LineItemUpdate struct {
	LineItemID      string
	ExpectedVersion int64
	PaidAmount      decimal.Decimal
	Settled         bool
	SettledAt       *time.Time
	Method          *SettlementMethod
}
