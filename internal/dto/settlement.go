package dto

import (
	"time"

	"github.com/SscSPs/splitledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// SettleLineItemRequest marks a line item as fully settled.
type SettleLineItemRequest struct {
	ExpectedVersion int64                   `json:"expectedVersion" binding:"required,min=1"`
	Method          domain.SettlementMethod `json:"method" binding:"required,oneof=cash bank_transfer external_app other"`
	IdempotencyKey  *string                 `json:"idempotencyKey" binding:"omitempty,max=128"`
}

// RecordPaymentRequest records a partial payment against a line item.
type RecordPaymentRequest struct {
	ExpectedVersion int64                   `json:"expectedVersion" binding:"required,min=1"`
	Amount          decimal.Decimal         `json:"amount" binding:"required,money"`
	Method          domain.SettlementMethod `json:"method" binding:"required,oneof=cash bank_transfer external_app other"`
	IdempotencyKey  *string                 `json:"idempotencyKey" binding:"omitempty,max=128"`
}

// SettlementRecordResponse defines the data returned for a settlement record.
type SettlementRecordResponse struct {
	SettlementID    string                  `json:"settlementID"`
	LineItemID      string                  `json:"lineItemID"`
	ActorID         string                  `json:"actorID"`
	Method          domain.SettlementMethod `json:"method"`
	Amount          decimal.Decimal         `json:"amount"`
	ObservedVersion int64                   `json:"observedVersion"`
	CreatedAt       time.Time               `json:"createdAt"`
}

// ToSettlementRecordResponse converts a domain.SettlementRecord to DTO.
func ToSettlementRecordResponse(r *domain.SettlementRecord) SettlementRecordResponse {
	return SettlementRecordResponse{
		SettlementID:    r.SettlementID,
		LineItemID:      r.LineItemID,
		ActorID:         r.ActorID,
		Method:          r.Method,
		Amount:          r.Amount,
		ObservedVersion: r.ObservedVersion,
		CreatedAt:       r.CreatedAt,
	}
}
