package mapping

import (
	"github.com/SscSPs/splitledger/internal/core/domain"
	"github.com/SscSPs/splitledger/internal/models"
)

// ToModelSettlementRecord converts a domain SettlementRecord to a model SettlementRecord
func ToModelSettlementRecord(d domain.SettlementRecord) models.SettlementRecord {
	return models.SettlementRecord{
		SettlementID:    d.SettlementID,
		LineItemID:      d.LineItemID,
		ExpenseID:       d.ExpenseID,
		GroupID:         d.GroupID,
		ActorID:         d.ActorID,
		Method:          string(d.Method),
		Amount:          d.Amount,
		ObservedVersion: d.ObservedVersion,
		IdempotencyKey:  d.IdempotencyKey,
		CreatedAt:       d.CreatedAt,
	}
}

// ToDomainSettlementRecord converts a model SettlementRecord to a domain SettlementRecord
func ToDomainSettlementRecord(m models.SettlementRecord) domain.SettlementRecord {
	return domain.SettlementRecord{
		SettlementID:    m.SettlementID,
		LineItemID:      m.LineItemID,
		ExpenseID:       m.ExpenseID,
		GroupID:         m.GroupID,
		ActorID:         m.ActorID,
		Method:          domain.SettlementMethod(m.Method),
		Amount:          m.Amount,
		ObservedVersion: m.ObservedVersion,
		IdempotencyKey:  m.IdempotencyKey,
		CreatedAt:       m.CreatedAt,
	}
}
