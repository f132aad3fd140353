package mapping

import (
	"github.com/SscSPs/splitledger/internal/core/domain"
	"github.com/SscSPs/splitledger/internal/models"
)

// ToModelExpense converts a domain Expense to a model Expense. Line items are mapped separately.
func ToModelExpense(d domain.Expense) models.Expense {
	return models.Expense{
		ExpenseID:     d.ExpenseID,
		GroupID:       d.GroupID,
		PayerID:       d.PayerID,
		Description:   d.Description,
		Amount:        d.Amount,
		CurrencyCode:  d.CurrencyCode,
		Category:      string(d.Category),
		SplitType:     string(d.SplitType),
		IsInvalid:     d.IsInvalid,
		InvalidatedAt: d.InvalidatedAt,
		InvalidatedBy: d.InvalidatedBy,
		AuditFields:   ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainExpense converts a model Expense to a domain Expense without line items
func ToDomainExpense(m models.Expense) domain.Expense {
	return domain.Expense{
		ExpenseID:     m.ExpenseID,
		GroupID:       m.GroupID,
		PayerID:       m.PayerID,
		Description:   m.Description,
		Amount:        m.Amount,
		CurrencyCode:  m.CurrencyCode,
		Category:      domain.ExpenseCategory(m.Category),
		SplitType:     domain.SplitType(m.SplitType),
		IsInvalid:     m.IsInvalid,
		InvalidatedAt: m.InvalidatedAt,
		InvalidatedBy: m.InvalidatedBy,
		AuditFields:   ToDomainAuditFields(m.AuditFields),
	}
}

// ToModelLineItem converts a domain SplitLineItem to a model SplitLineItem
func ToModelLineItem(d domain.SplitLineItem) models.SplitLineItem {
	var method *string
	if d.SettlementMethod != nil {
		s := string(*d.SettlementMethod)
		method = &s
	}
	return models.SplitLineItem{
		LineItemID:       d.LineItemID,
		ExpenseID:        d.ExpenseID,
		DebtorID:         d.DebtorID,
		Amount:           d.Amount,
		PaidAmount:       d.PaidAmount,
		IsSettled:        d.IsSettled,
		SettledAt:        d.SettledAt,
		SettlementMethod: method,
		Version:          d.Version,
	}
}

// ToDomainLineItem converts a model SplitLineItem to a domain SplitLineItem
func ToDomainLineItem(m models.SplitLineItem) domain.SplitLineItem {
	var method *domain.SettlementMethod
	if m.SettlementMethod != nil {
		sm := domain.SettlementMethod(*m.SettlementMethod)
		method = &sm
	}
	return domain.SplitLineItem{
		LineItemID:       m.LineItemID,
		ExpenseID:        m.ExpenseID,
		DebtorID:         m.DebtorID,
		Amount:           m.Amount,
		PaidAmount:       m.PaidAmount,
		IsSettled:        m.IsSettled,
		SettledAt:        m.SettledAt,
		SettlementMethod: method,
		Version:          m.Version,
	}
}

// ToDomainLineItemSlice converts a slice of model SplitLineItems to a slice of domain SplitLineItems
func ToDomainLineItemSlice(ms []models.SplitLineItem) []domain.SplitLineItem {
	ds := make([]domain.SplitLineItem, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainLineItem(m)
	}
	return ds
}
