package mapping

import (
	"github.com/SscSPs/splitledger/internal/core/domain"
	"github.com/SscSPs/splitledger/internal/models"
)

// ToModelGroup converts a domain Group to a model Group
func ToModelGroup(d domain.Group) models.Group {
	return models.Group{
		GroupID:          d.GroupID,
		Name:             d.Name,
		Description:      d.Description,
		BaseCurrencyCode: d.BaseCurrencyCode,
		AuditFields:      ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainGroup converts a model Group to a domain Group
func ToDomainGroup(m models.Group) domain.Group {
	return domain.Group{
		GroupID:          m.GroupID,
		Name:             m.Name,
		Description:      m.Description,
		BaseCurrencyCode: m.BaseCurrencyCode,
		AuditFields:      ToDomainAuditFields(m.AuditFields),
	}
}

// ToModelGroupMember converts a domain GroupMember to a model GroupMember
func ToModelGroupMember(d domain.GroupMember) models.GroupMember {
	return models.GroupMember{
		GroupID:             d.GroupID,
		UserID:              d.UserID,
		Role:                string(d.Role),
		ReconciliationState: string(d.ReconciliationState),
		JoinedAt:            d.JoinedAt,
		RemovedAt:           d.RemovedAt,
		ResolvedAt:          d.ResolvedAt,
	}
}

// ToDomainGroupMember converts a model GroupMember to a domain GroupMember
func ToDomainGroupMember(m models.GroupMember) domain.GroupMember {
	return domain.GroupMember{
		GroupID:             m.GroupID,
		UserID:              m.UserID,
		Role:                domain.MemberRole(m.Role),
		ReconciliationState: domain.ReconciliationState(m.ReconciliationState),
		JoinedAt:            m.JoinedAt,
		RemovedAt:           m.RemovedAt,
		ResolvedAt:          m.ResolvedAt,
	}
}

// ToDomainGroupMemberSlice converts a slice of model GroupMembers to a slice of domain GroupMembers
func ToDomainGroupMemberSlice(ms []models.GroupMember) []domain.GroupMember {
	ds := make([]domain.GroupMember, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainGroupMember(m)
	}
	return ds
}
