package domain

import "time"

// Group is a set of members sharing expenses. Balances are reported in BaseCurrencyCode.
type Group struct {
	GroupID          string `json:"groupID"`
	Name             string `json:"name"`
	Description      string `json:"description"`
	BaseCurrencyCode string `json:"baseCurrencyCode"`
	AuditFields
}

// MemberRole defines the possible roles a user can have within a group.
type MemberRole string

const (
	RoleAdmin    MemberRole = "ADMIN"
	RoleMember   MemberRole = "MEMBER"
	RoleReadOnly MemberRole = "READONLY"
	RoleRemoved  MemberRole = "REMOVED" // kept for audit; excluded from the current member set
)

// ReconciliationState tracks what happened to a departing member's outstanding debts.
type ReconciliationState string

const (
	ReconciliationActive  ReconciliationState = "ACTIVE"
	ReconciliationPending ReconciliationState = "PENDING_RECONCILIATION"
	ReconciliationDone    ReconciliationState = "RESOLVED"
)

// GroupMember represents the membership of a user in a group.
type GroupMember struct {
	GroupID             string              `json:"groupID"`
	UserID              string              `json:"userID"`
	Role                MemberRole          `json:"role"`
	ReconciliationState ReconciliationState `json:"reconciliationState"`
	JoinedAt            time.Time           `json:"joinedAt"`
	RemovedAt           *time.Time          `json:"removedAt,omitempty"`
	ResolvedAt          *time.Time          `json:"resolvedAt,omitempty"`
}

// IsCurrent reports whether the member still belongs to the group.
func (m GroupMember) IsCurrent() bool {
	return m.Role != RoleRemoved
}
