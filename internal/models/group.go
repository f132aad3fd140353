package models

import "time"

// Group is a row of the groups table.
type Group struct {
	GroupID          string `db:"group_id"`
	Name             string `db:"name"`
	Description      string `db:"description"`
	BaseCurrencyCode string `db:"base_currency_code"`
	AuditFields
}

// GroupMember is a row of group_members, keyed by (group_id, user_id).
type GroupMember struct {
	GroupID             string     `db:"group_id"`
	UserID              string     `db:"user_id"`
	Role                string     `db:"role"`
	ReconciliationState string     `db:"reconciliation_state"`
	JoinedAt            time.Time  `db:"joined_at"`
	RemovedAt           *time.Time `db:"removed_at"`
	ResolvedAt          *time.Time `db:"resolved_at"`
}
