// Package events is an in-process, asynchronous event bus for ledger side effects.
package events

import "time"

// EventMemberRemoved is the metric and log name of MemberRemoved.
const EventMemberRemoved = "member_removed"

// MemberRemoved is published after a member leaves a group and their
// membership row has been moved to PENDING_RECONCILIATION.
type MemberRemoved struct {
	EventID    string    `json:"eventID"`
	GroupID    string    `json:"groupID"`
	MemberID   string    `json:"memberID"`
	RemovedBy  string    `json:"removedBy"`
	OccurredAt time.Time `json:"occurredAt"`
}
