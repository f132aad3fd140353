package repositories

import (
	"context"
	"time"

	"github.com/SscSPs/splitledger/internal/core/domain"
)

// GroupReader defines read operations for group data
type GroupReader interface {
	// FindGroupByID retrieves a specific group by its ID.
	FindGroupByID(ctx context.Context, groupID string) (*domain.Group, error)
}

// GroupWriter defines write operations for group data
type GroupWriter interface {
	// SaveGroup persists a new group together with its founding member.
	SaveGroup(ctx context.Context, group domain.Group, founder domain.GroupMember) error
}

// GroupMembershipManager defines operations for managing group memberships
type GroupMembershipManager interface {
	// SaveMember inserts a membership or re-activates a removed one.
	SaveMember(ctx context.Context, member domain.GroupMember) error

	// FindMember retrieves one user's membership in a group, including removed ones.
	FindMember(ctx context.Context, groupID, userID string) (*domain.GroupMember, error)

	// ListMembers retrieves the memberships of a group.
	ListMembers(ctx context.Context, groupID string, includeRemoved bool) ([]domain.GroupMember, error)

	// MarkMemberRemoved flags a current member as removed and pending reconciliation.
	MarkMemberRemoved(ctx context.Context, groupID, userID string, at time.Time) error

	// UpdateReconciliationState moves a membership from one reconciliation state to another.
	// It returns ErrConflict if the stored state is not `from`.
	UpdateReconciliationState(ctx context.Context, groupID, userID string, from, to domain.ReconciliationState, at time.Time) error
}

// GroupRepositoryFacade combines all group-related repository interfaces
type GroupRepositoryFacade interface {
	GroupReader
	GroupWriter
	GroupMembershipManager
}
