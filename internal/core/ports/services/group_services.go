package services

import (
	"context"

	"github.com/SscSPs/splitledger/internal/core/domain"
	"github.com/SscSPs/splitledger/internal/dto"
)

// MembershipDirectory is the authoritative source of who currently belongs to a group.
type MembershipDirectory interface {
	// GetCurrentMembers returns the ids of the group's current (non-removed) members.
	GetCurrentMembers(ctx context.Context, groupID string) (map[string]struct{}, error)
}

// GroupReaderSvc defines read operations for groups
type GroupReaderSvc interface {
	// GetGroup retrieves a group the requesting user belongs to.
	GetGroup(ctx context.Context, groupID, requestingUserID string) (*domain.Group, error)

	// ListMembers retrieves all memberships of a group, including removed ones.
	ListMembers(ctx context.Context, groupID, requestingUserID string) ([]domain.GroupMember, error)
}

// GroupWriterSvc defines write operations for groups
type GroupWriterSvc interface {
	// CreateGroup creates a group and makes the creator its admin.
	CreateGroup(ctx context.Context, req dto.CreateGroupRequest, creatorUserID string) (*domain.Group, error)
}

// GroupMembershipSvc defines operations for managing group membership
type GroupMembershipSvc interface {
	// AddMember adds a user to a group. Only admins can add members.
	AddMember(ctx context.Context, groupID string, req dto.AddMemberRequest, requestingUserID string) (*domain.GroupMember, error)

	// RemoveMember removes a user from a group and schedules reconciliation of their debts.
	// Admins can remove anyone; members can remove themselves.
	RemoveMember(ctx context.Context, groupID, targetUserID, requestingUserID string) (*domain.GroupMember, error)
}

// GroupAuthorizerSvc defines operations for group authorization
type GroupAuthorizerSvc interface {
	// AuthorizeMember checks that a user is a current member with at least the required role.
	AuthorizeMember(ctx context.Context, userID, groupID string, requiredRole domain.MemberRole) error
}

// GroupSvcFacade combines all group-related service interfaces
type GroupSvcFacade interface {
	GroupReaderSvc
	GroupWriterSvc
	GroupMembershipSvc
	GroupAuthorizerSvc
	MembershipDirectory
}
