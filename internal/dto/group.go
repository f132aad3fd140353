package dto

import (
	"time"

	"github.com/SscSPs/splitledger/internal/core/domain"
)

// --- Group DTOs ---

// CreateGroupRequest defines data for creating a new group.
type CreateGroupRequest struct {
	Name             string `json:"name" binding:"required,max=120"`
	Description      string `json:"description" binding:"max=500"`
	BaseCurrencyCode string `json:"baseCurrencyCode" binding:"omitempty,uppercase,iso4217"`
}

// GroupResponse defines data returned for a group.
type GroupResponse struct {
	GroupID          string    `json:"groupID"`
	Name             string    `json:"name"`
	Description      string    `json:"description"`
	BaseCurrencyCode string    `json:"baseCurrencyCode"`
	CreatedAt        time.Time `json:"createdAt"`
	CreatedBy        string    `json:"createdBy"`
}

// ToGroupResponse converts domain.Group to DTO.
func ToGroupResponse(g *domain.Group) GroupResponse {
	return GroupResponse{
		GroupID:          g.GroupID,
		Name:             g.Name,
		Description:      g.Description,
		BaseCurrencyCode: g.BaseCurrencyCode,
		CreatedAt:        g.CreatedAt,
		CreatedBy:        g.CreatedBy,
	}
}

// --- Membership DTOs ---

// AddMemberRequest defines data for adding a user to a group.
type AddMemberRequest struct {
	UserID string            `json:"userID" binding:"required"`
	Role   domain.MemberRole `json:"role" binding:"omitempty,oneof=ADMIN MEMBER READONLY"`
}

// MemberResponse defines data returned about a user's membership.
type MemberResponse struct {
	UserID              string                     `json:"userID"`
	GroupID             string                     `json:"groupID"`
	Role                domain.MemberRole          `json:"role"`
	ReconciliationState domain.ReconciliationState `json:"reconciliationState"`
	JoinedAt            time.Time                  `json:"joinedAt"`
	RemovedAt           *time.Time                 `json:"removedAt,omitempty"`
	ResolvedAt          *time.Time                 `json:"resolvedAt,omitempty"`
}

// ToMemberResponse converts domain.GroupMember to DTO.
func ToMemberResponse(m *domain.GroupMember) MemberResponse {
	return MemberResponse{
		UserID:              m.UserID,
		GroupID:             m.GroupID,
		Role:                m.Role,
		ReconciliationState: m.ReconciliationState,
		JoinedAt:            m.JoinedAt,
		RemovedAt:           m.RemovedAt,
		ResolvedAt:          m.ResolvedAt,
	}
}

// ListMembersResponse wraps a list of memberships.
type ListMembersResponse struct {
	Members []MemberResponse `json:"members"`
}

// ToListMembersResponse converts a slice of domain.GroupMember to DTO.
func ToListMembersResponse(ms []domain.GroupMember) ListMembersResponse {
	list := make([]MemberResponse, len(ms))
	for i := range ms {
		list[i] = ToMemberResponse(&ms[i])
	}
	return ListMembersResponse{Members: list}
}
