package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/SscSPs/splitledger/internal/apperrors"
	"github.com/SscSPs/splitledger/internal/core/domain"
	portsrepo "github.com/SscSPs/splitledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/splitledger/internal/core/ports/services"
	"github.com/SscSPs/splitledger/internal/dto"
	"github.com/SscSPs/splitledger/internal/events"
	"github.com/SscSPs/splitledger/internal/middleware"
	"github.com/google/uuid"
)

// roleRank orders roles; a higher rank includes the permissions of lower ones.
var roleRank = map[domain.MemberRole]int{
	domain.RoleReadOnly: 1,
	domain.RoleMember:   2,
	domain.RoleAdmin:    3,
}

type groupService struct {
	groupRepo    portsrepo.GroupRepositoryFacade
	currencyRepo portsrepo.CurrencyReader
	publisher    events.Publisher
	cache        portssvc.BalanceCache
	baseCurrency string
}

// GroupServiceOption is a functional option for configuring the group service
type GroupServiceOption func(*groupService)

// WithGroupCurrencyRepository validates base currencies against the catalog.
func WithGroupCurrencyRepository(repo portsrepo.CurrencyReader) GroupServiceOption {
	return func(s *groupService) {
		s.currencyRepo = repo
	}
}

// WithMemberEventPublisher publishes MemberRemoved events on removal.
func WithMemberEventPublisher(p events.Publisher) GroupServiceOption {
	return func(s *groupService) {
		s.publisher = p
	}
}

// WithGroupBalanceCache drops cached snapshots when membership changes.
func WithGroupBalanceCache(cache portssvc.BalanceCache) GroupServiceOption {
	return func(s *groupService) {
		s.cache = cache
	}
}

// WithDefaultBaseCurrency sets the base currency of groups created without one.
func WithDefaultBaseCurrency(code string) GroupServiceOption {
	return func(s *groupService) {
		s.baseCurrency = strings.ToUpper(code)
	}
}

// NewGroupService creates the group and membership directory service.
func NewGroupService(repo portsrepo.GroupRepositoryFacade, options ...GroupServiceOption) portssvc.GroupSvcFacade {
	svc := &groupService{
		groupRepo:    repo,
		baseCurrency: "USD",
	}
	for _, option := range options {
		option(svc)
	}
	return svc
}

var _ portssvc.GroupSvcFacade = (*groupService)(nil)

// CreateGroup creates a new group and makes the creator its admin.
func (s *groupService) CreateGroup(ctx context.Context, req dto.CreateGroupRequest, creatorUserID string) (*domain.Group, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	base := req.BaseCurrencyCode
	if base == "" {
		base = s.baseCurrency
	}
	if s.currencyRepo != nil {
		if _, err := s.currencyRepo.FindCurrencyByCode(ctx, base); err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				logger.Warn("Invalid base currency code provided", slog.String("currency_code", base))
				return nil, fmt.Errorf("%w: currency code %s not found", apperrors.ErrValidation, base)
			}
			logger.Error("Failed to check currency code existence", slog.String("error", err.Error()), slog.String("currency_code", base))
			return nil, fmt.Errorf("failed to validate currency code: %w", err)
		}
	}

	now := time.Now().UTC()
	group := domain.Group{
		GroupID:          uuid.NewString(),
		Name:             req.Name,
		Description:      req.Description,
		BaseCurrencyCode: base,
		AuditFields:      domain.NewAuditFields(creatorUserID, now),
	}
	founder := domain.GroupMember{
		GroupID:             group.GroupID,
		UserID:              creatorUserID,
		Role:                domain.RoleAdmin,
		ReconciliationState: domain.ReconciliationActive,
		JoinedAt:            now,
	}

	if err := s.groupRepo.SaveGroup(ctx, group, founder); err != nil {
		logger.Error("Failed to save group in repository", slog.String("error", err.Error()), slog.String("group_name", req.Name))
		return nil, fmt.Errorf("failed to create group: %w", err)
	}

	logger.Info("Group created successfully", slog.String("group_id", group.GroupID), slog.String("creator_user_id", creatorUserID))
	return &group, nil
}

// GetGroup retrieves a group visible to the requesting user.
func (s *groupService) GetGroup(ctx context.Context, groupID, requestingUserID string) (*domain.Group, error) {
	if err := s.AuthorizeMember(ctx, requestingUserID, groupID, domain.RoleReadOnly); err != nil {
		return nil, err
	}
	group, err := s.groupRepo.FindGroupByID(ctx, groupID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			middleware.GetLoggerFromCtx(ctx).Error("Failed to find group by ID", slog.String("error", err.Error()), slog.String("group_id", groupID))
		}
		return nil, err
	}
	return group, nil
}

// ListMembers lists every membership of the group, removed members included.
func (s *groupService) ListMembers(ctx context.Context, groupID, requestingUserID string) ([]domain.GroupMember, error) {
	if err := s.AuthorizeMember(ctx, requestingUserID, groupID, domain.RoleReadOnly); err != nil {
		return nil, err
	}
	members, err := s.groupRepo.ListMembers(ctx, groupID, true)
	if err != nil {
		return nil, fmt.Errorf("failed to list members of group %s: %w", groupID, err)
	}
	if members == nil {
		return []domain.GroupMember{}, nil
	}
	return members, nil
}

// AddMember adds a user to a group, or re-activates a former member.
func (s *groupService) AddMember(ctx context.Context, groupID string, req dto.AddMemberRequest, requestingUserID string) (*domain.GroupMember, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if err := s.AuthorizeMember(ctx, requestingUserID, groupID, domain.RoleAdmin); err != nil {
		return nil, err
	}

	role := req.Role
	if role == "" {
		role = domain.RoleMember
	}
	if _, ok := roleRank[role]; !ok {
		return nil, fmt.Errorf("%w: invalid role %q", apperrors.ErrValidation, role)
	}

	existing, err := s.groupRepo.FindMember(ctx, groupID, req.UserID)
	switch {
	case err == nil && existing.IsCurrent():
		return nil, fmt.Errorf("%w: user %s is already a member", apperrors.ErrDuplicate, req.UserID)
	case err == nil && existing.ReconciliationState == domain.ReconciliationPending:
		return nil, fmt.Errorf("%w: user %s still has debts being reconciled", apperrors.ErrConflict, req.UserID)
	case err != nil && !errors.Is(err, apperrors.ErrNotFound):
		return nil, fmt.Errorf("failed to look up membership: %w", err)
	}

	member := domain.GroupMember{
		GroupID:             groupID,
		UserID:              req.UserID,
		Role:                role,
		ReconciliationState: domain.ReconciliationActive,
		JoinedAt:            time.Now().UTC(),
	}
	if err := s.groupRepo.SaveMember(ctx, member); err != nil {
		logger.Error("Failed to add member to group", slog.String("error", err.Error()), slog.String("target_user_id", req.UserID), slog.String("group_id", groupID))
		return nil, fmt.Errorf("failed to add user %s to group %s: %w", req.UserID, groupID, err)
	}
	s.invalidateBalances(groupID)

	logger.Info("Member added to group successfully",
		slog.String("target_user_id", req.UserID),
		slog.String("group_id", groupID),
		slog.String("role", string(role)),
		slog.String("added_by_user_id", requestingUserID))
	return &member, nil
}

// RemoveMember marks a member removed and pending reconciliation, then
// announces the removal so their debts are written off asynchronously.
func (s *groupService) RemoveMember(ctx context.Context, groupID, targetUserID, requestingUserID string) (*domain.GroupMember, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	required := domain.RoleAdmin
	if targetUserID == requestingUserID {
		required = domain.RoleReadOnly
	}
	if err := s.AuthorizeMember(ctx, requestingUserID, groupID, required); err != nil {
		return nil, err
	}

	target, err := s.groupRepo.FindMember(ctx, groupID, targetUserID)
	if err != nil {
		return nil, err
	}
	if !target.IsCurrent() {
		return nil, fmt.Errorf("%w: user %s is not a member of group %s", apperrors.ErrNotFound, targetUserID, groupID)
	}
	if target.Role == domain.RoleAdmin {
		if err := s.ensureAnotherAdmin(ctx, groupID, targetUserID); err != nil {
			return nil, err
		}
	}

	now := time.Now().UTC()
	if err := s.groupRepo.MarkMemberRemoved(ctx, groupID, targetUserID, now); err != nil {
		logger.Error("Failed to mark member removed", slog.String("error", err.Error()), slog.String("target_user_id", targetUserID), slog.String("group_id", groupID))
		return nil, fmt.Errorf("failed to remove member: %w", err)
	}
	target.Role = domain.RoleRemoved
	target.ReconciliationState = domain.ReconciliationPending
	target.RemovedAt = &now
	s.invalidateBalances(groupID)

	if s.publisher != nil {
		evt := events.MemberRemoved{
			EventID:    uuid.NewString(),
			GroupID:    groupID,
			MemberID:   targetUserID,
			RemovedBy:  requestingUserID,
			OccurredAt: now,
		}
		if err := s.publisher.PublishMemberRemoved(ctx, evt); err != nil {
			// The membership stays pending and can be re-driven via the reconcile endpoint.
			logger.Error("Failed to publish member removed event", slog.String("error", err.Error()), slog.String("target_user_id", targetUserID))
		}
	}

	logger.Info("Member removed from group",
		slog.String("target_user_id", targetUserID),
		slog.String("group_id", groupID),
		slog.String("removed_by_user_id", requestingUserID))
	return target, nil
}

func (s *groupService) invalidateBalances(groupID string) {
	if s.cache != nil {
		s.cache.Invalidate(groupID)
	}
}

func (s *groupService) ensureAnotherAdmin(ctx context.Context, groupID, leavingUserID string) error {
	members, err := s.groupRepo.ListMembers(ctx, groupID, false)
	if err != nil {
		return fmt.Errorf("failed to list members: %w", err)
	}
	for _, m := range members {
		if m.UserID != leavingUserID && m.Role == domain.RoleAdmin {
			return nil
		}
	}
	return fmt.Errorf("%w: the last admin cannot leave the group", apperrors.ErrConflict)
}

// GetCurrentMembers returns the ids of the group's non-removed members.
func (s *groupService) GetCurrentMembers(ctx context.Context, groupID string) (map[string]struct{}, error) {
	members, err := s.groupRepo.ListMembers(ctx, groupID, false)
	if err != nil {
		return nil, fmt.Errorf("failed to list current members: %w", err)
	}
	set := make(map[string]struct{}, len(members))
	for _, m := range members {
		if m.IsCurrent() {
			set[m.UserID] = struct{}{}
		}
	}
	return set, nil
}

// AuthorizeMember checks that userID is a current member of groupID holding
// requiredRole or higher. Absent and removed members get ErrForbidden.
func (s *groupService) AuthorizeMember(ctx context.Context, userID, groupID string, requiredRole domain.MemberRole) error {
	logger := middleware.GetLoggerFromCtx(ctx)

	membership, err := s.groupRepo.FindMember(ctx, groupID, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			logger.Warn("Authorization failed: user is not a member", slog.String("user_id", userID), slog.String("group_id", groupID))
			return fmt.Errorf("%w: not a member of group %s", apperrors.ErrForbidden, groupID)
		}
		logger.Error("Failed to check group membership", slog.String("error", err.Error()), slog.String("user_id", userID), slog.String("group_id", groupID))
		return fmt.Errorf("failed to check authorization: %w", err)
	}
	if !membership.IsCurrent() {
		logger.Warn("Authorization failed: member was removed", slog.String("user_id", userID), slog.String("group_id", groupID))
		return fmt.Errorf("%w: no longer a member of group %s", apperrors.ErrForbidden, groupID)
	}
	if roleRank[membership.Role] >= roleRank[requiredRole] {
		return nil
	}

	logger.Warn("Authorization failed: user lacks required role",
		slog.String("user_id", userID),
		slog.String("group_id", groupID),
		slog.String("user_role", string(membership.Role)),
		slog.String("required_role", string(requiredRole)))
	return fmt.Errorf("%w: role %s required", apperrors.ErrForbidden, requiredRole)
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
