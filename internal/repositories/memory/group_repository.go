package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/SscSPs/splitledger/internal/apperrors"
	"github.com/SscSPs/splitledger/internal/core/domain"
)

func (s *Store) FindGroupByID(_ context.Context, groupID string) (*domain.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.groups[groupID]
	if !ok {
		return nil, apperrors.NewNotFoundError("group " + groupID)
	}
	return &g, nil
}

func (s *Store) SaveGroup(_ context.Context, group domain.Group, founder domain.GroupMember) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.groups[group.GroupID]; ok {
		return fmt.Errorf("%w: group %s", apperrors.ErrDuplicate, group.GroupID)
	}
	s.groups[group.GroupID] = group
	s.members[memberKey{group.GroupID, founder.UserID}] = founder
	return nil
}

// SaveMember inserts a membership or overwrites a previous one.
func (s *Store) SaveMember(_ context.Context, member domain.GroupMember) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.groups[member.GroupID]; !ok {
		return apperrors.NewNotFoundError("group " + member.GroupID)
	}
	s.members[memberKey{member.GroupID, member.UserID}] = member
	return nil
}

func (s *Store) FindMember(_ context.Context, groupID, userID string) (*domain.GroupMember, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.members[memberKey{groupID, userID}]
	if !ok {
		return nil, apperrors.NewNotFoundError("member " + userID)
	}
	return &m, nil
}

func (s *Store) ListMembers(_ context.Context, groupID string, includeRemoved bool) ([]domain.GroupMember, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.GroupMember
	for k, m := range s.members {
		if k.groupID != groupID {
			continue
		}
		if !includeRemoved && !m.IsCurrent() {
			continue
		}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].JoinedAt.Equal(out[j].JoinedAt) {
			return out[i].JoinedAt.Before(out[j].JoinedAt)
		}
		return out[i].UserID < out[j].UserID
	})
	return out, nil
}

func (s *Store) MarkMemberRemoved(_ context.Context, groupID, userID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := memberKey{groupID, userID}
	m, ok := s.members[key]
	if !ok || !m.IsCurrent() {
		return apperrors.NewNotFoundError("member " + userID)
	}
	m.Role = domain.RoleRemoved
	m.ReconciliationState = domain.ReconciliationPending
	m.RemovedAt = &at
	m.ResolvedAt = nil
	s.members[key] = m
	return nil
}

func (s *Store) UpdateReconciliationState(_ context.Context, groupID, userID string, from, to domain.ReconciliationState, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := memberKey{groupID, userID}
	m, ok := s.members[key]
	if !ok {
		return apperrors.NewNotFoundError("member " + userID)
	}
	if m.ReconciliationState != from {
		return fmt.Errorf("%w: member %s is %s, not %s", apperrors.ErrConflict, userID, m.ReconciliationState, from)
	}
	m.ReconciliationState = to
	if to == domain.ReconciliationDone {
		m.ResolvedAt = &at
	}
	s.members[key] = m
	return nil
}
