package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/SscSPs/splitledger/internal/apperrors"
	"github.com/SscSPs/splitledger/internal/core/domain"
	portsrepo "github.com/SscSPs/splitledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/splitledger/internal/core/ports/services"
	"github.com/SscSPs/splitledger/internal/events"
	"github.com/SscSPs/splitledger/internal/platform/metrics"
	"github.com/SscSPs/splitledger/internal/utils/retry"
	"github.com/google/uuid"
)

// ReconcilerActorID is recorded as the actor of write-off settlements.
const ReconcilerActorID = "system:reconciler"

type reconciliationService struct {
	BaseService
	groupRepo      portsrepo.GroupRepositoryFacade
	settlementRepo portsrepo.SettlementRepositoryFacade
	expenseRepo    portsrepo.ExpenseReader
	cache          portssvc.BalanceCache
	retryPolicy    retry.Policy
}

// NewReconciliationService creates the membership-change reconciler.
func NewReconciliationService(
	groupRepo portsrepo.GroupRepositoryFacade,
	settlementRepo portsrepo.SettlementRepositoryFacade,
	expenseRepo portsrepo.ExpenseReader,
	cache portssvc.BalanceCache,
	retryPolicy retry.Policy,
) portssvc.ReconcilerSvc {
	return &reconciliationService{
		groupRepo:      groupRepo,
		settlementRepo: settlementRepo,
		expenseRepo:    expenseRepo,
		cache:          cache,
		retryPolicy:    retryPolicy,
	}
}

// MemberRemovedHandler adapts a reconciler to the event bus.
func MemberRemovedHandler(r portssvc.ReconcilerSvc) events.MemberRemovedHandler {
	return func(ctx context.Context, evt events.MemberRemoved) error {
		return r.OnMemberRemoved(ctx, evt.GroupID, evt.MemberID)
	}
}

// OnMemberRemoved writes off every unsettled line item the removed member owes
// and moves the membership to RESOLVED. Running it again after success is a no-op.
func (s *reconciliationService) OnMemberRemoved(ctx context.Context, groupID, memberID string) error {
	member, err := s.groupRepo.FindMember(ctx, groupID, memberID)
	if err != nil {
		metrics.ObserveReconciliation(metrics.ResultError)
		return err
	}

	switch member.ReconciliationState {
	case domain.ReconciliationDone:
		s.LogDebug(ctx, "Member already reconciled", slog.String("group_id", groupID), slog.String("member_id", memberID))
		return nil
	case domain.ReconciliationActive:
		s.LogInfo(ctx, "Skipping reconciliation of active member", slog.String("group_id", groupID), slog.String("member_id", memberID))
		return nil
	}

	items, err := s.settlementRepo.ListUnsettledLineItemsByDebtor(ctx, groupID, memberID)
	if err != nil {
		metrics.ObserveReconciliation(metrics.ResultError)
		return fmt.Errorf("failed to list outstanding line items: %w", err)
	}

	writtenOff := 0
	for _, item := range items {
		done, err := s.writeOff(ctx, groupID, item.LineItemID)
		if err != nil {
			metrics.ObserveReconciliation(metrics.ResultError)
			s.LogError(ctx, err, "Failed to write off line item",
				slog.String("group_id", groupID),
				slog.String("member_id", memberID),
				slog.String("line_item_id", item.LineItemID))
			return err
		}
		if done {
			writtenOff++
		}
	}
	if writtenOff > 0 && s.cache != nil {
		s.cache.Invalidate(groupID)
	}

	err = s.groupRepo.UpdateReconciliationState(ctx, groupID, memberID, domain.ReconciliationPending, domain.ReconciliationDone, time.Now().UTC())
	if err != nil && !errors.Is(err, apperrors.ErrConflict) {
		metrics.ObserveReconciliation(metrics.ResultError)
		return fmt.Errorf("failed to resolve membership: %w", err)
	}

	metrics.ObserveReconciliation(metrics.ResultSuccess)
	s.LogInfo(ctx, "Member reconciled",
		slog.String("group_id", groupID),
		slog.String("member_id", memberID),
		slog.Int("written_off", writtenOff))
	return nil
}

// writeOff settles one line item with method member_removed, refetching and
// retrying when a concurrent settlement bumps its version.
func (s *reconciliationService) writeOff(ctx context.Context, groupID, lineItemID string) (bool, error) {
	wrote := false
	err := retry.OnConflict(ctx, s.retryPolicy, func(ctx context.Context) error {
		current, err := s.settlementRepo.FindLineItemByID(ctx, lineItemID)
		if err != nil {
			return err
		}
		if current.IsSettled {
			return nil
		}
		expense, err := s.expenseRepo.FindExpenseByID(ctx, current.ExpenseID)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		method := domain.MethodMemberRemoved
		update := domain.LineItemUpdate{
			LineItemID:      current.LineItemID,
			ExpectedVersion: current.Version,
			PaidAmount:      current.PaidAmount,
			Settled:         true,
			SettledAt:       &now,
			Method:          &method,
		}
		record := domain.SettlementRecord{
			SettlementID:    uuid.NewString(),
			LineItemID:      current.LineItemID,
			ExpenseID:       current.ExpenseID,
			GroupID:         expense.GroupID,
			ActorID:         ReconcilerActorID,
			Method:          method,
			Amount:          current.Outstanding(),
			ObservedVersion: current.Version,
			CreatedAt:       now,
		}
		if _, err := s.settlementRepo.ApplySettlement(ctx, update, record); err != nil {
			return err
		}
		wrote = true
		return nil
	})
	return wrote, err
}
