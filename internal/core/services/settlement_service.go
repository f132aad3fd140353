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
	"github.com/SscSPs/splitledger/internal/dto"
	"github.com/SscSPs/splitledger/internal/platform/metrics"
	"github.com/SscSPs/splitledger/internal/utils/accounting"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type settlementService struct {
	BaseService
	settlementRepo portsrepo.SettlementRepositoryFacade
	expenseRepo    portsrepo.ExpenseReader
	cache          portssvc.BalanceCache
}

// NewSettlementService creates the settlement coordinator. cache may be nil.
func NewSettlementService(
	settlementRepo portsrepo.SettlementRepositoryFacade,
	expenseRepo portsrepo.ExpenseReader,
	authorizer portssvc.GroupAuthorizerSvc,
	cache portssvc.BalanceCache,
) portssvc.SettlementSvc {
	return &settlementService{
		BaseService:    BaseService{GroupAuthorizer: authorizer},
		settlementRepo: settlementRepo,
		expenseRepo:    expenseRepo,
		cache:          cache,
	}
}

var _ portssvc.SettlementSvc = (*settlementService)(nil)

// Settle marks a line item fully paid if the caller observed its current version.
func (s *settlementService) Settle(ctx context.Context, groupID, lineItemID string, req dto.SettleLineItemRequest, actorID string) (*domain.SplitLineItem, error) {
	item, expense, replay, err := s.prepare(ctx, groupID, lineItemID, req.Method, req.IdempotencyKey, actorID)
	if err != nil || replay {
		return item, err
	}
	if err := checkVersion(item, req.ExpectedVersion); err != nil {
		metrics.ObserveSettlement(resultFor(err))
		return nil, err
	}

	now := time.Now().UTC()
	method := req.Method
	update := domain.LineItemUpdate{
		LineItemID:      item.LineItemID,
		ExpectedVersion: req.ExpectedVersion,
		PaidAmount:      item.Amount,
		Settled:         true,
		SettledAt:       &now,
		Method:          &method,
	}
	record := newSettlementRecord(item, expense, actorID, method, item.Outstanding(), req.ExpectedVersion, req.IdempotencyKey, now)
	return s.apply(ctx, groupID, update, record)
}

// RecordPayment applies a partial payment. The line item settles once its
// payments reach the original amount.
func (s *settlementService) RecordPayment(ctx context.Context, groupID, lineItemID string, req dto.RecordPaymentRequest, actorID string) (*domain.SplitLineItem, error) {
	if !req.Amount.IsPositive() || !accounting.HasCentPrecision(req.Amount) {
		return nil, fmt.Errorf("%w: payment must be a positive amount with at most 2 decimal places", apperrors.ErrValidation)
	}

	item, expense, replay, err := s.prepare(ctx, groupID, lineItemID, req.Method, req.IdempotencyKey, actorID)
	if err != nil || replay {
		return item, err
	}
	if err := checkVersion(item, req.ExpectedVersion); err != nil {
		metrics.ObserveSettlement(resultFor(err))
		return nil, err
	}
	outstanding := item.Outstanding()
	if req.Amount.GreaterThan(outstanding) {
		return nil, fmt.Errorf("%w: payment %s exceeds outstanding %s", apperrors.ErrValidation, req.Amount.StringFixed(2), outstanding.StringFixed(2))
	}

	now := time.Now().UTC()
	method := req.Method
	paid := item.PaidAmount.Add(req.Amount)
	update := domain.LineItemUpdate{
		LineItemID:      item.LineItemID,
		ExpectedVersion: req.ExpectedVersion,
		PaidAmount:      paid,
		Settled:         paid.Equal(item.Amount),
	}
	if update.Settled {
		update.SettledAt = &now
		update.Method = &method
	}
	record := newSettlementRecord(item, expense, actorID, method, req.Amount, req.ExpectedVersion, req.IdempotencyKey, now)
	return s.apply(ctx, groupID, update, record)
}

// prepare runs the checks shared by Settle and RecordPayment. replay is true when
// the idempotency key was already used and item is the current state.
func (s *settlementService) prepare(ctx context.Context, groupID, lineItemID string, method domain.SettlementMethod, key *string, actorID string) (item *domain.SplitLineItem, expense *domain.Expense, replay bool, err error) {
	if err := s.AuthorizeUser(ctx, actorID, groupID, domain.RoleMember); err != nil {
		return nil, nil, false, err
	}
	if !method.IsUserSelectable() {
		return nil, nil, false, fmt.Errorf("%w: settlement method %q is not allowed", apperrors.ErrValidation, method)
	}

	if key != nil && *key != "" {
		_, err := s.settlementRepo.FindSettlementByIdempotencyKey(ctx, lineItemID, *key)
		switch {
		case err == nil:
			current, _, err := s.loadInGroup(ctx, groupID, lineItemID)
			if err != nil {
				return nil, nil, false, err
			}
			s.LogInfo(ctx, "Settlement replayed for idempotency key", slog.String("line_item_id", lineItemID))
			return current, nil, true, nil
		case !errors.Is(err, apperrors.ErrNotFound):
			return nil, nil, false, fmt.Errorf("failed to check idempotency key: %w", err)
		}
	}

	item, expense, err = s.loadInGroup(ctx, groupID, lineItemID)
	if err != nil {
		return nil, nil, false, err
	}
	if actorID != item.DebtorID && actorID != expense.PayerID {
		return nil, nil, false, fmt.Errorf("%w: only the debtor or the payer can settle a line item", apperrors.ErrForbidden)
	}
	return item, expense, false, nil
}

func (s *settlementService) loadInGroup(ctx context.Context, groupID, lineItemID string) (*domain.SplitLineItem, *domain.Expense, error) {
	item, err := s.settlementRepo.FindLineItemByID(ctx, lineItemID)
	if err != nil {
		return nil, nil, err
	}
	expense, err := s.expenseRepo.FindExpenseByID(ctx, item.ExpenseID)
	if err != nil {
		return nil, nil, err
	}
	if expense.GroupID != groupID || expense.IsInvalid {
		return nil, nil, apperrors.NewNotFoundError("line item " + lineItemID)
	}
	return item, expense, nil
}

func (s *settlementService) apply(ctx context.Context, groupID string, update domain.LineItemUpdate, record domain.SettlementRecord) (*domain.SplitLineItem, error) {
	updated, err := s.settlementRepo.ApplySettlement(ctx, update, record)
	if err != nil {
		metrics.ObserveSettlement(resultFor(err))
		if !errors.Is(err, apperrors.ErrVersionConflict) {
			s.LogError(ctx, err, "Failed to apply settlement", slog.String("line_item_id", update.LineItemID))
		}
		return nil, err
	}
	if s.cache != nil {
		s.cache.Invalidate(groupID)
	}
	metrics.ObserveSettlement(metrics.ResultSuccess)

	s.LogInfo(ctx, "Settlement recorded",
		slog.String("line_item_id", updated.LineItemID),
		slog.String("settlement_id", record.SettlementID),
		slog.String("amount", record.Amount.StringFixed(2)),
		slog.Bool("settled", updated.IsSettled),
		slog.Int64("version", updated.Version))
	return updated, nil
}

// checkVersion compares versions before the settled flag so a stale retry of a
// successful settle reports a conflict.
func checkVersion(item *domain.SplitLineItem, expected int64) error {
	if item.Version != expected {
		return fmt.Errorf("%w: line item %s is at version %d, not %d", apperrors.ErrVersionConflict, item.LineItemID, item.Version, expected)
	}
	if item.IsSettled {
		return fmt.Errorf("%w: line item %s", apperrors.ErrAlreadySettled, item.LineItemID)
	}
	return nil
}

func newSettlementRecord(item *domain.SplitLineItem, expense *domain.Expense, actorID string, method domain.SettlementMethod, amount decimal.Decimal, observed int64, key *string, at time.Time) domain.SettlementRecord {
	if key != nil && *key == "" {
		key = nil
	}
	return domain.SettlementRecord{
		SettlementID:    uuid.NewString(),
		LineItemID:      item.LineItemID,
		ExpenseID:       item.ExpenseID,
		GroupID:         expense.GroupID,
		ActorID:         actorID,
		Method:          method,
		Amount:          amount,
		ObservedVersion: observed,
		IdempotencyKey:  key,
		CreatedAt:       at,
	}
}

func resultFor(err error) string {
	switch {
	case errors.Is(err, apperrors.ErrVersionConflict):
		return metrics.ResultConflict
	case errors.Is(err, apperrors.ErrAlreadySettled):
		return metrics.ResultSettled
	default:
		return metrics.ResultError
	}
}
