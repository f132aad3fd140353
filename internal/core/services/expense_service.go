package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/SscSPs/splitledger/internal/apperrors"
	"github.com/SscSPs/splitledger/internal/core/domain"
	portsrepo "github.com/SscSPs/splitledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/splitledger/internal/core/ports/services"
	"github.com/SscSPs/splitledger/internal/dto"
	"github.com/SscSPs/splitledger/internal/platform/metrics"
	"github.com/SscSPs/splitledger/internal/utils/accounting"
	"github.com/SscSPs/splitledger/internal/utils/pagination"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const defaultLedgerPageSize = 20

type expenseService struct {
	BaseService
	expenseRepo    portsrepo.ExpenseRepositoryFacade
	settlementRepo portsrepo.SettlementReader
	currencyRepo   portsrepo.CurrencyReader
	validator      portssvc.ParticipantValidator
	cache          portssvc.BalanceCache
}

// ExpenseServiceOption is a functional option for configuring the expense service
type ExpenseServiceOption func(*expenseService)

// WithExpenseGroupAuthorizer adds the group authorizer dependency
func WithExpenseGroupAuthorizer(authorizer portssvc.GroupAuthorizerSvc) ExpenseServiceOption {
	return func(s *expenseService) {
		s.GroupAuthorizer = authorizer
	}
}

// WithExpenseCurrencyRepository checks expense currencies against the catalog.
func WithExpenseCurrencyRepository(repo portsrepo.CurrencyReader) ExpenseServiceOption {
	return func(s *expenseService) {
		s.currencyRepo = repo
	}
}

// WithExpenseSettlementReader attaches settlement records to ledger history.
func WithExpenseSettlementReader(repo portsrepo.SettlementReader) ExpenseServiceOption {
	return func(s *expenseService) {
		s.settlementRepo = repo
	}
}

// WithExpenseBalanceCache invalidates cached balances on ledger writes.
func WithExpenseBalanceCache(cache portssvc.BalanceCache) ExpenseServiceOption {
	return func(s *expenseService) {
		s.cache = cache
	}
}

// NewExpenseService creates the expense ledger service.
func NewExpenseService(repo portsrepo.ExpenseRepositoryFacade, validator portssvc.ParticipantValidator, options ...ExpenseServiceOption) portssvc.ExpenseSvcFacade {
	svc := &expenseService{
		expenseRepo: repo,
		validator:   validator,
	}
	for _, option := range options {
		option(svc)
	}
	return svc
}

var _ portssvc.ExpenseSvcFacade = (*expenseService)(nil)

// CreateExpense validates the request, resolves its split and stores the
// expense with all of its line items in one write.
func (s *expenseService) CreateExpense(ctx context.Context, groupID string, req dto.CreateExpenseRequest, creatorUserID string) (*domain.Expense, error) {
	if err := s.AuthorizeUser(ctx, creatorUserID, groupID, domain.RoleMember); err != nil {
		return nil, err
	}

	if !req.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: amount must be positive", apperrors.ErrValidation)
	}
	if !accounting.HasCentPrecision(req.Amount) {
		return nil, fmt.Errorf("%w: amount must have at most 2 decimal places", apperrors.ErrValidation)
	}
	currencyCode := strings.ToUpper(req.CurrencyCode)
	if s.currencyRepo != nil {
		currency, err := s.currencyRepo.FindCurrencyByCode(ctx, currencyCode)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return nil, fmt.Errorf("%w: currency code %s is not supported", apperrors.ErrValidation, currencyCode)
			}
			return nil, fmt.Errorf("failed to validate currency: %w", err)
		}
		if places := int32(currency.Precision); places < 2 && !req.Amount.Equal(req.Amount.Truncate(places)) {
			return nil, fmt.Errorf("%w: %s amounts allow at most %d decimal places", apperrors.ErrValidation, currencyCode, places)
		}
	}

	policy, participants, err := req.SplitPolicy()
	if err != nil {
		return nil, err
	}

	checkIDs := make([]string, 0, len(participants)+1)
	checkIDs = append(checkIDs, req.PayerID)
	checkIDs = append(checkIDs, participants...)
	if err := s.validator.ValidateParticipants(ctx, groupID, checkIDs); err != nil {
		s.LogError(ctx, err, "Expense participants rejected", slog.String("group_id", groupID))
		return nil, err
	}

	shares, err := accounting.Resolve(req.Amount, policy, participants)
	if err != nil {
		return nil, err
	}

	category := domain.ExpenseCategory(strings.ToUpper(string(req.Category)))
	if category == "" {
		category = domain.CategoryGeneral
	}

	now := time.Now().UTC()
	expense := domain.Expense{
		ExpenseID:    uuid.NewString(),
		GroupID:      groupID,
		PayerID:      req.PayerID,
		Description:  req.Description,
		Amount:       req.Amount,
		CurrencyCode: currencyCode,
		Category:     category,
		SplitType:    policy.Type(),
		AuditFields:  domain.NewAuditFields(creatorUserID, now),
	}
	expense.LineItems = make([]domain.SplitLineItem, len(shares))
	for i, share := range shares {
		expense.LineItems[i] = domain.SplitLineItem{
			LineItemID: uuid.NewString(),
			ExpenseID:  expense.ExpenseID,
			DebtorID:   share.ParticipantID,
			Amount:     share.Amount,
			PaidAmount: decimal.Zero,
			Version:    1,
		}
	}

	if err := s.expenseRepo.SaveExpense(ctx, expense); err != nil {
		s.LogError(ctx, err, "Failed to save expense", slog.String("group_id", groupID))
		return nil, fmt.Errorf("failed to create expense: %w", err)
	}
	s.invalidate(groupID)
	metrics.ObserveExpenseCreated()

	s.LogInfo(ctx, "Expense created successfully",
		slog.String("expense_id", expense.ExpenseID),
		slog.String("group_id", groupID),
		slog.String("split_type", string(expense.SplitType)),
		slog.Int("line_items", len(expense.LineItems)))
	return &expense, nil
}

// InvalidateExpense soft-deletes an expense. Only its payer or creator may do so,
// and only while none of its line items has recorded payments.
func (s *expenseService) InvalidateExpense(ctx context.Context, groupID, expenseID, requestingUserID string) (*domain.Expense, error) {
	if err := s.AuthorizeUser(ctx, requestingUserID, groupID, domain.RoleMember); err != nil {
		return nil, err
	}

	expense, err := s.findInGroup(ctx, groupID, expenseID)
	if err != nil {
		return nil, err
	}
	if requestingUserID != expense.PayerID && requestingUserID != expense.CreatedBy {
		return nil, fmt.Errorf("%w: only the payer or creator can invalidate an expense", apperrors.ErrForbidden)
	}
	if expense.IsInvalid {
		return nil, fmt.Errorf("%w: expense %s is already invalid", apperrors.ErrConflict, expenseID)
	}
	for _, li := range expense.LineItems {
		if li.PaidAmount.IsPositive() {
			return nil, fmt.Errorf("%w: expense %s has recorded payments", apperrors.ErrConflict, expenseID)
		}
	}

	now := time.Now().UTC()
	if err := s.expenseRepo.InvalidateExpense(ctx, expenseID, requestingUserID, now); err != nil {
		s.LogError(ctx, err, "Failed to invalidate expense", slog.String("expense_id", expenseID))
		return nil, fmt.Errorf("failed to invalidate expense: %w", err)
	}
	s.invalidate(groupID)

	expense.IsInvalid = true
	expense.InvalidatedAt = &now
	expense.InvalidatedBy = &requestingUserID
	expense.LastUpdatedAt = now
	expense.LastUpdatedBy = requestingUserID

	s.LogInfo(ctx, "Expense invalidated", slog.String("expense_id", expenseID), slog.String("group_id", groupID))
	return expense, nil
}

func (s *expenseService) GetExpense(ctx context.Context, groupID, expenseID, requestingUserID string) (*domain.Expense, error) {
	if err := s.AuthorizeUser(ctx, requestingUserID, groupID, domain.RoleReadOnly); err != nil {
		return nil, err
	}
	return s.findInGroup(ctx, groupID, expenseID)
}

// GetLedgerHistory returns one page of the group's expenses, newest first,
// with their line items and settlement records.
func (s *expenseService) GetLedgerHistory(ctx context.Context, groupID, requestingUserID string, params dto.ListExpensesParams) (*dto.LedgerHistoryResponse, error) {
	if err := s.AuthorizeUser(ctx, requestingUserID, groupID, domain.RoleReadOnly); err != nil {
		return nil, err
	}

	limit := params.Limit
	if limit <= 0 {
		limit = defaultLedgerPageSize
	}
	if params.NextToken != nil && *params.NextToken != "" {
		if _, _, err := pagination.DecodeToken(*params.NextToken); err != nil {
			return nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
		}
	} else {
		params.NextToken = nil
	}

	expenses, nextToken, err := s.expenseRepo.ListExpensesByGroup(ctx, groupID, params.IncludeInvalid, limit, params.NextToken)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}

	byExpense := map[string][]domain.SettlementRecord{}
	if s.settlementRepo != nil && len(expenses) > 0 {
		ids := make([]string, len(expenses))
		for i := range expenses {
			ids[i] = expenses[i].ExpenseID
		}
		records, err := s.settlementRepo.ListSettlementsByExpenseIDs(ctx, ids)
		if err != nil {
			return nil, fmt.Errorf("failed to list settlements: %w", err)
		}
		for _, r := range records {
			byExpense[r.ExpenseID] = append(byExpense[r.ExpenseID], r)
		}
	}

	resp := &dto.LedgerHistoryResponse{
		Expenses:  make([]dto.ExpenseResponse, len(expenses)),
		NextToken: nextToken,
	}
	for i := range expenses {
		er := dto.ToExpenseResponse(&expenses[i])
		for j := range byExpense[expenses[i].ExpenseID] {
			er.Settlements = append(er.Settlements, dto.ToSettlementRecordResponse(&byExpense[expenses[i].ExpenseID][j]))
		}
		resp.Expenses[i] = er
	}
	return resp, nil
}

func (s *expenseService) findInGroup(ctx context.Context, groupID, expenseID string) (*domain.Expense, error) {
	expense, err := s.expenseRepo.FindExpenseByID(ctx, expenseID)
	if err != nil {
		return nil, err
	}
	if expense.GroupID != groupID {
		return nil, apperrors.NewNotFoundError("expense " + expenseID)
	}
	return expense, nil
}

func (s *expenseService) invalidate(groupID string) {
	if s.cache != nil {
		s.cache.Invalidate(groupID)
	}
}
