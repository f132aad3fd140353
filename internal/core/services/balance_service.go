package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/SscSPs/splitledger/internal/core/domain"
	portsrepo "github.com/SscSPs/splitledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/splitledger/internal/core/ports/services"
	"github.com/SscSPs/splitledger/internal/platform/metrics"
	"github.com/SscSPs/splitledger/internal/utils/accounting"
)

type balanceService struct {
	BaseService
	groupRepo   portsrepo.GroupReader
	directory   portssvc.MembershipDirectory
	expenseRepo portsrepo.ExpenseReader
	rateSource  portssvc.RateSource
	cache       *BalanceSnapshotCache
}

// NewBalanceService creates the balance aggregator. cache may be nil.
func NewBalanceService(
	groupRepo portsrepo.GroupReader,
	groups portssvc.GroupSvcFacade,
	expenseRepo portsrepo.ExpenseReader,
	rateSource portssvc.RateSource,
	cache *BalanceSnapshotCache,
) portssvc.BalanceSvc {
	return &balanceService{
		BaseService: BaseService{GroupAuthorizer: groups},
		groupRepo:   groupRepo,
		directory:   groups,
		expenseRepo: expenseRepo,
		rateSource:  rateSource,
		cache:       cache,
	}
}

// ComputeBalances returns the group's balances in its base currency. Results
// are served from the cache until the group's ledger changes.
func (s *balanceService) ComputeBalances(ctx context.Context, groupID, requestingUserID string) (*domain.GroupBalanceSnapshot, error) {
	if err := s.AuthorizeUser(ctx, requestingUserID, groupID, domain.RoleReadOnly); err != nil {
		return nil, err
	}

	if s.cache != nil {
		if snapshot, ok := s.cache.Get(groupID); ok {
			metrics.ObserveBalanceRequest(metrics.CacheHit)
			return snapshot, nil
		}
	}
	metrics.ObserveBalanceRequest(metrics.CacheMiss)

	var token CacheToken
	if s.cache != nil {
		token = s.cache.Token(groupID)
	}

	start := time.Now()
	snapshot, err := s.compute(ctx, groupID)
	if err != nil {
		s.LogError(ctx, err, "Failed to compute balances", slog.String("group_id", groupID))
		return nil, err
	}
	metrics.ObserveBalanceLatency(time.Since(start).Seconds())

	if s.cache != nil && !s.cache.Store(groupID, token, snapshot) {
		s.LogDebug(ctx, "Ledger changed during balance computation, not caching", slog.String("group_id", groupID))
	}
	return snapshot, nil
}

func (s *balanceService) compute(ctx context.Context, groupID string) (*domain.GroupBalanceSnapshot, error) {
	group, err := s.groupRepo.FindGroupByID(ctx, groupID)
	if err != nil {
		return nil, err
	}

	entries, err := s.expenseRepo.ListLedgerEntries(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to load ledger: %w", err)
	}

	current, err := s.directory.GetCurrentMembers(ctx, groupID)
	if err != nil {
		return nil, err
	}

	seen := map[string]struct{}{}
	codes := make([]string, 0, 4)
	for _, e := range entries {
		if _, ok := seen[e.CurrencyCode]; !ok {
			seen[e.CurrencyCode] = struct{}{}
			codes = append(codes, e.CurrencyCode)
		}
	}

	rates, err := BuildRateTable(ctx, s.rateSource, group.BaseCurrencyCode, codes)
	if err != nil {
		return nil, fmt.Errorf("failed to build rate table: %w", err)
	}

	return accounting.AggregateBalances(groupID, sortedKeys(current), entries, rates)
}
