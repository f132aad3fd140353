package services

import (
	"time"

	portsrepo "github.com/SscSPs/splitledger/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/splitledger/internal/core/ports/services"
	"github.com/SscSPs/splitledger/internal/events"
	"github.com/SscSPs/splitledger/internal/platform/config"
	"github.com/SscSPs/splitledger/internal/utils/retry"
)

const writeOffRetryBackoff = 50 * time.Millisecond

// NewServiceContainer creates a new service container with properly initialized dependencies.
// rateSource may be nil, in which case rates come from the exchange rate service.
// When bus is non-nil the reconciler is subscribed to member removals.
func NewServiceContainer(cfg *config.Config, repos portsrepo.RepositoryProvider, bus *events.InMemoryBus, rateSource portssvc.RateSource) (*portssvc.ServiceContainer, error) {
	cache, err := NewBalanceSnapshotCache(cfg.BalanceCacheSize)
	if err != nil {
		return nil, err
	}

	container := &portssvc.ServiceContainer{}

	container.Currency = NewCurrencyService(repos.CurrencyRepo)
	container.ExchangeRate = NewExchangeRateService(repos.ExchangeRateRepo, container.Currency, cache)
	if rateSource == nil {
		rateSource = container.ExchangeRate
	}

	// Group service first since every other service authorizes through it
	groupOpts := []GroupServiceOption{
		WithGroupCurrencyRepository(repos.CurrencyRepo),
		WithDefaultBaseCurrency(cfg.BaseCurrency),
		WithGroupBalanceCache(cache),
	}
	if bus != nil {
		groupOpts = append(groupOpts, WithMemberEventPublisher(bus))
	}
	container.Group = NewGroupService(repos.GroupRepo, groupOpts...)

	container.Expense = NewExpenseService(
		repos.ExpenseRepo,
		NewParticipantValidator(container.Group),
		WithExpenseGroupAuthorizer(container.Group),
		WithExpenseCurrencyRepository(repos.CurrencyRepo),
		WithExpenseSettlementReader(repos.SettlementRepo),
		WithExpenseBalanceCache(cache),
	)
	container.Balance = NewBalanceService(repos.GroupRepo, container.Group, repos.ExpenseRepo, rateSource, cache)
	container.Settlement = NewSettlementService(repos.SettlementRepo, repos.ExpenseRepo, container.Group, cache)
	container.Reconciler = NewReconciliationService(
		repos.GroupRepo,
		repos.SettlementRepo,
		repos.ExpenseRepo,
		cache,
		retry.Policy{Attempts: cfg.SettleRetryAttempts, Backoff: writeOffRetryBackoff},
	)
	container.Export = NewLedgerExportService(repos.ExpenseRepo, container.Balance, container.Group)

	if bus != nil {
		bus.SubscribeMemberRemoved("reconciler", MemberRemovedHandler(container.Reconciler))
	}

	return container, nil
}

// Helper to check interface implementations at compile time
var (
	_ portssvc.CurrencySvcFacade     = (*currencyService)(nil)
	_ portssvc.ExchangeRateSvcFacade = (*exchangeRateService)(nil)
	_ portssvc.GroupSvcFacade        = (*groupService)(nil)
	_ portssvc.ExpenseSvcFacade      = (*expenseService)(nil)
	_ portssvc.BalanceSvc            = (*balanceService)(nil)
	_ portssvc.SettlementSvc         = (*settlementService)(nil)
	_ portssvc.ReconcilerSvc         = (*reconciliationService)(nil)
	_ portssvc.LedgerExportSvc       = (*exportService)(nil)
)
