package pgsql

import (
	portsrepo "github.com/SscSPs/splitledger/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5/pgxpool"
)

// NewRepositoryProvider wires every Postgres-backed repository onto one pool.
func NewRepositoryProvider(dbPool *pgxpool.Pool) portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		CurrencyRepo:     newPgxCurrencyRepository(dbPool),
		ExchangeRateRepo: newPgxExchangeRateRepository(dbPool),
		GroupRepo:        newPgxGroupRepository(dbPool),
		ExpenseRepo:      newPgxExpenseRepository(dbPool),
		SettlementRepo:   newPgxSettlementRepository(dbPool),
	}
}
