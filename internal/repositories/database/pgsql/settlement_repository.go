package pgsql

import (
	"context"
	"errors"
	"fmt"

	"github.com/SscSPs/splitledger/internal/apperrors"
	"github.com/SscSPs/splitledger/internal/core/domain"
	portsrepo "github.com/SscSPs/splitledger/internal/core/ports/repositories"
	"github.com/SscSPs/splitledger/internal/models"
	"github.com/SscSPs/splitledger/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const settlementColumns = `settlement_id, line_item_id, expense_id, group_id, actor_id, method, amount,
	observed_version, idempotency_key, created_at`

// PgxSettlementRepository owns the only write path for line items after an expense is created.
type PgxSettlementRepository struct {
	BaseRepository
}

func newPgxSettlementRepository(pool *pgxpool.Pool) portsrepo.SettlementRepositoryFacade {
	return &PgxSettlementRepository{
		BaseRepository: BaseRepository{Pool: pool},
	}
}

var _ portsrepo.SettlementRepositoryFacade = (*PgxSettlementRepository)(nil)

func scanSettlement(row pgx.Row) (models.SettlementRecord, error) {
	var m models.SettlementRecord
	err := row.Scan(
		&m.SettlementID, &m.LineItemID, &m.ExpenseID, &m.GroupID, &m.ActorID, &m.Method,
		&m.Amount, &m.ObservedVersion, &m.IdempotencyKey, &m.CreatedAt,
	)
	return m, err
}

func (r *PgxSettlementRepository) FindLineItemByID(ctx context.Context, lineItemID string) (*domain.SplitLineItem, error) {
	m, err := scanLineItem(r.Pool.QueryRow(ctx,
		`SELECT `+lineItemColumns+` FROM split_line_items WHERE line_item_id = $1;`, lineItemID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("line item " + lineItemID)
		}
		return nil, apperrors.NewAppError(500, "failed to find line item", err)
	}
	li := mapping.ToDomainLineItem(m)
	return &li, nil
}

func (r *PgxSettlementRepository) ListUnsettledLineItemsByDebtor(ctx context.Context, groupID, debtorID string) ([]domain.SplitLineItem, error) {
	rows, err := r.Pool.Query(ctx, `
		SELECT li.line_item_id, li.expense_id, li.debtor_id, li.amount, li.paid_amount,
			li.is_settled, li.settled_at, li.settlement_method, li.version
		FROM split_line_items li
		JOIN expenses e ON e.expense_id = li.expense_id
		WHERE e.group_id = $1 AND NOT e.is_invalid
		  AND li.debtor_id = $2 AND NOT li.is_settled
		ORDER BY li.line_item_id;`, groupID, debtorID)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query unsettled line items", err)
	}
	defer rows.Close()

	ms, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.SplitLineItem, error) {
		return scanLineItem(row)
	})
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to scan unsettled line items", err)
	}
	return mapping.ToDomainLineItemSlice(ms), nil
}

func (r *PgxSettlementRepository) FindSettlementByIdempotencyKey(ctx context.Context, lineItemID, key string) (*domain.SettlementRecord, error) {
	m, err := scanSettlement(r.Pool.QueryRow(ctx, `
		SELECT `+settlementColumns+`
		FROM settlement_records
		WHERE line_item_id = $1 AND idempotency_key = $2;`, lineItemID, key))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("settlement for key " + key)
		}
		return nil, apperrors.NewAppError(500, "failed to find settlement", err)
	}
	rec := mapping.ToDomainSettlementRecord(m)
	return &rec, nil
}

func (r *PgxSettlementRepository) ListSettlementsByExpenseIDs(ctx context.Context, expenseIDs []string) ([]domain.SettlementRecord, error) {
	if len(expenseIDs) == 0 {
		return nil, nil
	}
	rows, err := r.Pool.Query(ctx, `
		SELECT `+settlementColumns+`
		FROM settlement_records
		WHERE expense_id = ANY($1)
		ORDER BY created_at, settlement_id;`, expenseIDs)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query settlements", err)
	}
	defer rows.Close()

	ms, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.SettlementRecord, error) {
		return scanSettlement(row)
	})
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to scan settlements", err)
	}

	out := make([]domain.SettlementRecord, len(ms))
	for i, m := range ms {
		out[i] = mapping.ToDomainSettlementRecord(m)
	}
	return out, nil
}

// ApplySettlement runs the version-checked update and the audit insert in one transaction.
// Zero updated rows on an existing item means another writer got there first. An
// invalidated expense hides its line items.
func (r *PgxSettlementRepository) ApplySettlement(ctx context.Context, update domain.LineItemUpdate, record domain.SettlementRecord) (*domain.SplitLineItem, error) {
	var method *string
	if update.Method != nil {
		s := string(*update.Method)
		method = &s
	}
	rec := mapping.ToModelSettlementRecord(record)

	var updated models.SplitLineItem
	err := r.inTx(ctx, func(tx pgx.Tx) error {
		// Shares the expense row lock taken by InvalidateExpense.
		var invalid bool
		err := tx.QueryRow(ctx, `
			SELECT e.is_invalid
			FROM expenses e JOIN split_line_items li ON li.expense_id = e.expense_id
			WHERE li.line_item_id = $1
			FOR SHARE OF e;`,
			update.LineItemID,
		).Scan(&invalid)
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFoundError("line item " + update.LineItemID)
		}
		if err != nil {
			return apperrors.NewAppError(500, "failed to lock expense", err)
		}
		if invalid {
			return apperrors.NewNotFoundError("line item " + update.LineItemID)
		}

		updated, err = scanLineItem(tx.QueryRow(ctx, `
			UPDATE split_line_items
			SET paid_amount = $3, is_settled = $4, settled_at = $5, settlement_method = $6,
				version = version + 1
			WHERE line_item_id = $1 AND version = $2 AND NOT is_settled
			RETURNING `+lineItemColumns+`;`,
			update.LineItemID, update.ExpectedVersion, update.PaidAmount, update.Settled, update.SettledAt, method,
		))
		if err != nil {
			if !errors.Is(err, pgx.ErrNoRows) {
				return apperrors.NewAppError(500, "failed to update line item", err)
			}
			var exists bool
			if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM split_line_items WHERE line_item_id = $1);`, update.LineItemID).Scan(&exists); err != nil {
				return apperrors.NewAppError(500, "failed to check line item", err)
			}
			if !exists {
				return apperrors.NewNotFoundError("line item " + update.LineItemID)
			}
			return fmt.Errorf("%w: line item %s", apperrors.ErrVersionConflict, update.LineItemID)
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO settlement_records (`+settlementColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10);`,
			rec.SettlementID, rec.LineItemID, rec.ExpenseID, rec.GroupID, rec.ActorID, rec.Method,
			rec.Amount, rec.ObservedVersion, rec.IdempotencyKey, rec.CreatedAt,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: settlement for line item %s", apperrors.ErrDuplicate, rec.LineItemID)
			}
			return apperrors.NewAppError(500, "failed to insert settlement record", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	li := mapping.ToDomainLineItem(updated)
	return &li, nil
}
