package pgsql

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/SscSPs/splitledger/internal/apperrors"
	"github.com/SscSPs/splitledger/internal/core/domain"
	portsrepo "github.com/SscSPs/splitledger/internal/core/ports/repositories"
	"github.com/SscSPs/splitledger/internal/models"
	"github.com/SscSPs/splitledger/internal/utils/mapping"
	"github.com/SscSPs/splitledger/internal/utils/pagination"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	expenseColumns = `expense_id, group_id, payer_id, description, amount, currency_code, category, split_type,
		is_invalid, invalidated_at, invalidated_by, created_at, created_by, last_updated_at, last_updated_by`
	lineItemColumns = `line_item_id, expense_id, debtor_id, amount, paid_amount, is_settled, settled_at, settlement_method, version`
)

// PgxExpenseRepository implements the expense repository port using pgxpool.
type PgxExpenseRepository struct {
	BaseRepository
}

func newPgxExpenseRepository(pool *pgxpool.Pool) portsrepo.ExpenseRepositoryFacade {
	return &PgxExpenseRepository{
		BaseRepository: BaseRepository{Pool: pool},
	}
}

var _ portsrepo.ExpenseRepositoryFacade = (*PgxExpenseRepository)(nil)

func scanExpense(row pgx.Row) (models.Expense, error) {
	var m models.Expense
	err := row.Scan(
		&m.ExpenseID, &m.GroupID, &m.PayerID, &m.Description, &m.Amount, &m.CurrencyCode,
		&m.Category, &m.SplitType, &m.IsInvalid, &m.InvalidatedAt, &m.InvalidatedBy,
		&m.CreatedAt, &m.CreatedBy, &m.LastUpdatedAt, &m.LastUpdatedBy,
	)
	return m, err
}

func scanLineItem(row pgx.Row) (models.SplitLineItem, error) {
	var m models.SplitLineItem
	err := row.Scan(
		&m.LineItemID, &m.ExpenseID, &m.DebtorID, &m.Amount, &m.PaidAmount,
		&m.IsSettled, &m.SettledAt, &m.SettlementMethod, &m.Version,
	)
	return m, err
}

// SaveExpense inserts the expense header and all of its line items in one transaction.
func (r *PgxExpenseRepository) SaveExpense(ctx context.Context, expense domain.Expense) error {
	e := mapping.ToModelExpense(expense)

	return r.inTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO expenses (`+expenseColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15);`,
			e.ExpenseID, e.GroupID, e.PayerID, e.Description, e.Amount, e.CurrencyCode,
			e.Category, e.SplitType, e.IsInvalid, e.InvalidatedAt, e.InvalidatedBy,
			e.CreatedAt, e.CreatedBy, e.LastUpdatedAt, e.LastUpdatedBy,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: expense %s", apperrors.ErrDuplicate, e.ExpenseID)
			}
			return apperrors.NewAppError(500, "failed to insert expense", err)
		}

		batch := &pgx.Batch{}
		for _, li := range expense.LineItems {
			m := mapping.ToModelLineItem(li)
			batch.Queue(`
				INSERT INTO split_line_items (`+lineItemColumns+`)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9);`,
				m.LineItemID, e.ExpenseID, m.DebtorID, m.Amount, m.PaidAmount,
				m.IsSettled, m.SettledAt, m.SettlementMethod, m.Version,
			)
		}

		br := tx.SendBatch(ctx, batch)
		if err := br.Close(); err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: line item of expense %s", apperrors.ErrDuplicate, e.ExpenseID)
			}
			return apperrors.NewAppError(500, "failed to insert line items", err)
		}
		return nil
	})
}

// FindExpenseByID retrieves an expense and its line items.
func (r *PgxExpenseRepository) FindExpenseByID(ctx context.Context, expenseID string) (*domain.Expense, error) {
	m, err := scanExpense(r.Pool.QueryRow(ctx,
		`SELECT `+expenseColumns+` FROM expenses WHERE expense_id = $1;`, expenseID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("expense " + expenseID)
		}
		return nil, apperrors.NewAppError(500, "failed to find expense", err)
	}

	expenses, err := r.attachLineItems(ctx, []models.Expense{m})
	if err != nil {
		return nil, err
	}
	return &expenses[0], nil
}

// ListExpensesByGroup pages through a group's expenses ordered by (created_at, expense_id) descending.
func (r *PgxExpenseRepository) ListExpensesByGroup(ctx context.Context, groupID string, includeInvalid bool, limit int, nextToken *string) ([]domain.Expense, *string, error) {
	query := `SELECT ` + expenseColumns + ` FROM expenses WHERE group_id = $1`
	args := []any{groupID}
	if !includeInvalid {
		query += ` AND NOT is_invalid`
	}

	if nextToken != nil && *nextToken != "" {
		lastCreatedAt, lastID, err := pagination.DecodeToken(*nextToken)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
		}
		query += ` AND (created_at, expense_id) < ($2, $3)`
		args = append(args, lastCreatedAt, lastID)
	}

	query += ` ORDER BY created_at DESC, expense_id DESC`
	if limit > 0 {
		args = append(args, limit+1)
		query += ` LIMIT $` + strconv.Itoa(len(args))
	}

	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, apperrors.NewAppError(500, "failed to query expenses for group "+groupID, err)
	}
	defer rows.Close()

	ms, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Expense, error) {
		return scanExpense(row)
	})
	if err != nil {
		return nil, nil, apperrors.NewAppError(500, "failed to scan expenses for group "+groupID, err)
	}

	var token *string
	if limit > 0 && len(ms) > limit {
		ms = ms[:limit]
		last := ms[limit-1]
		t := pagination.EncodeToken(last.CreatedAt, last.ExpenseID)
		token = &t
	}

	expenses, err := r.attachLineItems(ctx, ms)
	if err != nil {
		return nil, nil, err
	}
	return expenses, token, nil
}

// attachLineItems loads the line items of every expense in one round trip.
func (r *PgxExpenseRepository) attachLineItems(ctx context.Context, ms []models.Expense) ([]domain.Expense, error) {
	out := make([]domain.Expense, len(ms))
	if len(ms) == 0 {
		return out, nil
	}

	ids := make([]string, len(ms))
	for i, m := range ms {
		ids[i] = m.ExpenseID
	}

	rows, err := r.Pool.Query(ctx, `
		SELECT `+lineItemColumns+`
		FROM split_line_items
		WHERE expense_id = ANY($1)
		ORDER BY expense_id, debtor_id;`, ids)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query line items", err)
	}
	defer rows.Close()

	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.SplitLineItem, error) {
		return scanLineItem(row)
	})
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to scan line items", err)
	}

	byExpense := make(map[string][]models.SplitLineItem, len(ms))
	for _, li := range items {
		byExpense[li.ExpenseID] = append(byExpense[li.ExpenseID], li)
	}
	for i, m := range ms {
		out[i] = mapping.ToDomainExpense(m)
		out[i].LineItems = mapping.ToDomainLineItemSlice(byExpense[m.ExpenseID])
	}
	return out, nil
}

// ListLedgerEntries returns the line items of valid expenses, oldest expense first.
func (r *PgxExpenseRepository) ListLedgerEntries(ctx context.Context, groupID string) ([]domain.LedgerEntry, error) {
	rows, err := r.Pool.Query(ctx, `
		SELECT li.line_item_id, li.expense_id, li.debtor_id, li.amount, li.paid_amount,
			li.is_settled, li.settled_at, li.settlement_method, li.version,
			e.group_id, e.payer_id, e.currency_code
		FROM split_line_items li
		JOIN expenses e ON e.expense_id = li.expense_id
		WHERE e.group_id = $1 AND NOT e.is_invalid
		ORDER BY e.created_at, e.expense_id, li.debtor_id;`, groupID)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query ledger for group "+groupID, err)
	}
	defer rows.Close()

	entries, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.LedgerEntry, error) {
		var (
			li    models.SplitLineItem
			entry domain.LedgerEntry
		)
		err := row.Scan(
			&li.LineItemID, &li.ExpenseID, &li.DebtorID, &li.Amount, &li.PaidAmount,
			&li.IsSettled, &li.SettledAt, &li.SettlementMethod, &li.Version,
			&entry.GroupID, &entry.PayerID, &entry.CurrencyCode,
		)
		entry.SplitLineItem = mapping.ToDomainLineItem(li)
		return entry, err
	})
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to scan ledger for group "+groupID, err)
	}
	return entries, nil
}

// InvalidateExpense flips is_invalid once, and only while no line item carries a
// payment. The expense row lock orders it against ApplySettlement.
func (r *PgxExpenseRepository) InvalidateExpense(ctx context.Context, expenseID, userID string, at time.Time) error {
	return r.inTx(ctx, func(tx pgx.Tx) error {
		var invalid bool
		err := tx.QueryRow(ctx, `SELECT is_invalid FROM expenses WHERE expense_id = $1 FOR UPDATE;`, expenseID).Scan(&invalid)
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFoundError("expense " + expenseID)
		}
		if err != nil {
			return apperrors.NewAppError(500, "failed to lock expense", err)
		}
		if invalid {
			return fmt.Errorf("%w: expense %s is already invalid", apperrors.ErrConflict, expenseID)
		}

		var paid bool
		if err := tx.QueryRow(ctx, `
			SELECT EXISTS (SELECT 1 FROM split_line_items WHERE expense_id = $1 AND paid_amount > 0);`,
			expenseID,
		).Scan(&paid); err != nil {
			return apperrors.NewAppError(500, "failed to check payments", err)
		}
		if paid {
			return fmt.Errorf("%w: expense %s has recorded payments", apperrors.ErrConflict, expenseID)
		}

		_, err = tx.Exec(ctx, `
			UPDATE expenses
			SET is_invalid = TRUE, invalidated_at = $2, invalidated_by = $3,
				last_updated_at = $2, last_updated_by = $3
			WHERE expense_id = $1;`,
			expenseID, at, userID,
		)
		if err != nil {
			return apperrors.NewAppError(500, "failed to invalidate expense", err)
		}
		return nil
	})
}
