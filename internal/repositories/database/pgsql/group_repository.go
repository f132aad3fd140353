package pgsql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/SscSPs/splitledger/internal/apperrors"
	"github.com/SscSPs/splitledger/internal/core/domain"
	portsrepo "github.com/SscSPs/splitledger/internal/core/ports/repositories"
	"github.com/SscSPs/splitledger/internal/models"
	"github.com/SscSPs/splitledger/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const memberColumns = `group_id, user_id, role, reconciliation_state, joined_at, removed_at, resolved_at`

// PgxGroupRepository implements the group repository port using pgxpool.
type PgxGroupRepository struct {
	BaseRepository
}

func newPgxGroupRepository(pool *pgxpool.Pool) portsrepo.GroupRepositoryFacade {
	return &PgxGroupRepository{
		BaseRepository: BaseRepository{Pool: pool},
	}
}

var _ portsrepo.GroupRepositoryFacade = (*PgxGroupRepository)(nil)

func scanMember(row pgx.Row) (models.GroupMember, error) {
	var m models.GroupMember
	err := row.Scan(
		&m.GroupID, &m.UserID, &m.Role, &m.ReconciliationState,
		&m.JoinedAt, &m.RemovedAt, &m.ResolvedAt,
	)
	return m, err
}

func insertMember(ctx context.Context, q execer, m models.GroupMember) error {
	_, err := q.Exec(ctx, `
		INSERT INTO group_members (`+memberColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (group_id, user_id) DO UPDATE SET
			role = EXCLUDED.role,
			reconciliation_state = EXCLUDED.reconciliation_state,
			joined_at = EXCLUDED.joined_at,
			removed_at = EXCLUDED.removed_at,
			resolved_at = EXCLUDED.resolved_at;`,
		m.GroupID, m.UserID, m.Role, m.ReconciliationState, m.JoinedAt, m.RemovedAt, m.ResolvedAt,
	)
	return err
}

// SaveGroup inserts the group and its founding member in one transaction.
func (r *PgxGroupRepository) SaveGroup(ctx context.Context, group domain.Group, founder domain.GroupMember) error {
	g := mapping.ToModelGroup(group)
	founderModel := mapping.ToModelGroupMember(founder)

	return r.inTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO groups (group_id, name, description, base_currency_code,
				created_at, created_by, last_updated_at, last_updated_by)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8);`,
			g.GroupID, g.Name, g.Description, g.BaseCurrencyCode,
			g.CreatedAt, g.CreatedBy, g.LastUpdatedAt, g.LastUpdatedBy,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: group %s", apperrors.ErrDuplicate, g.GroupID)
			}
			return apperrors.NewAppError(500, "failed to insert group", err)
		}
		if err := insertMember(ctx, tx, founderModel); err != nil {
			return apperrors.NewAppError(500, "failed to insert founding member", err)
		}
		return nil
	})
}

// FindGroupByID retrieves a group by its id.
func (r *PgxGroupRepository) FindGroupByID(ctx context.Context, groupID string) (*domain.Group, error) {
	var g models.Group
	err := r.Pool.QueryRow(ctx, `
		SELECT group_id, name, description, base_currency_code,
			created_at, created_by, last_updated_at, last_updated_by
		FROM groups WHERE group_id = $1;`, groupID,
	).Scan(
		&g.GroupID, &g.Name, &g.Description, &g.BaseCurrencyCode,
		&g.CreatedAt, &g.CreatedBy, &g.LastUpdatedAt, &g.LastUpdatedBy,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("group " + groupID)
		}
		return nil, apperrors.NewAppError(500, "failed to find group", err)
	}
	d := mapping.ToDomainGroup(g)
	return &d, nil
}

// SaveMember inserts a membership or overwrites a previous one.
func (r *PgxGroupRepository) SaveMember(ctx context.Context, member domain.GroupMember) error {
	var exists bool
	if err := r.Pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM groups WHERE group_id = $1);`, member.GroupID).Scan(&exists); err != nil {
		return apperrors.NewAppError(500, "failed to check group", err)
	}
	if !exists {
		return apperrors.NewNotFoundError("group " + member.GroupID)
	}
	if err := insertMember(ctx, r.Pool, mapping.ToModelGroupMember(member)); err != nil {
		return apperrors.NewAppError(500, "failed to save member", err)
	}
	return nil
}

func (r *PgxGroupRepository) FindMember(ctx context.Context, groupID, userID string) (*domain.GroupMember, error) {
	m, err := scanMember(r.Pool.QueryRow(ctx,
		`SELECT `+memberColumns+` FROM group_members WHERE group_id = $1 AND user_id = $2;`,
		groupID, userID,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("member " + userID)
		}
		return nil, apperrors.NewAppError(500, "failed to find member", err)
	}
	d := mapping.ToDomainGroupMember(m)
	return &d, nil
}

func (r *PgxGroupRepository) ListMembers(ctx context.Context, groupID string, includeRemoved bool) ([]domain.GroupMember, error) {
	rows, err := r.Pool.Query(ctx, `
		SELECT `+memberColumns+`
		FROM group_members
		WHERE group_id = $1 AND ($2::boolean OR role <> $3)
		ORDER BY joined_at, user_id;`,
		groupID, includeRemoved, string(domain.RoleRemoved),
	)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to list members", err)
	}
	defer rows.Close()

	ms, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.GroupMember, error) {
		return scanMember(row)
	})
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to scan members", err)
	}
	return mapping.ToDomainGroupMemberSlice(ms), nil
}

// MarkMemberRemoved flags a current member as removed and pending reconciliation.
func (r *PgxGroupRepository) MarkMemberRemoved(ctx context.Context, groupID, userID string, at time.Time) error {
	tag, err := r.Pool.Exec(ctx, `
		UPDATE group_members
		SET role = $3, reconciliation_state = $4, removed_at = $5, resolved_at = NULL
		WHERE group_id = $1 AND user_id = $2 AND role <> $3;`,
		groupID, userID, string(domain.RoleRemoved), string(domain.ReconciliationPending), at,
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to remove member", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NewNotFoundError("member " + userID)
	}
	return nil
}

// UpdateReconciliationState is a compare-and-set on the reconciliation state.
func (r *PgxGroupRepository) UpdateReconciliationState(ctx context.Context, groupID, userID string, from, to domain.ReconciliationState, at time.Time) error {
	var resolvedAt *time.Time
	if to == domain.ReconciliationDone {
		resolvedAt = &at
	}
	tag, err := r.Pool.Exec(ctx, `
		UPDATE group_members
		SET reconciliation_state = $4, resolved_at = COALESCE($5, resolved_at)
		WHERE group_id = $1 AND user_id = $2 AND reconciliation_state = $3;`,
		groupID, userID, string(from), string(to), resolvedAt,
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to update reconciliation state", err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	current, err := r.FindMember(ctx, groupID, userID)
	if err != nil {
		return err
	}
	return fmt.Errorf("%w: member %s is %s, not %s", apperrors.ErrConflict, userID, current.ReconciliationState, from)
}
