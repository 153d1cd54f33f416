package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/mmynk/settleup/internal/errs"
	"github.com/mmynk/settleup/internal/models"
	"github.com/mmynk/settleup/internal/storage"
)

const allocationColumns = `id, group_id, expense_id, item_id, sender_id, receiver_id, share_amount, status, created_at`

func insertAllocations(ctx context.Context, q querier, expense *models.Expense, allocations []models.Allocation) error {
	now := time.Now().Unix()
	for i := range allocations {
		a := &allocations[i]
		if a.ID == "" {
			a.ID = uuid.New().String()
		}
		if a.CreatedAt == 0 {
			a.CreatedAt = now
		}
		if a.Status == "" {
			a.Status = models.StatusPending
		}
		a.ExpenseID = expense.ID
		a.GroupID = expense.GroupID

		var itemID *string
		if a.ItemID != "" {
			itemID = &a.ItemID
		}

		if _, err := q.Exec(ctx,
			`INSERT INTO allocations (`+allocationColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			a.ID, a.GroupID, a.ExpenseID, itemID, a.SenderID, a.ReceiverID,
			a.ShareAmount, string(a.Status), a.CreatedAt,
		); err != nil {
			return fmt.Errorf("failed to insert allocation: %w", err)
		}
	}
	return nil
}

func scanAllocation(row pgx.Row) (*models.Allocation, error) {
	a := &models.Allocation{}
	var itemID *string
	var status string
	if err := row.Scan(&a.ID, &a.GroupID, &a.ExpenseID, &itemID, &a.SenderID, &a.ReceiverID,
		&a.ShareAmount, &status, &a.CreatedAt); err != nil {
		return nil, err
	}
	if itemID != nil {
		a.ItemID = *itemID
	}
	a.Status = models.SettlementStatus(status)
	return a, nil
}

// SaveAllocations locks the expense row so two concurrent calls for the
// same expense cannot both insert.
func (s *PostgresStore) SaveAllocations(ctx context.Context, expenseID string, allocations []models.Allocation) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	expense := &models.Expense{ID: expenseID}
	err = tx.QueryRow(ctx,
		"SELECT group_id, allocations_created FROM expenses WHERE id = $1 FOR UPDATE", expenseID,
	).Scan(&expense.GroupID, &expense.AllocationsCreated)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("expense %s: %w", expenseID, errs.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to lock expense: %w", err)
	}
	if expense.AllocationsCreated {
		return storage.ErrAllocationsExist
	}

	if _, err := tx.Exec(ctx, "UPDATE expenses SET allocations_created = TRUE WHERE id = $1", expenseID); err != nil {
		return fmt.Errorf("failed to mark allocations created: %w", err)
	}

	if err := insertAllocations(ctx, tx, expense, allocations); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetAllocation(ctx context.Context, allocationID string) (*models.Allocation, error) {
	a, err := scanAllocation(s.pool.QueryRow(ctx,
		`SELECT `+allocationColumns+` FROM allocations WHERE id = $1`, allocationID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("allocation %s: %w", allocationID, errs.ErrNoSettlement)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get allocation: %w", err)
	}
	return a, nil
}

func (s *PostgresStore) ListAllocationsForUser(ctx context.Context, userID string) ([]*models.Allocation, error) {
	return s.listAllocations(ctx,
		`SELECT `+allocationColumns+` FROM allocations
		 WHERE sender_id = $1 OR receiver_id = $1
		 ORDER BY created_at DESC, seq DESC`, userID)
}

func (s *PostgresStore) ListAllocationsByExpense(ctx context.Context, expenseID string) ([]*models.Allocation, error) {
	return s.listAllocations(ctx,
		`SELECT `+allocationColumns+` FROM allocations WHERE expense_id = $1 ORDER BY seq`, expenseID)
}

func (s *PostgresStore) listAllocations(ctx context.Context, sql string, args ...any) ([]*models.Allocation, error) {
	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list allocations: %w", err)
	}
	allocations, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*models.Allocation, error) {
		return scanAllocation(row)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan allocations: %w", err)
	}
	return allocations, nil
}

// UpdateAllocationStatus takes a row lock before comparing the status, so
// the read and the write see the same row version.
func (s *PostgresStore) UpdateAllocationStatus(ctx context.Context, allocationID string, from, to models.SettlementStatus) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var current string
	err = tx.QueryRow(ctx, "SELECT status FROM allocations WHERE id = $1 FOR UPDATE", allocationID).Scan(&current)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("allocation %s: %w", allocationID, errs.ErrNoSettlement)
	}
	if err != nil {
		return fmt.Errorf("failed to lock allocation: %w", err)
	}
	if models.SettlementStatus(current) != from {
		return storage.ErrStatusConflict
	}

	if _, err := tx.Exec(ctx,
		"UPDATE allocations SET status = $1 WHERE id = $2 AND status = $3",
		string(to), allocationID, string(from),
	); err != nil {
		return fmt.Errorf("failed to update allocation status: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
