package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/settleup/internal/errs"
	"github.com/mmynk/settleup/internal/models"
	"github.com/mmynk/settleup/internal/storage"
)

const allocationColumns = `id, group_id, expense_id, item_id, sender_id, receiver_id, share_amount, status, created_at`

// insertAllocations writes allocations for expense inside tx, filling IDs,
// references and timestamps.
func insertAllocations(ctx context.Context, tx queryer, expense *models.Expense, allocations []models.Allocation) error {
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

		var itemID any
		if a.ItemID != "" {
			itemID = a.ItemID
		}

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO allocations (`+allocationColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			a.ID, a.GroupID, a.ExpenseID, itemID, a.SenderID, a.ReceiverID,
			a.ShareAmount, string(a.Status), a.CreatedAt,
		); err != nil {
			return fmt.Errorf("failed to insert allocation: %w", err)
		}
	}
	return nil
}

func scanAllocation(row interface{ Scan(...any) error }) (*models.Allocation, error) {
	a := &models.Allocation{}
	var itemID sql.NullString
	var status string
	if err := row.Scan(&a.ID, &a.GroupID, &a.ExpenseID, &itemID, &a.SenderID, &a.ReceiverID,
		&a.ShareAmount, &status, &a.CreatedAt); err != nil {
		return nil, err
	}
	if itemID.Valid {
		a.ItemID = itemID.String
	}
	a.Status = models.SettlementStatus(status)
	return a, nil
}

// SaveAllocations persists the allocation set of an existing expense.
func (s *SQLiteStore) SaveAllocations(ctx context.Context, expenseID string, allocations []models.Allocation) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	expense := &models.Expense{ID: expenseID}
	err = tx.QueryRowContext(ctx,
		"SELECT group_id, allocations_created FROM expenses WHERE id = ?", expenseID,
	).Scan(&expense.GroupID, &expense.AllocationsCreated)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("expense %s: %w", expenseID, errs.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to get expense: %w", err)
	}
	if expense.AllocationsCreated {
		return storage.ErrAllocationsExist
	}

	// The flag flips even for an empty set so a second call is rejected.
	res, err := tx.ExecContext(ctx,
		"UPDATE expenses SET allocations_created = 1 WHERE id = ? AND allocations_created = 0", expenseID)
	if err != nil {
		return fmt.Errorf("failed to mark allocations created: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to mark allocations created: %w", err)
	}
	if n == 0 {
		return storage.ErrAllocationsExist
	}

	if err := insertAllocations(ctx, tx, expense, allocations); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetAllocation retrieves an allocation by ID.
func (s *SQLiteStore) GetAllocation(ctx context.Context, allocationID string) (*models.Allocation, error) {
	a, err := scanAllocation(s.db.QueryRowContext(ctx,
		`SELECT `+allocationColumns+` FROM allocations WHERE id = ?`, allocationID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("allocation %s: %w", allocationID, errs.ErrNoSettlement)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get allocation: %w", err)
	}
	return a, nil
}

// ListAllocationsForUser retrieves allocations where the user is sender or receiver.
func (s *SQLiteStore) ListAllocationsForUser(ctx context.Context, userID string) ([]*models.Allocation, error) {
	return s.listAllocations(ctx,
		`SELECT `+allocationColumns+` FROM allocations
		 WHERE sender_id = ? OR receiver_id = ?
		 ORDER BY created_at DESC, id`, userID, userID)
}

// ListAllocationsByExpense retrieves the allocations of one expense.
func (s *SQLiteStore) ListAllocationsByExpense(ctx context.Context, expenseID string) ([]*models.Allocation, error) {
	return s.listAllocations(ctx,
		`SELECT `+allocationColumns+` FROM allocations WHERE expense_id = ? ORDER BY rowid`, expenseID)
}

func (s *SQLiteStore) listAllocations(ctx context.Context, query string, args ...any) ([]*models.Allocation, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list allocations: %w", err)
	}
	defer rows.Close()

	var allocations []*models.Allocation
	for rows.Next() {
		a, err := scanAllocation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan allocation: %w", err)
		}
		allocations = append(allocations, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate allocations: %w", err)
	}
	return allocations, nil
}

// UpdateAllocationStatus moves an allocation from one status to another.
// The guard and the write are a single statement, so two concurrent
// transitions from the same status cannot both succeed.
func (s *SQLiteStore) UpdateAllocationStatus(ctx context.Context, allocationID string, from, to models.SettlementStatus) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE allocations SET status = ? WHERE id = ? AND status = ?",
		string(to), allocationID, string(from),
	)
	if err != nil {
		return fmt.Errorf("failed to update allocation status: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 1 {
		return nil
	}

	if _, err := s.GetAllocation(ctx, allocationID); err != nil {
		return err
	}
	return storage.ErrStatusConflict
}
