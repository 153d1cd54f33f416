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
)

// CreateExpense persists an expense, its participants, items and allocations
// in one transaction.
func (s *SQLiteStore) CreateExpense(ctx context.Context, expense *models.Expense, allocations []models.Allocation) error {
	if expense.ID == "" {
		expense.ID = uuid.New().String()
	}
	if expense.CreatedAt == 0 {
		expense.CreatedAt = time.Now().Unix()
	}
	if expense.SpentAt == 0 {
		expense.SpentAt = expense.CreatedAt
	}
	if len(allocations) > 0 {
		expense.AllocationsCreated = true
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO expenses (id, group_id, payer_id, title, total, spent_at, settlement_type, created_at, allocations_created)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		expense.ID, expense.GroupID, expense.PayerID, expense.Title, expense.Total,
		expense.SpentAt, string(expense.Type), expense.CreatedAt, expense.AllocationsCreated,
	); err != nil {
		return fmt.Errorf("failed to insert expense: %w", err)
	}

	for i, userID := range expense.Participants {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO expense_participants (expense_id, user_id, position) VALUES (?, ?, ?)",
			expense.ID, userID, i,
		); err != nil {
			return fmt.Errorf("failed to insert participant: %w", err)
		}
	}

	for i := range expense.Items {
		item := &expense.Items[i]
		if item.ID == "" {
			item.ID = uuid.New().String()
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO expense_items (id, expense_id, name, price, position) VALUES (?, ?, ?, ?, ?)",
			item.ID, expense.ID, item.Name, item.Price, i,
		); err != nil {
			return fmt.Errorf("failed to insert item: %w", err)
		}
		for j, userID := range item.Participants {
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO expense_item_participants (item_id, user_id, position) VALUES (?, ?, ?)",
				item.ID, userID, j,
			); err != nil {
				return fmt.Errorf("failed to insert item participant: %w", err)
			}
		}
	}

	if err := insertAllocations(ctx, tx, expense, allocations); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetExpense retrieves an expense by ID, including participants and items.
func (s *SQLiteStore) GetExpense(ctx context.Context, expenseID string) (*models.Expense, error) {
	expense := &models.Expense{}
	var settlementType string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, group_id, payer_id, title, total, spent_at, settlement_type, created_at, allocations_created
		 FROM expenses WHERE id = ?`, expenseID,
	).Scan(&expense.ID, &expense.GroupID, &expense.PayerID, &expense.Title, &expense.Total,
		&expense.SpentAt, &settlementType, &expense.CreatedAt, &expense.AllocationsCreated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("expense %s: %w", expenseID, errs.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}
	expense.Type = models.SettlementType(settlementType)

	rows, err := s.db.QueryContext(ctx,
		"SELECT user_id FROM expense_participants WHERE expense_id = ? ORDER BY position", expenseID)
	if err != nil {
		return nil, fmt.Errorf("failed to get participants: %w", err)
	}
	if expense.Participants, err = scanStrings(rows); err != nil {
		return nil, fmt.Errorf("failed to scan participants: %w", err)
	}

	// Read all items before querying their participants.
	itemRows, err := s.db.QueryContext(ctx,
		"SELECT id, name, price FROM expense_items WHERE expense_id = ? ORDER BY position", expenseID)
	if err != nil {
		return nil, fmt.Errorf("failed to get items: %w", err)
	}
	for itemRows.Next() {
		var item models.ExpenseItem
		if err := itemRows.Scan(&item.ID, &item.Name, &item.Price); err != nil {
			itemRows.Close()
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		expense.Items = append(expense.Items, item)
	}
	itemRows.Close()
	if err := itemRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate items: %w", err)
	}

	for i := range expense.Items {
		rows, err := s.db.QueryContext(ctx,
			"SELECT user_id FROM expense_item_participants WHERE item_id = ? ORDER BY position",
			expense.Items[i].ID)
		if err != nil {
			return nil, fmt.Errorf("failed to get item participants: %w", err)
		}
		if expense.Items[i].Participants, err = scanStrings(rows); err != nil {
			return nil, fmt.Errorf("failed to scan item participants: %w", err)
		}
	}

	return expense, nil
}

// ListExpensesByGroup retrieves all expenses of a group, newest first.
func (s *SQLiteStore) ListExpensesByGroup(ctx context.Context, groupID string) ([]*models.Expense, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id FROM expenses WHERE group_id = ? ORDER BY spent_at DESC, created_at DESC", groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	ids, err := scanStrings(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to scan expenses: %w", err)
	}

	expenses := make([]*models.Expense, 0, len(ids))
	for _, id := range ids {
		expense, err := s.GetExpense(ctx, id)
		if err != nil {
			return nil, err
		}
		expenses = append(expenses, expense)
	}
	return expenses, nil
}

// GroupTotal returns the sum of all expense totals of a group.
func (s *SQLiteStore) GroupTotal(ctx context.Context, groupID string) (int64, error) {
	var total int64
	err := s.db.QueryRowContext(ctx,
		"SELECT COALESCE(SUM(total), 0) FROM expenses WHERE group_id = ?", groupID,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to sum group expenses: %w", err)
	}
	return total, nil
}
