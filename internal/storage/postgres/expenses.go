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
)

func (s *PostgresStore) CreateExpense(ctx context.Context, expense *models.Expense, allocations []models.Allocation) error {
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

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`INSERT INTO expenses (id, group_id, payer_id, title, total, spent_at, settlement_type, created_at, allocations_created)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		expense.ID, expense.GroupID, expense.PayerID, expense.Title, expense.Total,
		expense.SpentAt, string(expense.Type), expense.CreatedAt, expense.AllocationsCreated,
	); err != nil {
		return fmt.Errorf("failed to insert expense: %w", err)
	}

	batch := &pgx.Batch{}
	for i, userID := range expense.Participants {
		batch.Queue("INSERT INTO expense_participants (expense_id, user_id, position) VALUES ($1, $2, $3)",
			expense.ID, userID, i)
	}
	for i := range expense.Items {
		item := &expense.Items[i]
		if item.ID == "" {
			item.ID = uuid.New().String()
		}
		batch.Queue("INSERT INTO expense_items (id, expense_id, name, price, position) VALUES ($1, $2, $3, $4, $5)",
			item.ID, expense.ID, item.Name, item.Price, i)
		for j, userID := range item.Participants {
			batch.Queue("INSERT INTO expense_item_participants (item_id, user_id, position) VALUES ($1, $2, $3)",
				item.ID, userID, j)
		}
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to insert expense details: %w", err)
	}

	if err := insertAllocations(ctx, tx, expense, allocations); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetExpense(ctx context.Context, expenseID string) (*models.Expense, error) {
	expense := &models.Expense{}
	var settlementType string
	err := s.pool.QueryRow(ctx,
		`SELECT id, group_id, payer_id, title, total, spent_at, settlement_type, created_at, allocations_created
		 FROM expenses WHERE id = $1`, expenseID,
	).Scan(&expense.ID, &expense.GroupID, &expense.PayerID, &expense.Title, &expense.Total,
		&expense.SpentAt, &settlementType, &expense.CreatedAt, &expense.AllocationsCreated)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("expense %s: %w", expenseID, errs.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}
	expense.Type = models.SettlementType(settlementType)

	expense.Participants, err = queryStrings(ctx, s.pool,
		"SELECT user_id FROM expense_participants WHERE expense_id = $1 ORDER BY position", expenseID)
	if err != nil {
		return nil, fmt.Errorf("failed to get participants: %w", err)
	}

	rows, err := s.pool.Query(ctx,
		"SELECT id, name, price FROM expense_items WHERE expense_id = $1 ORDER BY position", expenseID)
	if err != nil {
		return nil, fmt.Errorf("failed to get items: %w", err)
	}
	expense.Items, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.ExpenseItem, error) {
		var item models.ExpenseItem
		err := row.Scan(&item.ID, &item.Name, &item.Price)
		return item, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan items: %w", err)
	}

	for i := range expense.Items {
		expense.Items[i].Participants, err = queryStrings(ctx, s.pool,
			"SELECT user_id FROM expense_item_participants WHERE item_id = $1 ORDER BY position",
			expense.Items[i].ID)
		if err != nil {
			return nil, fmt.Errorf("failed to get item participants: %w", err)
		}
	}
	return expense, nil
}

func (s *PostgresStore) ListExpensesByGroup(ctx context.Context, groupID string) ([]*models.Expense, error) {
	ids, err := queryStrings(ctx, s.pool,
		"SELECT id FROM expenses WHERE group_id = $1 ORDER BY spent_at DESC, created_at DESC", groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
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

func (s *PostgresStore) GroupTotal(ctx context.Context, groupID string) (int64, error) {
	var total int64
	err := s.pool.QueryRow(ctx,
		"SELECT COALESCE(SUM(total), 0)::BIGINT FROM expenses WHERE group_id = $1", groupID,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to sum group expenses: %w", err)
	}
	return total, nil
}
