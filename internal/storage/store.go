// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"fmt"

	"github.com/mmynk/settleup/internal/errs"
	"github.com/mmynk/settleup/internal/models"
)

var (
	// ErrStatusConflict is returned when an allocation's status changed
	// between the guard check and the write.
	ErrStatusConflict = fmt.Errorf("%w: allocation status changed concurrently", errs.ErrInvalidStateTransition)

	// ErrAllocationsExist is returned when allocations were already created
	// for an expense.
	ErrAllocationsExist = fmt.Errorf("%w: allocations already exist for expense", errs.ErrInvalidStateTransition)
)

// UserStore persists user accounts.
type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error

	// GetUserByEmail and GetUserByID return nil, nil when the user does not exist.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)

	// GetUsersByIDs returns the users that exist, keyed by ID.
	GetUsersByIDs(ctx context.Context, ids []string) (map[string]*models.User, error)

	// UpdateUserProfile updates display name, pay suffix and messenger token.
	UpdateUserProfile(ctx context.Context, user *models.User) error
}

// GroupStore persists groups and their membership.
type GroupStore interface {
	// CreateGroup persists a new group with its initial members.
	// The group.ID and CreatedAt fields are populated by the store if empty.
	CreateGroup(ctx context.Context, group *models.Group) error

	// GetGroup retrieves a group with its members. Wraps errs.ErrNotFound.
	GetGroup(ctx context.Context, groupID string) (*models.Group, error)

	// AddGroupMember adds userID to the group. Adding an existing member is a no-op.
	AddGroupMember(ctx context.Context, groupID, userID string) error

	// ListGroupsForUser returns the groups userID belongs to.
	ListGroupsForUser(ctx context.Context, userID string) ([]*models.Group, error)
}

// ExpenseStore persists expenses.
type ExpenseStore interface {
	// CreateExpense persists an expense together with its allocations in a
	// single transaction: either everything is written or nothing is.
	// IDs and timestamps are populated by the store if empty. The expense is
	// marked as allocated when AllocationsCreated is set or allocations is
	// non-empty.
	CreateExpense(ctx context.Context, expense *models.Expense, allocations []models.Allocation) error

	// GetExpense retrieves an expense with participants and items, in recorded
	// order. Wraps errs.ErrNotFound.
	GetExpense(ctx context.Context, expenseID string) (*models.Expense, error)

	// ListExpensesByGroup returns a group's expenses, newest first.
	ListExpensesByGroup(ctx context.Context, groupID string) ([]*models.Expense, error)

	// GroupTotal sums the totals of a group's expenses.
	GroupTotal(ctx context.Context, groupID string) (int64, error)
}

// AllocationStore persists allocations.
type AllocationStore interface {
	// SaveAllocations persists the allocation set of a stored expense
	// atomically and marks the expense as allocated. Returns
	// ErrAllocationsExist if the expense is already marked, even when its
	// derived set was empty.
	SaveAllocations(ctx context.Context, expenseID string, allocations []models.Allocation) error

	// GetAllocation retrieves an allocation. Wraps errs.ErrNoSettlement.
	GetAllocation(ctx context.Context, allocationID string) (*models.Allocation, error)

	// ListAllocationsForUser returns allocations where the user is sender or
	// receiver, newest first.
	ListAllocationsForUser(ctx context.Context, userID string) ([]*models.Allocation, error)

	// ListAllocationsByExpense returns the allocations of one expense.
	ListAllocationsByExpense(ctx context.Context, expenseID string) ([]*models.Allocation, error)

	// UpdateAllocationStatus moves an allocation from one status to another.
	// The write only happens if the stored status still equals from; otherwise
	// ErrStatusConflict is returned.
	UpdateAllocationStatus(ctx context.Context, allocationID string, from, to models.SettlementStatus) error
}

// Store defines the full storage contract.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL)
// without changing the service layer.
type Store interface {
	UserStore
	GroupStore
	ExpenseStore
	AllocationStore

	// Close releases any resources held by the store.
	Close() error
}
