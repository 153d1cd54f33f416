// Package settlement drives allocations through their lifecycle:
// PENDING -> REQUESTED -> COMPLETED.
//
// Every transition checks, in order, that the allocation exists, that the
// caller may perform it, and that the allocation is in the required state.
// Transitions on one allocation are serialized in process, and the final
// write is a compare-and-set in the store.
package settlement

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/mmynk/settleup/internal/calculator"
	"github.com/mmynk/settleup/internal/errs"
	"github.com/mmynk/settleup/internal/messenger"
	"github.com/mmynk/settleup/internal/metrics"
	"github.com/mmynk/settleup/internal/models"
	"github.com/mmynk/settleup/internal/storage"
)

// Notifier delivers payment requests through the messaging provider.
type Notifier interface {
	ResolveHandle(ctx context.Context, token, targetUserID string) (string, error)
	Send(ctx context.Context, token, handle string, message *messenger.Message) error
}

// Manager implements the settlement lifecycle.
type Manager struct {
	store       storage.Store
	notifier    Notifier
	templates   *messenger.Templates
	payLinkBase string
	locks       *keyedMutex
	metrics     *metrics.Metrics
}

// NewManager creates a Manager. An empty payLinkBase uses messenger.DefaultPayLinkBase.
func NewManager(store storage.Store, notifier Notifier, templates *messenger.Templates, payLinkBase string) *Manager {
	if payLinkBase == "" {
		payLinkBase = messenger.DefaultPayLinkBase
	}
	return &Manager{
		store:       store,
		notifier:    notifier,
		templates:   templates,
		payLinkBase: payLinkBase,
		locks:       newKeyedMutex(),
		metrics:     metrics.New(),
	}
}

// RecordExpense derives the allocations of a new expense and persists both
// in one transaction. Nothing is stored if the allocations do not reconcile.
func (m *Manager) RecordExpense(ctx context.Context, expense *models.Expense) ([]models.Allocation, error) {
	// Item allocations reference item IDs, so IDs are fixed before building.
	if expense.ID == "" {
		expense.ID = uuid.New().String()
	}
	for i := range expense.Items {
		if expense.Items[i].ID == "" {
			expense.Items[i].ID = uuid.New().String()
		}
	}

	allocations, err := calculator.BuildAllocations(expense)
	if err != nil {
		return nil, fmt.Errorf("failed to build allocations: %w", err)
	}
	expense.AllocationsCreated = true
	if err := m.store.CreateExpense(ctx, expense, allocations); err != nil {
		return nil, err
	}
	m.metrics.RecordAllocations(string(expense.Type), len(allocations))
	return allocations, nil
}

// CreateAllocationsForExpense derives and saves the allocations of a stored
// expense. It fails with an invalid state transition if allocations were
// already derived for the expense, including an empty set.
func (m *Manager) CreateAllocationsForExpense(ctx context.Context, expenseID string) ([]models.Allocation, error) {
	expense, err := m.store.GetExpense(ctx, expenseID)
	if err != nil {
		return nil, err
	}

	allocations, err := calculator.BuildAllocations(expense)
	if err != nil {
		return nil, fmt.Errorf("failed to build allocations: %w", err)
	}
	if err := m.store.SaveAllocations(ctx, expenseID, allocations); err != nil {
		return nil, err
	}
	m.metrics.RecordAllocations(string(expense.Type), len(allocations))
	return allocations, nil
}

// Request notifies the sender of a PENDING allocation and moves it to
// REQUESTED. Only the receiver may request. The status changes only after the
// provider confirms delivery; any failure leaves the allocation PENDING.
func (m *Manager) Request(ctx context.Context, allocationID, callerID string) (*models.Allocation, error) {
	unlock := m.locks.Lock(allocationID)
	defer unlock()

	a, err := m.request(ctx, allocationID, callerID)
	m.metrics.RecordTransition("request", outcome(err))
	if err != nil {
		slog.Warn("Settlement request failed", "allocation_id", allocationID, "caller", callerID, "error", err)
		return nil, err
	}
	slog.Info("Settlement requested", "allocation_id", allocationID, "sender", a.SenderID, "amount", a.ShareAmount)
	return a, nil
}

func (m *Manager) request(ctx context.Context, allocationID, callerID string) (*models.Allocation, error) {
	a, err := m.store.GetAllocation(ctx, allocationID)
	if err != nil {
		return nil, err
	}
	if a.ReceiverID != callerID {
		return nil, fmt.Errorf("%w: only the receiver can request a settlement", errs.ErrNoAccessPermission)
	}
	if a.Status != models.StatusPending {
		return nil, fmt.Errorf("%w: cannot request a settlement in state %s", errs.ErrInvalidStateTransition, a.Status)
	}

	receiver, err := m.store.GetUserByID(ctx, a.ReceiverID)
	if err != nil {
		return nil, err
	}
	if receiver == nil {
		return nil, fmt.Errorf("receiver %s: %w", a.ReceiverID, errs.ErrNotFound)
	}
	if receiver.PaySuffix == "" {
		return nil, fmt.Errorf("%w: receiver has no payment suffix", errs.ErrInvalidInput)
	}
	if receiver.MessengerToken == "" {
		return nil, fmt.Errorf("%w: receiver has no messenger token", errs.ErrInvalidInput)
	}

	expense, err := m.store.GetExpense(ctx, a.ExpenseID)
	if err != nil {
		return nil, err
	}
	group, err := m.store.GetGroup(ctx, a.GroupID)
	if err != nil {
		return nil, err
	}

	handle, err := m.notifier.ResolveHandle(ctx, receiver.MessengerToken, a.SenderID)
	if err != nil {
		return nil, err
	}

	link, err := messenger.GeneratePaymentLink(m.payLinkBase, receiver.PaySuffix, a.ShareAmount)
	if err != nil {
		return nil, err
	}

	msg := m.templates.BuildPaymentRequestMessage(link, group.Name, lineItems(expense, a), a.ShareAmount)
	if err := m.notifier.Send(ctx, receiver.MessengerToken, handle, msg); err != nil {
		return nil, err
	}

	if err := m.store.UpdateAllocationStatus(ctx, a.ID, models.StatusPending, models.StatusRequested); err != nil {
		return nil, err
	}
	a.Status = models.StatusRequested
	return a, nil
}

// Complete marks a REQUESTED allocation as COMPLETED. Only the receiver may
// confirm that the money arrived.
func (m *Manager) Complete(ctx context.Context, allocationID, callerID string) (*models.Allocation, error) {
	unlock := m.locks.Lock(allocationID)
	defer unlock()

	a, err := m.complete(ctx, allocationID, callerID)
	m.metrics.RecordTransition("complete", outcome(err))
	if err != nil {
		slog.Warn("Settlement completion failed", "allocation_id", allocationID, "caller", callerID, "error", err)
		return nil, err
	}
	slog.Info("Settlement completed", "allocation_id", allocationID)
	return a, nil
}

func (m *Manager) complete(ctx context.Context, allocationID, callerID string) (*models.Allocation, error) {
	a, err := m.store.GetAllocation(ctx, allocationID)
	if err != nil {
		return nil, err
	}
	if a.ReceiverID != callerID {
		return nil, fmt.Errorf("%w: only the receiver can complete a settlement", errs.ErrNoAccessPermission)
	}
	if a.Status != models.StatusRequested {
		return nil, fmt.Errorf("%w: cannot complete a settlement in state %s", errs.ErrInvalidStateTransition, a.Status)
	}

	if err := m.store.UpdateAllocationStatus(ctx, a.ID, models.StatusRequested, models.StatusCompleted); err != nil {
		return nil, err
	}
	a.Status = models.StatusCompleted
	return a, nil
}

// Get returns one allocation. Only its sender and receiver may see it.
func (m *Manager) Get(ctx context.Context, allocationID, callerID string) (*View, error) {
	a, err := m.store.GetAllocation(ctx, allocationID)
	if err != nil {
		return nil, err
	}
	if !a.Involves(callerID) {
		return nil, fmt.Errorf("%w: settlement belongs to other users", errs.ErrNoAccessPermission)
	}

	views, err := newEnricher(m.store).enrich(ctx, []*models.Allocation{a})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// List returns every allocation where userID is sender or receiver, newest
// first, with the user's totals.
func (m *Manager) List(ctx context.Context, userID string) (*Listing, error) {
	allocations, err := m.store.ListAllocationsForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	views, err := newEnricher(m.store).enrich(ctx, allocations)
	if err != nil {
		return nil, err
	}
	return &Listing{
		Settlements: views,
		Summary:     calculator.Summarize(userID, allocations),
	}, nil
}

// lineItems lists what the requested amount is for: the item for itemized
// allocations, the whole expense otherwise.
func lineItems(expense *models.Expense, a *models.Allocation) []messenger.LineItem {
	if a.ItemID != "" {
		if item := expense.ItemByID(a.ItemID); item != nil {
			return []messenger.LineItem{{Description: item.Name, Amount: item.Price}}
		}
	}
	return []messenger.LineItem{{Description: expense.Title, Amount: expense.Total}}
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, errs.ErrNotFound),
		errors.Is(err, errs.ErrNoAccessPermission),
		errors.Is(err, errs.ErrInvalidStateTransition),
		errors.Is(err, errs.ErrInvalidInput):
		return "rejected"
	default:
		return "failed"
	}
}
