package calculator

import (
	"fmt"

	"github.com/mmynk/settleup/internal/errs"
	"github.com/mmynk/settleup/internal/models"
)

var (
	// ErrInvalidSettlementType is returned for an unknown splitting mode.
	ErrInvalidSettlementType = fmt.Errorf("%w: invalid settlement type", errs.ErrInvalidInput)
	// ErrInternalConsistency is returned when allocation sums do not reconcile
	// with the expense. It is never a user error.
	ErrInternalConsistency = fmt.Errorf("%w: allocation sums do not reconcile", errs.ErrInternalConsistency)
)

// BuildAllocations derives the allocation set for one expense.
//
// Every participant other than the payer owes the payer their share; the
// payer's own share is retained and produces no allocation. Itemized expenses
// yield one allocation per (item, non-payer participant) pair. The returned
// allocations are PENDING and carry no ID yet.
func BuildAllocations(expense *models.Expense) ([]models.Allocation, error) {
	var (
		allocations []models.Allocation
		retained    int64
		err         error
	)

	switch expense.Type {
	case models.SettlementEven:
		allocations, retained, err = splitShares(expense, "", expense.Total, expense.Participants)
		if err != nil {
			return nil, err
		}

	case models.SettlementItemized:
		for _, item := range expense.Items {
			itemAllocations, itemRetained, err := splitShares(expense, item.ID, item.Price, item.Participants)
			if err != nil {
				return nil, fmt.Errorf("item %q: %w", item.Name, err)
			}
			if err := reconcile(itemAllocations, itemRetained, item.Price); err != nil {
				return nil, fmt.Errorf("item %q: %w", item.Name, err)
			}
			allocations = append(allocations, itemAllocations...)
			retained += itemRetained
		}

	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidSettlementType, expense.Type)
	}

	if err := reconcile(allocations, retained, expense.Total); err != nil {
		return nil, err
	}
	return allocations, nil
}

// splitShares splits amount among participants and emits an allocation for
// every non-payer share. It returns the payer's retained share.
func splitShares(expense *models.Expense, itemID string, amount int64, participants []string) ([]models.Allocation, int64, error) {
	shares, err := Shares(amount, participants)
	if err != nil {
		return nil, 0, err
	}

	var (
		allocations []models.Allocation
		retained    int64
	)
	for _, share := range shares {
		if share.Participant == expense.PayerID {
			retained += share.Amount
			continue
		}
		if share.Amount == 0 {
			// More participants than currency units; nothing is owed.
			continue
		}
		allocations = append(allocations, models.Allocation{
			GroupID:     expense.GroupID,
			ExpenseID:   expense.ID,
			ItemID:      itemID,
			SenderID:    share.Participant,
			ReceiverID:  expense.PayerID,
			ShareAmount: share.Amount,
			Status:      models.StatusPending,
		})
	}
	return allocations, retained, nil
}

// reconcile checks that emitted shares plus the retained share add up to want.
func reconcile(allocations []models.Allocation, retained, want int64) error {
	sum := retained
	for _, a := range allocations {
		if a.ShareAmount <= 0 || a.SenderID == a.ReceiverID {
			return fmt.Errorf("%w: invalid allocation %s -> %s (%d)", ErrInternalConsistency, a.SenderID, a.ReceiverID, a.ShareAmount)
		}
		sum += a.ShareAmount
	}
	if sum != want {
		return fmt.Errorf("%w: got %d, want %d", ErrInternalConsistency, sum, want)
	}
	return nil
}
