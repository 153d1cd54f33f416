package calculator

import "github.com/mmynk/settleup/internal/models"

// StatusTotals sums allocation amounts per lifecycle state.
type StatusTotals struct {
	Pending   int64
	Requested int64
	Completed int64
}

// Outstanding is what has not been settled yet (pending + requested).
func (t StatusTotals) Outstanding() int64 {
	return t.Pending + t.Requested
}

func (t *StatusTotals) add(status models.SettlementStatus, amount int64) {
	switch status {
	case models.StatusPending:
		t.Pending += amount
	case models.StatusRequested:
		t.Requested += amount
	case models.StatusCompleted:
		t.Completed += amount
	}
}

// UserSummary is one user's view over their allocations.
type UserSummary struct {
	UserID string
	Owes   StatusTotals // allocations where the user is the sender
	Owed   StatusTotals // allocations where the user is the receiver

	// Counterparties maps the other party's ID to the outstanding net amount.
	// Positive = they owe the user, negative = the user owes them.
	Counterparties map[string]int64
}

// Summarize aggregates the allocations that involve userID.
// Allocations that do not involve the user are ignored. Debts are not netted
// into fewer transfers; Counterparties is informational only.
func Summarize(userID string, allocations []*models.Allocation) UserSummary {
	summary := UserSummary{
		UserID:         userID,
		Counterparties: make(map[string]int64),
	}

	for _, a := range allocations {
		outstanding := a.Status != models.StatusCompleted

		switch userID {
		case a.SenderID:
			summary.Owes.add(a.Status, a.ShareAmount)
			if outstanding {
				summary.Counterparties[a.ReceiverID] -= a.ShareAmount
			}
		case a.ReceiverID:
			summary.Owed.add(a.Status, a.ShareAmount)
			if outstanding {
				summary.Counterparties[a.SenderID] += a.ShareAmount
			}
		}
	}

	for id, net := range summary.Counterparties {
		if net == 0 {
			delete(summary.Counterparties, id)
		}
	}
	return summary
}
